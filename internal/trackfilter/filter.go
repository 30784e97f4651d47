// Package trackfilter implements the hybrid on-road/off-road Kalman
// tracking filter (spec.md §4.1): a 4-D ground filter, a 2-D road filter,
// and the linear projection operators that convert between them as a
// vehicle enters or leaves the road network.
//
// Grounded on the teacher's Kalman tracker (internal/lidar/tracking.go:
// predict/associate/update over a fixed 4x4 state), generalized from
// hand-unrolled [16]float32 arrays to gonum/mat since this filter's two
// regimes differ in dimension and the projection Jacobian is rectangular.
package trackfilter

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"

	"github.com/lanefinder/roadtrack/internal/belief"
	"github.com/lanefinder/roadtrack/internal/graph"
	"github.com/lanefinder/roadtrack/internal/pathtrace"
	"github.com/lanefinder/roadtrack/internal/trackerr"
)

// Config holds the process- and observation-noise parameters recognised by
// InitialParameters (spec.md §6).
type Config struct {
	// ObsVariance is the diagonal of R, in m².
	ObsVariance [2]float64
	// OnRoadStateVariance is the along-edge acceleration variance, in
	// (m/s²)².
	OnRoadStateVariance float64
	// OffRoadStateVariance is the per-axis (x, y) acceleration variance,
	// in (m/s²)².
	OffRoadStateVariance [2]float64
}

// Validate checks that all variances are positive.
func (c Config) Validate() error {
	if c.ObsVariance[0] <= 0 || c.ObsVariance[1] <= 0 {
		return fmt.Errorf("trackfilter: obsVariance must be positive, got %v", c.ObsVariance)
	}
	if c.OnRoadStateVariance <= 0 {
		return fmt.Errorf("trackfilter: onRoadStateVariance must be positive, got %g", c.OnRoadStateVariance)
	}
	if c.OffRoadStateVariance[0] <= 0 || c.OffRoadStateVariance[1] <= 0 {
		return fmt.Errorf("trackfilter: offRoadStateVariance must be positive, got %v", c.OffRoadStateVariance)
	}
	return nil
}

// roadObsVariance derives the scalar along-edge observation variance from
// the 2-D world observation variance, since a road belief is only ever
// updated by the component of a GPS fix that lies along the edge's
// tangent: the mean of the two axis variances is a reasonable isotropic
// stand-in absent a per-edge noise model.
func (c Config) roadObsVariance() float64 {
	return (c.ObsVariance[0] + c.ObsVariance[1]) / 2
}

// DefaultConfig returns conservative default noise parameters.
func DefaultConfig() Config {
	return Config{
		ObsVariance:          [2]float64{9, 9},
		OnRoadStateVariance:  1,
		OffRoadStateVariance: [2]float64{1, 1},
	}
}

// Filter bundles the ground and road Kalman filters plus the projections
// between them. It holds no mutable state; a Filter value is safe to share
// across vehicles (spec.md §5).
type Filter struct {
	cfg Config
}

// New validates cfg and returns a Filter.
func New(cfg Config) (*Filter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Filter{cfg: cfg}, nil
}

// GetCovarianceFactor returns Γ_r(Δt) or Γ_g(Δt), exposed so the sampler
// can draw process noise through the same factor used in prediction
// (spec.md §4.1, §4.6).
func (f *Filter) GetCovarianceFactor(isRoad bool, dt float64) *mat.Dense {
	if isRoad {
		return roadCovarianceFactor(dt)
	}
	return groundCovarianceFactor(dt)
}

// Predict runs one filter step over a Δt interval, dispatching on the
// regime implied by newPE/oldPE and performing any regime crossing:
//
//   - both empty: ground predict.
//   - both non-empty, same edge: road predict.
//   - both non-empty, different (adjacent) edges: the along-path origin
//     shifts by oldPE's length before the road predict, so the result
//     stays expressed in newPE's D0 frame.
//   - oldPE non-empty, newPE empty: on→off crossing via InvertProjection.
//   - oldPE empty, newPE non-empty: off→on crossing via ProjectOntoEdge.
//
// Predict returns a new Belief rather than mutating b in place, since a
// regime crossing changes dimension; callers replace their stored belief
// with the result.
func (f *Filter) Predict(b *belief.Belief, dt float64, newPE, oldPE pathtrace.PathEdge, view graph.View) (*belief.Belief, error) {
	if dt <= 0 {
		return nil, fmt.Errorf("trackfilter: Predict requires dt > 0, got %g", dt)
	}

	switch {
	case newPE.IsEmpty() && oldPE.IsEmpty():
		if !b.IsGround() {
			return nil, fmt.Errorf("trackfilter: Predict off-road requires a ground belief, got dimension %d", b.Dim())
		}
		return f.predictGround(b, dt)

	case newPE.IsEmpty() && !oldPE.IsEmpty():
		ground, err := f.InvertProjection(b, oldPE, view)
		if err != nil {
			return nil, err
		}
		return f.predictGround(ground, dt)

	case !newPE.IsEmpty() && oldPE.IsEmpty():
		road, err := f.ProjectOntoEdge(b, newPE, view)
		if err != nil {
			return nil, err
		}
		return f.predictRoad(road, dt)

	default: // both non-empty
		if !b.IsRoad() {
			return nil, fmt.Errorf("trackfilter: Predict on-road requires a road belief, got dimension %d", b.Dim())
		}
		working := b.Clone()
		if newPE.E != oldPE.E {
			shift := view.Length(oldPE.E)
			if working.Mean.AtVec(1) < 0 {
				shift = -shift
			}
			working.Mean.SetVec(0, working.Mean.AtVec(0)-shift)
		}
		return f.predictRoad(working, dt)
	}
}

func (f *Filter) predictGround(b *belief.Belief, dt float64) (*belief.Belief, error) {
	F := groundTransition(dt)
	Q := groundProcessNoise(dt, f.cfg.OffRoadStateVariance[0], f.cfg.OffRoadStateVariance[1])
	return applyTransition(b, F, Q)
}

func (f *Filter) predictRoad(b *belief.Belief, dt float64) (*belief.Belief, error) {
	F := roadTransition(dt)
	Q := roadProcessNoise(dt, f.cfg.OnRoadStateVariance)
	return applyTransition(b, F, Q)
}

// applyTransition computes μ' = Fμ, Σ' = FΣF^T + Q.
func applyTransition(b *belief.Belief, F *mat.Dense, Q *mat.SymDense) (*belief.Belief, error) {
	n := b.Dim()

	var mean mat.VecDense
	mean.MulVec(F, b.Mean)

	var fp mat.Dense
	fp.Mul(F, b.Cov)
	var fpft mat.Dense
	fpft.Mul(&fp, F.T())

	cov := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			cov.SetSym(i, j, fpft.At(i, j)+Q.At(i, j))
		}
	}

	out := &belief.Belief{Mean: &mean, Cov: cov}
	if err := out.CheckPSD(); err != nil {
		return nil, err
	}
	return out, nil
}

// Update applies the standard Kalman innovation update: y = z - Hμ,
// S = HΣH^T + R, K = ΣH^T S⁻¹, μ ← μ + Ky, Σ ← (I - KH)Σ. z must have
// dimension 1 for a road belief or 2 for a ground belief.
func (f *Filter) Update(b *belief.Belief, z []float64) error {
	H, R, err := f.observationModel(b, len(z))
	if err != nil {
		return err
	}

	zVec := mat.NewVecDense(len(z), z)

	var hMu mat.VecDense
	hMu.MulVec(H, b.Mean)
	var y mat.VecDense
	y.SubVec(zVec, &hMu)

	m := len(z)
	var hp mat.Dense
	hp.Mul(H, b.Cov)
	var hpht mat.Dense
	hpht.Mul(&hp, H.T())
	S := mat.NewSymDense(m, nil)
	for i := 0; i < m; i++ {
		for j := i; j < m; j++ {
			S.SetSym(i, j, hpht.At(i, j)+R.At(i, j))
		}
	}

	var sInv mat.Dense
	if err := sInv.Inverse(S); err != nil {
		return fmt.Errorf("trackfilter: singular innovation covariance: %w", trackerr.ErrNumericFailure)
	}

	var pht mat.Dense
	pht.Mul(b.Cov, H.T())
	var K mat.Dense
	K.Mul(&pht, &sInv)

	var ky mat.VecDense
	ky.MulVec(&K, &y)
	b.Mean.AddVec(b.Mean, &ky)

	n := b.Dim()
	var kh mat.Dense
	kh.Mul(&K, H)
	var iMinusKH mat.Dense
	iMinusKH.Sub(identity(n), &kh)
	var newCov mat.Dense
	newCov.Mul(&iMinusKH, b.Cov)

	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			sym.SetSym(i, j, (newCov.At(i, j)+newCov.At(j, i))/2)
		}
	}
	b.Cov = sym
	return b.CheckPSD()
}

func identity(n int) *mat.Dense {
	out := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		out.Set(i, i, 1)
	}
	return out
}

// observationModel returns (H, R) for the belief's regime, validating that
// the requested observation dimension matches.
func (f *Filter) observationModel(b *belief.Belief, obsDim int) (*mat.Dense, *mat.SymDense, error) {
	switch {
	case b.IsRoad() && obsDim == 1:
		return roadObservation(), diagSym(f.cfg.roadObsVariance()), nil
	case b.IsGround() && obsDim == 2:
		return groundObservation(), diagSym(f.cfg.ObsVariance[0], f.cfg.ObsVariance[1]), nil
	default:
		return nil, nil, fmt.Errorf("trackfilter: observation dimension %d is incompatible with belief dimension %d", obsDim, b.Dim())
	}
}

// ProjectObservation converts a world-frame observation into the scalar
// along-edge observation a road belief's Update/LogLikelihood expects,
// using the same D0-relative convention as the belief's own mean (spec.md
// §4.1's "observation after projection onto the edge's tangent").
func (f *Filter) ProjectObservation(z graph.Point, pe pathtrace.PathEdge, view graph.View) float64 {
	along, _ := view.PointOnEdge(pe.E, z)
	return along - pe.D0
}

// LogLikelihood returns the Gaussian log-density of a world-frame
// observation z under b's predicted observation, projecting to ground form
// first when pe is on-road (spec.md §4.1).
func (f *Filter) LogLikelihood(z graph.Point, b *belief.Belief, pe pathtrace.PathEdge, view graph.View) (float64, error) {
	ground := b
	if b.IsRoad() {
		g, err := f.InvertProjection(b, pe, view)
		if err != nil {
			return 0, err
		}
		ground = g
	}

	Og := groundObservation()
	var mean mat.VecDense
	mean.MulVec(Og, ground.Mean)

	var op mat.Dense
	op.Mul(Og, ground.Cov)
	var opot mat.Dense
	opot.Mul(&op, Og.T())

	R := diagSym(f.cfg.ObsVariance[0], f.cfg.ObsVariance[1])
	cov := mat.NewSymDense(2, nil)
	for i := 0; i < 2; i++ {
		for j := i; j < 2; j++ {
			cov.SetSym(i, j, opot.At(i, j)+R.At(i, j))
		}
	}

	normal, ok := distmv.NewNormal([]float64{mean.AtVec(0), mean.AtVec(1)}, cov, nil)
	if !ok {
		return 0, fmt.Errorf("trackfilter: singular predicted-observation covariance: %w", trackerr.ErrNumericFailure)
	}
	return normal.LogProb([]float64{z.X, z.Y}), nil
}

// BaseProcessNoise returns Σ, the unit-frame process noise covariance used
// to build Q = ΓΣΓ^T (spec.md §4.1), exposed so the sampler can draw
// generative motion noise through the same Γ used in prediction.
func (f *Filter) BaseProcessNoise(isRoad bool) *mat.SymDense {
	if isRoad {
		return diagSym(f.cfg.OnRoadStateVariance)
	}
	return diagSym(f.cfg.OffRoadStateVariance[0], f.cfg.OffRoadStateVariance[1])
}

// SampleMovementBelief draws process noise w ~ N(0, Σ) through its
// Cholesky factor and adds Γ·w to mean in place (spec.md §4.6's
// sampleMovementBelief).
func (f *Filter) SampleMovementBelief(rng *rand.Rand, mean *mat.VecDense, isRoad bool, dt float64) error {
	sigma := f.BaseProcessNoise(isRoad)
	gamma := f.GetCovarianceFactor(isRoad, dt)

	var chol mat.Cholesky
	if ok := chol.Factorize(sigma); !ok {
		return fmt.Errorf("trackfilter: process noise covariance is not positive semi-definite: %w", trackerr.ErrNumericFailure)
	}
	var lower mat.TriDense
	chol.LTo(&lower)

	n, _ := sigma.Dims()
	raw := make([]float64, n)
	for i := range raw {
		raw[i] = rng.NormFloat64()
	}
	z := mat.NewVecDense(n, raw)
	var w mat.VecDense
	w.MulVec(&lower, z)

	var delta mat.VecDense
	delta.MulVec(gamma, &w)
	mean.AddVec(mean, &delta)
	return nil
}

// SampleObservation draws a simulated GPS fix from b's predicted ground
// observation distribution (spec.md §4.6's sampleObservation): project to
// ground via pe if b is on-road, multiply by O_g, and add noise drawn
// through R's Cholesky factor.
func (f *Filter) SampleObservation(rng *rand.Rand, b *belief.Belief, pe pathtrace.PathEdge, view graph.View) (graph.Point, error) {
	ground := b
	if b.IsRoad() {
		g, err := f.InvertProjection(b, pe, view)
		if err != nil {
			return graph.Point{}, err
		}
		ground = g
	}

	Og := groundObservation()
	var mean mat.VecDense
	mean.MulVec(Og, ground.Mean)

	R := diagSym(f.cfg.ObsVariance[0], f.cfg.ObsVariance[1])
	var chol mat.Cholesky
	if ok := chol.Factorize(R); !ok {
		return graph.Point{}, fmt.Errorf("trackfilter: observation noise covariance is not positive semi-definite: %w", trackerr.ErrNumericFailure)
	}
	var lower mat.TriDense
	chol.LTo(&lower)

	z := mat.NewVecDense(2, []float64{rng.NormFloat64(), rng.NormFloat64()})
	var noise mat.VecDense
	noise.MulVec(&lower, z)

	return graph.Point{X: mean.AtVec(0) + noise.AtVec(0), Y: mean.AtVec(1) + noise.AtVec(1)}, nil
}
