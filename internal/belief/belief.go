// Package belief defines the Gaussian state the estimator tracks: either a
// 4-D ground belief (x, ẋ, y, ẏ) or a 2-D road belief (s, ṡ). The dimension
// is authoritative — callers branch on Dim() rather than carrying a
// separate regime tag, matching how the teacher's TrackedObject uses a
// fixed-shape Kalman state (internal/lidar/tracking.go) but generalized to
// gonum matrices since the two regimes differ in size.
package belief

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/lanefinder/roadtrack/internal/trackerr"
)

// GroundDim is the dimension of a ground belief: (x, ẋ, y, ẏ).
const GroundDim = 4

// RoadDim is the dimension of a road belief: (s, ṡ).
const RoadDim = 2

// Belief is a multivariate Gaussian over either the ground or road state.
type Belief struct {
	Mean *mat.VecDense
	Cov  *mat.SymDense
}

// New builds a Belief from a raw mean and covariance, validating dimensions
// agree and are one of GroundDim or RoadDim.
func New(mean []float64, cov *mat.SymDense) (*Belief, error) {
	n := len(mean)
	if n != GroundDim && n != RoadDim {
		return nil, fmt.Errorf("belief: mean has dimension %d, want %d or %d", n, RoadDim, GroundDim)
	}
	if cov.SymmetricDim() != n {
		return nil, fmt.Errorf("belief: covariance dimension %d does not match mean dimension %d", cov.SymmetricDim(), n)
	}
	return &Belief{Mean: mat.NewVecDense(n, append([]float64(nil), mean...)), Cov: cov}, nil
}

// Dim returns the belief's dimension: GroundDim or RoadDim.
func (b *Belief) Dim() int { return b.Mean.Len() }

// IsGround reports whether b is the 4-D ground-frame belief.
func (b *Belief) IsGround() bool { return b.Dim() == GroundDim }

// IsRoad reports whether b is the 2-D along-edge belief.
func (b *Belief) IsRoad() bool { return b.Dim() == RoadDim }

// Clone returns a deep copy of b.
func (b *Belief) Clone() *Belief {
	n := b.Dim()
	mean := mat.NewVecDense(n, nil)
	mean.CloneFromVec(b.Mean)
	cov := mat.NewSymDense(n, nil)
	cov.CopySym(b.Cov)
	return &Belief{Mean: mean, Cov: cov}
}

// TraceCov returns the trace of the covariance matrix, a scalar measure of
// total uncertainty used by the Kalman-consistency property (spec.md §8.5).
func (b *Belief) TraceCov() float64 {
	n := b.Dim()
	var tr float64
	for i := 0; i < n; i++ {
		tr += b.Cov.At(i, i)
	}
	return tr
}

// CheckPSD returns trackerr.ErrNumericFailure if the covariance is not
// positive semi-definite, detected via a negative (beyond round-off) or NaN
// eigenvalue. Singular covariances, such as the rank-deficient ground
// covariance produced by InvertProjection, pass.
// The core never attempts to regularize a broken covariance (spec.md §4.1);
// this just surfaces the failure so the caller can discard the vehicle.
func (b *Belief) CheckPSD() error {
	var eig mat.EigenSym
	if ok := eig.Factorize(b.Cov, false); !ok {
		return fmt.Errorf("belief covariance eigendecomposition failed: %w", trackerr.ErrNumericFailure)
	}
	values := eig.Values(nil)
	var maxAbs float64
	for _, v := range values {
		maxAbs = math.Max(maxAbs, math.Abs(v))
	}
	for _, v := range values {
		if math.IsNaN(v) || v < -1e-10*maxAbs {
			return fmt.Errorf("belief covariance is not positive semi-definite: %w", trackerr.ErrNumericFailure)
		}
	}
	return nil
}
