package trackfilter

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/lanefinder/roadtrack/internal/belief"
	"github.com/lanefinder/roadtrack/internal/graph"
	"github.com/lanefinder/roadtrack/internal/pathtrace"
	"github.com/lanefinder/roadtrack/internal/trackerr"
)

// linearModel returns the constant offset c and covariance factor J of the
// local linear map from road state (s, ṡ) to ground state (x, ẋ, y, ẏ)
// along pe, evaluated at the edge's tangent at distance pe.D0+s0:
//
//	(x, ẋ, y, ẏ) = c + J·(s, ṡ)
//
// J's columns are orthogonal unit-tangent directions, so J^T J = I and
// J's own transpose is its Moore-Penrose pseudo-inverse — this is what
// makes ProjectOntoEdge an exact left inverse of InvertProjection (spec.md
// §8.4).
func linearModel(pe pathtrace.PathEdge, s0 float64, view graph.View) (c *mat.VecDense, j *mat.Dense) {
	tangent := view.TangentAt(pe.E, pe.D0+s0)
	start := view.Start(pe.E)
	anchor := start.Add(tangent.Scale(pe.D0))

	c = mat.NewVecDense(4, []float64{anchor.X, 0, anchor.Y, 0})
	j = mat.NewDense(4, 2, []float64{
		tangent.X, 0,
		0, tangent.X,
		tangent.Y, 0,
		0, tangent.Y,
	})
	return c, j
}

// InvertProjection maps a 2-D road belief on pe.E back to a 4-D ground
// belief, using the linear model anchored at the belief's own mean
// (spec.md §4.1). It does not mutate b.
func (f *Filter) InvertProjection(b *belief.Belief, pe pathtrace.PathEdge, view graph.View) (*belief.Belief, error) {
	if !b.IsRoad() {
		return nil, fmt.Errorf("trackfilter: InvertProjection requires a road belief, got dimension %d", b.Dim())
	}
	if pe.IsEmpty() {
		return nil, fmt.Errorf("trackfilter: InvertProjection requires a non-empty PathEdge")
	}

	c, j := linearModel(pe, b.Mean.AtVec(0), view)

	var mean mat.VecDense
	mean.MulVec(j, b.Mean)
	mean.AddVec(&mean, c)

	var jSigma mat.Dense
	jSigma.Mul(j, b.Cov)
	var full mat.Dense
	full.Mul(&jSigma, j.T())

	cov := mat.NewSymDense(4, nil)
	for i := 0; i < 4; i++ {
		for jj := i; jj < 4; jj++ {
			cov.SetSym(i, jj, full.At(i, jj))
		}
	}

	out := &belief.Belief{Mean: &mean, Cov: cov}
	return out, nil
}

// ConvertToGroundBelief is InvertProjection's in-place form: it replaces
// b's mean and covariance with the ground-frame projection.
func (f *Filter) ConvertToGroundBelief(b *belief.Belief, pe pathtrace.PathEdge, view graph.View) error {
	ground, err := f.InvertProjection(b, pe, view)
	if err != nil {
		return err
	}
	b.Mean = ground.Mean
	b.Cov = ground.Cov
	return nil
}

// ProjectOntoEdge maps a 4-D ground belief onto pe's line, returning a
// 2-D road belief. Because the linear model's Jacobian J has orthonormal
// columns, J^T is its exact left inverse: ProjectOntoEdge(InvertProjection(
// b, pe), pe) recovers b to machine precision (spec.md §8.4).
func (f *Filter) ProjectOntoEdge(b *belief.Belief, pe pathtrace.PathEdge, view graph.View) (*belief.Belief, error) {
	if !b.IsGround() {
		return nil, fmt.Errorf("trackfilter: ProjectOntoEdge requires a ground belief, got dimension %d", b.Dim())
	}
	if pe.IsEmpty() {
		return nil, fmt.Errorf("trackfilter: ProjectOntoEdge requires a non-empty PathEdge")
	}

	worldPoint := graph.Point{X: b.Mean.AtVec(0), Y: b.Mean.AtVec(2)}
	along, _ := view.PointOnEdge(pe.E, worldPoint)
	s0 := along - pe.D0

	c, j := linearModel(pe, s0, view)
	jt := j.T()

	var centered mat.VecDense
	centered.SubVec(b.Mean, c)
	var mean mat.VecDense
	mean.MulVec(jt, &centered)

	var jtSigma mat.Dense
	jtSigma.Mul(jt, b.Cov)
	var full mat.Dense
	full.Mul(&jtSigma, j)

	cov := mat.NewSymDense(2, nil)
	for i := 0; i < 2; i++ {
		for jj := i; jj < 2; jj++ {
			cov.SetSym(i, jj, full.At(i, jj))
		}
	}

	out := &belief.Belief{Mean: &mean, Cov: cov}
	if err := out.CheckPSD(); err != nil {
		return nil, fmt.Errorf("%w: road covariance after projection", trackerr.ErrNumericFailure)
	}
	return out, nil
}
