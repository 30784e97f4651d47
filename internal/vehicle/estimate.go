package vehicle

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/lanefinder/roadtrack/internal/graph"
	"github.com/lanefinder/roadtrack/internal/trackerr"
)

// confidenceScale is the σ multiplier for a 95% confidence ellipse on a
// 2-D Gaussian (spec.md §6).
const confidenceScale = 1.98

// Estimate is the reconstructed-coordinate output spec.md §6 describes:
// a world-frame mean plus the two semi-axes of the 95% confidence
// ellipse, each already scaled by confidenceScale and oriented along the
// corresponding eigenvector.
type Estimate struct {
	Mean graph.Point
	// MajorAxis and MinorAxis are the ellipse's semi-axis vectors in
	// world coordinates; their length is the 95% confidence radius along
	// that axis, their direction the eigenvector.
	MajorAxis graph.Point
	MinorAxis graph.Point
}

// BestEstimate reconstructs s's belief into world coordinates: on-road
// beliefs are inverted through the filter's projection first (spec.md
// §4.1), then the position sub-block of the 4-D ground covariance is
// eigendecomposed to find the confidence ellipse's axes (spec.md §6).
func (s *State) BestEstimate() (Estimate, error) {
	ground := s.Belief
	if s.Belief.IsRoad() {
		g, err := s.filter.InvertProjection(s.Belief, s.CurrentPathEdge(), s.View)
		if err != nil {
			return Estimate{}, err
		}
		ground = g
	}

	mean := graph.Point{X: ground.Mean.AtVec(0), Y: ground.Mean.AtVec(2)}

	posCov := mat.NewSymDense(2, []float64{
		ground.Cov.At(0, 0), ground.Cov.At(0, 2),
		ground.Cov.At(2, 0), ground.Cov.At(2, 2),
	})

	var eig mat.EigenSym
	if ok := eig.Factorize(posCov, true); !ok {
		return Estimate{}, fmt.Errorf("vehicle: eigendecomposition of position covariance failed: %w", trackerr.ErrNumericFailure)
	}

	values := eig.Values(nil)
	var vectors mat.Dense
	eig.VectorsTo(&vectors)

	axis := func(i int) graph.Point {
		lambda := values[i]
		if lambda < 0 {
			lambda = 0
		}
		radius := confidenceScale * math.Sqrt(lambda)
		return graph.Point{X: vectors.At(0, i) * radius, Y: vectors.At(1, i) * radius}
	}

	a0, a1 := axis(0), axis(1)
	major, minor := a0, a1
	if a1.Norm() > a0.Norm() {
		major, minor = a1, a0
	}

	return Estimate{Mean: mean, MajorAxis: major, MinorAxis: minor}, nil
}
