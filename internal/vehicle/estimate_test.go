package vehicle

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanefinder/roadtrack/internal/graph"
)

func TestBestEstimateOffRoad(t *testing.T) {
	t.Parallel()
	view := testView()
	obs := testObs(t, graph.Point{X: 50, Y: -5})
	s, err := NewInitial(testFilter(t), testDist(t), obs, graph.EmptyEdge, view, 25)
	require.NoError(t, err)

	est, err := s.BestEstimate()
	require.NoError(t, err)
	assert.InDelta(t, 50, est.Mean.X, 1e-9)
	assert.InDelta(t, -5, est.Mean.Y, 1e-9)
	assert.GreaterOrEqual(t, est.MajorAxis.Norm(), est.MinorAxis.Norm())
}

func TestBestEstimateOnRoadInvertsProjection(t *testing.T) {
	t.Parallel()
	view := testView()
	obs := testObs(t, graph.Point{X: 30, Y: 0})
	s, err := NewInitial(testFilter(t), testDist(t), obs, graph.EdgeID(0), view, 25)
	require.NoError(t, err)

	est, err := s.BestEstimate()
	require.NoError(t, err)
	assert.InDelta(t, 30, est.Mean.X, 1e-6)
	assert.InDelta(t, 0, est.Mean.Y, 1e-6)
}

func TestBestEstimateAxesAreOrthogonal(t *testing.T) {
	t.Parallel()
	view := testView()
	obs := testObs(t, graph.Point{X: 0, Y: 0})
	s, err := NewInitial(testFilter(t), testDist(t), obs, graph.EmptyEdge, view, 25)
	require.NoError(t, err)

	est, err := s.BestEstimate()
	require.NoError(t, err)
	dot := est.MajorAxis.Dot(est.MinorAxis)
	assert.InDelta(t, 0, dot, 1e-6)
}

func TestBestEstimateIsotropicCovarianceGivesEqualAxes(t *testing.T) {
	t.Parallel()
	view := testView()
	obs := testObs(t, graph.Point{X: 0, Y: 0})
	s, err := NewInitial(testFilter(t), testDist(t), obs, graph.EmptyEdge, view, 9)
	require.NoError(t, err)

	est, err := s.BestEstimate()
	require.NoError(t, err)
	assert.InDelta(t, est.MajorAxis.Norm(), est.MinorAxis.Norm(), 1e-6)
	assert.InDelta(t, confidenceScale*math.Sqrt(9), est.MajorAxis.Norm(), 1e-6)
}
