package trackfilter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/lanefinder/roadtrack/internal/belief"
	"github.com/lanefinder/roadtrack/internal/graph"
	"github.com/lanefinder/roadtrack/internal/pathtrace"
	"github.com/lanefinder/roadtrack/internal/trackerr"
)

func straightEdge() *graph.MemoryView {
	return graph.NewMemoryView([]graph.EdgeSpec{
		{ID: 0, Geometry: []graph.Point{{X: 0, Y: 0}, {X: 200, Y: 0}}},
		{ID: 1, Geometry: []graph.Point{{X: 200, Y: 0}, {X: 400, Y: 0}}},
	})
}

func mustFilter(t *testing.T) *Filter {
	t.Helper()
	f, err := New(DefaultConfig())
	require.NoError(t, err)
	return f
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	t.Run("default config is valid", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, DefaultConfig().Validate())
	})

	t.Run("non positive obs variance rejected", func(t *testing.T) {
		t.Parallel()
		cfg := DefaultConfig()
		cfg.ObsVariance[0] = 0
		assert.Error(t, cfg.Validate())
	})
}

func TestPredictGroundToGround(t *testing.T) {
	t.Parallel()
	f := mustFilter(t)
	b, err := belief.New([]float64{0, 10, 0, 0}, identitySym(4))
	require.NoError(t, err)

	next, err := f.Predict(b, 1.0, pathtrace.EmptyPathEdge, pathtrace.EmptyPathEdge, nil)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, next.Mean.AtVec(0), 1e-9)
	assert.Greater(t, next.Cov.At(0, 0), b.Cov.At(0, 0))
}

func TestPredictOffToOnProjectsOntoEdge(t *testing.T) {
	t.Parallel()
	f := mustFilter(t)
	view := straightEdge()
	b, err := belief.New([]float64{50, 10, 0.1, 0}, identitySym(4))
	require.NoError(t, err)

	pe := pathtrace.PathEdge{E: 0, D0: 0}
	next, err := f.Predict(b, 1.0, pe, pathtrace.EmptyPathEdge, view)
	require.NoError(t, err)
	assert.True(t, next.IsRoad())
}

func TestPredictOnToOffInvertsProjection(t *testing.T) {
	t.Parallel()
	f := mustFilter(t)
	view := straightEdge()
	b, err := belief.New([]float64{50, 5}, identitySym(2))
	require.NoError(t, err)

	pe := pathtrace.PathEdge{E: 0, D0: 0}
	next, err := f.Predict(b, 1.0, pathtrace.EmptyPathEdge, pe, view)
	require.NoError(t, err)
	assert.True(t, next.IsGround())
	// Inverted to x = 50, ẋ = 5, then advanced one ground step: 50 + 5·1.
	assert.InDelta(t, 55.0, next.Mean.AtVec(0), 1e-6)
	assert.InDelta(t, 0.0, next.Mean.AtVec(2), 1e-6)
}

func TestPredictAcrossEdgesShiftsOrigin(t *testing.T) {
	t.Parallel()
	f := mustFilter(t)
	view := straightEdge()
	b, err := belief.New([]float64{10, 5}, identitySym(2))
	require.NoError(t, err)

	oldPE := pathtrace.PathEdge{E: 0, D0: 0}
	newPE := pathtrace.PathEdge{E: 1, D0: 200}
	next, err := f.Predict(b, 1.0, newPE, oldPE, view)
	require.NoError(t, err)
	assert.True(t, next.IsRoad())
}

func TestPredictRejectsNonPositiveDt(t *testing.T) {
	t.Parallel()
	f := mustFilter(t)
	b, err := belief.New([]float64{0, 0, 0, 0}, identitySym(4))
	require.NoError(t, err)
	_, err = f.Predict(b, 0, pathtrace.EmptyPathEdge, pathtrace.EmptyPathEdge, nil)
	assert.Error(t, err)
}

func TestUpdateGround(t *testing.T) {
	t.Parallel()
	f := mustFilter(t)
	b, err := belief.New([]float64{0, 0, 0, 0}, identitySym(4))
	require.NoError(t, err)

	err = f.Update(b, []float64{10, 10})
	require.NoError(t, err)
	assert.Greater(t, b.Mean.AtVec(0), 0.0)
	assert.Greater(t, b.Mean.AtVec(2), 0.0)
	assert.Less(t, b.Cov.At(0, 0), 1.0)
}

func TestUpdateRoad(t *testing.T) {
	t.Parallel()
	f := mustFilter(t)
	b, err := belief.New([]float64{0, 0}, identitySym(2))
	require.NoError(t, err)

	err = f.Update(b, []float64{10})
	require.NoError(t, err)
	assert.Greater(t, b.Mean.AtVec(0), 0.0)
}

func TestUpdateRejectsMismatchedObservationDimension(t *testing.T) {
	t.Parallel()
	f := mustFilter(t)
	b, err := belief.New([]float64{0, 0}, identitySym(2))
	require.NoError(t, err)
	err = f.Update(b, []float64{1, 2})
	require.Error(t, err)
}

func TestProjectionRoundTrip(t *testing.T) {
	t.Parallel()
	f := mustFilter(t)
	view := straightEdge()
	pe := pathtrace.PathEdge{E: 0, D0: 0}

	road, err := belief.New([]float64{75, 3}, mat.NewSymDense(2, []float64{4, 1, 1, 2}))
	require.NoError(t, err)

	ground, err := f.InvertProjection(road, pe, view)
	require.NoError(t, err)

	back, err := f.ProjectOntoEdge(ground, pe, view)
	require.NoError(t, err)

	assert.InDelta(t, road.Mean.AtVec(0), back.Mean.AtVec(0), 1e-7)
	assert.InDelta(t, road.Mean.AtVec(1), back.Mean.AtVec(1), 1e-7)
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			assert.InDelta(t, road.Cov.At(i, j), back.Cov.At(i, j), 1e-6)
		}
	}
}

func TestLogLikelihoodHigherNearMean(t *testing.T) {
	t.Parallel()
	f := mustFilter(t)
	view := straightEdge()
	pe := pathtrace.PathEdge{E: 0, D0: 0}

	road, err := belief.New([]float64{50, 0}, identitySym(2))
	require.NoError(t, err)

	near, err := f.LogLikelihood(graph.Point{X: 50, Y: 0}, road, pe, view)
	require.NoError(t, err)
	far, err := f.LogLikelihood(graph.Point{X: 50, Y: 500}, road, pe, view)
	require.NoError(t, err)

	assert.Greater(t, near, far)
}

func TestUpdateSingularInnovationFails(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()
	cfg.ObsVariance = [2]float64{1e-300, 1e-300}
	f, err := New(cfg)
	require.NoError(t, err)

	b, err := belief.New([]float64{0, 0, 0, 0}, mat.NewSymDense(4, nil))
	require.NoError(t, err)
	err = f.Update(b, []float64{1, 1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, trackerr.ErrNumericFailure))
}

func identitySym(n int) *mat.SymDense {
	out := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		out.SetSym(i, i, 1)
	}
	return out
}
