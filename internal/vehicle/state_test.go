package vehicle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanefinder/roadtrack/internal/graph"
	"github.com/lanefinder/roadtrack/internal/observation"
	"github.com/lanefinder/roadtrack/internal/pathtrace"
	"github.com/lanefinder/roadtrack/internal/trackfilter"
	"github.com/lanefinder/roadtrack/internal/transition"
)

func testView() *graph.MemoryView {
	return graph.NewMemoryView([]graph.EdgeSpec{
		{ID: 0, Geometry: []graph.Point{{X: 0, Y: 0}, {X: 200, Y: 0}}},
		{ID: 1, Geometry: []graph.Point{{X: 200, Y: 0}, {X: 400, Y: 0}}},
	})
}

func testFilter(t *testing.T) *trackfilter.Filter {
	t.Helper()
	f, err := trackfilter.New(trackfilter.DefaultConfig())
	require.NoError(t, err)
	return f
}

func testDist(t *testing.T) *transition.Distribution {
	t.Helper()
	d, err := transition.New([2]float64{1, 1}, [2]float64{1, 1})
	require.NoError(t, err)
	return d
}

func testObs(t *testing.T, world graph.Point) *observation.Observation {
	t.Helper()
	o, err := observation.New(time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC), world, world, nil)
	require.NoError(t, err)
	return o
}

func TestNewInitialOffRoad(t *testing.T) {
	t.Parallel()
	view := testView()
	obs := testObs(t, graph.Point{X: -50, Y: 10})

	s, err := NewInitial(testFilter(t), testDist(t), obs, graph.EmptyEdge, view, 100)
	require.NoError(t, err)
	assert.Equal(t, graph.EmptyEdge, s.Edge)
	assert.True(t, s.Belief.IsGround())
	assert.True(t, s.Path.Empty())
	assert.InDelta(t, -50, s.Belief.Mean.AtVec(0), 1e-9)
	assert.InDelta(t, 10, s.Belief.Mean.AtVec(2), 1e-9)
}

func TestNewInitialOnRoad(t *testing.T) {
	t.Parallel()
	view := testView()
	obs := testObs(t, graph.Point{X: 30, Y: 2})

	s, err := NewInitial(testFilter(t), testDist(t), obs, graph.EdgeID(0), view, 100)
	require.NoError(t, err)
	assert.Equal(t, graph.EdgeID(0), s.Edge)
	assert.True(t, s.Belief.IsRoad())
	require.False(t, s.Path.Empty())
	assert.Equal(t, graph.EdgeID(0), s.Path.Last().E)
	assert.InDelta(t, 30, s.Belief.Mean.AtVec(0), 1e-9)
}

func TestNewTransitionReZeroesOntoCurrentEdge(t *testing.T) {
	t.Parallel()
	view := testView()
	parentObs := testObs(t, graph.Point{X: 30, Y: 0})
	parent, err := NewInitial(testFilter(t), testDist(t), parentObs, graph.EdgeID(0), view, 100)
	require.NoError(t, err)

	childObs, err := observation.New(parentObs.Time.Add(5*time.Second), graph.Point{X: 210, Y: 0}, graph.Point{X: 210, Y: 0}, parentObs)
	require.NoError(t, err)

	predicted, err := parent.filter.Predict(parent.Belief, 5, pathtrace.PathEdge{E: 1, D0: 200}, parent.CurrentPathEdge(), view)
	require.NoError(t, err)

	newPath, err := pathtrace.NewPath([]pathtrace.PathEdge{{E: 0, D0: 0}, {E: 1, D0: 200}}, 210, view)
	require.NoError(t, err)

	child, err := NewTransition(parent, predicted, newPath, pathtrace.PathEdge{E: 1, D0: 200}, testDist(t), childObs)
	require.NoError(t, err)

	assert.Equal(t, graph.EdgeID(1), child.Edge)
	assert.InDelta(t, 200.0, child.DFromPrev, 1e-9)
	assert.Same(t, parent, child.Parent())
}

func TestNewTransitionValidatesRegimeInvariant(t *testing.T) {
	t.Parallel()
	view := testView()
	obs := testObs(t, graph.Point{X: 30, Y: 0})
	parent, err := NewInitial(testFilter(t), testDist(t), obs, graph.EdgeID(0), view, 100)
	require.NoError(t, err)

	emptyPath, err := pathtrace.NewPath(nil, 0, view)
	require.NoError(t, err)

	_, err = NewTransition(parent, parent.Belief, emptyPath, pathtrace.PathEdge{E: 0, D0: 0}, testDist(t), obs)
	assert.Error(t, err)
}

func TestParentIsNilForRootState(t *testing.T) {
	t.Parallel()
	view := testView()
	obs := testObs(t, graph.Point{X: 0, Y: 0})
	s, err := NewInitial(testFilter(t), testDist(t), obs, graph.EmptyEdge, view, 100)
	require.NoError(t, err)
	assert.Nil(t, s.Parent())
}

func TestSampleIsUnimplemented(t *testing.T) {
	t.Parallel()
	view := testView()
	obs := testObs(t, graph.Point{X: 0, Y: 0})
	s, err := NewInitial(testFilter(t), testDist(t), obs, graph.EmptyEdge, view, 100)
	require.NoError(t, err)
	assert.Error(t, s.Sample())
}
