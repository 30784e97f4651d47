package observation

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanefinder/roadtrack/internal/graph"
	"github.com/lanefinder/roadtrack/internal/trackerr"
)

func TestNewFirstObservationAccepted(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	o, err := New(now, graph.Point{X: 1, Y: 2}, graph.Point{X: 10, Y: 20}, nil)
	require.NoError(t, err)
	assert.Nil(t, o.Prev)
	assert.Equal(t, now, o.Time)
}

func TestNewRejectsNonIncreasingTime(t *testing.T) {
	t.Parallel()
	base := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	prev, err := New(base, graph.Point{}, graph.Point{}, nil)
	require.NoError(t, err)

	t.Run("equal timestamp rejected", func(t *testing.T) {
		t.Parallel()
		_, err := New(base, graph.Point{}, graph.Point{}, prev)
		require.Error(t, err)
		assert.True(t, errors.Is(err, trackerr.ErrTimeOrder))
	})

	t.Run("earlier timestamp rejected", func(t *testing.T) {
		t.Parallel()
		_, err := New(base.Add(-time.Second), graph.Point{}, graph.Point{}, prev)
		require.Error(t, err)
		assert.True(t, errors.Is(err, trackerr.ErrTimeOrder))
	})

	t.Run("later timestamp accepted", func(t *testing.T) {
		t.Parallel()
		next, err := New(base.Add(time.Second), graph.Point{}, graph.Point{}, prev)
		require.NoError(t, err)
		assert.Same(t, prev, next.Prev)
	})
}

func TestDeltaTFallsBackToDefaultForFirstObservation(t *testing.T) {
	t.Parallel()
	o, err := New(time.Now(), graph.Point{}, graph.Point{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, o.DeltaT(30*time.Second))
}

func TestDeltaTComputesElapsedFromPrev(t *testing.T) {
	t.Parallel()
	base := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	prev, err := New(base, graph.Point{}, graph.Point{}, nil)
	require.NoError(t, err)
	next, err := New(base.Add(7*time.Second), graph.Point{}, graph.Point{}, prev)
	require.NoError(t, err)

	assert.Equal(t, 7*time.Second, next.DeltaT(30*time.Second))
}
