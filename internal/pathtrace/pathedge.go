// Package pathtrace models the path a vehicle follows between observations:
// a PathEdge pins a graph edge to an along-path origin, and a Path is an
// ordered, contiguous run of them. Grounded on the teacher's TrackPoint/
// TrackedObject.History shape (internal/lidar/tracking.go) generalized from
// a flat position history to a graph-aware one.
package pathtrace

import (
	"fmt"
	"math"

	"github.com/lanefinder/roadtrack/internal/belief"
	"github.com/lanefinder/roadtrack/internal/graph"
	"github.com/lanefinder/roadtrack/internal/trackerr"
)

// PathEdge pairs a graph edge with the signed along-path distance to the
// start of that edge. D0 is undefined (by convention 0) for EmptyPathEdge.
type PathEdge struct {
	E  graph.EdgeID
	D0 float64
}

// EmptyPathEdge is the shared sentinel denoting off-road motion.
var EmptyPathEdge = PathEdge{E: graph.EmptyEdge, D0: 0}

// IsEmpty reports whether pe is the off-road sentinel.
func (pe PathEdge) IsEmpty() bool { return pe.E == graph.EmptyEdge }

// Equal reports whether pe and other denote the same edge and origin.
func (pe PathEdge) Equal(other PathEdge) bool {
	if pe.IsEmpty() || other.IsEmpty() {
		return pe.IsEmpty() && other.IsEmpty()
	}
	return pe.E == other.E && pe.D0 == other.D0
}

// uniformPriorVariance is the variance of a uniform distribution over
// [0, length]: length²/12, i.e. (length/√12)².
func uniformPriorVariance(length float64) float64 {
	return length * length / 12
}

// Predict truncates a road belief to this edge's extent [D0, D0+length] by
// conditioning on the coarse pseudo-observation "s lies within this
// interval", treated as uniform over the interval (spec.md §4.2). This is a
// rank-1 conditioning, not a true truncated-Gaussian moment match — an
// acknowledged approximation (spec.md §9): mass outside the interval is not
// actually clipped, only down-weighted by the conditioning update.
func (pe PathEdge) Predict(b *belief.Belief, length float64) error {
	if pe.IsEmpty() {
		return fmt.Errorf("pathtrace: Predict called on EmptyPathEdge")
	}
	if !b.IsRoad() {
		return fmt.Errorf("pathtrace: Predict requires a road belief, got dimension %d", b.Dim())
	}

	h00 := b.Cov.At(0, 0)
	h10 := b.Cov.At(1, 0)
	s := h00 + uniformPriorVariance(length)
	if s <= 0 {
		return fmt.Errorf("pathtrace: non-positive innovation variance in truncation: %w", trackerr.ErrNumericFailure)
	}

	w0 := h00 / s
	w1 := h10 / s
	innovation := (pe.D0 + length/2) - b.Mean.AtVec(0)

	b.Mean.SetVec(0, b.Mean.AtVec(0)+w0*innovation)
	b.Mean.SetVec(1, b.Mean.AtVec(1)+w1*innovation)

	b.Cov.SetSym(0, 0, h00-w0*w0*s)
	b.Cov.SetSym(0, 1, b.Cov.At(0, 1)-w0*w1*s)
	b.Cov.SetSym(1, 1, b.Cov.At(1, 1)-w1*w1*s)

	return b.CheckPSD()
}

// Contains reports whether along-path distance d falls within this edge's
// extent, using the given edge length.
func (pe PathEdge) Contains(d, length float64) bool {
	lo, hi := pe.D0, pe.D0+length
	if lo > hi {
		lo, hi = hi, lo
	}
	const eps = 1e-9
	return d >= lo-eps && d <= hi+eps
}

// LocalDistance converts an absolute along-path distance to the
// edge-local along-edge distance (0 at the edge's start regardless of
// D0's sign).
func (pe PathEdge) LocalDistance(d float64) float64 {
	return math.Abs(d - pe.D0)
}
