// Package sampler implements the generative trajectory walk (spec.md
// §4.6): given a starting edge and a belief whose mean encodes an
// intended travel distance, it samples a sequence of graph transitions
// and returns the edges traversed, used both by the simulator and by a
// future particle-filter proposal step.
//
// No teacher or reference file implements a comparable graph walk; this
// package is built directly on top of trackfilter.Filter's predict/sample
// methods and transition.Distribution.
package sampler

import (
	"errors"
	"fmt"
	"math"

	"golang.org/x/exp/rand"

	"github.com/lanefinder/roadtrack/internal/belief"
	"github.com/lanefinder/roadtrack/internal/graph"
	"github.com/lanefinder/roadtrack/internal/pathtrace"
	"github.com/lanefinder/roadtrack/internal/trackfilter"
	"github.com/lanefinder/roadtrack/internal/transition"
)

// Walk is the result of TraverseEdge: the edges traversed since the
// starting point, the belief at the end of the walk, and the edge the
// walk ended on (graph.EmptyEdge if it exited off-road).
type Walk struct {
	Path    *pathtrace.Path
	Belief  *belief.Belief
	EndEdge graph.EdgeID
}

func edgeLength(view graph.View, pe pathtrace.PathEdge) float64 {
	if pe.IsEmpty() {
		return 0
	}
	return view.Length(pe.E)
}

// transferSetFor computes the candidate edge set for the next sample, per
// spec.md §4.6: nearby edges when off-road, the singleton {currentEdge}
// before a travel distance has been committed, and incoming/outgoing
// edges (by the sign of the belief's along-edge position) once committed.
func transferSetFor(view graph.View, currentEdge pathtrace.PathEdge, b *belief.Belief, committed bool) []graph.EdgeID {
	if currentEdge.IsEmpty() {
		worldPoint := graph.Point{X: b.Mean.AtVec(0), Y: b.Mean.AtVec(2)}
		return view.NearbyEdges(worldPoint)
	}
	if !committed {
		return []graph.EdgeID{currentEdge.E}
	}
	s := b.Mean.AtVec(0)
	switch {
	case s < 0:
		return view.Incoming(currentEdge.E)
	case s > 0:
		return view.Outgoing(currentEdge.E)
	default:
		both := append([]graph.EdgeID{}, view.Incoming(currentEdge.E)...)
		return append(both, view.Outgoing(currentEdge.E)...)
	}
}

// TraverseEdge walks the graph edge by edge from startPE, sampling each
// transition from dist, until the belief's committed travel distance is
// exhausted, a dead end is hit, or the walk exits off-road (spec.md
// §4.6). start is not mutated; dt is the Δt used for every predict step
// along the walk, since the generative walk has no real observation
// timestamps of its own.
func TraverseEdge(
	filter *trackfilter.Filter,
	dist *transition.Distribution,
	view graph.View,
	rng *rand.Rand,
	start *belief.Belief,
	startPE pathtrace.PathEdge,
	dt float64,
) (Walk, error) {
	b := start.Clone()
	currentEdge := startPE
	var edges []pathtrace.PathEdge
	distTraveled := 0.0
	committed := false
	var totalDistToTravel float64

	for !committed || math.Abs(totalDistToTravel) >= math.Abs(currentEdge.D0)+edgeLength(view, currentEdge) {
		transferSet := transferSetFor(view, currentEdge, b, committed)

		sampled, err := dist.Sample(rng, transferSet, transferSet, currentEdge.E)
		if errors.Is(err, transition.ErrNoTransferOptions) {
			return clampDeadEnd(view, edges, distTraveled, currentEdge, b)
		}
		if err != nil {
			return Walk{}, err
		}

		if sampled == graph.EmptyEdge {
			offRoad, err := filter.Predict(b, dt, pathtrace.EmptyPathEdge, currentEdge, view)
			if err != nil {
				return Walk{}, err
			}
			if len(edges) == 0 {
				path, err := pathtrace.NewPath(nil, 0, view)
				if err != nil {
					return Walk{}, err
				}
				return Walk{Path: path, Belief: offRoad, EndEdge: graph.EmptyEdge}, nil
			}
			path, err := pathtrace.NewPath(edges, distTraveled, view)
			if err != nil {
				return Walk{}, err
			}
			return Walk{Path: path, Belief: offRoad, EndEdge: graph.EmptyEdge}, nil
		}

		sampledPE := pathtrace.PathEdge{E: sampled, D0: distTraveled}

		predicted, err := filter.Predict(b, dt, sampledPE, currentEdge, view)
		if err != nil {
			return Walk{}, err
		}
		b = predicted

		if !committed {
			if err := filter.SampleMovementBelief(rng, b.Mean, true, dt); err != nil {
				return Walk{}, err
			}
			totalDistToTravel = b.Mean.AtVec(0)
			committed = true
		}

		dir := 1.0
		if b.Mean.AtVec(0) < 0 {
			dir = -1.0
		}

		distTraveled += dir * view.Length(sampled)
		currentEdge = sampledPE
		edges = append(edges, sampledPE)
	}

	path, err := pathtrace.NewPath(edges, distTraveled, view)
	if err != nil {
		return Walk{}, err
	}
	return Walk{Path: path, Belief: b, EndEdge: currentEdge.E}, nil
}

// clampDeadEnd handles spec.md §4.6's dead-end case: the transfer set is
// empty, so the walk stops, position clamps to dir·currentEdge.length,
// and velocity zeroes.
func clampDeadEnd(view graph.View, edges []pathtrace.PathEdge, distTraveled float64, currentEdge pathtrace.PathEdge, b *belief.Belief) (Walk, error) {
	if currentEdge.IsEmpty() {
		return Walk{}, fmt.Errorf("sampler: dead end reached while off-road")
	}

	length := view.Length(currentEdge.E)
	dir := 1.0
	if b.Mean.AtVec(0) < 0 {
		dir = -1.0
	}
	clamped := b.Clone()
	clamped.Mean.SetVec(0, dir*length)
	clamped.Mean.SetVec(1, 0)

	finalEdges := edges
	if len(finalEdges) == 0 {
		finalEdges = []pathtrace.PathEdge{{E: currentEdge.E, D0: 0}}
	}
	path, err := pathtrace.NewPath(finalEdges, distTraveled, view)
	if err != nil {
		return Walk{}, err
	}
	return Walk{Path: path, Belief: clamped, EndEdge: currentEdge.E}, nil
}

// SampleObservation draws a simulated GPS fix from b's predicted ground
// observation distribution (spec.md §4.6).
func SampleObservation(filter *trackfilter.Filter, rng *rand.Rand, b *belief.Belief, pe pathtrace.PathEdge, view graph.View) (graph.Point, error) {
	return filter.SampleObservation(rng, b, pe, view)
}

// SampleMovementBelief draws process noise through the covariance factor
// and adds it to mean in place (spec.md §4.6).
func SampleMovementBelief(filter *trackfilter.Filter, rng *rand.Rand, mean *belief.Belief, isRoad bool, dt float64) error {
	return filter.SampleMovementBelief(rng, mean.Mean, isRoad, dt)
}
