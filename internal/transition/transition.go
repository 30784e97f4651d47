// Package transition implements the edge-transition distribution: the
// discrete Markov chain over {stay off-road, move on, stay on-road, move
// off, choose neighbour} that governs when a vehicle enters or leaves the
// road network (spec.md §4.4).
//
// The categorical is Bayesian: two independent 2-way Dirichlet posteriors,
// one for the off-road regime and one for the on-road regime, updated by
// simple pseudo-count increments the way a two-armed bandit posterior is
// updated — no gonum distribution type is needed for a 2-way Dirichlet
// since its predictive mean is just alpha_i / sum(alpha).
package transition

import (
	"errors"
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/lanefinder/roadtrack/internal/graph"
)

// ErrNoTransferOptions is returned by Sample when the vehicle is on-road,
// drew "stay on", but the supplied transfer set is empty (a dead end). The
// caller (the trajectory sampler) decides how to handle it — clamping
// position at the edge boundary (spec.md §4.6's dead-end clamp) rather than
// treating it as a hard failure.
var ErrNoTransferOptions = errors.New("transition: no transfer options for on-road sample")

// Distribution holds the per-vehicle Bayesian posterior over the two
// regimes. It is not safe for concurrent use by multiple goroutines,
// matching spec.md §5: the edge-transition distribution is per-vehicle
// state, serialized with the rest of that vehicle's belief.
type Distribution struct {
	offAlpha [2]float64 // {stay off, move on}
	onAlpha  [2]float64 // {stay on, move off}
}

// New builds a Distribution from Dirichlet pseudo-count priors. Both
// priors must have strictly positive components.
func New(offPrior, onPrior [2]float64) (*Distribution, error) {
	for _, v := range offPrior {
		if v <= 0 {
			return nil, fmt.Errorf("transition: offTransitionProbs must be positive, got %v", offPrior)
		}
	}
	for _, v := range onPrior {
		if v <= 0 {
			return nil, fmt.Errorf("transition: onTransitionProbs must be positive, got %v", onPrior)
		}
	}
	return &Distribution{offAlpha: offPrior, onAlpha: onPrior}, nil
}

// Clone returns a deep copy, used when a child vehicle state starts from
// its parent's posterior without sharing mutable state (spec.md §5).
func (d *Distribution) Clone() *Distribution {
	c := *d
	return &c
}

func (d *Distribution) pOffMoveOn() float64 {
	return d.offAlpha[1] / (d.offAlpha[0] + d.offAlpha[1])
}

func (d *Distribution) pOnMoveOff() float64 {
	return d.onAlpha[1] / (d.onAlpha[0] + d.onAlpha[1])
}

// Observe increments the Dirichlet posterior component matching the
// observed prev→next transition.
func (d *Distribution) Observe(prev, next graph.EdgeID) {
	switch {
	case prev == graph.EmptyEdge && next == graph.EmptyEdge:
		d.offAlpha[0]++
	case prev == graph.EmptyEdge && next != graph.EmptyEdge:
		d.offAlpha[1]++
	case prev != graph.EmptyEdge && next == graph.EmptyEdge:
		d.onAlpha[1]++
	default:
		d.onAlpha[0]++
	}
}

// LogEvaluate returns the log-density of the prev→next transition under
// the current posterior (spec.md §4.4). transferSet and nearby must be the
// caller's precomputed transfer set (spec.md §4.6) and nearby-edge set
// respectively — LogEvaluate does not query the graph itself, since which
// set applies depends on direction of travel, a decision made by the
// traversal that calls it.
func (d *Distribution) LogEvaluate(prev, next graph.EdgeID, transferSet, nearby []graph.EdgeID) (float64, error) {
	switch {
	case prev == graph.EmptyEdge && next == graph.EmptyEdge:
		return math.Log(1 - d.pOffMoveOn()), nil

	case prev == graph.EmptyEdge && next != graph.EmptyEdge:
		if len(nearby) == 0 {
			return 0, fmt.Errorf("transition: LogEvaluate off->on requires a non-empty nearby set")
		}
		return math.Log(d.pOffMoveOn()) - math.Log(float64(len(nearby))), nil

	case prev != graph.EmptyEdge && next == graph.EmptyEdge:
		return math.Log(d.pOnMoveOff()), nil

	default:
		if len(transferSet) == 0 {
			return 0, fmt.Errorf("transition: LogEvaluate on->on requires a non-empty transfer set")
		}
		return math.Log(1-d.pOnMoveOff()) - math.Log(float64(len(transferSet))), nil
	}
}

// Sample draws a transition regime, then (when staying on/off a road with
// edges available) a specific destination edge uniformly.
//
//   - Off-road: Bernoulli(pOffMoveOn). On success, a uniformly-chosen
//     member of nearby; on failure, graph.EmptyEdge.
//   - On-road: Bernoulli(pOnMoveOff). On success, graph.EmptyEdge. On
//     failure, a uniformly-chosen member of transferEdges, or
//     ErrNoTransferOptions if transferEdges is empty.
func (d *Distribution) Sample(rng *rand.Rand, transferEdges, nearby []graph.EdgeID, currentEdge graph.EdgeID) (graph.EdgeID, error) {
	if currentEdge == graph.EmptyEdge {
		moveOn := distuv.Bernoulli{P: d.pOffMoveOn(), Src: rng}
		if moveOn.Rand() == 1 {
			if len(nearby) == 0 {
				return graph.EmptyEdge, nil
			}
			return nearby[rng.Intn(len(nearby))], nil
		}
		return graph.EmptyEdge, nil
	}

	moveOff := distuv.Bernoulli{P: d.pOnMoveOff(), Src: rng}
	if moveOff.Rand() == 1 {
		return graph.EmptyEdge, nil
	}
	if len(transferEdges) == 0 {
		return graph.EmptyEdge, ErrNoTransferOptions
	}
	return transferEdges[rng.Intn(len(transferEdges))], nil
}
