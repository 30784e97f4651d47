// Package vehicle bundles a belief, current edge, travelled path, and
// edge-transition posterior into a single VehicleState (spec.md §4.5),
// and exposes the conditional log-density that both inference and
// simulation score candidate states against.
//
// The parent back-reference is an immutable weak pointer (stdlib "weak"
// package) rather than a strong pointer: a long-lived trace should not
// keep every ancestor state alive just because a child references it
// (spec.md §9) — callers that need trace reconstruction keep their own
// strong references (e.g. an arena slice) alongside the chain.
package vehicle

import (
	"fmt"
	"time"
	"weak"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/lanefinder/roadtrack/internal/belief"
	"github.com/lanefinder/roadtrack/internal/graph"
	"github.com/lanefinder/roadtrack/internal/observation"
	"github.com/lanefinder/roadtrack/internal/pathtrace"
	"github.com/lanefinder/roadtrack/internal/trackerr"
	"github.com/lanefinder/roadtrack/internal/trackfilter"
	"github.com/lanefinder/roadtrack/internal/transition"
)

// State bundles everything the estimator knows about a vehicle as of one
// observation (spec.md §3, §4.5).
type State struct {
	ID uuid.UUID

	filter *trackfilter.Filter
	View   graph.View

	Belief      *belief.Belief
	Edge        graph.EdgeID
	Path        *pathtrace.Path
	Transition  *transition.Distribution
	Observation *observation.Observation

	// DFromPrev is last(Path).D0 at construction time: the offset that was
	// subtracted from Belief.Mean's 0th element to re-zero it onto the
	// current edge (spec.md §3).
	DFromPrev float64

	parent weak.Pointer[State]
}

// validate checks the regime/dimension invariant from spec.md §3:
// Edge == EmptyEdge iff Belief is 4-D and Path is empty; otherwise Belief
// is 2-D, Path is non-empty, and Path's last edge is Edge.
func (s *State) validate() error {
	if s.Edge == graph.EmptyEdge {
		if !s.Belief.IsGround() {
			return fmt.Errorf("vehicle: off-road state requires a ground belief, got dimension %d", s.Belief.Dim())
		}
		if !s.Path.Empty() {
			return fmt.Errorf("vehicle: off-road state requires an empty path")
		}
		return nil
	}
	if !s.Belief.IsRoad() {
		return fmt.Errorf("vehicle: on-road state requires a road belief, got dimension %d", s.Belief.Dim())
	}
	if s.Path.Empty() {
		return fmt.Errorf("vehicle: on-road state requires a non-empty path")
	}
	if s.Path.Last().E != s.Edge {
		return fmt.Errorf("vehicle: path's last edge %v does not match current edge %v", s.Path.Last().E, s.Edge)
	}
	return nil
}

// NewInitial constructs the first State in a vehicle's chain from an
// observation and an initial edge (EmptyEdge for off-road). The belief is
// centred on the observation (ground) or its projection onto the edge
// (road), zero velocity, with covariance initialCov·I (spec.md §4.5).
func NewInitial(
	filter *trackfilter.Filter,
	dist *transition.Distribution,
	obs *observation.Observation,
	initialEdge graph.EdgeID,
	view graph.View,
	initialCov float64,
) (*State, error) {
	var b *belief.Belief
	var path *pathtrace.Path
	var err error

	if initialEdge == graph.EmptyEdge {
		mean := []float64{obs.Projected.X, 0, obs.Projected.Y, 0}
		cov := scaledIdentity(4, initialCov)
		b, err = belief.New(mean, cov)
		if err != nil {
			return nil, err
		}
		path, err = pathtrace.NewPath(nil, 0, view)
		if err != nil {
			return nil, err
		}
	} else {
		along, _ := view.PointOnEdge(initialEdge, obs.Projected)
		mean := []float64{along, 0}
		cov := scaledIdentity(2, initialCov)
		b, err = belief.New(mean, cov)
		if err != nil {
			return nil, err
		}
		path, err = pathtrace.NewPath([]pathtrace.PathEdge{{E: initialEdge, D0: 0}}, 0, view)
		if err != nil {
			return nil, err
		}
	}

	s := &State{
		ID:          uuid.New(),
		filter:      filter,
		View:        view,
		Belief:      b,
		Edge:        initialEdge,
		Path:        path,
		Transition:  dist,
		Observation: obs,
		DFromPrev:   0,
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewTransition constructs a child State from a parent, a newly-predicted
// belief, the path travelled since the parent, the current PathEdge within
// that path, and the observation being scored or simulated. It resets the
// belief's s-origin by subtracting currentPathEdge.D0, so the stored belief
// is always local to the current edge (spec.md §4.5).
func NewTransition(
	parent *State,
	newBelief *belief.Belief,
	newPath *pathtrace.Path,
	currentPathEdge pathtrace.PathEdge,
	dist *transition.Distribution,
	obs *observation.Observation,
) (*State, error) {
	b := newBelief
	if !currentPathEdge.IsEmpty() {
		b = newBelief.Clone()
		b.Mean.SetVec(0, b.Mean.AtVec(0)-currentPathEdge.D0)
	}

	s := &State{
		ID:          uuid.New(),
		filter:      parent.filter,
		View:        parent.View,
		Belief:      b,
		Edge:        currentPathEdge.E,
		Path:        newPath,
		Transition:  dist,
		Observation: obs,
		DFromPrev:   currentPathEdge.D0,
	}
	s.parent = weak.Make(parent)
	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Parent returns the parent State, or nil if it has already been
// collected or this is a root state (spec.md §9).
func (s *State) Parent() *State { return s.parent.Value() }

// Sample is intentionally unimplemented: VehicleState is not itself a
// distribution to sample from; callers generate trajectories via the
// sampler package (spec.md §4.5, §7 ErrNotImplemented).
func (s *State) Sample() error { return trackerr.ErrNotImplemented }

func scaledIdentity(n int, scale float64) *mat.SymDense {
	out := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		out.SetSym(i, i, scale)
	}
	return out
}

// DefaultInitialDt is the fallback Δt callers should pass to
// Observation.DeltaT when an observation has no predecessor (spec.md §9).
const DefaultInitialDt = 30 * time.Second
