package vehicle

import (
	"github.com/lanefinder/roadtrack/internal/graph"
	"github.com/lanefinder/roadtrack/internal/pathtrace"
)

// DensityParams bundles the context LogDensity needs beyond the state
// itself: the parent's edge, and the transfer/nearby edge sets the
// transition posterior's normalization terms require (spec.md §4.4,
// §4.6). Which set applies depends on the direction of travel implied by
// PrevEdge and the state's own Edge, a decision the caller (inference or
// the sampler) has already made while building the candidate state.
type DensityParams struct {
	PrevEdge    graph.EdgeID
	TransferSet []graph.EdgeID
	NearbyEdges []graph.EdgeID
}

// LogDensity returns log p(state | parent), factored as the sum of the
// edge-transition log-density and the observation log-likelihood under
// the predicted belief (spec.md §4.5):
//
//	log p = Transition.LogEvaluate(prev, cur) + filter.LogLikelihood(z, belief, pe)
//
// s.Belief and s.Observation must already reflect the predict/update for
// this state; LogDensity does not perform them.
func (s *State) LogDensity(params DensityParams) (float64, error) {
	transitionLL, err := s.Transition.LogEvaluate(params.PrevEdge, s.Edge, params.TransferSet, params.NearbyEdges)
	if err != nil {
		return 0, err
	}

	obsLL, err := s.filter.LogLikelihood(s.Observation.Projected, s.Belief, s.CurrentPathEdge(), s.View)
	if err != nil {
		return 0, err
	}

	return transitionLL + obsLL, nil
}

// CurrentPathEdge reconstructs the PathEdge the filter needs for s's own
// belief: D0 is 0 because Belief's mean was already re-zeroed onto the
// current edge at construction (see NewTransition).
func (s *State) CurrentPathEdge() pathtrace.PathEdge {
	if s.Edge == graph.EmptyEdge {
		return pathtrace.EmptyPathEdge
	}
	return pathtrace.PathEdge{E: s.Edge, D0: 0}
}
