package pathtrace

import (
	"fmt"

	"github.com/lanefinder/roadtrack/internal/graph"
	"github.com/lanefinder/roadtrack/internal/trackerr"
)

// Path is an immutable, ordered, contiguous run of PathEdges, plus the
// total signed distance travelled along it. An empty Path represents
// off-road motion (spec.md §3).
type Path struct {
	edges         []PathEdge
	totalDistance float64
}

// Edges returns the path's edges in travel order. The returned slice must
// not be mutated by the caller.
func (p *Path) Edges() []PathEdge { return p.edges }

// Len returns the number of edges in the path.
func (p *Path) Len() int { return len(p.edges) }

// Empty reports whether the path has no edges (off-road).
func (p *Path) Empty() bool { return len(p.edges) == 0 }

// TotalDistance returns the signed cumulative distance travelled.
func (p *Path) TotalDistance() float64 { return p.totalDistance }

// Last returns the path's final PathEdge, or EmptyPathEdge if the path is
// empty.
func (p *Path) Last() PathEdge {
	if len(p.edges) == 0 {
		return EmptyPathEdge
	}
	return p.edges[len(p.edges)-1]
}

// adjacent reports whether b is graph-adjacent to a: b touches a's end
// (outgoing) or a's start (incoming), or they are the same edge (a vehicle
// may stay on one edge across a path boundary when direction reverses
// within it).
func adjacent(view graph.View, a, b graph.EdgeID) bool {
	if a == b {
		return true
	}
	for _, id := range view.Outgoing(a) {
		if id == b {
			return true
		}
	}
	for _, id := range view.Incoming(a) {
		if id == b {
			return true
		}
	}
	return false
}

// NewPath validates and constructs a Path from edges in travel order, with
// the given total signed distance travelled. It enforces spec.md §3's
// invariants: contiguity, a zero first D0, and a single consistent
// direction of travel across the D0 sequence.
func NewPath(edges []PathEdge, totalDistance float64, view graph.View) (*Path, error) {
	if len(edges) == 0 {
		return &Path{}, nil
	}
	if edges[0].D0 != 0 {
		return nil, fmt.Errorf("pathtrace: first edge's D0 must be 0, got %g", edges[0].D0)
	}

	var direction float64
	for i := 1; i < len(edges); i++ {
		prev, cur := edges[i-1], edges[i]
		if !adjacent(view, prev.E, cur.E) {
			return nil, fmt.Errorf("pathtrace: edge %d (%v) is not graph-adjacent to edge %d (%v): %w",
				i, cur.E, i-1, prev.E, trackerr.ErrGraphInconsistency)
		}
		delta := cur.D0 - prev.D0
		if delta == 0 {
			return nil, fmt.Errorf("pathtrace: edge %d repeats the D0 of edge %d", i, i-1)
		}
		d := 1.0
		if delta < 0 {
			d = -1.0
		}
		if i == 1 {
			direction = d
		} else if d != direction {
			return nil, fmt.Errorf("pathtrace: path direction reverses at edge %d", i)
		}
	}

	return &Path{edges: append([]PathEdge(nil), edges...), totalDistance: totalDistance}, nil
}

// EdgeContaining returns the PathEdge whose interval [D0, D0+length]
// covers the along-path distance s, along with its index, or ok=false if s
// falls outside the path.
func (p *Path) EdgeContaining(s float64, view graph.View) (pe PathEdge, index int, ok bool) {
	for i, e := range p.edges {
		length := view.Length(e.E)
		if e.Contains(s, length) {
			return e, i, true
		}
	}
	return PathEdge{}, -1, false
}

// Equal reports whether p and other have identical edge-id and D0
// sequences (spec.md §4.3).
func (p *Path) Equal(other *Path) bool {
	if p.Len() != other.Len() {
		return false
	}
	for i := range p.edges {
		if !p.edges[i].Equal(other.edges[i]) {
			return false
		}
	}
	return true
}
