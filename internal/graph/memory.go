package graph

import "math"

// snapEpsilon is the tolerance, in metres, used to decide that two edge
// endpoints are the same graph node. Grounded on the node-snapping
// tolerance used when building a CSR graph from raw way geometry
// (azybler-map_router/pkg/graph.Builder): real map data rarely agrees on
// endpoints to the bit, so adjacency is always a fuzzy-match decision.
const snapEpsilon = 1e-6

// EdgeSpec describes one edge's geometry for NewMemoryView. Adjacency is
// derived automatically from shared endpoints.
type EdgeSpec struct {
	ID       EdgeID
	Geometry []Point
}

type memoryEdge struct {
	id       EdgeID
	geometry []Point
	segLen   []float64 // length of each segment
	cumLen   []float64 // cumulative length up to vertex i
	length   float64
	incoming []EdgeID
	outgoing []EdgeID
}

// MemoryView is a minimal in-memory View backed by explicit polylines, with
// adjacency computed by endpoint coincidence and NearbyEdges answered by a
// brute-force perpendicular-distance scan. It exists to make the estimator
// runnable and testable standalone; a production deployment would back
// View with a real spatial index (out of scope, spec.md §1).
type MemoryView struct {
	edges map[EdgeID]*memoryEdge
	order []EdgeID // stable iteration order for NearbyEdges
}

// NewMemoryView builds a MemoryView from the given edge specs, deriving
// Incoming/Outgoing by matching endpoints within snapEpsilon.
func NewMemoryView(specs []EdgeSpec) *MemoryView {
	v := &MemoryView{edges: make(map[EdgeID]*memoryEdge, len(specs))}
	for _, s := range specs {
		e := &memoryEdge{id: s.ID, geometry: append([]Point(nil), s.Geometry...)}
		e.segLen = make([]float64, len(e.geometry)-1)
		e.cumLen = make([]float64, len(e.geometry))
		for i := 1; i < len(e.geometry); i++ {
			d := e.geometry[i].Sub(e.geometry[i-1]).Norm()
			e.segLen[i-1] = d
			e.cumLen[i] = e.cumLen[i-1] + d
		}
		e.length = e.cumLen[len(e.cumLen)-1]
		v.edges[s.ID] = e
		v.order = append(v.order, s.ID)
	}
	for _, a := range v.order {
		ea := v.edges[a]
		for _, b := range v.order {
			if a == b {
				continue
			}
			eb := v.edges[b]
			if closeEnough(ea.geometry[0], eb.geometry[len(eb.geometry)-1]) {
				ea.incoming = append(ea.incoming, b)
			}
			if closeEnough(ea.geometry[len(ea.geometry)-1], eb.geometry[0]) {
				ea.outgoing = append(ea.outgoing, b)
			}
		}
	}
	return v
}

func closeEnough(p, q Point) bool { return p.Sub(q).Norm() <= snapEpsilon }

func (v *MemoryView) Length(id EdgeID) float64 { return v.edges[id].length }
func (v *MemoryView) Start(id EdgeID) Point    { return v.edges[id].geometry[0] }
func (v *MemoryView) End(id EdgeID) Point {
	e := v.edges[id]
	return e.geometry[len(e.geometry)-1]
}

func (v *MemoryView) Geometry(id EdgeID) []Point {
	return append([]Point(nil), v.edges[id].geometry...)
}

func (v *MemoryView) Incoming(id EdgeID) []EdgeID {
	return append([]EdgeID(nil), v.edges[id].incoming...)
}

func (v *MemoryView) Outgoing(id EdgeID) []EdgeID {
	return append([]EdgeID(nil), v.edges[id].outgoing...)
}

// locate finds the polyline segment covering the clamped along-edge
// distance, returning the segment index and the fractional position [0,1]
// within it.
func (e *memoryEdge) locate(distance float64) (seg int, frac float64) {
	if distance <= 0 {
		return 0, 0
	}
	if distance >= e.length {
		return len(e.segLen) - 1, 1
	}
	for i, segStart := range e.cumLen[:len(e.cumLen)-1] {
		segEnd := e.cumLen[i+1]
		if distance <= segEnd {
			if e.segLen[i] == 0 {
				return i, 0
			}
			return i, (distance - segStart) / e.segLen[i]
		}
	}
	return len(e.segLen) - 1, 1
}

func (v *MemoryView) PointAt(id EdgeID, distance float64) Point {
	e := v.edges[id]
	seg, frac := e.locate(distance)
	a, b := e.geometry[seg], e.geometry[seg+1]
	return a.Add(b.Sub(a).Scale(frac))
}

func (v *MemoryView) TangentAt(id EdgeID, distance float64) Point {
	e := v.edges[id]
	seg, _ := e.locate(distance)
	a, b := e.geometry[seg], e.geometry[seg+1]
	d := b.Sub(a)
	n := d.Norm()
	if n == 0 {
		return Point{X: 1, Y: 0}
	}
	return d.Scale(1 / n)
}

// PointOnEdge projects p onto the edge's polyline, returning the along-edge
// distance and the foot of the perpendicular for whichever segment is
// closest to p.
func (v *MemoryView) PointOnEdge(id EdgeID, p Point) (float64, Point) {
	e := v.edges[id]
	bestDist := math.Inf(1)
	var bestAlong float64
	var bestFoot Point
	for i := 0; i < len(e.segLen); i++ {
		a, b := e.geometry[i], e.geometry[i+1]
		d := b.Sub(a)
		segLen := e.segLen[i]
		var t float64
		if segLen > 0 {
			t = p.Sub(a).Dot(d) / (segLen * segLen)
		}
		if t < 0 {
			t = 0
		} else if t > 1 {
			t = 1
		}
		foot := a.Add(d.Scale(t))
		dist := p.Sub(foot).Norm()
		if dist < bestDist {
			bestDist = dist
			bestFoot = foot
			bestAlong = e.cumLen[i] + t*segLen
		}
	}
	return bestAlong, bestFoot
}

// nearbyRadiusMetres bounds the brute-force scan in NearbyEdges.
const nearbyRadiusMetres = 50.0

// NearbyEdges scans every edge and returns those whose nearest point to p is
// within nearbyRadiusMetres. Linear in the number of edges: fine for tests
// and demos, not for a real network (see MemoryView's doc comment).
func (v *MemoryView) NearbyEdges(p Point) []EdgeID {
	var out []EdgeID
	for _, id := range v.order {
		_, foot := v.PointOnEdge(id, p)
		if foot.Sub(p).Norm() <= nearbyRadiusMetres {
			out = append(out, id)
		}
	}
	return out
}
