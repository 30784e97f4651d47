// Package graph provides read-only access to the inferred street-edge
// network that the estimator runs on: geometry, length, endpoints,
// adjacency, and the handful of geometric queries (foot-of-perpendicular,
// nearby edges) that the trajectory sampler needs.
//
// Building the network from raw map data, keeping a real spatial index for
// NearbyEdges, and refreshing edges as new map data arrives are all
// out of scope here (spec.md §1/§6) — View is the contract the estimator
// consumes, and MemoryView is a minimal in-memory reference implementation
// suitable for tests and the demo commands, not a production spatial index.
package graph

import "math"

// EdgeID identifies an inferred edge. EmptyEdge is the sentinel denoting
// "off-road"; it is the only EdgeID that compares equal to itself among
// invalid handles and is never returned by View for a real edge.
type EdgeID int64

// EmptyEdge denotes off-road motion. Equality is by value, so EmptyEdge
// compares equal only to itself.
const EmptyEdge EdgeID = -1

// Point is a location in the planar (projected, metres) coordinate frame.
type Point struct {
	X float64
	Y float64
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

// Add returns p + q.
func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }

// Scale returns p scaled by s.
func (p Point) Scale(s float64) Point { return Point{X: p.X * s, Y: p.Y * s} }

// Norm returns the Euclidean length of p treated as a vector.
func (p Point) Norm() float64 { return math.Hypot(p.X, p.Y) }

// Dot returns the dot product of p and q.
func (p Point) Dot(q Point) float64 { return p.X*q.X + p.Y*q.Y }

// View is the read-only contract the estimator consumes. All EdgeID
// arguments except EmptyEdge are expected to be valid; implementations are
// free to panic on an unknown non-empty id, the way an out-of-range slice
// index panics, since it indicates a bug in the caller's graph-adjacency
// reasoning (spec.md's ErrGraphInconsistency covers the adjacency violation
// case, not an unknown id).
type View interface {
	// Length returns the edge's polyline length in metres.
	Length(id EdgeID) float64
	// Start returns the edge's first vertex.
	Start(id EdgeID) Point
	// End returns the edge's last vertex.
	End(id EdgeID) Point
	// Geometry returns the edge's polyline vertices in travel order.
	Geometry(id EdgeID) []Point
	// Incoming returns edges whose end touches this edge's start.
	Incoming(id EdgeID) []EdgeID
	// Outgoing returns edges whose start touches this edge's end.
	Outgoing(id EdgeID) []EdgeID
	// PointAt returns the world point at the given along-edge distance,
	// clamped to [0, Length(id)].
	PointAt(id EdgeID, distance float64) Point
	// TangentAt returns the unit tangent vector at the given along-edge
	// distance, clamped to [0, Length(id)].
	TangentAt(id EdgeID, distance float64) Point
	// PointOnEdge projects p onto the edge's polyline and returns the
	// along-edge distance of the foot of the perpendicular together with
	// the foot itself.
	PointOnEdge(id EdgeID, p Point) (distance float64, foot Point)
	// NearbyEdges returns edges within the view's search radius of p. May
	// return an empty slice. Order is unspecified.
	NearbyEdges(p Point) []EdgeID
}
