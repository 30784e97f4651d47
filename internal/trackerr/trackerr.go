// Package trackerr defines the error taxonomy shared by the estimator
// packages (graph, trackfilter, pathtrace, transition, vehicle, sampler).
//
// Callers should use errors.Is against the sentinels below; call sites that
// produce them wrap with additional context via fmt.Errorf("...: %w", ...).
package trackerr

import "errors"

var (
	// ErrTimeOrder is returned when an observation is older than its
	// predecessor in the same vehicle's chain. Recoverable: the caller
	// rejects the observation and leaves prior state unchanged.
	ErrTimeOrder = errors.New("observation out of time order")

	// ErrNotGeoreferenced is returned when a coordinate conversion between
	// world and projected frames fails.
	ErrNotGeoreferenced = errors.New("coordinate is not georeferenced")

	// ErrNumericFailure is returned when a covariance fails to stay
	// positive semi-definite, a Kalman innovation covariance is singular,
	// or a Cholesky factorization fails. Fatal for the affected vehicle;
	// the core does not attempt regularization.
	ErrNumericFailure = errors.New("numeric failure in filter state")

	// ErrGraphInconsistency is returned when a sampled transfer edge is not
	// adjacent to the current edge. Indicates a bug in the graph view.
	ErrGraphInconsistency = errors.New("sampled edge is not graph-adjacent")

	// ErrNotImplemented is returned by operations the spec explicitly
	// excludes, such as sampling a VehicleState as a distribution.
	ErrNotImplemented = errors.New("not implemented")
)
