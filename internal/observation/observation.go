// Package observation models a single GPS fix in a vehicle's observation
// chain (spec.md §3): a timestamp, the raw geographic point, its planar
// projection, and a link to the observation it followed.
package observation

import (
	"fmt"
	"time"

	"github.com/lanefinder/roadtrack/internal/graph"
	"github.com/lanefinder/roadtrack/internal/trackerr"
)

// Observation is one GPS fix in a vehicle's chain. Timestamps strictly
// increase along a chain; New rejects anything else with ErrTimeOrder.
type Observation struct {
	Time      time.Time
	World     graph.Point // geographic (lat, lon)
	Projected graph.Point // planar projection, metres
	Prev      *Observation
}

// New builds an Observation, validating that it is strictly later than
// prev (if any).
func New(t time.Time, world, projected graph.Point, prev *Observation) (*Observation, error) {
	if prev != nil && !t.After(prev.Time) {
		return nil, fmt.Errorf("observation: %s is not after previous observation %s: %w", t, prev.Time, trackerr.ErrTimeOrder)
	}
	return &Observation{Time: t, World: world, Projected: projected, Prev: prev}, nil
}

// DeltaT returns the time elapsed since Prev, or defaultDt if there is no
// previous observation (spec.md §4.5, §9: the default is configuration,
// not a magic number).
func (o *Observation) DeltaT(defaultDt time.Duration) time.Duration {
	if o.Prev == nil {
		return defaultDt
	}
	return o.Time.Sub(o.Prev.Time)
}
