// Package config defines InitialParameters, the six recognised tuning
// options for a vehicle's filter, transition posterior, and sampler seed
// (spec.md §6). It mirrors the teacher's pointer-field/omitempty JSON
// schema (internal/config/tuning.go's TuningConfig) so partial configs
// are safe: fields omitted from JSON keep their defaults.
package config

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	xrand "golang.org/x/exp/rand"

	"github.com/lanefinder/roadtrack/internal/trackfilter"
	"github.com/lanefinder/roadtrack/internal/transition"
)

// InitialParameters is the root configuration for a vehicle's estimator
// (spec.md §6).
type InitialParameters struct {
	ObsVariance          *[2]float64 `json:"obsVariance,omitempty"`
	OnRoadStateVariance  *float64    `json:"onRoadStateVariance,omitempty"`
	OffRoadStateVariance *[2]float64 `json:"offRoadStateVariance,omitempty"`
	OffTransitionProbs   *[2]float64 `json:"offTransitionProbs,omitempty"`
	OnTransitionProbs    *[2]float64 `json:"onTransitionProbs,omitempty"`
	// Seed seeds the sampler deterministically when nonzero; zero
	// requests a fresh random seed (spec.md §6).
	Seed *uint64 `json:"seed,omitempty"`
}

// DefaultInitialParameters returns conservative defaults for every
// recognised option.
func DefaultInitialParameters() *InitialParameters {
	return &InitialParameters{
		ObsVariance:          &[2]float64{9, 9},
		OnRoadStateVariance:  ptrFloat64(1),
		OffRoadStateVariance: &[2]float64{1, 1},
		OffTransitionProbs:   &[2]float64{9, 1},
		OnTransitionProbs:    &[2]float64{9, 1},
		Seed:                 ptrUint64(0),
	}
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrUint64(v uint64) *uint64    { return &v }

// GetObsVariance returns ObsVariance or its default.
func (p *InitialParameters) GetObsVariance() [2]float64 {
	if p.ObsVariance == nil {
		return *DefaultInitialParameters().ObsVariance
	}
	return *p.ObsVariance
}

// GetOnRoadStateVariance returns OnRoadStateVariance or its default.
func (p *InitialParameters) GetOnRoadStateVariance() float64 {
	if p.OnRoadStateVariance == nil {
		return *DefaultInitialParameters().OnRoadStateVariance
	}
	return *p.OnRoadStateVariance
}

// GetOffRoadStateVariance returns OffRoadStateVariance or its default.
func (p *InitialParameters) GetOffRoadStateVariance() [2]float64 {
	if p.OffRoadStateVariance == nil {
		return *DefaultInitialParameters().OffRoadStateVariance
	}
	return *p.OffRoadStateVariance
}

// GetOffTransitionProbs returns OffTransitionProbs or its default.
func (p *InitialParameters) GetOffTransitionProbs() [2]float64 {
	if p.OffTransitionProbs == nil {
		return *DefaultInitialParameters().OffTransitionProbs
	}
	return *p.OffTransitionProbs
}

// GetOnTransitionProbs returns OnTransitionProbs or its default.
func (p *InitialParameters) GetOnTransitionProbs() [2]float64 {
	if p.OnTransitionProbs == nil {
		return *DefaultInitialParameters().OnTransitionProbs
	}
	return *p.OnTransitionProbs
}

// GetSeed returns Seed or 0 (fresh random seed requested).
func (p *InitialParameters) GetSeed() uint64 {
	if p.Seed == nil {
		return 0
	}
	return *p.Seed
}

// Validate checks that all set fields hold admissible values.
func (p *InitialParameters) Validate() error {
	if p.ObsVariance != nil && (p.ObsVariance[0] <= 0 || p.ObsVariance[1] <= 0) {
		return fmt.Errorf("config: obsVariance must be positive, got %v", *p.ObsVariance)
	}
	if p.OnRoadStateVariance != nil && *p.OnRoadStateVariance <= 0 {
		return fmt.Errorf("config: onRoadStateVariance must be positive, got %g", *p.OnRoadStateVariance)
	}
	if p.OffRoadStateVariance != nil && (p.OffRoadStateVariance[0] <= 0 || p.OffRoadStateVariance[1] <= 0) {
		return fmt.Errorf("config: offRoadStateVariance must be positive, got %v", *p.OffRoadStateVariance)
	}
	if p.OffTransitionProbs != nil && (p.OffTransitionProbs[0] <= 0 || p.OffTransitionProbs[1] <= 0) {
		return fmt.Errorf("config: offTransitionProbs must be positive, got %v", *p.OffTransitionProbs)
	}
	if p.OnTransitionProbs != nil && (p.OnTransitionProbs[0] <= 0 || p.OnTransitionProbs[1] <= 0) {
		return fmt.Errorf("config: onTransitionProbs must be positive, got %v", *p.OnTransitionProbs)
	}
	return nil
}

// Load reads InitialParameters from a JSON file. Fields omitted from the
// file keep their defaults; cleanPath must have a .json extension.
func Load(path string) (*InitialParameters, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config: file must have .json extension, got %q", ext)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read file: %w", err)
	}

	p := &InitialParameters{}
	if err := json.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("config: failed to parse JSON: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// FilterConfig converts the relevant fields to a trackfilter.Config.
func (p *InitialParameters) FilterConfig() trackfilter.Config {
	return trackfilter.Config{
		ObsVariance:          p.GetObsVariance(),
		OnRoadStateVariance:  p.GetOnRoadStateVariance(),
		OffRoadStateVariance: p.GetOffRoadStateVariance(),
	}
}

// TransitionPriors converts the relevant fields to the Dirichlet priors
// transition.New expects.
func (p *InitialParameters) TransitionPriors() (off, on [2]float64) {
	return p.GetOffTransitionProbs(), p.GetOnTransitionProbs()
}

// NewFilter is a convenience constructor chaining FilterConfig into
// trackfilter.New.
func (p *InitialParameters) NewFilter() (*trackfilter.Filter, error) {
	return trackfilter.New(p.FilterConfig())
}

// NewTransitionDistribution is a convenience constructor chaining
// TransitionPriors into transition.New.
func (p *InitialParameters) NewTransitionDistribution() (*transition.Distribution, error) {
	off, on := p.TransitionPriors()
	return transition.New(off, on)
}

// NewRand builds the sampler's random source: Seed if nonzero, otherwise
// entropy read from crypto/rand (spec.md §6's "zero requests a fresh
// random seed").
func (p *InitialParameters) NewRand() (*xrand.Rand, error) {
	seed := p.GetSeed()
	if seed == 0 {
		var buf [8]byte
		if _, err := rand.Read(buf[:]); err != nil {
			return nil, fmt.Errorf("config: failed to draw random seed: %w", err)
		}
		seed = binary.LittleEndian.Uint64(buf[:])
	}
	return xrand.New(xrand.NewSource(seed)), nil
}
