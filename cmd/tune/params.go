// Package main provides CMA-ES tuning for navigation parameters.
package main

import (
	"github.com/pthm-cable/hordenav/config"
)

// ParamSpec defines a single tunable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all tunable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of tunable parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Flow field cadence: rebuild rate versus staleness.
			{Name: "nav_interval", Path: "nav.interval", Min: 0.05, Max: 0.5, Default: 0.15},
			{Name: "nav_iterations", Path: "nav.iterations", Min: 8, Max: 60, Default: 28},
			// Agent motion.
			{Name: "agent_speed", Path: "agents.speed", Min: 8, Max: 24, Default: 14},
			{Name: "repath_interval", Path: "agents.repath_interval", Min: 0.3, Max: 2.0, Default: 0.8},
			{Name: "arrive_radius", Path: "agents.arrive_radius", Min: 0.5, Max: 4.0, Default: 1.5},
			// Authority split between CPU and batched kernel.
			{Name: "authority_radius", Path: "agents.authority_radius", Min: 20, Max: 150, Default: 60},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		val := v[i]
		if val < spec.Min {
			val = spec.Min
		}
		if val > spec.Max {
			val = spec.Max
		}
		clamped[i] = val
	}
	return clamped
}

// ApplyToConfig applies parameter values to a Config struct.
// Order must match Specs order.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	clamped := pv.Clamp(values)

	cfg.Nav.Interval = clamped[0]
	cfg.Nav.Iterations = int(clamped[1])
	cfg.Agents.Speed = clamped[2]
	cfg.Agents.RepathInterval = clamped[3]
	cfg.Agents.ArriveRadius = clamped[4]
	cfg.Agents.AuthorityRadius = clamped[5]

	cfg.ComputeDerived()
}

// ExtractFromConfig extracts current parameter values from a Config
// struct, in Specs order.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	return []float64{
		cfg.Nav.Interval,
		float64(cfg.Nav.Iterations),
		cfg.Agents.Speed,
		cfg.Agents.RepathInterval,
		cfg.Agents.ArriveRadius,
		cfg.Agents.AuthorityRadius,
	}
}
