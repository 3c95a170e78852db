package main

import (
	"math"

	"github.com/pthm-cable/orbitfall/config"
)

// ParamSpec defines a single optimizable parameter and where it lives in
// the config.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
	Integer bool    // rounded before it is applied

	get func(*config.Config) float64
	set func(*config.Config, float64)
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of solver and targeting parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			{
				Name: "bracket_fraction", Path: "aim.bracket_fraction", Min: 0.05, Max: 0.9, Default: 0.3,
				get: func(c *config.Config) float64 { return c.Aim.BracketFraction },
				set: func(c *config.Config, v float64) { c.Aim.BracketFraction = v },
			},
			{
				Name: "max_iterations", Path: "aim.max_iterations", Min: 4, Max: 40, Default: 15, Integer: true,
				get: func(c *config.Config) float64 { return float64(c.Aim.MaxIterations) },
				set: func(c *config.Config, v float64) { c.Aim.MaxIterations = int(v) },
			},
			{
				Name: "flight_time", Path: "aim.flight_time", Min: 1, Max: 10, Default: 5,
				get: func(c *config.Config) float64 { return c.Aim.FlightTime },
				set: func(c *config.Config, v float64) { c.Aim.FlightTime = v },
			},
			{
				Name: "think_interval", Path: "aim.think_interval", Min: 0.1, Max: 2, Default: 0.5,
				get: func(c *config.Config) float64 { return c.Aim.ThinkInterval },
				set: func(c *config.Config, v float64) { c.Aim.ThinkInterval = v },
			},
			{
				Name: "tolerance", Path: "aim.tolerance", Min: 0.01, Max: 0.3, Default: 0.05,
				get: func(c *config.Config) float64 { return c.Aim.Tolerance },
				set: func(c *config.Config, v float64) { c.Aim.Tolerance = v },
			},
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
		clamped[i] = math.Min(math.Max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig applies raw parameter values to a Config struct.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	for i, v := range pv.Clamp(values) {
		spec := pv.Specs[i]
		if spec.Integer {
			v = math.Round(v)
		}
		spec.set(cfg, v)
	}
}

// ExtractFromConfig extracts current parameter values from a Config struct.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.get(cfg)
	}
	return v
}
