package main

import (
	"math"

	"github.com/pthm-cable/tes/config"
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
			// Field
			{Name: "decay_rate", Path: "field.decay_rate", Min: 1, Max: 20, Default: 2},
			{Name: "threshold", Path: "field.threshold", Min: 100, Max: 2000, Default: 500},
			// Seeding
			{Name: "spawns_per_tick", Path: "seeding.spawns_per_tick", Min: 10, Max: 600, Default: 150},
			{Name: "contribution_scale", Path: "seeding.hotspots[*].contribution", Min: 0.25, Max: 4.0, Default: 1.0},
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
		clamped[i] = math.Max(spec.Min, math.Min(spec.Max, v[i]))
	}
	return clamped
}

// ApplyToConfig applies raw parameter values to cfg and recomputes its
// derived values. base supplies the unscaled hotspot contributions.
// Order must match Specs order.
func (pv *ParamVector) ApplyToConfig(cfg, base *config.Config, values []float64) error {
	clamped := pv.Clamp(values)

	cfg.Field.DecayRate = uint32(math.Round(clamped[0]))
	cfg.Field.Threshold = uint32(math.Round(clamped[1]))
	cfg.Seeding.SpawnsPerTick = int(math.Round(clamped[2]))

	scale := clamped[3]
	for i := range cfg.Seeding.Hotspots {
		c := float64(base.Seeding.Hotspots[i].Contribution) * scale
		cfg.Seeding.Hotspots[i].Contribution = uint32(math.Max(1, math.Round(c)))
	}

	return cfg.Finalize()
}
