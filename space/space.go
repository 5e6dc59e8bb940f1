// Package space provides the topographic space: a density field with a
// single habitability threshold. Space knows nothing about shapes.
package space

import (
	"github.com/pthm-cable/tes/field"
	"github.com/pthm-cable/tes/parallel"
)

// Space wraps a density field with one global habitability threshold.
// The solid threshold equals the habitability threshold and the liquid
// threshold is half of it; construct a field.DensityField directly for
// finer control.
type Space struct {
	trace     *field.DensityField
	threshold uint32
}

// New creates a space of the given size.
func New(width, height int, decayRate, threshold uint32) *Space {
	return &Space{
		trace:     field.New(width, height, decayRate, threshold, threshold/2),
		threshold: threshold,
	}
}

// InBounds reports whether (x, y) lies inside the space.
func (s *Space) InBounds(x, y int) bool {
	w, h := s.trace.Dimensions()
	return x >= 0 && y >= 0 && x < w && y < h
}

// IsHabitable reports whether a shape may appear at (x, y): the position
// must be inside the space and its density below the threshold.
func (s *Space) IsHabitable(x, y int) bool {
	if !s.InBounds(x, y) {
		return false
	}
	return s.trace.IsHabitable(x, y, s.threshold)
}

// Density returns the density at (x, y), or 0 when out of range.
func (s *Space) Density(x, y int) uint32 {
	return s.trace.Density(x, y)
}

// Regime returns the regime at (x, y).
func (s *Space) Regime(x, y int) field.Regime {
	return s.trace.Regime(x, y)
}

// Classify maps a density to its regime under this space's thresholds.
func (s *Space) Classify(d uint32) field.Regime {
	return s.trace.Classify(d)
}

// Contribute adds trace at (x, y).
func (s *Space) Contribute(x, y int, amount uint32) {
	s.trace.Contribute(x, y, amount)
}

// Tick applies one decay projection.
func (s *Space) Tick() {
	s.trace.ApplyDecay()
}

// TickParallel applies one decay projection split across pool workers.
func (s *Space) TickParallel(pool *parallel.Pool) {
	s.trace.ApplyDecayParallel(pool)
}

// Dimensions returns the width and height of the space.
func (s *Space) Dimensions() (int, int) {
	return s.trace.Dimensions()
}

// Threshold returns the habitability threshold.
func (s *Space) Threshold() uint32 {
	return s.threshold
}

// DecayRate returns the per-tick decay amount.
func (s *Space) DecayRate() uint32 {
	return s.trace.DecayRate()
}

// DensityMap copies the field into dst in row-major order and returns it.
func (s *Space) DensityMap(dst []uint32) []uint32 {
	return s.trace.Snapshot(dst)
}
