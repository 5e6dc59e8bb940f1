// Package components defines ECS components for shapes living in the substrate.
package components

// Shape is a bounded carrier that inhabits the space. Shapes do not act:
// while alive and carrying a payload they leave trace at their position as
// a side effect of being there.
type Shape struct {
	ID           uint64  // unique, assigned once, never reused
	Budget       uint32  // set at spawn; never decremented by the substrate
	Lifetime     uint32  // ticks remaining
	Sensitivity  float32 // reserved; not consulted by any tick phase
	Contribution uint32  // trace added per tick while eligible
	HasPayload   bool    // gates trace production
}

// NewShape creates a shape without a payload.
func NewShape(id uint64, budget, lifetime uint32, sensitivity float32, contribution uint32) Shape {
	return Shape{
		ID:           id,
		Budget:       budget,
		Lifetime:     lifetime,
		Sensitivity:  sensitivity,
		Contribution: contribution,
	}
}

// AttachPayload makes the shape eligible to produce trace.
func (s *Shape) AttachPayload() {
	s.HasPayload = true
}

// DetachPayload stops the shape from producing trace.
func (s *Shape) DetachPayload() {
	s.HasPayload = false
}

// Tick spends one tick of lifetime, saturating at zero, and reports
// whether the shape is still alive.
func (s *Shape) Tick() bool {
	if s.Lifetime > 0 {
		s.Lifetime--
	}
	return s.IsAlive()
}

// IsAlive reports whether the shape has both budget and lifetime left.
func (s *Shape) IsAlive() bool {
	return s.Budget > 0 && s.Lifetime > 0
}

// CanProduceTrace reports whether the shape is alive and carries a payload.
func (s *Shape) CanProduceTrace() bool {
	return s.IsAlive() && s.HasPayload
}
