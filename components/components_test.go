package components

import "testing"

func TestLifetimeDecay(t *testing.T) {
	s := NewShape(1, 100, 10, 1.0, 5)
	if !s.IsAlive() {
		t.Fatal("new shape should be alive")
	}

	for i := 0; i < 10; i++ {
		s.Tick()
	}

	if s.IsAlive() {
		t.Error("shape should be dead after its lifetime")
	}
}

func TestTickReturnsPostDecrementLiveness(t *testing.T) {
	s := NewShape(1, 100, 2, 1.0, 5)

	if !s.Tick() {
		t.Error("first tick of lifetime 2 should leave the shape alive")
	}
	if s.Tick() {
		t.Error("second tick of lifetime 2 should kill the shape")
	}
	if s.Tick() {
		t.Error("dead shape must stay dead")
	}
	if s.Lifetime != 0 {
		t.Errorf("lifetime = %d, want saturation at 0", s.Lifetime)
	}
}

func TestPayloadRequirement(t *testing.T) {
	s := NewShape(1, 100, 10, 1.0, 5)

	if s.CanProduceTrace() {
		t.Error("shape without payload should not produce trace")
	}

	s.AttachPayload()
	s.AttachPayload()
	if !s.CanProduceTrace() {
		t.Error("shape with payload should produce trace")
	}

	s.DetachPayload()
	s.DetachPayload()
	if s.CanProduceTrace() {
		t.Error("detached shape should not produce trace")
	}
	if !s.IsAlive() {
		t.Error("payload toggles must not affect liveness")
	}
}

func TestDeathInevitability(t *testing.T) {
	s := NewShape(1, 100, 5, 1.0, 1)

	ticks := 0
	for s.IsAlive() {
		s.Tick()
		ticks++
		if ticks > 100 {
			t.Fatal("death should be inevitable")
		}
	}

	if ticks != 5 {
		t.Errorf("died after %d ticks, want 5", ticks)
	}
}

func TestLivenessPredicate(t *testing.T) {
	tests := []struct {
		name     string
		budget   uint32
		lifetime uint32
		payload  bool
		alive    bool
		trace    bool
	}{
		{"alive with payload", 1, 1, true, true, true},
		{"alive without payload", 1, 1, false, true, false},
		{"no budget", 0, 10, true, false, false},
		{"no lifetime", 10, 0, true, false, false},
		{"nothing left", 0, 0, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewShape(7, tt.budget, tt.lifetime, 0, 1)
			if tt.payload {
				s.AttachPayload()
			}
			if got := s.IsAlive(); got != tt.alive {
				t.Errorf("IsAlive() = %v, want %v", got, tt.alive)
			}
			if got := s.CanProduceTrace(); got != tt.trace {
				t.Errorf("CanProduceTrace() = %v, want %v", got, tt.trace)
			}
		})
	}
}

func TestTickLeavesBudgetAndSensitivity(t *testing.T) {
	s := NewShape(3, 42, 3, 0.25, 9)
	s.AttachPayload()
	for i := 0; i < 5; i++ {
		s.Tick()
	}
	if s.Budget != 42 {
		t.Errorf("budget = %d, want 42", s.Budget)
	}
	if s.Sensitivity != 0.25 {
		t.Errorf("sensitivity = %v, want 0.25", s.Sensitivity)
	}
}
