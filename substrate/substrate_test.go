package substrate

import (
	"testing"

	"github.com/pthm-cable/tes/field"
)

func TestSubstrateSimulation(t *testing.T) {
	sub := New(10, 10, 5, 100)

	if _, ok := sub.Spawn(5, 5, 20, 10); !ok {
		t.Fatal("spawn on empty cell should succeed")
	}
	if got := sub.ShapeCount(); got != 1 {
		t.Fatalf("shape count = %d, want 1", got)
	}

	sub.Run(10)

	// 10 contributions of 10, minus 10 decays of 5
	if got := sub.Space().Density(5, 5); got != 50 {
		t.Errorf("density = %d, want 50", got)
	}
	if got := sub.TickCount(); got != 10 {
		t.Errorf("tick count = %d, want 10", got)
	}
}

func TestHabitabilityBlocking(t *testing.T) {
	sub := New(10, 10, 0, 50)

	if _, ok := sub.Spawn(3, 3, 100, 60); !ok {
		t.Fatal("first spawn should succeed")
	}

	sub.Tick()
	if got := sub.Density(3, 3); got != 60 {
		t.Fatalf("density = %d, want 60", got)
	}

	if id, ok := sub.Spawn(3, 3, 100, 10); ok {
		t.Errorf("spawn on saturated cell returned id %d", id)
	}
	if got := sub.ShapeCount(); got != 1 {
		t.Errorf("shape count = %d, want 1 after rejected spawn", got)
	}
}

func TestSpawnRejectedIffAtThreshold(t *testing.T) {
	sub := New(4, 4, 0, 50)
	sub.Space().Contribute(0, 0, 49)
	sub.Space().Contribute(1, 0, 50)
	sub.Space().Contribute(2, 0, 51)

	tests := []struct {
		x, y int
		want bool
	}{
		{0, 0, true},
		{1, 0, false},
		{2, 0, false},
		{3, 3, true},
		{-1, 0, false},
		{4, 0, false},
	}

	for _, tt := range tests {
		_, ok := sub.Spawn(tt.x, tt.y, 1, 0)
		if ok != tt.want {
			t.Errorf("Spawn(%d,%d) ok = %v, want %v (density %d)",
				tt.x, tt.y, ok, tt.want, sub.Density(tt.x, tt.y))
		}
	}
}

func TestDeathRemovesShapes(t *testing.T) {
	sub := New(10, 10, 0, 1000)

	sub.Spawn(0, 0, 5, 1)
	if got := sub.ShapeCount(); got != 1 {
		t.Fatalf("shape count = %d, want 1", got)
	}

	sub.Run(4)
	if got := sub.ShapeCount(); got != 1 {
		t.Fatalf("shape count after 4 ticks = %d, want 1", got)
	}

	sub.Run(1)
	if got := sub.ShapeCount(); got != 0 {
		t.Errorf("shape count after 5 ticks = %d, want 0", got)
	}
}

func TestGhostTracePrevention(t *testing.T) {
	sub := New(10, 10, 0, 1000)

	if _, ok := sub.Spawn(2, 2, 3, 10); !ok {
		t.Fatal("spawn should succeed")
	}

	sub.Run(3)
	if got := sub.Density(2, 2); got != 30 {
		t.Fatalf("density = %d, want 30", got)
	}
	if got := sub.ShapeCount(); got != 0 {
		t.Fatalf("shape count = %d, want 0", got)
	}

	sub.Run(3)
	if got := sub.Density(2, 2); got != 30 {
		t.Errorf("density = %d after death, want 30", got)
	}
}

func TestContributesOnExactlyLifetimeTicks(t *testing.T) {
	for lifetime := uint32(0); lifetime <= 6; lifetime++ {
		sub := New(3, 3, 0, 1_000_000)
		sub.Spawn(1, 1, lifetime, 1)

		prev := uint32(0)
		for tick := uint32(1); tick <= lifetime+3; tick++ {
			sub.Tick()
			d := sub.Density(1, 1)
			contributed := d != prev
			if want := tick <= lifetime; contributed != want {
				t.Fatalf("lifetime %d tick %d: contributed = %v, want %v", lifetime, tick, contributed, want)
			}
			prev = d
		}
		if prev != lifetime {
			t.Errorf("lifetime %d: total density = %d, want %d", lifetime, prev, lifetime)
		}
	}
}

func TestRegimeEvolution(t *testing.T) {
	sub := New(10, 10, 0, 100)

	if got := sub.Space().Regime(5, 5); got != field.Gas {
		t.Fatalf("initial regime = %v, want gas", got)
	}

	sub.Spawn(5, 5, 100, 20)
	sub.Run(3) // 60 > liquid (50)
	if got := sub.Regime(5, 5); got != field.Liquid {
		t.Fatalf("regime = %v, want liquid", got)
	}

	sub.Run(3) // 120 > solid (100)
	if got := sub.Regime(5, 5); got != field.Solid {
		t.Fatalf("regime = %v, want solid", got)
	}
}

func TestSourceAmnesiaSum(t *testing.T) {
	sub := New(5, 5, 2, 1_000_000)

	sub.Spawn(1, 1, 10, 7)
	sub.Spawn(1, 1, 10, 11)
	sub.Spawn(1, 1, 10, 13)

	sub.Run(4)

	// 4 ticks of (7+11+13) minus 4 decays of 2
	if got := sub.Density(1, 1); got != 4*31-4*2 {
		t.Errorf("density = %d, want %d", got, 4*31-4*2)
	}
}

func TestIDsAreMonotonic(t *testing.T) {
	sub := New(10, 10, 0, 1000)

	var last uint64
	for i := 0; i < 5; i++ {
		id, ok := sub.Spawn(i, 0, 1, 0)
		if !ok {
			t.Fatalf("spawn %d failed", i)
		}
		if id <= last {
			t.Fatalf("id %d not greater than previous %d", id, last)
		}
		last = id
	}
	if last != 5 {
		t.Errorf("fifth id = %d, want 5", last)
	}

	// Every shape dies, ids still continue
	sub.Tick()
	if sub.ShapeCount() != 0 {
		t.Fatalf("shape count = %d, want 0", sub.ShapeCount())
	}

	id, ok := sub.Spawn(0, 0, 1, 0)
	if !ok || id != 6 {
		t.Errorf("spawn after purge = (%d, %v), want (6, true)", id, ok)
	}

	// Rejected spawns do not consume ids
	sub.Space().Contribute(9, 9, 5000)
	if _, ok := sub.Spawn(9, 9, 1, 0); ok {
		t.Fatal("spawn on saturated cell should fail")
	}
	id, _ = sub.Spawn(1, 1, 1, 0)
	if id != 7 {
		t.Errorf("id after rejected spawn = %d, want 7", id)
	}
}

func TestZeroLifetimeNeverContributes(t *testing.T) {
	sub := New(3, 3, 0, 100)
	if _, ok := sub.Spawn(0, 0, 0, 50); !ok {
		t.Fatal("spawn should be admitted regardless of lifetime")
	}
	if got := sub.ShapeCount(); got != 1 {
		t.Errorf("shape count before tick = %d, want 1", got)
	}
	sub.Tick()
	if got := sub.Density(0, 0); got != 0 {
		t.Errorf("density = %d, want 0", got)
	}
	if got := sub.ShapeCount(); got != 0 {
		t.Errorf("shape count = %d, want 0", got)
	}
}

func TestDecayOnlyDensity(t *testing.T) {
	sub := New(4, 4, 3, 1000)
	sub.Space().Contribute(2, 3, 20)

	for n := 1; n <= 10; n++ {
		sub.Tick()
		want := 20 - 3*n
		if want < 0 {
			want = 0
		}
		if got := sub.Density(2, 3); got != uint32(want) {
			t.Fatalf("after %d ticks density = %d, want %d", n, got, want)
		}
	}
}

func TestDensityMap(t *testing.T) {
	sub := New(3, 2, 0, 1000)
	sub.Spawn(2, 0, 1, 4)
	sub.Spawn(0, 1, 1, 9)
	sub.Tick()

	m := sub.DensityMap()
	want := []uint32{0, 0, 4, 9, 0, 0}
	if len(m) != len(want) {
		t.Fatalf("map length = %d, want %d", len(m), len(want))
	}
	for i := range want {
		if m[i] != want[i] {
			t.Errorf("map[%d] = %d, want %d", i, m[i], want[i])
		}
	}

	buf := make([]uint32, 6)
	if out := sub.DensityMapInto(buf); &out[0] != &buf[0] {
		t.Error("expected DensityMapInto to reuse buffer")
	}
}

func TestParallelTickMatchesSequential(t *testing.T) {
	seq := New(32, 32, 1, 400)
	par := NewWithOptions(32, 32, 1, 400, Options{Workers: 4, ParallelThreshold: 8})
	defer par.Close()

	for i := 0; i < 300; i++ {
		x, y := (i*7)%32, (i*13)%32
		lifetime := uint32(i%9 + 1)
		amount := uint32(i%5 + 1)
		_, ok1 := seq.Spawn(x, y, lifetime, amount)
		_, ok2 := par.Spawn(x, y, lifetime, amount)
		if ok1 != ok2 {
			t.Fatalf("spawn %d diverged: sequential %v, parallel %v", i, ok1, ok2)
		}
		if i%20 == 0 {
			seq.Tick()
			par.Tick()
		}
	}
	seq.Run(12)
	par.Run(12)

	a, b := seq.DensityMap(), par.DensityMap()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("cell %d: sequential %d, parallel %d", i, a[i], b[i])
		}
	}
	if seq.ShapeCount() != par.ShapeCount() {
		t.Errorf("shape count: sequential %d, parallel %d", seq.ShapeCount(), par.ShapeCount())
	}
}

type phaseLog struct {
	ticks  int
	phases []string
	ended  int
	purged int
}

func (p *phaseLog) StartTick()              { p.ticks++ }
func (p *phaseLog) StartPhase(phase string) { p.phases = append(p.phases, phase) }
func (p *phaseLog) EndTick()                { p.ended++ }
func (p *phaseLog) RecordPurge(n int)       { p.purged += n }

func TestPhaseOrderAndHooks(t *testing.T) {
	log := &phaseLog{}
	sub := NewWithOptions(5, 5, 1, 100, Options{Timer: log, Recorder: log})

	sub.Spawn(0, 0, 1, 1)
	sub.Spawn(1, 1, 2, 1)
	sub.Run(2)

	want := []string{
		PhaseContribute, PhaseAge, PhasePurge, PhaseDecay,
		PhaseContribute, PhaseAge, PhasePurge, PhaseDecay,
	}
	if len(log.phases) != len(want) {
		t.Fatalf("phases = %v, want %v", log.phases, want)
	}
	for i := range want {
		if log.phases[i] != want[i] {
			t.Fatalf("phase %d = %s, want %s", i, log.phases[i], want[i])
		}
	}
	if log.ticks != 2 || log.ended != 2 {
		t.Errorf("ticks started/ended = %d/%d, want 2/2", log.ticks, log.ended)
	}
	if log.purged != 2 {
		t.Errorf("purged = %d, want 2", log.purged)
	}
}

func TestOptionsDefaults(t *testing.T) {
	sub := NewWithOptions(2, 2, 0, 10, Options{})
	if sub.budget != DefaultBudget {
		t.Errorf("budget = %d, want %d", sub.budget, DefaultBudget)
	}
	if sub.sensitivity != DefaultSensitivity {
		t.Errorf("sensitivity = %v, want %v", sub.sensitivity, DefaultSensitivity)
	}
	if sub.pool != nil {
		t.Error("expected no worker pool without workers")
	}
	sub.Close()

	sub = NewWithOptions(2, 2, 0, 10, Options{DefaultSensitivity: -2})
	if sub.sensitivity != DefaultSensitivity {
		t.Errorf("negative sensitivity = %v, want %v", sub.sensitivity, DefaultSensitivity)
	}
	sub.Close()
}

func BenchmarkTick(b *testing.B) {
	sub := New(256, 256, 2, 500)
	for i := 0; i < 2000; i++ {
		sub.Spawn(i%256, (i*31)%256, 1<<30, 1)
	}
	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		sub.Tick()
	}
}

func BenchmarkTickParallel(b *testing.B) {
	sub := NewWithOptions(256, 256, 2, 500, Options{Workers: 4})
	defer sub.Close()
	for i := 0; i < 2000; i++ {
		sub.Spawn(i%256, (i*31)%256, 1<<30, 1)
	}
	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		sub.Tick()
	}
}
