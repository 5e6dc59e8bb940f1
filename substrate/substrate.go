// Package substrate combines a space and the shapes inhabiting it into a
// tick-driven simulation.
package substrate

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/tes/components"
	"github.com/pthm-cable/tes/field"
	"github.com/pthm-cable/tes/parallel"
	"github.com/pthm-cable/tes/space"
)

// Phase names reported to a PhaseTimer.
const (
	PhaseContribute = "contribute"
	PhaseAge        = "age"
	PhasePurge      = "purge"
	PhaseDecay      = "decay"
)

// Shape defaults used when Options leaves them unset.
const (
	DefaultBudget            = 100
	DefaultSensitivity       = 1.0
	DefaultParallelThreshold = 64
)

// PhaseTimer receives tick and phase boundaries.
type PhaseTimer interface {
	StartTick()
	StartPhase(phase string)
	EndTick()
}

// Recorder receives population events.
type Recorder interface {
	RecordPurge(n int)
}

// Options configures a Substrate beyond its space parameters.
type Options struct {
	DefaultBudget      uint32  // budget given to spawned shapes (0 = DefaultBudget)
	DefaultSensitivity float32 // sensitivity given to spawned shapes (<= 0 = DefaultSensitivity)

	// Workers splits the contribution and decay phases across goroutines.
	// 0 runs every phase on the calling goroutine.
	Workers int
	// ParallelThreshold is the minimum number of contributing shapes before
	// the contribution phase is split across workers (0 = DefaultParallelThreshold).
	ParallelThreshold int

	Timer    PhaseTimer // optional
	Recorder Recorder   // optional
}

// contribution is a position and amount captured at the start of a tick.
type contribution struct {
	x, y   int
	amount uint32
}

// Substrate owns a space and the set of live shapes. It is not safe for
// concurrent use; a single coordinator calls Spawn and Tick.
type Substrate struct {
	space *space.Space

	world       *ecs.World
	shapeMapper *ecs.Map2[components.Position, components.Shape]
	shapeFilter *ecs.Filter2[components.Position, components.Shape]

	pool              *parallel.Pool
	parallelThreshold int

	budget      uint32
	sensitivity float32

	timer    PhaseTimer
	recorder Recorder

	// State
	tickCount  uint64
	nextID     uint64
	aliveCount int

	// Scratch buffers reused across ticks
	contributions []contribution
	toRemove      []ecs.Entity
}

// New creates an empty substrate with a sequential tick.
func New(width, height int, decayRate, threshold uint32) *Substrate {
	return NewWithOptions(width, height, decayRate, threshold, Options{})
}

// NewWithOptions creates an empty substrate with the given options.
func NewWithOptions(width, height int, decayRate, threshold uint32, opts Options) *Substrate {
	world := ecs.NewWorld()

	s := &Substrate{
		space:             space.New(width, height, decayRate, threshold),
		world:             world,
		shapeMapper:       ecs.NewMap2[components.Position, components.Shape](world),
		shapeFilter:       ecs.NewFilter2[components.Position, components.Shape](world),
		parallelThreshold: opts.ParallelThreshold,
		budget:            opts.DefaultBudget,
		sensitivity:       opts.DefaultSensitivity,
		timer:             opts.Timer,
		recorder:          opts.Recorder,
		nextID:            1,
		contributions:     make([]contribution, 0, 256),
	}

	if s.budget == 0 {
		s.budget = DefaultBudget
	}
	if s.sensitivity <= 0 {
		s.sensitivity = DefaultSensitivity
	}
	if s.parallelThreshold <= 0 {
		s.parallelThreshold = DefaultParallelThreshold
	}
	if opts.Workers > 0 {
		s.pool = parallel.New(opts.Workers)
	}

	return s
}

// Spawn admits a new shape at (x, y) if the cell is currently habitable.
// The shape carries a payload from the start. It returns the new shape's
// id, or false when the cell is saturated or outside the space.
func (s *Substrate) Spawn(x, y int, lifetime, contribution uint32) (uint64, bool) {
	if !s.space.IsHabitable(x, y) {
		return 0, false
	}

	id := s.nextID
	s.nextID++

	pos := components.Position{X: x, Y: y}
	shape := components.NewShape(id, s.budget, lifetime, s.sensitivity, contribution)
	shape.AttachPayload()

	s.shapeMapper.NewEntity(&pos, &shape)
	s.aliveCount++

	return id, true
}

// Tick runs one simulation step:
//  1. every shape able to produce trace contributes at its position
//  2. every shape loses one tick of lifetime
//  3. shapes that are no longer alive are removed
//  4. the space decays once
//
// Contribution happens before aging, so a shape spawned with lifetime L
// contributes on exactly L ticks.
func (s *Substrate) Tick() {
	s.tickCount++
	s.startTick()

	s.startPhase(PhaseContribute)
	s.contribute()

	s.startPhase(PhaseAge)
	s.age()

	s.startPhase(PhasePurge)
	s.purge()

	s.startPhase(PhaseDecay)
	if s.pool != nil {
		s.space.TickParallel(s.pool)
	} else {
		s.space.Tick()
	}

	s.endTick()
}

// contribute snapshots the trace-capable shapes, then pushes their
// contributions into the space.
func (s *Substrate) contribute() {
	s.contributions = s.contributions[:0]

	query := s.shapeFilter.Query()
	for query.Next() {
		pos, shape := query.Get()
		if shape.CanProduceTrace() {
			s.contributions = append(s.contributions, contribution{
				x:      pos.X,
				y:      pos.Y,
				amount: shape.Contribution,
			})
		}
	}

	n := len(s.contributions)
	if s.pool == nil || n < s.parallelThreshold {
		s.contributeRange(0, n)
		return
	}
	s.pool.Run(n, s.contributeRange)
}

func (s *Substrate) contributeRange(start, end int) {
	for i := start; i < end; i++ {
		c := &s.contributions[i]
		s.space.Contribute(c.x, c.y, c.amount)
	}
}

// age spends one tick of lifetime on every shape and collects the dead.
func (s *Substrate) age() {
	s.toRemove = s.toRemove[:0]

	query := s.shapeFilter.Query()
	for query.Next() {
		_, shape := query.Get()
		if !shape.Tick() {
			s.toRemove = append(s.toRemove, query.Entity())
		}
	}
}

// purge removes the shapes collected by age. Removal happens after the
// query has completed.
func (s *Substrate) purge() {
	n := len(s.toRemove)
	if n == 0 {
		return
	}
	for _, e := range s.toRemove {
		s.world.RemoveEntity(e)
	}
	s.aliveCount -= n
	s.toRemove = s.toRemove[:0]

	if s.recorder != nil {
		s.recorder.RecordPurge(n)
	}
}

// Run executes n ticks sequentially.
func (s *Substrate) Run(n uint64) {
	for i := uint64(0); i < n; i++ {
		s.Tick()
	}
}

// TickCount returns the number of completed ticks.
func (s *Substrate) TickCount() uint64 {
	return s.tickCount
}

// ShapeCount returns the number of shapes currently held. Shapes whose
// lifetime ran out are purged at the end of each tick, so a shape spawned
// with lifetime 0 is counted until the next tick completes.
func (s *Substrate) ShapeCount() int {
	return s.aliveCount
}

// Space returns the substrate's space for read access.
func (s *Substrate) Space() *space.Space {
	return s.space
}

// Density returns the density at (x, y).
func (s *Substrate) Density(x, y int) uint32 {
	return s.space.Density(x, y)
}

// Regime returns the regime at (x, y).
func (s *Substrate) Regime(x, y int) field.Regime {
	return s.space.Regime(x, y)
}

// IsHabitable reports whether a shape could be spawned at (x, y) now.
func (s *Substrate) IsHabitable(x, y int) bool {
	return s.space.IsHabitable(x, y)
}

// Dimensions returns the width and height of the space.
func (s *Substrate) Dimensions() (int, int) {
	return s.space.Dimensions()
}

// DensityMap returns a row-major snapshot of the field (y outer, x inner).
func (s *Substrate) DensityMap() []uint32 {
	return s.space.DensityMap(nil)
}

// DensityMapInto is DensityMap writing into dst when it is large enough.
func (s *Substrate) DensityMapInto(dst []uint32) []uint32 {
	return s.space.DensityMap(dst)
}

// Close stops any worker goroutines. The substrate remains usable and
// restarts workers on the next parallel tick.
func (s *Substrate) Close() {
	s.pool.Stop()
}

func (s *Substrate) startTick() {
	if s.timer != nil {
		s.timer.StartTick()
	}
}

func (s *Substrate) startPhase(phase string) {
	if s.timer != nil {
		s.timer.StartPhase(phase)
	}
}

func (s *Substrate) endTick() {
	if s.timer != nil {
		s.timer.EndTick()
	}
}
