// Package sim drives a substrate headlessly: it seeds shapes around
// configured hotspots, ticks the substrate and emits telemetry.
package sim

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/pthm-cable/tes/config"
	"github.com/pthm-cable/tes/substrate"
	"github.com/pthm-cable/tes/telemetry"
)

// Options configures a Runner.
type Options struct {
	Seed           int64
	LogStats       bool   // log window stats via slog
	OutputDir      string // CSV, config and field dump output (empty = disabled)
	SnapshotDir    string // density snapshots (empty = disabled)
	StepsPerUpdate int    // ticks per Update call (min 1)

	// StatsCallback, when set, receives every flushed window.
	StatsCallback func(telemetry.WindowStats)
}

// Runner owns a substrate and everything needed to run it unattended.
type Runner struct {
	cfg     *config.Config
	rng     *rand.Rand
	rngSeed int64

	sub *substrate.Substrate

	// Telemetry
	collector     *telemetry.Collector
	perf          *telemetry.PerfCollector
	bookmarks     *telemetry.BookmarkDetector
	outputManager *telemetry.OutputManager
	statsCallback func(telemetry.WindowStats)
	logStats      bool

	stepsPerUpdate int

	// Reused density buffer for window stats
	densityBuf []uint32
}

// phaseTimer forwards substrate phases to the perf collector. Tick
// boundaries belong to the runner so that seeding and telemetry are timed
// in the same sample.
type phaseTimer struct {
	perf *telemetry.PerfCollector
}

func (t phaseTimer) StartTick()              {}
func (t phaseTimer) StartPhase(phase string) { t.perf.StartPhase(phase) }
func (t phaseTimer) EndTick()                {}

// New creates a runner for cfg. The configuration is written to the
// output directory when one is set.
func New(cfg *config.Config, opts Options) (*Runner, error) {
	if cfg == nil {
		return nil, fmt.Errorf("sim: nil config")
	}

	steps := opts.StepsPerUpdate
	if steps < 1 {
		steps = 1
	}

	outputManager, err := telemetry.NewOutputManager(telemetry.OutputConfig{
		Dir:         opts.OutputDir,
		SnapshotDir: opts.SnapshotDir,
	})
	if err != nil {
		return nil, fmt.Errorf("sim: %w", err)
	}
	if err := outputManager.WriteConfig(cfg); err != nil {
		outputManager.Close()
		return nil, fmt.Errorf("sim: %w", err)
	}

	r := &Runner{
		cfg:            cfg,
		rng:            rand.New(rand.NewSource(opts.Seed)),
		rngSeed:        opts.Seed,
		collector:      telemetry.NewCollector(cfg.Telemetry.StatsWindow),
		perf:           telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow),
		bookmarks:      telemetry.NewBookmarkDetector(cfg.Telemetry.BookmarkHistory),
		outputManager:  outputManager,
		statsCallback:  opts.StatsCallback,
		logStats:       opts.LogStats,
		stepsPerUpdate: steps,
		densityBuf:     make([]uint32, 0, cfg.Derived.Cells),
	}

	r.sub = substrate.NewWithOptions(
		cfg.World.Width, cfg.World.Height,
		cfg.Field.DecayRate, cfg.Field.Threshold,
		substrate.Options{
			DefaultBudget:      cfg.Shape.DefaultBudget,
			DefaultSensitivity: cfg.Shape.Sensitivity,
			Workers:            cfg.Parallel.Workers,
			ParallelThreshold:  cfg.Parallel.Threshold,
			Timer:              phaseTimer{perf: r.perf},
			Recorder:           r.collector,
		},
	)

	slog.Debug("runner created",
		"seed", opts.Seed,
		"width", cfg.World.Width,
		"height", cfg.World.Height,
		"threshold", cfg.Field.Threshold,
		"decay_rate", cfg.Field.DecayRate,
		"hotspots", len(cfg.Seeding.Hotspots),
		"workers", cfg.Parallel.Workers,
	)

	return r, nil
}

// Update runs StepsPerUpdate ticks.
func (r *Runner) Update() {
	r.UpdateBounded(0)
}

// UpdateBounded runs StepsPerUpdate ticks but stops once Tick reaches
// maxTicks (0 = no limit). It returns the number of ticks run.
func (r *Runner) UpdateBounded(maxTicks uint64) int {
	steps := r.stepsPerUpdate
	if maxTicks > 0 {
		tick := r.sub.TickCount()
		if tick >= maxTicks {
			return 0
		}
		if remaining := maxTicks - tick; remaining < uint64(steps) {
			steps = int(remaining)
		}
	}
	for i := 0; i < steps; i++ {
		r.step()
	}
	return steps
}

// step runs one full tick: seeding, the substrate tick, then telemetry.
func (r *Runner) step() {
	r.perf.StartTick()

	r.perf.StartPhase(telemetry.PhaseSeeding)
	r.seedHotspots()

	r.sub.Tick()

	r.perf.StartPhase(telemetry.PhaseTelemetry)
	r.flushTelemetry()
	r.periodicOutput()

	r.perf.EndTick()
}

// Tick returns the number of completed ticks.
func (r *Runner) Tick() uint64 {
	return r.sub.TickCount()
}

// Seed returns the RNG seed the runner was created with.
func (r *Runner) Seed() int64 {
	return r.rngSeed
}

// ShapeCount returns the number of shapes currently held. Expired shapes
// are purged at the end of each tick.
func (r *Runner) ShapeCount() int {
	return r.sub.ShapeCount()
}

// Substrate exposes the driven substrate for read-only inspection.
func (r *Runner) Substrate() *substrate.Substrate {
	return r.sub
}

// Close stops worker goroutines and closes output files.
func (r *Runner) Close() error {
	r.sub.Close()
	return r.outputManager.Close()
}
