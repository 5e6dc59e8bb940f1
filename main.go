package main

import (
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pthm-cable/tes/config"
	"github.com/pthm-cable/tes/sim"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Int("stats-window", 0, "Stats window size in ticks (0 = use config)")
	snapshotDir := flag.String("snapshot-dir", "", "Directory for density snapshot files")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Uint64("max-ticks", 0, "Stop after N ticks (0 = until interrupted)")
	stepsPerUpdate := flag.Int("steps-per-update", 1, "Ticks per update call")
	workers := flag.Int("workers", -1, "Worker goroutines for the tick (-1 = use config, 0 = sequential)")
	debug := flag.Bool("debug", false, "Enable debug logging")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	// CLI overrides
	if *statsWindow > 0 || *workers >= 0 {
		cfg = cfg.Clone()
		if *statsWindow > 0 {
			cfg.Telemetry.StatsWindow = *statsWindow
		}
		if *workers >= 0 {
			cfg.Parallel.Workers = *workers
		}
		if err := cfg.Finalize(); err != nil {
			slog.Error("invalid flags", "error", err)
			os.Exit(1)
		}
	}

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	r, err := sim.New(cfg, sim.Options{
		Seed:           rngSeed,
		LogStats:       *logStats,
		OutputDir:      *outputDir,
		SnapshotDir:    *snapshotDir,
		StepsPerUpdate: *stepsPerUpdate,
	})
	if err != nil {
		slog.Error("failed to create runner", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := r.Close(); err != nil {
			slog.Error("failed to close runner", "error", err)
		}
	}()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	slog.Info("starting simulation",
		"seed", rngSeed,
		"width", cfg.World.Width,
		"height", cfg.World.Height,
		"stats_window", cfg.Telemetry.StatsWindow,
		"max_ticks", *maxTicks,
		"steps_per_update", *stepsPerUpdate,
	)

	start := time.Now()
	for {
		select {
		case sig := <-interrupt:
			slog.Info("interrupted", "signal", sig.String(), "tick", r.Tick())
			return
		default:
		}

		r.UpdateBounded(*maxTicks)

		if *maxTicks > 0 && r.Tick() >= *maxTicks {
			slog.Info("max ticks reached",
				"tick", r.Tick(),
				"shapes", r.ShapeCount(),
				"elapsed", time.Since(start).Round(time.Millisecond).String(),
			)
			return
		}
	}
}
