package main

import (
	"log/slog"
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/tes/config"
	"github.com/pthm-cable/tes/sim"
	"github.com/pthm-cable/tes/telemetry"
)

// Fitness weights. Saturation error dominates; the other terms break ties
// between configurations that reach the target.
const (
	weightStability = 0.25 // std of saturation across windows
	weightAdmit     = 0.05 // penalty for rejecting most spawn attempts

	warmupWindows = 2 // skip first N windows while the field fills
)

// FitnessEvaluator runs headless simulations and scores parameter vectors
// by how closely the field holds a target saturated fraction.
type FitnessEvaluator struct {
	params     *ParamVector
	maxTicks   uint64
	seeds      []int64
	baseConfig *config.Config
	target     float64

	mu          sync.Mutex
	bestFitness float64
	lastSummary runSummary
}

// runSummary aggregates window statistics from one or more runs.
type runSummary struct {
	meanSaturated float64
	stdSaturated  float64
	meanAdmit     float64
	windows       int
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxTicks uint64, seeds []int64, baseCfg *config.Config, target float64) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		maxTicks:    maxTicks,
		seeds:       seeds,
		baseConfig:  baseCfg,
		target:      target,
		bestFitness: math.Inf(1),
	}
}

// LastSummary returns the aggregate from the most recent Evaluate call.
func (fe *FitnessEvaluator) LastSummary() runSummary {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastSummary
}

// Evaluate computes fitness for raw parameter values (lower = better).
// Invalid configurations score +Inf.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg := fe.baseConfig.Clone()
	if err := fe.params.ApplyToConfig(cfg, fe.baseConfig, x); err != nil {
		slog.Warn("rejected parameters", "error", err)
		return math.Inf(1)
	}

	// Run all seeds in parallel
	results := make([][]telemetry.WindowStats, len(fe.seeds))
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			results[idx] = fe.runSimulation(cfg, s)
		}(i, seed)
	}
	wg.Wait()

	var windows []telemetry.WindowStats
	for _, r := range results {
		windows = append(windows, r...)
	}
	summary := summarize(windows)
	fitness := fe.computeFitness(summary)

	fe.mu.Lock()
	if fitness < fe.bestFitness {
		fe.bestFitness = fitness
	}
	fe.lastSummary = summary
	fe.mu.Unlock()

	return fitness
}

// runSimulation executes a single headless run and returns its windows
// after warmup.
func (fe *FitnessEvaluator) runSimulation(cfg *config.Config, seed int64) []telemetry.WindowStats {
	var windows []telemetry.WindowStats
	r, err := sim.New(cfg, sim.Options{
		Seed: seed,
		StatsCallback: func(stats telemetry.WindowStats) {
			windows = append(windows, stats)
		},
	})
	if err != nil {
		slog.Error("failed to create runner", "error", err)
		return nil
	}
	defer r.Close()

	for r.Tick() < fe.maxTicks {
		r.Update()
	}

	if len(windows) <= warmupWindows {
		return nil
	}
	return windows[warmupWindows:]
}

// summarize reduces windows to saturation and admission statistics.
func summarize(windows []telemetry.WindowStats) runSummary {
	if len(windows) == 0 {
		return runSummary{}
	}

	saturated := make([]float64, len(windows))
	admit := make([]float64, len(windows))
	for i, w := range windows {
		saturated[i] = w.SaturatedFrac
		admit[i] = w.AdmitRate
	}

	mean, std := stat.MeanStdDev(saturated, nil)
	if len(windows) == 1 {
		std = 0
	}
	return runSummary{
		meanSaturated: mean,
		stdSaturated:  std,
		meanAdmit:     stat.Mean(admit, nil),
		windows:       len(windows),
	}
}

// computeFitness scores a summary against the target saturation.
func (fe *FitnessEvaluator) computeFitness(s runSummary) float64 {
	if s.windows == 0 {
		return math.Inf(1)
	}
	errSat := s.meanSaturated - fe.target
	return errSat*errSat + weightStability*s.stdSaturated*s.stdSaturated + weightAdmit*(1-s.meanAdmit)
}
