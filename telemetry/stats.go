// Package telemetry collects windowed statistics and timing for a run and
// writes them out.
package telemetry

import (
	"log/slog"
)

// WindowStats holds aggregated statistics for a tick window.
type WindowStats struct {
	WindowStartTick uint64 `csv:"-"`
	WindowEndTick   uint64 `csv:"window_end"`

	// Population
	LiveShapes     int     `csv:"live_shapes"`
	Spawns         int     `csv:"spawns"`
	SpawnsRejected int     `csv:"spawns_rejected"`
	Purged         int     `csv:"purged"`
	AdmitRate      float64 `csv:"admit_rate"`

	// Density distribution (sampled at window end, fixed point)
	DensityMean float64 `csv:"density_mean"`
	DensityStd  float64 `csv:"density_std"`
	DensityP50  float64 `csv:"density_p50"`
	DensityP90  float64 `csv:"density_p90"`
	DensityMax  float64 `csv:"density_max"`

	// Regime distribution
	GasFrac       float64 `csv:"gas"`
	LiquidFrac    float64 `csv:"liquid"`
	SolidFrac     float64 `csv:"solid"`
	SaturatedFrac float64 `csv:"saturated"`
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Uint64("window_start", s.WindowStartTick),
		slog.Uint64("window_end", s.WindowEndTick),
		slog.Int("live_shapes", s.LiveShapes),
		slog.Int("spawns", s.Spawns),
		slog.Int("spawns_rejected", s.SpawnsRejected),
		slog.Int("purged", s.Purged),
		slog.Float64("admit_rate", s.AdmitRate),
		slog.Float64("density_mean", s.DensityMean),
		slog.Float64("density_std", s.DensityStd),
		slog.Float64("density_p50", s.DensityP50),
		slog.Float64("density_p90", s.DensityP90),
		slog.Float64("density_max", s.DensityMax),
		slog.Float64("gas", s.GasFrac),
		slog.Float64("liquid", s.LiquidFrac),
		slog.Float64("solid", s.SolidFrac),
		slog.Float64("saturated", s.SaturatedFrac),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"live_shapes", s.LiveShapes,
		"spawns", s.Spawns,
		"spawns_rejected", s.SpawnsRejected,
		"purged", s.Purged,
		"admit_rate", s.AdmitRate,
		"density_mean", s.DensityMean,
		"density_p90", s.DensityP90,
		"saturated_pct", s.SaturatedFrac*100,
	)
}
