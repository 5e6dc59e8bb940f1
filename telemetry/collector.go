package telemetry

import "github.com/pthm-cable/tes/space"

// Collector accumulates population events within tick windows and produces
// WindowStats.
type Collector struct {
	windowDurationTicks uint64

	// Current window tracking
	windowStartTick uint64

	// Event counters for current window
	spawns         int
	spawnsRejected int
	purged         int
}

// NewCollector creates a new stats collector that flushes every
// windowTicks ticks.
func NewCollector(windowTicks int) *Collector {
	if windowTicks < 1 {
		windowTicks = 1
	}
	return &Collector{
		windowDurationTicks: uint64(windowTicks),
	}
}

// RecordSpawn records an admitted spawn.
func (c *Collector) RecordSpawn() {
	c.spawns++
}

// RecordSpawnRejected records a spawn attempt on a saturated cell.
func (c *Collector) RecordSpawnRejected() {
	c.spawnsRejected++
}

// RecordPurge records shapes removed at the end of a tick.
func (c *Collector) RecordPurge(n int) {
	c.purged += n
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick uint64) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Flush produces a WindowStats and resets counters for the next window.
// liveShapes is the population at window end and fs describes the field
// at window end.
func (c *Collector) Flush(currentTick uint64, liveShapes int, fs space.FieldStats) WindowStats {
	var admitRate float64
	if attempts := c.spawns + c.spawnsRejected; attempts > 0 {
		admitRate = float64(c.spawns) / float64(attempts)
	}

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,

		LiveShapes:     liveShapes,
		Spawns:         c.spawns,
		SpawnsRejected: c.spawnsRejected,
		Purged:         c.purged,
		AdmitRate:      admitRate,

		DensityMean: fs.Mean,
		DensityStd:  fs.StdDev,
		DensityP50:  fs.P50,
		DensityP90:  fs.P90,
		DensityMax:  fs.Max,

		GasFrac:       fs.GasFrac,
		LiquidFrac:    fs.LiquidFrac,
		SolidFrac:     fs.SolidFrac,
		SaturatedFrac: fs.SaturatedFrac,
	}

	// Reset for next window
	c.windowStartTick = currentTick
	c.spawns = 0
	c.spawnsRejected = 0
	c.purged = 0

	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() uint64 {
	return c.windowDurationTicks
}
