package sim

import "log/slog"

// flushTelemetry flushes the stats window when it is due and handles bookmarks.
func (r *Runner) flushTelemetry() {
	tick := r.sub.TickCount()
	if !r.collector.ShouldFlush(tick) {
		return
	}

	r.densityBuf = r.sub.DensityMapInto(r.densityBuf)
	fieldStats := r.sub.Space().StatsOf(r.densityBuf)

	stats := r.collector.Flush(tick, r.sub.ShapeCount(), fieldStats)
	perfStats := r.perf.Stats()

	if r.statsCallback != nil {
		r.statsCallback(stats)
	}

	if r.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if r.outputManager != nil {
		if err := r.outputManager.WriteTelemetry(stats); err != nil {
			slog.Error("failed to write telemetry", "error", err)
		}
		if err := r.outputManager.WritePerf(perfStats, stats.WindowEndTick); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
	}

	for _, bm := range r.bookmarks.Check(stats) {
		if r.logStats {
			bm.LogBookmark()
		}

		if r.outputManager != nil {
			if err := r.outputManager.WriteBookmark(bm); err != nil {
				slog.Error("failed to write bookmark", "error", err)
			}
		}

		// Save snapshot on bookmark
		r.saveSnapshot()
	}
}

// periodicOutput handles interval-driven dumps and snapshots.
func (r *Runner) periodicOutput() {
	tick := r.sub.TickCount()
	tcfg := r.cfg.Telemetry

	if tcfg.DumpInterval > 0 && tick%uint64(tcfg.DumpInterval) == 0 {
		r.logFieldState()
	}
	if r.outputManager.SnapshotsEnabled() && tcfg.SnapshotInterval > 0 && tick%uint64(tcfg.SnapshotInterval) == 0 {
		r.saveSnapshot()
	}
}

// saveSnapshot writes the current density field when snapshots are enabled.
func (r *Runner) saveSnapshot() {
	path, err := r.outputManager.WriteSnapshot(r.sub.Space(), r.sub.TickCount())
	if err != nil {
		slog.Error("failed to save snapshot", "error", err)
		return
	}
	if path != "" {
		slog.Info("snapshot saved", "path", path, "tick", r.sub.TickCount())
	}
}
