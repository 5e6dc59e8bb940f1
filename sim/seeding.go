package sim

import (
	"math"

	"github.com/pthm-cable/tes/config"
)

// seedHotspots attempts SpawnsPerHotspot spawns around every hotspot.
// Attempts on saturated or out-of-range cells are rejected by the
// substrate and counted as such.
func (r *Runner) seedHotspots() {
	per := r.cfg.Derived.SpawnsPerHotspot
	for i := range r.cfg.Seeding.Hotspots {
		h := &r.cfg.Seeding.Hotspots[i]
		for j := 0; j < per; j++ {
			x, y := r.samplePoint(h)
			if _, ok := r.sub.Spawn(x, y, h.Lifetime, h.Contribution); ok {
				r.collector.RecordSpawn()
			} else {
				r.collector.RecordSpawnRejected()
			}
		}
	}
}

// samplePoint picks a cell uniformly in angle and distance within the
// hotspot radius, so spawns cluster toward the center.
func (r *Runner) samplePoint(h *config.HotspotConfig) (int, int) {
	angle := r.rng.Float64() * 2 * math.Pi
	dist := r.rng.Float64() * h.Radius
	x := h.X + int(math.Round(math.Cos(angle)*dist))
	y := h.Y + int(math.Round(math.Sin(angle)*dist))
	return x, y
}
