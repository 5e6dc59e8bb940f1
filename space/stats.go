package space

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/tes/field"
)

// FieldStats summarizes a density map. It describes the field as a whole
// and carries nothing about individual contributors.
type FieldStats struct {
	Cells int

	Mean   float64
	StdDev float64
	P50    float64
	P90    float64
	Max    float64

	// Fraction of cells in each regime
	GasFrac    float64
	LiquidFrac float64
	SolidFrac  float64

	// Fraction of cells at or above the habitability threshold
	SaturatedFrac float64
}

// Stats computes FieldStats over a fresh snapshot of the space.
func (s *Space) Stats() FieldStats {
	return s.StatsOf(s.DensityMap(nil))
}

// StatsOf computes FieldStats over a density map taken from this space.
func (s *Space) StatsOf(densities []uint32) FieldStats {
	n := len(densities)
	if n == 0 {
		return FieldStats{}
	}

	values := make([]float64, n)
	var gas, liquid, solid, saturated int
	for i, d := range densities {
		values[i] = float64(d)
		switch s.trace.Classify(d) {
		case field.Solid:
			solid++
		case field.Liquid:
			liquid++
		default:
			gas++
		}
		if d >= s.threshold {
			saturated++
		}
	}

	mean, std := stat.MeanStdDev(values, nil)
	if n == 1 {
		std = 0
	}
	maxV := floats.Max(values)

	sort.Float64s(values)
	p50 := stat.Quantile(0.5, stat.Empirical, values, nil)
	p90 := stat.Quantile(0.9, stat.Empirical, values, nil)

	total := float64(n)
	return FieldStats{
		Cells:         n,
		Mean:          mean,
		StdDev:        std,
		P50:           p50,
		P90:           p90,
		Max:           maxV,
		GasFrac:       float64(gas) / total,
		LiquidFrac:    float64(liquid) / total,
		SolidFrac:     float64(solid) / total,
		SaturatedFrac: float64(saturated) / total,
	}
}

// LogValue implements slog.LogValuer for structured logging.
func (fs FieldStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("cells", fs.Cells),
		slog.Float64("mean", fs.Mean),
		slog.Float64("std", fs.StdDev),
		slog.Float64("p50", fs.P50),
		slog.Float64("p90", fs.P90),
		slog.Float64("max", fs.Max),
		slog.Float64("gas", fs.GasFrac),
		slog.Float64("liquid", fs.LiquidFrac),
		slog.Float64("solid", fs.SolidFrac),
		slog.Float64("saturated", fs.SaturatedFrac),
	)
}
