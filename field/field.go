// Package field implements the trace density grid.
//
// Trace is a scalar field, not a record of who put it there: cells hold
// only accumulated totals and the mutation API accepts a position and an
// amount, never a contributor.
package field

import (
	"math"
	"sync/atomic"

	"github.com/pthm-cable/tes/parallel"
)

// Scale is the fixed-point scale of density values (1000 = 1.0).
const Scale = 1000

// FromFloat converts a conceptual density to fixed point, clamping to the
// representable range.
func FromFloat(v float64) uint32 {
	if v <= 0 || math.IsNaN(v) {
		return 0
	}
	f := math.Round(v * Scale)
	if f >= math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(f)
}

// ToFloat converts a fixed-point density to its conceptual value.
func ToFloat(v uint32) float64 {
	return float64(v) / Scale
}

// Regime is the phase classification of a cell.
type Regime uint8

const (
	Gas    Regime = iota // low density, no pattern forms
	Liquid               // medium density
	Solid                // high density, saturated
)

func (r Regime) String() string {
	switch r {
	case Solid:
		return "solid"
	case Liquid:
		return "liquid"
	default:
		return "gas"
	}
}

// DensityField is a 2D grid of non-negative fixed-point counters.
//
// Contribute, Density, IsHabitable and Regime are O(1) and safe to call
// from any number of goroutines. ApplyDecay is O(width*height) and must be
// sequenced after all contributions for the tick have completed.
type DensityField struct {
	width, height int
	cells         []atomic.Uint32

	decayRate       uint32 // per tick, fixed point
	solidThreshold  uint32 // above this = Solid
	liquidThreshold uint32 // above this = Liquid
}

// New allocates a zero-initialized field. Non-positive dimensions produce
// an empty field on which every coordinate is out of range.
func New(width, height int, decayRate, solidThreshold, liquidThreshold uint32) *DensityField {
	if width <= 0 || height <= 0 {
		width, height = 0, 0
	}
	return &DensityField{
		width:           width,
		height:          height,
		cells:           make([]atomic.Uint32, width*height),
		decayRate:       decayRate,
		solidThreshold:  solidThreshold,
		liquidThreshold: liquidThreshold,
	}
}

// cell returns the counter at (x, y), or nil when out of range.
func (f *DensityField) cell(x, y int) *atomic.Uint32 {
	if x < 0 || y < 0 || x >= f.width || y >= f.height {
		return nil
	}
	return &f.cells[y*f.width+x]
}

// Contribute adds amount to the cell at (x, y), saturating at
// math.MaxUint32. Out-of-range coordinates are ignored.
func (f *DensityField) Contribute(x, y int, amount uint32) {
	c := f.cell(x, y)
	if c == nil || amount == 0 {
		return
	}
	for {
		cur := c.Load()
		next := cur + amount
		if next < cur {
			next = math.MaxUint32
		}
		if cur == next || c.CompareAndSwap(cur, next) {
			return
		}
	}
}

// Density returns the current value at (x, y), or 0 when out of range.
func (f *DensityField) Density(x, y int) uint32 {
	c := f.cell(x, y)
	if c == nil {
		return 0
	}
	return c.Load()
}

// IsHabitable reports whether the density at (x, y) is below threshold.
func (f *DensityField) IsHabitable(x, y int, threshold uint32) bool {
	return f.Density(x, y) < threshold
}

// Regime classifies the cell at (x, y). A value exactly on a threshold
// falls into the lower regime.
func (f *DensityField) Regime(x, y int) Regime {
	return f.Classify(f.Density(x, y))
}

// Classify maps a density value to its regime using the field thresholds.
func (f *DensityField) Classify(d uint32) Regime {
	switch {
	case d > f.solidThreshold:
		return Solid
	case d > f.liquidThreshold:
		return Liquid
	default:
		return Gas
	}
}

// ApplyDecay subtracts the decay rate from every cell, saturating at 0.
func (f *DensityField) ApplyDecay() {
	f.decayRange(0, len(f.cells))
}

// ApplyDecayParallel applies the same projection as ApplyDecay with the
// grid split into independent ranges across pool workers. It returns once
// every range has been processed. A nil pool decays sequentially.
func (f *DensityField) ApplyDecayParallel(pool *parallel.Pool) {
	if pool == nil {
		f.ApplyDecay()
		return
	}
	pool.Run(len(f.cells), f.decayRange)
}

func (f *DensityField) decayRange(start, end int) {
	rate := f.decayRate
	if rate == 0 {
		return
	}
	for i := start; i < end; i++ {
		c := &f.cells[i]
		for {
			cur := c.Load()
			if cur == 0 {
				break
			}
			next := uint32(0)
			if cur > rate {
				next = cur - rate
			}
			if c.CompareAndSwap(cur, next) {
				break
			}
		}
	}
}

// Snapshot copies the field into dst in row-major order (y outer, x inner)
// and returns it. dst is reused when it has enough capacity. Each value is
// one the cell actually held during the copy; the copy as a whole is not
// atomic.
func (f *DensityField) Snapshot(dst []uint32) []uint32 {
	n := len(f.cells)
	if cap(dst) < n {
		dst = make([]uint32, n)
	}
	dst = dst[:n]
	for i := range f.cells {
		dst[i] = f.cells[i].Load()
	}
	return dst
}

// Dimensions returns the grid width and height.
func (f *DensityField) Dimensions() (int, int) {
	return f.width, f.height
}

// DecayRate returns the per-tick decay amount.
func (f *DensityField) DecayRate() uint32 { return f.decayRate }

// Thresholds returns the solid and liquid thresholds.
func (f *DensityField) Thresholds() (solid, liquid uint32) {
	return f.solidThreshold, f.liquidThreshold
}
