package sim

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/pthm-cable/tes/field"
)

// logWriter is the destination for log output.
var logWriter io.Writer

// dumpColumns is the width of the regime map in a field dump.
const dumpColumns = 64

// SetLogWriter sets the log output destination.
func SetLogWriter(w io.Writer) {
	logWriter = w
}

// Logf writes a formatted log message.
func Logf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if logWriter != nil {
		fmt.Fprintln(logWriter, msg)
	} else {
		fmt.Println(msg)
	}
}

// logFieldState writes a human-readable summary of the field, followed by
// a downsampled regime map ('.' gas, '~' liquid, '#' solid), to the log
// writer and to the run's field_dumps.txt.
func (r *Runner) logFieldState() {
	lines := r.fieldDump()
	for _, line := range lines {
		Logf("%s", line)
	}
	Logf("")

	if err := r.outputManager.WriteFieldDump(lines); err != nil {
		slog.Error("failed to write field dump", "error", err)
	}
}

// fieldDump renders the current field state as text lines.
func (r *Runner) fieldDump() []string {
	r.densityBuf = r.sub.DensityMapInto(r.densityBuf)
	sp := r.sub.Space()
	fs := sp.StatsOf(r.densityBuf)

	lines := []string{
		fmt.Sprintf("=== Tick %d ===", r.sub.TickCount()),
		fmt.Sprintf("Shapes: %d", r.sub.ShapeCount()),
		fmt.Sprintf("Density: mean=%.1f p50=%.0f p90=%.0f max=%.0f",
			fs.Mean, fs.P50, fs.P90, fs.Max),
		fmt.Sprintf("Regimes: gas=%.1f%% liquid=%.1f%% solid=%.1f%% | saturated=%.1f%%",
			fs.GasFrac*100, fs.LiquidFrac*100, fs.SolidFrac*100, fs.SaturatedFrac*100),
	}
	return append(lines, regimeMap(sp, r.densityBuf, dumpColumns)...)
}

// regimeGrid classifies densities over a grid of known size.
type regimeGrid interface {
	Dimensions() (int, int)
	Classify(density uint32) field.Regime
}

// regimeMap renders densities as rows of regime glyphs at most cols wide.
// Each glyph shows the densest cell of its block.
func regimeMap(g regimeGrid, densities []uint32, cols int) []string {
	w, h := g.Dimensions()
	if w == 0 || h == 0 || cols < 1 {
		return nil
	}

	step := (w + cols - 1) / cols
	if step < 1 {
		step = 1
	}

	var lines []string
	var sb strings.Builder
	for by := 0; by < h; by += step {
		sb.Reset()
		for bx := 0; bx < w; bx += step {
			var peak uint32
			for y := by; y < by+step && y < h; y++ {
				row := densities[y*w : (y+1)*w]
				for x := bx; x < bx+step && x < w; x++ {
					if row[x] > peak {
						peak = row[x]
					}
				}
			}
			sb.WriteByte(glyph(g.Classify(peak)))
		}
		lines = append(lines, sb.String())
	}
	return lines
}

func glyph(r field.Regime) byte {
	switch r {
	case field.Solid:
		return '#'
	case field.Liquid:
		return '~'
	default:
		return '.'
	}
}
