package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pthm-cable/tes/space"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// FieldSnapshot is a point-in-time export of the density field for
// external consumers such as renderers. It holds densities only and is
// never loaded back into a substrate.
type FieldSnapshot struct {
	Version int    `json:"version"`
	Tick    uint64 `json:"tick"`

	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Threshold uint32 `json:"threshold"`
	DecayRate uint32 `json:"decay_rate"`

	// Row-major densities (y outer, x inner), fixed point
	Density []uint32 `json:"density"`
}

// NewFieldSnapshot captures the current density map of sp.
func NewFieldSnapshot(sp *space.Space, tick uint64) *FieldSnapshot {
	w, h := sp.Dimensions()
	return &FieldSnapshot{
		Version:   SnapshotVersion,
		Tick:      tick,
		Width:     w,
		Height:    h,
		Threshold: sp.Threshold(),
		DecayRate: sp.DecayRate(),
		Density:   sp.DensityMap(nil),
	}
}

// At returns the density at (x, y), or 0 when out of range.
func (fs *FieldSnapshot) At(x, y int) uint32 {
	if x < 0 || y < 0 || x >= fs.Width || y >= fs.Height {
		return 0
	}
	return fs.Density[y*fs.Width+x]
}

// SaveSnapshot writes a snapshot to disk.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *FieldSnapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("field_%d.json", snapshot.Tick))

	data, err := json.Marshal(snapshot)
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*FieldSnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot FieldSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}

	if len(snapshot.Density) != snapshot.Width*snapshot.Height {
		return nil, fmt.Errorf("snapshot %s: %d densities for %dx%d field",
			path, len(snapshot.Density), snapshot.Width, snapshot.Height)
	}

	return &snapshot, nil
}
