package telemetry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pthm-cable/tes/space"
)

func TestSnapshotSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()

	sp := space.New(4, 3, 2, 100)
	sp.Contribute(1, 2, 77)
	sp.Contribute(3, 0, 5)

	snapshot := NewFieldSnapshot(sp, 1000)
	if snapshot.Width != 4 || snapshot.Height != 3 || len(snapshot.Density) != 12 {
		t.Fatalf("unexpected snapshot shape: %dx%d with %d cells",
			snapshot.Width, snapshot.Height, len(snapshot.Density))
	}

	path, err := SaveSnapshot(snapshot, tmpDir)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
	if filepath.Base(path) != "field_1000.json" {
		t.Errorf("snapshot file = %s, want field_1000.json", filepath.Base(path))
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("Snapshot file not created at %s", path)
	}

	loaded, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}

	if loaded.Version != SnapshotVersion {
		t.Errorf("Version mismatch: got %d, want %d", loaded.Version, SnapshotVersion)
	}
	if loaded.Tick != 1000 {
		t.Errorf("Tick mismatch: got %d, want 1000", loaded.Tick)
	}
	if loaded.Threshold != 100 || loaded.DecayRate != 2 {
		t.Errorf("parameters = %d/%d, want 100/2", loaded.Threshold, loaded.DecayRate)
	}
	if got := loaded.At(1, 2); got != 77 {
		t.Errorf("At(1,2) = %d, want 77", got)
	}
	if got := loaded.At(3, 0); got != 5 {
		t.Errorf("At(3,0) = %d, want 5", got)
	}
	if got := loaded.At(4, 0); got != 0 {
		t.Errorf("At(4,0) = %d, want 0 for out of range", got)
	}
}

func TestLoadSnapshotRejectsMismatchedSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	data := `{"version":1,"tick":1,"width":2,"height":2,"density":[1,2,3]}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadSnapshot(path); err == nil {
		t.Error("expected error for mismatched density length")
	}
}

func TestLoadSnapshotMissing(t *testing.T) {
	if _, err := LoadSnapshot(filepath.Join(t.TempDir(), "none.json")); err == nil {
		t.Error("expected error for missing file")
	}
}
