package telemetry

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/pthm-cable/tes/config"
	"github.com/pthm-cable/tes/space"
)

// Output file names inside the run directory.
const (
	telemetryCSV  = "telemetry.csv"
	perfCSV       = "perf.csv"
	bookmarksCSV  = "bookmarks.csv"
	configYAML    = "config.yaml"
	fieldDumpsTxt = "field_dumps.txt"
)

// OutputConfig selects where a run writes its artifacts.
type OutputConfig struct {
	// Dir receives the CSV streams, config.yaml and field dumps (empty = off).
	Dir string
	// SnapshotDir receives field_<tick>.json density snapshots (empty = off).
	SnapshotDir string
}

// csvStream appends gocsv records to one file, writing the header once.
type csvStream struct {
	name          string
	file          *os.File
	headerWritten bool
}

func openStream(dir, name string) (*csvStream, error) {
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", name, err)
	}
	return &csvStream{name: name, file: f}, nil
}

// append writes records, a slice of csv-tagged structs.
func (s *csvStream) append(records any) error {
	if s == nil {
		return nil
	}
	write := gocsv.MarshalWithoutHeaders
	if !s.headerWritten {
		write = gocsv.Marshal
	}
	if err := write(records, s.file); err != nil {
		return fmt.Errorf("writing %s: %w", s.name, err)
	}
	s.headerWritten = true
	return nil
}

func (s *csvStream) close() error {
	if s == nil {
		return nil
	}
	return s.file.Close()
}

// OutputManager owns every file a run writes: the per-window CSV streams,
// the effective config, human-readable field dumps and density snapshots.
// A nil *OutputManager is valid and discards everything.
type OutputManager struct {
	dir         string
	snapshotDir string

	telemetry *csvStream
	perf      *csvStream
	bookmarks *csvStream
	dumps     *os.File

	snapshots int
}

// NewOutputManager creates the configured directories and opens the output
// streams. Returns nil when neither directory is set.
func NewOutputManager(cfg OutputConfig) (*OutputManager, error) {
	if cfg.Dir == "" && cfg.SnapshotDir == "" {
		return nil, nil
	}

	om := &OutputManager{dir: cfg.Dir, snapshotDir: cfg.SnapshotDir}

	if om.snapshotDir != "" {
		if err := os.MkdirAll(om.snapshotDir, 0755); err != nil {
			return nil, fmt.Errorf("creating snapshot directory: %w", err)
		}
	}
	if om.dir == "" {
		return om, nil
	}

	if err := os.MkdirAll(om.dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	var err error
	for _, s := range []struct {
		dst  **csvStream
		name string
	}{
		{&om.telemetry, telemetryCSV},
		{&om.perf, perfCSV},
		{&om.bookmarks, bookmarksCSV},
	} {
		if *s.dst, err = openStream(om.dir, s.name); err != nil {
			om.Close()
			return nil, err
		}
	}

	return om, nil
}

// WriteConfig saves the effective configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil || om.dir == "" {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, configYAML))
}

// WriteTelemetry appends a window to telemetry.csv.
func (om *OutputManager) WriteTelemetry(stats WindowStats) error {
	if om == nil {
		return nil
	}
	return om.telemetry.append([]WindowStats{stats})
}

// WritePerf appends the perf window ending at windowEnd to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, windowEnd uint64) error {
	if om == nil {
		return nil
	}
	return om.perf.append([]PerfStatsCSV{stats.ToCSV(windowEnd)})
}

// WriteBookmark appends a bookmark to bookmarks.csv.
func (om *OutputManager) WriteBookmark(bm Bookmark) error {
	if om == nil {
		return nil
	}
	return om.bookmarks.append([]Bookmark{bm})
}

// SnapshotsEnabled reports whether WriteSnapshot writes anything.
func (om *OutputManager) SnapshotsEnabled() bool {
	return om != nil && om.snapshotDir != ""
}

// WriteSnapshot saves the density field of sp at tick and returns the file
// path, or "" when snapshots are disabled. A second snapshot for the same
// tick overwrites the first.
func (om *OutputManager) WriteSnapshot(sp *space.Space, tick uint64) (string, error) {
	if !om.SnapshotsEnabled() {
		return "", nil
	}
	path, err := SaveSnapshot(NewFieldSnapshot(sp, tick), om.snapshotDir)
	if err != nil {
		return "", err
	}
	om.snapshots++
	return path, nil
}

// SnapshotCount returns the number of snapshots written so far.
func (om *OutputManager) SnapshotCount() int {
	if om == nil {
		return 0
	}
	return om.snapshots
}

// WriteFieldDump appends one field dump to field_dumps.txt, followed by a
// blank separator line. The file is created on first use.
func (om *OutputManager) WriteFieldDump(lines []string) error {
	if om == nil || om.dir == "" {
		return nil
	}
	if om.dumps == nil {
		f, err := os.Create(filepath.Join(om.dir, fieldDumpsTxt))
		if err != nil {
			return fmt.Errorf("creating %s: %w", fieldDumpsTxt, err)
		}
		om.dumps = f
	}

	var sb strings.Builder
	for _, line := range lines {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	sb.WriteByte('\n')
	if _, err := om.dumps.WriteString(sb.String()); err != nil {
		return fmt.Errorf("writing %s: %w", fieldDumpsTxt, err)
	}
	return nil
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// SnapshotDir returns the snapshot directory path.
func (om *OutputManager) SnapshotDir() string {
	if om == nil {
		return ""
	}
	return om.snapshotDir
}

// Close closes all output files and returns the first error.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error
	for _, s := range []*csvStream{om.telemetry, om.perf, om.bookmarks} {
		if err := s.close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if om.dumps != nil {
		if err := om.dumps.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
