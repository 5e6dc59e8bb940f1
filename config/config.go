// Package config provides configuration loading and access for the substrate.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all run configuration parameters.
type Config struct {
	World     WorldConfig     `yaml:"world"`
	Field     FieldConfig     `yaml:"field"`
	Shape     ShapeConfig     `yaml:"shape"`
	Parallel  ParallelConfig  `yaml:"parallel"`
	Seeding   SeedingConfig   `yaml:"seeding"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// WorldConfig holds the space dimensions in cells.
type WorldConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// FieldConfig holds density field parameters (fixed point, 1000 = 1.0).
type FieldConfig struct {
	DecayRate uint32 `yaml:"decay_rate"` // subtracted from every cell per tick
	Threshold uint32 `yaml:"threshold"`  // habitability and solid threshold
}

// ShapeConfig holds defaults applied to every spawned shape.
type ShapeConfig struct {
	DefaultBudget uint32  `yaml:"default_budget"`
	Sensitivity   float32 `yaml:"sensitivity"` // reserved, inert
}

// ParallelConfig holds worker pool settings for the tick.
type ParallelConfig struct {
	Workers   int `yaml:"workers"`   // 0 = sequential
	Threshold int `yaml:"threshold"` // min contributing shapes before splitting
}

// HotspotConfig describes a region where the driver attempts spawns.
type HotspotConfig struct {
	Name         string  `yaml:"name"`
	X            int     `yaml:"x"`
	Y            int     `yaml:"y"`
	Radius       float64 `yaml:"radius"`
	Lifetime     uint32  `yaml:"lifetime"`
	Contribution uint32  `yaml:"contribution"`
}

// SeedingConfig holds driver spawn parameters.
type SeedingConfig struct {
	SpawnsPerTick int             `yaml:"spawns_per_tick"` // spread evenly across hotspots
	Hotspots      []HotspotConfig `yaml:"hotspots"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow      int `yaml:"stats_window"`
	PerfWindow       int `yaml:"perf_window"`
	DumpInterval     int `yaml:"dump_interval"`
	SnapshotInterval int `yaml:"snapshot_interval"`
	BookmarkHistory  int `yaml:"bookmark_history"` // windows kept for bookmark detection
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	LiquidThreshold  uint32 // Field.Threshold / 2
	Cells            int    // World.Width * World.Height
	SpawnsPerHotspot int    // Seeding.SpawnsPerTick / len(Hotspots)
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	var data []byte
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		data = b
	}
	return Parse(data)
}

// Parse builds a configuration from YAML bytes merged over the embedded
// defaults. Empty data yields the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if len(data) > 0 {
		// Unmarshal into same struct - only overwrites fields present in data
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Finalize validates the configuration and recomputes derived values.
// Call it after changing a loaded Config in code.
func (c *Config) Finalize() error {
	if err := c.Validate(); err != nil {
		return err
	}
	c.computeDerived()
	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Seeding.Hotspots = append([]HotspotConfig(nil), c.Seeding.Hotspots...)
	return &clone
}

// Validate checks that the configuration describes a usable run.
func (c *Config) Validate() error {
	var errs []error

	if c.World.Width <= 0 || c.World.Height <= 0 {
		errs = append(errs, fmt.Errorf("world: dimensions must be positive, got %dx%d", c.World.Width, c.World.Height))
	}
	if c.Shape.DefaultBudget == 0 {
		errs = append(errs, errors.New("shape: default_budget must be positive"))
	}
	if c.Shape.Sensitivity <= 0 {
		errs = append(errs, fmt.Errorf("shape: sensitivity must be positive, got %v", c.Shape.Sensitivity))
	}
	if c.Parallel.Workers < 0 {
		errs = append(errs, fmt.Errorf("parallel: workers must not be negative, got %d", c.Parallel.Workers))
	}
	if c.Seeding.SpawnsPerTick < 0 {
		errs = append(errs, fmt.Errorf("seeding: spawns_per_tick must not be negative, got %d", c.Seeding.SpawnsPerTick))
	}
	for i, h := range c.Seeding.Hotspots {
		if h.X < 0 || h.Y < 0 || h.X >= c.World.Width || h.Y >= c.World.Height {
			errs = append(errs, fmt.Errorf("seeding: hotspot %d (%s) center (%d,%d) outside world", i, h.Name, h.X, h.Y))
		}
		if h.Radius < 0 {
			errs = append(errs, fmt.Errorf("seeding: hotspot %d (%s) radius must not be negative", i, h.Name))
		}
	}
	if c.Telemetry.StatsWindow < 0 || c.Telemetry.PerfWindow < 0 ||
		c.Telemetry.DumpInterval < 0 || c.Telemetry.SnapshotInterval < 0 ||
		c.Telemetry.BookmarkHistory < 0 {
		errs = append(errs, errors.New("telemetry: intervals must not be negative"))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.LiquidThreshold = c.Field.Threshold / 2
	c.Derived.Cells = c.World.Width * c.World.Height

	c.Derived.SpawnsPerHotspot = 0
	if n := len(c.Seeding.Hotspots); n > 0 {
		c.Derived.SpawnsPerHotspot = c.Seeding.SpawnsPerTick / n
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
