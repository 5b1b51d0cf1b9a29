// Package config provides configuration loading and access for the
// navigation engine.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all engine configuration parameters.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	World     WorldConfig     `yaml:"world"`
	Spatial   SpatialConfig   `yaml:"spatial"`
	Nav       NavConfig       `yaml:"nav"`
	Agents    AgentsConfig    `yaml:"agents"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds viewer display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// WorldConfig holds the play-area dimensions. The arena is a square
// centered on the origin.
type WorldConfig struct {
	Size float64 `yaml:"size"` // side length in world units
}

// SpatialConfig holds the broad-phase index parameters.
type SpatialConfig struct {
	CellSize float64 `yaml:"cell_size"` // sized to the expected query radius
}

// NavConfig holds the flow-field parameters.
type NavConfig struct {
	GridN      int     `yaml:"grid_n"`     // walkable grid is N x N
	Interval   float64 `yaml:"interval"`   // seconds between field rebuilds
	Iterations int     `yaml:"iterations"` // fixed relax budget per rebuild
}

// AgentsConfig holds agent capacity and motion tuning.
type AgentsConfig struct {
	Max             int     `yaml:"max"`
	Speed           float64 `yaml:"speed"`
	Health          float64 `yaml:"health"`
	StepHeight      float64 `yaml:"step_height"`
	Gravity         float64 `yaml:"gravity"`
	AttackRange     float64 `yaml:"attack_range"`
	AttackDamage    float64 `yaml:"attack_damage"`
	AttackCooldown  float64 `yaml:"attack_cooldown"`
	AuthorityRadius float64 `yaml:"authority_radius"` // CPU render inside, GPU outside
	RepathInterval  float64 `yaml:"repath_interval"`
	WaypointLink    float64 `yaml:"waypoint_link"` // max path-graph edge length
	ArriveRadius    float64 `yaml:"arrive_radius"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	PerfWindow int     `yaml:"perf_window"` // frames per perf window
	LogEvery   float64 `yaml:"log_every"`   // seconds between stat logs (0 = off)
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	WorldSize32    float32 // World.Size as float32
	GridOffset     float32 // min corner of the grid (arena centered on origin)
	NavCellSize    float32 // World.Size / Nav.GridN
	AuthorityRadSq float32 // AuthorityRadius squared
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded
// defaults if path is empty. Must be called before Cfg().
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

// Load loads configuration from a YAML file, merging with embedded
// defaults. If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into the same struct - only overwrites fields
		// present in the file.
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.ComputeDerived()
	return cfg, nil
}

// ComputeDerived calculates values derived from the loaded config.
// Call it again after mutating the config programmatically.
func (c *Config) ComputeDerived() {
	if c.Nav.GridN <= 0 {
		c.Nav.GridN = 64
	}
	c.Derived.WorldSize32 = float32(c.World.Size)
	c.Derived.GridOffset = -float32(c.World.Size) / 2
	c.Derived.NavCellSize = float32(c.World.Size) / float32(c.Nav.GridN)
	r := float32(c.Agents.AuthorityRadius)
	c.Derived.AuthorityRadSq = r * r
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
