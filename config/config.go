// Package config provides configuration loading and access for the simulator.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulator configuration parameters.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	Physics   PhysicsConfig   `yaml:"physics"`
	Material  MaterialConfig  `yaml:"material"`
	Scene     SceneConfig     `yaml:"scene"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// PhysicsConfig holds the time-stepping and grid parameters. The domain is
// the normalized unit square; grid_res is the cell count per axis.
type PhysicsConfig struct {
	GridRes        int     `yaml:"grid_res"`
	DT             float64 `yaml:"dt"`       // fine internal timestep (seconds)
	FrameDT        float64 `yaml:"frame_dt"` // visual frame cadence (seconds)
	Gravity        float64 `yaml:"gravity"`  // vertical acceleration; negative is down
	Boundary       float64 `yaml:"boundary"` // wall thickness as a domain fraction
	ParticleMass   float64 `yaml:"particle_mass"`
	ParticleVolume float64 `yaml:"particle_volume"`
	Parallel       bool    `yaml:"parallel"` // run step phases on a worker pool
}

// MaterialConfig holds the constitutive model constants shared by all
// particles.
type MaterialConfig struct {
	YoungsModulus float64 `yaml:"youngs_modulus"`
	PoissonRatio  float64 `yaml:"poisson_ratio"`
	Hardening     float64 `yaml:"hardening"`   // plastic hardening exponent
	StretchMin    float64 `yaml:"stretch_min"` // snow singular value clamp, lower
	StretchMax    float64 `yaml:"stretch_max"` // snow singular value clamp, upper
	JpMin         float64 `yaml:"jp_min"`      // plastic volume ratio clamp, lower
	JpMax         float64 `yaml:"jp_max"`      // plastic volume ratio clamp, upper
}

// SceneConfig holds the initial particle seeding.
type SceneConfig struct {
	Clusters []ClusterConfig `yaml:"clusters"`
}

// ClusterConfig describes one seeded blob of particles.
type ClusterConfig struct {
	Center   []float64 `yaml:"center"` // [x, y] in the unit square
	Count    int       `yaml:"count"`
	Radius   float64   `yaml:"radius"`   // jitter half-extent per axis
	Material string    `yaml:"material"` // elastic | snow | liquid
	Color    string    `yaml:"color"`    // RRGGBB hex, optional leading '#'
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsEvery int `yaml:"stats_every"` // frames between stats records
	PerfWindow int `yaml:"perf_window"` // frames averaged by the perf collector
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	StepsPerFrame int     // internal steps per visual frame
	DT32          float32 // Physics.DT as float32
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if
// path is empty. Must be called before Cfg().
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
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()

	return cfg, nil
}

// validate rejects configurations the step function cannot run with.
func (c *Config) validate() error {
	if c.Physics.GridRes < 3 {
		return fmt.Errorf("physics.grid_res must be at least 3, got %d", c.Physics.GridRes)
	}
	if c.Physics.DT <= 0 {
		return fmt.Errorf("physics.dt must be positive, got %g", c.Physics.DT)
	}
	if c.Physics.FrameDT < c.Physics.DT {
		return fmt.Errorf("physics.frame_dt (%g) must not be smaller than physics.dt (%g)",
			c.Physics.FrameDT, c.Physics.DT)
	}
	for i, cl := range c.Scene.Clusters {
		if len(cl.Center) != 2 {
			return fmt.Errorf("scene.clusters[%d].center must have 2 elements, got %d", i, len(cl.Center))
		}
		if cl.Count <= 0 {
			return fmt.Errorf("scene.clusters[%d].count must be positive, got %d", i, cl.Count)
		}
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.DT32 = float32(c.Physics.DT)

	// Frame cadence in internal steps
	steps := int(c.Physics.FrameDT/c.Physics.DT + 0.5)
	if steps < 1 {
		steps = 1
	}
	c.Derived.StepsPerFrame = steps
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
