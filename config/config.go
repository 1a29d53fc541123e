// Package config provides configuration loading and access for the visualizer.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all visualizer configuration parameters.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	Particles ParticlesConfig `yaml:"particles"`
	Emitter   EmitterConfig   `yaml:"emitter"`
	Reactive  ReactiveConfig  `yaml:"reactive"`
	Noise     NoiseConfig     `yaml:"noise"`
	Audio     AudioConfig     `yaml:"audio"`
	Stream    StreamConfig    `yaml:"stream"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Scenes    []SceneConfig   `yaml:"scenes"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings for the interactive surface.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// ParticlesConfig holds particle pool parameters.
type ParticlesConfig struct {
	Count       int     `yaml:"count"`        // Pool size, must be a power of two
	TimeScale   float64 `yaml:"time_scale"`   // Multiplies frame delta before the 0.1 tick factor
	Friction    float64 `yaml:"friction"`     // Per-tick exponential velocity damping in [0,1)
	LinkWidth   float64 `yaml:"link_width"`   // Half-width of link ribbons in world units
	SpawnJitter float64 `yaml:"spawn_jitter"` // Radius of the unit-sphere jitter around the emitter
	SpawnSpeed  float64 `yaml:"spawn_speed"`  // Initial speed along the jitter direction
	FieldScale  float64 `yaml:"field_scale"`  // Position scale when sampling the turbulence field
}

// EmitterConfig holds the drifting emission point parameters.
type EmitterConfig struct {
	BaseRadius  float64 `yaml:"base_radius"`  // Orbit radius with silent audio
	BassRadius  float64 `yaml:"bass_radius"`  // Added orbit radius per unit of bass
	BaseAngular float64 `yaml:"base_angular"` // Orbit angular speed (rad/s) with silent audio
	MidAngular  float64 `yaml:"mid_angular"`  // Added angular speed per unit of mid
	Smoothing   float64 `yaml:"smoothing"`    // Exponential approach factor toward the orbit target
}

// ReactiveConfig holds the audio-to-simulation coupling coefficients.
// These seed the runtime settings registry; the UI can change them live.
type ReactiveConfig struct {
	BaseSpawnRate       float64 `yaml:"base_spawn_rate"`       // Particles spawned per tick with silent audio
	BassSpawnGain       float64 `yaml:"bass_spawn_gain"`       // Extra spawns per tick per unit of bass
	BaseTurbulence      float64 `yaml:"base_turbulence"`       // Turbulence amplitude with silent audio
	MidTurbulenceGain   float64 `yaml:"mid_turbulence_gain"`   // Extra amplitude per unit of mid
	MidFrequencyGain    float64 `yaml:"mid_frequency_gain"`    // Extra noise frequency per unit of mid
	BaseSize            float64 `yaml:"base_size"`             // Particle billboard size with silent audio
	HighSizeGain        float64 `yaml:"high_size_gain"`        // Extra size per unit of high
	HighColorGain       float64 `yaml:"high_color_gain"`       // Extra hue rotation speed per unit of high
	OverallLifetimeGain float64 `yaml:"overall_lifetime_gain"` // Lifetime shortening per unit of overall
}

// NoiseConfig holds turbulence field generation parameters.
type NoiseConfig struct {
	Seed        int64   `yaml:"seed"`         // Noise seed
	Octaves     int     `yaml:"octaves"`      // FBM octaves
	Lacunarity  float64 `yaml:"lacunarity"`   // Frequency multiplier per octave
	Gain        float64 `yaml:"gain"`         // Amplitude multiplier per octave
	GPU         bool    `yaml:"gpu"`          // Generate the field on the GPU with CPU readback
	TextureSize int     `yaml:"texture_size"` // Side of the GPU field texture
}

// AudioConfig holds the audio band boundary parameters.
type AudioConfig struct {
	Source  string  `yaml:"source"`  // "synth" or "silence" (capture is wired externally)
	Attack  float64 `yaml:"attack"`  // Envelope rise rate per second
	Release float64 `yaml:"release"` // Envelope fall rate per second
}

// StreamConfig holds frame streaming defaults.
type StreamConfig struct {
	Enabled    bool   `yaml:"enabled"`
	SenderName string `yaml:"sender_name"`
	Resolution string `yaml:"resolution"` // "720p" or "1080p"
	FrameSkip  int    `yaml:"frame_skip"` // Forward 1 of every frame_skip+1 paints
	WSURL      string `yaml:"ws_url"`     // Websocket receiver; empty = in-process sender
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow float64 `yaml:"stats_window"` // Window length in seconds
}

// SceneConfig defines a named particle scene preset.
type SceneConfig struct {
	Name          string  `yaml:"name"`
	Hue           float64 `yaml:"hue"`            // Base hue in degrees
	SpawnRate     float64 `yaml:"spawn_rate"`     // Overrides reactive.base_spawn_rate (0 = inherit)
	Turbulence    float64 `yaml:"turbulence"`     // Overrides reactive.base_turbulence (0 = inherit)
	EmitterRadius float64 `yaml:"emitter_radius"` // Overrides emitter.base_radius (0 = inherit)
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	SceneIndex map[string]int // name -> index for scene lookup
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

// validate rejects values the simulation cannot run with.
func (c *Config) validate() error {
	n := c.Particles.Count
	if n <= 0 || n&(n-1) != 0 {
		return fmt.Errorf("particles.count must be a power of two, got %d", n)
	}
	if c.Particles.Friction < 0 || c.Particles.Friction >= 1 {
		return fmt.Errorf("particles.friction must be in [0,1), got %v", c.Particles.Friction)
	}
	switch c.Stream.Resolution {
	case "720p", "1080p":
	default:
		return fmt.Errorf("stream.resolution must be 720p or 1080p, got %q", c.Stream.Resolution)
	}
	if c.Stream.FrameSkip < 0 {
		return fmt.Errorf("stream.frame_skip must be >= 0, got %d", c.Stream.FrameSkip)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	// Synthesize default scenes if none specified
	if len(c.Scenes) == 0 {
		c.Scenes = []SceneConfig{
			{Name: "comet", Hue: 210},
			{Name: "ember", Hue: 18, Turbulence: 0.35},
		}
	}

	c.Derived.SceneIndex = make(map[string]int, len(c.Scenes))
	for i, s := range c.Scenes {
		c.Derived.SceneIndex[s.Name] = i
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
