// Package config loads terrasim settings from YAML files and command-line
// flags.
package config

import (
	"fmt"
	"time"

	"go.uber.org/multierr"

	"terrasim/internal/logger"
	"terrasim/internal/terrain"
)

// Config holds all settings.
type Config struct {
	Terrain TerrainConfig         `yaml:"terrain"`
	Erosion terrain.ErosionParams `yaml:"erosion"`
	Device  DeviceConfig          `yaml:"device"`
	Viewer  ViewerConfig          `yaml:"viewer"`
	Runner  RunnerConfig          `yaml:"runner"`
	Stream  StreamConfig          `yaml:"stream"`
	Logging LoggingConfig         `yaml:"logging"`
}

// TerrainConfig holds the terrain creation settings.
type TerrainConfig struct {
	Width           int     `yaml:"width"`
	Height          int     `yaml:"height"`
	ContinentCount  int     `yaml:"continent_count"`
	WalkLengthBound int     `yaml:"walk_length_bound"`
	WalkSeed        uint64  `yaml:"walk_seed"`
	ErosionRadius   int     `yaml:"erosion_radius"`
	NoiseSeed       int64   `yaml:"noise_seed"`
	NoiseScale      float64 `yaml:"noise_scale"`
	NoiseOctaves    int     `yaml:"noise_octaves"`
	Generator       string  `yaml:"generator"` // continents or noise
	View            string  `yaml:"view"`      // height, height_colors or biomes
}

// DeviceConfig holds compute device settings.
type DeviceConfig struct {
	Workers int `yaml:"workers"` // 0 uses every CPU
}

// ViewerConfig holds window settings.
type ViewerConfig struct {
	Scale    int `yaml:"scale"`
	TPS      int `yaml:"tps"`
	HUDWidth int `yaml:"hud_width"`
}

// RunnerConfig holds tick loop settings.
type RunnerConfig struct {
	UPS            int           `yaml:"ups"` // 0 is unlimited
	StartRunning   bool          `yaml:"start_running"`
	RunUntil       uint64        `yaml:"run_until"` // 0 runs forever
	StatusInterval time.Duration `yaml:"status_interval"`
}

// StreamConfig holds websocket stream settings.
type StreamConfig struct {
	Addr       string `yaml:"addr"`
	FrameEvery int    `yaml:"frame_every"`
	MaxClients int    `yaml:"max_clients"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	LogFile    string `yaml:"log_file"`
	Console    bool   `yaml:"console"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// Default returns a Config with the standard values.
func Default() *Config {
	t := terrain.DefaultConfig()
	file := logger.DefaultFileConfig("")
	return &Config{
		Terrain: TerrainConfig{
			Width:           t.Width,
			Height:          t.Height,
			ContinentCount:  t.Continents,
			WalkLengthBound: t.WalkLength,
			WalkSeed:        t.WalkSeed,
			ErosionRadius:   t.ErosionRadius,
			NoiseSeed:       t.NoiseSeed,
			NoiseScale:      t.NoiseScale,
			NoiseOctaves:    t.NoiseOctaves,
			Generator:       string(t.Generator),
			View:            "biomes",
		},
		Erosion: t.Erosion,
		Viewer: ViewerConfig{
			Scale:    3,
			TPS:      60,
			HUDWidth: 240,
		},
		Runner: RunnerConfig{
			UPS:            30,
			StartRunning:   true,
			StatusInterval: 5 * time.Second,
		},
		Stream: StreamConfig{
			Addr:       "127.0.0.1:8750",
			FrameEvery: 1,
			MaxClients: 16,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Console:    true,
			MaxSizeMB:  file.MaxSizeMB,
			MaxBackups: file.MaxBackups,
			MaxAgeDays: file.MaxAgeDays,
		},
	}
}

// TerrainSettings converts the terrain and erosion sections into the
// configuration terrain.New expects.
func (c *Config) TerrainSettings() (terrain.Config, error) {
	view, err := terrain.ParseView(c.Terrain.View)
	if err != nil {
		return terrain.Config{}, err
	}
	return terrain.Config{
		Width:         c.Terrain.Width,
		Height:        c.Terrain.Height,
		Continents:    c.Terrain.ContinentCount,
		WalkLength:    c.Terrain.WalkLengthBound,
		WalkSeed:      c.Terrain.WalkSeed,
		ErosionRadius: c.Terrain.ErosionRadius,
		NoiseSeed:     c.Terrain.NoiseSeed,
		NoiseScale:    c.Terrain.NoiseScale,
		NoiseOctaves:  c.Terrain.NoiseOctaves,
		Generator:     terrain.Generator(c.Terrain.Generator),
		View:          view,
		Erosion:       c.Erosion,
	}, nil
}

// LogFile returns the rotating file settings, or an empty path when file
// logging is off.
func (c *Config) LogFile() logger.FileConfig {
	f := logger.DefaultFileConfig(c.Logging.LogFile)
	if c.Logging.MaxSizeMB > 0 {
		f.MaxSizeMB = c.Logging.MaxSizeMB
	}
	if c.Logging.MaxBackups > 0 {
		f.MaxBackups = c.Logging.MaxBackups
	}
	if c.Logging.MaxAgeDays > 0 {
		f.MaxAgeDays = c.Logging.MaxAgeDays
	}
	return f
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var err error
	t, viewErr := c.TerrainSettings()
	if viewErr != nil {
		err = multierr.Append(err, fmt.Errorf("terrain.view: %w", viewErr))
	} else if terr := t.Validate(); terr != nil {
		err = multierr.Append(err, fmt.Errorf("terrain: %w", terr))
	}
	if r := c.Terrain.ErosionRadius; r >= c.Terrain.Width || r >= c.Terrain.Height {
		err = multierr.Append(err, fmt.Errorf("terrain.erosion_radius %d must be smaller than the %dx%d grid", r, c.Terrain.Width, c.Terrain.Height))
	}
	if c.Device.Workers < 0 {
		err = multierr.Append(err, fmt.Errorf("device.workers %d must not be negative", c.Device.Workers))
	}
	if c.Viewer.Scale <= 0 {
		err = multierr.Append(err, fmt.Errorf("viewer.scale %d must be positive", c.Viewer.Scale))
	}
	if c.Viewer.TPS <= 0 {
		err = multierr.Append(err, fmt.Errorf("viewer.tps %d must be positive", c.Viewer.TPS))
	}
	if c.Viewer.HUDWidth < 0 {
		err = multierr.Append(err, fmt.Errorf("viewer.hud_width %d must not be negative", c.Viewer.HUDWidth))
	}
	if c.Runner.UPS < 0 {
		err = multierr.Append(err, fmt.Errorf("runner.ups %d must not be negative", c.Runner.UPS))
	}
	if c.Stream.FrameEvery <= 0 {
		err = multierr.Append(err, fmt.Errorf("stream.frame_every %d must be positive", c.Stream.FrameEvery))
	}
	if c.Stream.MaxClients < 0 {
		err = multierr.Append(err, fmt.Errorf("stream.max_clients %d must not be negative", c.Stream.MaxClients))
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error", "":
	default:
		err = multierr.Append(err, fmt.Errorf("logging.level %q is not a level", c.Logging.Level))
	}
	return err
}
