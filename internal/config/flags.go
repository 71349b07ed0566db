package config

import "flag"

// Flags are the command-line overrides. Only flags given explicitly on the
// command line replace file values.
type Flags struct {
	ConfigPath string
	Debug      bool

	Width     int
	Height    int
	Seed      int64
	Generator string
	View      string

	Workers  int
	UPS      int
	RunUntil uint64
	Addr     string
	Scale    int
	LogFile  string

	fs *flag.FlagSet
}

// Bind registers the flags on fs.
func (f *Flags) Bind(fs *flag.FlagSet) {
	f.fs = fs
	fs.StringVar(&f.ConfigPath, "config", "", "path to config file")
	fs.BoolVar(&f.Debug, "debug", false, "enable debug logging")
	fs.IntVar(&f.Width, "width", 0, "grid width")
	fs.IntVar(&f.Height, "height", 0, "grid height")
	fs.Int64Var(&f.Seed, "seed", 0, "noise seed")
	fs.StringVar(&f.Generator, "generator", "", "initial terrain: continents or noise")
	fs.StringVar(&f.View, "view", "", "display mode: height, height_colors or biomes")
	fs.IntVar(&f.Workers, "workers", 0, "compute device workers (0 = all CPUs)")
	fs.IntVar(&f.UPS, "ups", 0, "erosion ticks per second (0 = unlimited)")
	fs.Uint64Var(&f.RunUntil, "until", 0, "stop after this tick (0 = never)")
	fs.StringVar(&f.Addr, "addr", "", "stream listen address")
	fs.IntVar(&f.Scale, "scale", 0, "pixel scale multiplier")
	fs.StringVar(&f.LogFile, "log-file", "", "rotating log file path")
}

// Apply copies explicitly set flags into cfg.
func (f *Flags) Apply(cfg *Config) {
	if f.fs == nil {
		return
	}
	f.fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "debug":
			if f.Debug {
				cfg.Logging.Level = "debug"
			}
		case "width":
			cfg.Terrain.Width = f.Width
		case "height":
			cfg.Terrain.Height = f.Height
		case "seed":
			cfg.Terrain.NoiseSeed = f.Seed
		case "generator":
			cfg.Terrain.Generator = f.Generator
		case "view":
			cfg.Terrain.View = f.View
		case "workers":
			cfg.Device.Workers = f.Workers
		case "ups":
			cfg.Runner.UPS = f.UPS
		case "until":
			cfg.Runner.RunUntil = f.RunUntil
		case "addr":
			cfg.Stream.Addr = f.Addr
		case "scale":
			cfg.Viewer.Scale = f.Scale
		case "log-file":
			cfg.Logging.LogFile = f.LogFile
		}
	})
}
