package terrain

import (
	"fmt"
	"strconv"
)

// Generator names the initial height field algorithm.
type Generator string

const (
	GeneratorContinents Generator = "continents"
	GeneratorNoise      Generator = "noise"
)

// Config holds everything needed to create a World. Changing any field other
// than the erosion parameters or the view requires a new World.
type Config struct {
	Width  int
	Height int

	Continents int
	WalkLength int
	WalkSeed   uint64

	ErosionRadius int

	NoiseSeed    int64
	NoiseScale   float64
	NoiseOctaves int

	Generator Generator
	View      View

	Erosion ErosionParams
}

// DefaultConfig returns the standard configuration.
func DefaultConfig() Config {
	return Config{
		Width:         256,
		Height:        256,
		Continents:    10,
		WalkLength:    6000,
		WalkSeed:      DefaultWalkSeed,
		ErosionRadius: DefaultBrushRadius,
		NoiseSeed:     DefaultNoiseSeed,
		NoiseScale:    DefaultNoiseScale,
		NoiseOctaves:  DefaultNoiseOctaves,
		Generator:     GeneratorContinents,
		View:          ViewBiomes,
		Erosion:       DefaultErosionParams(),
	}
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	switch {
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("grid %dx%d: %w", c.Width, c.Height, ErrInvalidSize)
	case c.ErosionRadius <= 0:
		return fmt.Errorf("erosion radius %d: %w", c.ErosionRadius, ErrInvalidSize)
	case c.Continents < 0:
		return fmt.Errorf("continent count %d must not be negative", c.Continents)
	case c.WalkLength < 0:
		return fmt.Errorf("walk length %d must not be negative", c.WalkLength)
	case c.Generator != GeneratorContinents && c.Generator != GeneratorNoise:
		return fmt.Errorf("unknown generator %q", c.Generator)
	}
	return c.Erosion.Validate()
}

// FromMap overlays flag-style key/value pairs on base. Unparseable or out of
// range values are ignored; Validate still has the final word on the result.
func FromMap(base Config, cfg map[string]string) Config {
	c := base
	positive := func(key string, dst *int) {
		if v, ok := cfg[key]; ok {
			if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
				*dst = parsed
			}
		}
	}
	nonNegative := func(key string, dst *int) {
		if v, ok := cfg[key]; ok {
			if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
				*dst = parsed
			}
		}
	}
	positive("w", &c.Width)
	positive("h", &c.Height)
	nonNegative("continents", &c.Continents)
	nonNegative("walk_length", &c.WalkLength)
	positive("radius", &c.ErosionRadius)
	positive("octaves", &c.NoiseOctaves)
	nonNegative("droplets", &c.Erosion.Droplets)
	positive("max_lifetime", &c.Erosion.MaxLifetime)
	unit := func(key string, dst *float64) {
		if v, ok := cfg[key]; ok {
			if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed >= 0 && parsed <= 1 {
				*dst = parsed
			}
		}
	}
	unit("inertia", &c.Erosion.Inertia)
	unit("erode_speed", &c.Erosion.ErodeSpeed)
	unit("deposit_speed", &c.Erosion.DepositSpeed)
	unit("evaporate_speed", &c.Erosion.EvaporateSpeed)
	if v, ok := cfg["walk_seed"]; ok {
		if parsed, err := strconv.ParseUint(v, 10, 64); err == nil {
			c.WalkSeed = parsed
		}
	}
	if v, ok := cfg["seed"]; ok {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.NoiseSeed = parsed
		}
	}
	if v, ok := cfg["noise_scale"]; ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed > 0 {
			c.NoiseScale = parsed
		}
	}
	if v, ok := cfg["generator"]; ok {
		switch g := Generator(v); g {
		case GeneratorContinents, GeneratorNoise:
			c.Generator = g
		}
	}
	if v, ok := cfg["view"]; ok {
		if parsed, err := ParseView(v); err == nil {
			c.View = parsed
		}
	}
	return c
}
