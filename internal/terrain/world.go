package terrain

import (
	"fmt"
	"image/color"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"terrasim/internal/core"
	"terrasim/internal/gpu"
	"terrasim/internal/logger"
)

// World owns a device-resident height field and erodes it one iteration per
// tick. A World is not safe for concurrent use; one goroutine drives it.
type World struct {
	cfg  Config
	dev  *gpu.Device
	w, h int

	field   *gpu.PingPong[int32]
	erosion *Erosion

	land    []bool
	overlap []int32
	tick    uint64

	view         View
	host         []int32
	display      []uint8
	displayValid bool

	closed bool
	log    *zap.Logger
}

// New allocates the height field on dev, generates the initial terrain and
// prepares erosion.
func New(dev *gpu.Device, cfg Config) (*World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("terrain config: %w", err)
	}
	field, err := gpu.NewPingPong[int32](dev, "terrain/heights", cfg.Width, cfg.Height)
	if err != nil {
		return nil, fmt.Errorf("height field: %w", err)
	}
	erosion, err := NewErosion(dev, cfg.Width, cfg.Height, cfg.ErosionRadius, cfg.Erosion)
	if err != nil {
		return nil, multierr.Append(err, field.Release())
	}
	w := &World{
		cfg:     cfg,
		dev:     dev,
		w:       cfg.Width,
		h:       cfg.Height,
		field:   field,
		erosion: erosion,
		view:    cfg.View,
		display: make([]uint8, cfg.Width*cfg.Height),
		log:     logger.Named("terrain"),
	}
	if err := w.generate(cfg.NoiseSeed); err != nil {
		return nil, multierr.Append(err, w.Close())
	}
	return w, nil
}

// generate builds the terrain for seed and makes it current. On error the
// world keeps its previous terrain and seed.
func (w *World) generate(seed int64) error {
	noise := NewFractalNoise(seed, w.cfg.NoiseScale, w.cfg.NoiseOctaves)
	var (
		heights []int32
		land    []bool
		overlap []int32
	)
	switch w.cfg.Generator {
	case GeneratorNoise:
		var err error
		if heights, err = GenerateNoise(w.w, w.h, noise); err != nil {
			return err
		}
		land = make([]bool, len(heights))
		for i, v := range heights {
			land[i] = FromFixed(v) > SeaLevel
		}
	default:
		smoother, err := NewShapeSmoother(w.dev, w.w, w.h)
		if err != nil {
			return err
		}
		c, err := GenerateContinents(ContinentParams{
			Width:      w.w,
			Height:     w.h,
			Continents: w.cfg.Continents,
			WalkLength: w.cfg.WalkLength,
			WalkSeed:   w.cfg.WalkSeed,
		}, smoother, noise)
		if err = multierr.Append(err, smoother.Release()); err != nil {
			return err
		}
		heights, land, overlap = c.Heights, c.Land, c.Overlap
	}
	if err := w.field.Front().Upload(heights); err != nil {
		return err
	}
	w.cfg.NoiseSeed = seed
	w.land, w.overlap = land, overlap
	w.tick = 0
	w.displayValid = false
	stats := HeightStats(heights)
	w.log.Info("generated terrain",
		zap.String("generator", string(w.cfg.Generator)),
		zap.Int("w", w.w), zap.Int("h", w.h),
		zap.Int64("noise_seed", seed),
		zap.Float64("land_fraction", stats.LandFraction),
		zap.Float64("std_dev", stats.StdDev))
	return nil
}

// Advance runs one erosion iteration seeded with the current tick.
func (w *World) Advance() {
	if err := w.erosion.Erode(w.field, 1, int32(w.tick)); err != nil {
		w.log.Error("erosion failed", zap.Uint64("tick", w.tick), zap.Error(err))
		return
	}
	w.tick++
	w.displayValid = false
}

// Step advances the world by one tick.
func (w *World) Step() { w.Advance() }

// Reset regenerates the terrain with a new noise seed and rewinds the tick.
// A zero seed keeps the configured one. If generation fails the current
// terrain, tick and seed are left as they were.
func (w *World) Reset(seed int64) {
	if seed == 0 {
		seed = w.cfg.NoiseSeed
	}
	if err := w.generate(seed); err != nil {
		w.log.Error("regenerate failed", zap.Int64("seed", seed), zap.Error(err))
	}
}

// Name returns the simulation identifier.
func (w *World) Name() string { return "terrain" }

// Size reports the grid dimensions.
func (w *World) Size() core.Size { return core.Size{W: w.w, H: w.h} }

// Tick is the number of erosion iterations applied since generation.
func (w *World) Tick() uint64 { return w.tick }

// Config returns the configuration the world runs with.
func (w *World) Config() Config { return w.cfg }

// HeightField is the current device height texture. It changes identity
// after every Advance.
func (w *World) HeightField() *gpu.Texture[int32] { return w.field.Front() }

// Heights downloads a host copy of the current height field.
func (w *World) Heights() []int32 { return w.field.Front().Download(nil) }

// Land is the smoothed land mask of the initial terrain.
func (w *World) Land() []bool { return w.land }

// Overlap is the per-cell continent walk count, nil for noise terrain.
func (w *World) Overlap() []int32 { return w.overlap }

// Stats summarizes the current height field.
func (w *World) Stats() Stats {
	w.host = w.field.Front().Download(w.host)
	return HeightStats(w.host)
}

// View returns the active display mode.
func (w *World) View() View { return w.view }

// SetView changes how Cells maps heights.
func (w *World) SetView(v View) {
	if v != w.view {
		w.view = v
		w.displayValid = false
	}
}

// Palette returns the colors for the current view.
func (w *World) Palette() []color.RGBA { return Palette(w.view) }

// Cells returns one palette index per cell for the current view.
func (w *World) Cells() []uint8 {
	if !w.displayValid {
		w.host = w.field.Front().Download(w.host)
		for i, v := range w.host {
			w.display[i] = displayCell(w.view, FromFixed(v))
		}
		w.displayValid = true
	}
	return w.display
}

// Close releases the device resources. It is safe to call more than once.
func (w *World) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return multierr.Combine(w.erosion.Release(), w.field.Release())
}
