//go:build ebiten

package main

import (
	"errors"
	"flag"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"terrasim/internal/app"
	"terrasim/internal/config"
	"terrasim/internal/gpu"
	"terrasim/internal/logger"
	"terrasim/internal/terrain"

	"github.com/hajimehoshi/ebiten/v2"
)

func main() {
	var flags config.Flags
	flags.Bind(flag.CommandLine)
	flag.Parse()

	cfg, err := config.Load(&flags)
	if err != nil {
		logger.Init("info", "")
		logger.Fatal("invalid configuration", zap.Error(err))
	}
	logger.InitWithFileConfig(cfg.Logging.Level, cfg.LogFile(), cfg.Logging.Console)
	defer logger.Sync()

	settings, err := cfg.TerrainSettings()
	if err != nil {
		logger.Fatal("invalid terrain settings", zap.Error(err))
	}
	dev := gpu.NewDevice(gpu.WithWorkers(cfg.Device.Workers), gpu.WithLogger(logger.Named("gpu")))
	logger.Info("compute device ready", zap.Int("workers", dev.Workers()))
	world, err := terrain.New(dev, settings)
	if err != nil {
		logger.Fatal("terrain generation failed", zap.Error(err))
	}

	opts := app.Options{
		Scale:    cfg.Viewer.Scale,
		HUDWidth: cfg.Viewer.HUDWidth,
		RunUntil: cfg.Runner.RunUntil,
		Paused:   !cfg.Runner.StartRunning,
		Seed:     settings.NoiseSeed,
	}
	game := app.New(world, opts)

	ebiten.SetWindowTitle("terrasim - " + string(settings.Generator))
	ebiten.SetTPS(cfg.Viewer.TPS)
	ebiten.SetWindowSize(opts.WindowSize(world.Size()))

	runErr := ebiten.RunGame(game)
	if err := multierr.Combine(world.Close(), dev.Close()); err != nil {
		logger.Warn("device shutdown", zap.Error(err))
	}
	if runErr != nil && !errors.Is(runErr, ebiten.Termination) {
		logger.Fatal("viewer failed", zap.Error(runErr))
	}
}
