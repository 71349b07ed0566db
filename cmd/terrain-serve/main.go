// Command terrain-serve runs the erosion headless and streams the height
// field to websocket clients.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"terrasim/internal/config"
	"terrasim/internal/core"
	"terrasim/internal/gpu"
	"terrasim/internal/logger"
	"terrasim/internal/runner"
	"terrasim/internal/stream"
	"terrasim/internal/terrain"
)

type statusPayload struct {
	Runner     runner.Status          `json:"runner"`
	Parameters core.ParameterSnapshot `json:"parameters"`
}

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

	if err := run(cfg); err != nil {
		logger.Fatal("terrain-serve failed", zap.Error(err))
	}
}

func run(cfg *config.Config) (err error) {
	settings, err := cfg.TerrainSettings()
	if err != nil {
		return err
	}
	dev := gpu.NewDevice(gpu.WithWorkers(cfg.Device.Workers), gpu.WithLogger(logger.Named("gpu")))
	logger.Info("compute device ready", zap.Int("workers", dev.Workers()))
	defer func() { err = multierr.Append(err, dev.Close()) }()

	world, err := terrain.New(dev, settings)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, world.Close()) }()

	var (
		mu     sync.RWMutex
		params = world.Parameters()
		hub    *stream.Hub
	)
	publish := func(tick uint64) {
		size := world.Size()
		hub.Publish(stream.Frame{W: size.W, H: size.H, Tick: tick, Heights: world.Heights()})
		snapshot := world.Parameters()
		mu.Lock()
		params = snapshot
		mu.Unlock()
	}

	frameEvery := uint64(cfg.Stream.FrameEvery)
	r := runner.New(world,
		runner.WithRunning(cfg.Runner.StartRunning),
		runner.WithUPS(cfg.Runner.UPS),
		runner.WithRunUntil(cfg.Runner.RunUntil),
		runner.WithOnTick(func(tick uint64) {
			if tick%frameEvery == 0 {
				publish(tick)
			}
		}),
	)
	hub = stream.NewHub(r,
		stream.WithMaxClients(cfg.Stream.MaxClients),
		stream.WithStatus(func() any {
			mu.RLock()
			defer mu.RUnlock()
			return statusPayload{Runner: r.Status(), Parameters: params}
		}),
	)
	publish(world.Tick())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{Addr: cfg.Stream.Addr, Handler: hub.Handler(), ReadHeaderTimeout: 5 * time.Second}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("streaming terrain", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		err := r.Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		reportStatus(ctx, r, cfg.Runner.StatusInterval)
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return multierr.Combine(hub.Close(), srv.Shutdown(shutdownCtx))
	})
	return g.Wait()
}

func reportStatus(ctx context.Context, r *runner.Runner, every time.Duration) {
	if every <= 0 {
		<-ctx.Done()
		return
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s := r.Status()
			logger.Info("status",
				zap.Bool("running", s.Running),
				zap.Uint64("tick", s.Tick),
				zap.Int("tps", s.TPS),
				zap.Int("ups", s.UPS))
		}
	}
}
