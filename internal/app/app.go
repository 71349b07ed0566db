//go:build ebiten

package app

import (
	"fmt"
	"image/color"
	"time"

	"go.uber.org/zap"

	"terrasim/internal/core"
	"terrasim/internal/logger"
	"terrasim/internal/render"
	"terrasim/internal/terrain"
	"terrasim/internal/ui"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// Game adapts a terrain world to the ebiten.Game interface.
type Game struct {
	world   World
	painter *render.Painter
	overlay *ui.Overlay
	hud     *ui.HUD
	tps     *core.TickCounter
	log     *zap.Logger

	shading  render.Shading
	scale    int
	hudWidth int
	runUntil uint64
	paused   bool
	tickOnce bool
	seed     int64
}

// New constructs a Game for the provided world.
func New(world World, opts Options) *Game {
	opts = opts.normalized()
	size := world.Size()
	return &Game{
		world:    world,
		painter:  render.NewPainter(size.W, size.H),
		overlay:  ui.NewOverlay(world, opts.Scale),
		hud:      ui.NewHUD(world, opts.HUDWidth),
		tps:      core.NewTickCounter(4),
		log:      logger.Named("app"),
		shading:  render.DefaultShading,
		scale:    opts.Scale,
		hudWidth: opts.HUDWidth,
		runUntil: opts.RunUntil,
		paused:   opts.Paused,
		seed:     opts.Seed,
	}
}

// Reset regenerates the terrain with the provided seed.
func (g *Game) Reset(seed int64) {
	g.seed = seed
	g.world.Reset(seed)
	g.tickOnce = false
	g.tps.Reset()
	g.log.Info("terrain reset", zap.Int64("seed", seed))
}

// Update handles per-frame input and advances the erosion.
func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyQ) || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.paused = !g.paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		g.paused = false
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyN) {
		g.tickOnce = true
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.Reset(g.seed)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyS) {
		g.Reset(time.Now().UnixNano())
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyV) {
		g.world.SetView(g.world.View().Next())
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyL) {
		g.shading.Enabled = !g.shading.Enabled
	}

	g.overlay.Update()
	g.hud.Update(g.viewWidth())

	if g.shouldStep() {
		g.world.Step()
		g.tps.Tick()
		g.tickOnce = false
		if g.runUntil != 0 && g.world.Tick() >= g.runUntil && !g.paused {
			g.paused = true
			g.log.Info("reached target tick", zap.Uint64("tick", g.world.Tick()))
		}
	} else {
		g.tps.Idle()
	}

	state := "running"
	if g.paused {
		state = "paused"
	}
	g.overlay.SetStatus(
		fmt.Sprintf("tick %d  %s", g.world.Tick(), state),
		fmt.Sprintf("tps %d  view %s", g.tps.TPS(), g.world.View()),
	)
	return nil
}

func (g *Game) shouldStep() bool {
	if g.tickOnce {
		return true
	}
	if g.paused {
		return false
	}
	return g.runUntil == 0 || g.world.Tick() < g.runUntil
}

// Draw renders the terrain, the overlay and the HUD.
func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(color.Black)
	var heights []int32
	if g.shading.Enabled {
		heights = g.world.Heights()
	}
	g.painter.Blit(screen, g.world.Cells(), g.world.Palette(), heights, g.shading, g.scale)
	g.overlay.Draw(screen)
	g.hud.Draw(screen, g.viewWidth(), g.scale)
}

func (g *Game) viewWidth() int { return g.world.Size().W * g.scale }

// Layout returns the logical screen size.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	s := g.world.Size()
	return s.W*g.scale + g.hudWidth, s.H * g.scale
}

var _ World = (*terrain.World)(nil)
