// Package app hosts the interactive terrain viewer.
package app

import (
	"image/color"

	"terrasim/internal/core"
	"terrasim/internal/terrain"
)

// World is what the viewer needs from a terrain simulation.
type World interface {
	core.Sim
	Tick() uint64
	View() terrain.View
	SetView(terrain.View)
	Palette() []color.RGBA
	Heights() []int32
}

// Options configures a Game.
type Options struct {
	Scale    int
	HUDWidth int
	RunUntil uint64
	Paused   bool
	Seed     int64
}

func (o Options) normalized() Options {
	o.Scale = max(o.Scale, 1)
	o.HUDWidth = max(o.HUDWidth, 0)
	return o
}

// WindowSize is the initial window size for a world of size s.
func (o Options) WindowSize(s core.Size) (int, int) {
	o = o.normalized()
	return s.W*o.Scale + o.HUDWidth, s.H * o.Scale
}
