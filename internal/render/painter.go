//go:build ebiten

package render

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
)

// Shading controls the hillshade pass of a Painter.
type Shading struct {
	Enabled bool
	Relief  float64
	Ambient float64
}

// DefaultShading suits heights stored with six fixed-point decimals.
var DefaultShading = Shading{Enabled: true, Relief: 4e-6, Ambient: 0.55}

// Painter updates a single RGBA image from palette-indexed cell data.
type Painter struct {
	w, h int
	img  *ebiten.Image
	buf  []byte
}

// NewPainter allocates a painter for a grid of size w*h.
func NewPainter(w, h int) *Painter {
	return &Painter{w: w, h: h, img: ebiten.NewImage(w, h), buf: make([]byte, 4*w*h)}
}

// Blit colors cells through palette, optionally shades them with heights and
// draws the result scaled onto dst.
func (p *Painter) Blit(dst *ebiten.Image, cells []uint8, palette []color.RGBA, heights []int32, shading Shading, scale int) {
	if len(cells) != p.w*p.h {
		return
	}
	fillPaletteRGBA(p.buf, cells, palette)
	if shading.Enabled && heights != nil {
		shadeRGBA(p.buf, heights, p.w, p.h, shading.Relief, shading.Ambient)
	}
	p.img.WritePixels(p.buf)

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(scale), float64(scale))
	dst.DrawImage(p.img, op)
}

// Size returns the dimensions of the underlying image.
func (p *Painter) Size() (int, int) { return p.w, p.h }
