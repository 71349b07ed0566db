//go:build ebiten

package ui

import (
	"image/color"
	"math"

	"terrasim/internal/core"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font/basicfont"
)

type landProvider interface {
	Land() []bool
}

type overlapProvider interface {
	Overlap() []int32
}

type heightProvider interface {
	Heights() []int32
}

// Overlay draws optional debugging visuals on top of the terrain.
type Overlay struct {
	sim         core.Sim
	scale       int
	showLand    bool
	showOverlap bool
	showRelief  bool
	showStatus  bool
	status      []string

	maskImg *ebiten.Image
	maskBuf []byte
	mask    []float32

	reliefImg *ebiten.Image
	reliefBuf []byte
}

// NewOverlay constructs a new overlay instance.
func NewOverlay(sim core.Sim, scale int) *Overlay {
	return &Overlay{sim: sim, scale: max(scale, 1), showStatus: true}
}

// SetStatus replaces the text lines drawn in the top-left corner.
func (o *Overlay) SetStatus(lines ...string) { o.status = lines }

// Update toggles overlay layers: 1 land mask, 2 continent overlap, 3 relief,
// H the status text.
func (o *Overlay) Update() {
	if inpututil.IsKeyJustPressed(ebiten.KeyDigit1) {
		o.showLand = !o.showLand
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyDigit2) {
		o.showOverlap = !o.showOverlap
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyDigit3) {
		o.showRelief = !o.showRelief
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyH) {
		o.showStatus = !o.showStatus
	}
}

// Draw renders the enabled layers onto screen.
func (o *Overlay) Draw(screen *ebiten.Image) {
	size := o.sim.Size()
	total := size.Cells()
	if total <= 0 {
		return
	}

	if o.showRelief {
		if provider, ok := o.sim.(heightProvider); ok {
			o.drawRelief(screen, provider.Heights(), size)
		}
	}

	if o.showLand || o.showOverlap {
		if o.maskImg == nil || o.maskImg.Bounds().Dx() != size.W || o.maskImg.Bounds().Dy() != size.H {
			o.maskImg = ebiten.NewImage(size.W, size.H)
			o.maskBuf = make([]byte, 4*total)
			o.mask = make([]float32, total)
		}
	}
	if o.showLand {
		if provider, ok := o.sim.(landProvider); ok {
			if land := provider.Land(); len(land) == total {
				for i, v := range land {
					o.mask[i] = 0
					if v {
						o.mask[i] = 1
					}
				}
				o.drawMask(screen, o.mask, color.RGBA{R: 255, G: 120, B: 40})
			}
		}
	}
	if o.showOverlap {
		if provider, ok := o.sim.(overlapProvider); ok {
			if overlap := provider.Overlap(); len(overlap) == total {
				peak := int32(1)
				for _, v := range overlap {
					peak = max(peak, v)
				}
				norm := math.Log(float64(peak) + 1)
				for i, v := range overlap {
					o.mask[i] = float32(math.Log(float64(v)+1) / norm)
				}
				o.drawMask(screen, o.mask, color.RGBA{R: 64, G: 164, B: 223})
			}
		}
	}

	if o.showStatus && len(o.status) > 0 {
		o.drawStatus(screen)
	}
}

func (o *Overlay) drawStatus(screen *ebiten.Image) {
	face := basicfont.Face7x13
	y := 16
	for _, line := range o.status {
		text.Draw(screen, line, face, 7, y+1, color.Black)
		text.Draw(screen, line, face, 6, y, color.RGBA{R: 240, G: 240, B: 240, A: 255})
		y += 15
	}
}

func (o *Overlay) drawMask(screen *ebiten.Image, mask []float32, tint color.RGBA) {
	const (
		maxAlpha      = 140.0
		glowBase      = 0.35
		glowRange     = 0.65
		intensityBias = 0.75
	)

	for i, v := range mask {
		base := i * 4
		intensity := clamp01(float64(v))
		if intensity == 0 {
			o.maskBuf[base+0] = 0
			o.maskBuf[base+1] = 0
			o.maskBuf[base+2] = 0
			o.maskBuf[base+3] = 0
			continue
		}

		alpha := uint8(math.Round(maxAlpha * math.Pow(intensity, intensityBias)))
		glow := glowBase + glowRange*math.Sqrt(intensity)

		o.maskBuf[base+0] = scaleColorComponent(tint.R, glow)
		o.maskBuf[base+1] = scaleColorComponent(tint.G, glow)
		o.maskBuf[base+2] = scaleColorComponent(tint.B, glow)
		o.maskBuf[base+3] = alpha
	}
	o.maskImg.WritePixels(o.maskBuf)
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(o.scale), float64(o.scale))
	screen.DrawImage(o.maskImg, op)
}

// drawRelief tints the terrain by normalized height and fades flat areas so
// steep erosion channels stand out.
func (o *Overlay) drawRelief(screen *ebiten.Image, field []int32, size core.Size) {
	total := size.Cells()
	if len(field) != total || total == 0 {
		return
	}
	if o.reliefImg == nil || o.reliefImg.Bounds().Dx() != size.W || o.reliefImg.Bounds().Dy() != size.H {
		o.reliefImg = ebiten.NewImage(size.W, size.H)
		o.reliefBuf = make([]byte, 4*total)
	}

	minVal, maxVal := field[0], field[0]
	for _, v := range field {
		minVal = min(minVal, v)
		maxVal = max(maxVal, v)
	}
	rangeVal := float64(maxVal) - float64(minVal)
	if rangeVal == 0 {
		rangeVal = 1
	}

	for y := 0; y < size.H; y++ {
		for x := 0; x < size.W; x++ {
			idx := y*size.W + x
			base := idx * 4
			col := elevationColor((float64(field[idx]) - float64(minVal)) / rangeVal)

			var maxDiff float64
			for _, n := range [4][2]int{{x - 1, y}, {x + 1, y}, {x, y - 1}, {x, y + 1}} {
				if !size.Contains(n[0], n[1]) {
					continue
				}
				maxDiff = max(maxDiff, math.Abs(float64(field[idx])-float64(field[size.Index(n[0], n[1])])))
			}
			slope := clamp01(maxDiff / rangeVal * 8)
			alpha := float64(col.A) * (0.55 + 0.45*slope)

			o.reliefBuf[base+0] = col.R
			o.reliefBuf[base+1] = col.G
			o.reliefBuf[base+2] = col.B
			o.reliefBuf[base+3] = uint8(math.Round(min(max(alpha, 0), 255)))
		}
	}

	o.reliefImg.WritePixels(o.reliefBuf)
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(o.scale), float64(o.scale))
	screen.DrawImage(o.reliefImg, op)
}

func clamp01(v float64) float64 {
	return min(max(v, 0), 1)
}

func scaleColorComponent(value uint8, factor float64) uint8 {
	return uint8(min(max(math.Round(float64(value)*factor), 0), 255))
}

func elevationColor(t float64) color.RGBA {
	t = clamp01(t)
	stops := []struct {
		t   float64
		col color.RGBA
	}{
		{0.0, color.RGBA{R: 40, G: 60, B: 120, A: 150}},
		{0.25, color.RGBA{R: 70, G: 105, B: 160, A: 165}},
		{0.5, color.RGBA{R: 90, G: 150, B: 100, A: 185}},
		{0.75, color.RGBA{R: 190, G: 160, B: 80, A: 205}},
		{1.0, color.RGBA{R: 240, G: 235, B: 215, A: 215}},
	}
	for i := 1; i < len(stops); i++ {
		curr := stops[i]
		if t <= curr.t {
			prev := stops[i-1]
			local := (t - prev.t) / (curr.t - prev.t)
			return lerpRGBA(prev.col, curr.col, clamp01(local))
		}
	}
	return stops[len(stops)-1].col
}

func lerpRGBA(a, b color.RGBA, t float64) color.RGBA {
	return color.RGBA{
		R: lerpComponent(a.R, b.R, t),
		G: lerpComponent(a.G, b.G, t),
		B: lerpComponent(a.B, b.B, t),
		A: lerpComponent(a.A, b.A, t),
	}
}

func lerpComponent(a, b uint8, t float64) uint8 {
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*t))
}
