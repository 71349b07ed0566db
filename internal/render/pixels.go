// Package render turns simulation cells into RGBA pixels.
package render

import (
	"image/color"
	"math"
)

// fillPaletteRGBA converts cell values into RGBA pixels using a palette. When
// the palette is empty the buffer is cleared to transparent black. Values past
// the end of the palette use its last color.
func fillPaletteRGBA(buf []byte, cells []uint8, palette []color.RGBA) {
	if len(palette) == 0 {
		clear(buf[:4*len(cells)])
		return
	}

	last := len(palette) - 1
	for i, c := range cells {
		idx := min(int(c), last)
		base := i * 4
		col := palette[idx]
		buf[base+0] = col.R
		buf[base+1] = col.G
		buf[base+2] = col.B
		buf[base+3] = col.A
	}
}

// Light direction for hillshading, pointing from the north-west and above.
var lightDir = [3]float64{-1 / math.Sqrt(3), -1 / math.Sqrt(3), 1 / math.Sqrt(3)}

// shadeRGBA darkens buf by a Lambert term computed from central differences of
// heights. relief scales the slopes: larger values exaggerate the terrain.
// Pixels facing the light keep their color; the darkest pixels keep ambient.
func shadeRGBA(buf []byte, heights []int32, w, h int, relief, ambient float64) {
	if len(heights) != w*h || w <= 0 || h <= 0 {
		return
	}
	at := func(x, y int) float64 {
		x = min(max(x, 0), w-1)
		y = min(max(y, 0), h-1)
		return float64(heights[y*w+x])
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dx := (at(x+1, y) - at(x-1, y)) * relief / 2
			dy := (at(x, y+1) - at(x, y-1)) * relief / 2
			// Surface normal of z = f(x, y) is (-dx, -dy, 1).
			n := math.Sqrt(dx*dx + dy*dy + 1)
			lambert := (-dx*lightDir[0] - dy*lightDir[1] + lightDir[2]) / n / lightDir[2]
			f := ambient + (1-ambient)*min(max(lambert, 0), 1)
			base := (y*w + x) * 4
			buf[base+0] = uint8(math.Round(float64(buf[base+0]) * f))
			buf[base+1] = uint8(math.Round(float64(buf[base+1]) * f))
			buf[base+2] = uint8(math.Round(float64(buf[base+2]) * f))
		}
	}
}
