package render

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFillPaletteRGBA(t *testing.T) {
	palette := []color.RGBA{{R: 1, G: 2, B: 3, A: 255}, {R: 9, G: 8, B: 7, A: 128}}
	buf := make([]byte, 12)
	fillPaletteRGBA(buf, []uint8{0, 1, 200}, palette)
	assert.Equal(t, []byte{1, 2, 3, 255, 9, 8, 7, 128, 9, 8, 7, 128}, buf, "out of range indices clamp to the last color")

	fillPaletteRGBA(buf, []uint8{0, 1, 2}, nil)
	assert.Equal(t, make([]byte, 12), buf)
}

func solid(n int, v byte) []byte {
	buf := make([]byte, 4*n)
	for i := range buf {
		buf[i] = v
	}
	return buf
}

func TestShadeFlatTerrainIsUnchanged(t *testing.T) {
	buf := solid(9, 200)
	shadeRGBA(buf, make([]int32, 9), 3, 3, 1, 0.5)
	assert.Equal(t, solid(9, 200), buf)
}

func TestShadeSlopeAwayFromLight(t *testing.T) {
	const w, h = 3, 3
	heights := make([]int32, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			heights[y*w+x] = int32(-1000 * x)
		}
	}
	buf := solid(w*h, 200)
	shadeRGBA(buf, heights, w, h, 0.001, 0.5)

	center := 4 * (1*w + 1)
	assert.Equal(t, []byte{100, 100, 100, 200}, buf[center:center+4], "slopes facing away keep only ambient light")

	rising := make([]int32, w*h)
	for i, v := range heights {
		rising[i] = -v
	}
	buf = solid(w*h, 200)
	shadeRGBA(buf, rising, w, h, 0.001, 0.5)
	assert.Equal(t, []byte{200, 200, 200, 200}, buf[center:center+4], "slopes facing the light stay lit")
}

func TestShadeIgnoresMismatchedHeights(t *testing.T) {
	buf := solid(4, 50)
	shadeRGBA(buf, []int32{1, 2, 3}, 2, 2, 1, 0)
	assert.Equal(t, solid(4, 50), buf)
}
