package terrain

import (
	"testing"

	"github.com/stretchr/testify/require"

	"terrasim/internal/gpu"
)

// newDevice returns a device that must be empty when the test ends.
func newDevice(t *testing.T) *gpu.Device {
	t.Helper()
	dev := gpu.NewDevice(gpu.WithWorkers(4))
	t.Cleanup(func() { require.NoError(t, dev.Close()) })
	return dev
}

func newSmoother(t *testing.T, dev *gpu.Device, w, h int) *ShapeSmoother {
	t.Helper()
	s, err := NewShapeSmoother(dev, w, h)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, s.Release()) })
	return s
}

// floodReference floods sea cells from the border on the host.
func floodReference(w, h int, mask []bool) []bool {
	reached := make([]bool, w*h)
	var queue []int
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			if !mask[i] && (x == 0 || y == 0 || x == w-1 || y == h-1) {
				reached[i] = true
				queue = append(queue, i)
			}
		}
	}
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		x, y := i%w, i/w
		for _, n := range [][2]int{{x - 1, y}, {x + 1, y}, {x, y - 1}, {x, y + 1}} {
			if n[0] < 0 || n[1] < 0 || n[0] >= w || n[1] >= h {
				continue
			}
			j := n[1]*w + n[0]
			if !mask[j] && !reached[j] {
				reached[j] = true
				queue = append(queue, j)
			}
		}
	}
	land := make([]bool, w*h)
	for i := range land {
		land[i] = !reached[i]
	}
	return land
}

func sineNoise(x, y float64) float64 {
	return 0.8 * sinApprox(x*0.37) * sinApprox(y*0.21+1)
}

// sinApprox is a cheap bounded periodic function in [-1, 1].
func sinApprox(v float64) float64 {
	t := v - 4*float64(int(v/4))
	if t < 0 {
		t += 4
	}
	if t < 2 {
		return t - 1
	}
	return 3 - t
}
