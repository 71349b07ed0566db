package terrain

import (
	"fmt"

	"github.com/ojrac/opensimplex-go"
)

// Noise is a coherent 2D noise source returning values in [-1, 1].
type Noise interface {
	Eval(x, y float64) float64
}

// NoiseFunc adapts a plain function to Noise.
type NoiseFunc func(x, y float64) float64

// Eval calls f(x, y).
func (f NoiseFunc) Eval(x, y float64) float64 { return f(x, y) }

// Default noise parameters.
const (
	DefaultNoiseSeed    = 46
	DefaultNoiseScale   = 1.0 / 32
	DefaultNoiseOctaves = 4
)

// FractalNoise sums octaves of OpenSimplex noise sampled in cell coordinates.
// Each octave doubles the frequency and halves the amplitude, and the sum is
// renormalized to [-1, 1].
type FractalNoise struct {
	octaves []opensimplex.Noise
	scale   float64
	norm    float64
}

// NewFractalNoise builds a deterministic noise source for seed.
func NewFractalNoise(seed int64, scale float64, octaves int) *FractalNoise {
	if octaves < 1 {
		octaves = 1
	}
	if scale <= 0 {
		scale = DefaultNoiseScale
	}
	n := &FractalNoise{scale: scale}
	amp := 1.0
	for i := 0; i < octaves; i++ {
		n.octaves = append(n.octaves, opensimplex.New(seed+int64(i)))
		n.norm += amp
		amp /= 2
	}
	return n
}

// Eval samples the noise at cell coordinates (x, y).
func (n *FractalNoise) Eval(x, y float64) float64 {
	freq, amp, sum := n.scale, 1.0, 0.0
	for _, o := range n.octaves {
		sum += amp * o.Eval2(x*freq, y*freq)
		freq *= 2
		amp /= 2
	}
	v := sum / n.norm
	switch {
	case v > 1:
		return 1
	case v < -1:
		return -1
	}
	return v
}

// GenerateNoise builds a height field from noise alone, mapping [-1, 1] to
// heights in [0, 1].
func GenerateNoise(w, h int, noise Noise) ([]int32, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("noise field %dx%d: %w", w, h, ErrInvalidSize)
	}
	heights := make([]int32, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			heights[y*w+x] = ToFixed(noise.Eval(float64(x), float64(y))/2 + 0.5)
		}
	}
	return heights, nil
}
