package terrain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateContinentsIsDeterministic(t *testing.T) {
	dev := newDevice(t)
	p := ContinentParams{Width: 48, Height: 40, Continents: 7, WalkLength: 400, WalkSeed: DefaultWalkSeed}

	run := func() Continents {
		s := newSmoother(t, dev, p.Width, p.Height)
		c, err := GenerateContinents(p, s, NewFractalNoise(46, DefaultNoiseScale, DefaultNoiseOctaves))
		require.NoError(t, err)
		return c
	}
	a, b := run(), run()
	assert.Equal(t, a.Heights, b.Heights)
	assert.Equal(t, a.Overlap, b.Overlap)
	assert.Equal(t, a.Land, b.Land)

	p.WalkSeed++
	s := newSmoother(t, dev, p.Width, p.Height)
	c, err := GenerateContinents(p, s, NewFractalNoise(46, DefaultNoiseScale, DefaultNoiseOctaves))
	require.NoError(t, err)
	assert.NotEqual(t, a.Overlap, c.Overlap)
}

func TestGenerateContinentsWithoutWalksIsPureNoise(t *testing.T) {
	dev := newDevice(t)
	const w, h = 30, 20
	s := newSmoother(t, dev, w, h)
	c, err := GenerateContinents(ContinentParams{Width: w, Height: h, WalkLength: 500, WalkSeed: 44}, s, NoiseFunc(sineNoise))
	require.NoError(t, err)

	for i, v := range c.Heights {
		x, y := float64(i%w), float64(i/w)
		n := sineNoise(x, y)
		assert.Equal(t, ToFixed(n*n*n/10), v, "cell %d", i)
		assert.Zero(t, c.Overlap[i])
		assert.False(t, c.Land[i])
	}
}

func TestGenerateContinentsLandMatchesOverlap(t *testing.T) {
	dev := newDevice(t)
	p := ContinentParams{Width: 64, Height: 64, Continents: 4, WalkLength: 500, WalkSeed: DefaultWalkSeed}
	s := newSmoother(t, dev, p.Width, p.Height)
	c, err := GenerateContinents(p, s, NoiseFunc(func(x, y float64) float64 { return 0 }))
	require.NoError(t, err)

	for i, o := range c.Overlap {
		if o > 0 {
			require.True(t, c.Land[i], "visited cell %d must be land", i)
		}
		want := continentHeight(o, c.Land[i], 0)
		require.Equal(t, want, c.Heights[i])
		if c.Land[i] {
			require.GreaterOrEqual(t, c.Heights[i], int32(625000))
		} else {
			require.Zero(t, c.Heights[i])
		}
	}
	assert.GreaterOrEqual(t, LocalMaxima(c.Overlap, p.Width, p.Height), 4)
}

func TestContinentOriginLayout(t *testing.T) {
	x, y := continentOrigin(0, 64, 64)
	assert.Equal(t, [2]int{10, 10}, [2]int{x, y})
	x, y = continentOrigin(4, 64, 64)
	assert.Equal(t, [2]int{53, 10}, [2]int{x, y})
	x, y = continentOrigin(5, 64, 64)
	assert.Equal(t, [2]int{10, 21}, [2]int{x, y})
	x, y = continentOrigin(40, 64, 64)
	assert.Equal(t, [2]int{10, 63}, [2]int{x, y}, "rows past the grid clamp to the last row")
}

func TestContinentHeight(t *testing.T) {
	assert.Equal(t, int32(0), continentHeight(0, false, 0))
	assert.Equal(t, int32(625000), continentHeight(0, true, 0), "smoothed land counts as one walk")
	assert.Equal(t, int32(625000), continentHeight(1, true, 0))
	assert.Equal(t, int32(1250000), continentHeight(3, true, 0))
	assert.Equal(t, int32(100000), continentHeight(0, false, 1))
	assert.Equal(t, int32(-100000), continentHeight(0, false, -1))
}

func TestGenerateContinentsRejectsMismatchedSmoother(t *testing.T) {
	dev := newDevice(t)
	s := newSmoother(t, dev, 8, 8)
	_, err := GenerateContinents(ContinentParams{Width: 9, Height: 8, Continents: 1, WalkLength: 10}, s, NoiseFunc(sineNoise))
	assert.True(t, errors.Is(err, ErrSizeMismatch))
	_, err = GenerateContinents(ContinentParams{Width: 0, Height: 8}, s, NoiseFunc(sineNoise))
	assert.True(t, errors.Is(err, ErrInvalidSize))
}
