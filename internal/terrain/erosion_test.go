package terrain

import (
	"errors"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"terrasim/internal/gpu"
)

func newErosion(t *testing.T, dev *gpu.Device, w, h int) *Erosion {
	t.Helper()
	e, err := NewErosion(dev, w, h, DefaultBrushRadius, DefaultErosionParams())
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, e.Release()) })
	return e
}

func newField(t *testing.T, dev *gpu.Device, w, h int, heights []int32) *gpu.PingPong[int32] {
	t.Helper()
	f, err := gpu.NewPingPong[int32](dev, "test/heights", w, h)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, f.Release()) })
	require.NoError(t, f.Front().Upload(heights))
	return f
}

// bumpyField is a slope with seeded random bumps, in fixed point.
func bumpyField(w, h int, seed uint64) []int32 {
	r := rand.New(rand.NewPCG(seed, 1))
	out := make([]int32, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := float64(x+y)/float64(w+h) + r.Float64()*0.3
			out[y*w+x] = ToFixed(v)
		}
	}
	return out
}

func TestErodeZeroIterationsIsIdentity(t *testing.T) {
	dev := newDevice(t)
	const w, h = 32, 24
	initial := bumpyField(w, h, 1)
	e := newErosion(t, dev, w, h)
	f := newField(t, dev, w, h, initial)

	require.NoError(t, e.Erode(f, 0, 123))
	assert.Equal(t, initial, f.Front().Download(nil))
}

func TestErodeSplitRunsMatchSingleRun(t *testing.T) {
	dev := newDevice(t)
	const w, h = 40, 40
	initial := bumpyField(w, h, 2)
	e := newErosion(t, dev, w, h)

	whole := newField(t, dev, w, h, initial)
	require.NoError(t, e.Erode(whole, 30, 5))

	split := newField(t, dev, w, h, initial)
	require.NoError(t, e.Erode(split, 12, 5))
	require.NoError(t, e.Erode(split, 18, 5+12))

	stepped := newField(t, dev, w, h, initial)
	for i := int32(0); i < 30; i++ {
		require.NoError(t, e.Erode(stepped, 1, 5+i))
	}

	want := whole.Front().Download(nil)
	assert.NotEqual(t, initial, want, "erosion must change the field")
	assert.Equal(t, want, split.Front().Download(nil))
	assert.Equal(t, want, stepped.Front().Download(nil))
}

func TestErodeDoesNotDependOnWorkerCount(t *testing.T) {
	const w, h = 33, 27
	initial := bumpyField(w, h, 3)
	run := func(workers int) []int32 {
		dev := gpu.NewDevice(gpu.WithWorkers(workers))
		defer func() { require.NoError(t, dev.Close()) }()
		e, err := NewErosion(dev, w, h, 2, DefaultErosionParams())
		require.NoError(t, err)
		defer e.Release()
		f, err := gpu.NewPingPong[int32](dev, "heights", w, h)
		require.NoError(t, err)
		defer f.Release()
		require.NoError(t, f.Front().Upload(initial))
		require.NoError(t, e.Erode(f, 20, 0))
		return f.Front().Download(nil)
	}
	assert.Equal(t, run(1), run(8))
}

func TestDropletsStayInsideGrid(t *testing.T) {
	dev := newDevice(t)
	for _, size := range [][2]int{{1, 1}, {2, 2}, {3, 7}, {17, 5}, {64, 64}, {128, 3}} {
		w, h := size[0], size[1]
		e := newErosion(t, dev, w, h)
		heights := bumpyField(w, h, uint64(w*h))
		touched := 0
		for seed := uint32(0); seed < 20; seed++ {
			for d := uint32(0); d < 200; d++ {
				e.simulateDroplet(heights, seed, d, func(cell int, delta int32) {
					require.GreaterOrEqual(t, cell, 0, "%dx%d", w, h)
					require.Less(t, cell, w*h, "%dx%d", w, h)
					touched++
				})
			}
		}
		if w >= 2 && h >= 2 {
			assert.Positive(t, touched, "%dx%d", w, h)
		}
	}
}

func TestDropletKeepsCellsWithinReadRange(t *testing.T) {
	dev := newDevice(t)
	const w, h = 48, 40
	e := newErosion(t, dev, w, h)
	heights := bumpyField(w, h, 9)
	heights[20*w+20] = ToFixed(-0.5)
	heights[10*w+30] = ToFixed(2)
	lo, hi := slices.Min(heights), slices.Max(heights)

	changed := 0
	for d := uint32(0); d < 500; d++ {
		local := slices.Clone(heights)
		e.simulateDroplet(heights, 5, d, func(cell int, delta int32) {
			local[cell] += delta
		})
		for i, v := range local {
			require.GreaterOrEqual(t, v, lo, "droplet %d cell %d", d, i)
			require.LessOrEqual(t, v, hi, "droplet %d cell %d", d, i)
			if v != heights[i] {
				changed++
			}
		}
	}
	assert.Positive(t, changed)
}

func TestErosionDefaultsAndValidation(t *testing.T) {
	dev := newDevice(t)
	e := newErosion(t, dev, 64, 32)
	assert.Equal(t, 32, e.Droplets())

	tiny := newErosion(t, dev, 4, 4)
	assert.Equal(t, 1, tiny.Droplets())

	p := DefaultErosionParams()
	p.Inertia = 1.5
	_, err := NewErosion(dev, 8, 8, 2, p)
	assert.Error(t, err)

	p = DefaultErosionParams()
	p.Droplets = 10
	require.NoError(t, e.SetParams(p))
	assert.Equal(t, 10, e.Droplets())
	p.EvaporateSpeed = -1
	assert.Error(t, e.SetParams(p))
	assert.Equal(t, 10, e.Droplets())

	_, err = NewErosion(dev, 8, 8, 0, DefaultErosionParams())
	assert.True(t, errors.Is(err, ErrInvalidSize))
}

func TestErodeRejectsMismatchedField(t *testing.T) {
	dev := newDevice(t)
	e := newErosion(t, dev, 8, 8)
	f := newField(t, dev, 8, 9, make([]int32, 72))
	assert.True(t, errors.Is(e.Erode(f, 1, 0), ErrSizeMismatch))
}

func TestPCGHashSpreadsIndices(t *testing.T) {
	seen := map[uint32]bool{}
	for i := uint32(0); i < 1000; i++ {
		seen[pcgHash(i)] = true
	}
	assert.Len(t, seen, 1000)
	assert.Equal(t, pcgHash(42), pcgHash(42))
	assert.Less(t, unitFloat(^uint32(0)), 1.0)
}
