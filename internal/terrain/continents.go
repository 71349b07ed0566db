package terrain

import (
	"fmt"
	"math"

	"terrasim/internal/core"
)

// DefaultWalkSeed seeds the continent random walks.
const DefaultWalkSeed = 44

// continentColumns is how many continent origins fit on one row.
const continentColumns = 5

// ContinentParams configures GenerateContinents.
type ContinentParams struct {
	Width, Height int
	// Continents is the number of random walks.
	Continents int
	// WalkLength is the exclusive upper bound of a walk's step count.
	WalkLength int
	WalkSeed   uint64
}

// Continents is the output of GenerateContinents.
type Continents struct {
	// Overlap counts how many walks visited each cell.
	Overlap []int32
	// Land is the smoothed land mask.
	Land []bool
	// Heights is the fixed-point height field.
	Heights []int32
}

// GenerateContinents places random-walk blobs on a regular grid of origins,
// smooths their union into a land mask and turns walk overlap plus noise into
// heights. The same parameters and noise always produce the same field.
func GenerateContinents(p ContinentParams, smoother *ShapeSmoother, noise Noise) (Continents, error) {
	w, h := p.Width, p.Height
	if w <= 0 || h <= 0 || p.Continents < 0 {
		return Continents{}, fmt.Errorf("continents %dx%d count %d: %w", w, h, p.Continents, ErrInvalidSize)
	}
	if smoother.w != w || smoother.h != h {
		return Continents{}, fmt.Errorf("smoother %dx%d for %dx%d grid: %w", smoother.w, smoother.h, w, h, ErrSizeMismatch)
	}

	rng := core.NewRNG(p.WalkSeed)
	overlap := make([]int32, w*h)
	visited := make([]bool, w*h)
	for i := 0; i < p.Continents; i++ {
		x, y := continentOrigin(i, w, h)
		clear(visited)
		walkShape(w, h, visited, rng.IntRange(1, p.WalkLength), x, y, rng)
		for j, v := range visited {
			if v {
				overlap[j]++
			}
		}
	}

	mask := make([]bool, w*h)
	for i, o := range overlap {
		mask[i] = o > 0
	}
	res, err := smoother.Smooth(mask)
	if err != nil {
		return Continents{}, fmt.Errorf("smooth continents: %w", err)
	}

	heights := make([]int32, w*h)
	for i := range heights {
		x, y := i%w, i/w
		heights[i] = continentHeight(overlap[i], res.Land[i], noise.Eval(float64(x), float64(y)))
	}
	return Continents{Overlap: overlap, Land: res.Land, Heights: heights}, nil
}

// continentOrigin is the start cell of walk i.
func continentOrigin(i, w, h int) (int, int) {
	x := ((i%continentColumns)+1) * w / (continentColumns + 1)
	y := ((i/continentColumns)+1) * h / (continentColumns + 1)
	return min(max(x, 0), w-1), min(max(y, 0), h-1)
}

// walkShape marks the cells of a steps long random walk from (x, y). Each step
// moves by -1, 0 or 1 on both axes and is clamped to the grid.
func walkShape(w, h int, visited []bool, steps, x, y int, rng *core.RNG) {
	for s := 0; s < steps; s++ {
		visited[y*w+x] = true
		dx := rng.Step()
		dy := rng.Step()
		x = min(max(x+dx, 0), w-1)
		y = min(max(y+dy, 0), h-1)
	}
}

// continentHeight combines a cell's overlap count with a noise sample. Land
// that smoothing filled in counts as one overlap.
func continentHeight(overlap int32, land bool, noise float64) int32 {
	if land && overlap == 0 {
		overlap = 1
	}
	base := math.Log(float64(overlap)+1) / math.Ln2 / 1.6
	return ToFixed(base + noise*noise*noise/10)
}
