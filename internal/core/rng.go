package core

import "math/rand/v2"

// RNG is a thin wrapper around math/rand/v2 for deterministic seeding.
type RNG struct {
	r *rand.Rand
}

// NewRNG creates a deterministic PCG-backed RNG.
func NewRNG(seed uint64) *RNG {
	return &RNG{r: rand.New(rand.NewPCG(seed, 0))}
}

// IntRange returns a value in [lo, hi). It returns lo when the range is empty.
func (r *RNG) IntRange(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + r.r.IntN(hi-lo)
}

// Step returns -1, 0 or 1 with equal probability.
func (r *RNG) Step() int {
	return r.r.IntN(3) - 1
}
