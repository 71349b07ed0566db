package core

// Size describes the dimensions of a simulation grid.
type Size struct {
	W int
	H int
}

// Cells returns the number of grid cells.
func (s Size) Cells() int { return s.W * s.H }

// Index returns the row-major index of (x, y).
func (s Size) Index(x, y int) int { return y*s.W + x }

// Contains reports whether (x, y) lies inside the grid.
func (s Size) Contains(x, y int) bool {
	return x >= 0 && y >= 0 && x < s.W && y < s.H
}

// Sim is the contract between a simulation and the viewer: the viewer steps
// it and paints Cells through a palette.
type Sim interface {
	Name() string
	Size() Size
	Reset(seed int64)
	Step()
	Cells() []uint8
}

// Stepper is the part of a simulation a background runner needs.
type Stepper interface {
	Step()
	Tick() uint64
}
