package terrain

import "errors"

var (
	// ErrInvalidSize is returned for empty grids, non-positive radii and
	// inputs whose length does not match the grid.
	ErrInvalidSize = errors.New("terrain: invalid size")
	// ErrSizeMismatch is returned when a height field does not match the
	// grid an erosion simulator was built for.
	ErrSizeMismatch = errors.New("terrain: height field size mismatch")
)
