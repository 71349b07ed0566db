package terrain

import (
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"terrasim/internal/gpu"
	"terrasim/internal/logger"
)

// Cell markers used while smoothing a land mask.
const (
	CellEmpty uint8 = iota
	CellFilled
	CellChecked
)

// SmoothResult is the outcome of one smoothing run.
type SmoothResult struct {
	// Land is true for every cell that is not reachable from the border
	// through sea cells.
	Land []bool
	// Steps counts the propagation passes dispatched.
	Steps int
	// Checked is the final number of cells reached from the border.
	Checked uint32
}

// ShapeSmoother turns a raw land mask into a coherent one by flooding the sea
// inward from the grid border. Sea pockets enclosed by land are never reached
// and become land.
type ShapeSmoother struct {
	dev   *gpu.Device
	w, h  int
	cells *gpu.PingPong[uint8]
	taken *gpu.Counter
	log   *zap.Logger

	observe func(step int, cells []uint8)
}

// NewShapeSmoother allocates the cell textures and convergence counter for a
// w*h grid.
func NewShapeSmoother(dev *gpu.Device, w, h int) (*ShapeSmoother, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("smoother %dx%d: %w", w, h, ErrInvalidSize)
	}
	cells, err := gpu.NewPingPong[uint8](dev, "smoother/cells", w, h)
	if err != nil {
		return nil, fmt.Errorf("smoother cells: %w", err)
	}
	taken, err := gpu.NewCounter(dev, "smoother/taken", 0)
	if err != nil {
		return nil, multierr.Append(fmt.Errorf("smoother counter: %w", err), cells.Release())
	}
	return &ShapeSmoother{dev: dev, w: w, h: h, cells: cells, taken: taken, log: logger.Named("smoother")}, nil
}

// Release frees the textures and the counter.
func (s *ShapeSmoother) Release() error {
	return multierr.Combine(s.cells.Release(), s.taken.Release())
}

// BatchSize is how many propagation passes run between two counter reads.
func BatchSize(w, h int) int {
	return max(1, (min(w, h)+1)/10)
}

// Smooth floods mask from the border until no cell changes and returns the
// smoothed land mask. Counter reads are the only points where the host waits
// for the device.
func (s *ShapeSmoother) Smooth(mask []bool) (SmoothResult, error) {
	if len(mask) != s.w*s.h {
		return SmoothResult{}, fmt.Errorf("smooth %d cells on %dx%d: %w", len(mask), s.w, s.h, ErrInvalidSize)
	}
	cells, seeds := seedCells(s.w, s.h, mask)
	if err := s.cells.Front().Upload(cells); err != nil {
		return SmoothResult{}, err
	}
	s.taken.Store(seeds)

	batch := BatchSize(s.w, s.h)
	steps := 0
	taken := seeds
	for {
		for i := 0; i < batch; i++ {
			s.dev.Dispatch("smoother/propagate", s.w, s.h,
				propagate(s.w, s.h, s.cells.Front().Texels(), s.cells.Back().Texels(), s.taken))
			s.dev.Barrier()
			s.cells.Swap()
			steps++
			if s.observe != nil {
				s.observe(steps, s.cells.Front().Download(nil))
			}
		}
		now := s.dev.ReadCounter(s.taken)
		if now == taken {
			break
		}
		taken = now
	}

	out := s.cells.Front().Download(cells)
	land := make([]bool, len(out))
	for i, c := range out {
		land[i] = c != CellChecked
	}
	s.log.Debug("smoothed",
		zap.Int("w", s.w), zap.Int("h", s.h),
		zap.Int("steps", steps), zap.Uint32("checked", taken))
	return SmoothResult{Land: land, Steps: steps, Checked: taken}, nil
}

// seedCells marks land as Filled and every empty border cell as Checked.
func seedCells(w, h int, mask []bool) ([]uint8, uint32) {
	cells := make([]uint8, w*h)
	var seeds uint32
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			switch {
			case mask[i]:
				cells[i] = CellFilled
			case x == 0 || y == 0 || x == w-1 || y == h-1:
				cells[i] = CellChecked
				seeds++
			default:
				cells[i] = CellEmpty
			}
		}
	}
	return cells, seeds
}

// propagate marks an empty cell Checked when one of its four neighbors
// already is.
func propagate(w, h int, cur, next []uint8, taken *gpu.Counter) gpu.Kernel {
	return func(x, y int) {
		i := y*w + x
		c := cur[i]
		if c == CellEmpty &&
			(x > 0 && cur[i-1] == CellChecked ||
				x < w-1 && cur[i+1] == CellChecked ||
				y > 0 && cur[i-w] == CellChecked ||
				y < h-1 && cur[i+w] == CellChecked) {
			next[i] = CellChecked
			taken.Add(1)
			return
		}
		next[i] = c
	}
}
