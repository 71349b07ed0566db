package terrain

import (
	"fmt"
	"math"
	"sync/atomic"

	"go.uber.org/zap"

	"terrasim/internal/gpu"
	"terrasim/internal/logger"
)

// ErosionParams are the droplet physics constants.
type ErosionParams struct {
	Inertia        float64 `yaml:"inertia"`
	CapacityFactor float64 `yaml:"capacity_factor"`
	MinCapacity    float64 `yaml:"min_capacity"`
	ErodeSpeed     float64 `yaml:"erode_speed"`
	DepositSpeed   float64 `yaml:"deposit_speed"`
	EvaporateSpeed float64 `yaml:"evaporate_speed"`
	Gravity        float64 `yaml:"gravity"`
	MaxLifetime    int     `yaml:"max_lifetime"`
	InitialWater   float64 `yaml:"initial_water"`
	InitialSpeed   float64 `yaml:"initial_speed"`
	// Droplets per iteration; 0 means one per 64 cells.
	Droplets int `yaml:"droplets"`
}

// DefaultErosionParams returns the standard droplet constants.
func DefaultErosionParams() ErosionParams {
	return ErosionParams{
		Inertia:        0.05,
		CapacityFactor: 4,
		MinCapacity:    0.01,
		ErodeSpeed:     0.3,
		DepositSpeed:   0.3,
		EvaporateSpeed: 0.01,
		Gravity:        4,
		MaxLifetime:    30,
		InitialWater:   1,
		InitialSpeed:   1,
	}
}

// Validate rejects parameters the droplet model cannot run with.
func (p ErosionParams) Validate() error {
	switch {
	case p.Inertia < 0 || p.Inertia > 1:
		return fmt.Errorf("erosion inertia %v outside [0, 1]", p.Inertia)
	case p.EvaporateSpeed < 0 || p.EvaporateSpeed > 1:
		return fmt.Errorf("erosion evaporate_speed %v outside [0, 1]", p.EvaporateSpeed)
	case p.ErodeSpeed < 0 || p.DepositSpeed < 0:
		return fmt.Errorf("erosion speeds must not be negative")
	case p.CapacityFactor < 0 || p.MinCapacity < 0 || p.Gravity < 0:
		return fmt.Errorf("erosion capacity and gravity must not be negative")
	case p.MaxLifetime < 0 || p.Droplets < 0:
		return fmt.Errorf("erosion max_lifetime and droplets must not be negative")
	}
	return nil
}

// Erosion runs hydraulic droplet erosion over a fixed-size height field.
type Erosion struct {
	dev      *gpu.Device
	w, h     int
	brush    *Brush
	params   ErosionParams
	droplets int
	log      *zap.Logger
}

// NewErosion builds the brush for a w*h grid and prepares the simulator.
func NewErosion(dev *gpu.Device, w, h, radius int, params ErosionParams) (*Erosion, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	brush, err := NewBrush(dev, w, h, radius)
	if err != nil {
		return nil, fmt.Errorf("erosion brush: %w", err)
	}
	droplets := params.Droplets
	if droplets == 0 {
		droplets = max(1, w*h/64)
	}
	e := &Erosion{
		dev:      dev,
		w:        w,
		h:        h,
		brush:    brush,
		params:   params,
		droplets: droplets,
		log:      logger.Named("erosion"),
	}
	e.log.Debug("erosion ready",
		zap.Int("width", w), zap.Int("height", h),
		zap.Int("brush_radius", brush.Radius()), zap.Int("droplets", droplets))
	return e, nil
}

// Droplets is the number of droplets simulated per iteration.
func (e *Erosion) Droplets() int { return e.droplets }

// Params returns the droplet constants in use.
func (e *Erosion) Params() ErosionParams { return e.params }

// Release frees the brush.
func (e *Erosion) Release() error { return e.brush.Release() }

// Erode runs iterations passes over field. Pass i seeds its droplets with
// int32(i)+seed, so n passes with seed s followed by m passes with seed s+n
// give exactly the field of n+m passes with seed s. Each pass copies the
// front into the back, lets droplets read the front while accumulating their
// changes into the back, then swaps.
func (e *Erosion) Erode(field *gpu.PingPong[int32], iterations uint64, seed int32) error {
	if w, h := field.Size(); w != e.w || h != e.h {
		return fmt.Errorf("erode %dx%d field with %dx%d simulator: %w", w, h, e.w, e.h, ErrSizeMismatch)
	}
	for i := uint64(0); i < iterations; i++ {
		front, back := field.Front().Texels(), field.Back().Texels()
		e.dev.Dispatch("erosion/copy", e.w, e.h, func(x, y int) {
			j := y*e.w + x
			back[j] = front[j]
		})
		e.dev.Barrier()
		iterSeed := uint32(int32(i) + seed)
		e.dev.Dispatch("erosion/droplets", e.droplets, 1, func(d, _ int) {
			e.simulateDroplet(front, iterSeed, uint32(d), func(j int, delta int32) {
				atomic.AddInt32(&back[j], delta)
			})
		})
		e.dev.Barrier()
		field.Swap()
	}
	e.dev.Finish()
	if iterations > 0 {
		e.log.Debug("eroded", zap.Uint64("iterations", iterations), zap.Int32("seed", seed))
	}
	return nil
}

// simulateDroplet traces one droplet over heights and reports every height
// change through apply. It only touches cells inside the grid. Erosion never
// lowers a cell below the height the droplet flows down to and deposits never
// raise a cell above the surface the droplet rests on, so every cell the
// droplet changes stays within the range of heights it read. A droplet that
// flows uphill fills the pit it left and stops.
func (e *Erosion) simulateDroplet(heights []int32, seed, index uint32, apply func(cell int, delta int32)) {
	w, h := e.w, e.h
	if w < 2 || h < 2 {
		return
	}
	p := e.params
	r1 := pcgHash(index ^ pcgHash(seed))
	r2 := pcgHash(r1)
	posX := unitFloat(r1) * float64(w-1)
	posY := unitFloat(r2) * float64(h-1)
	dirX, dirY := 0.0, 0.0
	speed, water, sediment := p.InitialSpeed, p.InitialWater, 0.0
	own := make(map[int]int32)
	defer func() {
		for cell, delta := range own {
			if delta != 0 {
				apply(cell, delta)
			}
		}
	}()

	for life := 0; life < p.MaxLifetime; life++ {
		nodeX, nodeY := int(posX), int(posY)
		height, gradX, gradY := e.sample(heights, posX, posY)

		dirX = dirX*p.Inertia - gradX*(1-p.Inertia)
		dirY = dirY*p.Inertia - gradY*(1-p.Inertia)
		l := math.Hypot(dirX, dirY)
		if l == 0 {
			return
		}
		dirX /= l
		dirY /= l
		posX += dirX
		posY += dirY
		if posX < 0 || posY < 0 || posX >= float64(w-1) || posY >= float64(h-1) {
			return
		}

		newHeight, _, _ := e.sample(heights, posX, posY)
		delta := newHeight - height
		capacity := math.Max(-delta*speed*water*p.CapacityFactor, p.MinCapacity)
		if sediment > capacity || delta > 0 {
			amount, ceiling := (sediment-capacity)*p.DepositSpeed, height
			if delta > 0 {
				amount, ceiling = math.Min(delta, sediment), newHeight
			}
			sediment -= FromFixed(e.deposit(heights, own, nodeX, nodeY, amount, ToFixed(ceiling)))
			if delta > 0 {
				return
			}
		} else {
			amount := math.Min((capacity-sediment)*p.ErodeSpeed, -delta)
			sediment += FromFixed(e.erode(heights, own, nodeX, nodeY, amount, ToFixed(newHeight)))
		}

		speed = math.Sqrt(math.Max(0, speed*speed-delta*p.Gravity))
		water *= 1 - p.EvaporateSpeed
	}
}

// sample returns the bilinear height and gradient at (x, y). The caller keeps
// x in [0, w-1) and y in [0, h-1).
func (e *Erosion) sample(heights []int32, x, y float64) (height, gradX, gradY float64) {
	cx, cy := int(x), int(y)
	fx, fy := x-float64(cx), y-float64(cy)
	i := cy*e.w + cx
	nw := FromFixed(heights[i])
	ne := FromFixed(heights[i+1])
	sw := FromFixed(heights[i+e.w])
	se := FromFixed(heights[i+e.w+1])

	gradX = (ne-nw)*(1-fy) + (se-sw)*fy
	gradY = (sw-nw)*(1-fx) + (se-ne)*fx
	height = nw*(1-fx)*(1-fy) + ne*fx*(1-fy) + sw*(1-fx)*fy + se*fx*fy
	return height, gradX, gradY
}

// deposit spreads amount over the brush centered on (x, y) without raising
// any cell above ceiling. It returns the total actually placed.
func (e *Erosion) deposit(heights []int32, own map[int]int32, x, y int, amount float64, ceiling int32) int32 {
	var placed int32
	e.spread(x, y, amount, func(cell int, d int32) {
		if d = min(d, ceiling-heights[cell]-own[cell]); d > 0 {
			own[cell] += d
			placed += d
		}
	})
	return placed
}

// erode removes up to amount from the brush centered on (x, y) without
// lowering any cell below floor. It returns the total actually taken.
func (e *Erosion) erode(heights []int32, own map[int]int32, x, y int, amount float64, floor int32) int32 {
	var taken int32
	e.spread(x, y, amount, func(cell int, d int32) {
		if d = min(d, heights[cell]+own[cell]-floor); d > 0 {
			own[cell] -= d
			taken += d
		}
	})
	return taken
}

// spread splits amount over the brush centered on (x, y) by weight.
func (e *Erosion) spread(x, y int, amount float64, each func(cell int, share int32)) {
	if amount <= 0 {
		return
	}
	spans, entries := e.brush.spans.Data(), e.brush.entries.Data()
	s := spans[y*e.w+x]
	for _, b := range entries[s.Start : s.Start+s.Len] {
		if d := ToFixed(amount * float64(b.Weight)); d > 0 {
			each((y+int(b.DY))*e.w+x+int(b.DX), d)
		}
	}
}

// pcgHash is the 32-bit PCG output permutation used for droplet placement.
func pcgHash(v uint32) uint32 {
	state := v*747796405 + 2891336453
	word := ((state >> ((state >> 28) + 4)) ^ state) * 277803737
	return (word >> 22) ^ word
}

func unitFloat(v uint32) float64 {
	return float64(v) / (1 << 32)
}

// SetParams replaces the droplet constants used by later iterations.
func (e *Erosion) SetParams(p ErosionParams) error {
	if err := p.Validate(); err != nil {
		return err
	}
	e.params = p
	e.droplets = p.Droplets
	if e.droplets == 0 {
		e.droplets = max(1, e.w*e.h/64)
	}
	return nil
}
