package core

import "time"

// UPSResetInterval is how many ticks a Pacer runs before re-anchoring its
// schedule, so a slow tick does not cause a burst of catch-up ticks later.
const UPSResetInterval = 60

type tickWindow struct {
	ticks    int
	deadline time.Time
}

// TickCounter measures ticks per second over several staggered one-second
// windows, so the reading refreshes more often than once a second.
type TickCounter struct {
	windows   []tickWindow
	tps       int
	corrected float64
	now       func() time.Time
}

// NewTickCounter creates a counter with n staggered windows.
func NewTickCounter(n int) *TickCounter {
	return newTickCounter(n, time.Now)
}

func newTickCounter(n int, now func() time.Time) *TickCounter {
	if n <= 0 {
		n = 1
	}
	c := &TickCounter{windows: make([]tickWindow, n), now: now}
	c.Reset()
	return c
}

// Reset clears all windows and restarts them from now.
func (c *TickCounter) Reset() {
	start := c.now()
	n := len(c.windows)
	for i := range c.windows {
		c.windows[i] = tickWindow{deadline: start.Add(time.Duration(i) * time.Second / time.Duration(n))}
	}
	c.tps = 0
	c.corrected = 0
}

// Tick records one simulation tick.
func (c *TickCounter) Tick() {
	for i := range c.windows {
		c.windows[i].ticks++
	}
	c.roll()
}

// Idle refreshes the windows without recording a tick, used while paused.
func (c *TickCounter) Idle() { c.roll() }

// TPS is the tick count of the most recently closed window.
func (c *TickCounter) TPS() int { return c.tps }

// Corrected is TPS scaled by how late the window was closed.
func (c *TickCounter) Corrected() float64 { return c.corrected }

func (c *TickCounter) roll() {
	now := c.now()
	for i := range c.windows {
		w := &c.windows[i]
		if !now.After(w.deadline) {
			continue
		}
		late := now.Sub(w.deadline) + time.Second
		c.tps = w.ticks
		c.corrected = float64(w.ticks) / late.Seconds()
		w.ticks = 0
		w.deadline = w.deadline.Add(time.Second)
	}
}

// Pacer limits a loop to a number of updates per second.
type Pacer struct {
	limit     int
	packStart time.Time
	packCycle uint64

	now   func() time.Time
	sleep func(time.Duration)
}

// NewPacer returns an unlimited pacer.
func NewPacer() *Pacer {
	return &Pacer{now: time.Now, sleep: time.Sleep}
}

// Limit returns the configured updates per second, 0 when unlimited.
func (p *Pacer) Limit() int { return p.limit }

// SetLimit changes the rate; ups <= 0 removes the limit. cycle is the index
// of the next update.
func (p *Pacer) SetLimit(ups int, cycle uint64) {
	if ups < 0 {
		ups = 0
	}
	p.limit = ups
	p.Anchor(cycle)
}

// Anchor restarts the schedule at cycle, used after pauses.
func (p *Pacer) Anchor(cycle uint64) {
	p.packStart = p.now()
	p.packCycle = cycle
}

// Wait sleeps until update number cycle is due.
func (p *Pacer) Wait(cycle uint64) {
	if p.limit <= 0 {
		return
	}
	if cycle%UPSResetInterval == 0 {
		p.Anchor(cycle)
		return
	}
	due := p.packStart.Add(time.Duration(cycle-p.packCycle) * time.Second / time.Duration(p.limit))
	if wait := due.Sub(p.now()); wait > 0 {
		p.sleep(wait)
	}
}
