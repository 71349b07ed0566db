// Package runner drives a simulation on its own goroutine with pause,
// rate-limit and stop controls.
package runner

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"terrasim/internal/core"
	"terrasim/internal/logger"
)

type msgKind uint8

const (
	msgRun msgKind = iota
	msgLimitUPS
	msgRunUntil
	msgStop
)

type message struct {
	kind    msgKind
	running bool
	ups     int
	until   uint64
}

// idleInterval is how often a paused runner refreshes its tick counter.
const idleInterval = 100 * time.Millisecond

// Status is a point-in-time view of a Runner, safe to read from any
// goroutine.
type Status struct {
	Running bool    `json:"running"`
	Tick    uint64  `json:"tick"`
	TPS     int     `json:"tps"`
	TPSAvg  float64 `json:"tpsCorrected"`
	UPS     int     `json:"ups"`
	Until   uint64  `json:"runUntil"`
}

// Option configures a Runner.
type Option func(*Runner)

// WithRunning sets whether the runner starts ticking immediately.
func WithRunning(running bool) Option { return func(r *Runner) { r.running = running } }

// WithUPS sets the initial updates-per-second limit; 0 is unlimited.
func WithUPS(ups int) Option { return func(r *Runner) { r.ups = max(ups, 0) } }

// WithRunUntil pauses the runner once the simulation reaches tick.
func WithRunUntil(tick uint64) Option { return func(r *Runner) { r.until = tick } }

// WithOnTick installs a hook called on the runner goroutine after every
// tick. The simulation may be read from the hook.
func WithOnTick(fn func(tick uint64)) Option { return func(r *Runner) { r.onTick = fn } }

// WithLogger replaces the runner logger.
func WithLogger(log *zap.Logger) Option {
	return func(r *Runner) {
		if log != nil {
			r.log = log
		}
	}
}

// Runner owns a simulation: after Run starts, only the runner goroutine and
// the OnTick hook may touch it.
type Runner struct {
	sim  core.Stepper
	ctrl chan message
	done chan struct{}

	running bool
	ups     int
	until   uint64
	onTick  func(tick uint64)

	pacer *core.Pacer
	tps   *core.TickCounter
	log   *zap.Logger

	mu     sync.Mutex
	status Status
}

// New prepares a runner for sim. Nothing happens until Run.
func New(sim core.Stepper, opts ...Option) *Runner {
	r := &Runner{
		sim:   sim,
		ctrl:  make(chan message, 16),
		done:  make(chan struct{}),
		pacer: core.NewPacer(),
		tps:   core.NewTickCounter(30),
		log:   logger.Named("runner"),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.pacer.SetLimit(r.ups, 0)
	r.publish()
	return r
}

// SetRunning pauses or resumes ticking.
func (r *Runner) SetRunning(running bool) { r.send(message{kind: msgRun, running: running}) }

// LimitUPS caps the tick rate; ups <= 0 removes the cap.
func (r *Runner) LimitUPS(ups int) { r.send(message{kind: msgLimitUPS, ups: ups}) }

// RunUntil pauses the runner once the simulation reaches tick; 0 clears it.
func (r *Runner) RunUntil(tick uint64) { r.send(message{kind: msgRunUntil, until: tick}) }

// Stop ends Run. It does not wait for the loop to exit.
func (r *Runner) Stop() { r.send(message{kind: msgStop}) }

// Done is closed when Run returns.
func (r *Runner) Done() <-chan struct{} { return r.done }

// Status returns the latest published state.
func (r *Runner) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

func (r *Runner) send(m message) {
	select {
	case r.ctrl <- m:
	case <-r.done:
	}
}

// Run ticks the simulation until Stop is called or ctx ends. It returns
// ctx.Err() on cancellation and nil after Stop.
func (r *Runner) Run(ctx context.Context) error {
	defer close(r.done)
	idle := time.NewTicker(idleInterval)
	defer idle.Stop()

	cycle := uint64(0)
	r.pacer.Anchor(cycle)
	r.log.Info("runner started", zap.Bool("running", r.running), zap.Int("ups", r.ups), zap.Uint64("until", r.until))
	for {
		if !r.running {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case m := <-r.ctrl:
				if r.apply(m, cycle) {
					return nil
				}
			case <-idle.C:
				r.tps.Idle()
				r.publish()
			}
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case m := <-r.ctrl:
			if r.apply(m, cycle) {
				return nil
			}
			continue
		default:
		}

		r.pacer.Wait(cycle)
		r.sim.Step()
		cycle++
		r.tps.Tick()
		tick := r.sim.Tick()
		if r.onTick != nil {
			r.onTick(tick)
		}
		if r.until != 0 && tick >= r.until {
			r.running = false
			r.log.Info("reached target tick", zap.Uint64("tick", tick))
		}
		r.publish()
	}
}

// apply handles a control message and reports whether the loop must exit.
func (r *Runner) apply(m message, cycle uint64) bool {
	switch m.kind {
	case msgRun:
		if m.running && !r.running {
			r.pacer.Anchor(cycle)
		}
		r.running = m.running
		if r.running && r.until != 0 && r.sim.Tick() >= r.until {
			r.running = false
		}
	case msgLimitUPS:
		r.ups = max(m.ups, 0)
		r.pacer.SetLimit(r.ups, cycle)
	case msgRunUntil:
		r.until = m.until
	case msgStop:
		r.log.Info("runner stopped", zap.Uint64("tick", r.sim.Tick()))
		r.running = false
		r.publish()
		return true
	}
	r.log.Debug("control", zap.Bool("running", r.running), zap.Int("ups", r.ups), zap.Uint64("until", r.until))
	r.publish()
	return false
}

func (r *Runner) publish() {
	s := Status{
		Running: r.running,
		Tick:    r.sim.Tick(),
		TPS:     r.tps.TPS(),
		TPSAvg:  r.tps.Corrected(),
		UPS:     r.ups,
		Until:   r.until,
	}
	r.mu.Lock()
	r.status = s
	r.mu.Unlock()
}
