// Package gpu provides an in-process compute device: data-parallel kernels are
// queued on a command stream, run across worker goroutines and ordered with
// explicit barriers and fences, the way compute shaders are driven on a GL
// context. Device memory (textures, buffers, counters) is owned by handles
// that must be released exactly once.
package gpu

import (
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrClosed is returned when allocating on a device that was closed.
	ErrClosed = errors.New("gpu: device closed")
	// ErrReleased is returned when a resource is released twice.
	ErrReleased = errors.New("gpu: resource already released")
	// ErrLeaked is returned by Close when resources are still alive.
	ErrLeaked = errors.New("gpu: resources leaked")
	// ErrInvalidSize is returned for empty or mismatched allocations.
	ErrInvalidSize = errors.New("gpu: invalid size")
)

// Kernel is one invocation of a compute program at grid position (x, y).
type Kernel func(x, y int)

type cmdKind uint8

const (
	cmdDispatch cmdKind = iota
	cmdBarrier
	cmdFence
)

type command struct {
	kind   cmdKind
	label  string
	w, h   int
	kernel Kernel
	done   chan struct{}
}

// Option configures a Device.
type Option func(*Device)

// WithWorkers sets how many goroutines execute a single dispatch.
func WithWorkers(n int) Option {
	return func(d *Device) {
		if n > 0 {
			d.workers = n
		}
	}
}

// WithLogger attaches a logger used for queue and leak diagnostics.
func WithLogger(log *zap.Logger) Option {
	return func(d *Device) {
		if log != nil {
			d.log = log
		}
	}
}

// Device executes queued kernels on its own goroutine. Commands submitted by
// the host run in order; dispatches that are not separated by a Barrier may
// overlap.
type Device struct {
	workers int
	log     *zap.Logger

	queue   chan command
	stopped chan struct{}

	mu     sync.RWMutex
	closed bool

	resMu  sync.Mutex
	nextID uint64
	live   map[uint64]string

	dispatches atomic.Uint64
}

// NewDevice starts a device with one worker per available CPU by default.
func NewDevice(opts ...Option) *Device {
	d := &Device{
		workers: runtime.GOMAXPROCS(0),
		log:     zap.NewNop(),
		queue:   make(chan command, 64),
		stopped: make(chan struct{}),
		live:    map[uint64]string{},
	}
	for _, opt := range opts {
		opt(d)
	}
	go d.loop()
	return d
}

// Workers reports the dispatch parallelism.
func (d *Device) Workers() int { return d.workers }

// Dispatches reports how many kernels have been submitted.
func (d *Device) Dispatches() uint64 { return d.dispatches.Load() }

// Dispatch queues kernel over a w*h grid and returns without waiting.
// Dispatching on a closed device is a programming error and panics.
func (d *Device) Dispatch(label string, w, h int, kernel Kernel) {
	if w <= 0 || h <= 0 || kernel == nil {
		return
	}
	d.dispatches.Add(1)
	if !d.submit(command{kind: cmdDispatch, label: label, w: w, h: h, kernel: kernel}) {
		panic(fmt.Errorf("dispatch %q: %w", label, ErrClosed))
	}
}

// Barrier makes every later command observe the writes of every earlier one.
func (d *Device) Barrier() {
	if !d.submit(command{kind: cmdBarrier}) {
		panic(fmt.Errorf("barrier: %w", ErrClosed))
	}
}

// Finish blocks until all submitted work has completed.
func (d *Device) Finish() {
	done := make(chan struct{})
	if !d.submit(command{kind: cmdFence, done: done}) {
		return
	}
	<-done
}

// ReadCounter is the synchronous checkpoint of the command stream: it stalls
// the host until the device is idle and then reads c.
func (d *Device) ReadCounter(c *Counter) uint32 {
	d.Finish()
	return c.v.Load()
}

// Close drains the queue and stops the device. Resources still alive at this
// point are reported through ErrLeaked.
func (d *Device) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrClosed
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()
	<-d.stopped

	if live := d.Live(); len(live) > 0 {
		d.log.Warn("device closed with live resources", zap.Strings("resources", live))
		return fmt.Errorf("%w: %s", ErrLeaked, strings.Join(live, ", "))
	}
	return nil
}

// Live lists the labels of resources that have not been released.
func (d *Device) Live() []string {
	d.resMu.Lock()
	defer d.resMu.Unlock()
	out := make([]string, 0, len(d.live))
	for _, label := range d.live {
		out = append(out, label)
	}
	sort.Strings(out)
	return out
}

func (d *Device) submit(cmd command) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return false
	}
	d.queue <- cmd
	return true
}

func (d *Device) loop() {
	defer close(d.stopped)
	var inflight sync.WaitGroup
	for cmd := range d.queue {
		switch cmd.kind {
		case cmdDispatch:
			inflight.Add(1)
			go func(c command) {
				defer inflight.Done()
				d.run(c)
			}(cmd)
		case cmdBarrier:
			inflight.Wait()
		case cmdFence:
			inflight.Wait()
			close(cmd.done)
		}
	}
	inflight.Wait()
}

// run splits the invocation range into chunks and executes them with at most
// d.workers goroutines.
func (d *Device) run(c command) {
	total := c.w * c.h
	chunk := (total + d.workers*4 - 1) / (d.workers * 4)
	if chunk < 64 {
		chunk = 64
	}
	var g errgroup.Group
	g.SetLimit(d.workers)
	for start := 0; start < total; start += chunk {
		end := min(start+chunk, total)
		g.Go(func() error {
			for i := start; i < end; i++ {
				c.kernel(i%c.w, i/c.w)
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (d *Device) register(label string) (resource, error) {
	d.mu.RLock()
	closed := d.closed
	d.mu.RUnlock()
	if closed {
		return resource{}, fmt.Errorf("allocate %q: %w", label, ErrClosed)
	}
	d.resMu.Lock()
	defer d.resMu.Unlock()
	d.nextID++
	d.live[d.nextID] = label
	return resource{dev: d, id: d.nextID, label: label, released: new(atomic.Bool)}, nil
}

func (d *Device) unregister(id uint64) {
	d.resMu.Lock()
	delete(d.live, id)
	d.resMu.Unlock()
}

// resource is the ownership record shared by every device allocation.
type resource struct {
	dev      *Device
	id       uint64
	label    string
	released *atomic.Bool
}

// Label returns the debug name given at allocation.
func (r resource) Label() string { return r.label }

func (r resource) release() error {
	if r.released == nil || !r.released.CompareAndSwap(false, true) {
		return fmt.Errorf("release %q: %w", r.label, ErrReleased)
	}
	r.dev.unregister(r.id)
	return nil
}
