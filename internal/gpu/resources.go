package gpu

import (
	"fmt"
	"sync/atomic"

	"go.uber.org/multierr"
)

// Texel enumerates the element types a Texture can hold.
type Texel interface {
	~uint8 | ~int32 | ~uint32 | ~float32
}

// Texture is a 2D device image addressed row-major.
type Texture[T Texel] struct {
	resource
	w, h   int
	texels []T
}

// NewTexture allocates a zeroed w*h texture.
func NewTexture[T Texel](d *Device, label string, w, h int) (*Texture[T], error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("texture %q %dx%d: %w", label, w, h, ErrInvalidSize)
	}
	res, err := d.register(label)
	if err != nil {
		return nil, err
	}
	return &Texture[T]{resource: res, w: w, h: h, texels: make([]T, w*h)}, nil
}

// Size returns the texture dimensions.
func (t *Texture[T]) Size() (int, int) { return t.w, t.h }

// Texels is the device-side view used by kernels. Host code must go through
// Upload and Download so it is ordered against queued work.
func (t *Texture[T]) Texels() []T { return t.texels }

// Upload waits for queued work and replaces the texture contents.
func (t *Texture[T]) Upload(src []T) error {
	if len(src) != len(t.texels) {
		return fmt.Errorf("upload %q: %d texels into %d: %w", t.label, len(src), len(t.texels), ErrInvalidSize)
	}
	t.dev.Finish()
	copy(t.texels, src)
	return nil
}

// Download waits for queued work and copies the texture into dst, allocating
// when dst is too small.
func (t *Texture[T]) Download(dst []T) []T {
	t.dev.Finish()
	if cap(dst) < len(t.texels) {
		dst = make([]T, len(t.texels))
	}
	dst = dst[:len(t.texels)]
	copy(dst, t.texels)
	return dst
}

// Release frees the texture.
func (t *Texture[T]) Release() error {
	if err := t.release(); err != nil {
		return err
	}
	t.texels = nil
	return nil
}

// Buffer is a linear device allocation, the storage-buffer counterpart of
// Texture.
type Buffer[T any] struct {
	resource
	data []T
}

// NewBufferFrom allocates a buffer initialized with a copy of src.
func NewBufferFrom[T any](d *Device, label string, src []T) (*Buffer[T], error) {
	res, err := d.register(label)
	if err != nil {
		return nil, err
	}
	data := make([]T, len(src))
	copy(data, src)
	return &Buffer[T]{resource: res, data: data}, nil
}

// Len reports the element count.
func (b *Buffer[T]) Len() int { return len(b.data) }

// Data is the device-side view used by kernels.
func (b *Buffer[T]) Data() []T { return b.data }

// Release frees the buffer.
func (b *Buffer[T]) Release() error {
	if err := b.release(); err != nil {
		return err
	}
	b.data = nil
	return nil
}

// Counter is a single atomically updated device word.
type Counter struct {
	resource
	v atomic.Uint32
}

// NewCounter allocates a counter holding initial.
func NewCounter(d *Device, label string, initial uint32) (*Counter, error) {
	res, err := d.register(label)
	if err != nil {
		return nil, err
	}
	c := &Counter{resource: res}
	c.v.Store(initial)
	return c, nil
}

// Add increments the counter from a kernel.
func (c *Counter) Add(n uint32) { c.v.Add(n) }

// Store waits for queued work and overwrites the counter from the host.
func (c *Counter) Store(v uint32) {
	c.dev.Finish()
	c.v.Store(v)
}

// Release frees the counter.
func (c *Counter) Release() error { return c.release() }

// PingPong pairs two equally sized textures: Front is the readable state
// between passes, Back is the scratch target a pass writes into.
type PingPong[T Texel] struct {
	front, back *Texture[T]
}

// NewPingPong allocates both halves of a double buffer.
func NewPingPong[T Texel](d *Device, label string, w, h int) (*PingPong[T], error) {
	front, err := NewTexture[T](d, label+"/a", w, h)
	if err != nil {
		return nil, err
	}
	back, err := NewTexture[T](d, label+"/b", w, h)
	if err != nil {
		return nil, multierr.Append(err, front.Release())
	}
	return &PingPong[T]{front: front, back: back}, nil
}

// Front returns the current texture.
func (p *PingPong[T]) Front() *Texture[T] { return p.front }

// Back returns the scratch texture.
func (p *PingPong[T]) Back() *Texture[T] { return p.back }

// Swap exchanges the roles of the two textures.
func (p *PingPong[T]) Swap() { p.front, p.back = p.back, p.front }

// Size returns the dimensions shared by both textures.
func (p *PingPong[T]) Size() (int, int) { return p.front.Size() }

// Release frees both textures.
func (p *PingPong[T]) Release() error {
	return multierr.Combine(p.front.Release(), p.back.Release())
}
