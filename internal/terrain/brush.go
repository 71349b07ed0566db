package terrain

import (
	"fmt"
	"math"

	"go.uber.org/multierr"

	"terrasim/internal/gpu"
)

// DefaultBrushRadius is the erosion brush radius used when none is configured.
const DefaultBrushRadius = 3

// BrushEntry is one neighbor of a brush center and its share of the effect.
type BrushEntry struct {
	DX, DY int32
	Weight float32
}

// BrushSpan locates the entries of one cell inside BrushData.Entries.
type BrushSpan struct {
	Start, Len int32
}

// BrushData is the host form of an erosion brush: every cell's entries are
// stored back to back and Spans holds one (start, len) pair per cell.
type BrushData struct {
	W, H, Radius int
	Entries      []BrushEntry
	Spans        []BrushSpan
}

// Cell returns the brush entries centered on (x, y).
func (b BrushData) Cell(x, y int) []BrushEntry {
	s := b.Spans[y*b.W+x]
	return b.Entries[s.Start : s.Start+s.Len]
}

// BuildBrush precomputes, for every cell of a w*h grid, the in-grid neighbors
// within radius and their weights. Weights fall off linearly with distance
// and sum to one per cell.
func BuildBrush(w, h, radius int) (BrushData, error) {
	if w <= 0 || h <= 0 || radius <= 0 {
		return BrushData{}, fmt.Errorf("brush %dx%d radius %d: %w", w, h, radius, ErrInvalidSize)
	}
	b := BrushData{W: w, H: h, Radius: radius, Spans: make([]BrushSpan, 0, w*h)}
	r2 := radius * radius

	var cell []BrushEntry
	var weights []float64
	for cy := 0; cy < h; cy++ {
		for cx := 0; cx < w; cx++ {
			cell = cell[:0]
			weights = weights[:0]
			sum := 0.0
			for dy := -radius; dy <= radius; dy++ {
				for dx := -radius; dx <= radius; dx++ {
					d2 := dx*dx + dy*dy
					if d2 > r2 {
						continue
					}
					x, y := cx+dx, cy+dy
					if x < 0 || y < 0 || x >= w || y >= h {
						continue
					}
					weight := 1 - math.Sqrt(float64(d2))/float64(radius)
					sum += weight
					cell = append(cell, BrushEntry{DX: int32(dx), DY: int32(dy)})
					weights = append(weights, weight)
				}
			}
			for i := range cell {
				cell[i].Weight = float32(weights[i] / sum)
			}
			b.Spans = append(b.Spans, BrushSpan{Start: int32(len(b.Entries)), Len: int32(len(cell))})
			b.Entries = append(b.Entries, cell...)
		}
	}
	return b, nil
}

// Brush is a BrushData uploaded to the device. It is immutable and shared by
// every erosion iteration on the same grid.
type Brush struct {
	w, h, radius int
	entries      *gpu.Buffer[BrushEntry]
	spans        *gpu.Buffer[BrushSpan]
}

// NewBrush builds the brush for a w*h grid and uploads it.
func NewBrush(dev *gpu.Device, w, h, radius int) (*Brush, error) {
	data, err := BuildBrush(w, h, radius)
	if err != nil {
		return nil, err
	}
	entries, err := gpu.NewBufferFrom(dev, "brush/entries", data.Entries)
	if err != nil {
		return nil, err
	}
	spans, err := gpu.NewBufferFrom(dev, "brush/spans", data.Spans)
	if err != nil {
		return nil, multierr.Append(err, entries.Release())
	}
	return &Brush{w: w, h: h, radius: radius, entries: entries, spans: spans}, nil
}

// Radius returns the brush radius.
func (b *Brush) Radius() int { return b.radius }

// Release frees both device buffers.
func (b *Brush) Release() error {
	return multierr.Combine(b.entries.Release(), b.spans.Release())
}
