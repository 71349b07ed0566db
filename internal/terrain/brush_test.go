package terrain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildBrushWeightsSumToOneInsideGrid(t *testing.T) {
	cases := []struct{ w, h, r int }{
		{1, 1, 3},
		{2, 9, 1},
		{8, 8, 3},
		{5, 13, 2},
		{64, 64, 3},
		{4, 4, 6},
	}
	for _, tc := range cases {
		b, err := BuildBrush(tc.w, tc.h, tc.r)
		require.NoError(t, err)
		require.Len(t, b.Spans, tc.w*tc.h)
		for y := 0; y < tc.h; y++ {
			for x := 0; x < tc.w; x++ {
				entries := b.Cell(x, y)
				require.NotEmpty(t, entries)
				sum := 0.0
				for _, e := range entries {
					ax, ay := x+int(e.DX), y+int(e.DY)
					require.True(t, ax >= 0 && ay >= 0 && ax < tc.w && ay < tc.h,
						"%dx%d r%d: cell (%d,%d) reaches (%d,%d)", tc.w, tc.h, tc.r, x, y, ax, ay)
					require.LessOrEqual(t, int(e.DX*e.DX+e.DY*e.DY), tc.r*tc.r)
					sum += float64(e.Weight)
				}
				assert.InDelta(t, 1.0, sum, 1e-4, "%dx%d r%d cell (%d,%d)", tc.w, tc.h, tc.r, x, y)
			}
		}
	}
}

func TestBuildBrushInteriorShape(t *testing.T) {
	b, err := BuildBrush(16, 16, 3)
	require.NoError(t, err)
	entries := b.Cell(8, 8)
	assert.Len(t, entries, 29)

	var center, edge float32
	for _, e := range entries {
		switch {
		case e.DX == 0 && e.DY == 0:
			center = e.Weight
		case e.DX == 3 && e.DY == 0:
			edge = e.Weight
		}
		assert.GreaterOrEqual(t, e.Weight, float32(0))
	}
	assert.Zero(t, edge, "weight vanishes at the radius")
	for _, e := range entries {
		assert.LessOrEqual(t, e.Weight, center)
	}
}

func TestBuildBrushRejectsInvalidSizes(t *testing.T) {
	for _, tc := range []struct{ w, h, r int }{{0, 4, 1}, {4, 0, 1}, {4, 4, 0}, {4, 4, -2}} {
		_, err := BuildBrush(tc.w, tc.h, tc.r)
		assert.True(t, errors.Is(err, ErrInvalidSize), "%+v", tc)
	}
}

func TestNewBrushOwnsDeviceBuffers(t *testing.T) {
	dev := newDevice(t)
	b, err := NewBrush(dev, 10, 6, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"brush/entries", "brush/spans"}, dev.Live())
	assert.Equal(t, 60, b.spans.Len())
	assert.Equal(t, 2, b.Radius())

	require.NoError(t, b.Release())
	assert.Empty(t, dev.Live())
	assert.Error(t, b.Release())
}
