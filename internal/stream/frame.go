package stream

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// frameHeader is the byte size of the frame prefix: width, height, tick.
const frameHeader = 4 + 4 + 8

// ErrBadFrame is returned when a binary frame cannot be decoded.
var ErrBadFrame = errors.New("stream: malformed frame")

// Frame is one published snapshot of the height field.
type Frame struct {
	W, H    int
	Tick    uint64
	Heights []int32
}

// EncodeFrame writes f as little-endian uint32 width, uint32 height,
// uint64 tick followed by the row-major int32 heights.
func EncodeFrame(f Frame) []byte {
	buf := make([]byte, frameHeader+4*len(f.Heights))
	binary.LittleEndian.PutUint32(buf[0:], uint32(f.W))
	binary.LittleEndian.PutUint32(buf[4:], uint32(f.H))
	binary.LittleEndian.PutUint64(buf[8:], f.Tick)
	off := frameHeader
	for _, h := range f.Heights {
		binary.LittleEndian.PutUint32(buf[off:], uint32(h))
		off += 4
	}
	return buf
}

// DecodeFrame parses a frame produced by EncodeFrame.
func DecodeFrame(b []byte) (Frame, error) {
	if len(b) < frameHeader {
		return Frame{}, fmt.Errorf("%w: %d bytes", ErrBadFrame, len(b))
	}
	f := Frame{
		W:    int(binary.LittleEndian.Uint32(b[0:])),
		H:    int(binary.LittleEndian.Uint32(b[4:])),
		Tick: binary.LittleEndian.Uint64(b[8:]),
	}
	cells := f.W * f.H
	if len(b)-frameHeader != 4*cells {
		return Frame{}, fmt.Errorf("%w: %dx%d needs %d bytes, got %d", ErrBadFrame, f.W, f.H, frameHeader+4*cells, len(b))
	}
	f.Heights = make([]int32, cells)
	for i := range f.Heights {
		f.Heights[i] = int32(binary.LittleEndian.Uint32(b[frameHeader+4*i:]))
	}
	return f, nil
}
