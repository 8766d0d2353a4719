// package buffer provides some audio buffer primitives.
package buffer

import (
	"encoding/binary"
	"math"
)

// Planar is a set of per-channel sample buffers that are reused from one audio
// callback to the next. Only growing the block size allocates.
type Planar struct {
	store [][]float32
	view  [][]float32
}

// NewPlanar allocates channels buffers with room for frames samples each.
func NewPlanar(channels, frames int) *Planar {
	p := &Planar{
		store: make([][]float32, channels),
		view:  make([][]float32, channels),
	}
	for i := range p.store {
		p.store[i] = make([]float32, frames)
	}
	return p
}

func (p *Planar) Channels() int { return len(p.store) }

// Frames returns a view of every channel with exactly n samples. The contents
// are whatever was there before; callers overwrite them.
func (p *Planar) Frames(n int) [][]float32 {
	for i, s := range p.store {
		if cap(s) < n {
			s = make([]float32, n)
			p.store[i] = s
		}
		p.view[i] = s[:n]
	}
	return p.view
}

// Clear zeroes every channel of bufs.
func Clear(bufs [][]float32) {
	for _, b := range bufs {
		for i := range b {
			b[i] = 0
		}
	}
}

// AppendFloat32 interleaves src into dst as little-endian 32 bit floats, one
// frame at a time.
func AppendFloat32(dst []byte, src [][]float32) []byte {
	if len(src) == 0 {
		return dst
	}
	for i := range src[0] {
		for _, c := range src {
			dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(c[i]))
		}
	}
	return dst
}

// AppendInt16 interleaves src into dst as little-endian signed 16 bit
// integers, clipping anything outside [-1, 1].
func AppendInt16(dst []byte, src [][]float32) []byte {
	if len(src) == 0 {
		return dst
	}
	for i := range src[0] {
		for _, c := range src {
			dst = binary.LittleEndian.AppendUint16(dst, uint16(ToInt16(c[i])))
		}
	}
	return dst
}

// AppendInts interleaves src into dst as 16 bit values held in ints.
func AppendInts(dst []int, src [][]float32) []int {
	if len(src) == 0 {
		return dst
	}
	for i := range src[0] {
		for _, c := range src {
			dst = append(dst, int(ToInt16(c[i])))
		}
	}
	return dst
}

// ToInt16 converts a sample in [-1, 1] to 16 bits, clipping anything outside.
func ToInt16(f float32) int16 {
	f = min(1, max(-1, f))
	return int16(f * math.MaxInt16)
}
