package io

import (
	"github.com/pfcm/polysynth"
	"github.com/pfcm/polysynth/internal/buffer"
)

// puller adapts a Ticker to the io.Reader that oto pulls from.
type puller struct {
	t       polysynth.Ticker
	rec     *WAV
	outputs *buffer.Planar
	frame   int // bytes
}

func newPuller(t polysynth.Ticker, rec *WAV) *puller {
	return &puller{
		t:       t,
		rec:     rec,
		outputs: buffer.NewPlanar(t.Outputs(), 4096),
		frame:   4 * t.Outputs(),
	}
}

func (p *puller) Read(b []byte) (int, error) {
	n := len(b) / p.frame
	if n == 0 {
		return 0, nil
	}
	frames := tick(p.t, p.outputs, n)
	out := buffer.AppendFloat32(b[:0], frames)
	p.rec.Write(frames)
	return len(out), nil
}
