//go:build !headless

package io

import (
	"context"
	"fmt"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/pfcm/polysynth"
)

// Oto plays through oto, which pulls 32 bit float samples. Only one Oto can
// ever be played per process.
type Oto struct {
	SampleRate int
	// BufferSize is the amount of audio oto keeps queued. Zero uses oto's
	// default.
	BufferSize time.Duration
	Record     string
}

var _ Sink = Oto{}

func (o Oto) Open(t polysynth.Ticker) (func(context.Context) error, error) {
	if err := checkTicker(t); err != nil {
		return nil, err
	}
	rec, err := openRecording(o.Record, o.SampleRate, t.Outputs())
	if err != nil {
		return nil, err
	}
	octx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   o.SampleRate,
		ChannelCount: t.Outputs(),
		Format:       oto.FormatFloat32LE,
		BufferSize:   o.BufferSize,
	})
	if err != nil {
		rec.Close()
		return nil, fmt.Errorf("opening oto context: %w", err)
	}
	<-ready
	p := octx.NewPlayer(newPuller(t, rec))

	return func(ctx context.Context) error {
		p.Play()
		<-ctx.Done()
		if err := p.Close(); err != nil {
			rec.Close()
			return fmt.Errorf("closing oto player: %w", err)
		}
		return rec.Close()
	}, nil
}
