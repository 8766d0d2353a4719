package io

import (
	"context"
	"fmt"
	"time"

	"github.com/pfcm/polysynth"
	"github.com/pfcm/polysynth/internal/buffer"
)

// Offline renders without a sound card, into a wav file if Record is set.
// Useful for headless machines and for checking what the engine produces.
type Offline struct {
	SampleRate int
	// BlockFrames is the number of frames per tick. Zero means 512.
	BlockFrames int
	// Duration stops rendering after this much audio. Zero renders until
	// ctx is done.
	Duration time.Duration
	// Realtime paces the blocks to the wall clock the way a device would,
	// so that live input lands at the time it was played.
	Realtime bool
	Record   string
}

var _ Sink = Offline{}

func (o Offline) Open(t polysynth.Ticker) (func(context.Context) error, error) {
	if err := checkTicker(t); err != nil {
		return nil, err
	}
	if o.SampleRate <= 0 {
		return nil, fmt.Errorf("sample rate %d must be positive", o.SampleRate)
	}
	if o.Duration <= 0 && !o.Realtime {
		return nil, fmt.Errorf("rendering forever as fast as possible: set a duration or realtime")
	}
	block := o.BlockFrames
	if block <= 0 {
		block = 512
	}
	total := -1
	if o.Duration > 0 {
		total = int(o.Duration.Seconds() * float64(o.SampleRate))
	}

	rec, err := openRecording(o.Record, o.SampleRate, t.Outputs())
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context) error {
		return o.render(ctx, t, rec, block, total)
	}, nil
}

// render ticks t total frames, or forever if total is negative, in blocks of
// block frames.
func (o Offline) render(ctx context.Context, t polysynth.Ticker, rec *WAV, block, total int) error {
	var pace <-chan time.Time
	if o.Realtime {
		clock := time.NewTicker(time.Duration(float64(block) / float64(o.SampleRate) * float64(time.Second)))
		defer clock.Stop()
		pace = clock.C
	}

	outputs := buffer.NewPlanar(t.Outputs(), block)
	for rendered := 0; total < 0 || rendered < total; {
		n := block
		if total >= 0 {
			n = min(n, total-rendered)
		}
		rec.Write(tick(t, outputs, n))
		rendered += n

		if pace == nil {
			if ctx.Err() != nil {
				break
			}
			continue
		}
		select {
		case <-ctx.Done():
			return rec.Close()
		case <-pace:
		}
	}
	return rec.Close()
}
