// package io does audio out.
package io

import (
	"context"
	"fmt"
	"os"

	"github.com/gen2brain/malgo"

	"github.com/pfcm/polysynth"
	"github.com/pfcm/polysynth/internal/buffer"
)

// Sink plays audio from a Ticker with no inputs.
type Sink interface {
	// Open acquires everything needed to play t, so that a missing device
	// or unwritable file is reported before anything else starts. The
	// returned function plays until ctx is cancelled or the sink runs out,
	// then releases what Open acquired.
	Open(t polysynth.Ticker) (play func(context.Context) error, err error)
}

// Play opens s and plays t through it until ctx is done.
func Play(ctx context.Context, s Sink, t polysynth.Ticker) error {
	play, err := s.Open(t)
	if err != nil {
		return err
	}
	return play(ctx)
}

// Device plays through the system's default output device with miniaudio.
type Device struct {
	SampleRate int
	Format     Format
	// PeriodFrames asks for blocks of this many frames. Zero lets the device
	// choose.
	PeriodFrames int
	// Record, if not "", is the name of a wav file that also gets
	// everything played.
	Record string
}

var _ Sink = Device{}

// Open starts the device: t is ticking by the time it returns.
func (d Device) Open(t polysynth.Ticker) (func(context.Context) error, error) {
	if err := checkTicker(t); err != nil {
		return nil, err
	}
	format, err := d.Format.malgo()
	if err != nil {
		return nil, err
	}
	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(msg string) {
		fmt.Fprint(os.Stderr, msg)
	})
	if err != nil {
		return nil, fmt.Errorf("initialising audio context: %w", err)
	}
	freeContext := func() {
		mctx.Uninit()
		mctx.Free()
	}
	cfg := malgo.DefaultDeviceConfig(malgo.Playback)
	cfg.Playback.Format = format
	cfg.Playback.Channels = uint32(t.Outputs())
	cfg.SampleRate = uint32(d.SampleRate)
	cfg.PeriodSizeInFrames = uint32(d.PeriodFrames)

	rec, err := openRecording(d.Record, d.SampleRate, t.Outputs())
	if err != nil {
		freeContext()
		return nil, err
	}

	outputs := buffer.NewPlanar(t.Outputs(), 4096)
	send := func(out, _ []byte, framecount uint32) {
		if framecount == 0 {
			return
		}
		frames := tick(t, outputs, int(framecount))
		d.Format.appendFrames(out[:0], frames)
		rec.Write(frames)
	}

	device, err := malgo.InitDevice(mctx.Context, cfg, malgo.DeviceCallbacks{
		Data: send,
	})
	if err != nil {
		rec.Close()
		freeContext()
		return nil, fmt.Errorf("opening output device: %w", err)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		rec.Close()
		freeContext()
		return nil, fmt.Errorf("starting output device: %w", err)
	}

	return func(ctx context.Context) error {
		<-ctx.Done()
		device.Uninit()
		freeContext()
		return rec.Close()
	}, nil
}

// tick runs t for n frames, returning its outputs.
func tick(t polysynth.Ticker, outputs *buffer.Planar, n int) [][]float32 {
	frames := outputs.Frames(n)
	buffer.Clear(frames)
	t.Tick(nil, frames)
	return frames
}

func checkTicker(t polysynth.Ticker) error {
	if t.Inputs() != 0 {
		return fmt.Errorf("%v wants %d inputs: only playback is supported", t, t.Inputs())
	}
	if t.Outputs() == 0 {
		return fmt.Errorf("%v has no outputs", t)
	}
	return nil
}
