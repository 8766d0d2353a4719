package io

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/pfcm/polysynth/internal/buffer"
)

// WAV writes 16 bit PCM to a wav file. It is safe to Write from the audio
// callback while something else calls Close. A nil *WAV discards everything.
type WAV struct {
	path string

	mu     sync.Mutex
	f      *os.File
	enc    *wav.Encoder
	buf    *audio.IntBuffer
	frames int
	err    error
	closed bool
}

// CreateWAV creates (or truncates) the file at path.
func CreateWAV(path string, samplerate, channels int) (*WAV, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating wav file: %w", err)
	}
	return &WAV{
		path: path,
		f:    f,
		enc:  wav.NewEncoder(f, samplerate, 16, channels, 1),
		buf: &audio.IntBuffer{
			Format: &audio.Format{
				NumChannels: channels,
				SampleRate:  samplerate,
			},
			SourceBitDepth: 16,
		},
	}, nil
}

func openRecording(path string, samplerate, channels int) (*WAV, error) {
	if path == "" {
		return nil, nil
	}
	return CreateWAV(path, samplerate, channels)
}

// Write appends one block of planar audio. After the first error every
// Write is dropped and Close reports the error.
func (w *WAV) Write(src [][]float32) {
	if w == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil || w.closed {
		return
	}
	w.buf.Data = buffer.AppendInts(w.buf.Data[:0], src)
	if err := w.enc.Write(w.buf); err != nil {
		w.err = fmt.Errorf("writing %s: %w", w.path, err)
		return
	}
	if len(src) > 0 {
		w.frames += len(src[0])
	}
}

// Frames returns the number of frames written so far.
func (w *WAV) Frames() int {
	if w == nil {
		return 0
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.frames
}

// Close finishes the header and closes the file.
func (w *WAV) Close() error {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return w.err
	}
	w.closed = true
	if err := w.enc.Close(); err != nil {
		w.err = errors.Join(w.err, fmt.Errorf("finishing %s: %w", w.path, err))
	}
	if err := w.f.Close(); err != nil {
		w.err = errors.Join(w.err, err)
	}
	return w.err
}
