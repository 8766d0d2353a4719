//go:build headless

package io

import (
	"context"
	"errors"
	"time"

	"github.com/pfcm/polysynth"
)

// Oto is unavailable in headless builds; use Device or Offline.
type Oto struct {
	SampleRate int
	BufferSize time.Duration
	Record     string
}

var _ Sink = Oto{}

func (Oto) Open(polysynth.Ticker) (func(context.Context) error, error) {
	return nil, errors.New("no oto support in headless builds")
}
