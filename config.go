package polysynth

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/pfcm/polysynth/keymap"
	"github.com/pfcm/polysynth/osc"
	"github.com/pfcm/polysynth/voice"
)

// Config is everything needed to build an Engine.
type Config struct {
	SampleRate int
	// Channels is the number of output channels. Every channel carries the
	// same signal.
	Channels int
	// Headroom divides the sum of all voices before it is clipped to
	// [-1, 1]. It does not depend on how many voices are sounding.
	Headroom float64
	Octave   int
	Waveform osc.Kind
	// Attack and Release fade notes in and out. Zero means start or stop
	// immediately.
	Attack, Release time.Duration

	White, Black []keymap.Key
	Bindings     keymap.Bindings
}

func DefaultConfig() Config {
	return Config{
		SampleRate: 44100,
		Channels:   2,
		Headroom:   4,
		Octave:     voice.ReferenceOctave,
		Waveform:   osc.Sine,
		White:      keymap.DefaultWhite,
		Black:      keymap.DefaultBlack,
		Bindings:   keymap.DefaultBindings(),
	}
}

// Validate checks the parts of the config that don't need building.
func (c Config) Validate() error {
	var errs []error
	if c.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("sample rate %d must be positive", c.SampleRate))
	}
	if c.Channels <= 0 {
		errs = append(errs, fmt.Errorf("%d channels, need at least one", c.Channels))
	}
	if !(c.Headroom > 0) || math.IsInf(c.Headroom, 0) {
		errs = append(errs, fmt.Errorf("headroom %v must be positive and finite", c.Headroom))
	}
	if c.Octave < voice.OctaveMin || c.Octave > voice.OctaveMax {
		errs = append(errs, fmt.Errorf("octave %d outside [%d, %d]", c.Octave, voice.OctaveMin, voice.OctaveMax))
	}
	if c.Attack < 0 || c.Release < 0 {
		errs = append(errs, fmt.Errorf("negative fade (attack %v, release %v)", c.Attack, c.Release))
	}
	if _, err := osc.ParseKind(c.Waveform.String()); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
