// package osc provides oscillators.
package osc

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Kind is a waveform shape. The set is closed: every function in this package
// switches over all of them.
type Kind byte

const (
	Sine Kind = iota
	Triangle
	Square
	Sawtooth
)

// Kinds lists every waveform in selection order.
var Kinds = []Kind{Sine, Triangle, Square, Sawtooth}

var ErrUnknownWaveform = errors.New("unknown waveform")

func (k Kind) String() string {
	switch k {
	case Sine:
		return "sine"
	case Triangle:
		return "triangle"
	case Square:
		return "square"
	case Sawtooth:
		return "sawtooth"
	}
	return fmt.Sprintf("Kind(%d)", byte(k))
}

var upper = cases.Upper(language.Und)

// Display returns the name shown in the status line, eg. "SAWTOOTH".
func (k Kind) Display() string {
	return upper.String(k.String())
}

// ParseKind is the inverse of Kind.String. It ignores case.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if strings.EqualFold(s, k.String()) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownWaveform, s)
}

// Amplitude evaluates one period of the waveform at phase, which should be in
// [0, 1). The result is always in [-1, 1]. Unknown kinds are silent.
func Amplitude(k Kind, phase float64) float64 {
	switch k {
	case Sine:
		return math.Sin(2 * math.Pi * phase)
	case Triangle:
		// Rises 0 -> 1 over the first quarter, falls to -1 at three
		// quarters and comes back up to 0.
		switch {
		case phase < 0.25:
			return 4 * phase
		case phase < 0.75:
			return 2 - 4*phase
		default:
			return 4*phase - 4
		}
	case Square:
		if phase < 0.5 {
			return 1
		}
		return -1
	case Sawtooth:
		return 2*phase - 1
	}
	return 0
}

// NoteFrequency converts a (possibly fractional) MIDI note number into Hz,
// tuned to A4 = 440Hz.
func NoteFrequency(note float64) float64 {
	return math.Pow(2.0, (note-69)/12) * 440
}

// Step is how far through a period the phase advances per output sample at
// the given frequency.
func Step(freq, samplerate float64) float64 {
	return freq / samplerate
}

// Advance moves phase on by step, wrapping back into [0, 1).
func Advance(phase, step float64) float64 {
	phase += step
	if phase >= 1 {
		phase -= math.Floor(phase)
	}
	return phase
}
