// package voice tracks which notes are sounding.
package voice

import (
	"fmt"
	"sync"
	"time"

	"github.com/pfcm/polysynth/env"
	"github.com/pfcm/polysynth/keymap"
	"github.com/pfcm/polysynth/osc"
)

const (
	OctaveMin = 1
	OctaveMax = 7
	// ReferenceOctave is the octave containing middle C, MIDI note 60.
	ReferenceOctave = 4
)

// Frequency returns the equal-tempered frequency of the note degree semitones
// above C in the given octave.
func Frequency(degree, octave int) float64 {
	note := 12*(octave+1) + degree
	return osc.NoteFrequency(float64(note))
}

// Voice is a single oscillator started by a key.
type Voice struct {
	Key       keymap.Key
	Frequency float64
	// Phase is the position within the current period, in [0, 1).
	Phase float64

	step   float64
	gain   env.Ramp
	held   bool
	active bool
}

// Held reports whether the key that started the voice is still down.
func (v Voice) Held() bool { return v.held }

func (v Voice) String() string {
	return fmt.Sprintf("Voice(%s, %.2fHz, %.4f)", v.Key, v.Frequency, v.Phase)
}

// Pool holds one voice slot per note in a keymap.NoteMap. All methods are safe
// to call concurrently; Mix is intended to be called from the audio callback
// and the others from the input goroutine.
type Pool struct {
	samplerate float64
	ramp       env.Ramp

	mu     sync.Mutex
	voices []Voice
}

// Option configures a Pool.
type Option func(*Pool)

// WithFades fades voices in over attack and out over release rather than
// starting and stopping them abruptly. A released voice keeps sounding until
// its fade ends, but its key counts as up.
func WithFades(attack, release time.Duration) Option {
	return func(p *Pool) {
		p.ramp = env.NewRamp(attack, release, p.samplerate)
	}
}

// NewPool creates a pool with the given number of slots, usually
// NoteMap.Len().
func NewPool(slots int, samplerate float64, opts ...Option) *Pool {
	p := &Pool{
		samplerate: samplerate,
		voices:     make([]Voice, slots),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

func (p *Pool) String() string { return fmt.Sprintf("Pool(%d)", len(p.voices)) }

// NoteOn starts a voice for n at the given octave. It reports whether anything
// changed: a note that is already held is left exactly as it is.
func (p *Pool) NoteOn(n keymap.Note, octave int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	v := &p.voices[n.Slot]
	if v.held {
		return false
	}
	f := Frequency(n.Degree, octave)
	*v = Voice{
		Key:       n.Key,
		Frequency: f,
		step:      osc.Step(f, p.samplerate),
		gain:      p.ramp,
		held:      true,
		active:    true,
	}
	v.gain.Trigger()
	return true
}

// NoteOff releases the voice for n. It reports whether n was held.
func (p *Pool) NoteOff(n keymap.Note) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	v := &p.voices[n.Slot]
	if !v.held {
		return false
	}
	v.held = false
	v.gain.Release()
	if v.gain.Done() {
		*v = Voice{}
	}
	return true
}

// Voice returns a copy of the voice in slot, and whether it is making sound.
func (p *Pool) Voice(slot int) (Voice, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v := p.voices[slot]
	return v, v.active
}

// Held returns the number of notes whose keys are down.
func (p *Pool) Held() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, v := range p.voices {
		if v.held {
			n++
		}
	}
	return n
}

// Active returns the number of voices making sound, including any that are
// fading out.
func (p *Pool) Active() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, v := range p.voices {
		if v.active {
			n++
		}
	}
	return n
}

// Mix adds the output of every active voice, using waveform k, into sums and
// advances their phases by len(sums) samples. The lock is held for the whole
// block so voices never appear or vanish part way through it.
func (p *Pool) Mix(sums []float64, k osc.Kind) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.voices {
		v := &p.voices[i]
		if !v.active {
			continue
		}
		for j := range sums {
			sums[j] += osc.Amplitude(k, v.Phase) * v.gain.Next()
			v.Phase = osc.Advance(v.Phase, v.step)
		}
		if !v.held && v.gain.Done() {
			*v = Voice{}
		}
	}
}
