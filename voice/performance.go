package voice

import (
	"fmt"
	"sync/atomic"

	"github.com/pfcm/polysynth/osc"
)

// State is a consistent copy of the performance controls.
type State struct {
	Octave   int
	Waveform osc.Kind
}

func (s State) String() string {
	return fmt.Sprintf("OCTAVE : %d  WAVE : %s", s.Octave, s.Waveform.Display())
}

// Performance holds the controls shared by every voice: the octave new notes
// are struck in and the waveform all voices play. It is written by the input
// goroutine and read by the audio callback without locking.
type Performance struct {
	octave   atomic.Int32
	waveform atomic.Uint32
}

// NewPerformance starts at the given octave, clamped to the supported range,
// and waveform.
func NewPerformance(octave int, k osc.Kind) *Performance {
	p := &Performance{}
	p.octave.Store(int32(min(OctaveMax, max(OctaveMin, octave))))
	p.waveform.Store(uint32(k))
	return p
}

// Octave returns the octave that new notes will be struck in.
func (p *Performance) Octave() int { return int(p.octave.Load()) }

// Waveform returns the current waveform.
func (p *Performance) Waveform() osc.Kind { return osc.Kind(p.waveform.Load()) }

// Snapshot returns both controls.
func (p *Performance) Snapshot() State {
	return State{Octave: p.Octave(), Waveform: p.Waveform()}
}

// OctaveUp raises the octave by one unless it is already OctaveMax. It reports
// whether the octave changed.
func (p *Performance) OctaveUp() bool { return p.shift(1) }

// OctaveDown lowers the octave by one unless it is already OctaveMin. It
// reports whether the octave changed.
func (p *Performance) OctaveDown() bool { return p.shift(-1) }

func (p *Performance) shift(d int32) bool {
	for {
		o := p.octave.Load()
		n := o + d
		if n < OctaveMin || n > OctaveMax {
			return false
		}
		if p.octave.CompareAndSwap(o, n) {
			return true
		}
	}
}

// SetWaveform switches every voice to k. It reports whether the waveform
// changed.
func (p *Performance) SetWaveform(k osc.Kind) bool {
	return p.waveform.Swap(uint32(k)) != uint32(k)
}
