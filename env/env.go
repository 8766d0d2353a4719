// package env provides envelope generators.
package env

import (
	"fmt"
	"math"
	"time"
)

type envState byte

const (
	idle envState = iota
	attack
	sustain
	release
)

func (e envState) String() string {
	return []string{
		idle:    "x",
		attack:  "A",
		sustain: "S",
		release: "R",
	}[e]
}

// Ramp is an attack-sustain-release gain envelope for a single voice. Trigger
// ramps it linearly from 0 up to 1, where it stays until Release ramps it back
// down to 0. Zero length stages are skipped entirely, so a Ramp with no attack
// and no release is a plain gate: exactly 1 while held and 0 after.
//
// The zero value is an idle gate.
type Ramp struct {
	nAttack  int // samples
	nRelease int
	state    envState
	counter  int
	from     float64 // level when release began
	level    float64
}

// NewRamp converts the durations into sample counts at the given rate.
func NewRamp(attack, release time.Duration, samplerate float64) Ramp {
	return Ramp{
		nAttack:  int(math.Round(attack.Seconds() * samplerate)),
		nRelease: int(math.Round(release.Seconds() * samplerate)),
	}
}

func (r *Ramp) String() string {
	return fmt.Sprintf("Ramp(%d,%d)[%v]", r.nAttack, r.nRelease, r.state)
}

// Trigger restarts the envelope from silence.
func (r *Ramp) Trigger() {
	r.level = 0
	if r.nAttack > 0 {
		r.enter(attack)
		return
	}
	r.level = 1
	r.enter(sustain)
}

// Release starts the fade out from wherever the envelope currently is.
func (r *Ramp) Release() {
	if r.state == idle {
		return
	}
	if r.nRelease > 0 && r.level > 0 {
		r.from = r.level
		r.enter(release)
		return
	}
	r.level = 0
	r.enter(idle)
}

// Done reports whether the envelope has finished and outputs only zeros.
func (r *Ramp) Done() bool { return r.state == idle }

// Releasing reports whether the envelope is fading out.
func (r *Ramp) Releasing() bool { return r.state == release }

// Next returns the gain for the current sample and advances by one.
func (r *Ramp) Next() float64 {
	switch r.state {
	case attack:
		r.level = pos(0, r.counter, r.nAttack)
		r.counter++
		if r.counter >= r.nAttack {
			r.enter(sustain)
			// Next sample is at full level.
			return r.level
		}
	case sustain:
		r.level = 1
	case release:
		r.level = r.from * pos(0, r.nRelease-r.counter-1, r.nRelease)
		r.counter++
		if r.counter >= r.nRelease {
			r.enter(idle)
		}
	default:
		r.level = 0
	}
	return r.level
}

func (r *Ramp) enter(state envState) {
	r.state = state
	r.counter = 0
}

// pos returns a coefficient between 0 and 1 depending on where pos is between
// start and end.
func pos(start, pos, end int) float64 {
	return float64(pos-start) / float64(end-start)
}
