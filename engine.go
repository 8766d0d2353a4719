package polysynth

import (
	"fmt"
	"io"
	"log"

	"golang.org/x/exp/constraints"

	"github.com/pfcm/polysynth/hid"
	"github.com/pfcm/polysynth/keymap"
	"github.com/pfcm/polysynth/voice"
)

// Engine turns key events into audio. Handle is called from the input
// goroutine and Tick from the audio callback; they may run concurrently.
type Engine struct {
	channels int
	headroom float64
	notes    *keymap.NoteMap
	bindings keymap.Bindings
	perf     *voice.Performance
	pool     *voice.Pool
	log      *log.Logger

	// only touched by Tick.
	sums []float64
}

var _ Ticker = &Engine{}

// NewEngine builds an engine from cfg. A nil logger discards everything.
func NewEngine(cfg Config, logger *log.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	notes, err := keymap.NewNoteMap(cfg.White, cfg.Black)
	if err != nil {
		return nil, fmt.Errorf("building note map: %w", err)
	}
	if err := cfg.Bindings.Check(notes); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	var opts []voice.Option
	if cfg.Attack > 0 || cfg.Release > 0 {
		opts = append(opts, voice.WithFades(cfg.Attack, cfg.Release))
	}
	return &Engine{
		channels: cfg.Channels,
		headroom: cfg.Headroom,
		notes:    notes,
		bindings: cfg.Bindings,
		perf:     voice.NewPerformance(cfg.Octave, cfg.Waveform),
		pool:     voice.NewPool(notes.Len(), float64(cfg.SampleRate), opts...),
		log:      logger,
		sums:     make([]float64, 4096),
	}, nil
}

func (e *Engine) Inputs() int    { return 0 }
func (e *Engine) Outputs() int   { return e.channels }
func (e *Engine) String() string { return fmt.Sprintf("Engine(%v, %v)", e.notes, e.pool) }

// Tick renders into the first output and copies it to the rest.
func (e *Engine) Tick(_, out [][]float32) {
	if len(out) == 0 {
		return
	}
	e.Render(out[0])
	for _, o := range out[1:] {
		copy(o, out[0])
	}
}

// Render fills out with the next len(out) samples of every sounding voice.
func (e *Engine) Render(out []float32) {
	if cap(e.sums) < len(out) {
		e.sums = make([]float64, len(out))
	}
	sums := e.sums[:len(out)]
	for i := range sums {
		sums[i] = 0
	}
	// The waveform is read once so the whole block uses the same one.
	e.pool.Mix(sums, e.perf.Waveform())
	for i, s := range sums {
		out[i] = float32(clamp(s/e.headroom, -1, 1))
	}
}

// Handle applies a single key event. It reports whether the event asked to
// quit. Keys that mean nothing, and events that would not change anything,
// are ignored.
func (e *Engine) Handle(ev hid.Event) (quit bool) {
	switch ev.Type {
	case hid.Quit:
		return true
	case hid.KeyDown:
		if n, ok := e.notes.Lookup(ev.Key); ok {
			e.pool.NoteOn(n, e.perf.Octave())
			return false
		}
		return e.control(e.bindings.Lookup(ev.Key))
	case hid.KeyUp:
		if n, ok := e.notes.Lookup(ev.Key); ok {
			e.pool.NoteOff(n)
		}
	}
	return false
}

func (e *Engine) control(b keymap.Binding) (quit bool) {
	switch b.Action {
	case keymap.ActionOctaveDown:
		if e.perf.OctaveDown() {
			e.log.Printf("octave %d", e.perf.Octave())
		}
	case keymap.ActionOctaveUp:
		if e.perf.OctaveUp() {
			e.log.Printf("octave %d", e.perf.Octave())
		}
	case keymap.ActionWaveform:
		if e.perf.SetWaveform(b.Waveform) {
			e.log.Printf("waveform %v", b.Waveform)
		}
	case keymap.ActionQuit:
		return true
	}
	return false
}

// State returns the current octave and waveform.
func (e *Engine) State() voice.State { return e.perf.Snapshot() }

// Sounding returns the number of voices currently making sound.
func (e *Engine) Sounding() int { return e.pool.Active() }

// Voice returns the voice started by key, if it is sounding.
func (e *Engine) Voice(key keymap.Key) (voice.Voice, bool) {
	n, ok := e.notes.Lookup(key)
	if !ok {
		return voice.Voice{}, false
	}
	return e.pool.Voice(n.Slot)
}

func clamp[T constraints.Float](v, lo, hi T) T {
	return min(hi, max(lo, v))
}
