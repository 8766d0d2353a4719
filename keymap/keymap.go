// package keymap maps physical keys onto notes and controls.
package keymap

import (
	"fmt"

	"github.com/pfcm/polysynth/osc"
)

// Key names a physical key. Names follow ebiten's key names: "A", "Digit1",
// "Escape".
type Key string

// Note is a key bound to a scale degree.
type Note struct {
	Key Key
	// Degree is the number of semitones above the root C. The last white key
	// of the default layout is the next C, 12.
	Degree int
	// Slot is the position of the note within its NoteMap, in [0, Len).
	Slot  int
	Black bool
}

var (
	// DefaultWhite is the home row: C D E F G A B C.
	DefaultWhite = []Key{"A", "S", "D", "F", "G", "H", "J", "K"}
	// DefaultBlack is the row above: C# D# F# G# A#.
	DefaultBlack = []Key{"W", "E", "T", "Y", "U"}
)

var (
	whiteDegrees = []int{0, 2, 4, 5, 7, 9, 11, 12}
	blackDegrees = []int{1, 3, 6, 8, 10}
)

// NoteMap is a fixed lookup from keys to notes. It is immutable once built and
// safe for concurrent use.
type NoteMap struct {
	notes []Note
	byKey map[Key]int
}

// NewNoteMap lays out white keys and black keys from C upwards. Either row may
// be shorter than a full octave, but not longer.
func NewNoteMap(white, black []Key) (*NoteMap, error) {
	if len(white) > len(whiteDegrees) {
		return nil, fmt.Errorf("%d white keys, at most %d allowed", len(white), len(whiteDegrees))
	}
	if len(black) > len(blackDegrees) {
		return nil, fmt.Errorf("%d black keys, at most %d allowed", len(black), len(blackDegrees))
	}
	m := &NoteMap{
		notes: make([]Note, 0, len(white)+len(black)),
		byKey: make(map[Key]int, len(white)+len(black)),
	}
	add := func(k Key, degree int, black bool) error {
		if k == "" {
			return fmt.Errorf("empty key for degree %d", degree)
		}
		if _, ok := m.byKey[k]; ok {
			return fmt.Errorf("key %q bound twice", k)
		}
		n := Note{Key: k, Degree: degree, Slot: len(m.notes), Black: black}
		m.byKey[k] = n.Slot
		m.notes = append(m.notes, n)
		return nil
	}
	for i, k := range white {
		if err := add(k, whiteDegrees[i], false); err != nil {
			return nil, err
		}
	}
	for i, k := range black {
		if err := add(k, blackDegrees[i], true); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// DefaultNoteMap returns the layout from DefaultWhite and DefaultBlack.
func DefaultNoteMap() *NoteMap {
	m, err := NewNoteMap(DefaultWhite, DefaultBlack)
	if err != nil {
		panic(err)
	}
	return m
}

// Lookup returns the note bound to k, if there is one.
func (m *NoteMap) Lookup(k Key) (Note, bool) {
	i, ok := m.byKey[k]
	if !ok {
		return Note{}, false
	}
	return m.notes[i], true
}

// Len is the number of bound notes. Slots are always less than Len.
func (m *NoteMap) Len() int { return len(m.notes) }

// Notes returns every note in slot order.
func (m *NoteMap) Notes() []Note {
	return append([]Note(nil), m.notes...)
}

func (m *NoteMap) String() string {
	return fmt.Sprintf("NoteMap(%d)", len(m.notes))
}

// Action is something a non-note key does.
type Action byte

const (
	ActionNone Action = iota
	ActionOctaveDown
	ActionOctaveUp
	ActionWaveform
	ActionQuit
)

func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionOctaveDown:
		return "octave-down"
	case ActionOctaveUp:
		return "octave-up"
	case ActionWaveform:
		return "waveform"
	case ActionQuit:
		return "quit"
	}
	return fmt.Sprintf("Action(%d)", byte(a))
}

// Binding is the control bound to a key. Waveform is only meaningful for
// ActionWaveform.
type Binding struct {
	Action   Action
	Waveform osc.Kind
}

// Bindings maps keys to controls. The zero Binding is ActionNone, so unbound
// keys need no special handling.
type Bindings map[Key]Binding

// DefaultBindings are Z/X for octave down/up, 1 to 4 for the waveforms and
// Escape to quit.
func DefaultBindings() Bindings {
	b := Bindings{
		"Z":      {Action: ActionOctaveDown},
		"X":      {Action: ActionOctaveUp},
		"Escape": {Action: ActionQuit},
	}
	for i, k := range osc.Kinds {
		b[Key(fmt.Sprintf("Digit%d", i+1))] = Binding{Action: ActionWaveform, Waveform: k}
	}
	return b
}

// Lookup returns the binding for k, or the zero Binding.
func (b Bindings) Lookup(k Key) Binding {
	return b[k]
}

// Check returns an error if any control key is also a note key in m.
func (b Bindings) Check(m *NoteMap) error {
	for k, c := range b {
		if _, ok := m.Lookup(k); ok && c.Action != ActionNone {
			return fmt.Errorf("key %q bound to both a note and %v", k, c.Action)
		}
	}
	return nil
}
