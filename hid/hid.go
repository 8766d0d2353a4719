// package hid handles human interface devices: anything that produces key
// presses and releases.
package hid

import (
	"context"
	"fmt"

	"github.com/pfcm/polysynth/keymap"
)

type EventType byte

const (
	KeyDown EventType = iota
	KeyUp
	// Quit asks for everything to shut down. It has no key.
	Quit
)

func (t EventType) String() string {
	switch t {
	case KeyDown:
		return "down"
	case KeyUp:
		return "up"
	case Quit:
		return "quit"
	}
	return fmt.Sprintf("EventType(%d)", byte(t))
}

// Event is a single key transition, delivered in the order the keys were
// physically pressed and released.
type Event struct {
	Type EventType
	Key  keymap.Key
}

func (e Event) String() string {
	if e.Type == Quit {
		return "quit"
	}
	return fmt.Sprintf("%s %s", e.Key, e.Type)
}

// Source is something that produces key events. Run calls emit for each event
// from a single goroutine, and blocks until the source is exhausted, it sees a
// quit, or ctx is cancelled.
type Source interface {
	Run(ctx context.Context, emit func(Event)) error
}
