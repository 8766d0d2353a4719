//go:build !headless

package hid

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/pfcm/polysynth/keymap"
)

// Window is a Source backed by an otherwise empty window, which has to have
// focus to receive keys. Unlike a terminal, it sees real key releases.
//
// ebiten requires Run to be called from the main goroutine.
type Window struct {
	title         string
	width, height int

	status atomic.Pointer[string]
	shown  string

	ctx  context.Context
	emit func(Event)
	keys []ebiten.Key
}

var _ Source = &Window{}

func NewWindow(title string, width, height int) *Window {
	return &Window{
		title:  title,
		width:  width,
		height: height,
		keys:   make([]ebiten.Key, 0, 16),
	}
}

// SetStatus appends s to the window title. Safe to call from any goroutine.
func (w *Window) SetStatus(s string) {
	w.status.Store(&s)
}

func (w *Window) Run(ctx context.Context, emit func(Event)) error {
	w.ctx, w.emit = ctx, emit
	ebiten.SetWindowSize(w.width, w.height)
	ebiten.SetWindowTitle(w.title)
	ebiten.SetRunnableOnUnfocused(true)
	ebiten.SetWindowClosingHandled(true)
	if err := ebiten.RunGame(w); err != nil {
		return fmt.Errorf("running window: %w", err)
	}
	return nil
}

func (w *Window) Update() error {
	if w.ctx.Err() != nil {
		return ebiten.Termination
	}
	if ebiten.IsWindowBeingClosed() {
		w.emit(Event{Type: Quit})
		return ebiten.Termination
	}
	w.keys = inpututil.AppendJustPressedKeys(w.keys[:0])
	for _, k := range w.keys {
		w.emit(Event{Type: KeyDown, Key: keyName(k)})
	}
	w.keys = inpututil.AppendJustReleasedKeys(w.keys[:0])
	for _, k := range w.keys {
		w.emit(Event{Type: KeyUp, Key: keyName(k)})
	}
	if s := w.status.Load(); s != nil && *s != w.shown {
		w.shown = *s
		ebiten.SetWindowTitle(w.title + "  " + w.shown)
	}
	return nil
}

func (w *Window) Draw(*ebiten.Image) {}

func (w *Window) Layout(_, _ int) (int, int) { return w.width, w.height }

func keyName(k ebiten.Key) keymap.Key {
	return keymap.Key(k.String())
}
