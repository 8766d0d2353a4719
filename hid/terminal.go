package hid

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/pfcm/polysynth/keymap"
)

const (
	ctrlC  = 0x03
	ctrlD  = 0x04
	escape = 0x1b
)

// Terminal is a Source that reads keys from a terminal in raw mode. Terminals
// only report characters, never releases, so a key counts as held until it
// has not been seen for the hold duration. Holding a key down relies on the
// terminal's auto-repeat to keep it alive, so hold should be longer than the
// auto-repeat delay.
//
// Ctrl-C and Ctrl-D quit, as does the end of the input once every held key
// has been released. Escape sequences from arrow and function keys are
// dropped.
type Terminal struct {
	r    io.Reader
	hold time.Duration
	poll time.Duration
}

var _ Source = &Terminal{}

// NewTerminal reads from r, which is switched to raw mode if it is a terminal.
func NewTerminal(r io.Reader, hold time.Duration) *Terminal {
	return &Terminal{
		r:    r,
		hold: hold,
		poll: max(time.Millisecond, hold/8),
	}
}

func (t *Terminal) Run(ctx context.Context, emit func(Event)) error {
	if f, ok := t.r.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fd := int(f.Fd())
		old, err := term.MakeRaw(fd)
		if err != nil {
			return fmt.Errorf("setting raw mode: %w", err)
		}
		defer term.Restore(fd, old)
	}

	done := make(chan struct{})
	defer close(done)
	queue := make(chan byte, 64)
	errc := make(chan error, 1)
	// The read can block forever on an idle terminal; this goroutine is
	// abandoned in that case.
	go func() {
		buf := make([]byte, 64)
		for {
			n, err := t.r.Read(buf)
			for _, b := range buf[:n] {
				select {
				case queue <- b:
				case <-done:
					return
				}
			}
			if err != nil {
				errc <- err
				return
			}
		}
	}()

	var (
		h    holds
		esc  escapes
		last time.Time
		eof  bool
		tick = time.NewTicker(t.poll)
	)
	defer tick.Stop()
	press := func(k keymap.Key) {
		if h.press(k, time.Now().Add(t.hold)) {
			emit(Event{Type: KeyDown, Key: k})
		}
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case b := <-queue:
			if b == ctrlC || b == ctrlD {
				h.expire(time.Time{}, true, emit)
				emit(Event{Type: Quit})
				return nil
			}
			last = time.Now()
			esc.feed(b, press)
		case err := <-errc:
			if !errors.Is(err, io.EOF) {
				return fmt.Errorf("reading keys: %w", err)
			}
			eof, errc = true, nil
		case now := <-tick.C:
			// The rest of an escape sequence arrives with its ESC, so an ESC
			// on its own for a whole poll is the Escape key.
			if (eof && len(queue) == 0) || now.Sub(last) >= t.poll {
				esc.flush(press)
			}
			h.expire(now, false, emit)
			// Every byte is queued before the error is sent, so an empty
			// queue after EOF really is the end.
			if eof && len(h) == 0 && len(queue) == 0 {
				emit(Event{Type: Quit})
				return nil
			}
		}
	}
}

type hold struct {
	key      keymap.Key
	deadline time.Time
}

// holds are the keys currently considered down, in the order they were
// pressed.
type holds []hold

// press extends the hold on k, reporting whether it is newly pressed.
func (h *holds) press(k keymap.Key, deadline time.Time) bool {
	for i := range *h {
		if (*h)[i].key == k {
			(*h)[i].deadline = deadline
			return false
		}
	}
	*h = append(*h, hold{key: k, deadline: deadline})
	return true
}

// expire releases every key whose deadline is not after now, or every key at
// all if force is set.
func (h *holds) expire(now time.Time, force bool, emit func(Event)) {
	kept := (*h)[:0]
	for _, x := range *h {
		if force || !x.deadline.After(now) {
			emit(Event{Type: KeyUp, Key: x.key})
			continue
		}
		kept = append(kept, x)
	}
	*h = kept
}

type escState byte

const (
	escNone escState = iota
	escPending
	escCSI
	escSS3
)

// escapes drops the escape sequences terminals send for arrow, function and
// editing keys, so that they don't read as Escape followed by letters. A lone
// ESC is the Escape key.
type escapes struct {
	state escState
}

// feed consumes b, calling key for every key it completes.
func (e *escapes) feed(b byte, key func(keymap.Key)) {
	switch e.state {
	case escPending:
		switch b {
		case '[':
			e.state = escCSI
			return
		case 'O':
			e.state = escSS3
			return
		}
		e.state = escNone
		key("Escape")
	case escCSI:
		// Parameters and intermediates are 0x20 to 0x3f, the final byte
		// 0x40 to 0x7e.
		if b >= 0x40 && b <= 0x7e {
			e.state = escNone
		}
		return
	case escSS3:
		e.state = escNone
		return
	}
	if b == escape {
		e.state = escPending
		return
	}
	if k, ok := byteKey(b); ok {
		key(k)
	}
}

// flush delivers an ESC that is still waiting to see what follows it.
func (e *escapes) flush(key func(keymap.Key)) {
	if e.state == escPending {
		e.state = escNone
		key("Escape")
	}
}

// CRLF returns a writer that turns every \n into \r\n, for writing to a
// terminal in raw mode.
func CRLF(w io.Writer) io.Writer {
	return crlf{w}
}

type crlf struct {
	w io.Writer
}

func (c crlf) Write(p []byte) (int, error) {
	if _, err := c.w.Write(bytes.ReplaceAll(p, []byte("\n"), []byte("\r\n"))); err != nil {
		return 0, err
	}
	return len(p), nil
}

// byteKey names the key that produced b, using the same names as Window.
func byteKey(b byte) (keymap.Key, bool) {
	switch {
	case b >= 'a' && b <= 'z':
		return keymap.Key(rune(b - 'a' + 'A')), true
	case b >= 'A' && b <= 'Z':
		return keymap.Key(rune(b)), true
	case b >= '0' && b <= '9':
		return keymap.Key("Digit" + string(rune(b))), true
	case b == ' ':
		return "Space", true
	case b == escape:
		return "Escape", true
	}
	return "", false
}
