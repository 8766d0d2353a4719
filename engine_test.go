package polysynth

import (
	"bytes"
	"log"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/pfcm/polysynth/env"
	"github.com/pfcm/polysynth/hid"
	"github.com/pfcm/polysynth/keymap"
	"github.com/pfcm/polysynth/osc"
	"github.com/pfcm/polysynth/voice"
)

func newEngine(t *testing.T, edit func(*Config)) *Engine {
	t.Helper()
	cfg := DefaultConfig()
	if edit != nil {
		edit(&cfg)
	}
	e, err := NewEngine(cfg, nil)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

func down(k keymap.Key) hid.Event { return hid.Event{Type: hid.KeyDown, Key: k} }
func up(k keymap.Key) hid.Event   { return hid.Event{Type: hid.KeyUp, Key: k} }

func press(e *Engine, evs ...hid.Event) {
	for _, ev := range evs {
		e.Handle(ev)
	}
}

func render(e *Engine, n int) []float32 {
	out := make([]float32, n)
	e.Render(out)
	return out
}

func TestSilence(t *testing.T) {
	e := newEngine(t, nil)
	for _, n := range []int{1, 7, 512, 5000} {
		for i, s := range render(e, n) {
			if s != 0 {
				t.Fatalf("render(%d)[%d] = %v with no voices", n, i, s)
			}
		}
	}
}

func TestKeyDownIdempotent(t *testing.T) {
	e := newEngine(t, nil)
	press(e, down("A"))
	render(e, 100)
	before, ok := e.Voice("A")
	if !ok {
		t.Fatal("A not sounding after key down")
	}
	press(e, down("A"), down("A"))
	after, _ := e.Voice("A")
	if diff := cmp.Diff(before, after, cmp.AllowUnexported(voice.Voice{}, env.Ramp{})); diff != "" {
		t.Errorf("repeated key down changed the voice (-before +after):\n%s", diff)
	}
	if n := e.Sounding(); n != 1 {
		t.Errorf("Sounding() = %d, want: 1", n)
	}
}

func TestUnmappedKeysIgnored(t *testing.T) {
	e := newEngine(t, nil)
	before := e.State()
	for _, k := range []keymap.Key{"Q", "Digit9", "Space", "", "Z"} {
		press(e, up(k))
	}
	press(e, down("Q"), down("Digit9"), up("A"))
	if n := e.Sounding(); n != 0 {
		t.Errorf("Sounding() = %d, want: 0", n)
	}
	if diff := cmp.Diff(e.State(), before); diff != "" {
		t.Errorf("State() (-got +want):\n%s", diff)
	}
}

func TestOctaveClampThroughKeys(t *testing.T) {
	e := newEngine(t, func(c *Config) { c.Octave = voice.OctaveMin })
	press(e, down("Z"), up("Z"), down("Z"))
	if o := e.State().Octave; o != voice.OctaveMin {
		t.Errorf("octave = %d after shifting down at the bottom, want: %d", o, voice.OctaveMin)
	}
	for i := 0; i < 20; i++ {
		press(e, down("X"), up("X"))
	}
	if o := e.State().Octave; o != voice.OctaveMax {
		t.Errorf("octave = %d after shifting up past the top, want: %d", o, voice.OctaveMax)
	}
}

func TestReferencePitch(t *testing.T) {
	e := newEngine(t, nil)
	press(e, down("A"))
	v, _ := e.Voice("A")
	if math.Abs(v.Frequency-261.63) > 1e-2 {
		t.Errorf("root at the reference octave = %v Hz, want: 261.63", v.Frequency)
	}
}

func TestOctaveDoubling(t *testing.T) {
	e := newEngine(t, nil)
	press(e, down("H"))
	lo, _ := e.Voice("H")
	press(e, up("H"), down("X"), down("H"))
	hi, _ := e.Voice("H")
	if math.Abs(hi.Frequency-2*lo.Frequency) > 1e-9 {
		t.Errorf("one octave up = %v Hz, want: %v", hi.Frequency, 2*lo.Frequency)
	}
}

func TestOctaveChangeKeepsSoundingPitch(t *testing.T) {
	e := newEngine(t, nil)
	press(e, down("D"))
	before, _ := e.Voice("D")
	press(e, down("X"), up("X"), down("X"))
	after, _ := e.Voice("D")
	if after.Frequency != before.Frequency {
		t.Errorf("held note retuned from %v to %v by an octave change", before.Frequency, after.Frequency)
	}
}

func TestWaveformSwitchKeepsPhase(t *testing.T) {
	e := newEngine(t, func(c *Config) { c.Headroom = 1 })
	press(e, down("F"))
	render(e, 123)
	v0, _ := e.Voice("F")
	press(e, down("Digit3"))
	if k := e.State().Waveform; k != osc.Square {
		t.Fatalf("waveform = %v, want: %v", k, osc.Square)
	}
	v1, _ := e.Voice("F")
	if v1.Phase != v0.Phase {
		t.Errorf("phase changed from %v to %v on waveform switch", v0.Phase, v1.Phase)
	}
	// The next sample continues from the same phase with the new shape.
	got := render(e, 1)[0]
	if want := float32(osc.Amplitude(osc.Square, v0.Phase)); got != want {
		t.Errorf("first sample after switch = %v, want: %v", got, want)
	}
	v2, _ := e.Voice("F")
	if want := osc.Advance(v0.Phase, v0.Frequency/44100); math.Abs(v2.Phase-want) > 1e-12 {
		t.Errorf("phase after one sample = %v, want: %v", v2.Phase, want)
	}
}

func TestPolyphonyMixing(t *testing.T) {
	const headroom = 4
	e := newEngine(t, func(c *Config) {
		c.Headroom = headroom
		c.Waveform = osc.Sawtooth
	})
	press(e, down("A"), down("T"))
	a, _ := e.Voice("A")
	b, _ := e.Voice("T")
	got := render(e, 256)
	pa, pb := 0.0, 0.0
	for i, s := range got {
		want := (osc.Amplitude(osc.Sawtooth, pa) + osc.Amplitude(osc.Sawtooth, pb)) / headroom
		if math.Abs(float64(s)-want) > 1e-6 {
			t.Errorf("sample %d = %v, want: %v", i, s, want)
		}
		pa = osc.Advance(pa, a.Frequency/44100)
		pb = osc.Advance(pb, b.Frequency/44100)
	}
}

func TestClipping(t *testing.T) {
	e := newEngine(t, func(c *Config) {
		c.Headroom = 1
		c.Waveform = osc.Square
	})
	// Square waves all start at +1.
	press(e, down("A"), down("S"), down("D"))
	if s := render(e, 1)[0]; s != 1 {
		t.Errorf("three full scale voices = %v, want clipped to 1", s)
	}
}

func TestKeyUpRemovesContribution(t *testing.T) {
	e := newEngine(t, func(c *Config) { c.Waveform = osc.Square })
	press(e, down("A"), down("K"))
	render(e, 10)
	press(e, up("K"))
	if _, ok := e.Voice("K"); ok {
		t.Error("K still sounding after key up")
	}
	a, _ := e.Voice("A")
	got := render(e, 64)
	p := a.Phase
	for i, s := range got {
		want := float32(osc.Amplitude(osc.Square, p) / 4)
		if s != want {
			t.Errorf("sample %d = %v, want only A: %v", i, s, want)
		}
		p = osc.Advance(p, a.Frequency/44100)
	}
	press(e, up("A"))
	for i, s := range render(e, 32) {
		if s != 0 {
			t.Fatalf("sample %d = %v after every key released", i, s)
		}
	}
}

func TestTickCopiesChannels(t *testing.T) {
	e := newEngine(t, func(c *Config) { c.Channels = 3 })
	press(e, down("G"))
	out := [][]float32{make([]float32, 50), make([]float32, 50), make([]float32, 50)}
	e.Tick(nil, out)
	for c := 1; c < 3; c++ {
		for i := range out[0] {
			if out[c][i] != out[0][i] {
				t.Fatalf("channel %d sample %d = %v, want: %v", c, i, out[c][i], out[0][i])
			}
		}
	}
	if out[0][1] == 0 {
		t.Error("no signal rendered")
	}
}

func TestQuit(t *testing.T) {
	e := newEngine(t, nil)
	for _, c := range []struct {
		ev   hid.Event
		quit bool
	}{
		{down("A"), false},
		{down("Digit2"), false},
		{up("Escape"), false},
		{down("Escape"), true},
		{hid.Event{Type: hid.Quit}, true},
	} {
		if got := e.Handle(c.ev); got != c.quit {
			t.Errorf("Handle(%v) = %v, want: %v", c.ev, got, c.quit)
		}
	}
}

func TestControlsLogged(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	e, err := NewEngine(cfg, log.New(&buf, "", 0))
	if err != nil {
		t.Fatal(err)
	}
	press(e, down("X"), down("Digit4"), down("Digit4"))
	got := buf.String()
	if want := "octave 5\nwaveform sawtooth\n"; got != want {
		t.Errorf("log = %q, want: %q", got, want)
	}
}

func TestFadesThroughEngine(t *testing.T) {
	e := newEngine(t, func(c *Config) {
		c.SampleRate = 1000
		c.Attack = 5 * time.Millisecond
		c.Release = 5 * time.Millisecond
	})
	press(e, down("A"))
	if s := render(e, 1)[0]; s != 0 {
		t.Errorf("first sample with an attack = %v, want: 0", s)
	}
	render(e, 10)
	press(e, up("A"))
	if n := e.Sounding(); n != 1 {
		t.Errorf("Sounding() = %d during release, want: 1", n)
	}
	render(e, 10)
	if n := e.Sounding(); n != 0 {
		t.Errorf("Sounding() = %d after release, want: 0", n)
	}
}

func TestNewEngineErrors(t *testing.T) {
	for _, c := range []struct {
		name string
		edit func(*Config)
		want string
	}{
		{"rate", func(c *Config) { c.SampleRate = 0 }, "sample rate"},
		{"channels", func(c *Config) { c.Channels = 0 }, "channels"},
		{"headroom", func(c *Config) { c.Headroom = -1 }, "headroom"},
		{"headroom zero", func(c *Config) { c.Headroom = 0 }, "headroom"},
		{"headroom NaN", func(c *Config) { c.Headroom = math.NaN() }, "headroom"},
		{"headroom Inf", func(c *Config) { c.Headroom = math.Inf(1) }, "headroom"},
		{"octave", func(c *Config) { c.Octave = 9 }, "octave"},
		{"fade", func(c *Config) { c.Release = -time.Second }, "negative fade"},
		{"waveform", func(c *Config) { c.Waveform = osc.Kind(7) }, "unknown waveform"},
		{"layout", func(c *Config) { c.Black = []keymap.Key{"A"} }, "bound twice"},
		{"bindings", func(c *Config) { c.Bindings = keymap.Bindings{"S": {Action: keymap.ActionQuit}} }, "both a note"},
	} {
		cfg := DefaultConfig()
		c.edit(&cfg)
		_, err := NewEngine(cfg, nil)
		if err == nil || !strings.Contains(err.Error(), c.want) {
			t.Errorf("%s: NewEngine error = %v, want containing %q", c.name, err, c.want)
		}
	}
}

func TestEngineConcurrentUse(t *testing.T) {
	// No assertions: run with -race.
	e := newEngine(t, nil)
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		out := [][]float32{make([]float32, 256), make([]float32, 256)}
		for {
			select {
			case <-stop:
				return
			default:
				e.Tick(nil, out)
			}
		}
	}()
	keys := []keymap.Key{"A", "W", "S", "X", "E", "Digit2", "D", "Z", "Digit1"}
	for i := 0; i < 500; i++ {
		k := keys[i%len(keys)]
		e.Handle(down(k))
		e.Handle(up(keys[(i+3)%len(keys)]))
	}
	close(stop)
	wg.Wait()
}
