package polysynth

import (
	"fmt"
	"math"
	"sync"
)

// Meter passes its input straight through, keeping a smoothed RMS level of
// each channel that can be read from another goroutine.
type Meter struct {
	channels int

	mu  sync.Mutex
	rms []float32
}

var _ Ticker = &Meter{}

func NewMeter(channels int) *Meter {
	return &Meter{
		channels: channels,
		rms:      make([]float32, channels),
	}
}

func (m *Meter) Inputs() int    { return m.channels }
func (m *Meter) Outputs() int   { return m.channels }
func (m *Meter) String() string { return fmt.Sprintf("Meter(%d)", m.channels) }

func (m *Meter) Tick(in, out [][]float32) {
	for i, inp := range in {
		copy(out[i], inp)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, channel := range in {
		if len(channel) == 0 {
			continue
		}
		rms := float64(0)
		for _, s := range channel {
			rms += float64(s) * float64(s)
		}
		rms /= float64(len(channel))
		m.rms[i] = 0.01*m.rms[i] + 0.99*float32(math.Sqrt(rms))
	}
}

// Levels returns the current level of every channel.
func (m *Meter) Levels() []float32 {
	results := make([]float32, m.channels)
	m.mu.Lock()
	defer m.mu.Unlock()
	copy(results, m.rms)
	return results
}
