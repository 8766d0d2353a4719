// package polysynth is a polyphonic synthesizer played live from a computer
// keyboard.
package polysynth

import (
	"fmt"
	"strings"

	"github.com/pfcm/polysynth/internal/buffer"
)

// Ticker is something that processes audio.
type Ticker interface {
	// Inputs returns the number of expected input channels.
	Inputs() int
	// Outputs returns the number of expected output channels.
	Outputs() int
	// Tick processes a chunk of audio. The first dimension of the input
	// slice is always Inputs, and the first dimension of the output
	// slice is always Outputs. Each individual element of both slices
	// is always the same length. Tickers may overwrite the input buffer.
	Tick(input, output [][]float32)

	fmt.Stringer
}

// Chain is a ticker that applies a sequence of Tickers. The inputs and outputs all
// need to line up.
type Chain struct {
	ts              []Ticker
	inputs, outputs int
	b1, b2          *buffer.Planar
}

var _ Ticker = Chain{}

// Serially chains ts together. It panics if the outputs of one ticker don't
// match the inputs of the next.
func Serially(ts ...Ticker) Chain {
	if len(ts) == 0 {
		panic(fmt.Errorf("empty chain"))
	}
	maxChans := ts[0].Inputs()
	for i := 1; i < len(ts); i++ {
		if ts[i-1].Outputs() != ts[i].Inputs() {
			panic(fmt.Errorf(
				"outputs/inputs mismatch:\n%v (%d outputs)\n->\n%v (%d inputs)",
				ts[i-1], ts[i-1].Outputs(), ts[i], ts[i].Inputs()))
		}
		maxChans = max(ts[i-1].Outputs(), maxChans)
		maxChans = max(ts[i].Inputs(), maxChans)
	}
	maxChans = max(ts[len(ts)-1].Outputs(), maxChans)
	return Chain{
		ts:      ts,
		inputs:  ts[0].Inputs(),
		outputs: ts[len(ts)-1].Outputs(),
		b1:      buffer.NewPlanar(maxChans, 4096),
		b2:      buffer.NewPlanar(maxChans, 4096),
	}
}

func (c Chain) Inputs() int  { return c.inputs }
func (c Chain) Outputs() int { return c.outputs }

func (c Chain) String() string {
	s := make([]string, len(c.ts))
	for i, t := range c.ts {
		s[i] = t.String()
	}
	return fmt.Sprintf("Chain(%s)", strings.Join(s, ","))
}

func (c Chain) Tick(input, output [][]float32) {
	n := 0
	if len(output) > 0 {
		n = len(output[0])
	}
	in, out := c.b1.Frames(n), c.b2.Frames(n)
	for i := range input {
		copy(in[i], input[i])
	}
	in = in[:len(input)]
	for _, t := range c.ts {
		out = out[:t.Outputs()]
		buffer.Clear(out)
		t.Tick(in, out)
		in, out = out, in[:cap(in)]
	}
	for i := range output {
		copy(output[i], in[i])
	}
}
