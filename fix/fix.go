// package fix provides 8 bit fixed point samples, for devices that want them.
package fix

import (
	"fmt"

	"golang.org/x/exp/constraints"
)

// S17 is a signed (two's complement) 8 bit number with 1 integer bit and 7 franctional
// bits capable of representing (roughly) the range -1 to 1.
type S17 int8

const (
	// MaxS17 is the highest positive S17: 0.9921875.
	MaxS17 S17 = 0x7F
	// MinS17 is the lowest negative S17: -1.
	MinS17 S17 = -0x80
)

func (s S17) String() string {
	return fmt.Sprintf("%.7f", Float[float64](s))
}

// Unsigned returns s offset by half the range, the way unsigned 8 bit audio
// is stored: silence is 0x80.
func (s S17) Unsigned() uint8 {
	return uint8(int16(s) + 0x80)
}

func Float[T constraints.Float](s S17) T {
	// ideally this would be const, but apparently it can't be.
	var scale = 1.0 / T(1<<7)
	return T(s) * scale
}

// FromFloat converts a float into an S17, clamping to the maximum or minimum values.
func FromFloat[T constraints.Float](f T) S17 {
	if f < Float[T](MinS17) {
		return MinS17
	}
	if f > Float[T](MaxS17) {
		return MaxS17
	}
	return S17(f * T(1<<7))
}

// AppendUnsigned interleaves src into dst as unsigned 8 bit samples.
func AppendUnsigned(dst []byte, src [][]float32) []byte {
	if len(src) == 0 {
		return dst
	}
	for i := range src[0] {
		for _, c := range src {
			dst = append(dst, FromFloat(c[i]).Unsigned())
		}
	}
	return dst
}
