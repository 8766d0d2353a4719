package fix

import (
	"bytes"
	"testing"
)

func TestFromFloat(t *testing.T) {
	for _, c := range []struct {
		in  float64
		out S17
	}{
		{0, 0},
		{0.5, 0x40},
		{-0.5, -0x40},
		{1.0, MaxS17},
		{2.0, MaxS17},
		{-1.0, MinS17},
		{-2.0, MinS17},
	} {
		got := FromFloat(c.in)
		if got != c.out {
			t.Errorf("FromFloat(%f): %s: want: %s", c.in, got, c.out)
		}
	}
}

func TestS17Float32RoundTrip(t *testing.T) {
	for i := int(MinS17); i <= int(MaxS17); i++ {
		s := S17(i)
		got := FromFloat(Float[float32](s))
		if s != got {
			t.Errorf("%x: Float: %f, FromFloat: %x", s, Float[float64](s), got)
		}
	}
}

func TestUnsigned(t *testing.T) {
	for _, c := range []struct {
		in  S17
		out uint8
	}{
		{0, 0x80},
		{MinS17, 0},
		{MaxS17, 0xff},
		{-1, 0x7f},
	} {
		if got := c.in.Unsigned(); got != c.out {
			t.Errorf("%s.Unsigned() = %#x, want: %#x", c.in, got, c.out)
		}
	}
	got := AppendUnsigned(nil, [][]float32{{0, 1}, {-1, 0.5}})
	want := []byte{0x80, 0x00, 0xff, 0xc0}
	if !bytes.Equal(got, want) {
		t.Errorf("AppendUnsigned = %x, want: %x", got, want)
	}
}
