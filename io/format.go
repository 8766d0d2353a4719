package io

import (
	"fmt"

	"github.com/gen2brain/malgo"

	"github.com/pfcm/polysynth/fix"
	"github.com/pfcm/polysynth/internal/buffer"
)

// Format is a device sample format.
type Format string

const (
	F32 Format = "f32"
	S16 Format = "s16"
	// U8 is 8 bit unsigned. It is noticeably crunchy.
	U8 Format = "u8"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case F32, S16, U8:
		return f, nil
	}
	return "", fmt.Errorf("unknown sample format %q: want one of %s, %s, %s", s, F32, S16, U8)
}

func (f Format) malgo() (malgo.FormatType, error) {
	switch f {
	case F32, "":
		return malgo.FormatF32, nil
	case S16:
		return malgo.FormatS16, nil
	case U8:
		return malgo.FormatU8, nil
	}
	return malgo.FormatUnknown, fmt.Errorf("unknown sample format %q", string(f))
}

// appendFrames interleaves src into dst in format f.
func (f Format) appendFrames(dst []byte, src [][]float32) []byte {
	switch f {
	case S16:
		return buffer.AppendInt16(dst, src)
	case U8:
		return fix.AppendUnsigned(dst, src)
	}
	return buffer.AppendFloat32(dst, src)
}
