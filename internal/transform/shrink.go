package transform

import (
	"encoding/binary"

	"github.com/vertti/chromapack/internal/binio"
	"github.com/vertti/chromapack/internal/format"
)

// shrinkGuard marks an element that did not fit in a signed byte; the
// full-width value follows it.
const shrinkGuard = -128

// Shrink narrows big-endian signed 16-bit (tag 70) or 32-bit (tag 71)
// elements to single bytes. Values in -127..127 are stored as one byte,
// everything else as the guard byte followed by the original value.
type Shrink struct {
	Width int // source element width in bytes: 2 or 4
}

// Tag implements Transform.
func (s Shrink) Tag() Tag {
	if s.Width == 4 {
		return TagShrinkInt
	}
	return TagShrinkShort
}

func (s Shrink) value(b []byte) int32 {
	if s.Width == 4 {
		return int32(binary.BigEndian.Uint32(b)) //nolint:gosec // signed reinterpretation
	}
	return int32(int16(binary.BigEndian.Uint16(b))) //nolint:gosec // signed reinterpretation
}

// Encode implements Transform.
func (s Shrink) Encode(data []byte) ([]byte, error) {
	if len(data)%s.Width != 0 {
		return nil, &format.AlignmentError{Transform: s.Tag().String(), Len: len(data), Width: s.Width}
	}
	// Most trace residuals are small, so start at one byte per element
	out := make([]byte, 1, 1+len(data)/s.Width+16)
	out[0] = byte(s.Tag())
	for i := 0; i < len(data); i += s.Width {
		v := s.value(data[i:])
		if v > shrinkGuard && v <= 127 {
			out = append(out, byte(int8(v))) //nolint:gosec // range checked above
			continue
		}
		out = append(out, byte(0x80))
		out = append(out, data[i:i+s.Width]...)
	}
	return out, nil
}

// Decode implements Transform.
func (s Shrink) Decode(block []byte) ([]byte, error) {
	if err := checkTag(block, s.Tag(), 1); err != nil {
		return nil, err
	}
	c := binio.NewCursor(block, s.Tag().String())
	_ = c.Skip(1) //nolint:errcheck // length checked by checkTag

	out := make([]byte, 0, (len(block)-1)*s.Width)
	for c.Remaining() > 0 {
		b, _ := c.Int8() //nolint:errcheck // Remaining > 0
		if b != shrinkGuard {
			if s.Width == 4 {
				out = binio.AppendUint32(out, uint32(int32(b))) //nolint:gosec // sign extension
			} else {
				out = binio.AppendUint16(out, uint16(int16(b))) //nolint:gosec // sign extension
			}
			continue
		}
		// The guard is always followed by exactly one full-width value
		full, err := c.Bytes(s.Width)
		if err != nil {
			return nil, err
		}
		out = append(out, full...)
	}
	return out, nil
}
