// Package binio provides a forward-only big-endian cursor over in-memory
// chromatogram data.
package binio

import (
	"encoding/binary"

	"github.com/vertti/chromapack/internal/format"
)

// Cursor reads big-endian values from a byte slice. Reads past the end fail
// with *format.TruncatedError carrying the absolute offset of the read.
type Cursor struct {
	data  []byte
	pos   int
	base  int64 // absolute offset of data[0] in the file
	where string
}

// NewCursor returns a cursor over data. where names the region in errors.
func NewCursor(data []byte, where string) *Cursor {
	return &Cursor{data: data, where: where}
}

// Offset returns the absolute offset of the next byte to be read.
func (c *Cursor) Offset() int64 { return c.base + int64(c.pos) }

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int { return len(c.data) - c.pos }

// Len returns the total length of the cursor's data.
func (c *Cursor) Len() int { return len(c.data) }

func (c *Cursor) truncated(want int) error {
	return &format.TruncatedError{Where: c.where, Offset: c.Offset(), Want: want, Have: c.Remaining()}
}

// Bytes returns the next n bytes without copying.
func (c *Cursor) Bytes(n int) ([]byte, error) {
	if n < 0 || c.Remaining() < n {
		return nil, c.truncated(n)
	}
	b := c.data[c.pos : c.pos+n : c.pos+n]
	c.pos += n
	return b, nil
}

// Rest returns all unread bytes and moves the cursor to the end.
func (c *Cursor) Rest() []byte {
	b := c.data[c.pos:]
	c.pos = len(c.data)
	return b
}

// Skip advances the cursor by n bytes.
func (c *Cursor) Skip(n int) error {
	_, err := c.Bytes(n)
	return err
}

// SkipTo advances the cursor to the absolute offset off. Moving backwards
// is not possible; callers check ordering before skipping.
func (c *Cursor) SkipTo(off int64) error {
	if off < c.Offset() {
		return &format.InconsistentHeaderError{Section: c.where, Offset: off, Reason: "offset precedes current position"}
	}
	return c.Skip(int(off - c.Offset()))
}

// Sub returns a cursor limited to the next n bytes and advances c past them.
func (c *Cursor) Sub(n int, where string) (*Cursor, error) {
	start := c.Offset()
	b, err := c.Bytes(n)
	if err != nil {
		return nil, err
	}
	return &Cursor{data: b, base: start, where: where}, nil
}

// SubAvailable is like Sub but returns whatever is left when fewer than n
// bytes remain. It is used by readers that tolerate truncated input.
func (c *Cursor) SubAvailable(n int, where string) *Cursor {
	n = min(n, c.Remaining())
	sub, _ := c.Sub(n, where) //nolint:errcheck // n is bounded by Remaining
	return sub
}

// Uint8 reads one byte.
func (c *Cursor) Uint8() (uint8, error) {
	if c.Remaining() < 1 {
		return 0, c.truncated(1)
	}
	v := c.data[c.pos]
	c.pos++
	return v, nil
}

// Int8 reads one signed byte.
func (c *Cursor) Int8() (int8, error) {
	v, err := c.Uint8()
	return int8(v), err //nolint:gosec // reinterpretation is intended
}

// Uint16 reads a big-endian uint16.
func (c *Cursor) Uint16() (uint16, error) {
	b, err := c.Bytes(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

// Int16 reads a big-endian int16.
func (c *Cursor) Int16() (int16, error) {
	v, err := c.Uint16()
	return int16(v), err //nolint:gosec // reinterpretation is intended
}

// Uint32 reads a big-endian uint32.
func (c *Cursor) Uint32() (uint32, error) {
	b, err := c.Bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// Int32 reads a big-endian int32.
func (c *Cursor) Int32() (int32, error) {
	v, err := c.Uint32()
	return int32(v), err //nolint:gosec // reinterpretation is intended
}

// AppendUint16 appends v in big-endian order.
func AppendUint16(dst []byte, v uint16) []byte {
	return binary.BigEndian.AppendUint16(dst, v)
}

// AppendUint32 appends v in big-endian order.
func AppendUint32(dst []byte, v uint32) []byte {
	return binary.BigEndian.AppendUint32(dst, v)
}
