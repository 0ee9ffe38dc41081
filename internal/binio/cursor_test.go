package binio

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vertti/chromapack/internal/format"
)

func TestCursor_BigEndianReads(t *testing.T) {
	t.Parallel()

	c := NewCursor([]byte{0xff, 0x80, 0x01, 0x02, 0xff, 0xfe, 0x00, 0x00, 0x01, 0x00, 0xff, 0xff, 0xff, 0xfe}, "test")

	u8, err := c.Uint8()
	require.NoError(t, err)
	assert.Equal(t, uint8(0xff), u8)

	i8, err := c.Int8()
	require.NoError(t, err)
	assert.Equal(t, int8(-128), i8)

	u16, err := c.Uint16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0102), u16)

	i16, err := c.Int16()
	require.NoError(t, err)
	assert.Equal(t, int16(-2), i16)

	u32, err := c.Uint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(256), u32)

	i32, err := c.Int32()
	require.NoError(t, err)
	assert.Equal(t, int32(-2), i32)

	assert.Zero(t, c.Remaining())
	assert.Equal(t, int64(14), c.Offset())
}

func TestCursor_TruncatedReportsOffset(t *testing.T) {
	t.Parallel()

	c := NewCursor([]byte{1, 2, 3}, "bases")
	require.NoError(t, c.Skip(2))

	_, err := c.Uint32()
	require.ErrorIs(t, err, format.ErrTruncated)

	var te *format.TruncatedError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "bases", te.Where)
	assert.Equal(t, int64(2), te.Offset)
	assert.Equal(t, 4, te.Want)
	assert.Equal(t, 1, te.Have)
}

func TestCursor_SubKeepsAbsoluteOffsets(t *testing.T) {
	t.Parallel()

	c := NewCursor([]byte{0, 0, 0, 0, 9, 8, 7, 6, 5}, "file")
	require.NoError(t, c.SkipTo(4))

	sub, err := c.Sub(3, "comments")
	require.NoError(t, err)
	assert.Equal(t, int64(7), c.Offset())
	assert.Equal(t, 3, sub.Len())
	assert.Equal(t, int64(4), sub.Offset())

	_, err = sub.Bytes(4)
	var te *format.TruncatedError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "comments", te.Where)
	assert.Equal(t, int64(4), te.Offset)
}

func TestCursor_SkipToBackwards(t *testing.T) {
	t.Parallel()

	c := NewCursor(make([]byte, 10), "file")
	require.NoError(t, c.Skip(6))

	err := c.SkipTo(3)
	var he *format.InconsistentHeaderError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, int64(3), he.Offset)
}

func TestCursor_SubAvailable(t *testing.T) {
	t.Parallel()

	c := NewCursor([]byte{1, 2, 3}, "file")
	sub := c.SubAvailable(10, "samples")
	assert.Equal(t, 3, sub.Len())
	assert.Equal(t, []byte{1, 2, 3}, sub.Rest())
	assert.Zero(t, c.Remaining())
}

func TestAppend(t *testing.T) {
	t.Parallel()

	b := AppendUint16(nil, 0x0102)
	b = AppendUint32(b, 0x03040506)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6}, b)
}
