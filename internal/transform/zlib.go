package transform

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"

	"github.com/vertti/chromapack/internal/format"
)

// DefaultZLibLevel is the deflate level used when none is configured.
const DefaultZLibLevel = zlib.DefaultCompression

// ZLib is the deflate transform (tag 2). Layout: [tag][decoded length u32 LE]
// followed by a zlib stream.
type ZLib struct {
	Level int
}

// Tag implements Transform.
func (ZLib) Tag() Tag { return TagZLib }

// Encode implements Transform.
func (z ZLib) Encode(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(5 + len(data)/2)
	buf.WriteByte(byte(TagZLib))
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(data))) //nolint:gosec // chunk sizes fit in u32
	buf.Write(lenBuf[:])

	zw, err := zlib.NewWriterLevel(&buf, z.Level)
	if err != nil {
		return nil, fmt.Errorf("creating zlib writer: %w", err)
	}
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode implements Transform.
func (ZLib) Decode(block []byte) ([]byte, error) {
	if err := checkTag(block, TagZLib, 5); err != nil {
		return nil, err
	}
	outLen := int64(binary.LittleEndian.Uint32(block[1:5]))

	zr, err := zlib.NewReader(bytes.NewReader(block[5:]))
	if err != nil {
		return nil, &format.CorruptError{Where: TagZLib.String(), Offset: 5, Reason: err.Error()}
	}
	defer zr.Close() //nolint:errcheck // read-only stream

	// Read one byte past the declared length to detect oversized streams
	out, err := io.ReadAll(io.LimitReader(zr, outLen+1))
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, &format.TruncatedError{Where: TagZLib.String(), Want: int(outLen), Have: len(out)}
		}
		return nil, &format.CorruptError{Where: TagZLib.String(), Offset: 5, Reason: err.Error()}
	}
	if int64(len(out)) != outLen {
		return nil, &format.CorruptError{
			Where:  TagZLib.String(),
			Offset: 1,
			Reason: fmt.Sprintf("decoded %d bytes, header declares %d", len(out), outLen),
		}
	}
	return out, nil
}
