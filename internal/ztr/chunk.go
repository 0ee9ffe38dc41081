// Package ztr reads and writes ZTR chromatogram files.
//
// A ZTR file is a short header followed by a sequence of chunks. Each chunk
// carries a four-byte type, optional metadata and a data block that is a
// chain of self-describing transforms ending in a raw block.
package ztr

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/vertti/chromapack/internal/format"
)

// Format version written by the encoder. Readers accept any minor version
// of major version 1.
const (
	VersionMajor = 1
	VersionMinor = 2
)

// headerSize is the magic plus the two version bytes.
const headerSize = len(format.ZTRMagic) + 2

// ChunkType is the four-byte chunk identifier.
type ChunkType [4]byte

func (t ChunkType) String() string { return string(t[:]) }

// Chunk types understood by this package.
var (
	ChunkBase       = ChunkType{'B', 'A', 'S', 'E'}
	ChunkPositions  = ChunkType{'B', 'P', 'O', 'S'}
	ChunkConfidence = ChunkType{'C', 'N', 'F', '4'}
	ChunkSamples    = ChunkType{'S', 'M', 'P', '4'}
	ChunkText       = ChunkType{'T', 'E', 'X', 'T'}
	ChunkClip       = ChunkType{'C', 'L', 'I', 'P'}
)

// Chunk is one framed chunk.
type Chunk struct {
	Type     ChunkType
	Metadata []byte
	Data     []byte // transform block
	Offset   int64  // file offset of the chunk type
}

// writeHeader writes the magic and version.
func writeHeader(w io.Writer) error {
	buf := make([]byte, headerSize)
	copy(buf, format.ZTRMagic[:])
	buf[len(format.ZTRMagic)] = VersionMajor
	buf[len(format.ZTRMagic)+1] = VersionMinor
	_, err := w.Write(buf)
	return err
}

// writeChunk frames c and writes it to w.
func writeChunk(w io.Writer, c *Chunk) error {
	buf := make([]byte, 0, 12+len(c.Metadata)+len(c.Data))
	buf = append(buf, c.Type[:]...)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(c.Metadata))) //nolint:gosec // chunk sizes are bounded by the chromatogram
	buf = append(buf, c.Metadata...)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(c.Data))) //nolint:gosec // chunk sizes are bounded by the chromatogram
	buf = append(buf, c.Data...)
	_, err := w.Write(buf)
	return err
}

// chunkReader reads chunks strictly sequentially.
type chunkReader struct {
	r      io.Reader
	offset int64
}

// readFull reads len(buf) bytes, reporting a short read as truncation of where.
func (cr *chunkReader) readFull(buf []byte, where string) error {
	n, err := io.ReadFull(cr.r, buf)
	start := cr.offset
	cr.offset += int64(n)
	if errors.Is(err, io.ErrUnexpectedEOF) || (errors.Is(err, io.EOF) && len(buf) > 0) {
		return &format.TruncatedError{Where: where, Offset: start, Want: len(buf), Have: n}
	}
	return err
}

// readHeader validates the magic and version.
func (cr *chunkReader) readHeader() error {
	buf := make([]byte, headerSize)
	if err := cr.readFull(buf, "ztr header"); err != nil {
		return err
	}
	if [8]byte(buf[:8]) != format.ZTRMagic {
		return format.ErrInvalidMagic
	}
	if buf[8] != VersionMajor {
		return &format.UnsupportedVersionError{Format: format.ZTR, Version: fmt.Sprintf("%d.%d", buf[8], buf[9])}
	}
	return nil
}

// next reads the following chunk. It returns io.EOF when the stream ends
// cleanly between chunks.
func (cr *chunkReader) next() (*Chunk, error) {
	c := &Chunk{Offset: cr.offset}
	n, err := io.ReadFull(cr.r, c.Type[:])
	cr.offset += int64(n)
	switch {
	case errors.Is(err, io.EOF):
		return nil, io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		return nil, &format.TruncatedError{Where: "chunk type", Offset: c.Offset, Want: 4, Have: n}
	case err != nil:
		return nil, err
	}

	where := c.Type.String()
	if c.Metadata, err = cr.readBlock(where + " metadata"); err != nil {
		return nil, err
	}
	if c.Data, err = cr.readBlock(where + " data"); err != nil {
		return nil, err
	}
	return c, nil
}

// readBlock reads a u32 length followed by that many bytes.
func (cr *chunkReader) readBlock(where string) ([]byte, error) {
	var size [4]byte
	if err := cr.readFull(size[:], where+" length"); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(size[:])
	// Grow as bytes arrive so a bogus length cannot force a huge allocation
	data, err := io.ReadAll(io.LimitReader(cr.r, int64(n)))
	start := cr.offset
	cr.offset += int64(len(data))
	if err != nil {
		return nil, err
	}
	if len(data) < int(n) {
		return nil, &format.TruncatedError{Where: where, Offset: start, Want: int(n), Have: len(data)}
	}
	return data, nil
}
