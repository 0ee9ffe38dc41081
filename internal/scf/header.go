// Package scf reads and writes Standard Chromatogram Format files.
package scf

import (
	"encoding/binary"
	"fmt"
	"io"
	"slices"

	"github.com/vertti/chromapack/internal/binio"
	"github.com/vertti/chromapack/internal/format"
)

// HeaderSize is the fixed size of the SCF header.
const HeaderSize = 128

// baseRecordSize is the number of bytes stored per base in either version.
const baseRecordSize = 12

// Supported file versions.
var (
	Version2 = [4]byte{'2', '.', '0', '0'}
	Version3 = [4]byte{'3', '.', '0', '0'}
)

// Header is the fixed 128-byte SCF header. All fields are big-endian.
type Header struct {
	Samples        uint32 // sample points per channel
	SamplesOffset  uint32
	Bases          uint32
	BasesLeftClip  uint32
	BasesRightClip uint32
	BasesOffset    uint32
	CommentsSize   uint32
	CommentsOffset uint32
	Version        [4]byte // e.g. "3.00"
	SampleSize     uint32  // bytes per sample: 1 or 2
	CodeSet        uint32
	PrivateSize    uint32
	PrivateOffset  uint32
	Spare          [18]uint32
}

// Major returns the major format version (2 or 3 for readable files).
func (h *Header) Major() int {
	return int(h.Version[0]) - '0'
}

// SamplesSize returns the size in bytes of the samples section.
func (h *Header) SamplesSize() int64 {
	return int64(h.Samples) * 4 * int64(h.SampleSize)
}

// BasesSize returns the size in bytes of the bases section.
func (h *Header) BasesSize() int64 {
	return int64(h.Bases) * baseRecordSize
}

// Write serializes the header to w.
func (h *Header) Write(w io.Writer) error {
	_, err := w.Write(h.Bytes())
	return err
}

// Bytes returns the serialized header.
func (h *Header) Bytes() []byte {
	buf := make([]byte, HeaderSize)
	copy(buf[0:4], format.SCFMagic[:])
	binary.BigEndian.PutUint32(buf[4:8], h.Samples)
	binary.BigEndian.PutUint32(buf[8:12], h.SamplesOffset)
	binary.BigEndian.PutUint32(buf[12:16], h.Bases)
	binary.BigEndian.PutUint32(buf[16:20], h.BasesLeftClip)
	binary.BigEndian.PutUint32(buf[20:24], h.BasesRightClip)
	binary.BigEndian.PutUint32(buf[24:28], h.BasesOffset)
	binary.BigEndian.PutUint32(buf[28:32], h.CommentsSize)
	binary.BigEndian.PutUint32(buf[32:36], h.CommentsOffset)
	copy(buf[36:40], h.Version[:])
	binary.BigEndian.PutUint32(buf[40:44], h.SampleSize)
	binary.BigEndian.PutUint32(buf[44:48], h.CodeSet)
	binary.BigEndian.PutUint32(buf[48:52], h.PrivateSize)
	binary.BigEndian.PutUint32(buf[52:56], h.PrivateOffset)
	for i, v := range h.Spare {
		binary.BigEndian.PutUint32(buf[56+4*i:], v)
	}
	return buf
}

// ReadHeader reads and validates an SCF header from c.
func ReadHeader(c *binio.Cursor) (*Header, error) {
	buf, err := c.Bytes(HeaderSize)
	if err != nil {
		return nil, err
	}
	if [4]byte(buf[0:4]) != format.SCFMagic {
		return nil, format.ErrInvalidMagic
	}

	h := &Header{
		Samples:        binary.BigEndian.Uint32(buf[4:8]),
		SamplesOffset:  binary.BigEndian.Uint32(buf[8:12]),
		Bases:          binary.BigEndian.Uint32(buf[12:16]),
		BasesLeftClip:  binary.BigEndian.Uint32(buf[16:20]),
		BasesRightClip: binary.BigEndian.Uint32(buf[20:24]),
		BasesOffset:    binary.BigEndian.Uint32(buf[24:28]),
		CommentsSize:   binary.BigEndian.Uint32(buf[28:32]),
		CommentsOffset: binary.BigEndian.Uint32(buf[32:36]),
		Version:        [4]byte(buf[36:40]),
		SampleSize:     binary.BigEndian.Uint32(buf[40:44]),
		CodeSet:        binary.BigEndian.Uint32(buf[44:48]),
		PrivateSize:    binary.BigEndian.Uint32(buf[48:52]),
		PrivateOffset:  binary.BigEndian.Uint32(buf[52:56]),
	}
	for i := range h.Spare {
		h.Spare[i] = binary.BigEndian.Uint32(buf[56+4*i:])
	}

	if major := h.Major(); major != 2 && major != 3 {
		return nil, &format.UnsupportedVersionError{Format: format.SCF, Version: string(h.Version[:])}
	}
	if h.SampleSize != 1 && h.SampleSize != 2 && h.Samples > 0 {
		return nil, &format.InconsistentHeaderError{
			Section: "samples",
			Offset:  int64(h.SamplesOffset),
			Reason:  fmt.Sprintf("sample size %d, want 1 or 2", h.SampleSize),
		}
	}
	return h, nil
}

// sectionKind identifies an SCF section.
type sectionKind uint8

const (
	sectionSamples sectionKind = iota
	sectionBases
	sectionComments
	sectionPrivate
)

func (k sectionKind) String() string {
	switch k {
	case sectionSamples:
		return "samples"
	case sectionBases:
		return "bases"
	case sectionComments:
		return "comments"
	default:
		return "private data"
	}
}

// section is one located region of the file.
type section struct {
	kind   sectionKind
	offset int64
	size   int64
}

// sections returns the non-empty sections sorted by file offset. Sections
// that start inside the header or overlap an earlier section make the
// header inconsistent.
func (h *Header) sections() ([]section, error) {
	all := []section{
		{sectionSamples, int64(h.SamplesOffset), h.SamplesSize()},
		{sectionBases, int64(h.BasesOffset), h.BasesSize()},
		{sectionComments, int64(h.CommentsOffset), int64(h.CommentsSize)},
		{sectionPrivate, int64(h.PrivateOffset), int64(h.PrivateSize)},
	}
	present := slices.DeleteFunc(all, func(s section) bool { return s.size == 0 })
	slices.SortStableFunc(present, func(a, b section) int {
		switch {
		case a.offset < b.offset:
			return -1
		case a.offset > b.offset:
			return 1
		default:
			return 0
		}
	})

	end := int64(HeaderSize)
	for _, s := range present {
		if s.offset < end {
			reason := "overlaps the previous section"
			if end == HeaderSize {
				reason = "starts inside the header"
			}
			return nil, &format.InconsistentHeaderError{Section: s.kind.String(), Offset: s.offset, Reason: reason}
		}
		end = s.offset + s.size
	}
	return present, nil
}
