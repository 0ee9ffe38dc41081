package scf

import (
	"fmt"
	"io"

	"github.com/vertti/chromapack/internal/chromatogram"
)

// DefaultVersion is the SCF version written when none is configured.
const DefaultVersion = 3

// EncodeOptions configures SCF encoding.
type EncodeOptions struct {
	Version int // 2 or 3 (default: 3)
}

// Encode writes c as an SCF file. Every section is materialized first so
// that the header can be built from the section sizes; the header is then
// written followed by samples, bases, comments and private data.
func Encode(c *chromatogram.Chromatogram, w io.Writer, opts *EncodeOptions) error {
	version := DefaultVersion
	if opts != nil && opts.Version != 0 {
		version = opts.Version
	}
	if version != 2 && version != 3 {
		return fmt.Errorf("unsupported scf version %d", version)
	}

	samples, sampleSize := encodeSamples(c, version)
	basesSection := encodeBases(c, version)
	comments, err := encodeComments(c.Comments())
	if err != nil {
		return err
	}
	private := c.PrivateData()

	h := newHeader(c, version, sampleSize, len(samples), len(basesSection), len(comments), len(private))
	if err := h.Write(w); err != nil {
		return fmt.Errorf("writing scf header: %w", err)
	}
	for _, section := range [][]byte{samples, basesSection, comments, private} {
		if _, err := w.Write(section); err != nil {
			return fmt.Errorf("writing scf section: %w", err)
		}
	}
	return nil
}

// newHeader lays the sections out back to back after the header.
//
//nolint:gosec // section sizes are bounded by the chromatogram dimensions
func newHeader(c *chromatogram.Chromatogram, version int, sampleSize uint32, samplesLen, basesLen, commentsLen, privateLen int) *Header {
	h := &Header{
		Samples:       uint32(c.NumSamples()),
		SamplesOffset: HeaderSize,
		Bases:         uint32(c.NumBases()),
		SampleSize:    sampleSize,
		Version:       Version3,
	}
	if version == 2 {
		h.Version = Version2
	}
	if clip, ok := c.Clip(); ok {
		h.BasesLeftClip = clip.Left
		h.BasesRightClip = clip.Right
	}

	offset := uint32(HeaderSize) + uint32(samplesLen)
	h.BasesOffset = offset
	offset += uint32(basesLen)
	h.CommentsOffset = offset
	h.CommentsSize = uint32(commentsLen)
	offset += uint32(commentsLen)
	h.PrivateOffset = offset
	h.PrivateSize = uint32(privateLen)
	return h
}
