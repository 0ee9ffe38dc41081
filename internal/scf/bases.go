package scf

import (
	"fmt"

	"github.com/vertti/chromapack/internal/binio"
	"github.com/vertti/chromapack/internal/chromatogram"
	"github.com/vertti/chromapack/internal/format"
)

// bases holds the decoded bases section.
type bases struct {
	calls      []byte
	peaks      []uint16
	confidence [chromatogram.NumChannels][]byte
	optional   [3][]byte // substitution, insertion, deletion
}

func newBases(n int) *bases {
	b := &bases{
		calls: make([]byte, n),
		peaks: make([]uint16, n),
	}
	for ch := range b.confidence {
		b.confidence[ch] = make([]byte, n)
	}
	for k := range b.optional {
		b.optional[k] = make([]byte, n)
	}
	return b
}

func readPeak(c *binio.Cursor) (uint16, error) {
	off := c.Offset()
	v, err := c.Uint32()
	if err != nil {
		return 0, err
	}
	if v > 0xffff {
		return 0, &format.CorruptError{Where: "bases", Offset: off, Reason: fmt.Sprintf("peak position %d exceeds 16 bits", v)}
	}
	return uint16(v), nil
}

// decodeBasesV2 reads one interleaved record per base: peak, the four
// channel confidences, the base, then substitution, insertion and deletion
// confidence.
func decodeBasesV2(c *binio.Cursor, n int) (*bases, error) {
	b := newBases(n)
	for i := range n {
		peak, err := readPeak(c)
		if err != nil {
			return nil, err
		}
		b.peaks[i] = peak

		rec, err := c.Bytes(baseRecordSize - 4)
		if err != nil {
			return nil, err
		}
		for ch := range b.confidence {
			b.confidence[ch][i] = rec[ch]
		}
		b.calls[i] = rec[4]
		for k := range b.optional {
			b.optional[k][i] = rec[5+k]
		}
	}
	return b, nil
}

// decodeBasesV3 reads the same fields stored as separate arrays.
func decodeBasesV3(c *binio.Cursor, n int) (*bases, error) {
	b := newBases(n)
	for i := range n {
		peak, err := readPeak(c)
		if err != nil {
			return nil, err
		}
		b.peaks[i] = peak
	}

	arrays := make([][]byte, 0, 8)
	for ch := range b.confidence {
		arrays = append(arrays, b.confidence[ch])
	}
	arrays = append(arrays, b.calls)
	for k := range b.optional {
		arrays = append(arrays, b.optional[k])
	}
	for _, dst := range arrays {
		src, err := c.Bytes(n)
		if err != nil {
			return nil, err
		}
		copy(dst, src)
	}
	return b, nil
}

func (b *bases) events() []chromatogram.Event {
	events := []chromatogram.Event{
		{Kind: chromatogram.EventBasecalls, Bytes: b.calls},
		{Kind: chromatogram.EventPeaks, Samples: b.peaks},
	}
	for _, ch := range chromatogram.Channels {
		events = append(events, chromatogram.Event{Kind: chromatogram.EventConfidence, Channel: ch, Bytes: b.confidence[ch]})
	}
	for k, conf := range b.optional {
		events = append(events, chromatogram.Event{
			Kind:     chromatogram.EventOptionalConfidence,
			Optional: chromatogram.OptionalKind(k),
			Bytes:    conf,
		})
	}
	return events
}

// encodeBases returns the bases section for the given version. Absent
// optional confidence arrays are written as zeros.
func encodeBases(c *chromatogram.Chromatogram, version int) []byte {
	n := c.NumBases()
	calls := c.Basecalls()
	peaks := c.Peaks()
	var conf [chromatogram.NumChannels][]byte
	for _, ch := range chromatogram.Channels {
		conf[ch] = c.Confidence(ch)
	}
	var optional [3][]byte
	for k := range optional {
		optional[k] = c.Optional(chromatogram.OptionalKind(k))
		if optional[k] == nil {
			optional[k] = make([]byte, n)
		}
	}

	out := make([]byte, 0, n*baseRecordSize)
	if version == 2 {
		for i := range n {
			out = binio.AppendUint32(out, uint32(peaks[i]))
			for ch := range conf {
				out = append(out, conf[ch][i])
			}
			out = append(out, calls[i])
			for k := range optional {
				out = append(out, optional[k][i])
			}
		}
		return out
	}

	for _, p := range peaks {
		out = binio.AppendUint32(out, uint32(p))
	}
	for ch := range conf {
		out = append(out, conf[ch]...)
	}
	out = append(out, calls...)
	for k := range optional {
		out = append(out, optional[k]...)
	}
	return out
}
