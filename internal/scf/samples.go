package scf

import (
	"golang.org/x/sync/errgroup"

	"github.com/vertti/chromapack/internal/binio"
	"github.com/vertti/chromapack/internal/chromatogram"
	"github.com/vertti/chromapack/internal/format"
	"github.com/vertti/chromapack/internal/transform"
)

// positionStrategy reads and writes samples of one on-disk width.
type positionStrategy interface {
	width() int
	read(c *binio.Cursor) (uint16, error)
	appendTo(dst []byte, v uint16) []byte
	// deltaDecode undoes the version 3 delta-delta coding at this width.
	deltaDecode(vals []uint16)
}

type byteStrategy struct{}

func (byteStrategy) width() int { return 1 }

func (byteStrategy) read(c *binio.Cursor) (uint16, error) {
	v, err := c.Uint8()
	return uint16(v), err
}

func (byteStrategy) appendTo(dst []byte, v uint16) []byte {
	return append(dst, byte(v)) //nolint:gosec // caller picks this strategy only for values <= 255
}

func (byteStrategy) deltaDecode(vals []uint16) {
	narrow := make([]uint8, len(vals))
	for i, v := range vals {
		narrow[i] = uint8(v) //nolint:gosec // values were read from single bytes
	}
	transform.DeltaDecode(narrow, 2)
	for i, v := range narrow {
		vals[i] = uint16(v)
	}
}

type shortStrategy struct{}

func (shortStrategy) width() int { return 2 }

func (shortStrategy) read(c *binio.Cursor) (uint16, error) {
	return c.Uint16()
}

func (shortStrategy) appendTo(dst []byte, v uint16) []byte {
	return binio.AppendUint16(dst, v)
}

func (shortStrategy) deltaDecode(vals []uint16) {
	transform.DeltaDecode(vals, 2)
}

func strategyFor(sampleSize uint32) positionStrategy {
	if sampleSize == 1 {
		return byteStrategy{}
	}
	return shortStrategy{}
}

// decodeSamplesV2 reads interleaved A, C, G, T values for each sample point.
func decodeSamplesV2(c *binio.Cursor, n int, ps positionStrategy) ([chromatogram.NumChannels][]uint16, error) {
	var traces [chromatogram.NumChannels][]uint16
	for ch := range traces {
		traces[ch] = make([]uint16, n)
	}
	for i := range n {
		for ch := range traces {
			v, err := ps.read(c)
			if err != nil {
				return traces, err
			}
			traces[ch][i] = v
		}
	}
	return traces, nil
}

// channelResult is the outcome of decoding one version 3 channel.
type channelResult struct {
	samples []uint16
	read    int // samples present in the file; the rest are zero
}

// decodeChannelV3 reads up to n delta-delta coded samples from data. When
// data ends early the samples read so far are decoded and the remainder is
// left zero.
func decodeChannelV3(data *binio.Cursor, n int, ps positionStrategy) channelResult {
	samples := make([]uint16, n)
	read := 0
	for read < n && data.Remaining() >= ps.width() {
		v, _ := ps.read(data) //nolint:errcheck // Remaining checked
		samples[read] = v
		read++
	}
	ps.deltaDecode(samples[:read])
	return channelResult{samples: samples, read: read}
}

// decodeSamplesV3 reads four contiguous channel arrays. Each channel only
// sees its own byte range, so channels never share prediction history and
// may be decoded concurrently.
func decodeSamplesV3(c *binio.Cursor, n int, ps positionStrategy, opts *Options) ([chromatogram.NumChannels][]uint16, error) {
	var traces [chromatogram.NumChannels][]uint16
	var results [chromatogram.NumChannels]channelResult

	channelBytes := n * ps.width()
	cursors := make([]*binio.Cursor, chromatogram.NumChannels)
	for ch := range cursors {
		cursors[ch] = c.SubAvailable(channelBytes, "samples "+chromatogram.Channel(ch).String())
	}

	if opts.Parallel {
		var g errgroup.Group
		for ch := range cursors {
			g.Go(func() error {
				results[ch] = decodeChannelV3(cursors[ch], n, ps)
				return nil
			})
		}
		_ = g.Wait() //nolint:errcheck // channel decoders do not fail
	} else {
		for ch := range cursors {
			results[ch] = decodeChannelV3(cursors[ch], n, ps)
		}
	}

	for ch, r := range results {
		traces[ch] = r.samples
		if r.read == n {
			continue
		}
		if opts.Strict {
			return traces, &format.TruncatedError{
				Where:  "samples " + chromatogram.Channel(ch).String(),
				Offset: cursors[ch].Offset(),
				Want:   channelBytes,
				Have:   r.read * ps.width(),
			}
		}
		opts.logger().Debug("scf: samples truncated, padding with zeros",
			"channel", chromatogram.Channel(ch).String(), "read", r.read, "want", n)
	}
	return traces, nil
}

// encodeSamples returns the samples section and the sample size used.
// Version 3 always stores 16-bit values because delta-delta residuals use
// the full width.
func encodeSamples(c *chromatogram.Chromatogram, version int) ([]byte, uint32) {
	n := c.NumSamples()
	var traces [chromatogram.NumChannels][]uint16
	maxValue := uint16(0)
	for _, ch := range chromatogram.Channels {
		traces[ch] = c.Trace(ch)
		for _, v := range traces[ch] {
			maxValue = max(maxValue, v)
		}
	}

	if version == 3 {
		out := make([]byte, 0, n*4*2)
		for _, ch := range chromatogram.Channels {
			transform.DeltaEncode(traces[ch], 2)
			for _, v := range traces[ch] {
				out = binio.AppendUint16(out, v)
			}
		}
		return out, 2
	}

	sampleSize := uint32(2)
	if maxValue <= 0xff {
		sampleSize = 1
	}
	ps := strategyFor(sampleSize)
	out := make([]byte, 0, n*4*ps.width())
	for i := range n {
		for _, ch := range chromatogram.Channels {
			out = ps.appendTo(out, traces[ch][i])
		}
	}
	return out, sampleSize
}
