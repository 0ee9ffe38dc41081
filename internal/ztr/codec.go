package ztr

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/vertti/chromapack/internal/binio"
	"github.com/vertti/chromapack/internal/chromatogram"
	"github.com/vertti/chromapack/internal/format"
)

// Payloads are padded so that the values after the raw tag byte are
// aligned to their width.
const (
	samplesPad   = 1
	positionsPad = 3
)

func encodeBase(c *chromatogram.Chromatogram) []byte {
	return c.Basecalls()
}

func encodePositions(c *chromatogram.Chromatogram) []byte {
	peaks := c.Peaks()
	out := make([]byte, positionsPad, positionsPad+4*len(peaks))
	for _, p := range peaks {
		out = binio.AppendUint32(out, uint32(p))
	}
	return out
}

func decodePositions(payload []byte) ([]uint16, error) {
	cur := binio.NewCursor(payload, ChunkPositions.String())
	if err := cur.Skip(positionsPad); err != nil {
		return nil, err
	}
	if cur.Remaining()%4 != 0 {
		return nil, &format.AlignmentError{Transform: ChunkPositions.String(), Len: cur.Remaining(), Width: 4}
	}
	peaks := make([]uint16, cur.Remaining()/4)
	for i := range peaks {
		off := cur.Offset()
		v, err := cur.Uint32()
		if err != nil {
			return nil, err
		}
		if v > 0xffff {
			return nil, &format.CorruptError{Where: ChunkPositions.String(), Offset: off, Reason: fmt.Sprintf("peak position %d exceeds 16 bits", v)}
		}
		peaks[i] = uint16(v)
	}
	return peaks, nil
}

// calledChannel is the channel whose confidence leads a CNF4 entry. Bases
// other than A, C, G and T use the T slot.
func calledChannel(base byte) chromatogram.Channel {
	if ch, ok := chromatogram.ChannelOf(base); ok {
		return ch
	}
	return chromatogram.T
}

// encodeConfidence stores the called-base confidence of every base, then for
// each base the confidence of the remaining three channels in A, C, G, T
// order.
func encodeConfidence(c *chromatogram.Chromatogram) []byte {
	calls := c.Basecalls()
	n := len(calls)
	var conf [chromatogram.NumChannels][]byte
	for _, ch := range chromatogram.Channels {
		conf[ch] = c.Confidence(ch)
	}

	out := make([]byte, n, 4*n)
	for i, b := range calls {
		out[i] = conf[calledChannel(b)][i]
	}
	for i, b := range calls {
		called := calledChannel(b)
		for _, ch := range chromatogram.Channels {
			if ch != called {
				out = append(out, conf[ch][i])
			}
		}
	}
	return out
}

func decodeConfidence(payload, calls []byte) ([chromatogram.NumChannels][]byte, error) {
	var conf [chromatogram.NumChannels][]byte
	n := len(calls)
	if len(payload) != 4*n {
		return conf, &format.InconsistentDataError{Field: ChunkConfidence.String(), Want: 4 * n, Have: len(payload)}
	}
	for ch := range conf {
		conf[ch] = make([]byte, n)
	}
	rest := payload[n:]
	for i, b := range calls {
		called := calledChannel(b)
		conf[called][i] = payload[i]
		for _, ch := range chromatogram.Channels {
			if ch != called {
				conf[ch][i] = rest[0]
				rest = rest[1:]
			}
		}
	}
	return conf, nil
}

func encodeSamples(c *chromatogram.Chromatogram) []byte {
	n := c.NumSamples()
	out := make([]byte, samplesPad, samplesPad+2*4*n)
	for _, ch := range chromatogram.Channels {
		for _, v := range c.Trace(ch) {
			out = binio.AppendUint16(out, v)
		}
	}
	return out
}

func decodeSamples(payload []byte) ([chromatogram.NumChannels][]uint16, error) {
	var traces [chromatogram.NumChannels][]uint16
	cur := binio.NewCursor(payload, ChunkSamples.String())
	if err := cur.Skip(samplesPad); err != nil {
		return traces, err
	}
	if cur.Remaining()%(2*chromatogram.NumChannels) != 0 {
		return traces, &format.AlignmentError{Transform: ChunkSamples.String(), Len: cur.Remaining(), Width: 2 * chromatogram.NumChannels}
	}
	n := cur.Remaining() / (2 * chromatogram.NumChannels)
	for ch := range traces {
		traces[ch] = make([]uint16, n)
		for i := range n {
			v, err := cur.Uint16()
			if err != nil {
				return traces, err
			}
			traces[ch][i] = v
		}
	}
	return traces, nil
}

// encodeText writes NUL separated key/value pairs and a final NUL.
func encodeText(comments chromatogram.Comments) ([]byte, error) {
	var buf bytes.Buffer
	for _, cm := range comments {
		if cm.Key == "" || strings.IndexByte(cm.Key, 0) >= 0 || strings.IndexByte(cm.Value, 0) >= 0 {
			return nil, fmt.Errorf("comment %q cannot be stored in a ztr TEXT chunk", cm.Key)
		}
		buf.WriteString(cm.Key)
		buf.WriteByte(0)
		buf.WriteString(cm.Value)
		buf.WriteByte(0)
	}
	buf.WriteByte(0)
	return buf.Bytes(), nil
}

// decodeText stops at the first empty key. A key without a value gets an
// empty one.
func decodeText(payload []byte) chromatogram.Comments {
	var comments chromatogram.Comments
	fields := bytes.Split(payload, []byte{0})
	for i := 0; i < len(fields); i += 2 {
		if len(fields[i]) == 0 {
			break
		}
		cm := chromatogram.Comment{Key: string(fields[i])}
		if i+1 < len(fields) {
			cm.Value = string(fields[i+1])
		}
		comments = append(comments, cm)
	}
	return comments
}

func encodeClip(clip chromatogram.Clip) []byte {
	out := make([]byte, 8)
	binary.BigEndian.PutUint32(out[0:4], clip.Left)
	binary.BigEndian.PutUint32(out[4:8], clip.Right)
	return out
}

func decodeClip(payload []byte) (chromatogram.Clip, error) {
	cur := binio.NewCursor(payload, ChunkClip.String())
	left, err := cur.Uint32()
	if err != nil {
		return chromatogram.Clip{}, err
	}
	right, err := cur.Uint32()
	if err != nil {
		return chromatogram.Clip{}, err
	}
	return chromatogram.Clip{Left: left, Right: right}, nil
}
