package ztr

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/vertti/chromapack/internal/chromatogram"
	"github.com/vertti/chromapack/internal/format"
	"github.com/vertti/chromapack/internal/transform"
)

// Options configures ZTR decoding.
type Options struct {
	Logger *slog.Logger
}

func (o *Options) logger() *slog.Logger {
	if o == nil || o.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return o.Logger
}

// Decoder pulls events from a ZTR stream one chunk at a time. Chunks are
// read only when the events of the previous chunk have been consumed.
type Decoder struct {
	cr      chunkReader
	log     *slog.Logger
	calls   []byte // basecalls seen so far, needed to place CNF4 values
	pending []chromatogram.Event
	done    bool
	err     error
}

// NewDecoder validates the ZTR header read from r and returns a Decoder
// positioned at the first chunk.
func NewDecoder(r io.Reader, opts *Options) (*Decoder, error) {
	d := &Decoder{
		cr:  chunkReader{r: bufio.NewReader(r)},
		log: opts.logger(),
	}
	if err := d.cr.readHeader(); err != nil {
		return nil, fmt.Errorf("reading ztr header: %w", err)
	}
	return d, nil
}

// Decode reads a whole ZTR file into a Chromatogram.
func Decode(r io.Reader, opts *Options) (*chromatogram.Chromatogram, error) {
	dec, err := NewDecoder(r, opts)
	if err != nil {
		return nil, err
	}
	return chromatogram.Collect(dec)
}

// Next implements chromatogram.Decoder. After the last chunk it reports
// that the file carries no private data, then returns io.EOF.
func (d *Decoder) Next() (chromatogram.Event, error) {
	for len(d.pending) == 0 {
		if d.err != nil {
			return chromatogram.Event{}, d.err
		}
		if d.done {
			d.err = io.EOF
			continue
		}
		chunk, err := d.cr.next()
		if errors.Is(err, io.EOF) {
			d.done = true
			d.pending = []chromatogram.Event{{Kind: chromatogram.EventPrivateData}}
			continue
		}
		if err != nil {
			d.err = err
			continue
		}
		if d.pending, err = d.decodeChunk(chunk); err != nil {
			d.err = fmt.Errorf("%s chunk at offset %d: %w", chunk.Type, chunk.Offset, err)
		}
	}
	ev := d.pending[0]
	d.pending = d.pending[1:]
	return ev, nil
}

func (d *Decoder) decodeChunk(chunk *Chunk) ([]chromatogram.Event, error) {
	switch chunk.Type {
	case ChunkBase, ChunkPositions, ChunkConfidence, ChunkSamples, ChunkText, ChunkClip:
	default:
		d.log.Debug("ztr: skipping unknown chunk", "type", chunk.Type.String(), "offset", chunk.Offset)
		return nil, nil
	}

	payload, err := transform.Unpack(chunk.Data)
	if err != nil {
		return nil, err
	}

	switch chunk.Type {
	case ChunkBase:
		d.calls = payload
		return []chromatogram.Event{{Kind: chromatogram.EventBasecalls, Bytes: payload}}, nil

	case ChunkPositions:
		peaks, err := decodePositions(payload)
		if err != nil {
			return nil, err
		}
		return []chromatogram.Event{{Kind: chromatogram.EventPeaks, Samples: peaks}}, nil

	case ChunkConfidence:
		if d.calls == nil {
			return nil, &format.MissingSectionError{Section: ChunkBase.String()}
		}
		conf, err := decodeConfidence(payload, d.calls)
		if err != nil {
			return nil, err
		}
		events := make([]chromatogram.Event, 0, chromatogram.NumChannels)
		for _, ch := range chromatogram.Channels {
			events = append(events, chromatogram.Event{Kind: chromatogram.EventConfidence, Channel: ch, Bytes: conf[ch]})
		}
		return events, nil

	case ChunkSamples:
		traces, err := decodeSamples(payload)
		if err != nil {
			return nil, err
		}
		events := make([]chromatogram.Event, 0, chromatogram.NumChannels)
		for _, ch := range chromatogram.Channels {
			events = append(events, chromatogram.Event{Kind: chromatogram.EventTraces, Channel: ch, Samples: traces[ch]})
		}
		return events, nil

	case ChunkText:
		var events []chromatogram.Event
		for _, cm := range decodeText(payload) {
			events = append(events, chromatogram.Event{Kind: chromatogram.EventComment, Key: cm.Key, Value: cm.Value})
		}
		return events, nil

	default:
		clip, err := decodeClip(payload)
		if err != nil {
			return nil, err
		}
		return []chromatogram.Event{{Kind: chromatogram.EventClip, Clip: clip}}, nil
	}
}
