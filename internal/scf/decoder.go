package scf

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/vertti/chromapack/internal/binio"
	"github.com/vertti/chromapack/internal/chromatogram"
	"github.com/vertti/chromapack/internal/format"
)

// Options configures SCF decoding.
type Options struct {
	// Strict turns a truncated version 3 samples section into an error
	// instead of zero-padding the affected channels.
	Strict bool
	// Parallel decodes the four version 3 sample channels concurrently.
	Parallel bool
	// RequireBases fails decoding when the file has no bases section.
	RequireBases bool
	Logger       *slog.Logger
}

func (o *Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return o.Logger
}

// NewDecoder reads an SCF file from r and returns a Decoder over its
// sections. The header is parsed and validated before NewDecoder returns;
// sections are decoded lazily, in file order, as events are pulled.
func NewDecoder(r io.Reader, opts *Options) (chromatogram.Decoder, error) {
	if opts == nil {
		opts = &Options{}
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading scf: %w", err)
	}
	return NewDecoderBytes(data, opts)
}

// NewDecoderBytes is NewDecoder for an in-memory file.
func NewDecoderBytes(data []byte, opts *Options) (chromatogram.Decoder, error) {
	if opts == nil {
		opts = &Options{}
	}
	cur := binio.NewCursor(data, "scf header")
	h, err := ReadHeader(cur)
	if err != nil {
		return nil, fmt.Errorf("reading scf header: %w", err)
	}
	sections, err := h.sections()
	if err != nil {
		return nil, err
	}
	if opts.RequireBases && h.BasesSize() == 0 {
		return nil, &format.MissingSectionError{Section: "bases"}
	}

	d := &sectionDecoder{header: h, cur: cur, opts: opts}
	var steps []chromatogram.Step
	if h.BasesLeftClip != 0 || h.BasesRightClip != 0 {
		steps = append(steps, d.clip)
	}
	hasPrivate := false
	for _, s := range sections {
		steps = append(steps, d.step(s))
		hasPrivate = hasPrivate || s.kind == sectionPrivate
	}
	if !hasPrivate {
		steps = append(steps, absentPrivateData)
	}
	return chromatogram.NewLazyDecoder(steps...), nil
}

// Decode reads a whole SCF file into a Chromatogram.
func Decode(r io.Reader, opts *Options) (*chromatogram.Chromatogram, error) {
	dec, err := NewDecoder(r, opts)
	if err != nil {
		return nil, err
	}
	return chromatogram.Collect(dec)
}

// sectionDecoder walks the file with a single forward-only cursor.
type sectionDecoder struct {
	header *Header
	cur    *binio.Cursor
	opts   *Options
}

func (d *sectionDecoder) clip() ([]chromatogram.Event, error) {
	return []chromatogram.Event{{
		Kind: chromatogram.EventClip,
		Clip: chromatogram.Clip{Left: d.header.BasesLeftClip, Right: d.header.BasesRightClip},
	}}, nil
}

func absentPrivateData() ([]chromatogram.Event, error) {
	return []chromatogram.Event{{Kind: chromatogram.EventPrivateData}}, nil
}

func (d *sectionDecoder) step(s section) chromatogram.Step {
	return func() ([]chromatogram.Event, error) {
		// Gaps between sections are padding
		if err := d.cur.SkipTo(s.offset); err != nil {
			var he *format.InconsistentHeaderError
			if errors.As(err, &he) {
				return nil, err
			}
			return nil, fmt.Errorf("locating %s section: %w", s.kind, err)
		}
		events, err := d.decode(s)
		if err != nil {
			return nil, fmt.Errorf("decoding %s section: %w", s.kind, err)
		}
		return events, nil
	}
}

func (d *sectionDecoder) decode(s section) ([]chromatogram.Event, error) {
	h := d.header
	version := h.Major()

	if s.kind == sectionSamples && version == 3 {
		ps := strategyFor(h.SampleSize)
		// Zero padding is bounded by the input: a file too short to hold a
		// single channel is not a truncated trace.
		if channelBytes := int64(h.Samples) * int64(ps.width()); channelBytes > int64(d.cur.Len()) {
			return nil, &format.TruncatedError{
				Where:  s.kind.String(),
				Offset: s.offset,
				Want:   int(channelBytes),
				Have:   d.cur.Remaining(),
			}
		}
		sub := d.cur.SubAvailable(int(s.size), s.kind.String())
		traces, err := decodeSamplesV3(sub, int(h.Samples), ps, d.opts)
		if err != nil {
			return nil, err
		}
		return traceEvents(traces), nil
	}

	sub, err := d.cur.Sub(int(s.size), s.kind.String())
	if err != nil {
		return nil, err
	}

	switch s.kind {
	case sectionSamples:
		traces, err := decodeSamplesV2(sub, int(h.Samples), strategyFor(h.SampleSize))
		if err != nil {
			return nil, err
		}
		return traceEvents(traces), nil
	case sectionBases:
		var b *bases
		if version == 3 {
			b, err = decodeBasesV3(sub, int(h.Bases))
		} else {
			b, err = decodeBasesV2(sub, int(h.Bases))
		}
		if err != nil {
			return nil, err
		}
		return b.events(), nil
	case sectionComments:
		var events []chromatogram.Event
		for _, c := range decodeComments(sub.Rest()) {
			events = append(events, chromatogram.Event{Kind: chromatogram.EventComment, Key: c.Key, Value: c.Value})
		}
		return events, nil
	default:
		data := make([]byte, sub.Len())
		copy(data, sub.Rest())
		return []chromatogram.Event{{Kind: chromatogram.EventPrivateData, Bytes: data}}, nil
	}
}

func traceEvents(traces [chromatogram.NumChannels][]uint16) []chromatogram.Event {
	events := make([]chromatogram.Event, 0, chromatogram.NumChannels)
	for _, ch := range chromatogram.Channels {
		events = append(events, chromatogram.Event{Kind: chromatogram.EventTraces, Channel: ch, Samples: traces[ch]})
	}
	return events
}
