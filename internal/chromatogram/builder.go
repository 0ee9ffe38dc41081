package chromatogram

import (
	"fmt"
	"slices"

	"github.com/vertti/chromapack/internal/format"
)

// Builder accumulates decoded fields and produces a Chromatogram. It
// implements Visitor so it can be fed directly by Stream.
type Builder struct {
	c Chromatogram
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// SetBasecalls sets the called bases.
func (b *Builder) SetBasecalls(bases []byte) *Builder {
	b.c.basecalls = slices.Clone(bases)
	return b
}

// SetPeaks sets the peak positions.
func (b *Builder) SetPeaks(peaks []uint16) *Builder {
	b.c.peaks = slices.Clone(peaks)
	return b
}

// SetConfidence sets the per-base confidence of one channel.
func (b *Builder) SetConfidence(ch Channel, conf []byte) *Builder {
	if ch.valid() {
		b.c.confidence[ch] = slices.Clone(conf)
	}
	return b
}

// SetTrace sets the samples of one channel.
func (b *Builder) SetTrace(ch Channel, samples []uint16) *Builder {
	if ch.valid() {
		b.c.traces[ch] = slices.Clone(samples)
	}
	return b
}

// SetOptional sets an optional per-base confidence array. nil marks it absent.
func (b *Builder) SetOptional(kind OptionalKind, conf []byte) *Builder {
	if int(kind) < len(b.c.optional) {
		b.c.optional[kind] = slices.Clone(conf)
	}
	return b
}

// AddComment appends a comment.
func (b *Builder) AddComment(key, value string) *Builder {
	b.c.comments = append(b.c.comments, Comment{Key: key, Value: value})
	return b
}

// SetPrivateData sets the private data blob. nil marks it absent.
func (b *Builder) SetPrivateData(data []byte) *Builder {
	b.c.privateData = slices.Clone(data)
	return b
}

// SetClip sets the clip points.
func (b *Builder) SetClip(c Clip) *Builder {
	b.c.clip = &c
	return b
}

// Build validates the accumulated fields and returns the chromatogram.
// Missing peaks or confidence arrays are zero-filled; arrays that are
// present but disagree with the number of basecalls are an error, as are
// traces of differing lengths.
func (b *Builder) Build() (*Chromatogram, error) {
	c := b.c
	n := len(c.basecalls)

	if c.basecalls == nil {
		c.basecalls = []byte{}
	}
	if c.peaks == nil {
		c.peaks = make([]uint16, n)
	}
	if len(c.peaks) != n {
		return nil, &format.InconsistentDataError{Field: "peaks", Want: n, Have: len(c.peaks)}
	}
	for _, ch := range Channels {
		if c.confidence[ch] == nil {
			c.confidence[ch] = make([]byte, n)
		}
		if len(c.confidence[ch]) != n {
			return nil, &format.InconsistentDataError{Field: fmt.Sprintf("confidence %s", ch), Want: n, Have: len(c.confidence[ch])}
		}
	}
	for kind, conf := range c.optional {
		if conf != nil && len(conf) != n {
			return nil, &format.InconsistentDataError{Field: OptionalKind(kind).String() + " confidence", Want: n, Have: len(conf)}
		}
	}

	samples := len(c.traces[A])
	for _, ch := range Channels {
		if c.traces[ch] == nil {
			c.traces[ch] = []uint16{}
		}
		if len(c.traces[ch]) != samples {
			return nil, &format.InconsistentDataError{Field: fmt.Sprintf("trace %s", ch), Want: samples, Have: len(c.traces[ch])}
		}
	}

	// Copy so later builder calls cannot reach the result
	out := c
	out.comments = slices.Clone(c.comments)
	if c.clip != nil {
		clip := *c.clip
		out.clip = &clip
	}
	return &out, nil
}

// FromChromatogram returns a builder preloaded with the fields of c.
func FromChromatogram(c *Chromatogram) *Builder {
	b := NewBuilder()
	b.SetBasecalls(c.basecalls).SetPeaks(c.peaks)
	for _, ch := range Channels {
		b.SetConfidence(ch, c.confidence[ch]).SetTrace(ch, c.traces[ch])
	}
	for kind, conf := range c.optional {
		b.SetOptional(OptionalKind(kind), conf)
	}
	for _, cm := range c.comments {
		b.AddComment(cm.Key, cm.Value)
	}
	b.SetPrivateData(c.privateData)
	if c.clip != nil {
		b.SetClip(*c.clip)
	}
	return b
}

// VisitBasecalls implements Visitor.
func (b *Builder) VisitBasecalls(bases []byte) error {
	b.SetBasecalls(bases)
	return nil
}

// VisitPeaks implements Visitor.
func (b *Builder) VisitPeaks(peaks []uint16) error {
	b.SetPeaks(peaks)
	return nil
}

// VisitConfidence implements Visitor.
func (b *Builder) VisitConfidence(ch Channel, conf []byte) error {
	b.SetConfidence(ch, conf)
	return nil
}

// VisitOptionalConfidence implements Visitor.
func (b *Builder) VisitOptionalConfidence(kind OptionalKind, conf []byte) error {
	b.SetOptional(kind, conf)
	return nil
}

// VisitTraces implements Visitor.
func (b *Builder) VisitTraces(ch Channel, samples []uint16) error {
	b.SetTrace(ch, samples)
	return nil
}

// VisitClip implements Visitor.
func (b *Builder) VisitClip(c Clip) error {
	b.SetClip(c)
	return nil
}

// VisitComment implements Visitor.
func (b *Builder) VisitComment(key, value string) error {
	b.AddComment(key, value)
	return nil
}

// VisitPrivateData implements Visitor.
func (b *Builder) VisitPrivateData(data []byte) error {
	b.SetPrivateData(data)
	return nil
}

// VisitEnd implements Visitor.
func (b *Builder) VisitEnd() error { return nil }
