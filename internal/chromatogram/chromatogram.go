// Package chromatogram models a decoded Sanger trace and the events that
// decoders produce while reading one.
package chromatogram

import "slices"

// Clip holds the quality clip points of a read, as base positions.
type Clip struct {
	Left  uint32
	Right uint32
}

// Comment is one key/value property from a trace file.
type Comment struct {
	Key   string
	Value string
}

// Comments is an ordered property list. Keys may repeat.
type Comments []Comment

// Get returns the value of the first comment with the given key.
func (cs Comments) Get(key string) (string, bool) {
	for _, c := range cs {
		if c.Key == key {
			return c.Value, true
		}
	}
	return "", false
}

// Chromatogram is an immutable decoded trace. Accessors return copies.
type Chromatogram struct {
	basecalls   []byte
	peaks       []uint16
	confidence  [NumChannels][]byte
	traces      [NumChannels][]uint16
	optional    [3][]byte // indexed by OptionalKind; nil when absent
	comments    Comments
	privateData []byte // nil when absent
	clip        *Clip
}

// NumBases returns the number of basecalls.
func (c *Chromatogram) NumBases() int { return len(c.basecalls) }

// NumSamples returns the number of trace samples per channel.
func (c *Chromatogram) NumSamples() int { return len(c.traces[A]) }

// Basecalls returns the called bases as ASCII.
func (c *Chromatogram) Basecalls() []byte { return slices.Clone(c.basecalls) }

// BasecallString returns the called bases as a string.
func (c *Chromatogram) BasecallString() string { return string(c.basecalls) }

// Peaks returns the sample offset of each base's peak.
func (c *Chromatogram) Peaks() []uint16 { return slices.Clone(c.peaks) }

// Confidence returns the per-base confidence values of one channel.
func (c *Chromatogram) Confidence(ch Channel) []byte {
	if !ch.valid() {
		return nil
	}
	return slices.Clone(c.confidence[ch])
}

// Trace returns the raw samples of one channel.
func (c *Chromatogram) Trace(ch Channel) []uint16 {
	if !ch.valid() {
		return nil
	}
	return slices.Clone(c.traces[ch])
}

// Optional returns one of the optional per-base confidence arrays, or nil
// when the source did not carry it.
func (c *Chromatogram) Optional(kind OptionalKind) []byte {
	if int(kind) >= len(c.optional) {
		return nil
	}
	return slices.Clone(c.optional[kind])
}

// Comments returns the comment list.
func (c *Chromatogram) Comments() Comments { return slices.Clone(c.comments) }

// PrivateData returns the private data blob, or nil when absent.
func (c *Chromatogram) PrivateData() []byte { return slices.Clone(c.privateData) }

// HasPrivateData reports whether the source carried a private data section.
func (c *Chromatogram) HasPrivateData() bool { return c.privateData != nil }

// Clip returns the clip points and whether the source carried any.
func (c *Chromatogram) Clip() (Clip, bool) {
	if c.clip == nil {
		return Clip{}, false
	}
	return *c.clip, true
}

// Quality returns, for each base, the confidence of the channel it was
// called on. Bases that are not A, C, G or T get 0.
func (c *Chromatogram) Quality() []byte {
	q := make([]byte, len(c.basecalls))
	for i, b := range c.basecalls {
		if ch, ok := ChannelOf(b); ok {
			q[i] = c.confidence[ch][i]
		}
	}
	return q
}
