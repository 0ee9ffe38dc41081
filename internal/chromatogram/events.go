package chromatogram

import (
	"errors"
	"fmt"
	"io"
)

// EventKind identifies the field an Event carries.
type EventKind uint8

// Event kinds, in the order decoders emit them.
const (
	EventBasecalls EventKind = iota + 1
	EventPeaks
	EventConfidence
	EventOptionalConfidence
	EventTraces
	EventClip
	EventComment
	EventPrivateData
)

func (k EventKind) String() string {
	switch k {
	case EventBasecalls:
		return "basecalls"
	case EventPeaks:
		return "peaks"
	case EventConfidence:
		return "confidence"
	case EventOptionalConfidence:
		return "optional confidence"
	case EventTraces:
		return "traces"
	case EventClip:
		return "clip"
	case EventComment:
		return "comment"
	case EventPrivateData:
		return "private data"
	default:
		return fmt.Sprintf("event(%d)", uint8(k))
	}
}

// Event is one decoded field. Only the members relevant to Kind are set.
type Event struct {
	Kind     EventKind
	Channel  Channel      // EventConfidence, EventTraces
	Optional OptionalKind // EventOptionalConfidence
	Bytes    []byte       // basecalls, confidence, private data (nil = absent)
	Samples  []uint16     // peaks, traces
	Key      string       // EventComment
	Value    string       // EventComment
	Clip     Clip         // EventClip
}

// Decoder yields the fields of one chromatogram in order. Next returns
// io.EOF after the last event. A consumer that has seen enough simply stops
// calling Next.
type Decoder interface {
	Next() (Event, error)
}

// Step decodes the next group of events. Steps run lazily, one at a time,
// as the consumer pulls.
type Step func() ([]Event, error)

// lazyDecoder runs steps on demand and queues their events.
type lazyDecoder struct {
	steps   []Step
	pending []Event
	err     error
}

// NewLazyDecoder returns a Decoder that runs each step only when the
// events of the previous ones have been consumed. The first error ends
// the sequence and is returned from every later call.
func NewLazyDecoder(steps ...Step) Decoder {
	return &lazyDecoder{steps: steps}
}

func (d *lazyDecoder) Next() (Event, error) {
	for len(d.pending) == 0 {
		if d.err != nil {
			return Event{}, d.err
		}
		if len(d.steps) == 0 {
			d.err = io.EOF
			return Event{}, io.EOF
		}
		step := d.steps[0]
		d.steps = d.steps[1:]
		events, err := step()
		if err != nil {
			d.err = err
			return Event{}, err
		}
		d.pending = events
	}
	ev := d.pending[0]
	d.pending = d.pending[1:]
	return ev, nil
}

// ErrStop may be returned by a Visitor callback to end Stream early. Stream
// then returns nil.
var ErrStop = errors.New("stop streaming")

// Visitor receives decoded fields through callbacks. VisitPrivateData is
// called with nil when the source has no private data.
type Visitor interface {
	VisitBasecalls(bases []byte) error
	VisitPeaks(peaks []uint16) error
	VisitConfidence(ch Channel, conf []byte) error
	VisitOptionalConfidence(kind OptionalKind, conf []byte) error
	VisitTraces(ch Channel, samples []uint16) error
	VisitClip(c Clip) error
	VisitComment(key, value string) error
	VisitPrivateData(data []byte) error
	VisitEnd() error
}

// Stream pulls every event from dec and hands it to v, then calls VisitEnd.
func Stream(dec Decoder, v Visitor) error {
	for {
		ev, err := dec.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		if err := dispatch(ev, v); err != nil {
			if errors.Is(err, ErrStop) {
				return nil
			}
			return err
		}
	}
	if err := v.VisitEnd(); err != nil && !errors.Is(err, ErrStop) {
		return err
	}
	return nil
}

func dispatch(ev Event, v Visitor) error {
	switch ev.Kind {
	case EventBasecalls:
		return v.VisitBasecalls(ev.Bytes)
	case EventPeaks:
		return v.VisitPeaks(ev.Samples)
	case EventConfidence:
		return v.VisitConfidence(ev.Channel, ev.Bytes)
	case EventOptionalConfidence:
		return v.VisitOptionalConfidence(ev.Optional, ev.Bytes)
	case EventTraces:
		return v.VisitTraces(ev.Channel, ev.Samples)
	case EventClip:
		return v.VisitClip(ev.Clip)
	case EventComment:
		return v.VisitComment(ev.Key, ev.Value)
	case EventPrivateData:
		return v.VisitPrivateData(ev.Bytes)
	default:
		return fmt.Errorf("unknown event kind %d", ev.Kind)
	}
}

// Collect drains dec into a Chromatogram.
func Collect(dec Decoder) (*Chromatogram, error) {
	b := NewBuilder()
	if err := Stream(dec, b); err != nil {
		return nil, err
	}
	return b.Build()
}

// Events returns the event sequence a decoder would produce for c. Encoders
// and tests use it to replay a chromatogram through a Visitor.
func Events(c *Chromatogram) []Event {
	events := []Event{
		{Kind: EventBasecalls, Bytes: c.Basecalls()},
		{Kind: EventPeaks, Samples: c.Peaks()},
	}
	for _, ch := range Channels {
		events = append(events, Event{Kind: EventConfidence, Channel: ch, Bytes: c.Confidence(ch)})
	}
	for kind := range c.optional {
		if conf := c.Optional(OptionalKind(kind)); conf != nil {
			events = append(events, Event{Kind: EventOptionalConfidence, Optional: OptionalKind(kind), Bytes: conf})
		}
	}
	for _, ch := range Channels {
		events = append(events, Event{Kind: EventTraces, Channel: ch, Samples: c.Trace(ch)})
	}
	if clip, ok := c.Clip(); ok {
		events = append(events, Event{Kind: EventClip, Clip: clip})
	}
	for _, cm := range c.comments {
		events = append(events, Event{Kind: EventComment, Key: cm.Key, Value: cm.Value})
	}
	return append(events, Event{Kind: EventPrivateData, Bytes: c.PrivateData()})
}
