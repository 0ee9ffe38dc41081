package chromatogram

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vertti/chromapack/internal/format"
)

func sample(t *testing.T) *Chromatogram {
	t.Helper()

	c, err := NewBuilder().
		SetBasecalls([]byte("ACGTN")).
		SetPeaks([]uint16{10, 20, 30, 40, 50}).
		SetConfidence(A, []byte{40, 1, 2, 3, 4}).
		SetConfidence(C, []byte{5, 35, 6, 7, 8}).
		SetConfidence(G, []byte{9, 10, 30, 11, 12}).
		SetConfidence(T, []byte{13, 14, 15, 25, 16}).
		SetTrace(A, []uint16{0, 1, 2}).
		SetTrace(C, []uint16{3, 4, 5}).
		SetTrace(G, []uint16{6, 7, 8}).
		SetTrace(T, []uint16{9, 10, 11}).
		AddComment("NAME", "read1").
		AddComment("MACH", "ABI 3730").
		AddComment("NAME", "shadowed").
		SetClip(Clip{Left: 1, Right: 4}).
		Build()
	require.NoError(t, err)
	return c
}

func TestChannelOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		base byte
		want Channel
		ok   bool
	}{
		{'A', A, true},
		{'c', C, true},
		{'G', G, true},
		{'t', T, true},
		{'N', 0, false},
		{'-', 0, false},
		{'R', 0, false},
	}

	for _, tt := range tests {
		ch, ok := ChannelOf(tt.base)
		assert.Equal(t, tt.ok, ok, "base %q", tt.base)
		if tt.ok {
			assert.Equal(t, tt.want, ch)
			assert.Equal(t, tt.want.Base(), ch.Base())
		}
	}
	assert.Equal(t, "G", G.String())
}

func TestBuilder_Build(t *testing.T) {
	t.Parallel()

	c := sample(t)
	assert.Equal(t, "ACGTN", c.BasecallString())
	assert.Equal(t, 5, c.NumBases())
	assert.Equal(t, 3, c.NumSamples())
	assert.Equal(t, []uint16{6, 7, 8}, c.Trace(G))
	assert.Nil(t, c.PrivateData())
	assert.False(t, c.HasPrivateData())
	assert.Nil(t, c.Optional(Substitution))

	clip, ok := c.Clip()
	require.True(t, ok)
	assert.Equal(t, Clip{Left: 1, Right: 4}, clip)
}

func TestChromatogram_Quality(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []byte{40, 35, 30, 25, 0}, sample(t).Quality())
}

func TestChannel_OutOfRangeIsIgnored(t *testing.T) {
	t.Parallel()

	c, err := FromChromatogram(sample(t)).
		SetConfidence(Channel(4), []byte{99, 99, 99, 99, 99}).
		SetTrace(Channel(7), []uint16{99, 99, 99}).
		Build()
	require.NoError(t, err)

	assert.Equal(t, []byte{40, 1, 2, 3, 4}, c.Confidence(A))
	assert.Equal(t, []uint16{0, 1, 2}, c.Trace(A))
	assert.Nil(t, c.Confidence(Channel(4)))
	assert.Nil(t, c.Trace(Channel(4)))
	assert.Equal(t, "?", Channel(4).String())
}

func TestChromatogram_IsImmutable(t *testing.T) {
	t.Parallel()

	peaks := []uint16{1, 2}
	b := NewBuilder().SetBasecalls([]byte("AC")).SetPeaks(peaks)
	c, err := b.Build()
	require.NoError(t, err)

	peaks[0] = 99
	got := c.Peaks()
	got[1] = 99
	b.SetBasecalls([]byte("GG")).AddComment("k", "v")

	assert.Equal(t, []uint16{1, 2}, c.Peaks())
	assert.Equal(t, "AC", c.BasecallString())
	assert.Empty(t, c.Comments())
}

func TestComments_FirstMatch(t *testing.T) {
	t.Parallel()

	cs := sample(t).Comments()
	v, ok := cs.Get("NAME")
	require.True(t, ok)
	assert.Equal(t, "read1", v)

	_, ok = cs.Get("SRCE")
	assert.False(t, ok)
	assert.Len(t, cs, 3)
}

func TestBuilder_ZeroFillsMissingArrays(t *testing.T) {
	t.Parallel()

	c, err := NewBuilder().SetBasecalls([]byte("ACG")).Build()
	require.NoError(t, err)
	assert.Equal(t, []uint16{0, 0, 0}, c.Peaks())
	assert.Equal(t, []byte{0, 0, 0}, c.Confidence(T))
	assert.Empty(t, c.Trace(A))
}

func TestBuilder_Inconsistent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		b     *Builder
		field string
	}{
		{"peaks", NewBuilder().SetBasecalls([]byte("AC")).SetPeaks([]uint16{1}), "peaks"},
		{"confidence", NewBuilder().SetBasecalls([]byte("AC")).SetConfidence(G, []byte{1, 2, 3}), "confidence G"},
		{"optional", NewBuilder().SetBasecalls([]byte("AC")).SetOptional(Insertion, []byte{1}), "insertion confidence"},
		{"traces", NewBuilder().SetTrace(A, []uint16{1, 2}).SetTrace(C, []uint16{1}), "trace C"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := tt.b.Build()
			var ide *format.InconsistentDataError
			require.True(t, errors.As(err, &ide))
			assert.Equal(t, tt.field, ide.Field)
		})
	}
}

func TestEventsCollect_RoundTrip(t *testing.T) {
	t.Parallel()

	c := sample(t)
	c2, err := FromChromatogram(c).SetPrivateData([]byte{}).SetOptional(Deletion, []byte{1, 2, 3, 4, 5}).Build()
	require.NoError(t, err)

	for _, src := range []*Chromatogram{c, c2} {
		events := Events(src)
		i := 0
		dec := NewLazyDecoder(func() ([]Event, error) {
			i++
			return events, nil
		})

		got, err := Collect(dec)
		require.NoError(t, err)
		assert.Equal(t, src, got)
		assert.Equal(t, 1, i)
	}
	assert.True(t, c2.HasPrivateData())
}

type recorder struct {
	Builder
	kinds  []EventKind
	stopAt EventKind
	ended  bool
}

func (r *recorder) record(k EventKind) error {
	r.kinds = append(r.kinds, k)
	if k == r.stopAt {
		return ErrStop
	}
	return nil
}

func (r *recorder) VisitBasecalls([]byte) error { return r.record(EventBasecalls) }
func (r *recorder) VisitPeaks([]uint16) error   { return r.record(EventPeaks) }
func (r *recorder) VisitConfidence(Channel, []byte) error {
	return r.record(EventConfidence)
}
func (r *recorder) VisitTraces(Channel, []uint16) error { return r.record(EventTraces) }
func (r *recorder) VisitEnd() error {
	r.ended = true
	return nil
}

func TestStream_StopEndsEarly(t *testing.T) {
	t.Parallel()

	c := sample(t)
	stepsRun := 0
	step := func(evs ...Event) Step {
		return func() ([]Event, error) {
			stepsRun++
			return evs, nil
		}
	}
	all := Events(c)
	dec := NewLazyDecoder(step(all[0]), step(all[1]), step(all[2:]...))

	r := &recorder{stopAt: EventPeaks}
	require.NoError(t, Stream(dec, r))
	assert.Equal(t, []EventKind{EventBasecalls, EventPeaks}, r.kinds)
	assert.False(t, r.ended)
	assert.Equal(t, 2, stepsRun, "later steps must not run after the consumer stops")
}

func TestStream_PropagatesErrors(t *testing.T) {
	t.Parallel()

	boom := &format.TruncatedError{Where: "bases", Offset: 12}
	calls := 0
	dec := NewLazyDecoder(
		func() ([]Event, error) { return []Event{{Kind: EventBasecalls, Bytes: []byte("A")}}, nil },
		func() ([]Event, error) { calls++; return nil, boom },
	)

	r := &recorder{}
	err := Stream(dec, r)
	require.ErrorIs(t, err, format.ErrTruncated)
	assert.False(t, r.ended)

	// The error is sticky
	_, err = dec.Next()
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestLazyDecoder_EOF(t *testing.T) {
	t.Parallel()

	dec := NewLazyDecoder()
	_, err := dec.Next()
	require.ErrorIs(t, err, io.EOF)
	_, err = dec.Next()
	require.ErrorIs(t, err, io.EOF)
}
