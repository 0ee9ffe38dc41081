package trace

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vertti/chromapack/internal/chromatogram"
	"github.com/vertti/chromapack/internal/format"
	"github.com/vertti/chromapack/internal/transform"
	"github.com/vertti/chromapack/internal/ztr"
)

func read(t *testing.T) *chromatogram.Chromatogram {
	t.Helper()

	calls := []byte("TTGACCA")
	b := chromatogram.NewBuilder().
		SetBasecalls(calls).
		SetPeaks([]uint16{4, 9, 15, 22, 28, 33, 39}).
		AddComment("NAME", "trace_test").
		SetClip(chromatogram.Clip{Left: 1, Right: 6})
	for _, ch := range chromatogram.Channels {
		conf := make([]byte, len(calls))
		for i := range conf {
			conf[i] = byte(7*int(ch) + 3*i)
		}
		b.SetConfidence(ch, conf)

		trace := make([]uint16, 45)
		for i := range trace {
			trace[i] = uint16(((i + int(ch)*3) % 9) * 150) //nolint:gosec // test data
		}
		b.SetTrace(ch, trace)
	}
	c, err := b.Build()
	require.NoError(t, err)
	return c
}

func TestDetect(t *testing.T) {
	t.Parallel()

	c := read(t)
	var scfBuf, ztrBuf bytes.Buffer
	require.NoError(t, WriteSCF(c, &scfBuf))
	require.NoError(t, WriteZTR(c, &ztrBuf))

	tests := []struct {
		name string
		data []byte
		want format.Kind
	}{
		{"scf", scfBuf.Bytes(), format.SCF},
		{"ztr", ztrBuf.Bytes(), format.ZTR},
		{"short scf", []byte(".scf"), format.SCF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			br := bufio.NewReader(bytes.NewReader(tt.data))
			got, err := Detect(br)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			// Detect must not consume input
			head, err := br.Peek(4)
			require.NoError(t, err)
			assert.Equal(t, tt.data[:4], head)
		})
	}

	_, err := Detect(bufio.NewReader(bytes.NewReader([]byte("@SEQ"))))
	require.ErrorIs(t, err, format.ErrInvalidMagic)
	_, err = Parse(bytes.NewReader(nil))
	require.ErrorIs(t, err, format.ErrInvalidMagic)
}

func TestParse_BothFormats(t *testing.T) {
	t.Parallel()

	c := read(t)
	for _, kind := range []format.Kind{format.SCF, format.ZTR} {
		t.Run(kind.String(), func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			require.NoError(t, Write(c, &buf, kind))
			got, err := Parse(&buf, WithParallelChannels(true))
			require.NoError(t, err)

			assert.Equal(t, c.BasecallString(), got.BasecallString())
			assert.Equal(t, c.Peaks(), got.Peaks())
			assert.Equal(t, c.Quality(), got.Quality())
			assert.Equal(t, c.Comments(), got.Comments())
			for _, ch := range chromatogram.Channels {
				assert.Equal(t, c.Confidence(ch), got.Confidence(ch))
				assert.Equal(t, c.Trace(ch), got.Trace(ch))
			}
			clip, ok := got.Clip()
			require.True(t, ok)
			assert.Equal(t, chromatogram.Clip{Left: 1, Right: 6}, clip)
		})
	}
}

func TestConvert_SCFToZTRToSCF(t *testing.T) {
	t.Parallel()

	c := read(t)
	var scf1 bytes.Buffer
	require.NoError(t, WriteSCF(c, &scf1, WithSCFVersion(2)))

	fromSCF, err := Parse(bytes.NewReader(scf1.Bytes()))
	require.NoError(t, err)
	var z bytes.Buffer
	require.NoError(t, WriteZTR(fromSCF, &z, WithZTRChains(ztr.Chains{
		ztr.ChunkSamples: {transform.Delta{Width: 2, Order: 2}, transform.ZLib{Level: 9}},
	})))

	fromZTR, err := Parse(&z)
	require.NoError(t, err)
	var scf2 bytes.Buffer
	require.NoError(t, WriteSCF(fromZTR, &scf2, WithSCFVersion(2)))

	// Optional confidence is written as zeros by SCF and dropped by ZTR,
	// so the two SCF files are identical.
	assert.Equal(t, scf1.Bytes(), scf2.Bytes())
}

func TestWrite_UnknownFormat(t *testing.T) {
	t.Parallel()

	err := Write(read(t), &bytes.Buffer{}, format.Unknown)
	require.Error(t, err)
}

// basecallsOnly stops streaming after the basecalls.
type basecallsOnly struct {
	chromatogram.Builder
	calls  string
	traces int
}

func (v *basecallsOnly) VisitBasecalls(b []byte) error {
	v.calls = string(b)
	return chromatogram.ErrStop
}

func (v *basecallsOnly) VisitTraces(chromatogram.Channel, []uint16) error {
	v.traces++
	return nil
}

func TestStream_EarlyStop(t *testing.T) {
	t.Parallel()

	c := read(t)
	for _, kind := range []format.Kind{format.SCF, format.ZTR} {
		var buf bytes.Buffer
		require.NoError(t, Write(c, &buf, kind))

		v := &basecallsOnly{}
		require.NoError(t, Stream(&buf, v))
		assert.Equal(t, "TTGACCA", v.calls, kind.String())
	}
}

func TestOptions_StrictAndRequireBases(t *testing.T) {
	t.Parallel()

	b := chromatogram.NewBuilder()
	for _, ch := range chromatogram.Channels {
		b.SetTrace(ch, []uint16{1, 2, 3, 4, 5, 6})
	}
	c, err := b.Build()
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, WriteSCF(c, &buf))
	truncated := buf.Bytes()[:buf.Len()-4]

	_, err = Parse(bytes.NewReader(truncated))
	require.NoError(t, err)

	_, err = Parse(bytes.NewReader(truncated), WithStrict(true))
	require.ErrorIs(t, err, format.ErrTruncated)

	_, err = Parse(bytes.NewReader(buf.Bytes()), WithRequireBases(true))
	var me *format.MissingSectionError
	require.ErrorAs(t, err, &me)
}
