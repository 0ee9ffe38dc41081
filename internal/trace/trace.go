// Package trace reads and writes chromatograms without the caller having to
// know the container format.
package trace

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/vertti/chromapack/internal/chromatogram"
	"github.com/vertti/chromapack/internal/format"
	"github.com/vertti/chromapack/internal/scf"
	"github.com/vertti/chromapack/internal/ztr"
)

type options struct {
	strict       bool
	parallel     bool
	requireBases bool
	logger       *slog.Logger
	scfVersion   int
	ztrChains    ztr.Chains
}

// Option configures reading or writing.
type Option func(*options)

// WithStrict makes a truncated SCF samples section an error instead of
// zero-padding the missing samples.
func WithStrict(strict bool) Option {
	return func(o *options) { o.strict = strict }
}

// WithParallelChannels decodes the four SCF version 3 sample channels concurrently.
func WithParallelChannels(parallel bool) Option {
	return func(o *options) { o.parallel = parallel }
}

// WithRequireBases fails decoding of SCF files without a bases section.
func WithRequireBases(require bool) Option {
	return func(o *options) { o.requireBases = require }
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithSCFVersion selects the SCF version written by WriteSCF (2 or 3).
func WithSCFVersion(version int) Option {
	return func(o *options) { o.scfVersion = version }
}

// WithZTRChains overrides the transform chains WriteZTR uses for the chunk
// types present in chains.
func WithZTRChains(chains ztr.Chains) Option {
	return func(o *options) { o.ztrChains = chains }
}

func buildOptions(opts []Option) *options {
	o := &options{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Detect identifies the container format from the leading bytes of r
// without consuming them.
func Detect(r *bufio.Reader) (format.Kind, error) {
	head, err := r.Peek(format.MagicLen)
	if err != nil && !errors.Is(err, io.EOF) {
		return format.Unknown, err
	}
	return format.Detect(head)
}

// NewDecoder detects the format of r and returns a Decoder over its events.
func NewDecoder(r io.Reader, opts ...Option) (chromatogram.Decoder, error) {
	o := buildOptions(opts)
	br := bufio.NewReader(r)
	kind, err := Detect(br)
	if err != nil {
		return nil, err
	}
	o.logger.Debug("detected chromatogram format", "format", kind.String())

	switch kind {
	case format.SCF:
		return scf.NewDecoder(br, &scf.Options{
			Strict:       o.strict,
			Parallel:     o.parallel,
			RequireBases: o.requireBases,
			Logger:       o.logger,
		})
	default:
		dec, err := ztr.NewDecoder(br, &ztr.Options{Logger: o.logger})
		if err != nil {
			return nil, err
		}
		return dec, nil
	}
}

// Parse reads a whole chromatogram from r.
func Parse(r io.Reader, opts ...Option) (*chromatogram.Chromatogram, error) {
	dec, err := NewDecoder(r, opts...)
	if err != nil {
		return nil, err
	}
	return chromatogram.Collect(dec)
}

// Stream feeds the chromatogram in r to v. A callback returning
// chromatogram.ErrStop ends decoding early without error.
func Stream(r io.Reader, v chromatogram.Visitor, opts ...Option) error {
	dec, err := NewDecoder(r, opts...)
	if err != nil {
		return err
	}
	return chromatogram.Stream(dec, v)
}

// WriteSCF writes c as an SCF file.
func WriteSCF(c *chromatogram.Chromatogram, w io.Writer, opts ...Option) error {
	o := buildOptions(opts)
	return scf.Encode(c, w, &scf.EncodeOptions{Version: o.scfVersion})
}

// WriteZTR writes c as a ZTR file.
func WriteZTR(c *chromatogram.Chromatogram, w io.Writer, opts ...Option) error {
	o := buildOptions(opts)
	return ztr.Encode(c, w, &ztr.EncodeOptions{Chains: o.ztrChains})
}

// Write writes c in the given format.
func Write(c *chromatogram.Chromatogram, w io.Writer, kind format.Kind, opts ...Option) error {
	switch kind {
	case format.SCF:
		return WriteSCF(c, w, opts...)
	case format.ZTR:
		return WriteZTR(c, w, opts...)
	default:
		return fmt.Errorf("cannot write %s chromatograms", kind)
	}
}
