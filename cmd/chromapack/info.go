package main

import (
	"bufio"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vertti/chromapack/internal/chromatogram"
	"github.com/vertti/chromapack/internal/trace"
)

type infoConfig struct {
	seq    bool
	strict bool
}

func newInfoCmd(a *app) *cobra.Command {
	var cfg infoConfig

	cmd := &cobra.Command{
		Use:   "info [flags] <input>...",
		Short: "Describe chromatogram files",
		Long: `Print the format, dimensions, clip points and comments of each input.
With --seq only the base calls are printed, as FASTA; decoding stops as
soon as they have been read.

Examples:
  chromapack info sample.scf
  chromapack info --seq *.ztr > reads.fa`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				if err := a.info(cfg, path); err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&cfg.seq, "seq", false, "print only the base calls as FASTA")
	cmd.Flags().BoolVar(&cfg.strict, "strict", false, "fail on truncated SCF sample data")
	return cmd
}

func (a *app) info(cfg infoConfig, path string) error {
	in, cleanup, err := openInput(path, a.stdin)
	if err != nil {
		return err
	}
	defer cleanup()

	br := bufio.NewReader(in)
	kind, err := trace.Detect(br)
	if err != nil {
		return err
	}

	s := &summary{seqOnly: cfg.seq}
	if err := trace.Stream(br, s, trace.WithStrict(cfg.strict), trace.WithLogger(a.log)); err != nil {
		return err
	}

	if cfg.seq {
		fmt.Fprintf(a.stdout, ">%s\n%s\n", path, s.bases)
		return nil
	}
	fmt.Fprintf(a.stdout, "%s\n  format:   %s\n", path, kind)
	s.print(a.stdout)
	return nil
}

// summary is a Visitor that keeps only what info prints.
type summary struct {
	seqOnly    bool
	bases      []byte
	confidence [chromatogram.NumChannels][]byte
	samples    int
	maxSample  uint16
	clip       *chromatogram.Clip
	comments   chromatogram.Comments
	private    []byte
}

func (s *summary) VisitBasecalls(bases []byte) error {
	s.bases = bases
	if s.seqOnly {
		return chromatogram.ErrStop
	}
	return nil
}

func (s *summary) VisitPeaks([]uint16) error { return nil }

func (s *summary) VisitConfidence(ch chromatogram.Channel, conf []byte) error {
	if int(ch) < len(s.confidence) {
		s.confidence[ch] = conf
	}
	return nil
}

func (s *summary) VisitOptionalConfidence(chromatogram.OptionalKind, []byte) error { return nil }

func (s *summary) VisitTraces(_ chromatogram.Channel, samples []uint16) error {
	s.samples = len(samples)
	for _, v := range samples {
		s.maxSample = max(s.maxSample, v)
	}
	return nil
}

func (s *summary) VisitClip(c chromatogram.Clip) error {
	s.clip = &c
	return nil
}

func (s *summary) VisitComment(key, value string) error {
	s.comments = append(s.comments, chromatogram.Comment{Key: key, Value: value})
	return nil
}

func (s *summary) VisitPrivateData(data []byte) error {
	s.private = data
	return nil
}

func (s *summary) VisitEnd() error { return nil }

// meanQuality averages the confidence of each called channel.
func (s *summary) meanQuality() float64 {
	if len(s.bases) == 0 {
		return 0
	}
	total := 0
	for i, b := range s.bases {
		ch, ok := chromatogram.ChannelOf(b)
		if ok && i < len(s.confidence[ch]) {
			total += int(s.confidence[ch][i])
		}
	}
	return float64(total) / float64(len(s.bases))
}

func (s *summary) print(w io.Writer) {
	fmt.Fprintf(w, "  bases:    %d (mean quality %.1f)\n", len(s.bases), s.meanQuality())
	fmt.Fprintf(w, "  samples:  %d per channel (max %d)\n", s.samples, s.maxSample)
	if s.clip != nil {
		fmt.Fprintf(w, "  clip:     %d..%d\n", s.clip.Left, s.clip.Right)
	}
	if s.private != nil {
		fmt.Fprintf(w, "  private:  %d bytes\n", len(s.private))
	}
	for _, c := range s.comments {
		fmt.Fprintf(w, "  comment:  %s=%s\n", c.Key, c.Value)
	}
}
