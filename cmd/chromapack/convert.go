package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vertti/chromapack/internal/batch"
	"github.com/vertti/chromapack/internal/format"
	"github.com/vertti/chromapack/internal/trace"
)

type convertConfig struct {
	format       string
	output       string
	outDir       string
	workers      int
	scfVersion   int
	strict       bool
	requireBases bool
	failFast     bool
}

func newConvertCmd(a *app) *cobra.Command {
	var cfg convertConfig

	cmd := &cobra.Command{
		Use:   "convert [flags] <input>...",
		Short: "Convert chromatograms between SCF and ZTR",
		Long: `Convert one or more chromatogram files. Without --format each file is
converted to the format it is not already in.

Examples:
  chromapack convert sample.scf                 Write sample.ztr
  chromapack convert -f scf *.ztr --out-dir scf Convert a directory of ZTR files
  chromapack convert sample.ztr.gz -o out.scf   Read gzip input
  cat sample.scf | chromapack convert - > out.ztr`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.convert(cmd.Context(), cfg, args)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&cfg.format, "format", "f", "", "target format: scf or ztr (default: the other format)")
	f.StringVarP(&cfg.output, "output", "o", "", "output file for a single input, - for stdout")
	f.StringVar(&cfg.outDir, "out-dir", "", "directory for output files (default: next to each input)")
	f.IntVarP(&cfg.workers, "workers", "w", 0, "conversion workers (default: NumCPU)")
	f.IntVar(&cfg.scfVersion, "scf-version", 3, "SCF version to write: 2 or 3")
	f.BoolVar(&cfg.strict, "strict", false, "fail on truncated SCF sample data instead of zero-padding")
	f.BoolVar(&cfg.requireBases, "require-bases", false, "fail on SCF files without base calls")
	f.BoolVar(&cfg.failFast, "fail-fast", false, "stop at the first failed file")
	return cmd
}

func (cfg convertConfig) target() (format.Kind, error) {
	if cfg.format == "" {
		return format.Unknown, nil
	}
	return format.ParseKind(cfg.format)
}

func (a *app) readOptions(cfg convertConfig) []trace.Option {
	return []trace.Option{
		trace.WithStrict(cfg.strict),
		trace.WithRequireBases(cfg.requireBases),
		trace.WithParallelChannels(true),
		trace.WithLogger(a.log),
	}
}

func (a *app) convert(ctx context.Context, cfg convertConfig, inputs []string) error {
	target, err := cfg.target()
	if err != nil {
		return err
	}
	if cfg.scfVersion != 2 && cfg.scfVersion != 3 {
		return fmt.Errorf("unsupported SCF version %d", cfg.scfVersion)
	}
	if cfg.output != "" && len(inputs) > 1 {
		return errors.New("--output needs exactly one input")
	}
	writeOpts := []trace.Option{trace.WithSCFVersion(cfg.scfVersion)}

	if len(inputs) == 1 && (inputs[0] == "-" || cfg.output == "-") {
		return a.convertStream(cfg, inputs[0], target, writeOpts)
	}

	jobs := make([]batch.Job, len(inputs))
	for i, in := range inputs {
		jobs[i] = batch.Job{Input: in, Output: cfg.output, Format: target}
	}
	failed := 0
	_, err = batch.Convert(ctx, jobs, &batch.Options{
		Workers:  cfg.workers,
		OutDir:   cfg.outDir,
		FailFast: cfg.failFast,
		Read:     a.readOptions(cfg),
		Write:    writeOpts,
		Logger:   a.log,
		OnResult: func(r batch.Result) {
			if r.Err != nil {
				failed++
				fmt.Fprintf(a.stderr, "%s: %v\n", r.Input, r.Err)
				return
			}
			fmt.Fprintf(a.stdout, "%s -> %s (%d bases, %d samples)\n", r.Input, r.Output, r.Bases, r.Samples)
		},
	})
	if err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d conversions failed", failed, len(inputs))
	}
	return nil
}

// convertStream handles stdin input or stdout output, where there is no
// file name to derive the other side from.
func (a *app) convertStream(cfg convertConfig, input string, target format.Kind, writeOpts []trace.Option) error {
	in, cleanup, err := openInput(input, a.stdin)
	if err != nil {
		return err
	}
	defer cleanup()

	br := bufio.NewReader(in)
	source, err := trace.Detect(br)
	if err != nil {
		return err
	}
	c, err := trace.Parse(br, a.readOptions(cfg)...)
	if err != nil {
		return fmt.Errorf("decoding %s: %w", source, err)
	}
	if target == format.Unknown {
		target = format.ZTR
		if source == format.ZTR {
			target = format.SCF
		}
	}

	out, finish, err := openOutput(cfg.output, a.stdout)
	if err != nil {
		return err
	}
	if err := trace.Write(c, out, target, writeOpts...); err != nil {
		_ = finish()
		return fmt.Errorf("encoding %s: %w", target, err)
	}
	if err := finish(); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	a.log.Debug("converted", "from", source.String(), "to", target.String(), "bases", c.NumBases(), "samples", c.NumSamples())
	return nil
}
