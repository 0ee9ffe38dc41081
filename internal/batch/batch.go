// Package batch converts many chromatogram files concurrently.
package batch

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/vertti/chromapack/internal/format"
	"github.com/vertti/chromapack/internal/trace"
)

// Job is one file to convert.
type Job struct {
	Input  string
	Output string      // derived from Input when empty
	Format format.Kind // target format; Unknown converts to the other format
}

// Result is the outcome of one job. Results are reported in job order.
type Result struct {
	Job
	Source  format.Kind
	Bases   int
	Samples int
	Err     error
}

// Options configures batch conversion.
type Options struct {
	Workers  int    // Number of parallel conversion workers (default: NumCPU)
	OutDir   string // Directory for derived output names (default: next to the input)
	FailFast bool   // Stop at the first failed job
	// Read and Write are passed to every decode and encode.
	Read  []trace.Option
	Write []trace.Option
	// OnResult, if set, is called for every result in job order.
	OnResult func(Result)
	Logger   *slog.Logger
}

func (o *Options) withDefaults() *Options {
	out := Options{}
	if o != nil {
		out = *o
	}
	if out.Workers <= 0 {
		out.Workers = runtime.NumCPU()
	}
	if out.Logger == nil {
		out.Logger = slog.New(slog.DiscardHandler)
	}
	return &out
}

// convertJob is a job tagged with its position in the batch.
type convertJob struct {
	seqNum int
	job    Job
}

// convertResult is a finished job tagged with its position.
type convertResult struct {
	seqNum int
	result Result
}

// OutputPath derives the output file name for input: the compression and
// format extensions are replaced by the target format's extension, and the
// file is placed in outDir when it is set.
func OutputPath(input string, target format.Kind, outDir string) string {
	base := TrimCompressionSuffix(input)
	base = strings.TrimSuffix(base, filepath.Ext(base)) + "." + target.String()
	if outDir != "" {
		return filepath.Join(outDir, filepath.Base(base))
	}
	return base
}

// Convert runs jobs on a pool of workers. Results are returned in job order.
// A failed job is recorded in its Result and the batch carries on unless
// FailFast is set, in which case the first failure is also returned as the
// error. Cancelling ctx stops the batch and returns ctx.Err().
func Convert(ctx context.Context, jobs []Job, opts *Options) ([]Result, error) {
	opts = opts.withDefaults()
	results := make([]Result, len(jobs))

	if opts.Workers == 1 {
		return results, convertSerial(ctx, jobs, results, opts)
	}

	work := make(chan convertJob, opts.Workers*2)
	done := make(chan convertResult, opts.Workers*2)

	g, gctx := errgroup.WithContext(ctx)

	for range opts.Workers {
		g.Go(func() error {
			return runConversionWorker(gctx, work, done, opts)
		})
	}

	g.Go(func() error {
		defer close(work)
		return produceJobs(gctx, work, jobs)
	})

	// Collector: store results and report them in order
	collectorDone := make(chan struct{})
	go func() {
		defer close(collectorDone)
		collectResults(done, results, opts)
	}()

	workerErr := g.Wait()
	close(done)
	<-collectorDone

	return results, workerErr
}

func convertSerial(ctx context.Context, jobs []Job, results []Result, opts *Options) error {
	for i, job := range jobs {
		if err := ctx.Err(); err != nil {
			return err
		}
		results[i] = convertFile(job, opts)
		report(results[i], opts)
		if results[i].Err != nil && opts.FailFast {
			return fmt.Errorf("converting %s: %w", job.Input, results[i].Err)
		}
	}
	return nil
}

func runConversionWorker(ctx context.Context, work <-chan convertJob, done chan<- convertResult, opts *Options) error {
	for job := range work {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		res := convertFile(job.job, opts)
		done <- convertResult{seqNum: job.seqNum, result: res}
		if res.Err != nil && opts.FailFast {
			return fmt.Errorf("converting %s: %w", job.job.Input, res.Err)
		}
	}
	return nil
}

func produceJobs(ctx context.Context, work chan<- convertJob, jobs []Job) error {
	for i, job := range jobs {
		select {
		case work <- convertJob{seqNum: i, job: job}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// collectResults stores every result and reports the contiguous prefix of
// finished jobs as soon as it grows.
func collectResults(done <-chan convertResult, results []Result, opts *Options) {
	pending := make(map[int]Result)
	next := 0

	for r := range done {
		results[r.seqNum] = r.result
		pending[r.seqNum] = r.result

		for {
			res, ok := pending[next]
			if !ok {
				break
			}
			report(res, opts)
			delete(pending, next)
			next++
		}
	}
}

func report(res Result, opts *Options) {
	if res.Err != nil {
		opts.Logger.Debug("conversion failed", "input", res.Input, "error", res.Err)
	} else {
		opts.Logger.Debug("converted", "input", res.Input, "output", res.Output,
			"from", res.Source.String(), "to", res.Format.String(), "bases", res.Bases, "samples", res.Samples)
	}
	if opts.OnResult != nil {
		opts.OnResult(res)
	}
}

// convertFile reads, converts and writes one file. A partially written
// output is removed on failure.
func convertFile(job Job, opts *Options) (res Result) {
	res.Job = job

	f, err := os.Open(job.Input) //nolint:gosec // paths come from the caller's job list
	if err != nil {
		res.Err = fmt.Errorf("cannot open input: %w", err)
		return res
	}
	in, cleanup, err := WrapInput(f, func() { _ = f.Close() })
	if err != nil {
		res.Err = err
		return res
	}
	defer cleanup()

	br := bufio.NewReader(in)
	if res.Source, err = trace.Detect(br); err != nil {
		res.Err = err
		return res
	}
	c, err := trace.Parse(br, opts.Read...)
	if err != nil {
		res.Err = fmt.Errorf("decoding %s: %w", res.Source, err)
		return res
	}
	res.Bases, res.Samples = c.NumBases(), c.NumSamples()

	if res.Format == format.Unknown {
		res.Format = format.ZTR
		if res.Source == format.ZTR {
			res.Format = format.SCF
		}
	}
	if res.Output == "" {
		res.Output = OutputPath(job.Input, res.Format, opts.OutDir)
	}

	res.Err = writeFile(res.Output, func(w io.Writer) error {
		return trace.Write(c, w, res.Format, opts.Write...)
	})
	return res
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path) //nolint:gosec // paths come from the caller's job list
	if err != nil {
		return fmt.Errorf("cannot create output: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()

	w, finish, err := WrapOutput(f, CompressionFor(path))
	if err != nil {
		return err
	}
	if err := write(w); err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return finish()
}
