// chromapack converts and inspects SCF and ZTR chromatogram files.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/vertti/chromapack/internal/batch"
)

var version = "dev"

const (
	exitSuccess = 0
	exitError   = 1
)

// app holds the streams and logger shared by all commands.
type app struct {
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
	verbose bool
	log     *slog.Logger
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	root := newRootCmd(&app{stdin: stdin, stdout: stdout, stderr: stderr})
	root.SetArgs(args)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitError
	}
	return exitSuccess
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "chromapack",
		Short: "chromapack - SCF and ZTR chromatogram tools",
		Long: `chromapack reads and writes Sanger sequencing trace files in the SCF
and ZTR formats. Inputs may be gzip or zstd compressed; the format is
detected from the file contents.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			level := slog.LevelInfo
			if a.verbose {
				level = slog.LevelDebug
			}
			a.log = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level}))
		},
	}
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(newConvertCmd(a), newInfoCmd(a))
	return root
}

func openInput(path string, stdin io.Reader) (io.Reader, func(), error) {
	if path == "" || path == "-" {
		return batch.WrapInput(stdin, func() {})
	}

	f, err := os.Open(path) //nolint:gosec // CLI tool needs to open user-specified files
	if err != nil {
		return nil, nil, fmt.Errorf("cannot open input: %w", err)
	}
	return batch.WrapInput(f, func() { _ = f.Close() })
}

// openOutput returns a writer compressing according to path's suffix. The
// returned finish flushes everything and closes the file.
func openOutput(path string, stdout io.Writer) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return batch.WrapOutput(stdout, batch.None)
	}

	f, err := os.Create(path) //nolint:gosec // CLI tool needs to create user-specified files
	if err != nil {
		return nil, nil, fmt.Errorf("cannot create output: %w", err)
	}
	w, finish, err := batch.WrapOutput(f, batch.CompressionFor(path))
	if err != nil {
		_ = f.Close()
		return nil, nil, err
	}
	return w, func() error {
		if err := finish(); err != nil {
			_ = f.Close()
			return err
		}
		return f.Close()
	}, nil
}
