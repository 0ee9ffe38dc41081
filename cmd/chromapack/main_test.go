package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/vertti/chromapack/internal/chromatogram"
	"github.com/vertti/chromapack/internal/trace"
)

func testChromatogram(t *testing.T) *chromatogram.Chromatogram {
	t.Helper()

	b := chromatogram.NewBuilder().
		SetBasecalls([]byte("GATTACA")).
		SetPeaks([]uint16{3, 8, 14, 19, 25, 30, 36}).
		AddComment("NAME", "cli_read").
		SetClip(chromatogram.Clip{Left: 1, Right: 6})
	for _, ch := range chromatogram.Channels {
		b.SetConfidence(ch, []byte{20, 30, 40, 40, 30, 20, 10})
		samples := make([]uint16, 40)
		for i := range samples {
			samples[i] = uint16((i*int(ch+3))%17) * 60 //nolint:gosec // test data
		}
		b.SetTrace(ch, samples)
	}
	c, err := b.Build()
	if err != nil {
		t.Fatalf("build chromatogram: %v", err)
	}
	return c
}

func scfBytes(t *testing.T) []byte {
	t.Helper()

	var buf bytes.Buffer
	if err := trace.WriteSCF(testChromatogram(t), &buf); err != nil {
		t.Fatalf("write scf: %v", err)
	}
	return buf.Bytes()
}

func TestOpenInputPlainSCF(t *testing.T) {
	t.Parallel()

	want := scfBytes(t)
	path := filepath.Join(t.TempDir(), "read.scf")
	if err := os.WriteFile(path, want, 0o600); err != nil {
		t.Fatalf("write test file: %v", err)
	}

	r, cleanup, err := openInput(path, nil)
	if err != nil {
		t.Fatalf("openInput: %v", err)
	}
	defer cleanup()

	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read input: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("content mismatch")
	}
}

func TestOpenInputGzipByMagicBytes(t *testing.T) {
	t.Parallel()

	want := scfBytes(t)
	var gzData bytes.Buffer
	gz := gzip.NewWriter(&gzData)
	if _, err := gz.Write(want); err != nil {
		t.Fatalf("write gzip payload: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("close gzip writer: %v", err)
	}

	// No .gz suffix: detection must come from the content
	path := filepath.Join(t.TempDir(), "read.bin")
	if err := os.WriteFile(path, gzData.Bytes(), 0o600); err != nil {
		t.Fatalf("write test file: %v", err)
	}

	r, cleanup, err := openInput(path, nil)
	if err != nil {
		t.Fatalf("openInput: %v", err)
	}
	defer cleanup()

	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read input: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("content mismatch")
	}
}

func TestOpenInputStdinZstdMagicDetection(t *testing.T) {
	t.Parallel()

	want := scfBytes(t)
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatalf("create zstd encoder: %v", err)
	}
	compressed := enc.EncodeAll(want, nil)
	_ = enc.Close()

	r, cleanup, err := openInput("-", bytes.NewReader(compressed))
	if err != nil {
		t.Fatalf("openInput: %v", err)
	}
	defer cleanup()

	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read input: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("content mismatch")
	}
}

func TestOpenOutputCompressesBySuffix(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.ztr.gz")
	w, finish, err := openOutput(path, nil)
	if err != nil {
		t.Fatalf("openOutput: %v", err)
	}
	if _, err := w.Write([]byte("payload")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := finish(); err != nil {
		t.Fatalf("finish: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if len(raw) < 2 || raw[0] != 0x1f || raw[1] != 0x8b {
		t.Fatalf("output is not gzip: % x", raw)
	}
}

func runCLI(t *testing.T, stdin []byte, args ...string) (code int, stdout, stderr string) {
	t.Helper()

	var out, errOut bytes.Buffer
	code = run(args, bytes.NewReader(stdin), &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestConvertFilesRoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := filepath.Join(dir, "read.scf")
	if err := os.WriteFile(in, scfBytes(t), 0o600); err != nil {
		t.Fatalf("write input: %v", err)
	}

	code, stdout, stderr := runCLI(t, nil, "convert", in)
	if code != exitSuccess {
		t.Fatalf("convert to ztr: exit %d: %s", code, stderr)
	}
	ztrPath := filepath.Join(dir, "read.ztr")
	if !strings.Contains(stdout, ztrPath) {
		t.Fatalf("stdout %q does not mention %s", stdout, ztrPath)
	}

	back := filepath.Join(dir, "back.scf.zst")
	code, _, stderr = runCLI(t, nil, "convert", "-f", "scf", "-o", back, ztrPath)
	if code != exitSuccess {
		t.Fatalf("convert back: exit %d: %s", code, stderr)
	}

	r, cleanup, err := openInput(back, nil)
	if err != nil {
		t.Fatalf("openInput: %v", err)
	}
	defer cleanup()
	got, err := trace.Parse(r)
	if err != nil {
		t.Fatalf("parse round trip: %v", err)
	}
	want := testChromatogram(t)
	if got.BasecallString() != want.BasecallString() {
		t.Fatalf("bases: got %q want %q", got.BasecallString(), want.BasecallString())
	}
	for _, ch := range chromatogram.Channels {
		if !slicesEqual(got.Trace(ch), want.Trace(ch)) {
			t.Fatalf("trace %s differs after round trip", ch)
		}
	}
}

func slicesEqual(a, b []uint16) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestConvertStdinToStdout(t *testing.T) {
	t.Parallel()

	code, stdout, stderr := runCLI(t, scfBytes(t), "convert", "-")
	if code != exitSuccess {
		t.Fatalf("exit %d: %s", code, stderr)
	}

	c, err := trace.Parse(strings.NewReader(stdout))
	if err != nil {
		t.Fatalf("parse stdout: %v", err)
	}
	if c.BasecallString() != "GATTACA" {
		t.Fatalf("bases: got %q", c.BasecallString())
	}
	if stdout[0] != 0xae {
		t.Fatalf("stdout is not ztr")
	}
}

func TestConvertReportsFailures(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	good := filepath.Join(dir, "good.scf")
	bad := filepath.Join(dir, "bad.scf")
	if err := os.WriteFile(good, scfBytes(t), 0o600); err != nil {
		t.Fatalf("write input: %v", err)
	}
	if err := os.WriteFile(bad, []byte("not a trace"), 0o600); err != nil {
		t.Fatalf("write input: %v", err)
	}

	code, _, stderr := runCLI(t, nil, "convert", "-w", "2", good, bad)
	if code != exitError {
		t.Fatalf("expected failure exit, got %d", code)
	}
	if !strings.Contains(stderr, "1 of 2 conversions failed") || !strings.Contains(stderr, "bad.scf") {
		t.Fatalf("unexpected stderr: %s", stderr)
	}
	if _, err := os.Stat(filepath.Join(dir, "good.ztr")); err != nil {
		t.Fatalf("good file not converted: %v", err)
	}
}

func TestConvertRejectsBadFlags(t *testing.T) {
	t.Parallel()

	tests := [][]string{
		{"convert", "-f", "abi", "x.scf"},
		{"convert", "--scf-version", "4", "x.scf"},
		{"convert", "-o", "out.scf", "a.ztr", "b.ztr"},
		{"convert"},
	}
	for _, args := range tests {
		if code, _, _ := runCLI(t, nil, args...); code != exitError {
			t.Fatalf("%v: expected failure exit, got %d", args, code)
		}
	}
}

func TestInfo(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "read.scf")
	if err := os.WriteFile(path, scfBytes(t), 0o600); err != nil {
		t.Fatalf("write input: %v", err)
	}

	code, stdout, stderr := runCLI(t, nil, "info", path)
	if code != exitSuccess {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	for _, want := range []string{"format:   scf", "bases:    7", "samples:  40 per channel", "clip:     1..6", "comment:  NAME=cli_read"} {
		if !strings.Contains(stdout, want) {
			t.Fatalf("info output missing %q:\n%s", want, stdout)
		}
	}

	code, stdout, _ = runCLI(t, nil, "info", "--seq", path)
	if code != exitSuccess {
		t.Fatalf("info --seq exit %d", code)
	}
	if stdout != ">"+path+"\nGATTACA\n" {
		t.Fatalf("unexpected fasta: %q", stdout)
	}
}

func TestVersion(t *testing.T) {
	t.Parallel()

	code, stdout, _ := runCLI(t, nil, "--version")
	if code != exitSuccess || !strings.Contains(stdout, version) {
		t.Fatalf("version: exit %d, output %q", code, stdout)
	}
}
