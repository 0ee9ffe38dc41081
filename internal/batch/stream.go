package batch

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Compression is a whole-file compression wrapper around a chromatogram.
type Compression uint8

// Supported wrappers.
const (
	None Compression = iota
	Gzip
	Zstd
)

func (c Compression) String() string {
	switch c {
	case Gzip:
		return "gzip"
	case Zstd:
		return "zstd"
	default:
		return "none"
	}
}

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

const ioBufferSize = 1 << 16

// CompressionFor picks the wrapper implied by a file name suffix.
func CompressionFor(path string) Compression {
	switch p := strings.ToLower(path); {
	case strings.HasSuffix(p, ".gz"):
		return Gzip
	case strings.HasSuffix(p, ".zst"):
		return Zstd
	default:
		return None
	}
}

// TrimCompressionSuffix removes a .gz or .zst suffix from path.
func TrimCompressionSuffix(path string) string {
	switch CompressionFor(path) {
	case Gzip:
		return path[:len(path)-len(".gz")]
	case Zstd:
		return path[:len(path)-len(".zst")]
	default:
		return path
	}
}

// Sniff reports the wrapper identified by the leading bytes of br without
// consuming them.
func Sniff(br *bufio.Reader) (Compression, error) {
	head, err := br.Peek(len(zstdMagic))
	if err != nil && !errors.Is(err, io.EOF) {
		return None, err
	}
	switch {
	case bytes.HasPrefix(head, gzipMagic):
		return Gzip, nil
	case bytes.HasPrefix(head, zstdMagic):
		return Zstd, nil
	default:
		return None, nil
	}
}

// WrapInput returns a reader that transparently decompresses gzip or zstd
// input, detected from its magic bytes. The returned cleanup closes the
// decompressor and then calls closeInput.
func WrapInput(in io.Reader, closeInput func()) (io.Reader, func(), error) {
	br := bufio.NewReaderSize(in, ioBufferSize)
	comp, err := Sniff(br)
	if err != nil {
		closeInput()
		return nil, nil, fmt.Errorf("cannot inspect input: %w", err)
	}

	switch comp {
	case Gzip:
		gz, err := gzip.NewReader(br)
		if err != nil {
			closeInput()
			return nil, nil, fmt.Errorf("cannot open gzip input: %w", err)
		}
		return gz, func() {
			_ = gz.Close()
			closeInput()
		}, nil
	case Zstd:
		zr, err := zstd.NewReader(br, zstd.WithDecoderConcurrency(1))
		if err != nil {
			closeInput()
			return nil, nil, fmt.Errorf("cannot open zstd input: %w", err)
		}
		return zr, func() {
			zr.Close()
			closeInput()
		}, nil
	default:
		return br, closeInput, nil
	}
}

// WrapOutput returns a buffered writer to out that compresses with comp.
// The returned finish flushes and closes the compressor; it does not close
// out.
func WrapOutput(out io.Writer, comp Compression) (io.Writer, func() error, error) {
	bw := bufio.NewWriterSize(out, ioBufferSize)

	var wc io.WriteCloser
	switch comp {
	case Gzip:
		wc = gzip.NewWriter(bw)
	case Zstd:
		zw, err := zstd.NewWriter(bw, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, nil, fmt.Errorf("creating zstd encoder: %w", err)
		}
		wc = zw
	default:
		return bw, bw.Flush, nil
	}

	return wc, func() error {
		if err := wc.Close(); err != nil {
			return err
		}
		return bw.Flush()
	}, nil
}
