package transform

import (
	"encoding/binary"
	"fmt"

	"github.com/vertti/chromapack/internal/binio"
	"github.com/vertti/chromapack/internal/format"
)

// Run is a value repeated Count times. Count is always at least 1.
type Run[T comparable] struct {
	Value T
	Count uint32
}

// Runs splits seq into maximal runs of equal values.
func Runs[T comparable](seq []T) []Run[T] {
	var runs []Run[T]
	for _, v := range seq {
		if n := len(runs); n > 0 && runs[n-1].Value == v {
			runs[n-1].Count++
			continue
		}
		runs = append(runs, Run[T]{Value: v, Count: 1})
	}
	return runs
}

// Expand concatenates the expansions of runs.
func Expand[T comparable](runs []Run[T]) []T {
	total := 0
	for _, r := range runs {
		total += int(r.Count)
	}
	out := make([]T, 0, total)
	for _, r := range runs {
		for range r.Count {
			out = append(out, r.Value)
		}
	}
	return out
}

// minRunLength is the shortest run worth a three-byte escape.
const minRunLength = 4

// RunLength is the byte run-length transform (tag 1). Layout:
// [tag][decoded length u32 LE][guard][body], where the body holds literal
// bytes, "guard 0" for a literal guard byte and "guard n v" for n copies of v.
type RunLength struct{}

// Tag implements Transform.
func (RunLength) Tag() Tag { return TagRunLength }

// Encode implements Transform.
func (RunLength) Encode(data []byte) ([]byte, error) {
	guard := leastFrequent(data)

	out := make([]byte, 6, 6+len(data)/2)
	out[0] = byte(TagRunLength)
	binary.LittleEndian.PutUint32(out[1:5], uint32(len(data))) //nolint:gosec // chunk sizes fit in u32
	out[5] = guard

	for _, r := range Runs(data) {
		count := r.Count
		for count >= minRunLength {
			n := min(count, 255)
			out = append(out, guard, byte(n), r.Value)
			count -= n
		}
		for range count {
			if r.Value == guard {
				out = append(out, guard, 0)
			} else {
				out = append(out, r.Value)
			}
		}
	}
	return out, nil
}

// Decode implements Transform.
func (RunLength) Decode(block []byte) ([]byte, error) {
	if err := checkTag(block, TagRunLength, 6); err != nil {
		return nil, err
	}
	outLen := int(binary.LittleEndian.Uint32(block[1:5]))
	guard := block[5]

	// Each 3-byte run expands to at most 255 bytes
	body := len(block) - 6
	if limit := body/3*255 + body; outLen > limit {
		return nil, &format.CorruptError{
			Where:  TagRunLength.String(),
			Offset: 1,
			Reason: fmt.Sprintf("declared length %d exceeds what %d bytes can encode", outLen, body),
		}
	}

	c := binio.NewCursor(block, TagRunLength.String())
	_ = c.Skip(6) //nolint:errcheck // length checked by checkTag

	out := make([]byte, 0, outLen)
	for len(out) < outLen {
		b, err := c.Uint8()
		if err != nil {
			return nil, err
		}
		if b != guard {
			out = append(out, b)
			continue
		}
		n, err := c.Uint8()
		if err != nil {
			return nil, err
		}
		if n == 0 {
			out = append(out, guard)
			continue
		}
		v, err := c.Uint8()
		if err != nil {
			return nil, err
		}
		if len(out)+int(n) > outLen {
			return nil, &format.CorruptError{
				Where:  TagRunLength.String(),
				Offset: c.Offset(),
				Reason: fmt.Sprintf("run overflows declared length %d", outLen),
			}
		}
		for range n {
			out = append(out, v)
		}
	}
	return out, nil
}

// leastFrequent returns the byte value that occurs least often in data,
// preferring the smallest value on ties.
func leastFrequent(data []byte) byte {
	var counts [256]int
	for _, b := range data {
		counts[b]++
	}
	best := 0
	for v := 1; v < 256; v++ {
		if counts[v] < counts[best] {
			best = v
		}
	}
	return byte(best)
}
