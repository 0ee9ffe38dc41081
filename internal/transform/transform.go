// Package transform implements the ZTR data transforms.
//
// Every transform maps a block to a block. A block starts with a one-byte
// algorithm tag; a raw block is the tag 0 followed by the payload. Encoding
// wraps a block in another transform and decoding peels one layer off, so a
// chunk is decoded by repeatedly dispatching on its leading tag until the
// raw tag is reached.
package transform

import (
	"fmt"

	"github.com/vertti/chromapack/internal/format"
)

// Tag is the one-byte algorithm identifier at the start of every block.
type Tag uint8

// Known transform tags.
const (
	TagRaw         Tag = 0
	TagRunLength   Tag = 1
	TagZLib        Tag = 2
	TagDelta8      Tag = 64
	TagDelta16     Tag = 65
	TagDelta32     Tag = 66
	TagShrinkShort Tag = 70
	TagShrinkInt   Tag = 71
	TagFollow      Tag = 72
)

func (t Tag) String() string {
	switch t {
	case TagRaw:
		return "raw"
	case TagRunLength:
		return "rle"
	case TagZLib:
		return "zlib"
	case TagDelta8:
		return "delta8"
	case TagDelta16:
		return "delta16"
	case TagDelta32:
		return "delta32"
	case TagShrinkShort:
		return "16to8"
	case TagShrinkInt:
		return "32to8"
	case TagFollow:
		return "follow"
	default:
		return fmt.Sprintf("tag(%d)", uint8(t))
	}
}

// Transform is one reversible block transform.
type Transform interface {
	Tag() Tag
	// Encode wraps data in this transform and returns the new block.
	Encode(data []byte) ([]byte, error)
	// Decode removes this transform's layer from block.
	Decode(block []byte) ([]byte, error)
}

// Get returns the transform for a block tag. Unknown tags are an error:
// silently reading unknown data as raw would corrupt trace amplitudes.
// Parameterized transforms take their parameters from the block on decode.
func Get(tag byte) (Transform, error) {
	switch Tag(tag) {
	case TagRaw:
		return Raw{}, nil
	case TagRunLength:
		return RunLength{}, nil
	case TagZLib:
		return ZLib{Level: DefaultZLibLevel}, nil
	case TagDelta8:
		return Delta{Width: 1, Order: 1}, nil
	case TagDelta16:
		return Delta{Width: 2, Order: 1}, nil
	case TagDelta32:
		return Delta{Width: 4, Order: 1}, nil
	case TagShrinkShort:
		return Shrink{Width: 2}, nil
	case TagShrinkInt:
		return Shrink{Width: 4}, nil
	case TagFollow:
		return Follow{}, nil
	default:
		return nil, &format.UnknownTransformError{Tag: tag}
	}
}

// maxChainDepth bounds the number of layers Unpack will peel.
const maxChainDepth = 16

// Pack wraps payload in a raw block and applies steps in order.
func Pack(payload []byte, steps ...Transform) ([]byte, error) {
	block, err := Raw{}.Encode(payload)
	if err != nil {
		return nil, err
	}
	for _, step := range steps {
		block, err = step.Encode(block)
		if err != nil {
			return nil, fmt.Errorf("%s encode: %w", step.Tag(), err)
		}
	}
	return block, nil
}

// Unpack decodes block layer by layer and returns the raw payload.
func Unpack(block []byte) ([]byte, error) {
	for range maxChainDepth {
		if len(block) == 0 {
			return nil, &format.TruncatedError{Where: "transform block", Want: 1}
		}
		t, err := Get(block[0])
		if err != nil {
			return nil, err
		}
		if t.Tag() == TagRaw {
			return t.Decode(block)
		}
		block, err = t.Decode(block)
		if err != nil {
			return nil, fmt.Errorf("%s decode: %w", t.Tag(), err)
		}
	}
	return nil, &format.CorruptError{Where: "transform block", Reason: fmt.Sprintf("more than %d nested transforms", maxChainDepth)}
}

// Raw is the identity transform that terminates every chain.
type Raw struct{}

// Tag implements Transform.
func (Raw) Tag() Tag { return TagRaw }

// Encode prefixes data with the raw tag.
func (Raw) Encode(data []byte) ([]byte, error) {
	out := make([]byte, 1+len(data))
	out[0] = byte(TagRaw)
	copy(out[1:], data)
	return out, nil
}

// Decode strips the raw tag.
func (Raw) Decode(block []byte) ([]byte, error) {
	if err := checkTag(block, TagRaw, 1); err != nil {
		return nil, err
	}
	return block[1:], nil
}

// checkTag verifies the block carries tag and is at least minLen long.
func checkTag(block []byte, tag Tag, minLen int) error {
	if len(block) < minLen {
		return &format.TruncatedError{Where: tag.String(), Want: minLen, Have: len(block)}
	}
	if Tag(block[0]) != tag {
		return &format.CorruptError{Where: tag.String(), Reason: fmt.Sprintf("block has tag %d", block[0])}
	}
	return nil
}
