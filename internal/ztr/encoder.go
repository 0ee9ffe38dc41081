package ztr

import (
	"fmt"
	"io"
	"maps"

	"github.com/vertti/chromapack/internal/chromatogram"
	"github.com/vertti/chromapack/internal/transform"
)

// Chains maps a chunk type to the transforms applied to its raw block, in
// encoding order. A chunk type without an entry is stored raw.
type Chains map[ChunkType][]transform.Transform

// DefaultChains returns the transform chains used when none are configured.
func DefaultChains() Chains {
	zl := transform.ZLib{Level: transform.DefaultZLibLevel}
	return Chains{
		ChunkSamples: {
			transform.Delta{Width: 2, Order: 3},
			transform.Shrink{Width: 2},
			transform.Follow{},
			zl,
		},
		ChunkPositions: {
			transform.Delta{Width: 4, Order: 1},
			transform.Shrink{Width: 4},
			zl,
		},
		ChunkConfidence: {
			transform.Delta{Width: 1, Order: 1},
			transform.RunLength{},
			zl,
		},
		ChunkBase: {zl},
		ChunkText: {zl},
	}
}

// EncodeOptions configures ZTR encoding.
type EncodeOptions struct {
	// Chains overrides the default chain of the chunk types it names.
	Chains Chains
}

func (o *EncodeOptions) chains() Chains {
	chains := DefaultChains()
	if o != nil {
		maps.Copy(chains, o.Chains)
	}
	return chains
}

// Encode writes c as a ZTR file. Chunks are written in the order samples,
// bases, positions, confidence, text, clip; empty fields produce no chunk.
// Substitution, insertion and deletion confidence and private data have no
// ZTR representation and are not written.
func Encode(c *chromatogram.Chromatogram, w io.Writer, opts *EncodeOptions) error {
	chunks, err := buildChunks(c, opts.chains())
	if err != nil {
		return err
	}
	if err := writeHeader(w); err != nil {
		return fmt.Errorf("writing ztr header: %w", err)
	}
	for _, chunk := range chunks {
		if err := writeChunk(w, chunk); err != nil {
			return fmt.Errorf("writing %s chunk: %w", chunk.Type, err)
		}
	}
	return nil
}

func buildChunks(c *chromatogram.Chromatogram, chains Chains) ([]*Chunk, error) {
	type payload struct {
		typ  ChunkType
		data []byte
	}
	var payloads []payload
	if c.NumSamples() > 0 {
		payloads = append(payloads, payload{ChunkSamples, encodeSamples(c)})
	}
	if c.NumBases() > 0 {
		payloads = append(payloads,
			payload{ChunkBase, encodeBase(c)},
			payload{ChunkPositions, encodePositions(c)},
			payload{ChunkConfidence, encodeConfidence(c)},
		)
	}
	if comments := c.Comments(); len(comments) > 0 {
		text, err := encodeText(comments)
		if err != nil {
			return nil, err
		}
		payloads = append(payloads, payload{ChunkText, text})
	}
	if clip, ok := c.Clip(); ok {
		payloads = append(payloads, payload{ChunkClip, encodeClip(clip)})
	}

	chunks := make([]*Chunk, 0, len(payloads))
	for _, p := range payloads {
		block, err := transform.Pack(p.data, chains[p.typ]...)
		if err != nil {
			return nil, fmt.Errorf("encoding %s chunk: %w", p.typ, err)
		}
		chunks = append(chunks, &Chunk{Type: p.typ, Data: block})
	}
	return chunks, nil
}
