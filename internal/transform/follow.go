package transform

// followHeaderLen is the tag plus the 256-byte follow table.
const followHeaderLen = 1 + 256

// Follow is the context prediction transform (tag 72). For every byte value
// the table stores the byte that most often follows it; each byte after the
// first is replaced by table[previous] - actual.
type Follow struct{}

// Tag implements Transform.
func (Follow) Tag() Tag { return TagFollow }

// Encode implements Transform.
func (Follow) Encode(data []byte) ([]byte, error) {
	table := followTable(data)

	out := make([]byte, followHeaderLen+len(data))
	out[0] = byte(TagFollow)
	copy(out[1:followHeaderLen], table[:])
	if len(data) == 0 {
		return out, nil
	}
	body := out[followHeaderLen:]
	body[0] = data[0]
	for i := 1; i < len(data); i++ {
		body[i] = table[data[i-1]] - data[i]
	}
	return out, nil
}

// Decode implements Transform.
func (Follow) Decode(block []byte) ([]byte, error) {
	if err := checkTag(block, TagFollow, followHeaderLen); err != nil {
		return nil, err
	}
	table := block[1:followHeaderLen]
	body := block[followHeaderLen:]

	out := make([]byte, len(body))
	if len(body) == 0 {
		return out, nil
	}
	out[0] = body[0]
	for i := 1; i < len(body); i++ {
		out[i] = table[out[i-1]] - body[i]
	}
	return out, nil
}

// followTable picks, for each byte value, its most frequent successor.
func followTable(data []byte) [256]byte {
	counts := make([][256]int, 256)
	for i := 1; i < len(data); i++ {
		counts[data[i-1]][data[i]]++
	}
	var table [256]byte
	for prev := range counts {
		best := 0
		for next := 1; next < 256; next++ {
			if counts[prev][next] > counts[prev][best] {
				best = next
			}
		}
		table[prev] = byte(best)
	}
	return table
}
