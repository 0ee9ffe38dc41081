package chromatogram

// Channel is one of the four fluorescence channels.
type Channel uint8

// Channels in file order.
const (
	A Channel = iota
	C
	G
	T
)

// NumChannels is the number of fluorescence channels.
const NumChannels = 4

// Channels lists every channel in file order.
var Channels = [NumChannels]Channel{A, C, G, T}

var channelBases = [NumChannels]byte{'A', 'C', 'G', 'T'}

// noChannel marks bases that are not called on a single channel.
const noChannel = 0xff

var baseTable [256]byte

func init() {
	// Default to noChannel (N, IUPAC ambiguity codes, gaps)
	for i := range baseTable {
		baseTable[i] = noChannel
	}
	baseTable['A'] = byte(A)
	baseTable['a'] = byte(A)
	baseTable['C'] = byte(C)
	baseTable['c'] = byte(C)
	baseTable['G'] = byte(G)
	baseTable['g'] = byte(G)
	baseTable['T'] = byte(T)
	baseTable['t'] = byte(T)
}

// Base returns the nucleotide the channel is named after, or '?' for a
// value outside A..T.
func (c Channel) Base() byte {
	if !c.valid() {
		return '?'
	}
	return channelBases[c]
}

func (c Channel) valid() bool { return c < NumChannels }

func (c Channel) String() string {
	return string(c.Base())
}

// ChannelOf returns the channel a basecall was made on. ok is false for
// anything other than A, C, G or T.
func ChannelOf(base byte) (ch Channel, ok bool) {
	v := baseTable[base]
	if v == noChannel {
		return 0, false
	}
	return Channel(v), true
}

// OptionalKind names the optional per-base confidence arrays SCF carries.
type OptionalKind uint8

// Optional per-base confidence arrays.
const (
	Substitution OptionalKind = iota
	Insertion
	Deletion
)

func (k OptionalKind) String() string {
	switch k {
	case Substitution:
		return "substitution"
	case Insertion:
		return "insertion"
	default:
		return "deletion"
	}
}
