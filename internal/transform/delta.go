package transform

import (
	"encoding/binary"
	"fmt"

	"github.com/vertti/chromapack/internal/format"
)

// element is an unsigned integer width a delta transform can work on.
// Arithmetic on these types wraps, which is what the predictors rely on.
type element interface {
	~uint8 | ~uint16 | ~uint32
}

// predict returns the order-N finite difference prediction from the last
// three actual values (p1 most recent). Missing history is zero.
func predict[T element](order int, p1, p2, p3 T) T {
	switch order {
	case 1:
		return p1
	case 2:
		return 2*p1 - p2
	default:
		return 3*p1 - 3*p2 + p3
	}
}

// DeltaEncode replaces each value with its residual from the order-N
// prediction, in-place. Orders outside 1..3 are treated as 3.
func DeltaEncode[T element](vals []T, order int) {
	// Encode backwards so the history of each value is still the original data
	for i := len(vals) - 1; i >= 0; i-- {
		var p1, p2, p3 T
		if i >= 1 {
			p1 = vals[i-1]
		}
		if i >= 2 {
			p2 = vals[i-2]
		}
		if i >= 3 {
			p3 = vals[i-3]
		}
		vals[i] -= predict(order, p1, p2, p3)
	}
}

// DeltaDecode reverses DeltaEncode in-place.
func DeltaDecode[T element](vals []T, order int) {
	var p1, p2, p3 T
	for i := range vals {
		vals[i] += predict(order, p1, p2, p3)
		p3, p2, p1 = p2, p1, vals[i]
	}
}

// Delta is the N-th order delta transform over 8, 16 or 32-bit big-endian
// elements (tags 64, 65 and 66).
type Delta struct {
	Width int // element width in bytes: 1, 2 or 4
	Order int // prediction order 1..3; taken from the block when decoding
}

// NewDelta returns a delta transform for the given element width in bytes
// and prediction order.
func NewDelta(width, order int) (Delta, error) {
	if width != 1 && width != 2 && width != 4 {
		return Delta{}, fmt.Errorf("delta: unsupported element width %d", width)
	}
	if order < 1 || order > 3 {
		return Delta{}, fmt.Errorf("delta: unsupported order %d", order)
	}
	return Delta{Width: width, Order: order}, nil
}

// Tag implements Transform.
func (d Delta) Tag() Tag {
	switch d.Width {
	case 2:
		return TagDelta16
	case 4:
		return TagDelta32
	default:
		return TagDelta8
	}
}

// headerLen is the tag and level, padded to the element width for 32-bit
// data so the residuals stay aligned.
func (d Delta) headerLen() int {
	if d.Width == 4 {
		return 4
	}
	return 2
}

// Encode implements Transform.
func (d Delta) Encode(data []byte) ([]byte, error) {
	if _, err := NewDelta(d.Width, d.Order); err != nil {
		return nil, err
	}
	if len(data)%d.Width != 0 {
		return nil, &format.AlignmentError{Transform: d.Tag().String(), Len: len(data), Width: d.Width}
	}
	hdr := d.headerLen()
	out := make([]byte, hdr+len(data))
	out[0] = byte(d.Tag())
	out[1] = byte(d.Order)
	copy(out[hdr:], data)
	d.apply(out[hdr:], d.Order, true)
	return out, nil
}

// Decode implements Transform.
func (d Delta) Decode(block []byte) ([]byte, error) {
	hdr := d.headerLen()
	if err := checkTag(block, d.Tag(), hdr); err != nil {
		return nil, err
	}
	order := int(block[1])
	if order < 1 || order > 3 {
		return nil, &format.CorruptError{Where: d.Tag().String(), Offset: 1, Reason: fmt.Sprintf("invalid order %d", order)}
	}
	body := block[hdr:]
	if len(body)%d.Width != 0 {
		return nil, &format.TruncatedError{
			Where: d.Tag().String(),
			Want:  len(body) + d.Width - len(body)%d.Width,
			Have:  len(body),
		}
	}
	out := make([]byte, len(body))
	copy(out, body)
	d.apply(out, order, false)
	return out, nil
}

// apply runs the delta coder over big-endian elements of buf in-place.
func (d Delta) apply(buf []byte, order int, encode bool) {
	switch d.Width {
	case 1:
		if encode {
			DeltaEncode(buf, order)
		} else {
			DeltaDecode(buf, order)
		}
	case 2:
		vals := make([]uint16, len(buf)/2)
		for i := range vals {
			vals[i] = binary.BigEndian.Uint16(buf[2*i:])
		}
		if encode {
			DeltaEncode(vals, order)
		} else {
			DeltaDecode(vals, order)
		}
		for i, v := range vals {
			binary.BigEndian.PutUint16(buf[2*i:], v)
		}
	case 4:
		vals := make([]uint32, len(buf)/4)
		for i := range vals {
			vals[i] = binary.BigEndian.Uint32(buf[4*i:])
		}
		if encode {
			DeltaEncode(vals, order)
		} else {
			DeltaDecode(vals, order)
		}
		for i, v := range vals {
			binary.BigEndian.PutUint32(buf[4*i:], v)
		}
	}
}
