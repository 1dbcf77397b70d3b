// Package value implements the reflected value tree (spec §3.5, component
// C7 support) and the primitive-value parser it is built from.
package value

import (
	"math"

	"github.com/pkg/errors"

	"go.chainabi.dev/abi/internal/expr"
)

// ErrShortRead is returned by ParsePrimitive when fewer bytes remain than
// the primitive's width.
var ErrShortRead = errors.New("buffer too short to read primitive")

// PrimitiveValue is a decoded scalar. Every primitive width this system
// supports (up to 8 bytes) fits in a plain uint64 raw bit pattern; only
// footprint arithmetic needs the headroom of u128.
type PrimitiveValue struct {
	Type expr.Primitive
	Raw  uint64
}

// ParsePrimitive reads t's width in little-endian bytes from the front of
// data (spec §3.1, §9: "Primitives are always little-endian").
func ParsePrimitive(t expr.Primitive, data []byte) (PrimitiveValue, error) {
	w := int(t.Width())
	if len(data) < w {
		return PrimitiveValue{}, errors.Wrapf(ErrShortRead, "need %d bytes, have %d", w, len(data))
	}
	var raw uint64
	for i := w - 1; i >= 0; i-- {
		raw = raw<<8 | uint64(data[i])
	}
	return PrimitiveValue{Type: t, Raw: raw}, nil
}

// AsSignedInt sign-extends Raw according to Type's width, for signed
// integer primitives.
func (v PrimitiveValue) AsSignedInt() int64 {
	bits := v.Type.Width() * 8
	if bits >= 64 {
		return int64(v.Raw)
	}
	shift := 64 - bits
	return int64(v.Raw<<shift) >> shift
}

// AsFloat decodes Raw as F16/F32/F64 according to Type.
func (v PrimitiveValue) AsFloat() float64 {
	switch v.Type {
	case expr.F64:
		return math.Float64frombits(v.Raw)
	case expr.F32:
		return float64(math.Float32frombits(uint32(v.Raw)))
	case expr.F16:
		return float64(decodeFloat16(uint16(v.Raw)))
	default:
		return 0
	}
}

// decodeFloat16 converts an IEEE 754 binary16 bit pattern to float32.
func decodeFloat16(h uint16) float32 {
	sign := uint32(h>>15) & 1
	exp := uint32(h>>10) & 0x1f
	frac := uint32(h) & 0x3ff

	var f32 uint32
	switch {
	case exp == 0 && frac == 0:
		f32 = sign << 31
	case exp == 0x1f:
		f32 = sign<<31 | 0xff<<23 | frac<<13
	case exp == 0:
		// Subnormal: normalize by shifting until the leading bit appears.
		e := int32(-14)
		for frac&0x400 == 0 {
			frac <<= 1
			e--
		}
		frac &= 0x3ff
		f32 = sign<<31 | uint32(e+127)<<23 | frac<<13
	default:
		f32 = sign<<31 | (exp-15+127)<<23 | frac<<13
	}
	return math.Float32frombits(f32)
}
