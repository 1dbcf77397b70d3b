// Package u128 implements the 128-bit unsigned arithmetic used by the
// expression kernel and the IR interpreter.
//
// The wire sizes the compiler reasons about are u64, but intermediate
// products (popcount-scaled array footprints, nested CallNested chains)
// can exceed u64 before the final narrowing back to a wire size. u128
// gives safe headroom for that; no third-party big-integer library in the
// reference corpus targets fixed-width 128-bit arithmetic, so this is
// implemented directly on math/bits, which is the same primitive the
// standard library itself uses for multi-word arithmetic.
package u128

import (
	"fmt"
	"math/bits"
)

// U128 is an unsigned 128-bit integer, stored as two 64-bit halves.
type U128 struct {
	Hi, Lo uint64
}

// From constructs a U128 from a uint64.
func From(v uint64) U128 { return U128{Lo: v} }

// IsZero reports whether v is zero.
func (v U128) IsZero() bool { return v.Hi == 0 && v.Lo == 0 }

// Cmp compares v to w, returning -1, 0, or 1.
func (v U128) Cmp(w U128) int {
	switch {
	case v.Hi != w.Hi:
		if v.Hi < w.Hi {
			return -1
		}
		return 1
	case v.Lo != w.Lo:
		if v.Lo < w.Lo {
			return -1
		}
		return 1
	default:
		return 0
	}
}

// Fits64 reports whether v fits into a uint64 without truncation.
func (v U128) Fits64() bool { return v.Hi == 0 }

// Uint64 narrows v to a uint64. Callers must check Fits64 first; this
// truncates silently otherwise, matching the narrowing semantics described
// for IR validation in the specification (narrowing happens only after an
// explicit bounds check at the validate boundary).
func (v U128) Uint64() uint64 { return v.Lo }

// String renders v in decimal.
func (v U128) String() string {
	if v.Hi == 0 {
		return fmt.Sprintf("%d", v.Lo)
	}
	// Long division by 10 using the double-word remainder trick.
	digits := make([]byte, 0, 40)
	hi, lo := v.Hi, v.Lo
	for hi != 0 || lo != 0 {
		var rem uint64
		hi, rem = bits.Div64(0, hi, 10)
		lo, rem = bits.Div64(rem, lo, 10)
		digits = append(digits, byte('0'+rem))
	}
	for i, j := 0, len(digits)-1; i < j; i, j = i+1, j-1 {
		digits[i], digits[j] = digits[j], digits[i]
	}
	return string(digits)
}

// AddChecked computes v+w, reporting overflow rather than wrapping.
func AddChecked(v, w U128) (U128, bool) {
	lo, carry := bits.Add64(v.Lo, w.Lo, 0)
	hi, carry2 := bits.Add64(v.Hi, w.Hi, carry)
	if carry2 != 0 {
		return U128{}, false
	}
	return U128{Hi: hi, Lo: lo}, true
}

// MulChecked computes v*w, reporting overflow rather than wrapping.
func MulChecked(v, w U128) (U128, bool) {
	if v.IsZero() || w.IsZero() {
		return U128{}, true
	}
	// v*w overflows 128 bits unless v.Hi==0 and w.Hi==0, or one side's high
	// word combined with the other's low word also overflows; compute the
	// full cross terms and ensure nothing spills past bit 127.
	if v.Hi != 0 && w.Hi != 0 {
		return U128{}, false
	}

	hi1, lo := bits.Mul64(v.Lo, w.Lo)
	crossHi := uint64(0)
	overflow := false

	if v.Hi != 0 {
		t, h := bits.Mul64(v.Hi, w.Lo)
		if h != 0 {
			overflow = true
		}
		crossHi = t
	}
	if w.Hi != 0 {
		t, h := bits.Mul64(w.Hi, v.Lo)
		if h != 0 {
			overflow = true
		}
		sum, carry := bits.Add64(crossHi, t, 0)
		if carry != 0 {
			overflow = true
		}
		crossHi = sum
	}

	hi, carry := bits.Add64(hi1, crossHi, 0)
	if carry != 0 || overflow {
		return U128{}, false
	}
	return U128{Hi: hi, Lo: lo}, true
}

// AlignUp rounds n up to the nearest multiple of alignment, which is
// coerced to at least 1 defensively. Returns false on overflow. alignment
// is assumed to be a power of two, as required of all byte widths and
// `aligned` attributes in this system.
func AlignUp(alignment uint64, n U128) (U128, bool) {
	if alignment == 0 {
		alignment = 1
	}
	sum, ok := AddChecked(n, From(alignment-1))
	if !ok {
		return U128{}, false
	}
	mask := ^(alignment - 1)
	return U128{Hi: sum.Hi, Lo: sum.Lo & mask}, true
}
