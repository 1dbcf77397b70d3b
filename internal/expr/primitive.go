// Package expr implements the closed expression kernel used to describe
// sizes and tags throughout the schema: literals, field references,
// sizeof/alignof, and a small set of arithmetic/bitwise/comparison
// operators. See Expr for the full closed set.
package expr

// Primitive is the closed set of wire-level scalar types. Integers are
// little-endian on the wire; char is a byte with string semantics.
type Primitive int

const (
	I8 Primitive = iota
	I16
	I32
	I64
	U8
	U16
	U32
	U64
	Char
	F16
	F32
	F64
)

// Width returns the size of p in bytes.
func (p Primitive) Width() uint64 {
	switch p {
	case I8, U8, Char:
		return 1
	case I16, U16, F16:
		return 2
	case I32, U32, F32:
		return 4
	case I64, U64, F64:
		return 8
	default:
		return 0
	}
}

// Signed reports whether p is a signed integer type.
func (p Primitive) Signed() bool {
	switch p {
	case I8, I16, I32, I64:
		return true
	default:
		return false
	}
}

// Integral reports whether p is an integer or char type (as opposed to a
// float), i.e. whether it is valid as a FieldRef or Sizeof/Alignof result
// and as an enum tag or array-length type.
func (p Primitive) Integral() bool {
	switch p {
	case F16, F32, F64:
		return false
	default:
		return true
	}
}

// String implements fmt.Stringer.
func (p Primitive) String() string {
	switch p {
	case I8:
		return "i8"
	case I16:
		return "i16"
	case I32:
		return "i32"
	case I64:
		return "i64"
	case U8:
		return "u8"
	case U16:
		return "u16"
	case U32:
		return "u32"
	case U64:
		return "u64"
	case Char:
		return "char"
	case F16:
		return "f16"
	case F32:
		return "f32"
	case F64:
		return "f64"
	default:
		return "unknown"
	}
}
