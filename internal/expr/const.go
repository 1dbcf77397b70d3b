package expr

import (
	"github.com/pkg/errors"

	"go.chainabi.dev/abi/internal/u128"
)

// ErrNotConstant is returned by EvaluateConst when an expression turns out
// to depend on a field value or a variable-sized Sizeof target.
var ErrNotConstant = errors.New("expression is not constant")

// ErrOverflow is returned when u128 arithmetic overflows during evaluation.
var ErrOverflow = errors.New("arithmetic overflow evaluating expression")

// ErrUnknownType is returned when a Sizeof/Alignof target is not present in
// the ConstContext.
var ErrUnknownType = errors.New("unknown type reference in expression")

// TypeFacts is what the expression kernel needs to know about an
// already-resolved type to fold Sizeof/Alignof nodes.
type TypeFacts struct {
	Alignment   uint64
	ConstSize   uint64
	IsConstSize bool
}

// ConstContext answers questions about already-resolved types, so the
// kernel can fold Sizeof/Alignof nodes during constant evaluation.
type ConstContext interface {
	Lookup(name string) (TypeFacts, bool)
}

// IsConstant reports whether e is constant under ctx: it contains no
// FieldRef, and every Sizeof it contains targets a constant-sized type.
// Alignof is always constant once its target resolves.
func IsConstant(e Expr, ctx ConstContext) bool {
	switch n := e.(type) {
	case *Literal:
		return true
	case *FieldRef:
		return false
	case *Sizeof:
		facts, ok := ctx.Lookup(n.TypeName)
		return ok && facts.IsConstSize
	case *Alignof:
		_, ok := ctx.Lookup(n.TypeName)
		return ok
	case *Unary:
		return IsConstant(n.Operand, ctx)
	case *Binary:
		return IsConstant(n.Left, ctx) && IsConstant(n.Right, ctx)
	default:
		return false
	}
}

// CollectFieldRefs returns every distinct dotted path referenced by a
// FieldRef node within e, in first-appearance order.
func CollectFieldRefs(e Expr) []string {
	var out []string
	seen := map[string]bool{}
	var walk func(Expr)
	walk = func(e Expr) {
		switch n := e.(type) {
		case *FieldRef:
			path := JoinPath(n.Path)
			if !seen[path] {
				seen[path] = true
				out = append(out, path)
			}
		case *Unary:
			walk(n.Operand)
		case *Binary:
			walk(n.Left)
			walk(n.Right)
		}
	}
	walk(e)
	return out
}

// JoinPath renders a field path as a dotted string.
func JoinPath(path []string) string {
	s := ""
	for i, p := range path {
		if i > 0 {
			s += "."
		}
		s += p
	}
	return s
}

// EvaluateConst folds e to a u128 value using only constant information:
// literals, Sizeof/Alignof of already-resolved types, and arithmetic. It
// returns ErrNotConstant if e contains a FieldRef or a Sizeof of a
// variable-sized type, and ErrOverflow on arithmetic overflow.
func EvaluateConst(e Expr, ctx ConstContext) (u128.U128, error) {
	return evalNode(e, constLeaves{ctx})
}

type leaves interface {
	field(path []string) (u128.U128, error)
	sizeof(name string) (u128.U128, error)
	alignof(name string) (u128.U128, error)
}

type constLeaves struct{ ctx ConstContext }

func (l constLeaves) field([]string) (u128.U128, error) {
	return u128.U128{}, ErrNotConstant
}

func (l constLeaves) sizeof(name string) (u128.U128, error) {
	facts, ok := l.ctx.Lookup(name)
	if !ok {
		return u128.U128{}, errors.Wrapf(ErrUnknownType, "sizeof(%s)", name)
	}
	if !facts.IsConstSize {
		return u128.U128{}, errors.Wrapf(ErrNotConstant, "sizeof(%s)", name)
	}
	return u128.From(facts.ConstSize), nil
}

func (l constLeaves) alignof(name string) (u128.U128, error) {
	facts, ok := l.ctx.Lookup(name)
	if !ok {
		return u128.U128{}, errors.Wrapf(ErrUnknownType, "alignof(%s)", name)
	}
	return u128.From(facts.Alignment), nil
}

// Evaluate substitutes parameter values (keyed by each FieldRef's own dotted
// path, used verbatim) for FieldRef nodes and evaluates the rest of the
// expression, checked. Sizeof and Alignof leaves are rejected with an
// error. The reflection runtime uses EvaluateInContext/EvaluateBitset
// instead, which canonicalize FieldRef paths before the lookup.
func Evaluate(e Expr, params map[string]u128.U128) (u128.U128, error) {
	return evalNode(e, runtimeLeaves{params})
}

type runtimeLeaves struct{ params map[string]u128.U128 }

func (l runtimeLeaves) field(path []string) (u128.U128, error) {
	name := JoinPath(path)
	v, ok := l.params[name]
	if !ok {
		return u128.U128{}, errors.Errorf("missing parameter %q", name)
	}
	return v, nil
}

func (runtimeLeaves) sizeof(name string) (u128.U128, error) {
	return u128.U128{}, errors.Errorf("unexpected sizeof(%s) at runtime: should have been constant-folded", name)
}

func (runtimeLeaves) alignof(name string) (u128.U128, error) {
	return u128.U128{}, errors.Errorf("unexpected alignof(%s) at runtime: should have been constant-folded", name)
}

func evalNode(e Expr, l leaves) (u128.U128, error) {
	switch n := e.(type) {
	case *Literal:
		return u128.From(n.Value), nil
	case *FieldRef:
		return l.field(n.Path)
	case *Sizeof:
		return l.sizeof(n.TypeName)
	case *Alignof:
		return l.alignof(n.TypeName)
	case *Unary:
		v, err := evalNode(n.Operand, l)
		if err != nil {
			return u128.U128{}, err
		}
		return evalUnary(n.Op, v)
	case *Binary:
		left, err := evalNode(n.Left, l)
		if err != nil {
			return u128.U128{}, err
		}
		right, err := evalNode(n.Right, l)
		if err != nil {
			return u128.U128{}, err
		}
		return evalBinary(n.Op, left, right)
	default:
		return u128.U128{}, errors.Errorf("unknown expr node %T", e)
	}
}

func evalUnary(op UnaryOp, v u128.U128) (u128.U128, error) {
	switch op {
	case BitNot:
		return u128.U128{Hi: ^v.Hi, Lo: ^v.Lo}, nil
	case Neg:
		zero := u128.U128{}
		flipped := u128.U128{Hi: ^v.Hi, Lo: ^v.Lo}
		r, ok := u128.AddChecked(flipped, u128.From(1))
		if !ok {
			return zero, ErrOverflow
		}
		return r, nil
	case LogicalNot:
		if v.IsZero() {
			return u128.From(1), nil
		}
		return u128.U128{}, nil
	case Popcount:
		n := popcount64(v.Hi) + popcount64(v.Lo)
		return u128.From(uint64(n)), nil
	default:
		return u128.U128{}, errors.Errorf("unknown unary op %v", op)
	}
}

func evalBinary(op BinaryOp, l, r u128.U128) (u128.U128, error) {
	switch op {
	case Add:
		v, ok := u128.AddChecked(l, r)
		if !ok {
			return u128.U128{}, ErrOverflow
		}
		return v, nil
	case Sub:
		if l.Cmp(r) < 0 {
			return u128.U128{}, ErrOverflow
		}
		lo, borrow := subBorrow(l.Lo, r.Lo)
		hi := l.Hi - r.Hi - borrow
		return u128.U128{Hi: hi, Lo: lo}, nil
	case Mul:
		v, ok := u128.MulChecked(l, r)
		if !ok {
			return u128.U128{}, ErrOverflow
		}
		return v, nil
	case Div:
		if r.IsZero() {
			return u128.U128{}, errors.New("division by zero")
		}
		return divTrunc(l, r), nil
	case Mod:
		if r.IsZero() {
			return u128.U128{}, errors.New("modulo by zero")
		}
		q := divTrunc(l, r)
		prod, ok := u128.MulChecked(q, r)
		if !ok {
			return u128.U128{}, ErrOverflow
		}
		lo, borrow := subBorrow(l.Lo, prod.Lo)
		hi := l.Hi - prod.Hi - borrow
		return u128.U128{Hi: hi, Lo: lo}, nil
	case Pow:
		return powChecked(l, r)
	case BitAnd:
		return u128.U128{Hi: l.Hi & r.Hi, Lo: l.Lo & r.Lo}, nil
	case BitOr:
		return u128.U128{Hi: l.Hi | r.Hi, Lo: l.Lo | r.Lo}, nil
	case BitXor:
		return u128.U128{Hi: l.Hi ^ r.Hi, Lo: l.Lo ^ r.Lo}, nil
	case Shl:
		return shiftLeft(l, r.Lo), nil
	case Shr:
		return shiftRight(l, r.Lo), nil
	case Eq:
		return boolU128(l.Cmp(r) == 0), nil
	case Ne:
		return boolU128(l.Cmp(r) != 0), nil
	case Lt:
		return boolU128(l.Cmp(r) < 0), nil
	case Gt:
		return boolU128(l.Cmp(r) > 0), nil
	case Le:
		return boolU128(l.Cmp(r) <= 0), nil
	case Ge:
		return boolU128(l.Cmp(r) >= 0), nil
	case LogicalAnd:
		return boolU128(!l.IsZero() && !r.IsZero()), nil
	case LogicalOr:
		return boolU128(!l.IsZero() || !r.IsZero()), nil
	case LogicalXor:
		return boolU128(!l.IsZero() != !r.IsZero()), nil
	default:
		return u128.U128{}, errors.Errorf("unknown binary op %v", op)
	}
}

func boolU128(b bool) u128.U128 {
	if b {
		return u128.From(1)
	}
	return u128.U128{}
}

func subBorrow(a, b uint64) (uint64, uint64) {
	r := a - b
	var borrow uint64
	if a < b {
		borrow = 1
	}
	return r, borrow
}

func popcount64(v uint64) int {
	n := 0
	for v != 0 {
		n += int(v & 1)
		v >>= 1
	}
	return n
}

// divTrunc implements truncating-toward-zero unsigned division (unsigned
// values are always non-negative, so truncation and floor coincide).
func divTrunc(l, r u128.U128) u128.U128 {
	if l.Hi == 0 && r.Hi == 0 {
		return u128.From(l.Lo / r.Lo)
	}
	// Slow bit-by-bit long division for the rare case that either operand
	// needs the high word.
	var quotient, remainder u128.U128
	for i := 127; i >= 0; i-- {
		remainder = shiftLeft(remainder, 1)
		if bit(l, i) {
			remainder.Lo |= 1
		}
		if remainder.Cmp(r) >= 0 {
			lo, borrow := subBorrow(remainder.Lo, r.Lo)
			remainder = u128.U128{Hi: remainder.Hi - r.Hi - borrow, Lo: lo}
			quotient = setBit(quotient, i)
		}
	}
	return quotient
}

func bit(v u128.U128, i int) bool {
	if i >= 64 {
		return (v.Hi>>(i-64))&1 != 0
	}
	return (v.Lo>>i)&1 != 0
}

func setBit(v u128.U128, i int) u128.U128 {
	if i >= 64 {
		v.Hi |= 1 << (i - 64)
	} else {
		v.Lo |= 1 << i
	}
	return v
}

func shiftLeft(v u128.U128, n uint64) u128.U128 {
	if n >= 128 {
		return u128.U128{}
	}
	if n >= 64 {
		return u128.U128{Hi: v.Lo << (n - 64)}
	}
	if n == 0 {
		return v
	}
	return u128.U128{Hi: (v.Hi << n) | (v.Lo >> (64 - n)), Lo: v.Lo << n}
}

func shiftRight(v u128.U128, n uint64) u128.U128 {
	if n >= 128 {
		return u128.U128{}
	}
	if n >= 64 {
		return u128.U128{Lo: v.Hi >> (n - 64)}
	}
	if n == 0 {
		return v
	}
	return u128.U128{Hi: v.Hi >> n, Lo: (v.Lo >> n) | (v.Hi << (64 - n))}
}

func powChecked(base, exp u128.U128) (u128.U128, error) {
	if !exp.Fits64() {
		return u128.U128{}, ErrOverflow
	}
	result := u128.From(1)
	e := exp.Lo
	b := base
	for e > 0 {
		if e&1 == 1 {
			v, ok := u128.MulChecked(result, b)
			if !ok {
				return u128.U128{}, ErrOverflow
			}
			result = v
		}
		e >>= 1
		if e > 0 {
			v, ok := u128.MulChecked(b, b)
			if !ok {
				return u128.U128{}, ErrOverflow
			}
			b = v
		}
	}
	return result, nil
}
