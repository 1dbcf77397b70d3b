package expr

import (
	"fmt"
	"strings"

	"github.com/stoewer/go-strcase"
)

// NamingConvention selects how FieldRef path segments are rendered by
// Format, so an emitter can ask for identifiers spelled the way its target
// language expects them.
type NamingConvention int

const (
	// AsWritten leaves identifiers untouched.
	AsWritten NamingConvention = iota
	SnakeCase
	UpperCamelCase
	LowerCamelCase
	KebabCase
)

func renderIdent(s string, conv NamingConvention) string {
	switch conv {
	case SnakeCase:
		return strcase.SnakeCase(s)
	case UpperCamelCase:
		return strcase.UpperCamelCase(s)
	case LowerCamelCase:
		return strcase.LowerCamelCase(s)
	case KebabCase:
		return strcase.KebabCase(s)
	default:
		return s
	}
}

// Format renders e as a human-readable expression string, spelling
// FieldRef identifiers according to conv. This is provided for emitters;
// the core reflection/resolution path never calls it.
func Format(e Expr, conv NamingConvention) string {
	var b strings.Builder
	writeExpr(&b, e, conv, 0)
	return b.String()
}

const (
	precLowest = iota
	precLogical
	precCompare
	precBitOr
	precBitXor
	precBitAnd
	precShift
	precAdd
	precMul
	precPow
	precUnary
)

func binaryPrec(op BinaryOp) int {
	switch op {
	case LogicalAnd, LogicalOr, LogicalXor:
		return precLogical
	case Eq, Ne, Lt, Gt, Le, Ge:
		return precCompare
	case BitOr:
		return precBitOr
	case BitXor:
		return precBitXor
	case BitAnd:
		return precBitAnd
	case Shl, Shr:
		return precShift
	case Add, Sub:
		return precAdd
	case Mul, Div, Mod:
		return precMul
	case Pow:
		return precPow
	default:
		return precLowest
	}
}

func binarySymbol(op BinaryOp) string {
	switch op {
	case Add:
		return "+"
	case Sub:
		return "-"
	case Mul:
		return "*"
	case Div:
		return "/"
	case Mod:
		return "%"
	case Pow:
		return "**"
	case BitAnd:
		return "&"
	case BitOr:
		return "|"
	case BitXor:
		return "^"
	case Shl:
		return "<<"
	case Shr:
		return ">>"
	case Eq:
		return "=="
	case Ne:
		return "!="
	case Lt:
		return "<"
	case Gt:
		return ">"
	case Le:
		return "<="
	case Ge:
		return ">="
	case LogicalAnd:
		return "&&"
	case LogicalOr:
		return "||"
	case LogicalXor:
		return "xor"
	default:
		return "?"
	}
}

func writeExpr(b *strings.Builder, e Expr, conv NamingConvention, parentPrec int) {
	switch n := e.(type) {
	case *Literal:
		fmt.Fprintf(b, "%d", n.Value)
	case *FieldRef:
		segs := make([]string, len(n.Path))
		for i, s := range n.Path {
			segs[i] = renderIdent(s, conv)
		}
		b.WriteString(strings.Join(segs, "."))
	case *Sizeof:
		fmt.Fprintf(b, "sizeof(%s)", renderIdent(n.TypeName, conv))
	case *Alignof:
		fmt.Fprintf(b, "alignof(%s)", renderIdent(n.TypeName, conv))
	case *Unary:
		writeUnary(b, n, conv)
	case *Binary:
		prec := binaryPrec(n.Op)
		open := prec < parentPrec
		if open {
			b.WriteByte('(')
		}
		writeExpr(b, n.Left, conv, prec)
		b.WriteByte(' ')
		b.WriteString(binarySymbol(n.Op))
		b.WriteByte(' ')
		writeExpr(b, n.Right, conv, prec+1)
		if open {
			b.WriteByte(')')
		}
	}
}

func writeUnary(b *strings.Builder, n *Unary, conv NamingConvention) {
	switch n.Op {
	case BitNot:
		b.WriteByte('~')
	case Neg:
		b.WriteByte('-')
	case LogicalNot:
		b.WriteByte('!')
	case Popcount:
		b.WriteString("popcount")
		b.WriteByte('(')
		writeExpr(b, n.Operand, conv, precLowest)
		b.WriteByte(')')
		return
	}
	writeExpr(b, n.Operand, conv, precUnary)
}
