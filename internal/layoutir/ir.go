// Package layoutir implements the Layout IR Builder (spec §4.4, component
// C4): it turns a resolver.ResolvedType into a TypeIr whose root IrNode
// evaluates to the type's footprint, in bytes, given the right parameter
// map.
package layoutir

import "go.chainabi.dev/abi/internal/u128"

// IrNode is the closed set of footprint-expression nodes (spec §3.4).
type IrNode interface {
	isIrNode()
}

type irNode struct{}

func (irNode) isIrNode() {}

// Const is a fixed byte count.
type Const struct {
	irNode
	Value u128.U128
}

// ZeroSize always evaluates to 0; used as the default arm of a Switch with
// no declared default.
type ZeroSize struct{ irNode }

// FieldRef reads a previously-extracted parameter by Path. Parameter, when
// set, repeats the name of the TypeIr.Parameters entry the reference reads:
// the builder sets it on array-length references (derived or not) and
// leaves it empty elsewhere. The interpreter looks values up by Path only.
type FieldRef struct {
	irNode
	Path      string
	Parameter string
}

// AddChecked and MulChecked always evaluate with overflow checks.
type AddChecked struct {
	irNode
	Left, Right IrNode
}

type MulChecked struct {
	irNode
	Left, Right IrNode
}

// AlignUp rounds Node's value up to Alignment.
type AlignUp struct {
	irNode
	Alignment uint64
	Node      IrNode
}

// IrArgument binds one of a nested TypeIr's parameter names to an IrNode
// evaluated in the caller's context.
type IrArgument struct {
	ParameterName string
	Value         IrNode
}

// CallNested invokes another TypeIr by name, reusing its footprint logic.
type CallNested struct {
	irNode
	TypeName  string
	Arguments []IrArgument
}

// SwitchCase is one arm of a Switch.
type SwitchCase struct {
	TagValue uint64
	Node     IrNode
}

// Switch selects a case by the runtime value at Tag; models Enum, Union,
// and SizeDiscriminatedUnion footprints alike.
type Switch struct {
	irNode
	Tag     string
	Cases   []SwitchCase
	Default IrNode // nil means no default: interpreter falls back to 0.
}

// IrParameter describes one entry of TypeIr.Parameters. Derived parameters
// are computed rather than read directly from the buffer.
type IrParameter struct {
	Name        string
	Description string
	Derived     bool
}

// TypeIr is the complete footprint program for one resolved type.
type TypeIr struct {
	TypeName   string
	Alignment  uint64
	Root       IrNode
	Parameters []IrParameter
}

// LayoutIr is the full compiled output for a resolved type set: every
// TypeIr, plus a monotonically increasing schema version.
type LayoutIr struct {
	Version uint64
	Types   []TypeIr
}

// ByName indexes Types for CallNested resolution (spec §4.6: "looks up the
// named TypeIr in a name -> index map").
func (l *LayoutIr) ByName() map[string]*TypeIr {
	out := make(map[string]*TypeIr, len(l.Types))
	for i := range l.Types {
		out[l.Types[i].TypeName] = &l.Types[i]
	}
	return out
}

// Clone performs a defensive deep copy. LayoutIr is built once and then
// treated as read-only (spec §3.6); Clone exists for callers that need to
// hand out an independently mutable copy without aliasing the original's
// node trees.
func (l *LayoutIr) Clone() *LayoutIr {
	out := &LayoutIr{Version: l.Version, Types: make([]TypeIr, len(l.Types))}
	for i, t := range l.Types {
		params := make([]IrParameter, len(t.Parameters))
		copy(params, t.Parameters)
		out.Types[i] = TypeIr{
			TypeName:   t.TypeName,
			Alignment:  t.Alignment,
			Root:       cloneNode(t.Root),
			Parameters: params,
		}
	}
	return out
}

func cloneNode(n IrNode) IrNode {
	switch v := n.(type) {
	case nil:
		return nil
	case *Const:
		c := *v
		return &c
	case *ZeroSize:
		c := *v
		return &c
	case *FieldRef:
		c := *v
		return &c
	case *AddChecked:
		return &AddChecked{Left: cloneNode(v.Left), Right: cloneNode(v.Right)}
	case *MulChecked:
		return &MulChecked{Left: cloneNode(v.Left), Right: cloneNode(v.Right)}
	case *AlignUp:
		return &AlignUp{Alignment: v.Alignment, Node: cloneNode(v.Node)}
	case *CallNested:
		args := make([]IrArgument, len(v.Arguments))
		for i, a := range v.Arguments {
			args[i] = IrArgument{ParameterName: a.ParameterName, Value: cloneNode(a.Value)}
		}
		return &CallNested{TypeName: v.TypeName, Arguments: args}
	case *Switch:
		cases := make([]SwitchCase, len(v.Cases))
		for i, c := range v.Cases {
			cases[i] = SwitchCase{TagValue: c.TagValue, Node: cloneNode(c.Node)}
		}
		return &Switch{Tag: v.Tag, Cases: cases, Default: cloneNode(v.Default)}
	default:
		return nil
	}
}
