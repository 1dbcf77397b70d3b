// Package interp implements the IR Interpreter (spec §4.6, component C6):
// it evaluates a layoutir.IrNode tree against a parameter map, always in
// checked u128 arithmetic, and validates a buffer is large enough to hold
// a type's computed footprint.
package interp

import (
	"go.chainabi.dev/abi/internal/layoutir"
	"go.chainabi.dev/abi/internal/trace"
	"go.chainabi.dev/abi/internal/u128"
)

// ParamMap is the extracted parameter set a node tree is evaluated
// against, keyed by canonical dotted path.
type ParamMap map[string]u128.U128

// TypeIndex resolves CallNested references by name.
type TypeIndex map[string]*layoutir.TypeIr

// Evaluate walks node, producing its u128 value. types is used to resolve
// CallNested; pass nil if node is known not to contain one.
func Evaluate(node layoutir.IrNode, params ParamMap, types TypeIndex) (u128.U128, error) {
	switch n := node.(type) {
	case nil:
		return u128.U128{}, nil
	case *layoutir.Const:
		return n.Value, nil
	case *layoutir.ZeroSize:
		return u128.U128{}, nil
	case *layoutir.FieldRef:
		v, ok := params[n.Path]
		if !ok {
			return u128.U128{}, &MissingParameterError{Path: n.Path}
		}
		return v, nil
	case *layoutir.AddChecked:
		l, err := Evaluate(n.Left, params, types)
		if err != nil {
			return u128.U128{}, err
		}
		r, err := Evaluate(n.Right, params, types)
		if err != nil {
			return u128.U128{}, err
		}
		v, ok := u128.AddChecked(l, r)
		if !ok {
			return u128.U128{}, &ArithmeticOverflowError{Op: "AddChecked"}
		}
		return v, nil
	case *layoutir.MulChecked:
		l, err := Evaluate(n.Left, params, types)
		if err != nil {
			return u128.U128{}, err
		}
		r, err := Evaluate(n.Right, params, types)
		if err != nil {
			return u128.U128{}, err
		}
		v, ok := u128.MulChecked(l, r)
		if !ok {
			return u128.U128{}, &ArithmeticOverflowError{Op: "MulChecked"}
		}
		return v, nil
	case *layoutir.AlignUp:
		v, err := Evaluate(n.Node, params, types)
		if err != nil {
			return u128.U128{}, err
		}
		aligned, ok := u128.AlignUp(n.Alignment, v)
		if !ok {
			return u128.U128{}, &ArithmeticOverflowError{Op: "AlignUp"}
		}
		return aligned, nil
	case *layoutir.CallNested:
		target, ok := types[n.TypeName]
		if !ok {
			return u128.U128{}, &UnknownIrTypeError{TypeName: n.TypeName}
		}
		sub := make(ParamMap, len(n.Arguments))
		for _, arg := range n.Arguments {
			v, err := Evaluate(arg.Value, params, types)
			if err != nil {
				return u128.U128{}, err
			}
			sub[arg.ParameterName] = v
		}
		return Evaluate(target.Root, sub, types)
	case *layoutir.Switch:
		tagVal, ok := params[n.Tag]
		if !ok {
			return u128.U128{}, &MissingParameterError{Path: n.Tag}
		}
		if !tagVal.Fits64() {
			return u128.U128{}, &ArithmeticOverflowError{Op: "Switch tag"}
		}
		for _, c := range n.Cases {
			if c.TagValue == tagVal.Uint64() {
				return Evaluate(c.Node, params, types)
			}
		}
		if n.Default != nil {
			return Evaluate(n.Default, params, types)
		}
		return u128.U128{}, nil
	default:
		return u128.U128{}, &UnknownIrTypeError{TypeName: "<unrecognized IrNode>"}
	}
}

// Validate computes the footprint of ir.Root against params and requires
// it not exceed bufferLen (spec §4.6: "validate computes the root
// footprint, then requires buffer_len >= footprint").
func Validate(ir *layoutir.TypeIr, bufferLen uint64, params ParamMap, types TypeIndex) (bytesConsumed uint64, err error) {
	footprint, err := Evaluate(ir.Root, params, types)
	if err != nil {
		return 0, err
	}
	if !footprint.Fits64() {
		return 0, &ArithmeticOverflowError{Op: "footprint narrowing"}
	}
	need := footprint.Uint64()
	if bufferLen < need {
		return 0, &BufferTooSmallError{Needed: need, Have: bufferLen}
	}
	trace.Log("interp", "%s: footprint=%d buffer=%d", ir.TypeName, need, bufferLen)
	return need, nil
}
