package abi

import (
	"go.chainabi.dev/abi/internal/layoutir"
)

// These aliases re-export the Layout IR's public shape (spec §3.4/§4.4) so
// callers can inspect or serialize a LayoutIr without importing
// internal/layoutir directly.
type (
	IrNode      = layoutir.IrNode
	Const       = layoutir.Const
	ZeroSize    = layoutir.ZeroSize
	FieldRef    = layoutir.FieldRef
	AddChecked  = layoutir.AddChecked
	MulChecked  = layoutir.MulChecked
	AlignUp     = layoutir.AlignUp
	IrArgument  = layoutir.IrArgument
	CallNested  = layoutir.CallNested
	SwitchCase  = layoutir.SwitchCase
	Switch      = layoutir.Switch
	IrParameter = layoutir.IrParameter
	TypeIr      = layoutir.TypeIr
	LayoutIr    = layoutir.LayoutIr
)

// BuildLayoutIR compiles a resolved type set, in the topological order
// Resolve returned alongside it, into a LayoutIr (spec §4.4, component C4).
// Every TypeIr's Root evaluates to that type's footprint in bytes given the
// right parameter map; see internal/interp's Evaluate and the [Reflector]
// for how that map gets built from an actual buffer.
func BuildLayoutIR(resolved map[string]*ResolvedType, order []string) (*LayoutIr, error) {
	return layoutir.Build(resolved, order)
}
