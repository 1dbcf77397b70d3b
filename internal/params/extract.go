// Package params implements the Parameter Extractor (spec §4.5, component
// C5): it walks a resolved type in declaration order over a decode
// buffer, reading primitives at their known offsets and producing the
// ParamMap the IR interpreter needs to evaluate variable footprints.
package params

import (
	"go.chainabi.dev/abi/internal/expr"
	"go.chainabi.dev/abi/internal/interp"
	"go.chainabi.dev/abi/internal/layoutir"
	"go.chainabi.dev/abi/internal/resolver"
	"go.chainabi.dev/abi/internal/trace"
	"go.chainabi.dev/abi/internal/u128"
	"go.chainabi.dev/abi/internal/value"
)

// Extract builds the ParamMap for rt (named ir.TypeName) from buf.
// resolved is the full resolved-type set, needed to follow TypeRef chains.
func Extract(buf []byte, rt *resolver.ResolvedType, resolved map[string]*resolver.ResolvedType, ir *layoutir.TypeIr) (interp.ParamMap, error) {
	e := &extractor{
		resolved:    resolved,
		needed:      make(map[string]bool, len(ir.Parameters)),
		raw:         make(map[string]u128.U128),
		bitsetBytes: make(map[string][]byte),
		out:         make(interp.ParamMap),
	}
	for _, p := range ir.Parameters {
		e.needed[p.Name] = true
	}
	if _, err := e.walk(buf, 0, ir.TypeName, rt); err != nil {
		return nil, err
	}
	trace.Log("params", "%s: extracted %d of %d declared parameter(s)", ir.TypeName, len(e.out), len(ir.Parameters))
	return e.out, nil
}

type extractor struct {
	resolved    map[string]*resolver.ResolvedType
	needed      map[string]bool
	raw         map[string]u128.U128 // every primitive read so far, keyed by canonical path
	bitsetBytes map[string][]byte    // raw bytes of every fixed byte-array field read so far, keyed by canonical path
	out         interp.ParamMap      // only the subset type_ir.parameters declares
}

// isByteElement reports whether elem is a u8 primitive, the only array
// element type whose backing bytes are captured for popcount operands
// (spec §8 Scenario S4's path_bitset, the operand that sizes sibling_hashes).
func isByteElement(elem *resolver.ResolvedType) bool {
	pk, ok := elem.Kind.(*resolver.PrimitiveKind)
	return ok && pk.Type == expr.U8
}

// walk reads rt starting at offset within buf, returning the offset just
// past it.
func (e *extractor) walk(buf []byte, offset uint64, ctx string, rt *resolver.ResolvedType) (uint64, error) {
	switch k := rt.Kind.(type) {
	case *resolver.PrimitiveKind:
		w := uint64(k.Type.Width())
		if offset+w > uint64(len(buf)) {
			return 0, &ShortReadError{Path: ctx, Needed: offset + w, Have: uint64(len(buf))}
		}
		pv, err := value.ParsePrimitive(k.Type, buf[offset:])
		if err != nil {
			return 0, err
		}
		raw := u128.From(pv.Raw)
		e.raw[ctx] = raw
		if e.needed[ctx] {
			e.out[ctx] = raw
		}
		return offset + w, nil

	case *resolver.TypeRefKind:
		target, ok := e.resolved[k.TargetName]
		if !ok {
			return 0, &UnknownTypeError{TypeName: k.TargetName}
		}
		return e.walk(buf, offset, ctx, target)

	case *resolver.StructKind:
		pos := offset
		for _, f := range k.Fields {
			if f.Offset != nil {
				pos = offset + *f.Offset
			}
			next, err := e.walk(buf, pos, ctx+"."+f.Name, f.Type)
			if err != nil {
				return 0, err
			}
			pos = next
		}
		return pos, nil

	case *resolver.ArrayKind:
		if k.SizeConstant {
			total := rt.Size.Const
			end := offset + total
			if isByteElement(k.Element) {
				if end > uint64(len(buf)) {
					return 0, &ShortReadError{Path: ctx, Needed: end, Have: uint64(len(buf))}
				}
				e.bitsetBytes[ctx] = append([]byte(nil), buf[offset:end]...)
			}
			return end, nil
		}
		count, err := expr.EvaluateBitset(k.SizeExpr, ctx, e.raw, e.bitsetBytes)
		if err != nil {
			return 0, err
		}
		if _, ok := k.SizeExpr.(*expr.FieldRef); !ok {
			// Not a bare field reference: the IR registered this under a
			// derived name scoped to the array field itself.
			derivedPath := ctx + ".len"
			if e.needed[derivedPath] {
				e.out[derivedPath] = count
			}
		}
		if !k.Element.Size.IsConst() {
			// Variable-sized elements aren't walked individually; the
			// common schemas this system targets use fixed-size elements
			// in flexible-length arrays.
			return offset, nil
		}
		aligned, ok := u128.AlignUp(k.Element.Alignment, u128.From(k.Element.Size.Const))
		if !ok {
			return 0, &ShortReadError{Path: ctx, Needed: ^uint64(0), Have: uint64(len(buf))}
		}
		total, ok := u128.MulChecked(count, aligned)
		if !ok || !total.Fits64() {
			return 0, &ShortReadError{Path: ctx, Needed: ^uint64(0), Have: uint64(len(buf))}
		}
		end := offset + total.Uint64()
		if isByteElement(k.Element) && end <= uint64(len(buf)) {
			e.bitsetBytes[ctx] = append([]byte(nil), buf[offset:end]...)
		}
		return end, nil

	case *resolver.EnumKind:
		tagRefs := expr.CollectFieldRefs(k.TagExpr)
		pos := offset
		var tagVal u128.U128
		var err error
		if len(tagRefs) > 0 {
			tagVal, err = expr.EvaluateInContext(k.TagExpr, ctx, e.raw)
			if err != nil {
				return 0, err
			}
			if _, ok := k.TagExpr.(*expr.FieldRef); !ok && e.needed[ctx+".tag"] {
				// Not a bare field reference: the IR registered the tag under
				// a derived name scoped to the enum field itself.
				e.out[ctx+".tag"] = tagVal
			}
		} else {
			if pos >= uint64(len(buf)) {
				return 0, &ShortReadError{Path: ctx + ".tag", Needed: pos + 1, Have: uint64(len(buf))}
			}
			tagVal = u128.From(uint64(buf[pos]))
			if e.needed[ctx+".tag"] {
				e.out[ctx+".tag"] = tagVal
			}
			pos++
		}
		if !tagVal.Fits64() {
			return 0, &NoMatchingCaseError{Path: ctx, Value: ^uint64(0)}
		}
		tv := tagVal.Uint64()
		for _, v := range k.Variants {
			if v.TagValue == tv {
				return e.walk(buf, pos, ctx+"."+v.Name, v.Type)
			}
		}
		return 0, &NoMatchingCaseError{Path: ctx, Value: tv}

	case *resolver.UnionKind:
		// The first declared variant always wins; the IR's Switch indexes
		// variants by declaration position under "<ctx>.variant".
		if variantPath := ctx + ".variant"; e.needed[variantPath] {
			e.out[variantPath] = u128.From(0)
		}
		if len(k.Variants) == 0 {
			return offset, nil
		}
		return e.walk(buf, offset, ctx+"."+k.Variants[0].Name, k.Variants[0].Type)

	case *resolver.SizeDiscriminatedUnionKind:
		remaining := uint64(len(buf)) - offset
		sizePath := ctx + ".buffer_size"
		if e.needed[sizePath] {
			e.out[sizePath] = u128.From(remaining)
		}
		for _, v := range k.Variants {
			if v.ExpectedSize == remaining {
				return e.walk(buf, offset, ctx+"."+v.Name, v.Type)
			}
		}
		return 0, &NoMatchingCaseError{Path: sizePath, Value: remaining}

	default:
		return offset, nil
	}
}
