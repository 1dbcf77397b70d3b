package abi

import (
	"fmt"

	"github.com/pkg/errors"

	"go.chainabi.dev/abi/internal/expr"
	"go.chainabi.dev/abi/internal/interp"
	"go.chainabi.dev/abi/internal/params"
	"go.chainabi.dev/abi/internal/resolver"
	"go.chainabi.dev/abi/internal/trace"
	"go.chainabi.dev/abi/internal/u128"
	"go.chainabi.dev/abi/internal/value"
)

// ReflectedType and ReflectedValue are re-exported from internal/value:
// they're the output type of Reflect and the input type of Format.
type (
	ReflectedType = value.ReflectedType
	ReflectedValue = value.ReflectedValue
)

// ReflectOption configures a Reflector.
type ReflectOption struct{ apply func(*reflectOptions) }

type reflectOptions struct{}

// Reflector decodes encoded buffers against one resolved type set and its
// compiled layout IR (spec §4.7, component C7). Build one with
// [NewReflector] once Resolve and BuildLayoutIR have run, and reuse it
// across every buffer of that schema.
type Reflector struct {
	file     File
	resolved map[string]*ResolvedType
	ir       *LayoutIr
	byName   interp.TypeIndex
}

// NewReflector builds a Reflector. resolved and ir must come from Resolve
// and BuildLayoutIR against the same file.
func NewReflector(file File, resolved map[string]*ResolvedType, ir *LayoutIr, opts ...ReflectOption) *Reflector {
	cfg := reflectOptions{}
	for _, o := range opts {
		o.apply(&cfg)
	}
	return &Reflector{
		file:     file,
		resolved: resolved,
		ir:       ir,
		byName:   ir.ByName(),
	}
}

// Reflect decodes buf as typeName, validating the buffer is large enough
// for the type's computed footprint before walking it into a value tree
// (spec §4.5-§4.7: extract parameters, validate footprint, then decode).
func (r *Reflector) Reflect(buf []byte, typeName string) (*ReflectedValue, error) {
	rt, ok := r.resolved[typeName]
	if !ok {
		return nil, &UnknownTypeError{TypeName: typeName}
	}
	tir, ok := r.byName[typeName]
	if !ok {
		return nil, &UnknownTypeError{TypeName: typeName}
	}

	pm, err := params.Extract(buf, rt, r.resolved, tir)
	if err != nil {
		return nil, &ParseError{TypeName: typeName, Source: err}
	}
	if _, err := interp.Validate(tir, uint64(len(buf)), pm, r.byName); err != nil {
		return nil, &ParseError{TypeName: typeName, Source: err}
	}

	d := &decoder{resolved: r.resolved, raw: make(map[string]u128.U128), bitsetBytes: make(map[string][]byte)}
	v, _, err := d.walk(buf, 0, typeName, rt)
	if err != nil {
		return nil, &ParseError{TypeName: typeName, Source: err}
	}
	trace.Log("abi", "reflected %q from %d byte buffer", typeName, len(buf))

	return &ReflectedValue{
		TypeInfo: ReflectedType{Name: typeName, Kind: rt.Kind, Size: rt.Size, Alignment: rt.Alignment},
		Value:    v,
	}, nil
}

// ReflectInstruction decodes buf against the schema's configured
// instruction root type.
func (r *Reflector) ReflectInstruction(buf []byte) (*ReflectedValue, error) {
	if r.file.Roots.InstructionRoot == nil {
		return nil, &MissingRootTypeError{Kind: RootInstruction}
	}
	return r.Reflect(buf, *r.file.Roots.InstructionRoot)
}

// ReflectAccount decodes buf against the schema's configured account root
// type.
func (r *Reflector) ReflectAccount(buf []byte) (*ReflectedValue, error) {
	if r.file.Roots.AccountRoot == nil {
		return nil, &MissingRootTypeError{Kind: RootAccount}
	}
	return r.Reflect(buf, *r.file.Roots.AccountRoot)
}

// ReflectEvent decodes buf against the schema's configured event root type.
func (r *Reflector) ReflectEvent(buf []byte) (*ReflectedValue, error) {
	if r.file.Roots.Events == nil {
		return nil, &MissingRootTypeError{Kind: RootEvent}
	}
	return r.Reflect(buf, *r.file.Roots.Events)
}

// decoder walks a buffer into a value.Value tree, mirroring
// internal/params' extraction walk but building a value tree instead of a
// parameter map. It keeps its own raw-primitive map because the two walks
// run independently: Extract already validated the buffer once, but
// decode needs every intermediate primitive (array lengths, enum tags,
// union-less variant selection) again to drive its own traversal.
type decoder struct {
	resolved    map[string]*resolver.ResolvedType
	raw         map[string]u128.U128
	bitsetBytes map[string][]byte
}

func (d *decoder) walk(buf []byte, offset uint64, ctx string, rt *resolver.ResolvedType) (value.Value, uint64, error) {
	switch k := rt.Kind.(type) {
	case *resolver.PrimitiveKind:
		w := k.Type.Width()
		if offset+w > uint64(len(buf)) {
			return nil, 0, errors.Errorf("short read at %q: need %d bytes, have %d", ctx, offset+w, len(buf))
		}
		pv, err := value.ParsePrimitive(k.Type, buf[offset:])
		if err != nil {
			return nil, 0, err
		}
		d.raw[ctx] = u128.From(pv.Raw)
		return &value.Primitive{Value: pv}, offset + w, nil

	case *resolver.TypeRefKind:
		target, ok := d.resolved[k.TargetName]
		if !ok {
			return nil, 0, errors.Errorf("unknown type %q", k.TargetName)
		}
		inner, next, err := d.walk(buf, offset, ctx, target)
		if err != nil {
			return nil, 0, err
		}
		return &value.TypeRef{TargetName: k.TargetName, Value: inner}, next, nil

	case *resolver.StructKind:
		pos := offset
		fields := make([]value.NamedValue, 0, len(k.Fields))
		for _, f := range k.Fields {
			if f.Offset != nil {
				pos = offset + *f.Offset
			}
			fv, next, err := d.walk(buf, pos, ctx+"."+f.Name, f.Type)
			if err != nil {
				return nil, 0, err
			}
			fields = append(fields, value.NamedValue{Name: f.Name, Value: fv})
			pos = next
		}
		return &value.Struct{Fields: fields}, pos, nil

	case *resolver.ArrayKind:
		countV, err := expr.EvaluateBitset(k.SizeExpr, ctx, d.raw, d.bitsetBytes)
		if err != nil {
			return nil, 0, err
		}
		if !countV.Fits64() {
			return nil, 0, errors.Errorf("array size overflow at %q", ctx)
		}
		count := countV.Uint64()
		elems := make([]value.Value, 0, count)
		pos := offset
		for i := uint64(0); i < count; i++ {
			ev, next, err := d.walk(buf, pos, fmt.Sprintf("%s[%d]", ctx, i), k.Element)
			if err != nil {
				return nil, 0, err
			}
			elems = append(elems, ev)
			aligned, ok := u128.AlignUp(k.Element.Alignment, u128.From(next-pos))
			if !ok || !aligned.Fits64() {
				return nil, 0, errors.Errorf("array element stride overflow at %q", ctx)
			}
			pos += aligned.Uint64()
		}
		if pk, ok := k.Element.Kind.(*resolver.PrimitiveKind); ok && pk.Type == expr.U8 && pos <= uint64(len(buf)) {
			// Capture the bitset's raw bytes so a sibling popcount(...)
			// expression (spec §8 Scenario S4) can count its set bits
			// directly instead of needing a scalar parameter value.
			d.bitsetBytes[ctx] = append([]byte(nil), buf[offset:pos]...)
		}
		return &value.Array{Elements: elems}, pos, nil

	case *resolver.EnumKind:
		tagRefs := expr.CollectFieldRefs(k.TagExpr)
		pos := offset
		var tagVal u128.U128
		var err error
		if len(tagRefs) > 0 {
			tagVal, err = expr.EvaluateInContext(k.TagExpr, ctx, d.raw)
			if err != nil {
				return nil, 0, err
			}
		} else {
			if pos >= uint64(len(buf)) {
				return nil, 0, errors.Errorf("short read at %q.tag", ctx)
			}
			tagVal = u128.From(uint64(buf[pos]))
			d.raw[ctx+".tag"] = tagVal
			pos++
		}
		if !tagVal.Fits64() {
			return nil, 0, errors.Errorf("enum tag overflow at %q", ctx)
		}
		tv := tagVal.Uint64()
		for _, v := range k.Variants {
			if v.TagValue == tv {
				inner, next, err := d.walk(buf, pos, ctx+"."+v.Name, v.Type)
				if err != nil {
					return nil, 0, err
				}
				return &value.Enum{VariantName: v.Name, TagValue: tv, VariantValue: inner}, next, nil
			}
		}
		return nil, 0, errors.Errorf("no matching enum variant for tag %d at %q", tv, ctx)

	case *resolver.UnionKind:
		if len(k.Variants) == 0 {
			return &value.Union{}, offset, nil
		}
		v := k.Variants[0]
		inner, next, err := d.walk(buf, offset, ctx+"."+v.Name, v.Type)
		if err != nil {
			return nil, 0, err
		}
		return &value.Union{VariantName: v.Name, VariantValue: inner}, next, nil

	case *resolver.SizeDiscriminatedUnionKind:
		remaining := uint64(len(buf)) - offset
		for _, v := range k.Variants {
			if v.ExpectedSize == remaining {
				inner, next, err := d.walk(buf, offset, ctx+"."+v.Name, v.Type)
				if err != nil {
					return nil, 0, err
				}
				return &value.SizeDiscriminatedUnion{VariantName: v.Name, VariantValue: inner}, next, nil
			}
		}
		return nil, 0, errors.Errorf("no matching size-discriminated variant for %d remaining bytes at %q", remaining, ctx)

	default:
		return nil, offset, nil
	}
}
