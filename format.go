package abi

import (
	"encoding/hex"
	"unicode/utf8"

	"go.chainabi.dev/abi/internal/expr"
	"go.chainabi.dev/abi/internal/resolver"
	"go.chainabi.dev/abi/internal/value"
	"go.chainabi.dev/abi/internal/wellknown"
)

// Enricher, Decision, and WellKnownRegistry are re-exported from
// internal/wellknown so callers can register enrichment hooks without
// importing the internal package.
type (
	Enricher          = wellknown.Enricher
	EnrichDecision    = wellknown.Decision
	WellKnownRegistry = wellknown.Registry
)

// NewWellKnownRegistry returns an empty registry. Use [NewPubkeyEnricher]
// or a custom [Enricher] with Register, then pass the registry to Format
// via [WithWellKnownTypes].
func NewWellKnownRegistry() *WellKnownRegistry { return wellknown.NewRegistry() }

// NewPubkeyEnricher returns an Enricher that base58-encodes the named byte
// array field of typeName's values and adds it as an "address" key — the
// example from spec §4.8 of a well-known type adding an encoded address
// string for a fixed-size public-key struct.
func NewPubkeyEnricher(typeName, fieldName string) Enricher {
	return wellknown.NewPubkeyEnricher(typeName, fieldName)
}

// FormatOption configures a Format call.
type FormatOption struct{ apply func(*formatOptions) }

type formatOptions struct {
	includeByteOffsets bool
	registry           *WellKnownRegistry
}

// WithByteOffsets turns on "_byteRange" annotations on every rendered node
// (spec §4.8).
func WithByteOffsets() FormatOption {
	return FormatOption{func(o *formatOptions) { o.includeByteOffsets = true }}
}

// WithWellKnownTypes wires a registry of enrichment hooks into Format.
func WithWellKnownTypes(r *WellKnownRegistry) FormatOption {
	return FormatOption{func(o *formatOptions) { o.registry = r }}
}

// Format renders a ReflectedValue as a JSON-like structure (spec §4.8,
// component C8): `{ typeName, kind, value, byteRange? }` at the root, with
// the same shape recursively for every nested struct/union/enum/SDU field.
func Format(rv *ReflectedValue, opts ...FormatOption) (map[string]any, error) {
	cfg := formatOptions{}
	for _, o := range opts {
		o.apply(&cfg)
	}
	f := &formatter{cfg: cfg}
	out, _ := f.node(rv.TypeInfo.Name, *rv, 0)
	return out, nil
}

type formatter struct {
	cfg formatOptions
}

// node renders rv, returning the rendered object/scalar plus the number of
// bytes it occupies (needed by the caller to advance a running offset when
// includeByteOffsets is on).
func (f *formatter) node(typeName string, rv value.ReflectedValue, offset uint64) (map[string]any, uint64) {
	size := typeSize(rv.TypeInfo.Size)
	out := map[string]any{
		"typeName": typeName,
		"kind":     kindName(rv.Value),
		"value":    f.renderValue(typeName, rv, offset),
	}
	if f.cfg.includeByteOffsets {
		out["_byteRange"] = map[string]any{"offset": offset, "size": size}
	}
	return out, size
}

func typeSize(s Size) uint64 {
	if s.IsConst() {
		return s.Const
	}
	return 0
}

func kindName(v value.Value) string {
	switch v.(type) {
	case *value.Primitive:
		return "primitive"
	case *value.Struct:
		return "struct"
	case *value.Array:
		return "array"
	case *value.Enum:
		return "enum"
	case *value.Union:
		return "union"
	case *value.SizeDiscriminatedUnion:
		return "sizeDiscriminatedUnion"
	case *value.TypeRef:
		return "typeRef"
	default:
		return "unknown"
	}
}

func (f *formatter) renderValue(typeName string, rv value.ReflectedValue, offset uint64) any {
	switch v := rv.Value.(type) {
	case *value.Primitive:
		return renderPrimitive(v.Value)

	case *value.TypeRef:
		inner := value.ReflectedValue{TypeInfo: rv.TypeInfo, Value: v.Value}
		rendered, _ := f.node(v.TargetName, inner, offset)
		return rendered

	case *value.Struct:
		if decision, ok := f.enrich(typeName, rv); ok {
			if decision.Replace != nil {
				return decision.Replace
			}
			obj := f.renderStructFields(v, structKindOf(rv.TypeInfo.Kind), offset)
			for k, extra := range decision.ExtraKeys {
				obj[k] = extra
			}
			return obj
		}
		return f.renderStructFields(v, structKindOf(rv.TypeInfo.Kind), offset)

	case *value.Array:
		if isByteArray(rv.TypeInfo.Kind) {
			return "0x" + hex.EncodeToString(rawBytes(v))
		}
		if isCharArray(rv.TypeInfo.Kind) {
			raw := rawBytes(v)
			if s, ok := decodeUTF8UntilNUL(raw); ok {
				return s
			}
			return "0x" + hex.EncodeToString(raw)
		}
		elem := elementTypeInfo(rv.TypeInfo.Kind)
		pos := offset
		out := make([]any, 0, len(v.Elements))
		for _, ev := range v.Elements {
			sub := value.ReflectedValue{TypeInfo: elem, Value: ev}
			rendered, sz := f.node(elem.Name, sub, pos)
			out = append(out, rendered)
			pos += sz
		}
		return out

	case *value.Enum:
		variantType := enumVariantType(rv.TypeInfo.Kind, v.VariantName)
		sub := value.ReflectedValue{TypeInfo: variantType, Value: v.VariantValue}
		rendered, _ := f.node(variantType.Name, sub, offset+1)
		return map[string]any{"variant": v.VariantName, "value": rendered}

	case *value.Union:
		variantType := unionVariantType(rv.TypeInfo.Kind, v.VariantName)
		sub := value.ReflectedValue{TypeInfo: variantType, Value: v.VariantValue}
		rendered, _ := f.node(variantType.Name, sub, offset)
		return map[string]any{"variant": v.VariantName, "value": rendered}

	case *value.SizeDiscriminatedUnion:
		variantType := sduVariantType(rv.TypeInfo.Kind, v.VariantName)
		sub := value.ReflectedValue{TypeInfo: variantType, Value: v.VariantValue}
		rendered, _ := f.node(variantType.Name, sub, offset)
		return map[string]any{"variant": v.VariantName, "value": rendered}

	default:
		return map[string]any{"typeName": typeName}
	}
}

func (f *formatter) renderStructFields(v *value.Struct, sk *resolver.StructKind, offset uint64) map[string]any {
	out := map[string]any{}
	pos := offset
	for i, nv := range v.Fields {
		ft := ReflectedType{Name: nv.Name}
		if sk != nil && i < len(sk.Fields) {
			field := sk.Fields[i]
			ft = ReflectedType{Name: field.Name, Kind: field.Type.Kind, Size: field.Type.Size, Alignment: field.Type.Alignment}
			if field.Offset != nil {
				pos = offset + *field.Offset
			}
		}
		sub := value.ReflectedValue{TypeInfo: ft, Value: nv.Value}
		rendered, sz := f.node(nv.Name, sub, pos)
		out[nv.Name] = rendered
		pos += sz
	}
	return out
}

func (f *formatter) enrich(typeName string, rv value.ReflectedValue) (EnrichDecision, bool) {
	if f.cfg.registry == nil {
		return EnrichDecision{}, false
	}
	return f.cfg.registry.Enrich(typeName, rv)
}

func renderPrimitive(pv value.PrimitiveValue) any {
	switch {
	case !pv.Type.Integral():
		return pv.AsFloat()
	case pv.Type == expr.Char:
		b := byte(pv.Raw)
		if b >= 0x20 && b <= 0x7e {
			return string(rune(b))
		}
		return hexByte(b)
	case pv.Type.Signed():
		return pv.AsSignedInt()
	default:
		return pv.Raw
	}
}

func hexByte(b byte) string {
	const digits = "0123456789ABCDEF"
	return "0x" + string([]byte{digits[b>>4], digits[b&0xf]})
}

func rawBytes(a *value.Array) []byte {
	out := make([]byte, 0, len(a.Elements))
	for _, el := range a.Elements {
		p, ok := el.(*value.Primitive)
		if !ok {
			return out
		}
		out = append(out, byte(p.Value.Raw))
	}
	return out
}

func decodeUTF8UntilNUL(raw []byte) (string, bool) {
	end := len(raw)
	for i, b := range raw {
		if b == 0 {
			end = i
			break
		}
	}
	trimmed := raw[:end]
	if !utf8.Valid(trimmed) {
		return "", false
	}
	return string(trimmed), true
}

func structKindOf(k ResolvedKind) *resolver.StructKind {
	sk, _ := k.(*resolver.StructKind)
	return sk
}

func isByteArray(k ResolvedKind) bool {
	ak, ok := k.(*resolver.ArrayKind)
	if !ok {
		return false
	}
	pk, ok := ak.Element.Kind.(*resolver.PrimitiveKind)
	return ok && pk.Type == expr.U8
}

func isCharArray(k ResolvedKind) bool {
	ak, ok := k.(*resolver.ArrayKind)
	if !ok {
		return false
	}
	pk, ok := ak.Element.Kind.(*resolver.PrimitiveKind)
	return ok && pk.Type == expr.Char
}

func elementTypeInfo(k ResolvedKind) ReflectedType {
	ak, ok := k.(*resolver.ArrayKind)
	if !ok {
		return ReflectedType{}
	}
	return ReflectedType{Name: ak.Element.Name, Kind: ak.Element.Kind, Size: ak.Element.Size, Alignment: ak.Element.Alignment}
}

func enumVariantType(k ResolvedKind, name string) ReflectedType {
	ek, ok := k.(*resolver.EnumKind)
	if !ok {
		return ReflectedType{Name: name}
	}
	for _, v := range ek.Variants {
		if v.Name == name {
			return ReflectedType{Name: v.Type.Name, Kind: v.Type.Kind, Size: v.Type.Size, Alignment: v.Type.Alignment}
		}
	}
	return ReflectedType{Name: name}
}

func unionVariantType(k ResolvedKind, name string) ReflectedType {
	uk, ok := k.(*resolver.UnionKind)
	if !ok {
		return ReflectedType{Name: name}
	}
	for _, v := range uk.Variants {
		if v.Name == name {
			return ReflectedType{Name: v.Type.Name, Kind: v.Type.Kind, Size: v.Type.Size, Alignment: v.Type.Alignment}
		}
	}
	return ReflectedType{Name: name}
}

func sduVariantType(k ResolvedKind, name string) ReflectedType {
	sk, ok := k.(*resolver.SizeDiscriminatedUnionKind)
	if !ok {
		return ReflectedType{Name: name}
	}
	for _, v := range sk.Variants {
		if v.Name == name {
			return ReflectedType{Name: v.Type.Name, Kind: v.Type.Kind, Size: v.Type.Size, Alignment: v.Type.Alignment}
		}
	}
	return ReflectedType{Name: name}
}
