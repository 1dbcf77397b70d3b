package resolver

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/exp/constraints"

	"go.chainabi.dev/abi/internal/expr"
	"go.chainabi.dev/abi/internal/graph"
	"go.chainabi.dev/abi/internal/schema"
	"go.chainabi.dev/abi/internal/u128"
)

// Resolver accumulates TypeDefs and resolves them all at once. Resolution
// is all-or-nothing: ResolveAll either returns a complete set of
// ResolvedTypes or an error, never a partial set.
type Resolver struct {
	defs []schema.TypeDef
}

// New creates an empty Resolver.
func New() *Resolver {
	return &Resolver{}
}

// Add registers a TypeDef to be resolved by the next call to ResolveAll.
func (r *Resolver) Add(def schema.TypeDef) {
	r.defs = append(r.defs, def)
}

// ResolveAll resolves every added TypeDef, returning the resolved set keyed
// by name plus the topological order they were resolved in.
func (r *Resolver) ResolveAll() (map[string]*ResolvedType, []string, error) {
	order, err := graph.TopologicalOrder(r.defs)
	if err != nil {
		return nil, nil, err
	}

	byName := make(map[string]schema.TypeDef, len(r.defs))
	for _, d := range r.defs {
		byName[d.Name] = d
	}

	resolved := make(map[string]*ResolvedType, len(order))
	for _, name := range order {
		def := byName[name]
		rt, err := resolveKind(name, def.Kind, resolved, nil)
		if err != nil {
			return nil, nil, err
		}
		rt.Name = name
		rt.Comment = def.Comment
		resolved[name] = rt
	}
	return resolved, order, nil
}

type constCtx struct{ resolved map[string]*ResolvedType }

func (c constCtx) Lookup(name string) (expr.TypeFacts, bool) {
	rt, ok := c.resolved[name]
	if !ok {
		return expr.TypeFacts{}, false
	}
	return expr.TypeFacts{
		Alignment:   rt.Alignment,
		ConstSize:   rt.Size.Const,
		IsConstSize: rt.Size.IsConst(),
	}, true
}

func resolveKind(ctx string, k schema.TypeKind, resolved map[string]*ResolvedType, sc *scope) (*ResolvedType, error) {
	switch t := k.(type) {
	case *schema.Primitive:
		w := t.Type.Width()
		return &ResolvedType{
			Kind:      &PrimitiveKind{Type: t.Type},
			Size:      Size{Kind: Const, Const: w},
			Alignment: w,
		}, nil

	case *schema.TypeRef:
		target, ok := resolved[t.Name]
		if !ok {
			return nil, &UnknownTypeError{TypeName: t.Name, Context: ctx}
		}
		return &ResolvedType{
			Kind:      &TypeRefKind{TargetName: t.Name, Resolved: true},
			Size:      target.Size,
			Alignment: target.Alignment,
		}, nil

	case *schema.Array:
		return resolveArray(ctx, t, resolved, sc)
	case *schema.Struct:
		return resolveStruct(ctx, t, resolved, sc)
	case *schema.Union:
		return resolveUnion(ctx, t, resolved, sc)
	case *schema.Enum:
		return resolveEnum(ctx, t, resolved, sc)
	case *schema.SizeDiscriminatedUnion:
		return resolveSDU(ctx, t, resolved, sc)
	default:
		return nil, errors.Errorf("unknown schema.TypeKind %T", k)
	}
}

func resolveArray(ctx string, t *schema.Array, resolved map[string]*ResolvedType, sc *scope) (*ResolvedType, error) {
	elem, err := resolveKind(ctx+".element", t.Element, resolved, sc)
	if err != nil {
		return nil, err
	}

	cctx := constCtx{resolved}
	if expr.IsConstant(t.Size, cctx) && elem.Size.IsConst() {
		count, err := expr.EvaluateConst(t.Size, cctx)
		if err != nil {
			return nil, errors.Wrapf(err, "resolving array size for %q", ctx)
		}
		if !count.Fits64() {
			return nil, &OverflowError{TypeName: ctx}
		}
		alignedElem, ok := u128.AlignUp(elem.Alignment, u128.From(elem.Size.Const))
		if !ok {
			return nil, &OverflowError{TypeName: ctx}
		}
		total, ok := u128.MulChecked(count, alignedElem)
		if !ok || !total.Fits64() {
			return nil, &OverflowError{TypeName: ctx}
		}
		return &ResolvedType{
			Kind:      &ArrayKind{Element: elem, SizeExpr: t.Size, SizeConstant: true},
			Size:      Size{Kind: Const, Const: total.Uint64()},
			Alignment: elem.Alignment,
		}, nil
	}

	refs := map[string]expr.Primitive{}
	for _, p := range expr.CollectFieldRefs(t.Size) {
		prim, ok := sc.resolvePath(strings.Split(p, "."))
		if !ok {
			return nil, &ForbiddenFieldRefError{TypeName: ctx, Path: p}
		}
		refs[p] = prim
	}
	return &ResolvedType{
		Kind: &ArrayKind{Element: elem, SizeExpr: t.Size, SizeConstant: false},
		Size: Size{
			Kind:     Variable,
			Variable: map[string]map[string]expr.Primitive{"length": refs},
		},
		Alignment: elem.Alignment,
	}, nil
}

func resolveStruct(ctx string, t *schema.Struct, resolved map[string]*ResolvedType, sc *scope) (*ResolvedType, error) {
	fields := make([]ResolvedField, 0, len(t.Fields))
	myScope := newScope(sc, resolved, nil)

	var running uint64
	variableSeen := false
	sizeParts := map[string]Size{}
	maxAlign := uint64(1)

	for _, f := range t.Fields {
		child, err := resolveKind(ctx+"."+f.Name, f.Type, resolved, myScope)
		if err != nil {
			return nil, err
		}
		maxAlign = maxOf(maxAlign, child.Alignment)

		var offset *uint64
		if !variableSeen {
			if !t.Packed && child.Size.IsConst() {
				aligned, ok := u128.AlignUp(child.Alignment, u128.From(running))
				if !ok || !aligned.Fits64() {
					return nil, &OverflowError{TypeName: ctx}
				}
				running = aligned.Uint64()
			}
			o := running
			offset = &o
			if child.Size.IsConst() {
				sum, ok := u128.AddChecked(u128.From(running), u128.From(child.Size.Const))
				if !ok || !sum.Fits64() {
					return nil, &OverflowError{TypeName: ctx}
				}
				running = sum.Uint64()
			} else {
				variableSeen = true
			}
		}

		fields = append(fields, ResolvedField{Name: f.Name, Type: child, Offset: offset})
		myScope.fields[f.Name] = &fields[len(fields)-1]

		if !child.Size.IsConst() {
			sizeParts[f.Name] = child.Size
		}
	}

	alignment := uint64(1)
	if !t.Packed {
		alignment = maxAlign
	}
	if t.Aligned != nil {
		alignment = maxOf(alignment, *t.Aligned)
	}

	var size Size
	if !variableSeen {
		var final uint64
		if t.Packed {
			final = running
		} else {
			aligned, ok := u128.AlignUp(alignment, u128.From(running))
			if !ok || !aligned.Fits64() {
				return nil, &OverflowError{TypeName: ctx}
			}
			final = aligned.Uint64()
		}
		size = Size{Kind: Const, Const: final}
	} else {
		size = MergeVariable(sizeParts)
	}

	return &ResolvedType{
		Kind: &StructKind{
			Fields:          fields,
			Packed:          t.Packed,
			CustomAlignment: t.Aligned,
		},
		Size:      size,
		Alignment: alignment,
	}, nil
}

func resolveUnion(ctx string, t *schema.Union, resolved map[string]*ResolvedType, sc *scope) (*ResolvedType, error) {
	variants := make([]ResolvedVariant, 0, len(t.Variants))
	sizeParts := map[string]Size{}
	allConst := true
	var maxConst, maxAlign uint64 = 0, 1

	for _, v := range t.Variants {
		child, err := resolveKind(ctx+"."+v.Name, v.Type, resolved, sc)
		if err != nil {
			return nil, err
		}
		maxAlign = maxOf(maxAlign, child.Alignment)
		variants = append(variants, ResolvedVariant{Name: v.Name, Type: child})
		sizeParts[v.Name] = child.Size
		if child.Size.IsConst() {
			maxConst = maxOf(maxConst, child.Size.Const)
		} else {
			allConst = false
		}
	}

	var size Size
	if allConst {
		size = Size{Kind: Const, Const: maxConst}
	} else {
		size = MergeVariable(sizeParts)
	}

	return &ResolvedType{
		Kind:      &UnionKind{Variants: variants},
		Size:      size,
		Alignment: maxAlign,
	}, nil
}

func resolveEnum(ctx string, t *schema.Enum, resolved map[string]*ResolvedType, sc *scope) (*ResolvedType, error) {
	cctx := constCtx{resolved}
	tagConstant := expr.IsConstant(t.TagExpr, cctx)

	tagRefs := expr.CollectFieldRefs(t.TagExpr)
	tagPrims := map[string]expr.Primitive{}
	for _, p := range tagRefs {
		prim, ok := sc.resolvePath(strings.Split(p, "."))
		if !ok {
			return nil, &ForbiddenFieldRefError{TypeName: ctx, Path: p}
		}
		tagPrims[p] = prim
	}
	// An externally-tagged enum (tag_expr reaches into a sibling field) does
	// not reserve its own physical tag byte: the referenced field already
	// occupies that byte elsewhere in the enclosing struct. Only a
	// self-contained tag_expr (no FieldRef) causes the enum to reserve one.
	extraTagByte := uint64(1)
	if len(tagRefs) > 0 {
		extraTagByte = 0
	}

	variants := make([]ResolvedEnumVariant, 0, len(t.Variants))
	sizeParts := map[string]Size{}
	allConst := true
	first := true
	var common, maxAlign uint64 = 0, 1

	for _, v := range t.Variants {
		child, err := resolveKind(ctx+"."+v.Name, v.Type, resolved, sc)
		if err != nil {
			return nil, err
		}
		maxAlign = maxOf(maxAlign, child.Alignment)
		variants = append(variants, ResolvedEnumVariant{Name: v.Name, TagValue: v.TagValue, Type: child})
		sizeParts[v.Name] = child.Size

		if child.Size.IsConst() {
			if first {
				common, first = child.Size.Const, false
			} else if child.Size.Const != common {
				allConst = false
			}
		} else {
			allConst = false
		}
	}

	var size Size
	if allConst {
		total, ok := u128.AddChecked(u128.From(common), u128.From(extraTagByte))
		if !ok || !total.Fits64() {
			return nil, &OverflowError{TypeName: ctx}
		}
		size = Size{Kind: Const, Const: total.Uint64()}
	} else {
		size = MergeVariable(sizeParts)
		if len(tagPrims) > 0 {
			if size.Variable == nil {
				size.Variable = map[string]map[string]expr.Primitive{}
			}
			size.Variable["$tag"] = tagPrims
		}
	}

	return &ResolvedType{
		Kind: &EnumKind{
			TagExpr:     t.TagExpr,
			TagConstant: tagConstant,
			Variants:    variants,
		},
		Size:      size,
		Alignment: maxAlign,
	}, nil
}

func resolveSDU(ctx string, t *schema.SizeDiscriminatedUnion, resolved map[string]*ResolvedType, sc *scope) (*ResolvedType, error) {
	variants := make([]ResolvedSDUVariant, 0, len(t.Variants))
	seenSize := map[uint64]string{}
	maxAlign := uint64(1)

	for _, v := range t.Variants {
		if prior, ok := seenSize[v.ExpectedSize]; ok {
			names := []string{prior, v.Name}
			sort.Strings(names)
			return nil, &DuplicateSDUSizeError{TypeName: ctx, ExpectedSize: v.ExpectedSize, Variants: names}
		}
		seenSize[v.ExpectedSize] = v.Name

		child, err := resolveKind(ctx+"."+v.Name, v.Type, resolved, sc)
		if err != nil {
			return nil, err
		}
		maxAlign = maxOf(maxAlign, child.Alignment)
		variants = append(variants, ResolvedSDUVariant{Name: v.Name, ExpectedSize: v.ExpectedSize, Type: child})
	}

	return &ResolvedType{
		Kind:      &SizeDiscriminatedUnionKind{Variants: variants},
		Size:      Size{Kind: Variable, Variable: map[string]map[string]expr.Primitive{}},
		Alignment: maxAlign,
	}, nil
}

func maxOf[T constraints.Integer](a, b T) T {
	if a > b {
		return a
	}
	return b
}
