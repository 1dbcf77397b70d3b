// Package resolver implements the type resolver (spec §4.2, component C3):
// it turns a bag of schema.TypeDef records into ResolvedType records with
// concrete sizes, alignments, field offsets, and variant information.
package resolver

import "go.chainabi.dev/abi/internal/expr"

// SizeKind distinguishes a constant footprint from one that depends on
// runtime parameters.
type SizeKind int

const (
	Const SizeKind = iota
	Variable
)

// Size is either a constant byte count or a description of what the
// footprint depends on. The outer map of a Variable size is keyed by the
// owning field or variant name that contributed a dynamic dependency; the
// inner map enumerates every referenced path that owner depends on, along
// with the primitive type expected at that path.
type Size struct {
	Kind     SizeKind
	Const    uint64
	Variable map[string]map[string]expr.Primitive
}

// IsConst reports whether s is a constant size.
func (s Size) IsConst() bool { return s.Kind == Const }

// MergeVariable combines the Variable maps of one or more child sizes under
// a single owner key, producing a new Variable Size. Constant children
// contribute no entries.
func MergeVariable(owners map[string]Size) Size {
	out := map[string]map[string]expr.Primitive{}
	for owner, sz := range owners {
		if sz.Kind == Const {
			continue
		}
		for _, refs := range sz.Variable {
			if out[owner] == nil {
				out[owner] = map[string]expr.Primitive{}
			}
			for path, prim := range refs {
				out[owner][path] = prim
			}
		}
	}
	return Size{Kind: Variable, Variable: out}
}

// ResolvedType is a TypeDef augmented with its computed size, alignment,
// and (for structs) field offsets.
type ResolvedType struct {
	Name      string
	Kind      ResolvedKind
	Size      Size
	Alignment uint64
	Comment   string
}

// ResolvedKind is the closed set of resolved type shapes, mirroring
// schema.TypeKind but carrying resolved (not raw) sub-types.
type ResolvedKind interface {
	isResolvedKind()
}

type resolvedKind struct{}

func (resolvedKind) isResolvedKind() {}

// PrimitiveKind is a scalar wire type.
type PrimitiveKind struct {
	resolvedKind
	Type expr.Primitive
}

// TypeRefKind aliases another resolved type by name.
type TypeRefKind struct {
	resolvedKind
	TargetName string
	Resolved   bool
}

// ResolvedField is one member of a resolved Struct. Offset is Some for
// every field up to and including the first variable-sized field; None
// (nil) for every field after that, since those offsets can only be
// computed at decode time.
type ResolvedField struct {
	Name   string
	Type   *ResolvedType
	Offset *uint64
}

// StructKind is a resolved struct: an ordered product of fields, optionally
// packed (alignment 1) or carrying an explicit minimum alignment.
type StructKind struct {
	resolvedKind
	Fields          []ResolvedField
	Packed          bool
	CustomAlignment *uint64
}

// ResolvedVariant is one arm of a plain Union.
type ResolvedVariant struct {
	Name string
	Type *ResolvedType
}

// UnionKind overlays all variants at the same offset. At decode time the
// first variant always wins; there is no discriminator.
type UnionKind struct {
	resolvedKind
	Variants []ResolvedVariant
}

// ResolvedEnumVariant is one arm of an Enum, keyed by its discriminant tag.
type ResolvedEnumVariant struct {
	Name     string
	TagValue uint64
	Type     *ResolvedType
}

// EnumKind is a tag (sourced from TagExpr) followed by the selected
// variant's body. A TagExpr with no FieldRef is read from one physical tag
// byte ahead of the body; a TagExpr that references a field reads that
// field's value and reserves no tag byte of its own.
type EnumKind struct {
	resolvedKind
	TagExpr         expr.Expr
	TagConstant     bool
	Variants        []ResolvedEnumVariant
}

// ArrayKind is a flat, contiguous sequence of elements.
type ArrayKind struct {
	resolvedKind
	Element         *ResolvedType
	SizeExpr        expr.Expr
	SizeConstant    bool
}

// ResolvedSDUVariant is one arm of a SizeDiscriminatedUnion.
type ResolvedSDUVariant struct {
	Name         string
	ExpectedSize uint64
	Type         *ResolvedType
}

// SizeDiscriminatedUnionKind selects its variant at decode time by matching
// the number of unconsumed bytes at the union's offset to a variant's
// ExpectedSize.
type SizeDiscriminatedUnionKind struct {
	resolvedKind
	Variants []ResolvedSDUVariant
}
