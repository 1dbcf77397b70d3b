// Package schema defines the input type-definition documents the compiler
// consumes: a closed set of TypeKind variants over a flat namespace of
// dotted, package-qualified type names. See spec §3.2 and §6.1.
package schema

import "go.chainabi.dev/abi/internal/expr"

// TypeDef is a single named type definition.
type TypeDef struct {
	Name    string
	Kind    TypeKind
	Comment string
}

// TypeKind is the closed set of ways a type can be defined.
type TypeKind interface {
	isTypeKind()
}

type typeKind struct{}

func (typeKind) isTypeKind() {}

// Primitive is a scalar wire type.
type Primitive struct {
	typeKind
	Type expr.Primitive
}

// TypeRef aliases another TypeDef by name.
type TypeRef struct {
	typeKind
	Name string
}

// StructField is one member of a Struct.
type StructField struct {
	Name string
	Type TypeKind
}

// Struct is an ordered product of fields.
type Struct struct {
	typeKind
	Packed   bool
	Aligned  *uint64
	Fields   []StructField
}

// Variant is one arm of a Union, Enum, or SizeDiscriminatedUnion.
type Variant struct {
	Name string
	Type TypeKind
}

// Union overlays all variants at the same offset.
type Union struct {
	typeKind
	Variants []Variant
}

// EnumVariant is one arm of an Enum, carrying its own discriminant tag.
type EnumVariant struct {
	Name     string
	TagValue uint64
	Type     TypeKind
}

// Enum is a tag, sourced from tag_expr, followed by the selected variant's
// body laid out inline. A tag_expr with no field reference occupies one
// physical tag byte ahead of the body; a tag_expr that references a field
// reads that field and adds no tag byte of its own.
type Enum struct {
	typeKind
	TagExpr  expr.Expr
	Variants []EnumVariant
}

// Array is a flat, contiguous sequence of elements. If Size is constant the
// array is fixed-length; otherwise it is a flexible tail.
type Array struct {
	typeKind
	Size    expr.Expr
	Element TypeKind
}

// SDUVariant is one arm of a SizeDiscriminatedUnion.
type SDUVariant struct {
	Name         string
	ExpectedSize uint64
	Type         TypeKind
}

// SizeDiscriminatedUnion selects its variant at decode time by matching the
// number of unconsumed bytes at the union's offset to a variant's
// ExpectedSize.
type SizeDiscriminatedUnion struct {
	typeKind
	Variants []SDUVariant
}

// RootTypes wires up the reflection helpers described in §4.7 and §6.1.
type RootTypes struct {
	InstructionRoot *string
	AccountRoot     *string
	Errors          *string
	Events          *string
}

// File is the full input document: every TypeDef plus optional root-type
// metadata.
type File struct {
	Types []TypeDef
	Roots RootTypes
}
