package abi

import "go.chainabi.dev/abi/internal/schema"

// These aliases re-export the input schema document model so callers never
// need to import the internal package directly; the implementation lives
// in internal/schema because the resolver, layout IR builder, and
// reflector all consume it without needing anything else from this
// package.
type (
	TypeDef                = schema.TypeDef
	TypeKind                = schema.TypeKind
	Primitive               = schema.Primitive
	TypeRef                 = schema.TypeRef
	StructField             = schema.StructField
	Struct                  = schema.Struct
	Variant                 = schema.Variant
	Union                   = schema.Union
	EnumVariant             = schema.EnumVariant
	Enum                    = schema.Enum
	Array                   = schema.Array
	SDUVariant              = schema.SDUVariant
	SizeDiscriminatedUnion  = schema.SizeDiscriminatedUnion
	RootTypes               = schema.RootTypes
	File                    = schema.File
)
