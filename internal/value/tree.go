package value

import "go.chainabi.dev/abi/internal/resolver"

// Value is the closed tagged-variant value tree described in spec §3.5.
type Value interface {
	isValue()
}

type value struct{}

func (value) isValue() {}

// Primitive wraps a decoded scalar.
type Primitive struct {
	value
	Value PrimitiveValue
}

// NamedValue is one field of a Struct value.
type NamedValue struct {
	Name  string
	Value Value
}

// Struct is an ordered set of named field values.
type Struct struct {
	value
	Fields []NamedValue
}

// Array is a sequence of element values.
type Array struct {
	value
	Elements []Value
}

// Enum carries the decoded tag and the variant it selected.
type Enum struct {
	value
	VariantName string
	TagValue    uint64
	VariantValue Value
}

// Union carries the variant a decoder chose (by declaration order, absent
// a discriminator of its own).
type Union struct {
	value
	VariantName  string
	VariantValue Value
}

// SizeDiscriminatedUnion carries the variant selected by remaining buffer
// length.
type SizeDiscriminatedUnion struct {
	value
	VariantName  string
	VariantValue Value
}

// TypeRef wraps the aliased value, preserving the alias name for
// formatting.
type TypeRef struct {
	value
	TargetName string
	Value      Value
}

// ReflectedType is the type metadata every ReflectedValue carries
// alongside its Value (spec §3.5).
type ReflectedType struct {
	Name      string
	Kind      resolver.ResolvedKind
	Size      resolver.Size
	Alignment uint64
}

// ReflectedValue pairs a decoded Value with its type metadata.
type ReflectedValue struct {
	TypeInfo ReflectedType
	Value    Value
}
