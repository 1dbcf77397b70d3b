// Package abi compiles a schema of on-wire types into a deterministic
// layout IR and reflects encoded buffers back into typed values against
// it, without any code generation step.
//
// The pipeline has three stages:
//
//   - [Resolve] turns a set of type definitions into [ResolvedType]s with
//     concrete sizes, alignments, and field offsets.
//   - [BuildLayoutIR] compiles the resolved set into a [LayoutIr]: a tree
//     of footprint expressions that can be evaluated against a decode's
//     extracted parameters, independent of any particular buffer.
//   - [NewReflector] builds a [Reflector] from a resolved set and its IR,
//     which can then decode buffers into [ReflectedValue] trees and
//     format them as JSON-like structures via [Format].
//
// # Support status
//
// Struct, Union, Enum, Array, and SizeDiscriminatedUnion types are all
// supported, including flexible-length tails and externally-tagged enums
// (spec'd discriminator sourced from a sibling field rather than an inline
// tag byte). Recursive types are not supported: a TypeRef cycle between
// distinct types is rejected by the layout graph as a circular dependency,
// and a type that refers to itself through a TypeRef fails resolution with
// an unknown-type error.
package abi
