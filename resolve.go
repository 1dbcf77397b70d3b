package abi

import (
	"github.com/pkg/errors"
	"github.com/tiendc/go-deepcopy"

	"go.chainabi.dev/abi/internal/resolver"
	"go.chainabi.dev/abi/internal/schema"
)

// ResolvedType, Size, and the ResolvedKind family are re-exported from
// internal/resolver: they're produced by Resolve and consumed by
// BuildLayoutIR and Reflector, but nothing about their representation is
// specific to resolution internals.
type (
	ResolvedType               = resolver.ResolvedType
	Size                       = resolver.Size
	ResolvedKind               = resolver.ResolvedKind
	PrimitiveKind              = resolver.PrimitiveKind
	TypeRefKind                = resolver.TypeRefKind
	ResolvedField              = resolver.ResolvedField
	StructKind                 = resolver.StructKind
	ResolvedVariant            = resolver.ResolvedVariant
	UnionKind                  = resolver.UnionKind
	ResolvedEnumVariant        = resolver.ResolvedEnumVariant
	EnumKind                   = resolver.EnumKind
	ArrayKind                  = resolver.ArrayKind
	ResolvedSDUVariant         = resolver.ResolvedSDUVariant
	SizeDiscriminatedUnionKind = resolver.SizeDiscriminatedUnionKind
)

// ResolveOption configures a Resolve call.
type ResolveOption struct{ apply func(*resolveOptions) }

type resolveOptions struct {
	skipDefensiveCopy bool
}

// WithoutDefensiveCopy skips the deep copy Resolve otherwise makes of the
// caller's TypeDef slice before resolving it. Use this when the caller
// already guarantees exclusive ownership of defs and wants to avoid the
// copy's allocation cost.
func WithoutDefensiveCopy() ResolveOption {
	return ResolveOption{func(o *resolveOptions) { o.skipDefensiveCopy = true }}
}

// Resolve resolves every TypeDef in defs, returning the resolved set keyed
// by name plus the topological order they were resolved in. Resolution is
// all-or-nothing: an error means no ResolvedType was produced at all
// (spec §3.6: "resolved types are built once from an immutable set of
// TypeDefs and then read-only").
func Resolve(defs []TypeDef, opts ...ResolveOption) (map[string]*ResolvedType, []string, error) {
	cfg := resolveOptions{}
	for _, o := range opts {
		o.apply(&cfg)
	}

	working := defs
	if !cfg.skipDefensiveCopy {
		var copied []schema.TypeDef
		if err := deepcopy.Copy(&copied, &defs); err != nil {
			return nil, nil, errors.Wrap(err, "abi: copying caller-supplied type definitions")
		}
		working = copied
	}

	r := resolver.New()
	for _, d := range working {
		r.Add(d)
	}
	return r.ResolveAll()
}
