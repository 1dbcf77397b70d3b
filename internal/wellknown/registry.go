// Package wellknown implements the pluggable enrichment registry
// described in spec §4.8, component C8 support: before a struct value is
// formatted, a registered Enricher may add extra keys to its rendered
// object or replace it outright with a higher-level representation.
package wellknown

import "go.chainabi.dev/abi/internal/value"

// Decision is what an Enricher wants done with a struct node. Setting
// Replace takes precedence over ExtraKeys.
type Decision struct {
	ExtraKeys map[string]any
	Replace   any
}

// Enricher inspects a struct-typed reflected value and optionally returns
// a Decision. ok is false if the enricher has nothing to say about this
// value.
type Enricher func(typeName string, rv value.ReflectedValue) (Decision, bool)

// Registry holds Enrichers in registration order; the first to report
// ok=true wins.
type Registry struct {
	enrichers []Enricher
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds e to the registry.
func (r *Registry) Register(e Enricher) {
	r.enrichers = append(r.enrichers, e)
}

// Enrich runs every registered Enricher in order, returning the first
// Decision offered.
func (r *Registry) Enrich(typeName string, rv value.ReflectedValue) (Decision, bool) {
	for _, e := range r.enrichers {
		if d, ok := e(typeName, rv); ok {
			return d, true
		}
	}
	return Decision{}, false
}
