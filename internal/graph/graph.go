// Package graph implements the dependency graph over type names described
// in spec §4.1: a deterministic topological order via Kahn's algorithm,
// keyed by name so that ordering is stable across runs, with cycle
// detection.
//
// Dependency collection recurses through inline struct/union/enum/array/SDU
// bodies, stopping only at TypeRef boundaries — an inline composition has no
// name of its own, so it creates no edge by itself, but whatever TypeRefs it
// contains still count as dependencies of the enclosing type. Self-edges are
// dropped, tolerating recursion through nested inline structs.
package graph

import (
	"sort"

	"github.com/pkg/errors"

	"go.chainabi.dev/abi/internal/schema"
)

// ErrCircularDependency is the sentinel wrapped by CircularDependencyError.
var ErrCircularDependency = errors.New("circular dependency detected")

// CircularDependencyError reports the set of type names still blocked by a
// cycle once Kahn's algorithm has drained every free node.
type CircularDependencyError struct {
	Cycle []string
}

func (e *CircularDependencyError) Error() string {
	return errors.Wrapf(ErrCircularDependency, "%v", e.Cycle).Error()
}

func (e *CircularDependencyError) Unwrap() error { return ErrCircularDependency }

// TopologicalOrder returns a deterministic topological ordering of the
// names in defs: every type is preceded by all of its (transitive)
// dependencies. Ties are broken lexicographically by name so the result is
// stable across runs given the same input.
func TopologicalOrder(defs []schema.TypeDef) ([]string, error) {
	deps := make(map[string]map[string]struct{}, len(defs))
	for _, d := range defs {
		set := map[string]struct{}{}
		collectDeps(d.Kind, set)
		delete(set, d.Name) // Self-references don't create an edge.
		deps[d.Name] = set
	}

	// adjacency[x] = names that depend on x; inDegree[name] = len(deps[name]).
	adjacency := make(map[string][]string, len(deps))
	inDegree := make(map[string]int, len(deps))
	for name := range deps {
		inDegree[name] = 0
	}
	for name, set := range deps {
		for dep := range set {
			adjacency[dep] = append(adjacency[dep], name)
			inDegree[name]++
		}
	}
	for dep := range adjacency {
		sort.Strings(adjacency[dep])
	}

	var queue []string
	for name, degree := range inDegree {
		if degree == 0 {
			queue = append(queue, name)
		}
	}
	sort.Strings(queue)

	order := make([]string, 0, len(deps))
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		order = append(order, name)

		var newlyFree []string
		for _, child := range adjacency[name] {
			inDegree[child]--
			if inDegree[child] == 0 {
				newlyFree = append(newlyFree, child)
			}
		}
		sort.Strings(newlyFree)
		queue = mergeSorted(queue, newlyFree)
	}

	if len(order) < len(deps) {
		var cycle []string
		for name, degree := range inDegree {
			if degree > 0 {
				cycle = append(cycle, name)
			}
		}
		sort.Strings(cycle)
		return nil, &CircularDependencyError{Cycle: cycle}
	}

	return order, nil
}

// mergeSorted appends the already-sorted newlyFree names to the tail of
// queue. The queue is FIFO: each batch of newly freed names enters in
// lexicographic order, but the queue as a whole is not re-sorted.
func mergeSorted(queue, newlyFree []string) []string {
	return append(queue, newlyFree...)
}

func collectDeps(kind schema.TypeKind, deps map[string]struct{}) {
	switch k := kind.(type) {
	case *schema.Primitive:
		// No dependencies.
	case *schema.TypeRef:
		deps[k.Name] = struct{}{}
	case *schema.Struct:
		for _, f := range k.Fields {
			collectDeps(f.Type, deps)
		}
	case *schema.Union:
		for _, v := range k.Variants {
			collectDeps(v.Type, deps)
		}
	case *schema.Enum:
		for _, v := range k.Variants {
			collectDeps(v.Type, deps)
		}
	case *schema.Array:
		collectDeps(k.Element, deps)
	case *schema.SizeDiscriminatedUnion:
		for _, v := range k.Variants {
			collectDeps(v.Type, deps)
		}
	}
}
