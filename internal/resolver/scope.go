package resolver

import "go.chainabi.dev/abi/internal/expr"

// scope resolves a FieldRef path against the struct fields visible at some
// point during resolution. Entering a struct field pushes a child scope;
// a leading "parent" path segment pops back out to the struct that
// contains the current context — this is how an Enum's tag_expr reaches a
// discriminator field declared as a sibling of the field holding the enum,
// rather than inside the enum body itself.
type scope struct {
	parent   *scope
	fields   map[string]*ResolvedField
	resolved map[string]*ResolvedType
}

func newScope(parent *scope, resolved map[string]*ResolvedType, fields []ResolvedField) *scope {
	s := &scope{parent: parent, resolved: resolved, fields: map[string]*ResolvedField{}}
	for i := range fields {
		s.fields[fields[i].Name] = &fields[i]
	}
	return s
}

// resolvePath returns the primitive type at path, or false if path does not
// name a visible field.
func (s *scope) resolvePath(path []string) (expr.Primitive, bool) {
	if s == nil || len(path) == 0 {
		return 0, false
	}
	if path[0] == "parent" {
		return s.parent.resolvePath(path[1:])
	}

	f, ok := s.fields[path[0]]
	if !ok {
		return 0, false
	}
	if len(path) == 1 {
		if p, ok := primitiveOf(f.Type, s.resolved); ok {
			return p, true
		}
		if isFixedByteArray(f.Type, s.resolved) {
			// A fixed-size byte array isn't a scalar, but it's a valid
			// popcount operand (spec §8 Scenario S4's bitset fields); report
			// its element type so callers don't reject the reference.
			return expr.U8, true
		}
		return 0, false
	}

	sub := s.childScope(f.Type)
	if sub == nil {
		return 0, false
	}
	return sub.resolvePath(path[1:])
}

// isFixedByteArray reports whether t (following TypeRef aliases) is a
// constant-size array of u8 elements — the only non-scalar FieldRef target
// this system resolves, since popcount reads its raw bytes directly rather
// than a single scalar value.
func isFixedByteArray(t *ResolvedType, resolved map[string]*ResolvedType) bool {
	t = underlying(t, resolved)
	if t == nil || !t.Size.IsConst() {
		return false
	}
	ak, ok := t.Kind.(*ArrayKind)
	if !ok {
		return false
	}
	pk, ok := ak.Element.Kind.(*PrimitiveKind)
	return ok && pk.Type == expr.U8
}

// childScope builds the scope visible inside t, if t is (or aliases) a
// struct; otherwise nil.
func (s *scope) childScope(t *ResolvedType) *scope {
	t = underlying(t, s.resolved)
	if t == nil {
		return nil
	}
	st, ok := t.Kind.(*StructKind)
	if !ok {
		return nil
	}
	return newScope(s, s.resolved, st.Fields)
}

// primitiveOf returns the primitive type of t, following TypeRef aliases
// through resolved.
func primitiveOf(t *ResolvedType, resolved map[string]*ResolvedType) (expr.Primitive, bool) {
	t = underlying(t, resolved)
	if t == nil {
		return 0, false
	}
	p, ok := t.Kind.(*PrimitiveKind)
	if !ok {
		return 0, false
	}
	return p.Type, true
}

// underlying follows a chain of TypeRefKind wrappers to the concrete
// resolved type. If resolved is nil, t is returned as is without following
// any TypeRef.
func underlying(t *ResolvedType, resolved map[string]*ResolvedType) *ResolvedType {
	for t != nil {
		ref, ok := t.Kind.(*TypeRefKind)
		if !ok {
			return t
		}
		if resolved == nil {
			return t
		}
		next, ok := resolved[ref.TargetName]
		if !ok {
			return nil
		}
		t = next
	}
	return nil
}
