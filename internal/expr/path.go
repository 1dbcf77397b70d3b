package expr

import (
	"encoding/binary"
	"strings"

	"github.com/pkg/errors"

	"go.chainabi.dev/abi/internal/u128"
)

// CanonicalPath resolves a FieldRef's relative path (already dotted via
// JoinPath) against ctx, the canonical path of the node embedding the
// expression that references it, into an absolute path rooted at the
// top-level type. ctx's enclosing struct scope is ctx with its trailing
// field-name segment removed; each leading "parent" segment in relPath
// pops one more segment from that scope, mirroring
// internal/resolver/scope.go's "parent" escape used during resolution.
func CanonicalPath(ctx, relPath string) string {
	prefix := parentOf(ctx)
	segments := strings.Split(relPath, ".")
	for len(segments) > 0 && segments[0] == "parent" {
		prefix = parentOf(prefix)
		segments = segments[1:]
	}
	rest := strings.Join(segments, ".")
	if prefix == "" {
		return rest
	}
	return prefix + "." + rest
}

func parentOf(ctx string) string {
	i := strings.LastIndex(ctx, ".")
	if i < 0 {
		return ""
	}
	return ctx[:i]
}

// EvaluateInContext is Evaluate, but canonicalizes every FieldRef's
// relative path against ctx before looking it up in params. The parameter
// extractor and the reflection decoder both key their raw-value maps by
// canonical path, not by the relative paths an Expr's FieldRef nodes
// themselves carry.
func EvaluateInContext(e Expr, ctx string, params map[string]u128.U128) (u128.U128, error) {
	return evalNode(e, contextLeaves{ctx: ctx, params: params})
}

type contextLeaves struct {
	ctx    string
	params map[string]u128.U128
}

func (l contextLeaves) field(path []string) (u128.U128, error) {
	name := CanonicalPath(l.ctx, JoinPath(path))
	v, ok := l.params[name]
	if !ok {
		return u128.U128{}, errors.Errorf("missing parameter %q", name)
	}
	return v, nil
}

func (contextLeaves) sizeof(name string) (u128.U128, error) {
	return u128.U128{}, errors.Errorf("unexpected sizeof(%s) at runtime: should have been constant-folded", name)
}

func (contextLeaves) alignof(name string) (u128.U128, error) {
	return u128.U128{}, errors.Errorf("unexpected alignof(%s) at runtime: should have been constant-folded", name)
}

// EvaluateBitset is EvaluateInContext, but additionally understands a
// Popcount applied directly to a FieldRef naming a fixed-size byte-array
// field (spec §8 Scenario S4's "sibling_hashes: Hash[popcount(path_bitset)]"
// shape). Such a field can be wider than u128 holds, so it is never read as
// a single scalar: when bitsetBytes supplies the raw bytes captured for the
// referenced path, the set bits are counted directly instead of going
// through params.
func EvaluateBitset(e Expr, ctx string, params map[string]u128.U128, bitsetBytes map[string][]byte) (u128.U128, error) {
	if u, ok := e.(*Unary); ok && u.Op == Popcount {
		if fr, ok := u.Operand.(*FieldRef); ok {
			path := CanonicalPath(ctx, JoinPath(fr.Path))
			if raw, ok := bitsetBytes[path]; ok {
				return u128.From(uint64(popcountBytes(raw))), nil
			}
		}
	}
	switch n := e.(type) {
	case *Unary:
		v, err := EvaluateBitset(n.Operand, ctx, params, bitsetBytes)
		if err != nil {
			return u128.U128{}, err
		}
		return evalUnary(n.Op, v)
	case *Binary:
		left, err := EvaluateBitset(n.Left, ctx, params, bitsetBytes)
		if err != nil {
			return u128.U128{}, err
		}
		right, err := EvaluateBitset(n.Right, ctx, params, bitsetBytes)
		if err != nil {
			return u128.U128{}, err
		}
		return evalBinary(n.Op, left, right)
	default:
		return evalNode(e, contextLeaves{ctx: ctx, params: params})
	}
}

// popcountBytes counts set bits across raw, treating it as a sequence of
// little-endian 64-bit words (the same per-word primitive evalUnary's
// Popcount case uses for a single u128 value, extended to arbitrary
// length).
func popcountBytes(raw []byte) int {
	total := 0
	for len(raw) >= 8 {
		total += popcount64(binary.LittleEndian.Uint64(raw[:8]))
		raw = raw[8:]
	}
	var last uint64
	for i, b := range raw {
		last |= uint64(b) << (8 * uint(i))
	}
	total += popcount64(last)
	return total
}
