package params_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.chainabi.dev/abi/internal/expr"
	"go.chainabi.dev/abi/internal/layoutir"
	"go.chainabi.dev/abi/internal/params"
	"go.chainabi.dev/abi/internal/resolver"
	"go.chainabi.dev/abi/internal/schema"
	"go.chainabi.dev/abi/internal/u128"
)

func prim(p expr.Primitive) schema.TypeKind { return &schema.Primitive{Type: p} }

func resolveAll(t *testing.T, defs []schema.TypeDef) (map[string]*resolver.ResolvedType, []string) {
	t.Helper()
	r := resolver.New()
	for _, d := range defs {
		r.Add(d)
	}
	resolved, order, err := r.ResolveAll()
	require.NoError(t, err)
	return resolved, order
}

// TestExtractFlexibleTailMatchesScenarioS2 pins spec §8 Scenario S2: the
// extracted parameter map for { len: u32, data: u8[len] } over
// `02 00 00 00 AA BB` is exactly { "DynStruct.len": 2 }.
func TestExtractFlexibleTailMatchesScenarioS2(t *testing.T) {
	t.Parallel()

	defs := []schema.TypeDef{
		{Name: "DynStruct", Kind: &schema.Struct{Fields: []schema.StructField{
			{Name: "len", Type: prim(expr.U32)},
			{Name: "data", Type: &schema.Array{Size: &expr.FieldRef{Path: []string{"len"}}, Element: prim(expr.U8)}},
		}}},
	}
	resolved, order := resolveAll(t, defs)
	ir, err := layoutir.Build(resolved, order)
	require.NoError(t, err)

	buf := []byte{0x02, 0x00, 0x00, 0x00, 0xAA, 0xBB}
	byName := ir.ByName()
	pm, err := params.Extract(buf, resolved["DynStruct"], resolved, byName["DynStruct"])
	require.NoError(t, err)

	require.Len(t, pm, 1)
	assert.Equal(t, u128.From(2), pm["DynStruct.len"])
}

// TestExtractExternallyTaggedEnumMatchesScenarioS3 pins spec §8 Scenario
// S3: an enum whose tag_expr reads a sibling struct field extracts and
// dispatches on that field's own value, reserving no separate tag byte.
func TestExtractExternallyTaggedEnumMatchesScenarioS3(t *testing.T) {
	t.Parallel()

	defs := []schema.TypeDef{
		{Name: "Message", Kind: &schema.Struct{Fields: []schema.StructField{
			{Name: "msg_type", Type: prim(expr.U8)},
			{Name: "payload", Type: &schema.Enum{
				TagExpr: &expr.FieldRef{Path: []string{"msg_type"}},
				Variants: []schema.EnumVariant{
					{Name: "Ping", TagValue: 1, Type: prim(expr.U32)},
					{Name: "Pong", TagValue: 2, Type: prim(expr.U64)},
				},
			}},
		}}},
	}
	resolved, order := resolveAll(t, defs)
	ir, err := layoutir.Build(resolved, order)
	require.NoError(t, err)

	buf := []byte{0x01, 0xAA, 0xBB, 0xCC, 0xDD}
	byName := ir.ByName()
	pm, err := params.Extract(buf, resolved["Message"], resolved, byName["Message"])
	require.NoError(t, err)
	assert.Equal(t, u128.From(1), pm["Message.msg_type"])
}

func TestExtractShortReadOnPrefixField(t *testing.T) {
	t.Parallel()

	defs := []schema.TypeDef{
		{Name: "DynStruct", Kind: &schema.Struct{Fields: []schema.StructField{
			{Name: "len", Type: prim(expr.U32)},
			{Name: "data", Type: &schema.Array{Size: &expr.FieldRef{Path: []string{"len"}}, Element: prim(expr.U8)}},
		}}},
	}
	resolved, order := resolveAll(t, defs)
	ir, err := layoutir.Build(resolved, order)
	require.NoError(t, err)

	buf := []byte{0x02, 0x00} // too short even for the u32 len prefix
	byName := ir.ByName()
	_, err = params.Extract(buf, resolved["DynStruct"], resolved, byName["DynStruct"])
	require.Error(t, err)
	var short *params.ShortReadError
	require.ErrorAs(t, err, &short)
}

// TestExtractSDUComputesBufferSize pins spec §8 Scenario S5's discriminant:
// the "buffer_size" derived parameter is the number of unconsumed bytes at
// the SDU's offset.
func TestExtractSDUComputesBufferSize(t *testing.T) {
	t.Parallel()

	defs := []schema.TypeDef{
		{Name: "Proof", Kind: &schema.SizeDiscriminatedUnion{Variants: []schema.SDUVariant{
			{Name: "small", ExpectedSize: 4, Type: prim(expr.U32)},
			{Name: "large", ExpectedSize: 8, Type: prim(expr.U64)},
		}}},
	}
	resolved, order := resolveAll(t, defs)
	ir, err := layoutir.Build(resolved, order)
	require.NoError(t, err)

	buf := make([]byte, 8)
	byName := ir.ByName()
	pm, err := params.Extract(buf, resolved["Proof"], resolved, byName["Proof"])
	require.NoError(t, err)
	assert.Equal(t, u128.From(8), pm["Proof.buffer_size"])
}

func TestExtractEnumNoMatchingTagErrors(t *testing.T) {
	t.Parallel()

	// The enum must be declared inline as "payload"'s own TypeKind: a
	// separately-declared top-level TypeDef has no enclosing scope to read
	// the sibling "msg_type" field from (see resolver_test.go).
	defs := []schema.TypeDef{
		{Name: "Message", Kind: &schema.Struct{Fields: []schema.StructField{
			{Name: "msg_type", Type: prim(expr.U8)},
			{Name: "payload", Type: &schema.Enum{
				TagExpr: &expr.FieldRef{Path: []string{"msg_type"}},
				Variants: []schema.EnumVariant{
					{Name: "Ping", TagValue: 1, Type: prim(expr.U32)},
				},
			}},
		}}},
	}
	resolved, order := resolveAll(t, defs)
	ir, err := layoutir.Build(resolved, order)
	require.NoError(t, err)

	buf := []byte{0x03, 0xAA, 0xBB, 0xCC, 0xDD} // msg_type 3 matches no variant
	byName := ir.ByName()
	_, err = params.Extract(buf, resolved["Message"], resolved, byName["Message"])
	require.Error(t, err)
	var nomatch *params.NoMatchingCaseError
	require.ErrorAs(t, err, &nomatch)
}
