package abi_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.chainabi.dev/abi"
	"go.chainabi.dev/abi/internal/expr"
)

func prim(p expr.Primitive) abi.TypeKind { return &abi.Primitive{Type: p} }

// TestScenarioS1SimpleStruct pins spec §8 Scenario S1: a fixed-size struct
// round-trips through Resolve, BuildLayoutIR, and Reflect with no derived
// parameters at all.
func TestScenarioS1SimpleStruct(t *testing.T) {
	t.Parallel()

	defs := []abi.TypeDef{
		{Name: "Point", Kind: &abi.Struct{Fields: []abi.StructField{
			{Name: "x", Type: prim(expr.I32)},
			{Name: "y", Type: prim(expr.I32)},
		}}},
	}
	resolved, order, err := abi.Resolve(defs)
	require.NoError(t, err)

	ir, err := abi.BuildLayoutIR(resolved, order)
	require.NoError(t, err)

	r := abi.NewReflector(abi.File{Types: defs}, resolved, ir)
	buf := []byte{0x01, 0x00, 0x00, 0x00, 0x02, 0x00, 0x00, 0x00}
	rv, err := r.Reflect(buf, "Point")
	require.NoError(t, err)

	out, err := abi.Format(rv)
	require.NoError(t, err)
	assert.Equal(t, "Point", out["typeName"])
	assert.Equal(t, "struct", out["kind"])
	fields := out["value"].(map[string]any)
	assert.Equal(t, int64(1), fields["x"].(map[string]any)["value"])
	assert.Equal(t, int64(2), fields["y"].(map[string]any)["value"])
}

// TestScenarioS2FlexibleTail pins spec §8 Scenario S2 end to end: a
// struct { len: u32, data: u8[len] } decodes its flexible tail using the
// length prefix it just read, rather than any static footprint.
func TestScenarioS2FlexibleTail(t *testing.T) {
	t.Parallel()

	defs := []abi.TypeDef{
		{Name: "DynStruct", Kind: &abi.Struct{Fields: []abi.StructField{
			{Name: "len", Type: prim(expr.U32)},
			{Name: "data", Type: &abi.Array{Size: &expr.FieldRef{Path: []string{"len"}}, Element: prim(expr.U8)}},
		}}},
	}
	resolved, order, err := abi.Resolve(defs)
	require.NoError(t, err)

	ir, err := abi.BuildLayoutIR(resolved, order)
	require.NoError(t, err)

	r := abi.NewReflector(abi.File{Types: defs}, resolved, ir)
	buf := []byte{0x02, 0x00, 0x00, 0x00, 0xAA, 0xBB}
	rv, err := r.Reflect(buf, "DynStruct")
	require.NoError(t, err)

	out, err := abi.Format(rv)
	require.NoError(t, err)
	fields := out["value"].(map[string]any)
	assert.Equal(t, "0xaabb", fields["data"].(map[string]any)["value"])

	// A buffer too short for the declared length must fail validation
	// rather than silently truncate.
	short := []byte{0x02, 0x00, 0x00, 0x00, 0xAA}
	_, err = r.Reflect(short, "DynStruct")
	require.Error(t, err)
}

// TestScenarioS3ExternallyTaggedEnum pins spec §8 Scenario S3: the enum's
// tag is read from the sibling "msg_type" field rather than a dedicated
// tag byte, and an unrecognized tag value fails the decode.
func TestScenarioS3ExternallyTaggedEnum(t *testing.T) {
	t.Parallel()

	defs := []abi.TypeDef{
		{Name: "Message", Kind: &abi.Struct{Fields: []abi.StructField{
			{Name: "msg_type", Type: prim(expr.U8)},
			{Name: "payload", Type: &abi.Enum{
				TagExpr: &expr.FieldRef{Path: []string{"msg_type"}},
				Variants: []abi.EnumVariant{
					{Name: "Ping", TagValue: 1, Type: prim(expr.U32)},
					{Name: "Pong", TagValue: 2, Type: prim(expr.U64)},
				},
			}},
		}}},
	}
	resolved, order, err := abi.Resolve(defs)
	require.NoError(t, err)

	ir, err := abi.BuildLayoutIR(resolved, order)
	require.NoError(t, err)

	r := abi.NewReflector(abi.File{Types: defs}, resolved, ir)

	buf := []byte{0x01, 0x07, 0x00, 0x00, 0x00}
	rv, err := r.Reflect(buf, "Message")
	require.NoError(t, err)
	out, err := abi.Format(rv)
	require.NoError(t, err)
	payloadNode := out["value"].(map[string]any)["payload"].(map[string]any)
	payload := payloadNode["value"].(map[string]any)
	assert.Equal(t, "Ping", payload["variant"])

	bad := []byte{0x09, 0x07, 0x00, 0x00, 0x00}
	_, err = r.Reflect(bad, "Message")
	require.Error(t, err)
	var parseErr *abi.ParseError
	require.ErrorAs(t, err, &parseErr)
}

// TestScenarioS4PopcountSizedArray pins spec §8 Scenario S4: a
// sibling_hashes array sized by popcount(path_bitset) over a genuine
// 32-byte path_bitset field, not a narrower scalar stand-in.
func TestScenarioS4PopcountSizedArray(t *testing.T) {
	t.Parallel()

	hashType := "Hash"
	defs := []abi.TypeDef{
		{Name: hashType, Kind: &abi.Array{Size: &expr.Literal{Value: 32, Width: expr.U32}, Element: prim(expr.U8)}},
		{Name: "Proof", Kind: &abi.Struct{Fields: []abi.StructField{
			{Name: "path_bitset", Type: &abi.Array{Size: &expr.Literal{Value: 32, Width: expr.U32}, Element: prim(expr.U8)}},
			{Name: "sibling_hashes", Type: &abi.Array{
				Size:    &expr.Unary{Op: expr.Popcount, Operand: &expr.FieldRef{Path: []string{"path_bitset"}}},
				Element: &abi.TypeRef{Name: hashType},
			}},
		}}},
	}
	resolved, order, err := abi.Resolve(defs)
	require.NoError(t, err)

	ir, err := abi.BuildLayoutIR(resolved, order)
	require.NoError(t, err)

	r := abi.NewReflector(abi.File{Types: defs}, resolved, ir)

	// path_bitset: 32 bytes with 3 set bits (0x01, 0x02, 0x04), the rest
	// zero; sibling_hashes must then hold exactly 3 32-byte hashes.
	pathBitset := make([]byte, 32)
	pathBitset[0] = 0x01
	pathBitset[1] = 0x02
	pathBitset[2] = 0x04
	buf := append([]byte{}, pathBitset...)
	for i := 0; i < 3; i++ {
		hash := make([]byte, 32)
		hash[0] = byte(i + 1)
		buf = append(buf, hash...)
	}

	rv, err := r.Reflect(buf, "Proof")
	require.NoError(t, err)
	out, err := abi.Format(rv)
	require.NoError(t, err)
	fields := out["value"].(map[string]any)
	hashes := fields["sibling_hashes"].(map[string]any)["value"].([]any)
	require.Len(t, hashes, 3)

	// A buffer one byte short of the third hash must fail rather than
	// silently returning a truncated array.
	_, err = r.Reflect(buf[:len(buf)-1], "Proof")
	require.Error(t, err)
}

// TestScenarioS5SizeDiscriminatedUnion pins spec §8 Scenario S5: the
// variant is selected purely by matching the remaining buffer length.
func TestScenarioS5SizeDiscriminatedUnion(t *testing.T) {
	t.Parallel()

	defs := []abi.TypeDef{
		{Name: "Proof", Kind: &abi.SizeDiscriminatedUnion{Variants: []abi.SDUVariant{
			{Name: "small", ExpectedSize: 4, Type: prim(expr.U32)},
			{Name: "large", ExpectedSize: 8, Type: prim(expr.U64)},
		}}},
	}
	resolved, order, err := abi.Resolve(defs)
	require.NoError(t, err)

	ir, err := abi.BuildLayoutIR(resolved, order)
	require.NoError(t, err)

	r := abi.NewReflector(abi.File{Types: defs}, resolved, ir)

	rv, err := r.Reflect([]byte{0x01, 0x00, 0x00, 0x00}, "Proof")
	require.NoError(t, err)
	out, err := abi.Format(rv)
	require.NoError(t, err)
	assert.Equal(t, "small", out["value"].(map[string]any)["variant"])

	rv, err = r.Reflect(make([]byte, 8), "Proof")
	require.NoError(t, err)
	out, err = abi.Format(rv)
	require.NoError(t, err)
	assert.Equal(t, "large", out["value"].(map[string]any)["variant"])

	_, err = r.Reflect(make([]byte, 6), "Proof")
	require.Error(t, err)
}

// TestReflectUnknownTypeErrors pins the §6.5 UnknownTypeError path when
// asked for a type absent from the resolved set.
func TestReflectUnknownTypeErrors(t *testing.T) {
	t.Parallel()

	defs := []abi.TypeDef{
		{Name: "Point", Kind: &abi.Struct{Fields: []abi.StructField{
			{Name: "x", Type: prim(expr.I32)},
		}}},
	}
	resolved, order, err := abi.Resolve(defs)
	require.NoError(t, err)
	ir, err := abi.BuildLayoutIR(resolved, order)
	require.NoError(t, err)

	r := abi.NewReflector(abi.File{Types: defs}, resolved, ir)
	_, err = r.Reflect([]byte{0, 0, 0, 0}, "NoSuchType")
	require.Error(t, err)
	var unknown *abi.UnknownTypeError
	require.ErrorAs(t, err, &unknown)
}

// TestReflectInstructionRequiresRootConfigured pins §4.7/§6.1's root-type
// helpers: calling one without the corresponding File.Roots entry set
// fails with MissingRootTypeError instead of silently picking a type.
func TestReflectInstructionRequiresRootConfigured(t *testing.T) {
	t.Parallel()

	defs := []abi.TypeDef{
		{Name: "Point", Kind: &abi.Struct{Fields: []abi.StructField{
			{Name: "x", Type: prim(expr.I32)},
		}}},
	}
	resolved, order, err := abi.Resolve(defs)
	require.NoError(t, err)
	ir, err := abi.BuildLayoutIR(resolved, order)
	require.NoError(t, err)

	r := abi.NewReflector(abi.File{Types: defs}, resolved, ir)
	_, err = r.ReflectInstruction([]byte{0, 0, 0, 0})
	require.Error(t, err)
	var missing *abi.MissingRootTypeError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, abi.RootInstruction, missing.Kind)
}
