package wellknown_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.chainabi.dev/abi/internal/expr"
	"go.chainabi.dev/abi/internal/value"
	"go.chainabi.dev/abi/internal/wellknown"
)

func byteArray(bs ...byte) *value.Array {
	elems := make([]value.Value, len(bs))
	for i, b := range bs {
		elems[i] = &value.Primitive{Value: value.PrimitiveValue{Type: expr.U8, Raw: uint64(b)}}
	}
	return &value.Array{Elements: elems}
}

func TestRegistryFirstMatchWins(t *testing.T) {
	t.Parallel()

	r := wellknown.NewRegistry()
	calls := 0
	r.Register(func(typeName string, rv value.ReflectedValue) (wellknown.Decision, bool) {
		calls++
		return wellknown.Decision{}, false
	})
	r.Register(func(typeName string, rv value.ReflectedValue) (wellknown.Decision, bool) {
		calls++
		return wellknown.Decision{ExtraKeys: map[string]any{"k": "v"}}, true
	})
	r.Register(func(typeName string, rv value.ReflectedValue) (wellknown.Decision, bool) {
		t.Fatal("should not be reached: an earlier enricher already matched")
		return wellknown.Decision{}, false
	})

	d, ok := r.Enrich("T", value.ReflectedValue{})
	require.True(t, ok)
	assert.Equal(t, "v", d.ExtraKeys["k"])
	assert.Equal(t, 2, calls)
}

func TestRegistryNoMatch(t *testing.T) {
	t.Parallel()

	r := wellknown.NewRegistry()
	_, ok := r.Enrich("T", value.ReflectedValue{})
	assert.False(t, ok)
}

func TestPubkeyEnricherAddsBase58Address(t *testing.T) {
	t.Parallel()

	rv := value.ReflectedValue{Value: &value.Struct{Fields: []value.NamedValue{
		{Name: "owner", Value: byteArray(
			0x03, 0xa1, 0x07, 0xd8, 0xa2, 0x25, 0x12, 0x61,
			0x86, 0xf6, 0xcf, 0x29, 0x90, 0x42, 0x85, 0xa9,
			0x1f, 0xac, 0x11, 0x12, 0x97, 0x8a, 0xa4, 0xaa,
			0x56, 0x91, 0x2a, 0x38, 0x44, 0x17, 0x95, 0x21,
		)},
	}}}

	e := wellknown.NewPubkeyEnricher("Account", "owner")
	d, ok := e("Account", rv)
	require.True(t, ok)
	addr, ok := d.ExtraKeys["address"].(string)
	require.True(t, ok)
	assert.NotEmpty(t, addr)
}

func TestPubkeyEnricherIgnoresOtherTypes(t *testing.T) {
	t.Parallel()

	e := wellknown.NewPubkeyEnricher("Account", "owner")
	_, ok := e("OtherType", value.ReflectedValue{})
	assert.False(t, ok)
}

func TestPubkeyEnricherIgnoresMissingField(t *testing.T) {
	t.Parallel()

	rv := value.ReflectedValue{Value: &value.Struct{Fields: []value.NamedValue{
		{Name: "other", Value: byteArray(0x01)},
	}}}
	e := wellknown.NewPubkeyEnricher("Account", "owner")
	_, ok := e("Account", rv)
	assert.False(t, ok)
}
