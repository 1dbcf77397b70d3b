package value_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.chainabi.dev/abi/internal/expr"
	"go.chainabi.dev/abi/internal/value"
)

func TestParsePrimitiveLittleEndian(t *testing.T) {
	t.Parallel()

	pv, err := value.ParsePrimitive(expr.U32, []byte{0x78, 0x56, 0x34, 0x12})
	require.NoError(t, err)
	assert.Equal(t, uint64(0x12345678), pv.Raw)
}

func TestParsePrimitiveShortReadErrors(t *testing.T) {
	t.Parallel()

	_, err := value.ParsePrimitive(expr.U32, []byte{0x01, 0x02})
	require.Error(t, err)
	assert.ErrorIs(t, err, value.ErrShortRead)
}

func TestAsSignedIntSignExtends(t *testing.T) {
	t.Parallel()

	// 0xFF as i8 is -1.
	pv, err := value.ParsePrimitive(expr.I8, []byte{0xFF})
	require.NoError(t, err)
	assert.Equal(t, int64(-1), pv.AsSignedInt())

	// 0xFFFFFFFF as i32 is -1.
	pv, err = value.ParsePrimitive(expr.I32, []byte{0xFF, 0xFF, 0xFF, 0xFF})
	require.NoError(t, err)
	assert.Equal(t, int64(-1), pv.AsSignedInt())
}

func TestAsFloatF32(t *testing.T) {
	t.Parallel()

	bits := math.Float32bits(3.5)
	buf := []byte{byte(bits), byte(bits >> 8), byte(bits >> 16), byte(bits >> 24)}
	pv, err := value.ParsePrimitive(expr.F32, buf)
	require.NoError(t, err)
	assert.InDelta(t, 3.5, pv.AsFloat(), 0.0001)
}

func TestAsFloatF16(t *testing.T) {
	t.Parallel()

	// 0x4200 is 3.0 in binary16.
	pv, err := value.ParsePrimitive(expr.F16, []byte{0x00, 0x42})
	require.NoError(t, err)
	assert.InDelta(t, 3.0, pv.AsFloat(), 0.0001)
}

func TestAsFloatF16Zero(t *testing.T) {
	t.Parallel()

	pv, err := value.ParsePrimitive(expr.F16, []byte{0x00, 0x00})
	require.NoError(t, err)
	assert.Equal(t, 0.0, pv.AsFloat())
}
