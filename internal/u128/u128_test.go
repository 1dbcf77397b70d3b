package u128_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"go.chainabi.dev/abi/internal/u128"
)

func TestAddCheckedOverflow(t *testing.T) {
	t.Parallel()

	max := u128.U128{Hi: math.MaxUint64, Lo: math.MaxUint64}
	_, ok := u128.AddChecked(max, u128.From(1))
	assert.False(t, ok)

	sum, ok := u128.AddChecked(u128.From(1), u128.From(2))
	assert.True(t, ok)
	assert.Equal(t, u128.From(3), sum)
}

func TestMulCheckedOverflow(t *testing.T) {
	t.Parallel()

	big := u128.U128{Hi: 1, Lo: 0}
	_, ok := u128.MulChecked(big, big)
	assert.False(t, ok)

	product, ok := u128.MulChecked(u128.From(1000), u128.From(1000))
	assert.True(t, ok)
	assert.Equal(t, u128.From(1_000_000), product)
}

func TestAlignUp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		alignment uint64
		n         uint64
		want      uint64
	}{
		{alignment: 4, n: 0, want: 0},
		{alignment: 4, n: 1, want: 4},
		{alignment: 4, n: 4, want: 4},
		{alignment: 8, n: 9, want: 16},
		{alignment: 1, n: 7, want: 7},
	}
	for _, tt := range tests {
		got, ok := u128.AlignUp(tt.alignment, u128.From(tt.n))
		assert.True(t, ok)
		assert.Equal(t, u128.From(tt.want), got)
	}
}

func TestStringLargeValue(t *testing.T) {
	t.Parallel()

	v := u128.U128{Hi: 1, Lo: 0}
	assert.Equal(t, "18446744073709551616", v.String())
	assert.Equal(t, "42", u128.From(42).String())
}

func TestFits64(t *testing.T) {
	t.Parallel()

	assert.True(t, u128.From(5).Fits64())
	assert.False(t, u128.U128{Hi: 1}.Fits64())
}
