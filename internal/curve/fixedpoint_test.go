package curve

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScaleConstants(t *testing.T) {
	assert.Equal(t, 1e9, DecimalScale)
	// 10^6 * 10^9, not (10^9)^2
	assert.Equal(t, 1e15, DecimalScaleSquared)
	assert.Equal(t, uint64(1_000_000_000_000_000_000), TotalSupplyScaled)
}

func TestCurveSpaceConversions(t *testing.T) {
	assert.Equal(t, 1.0, ToCurveSpace(1_000_000_000))
	assert.Equal(t, 0.001, ToCurveSpace(1_000_000))
	assert.Equal(t, 100.0, ToCurveSpaceSquared(100_000_000_000_000_000))

	lamports, err := fromCurveSpace(0.5)
	require.NoError(t, err)
	assert.Equal(t, uint64(500_000_000), lamports)

	tokens, err := FromCurveSpaceSquared(2.5)
	require.NoError(t, err)
	assert.Equal(t, uint64(2_500_000_000_000_000), tokens)
}

func TestRoundToUint64(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		want  uint64
	}{
		{"exact", 42, 42},
		{"round down", 41.49, 41},
		{"half rounds away from zero", 41.5, 42},
		{"half rounds away from zero again", 0.5, 1},
		{"negative zero", math.Copysign(0, -1), 0},
		{"tiny negative rounds to zero", -0.4, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RoundToUint64(tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRoundToUint64Rejects(t *testing.T) {
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1), -1, 1.9e19} {
		_, err := RoundToUint64(v)
		assert.True(t, errors.Is(err, ErrOverflowOrUnderflow), "value %v", v)
	}
}

func TestSqrt(t *testing.T) {
	got, err := Sqrt(10_000)
	require.NoError(t, err)
	assert.Equal(t, 100.0, got)

	_, err = Sqrt(-1)
	assert.ErrorIs(t, err, ErrOverflowOrUnderflow)

	_, err = Sqrt(math.NaN())
	assert.ErrorIs(t, err, ErrOverflowOrUnderflow)
}

func TestCheckedArithmetic(t *testing.T) {
	_, err := checkedAdd(math.MaxUint64, 1)
	assert.ErrorIs(t, err, ErrOverflowOrUnderflow)

	_, err = checkedSub(1, 2)
	assert.ErrorIs(t, err, ErrOverflowOrUnderflow)

	v, err := checkedSub(2, 2)
	require.NoError(t, err)
	assert.Zero(t, v)
}

func TestErrorCodes(t *testing.T) {
	code, ok := CodeOf(ErrNotEnoughSolInVault)
	require.True(t, ok)
	assert.Equal(t, uint32(6004), code)

	e, ok := ErrorByCode(6005)
	require.True(t, ok)
	assert.Same(t, ErrTokenAmountToSellTooBig, e)

	_, ok = ErrorByCode(7000)
	assert.False(t, ok)

	_, ok = CodeOf(errors.New("plain"))
	assert.False(t, ok)
}
