package amount

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDecimal(t *testing.T) {
	assert.Equal(t, "1.5", ToDecimal(1_500_000_000, 9).String())
	assert.Equal(t, "0.000000001", ToDecimal(1, 9).String())
	assert.Equal(t, "18446744073.709551615", ToDecimal(math.MaxUint64, 9).String())
}

func TestFromDecimal(t *testing.T) {
	v, err := FromDecimal(decimal.RequireFromString("0.01"), 9)
	require.NoError(t, err)
	assert.Equal(t, uint64(10_000_000), v)

	_, err = FromDecimal(decimal.RequireFromString("-1"), 9)
	assert.Error(t, err)
	_, err = FromDecimal(decimal.RequireFromString("0.0000000001"), 9)
	assert.Error(t, err)
	_, err = FromDecimal(decimal.RequireFromString("18446744074"), 9)
	assert.Error(t, err)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "0.01 SOL", SOL(10_000_000))
	assert.Equal(t, "900000000.000000000", Tokens(900_000_000_000_000_000))
}

func TestParseSOL(t *testing.T) {
	v, err := ParseSOL("2.5")
	require.NoError(t, err)
	assert.Equal(t, uint64(2_500_000_000), v)

	_, err = ParseSOL("abc")
	assert.Error(t, err)
}
