// =============================================
// File: internal/utils/amount/amount.go
// =============================================
package amount

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

const (
	// SOLDecimals is the number of decimals of one SOL in lamports.
	SOLDecimals uint8 = 9
	// TokenDecimals is the decimals of pool tokens.
	TokenDecimals uint8 = 9
)

// ToDecimal converts a base-unit amount to its decimal value.
func ToDecimal(amount uint64, decimals uint8) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(amount), -int32(decimals))
}

// FromDecimal converts a decimal value to base units. Fractions below one
// base unit and values outside uint64 are rejected.
func FromDecimal(value decimal.Decimal, decimals uint8) (uint64, error) {
	if value.IsNegative() {
		return 0, fmt.Errorf("negative amount %s", value)
	}
	scaled := value.Shift(int32(decimals))
	if !scaled.IsInteger() {
		return 0, fmt.Errorf("amount %s has more than %d decimals", value, decimals)
	}
	n := scaled.BigInt()
	if !n.IsUint64() {
		return 0, fmt.Errorf("amount %s out of range", value)
	}
	return n.Uint64(), nil
}

// SOL formats lamports as SOL.
func SOL(lamports uint64) string {
	return ToDecimal(lamports, SOLDecimals).String() + " SOL"
}

// Tokens formats token base units with TokenDecimals.
func Tokens(units uint64) string {
	return ToDecimal(units, TokenDecimals).StringFixedBank(int32(TokenDecimals))
}

// ParseSOL parses a SOL amount such as "0.25" into lamports.
func ParseSOL(s string) (uint64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid SOL amount %q: %w", s, err)
	}
	return FromDecimal(d, SOLDecimals)
}
