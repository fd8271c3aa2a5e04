// =================================
// File: internal/curve/fixedpoint.go
// =================================
package curve

import (
	"fmt"
	"math"
)

const (
	// DecimalScale converts lamports into curve space.
	DecimalScale float64 = 1_000_000_000.0

	// DecimalScaleSquared converts token base units into curve space.
	// The two factors differ in magnitude on purpose; every priced output depends on it.
	DecimalScaleSquared float64 = 1_000_000.0 * 1_000_000_000.0

	// Proportion is the k in y² = k·x.
	Proportion uint64 = 1280

	proportionF64 = float64(Proportion)

	// TotalSupplyScaled is the full-precision issuance fixed at seeding.
	TotalSupplyScaled uint64 = 1_000_000_000_000_000_000

	// InitialLamportsForPool is the minimum SOL funding deposited when a pool is seeded.
	InitialLamportsForPool uint64 = 10_000_000
)

// 2^64 as a float64; anything at or above it does not fit into uint64.
const maxUint64Float = 18446744073709551616.0

// ToCurveSpace converts a lamport amount into curve space.
func ToCurveSpace(amount uint64) float64 {
	return float64(amount) / DecimalScale
}

// ToCurveSpaceSquared converts a token amount into curve space.
func ToCurveSpaceSquared(amount uint64) float64 {
	return float64(amount) / DecimalScaleSquared
}

// fromCurveSpace converts a curve-space value back into lamports.
func fromCurveSpace(value float64) (uint64, error) {
	return RoundToUint64(value * DecimalScale)
}

// FromCurveSpaceSquared converts a curve-space value back into token base units.
func FromCurveSpaceSquared(value float64) (uint64, error) {
	return RoundToUint64(value * DecimalScaleSquared)
}

// Sqrt returns the non-negative square root of x.
func Sqrt(x float64) (float64, error) {
	if math.IsNaN(x) || x < 0 {
		return 0, fmt.Errorf("sqrt of %v: %w", x, ErrOverflowOrUnderflow)
	}
	return math.Sqrt(x), nil
}

// RoundToUint64 rounds half away from zero and converts to uint64.
// Values that cannot be represented are reported instead of saturating.
func RoundToUint64(value float64) (uint64, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("non-finite value %v: %w", value, ErrOverflowOrUnderflow)
	}
	r := math.Round(value)
	if r < 0 || r >= maxUint64Float {
		return 0, fmt.Errorf("value %v out of uint64 range: %w", value, ErrOverflowOrUnderflow)
	}
	return uint64(r), nil
}

func checkedAdd(a, b uint64) (uint64, error) {
	sum := a + b
	if sum < a {
		return 0, ErrOverflowOrUnderflow
	}
	return sum, nil
}

func checkedSub(a, b uint64) (uint64, error) {
	if b > a {
		return 0, ErrOverflowOrUnderflow
	}
	return a - b, nil
}
