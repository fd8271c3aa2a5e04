// =============================
// File: internal/curve/engine.go
// =============================
package curve

import (
	"fmt"
)

// Reserves is the slice of pool state the pricing formula reads.
type Reserves struct {
	TotalSupply  uint64
	ReserveToken uint64
	ReserveSol   uint64
}

// Sold returns TotalSupply - ReserveToken, the tokens already sold off the curve.
func (r Reserves) Sold() (uint64, error) {
	sold, err := checkedSub(r.TotalSupply, r.ReserveToken)
	if err != nil {
		return 0, fmt.Errorf("sold tokens (total %d, reserve %d): %w", r.TotalSupply, r.ReserveToken, err)
	}
	return sold, nil
}

// BuyQuote is the outcome of pricing a buy.
type BuyQuote struct {
	AmountIn  uint64 // lamports paid
	TokensOut uint64
	After     Reserves
}

// SellQuote is the outcome of pricing a sell.
type SellQuote struct {
	AmountIn uint64 // token base units sold
	SolOut   uint64
	After    Reserves
}

// QuoteBuy prices a buy of amount lamports against r.
//
// With y the tokens sold and x the SOL deposited (both in curve space) the
// curve is y² = k·x, so depositing Δx moves y to sqrt(k·Δx + y²).
func QuoteBuy(r Reserves, amount uint64) (BuyQuote, error) {
	if amount == 0 {
		return BuyQuote{}, ErrInvalidAmount
	}

	sold, err := r.Sold()
	if err != nil {
		return BuyQuote{}, err
	}

	bought := ToCurveSpaceSquared(sold)
	deposit := ToCurveSpace(amount)

	root, err := Sqrt(proportionF64*deposit + bought*bought)
	if err != nil {
		return BuyQuote{}, err
	}

	tokensOut, err := FromCurveSpaceSquared(root - bought)
	if err != nil {
		return BuyQuote{}, err
	}

	if tokensOut > r.ReserveToken {
		return BuyQuote{}, ErrNotEnoughTokenInVault
	}

	reserveSol, err := checkedAdd(r.ReserveSol, amount)
	if err != nil {
		return BuyQuote{}, fmt.Errorf("reserve sol: %w", err)
	}
	reserveToken, err := checkedSub(r.ReserveToken, tokensOut)
	if err != nil {
		return BuyQuote{}, fmt.Errorf("reserve token: %w", err)
	}

	return BuyQuote{
		AmountIn:  amount,
		TokensOut: tokensOut,
		After: Reserves{
			TotalSupply:  r.TotalSupply,
			ReserveToken: reserveToken,
			ReserveSol:   reserveSol,
		},
	}, nil
}

// QuoteSell prices a sell of amount token base units against r.
func QuoteSell(r Reserves, amount uint64) (SellQuote, error) {
	if amount == 0 {
		return SellQuote{}, ErrInvalidAmount
	}
	if amount > r.ReserveToken {
		return SellQuote{}, ErrTokenAmountToSellTooBig
	}

	soldBefore, err := r.Sold()
	if err != nil {
		return SellQuote{}, err
	}
	reserveTokenAfter, err := checkedAdd(r.ReserveToken, amount)
	if err != nil {
		return SellQuote{}, fmt.Errorf("reserve token after sell: %w", err)
	}
	soldAfter, err := checkedSub(r.TotalSupply, reserveTokenAfter)
	if err != nil {
		return SellQuote{}, fmt.Errorf("sold tokens after sell: %w", err)
	}

	bought := ToCurveSpaceSquared(soldBefore)
	result := ToCurveSpaceSquared(soldAfter)

	solOut, err := RoundToUint64((bought*bought - result*result) / proportionF64 * DecimalScale)
	if err != nil {
		return SellQuote{}, err
	}

	if solOut > r.ReserveSol {
		return SellQuote{}, ErrNotEnoughSolInVault
	}

	reserveSol, err := checkedSub(r.ReserveSol, solOut)
	if err != nil {
		return SellQuote{}, fmt.Errorf("reserve sol: %w", err)
	}

	return SellQuote{
		AmountIn: amount,
		SolOut:   solOut,
		After: Reserves{
			TotalSupply:  r.TotalSupply,
			ReserveToken: reserveTokenAfter,
			ReserveSol:   reserveSol,
		},
	}, nil
}

// SpotPrice returns the marginal price in lamports per token base unit.
// It is dx/dy = 2y/k converted out of curve space.
func SpotPrice(r Reserves) (float64, error) {
	sold, err := r.Sold()
	if err != nil {
		return 0, err
	}
	y := ToCurveSpaceSquared(sold)
	return 2 * y / proportionF64 * DecimalScale / DecimalScaleSquared, nil
}

// Progress returns the fraction of the seeded supply already sold, in [0, 1].
func Progress(r Reserves) float64 {
	if r.TotalSupply == 0 {
		return 0
	}
	sold, err := r.Sold()
	if err != nil {
		return 0
	}
	return float64(sold) / float64(r.TotalSupply)
}
