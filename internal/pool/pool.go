// =============================
// File: internal/pool/pool.go
// =============================
package pool

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/rovshanmuradov/pumpcurve/internal/curve"
	"github.com/rovshanmuradov/pumpcurve/internal/custody"
)

var (
	// ErrPoolAlreadySeeded is returned when liquidity is added to a pool a second time.
	ErrPoolAlreadySeeded = errors.New("pool already seeded")

	// ErrPoolNotSeeded is returned when a pool without liquidity is traded against.
	ErrPoolNotSeeded = errors.New("pool not seeded")
)

// LiquidityPool is the persisted state of one bonding curve.
type LiquidityPool struct {
	Creator      solana.PublicKey // pool originator, immutable
	Token        solana.PublicKey // traded mint, seed of every pool address
	TotalSupply  uint64           // fixed at seeding
	ReserveToken uint64           // tokens held by the pool vault
	ReserveSol   uint64           // lamports held by the SOL vault
	Bump         uint8            // pool PDA nonce
}

// New returns an unseeded pool.
func New(creator, token solana.PublicKey, bump uint8) *LiquidityPool {
	return &LiquidityPool{
		Creator: creator,
		Token:   token,
		Bump:    bump,
	}
}

// Clone returns an independent copy of the pool.
func (p *LiquidityPool) Clone() *LiquidityPool {
	c := *p
	return &c
}

// Seeded reports whether liquidity has been added.
func (p *LiquidityPool) Seeded() bool {
	return p.TotalSupply != 0
}

// Reserves returns the pricing view of the pool.
func (p *LiquidityPool) Reserves() curve.Reserves {
	return curve.Reserves{
		TotalSupply:  p.TotalSupply,
		ReserveToken: p.ReserveToken,
		ReserveSol:   p.ReserveSol,
	}
}

// SoldTokens returns TotalSupply - ReserveToken.
func (p *LiquidityPool) SoldTokens() (uint64, error) {
	return p.Reserves().Sold()
}

// Validate checks the invariants of a seeded pool.
func (p *LiquidityPool) Validate() error {
	if !p.Seeded() {
		return ErrPoolNotSeeded
	}
	if p.ReserveToken > p.TotalSupply {
		return fmt.Errorf("reserve token %d exceeds total supply %d: %w",
			p.ReserveToken, p.TotalSupply, curve.ErrOverflowOrUnderflow)
	}
	return nil
}

// Authority returns the derived authority the pool signs its vault transfers with.
func (p *LiquidityPool) Authority() custody.Authority {
	return custody.DerivedAuthority([]byte(PoolSeedPrefix), p.Token.Bytes(), []byte{p.Bump})
}

func (p *LiquidityPool) updateReserves(reserveToken, reserveSol uint64) {
	p.ReserveToken = reserveToken
	p.ReserveSol = reserveSol
}
