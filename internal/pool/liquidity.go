// =================================
// File: internal/pool/liquidity.go
// =================================
package pool

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/rovshanmuradov/pumpcurve/internal/curve"
	"github.com/rovshanmuradov/pumpcurve/internal/custody"
)

// SeedAccounts lists the accounts used when liquidity is first added.
type SeedAccounts struct {
	Creator             solana.PublicKey
	CreatorTokenAccount solana.PublicKey
	PoolTokenAccount    solana.PublicKey
	SolVault            solana.PublicKey
}

// WithdrawAccounts lists the accounts drained when a pool migrates out.
type WithdrawAccounts struct {
	PoolTokenAccount        solana.PublicKey
	SolVault                solana.PublicKey
	SolVaultBump            uint8
	Destination             solana.PublicKey
	DestinationTokenAccount solana.PublicKey
}

// Withdrawal reports what RemoveLiquidity moved out.
type Withdrawal struct {
	Tokens   uint64
	Lamports uint64
}

// AddLiquidity seeds the curve: tokenSupply tokens and funding lamports are
// moved from the creator, the scaled total supply is fixed and the reserves
// are set. It is the only place TotalSupply is ever written.
func (p *LiquidityPool) AddLiquidity(ctx context.Context, c custody.Custody, acc SeedAccounts, tokenSupply, funding uint64) error {
	if p.Seeded() {
		return ErrPoolAlreadySeeded
	}
	if tokenSupply == 0 {
		return curve.ErrInvalidAmount
	}
	if tokenSupply > curve.TotalSupplyScaled {
		return fmt.Errorf("token supply %d above scaled total supply: %w", tokenSupply, curve.ErrInvalidAmount)
	}

	if err := c.TransferToken(ctx, acc.CreatorTokenAccount, acc.PoolTokenAccount, tokenSupply, custody.SignerAuthority(acc.Creator)); err != nil {
		return fmt.Errorf("failed to transfer token to pool: %w", err)
	}
	if err := c.TransferNative(ctx, acc.Creator, acc.SolVault, funding, custody.SignerAuthority(acc.Creator)); err != nil {
		return fmt.Errorf("failed to transfer sol to pool: %w", err)
	}

	p.TotalSupply = curve.TotalSupplyScaled
	p.updateReserves(tokenSupply, funding)

	return nil
}

// RemoveLiquidity drains both vaults to the destination and zeroes the reserves.
func (p *LiquidityPool) RemoveLiquidity(ctx context.Context, c custody.Custody, acc WithdrawAccounts) (Withdrawal, error) {
	if !p.Seeded() {
		return Withdrawal{}, ErrPoolNotSeeded
	}

	tokens, err := c.TokenBalance(ctx, acc.PoolTokenAccount)
	if err != nil {
		return Withdrawal{}, fmt.Errorf("failed to read pool token balance: %w", err)
	}
	lamports, err := c.NativeBalance(ctx, acc.SolVault)
	if err != nil {
		return Withdrawal{}, fmt.Errorf("failed to read sol vault balance: %w", err)
	}

	if err := c.TransferToken(ctx, acc.PoolTokenAccount, acc.DestinationTokenAccount, tokens, p.Authority()); err != nil {
		return Withdrawal{}, fmt.Errorf("failed to transfer token from pool: %w", err)
	}
	if err := c.TransferNative(ctx, acc.SolVault, acc.Destination, lamports, SolVaultAuthority(p.Token, acc.SolVaultBump)); err != nil {
		return Withdrawal{}, fmt.Errorf("failed to transfer sol from pool: %w", err)
	}

	p.updateReserves(0, 0)

	return Withdrawal{Tokens: tokens, Lamports: lamports}, nil
}
