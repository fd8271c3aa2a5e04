// =============================
// File: internal/pool/trade.go
// =============================
package pool

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/rovshanmuradov/pumpcurve/internal/curve"
	"github.com/rovshanmuradov/pumpcurve/internal/custody"
)

// TradeAccounts lists the accounts a buy or sell touches.
type TradeAccounts struct {
	Trader             solana.PublicKey // signer and SOL account of the trader
	TraderTokenAccount solana.PublicKey
	PoolTokenAccount   solana.PublicKey
	SolVault           solana.PublicKey
	SolVaultBump       uint8
}

// Buy spends amount lamports on tokens.
//
// Reserves are committed before the transfers are issued; if a transfer
// fails the caller must discard this pool value together with the custody
// changes.
func (p *LiquidityPool) Buy(ctx context.Context, c custody.Custody, acc TradeAccounts, amount uint64) (curve.BuyQuote, error) {
	if !p.Seeded() {
		return curve.BuyQuote{}, ErrPoolNotSeeded
	}

	quote, err := curve.QuoteBuy(p.Reserves(), amount)
	if err != nil {
		return curve.BuyQuote{}, err
	}

	p.updateReserves(quote.After.ReserveToken, quote.After.ReserveSol)

	if err := c.TransferNative(ctx, acc.Trader, acc.SolVault, amount, custody.SignerAuthority(acc.Trader)); err != nil {
		return curve.BuyQuote{}, fmt.Errorf("failed to transfer sol to pool: %w", err)
	}
	if err := c.TransferToken(ctx, acc.PoolTokenAccount, acc.TraderTokenAccount, quote.TokensOut, p.Authority()); err != nil {
		return curve.BuyQuote{}, fmt.Errorf("failed to transfer token from pool: %w", err)
	}

	return quote, nil
}

// Sell returns amount tokens to the pool for lamports.
//
// The token deposit is taken before reserves move so a trader without the
// tokens fails before any pool accounting changes; SOL leaves the vault last.
func (p *LiquidityPool) Sell(ctx context.Context, c custody.Custody, acc TradeAccounts, amount uint64) (curve.SellQuote, error) {
	if !p.Seeded() {
		return curve.SellQuote{}, ErrPoolNotSeeded
	}

	quote, err := curve.QuoteSell(p.Reserves(), amount)
	if err != nil {
		return curve.SellQuote{}, err
	}

	if err := c.TransferToken(ctx, acc.TraderTokenAccount, acc.PoolTokenAccount, amount, custody.SignerAuthority(acc.Trader)); err != nil {
		return curve.SellQuote{}, fmt.Errorf("failed to transfer token to pool: %w", err)
	}

	p.updateReserves(quote.After.ReserveToken, quote.After.ReserveSol)

	if err := c.TransferNative(ctx, acc.SolVault, acc.Trader, quote.SolOut, SolVaultAuthority(p.Token, acc.SolVaultBump)); err != nil {
		return curve.SellQuote{}, fmt.Errorf("failed to transfer sol from pool: %w", err)
	}

	return quote, nil
}
