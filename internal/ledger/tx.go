// =============================
// File: internal/ledger/tx.go
// =============================
package ledger

import (
	"context"
	"fmt"
	"math"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/pumpcurve/internal/custody"
)

// Tx applies transfers immediately and journals how to undo them.
// It holds the ledger lock until Commit or Rollback.
type Tx struct {
	ledger  *Ledger
	undo    []func()
	applied int
	closed  bool
}

var _ custody.Custody = (*Tx)(nil)

// Commit keeps every change and releases the ledger.
func (tx *Tx) Commit() error {
	if tx.closed {
		return ErrTxClosed
	}
	tx.closed = true
	tx.ledger.logger.Debug("Committed ledger transaction", zap.Int("transfers", tx.applied))
	tx.undo = nil
	tx.ledger.mu.Unlock()
	return nil
}

// Rollback reverts every change in reverse order and releases the ledger.
// Rolling back a closed transaction is a no-op.
func (tx *Tx) Rollback() {
	if tx.closed {
		return
	}
	tx.closed = true
	for i := len(tx.undo) - 1; i >= 0; i-- {
		tx.undo[i]()
	}
	if tx.applied > 0 {
		tx.ledger.logger.Debug("Rolled back ledger transaction", zap.Int("transfers", tx.applied))
	}
	tx.undo = nil
	tx.ledger.mu.Unlock()
}

// TransferNative moves lamports. The authority must resolve to from.
func (tx *Tx) TransferNative(ctx context.Context, from, to solana.PublicKey, amount uint64, auth custody.Authority) error {
	if err := tx.check(ctx); err != nil {
		return err
	}
	if amount == 0 {
		return nil
	}
	l := tx.ledger
	if err := l.authorize(from, auth); err != nil {
		return err
	}
	if l.lamports[from] < amount {
		return fmt.Errorf("%s holds %d lamports, needs %d: %w", from, l.lamports[from], amount, ErrInsufficientFunds)
	}
	if to != from && l.lamports[to] > math.MaxUint64-amount {
		return fmt.Errorf("lamport balance of %s would overflow: %w", to, ErrInsufficientFunds)
	}

	tx.setLamports(from, l.lamports[from]-amount)
	tx.setLamports(to, l.lamports[to]+amount)
	tx.applied++
	return nil
}

// TransferToken moves tokens between two accounts of the same mint.
// The authority must resolve to the source account's owner.
func (tx *Tx) TransferToken(ctx context.Context, from, to solana.PublicKey, amount uint64, auth custody.Authority) error {
	if err := tx.check(ctx); err != nil {
		return err
	}
	if amount == 0 {
		return nil
	}
	l := tx.ledger
	src, ok := l.tokens[from]
	if !ok {
		return fmt.Errorf("source %s: %w", from, ErrAccountNotFound)
	}
	dst, ok := l.tokens[to]
	if !ok {
		return fmt.Errorf("destination %s: %w", to, ErrAccountNotFound)
	}
	if !src.Mint.Equals(dst.Mint) {
		return fmt.Errorf("%s -> %s: %w", src.Mint, dst.Mint, ErrMintMismatch)
	}
	if err := l.authorize(src.Owner, auth); err != nil {
		return err
	}
	if src.Amount < amount {
		return fmt.Errorf("%s holds %d tokens, needs %d: %w", from, src.Amount, amount, ErrInsufficientFunds)
	}
	if to != from && dst.Amount > math.MaxUint64-amount {
		return fmt.Errorf("token balance of %s would overflow: %w", to, ErrInsufficientFunds)
	}

	tx.setTokens(from, src.Amount-amount)
	tx.setTokens(to, dst.Amount+amount)
	tx.applied++
	return nil
}

// NativeBalance returns the lamports held by account inside the transaction.
func (tx *Tx) NativeBalance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	if err := tx.check(ctx); err != nil {
		return 0, err
	}
	return tx.ledger.lamports[account], nil
}

// TokenBalance returns the amount held by a token account inside the transaction.
func (tx *Tx) TokenBalance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	if err := tx.check(ctx); err != nil {
		return 0, err
	}
	acc, ok := tx.ledger.tokens[account]
	if !ok {
		return 0, fmt.Errorf("%s: %w", account, ErrAccountNotFound)
	}
	return acc.Amount, nil
}

// EnsureTokenAccount opens the associated token account of (owner, mint)
// when missing. The account is removed again on rollback.
func (tx *Tx) EnsureTokenAccount(owner, mint solana.PublicKey) (solana.PublicKey, error) {
	if tx.closed {
		return solana.PublicKey{}, ErrTxClosed
	}
	addr, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to derive token account: %w", err)
	}

	l := tx.ledger
	if acc, ok := l.tokens[addr]; ok {
		if !acc.Mint.Equals(mint) {
			return solana.PublicKey{}, fmt.Errorf("%s: %w", addr, ErrMintMismatch)
		}
		return addr, nil
	}

	l.tokens[addr] = &TokenAccount{Mint: mint, Owner: owner}
	tx.undo = append(tx.undo, func() { delete(l.tokens, addr) })
	return addr, nil
}

func (tx *Tx) check(ctx context.Context) error {
	if tx.closed {
		return ErrTxClosed
	}
	return ctx.Err()
}

func (tx *Tx) credit(account solana.PublicKey, lamports uint64) error {
	if tx.closed {
		return ErrTxClosed
	}
	cur := tx.ledger.lamports[account]
	if cur > math.MaxUint64-lamports {
		return fmt.Errorf("lamport balance of %s would overflow: %w", account, ErrInsufficientFunds)
	}
	tx.setLamports(account, cur+lamports)
	return nil
}

func (tx *Tx) creditToken(account solana.PublicKey, amount uint64) error {
	acc, ok := tx.ledger.tokens[account]
	if !ok {
		return fmt.Errorf("%s: %w", account, ErrAccountNotFound)
	}
	if acc.Amount > math.MaxUint64-amount {
		return fmt.Errorf("token balance of %s would overflow: %w", account, ErrInsufficientFunds)
	}
	tx.setTokens(account, acc.Amount+amount)
	return nil
}

func (tx *Tx) setLamports(account solana.PublicKey, value uint64) {
	l := tx.ledger
	prev, existed := l.lamports[account]
	tx.undo = append(tx.undo, func() {
		if existed {
			l.lamports[account] = prev
		} else {
			delete(l.lamports, account)
		}
	})
	l.lamports[account] = value
}

func (tx *Tx) setTokens(account solana.PublicKey, value uint64) {
	acc := tx.ledger.tokens[account]
	prev := acc.Amount
	tx.undo = append(tx.undo, func() { acc.Amount = prev })
	acc.Amount = value
}
