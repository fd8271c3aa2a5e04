// =============================
// File: internal/ledger/ledger.go
// =============================
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/pumpcurve/internal/custody"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrUnauthorized      = errors.New("authority does not own source account")
	ErrAccountNotFound   = errors.New("token account not found")
	ErrMintMismatch      = errors.New("token accounts hold different mints")
	ErrTxClosed          = errors.New("ledger transaction already closed")
)

// TokenAccount is an SPL-like token holding.
type TokenAccount struct {
	Mint   solana.PublicKey
	Owner  solana.PublicKey
	Amount uint64
}

// Ledger keeps lamport balances and token accounts in memory.
// Mutations go through a Tx; the helpers below apply immediately.
type Ledger struct {
	mu        sync.Mutex
	programID solana.PublicKey
	lamports  map[solana.PublicKey]uint64
	tokens    map[solana.PublicKey]*TokenAccount
	logger    *zap.Logger
}

// New creates an empty ledger. Derived authorities are resolved under programID.
func New(programID solana.PublicKey, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{
		programID: programID,
		lamports:  make(map[solana.PublicKey]uint64),
		tokens:    make(map[solana.PublicKey]*TokenAccount),
		logger:    logger.Named("ledger"),
	}
}

// ProgramID returns the program derived authorities are checked against.
func (l *Ledger) ProgramID() solana.PublicKey {
	return l.programID
}

// Begin locks the ledger and opens a transaction. The caller must end it
// with Commit or Rollback.
func (l *Ledger) Begin() *Tx {
	l.mu.Lock()
	return &Tx{ledger: l}
}

// Airdrop credits lamports to account.
func (l *Ledger) Airdrop(account solana.PublicKey, lamports uint64) error {
	tx := l.Begin()
	if err := tx.credit(account, lamports); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// EnsureTokenAccount opens the associated token account of (owner, mint)
// if it does not exist yet and returns its address.
func (l *Ledger) EnsureTokenAccount(owner, mint solana.PublicKey) (solana.PublicKey, error) {
	tx := l.Begin()
	addr, err := tx.EnsureTokenAccount(owner, mint)
	if err != nil {
		tx.Rollback()
		return solana.PublicKey{}, err
	}
	return addr, tx.Commit()
}

// MintTo credits amount tokens of mint to owner's associated token account,
// creating it when needed.
func (l *Ledger) MintTo(mint, owner solana.PublicKey, amount uint64) (solana.PublicKey, error) {
	tx := l.Begin()
	addr, err := tx.EnsureTokenAccount(owner, mint)
	if err == nil {
		err = tx.creditToken(addr, amount)
	}
	if err != nil {
		tx.Rollback()
		return solana.PublicKey{}, err
	}
	return addr, tx.Commit()
}

// NativeBalance returns the lamports held by account.
func (l *Ledger) NativeBalance(_ context.Context, account solana.PublicKey) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lamports[account], nil
}

// TokenBalance returns the amount held by a token account.
func (l *Ledger) TokenBalance(_ context.Context, account solana.PublicKey) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	acc, ok := l.tokens[account]
	if !ok {
		return 0, fmt.Errorf("%s: %w", account, ErrAccountNotFound)
	}
	return acc.Amount, nil
}

// TokenAccount returns a copy of the token account at addr.
func (l *Ledger) TokenAccount(addr solana.PublicKey) (TokenAccount, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	acc, ok := l.tokens[addr]
	if !ok {
		return TokenAccount{}, false
	}
	return *acc, true
}

// authorize checks that auth speaks for owner.
func (l *Ledger) authorize(owner solana.PublicKey, auth custody.Authority) error {
	signer, err := auth.Resolve(l.programID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if !signer.Equals(owner) {
		return fmt.Errorf("%w: %s cannot debit account owned by %s", ErrUnauthorized, signer, owner)
	}
	return nil
}
