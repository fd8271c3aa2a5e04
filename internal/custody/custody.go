// Package custody defines the asset-transfer contract the bonding-curve pool
// delegates to. Implementations move lamports and token balances between
// accounts and decide whether the presented Authority may debit the source.
package custody

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Authority proves the right to debit an account. Exactly one form is used:
// an external signer, or the seeds of a program-derived address.
type Authority struct {
	Signer solana.PublicKey
	Seeds  [][]byte
}

// SignerAuthority authorizes a transfer with an external signer's key.
func SignerAuthority(signer solana.PublicKey) Authority {
	return Authority{Signer: signer}
}

// DerivedAuthority authorizes a transfer on behalf of a program-derived address.
// The seeds must include the bump.
func DerivedAuthority(seeds ...[]byte) Authority {
	return Authority{Seeds: seeds}
}

// IsDerived reports whether the authority is a program-derived one.
func (a Authority) IsDerived() bool {
	return len(a.Seeds) > 0
}

// Resolve returns the address this authority speaks for under programID.
func (a Authority) Resolve(programID solana.PublicKey) (solana.PublicKey, error) {
	if !a.IsDerived() {
		if a.Signer.IsZero() {
			return solana.PublicKey{}, fmt.Errorf("empty authority")
		}
		return a.Signer, nil
	}
	addr, err := solana.CreateProgramAddress(a.Seeds, programID)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to derive authority: %w", err)
	}
	return addr, nil
}

// Custody moves balances on behalf of the pool.
type Custody interface {
	// TransferToken moves amount base units between two token accounts of the same mint.
	TransferToken(ctx context.Context, from, to solana.PublicKey, amount uint64, auth Authority) error
	// TransferNative moves amount lamports between two system accounts.
	TransferNative(ctx context.Context, from, to solana.PublicKey, amount uint64, auth Authority) error
	// TokenBalance returns the amount held by a token account.
	TokenBalance(ctx context.Context, account solana.PublicKey) (uint64, error)
	// NativeBalance returns the lamports held by an account.
	NativeBalance(ctx context.Context, account solana.PublicKey) (uint64, error)
}
