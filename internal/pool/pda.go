// =============================
// File: internal/pool/pda.go
// =============================
package pool

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/rovshanmuradov/pumpcurve/internal/custody"
)

// Seed prefixes of the program-derived addresses.
const (
	PoolSeedPrefix     = "liquidity_pool"
	SolVaultSeedPrefix = "liquidity_sol_vault"
	ConfigurationSeed  = "CurveConfiguration"
	GlobalSeed         = "global"
)

// Addresses groups every account derived from a pool's mint.
type Addresses struct {
	Pool             solana.PublicKey
	PoolBump         uint8
	SolVault         solana.PublicKey
	SolVaultBump     uint8
	PoolTokenAccount solana.PublicKey
}

// DerivePool finds the pool PDA for token.
func DerivePool(programID, token solana.PublicKey) (solana.PublicKey, uint8, error) {
	addr, bump, err := solana.FindProgramAddress(
		[][]byte{[]byte(PoolSeedPrefix), token.Bytes()},
		programID,
	)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("failed to derive pool: %w", err)
	}
	return addr, bump, nil
}

// DeriveSolVault finds the SOL vault PDA for token.
func DeriveSolVault(programID, token solana.PublicKey) (solana.PublicKey, uint8, error) {
	addr, bump, err := solana.FindProgramAddress(
		[][]byte{[]byte(SolVaultSeedPrefix), token.Bytes()},
		programID,
	)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("failed to derive sol vault: %w", err)
	}
	return addr, bump, nil
}

// DeriveConfiguration finds the curve configuration PDA.
func DeriveConfiguration(programID solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{[]byte(ConfigurationSeed)}, programID)
}

// DeriveGlobal finds the global account PDA.
func DeriveGlobal(programID solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{[]byte(GlobalSeed)}, programID)
}

// DeriveAddresses derives the pool, its SOL vault and its token vault.
func DeriveAddresses(programID, token solana.PublicKey) (Addresses, error) {
	poolAddr, poolBump, err := DerivePool(programID, token)
	if err != nil {
		return Addresses{}, err
	}
	vault, vaultBump, err := DeriveSolVault(programID, token)
	if err != nil {
		return Addresses{}, err
	}
	poolATA, _, err := solana.FindAssociatedTokenAddress(poolAddr, token)
	if err != nil {
		return Addresses{}, fmt.Errorf("failed to derive pool token account: %w", err)
	}

	return Addresses{
		Pool:             poolAddr,
		PoolBump:         poolBump,
		SolVault:         vault,
		SolVaultBump:     vaultBump,
		PoolTokenAccount: poolATA,
	}, nil
}

// SolVaultAuthority returns the derived authority of the SOL vault for token.
func SolVaultAuthority(token solana.PublicKey, bump uint8) custody.Authority {
	return custody.DerivedAuthority([]byte(SolVaultSeedPrefix), token.Bytes(), []byte{bump})
}
