// =============================
// File: internal/program/accounts.go
// =============================
package program

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/pumpcurve/internal/pool"
)

// PoolAccounts are the accounts every pool instruction references.
type PoolAccounts struct {
	Program       solana.PublicKey
	Configuration solana.PublicKey
	Global        solana.PublicKey
	Mint          solana.PublicKey
	pool.Addresses
}

// DerivePoolAccounts derives the accounts of the pool trading mint.
func DerivePoolAccounts(programID, mint solana.PublicKey) (PoolAccounts, error) {
	cfg, _, err := pool.DeriveConfiguration(programID)
	if err != nil {
		return PoolAccounts{}, fmt.Errorf("failed to derive configuration: %w", err)
	}
	global, _, err := pool.DeriveGlobal(programID)
	if err != nil {
		return PoolAccounts{}, fmt.Errorf("failed to derive global account: %w", err)
	}
	addrs, err := pool.DeriveAddresses(programID, mint)
	if err != nil {
		return PoolAccounts{}, err
	}
	return PoolAccounts{
		Program:       programID,
		Configuration: cfg,
		Global:        global,
		Mint:          mint,
		Addresses:     addrs,
	}, nil
}

// Account positions shared by the pool instructions.
const (
	accConfiguration = iota
	accPool
	accMint
	accPoolTokenAccount
	accSolVault
	accUserTokenAccount
	accUser
)

// BuildInitialize builds the initialize instruction signed by admin.
func BuildInitialize(programID, admin solana.PublicKey, fees float64) (solana.Instruction, error) {
	cfg, _, err := pool.DeriveConfiguration(programID)
	if err != nil {
		return nil, err
	}
	global, _, err := pool.DeriveGlobal(programID)
	if err != nil {
		return nil, err
	}
	data, err := Encode(Initialize{Fees: fees})
	if err != nil {
		return nil, err
	}

	accounts := []*solana.AccountMeta{
		{PublicKey: cfg, IsSigner: false, IsWritable: true},
		{PublicKey: global, IsSigner: false, IsWritable: true},
		{PublicKey: admin, IsSigner: true, IsWritable: true},
		{PublicKey: solana.SysVarRentPubkey, IsSigner: false, IsWritable: false},
		{PublicKey: solana.SystemProgramID, IsSigner: false, IsWritable: false},
	}
	return solana.NewInstruction(programID, accounts, data), nil
}

// BuildCreatePool builds create_pool: the pool is opened and seeded with
// tokenAmount tokens from creator.
func BuildCreatePool(acc PoolAccounts, creator solana.PublicKey, tokenAmount uint64) (solana.Instruction, error) {
	return buildPoolInstruction(acc, creator, CreatePool{TokenAmount: tokenAmount})
}

// BuildBuy builds a buy of inAmount lamports.
func BuildBuy(acc PoolAccounts, trader solana.PublicKey, inAmount uint64) (solana.Instruction, error) {
	return buildPoolInstruction(acc, trader, Buy{InAmount: inAmount})
}

// BuildSell builds a sell of inAmount tokens.
func BuildSell(acc PoolAccounts, trader solana.PublicKey, inAmount uint64) (solana.Instruction, error) {
	return buildPoolInstruction(acc, trader, Sell{InAmount: inAmount})
}

// BuildRaydiumMigrate builds raydium_migrate paying the liquidity out to destination.
func BuildRaydiumMigrate(acc PoolAccounts, destination solana.PublicKey, nonce uint8, openTime uint64) (solana.Instruction, error) {
	return buildPoolInstruction(acc, destination, RaydiumMigrate{Nonce: nonce, OpenTime: openTime})
}

func buildPoolInstruction(acc PoolAccounts, user solana.PublicKey, ix Instruction) (solana.Instruction, error) {
	data, err := Encode(ix)
	if err != nil {
		return nil, err
	}
	userATA, _, err := solana.FindAssociatedTokenAddress(user, acc.Mint)
	if err != nil {
		return nil, fmt.Errorf("failed to derive user token account: %w", err)
	}

	// order must match the acc* positions
	accounts := []*solana.AccountMeta{
		{PublicKey: acc.Configuration, IsSigner: false, IsWritable: false},
		{PublicKey: acc.Pool, IsSigner: false, IsWritable: true},
		{PublicKey: acc.Mint, IsSigner: false, IsWritable: false},
		{PublicKey: acc.PoolTokenAccount, IsSigner: false, IsWritable: true},
		{PublicKey: acc.SolVault, IsSigner: false, IsWritable: true},
		{PublicKey: userATA, IsSigner: false, IsWritable: true},
		{PublicKey: user, IsSigner: true, IsWritable: true},
		{PublicKey: solana.SystemProgramID, IsSigner: false, IsWritable: false},
		{PublicKey: solana.TokenProgramID, IsSigner: false, IsWritable: false},
		{PublicKey: solana.SPLAssociatedTokenAccountProgramID, IsSigner: false, IsWritable: false},
	}
	return solana.NewInstruction(acc.Program, accounts, data), nil
}
