// =============================
// File: internal/program/dispatcher.go
// =============================
package program

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/pumpcurve/internal/market"
)

var (
	ErrWrongProgram     = errors.New("instruction addressed to another program")
	ErrMissingAccounts  = errors.New("not enough accounts")
	ErrAccountMismatch  = errors.New("account does not match derived address")
	ErrMissingSignature = errors.New("user account is not a signer")
)

// Outcome is what an executed instruction produced. Exactly the field
// matching the instruction is set; initialize sets none.
type Outcome struct {
	Instruction string
	Pool        *market.PoolInfo
	Trade       *market.TradeResult
	Migration   *market.MigrationResult
}

// Dispatcher routes program instructions into the market service.
type Dispatcher struct {
	svc    *market.Service
	logger *zap.Logger
}

func NewDispatcher(svc *market.Service, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{svc: svc, logger: logger.Named("program")}
}

// Execute validates the accounts of ix and runs it.
func (d *Dispatcher) Execute(ctx context.Context, ix solana.Instruction) (*Outcome, error) {
	if !ix.ProgramID().Equals(d.svc.ProgramID()) {
		return nil, fmt.Errorf("%s: %w", ix.ProgramID(), ErrWrongProgram)
	}
	data, err := ix.Data()
	if err != nil {
		return nil, fmt.Errorf("failed to read instruction data: %w", err)
	}
	decoded, err := Decode(data)
	if err != nil {
		return nil, err
	}

	d.logger.Debug("Executing instruction", zap.String("instruction", decoded.Name()))

	out := &Outcome{Instruction: decoded.Name()}
	if args, ok := decoded.(Initialize); ok {
		return out, d.svc.Initialize(args.Fees)
	}

	mint, user, err := d.poolAccounts(ix.Accounts())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", decoded.Name(), err)
	}

	switch args := decoded.(type) {
	case CreatePool:
		out.Pool, err = d.svc.CreatePoolAndSeed(ctx, user, mint, args.TokenAmount)
	case Buy:
		out.Trade, err = d.svc.Buy(ctx, mint, user, args.InAmount)
	case Sell:
		out.Trade, err = d.svc.Sell(ctx, mint, user, args.InAmount)
	case RaydiumMigrate:
		// Any signer may migrate and receives the liquidity; who is allowed
		// to is decided by the host.
		out.Migration, err = d.svc.Migrate(ctx, mint, user, args.Nonce, args.OpenTime)
	default:
		return nil, fmt.Errorf("%s: %w", decoded.Name(), ErrUnknownInstruction)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// poolAccounts checks the derived accounts against the mint and returns the
// mint and the signing user.
func (d *Dispatcher) poolAccounts(metas []*solana.AccountMeta) (solana.PublicKey, solana.PublicKey, error) {
	if len(metas) <= accUser {
		return solana.PublicKey{}, solana.PublicKey{}, ErrMissingAccounts
	}
	mint := metas[accMint].PublicKey
	user := metas[accUser]
	if !user.IsSigner {
		return solana.PublicKey{}, solana.PublicKey{}, ErrMissingSignature
	}

	want, err := DerivePoolAccounts(d.svc.ProgramID(), mint)
	if err != nil {
		return solana.PublicKey{}, solana.PublicKey{}, err
	}
	userATA, _, err := solana.FindAssociatedTokenAddress(user.PublicKey, mint)
	if err != nil {
		return solana.PublicKey{}, solana.PublicKey{}, err
	}

	checks := []struct {
		name string
		pos  int
		want solana.PublicKey
	}{
		{"configuration", accConfiguration, want.Configuration},
		{"pool", accPool, want.Pool},
		{"pool token account", accPoolTokenAccount, want.PoolTokenAccount},
		{"sol vault", accSolVault, want.SolVault},
		{"user token account", accUserTokenAccount, userATA},
	}
	for _, c := range checks {
		if got := metas[c.pos].PublicKey; !got.Equals(c.want) {
			return solana.PublicKey{}, solana.PublicKey{}, fmt.Errorf("%s %s: %w", c.name, got, ErrAccountMismatch)
		}
	}
	return mint, user.PublicKey, nil
}
