// =============================
// File: internal/market/lifecycle.go
// =============================
package market

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/pumpcurve/internal/events"
	"github.com/rovshanmuradov/pumpcurve/internal/ledger"
	"github.com/rovshanmuradov/pumpcurve/internal/pool"
	"github.com/rovshanmuradov/pumpcurve/internal/storage"
	"github.com/rovshanmuradov/pumpcurve/internal/storage/models"
)

// MigrationResult reports a completed migration.
type MigrationResult struct {
	Pool        solana.PublicKey
	Destination solana.PublicKey
	Withdrawal  pool.Withdrawal
}

// CreatePool opens an unseeded pool for mint owned by creator.
func (s *Service) CreatePool(ctx context.Context, creator, mint solana.PublicKey) (*PoolInfo, error) {
	return s.createPool(ctx, creator, mint, false, 0)
}

// CreatePoolAndSeed opens the pool for mint and seeds it with tokenSupply
// inside one ledger transaction. The pool record is stored only once the
// seed deposit has settled, so a failed call can simply be retried.
func (s *Service) CreatePoolAndSeed(ctx context.Context, creator, mint solana.PublicKey, tokenSupply uint64) (*PoolInfo, error) {
	return s.createPool(ctx, creator, mint, true, tokenSupply)
}

func (s *Service) createPool(ctx context.Context, creator, mint solana.PublicKey, seed bool, tokenSupply uint64) (*PoolInfo, error) {
	if _, err := s.FeePercent(); err != nil {
		return nil, err
	}

	unlock := s.lockPool(mint)
	defer unlock()

	addrs, err := pool.DeriveAddresses(s.programID, mint)
	if err != nil {
		return nil, err
	}
	log := s.log.WithPool(addrs.Pool, mint)

	if _, err := s.store.GetPool(ctx, addrs.Pool.String()); err == nil {
		return nil, fmt.Errorf("%s: %w", addrs.Pool, ErrPoolExists)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("failed to check pool: %w", err)
	}

	p := pool.New(creator, mint, addrs.PoolBump)

	tx := s.ledger.Begin()
	if _, err := tx.EnsureTokenAccount(addrs.Pool, mint); err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to open pool token account: %w", err)
	}
	if seed {
		if err := s.addLiquidity(ctx, tx, addrs, p, creator, tokenSupply); err != nil {
			tx.Rollback()
			log.Warn("Seeding failed", zap.Uint64("token_supply", tokenSupply), zap.Error(err))
			return nil, err
		}
	}
	if err := s.save(ctx, addrs.Pool, p); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	log.Info("Pool created", zap.Stringer("creator", creator))
	s.publish(events.PoolCreatedEvent{
		BaseEvent: events.NewBase(events.PoolCreated),
		Pool:      addrs.Pool.String(),
		Mint:      mint.String(),
		Creator:   creator.String(),
	})
	if s.metrics != nil {
		if recs, err := s.store.ListPools(ctx); err == nil {
			s.metrics.SetPools(len(recs))
		}
	}
	if seed {
		s.seeded(log, addrs, p)
	}

	return newPoolInfo(addrs, p, false), nil
}

// Seed adds the initial liquidity to a pool opened with CreatePool:
// tokenSupply tokens from the creator's token account plus the configured
// SOL funding.
func (s *Service) Seed(ctx context.Context, creator, mint solana.PublicKey, tokenSupply uint64) (*PoolInfo, error) {
	unlock := s.lockPool(mint)
	defer unlock()

	addrs, err := pool.DeriveAddresses(s.programID, mint)
	if err != nil {
		return nil, err
	}
	log := s.log.WithPool(addrs.Pool, mint)

	rec, current, err := s.load(ctx, addrs.Pool)
	if err != nil {
		return nil, err
	}
	if rec.Migrated {
		return nil, ErrPoolMigrated
	}
	if !current.Creator.Equals(creator) {
		return nil, ErrNotPoolCreator
	}

	p := current.Clone()
	tx := s.ledger.Begin()
	err = s.addLiquidity(ctx, tx, addrs, p, creator, tokenSupply)
	if err == nil {
		err = s.save(ctx, addrs.Pool, p)
	}
	if err != nil {
		tx.Rollback()
		log.Warn("Seeding failed", zap.Uint64("token_supply", tokenSupply), zap.Error(err))
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.seeded(log, addrs, p)
	return newPoolInfo(addrs, p, false), nil
}

func (s *Service) addLiquidity(ctx context.Context, tx *ledger.Tx, addrs pool.Addresses, p *pool.LiquidityPool, creator solana.PublicKey, tokenSupply uint64) error {
	end := s.log.TrackPerformance("seed")
	defer end()

	creatorATA, _, err := solana.FindAssociatedTokenAddress(creator, p.Token)
	if err != nil {
		return err
	}
	return p.AddLiquidity(ctx, tx, pool.SeedAccounts{
		Creator:             creator,
		CreatorTokenAccount: creatorATA,
		PoolTokenAccount:    addrs.PoolTokenAccount,
		SolVault:            addrs.SolVault,
	}, tokenSupply, s.funding)
}

func (s *Service) seeded(log *zap.Logger, addrs pool.Addresses, p *pool.LiquidityPool) {
	log.Info("Pool seeded",
		zap.Uint64("reserve_token", p.ReserveToken),
		zap.Uint64("reserve_sol", p.ReserveSol))
	s.publish(events.PoolSeededEvent{
		BaseEvent:    events.NewBase(events.PoolSeeded),
		Pool:         addrs.Pool.String(),
		Mint:         p.Token.String(),
		TotalSupply:  p.TotalSupply,
		ReserveToken: p.ReserveToken,
		ReserveSol:   p.ReserveSol,
	})
	if s.metrics != nil {
		s.metrics.UpdatePoolReserves(addrs.Pool.String(), p.ReserveToken, p.ReserveSol)
	}
}

// Migrate withdraws all pool liquidity to destination and closes the pool
// for trading. nonce and openTime are recorded for the migration target.
func (s *Service) Migrate(ctx context.Context, mint, destination solana.PublicKey, nonce uint8, openTime uint64) (*MigrationResult, error) {
	unlock := s.lockPool(mint)
	defer unlock()

	addrs, err := pool.DeriveAddresses(s.programID, mint)
	if err != nil {
		return nil, err
	}
	log := s.log.WithPool(addrs.Pool, mint)

	rec, current, err := s.load(ctx, addrs.Pool)
	if err != nil {
		return nil, err
	}
	if rec.Migrated {
		return nil, ErrPoolMigrated
	}

	p := current.Clone()
	tx := s.ledger.Begin()
	destATA, err := tx.EnsureTokenAccount(destination, mint)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	w, err := p.RemoveLiquidity(ctx, tx, pool.WithdrawAccounts{
		PoolTokenAccount:        addrs.PoolTokenAccount,
		SolVault:                addrs.SolVault,
		SolVaultBump:            addrs.SolVaultBump,
		Destination:             destination,
		DestinationTokenAccount: destATA,
	})
	var poolRec *models.PoolRecord
	if err == nil {
		poolRec, err = models.NewPoolRecord(addrs.Pool, p, true)
	}
	if err == nil {
		err = s.store.RecordMigration(ctx, poolRec, &models.Migration{
			Pool:        addrs.Pool.String(),
			Mint:        mint.String(),
			Destination: destination.String(),
			Tokens:      w.Tokens,
			Lamports:    w.Lamports,
			Nonce:       nonce,
			OpenTime:    openTime,
		})
	}
	if err != nil {
		tx.Rollback()
		log.Warn("Migration failed", zap.Error(err))
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	log.Info("Pool migrated",
		zap.Stringer("destination", destination),
		zap.Uint64("tokens", w.Tokens),
		zap.Uint64("lamports", w.Lamports))
	s.publish(events.PoolMigratedEvent{
		BaseEvent:   events.NewBase(events.PoolMigrated),
		Pool:        addrs.Pool.String(),
		Mint:        mint.String(),
		Destination: destination.String(),
		Tokens:      w.Tokens,
		Lamports:    w.Lamports,
	})
	if s.metrics != nil {
		s.metrics.UpdatePoolReserves(addrs.Pool.String(), 0, 0)
	}

	return &MigrationResult{Pool: addrs.Pool, Destination: destination, Withdrawal: w}, nil
}

func (s *Service) save(ctx context.Context, address solana.PublicKey, p *pool.LiquidityPool) error {
	rec, err := models.NewPoolRecord(address, p, false)
	if err != nil {
		return err
	}
	if err := s.store.SavePool(ctx, rec); err != nil {
		return fmt.Errorf("failed to save pool: %w", err)
	}
	return nil
}
