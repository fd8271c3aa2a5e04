// =============================
// File: internal/market/trade.go
// =============================
package market

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/pumpcurve/internal/curve"
	"github.com/rovshanmuradov/pumpcurve/internal/events"
	"github.com/rovshanmuradov/pumpcurve/internal/ledger"
	"github.com/rovshanmuradov/pumpcurve/internal/pool"
	"github.com/rovshanmuradov/pumpcurve/internal/storage/models"
)

// TradeResult reports a settled trade.
type TradeResult struct {
	TradeID    string
	Side       string
	AmountIn   uint64
	AmountOut  uint64
	After      curve.Reserves
	SpotPrice  float64
	FeePercent float64 // recorded only, pricing does not charge it
}

// settleFunc runs one pool operation against an open ledger transaction and
// returns the amount paid out.
type settleFunc func(ctx context.Context, p *pool.LiquidityPool, tx *ledger.Tx, acc pool.TradeAccounts) (uint64, error)

// Buy spends amount lamports of trader on tokens of mint.
func (s *Service) Buy(ctx context.Context, mint, trader solana.PublicKey, amount uint64) (*TradeResult, error) {
	return s.trade(ctx, models.SideBuy, mint, trader, amount,
		func(ctx context.Context, p *pool.LiquidityPool, tx *ledger.Tx, acc pool.TradeAccounts) (uint64, error) {
			q, err := p.Buy(ctx, tx, acc, amount)
			return q.TokensOut, err
		})
}

// Sell returns amount tokens of mint from trader to the pool for lamports.
func (s *Service) Sell(ctx context.Context, mint, trader solana.PublicKey, amount uint64) (*TradeResult, error) {
	return s.trade(ctx, models.SideSell, mint, trader, amount,
		func(ctx context.Context, p *pool.LiquidityPool, tx *ledger.Tx, acc pool.TradeAccounts) (uint64, error) {
			q, err := p.Sell(ctx, tx, acc, amount)
			return q.SolOut, err
		})
}

// trade settles on a copy of the pool inside a ledger transaction. The pool
// and the trade are stored before the ledger commits; any failure rolls the
// ledger back and leaves the stored pool as it was.
func (s *Service) trade(ctx context.Context, side string, mint, trader solana.PublicKey, amount uint64, settle settleFunc) (*TradeResult, error) {
	start := time.Now()
	tradeID := uuid.NewString()

	unlock := s.lockPool(mint)
	defer unlock()

	addrs, err := pool.DeriveAddresses(s.programID, mint)
	if err != nil {
		return nil, err
	}
	log := s.log.WithPool(addrs.Pool, mint).With(
		zap.String("trade_id", tradeID),
		zap.String("side", side),
		zap.Stringer("trader", trader),
		zap.Uint64("amount_in", amount),
	)

	fee, err := s.FeePercent()
	if err != nil {
		return nil, err
	}

	rec, current, err := s.load(ctx, addrs.Pool)
	if err != nil {
		return nil, err
	}

	result, err := s.settle(ctx, side, tradeID, addrs, rec, current, trader, amount, fee, settle)
	elapsed := time.Since(start)
	if s.metrics != nil {
		s.metrics.RecordTrade(ctx, side, elapsed, err)
	}
	if err != nil {
		log.Warn("Trade failed", zap.Error(err))
		s.recordFailure(ctx, side, tradeID, addrs, current, trader, amount, fee, elapsed, err)
		return nil, err
	}

	log.Info("Trade executed",
		zap.Uint64("amount_out", result.AmountOut),
		zap.Uint64("reserve_token", result.After.ReserveToken),
		zap.Uint64("reserve_sol", result.After.ReserveSol),
		zap.Float64("fee_percent", fee),
		zap.Duration("elapsed", elapsed))
	s.publish(events.TradeExecutedEvent{
		BaseEvent:    events.NewBase(events.TradeExecuted),
		TradeID:      tradeID,
		Pool:         addrs.Pool.String(),
		Mint:         mint.String(),
		Trader:       trader.String(),
		Side:         side,
		AmountIn:     amount,
		AmountOut:    result.AmountOut,
		ReserveToken: result.After.ReserveToken,
		ReserveSol:   result.After.ReserveSol,
		SpotPrice:    result.SpotPrice,
	})
	if s.metrics != nil {
		s.metrics.UpdatePoolReserves(addrs.Pool.String(), result.After.ReserveToken, result.After.ReserveSol)
	}

	return result, nil
}

func (s *Service) settle(
	ctx context.Context,
	side, tradeID string,
	addrs pool.Addresses,
	rec *models.PoolRecord,
	current *pool.LiquidityPool,
	trader solana.PublicKey,
	amount uint64,
	fee float64,
	settle settleFunc,
) (*TradeResult, error) {
	if rec.Migrated {
		return nil, ErrPoolMigrated
	}

	p := current.Clone()
	tx := s.ledger.Begin()
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	traderATA, err := tx.EnsureTokenAccount(trader, p.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to open trader token account: %w", err)
	}

	out, err := settle(ctx, p, tx, pool.TradeAccounts{
		Trader:             trader,
		TraderTokenAccount: traderATA,
		PoolTokenAccount:   addrs.PoolTokenAccount,
		SolVault:           addrs.SolVault,
		SolVaultBump:       addrs.SolVaultBump,
	})
	if err != nil {
		return nil, err
	}

	poolRec, err := models.NewPoolRecord(addrs.Pool, p, false)
	if err != nil {
		return nil, err
	}
	trade := &models.Trade{
		TradeID:      tradeID,
		Pool:         addrs.Pool.String(),
		Mint:         p.Token.String(),
		Trader:       trader.String(),
		Side:         side,
		AmountIn:     amount,
		AmountOut:    out,
		ReserveToken: p.ReserveToken,
		ReserveSol:   p.ReserveSol,
		FeePercent:   fee,
		Status:       models.TradeStatusSuccess,
	}
	if err := s.store.RecordTrade(ctx, poolRec, trade); err != nil {
		return nil, fmt.Errorf("failed to record trade: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	price, _ := curve.SpotPrice(p.Reserves())
	return &TradeResult{
		TradeID:    tradeID,
		Side:       side,
		AmountIn:   amount,
		AmountOut:  out,
		After:      p.Reserves(),
		SpotPrice:  price,
		FeePercent: fee,
	}, nil
}

// recordFailure stores the rejected attempt against the unchanged reserves.
func (s *Service) recordFailure(
	ctx context.Context,
	side, tradeID string,
	addrs pool.Addresses,
	current *pool.LiquidityPool,
	trader solana.PublicKey,
	amount uint64,
	fee float64,
	elapsed time.Duration,
	cause error,
) {
	code, _ := curve.CodeOf(cause)
	trade := &models.Trade{
		TradeID:       tradeID,
		Pool:          addrs.Pool.String(),
		Mint:          current.Token.String(),
		Trader:        trader.String(),
		Side:          side,
		AmountIn:      amount,
		ReserveToken:  current.ReserveToken,
		ReserveSol:    current.ReserveSol,
		FeePercent:    fee,
		Status:        models.TradeStatusFailed,
		ErrorCode:     code,
		ErrorMessage:  cause.Error(),
		ExecutionTime: float64(elapsed.Microseconds()) / 1000,
	}
	if ctx.Err() == nil {
		if err := s.store.SaveTrade(ctx, trade); err != nil {
			s.log.Warn("Failed to record failed trade", zap.String("trade_id", tradeID), zap.Error(err))
		}
	}

	s.publish(events.TradeFailedEvent{
		BaseEvent: events.NewBase(events.TradeFailed),
		TradeID:   tradeID,
		Pool:      addrs.Pool.String(),
		Mint:      current.Token.String(),
		Trader:    trader.String(),
		Side:      side,
		AmountIn:  amount,
		Err:       cause,
	})
}
