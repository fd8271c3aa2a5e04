// =============================
// File: internal/market/service.go
// =============================
package market

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/pumpcurve/internal/config"
	"github.com/rovshanmuradov/pumpcurve/internal/curve"
	"github.com/rovshanmuradov/pumpcurve/internal/events"
	"github.com/rovshanmuradov/pumpcurve/internal/ledger"
	"github.com/rovshanmuradov/pumpcurve/internal/logger"
	"github.com/rovshanmuradov/pumpcurve/internal/pool"
	"github.com/rovshanmuradov/pumpcurve/internal/storage"
	"github.com/rovshanmuradov/pumpcurve/internal/storage/models"
	"github.com/rovshanmuradov/pumpcurve/internal/utils/metrics"
)

var (
	ErrNotInitialized     = errors.New("curve configuration not initialized")
	ErrAlreadyInitialized = errors.New("curve configuration already initialized")
	ErrPoolExists         = errors.New("pool already exists")
	ErrPoolNotFound       = errors.New("pool not found")
	ErrPoolMigrated       = errors.New("pool has migrated")
	ErrNotPoolCreator     = errors.New("signer is not the pool creator")
)

// Options wires the collaborators of a Service. Bus and Metrics are optional.
type Options struct {
	Ledger         *ledger.Ledger
	Storage        storage.Storage
	Bus            *events.Bus
	Metrics        *metrics.Collector
	Logger         *logger.Logger
	InitialFunding uint64 // lamports the creator deposits when seeding
}

// Service runs pools on top of a custody ledger. Calls on the same pool are
// serialized; calls on different pools only meet inside the ledger.
type Service struct {
	programID solana.PublicKey
	ledger    *ledger.Ledger
	store     storage.Storage
	bus       *events.Bus
	metrics   *metrics.Collector
	log       *logger.Logger
	funding   uint64

	cfgMu    sync.RWMutex
	curveCfg *config.CurveConfiguration

	locksMu sync.Mutex
	locks   map[solana.PublicKey]*sync.Mutex
}

// PoolInfo is a read-only view of a stored pool.
type PoolInfo struct {
	Addresses pool.Addresses
	Pool      *pool.LiquidityPool
	Migrated  bool
	SpotPrice float64 // lamports per token base unit
	Progress  float64 // sold fraction of the seeded supply
}

func New(opts Options) (*Service, error) {
	if opts.Ledger == nil {
		return nil, errors.New("market: ledger is required")
	}
	if opts.Storage == nil {
		return nil, errors.New("market: storage is required")
	}
	if opts.Logger == nil {
		opts.Logger = logger.Wrap(zap.NewNop())
	}
	if opts.InitialFunding == 0 {
		opts.InitialFunding = curve.InitialLamportsForPool
	}

	return &Service{
		programID: opts.Ledger.ProgramID(),
		ledger:    opts.Ledger,
		store:     opts.Storage,
		bus:       opts.Bus,
		metrics:   opts.Metrics,
		log:       opts.Logger,
		funding:   opts.InitialFunding,
		locks:     make(map[solana.PublicKey]*sync.Mutex),
	}, nil
}

// ProgramID returns the program pool addresses are derived under.
func (s *Service) ProgramID() solana.PublicKey {
	return s.programID
}

// Initialize installs the program-wide curve configuration. It may run once.
func (s *Service) Initialize(fees float64) error {
	cc, err := config.NewCurveConfiguration(fees)
	if err != nil {
		return err
	}

	s.cfgMu.Lock()
	defer s.cfgMu.Unlock()
	if s.curveCfg != nil {
		return ErrAlreadyInitialized
	}
	s.curveCfg = &cc

	s.log.Info("Curve configuration initialized", zap.Float64("fee_percent", fees))
	return nil
}

// FeePercent returns the configured fee.
func (s *Service) FeePercent() (float64, error) {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	if s.curveCfg == nil {
		return 0, ErrNotInitialized
	}
	return s.curveCfg.FeePercent(), nil
}

// Pool returns the pool trading mint.
func (s *Service) Pool(ctx context.Context, mint solana.PublicKey) (*PoolInfo, error) {
	addrs, err := pool.DeriveAddresses(s.programID, mint)
	if err != nil {
		return nil, err
	}
	rec, p, err := s.load(ctx, addrs.Pool)
	if err != nil {
		return nil, err
	}
	return newPoolInfo(addrs, p, rec.Migrated), nil
}

// Pools lists every pool in creation order.
func (s *Service) Pools(ctx context.Context) ([]*PoolInfo, error) {
	recs, err := s.store.ListPools(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list pools: %w", err)
	}

	out := make([]*PoolInfo, 0, len(recs))
	for _, rec := range recs {
		p, err := rec.Pool()
		if err != nil {
			return nil, err
		}
		addrs, err := pool.DeriveAddresses(s.programID, p.Token)
		if err != nil {
			return nil, err
		}
		out = append(out, newPoolInfo(addrs, p, rec.Migrated))
	}
	return out, nil
}

// Trades lists the trades of the pool trading mint, newest first.
func (s *Service) Trades(ctx context.Context, mint solana.PublicKey, limit, offset int) ([]*models.Trade, error) {
	addr, _, err := pool.DerivePool(s.programID, mint)
	if err != nil {
		return nil, err
	}
	return s.store.ListTrades(ctx, addr.String(), limit, offset)
}

// QuoteBuy prices a buy without settling it.
func (s *Service) QuoteBuy(ctx context.Context, mint solana.PublicKey, amount uint64) (curve.BuyQuote, error) {
	info, err := s.tradable(ctx, mint)
	if err != nil {
		return curve.BuyQuote{}, err
	}
	return curve.QuoteBuy(info.Pool.Reserves(), amount)
}

// QuoteSell prices a sell without settling it.
func (s *Service) QuoteSell(ctx context.Context, mint solana.PublicKey, amount uint64) (curve.SellQuote, error) {
	info, err := s.tradable(ctx, mint)
	if err != nil {
		return curve.SellQuote{}, err
	}
	return curve.QuoteSell(info.Pool.Reserves(), amount)
}

func (s *Service) tradable(ctx context.Context, mint solana.PublicKey) (*PoolInfo, error) {
	info, err := s.Pool(ctx, mint)
	if err != nil {
		return nil, err
	}
	if info.Migrated {
		return nil, ErrPoolMigrated
	}
	if !info.Pool.Seeded() {
		return nil, pool.ErrPoolNotSeeded
	}
	return info, nil
}

func (s *Service) load(ctx context.Context, address solana.PublicKey) (*models.PoolRecord, *pool.LiquidityPool, error) {
	rec, err := s.store.GetPool(ctx, address.String())
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil, fmt.Errorf("%s: %w", address, ErrPoolNotFound)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load pool: %w", err)
	}
	p, err := rec.Pool()
	if err != nil {
		return nil, nil, err
	}
	return rec, p, nil
}

// lockPool serializes every mutation of the pool trading mint.
func (s *Service) lockPool(mint solana.PublicKey) (unlock func()) {
	s.locksMu.Lock()
	m, ok := s.locks[mint]
	if !ok {
		m = &sync.Mutex{}
		s.locks[mint] = m
	}
	s.locksMu.Unlock()

	m.Lock()
	return m.Unlock
}

func (s *Service) publish(ev events.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ev); err != nil {
		s.log.Warn("Failed to publish event", zap.String("event_type", string(ev.Type())), zap.Error(err))
	}
}

func newPoolInfo(addrs pool.Addresses, p *pool.LiquidityPool, migrated bool) *PoolInfo {
	info := &PoolInfo{
		Addresses: addrs,
		Pool:      p,
		Migrated:  migrated,
		Progress:  curve.Progress(p.Reserves()),
	}
	if p.Seeded() {
		if price, err := curve.SpotPrice(p.Reserves()); err == nil {
			info.SpotPrice = price
		}
	}
	return info
}
