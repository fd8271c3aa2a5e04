// =============================================
// File: internal/scenario/runner.go
// =============================================
package scenario

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rovshanmuradov/pumpcurve/internal/config"
	"github.com/rovshanmuradov/pumpcurve/internal/curve"
	"github.com/rovshanmuradov/pumpcurve/internal/ledger"
	"github.com/rovshanmuradov/pumpcurve/internal/market"
	"github.com/rovshanmuradov/pumpcurve/internal/program"
)

// Runner replays scenarios through program instructions. Pools run
// concurrently, the steps of one pool run in order.
type Runner struct {
	svc        *market.Service
	ledger     *ledger.Ledger
	dispatcher *program.Dispatcher
	logger     *zap.Logger
	funding    uint64
	workers    int
}

// RunnerOptions configures a Runner. Workers caps how many pools run at once;
// zero means one per pool.
type RunnerOptions struct {
	Service        *market.Service
	Ledger         *ledger.Ledger
	Logger         *zap.Logger
	InitialFunding uint64
	Workers        int
}

func NewRunner(opts RunnerOptions) *Runner {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if opts.InitialFunding == 0 {
		opts.InitialFunding = curve.InitialLamportsForPool
	}
	return &Runner{
		svc:        opts.Service,
		ledger:     opts.Ledger,
		dispatcher: program.NewDispatcher(opts.Service, log),
		logger:     log.Named("scenario"),
		funding:    opts.InitialFunding,
		workers:    opts.Workers,
	}
}

// StepResult is the outcome of one scripted step.
type StepResult struct {
	Trader    string
	Operation OperationType
	Amount    uint64
	Trade     *market.TradeResult
	Migration *market.MigrationResult
	Err       error
}

// PoolReport collects what happened to one pool.
type PoolReport struct {
	Name    string
	Mint    solana.PublicKey
	Creator solana.PublicKey
	Steps   []StepResult
	Final   *market.PoolInfo
	// Balances are the lamports and tokens every trader ends with.
	Lamports map[string]uint64
	Tokens   map[string]uint64
}

// Failures counts the steps that were rejected.
func (p *PoolReport) Failures() int {
	n := 0
	for _, s := range p.Steps {
		if s.Err != nil {
			n++
		}
	}
	return n
}

// Report is the result of a scenario run, in scenario order.
type Report struct {
	Pools []*PoolReport
}

// Run initializes the curve configuration if needed and replays every pool.
// A scenario without fees initializes with config.DefaultFees.
// A rejected step is recorded in the report and does not stop the pool;
// only setup errors and context cancellation abort the run.
func (r *Runner) Run(ctx context.Context, sc *Scenario) (*Report, error) {
	fees := config.DefaultFees
	if sc.Fees != nil {
		fees = *sc.Fees
	}
	if err := r.initialize(ctx, fees); err != nil {
		return nil, err
	}

	report := &Report{Pools: make([]*PoolReport, len(sc.Pools))}
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	if r.workers > 0 {
		g.SetLimit(r.workers)
	}
	for i, p := range sc.Pools {
		g.Go(func() error {
			pr, err := r.runPool(ctx, p)
			if err != nil {
				return fmt.Errorf("pool %s: %w", p.Name, err)
			}
			mu.Lock()
			report.Pools[i] = pr
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return report, nil
}

func (r *Runner) initialize(ctx context.Context, fees float64) error {
	if _, err := r.svc.FeePercent(); err == nil {
		return nil
	}
	admin := solana.NewWallet().PublicKey()
	ix, err := program.BuildInitialize(r.svc.ProgramID(), admin, fees)
	if err != nil {
		return err
	}
	if _, err := r.dispatcher.Execute(ctx, ix); err != nil && !errors.Is(err, market.ErrAlreadyInitialized) {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	return nil
}

func (r *Runner) runPool(ctx context.Context, p *Pool) (*PoolReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	mint := solana.NewWallet().PublicKey()
	creator := solana.NewWallet().PublicKey()
	log := r.logger.With(zap.String("pool", p.Name), zap.String("mint", mint.String()))

	acc, err := program.DerivePoolAccounts(r.svc.ProgramID(), mint)
	if err != nil {
		return nil, err
	}

	if _, err := r.ledger.MintTo(mint, creator, p.Supply); err != nil {
		return nil, fmt.Errorf("failed to mint supply: %w", err)
	}
	if err := r.ledger.Airdrop(creator, r.funding); err != nil {
		return nil, fmt.Errorf("failed to fund creator: %w", err)
	}

	traders := make(map[string]solana.PublicKey, len(p.Traders))
	for name, lamports := range p.Traders {
		key := solana.NewWallet().PublicKey()
		if err := r.ledger.Airdrop(key, lamports); err != nil {
			return nil, fmt.Errorf("failed to fund %s: %w", name, err)
		}
		traders[name] = key
	}

	ix, err := program.BuildCreatePool(acc, creator, p.Supply)
	if err != nil {
		return nil, err
	}
	if _, err := r.dispatcher.Execute(ctx, ix); err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	log.Info("Pool created", zap.Uint64("supply", p.Supply))

	pr := &PoolReport{
		Name:     p.Name,
		Mint:     mint,
		Creator:  creator,
		Lamports: make(map[string]uint64, len(traders)),
		Tokens:   make(map[string]uint64, len(traders)),
	}

	for _, step := range p.Steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res := r.runStep(ctx, acc, traders[step.Trader], step)
		if res.Err != nil {
			fields := []zap.Field{
				zap.String("trader", step.Trader),
				zap.String("operation", string(step.Operation)),
				zap.Error(res.Err),
			}
			if code, ok := curve.CodeOf(res.Err); ok {
				fields = append(fields, zap.Uint32("code", code))
			}
			log.Warn("Step rejected", fields...)
		}
		pr.Steps = append(pr.Steps, res)
	}

	if pr.Final, err = r.svc.Pool(ctx, mint); err != nil {
		return nil, err
	}
	for name, key := range traders {
		pr.Lamports[name], _ = r.ledger.NativeBalance(ctx, key)
		pr.Tokens[name] = r.holdings(ctx, key, mint)
	}
	return pr, nil
}

func (r *Runner) runStep(ctx context.Context, acc program.PoolAccounts, trader solana.PublicKey, step Step) StepResult {
	res := StepResult{Trader: step.Trader, Operation: step.Operation, Amount: step.Amount}

	var ix solana.Instruction
	var err error
	switch step.Operation {
	case OperationBuy:
		ix, err = program.BuildBuy(acc, trader, step.Amount)
	case OperationSell:
		if res.Amount == 0 {
			res.Amount = sellAmount(r.holdings(ctx, trader, acc.Mint), step.Percent)
		}
		ix, err = program.BuildSell(acc, trader, res.Amount)
	case OperationMigrate:
		ix, err = program.BuildRaydiumMigrate(acc, trader, 0, 0)
	default:
		err = fmt.Errorf("unsupported operation: %q", step.Operation)
	}
	if err != nil {
		res.Err = err
		return res
	}

	out, err := r.dispatcher.Execute(ctx, ix)
	if err != nil {
		res.Err = err
		return res
	}
	res.Trade = out.Trade
	res.Migration = out.Migration
	return res
}

func (r *Runner) holdings(ctx context.Context, owner, mint solana.PublicKey) uint64 {
	ata, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return 0
	}
	amount, err := r.ledger.TokenBalance(ctx, ata)
	if err != nil {
		return 0
	}
	return amount
}

// sellAmount is percent of held, floored.
func sellAmount(held uint64, percent float64) uint64 {
	if percent >= 100 {
		return held
	}
	return uint64(math.Floor(float64(held) * percent / 100))
}
