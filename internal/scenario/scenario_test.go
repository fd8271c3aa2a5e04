package scenario

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rovshanmuradov/pumpcurve/internal/curve"
	"github.com/rovshanmuradov/pumpcurve/internal/ledger"
	"github.com/rovshanmuradov/pumpcurve/internal/logger"
	"github.com/rovshanmuradov/pumpcurve/internal/market"
	"github.com/rovshanmuradov/pumpcurve/internal/storage/memory"
)

const sampleScenario = `
fees: 1.5
pools:
  - name: alpha
    supply: 900000000000000000
    traders:
      - name: alice
        lamports: 5000000000
      - name: bob
    steps:
      - trader: alice
        operation: buy
        amount: 1000000
      - trader: bob
        operation: buy
        amount: 2000000
      - trader: alice
        operation: sell
        percent: 50
      - trader: alice
        operation: sell
        amount: 1000000000000000000
      - trader: carol
        operation: migrate
      - trader: bob
        operation: buy
        amount: 1000
  - name: beta
    supply: 900000000000000000
    steps:
      - trader: dave
        operation: buy
        amount: 500000
      - trader: dave
        operation: swap
        amount: 5
`

func TestParse(t *testing.T) {
	sc, err := NewLoader(zaptest.NewLogger(t)).Parse([]byte(sampleScenario))
	require.NoError(t, err)

	require.NotNil(t, sc.Fees)
	assert.Equal(t, 1.5, *sc.Fees)
	require.Len(t, sc.Pools, 2)

	alpha := sc.Pools[0]
	assert.Equal(t, uint64(900_000_000_000_000_000), alpha.Supply)
	assert.Equal(t, uint64(5_000_000_000), alpha.Traders["alice"])
	assert.Equal(t, uint64(DefaultTraderLamports), alpha.Traders["bob"])
	assert.Equal(t, uint64(DefaultTraderLamports), alpha.Traders["carol"], "step-only traders are funded")
	require.Len(t, alpha.Steps, 6)
	assert.Equal(t, OperationSell, alpha.Steps[2].Operation)
	assert.Equal(t, 50.0, alpha.Steps[2].Percent)

	// the swap step is skipped
	assert.Len(t, sc.Pools[1].Steps, 1)
}

func TestParseFees(t *testing.T) {
	loader := NewLoader(zaptest.NewLogger(t))
	const pools = "pools:\n  - name: a\n    supply: 1000\n"

	sc, err := loader.Parse([]byte("fees: 0\n" + pools))
	require.NoError(t, err)
	require.NotNil(t, sc.Fees, "an explicit zero fee is kept")
	assert.Zero(t, *sc.Fees)

	sc, err = loader.Parse([]byte(pools))
	require.NoError(t, err)
	assert.Nil(t, sc.Fees)
}

func TestRunZeroFees(t *testing.T) {
	sc, err := NewLoader(zaptest.NewLogger(t)).Parse([]byte("fees: 0\npools:\n  - name: a\n    supply: 1000\n"))
	require.NoError(t, err)

	runner, svc := newRunner(t)
	_, err = runner.Run(context.Background(), sc)
	require.NoError(t, err)

	fee, err := svc.FeePercent()
	require.NoError(t, err)
	assert.Zero(t, fee)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"invalid yaml", "pools: ["},
		{"no pools", "fees: 1"},
		{"missing supply", "pools:\n  - name: a\n"},
		{"missing name", "pools:\n  - supply: 10\n"},
		{"duplicate pool", "pools:\n  - name: a\n    supply: 1\n  - name: a\n    supply: 2\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLoader(zaptest.NewLogger(t)).Parse([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestParseSkipsSellWithoutSize(t *testing.T) {
	data := "pools:\n  - name: a\n    supply: 10\n    steps:\n      - trader: x\n        operation: sell\n      - trader: x\n        operation: sell\n        percent: 120\n"
	sc, err := NewLoader(zaptest.NewLogger(t)).Parse([]byte(data))
	require.NoError(t, err)
	assert.Empty(t, sc.Pools[0].Steps)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleScenario), 0o600))

	sc, err := NewLoader(zaptest.NewLogger(t)).LoadYAML(path)
	require.NoError(t, err)
	assert.Len(t, sc.Pools, 2)

	_, err = NewLoader(zaptest.NewLogger(t)).LoadYAML(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSellAmount(t *testing.T) {
	assert.Equal(t, uint64(50), sellAmount(100, 50))
	assert.Equal(t, uint64(33), sellAmount(100, 33.9))
	assert.Equal(t, uint64(7), sellAmount(7, 100))
	assert.Equal(t, uint64(0), sellAmount(0, 10))
}

func newRunner(t *testing.T) (*Runner, *market.Service) {
	t.Helper()
	zl := zaptest.NewLogger(t)
	programID := solana.MustPublicKeyFromBase58("BDeQaWDdyQoGDWfvNrrc2ovCKCoxrRyQHZsDAiHuAuHV")
	l := ledger.New(programID, zl)
	svc, err := market.New(market.Options{
		Ledger:  l,
		Storage: memory.NewStorage(),
		Logger:  logger.Wrap(zl),
	})
	require.NoError(t, err)
	return NewRunner(RunnerOptions{Service: svc, Ledger: l, Logger: zl, Workers: 2}), svc
}

func TestRun(t *testing.T) {
	sc, err := NewLoader(zaptest.NewLogger(t)).Parse([]byte(sampleScenario))
	require.NoError(t, err)

	runner, svc := newRunner(t)
	report, err := runner.Run(context.Background(), sc)
	require.NoError(t, err)

	fee, err := svc.FeePercent()
	require.NoError(t, err)
	assert.Equal(t, 1.5, fee)

	require.Len(t, report.Pools, 2)
	alpha := report.Pools[0]
	assert.Equal(t, "alpha", alpha.Name)
	require.Len(t, alpha.Steps, 6)

	buy := alpha.Steps[0]
	require.NoError(t, buy.Err)
	require.NotNil(t, buy.Trade)
	assert.Greater(t, buy.Trade.AmountOut, uint64(0))

	half := alpha.Steps[2]
	require.NoError(t, half.Err)
	assert.Equal(t, buy.Trade.AmountOut/2, half.Amount)

	oversell := alpha.Steps[3]
	code, ok := curve.CodeOf(oversell.Err)
	require.True(t, ok)
	assert.Equal(t, curve.ErrTokenAmountToSellTooBig.Code, code)

	migrate := alpha.Steps[4]
	require.NoError(t, migrate.Err)
	require.NotNil(t, migrate.Migration)

	afterMigration := alpha.Steps[5]
	assert.ErrorIs(t, afterMigration.Err, market.ErrPoolMigrated)

	assert.Equal(t, 2, alpha.Failures())
	assert.True(t, alpha.Final.Migrated)
	assert.Equal(t, buy.Trade.AmountOut-half.Amount, alpha.Tokens["alice"])
	assert.Equal(t, migrate.Migration.Withdrawal.Lamports+DefaultTraderLamports, alpha.Lamports["carol"])

	beta := report.Pools[1]
	assert.Equal(t, 0, beta.Failures())
	assert.False(t, beta.Final.Migrated)
	assert.Equal(t, beta.Steps[0].Trade.AmountOut, beta.Tokens["dave"])
}

func TestRunCanceled(t *testing.T) {
	sc, err := NewLoader(zaptest.NewLogger(t)).Parse([]byte(sampleScenario))
	require.NoError(t, err)

	runner, _ := newRunner(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = runner.Run(ctx, sc)
	assert.ErrorIs(t, err, context.Canceled)
}
