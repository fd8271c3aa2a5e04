package main

import (
	"bytes"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rovshanmuradov/pumpcurve/internal/config"
	"github.com/rovshanmuradov/pumpcurve/internal/pool"
	"github.com/rovshanmuradov/pumpcurve/internal/program"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestQuoteBuy(t *testing.T) {
	out, err := execute(t, "quote", "buy",
		"--reserve-token", "900000000000000000",
		"--reserve-sol", "10000000",
		"--amount", "1000000")
	require.NoError(t, err)
	assert.Contains(t, out, "paid:          0.001 SOL")
	assert.Contains(t, out, "reserve sol:   11000000")
}

func TestQuoteBuyInSOL(t *testing.T) {
	out, err := execute(t, "quote", "buy", "--sol", "0.001",
		"--reserve-token", "900000000000000000")
	require.NoError(t, err)
	assert.Contains(t, out, "paid:          0.001 SOL")
}

func TestQuoteSellTooBig(t *testing.T) {
	_, err := execute(t, "quote", "sell",
		"--reserve-token", "100",
		"--amount", "101")
	assert.Error(t, err)
}

func TestDerive(t *testing.T) {
	mint := solana.NewWallet().PublicKey()
	out, err := execute(t, "derive", "--program", config.DefaultProgramID, "--mint", mint.String())
	require.NoError(t, err)

	acc, err := program.DerivePoolAccounts(solana.MustPublicKeyFromBase58(config.DefaultProgramID), mint)
	require.NoError(t, err)
	assert.Contains(t, out, acc.Pool.String())
	assert.Contains(t, out, acc.SolVault.String())
}

func TestDecode(t *testing.T) {
	p := pool.New(solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey(), 254)
	p.TotalSupply = 1_000_000_000
	p.ReserveToken = 500_000_000
	p.ReserveSol = 2_000_000_000
	data, err := p.MarshalBinary()
	require.NoError(t, err)

	out, err := execute(t, "decode", "--data", base64.StdEncoding.EncodeToString(data))
	require.NoError(t, err)
	assert.Contains(t, out, "LiquidityPool")
	assert.Contains(t, out, "2 SOL")
	assert.Contains(t, out, "bump:          254")

	data, err = program.Encode(program.Buy{InAmount: 42})
	require.NoError(t, err)
	out, err = execute(t, "decode", "--data", base64.StdEncoding.EncodeToString(data))
	require.NoError(t, err)
	assert.Contains(t, out, "instruction:   buy")

	_, err = execute(t, "decode", "--data", "!!!")
	assert.Error(t, err)

	out, err = execute(t, "decode", "--code", "6005")
	require.NoError(t, err)
	assert.Contains(t, out, "TokenAmountToSellTooBig")
	assert.Contains(t, out, "token amount to sell is too big")

	_, err = execute(t, "decode", "--code", "7000")
	assert.Error(t, err)
	_, err = execute(t, "decode")
	assert.Error(t, err)
}

func TestSimulate(t *testing.T) {
	dir := t.TempDir()
	scenarioPath := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(scenarioPath, []byte(`
pools:
  - name: demo
    supply: 900000000000000000
    steps:
      - trader: alice
        operation: buy
        amount: 1000000
`), 0o600))
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("log_file: \"\"\n"), 0o600))

	exportDir := filepath.Join(dir, "export")
	out, err := execute(t, "simulate", "--config", cfgPath, "--scenario", scenarioPath,
		"--export-dir", exportDir, "--export-format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, "demo")
	assert.Contains(t, out, "alice paid 0.001 SOL")

	files, err := filepath.Glob(filepath.Join(exportDir, "trades_all_*.json"))
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestSimulateWatch(t *testing.T) {
	dir := t.TempDir()
	scenarioPath := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(scenarioPath, []byte(`
pools:
  - name: demo
    supply: 900000000000000000
    steps:
      - trader: alice
        operation: buy
        amount: 1000000
      - trader: alice
        operation: buy
        amount: 2000000
`), 0o600))
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("log_file: \"\"\n"), 0o600))

	out, err := execute(t, "simulate", "--config", cfgPath, "--scenario", scenarioPath, "--watch", "1ms")
	require.NoError(t, err)
	assert.Regexp(t, `\d{2}:\d{2}:\d{2}\.\d{3} \S+ price \S+ \+`, out)
	assert.Contains(t, out, "alice paid 0.001 SOL")
}
