package pool

import (
	"context"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rovshanmuradov/pumpcurve/internal/curve"
	"github.com/rovshanmuradov/pumpcurve/internal/custody"
)

type transferCall struct {
	kind   string
	from   solana.PublicKey
	to     solana.PublicKey
	amount uint64
	auth   custody.Authority
}

// recordingCustody accepts every transfer unless failOn matches the call index.
type recordingCustody struct {
	calls    []transferCall
	failOn   int
	balances map[solana.PublicKey]uint64
}

func newRecordingCustody() *recordingCustody {
	return &recordingCustody{failOn: -1, balances: make(map[solana.PublicKey]uint64)}
}

var errTransferRejected = errors.New("transfer rejected")

func (c *recordingCustody) record(call transferCall) error {
	idx := len(c.calls)
	c.calls = append(c.calls, call)
	if idx == c.failOn {
		return errTransferRejected
	}
	return nil
}

func (c *recordingCustody) TransferToken(_ context.Context, from, to solana.PublicKey, amount uint64, auth custody.Authority) error {
	return c.record(transferCall{kind: "token", from: from, to: to, amount: amount, auth: auth})
}

func (c *recordingCustody) TransferNative(_ context.Context, from, to solana.PublicKey, amount uint64, auth custody.Authority) error {
	return c.record(transferCall{kind: "native", from: from, to: to, amount: amount, auth: auth})
}

func (c *recordingCustody) TokenBalance(_ context.Context, account solana.PublicKey) (uint64, error) {
	return c.balances[account], nil
}

func (c *recordingCustody) NativeBalance(_ context.Context, account solana.PublicKey) (uint64, error) {
	return c.balances[account], nil
}

type fixture struct {
	programID solana.PublicKey
	creator   solana.PublicKey
	trader    solana.PublicKey
	mint      solana.PublicKey
	addrs     Addresses
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	f := fixture{
		programID: solana.MustPublicKeyFromBase58("BDeQaWDdyQoGDWfvNrrc2ovCKCoxrRyQHZsDAiHuAuHV"),
		creator:   solana.NewWallet().PublicKey(),
		trader:    solana.NewWallet().PublicKey(),
		mint:      solana.NewWallet().PublicKey(),
	}
	addrs, err := DeriveAddresses(f.programID, f.mint)
	require.NoError(t, err)
	f.addrs = addrs
	return f
}

func (f fixture) tradeAccounts() TradeAccounts {
	return TradeAccounts{
		Trader:             f.trader,
		TraderTokenAccount: solana.NewWallet().PublicKey(),
		PoolTokenAccount:   f.addrs.PoolTokenAccount,
		SolVault:           f.addrs.SolVault,
		SolVaultBump:       f.addrs.SolVaultBump,
	}
}

// seededPool mirrors the reference scenario: 90% of the scaled supply in the vault.
func (f fixture) seededPool() *LiquidityPool {
	p := New(f.creator, f.mint, f.addrs.PoolBump)
	p.TotalSupply = 1_000_000_000_000_000_000
	p.ReserveToken = 900_000_000_000_000_000
	p.ReserveSol = 10_000_000
	return p
}

func mustBytes(t *testing.T, p *LiquidityPool) []byte {
	t.Helper()
	data, err := p.MarshalBinary()
	require.NoError(t, err)
	return data
}

func TestAddLiquidity(t *testing.T) {
	f := newFixture(t)
	c := newRecordingCustody()
	p := New(f.creator, f.mint, f.addrs.PoolBump)
	acc := SeedAccounts{
		Creator:             f.creator,
		CreatorTokenAccount: solana.NewWallet().PublicKey(),
		PoolTokenAccount:    f.addrs.PoolTokenAccount,
		SolVault:            f.addrs.SolVault,
	}

	err := p.AddLiquidity(context.Background(), c, acc, 900_000_000_000_000_000, curve.InitialLamportsForPool)
	require.NoError(t, err)

	assert.True(t, p.Seeded())
	assert.Equal(t, curve.TotalSupplyScaled, p.TotalSupply)
	assert.Equal(t, uint64(900_000_000_000_000_000), p.ReserveToken)
	assert.Equal(t, curve.InitialLamportsForPool, p.ReserveSol)
	require.NoError(t, p.Validate())

	require.Len(t, c.calls, 2)
	assert.Equal(t, "token", c.calls[0].kind)
	assert.Equal(t, acc.CreatorTokenAccount, c.calls[0].from)
	assert.Equal(t, f.creator, c.calls[0].auth.Signer)
	assert.Equal(t, "native", c.calls[1].kind)
	assert.Equal(t, f.addrs.SolVault, c.calls[1].to)
	assert.Equal(t, curve.InitialLamportsForPool, c.calls[1].amount)

	// seeding exactly once
	before := mustBytes(t, p)
	err = p.AddLiquidity(context.Background(), c, acc, 1, 1)
	assert.ErrorIs(t, err, ErrPoolAlreadySeeded)
	assert.Equal(t, before, mustBytes(t, p))
	assert.Len(t, c.calls, 2)
}

func TestAddLiquidityRejectsBadSupply(t *testing.T) {
	f := newFixture(t)
	c := newRecordingCustody()

	for _, supply := range []uint64{0, curve.TotalSupplyScaled + 1} {
		p := New(f.creator, f.mint, f.addrs.PoolBump)
		err := p.AddLiquidity(context.Background(), c, SeedAccounts{Creator: f.creator}, supply, 1)
		assert.ErrorIs(t, err, curve.ErrInvalidAmount)
		assert.False(t, p.Seeded())
	}
	assert.Empty(t, c.calls)
}

func TestAddLiquidityTransferFailureLeavesPoolUnseeded(t *testing.T) {
	f := newFixture(t)
	c := newRecordingCustody()
	c.failOn = 1
	p := New(f.creator, f.mint, f.addrs.PoolBump)

	err := p.AddLiquidity(context.Background(), c, SeedAccounts{Creator: f.creator}, 1_000, 1_000)
	assert.ErrorIs(t, err, errTransferRejected)
	assert.False(t, p.Seeded())
}

func TestBuy(t *testing.T) {
	f := newFixture(t)
	c := newRecordingCustody()
	p := f.seededPool()
	acc := f.tradeAccounts()

	q, err := p.Buy(context.Background(), c, acc, 1_000_000)
	require.NoError(t, err)

	assert.Equal(t, uint64(10_000_000+1_000_000), p.ReserveSol)
	assert.Equal(t, uint64(900_000_000_000_000_000)-q.TokensOut, p.ReserveToken)
	require.NoError(t, p.Validate())

	require.Len(t, c.calls, 2)
	in, out := c.calls[0], c.calls[1]
	assert.Equal(t, "native", in.kind)
	assert.Equal(t, f.trader, in.from)
	assert.Equal(t, f.addrs.SolVault, in.to)
	assert.Equal(t, uint64(1_000_000), in.amount)

	assert.Equal(t, "token", out.kind)
	assert.Equal(t, f.addrs.PoolTokenAccount, out.from)
	assert.Equal(t, acc.TraderTokenAccount, out.to)
	assert.Equal(t, q.TokensOut, out.amount)
	require.True(t, out.auth.IsDerived())
	signer, err := out.auth.Resolve(f.programID)
	require.NoError(t, err)
	assert.Equal(t, f.addrs.Pool, signer)
}

func TestSell(t *testing.T) {
	f := newFixture(t)
	c := newRecordingCustody()
	p := f.seededPool()
	acc := f.tradeAccounts()

	bought, err := p.Buy(context.Background(), c, acc, 1_000_000)
	require.NoError(t, err)
	c.calls = nil

	q, err := p.Sell(context.Background(), c, acc, bought.TokensOut)
	require.NoError(t, err)
	assert.LessOrEqual(t, q.SolOut, uint64(1_000_000))
	assert.Equal(t, uint64(900_000_000_000_000_000), p.ReserveToken)

	require.Len(t, c.calls, 2)
	in, out := c.calls[0], c.calls[1]
	assert.Equal(t, "token", in.kind)
	assert.Equal(t, acc.TraderTokenAccount, in.from)
	assert.Equal(t, f.trader, in.auth.Signer)

	assert.Equal(t, "native", out.kind)
	assert.Equal(t, f.addrs.SolVault, out.from)
	assert.Equal(t, f.trader, out.to)
	assert.Equal(t, q.SolOut, out.amount)
	vault, err := out.auth.Resolve(f.programID)
	require.NoError(t, err)
	assert.Equal(t, f.addrs.SolVault, vault)
}

func TestSellTokenTransferFailureLeavesReserves(t *testing.T) {
	f := newFixture(t)
	c := newRecordingCustody()
	p := f.seededPool()
	p.ReserveSol = 1_000_000_000
	p.ReserveToken = 800_000_000_000_000_000
	before := mustBytes(t, p)

	c.failOn = 0
	_, err := p.Sell(context.Background(), c, f.tradeAccounts(), 1_000_000)
	assert.ErrorIs(t, err, errTransferRejected)
	assert.Equal(t, before, mustBytes(t, p))
}

func TestTradeGuardsLeavePoolUntouched(t *testing.T) {
	f := newFixture(t)
	acc := f.tradeAccounts()

	tests := []struct {
		name    string
		pool    func() *LiquidityPool
		run     func(p *LiquidityPool, c *recordingCustody) error
		wantErr error
	}{
		{
			name: "buy zero",
			pool: f.seededPool,
			run: func(p *LiquidityPool, c *recordingCustody) error {
				_, err := p.Buy(context.Background(), c, acc, 0)
				return err
			},
			wantErr: curve.ErrInvalidAmount,
		},
		{
			name: "sell zero",
			pool: f.seededPool,
			run: func(p *LiquidityPool, c *recordingCustody) error {
				_, err := p.Sell(context.Background(), c, acc, 0)
				return err
			},
			wantErr: curve.ErrInvalidAmount,
		},
		{
			name: "oversell",
			pool: f.seededPool,
			run: func(p *LiquidityPool, c *recordingCustody) error {
				_, err := p.Sell(context.Background(), c, acc, p.ReserveToken+1)
				return err
			},
			wantErr: curve.ErrTokenAmountToSellTooBig,
		},
		{
			name: "reserve above total supply",
			pool: func() *LiquidityPool {
				p := f.seededPool()
				p.ReserveToken = p.TotalSupply + 1
				return p
			},
			run: func(p *LiquidityPool, c *recordingCustody) error {
				_, err := p.Buy(context.Background(), c, acc, 1_000_000)
				return err
			},
			wantErr: curve.ErrOverflowOrUnderflow,
		},
		{
			name: "unseeded",
			pool: func() *LiquidityPool { return New(f.creator, f.mint, f.addrs.PoolBump) },
			run: func(p *LiquidityPool, c *recordingCustody) error {
				_, err := p.Buy(context.Background(), c, acc, 1_000_000)
				return err
			},
			wantErr: ErrPoolNotSeeded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newRecordingCustody()
			p := tt.pool()
			before := mustBytes(t, p)

			err := tt.run(p, c)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, before, mustBytes(t, p))
			assert.Empty(t, c.calls)
		})
	}
}

func TestRemoveLiquidity(t *testing.T) {
	f := newFixture(t)
	c := newRecordingCustody()
	p := f.seededPool()
	c.balances[f.addrs.PoolTokenAccount] = p.ReserveToken
	c.balances[f.addrs.SolVault] = p.ReserveSol

	dest := solana.NewWallet().PublicKey()
	w, err := p.RemoveLiquidity(context.Background(), c, WithdrawAccounts{
		PoolTokenAccount:        f.addrs.PoolTokenAccount,
		SolVault:                f.addrs.SolVault,
		SolVaultBump:            f.addrs.SolVaultBump,
		Destination:             dest,
		DestinationTokenAccount: solana.NewWallet().PublicKey(),
	})
	require.NoError(t, err)

	assert.Equal(t, Withdrawal{Tokens: 900_000_000_000_000_000, Lamports: 10_000_000}, w)
	assert.Zero(t, p.ReserveToken)
	assert.Zero(t, p.ReserveSol)
	assert.Equal(t, curve.TotalSupplyScaled, p.TotalSupply)
	require.Len(t, c.calls, 2)
	assert.Equal(t, dest, c.calls[1].to)

	_, err = New(f.creator, f.mint, 0).RemoveLiquidity(context.Background(), c, WithdrawAccounts{})
	assert.ErrorIs(t, err, ErrPoolNotSeeded)
}
