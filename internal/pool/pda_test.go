package pool

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveAddressesDeterministic(t *testing.T) {
	f := newFixture(t)

	again, err := DeriveAddresses(f.programID, f.mint)
	require.NoError(t, err)
	assert.Equal(t, f.addrs, again)

	other, err := DeriveAddresses(f.programID, solana.NewWallet().PublicKey())
	require.NoError(t, err)
	assert.NotEqual(t, f.addrs.Pool, other.Pool)
	assert.NotEqual(t, f.addrs.Pool, f.addrs.SolVault)
}

func TestPoolAuthorityResolvesToPoolAddress(t *testing.T) {
	f := newFixture(t)
	p := New(f.creator, f.mint, f.addrs.PoolBump)

	addr, err := p.Authority().Resolve(f.programID)
	require.NoError(t, err)
	assert.Equal(t, f.addrs.Pool, addr)

	ata, _, err := solana.FindAssociatedTokenAddress(addr, f.mint)
	require.NoError(t, err)
	assert.Equal(t, f.addrs.PoolTokenAccount, ata)
}

func TestSolVaultAuthorityResolvesToVault(t *testing.T) {
	f := newFixture(t)

	addr, err := SolVaultAuthority(f.mint, f.addrs.SolVaultBump).Resolve(f.programID)
	require.NoError(t, err)
	assert.Equal(t, f.addrs.SolVault, addr)
}

func TestDeriveConfigurationAndGlobal(t *testing.T) {
	f := newFixture(t)

	cfg, _, err := DeriveConfiguration(f.programID)
	require.NoError(t, err)
	global, _, err := DeriveGlobal(f.programID)
	require.NoError(t, err)
	assert.NotEqual(t, cfg, global)
}
