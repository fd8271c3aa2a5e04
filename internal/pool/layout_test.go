package pool

import (
	"crypto/sha256"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayoutRoundTrip(t *testing.T) {
	p := &LiquidityPool{
		Creator:      solana.NewWallet().PublicKey(),
		Token:        solana.NewWallet().PublicKey(),
		TotalSupply:  1_000_000_000_000_000_000,
		ReserveToken: 893_600_204_786_900_000,
		ReserveSol:   11_000_000,
		Bump:         254,
	}

	data, err := p.MarshalBinary()
	require.NoError(t, err)
	assert.Len(t, data, AccountSize)
	assert.Equal(t, 97, AccountSize)

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, p, decoded)
}

func TestLayoutFieldOffsets(t *testing.T) {
	p := &LiquidityPool{TotalSupply: 1, ReserveToken: 2, ReserveSol: 3, Bump: 7}
	data, err := p.MarshalBinary()
	require.NoError(t, err)

	// little-endian u64s follow the two 32-byte keys
	assert.Equal(t, byte(1), data[72])
	assert.Equal(t, byte(2), data[80])
	assert.Equal(t, byte(3), data[88])
	assert.Equal(t, byte(7), data[96])
}

func TestDecodeRejectsBadData(t *testing.T) {
	data, err := New(solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey(), 1).MarshalBinary()
	require.NoError(t, err)

	_, err = Decode(data[:AccountSize-1])
	assert.ErrorContains(t, err, "too short")

	corrupt := append([]byte(nil), data...)
	corrupt[0] ^= 0xff
	_, err = Decode(corrupt)
	assert.ErrorContains(t, err, "discriminator")
}

func TestAccountDiscriminator(t *testing.T) {
	sum := sha256.Sum256([]byte("account:LiquidityPool"))
	assert.Equal(t, sum[:8], PoolDiscriminator[:])
	assert.NotEqual(t, PoolDiscriminator, AccountDiscriminator("CurveConfiguration"))
}
