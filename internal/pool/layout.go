// =============================
// File: internal/pool/layout.go
// =============================
package pool

import (
	"bytes"
	"crypto/sha256"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// AccountSize is the on-chain size of a pool account:
// discriminator (8) + creator (32) + token (32) + total supply (8)
// + reserve token (8) + reserve sol (8) + bump (1).
const AccountSize = 8 + 32 + 32 + 8 + 8 + 8 + 1

// PoolDiscriminator prefixes every encoded pool account.
var PoolDiscriminator = AccountDiscriminator("LiquidityPool")

// AccountDiscriminator returns the Anchor account discriminator for name.
func AccountDiscriminator(name string) [8]byte {
	hash := sha256.Sum256([]byte("account:" + name))
	var out [8]byte
	copy(out[:], hash[:8])
	return out
}

type poolLayout struct {
	Creator      solana.PublicKey
	Token        solana.PublicKey
	TotalSupply  uint64
	ReserveToken uint64
	ReserveSol   uint64
	Bump         uint8
}

// MarshalBinary encodes the pool as account data.
func (p *LiquidityPool) MarshalBinary() ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.Grow(AccountSize)
	buf.Write(PoolDiscriminator[:])

	layout := poolLayout{
		Creator:      p.Creator,
		Token:        p.Token,
		TotalSupply:  p.TotalSupply,
		ReserveToken: p.ReserveToken,
		ReserveSol:   p.ReserveSol,
		Bump:         p.Bump,
	}
	if err := bin.NewBorshEncoder(buf).Encode(layout); err != nil {
		return nil, fmt.Errorf("failed to encode pool: %w", err)
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary decodes account data into the pool.
func (p *LiquidityPool) UnmarshalBinary(data []byte) error {
	if len(data) < AccountSize {
		return fmt.Errorf("pool account data too short: %d bytes", len(data))
	}
	if !bytes.Equal(data[:8], PoolDiscriminator[:]) {
		return fmt.Errorf("invalid pool account discriminator: %x", data[:8])
	}

	var layout poolLayout
	if err := bin.NewBorshDecoder(data[8:AccountSize]).Decode(&layout); err != nil {
		return fmt.Errorf("failed to decode pool: %w", err)
	}

	*p = LiquidityPool{
		Creator:      layout.Creator,
		Token:        layout.Token,
		TotalSupply:  layout.TotalSupply,
		ReserveToken: layout.ReserveToken,
		ReserveSol:   layout.ReserveSol,
		Bump:         layout.Bump,
	}
	return nil
}

// Decode parses pool account data.
func Decode(data []byte) (*LiquidityPool, error) {
	p := &LiquidityPool{}
	if err := p.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return p, nil
}
