// internal/storage/models/pool.go
package models

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/pumpcurve/internal/pool"
)

// PoolRecord is a persisted pool account. Data holds the encoded account and
// is authoritative; the other columns are kept for querying.
type PoolRecord struct {
	BaseModel
	Address      string `gorm:"unique;not null;type:varchar(44)"`
	Mint         string `gorm:"unique;not null;type:varchar(44)"`
	Creator      string `gorm:"index;not null;type:varchar(44)"`
	TotalSupply  uint64 `gorm:"not null;default:0"`
	ReserveToken uint64 `gorm:"not null;default:0"`
	ReserveSol   uint64 `gorm:"not null;default:0"`
	Bump         uint8  `gorm:"not null"`
	Migrated     bool   `gorm:"not null;default:false"`
	Data         []byte `gorm:"type:bytea;not null"`
}

// NewPoolRecord snapshots p stored at address.
func NewPoolRecord(address solana.PublicKey, p *pool.LiquidityPool, migrated bool) (*PoolRecord, error) {
	data, err := p.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return &PoolRecord{
		Address:      address.String(),
		Mint:         p.Token.String(),
		Creator:      p.Creator.String(),
		TotalSupply:  p.TotalSupply,
		ReserveToken: p.ReserveToken,
		ReserveSol:   p.ReserveSol,
		Bump:         p.Bump,
		Migrated:     migrated,
		Data:         data,
	}, nil
}

// Pool decodes the stored account.
func (r *PoolRecord) Pool() (*pool.LiquidityPool, error) {
	p, err := pool.Decode(r.Data)
	if err != nil {
		return nil, fmt.Errorf("pool record %s: %w", r.Address, err)
	}
	return p, nil
}
