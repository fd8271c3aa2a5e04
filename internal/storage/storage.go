// internal/storage/storage.go
package storage

import (
	"context"
	"errors"

	"github.com/rovshanmuradov/pumpcurve/internal/storage/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Storage persists pools, trades and migrations.
type Storage interface {
	// Pools
	SavePool(ctx context.Context, pool *models.PoolRecord) error
	GetPool(ctx context.Context, address string) (*models.PoolRecord, error)
	ListPools(ctx context.Context) ([]*models.PoolRecord, error)

	// Trades. RecordTrade stores the pool and the trade together or neither.
	RecordTrade(ctx context.Context, pool *models.PoolRecord, trade *models.Trade) error
	SaveTrade(ctx context.Context, trade *models.Trade) error
	ListTrades(ctx context.Context, pool string, limit, offset int) ([]*models.Trade, error)

	// Migrations. RecordMigration stores the pool and the migration together or neither.
	RecordMigration(ctx context.Context, pool *models.PoolRecord, migration *models.Migration) error
	GetMigration(ctx context.Context, pool string) (*models.Migration, error)

	RunMigrations() error
	Close() error
}
