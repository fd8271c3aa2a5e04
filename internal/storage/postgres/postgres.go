// internal/storage/postgres/postgres.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rovshanmuradov/pumpcurve/internal/storage"
	"github.com/rovshanmuradov/pumpcurve/internal/storage/models"
)

const migrationLockID = 7301

// postgresStorage implements storage.Storage on gorm.
type postgresStorage struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewStorage connects to dsn, retrying up to retries extra times with
// exponential backoff.
func NewStorage(ctx context.Context, dsn string, retries int, zapLogger *zap.Logger) (storage.Storage, error) {
	gormLogger := newGormLogger(zapLogger.Named("gorm"))

	connect := func() (*gorm.DB, error) {
		db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger: gormLogger,
			NowFunc: func() time.Time {
				return time.Now().UTC()
			},
			DisableForeignKeyConstraintWhenMigrating: true,
			SkipDefaultTransaction:                   true,
		})
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, backoff.Permanent(fmt.Errorf("failed to get database instance: %w", err))
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			_ = sqlDB.Close()
			return nil, err
		}
		return db, nil
	}

	notify := func(err error, d time.Duration) {
		zapLogger.Warn("Database connection failed, retrying", zap.Error(err), zap.Duration("backoff", d))
	}

	db, err := backoff.Retry(ctx, connect,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(uint(retries)+1),
		backoff.WithNotify(notify))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return &postgresStorage{
		db:     db,
		logger: zapLogger,
	}, nil
}

// RunMigrations applies AutoMigrate under an advisory lock.
func (p *postgresStorage) RunMigrations() error {
	var lockObtained bool
	err := p.db.Raw("SELECT pg_try_advisory_lock(?)", migrationLockID).Scan(&lockObtained).Error
	if err != nil {
		return fmt.Errorf("failed to acquire migration lock: %w", err)
	}
	if !lockObtained {
		return fmt.Errorf("another migration is in progress")
	}
	defer p.db.Exec("SELECT pg_advisory_unlock(?)", migrationLockID)

	err = p.db.AutoMigrate(
		&models.PoolRecord{},
		&models.Trade{},
		&models.Migration{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func (p *postgresStorage) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (p *postgresStorage) SavePool(ctx context.Context, pool *models.PoolRecord) error {
	return upsertPool(p.db.WithContext(ctx), pool)
}

func (p *postgresStorage) GetPool(ctx context.Context, address string) (*models.PoolRecord, error) {
	var rec models.PoolRecord
	err := p.db.WithContext(ctx).Where("address = ?", address).First(&rec).Error
	if err != nil {
		return nil, notFound(err, "pool "+address)
	}
	return &rec, nil
}

func (p *postgresStorage) ListPools(ctx context.Context) ([]*models.PoolRecord, error) {
	var recs []*models.PoolRecord
	err := p.db.WithContext(ctx).Order("id asc").Find(&recs).Error
	return recs, err
}

func (p *postgresStorage) RecordTrade(ctx context.Context, pool *models.PoolRecord, trade *models.Trade) error {
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := upsertPool(tx, pool); err != nil {
			return err
		}
		return tx.Create(trade).Error
	})
}

func (p *postgresStorage) SaveTrade(ctx context.Context, trade *models.Trade) error {
	return p.db.WithContext(ctx).Create(trade).Error
}

func (p *postgresStorage) ListTrades(ctx context.Context, pool string, limit, offset int) ([]*models.Trade, error) {
	var trades []*models.Trade
	q := p.db.WithContext(ctx).
		Where("pool = ?", pool).
		Order("id desc").
		Offset(offset)
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&trades).Error
	return trades, err
}

func (p *postgresStorage) RecordMigration(ctx context.Context, pool *models.PoolRecord, migration *models.Migration) error {
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := upsertPool(tx, pool); err != nil {
			return err
		}
		return tx.Create(migration).Error
	})
}

func (p *postgresStorage) GetMigration(ctx context.Context, pool string) (*models.Migration, error) {
	var rec models.Migration
	err := p.db.WithContext(ctx).Where("pool = ?", pool).First(&rec).Error
	if err != nil {
		return nil, notFound(err, "migration of "+pool)
	}
	return &rec, nil
}

func upsertPool(db *gorm.DB, pool *models.PoolRecord) error {
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "address"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"total_supply", "reserve_token", "reserve_sol", "migrated", "data", "updated_at",
		}),
	}).Create(pool).Error
}

func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, storage.ErrNotFound)
	}
	return err
}
