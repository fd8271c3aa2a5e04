// internal/storage/memory/memory.go
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rovshanmuradov/pumpcurve/internal/storage"
	"github.com/rovshanmuradov/pumpcurve/internal/storage/models"
)

// memoryStorage keeps every record in process memory. Records are copied on
// the way in and out so callers never share state with the store.
type memoryStorage struct {
	mu         sync.RWMutex
	nextID     uint
	pools      map[string]*models.PoolRecord
	trades     []*models.Trade
	tradeIDs   map[string]struct{}
	migrations map[string]*models.Migration
	now        func() time.Time
}

func NewStorage() storage.Storage {
	return &memoryStorage{
		pools:      make(map[string]*models.PoolRecord),
		tradeIDs:   make(map[string]struct{}),
		migrations: make(map[string]*models.Migration),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (m *memoryStorage) RunMigrations() error { return nil }

func (m *memoryStorage) Close() error { return nil }

func (m *memoryStorage) SavePool(ctx context.Context, pool *models.PoolRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putPool(pool)
	return nil
}

func (m *memoryStorage) GetPool(ctx context.Context, address string) (*models.PoolRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.pools[address]
	if !ok {
		return nil, fmt.Errorf("pool %s: %w", address, storage.ErrNotFound)
	}
	return copyPool(rec), nil
}

func (m *memoryStorage) ListPools(ctx context.Context) ([]*models.PoolRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.PoolRecord, 0, len(m.pools))
	for _, rec := range m.pools {
		out = append(out, copyPool(rec))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memoryStorage) RecordTrade(ctx context.Context, pool *models.PoolRecord, trade *models.Trade) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkTrade(trade); err != nil {
		return err
	}
	m.putPool(pool)
	m.putTrade(trade)
	return nil
}

func (m *memoryStorage) SaveTrade(ctx context.Context, trade *models.Trade) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkTrade(trade); err != nil {
		return err
	}
	m.putTrade(trade)
	return nil
}

// ListTrades returns the trades of pool, newest first.
func (m *memoryStorage) ListTrades(ctx context.Context, pool string, limit, offset int) ([]*models.Trade, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*models.Trade
	skipped := 0
	for i := len(m.trades) - 1; i >= 0; i-- {
		t := m.trades[i]
		if t.Pool != pool {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		if limit > 0 && len(out) >= limit {
			break
		}
		c := *t
		out = append(out, &c)
	}
	return out, nil
}

func (m *memoryStorage) RecordMigration(ctx context.Context, pool *models.PoolRecord, migration *models.Migration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.migrations[migration.Pool]; ok {
		return fmt.Errorf("pool %s already migrated", migration.Pool)
	}
	m.putPool(pool)
	c := *migration
	m.stamp(&c.BaseModel)
	m.migrations[c.Pool] = &c
	*migration = c
	return nil
}

func (m *memoryStorage) GetMigration(ctx context.Context, pool string) (*models.Migration, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.migrations[pool]
	if !ok {
		return nil, fmt.Errorf("migration of %s: %w", pool, storage.ErrNotFound)
	}
	c := *rec
	return &c, nil
}

func (m *memoryStorage) checkTrade(trade *models.Trade) error {
	if _, ok := m.tradeIDs[trade.TradeID]; ok {
		return fmt.Errorf("trade %s already recorded", trade.TradeID)
	}
	return nil
}

// putPool upserts by address and writes the assigned ID back to the caller's record.
func (m *memoryStorage) putPool(pool *models.PoolRecord) {
	c := copyPool(pool)
	if prev, ok := m.pools[c.Address]; ok {
		c.ID = prev.ID
		c.CreatedAt = prev.CreatedAt
		c.UpdatedAt = m.now()
	} else {
		m.stamp(&c.BaseModel)
	}
	m.pools[c.Address] = c
	pool.BaseModel = c.BaseModel
}

func (m *memoryStorage) putTrade(trade *models.Trade) {
	c := *trade
	m.stamp(&c.BaseModel)
	m.trades = append(m.trades, &c)
	m.tradeIDs[c.TradeID] = struct{}{}
	trade.BaseModel = c.BaseModel
}

func (m *memoryStorage) stamp(b *models.BaseModel) {
	m.nextID++
	now := m.now()
	b.ID = m.nextID
	b.CreatedAt = now
	b.UpdatedAt = now
}

func copyPool(rec *models.PoolRecord) *models.PoolRecord {
	c := *rec
	c.Data = append([]byte(nil), rec.Data...)
	return &c
}
