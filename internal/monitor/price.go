// =============================
// File: internal/monitor/price.go
// =============================
package monitor

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/pumpcurve/internal/events"
)

// PriceUpdate is a pool's spot price after a trade.
type PriceUpdate struct {
	Pool    string
	Mint    string
	Current float64 // lamports per token base unit
	Initial float64
	Percent float64 // change from Initial, floored to two decimals
	Time    time.Time
}

// PriceStats summarizes the prices a pool traded at.
type PriceStats struct {
	Pool    string
	Mint    string
	Initial float64
	Current float64
	High    float64
	Low     float64
	Percent float64
	Trades  int
	Volume  uint64 // lamports moved by buys and sells
	Updated time.Time
}

// PriceTracker follows pool prices from TradeExecuted events.
type PriceTracker struct {
	mu        sync.RWMutex
	stats     map[string]*PriceStats
	throttler *PriceThrottler
	logger    *zap.Logger
	sub       events.Subscription
}

// NewPriceTracker subscribes to bus. A non-nil throttler also receives
// every update.
func NewPriceTracker(bus *events.Bus, throttler *PriceThrottler, logger *zap.Logger) *PriceTracker {
	pt := &PriceTracker{
		stats:     make(map[string]*PriceStats),
		throttler: throttler,
		logger:    logger.Named("price"),
	}
	pt.sub = bus.SubscribeFunc(events.TradeExecuted, pt.handle)
	return pt
}

// Stop unsubscribes from the bus.
func (pt *PriceTracker) Stop() {
	pt.sub.Unsubscribe()
}

func (pt *PriceTracker) handle(_ context.Context, ev events.Event) error {
	trade, ok := ev.(events.TradeExecutedEvent)
	if !ok {
		return nil
	}
	update := pt.Observe(trade)
	if pt.throttler != nil {
		pt.throttler.SendPriceUpdate(update)
	}
	return nil
}

// Observe folds one executed trade into the pool's stats.
func (pt *PriceTracker) Observe(trade events.TradeExecutedEvent) PriceUpdate {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	s, ok := pt.stats[trade.Pool]
	if !ok {
		s = &PriceStats{
			Pool:    trade.Pool,
			Mint:    trade.Mint,
			Initial: trade.SpotPrice,
			High:    trade.SpotPrice,
			Low:     trade.SpotPrice,
		}
		pt.stats[trade.Pool] = s
	}

	s.Current = trade.SpotPrice
	s.High = math.Max(s.High, trade.SpotPrice)
	s.Low = math.Min(s.Low, trade.SpotPrice)
	s.Percent = percentChange(s.Initial, s.Current)
	s.Trades++
	s.Updated = trade.Timestamp()
	if trade.Side == "buy" {
		s.Volume += trade.AmountIn
	} else {
		s.Volume += trade.AmountOut
	}

	pt.logger.Debug("Price updated",
		zap.String("pool", trade.Pool),
		zap.Float64("price", s.Current),
		zap.Float64("percent", s.Percent))

	return PriceUpdate{
		Pool:    s.Pool,
		Mint:    s.Mint,
		Current: s.Current,
		Initial: s.Initial,
		Percent: s.Percent,
		Time:    s.Updated,
	}
}

// Stats returns a copy of the stats of pool.
func (pt *PriceTracker) Stats(pool string) (PriceStats, bool) {
	pt.mu.RLock()
	defer pt.mu.RUnlock()
	s, ok := pt.stats[pool]
	if !ok {
		return PriceStats{}, false
	}
	return *s, true
}

// All returns the stats of every observed pool ordered by pool address.
func (pt *PriceTracker) All() []PriceStats {
	pt.mu.RLock()
	defer pt.mu.RUnlock()
	out := make([]PriceStats, 0, len(pt.stats))
	for _, s := range pt.stats {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Pool < out[j].Pool })
	return out
}

func percentChange(initial, current float64) float64 {
	if initial <= 0 {
		return 0
	}
	return math.Floor((current-initial)/initial*100*100) / 100
}
