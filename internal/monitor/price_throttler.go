package monitor

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// PriceThrottler forwards price updates at most once per interval. Updates
// arriving in between replace the pending one.
type PriceThrottler struct {
	mu             sync.RWMutex
	updateInterval time.Duration
	lastUpdate     time.Time
	pendingUpdate  *PriceUpdate
	outputCh       chan<- PriceUpdate
	logger         *zap.Logger

	now func() time.Time

	droppedUpdates uint64
	sentUpdates    uint64
}

// NewPriceThrottler sends onto outputCh without blocking.
func NewPriceThrottler(updateInterval time.Duration, outputCh chan<- PriceUpdate, logger *zap.Logger) *PriceThrottler {
	return &PriceThrottler{
		updateInterval: updateInterval,
		outputCh:       outputCh,
		logger:         logger,
		now:            time.Now,
	}
}

// SendPriceUpdate sends update or keeps it pending when throttled.
func (pt *PriceThrottler) SendPriceUpdate(update PriceUpdate) {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	now := pt.now()

	if now.Sub(pt.lastUpdate) < pt.updateInterval {
		pt.pendingUpdate = &update
		pt.droppedUpdates++
		pt.logger.Debug("Price update throttled",
			zap.String("pool", update.Pool),
			zap.Float64("price", update.Current),
			zap.Duration("timeSinceLastUpdate", now.Sub(pt.lastUpdate)))
		return
	}

	select {
	case pt.outputCh <- update:
		pt.lastUpdate = now
		pt.sentUpdates++
		pt.pendingUpdate = nil
		pt.logger.Debug("Price update sent",
			zap.Float64("price", update.Current),
			zap.Float64("percent", update.Percent))
	default:
		pt.pendingUpdate = &update
		pt.droppedUpdates++
		pt.logger.Warn("Price update channel full, storing as pending",
			zap.String("pool", update.Pool),
			zap.Float64("price", update.Current))
	}
}

// FlushPending sends the pending update once the interval has passed.
// Call it periodically so the last update is not lost.
func (pt *PriceThrottler) FlushPending() {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	if pt.pendingUpdate == nil {
		return
	}

	now := pt.now()
	if now.Sub(pt.lastUpdate) >= pt.updateInterval {
		select {
		case pt.outputCh <- *pt.pendingUpdate:
			pt.lastUpdate = now
			pt.sentUpdates++
			pt.logger.Debug("Pending price update flushed",
				zap.Float64("price", pt.pendingUpdate.Current))
			pt.pendingUpdate = nil
		default:
			pt.logger.Debug("Cannot flush pending update, channel still full")
		}
	}
}

// GetStats returns how many updates were sent and held back.
func (pt *PriceThrottler) GetStats() (sent, dropped uint64) {
	pt.mu.RLock()
	defer pt.mu.RUnlock()
	return pt.sentUpdates, pt.droppedUpdates
}

func (pt *PriceThrottler) GetLastUpdate() time.Time {
	pt.mu.RLock()
	defer pt.mu.RUnlock()
	return pt.lastUpdate
}

func (pt *PriceThrottler) HasPendingUpdate() bool {
	pt.mu.RLock()
	defer pt.mu.RUnlock()
	return pt.pendingUpdate != nil
}
