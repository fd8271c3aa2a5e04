package main

import (
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/pumpcurve/internal/monitor"
	"github.com/rovshanmuradov/pumpcurve/internal/ui"
)

// priceWatch prints throttled price updates while a scenario runs.
type priceWatch struct {
	throttler *monitor.PriceThrottler
	updates   chan monitor.PriceUpdate
	done      chan struct{}
	wg        sync.WaitGroup
	stopOnce  sync.Once
	out       io.Writer
	logger    *zap.Logger
}

func startPriceWatch(interval time.Duration, out io.Writer, logger *zap.Logger) *priceWatch {
	w := &priceWatch{
		updates: make(chan monitor.PriceUpdate, 64),
		done:    make(chan struct{}),
		out:     out,
		logger:  logger.Named("watch"),
	}
	w.throttler = monitor.NewPriceThrottler(interval, w.updates, w.logger)

	w.wg.Add(1)
	go w.loop(interval)
	return w
}

func (w *priceWatch) loop(interval time.Duration) {
	defer w.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case u := <-w.updates:
			fmt.Fprintln(w.out, ui.RenderPriceUpdate(u))
		case <-ticker.C:
			w.throttler.FlushPending()
		case <-w.done:
			for {
				select {
				case u := <-w.updates:
					fmt.Fprintln(w.out, ui.RenderPriceUpdate(u))
				default:
					return
				}
			}
		}
	}
}

// stop prints what is still queued and waits for the loop to exit. A pending
// update left in the throttler is superseded by the final price table.
// Calls after the first do nothing.
func (w *priceWatch) stop() {
	w.stopOnce.Do(w.shutdown)
}

func (w *priceWatch) shutdown() {
	close(w.done)
	w.wg.Wait()

	sent, dropped := w.throttler.GetStats()
	w.logger.Debug("Price watch stopped",
		zap.Uint64("sent", sent),
		zap.Uint64("throttled", dropped),
		zap.Bool("pending", w.throttler.HasPendingUpdate()),
		zap.Time("last_update", w.throttler.GetLastUpdate()))
}
