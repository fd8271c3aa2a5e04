// internal/utils/metrics/collector.go
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pumpcurve"

const (
	StatusSuccess   = "success"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"

	AssetToken = "token"
	AssetSol   = "sol"
)

// Collector owns the market metrics and the registry they are exposed from.
type Collector struct {
	registry      *prometheus.Registry
	tradesTotal   *prometheus.CounterVec
	tradeDuration *prometheus.HistogramVec
	poolReserve   *prometheus.GaugeVec
	poolsTotal    prometheus.Gauge
}

// NewCollector registers every metric on a fresh registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		tradesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "trades_total",
				Help:      "Total number of buy and sell attempts",
			},
			[]string{"side", "status"},
		),
		tradeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "trade_duration_seconds",
				Help:      "Time to price, settle and persist a trade",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 12),
			},
			[]string{"side"},
		),
		poolReserve: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "pool_reserve",
				Help:      "Current pool reserves in base units",
			},
			[]string{"pool", "asset"},
		),
		poolsTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "pools",
				Help:      "Number of pools known to the market",
			},
		),
	}

	c.registry.MustRegister(c.tradesTotal, c.tradeDuration, c.poolReserve, c.poolsTotal)
	return c
}

// RecordTrade counts a trade attempt. A cancelled context is reported as
// cancelled regardless of err.
func (c *Collector) RecordTrade(ctx context.Context, side string, duration time.Duration, err error) {
	status := StatusSuccess
	switch {
	case ctx.Err() != nil:
		status = StatusCancelled
	case err != nil:
		status = StatusFailed
	}
	c.tradesTotal.WithLabelValues(side, status).Inc()
	c.tradeDuration.WithLabelValues(side).Observe(duration.Seconds())
}

// UpdatePoolReserves publishes the current reserves of pool.
func (c *Collector) UpdatePoolReserves(pool string, reserveToken, reserveSol uint64) {
	c.poolReserve.WithLabelValues(pool, AssetToken).Set(float64(reserveToken))
	c.poolReserve.WithLabelValues(pool, AssetSol).Set(float64(reserveSol))
}

// SetPools sets the pool count.
func (c *Collector) SetPools(n int) {
	c.poolsTotal.Set(float64(n))
}

// Reset clears every labelled series.
func (c *Collector) Reset() {
	c.tradesTotal.Reset()
	c.tradeDuration.Reset()
	c.poolReserve.Reset()
	c.poolsTotal.Set(0)
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
