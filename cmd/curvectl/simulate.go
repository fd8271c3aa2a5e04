package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/pumpcurve/internal/config"
	"github.com/rovshanmuradov/pumpcurve/internal/events"
	"github.com/rovshanmuradov/pumpcurve/internal/export"
	"github.com/rovshanmuradov/pumpcurve/internal/ledger"
	"github.com/rovshanmuradov/pumpcurve/internal/logger"
	"github.com/rovshanmuradov/pumpcurve/internal/market"
	"github.com/rovshanmuradov/pumpcurve/internal/monitor"
	"github.com/rovshanmuradov/pumpcurve/internal/scenario"
	"github.com/rovshanmuradov/pumpcurve/internal/storage"
	"github.com/rovshanmuradov/pumpcurve/internal/storage/memory"
	"github.com/rovshanmuradov/pumpcurve/internal/storage/models"
	"github.com/rovshanmuradov/pumpcurve/internal/storage/postgres"
	"github.com/rovshanmuradov/pumpcurve/internal/ui"
	"github.com/rovshanmuradov/pumpcurve/internal/utils/metrics"
)

func newSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Replay a trading scenario against in-process pools",
		RunE:  runSimulate,
	}
	cmd.Flags().String("scenario", "", "scenario YAML file")
	cmd.Flags().Int("workers", 0, "pools replayed at once, 0 means all")
	cmd.Flags().Bool("serve", false, "keep serving metrics after the run until interrupted")
	cmd.Flags().String("export-dir", "", "write the recorded trades into this directory")
	cmd.Flags().String("export-format", string(export.FormatCSV), "trade export format (csv or json)")
	cmd.Flags().Duration("watch", 0, "print live prices at most once per interval during the run, 0 disables")
	_ = cmd.MarkFlagRequired("scenario")
	return cmd
}

func runSimulate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	path, _ := cmd.Flags().GetString("scenario")
	sc, err := scenario.NewLoader(log.Logger).LoadYAML(path)
	if err != nil {
		return err
	}

	programID, err := cfg.ProgramKey()
	if err != nil {
		return err
	}

	store, err := openStorage(ctx, cfg, log.Logger)
	if err != nil {
		return err
	}
	defer store.Close()

	bus := events.NewBus(log.Logger, cfg.EventBuffer)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = bus.Shutdown(shutdownCtx)
	}()
	bus.SubscribeFunc(events.TradeFailed, func(_ context.Context, ev events.Event) error {
		if failed, ok := ev.(events.TradeFailedEvent); ok {
			log.Debug("Trade failed",
				zap.String("pool", failed.Pool),
				zap.String("trader", failed.Trader),
				zap.Error(failed.Err))
		}
		return nil
	})

	var watch *priceWatch
	var throttler *monitor.PriceThrottler
	if interval, _ := cmd.Flags().GetDuration("watch"); interval > 0 {
		watch = startPriceWatch(interval, cmd.OutOrStdout(), log.Logger)
		defer watch.stop()
		throttler = watch.throttler
	}
	tracker := monitor.NewPriceTracker(bus, throttler, log.Logger)
	defer tracker.Stop()

	collector := metrics.NewCollector()
	if cfg.MetricsAddr != "" {
		srv := serveMetrics(cfg.MetricsAddr, collector, log)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	l := ledger.New(programID, log.WithComponent("ledger"))
	svc, err := market.New(market.Options{
		Ledger:         l,
		Storage:        store,
		Bus:            bus,
		Metrics:        collector,
		Logger:         log,
		InitialFunding: cfg.InitialFunding,
	})
	if err != nil {
		return err
	}
	if sc.Fees == nil {
		sc.Fees = &cfg.Fees
	}

	workers, _ := cmd.Flags().GetInt("workers")
	runner := scenario.NewRunner(scenario.RunnerOptions{
		Service:        svc,
		Ledger:         l,
		Logger:         log.Logger,
		InitialFunding: cfg.InitialFunding,
		Workers:        workers,
	})

	end := log.TrackPerformance("simulate")
	report, err := runner.Run(ctx, sc)
	end()

	// drain queued trade events before reading prices
	drainCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if derr := bus.Shutdown(drainCtx); derr != nil {
		log.Warn("Event bus did not drain", zap.Error(derr))
	}
	cancel()
	if watch != nil {
		watch.stop()
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), ui.RenderReport(report))
	if prices := tracker.All(); len(prices) > 0 {
		fmt.Fprintln(cmd.OutOrStdout(), ui.RenderPrices(prices))
	}

	if dir, _ := cmd.Flags().GetString("export-dir"); dir != "" {
		format, _ := cmd.Flags().GetString("export-format")
		if err := exportTrades(ctx, svc, report, dir, export.ExportFormat(format), log.Logger); err != nil {
			return err
		}
	}

	if serve, _ := cmd.Flags().GetBool("serve"); serve && cfg.MetricsAddr != "" {
		log.Info("Serving metrics until interrupted", zap.String("addr", cfg.MetricsAddr))
		<-ctx.Done()
	}
	return nil
}

func exportTrades(ctx context.Context, svc *market.Service, report *scenario.Report, dir string, format export.ExportFormat, log *zap.Logger) error {
	var trades []*models.Trade
	for _, p := range report.Pools {
		pt, err := svc.Trades(ctx, p.Mint, 0, 0)
		if err != nil {
			return fmt.Errorf("failed to list trades of %s: %w", p.Name, err)
		}
		trades = append(trades, pt...)
	}
	_, err := export.NewTradeExporter(log).ExportTrades(trades, export.ExportOptions{Format: format, OutputDir: dir})
	if errors.Is(err, export.ErrNoTrades) {
		log.Info("No trades to export")
		return nil
	}
	return err
}

func openStorage(ctx context.Context, cfg *config.Config, log *zap.Logger) (storage.Storage, error) {
	if cfg.PostgresURL == "" {
		return memory.NewStorage(), nil
	}
	store, err := postgres.NewStorage(ctx, cfg.PostgresURL, cfg.Retries, log)
	if err != nil {
		return nil, err
	}
	if err := store.RunMigrations(); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return store, nil
}

func serveMetrics(addr string, collector *metrics.Collector, log *logger.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Metrics server stopped", zap.Error(err))
		}
	}()
	return srv
}
