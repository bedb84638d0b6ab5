package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"budgetreview/internal/amqp"
	"budgetreview/internal/backend"
	"budgetreview/internal/cache"
	"budgetreview/internal/cli"
	"budgetreview/internal/dataset"
	"budgetreview/internal/gate"
	apphttp "budgetreview/internal/http"
	applog "budgetreview/internal/log"
	"budgetreview/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), os.Stdout)

	if err := run(logger); err != nil {
		logger.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func run(logger *applog.Logger) error {
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return err
	}
	rates, err := cfg.Rates()
	if err != nil {
		return err
	}

	ctx, stop := cli.SignalContext(context.Background(), logger)
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	res, err := backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Slog()).CreateBackend(ctx, backendCfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := res.Close(); err != nil {
			logger.Error("Backend cleanup failed", "error", err)
		}
	}()

	store := dataset.NewStore(res.Reader, dataset.Options{
		Rates:     rates,
		Defaults:  cfg.Defaults(),
		ViewCache: cfg.ViewCacheSize,
		ViewTTL:   cfg.ViewCacheTTL,
		Logger:    logger.WithComponent(applog.ComponentDataset).Slog(),
	})

	g := gate.New(gate.Config{Password: cfg.DashboardPassword, TTL: cfg.SessionTTL})
	if !g.Enabled() {
		logger.Warn("DASHBOARD_PASSWORD is empty, dashboard is not gated")
	}

	caches := cache.NewManager(logger.WithComponent(applog.ComponentCache).Slog())
	caches.Register("views", store.Views())
	caches.Register("sessions", g.Sessions())
	caches.StartCleanup(time.Minute)
	defer caches.Stop()

	srv := apphttp.NewServer(":"+cfg.Port, store, apphttp.Options{
		Title:      cfg.File.Dashboard.Title,
		Subtitle:   cfg.File.Dashboard.Subtitle,
		ExportName: cfg.File.Dashboard.ExportName,
		Logger:     logger,
		Gate:       g,
	})

	// Warm the snapshot so a broken source is reported at startup. The
	// server still starts and shows the error page.
	if snap, err := store.Snapshot(ctx); err != nil {
		logger.Error("Initial budget load failed", "error", err, "source", store.Source())
	} else {
		logger.Info("Budget loaded",
			applog.NewFields().WithSnapshot(snap.Source, snap.Version, len(snap.Table.Items)).ToSlice()...)
	}

	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		logger.Info("Starting budgetreview server", "port", cfg.Port, "backend", cfg.DataBackend, "gated", g.Enabled())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	eg.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cli.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
			return err
		}
		return nil
	})

	if cfg.WatchSource && res.WatchPath != "" {
		eg.Go(func() error {
			watchLogger := logger.WithComponent(applog.ComponentWatcher)
			watchLogger.Info("Watching budget source", "path", res.WatchPath)
			if err := dataset.Watch(ctx, res.WatchPath, store, watchLogger.Slog()); err != nil {
				// A missing watcher only loses live reload.
				watchLogger.Error("File watcher stopped", "error", err)
			}
			return nil
		})
	}

	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client, live reload from imports disabled", "error", err)
		} else {
			defer client.Close()
			reloader := worker.NewReloadWorker(store, logger.WithComponent(applog.ComponentWorker).Slog())
			eg.Go(func() error {
				err := client.ConsumeDatasetUpdated(ctx, reloader.HandleDatasetUpdated)
				if err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("Message consumption failed", "error", err)
				}
				return nil
			})
		}
	}

	return eg.Wait()
}
