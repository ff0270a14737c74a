package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/config"
	applog "fintrack/internal/log"
	"fintrack/internal/sheets"
	gsheet "fintrack/internal/sheets/google"
	mem "fintrack/internal/sheets/memory"
	"fintrack/internal/storage"
	"fintrack/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()

	logger := applog.New(applog.Config{Level: cfg.LogLevel, Component: applog.ComponentWorker})
	applog.SetDefault(logger)

	logger.Info("Starting fintrack-worker")

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var reports sheets.ReportWriter
	switch cfg.ReportsBackend {
	case config.ReportsSheets:
		client, err := gsheet.NewFromEnv(ctx)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		reports = client
		logger.Info("Google Sheets report mirror initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	default:
		reports = mem.New()
		logger.Info("In-memory report mirror initialized")
	}

	reportWorker := worker.NewReportWorker(repo, reports)

	// Catch up on anything that changed while the worker was down before
	// waiting on the event stream.
	if err := reportWorker.ResyncRecent(ctx, time.Now().Add(-cfg.ResyncInterval)); err != nil {
		logger.Error("Startup resync failed", "error", err)
		// Don't exit - the event stream still covers new changes.
	}

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return amqp.ConsumeWithReconnect(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue,
			func(msg *amqp.MonthChangedMessage) error {
				return reportWorker.HandleMonthChanged(ctx, msg)
			})
	})

	group.Go(func() error {
		ticker := time.NewTicker(cfg.ResyncInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				// Overlap the window slightly so a mutation landing during
				// the previous sweep is never missed.
				since := time.Now().Add(-cfg.ResyncInterval - time.Minute)
				if err := reportWorker.ResyncRecent(ctx, since); err != nil {
					logger.Error("Periodic resync failed", "error", err)
				}
			}
		}
	})

	if err := group.Wait(); err != nil && err != context.Canceled {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
