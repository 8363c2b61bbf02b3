package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"spendtrack/internal/amqp"
	"spendtrack/internal/cli"
	"spendtrack/internal/config"
	"spendtrack/internal/export"
	gsheet "spendtrack/internal/export/google"
	expmem "spendtrack/internal/export/memory"
	"spendtrack/internal/storage/postgres"
	"spendtrack/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	logger.Info("Starting spendtrack-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	store, closeStore := openStore(logger, cfg)
	defer closeStore()

	// Export sink: Google Sheets when configured, in-memory otherwise so
	// the worker still drains the pending queue in local setups.
	var sink export.TransactionAppender
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		sink = client
		logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		sink = expmem.New()
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided, using in-memory sink")
	}

	exportWorker := worker.NewExportWorker(store, sink, cfg.ExportBatchSize)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	if cfg.AMQPURL == "" {
		// No broker configured; fall back to sweep-only operation.
		logger.Info("AMQP disabled - running periodic sweep only")
		runSweepOnly(ctx, logger, exportWorker, cfg.ExportInterval)
		cli.WaitForShutdown(ctx, done)
		return
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	if err := exportWorker.Run(ctx, amqpClient, cfg.ExportInterval); err != nil && err != context.Canceled {
		logger.Error("Worker stopped with error", "error", err)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker shutdown complete")
}

// openStore picks the storage backend for the worker. The memory backend
// has no export bookkeeping, so only durable backends are accepted.
func openStore(logger *slog.Logger, cfg *config.Config) (worker.ExportStore, func()) {
	switch cfg.DataBackend {
	case "postgres":
		repo, err := postgres.NewRepository(context.Background(), cfg.PostgresURL)
		if err != nil {
			logger.Error("Failed to initialize postgres repository", "error", err)
			os.Exit(1)
		}
		return repo, func() {
			if err := repo.Close(); err != nil {
				logger.Error("Failed to close postgres repository", "error", err)
			}
		}
	case "sqlite", "memory":
		repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
		return repo, func() {
			if err := repo.Close(); err != nil {
				logger.Error("Failed to close SQLite repository", "error", err)
			}
		}
	default:
		logger.Error("Unsupported worker backend", "backend", cfg.DataBackend)
		os.Exit(1)
		return nil, nil
	}
}

func runSweepOnly(ctx context.Context, logger *slog.Logger, w *worker.ExportWorker, interval time.Duration) {
	if err := w.StartupCheck(ctx); err != nil {
		logger.Error("Startup export check failed", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.ProcessPending(ctx); err != nil {
				logger.Error("Pending export sweep failed", "error", err)
			}
		}
	}
}
