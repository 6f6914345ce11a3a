package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"bilancio/internal/amqp"
	"bilancio/internal/cli"
	"bilancio/internal/log"
	gsheet "bilancio/internal/sheets/google"
	"bilancio/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentWorker)
	logger.Info("Starting bilancio-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	flushSentry := cli.InitSentry(logger, cfg.SentryDSN)
	defer flushSentry()

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	// Without a spreadsheet there is nothing to export to; the worker
	// stays up so deployments with optional export keep their unit alive.
	var syncWorker *worker.SyncWorker
	if cfg.GoogleSpreadsheetID != "" {
		sheetsClient, err := gsheet.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
			os.Exit(1)
		}
		logger.Info("Google Sheets client initialized",
			"spreadsheet_id", cfg.GoogleSpreadsheetID)
		syncWorker = worker.NewSyncWorker(repo, sheetsClient, sheetsClient, cfg.SyncBatchSize)
	} else {
		logger.Warn("Google Sheets export disabled, no GOOGLE_SPREADSHEET_ID provided")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	g, gctx := errgroup.WithContext(ctx)

	if syncWorker != nil {
		// Catch up on exports missed while the worker was down.
		if err := syncWorker.StartupSyncCheck(ctx); err != nil {
			logger.Error("Startup sync check failed", log.FieldError, err)
		}

		g.Go(func() error {
			return amqpClient.ConsumeMessages(gctx,
				func(event *amqp.TransactionEvent) error {
					return syncWorker.HandleSyncEvent(gctx, event)
				},
				func(event *amqp.TransactionEvent) error {
					return syncWorker.HandleDeleteEvent(gctx, event)
				})
		})

		// Periodic scan for rows whose events were lost.
		g.Go(func() error {
			ticker := time.NewTicker(cfg.SyncInterval)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return gctx.Err()
				case <-ticker.C:
					if err := syncWorker.ProcessPendingTransactions(gctx); err != nil {
						logger.Error("Periodic sync failed", log.FieldError, err)
					}
				}
			}
		})

		logger.Info("Worker running",
			"sync_interval", cfg.SyncInterval,
			"batch_size", cfg.SyncBatchSize)
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", log.FieldError, err)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}
