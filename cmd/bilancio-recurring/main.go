package main

import (
	"time"

	"bilancio/internal/amqp"
	"bilancio/internal/cli"
	"bilancio/internal/log"
	"bilancio/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentRecurring)
	logger.Info("Starting bilancio-recurring")

	cfg := cli.LoadAndValidateConfig(logger)

	flushSentry := cli.InitSentry(logger, cfg.SentryDSN)
	defer flushSentry()

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	// Posted transactions flow through the same publish path as manual
	// ones, so the export worker picks them up. A dead broker degrades to
	// local-only writes; the worker's pending scan covers the exports.
	var publisher services.EventPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without sync events",
				log.FieldError, err)
		} else {
			defer client.Close()
			publisher = client
		}
	}

	transactions := services.NewTransactionService(repo, publisher)
	defer transactions.Close()

	processor := services.NewRecurringProcessor(repo, transactions)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	logger.Info("Recurring processor configured",
		"interval", cfg.RecurringInterval,
		"db_path", cfg.SQLiteDBPath)

	// Post anything already due, then keep checking on the interval.
	if count, err := processor.ProcessDue(ctx, time.Now()); err != nil {
		logger.Error("Initial recurring processing failed", log.FieldError, err)
	} else {
		logger.Info("Initial recurring processing complete", log.FieldCount, count)
	}

	ticker := time.NewTicker(cfg.RecurringInterval)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				count, err := processor.ProcessDue(ctx, now)
				if err != nil {
					logger.Error("Recurring processing failed", log.FieldError, err)
					continue
				}
				logger.Info("Recurring processing complete", log.FieldCount, count)
			}
		}
	}()

	cli.WaitForShutdown(ctx, done)
	logger.Info("Recurring worker stopped gracefully")
}
