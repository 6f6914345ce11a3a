// Package worker applies sync and delete events to the spreadsheet export
// target and keeps the sync bookkeeping in storage up to date.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"bilancio/internal/amqp"
	"bilancio/internal/core"
	"bilancio/internal/sheets"
	"bilancio/internal/storage"
)

// SyncWorker exports transactions from local storage to the spreadsheet.
// Events carry only an ID and version; the worker always re-reads the row
// so the spreadsheet receives the latest state, never a stale payload.
type SyncWorker struct {
	store     storage.Store
	appender  sheets.TransactionAppender
	remover   sheets.TransactionRemover
	batchSize int
}

func NewSyncWorker(store storage.Store, appender sheets.TransactionAppender, remover sheets.TransactionRemover, batchSize int) *SyncWorker {
	return &SyncWorker{
		store:     store,
		appender:  appender,
		remover:   remover,
		batchSize: batchSize,
	}
}

// HandleSyncEvent processes a single sync event from AMQP.
func (w *SyncWorker) HandleSyncEvent(ctx context.Context, event *amqp.TransactionEvent) error {
	slog.InfoContext(ctx, "Processing sync event",
		"id", event.ID,
		"version", event.Version)

	record, err := w.store.GetTransactionRecord(ctx, event.ID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			slog.WarnContext(ctx, "Transaction no longer exists, dropping sync event",
				"id", event.ID)
			return nil
		}
		return fmt.Errorf("get transaction from storage: %w", err)
	}

	// The row was deleted after the event was published; the delete event
	// takes care of the spreadsheet side.
	if record.Deleted {
		slog.InfoContext(ctx, "Transaction was deleted, skipping export",
			"id", event.ID)
		return nil
	}

	// A newer version has its own event in flight, and the pending scan
	// covers it if that event was lost.
	if event.Version < record.Version {
		slog.InfoContext(ctx, "Stale sync event, skipping",
			"id", event.ID,
			"event_version", event.Version,
			"current_version", record.Version)
		return nil
	}

	if err := w.syncToSheets(ctx, record.Transaction, record.Version); err != nil {
		return fmt.Errorf("sync transaction to sheets: %w", err)
	}

	return nil
}

// HandleDeleteEvent processes a single delete event from AMQP.
func (w *SyncWorker) HandleDeleteEvent(ctx context.Context, event *amqp.TransactionEvent) error {
	slog.InfoContext(ctx, "Processing delete event",
		"id", event.ID)

	if w.remover == nil {
		slog.WarnContext(ctx, "No remover configured, skipping spreadsheet removal",
			"id", event.ID)
		return nil
	}

	if err := w.remover.Remove(ctx, event.ID); err != nil {
		// Rows that were never exported have nothing to remove.
		if errors.Is(err, sheets.ErrRowNotFound) {
			slog.InfoContext(ctx, "Row already absent from spreadsheet",
				"id", event.ID)
			return nil
		}
		slog.ErrorContext(ctx, "Failed to remove transaction from spreadsheet",
			"id", event.ID,
			"error", err)
		return fmt.Errorf("remove from spreadsheet: %w", err)
	}

	slog.InfoContext(ctx, "Removed transaction from spreadsheet",
		"id", event.ID)

	return nil
}

// ProcessPendingTransactions exports any transactions still marked pending.
// This is a backup mechanism in case AMQP events are lost.
func (w *SyncWorker) ProcessPendingTransactions(ctx context.Context) error {
	pending, err := w.store.GetPendingSyncTransactions(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending transactions: %w", err)
	}

	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending transactions", "count", len(pending))

	for _, p := range pending {
		record, err := w.store.GetTransactionRecord(ctx, p.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to load pending transaction", "id", p.ID, "error", err)
			continue
		}
		// A delete can land between the scan and this read.
		if record.Deleted {
			continue
		}

		if err := w.syncToSheets(ctx, record.Transaction, record.Version); err != nil {
			slog.ErrorContext(ctx, "Failed to sync pending transaction", "id", p.ID, "error", err)
			continue
		}
	}

	return nil
}

// StartupSyncCheck exports pending transactions at worker startup.
// This recovers from missed AMQP events or worker downtime.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	// Use a larger batch for the startup check
	pending, err := w.store.GetPendingSyncTransactions(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending transactions for startup check: %w", err)
	}

	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending transactions found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending transactions on startup, processing...",
		"count", len(pending))

	successCount := 0
	errorCount := 0

	for _, p := range pending {
		record, err := w.store.GetTransactionRecord(ctx, p.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to load transaction for startup sync",
				"id", p.ID, "error", err)
			errorCount++
			continue
		}
		if record.Deleted {
			continue
		}

		if err := w.syncToSheets(ctx, record.Transaction, record.Version); err != nil {
			slog.ErrorContext(ctx, "Failed to sync transaction during startup",
				"id", p.ID, "error", err)
			errorCount++
			continue
		}

		successCount++
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"total", len(pending),
		"synced", successCount,
		"errors", errorCount)

	return nil
}

func (w *SyncWorker) syncToSheets(ctx context.Context, tx core.Transaction, version int64) error {
	ref, err := w.appender.Append(ctx, tx)
	if err != nil {
		if markErr := w.store.MarkSyncError(ctx, tx.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", tx.ID, "error", markErr)
		}
		return fmt.Errorf("append to spreadsheet: %w", err)
	}

	// MarkSynced is version guarded: if the row moved on while we were
	// exporting, its new version stays pending and gets exported in turn.
	if err := w.store.MarkSynced(ctx, tx.ID, version); err != nil {
		slog.ErrorContext(ctx, "Failed to mark as synced", "id", tx.ID, "error", err)
		// Don't return an error here, the export itself worked
	}

	slog.InfoContext(ctx, "Exported transaction",
		"id", tx.ID,
		"sheets_ref", ref,
		"description", tx.Description,
		"amount_cents", tx.Amount.Cents)

	return nil
}
