// Package services provides business logic and orchestration across the
// local store, the message broker and external rate providers.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"bilancio/internal/core"
	"bilancio/internal/storage"
)

// EventPublisher emits transaction lifecycle events toward the export
// worker. Publishing is best effort: local writes never fail because the
// broker is down.
type EventPublisher interface {
	PublishTransactionSync(ctx context.Context, id string, version int64) error
	PublishTransactionDelete(ctx context.Context, id string, version int64) error
	Close() error
}

// TransactionService orchestrates transaction writes across the store
// and the AMQP exchange.
type TransactionService struct {
	store     storage.Store
	publisher EventPublisher
}

func NewTransactionService(store storage.Store, publisher EventPublisher) *TransactionService {
	return &TransactionService{
		store:     store,
		publisher: publisher,
	}
}

// CreateTransaction validates and saves a transaction, assigning an ID
// when the caller did not provide one, then queues it for export.
func (s *TransactionService) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	version, err := s.store.CreateTransaction(ctx, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	if err := s.publishSyncEvent(ctx, tx.ID, version); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync event",
			"id", tx.ID, "error", err)
		// The row is saved locally with sync_status pending; the
		// periodic scan picks it up later.
	}

	return tx, nil
}

// UpdateTransaction replaces a stored transaction and re-queues it for
// export under its new version.
func (s *TransactionService) UpdateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if tx.ID == "" {
		return core.Transaction{}, core.ErrNotFound
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	version, err := s.store.UpdateTransaction(ctx, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}

	if err := s.publishSyncEvent(ctx, tx.ID, version); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync event",
			"id", tx.ID, "error", err)
	}

	return tx, nil
}

// DeleteTransaction soft deletes a transaction and queues the removal
// for export.
func (s *TransactionService) DeleteTransaction(ctx context.Context, id string) error {
	version, err := s.store.DeleteTransaction(ctx, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	if err := s.publishDeleteEvent(ctx, id, version); err != nil {
		slog.ErrorContext(ctx, "Failed to publish delete event",
			"id", id, "error", err)
	}

	return nil
}

// ImportTransactions saves a batch of transactions. The whole batch is
// validated before anything is written, so a bad row rejects the import
// without partial inserts.
func (s *TransactionService) ImportTransactions(ctx context.Context, txs []core.Transaction) ([]core.Transaction, error) {
	for i := range txs {
		if txs[i].ID == "" {
			txs[i].ID = uuid.NewString()
		}
		if err := txs[i].Validate(); err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i, err)
		}
	}

	imported := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		version, err := s.store.CreateTransaction(ctx, tx)
		if err != nil {
			return imported, fmt.Errorf("save transaction %s: %w", tx.ID, err)
		}

		if err := s.publishSyncEvent(ctx, tx.ID, version); err != nil {
			slog.ErrorContext(ctx, "Failed to publish sync event",
				"id", tx.ID, "error", err)
		}

		imported = append(imported, tx)
	}

	slog.InfoContext(ctx, "Imported transactions", "count", len(imported))

	return imported, nil
}

func (s *TransactionService) publishSyncEvent(ctx context.Context, id string, version int64) error {
	if s.publisher == nil {
		slog.WarnContext(ctx, "Publisher not available, skipping sync event", "id", id)
		return nil
	}

	return s.publisher.PublishTransactionSync(ctx, id, version)
}

func (s *TransactionService) publishDeleteEvent(ctx context.Context, id string, version int64) error {
	if s.publisher == nil {
		slog.WarnContext(ctx, "Publisher not available, skipping delete event", "id", id)
		return nil
	}

	return s.publisher.PublishTransactionDelete(ctx, id, version)
}

// Close closes the store and the publisher.
func (s *TransactionService) Close() error {
	var errs []error

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close transaction service: %w", errors.Join(errs...))
	}

	return nil
}
