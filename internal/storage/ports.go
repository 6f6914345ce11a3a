package storage

import (
	"context"
	"time"

	"bilancio/internal/core"
)

// Store is the persistence port shared by the HTTP server, the services
// and the sync worker. It is implemented by SQLiteRepository and
// MemoryRepository.
type Store interface {
	// Transactions. Create, Update and Delete return the row version the
	// operation produced, which callers attach to sync events.
	CreateTransaction(ctx context.Context, tx core.Transaction) (int64, error)
	GetTransaction(ctx context.Context, id string) (core.Transaction, error)
	GetTransactionRecord(ctx context.Context, id string) (TransactionRecord, error)
	UpdateTransaction(ctx context.Context, tx core.Transaction) (int64, error)
	DeleteTransaction(ctx context.Context, id string) (int64, error)
	ListTransactions(ctx context.Context) ([]core.Transaction, error)
	ListTransactionsByMonth(ctx context.Context, year, month int) ([]core.Transaction, error)
	ListCategories(ctx context.Context) ([]string, error)

	// Settings
	GetSettings(ctx context.Context) (core.Settings, error)
	UpdateSettings(ctx context.Context, s core.Settings) error

	// ConvertCurrency rescales every stored amount by rate in a single
	// transaction: live transactions, recurring rules, and the salary and
	// savings goal in settings. Converted transactions are re-queued for
	// export. Returns the number of transactions rescaled.
	ConvertCurrency(ctx context.Context, currency string, rate float64) (int64, error)

	// Recurring rules
	CreateRecurring(ctx context.Context, rule core.RecurringTransaction) (int64, error)
	ListRecurring(ctx context.Context) ([]RecurringState, error)
	ListActiveRecurring(ctx context.Context, asOf core.Date) ([]RecurringState, error)
	DeleteRecurring(ctx context.Context, id int64) error
	MarkRecurringPosted(ctx context.Context, id int64, posted core.Date) error

	// Sync bookkeeping
	GetPendingSyncTransactions(ctx context.Context, limit int) ([]PendingSyncTransaction, error)
	MarkSynced(ctx context.Context, id string, version int64) error
	MarkSyncError(ctx context.Context, id string) error

	Close() error
}

// Sync status values for transaction rows
const (
	SyncPending = "pending"
	SyncSynced  = "synced"
	SyncError   = "error"
)

// TransactionRecord is a transaction together with its storage state.
// Unlike GetTransaction it is also returned for soft-deleted rows, so the
// sync worker can resolve events that race a delete.
type TransactionRecord struct {
	Transaction core.Transaction
	Version     int64
	SyncStatus  string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Deleted     bool
}

// PendingSyncTransaction carries the minimal data queued for export
type PendingSyncTransaction struct {
	ID        string
	Version   int64
	CreatedAt time.Time
}

// RecurringState pairs a recurring rule with its posting history.
// LastPosted is the zero Date when the rule has never produced a
// transaction.
type RecurringState struct {
	Rule       core.RecurringTransaction
	LastPosted core.Date
}
