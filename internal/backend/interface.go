package backend

import (
	"context"

	"bilancio/internal/services"
	"bilancio/internal/storage"
)

// CleanupFunc releases resources held by a backend
type CleanupFunc func() error

// Result bundles the storage and the write path a binary runs on
type Result struct {
	Store        storage.Store
	Transactions *services.TransactionService
	Cleanup      CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates a backend instance based on the provided config
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for backend creation
type Config struct {
	// Backend type
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Event publishing, optional. When the broker is unreachable the
	// backend still comes up; the periodic pending scan covers exports.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType selects the persistence layer
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
