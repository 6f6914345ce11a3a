package sheets

import (
	"context"
	"errors"

	"bilancio/internal/core"
)

// ErrRowNotFound is returned by removers when no exported row carries
// the requested transaction ID.
var ErrRowNotFound = errors.New("row not found")

// Ports for outbound export adapters.
type (
	// TransactionAppender writes a transaction row to the export target.
	// A row that already carries the same transaction ID is replaced, so
	// redelivered events and updates do not duplicate rows.
	TransactionAppender interface {
		Append(ctx context.Context, tx core.Transaction) (rowRef string, err error)
	}

	// TransactionRemover removes a previously exported row by
	// transaction ID.
	TransactionRemover interface {
		Remove(ctx context.Context, id string) error
	}
)
