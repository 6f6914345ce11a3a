// Package memory is an in-memory stand-in for the spreadsheet export
// target, used in tests and local development.
package memory

import (
	"context"
	"fmt"
	"sync"

	"bilancio/internal/core"
	"bilancio/internal/sheets"
)

type Store struct {
	mu   sync.Mutex
	rows []core.Transaction
}

// Ensure interface conformance
var (
	_ sheets.TransactionAppender = (*Store)(nil)
	_ sheets.TransactionRemover  = (*Store)(nil)
)

func New() *Store {
	return &Store{}
}

// Append stores the transaction and returns a synthetic row reference.
// A row already carrying the same ID is replaced in place.
func (s *Store) Append(_ context.Context, tx core.Transaction) (string, error) {
	if err := tx.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, row := range s.rows {
		if row.ID == tx.ID {
			s.rows[i] = tx
			return fmt.Sprintf("mem:%d", i+1), nil
		}
	}
	s.rows = append(s.rows, tx)
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

// Remove drops the row carrying the transaction ID.
func (s *Store) Remove(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, row := range s.rows {
		if row.ID == id {
			s.rows = append(s.rows[:i], s.rows[i+1:]...)
			return nil
		}
	}
	return sheets.ErrRowNotFound
}

// Rows returns a copy of the stored rows in sheet order.
func (s *Store) Rows() []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction(nil), s.rows...)
}
