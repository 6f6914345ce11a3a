// Package analytics computes derived financial views over a snapshot of
// transactions: period summaries, period-over-period comparisons, spending
// trends, category deltas, and a composite health score.
//
// The engine is pure: it performs no I/O, never mutates its snapshot, and
// every query is a function of the snapshot plus the reference clock. The
// owning store rebuilds the engine whenever the transaction list changes.
package analytics

import (
	"sort"
	"time"

	"bilancio/internal/core"
)

// Engine answers analytics queries over an immutable transaction snapshot.
// Concurrent queries against the same Engine are safe; replace the whole
// Engine to pick up new data.
type Engine struct {
	txs []core.Transaction // sorted by date descending
	now func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the reference clock. Period windows anchor on the
// clock's calendar date, so tests inject a fixed time here.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// New builds an Engine over a copy of txs, sorted by date descending.
// Ties sort by ID so identical snapshots always produce identical results.
func New(txs []core.Transaction, opts ...Option) *Engine {
	e := &Engine{
		txs: make([]core.Transaction, len(txs)),
		now: time.Now,
	}
	copy(e.txs, txs)
	sort.Slice(e.txs, func(i, j int) bool {
		di, dj := e.txs[i].Date.Time, e.txs[j].Date.Time
		if !di.Equal(dj) {
			return di.After(dj)
		}
		return e.txs[i].ID < e.txs[j].ID
	})
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Size returns the number of transactions in the snapshot.
func (e *Engine) Size() int {
	return len(e.txs)
}

// today is the clock's calendar date. Taking the date components first
// keeps all window arithmetic on UTC midnights regardless of the clock's
// location.
func (e *Engine) today() core.Date {
	now := e.now()
	return core.NewDate(now.Year(), int(now.Month()), now.Day())
}
