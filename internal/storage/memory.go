package storage

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"bilancio/internal/core"
)

// MemoryRepository is an in-memory Store used by the memory backend and
// in tests. Semantics match SQLiteRepository, including soft deletes and
// version counters.
type MemoryRepository struct {
	mu         sync.RWMutex
	txs        map[string]*memTransaction
	settings   core.Settings
	hasConfig  bool
	recurring  map[int64]*memRecurring
	nextRuleID int64
}

type memTransaction struct {
	tx         core.Transaction
	version    int64
	syncStatus string
	createdAt  time.Time
	updatedAt  time.Time
	deleted    bool
}

type memRecurring struct {
	rule       core.RecurringTransaction
	lastPosted core.Date
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		txs:        make(map[string]*memTransaction),
		recurring:  make(map[int64]*memRecurring),
		nextRuleID: 1,
	}
}

func (m *MemoryRepository) Close() error {
	return nil
}

func (m *MemoryRepository) CreateTransaction(_ context.Context, tx core.Transaction) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.txs[tx.ID]; exists {
		return 0, fmt.Errorf("transaction %s already exists", tx.ID)
	}

	now := time.Now()
	m.txs[tx.ID] = &memTransaction{
		tx:         tx,
		version:    1,
		syncStatus: SyncPending,
		createdAt:  now,
		updatedAt:  now,
	}
	return 1, nil
}

func (m *MemoryRepository) GetTransaction(_ context.Context, id string) (core.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.txs[id]
	if !ok || rec.deleted {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
	}
	return rec.tx, nil
}

func (m *MemoryRepository) GetTransactionRecord(_ context.Context, id string) (TransactionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.txs[id]
	if !ok {
		return TransactionRecord{}, fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
	}
	return TransactionRecord{
		Transaction: rec.tx,
		Version:     rec.version,
		SyncStatus:  rec.syncStatus,
		CreatedAt:   rec.createdAt,
		UpdatedAt:   rec.updatedAt,
		Deleted:     rec.deleted,
	}, nil
}

func (m *MemoryRepository) UpdateTransaction(_ context.Context, tx core.Transaction) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.txs[tx.ID]
	if !ok || rec.deleted {
		return 0, fmt.Errorf("transaction %s: %w", tx.ID, core.ErrNotFound)
	}

	rec.tx = tx
	rec.version++
	rec.syncStatus = SyncPending
	rec.updatedAt = time.Now()
	return rec.version, nil
}

func (m *MemoryRepository) DeleteTransaction(_ context.Context, id string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.txs[id]
	if !ok || rec.deleted {
		return 0, fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
	}

	rec.deleted = true
	rec.version++
	rec.updatedAt = time.Now()
	return rec.version, nil
}

func (m *MemoryRepository) ListTransactions(_ context.Context) ([]core.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.collect(func(core.Transaction) bool { return true }), nil
}

func (m *MemoryRepository) ListTransactionsByMonth(_ context.Context, year, month int) ([]core.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.collect(func(t core.Transaction) bool {
		return t.Date.Year() == year && t.Date.Month() == month
	}), nil
}

// collect returns live transactions matching keep, newest first.
// Callers must hold the lock.
func (m *MemoryRepository) collect(keep func(core.Transaction) bool) []core.Transaction {
	var txs []core.Transaction
	for _, rec := range m.txs {
		if rec.deleted || !keep(rec.tx) {
			continue
		}
		txs = append(txs, rec.tx)
	}
	sort.Slice(txs, func(i, j int) bool {
		if !txs[i].Date.Equal(txs[j].Date.Time) {
			return txs[i].Date.After(txs[j].Date.Time)
		}
		return txs[i].ID < txs[j].ID
	})
	return txs
}

func (m *MemoryRepository) ListCategories(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := map[string]struct{}{}
	var categories []string
	for _, rec := range m.txs {
		if rec.deleted {
			continue
		}
		if _, ok := seen[rec.tx.Category]; ok {
			continue
		}
		seen[rec.tx.Category] = struct{}{}
		categories = append(categories, rec.tx.Category)
	}
	sort.Strings(categories)
	return categories, nil
}

func (m *MemoryRepository) GetSettings(_ context.Context) (core.Settings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.hasConfig {
		return core.Settings{Currency: defaultCurrency}, nil
	}
	return m.settings, nil
}

func (m *MemoryRepository) UpdateSettings(_ context.Context, s core.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.settings = s
	m.hasConfig = true
	return nil
}

func (m *MemoryRepository) ConvertCurrency(_ context.Context, currency string, rate float64) (int64, error) {
	if rate <= 0 {
		return 0, fmt.Errorf("conversion rate must be positive, got %v", rate)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rescale := func(cents int64) int64 {
		return int64(math.Round(float64(cents) * rate))
	}

	var converted int64
	for _, rec := range m.txs {
		if rec.deleted {
			continue
		}
		rec.tx.Amount.Cents = rescale(rec.tx.Amount.Cents)
		rec.version++
		rec.syncStatus = SyncPending
		rec.updatedAt = time.Now()
		converted++
	}
	for _, r := range m.recurring {
		r.rule.Amount.Cents = rescale(r.rule.Amount.Cents)
	}

	if !m.hasConfig {
		m.settings = core.Settings{Currency: defaultCurrency}
		m.hasConfig = true
	}
	m.settings.Currency = currency
	m.settings.MonthlySalary.Cents = rescale(m.settings.MonthlySalary.Cents)
	m.settings.SavingsGoal.Cents = rescale(m.settings.SavingsGoal.Cents)

	return converted, nil
}

func (m *MemoryRepository) CreateRecurring(_ context.Context, rule core.RecurringTransaction) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rule.ID = m.nextRuleID
	m.nextRuleID++
	m.recurring[rule.ID] = &memRecurring{rule: rule}
	return rule.ID, nil
}

func (m *MemoryRepository) ListRecurring(_ context.Context) ([]RecurringState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.collectRecurring(func(core.RecurringTransaction) bool { return true }), nil
}

func (m *MemoryRepository) ListActiveRecurring(_ context.Context, asOf core.Date) ([]RecurringState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.collectRecurring(func(r core.RecurringTransaction) bool {
		if r.StartDate.After(asOf.Time) {
			return false
		}
		return r.EndDate.IsEmpty() || !r.EndDate.Before(asOf.Time)
	}), nil
}

// collectRecurring returns rules matching keep in ID order. Callers must
// hold the lock.
func (m *MemoryRepository) collectRecurring(keep func(core.RecurringTransaction) bool) []RecurringState {
	var states []RecurringState
	for _, r := range m.recurring {
		if !keep(r.rule) {
			continue
		}
		states = append(states, RecurringState{Rule: r.rule, LastPosted: r.lastPosted})
	}
	sort.Slice(states, func(i, j int) bool {
		return states[i].Rule.ID < states[j].Rule.ID
	})
	return states
}

func (m *MemoryRepository) DeleteRecurring(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.recurring[id]; !ok {
		return fmt.Errorf("recurring rule %d: %w", id, core.ErrNotFound)
	}
	delete(m.recurring, id)
	return nil
}

func (m *MemoryRepository) MarkRecurringPosted(_ context.Context, id int64, posted core.Date) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.recurring[id]
	if !ok {
		return fmt.Errorf("recurring rule %d: %w", id, core.ErrNotFound)
	}
	r.lastPosted = posted
	return nil
}

func (m *MemoryRepository) GetPendingSyncTransactions(_ context.Context, limit int) ([]PendingSyncTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var pending []PendingSyncTransaction
	for _, rec := range m.txs {
		if rec.deleted || rec.syncStatus != SyncPending {
			continue
		}
		pending = append(pending, PendingSyncTransaction{
			ID:        rec.tx.ID,
			Version:   rec.version,
			CreatedAt: rec.createdAt,
		})
	}
	sort.Slice(pending, func(i, j int) bool {
		if !pending[i].CreatedAt.Equal(pending[j].CreatedAt) {
			return pending[i].CreatedAt.Before(pending[j].CreatedAt)
		}
		return pending[i].ID < pending[j].ID
	})
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

func (m *MemoryRepository) MarkSynced(_ context.Context, id string, version int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.txs[id]
	if !ok || rec.version != version {
		return nil
	}
	rec.syncStatus = SyncSynced
	rec.updatedAt = time.Now()
	return nil
}

func (m *MemoryRepository) MarkSyncError(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.txs[id]
	if !ok {
		return nil
	}
	rec.syncStatus = SyncError
	rec.updatedAt = time.Now()
	return nil
}
