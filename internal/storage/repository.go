// Package storage persists transactions, settings and recurring rules.
// The SQLite schema keeps per-row version counters and a sync status so
// the export worker can reconcile what has reached the spreadsheet.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"bilancio/internal/core"

	_ "modernc.org/sqlite"
)

const defaultCurrency = "EUR"

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t       core.Transaction
		rawDate string
		rawType string
	)
	if err := row.Scan(&t.ID, &rawDate, &t.Description, &t.Amount.Cents, &t.Category, &rawType); err != nil {
		return core.Transaction{}, err
	}

	date, err := core.ParseDate(rawDate)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse stored date %q: %w", rawDate, err)
	}
	t.Date = date

	typ, err := core.ParseTransactionType(rawType)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse stored type %q: %w", rawType, err)
	}
	t.Type = typ

	return t, nil
}

// CreateTransaction inserts a new transaction at version 1 with export
// pending
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, tx core.Transaction) (int64, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (id, date, description, amount_cents, category, type)
		VALUES (?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.Date.String(), tx.Description, tx.Amount.Cents, tx.Category, string(tx.Type),
	)
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", tx.ID,
		"description", tx.Description,
		"amount_cents", tx.Amount.Cents,
		"category", tx.Category,
		"type", tx.Type)

	return 1, nil
}

// GetTransaction returns a live transaction by ID
func (r *SQLiteRepository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, date, description, amount_cents, category, type
		FROM transactions
		WHERE id = ? AND deleted_at IS NULL`, id)

	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

// GetTransactionRecord returns a transaction with its storage state,
// including soft-deleted rows
func (r *SQLiteRepository) GetTransactionRecord(ctx context.Context, id string) (TransactionRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, date, description, amount_cents, category, type,
		       version, sync_status, created_at, updated_at, deleted_at
		FROM transactions
		WHERE id = ?`, id)

	var (
		rec       TransactionRecord
		rawDate   string
		rawType   string
		deletedAt sql.NullTime
	)
	err := row.Scan(
		&rec.Transaction.ID, &rawDate, &rec.Transaction.Description,
		&rec.Transaction.Amount.Cents, &rec.Transaction.Category, &rawType,
		&rec.Version, &rec.SyncStatus, &rec.CreatedAt, &rec.UpdatedAt, &deletedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return TransactionRecord{}, fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return TransactionRecord{}, fmt.Errorf("get transaction record: %w", err)
	}

	date, err := core.ParseDate(rawDate)
	if err != nil {
		return TransactionRecord{}, fmt.Errorf("parse stored date %q: %w", rawDate, err)
	}
	rec.Transaction.Date = date

	typ, err := core.ParseTransactionType(rawType)
	if err != nil {
		return TransactionRecord{}, fmt.Errorf("parse stored type %q: %w", rawType, err)
	}
	rec.Transaction.Type = typ
	rec.Deleted = deletedAt.Valid

	return rec, nil
}

// UpdateTransaction replaces the mutable fields of a live transaction,
// bumps its version and re-queues it for export
func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, tx core.Transaction) (int64, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE transactions
		SET date = ?, description = ?, amount_cents = ?, category = ?, type = ?,
		    version = version + 1, sync_status = 'pending', updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND deleted_at IS NULL
		RETURNING version`,
		tx.Date.String(), tx.Description, tx.Amount.Cents, tx.Category, string(tx.Type), tx.ID,
	)

	var version int64
	if err := row.Scan(&version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("transaction %s: %w", tx.ID, core.ErrNotFound)
		}
		return 0, fmt.Errorf("update transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction updated", "id", tx.ID, "version", version)
	return version, nil
}

// DeleteTransaction soft-deletes a transaction. The row is kept so late
// sync events can still be resolved against it.
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id string) (int64, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE transactions
		SET deleted_at = CURRENT_TIMESTAMP, version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND deleted_at IS NULL
		RETURNING version`, id)

	var version int64
	if err := row.Scan(&version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
		}
		return 0, fmt.Errorf("delete transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction deleted", "id", id, "version", version)
	return version, nil
}

// ListTransactions returns all live transactions, newest first
func (r *SQLiteRepository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, date, description, amount_cents, category, type
		FROM transactions
		WHERE deleted_at IS NULL
		ORDER BY date DESC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

// ListTransactionsByMonth returns live transactions dated within the
// given calendar month, newest first
func (r *SQLiteRepository) ListTransactionsByMonth(ctx context.Context, year, month int) ([]core.Transaction, error) {
	prefix := fmt.Sprintf("%04d-%02d", year, month)
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, date, description, amount_cents, category, type
		FROM transactions
		WHERE deleted_at IS NULL AND substr(date, 1, 7) = ?
		ORDER BY date DESC, id ASC`, prefix)
	if err != nil {
		return nil, fmt.Errorf("list transactions by month: %w", err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

func collectTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	var txs []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return txs, nil
}

// ListCategories returns the distinct categories of live transactions
func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT category
		FROM transactions
		WHERE deleted_at IS NULL
		ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return categories, nil
}

// GetSettings returns the settings singleton
func (r *SQLiteRepository) GetSettings(ctx context.Context) (core.Settings, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT currency, monthly_salary_cents, savings_goal_cents
		FROM settings
		WHERE id = 1`)

	var s core.Settings
	err := row.Scan(&s.Currency, &s.MonthlySalary.Cents, &s.SavingsGoal.Cents)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Settings{Currency: defaultCurrency}, nil
	}
	if err != nil {
		return core.Settings{}, fmt.Errorf("get settings: %w", err)
	}
	return s, nil
}

// UpdateSettings replaces the settings singleton
func (r *SQLiteRepository) UpdateSettings(ctx context.Context, s core.Settings) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO settings (id, currency, monthly_salary_cents, savings_goal_cents, updated_at)
		VALUES (1, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			currency = excluded.currency,
			monthly_salary_cents = excluded.monthly_salary_cents,
			savings_goal_cents = excluded.savings_goal_cents,
			updated_at = CURRENT_TIMESTAMP`,
		s.Currency, s.MonthlySalary.Cents, s.SavingsGoal.Cents,
	)
	if err != nil {
		return fmt.Errorf("update settings: %w", err)
	}

	slog.InfoContext(ctx, "Settings updated",
		"currency", s.Currency,
		"monthly_salary_cents", s.MonthlySalary.Cents,
		"savings_goal_cents", s.SavingsGoal.Cents)
	return nil
}

// ConvertCurrency rescales every stored amount in one transaction.
// SQLite's ROUND rounds half away from zero, matching the rounding used
// elsewhere for money.
func (r *SQLiteRepository) ConvertCurrency(ctx context.Context, currency string, rate float64) (int64, error) {
	if rate <= 0 {
		return 0, fmt.Errorf("conversion rate must be positive, got %v", rate)
	}

	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin conversion: %w", err)
	}
	defer dbTx.Rollback()

	res, err := dbTx.ExecContext(ctx, `
		UPDATE transactions
		SET amount_cents = CAST(ROUND(amount_cents * ?) AS INTEGER),
		    version = version + 1, sync_status = 'pending', updated_at = CURRENT_TIMESTAMP
		WHERE deleted_at IS NULL`, rate)
	if err != nil {
		return 0, fmt.Errorf("convert transactions: %w", err)
	}
	converted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count converted transactions: %w", err)
	}

	if _, err := dbTx.ExecContext(ctx, `
		UPDATE recurring_transactions
		SET amount_cents = CAST(ROUND(amount_cents * ?) AS INTEGER)`, rate); err != nil {
		return 0, fmt.Errorf("convert recurring rules: %w", err)
	}

	if _, err := dbTx.ExecContext(ctx, `
		UPDATE settings
		SET currency = ?,
		    monthly_salary_cents = CAST(ROUND(monthly_salary_cents * ?) AS INTEGER),
		    savings_goal_cents = CAST(ROUND(savings_goal_cents * ?) AS INTEGER),
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = 1`, currency, rate, rate); err != nil {
		return 0, fmt.Errorf("convert settings: %w", err)
	}

	if err := dbTx.Commit(); err != nil {
		return 0, fmt.Errorf("commit conversion: %w", err)
	}

	slog.InfoContext(ctx, "Converted stored amounts to new currency",
		"currency", currency,
		"rate", rate,
		"transactions", converted)
	return converted, nil
}

// CreateRecurring stores a new recurring rule and returns its ID
func (r *SQLiteRepository) CreateRecurring(ctx context.Context, rule core.RecurringTransaction) (int64, error) {
	var endDate any
	if !rule.EndDate.IsEmpty() {
		endDate = rule.EndDate.String()
	}

	row := r.db.QueryRowContext(ctx, `
		INSERT INTO recurring_transactions (start_date, end_date, frequency, description, amount_cents, category, type)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		rule.StartDate.String(), endDate, string(rule.Every), rule.Description,
		rule.Amount.Cents, rule.Category, string(rule.Type),
	)

	var id int64
	if err := row.Scan(&id); err != nil {
		return 0, fmt.Errorf("insert recurring rule: %w", err)
	}

	slog.InfoContext(ctx, "Recurring rule saved",
		"id", id,
		"description", rule.Description,
		"frequency", rule.Every,
		"start_date", rule.StartDate.String())
	return id, nil
}

// ListRecurring returns every recurring rule with its posting state
func (r *SQLiteRepository) ListRecurring(ctx context.Context) ([]RecurringState, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, start_date, end_date, frequency, description, amount_cents, category, type, last_posted
		FROM recurring_transactions
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list recurring rules: %w", err)
	}
	defer rows.Close()

	return collectRecurring(rows)
}

// ListActiveRecurring returns the rules whose window covers asOf
func (r *SQLiteRepository) ListActiveRecurring(ctx context.Context, asOf core.Date) ([]RecurringState, error) {
	day := asOf.String()
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, start_date, end_date, frequency, description, amount_cents, category, type, last_posted
		FROM recurring_transactions
		WHERE start_date <= ? AND (end_date IS NULL OR end_date >= ?)
		ORDER BY id`, day, day)
	if err != nil {
		return nil, fmt.Errorf("list active recurring rules: %w", err)
	}
	defer rows.Close()

	return collectRecurring(rows)
}

func collectRecurring(rows *sql.Rows) ([]RecurringState, error) {
	var states []RecurringState
	for rows.Next() {
		var (
			st        RecurringState
			rawStart  string
			rawEnd    sql.NullString
			rawFreq   string
			rawType   string
			rawPosted sql.NullString
		)
		if err := rows.Scan(
			&st.Rule.ID, &rawStart, &rawEnd, &rawFreq, &st.Rule.Description,
			&st.Rule.Amount.Cents, &st.Rule.Category, &rawType, &rawPosted,
		); err != nil {
			return nil, fmt.Errorf("scan recurring rule: %w", err)
		}

		start, err := core.ParseDate(rawStart)
		if err != nil {
			return nil, fmt.Errorf("parse stored start date %q: %w", rawStart, err)
		}
		st.Rule.StartDate = start

		if rawEnd.Valid && rawEnd.String != "" {
			end, err := core.ParseDate(rawEnd.String)
			if err != nil {
				return nil, fmt.Errorf("parse stored end date %q: %w", rawEnd.String, err)
			}
			st.Rule.EndDate = end
		}

		typ, err := core.ParseTransactionType(rawType)
		if err != nil {
			return nil, fmt.Errorf("parse stored type %q: %w", rawType, err)
		}
		st.Rule.Type = typ
		st.Rule.Every = core.Frequency(rawFreq)

		if rawPosted.Valid && rawPosted.String != "" {
			posted, err := core.ParseDate(rawPosted.String)
			if err != nil {
				return nil, fmt.Errorf("parse stored last posted date %q: %w", rawPosted.String, err)
			}
			st.LastPosted = posted
		}

		states = append(states, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recurring rules: %w", err)
	}
	return states, nil
}

// DeleteRecurring removes a recurring rule. Rules are not exported, so
// this is a hard delete.
func (r *SQLiteRepository) DeleteRecurring(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM recurring_transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete recurring rule: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("count deleted recurring rules: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("recurring rule %d: %w", id, core.ErrNotFound)
	}

	slog.InfoContext(ctx, "Recurring rule deleted", "id", id)
	return nil
}

// MarkRecurringPosted records the date a rule last produced a transaction
func (r *SQLiteRepository) MarkRecurringPosted(ctx context.Context, id int64, posted core.Date) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE recurring_transactions SET last_posted = ? WHERE id = ?`,
		posted.String(), id,
	)
	if err != nil {
		return fmt.Errorf("mark recurring posted: %w", err)
	}
	return nil
}

// GetPendingSyncTransactions returns live transactions awaiting export,
// oldest first
func (r *SQLiteRepository) GetPendingSyncTransactions(ctx context.Context, limit int) ([]PendingSyncTransaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, version, created_at
		FROM transactions
		WHERE sync_status = 'pending' AND deleted_at IS NULL
		ORDER BY created_at ASC, id ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending sync transactions: %w", err)
	}
	defer rows.Close()

	var pending []PendingSyncTransaction
	for rows.Next() {
		var p PendingSyncTransaction
		if err := rows.Scan(&p.ID, &p.Version, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan pending sync transaction: %w", err)
		}
		pending = append(pending, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending sync transactions: %w", err)
	}
	return pending, nil
}

// MarkSynced records a successful export of the given version. A row
// whose version has moved on is left alone; the newer version carries
// its own pending status.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id string, version int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE transactions
		SET sync_status = 'synced', updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND version = ?`, id, version)
	if err != nil {
		return fmt.Errorf("mark transaction synced: %w", err)
	}

	slog.InfoContext(ctx, "Transaction marked as synced", "id", id, "version", version)
	return nil
}

// MarkSyncError flags a transaction whose export failed permanently
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE transactions
		SET sync_status = 'error', updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark transaction sync error: %w", err)
	}

	slog.WarnContext(ctx, "Transaction marked with sync error", "id", id)
	return nil
}
