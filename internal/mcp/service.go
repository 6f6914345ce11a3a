// Package mcp exposes the analytics engine to LLM clients as a set of
// MCP tools served over stdio. Every tool reads a fresh snapshot from
// the store, runs the engine over it, and renders a plain-text report;
// nothing here mutates data.
package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bilancio/internal/analytics"
	"bilancio/internal/core"
	"bilancio/internal/storage"
)

// Service renders analytics reports as text for MCP tool calls.
type Service struct {
	store storage.Store
	now   func() time.Time
}

// NewService creates a Service reading from store.
func NewService(store storage.Store) *Service {
	return &Service{store: store, now: time.Now}
}

// engine loads the current transaction snapshot and builds an engine
// over it.
func (s *Service) engine(ctx context.Context) (*analytics.Engine, error) {
	txs, err := s.store.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	return analytics.New(txs, analytics.WithClock(s.now)), nil
}

// currency returns the display currency from settings.
func (s *Service) currency(ctx context.Context) (string, error) {
	settings, err := s.store.GetSettings(ctx)
	if err != nil {
		return "", fmt.Errorf("load settings: %w", err)
	}
	return settings.Currency, nil
}

// resolvePeriod parses the period argument, defaulting to monthly when
// it is empty.
func resolvePeriod(arg string) (analytics.Period, error) {
	if strings.TrimSpace(arg) == "" {
		return analytics.PeriodMonthly, nil
	}
	return analytics.ParsePeriod(strings.TrimSpace(arg))
}

// AnalyticsSummary reports totals, top expense categories, daily
// average, and savings rate for the period containing today.
func (s *Service) AnalyticsSummary(ctx context.Context, period string) (string, error) {
	p, err := resolvePeriod(period)
	if err != nil {
		return "", err
	}
	e, err := s.engine(ctx)
	if err != nil {
		return "", err
	}
	cur, err := s.currency(ctx)
	if err != nil {
		return "", err
	}

	sum := e.Summary(p)
	if sum.TransactionCount == 0 {
		return fmt.Sprintf("No transactions recorded for %s.", sum.Label), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Summary for %s (%s to %s):\n\n", sum.Label, sum.Start, sum.End)
	fmt.Fprintf(&sb, "  %-14s %12s %s\n", "Income", sum.TotalIncome, cur)
	fmt.Fprintf(&sb, "  %-14s %12s %s\n", "Expenses", sum.TotalExpenses, cur)
	fmt.Fprintf(&sb, "  %-14s %12s %s\n", "Net", sum.NetAmount, cur)
	fmt.Fprintf(&sb, "  %-14s %12s %s\n", "Daily average", sum.AverageDaily, cur)
	fmt.Fprintf(&sb, "  %-14s %11.1f%%\n", "Savings rate", sum.SavingsRate)
	fmt.Fprintf(&sb, "  %-14s %12d\n", "Transactions", sum.TransactionCount)

	if len(sum.TopCategories) > 0 {
		sb.WriteString("\nTop expense categories:\n")
		for _, c := range sum.TopCategories {
			fmt.Fprintf(&sb, "  %-24s %12s %s  (%.1f%%)\n", c.Name, c.Amount, cur, c.Percent)
		}
	}
	return sb.String(), nil
}

// AnalyticsComparison sets the current period against the previous one
// of the same kind and reports growth for income, expenses, and net.
func (s *Service) AnalyticsComparison(ctx context.Context, period string) (string, error) {
	p, err := resolvePeriod(period)
	if err != nil {
		return "", err
	}
	e, err := s.engine(ctx)
	if err != nil {
		return "", err
	}
	cur, err := s.currency(ctx)
	if err != nil {
		return "", err
	}

	c := e.Comparison(p)

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s vs %s (amounts in %s):\n\n", c.Current.Label, c.Previous.Label, cur)
	fmt.Fprintf(&sb, "  %-10s %14s %14s %9s\n", "", "Current", "Previous", "Change")
	fmt.Fprintf(&sb, "  %s\n", strings.Repeat("-", 50))
	fmt.Fprintf(&sb, "  %-10s %14s %14s %+8.1f%%\n", "Income", c.Current.TotalIncome, c.Previous.TotalIncome, c.IncomeGrowth)
	fmt.Fprintf(&sb, "  %-10s %14s %14s %+8.1f%%\n", "Expenses", c.Current.TotalExpenses, c.Previous.TotalExpenses, c.ExpenseGrowth)
	fmt.Fprintf(&sb, "  %-10s %14s %14s %+8.1f%%\n", "Net", c.Current.NetAmount, c.Previous.NetAmount, c.SavingsGrowth)
	return sb.String(), nil
}

// SpendingTrends tabulates income, expenses, and savings for the six
// trailing months, oldest first.
func (s *Service) SpendingTrends(ctx context.Context) (string, error) {
	e, err := s.engine(ctx)
	if err != nil {
		return "", err
	}
	cur, err := s.currency(ctx)
	if err != nil {
		return "", err
	}

	points := e.SpendingTrends()

	var sb strings.Builder
	fmt.Fprintf(&sb, "Spending trends, last %d months (amounts in %s):\n\n", len(points), cur)
	fmt.Fprintf(&sb, "  %-10s %12s %12s %12s\n", "Month", "Income", "Expenses", "Savings")
	fmt.Fprintf(&sb, "  %s\n", strings.Repeat("-", 49))
	for _, p := range points {
		fmt.Fprintf(&sb, "  %-10s %12s %12s %12s\n", p.Label, p.Income, p.Expenses, p.Savings)
	}
	return sb.String(), nil
}

// CategoryComparison compares expense totals per category between the
// current calendar month and the one before it, largest current spend
// first.
func (s *Service) CategoryComparison(ctx context.Context) (string, error) {
	e, err := s.engine(ctx)
	if err != nil {
		return "", err
	}
	cur, err := s.currency(ctx)
	if err != nil {
		return "", err
	}

	deltas := e.CategoryComparison()

	y, m, _ := s.now().Date()
	first := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	curLabel := first.Format("January 2006")
	prevLabel := first.AddDate(0, -1, 0).Format("January 2006")

	if len(deltas) == 0 {
		return fmt.Sprintf("No expenses recorded in %s or %s.", curLabel, prevLabel), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Expenses by category, %s vs %s (amounts in %s):\n\n", curLabel, prevLabel, cur)
	fmt.Fprintf(&sb, "  %-24s %12s %12s %9s\n", "Category", "Current", "Previous", "Change")
	fmt.Fprintf(&sb, "  %s\n", strings.Repeat("-", 60))
	for _, d := range deltas {
		fmt.Fprintf(&sb, "  %-24s %12s %12s %+8.1f%%\n", d.Category, d.CurrentAmount, d.PreviousAmount, d.Change)
	}
	return sb.String(), nil
}

// HealthScore grades financial health on a 0-100 scale and explains the
// four factors behind the grade.
func (s *Service) HealthScore(ctx context.Context) (string, error) {
	e, err := s.engine(ctx)
	if err != nil {
		return "", err
	}

	h := e.HealthScore()

	var sb strings.Builder
	fmt.Fprintf(&sb, "Financial health score: %d/100\n\n", h.Overall)
	for _, f := range h.Factors {
		fmt.Fprintf(&sb, "  %-22s %5.1f  %-10s %s\n", f.Name, f.Score, "["+string(f.Impact)+"]", f.Description)
	}
	return sb.String(), nil
}

// ListTransactions lists one month of transactions when year or month
// is given (the missing half defaults to today's) and everything
// otherwise, newest first.
func (s *Service) ListTransactions(ctx context.Context, year, month int) (string, error) {
	cur, err := s.currency(ctx)
	if err != nil {
		return "", err
	}

	var txs []core.Transaction
	scope := "all time"
	if year == 0 && month == 0 {
		txs, err = s.store.ListTransactions(ctx)
	} else {
		now := s.now()
		if year == 0 {
			year = now.Year()
		}
		if month == 0 {
			month = int(now.Month())
		}
		if month < 1 || month > 12 {
			return "", fmt.Errorf("invalid month %d", month)
		}
		scope = time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).Format("January 2006")
		txs, err = s.store.ListTransactionsByMonth(ctx, year, month)
	}
	if err != nil {
		return "", fmt.Errorf("load transactions: %w", err)
	}

	if len(txs) == 0 {
		return fmt.Sprintf("No transactions found for %s.", scope), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Transactions for %s (%d found, amounts in %s):\n\n", scope, len(txs), cur)
	for _, tx := range txs {
		fmt.Fprintf(&sb, "%s  %10s  %-7s  %s  [%s]\n", tx.Date, tx.Amount, tx.Type, tx.Description, tx.Category)
	}
	return sb.String(), nil
}
