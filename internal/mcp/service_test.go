package mcp

import (
	"context"
	"strings"
	"testing"
	"time"

	"bilancio/internal/core"
	"bilancio/internal/storage"
)

// newTestService returns a Service over an empty in-memory store with
// the clock pinned to June 15th, 2025.
func newTestService(t *testing.T) (*Service, *storage.MemoryRepository) {
	t.Helper()
	repo := storage.NewMemoryRepository()
	svc := NewService(repo)
	svc.now = func() time.Time {
		return time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)
	}
	return svc, repo
}

func seedTransaction(t *testing.T, repo *storage.MemoryRepository, id, date, description string, cents int64, category string, txType core.TransactionType) {
	t.Helper()
	d, err := core.ParseDate(date)
	if err != nil {
		t.Fatalf("ParseDate(%s) error = %v", date, err)
	}
	_, err = repo.CreateTransaction(context.Background(), core.Transaction{
		ID:          id,
		Date:        d,
		Description: description,
		Amount:      core.Money{Cents: cents},
		Category:    category,
		Type:        txType,
	})
	if err != nil {
		t.Fatalf("CreateTransaction(%s) error = %v", id, err)
	}
}

func assertContainsAll(t *testing.T, got string, wants []string) {
	t.Helper()
	for _, want := range wants {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q in:\n%s", want, got)
		}
	}
}

func TestAnalyticsSummary(t *testing.T) {
	svc, repo := newTestService(t)
	seedTransaction(t, repo, "tx-1", "2025-06-01", "Salary", 500000, "Salary", core.TypeIncome)
	seedTransaction(t, repo, "tx-2", "2025-06-05", "Groceries", -200000, "Food", core.TypeExpense)

	got, err := svc.AnalyticsSummary(context.Background(), "")
	if err != nil {
		t.Fatalf("AnalyticsSummary() error = %v", err)
	}
	assertContainsAll(t, got, []string{
		"June 2025",
		"2025-06-01",
		"2025-06-30",
		"5000.00 EUR",
		"2000.00 EUR",
		"3000.00 EUR",
		"60.0%",
		"Food",
	})
}

func TestAnalyticsSummaryPeriods(t *testing.T) {
	svc, repo := newTestService(t)
	seedTransaction(t, repo, "tx-1", "2025-02-10", "Salary", 500000, "Salary", core.TypeIncome)

	got, err := svc.AnalyticsSummary(context.Background(), "yearly")
	if err != nil {
		t.Fatalf("AnalyticsSummary(yearly) error = %v", err)
	}
	assertContainsAll(t, got, []string{"Summary for 2025", "5000.00 EUR"})

	if _, err := svc.AnalyticsSummary(context.Background(), "daily"); err == nil {
		t.Fatal("AnalyticsSummary(daily) expected error, got nil")
	} else if !strings.Contains(err.Error(), "unknown period") {
		t.Errorf("AnalyticsSummary(daily) error = %v, want unknown period", err)
	}
}

func TestAnalyticsSummaryEmpty(t *testing.T) {
	svc, _ := newTestService(t)

	got, err := svc.AnalyticsSummary(context.Background(), "monthly")
	if err != nil {
		t.Fatalf("AnalyticsSummary() error = %v", err)
	}
	want := "No transactions recorded for June 2025."
	if got != want {
		t.Errorf("AnalyticsSummary() = %q, want %q", got, want)
	}
}

func TestAnalyticsComparison(t *testing.T) {
	svc, repo := newTestService(t)
	seedTransaction(t, repo, "tx-1", "2025-05-03", "Salary", 400000, "Salary", core.TypeIncome)
	seedTransaction(t, repo, "tx-2", "2025-06-03", "Salary", 500000, "Salary", core.TypeIncome)

	got, err := svc.AnalyticsComparison(context.Background(), "monthly")
	if err != nil {
		t.Fatalf("AnalyticsComparison() error = %v", err)
	}
	assertContainsAll(t, got, []string{
		"June 2025 vs May 2025",
		"5000.00",
		"4000.00",
		"+25.0%",
	})
}

func TestSpendingTrends(t *testing.T) {
	svc, repo := newTestService(t)
	seedTransaction(t, repo, "tx-1", "2025-06-02", "Groceries", -100000, "Food", core.TypeExpense)

	got, err := svc.SpendingTrends(context.Background())
	if err != nil {
		t.Fatalf("SpendingTrends() error = %v", err)
	}
	assertContainsAll(t, got, []string{
		"Jan 2025", "Feb 2025", "Mar 2025", "Apr 2025", "May 2025", "Jun 2025",
		"1000.00",
	})
}

func TestCategoryComparison(t *testing.T) {
	svc, repo := newTestService(t)
	seedTransaction(t, repo, "tx-1", "2025-06-10", "Groceries", -200000, "Food", core.TypeExpense)
	seedTransaction(t, repo, "tx-2", "2025-05-12", "Groceries", -150000, "Food", core.TypeExpense)
	seedTransaction(t, repo, "tx-3", "2025-05-20", "Bus pass", -50000, "Transport", core.TypeExpense)

	got, err := svc.CategoryComparison(context.Background())
	if err != nil {
		t.Fatalf("CategoryComparison() error = %v", err)
	}
	assertContainsAll(t, got, []string{
		"June 2025 vs May 2025",
		"Food",
		"+33.3%",
		"Transport",
		"-100.0%",
	})
}

func TestCategoryComparisonEmpty(t *testing.T) {
	svc, _ := newTestService(t)

	got, err := svc.CategoryComparison(context.Background())
	if err != nil {
		t.Fatalf("CategoryComparison() error = %v", err)
	}
	want := "No expenses recorded in June 2025 or May 2025."
	if got != want {
		t.Errorf("CategoryComparison() = %q, want %q", got, want)
	}
}

func TestHealthScore(t *testing.T) {
	svc, repo := newTestService(t)
	seedTransaction(t, repo, "tx-1", "2025-06-01", "Salary", 500000, "Salary", core.TypeIncome)
	seedTransaction(t, repo, "tx-2", "2025-06-05", "Groceries", -200000, "Food", core.TypeExpense)

	got, err := svc.HealthScore(context.Background())
	if err != nil {
		t.Fatalf("HealthScore() error = %v", err)
	}
	assertContainsAll(t, got, []string{
		"Financial health score:",
		"/100",
		"Savings Rate",
		"Spending Consistency",
		"Income Growth",
		"Expense Balance",
		"[positive]",
	})
}

func TestListTransactions(t *testing.T) {
	svc, repo := newTestService(t)
	seedTransaction(t, repo, "tx-1", "2025-06-10", "Groceries", -200000, "Food", core.TypeExpense)
	seedTransaction(t, repo, "tx-2", "2025-05-02", "Salary", 500000, "Salary", core.TypeIncome)

	got, err := svc.ListTransactions(context.Background(), 2025, 6)
	if err != nil {
		t.Fatalf("ListTransactions(2025, 6) error = %v", err)
	}
	assertContainsAll(t, got, []string{"June 2025", "1 found", "Groceries", "-2000.00", "[Food]"})
	if strings.Contains(got, "Salary") {
		t.Errorf("ListTransactions(2025, 6) leaked May entries:\n%s", got)
	}

	got, err = svc.ListTransactions(context.Background(), 0, 0)
	if err != nil {
		t.Fatalf("ListTransactions(0, 0) error = %v", err)
	}
	assertContainsAll(t, got, []string{"all time", "2 found", "Groceries", "Salary"})

	// Missing year falls back to the clock's year.
	got, err = svc.ListTransactions(context.Background(), 0, 5)
	if err != nil {
		t.Fatalf("ListTransactions(0, 5) error = %v", err)
	}
	assertContainsAll(t, got, []string{"May 2025", "Salary"})

	got, err = svc.ListTransactions(context.Background(), 2025, 2)
	if err != nil {
		t.Fatalf("ListTransactions(2025, 2) error = %v", err)
	}
	want := "No transactions found for February 2025."
	if got != want {
		t.Errorf("ListTransactions(2025, 2) = %q, want %q", got, want)
	}

	if _, err := svc.ListTransactions(context.Background(), 2025, 13); err == nil {
		t.Fatal("ListTransactions(2025, 13) expected error, got nil")
	}
}
