package analytics

import (
	"sort"
	"time"

	"bilancio/internal/core"
)

// trendMonths is the length of the spending trend series.
const trendMonths = 6

// SpendingTrends reports income, expenses, and savings for the six
// trailing calendar months ending with the current one, oldest first.
// Months without activity appear as explicit zero points.
func (e *Engine) SpendingTrends() []TrendPoint {
	y, m, _ := e.today().Date()
	first := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(trendMonths - 1), 0)

	points := make([]TrendPoint, 0, trendMonths)
	for i := 0; i < trendMonths; i++ {
		start := first.AddDate(0, i, 0)
		w := windowFor(PeriodMonthly, core.Date{Time: start})

		var income, expenses int64
		for _, tx := range e.txs {
			if !w.contains(tx.Date) {
				continue
			}
			cents := tx.Amount.Abs().Cents
			switch tx.Type {
			case core.TypeIncome:
				income += cents
			case core.TypeExpense:
				expenses += cents
			}
		}
		points = append(points, TrendPoint{
			Label:    start.Format("Jan 2006"),
			Income:   core.Money{Cents: income},
			Expenses: core.Money{Cents: expenses},
			Savings:  core.Money{Cents: income - expenses},
		})
	}
	return points
}

// CategoryComparison compares expense totals per category between the
// current calendar month and the one before it, over the union of
// categories seen in either month. Always month-granular, whatever period
// the caller is otherwise viewing.
func (e *Engine) CategoryComparison() []CategoryDelta {
	ref := e.today()
	current := e.expensesByCategory(windowFor(PeriodMonthly, ref))
	previous := e.expensesByCategory(previousWindow(PeriodMonthly, ref))

	names := make(map[string]struct{}, len(current)+len(previous))
	for name := range current {
		names[name] = struct{}{}
	}
	for name := range previous {
		names[name] = struct{}{}
	}

	deltas := make([]CategoryDelta, 0, len(names))
	for name := range names {
		cur, prev := current[name], previous[name]
		deltas = append(deltas, CategoryDelta{
			Category:       name,
			CurrentAmount:  core.Money{Cents: cur},
			PreviousAmount: core.Money{Cents: prev},
			Change:         growthPercent(cur, prev),
		})
	}
	sort.Slice(deltas, func(i, j int) bool {
		if deltas[i].CurrentAmount.Cents != deltas[j].CurrentAmount.Cents {
			return deltas[i].CurrentAmount.Cents > deltas[j].CurrentAmount.Cents
		}
		return deltas[i].Category < deltas[j].Category
	})
	return deltas
}

func (e *Engine) expensesByCategory(w window) map[string]int64 {
	byCategory := make(map[string]int64)
	for _, tx := range e.txs {
		if tx.Type != core.TypeExpense || !w.contains(tx.Date) {
			continue
		}
		byCategory[tx.Category] += tx.Amount.Abs().Cents
	}
	return byCategory
}
