package analytics

import (
	"sort"

	"bilancio/internal/core"
)

// topCategoryLimit caps how many expense categories a summary reports.
const topCategoryLimit = 5

// Summary aggregates the period containing the reference date: totals by
// type, net amount, top expense categories, daily average, savings rate.
func (e *Engine) Summary(p Period) PeriodSummary {
	return e.summarize(p, windowFor(p, e.today()))
}

func (e *Engine) summarize(p Period, w window) PeriodSummary {
	var income, expenses int64
	count := 0
	byCategory := make(map[string]int64)
	for _, tx := range e.txs {
		if !w.contains(tx.Date) {
			continue
		}
		count++
		cents := tx.Amount.Abs().Cents
		switch tx.Type {
		case core.TypeIncome:
			income += cents
		case core.TypeExpense:
			expenses += cents
			byCategory[tx.Category] += cents
		}
	}

	net := income - expenses
	return PeriodSummary{
		Period:           p,
		Label:            w.label,
		Start:            w.start,
		End:              w.end,
		TotalIncome:      core.Money{Cents: income},
		TotalExpenses:    core.Money{Cents: expenses},
		NetAmount:        core.Money{Cents: net},
		TransactionCount: count,
		TopCategories:    topCategories(byCategory, expenses),
		AverageDaily:     core.Money{Cents: divideRound(expenses, int64(w.days))},
		SavingsRate:      savingsRate(net, income),
	}
}

// Comparison sets the current period against the immediately preceding
// window of the same kind and reports growth for income, expenses, and
// savings.
func (e *Engine) Comparison(p Period) PeriodComparison {
	ref := e.today()
	current := e.summarize(p, windowFor(p, ref))
	previous := e.summarize(p, previousWindow(p, ref))
	return PeriodComparison{
		Current:       current,
		Previous:      previous,
		IncomeGrowth:  growthPercent(current.TotalIncome.Cents, previous.TotalIncome.Cents),
		ExpenseGrowth: growthPercent(current.TotalExpenses.Cents, previous.TotalExpenses.Cents),
		SavingsGrowth: growthPercent(current.NetAmount.Cents, previous.NetAmount.Cents),
	}
}

// topCategories ranks expense categories by amount, keeping the largest
// five. Ties break alphabetically so results are reproducible.
func topCategories(byCategory map[string]int64, totalExpenses int64) []CategoryShare {
	if len(byCategory) == 0 {
		return nil
	}
	shares := make([]CategoryShare, 0, len(byCategory))
	for name, cents := range byCategory {
		share := CategoryShare{Name: name, Amount: core.Money{Cents: cents}}
		if totalExpenses > 0 {
			share.Percent = float64(cents) / float64(totalExpenses) * 100
		}
		shares = append(shares, share)
	}
	sort.Slice(shares, func(i, j int) bool {
		if shares[i].Amount.Cents != shares[j].Amount.Cents {
			return shares[i].Amount.Cents > shares[j].Amount.Cents
		}
		return shares[i].Name < shares[j].Name
	})
	if len(shares) > topCategoryLimit {
		shares = shares[:topCategoryLimit]
	}
	return shares
}

// growthPercent is the relative change from previous to current. A zero
// baseline reads as 100 when anything appeared, 0 otherwise, so callers
// never see NaN or infinity.
func growthPercent(current, previous int64) float64 {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return float64(current-previous) / float64(previous) * 100
}

// savingsRate is the share of income kept after expenses, as a
// percentage. Zero income yields zero rather than dividing by it.
func savingsRate(net, income int64) float64 {
	if income == 0 {
		return 0
	}
	return float64(net) / float64(income) * 100
}

// divideRound divides cents by n, rounding half away from zero.
func divideRound(cents, n int64) int64 {
	if n == 0 {
		return 0
	}
	if cents < 0 {
		return -divideRound(-cents, n)
	}
	return (cents + n/2) / n
}
