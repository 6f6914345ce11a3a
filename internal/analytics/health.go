package analytics

import (
	"fmt"
	"math"
)

// Factor weights. They sum to 1 so the overall score stays on the 0-100
// scale.
const (
	weightSavingsRate  = 0.30
	weightConsistency  = 0.25
	weightIncomeGrowth = 0.20
	weightBalance      = 0.25
)

// HealthScore grades financial health from four weighted factors, all
// anchored on the current calendar month: savings rate, spending
// consistency, income growth, and expense balance. Empty input is not an
// error; the factors settle on their no-data values.
func (e *Engine) HealthScore() HealthScore {
	monthly := e.Summary(PeriodMonthly)
	comparison := e.Comparison(PeriodMonthly)
	trends := e.SpendingTrends()

	factors := []HealthFactor{
		savingsRateFactor(monthly.SavingsRate),
		consistencyFactor(trends),
		incomeGrowthFactor(comparison.IncomeGrowth),
		balanceFactor(monthly.TopCategories),
	}

	total := factors[0].Score*weightSavingsRate +
		factors[1].Score*weightConsistency +
		factors[2].Score*weightIncomeGrowth +
		factors[3].Score*weightBalance

	return HealthScore{
		Overall: int(math.Round(total)),
		Factors: factors,
	}
}

// savingsRateFactor doubles the monthly savings rate, so saving half of
// income already scores a perfect 100. Negative rates floor at 0.
func savingsRateFactor(rate float64) HealthFactor {
	score := clamp(rate*2, 0, 100)
	impact := ImpactNegative
	switch {
	case score >= 60:
		impact = ImpactPositive
	case score >= 30:
		impact = ImpactNeutral
	}
	return HealthFactor{
		Name:        "Savings Rate",
		Score:       score,
		Impact:      impact,
		Description: fmt.Sprintf("You save %.1f%% of your income", rate),
	}
}

// consistencyFactor rewards steady month-to-month spending. Variation is
// the coefficient of variation of the six-month expense series, using the
// population standard deviation.
func consistencyFactor(trends []TrendPoint) HealthFactor {
	var mean float64
	for _, p := range trends {
		mean += float64(p.Expenses.Cents)
	}
	mean /= float64(len(trends))

	variation := 0.0
	if mean > 0 {
		var sumSquares float64
		for _, p := range trends {
			d := float64(p.Expenses.Cents) - mean
			sumSquares += d * d
		}
		stddev := math.Sqrt(sumSquares / float64(len(trends)))
		variation = stddev / mean * 100
	}

	score := math.Max(0, 100-variation)
	impact := ImpactNegative
	switch {
	case score >= 70:
		impact = ImpactPositive
	case score >= 40:
		impact = ImpactNeutral
	}
	return HealthFactor{
		Name:        "Spending Consistency",
		Score:       score,
		Impact:      impact,
		Description: fmt.Sprintf("Monthly spending varies by %.1f%%", variation),
	}
}

// incomeGrowthFactor centers month-over-month income growth on a neutral
// 50: +50% growth saturates at 100, -50% bottoms out at 0. Impact reads
// the growth itself, not the score.
func incomeGrowthFactor(growth float64) HealthFactor {
	score := clamp(50+growth, 0, 100)
	impact := ImpactNeutral
	switch {
	case growth > 5:
		impact = ImpactPositive
	case growth < -5:
		impact = ImpactNegative
	}
	return HealthFactor{
		Name:        "Income Growth",
		Score:       score,
		Impact:      impact,
		Description: fmt.Sprintf("Income changed %+.1f%% from last month", growth),
	}
}

// balanceFactor penalizes months where one category dominates spending.
// Bucket boundaries are strict: exactly 50% of spending scores 50, exactly
// 40% scores 70, exactly 30% scores 90. A month with no expense categories
// scores 100.
func balanceFactor(top []CategoryShare) HealthFactor {
	score := 100.0
	description := "No expenses recorded this month"
	if len(top) > 0 {
		share := top[0].Percent
		switch {
		case share > 50:
			score = 30
		case share > 40:
			score = 50
		case share > 30:
			score = 70
		default:
			score = 90
		}
		description = fmt.Sprintf("%s takes %.1f%% of your spending", top[0].Name, share)
	}
	impact := ImpactNegative
	switch {
	case score >= 70:
		impact = ImpactPositive
	case score >= 40:
		impact = ImpactNeutral
	}
	return HealthFactor{
		Name:        "Expense Balance",
		Score:       score,
		Impact:      impact,
		Description: description,
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
