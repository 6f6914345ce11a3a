package analytics

import "bilancio/internal/core"

// CategoryShare is one expense category's contribution to a period.
type CategoryShare struct {
	Name    string     `json:"name"`
	Amount  core.Money `json:"amount"`
	Percent float64    `json:"percent"` // share of the period's total expenses
}

// PeriodSummary aggregates one calendar window of activity. Income and
// expense totals are sums of absolute amounts, partitioned by type.
type PeriodSummary struct {
	Period           Period          `json:"period"`
	Label            string          `json:"label"`
	Start            core.Date       `json:"start"`
	End              core.Date       `json:"end"`
	TotalIncome      core.Money      `json:"total_income"`
	TotalExpenses    core.Money      `json:"total_expenses"`
	NetAmount        core.Money      `json:"net_amount"`
	TransactionCount int             `json:"transaction_count"`
	TopCategories    []CategoryShare `json:"top_categories"`
	AverageDaily     core.Money      `json:"average_daily"`
	SavingsRate      float64         `json:"savings_rate"`
}

// PeriodComparison sets the current window against the one before it.
type PeriodComparison struct {
	Current       PeriodSummary `json:"current"`
	Previous      PeriodSummary `json:"previous"`
	IncomeGrowth  float64       `json:"income_growth"`
	ExpenseGrowth float64       `json:"expense_growth"`
	SavingsGrowth float64       `json:"savings_growth"`
}

// CategoryDelta compares one category's expenses between the current and
// previous calendar month.
type CategoryDelta struct {
	Category       string     `json:"category"`
	CurrentAmount  core.Money `json:"current_amount"`
	PreviousAmount core.Money `json:"previous_amount"`
	Change         float64    `json:"change"`
}

// TrendPoint is one month of the spending trend series.
type TrendPoint struct {
	Label    string     `json:"label"`
	Income   core.Money `json:"income"`
	Expenses core.Money `json:"expenses"`
	Savings  core.Money `json:"savings"`
}

// Impact classifies how a factor pulls the overall health score.
type Impact string

const (
	ImpactPositive Impact = "positive"
	ImpactNeutral  Impact = "neutral"
	ImpactNegative Impact = "negative"
)

// HealthFactor is one weighted component of the health score.
type HealthFactor struct {
	Name        string  `json:"name"`
	Score       float64 `json:"score"` // 0-100
	Impact      Impact  `json:"impact"`
	Description string  `json:"description"`
}

// HealthScore grades overall financial health on a 0-100 scale.
type HealthScore struct {
	Overall int            `json:"overall"`
	Factors []HealthFactor `json:"factors"`
}
