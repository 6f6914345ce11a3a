package analytics

import (
	"strings"
	"testing"

	"bilancio/internal/core"
)

func trendSeries(expenses ...int64) []TrendPoint {
	points := make([]TrendPoint, 0, len(expenses))
	for _, cents := range expenses {
		points = append(points, TrendPoint{Expenses: core.Money{Cents: cents}})
	}
	return points
}

func TestSavingsRateFactor(t *testing.T) {
	cases := []struct {
		rate   float64
		score  float64
		impact Impact
	}{
		{50, 100, ImpactPositive},
		{30, 60, ImpactPositive}, // boundary: 60 is already positive
		{25, 50, ImpactNeutral},
		{15, 30, ImpactNeutral}, // boundary: 30 is already neutral
		{14, 28, ImpactNegative},
		{0, 0, ImpactNegative},
		{-20, 0, ImpactNegative}, // negative rates floor at zero
		{80, 100, ImpactPositive},
	}
	for i, tc := range cases {
		f := savingsRateFactor(tc.rate)
		if !almostEqual(f.Score, tc.score) || f.Impact != tc.impact {
			t.Fatalf("case %d rate %v: score %v impact %s, expected %v %s", i, tc.rate, f.Score, f.Impact, tc.score, tc.impact)
		}
	}
}

func TestConsistencyFactor(t *testing.T) {
	t.Run("steady spending scores perfect", func(t *testing.T) {
		f := consistencyFactor(trendSeries(1000, 1000, 1000, 1000, 1000, 1000))
		if f.Score != 100 || f.Impact != ImpactPositive {
			t.Fatalf("got %+v", f)
		}
	})

	t.Run("no spending counts as consistent", func(t *testing.T) {
		f := consistencyFactor(trendSeries(0, 0, 0, 0, 0, 0))
		if f.Score != 100 || f.Impact != ImpactPositive {
			t.Fatalf("got %+v", f)
		}
	})

	t.Run("one spike wipes out the score", func(t *testing.T) {
		f := consistencyFactor(trendSeries(0, 0, 0, 0, 0, 200000))
		if f.Score != 0 || f.Impact != ImpactNegative {
			t.Fatalf("got %+v", f)
		}
	})

	t.Run("moderate variation is neutral", func(t *testing.T) {
		// Mean 7000/6, population stddev gives ~31.9% variation.
		f := consistencyFactor(trendSeries(1000, 1000, 1000, 1000, 1000, 2000))
		if f.Score < 40 || f.Score >= 70 || f.Impact != ImpactNeutral {
			t.Fatalf("got %+v", f)
		}
	})
}

func TestIncomeGrowthFactor(t *testing.T) {
	cases := []struct {
		growth float64
		score  float64
		impact Impact
	}{
		{0, 50, ImpactNeutral},
		{5, 55, ImpactNeutral}, // strict: exactly +5 stays neutral
		{5.1, 55.1, ImpactPositive},
		{-5, 45, ImpactNeutral},
		{-5.1, 44.9, ImpactNegative},
		{60, 100, ImpactPositive},  // clamps high
		{-80, 0, ImpactNegative},   // clamps low
		{100, 100, ImpactPositive}, // from-zero sentinel
	}
	for i, tc := range cases {
		f := incomeGrowthFactor(tc.growth)
		if !almostEqual(f.Score, tc.score) || f.Impact != tc.impact {
			t.Fatalf("case %d growth %v: score %v impact %s, expected %v %s", i, tc.growth, f.Score, f.Impact, tc.score, tc.impact)
		}
	}
}

func TestBalanceFactorBuckets(t *testing.T) {
	cases := []struct {
		share  float64
		score  float64
		impact Impact
	}{
		{100, 30, ImpactNegative},
		{50.1, 30, ImpactNegative},
		{50, 50, ImpactNeutral}, // strict boundary: exactly 50% is not >50
		{45, 50, ImpactNeutral},
		{40, 70, ImpactPositive}, // strict boundary: exactly 40% is not >40
		{35, 70, ImpactPositive},
		{30, 90, ImpactPositive}, // strict boundary: exactly 30% is not >30
		{10, 90, ImpactPositive},
	}
	for i, tc := range cases {
		f := balanceFactor([]CategoryShare{{Name: "Food", Percent: tc.share}})
		if f.Score != tc.score || f.Impact != tc.impact {
			t.Fatalf("case %d share %v: score %v impact %s, expected %v %s", i, tc.share, f.Score, f.Impact, tc.score, tc.impact)
		}
	}
}

func TestBalanceFactorNoCategories(t *testing.T) {
	f := balanceFactor(nil)
	if f.Score != 100 || f.Impact != ImpactPositive {
		t.Fatalf("got %+v", f)
	}
	if !strings.Contains(f.Description, "No expenses") {
		t.Fatalf("description %q", f.Description)
	}
}

func TestHealthScoreEmptySnapshot(t *testing.T) {
	hs := New(nil, clockAt(2025, 6, 15)).HealthScore()

	names := make([]string, 0, len(hs.Factors))
	for _, f := range hs.Factors {
		names = append(names, f.Name)
	}
	want := []string{"Savings Rate", "Spending Consistency", "Income Growth", "Expense Balance"}
	for i, name := range want {
		if names[i] != name {
			t.Fatalf("factor order %v, expected %v", names, want)
		}
	}

	// 0*0.30 + 100*0.25 + 50*0.20 + 100*0.25 = 60.
	if hs.Overall != 60 {
		t.Fatalf("overall %d, expected 60", hs.Overall)
	}
	if hs.Factors[0].Score != 0 || hs.Factors[0].Impact != ImpactNegative {
		t.Fatalf("savings factor %+v", hs.Factors[0])
	}
	if hs.Factors[1].Score != 100 {
		t.Fatalf("consistency factor %+v", hs.Factors[1])
	}
	if hs.Factors[2].Score != 50 || hs.Factors[2].Impact != ImpactNeutral {
		t.Fatalf("growth factor %+v", hs.Factors[2])
	}
	if hs.Factors[3].Score != 100 {
		t.Fatalf("balance factor %+v", hs.Factors[3])
	}
}

func TestHealthScoreScenario(t *testing.T) {
	// Current month: income 4000.00, expenses 3000.00 with the largest
	// category at 60%. Savings rate 25%; no activity in earlier months.
	eng := New([]core.Transaction{
		income("in", "2025-06-01", 400000),
		expense("food", "2025-06-05", "Food", 180000),
		expense("other", "2025-06-06", "Other", 120000),
	}, clockAt(2025, 6, 15))

	hs := eng.HealthScore()

	savings := hs.Factors[0]
	if !almostEqual(savings.Score, 50) || savings.Impact != ImpactNeutral {
		t.Fatalf("savings factor %+v", savings)
	}
	consistency := hs.Factors[1]
	if consistency.Score != 0 || consistency.Impact != ImpactNegative {
		t.Fatalf("consistency factor %+v", consistency)
	}
	growth := hs.Factors[2]
	if growth.Score != 100 || growth.Impact != ImpactPositive {
		t.Fatalf("growth factor %+v", growth)
	}
	balance := hs.Factors[3]
	if balance.Score != 30 || balance.Impact != ImpactNegative {
		t.Fatalf("balance factor %+v", balance)
	}

	// 50*0.30 + 0*0.25 + 100*0.20 + 30*0.25 = 42.5, rounded up.
	if hs.Overall != 43 {
		t.Fatalf("overall %d, expected 43", hs.Overall)
	}
}

func TestHealthScoreDescriptionsCarryFigures(t *testing.T) {
	eng := New([]core.Transaction{
		income("in", "2025-06-01", 400000),
		expense("food", "2025-06-05", "Food", 180000),
		expense("other", "2025-06-06", "Other", 120000),
	}, clockAt(2025, 6, 15))

	hs := eng.HealthScore()
	if !strings.Contains(hs.Factors[0].Description, "25.0%") {
		t.Fatalf("savings description %q", hs.Factors[0].Description)
	}
	if !strings.Contains(hs.Factors[3].Description, "Food") {
		t.Fatalf("balance description %q", hs.Factors[3].Description)
	}
}
