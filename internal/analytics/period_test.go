package analytics

import (
	"testing"

	"bilancio/internal/core"
)

func TestParsePeriod(t *testing.T) {
	for _, s := range []string{"weekly", "monthly", "half-yearly", "yearly"} {
		p, err := ParsePeriod(s)
		if err != nil || string(p) != s {
			t.Fatalf("%q expected ok, got %q (err=%v)", s, p, err)
		}
	}
	for _, s := range []string{"", "daily", "Monthly", "annual"} {
		if _, err := ParsePeriod(s); err == nil {
			t.Fatalf("%q expected error", s)
		}
	}
}

func TestWindowFor(t *testing.T) {
	cases := []struct {
		period Period
		ref    core.Date
		start  string
		end    string
		label  string
		days   int
	}{
		// 2026-08-19 is a Wednesday; the week runs Sun 16th to Sat 22nd.
		{PeriodWeekly, core.NewDate(2026, 8, 19), "2026-08-16", "2026-08-22", "Week of Aug 16, 2026", 7},
		// Weeks cross month edges without truncation.
		{PeriodWeekly, core.NewDate(2026, 8, 1), "2026-07-26", "2026-08-01", "Week of Jul 26, 2026", 7},
		// A reference date already on Sunday starts its own week.
		{PeriodWeekly, core.NewDate(2026, 8, 16), "2026-08-16", "2026-08-22", "Week of Aug 16, 2026", 7},
		{PeriodMonthly, core.NewDate(2026, 2, 14), "2026-02-01", "2026-02-28", "February 2026", 28},
		{PeriodMonthly, core.NewDate(2024, 2, 10), "2024-02-01", "2024-02-29", "February 2024", 29},
		{PeriodMonthly, core.NewDate(2025, 12, 31), "2025-12-01", "2025-12-31", "December 2025", 31},
		{PeriodHalfYearly, core.NewDate(2026, 3, 15), "2026-01-01", "2026-06-30", "H1 2026", 181},
		{PeriodHalfYearly, core.NewDate(2024, 3, 15), "2024-01-01", "2024-06-30", "H1 2024", 182},
		{PeriodHalfYearly, core.NewDate(2026, 7, 1), "2026-07-01", "2026-12-31", "H2 2026", 184},
		{PeriodHalfYearly, core.NewDate(2026, 6, 30), "2026-01-01", "2026-06-30", "H1 2026", 181},
		{PeriodYearly, core.NewDate(2026, 5, 5), "2026-01-01", "2026-12-31", "2026", 365},
		{PeriodYearly, core.NewDate(2024, 5, 5), "2024-01-01", "2024-12-31", "2024", 366},
	}
	for i, tc := range cases {
		w := windowFor(tc.period, tc.ref)
		if w.start.String() != tc.start || w.end.String() != tc.end {
			t.Fatalf("case %d window [%s, %s], expected [%s, %s]", i, w.start, w.end, tc.start, tc.end)
		}
		if w.label != tc.label {
			t.Fatalf("case %d label %q, expected %q", i, w.label, tc.label)
		}
		if w.days != tc.days {
			t.Fatalf("case %d days %d, expected %d", i, w.days, tc.days)
		}
	}
}

func TestPreviousWindow(t *testing.T) {
	cases := []struct {
		period Period
		ref    core.Date
		start  string
		end    string
		label  string
	}{
		{PeriodWeekly, core.NewDate(2026, 8, 19), "2026-08-09", "2026-08-15", "Week of Aug 09, 2026"},
		// From March 31st the previous month is all of February, not a
		// normalized "February 31st".
		{PeriodMonthly, core.NewDate(2026, 3, 31), "2026-02-01", "2026-02-28", "February 2026"},
		{PeriodMonthly, core.NewDate(2026, 1, 15), "2025-12-01", "2025-12-31", "December 2025"},
		// H1 wraps into the prior year's H2.
		{PeriodHalfYearly, core.NewDate(2026, 2, 10), "2025-07-01", "2025-12-31", "H2 2025"},
		// H2 steps back to H1 of the same year, even from December 31st.
		{PeriodHalfYearly, core.NewDate(2026, 12, 31), "2026-01-01", "2026-06-30", "H1 2026"},
		{PeriodYearly, core.NewDate(2026, 6, 1), "2025-01-01", "2025-12-31", "2025"},
	}
	for i, tc := range cases {
		w := previousWindow(tc.period, tc.ref)
		if w.start.String() != tc.start || w.end.String() != tc.end {
			t.Fatalf("case %d window [%s, %s], expected [%s, %s]", i, w.start, w.end, tc.start, tc.end)
		}
		if w.label != tc.label {
			t.Fatalf("case %d label %q, expected %q", i, w.label, tc.label)
		}
	}
}

func TestWindowContains(t *testing.T) {
	w := windowFor(PeriodMonthly, core.NewDate(2026, 2, 14))
	cases := []struct {
		d  core.Date
		in bool
	}{
		{core.NewDate(2026, 2, 1), true},
		{core.NewDate(2026, 2, 28), true},
		{core.NewDate(2026, 1, 31), false},
		{core.NewDate(2026, 3, 1), false},
	}
	for i, tc := range cases {
		if got := w.contains(tc.d); got != tc.in {
			t.Fatalf("case %d contains(%s) = %v, expected %v", i, tc.d, got, tc.in)
		}
	}
}

func TestDivideRound(t *testing.T) {
	cases := []struct {
		cents, n, out int64
	}{
		{200000, 30, 6667},
		{100, 3, 33},
		{200, 3, 67},
		{0, 7, 0},
		{-200, 3, -67},
		{100, 0, 0},
	}
	for i, tc := range cases {
		if got := divideRound(tc.cents, tc.n); got != tc.out {
			t.Fatalf("case %d divideRound(%d, %d) = %d, expected %d", i, tc.cents, tc.n, got, tc.out)
		}
	}
}
