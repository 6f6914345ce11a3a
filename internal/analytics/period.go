package analytics

import (
	"fmt"
	"strconv"
	"time"

	"bilancio/internal/core"
)

// Period selects the calendar window a query is computed over.
type Period string

const (
	PeriodWeekly     Period = "weekly"
	PeriodMonthly    Period = "monthly"
	PeriodHalfYearly Period = "half-yearly"
	PeriodYearly     Period = "yearly"
)

// ParsePeriod parses the wire form of a period.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case PeriodWeekly, PeriodMonthly, PeriodHalfYearly, PeriodYearly:
		return Period(s), nil
	}
	return "", fmt.Errorf("unknown period %q", s)
}

// window is an inclusive calendar date range with a display label and the
// day count used for daily averaging.
type window struct {
	start core.Date
	end   core.Date
	label string
	days  int
}

func (w window) contains(d core.Date) bool {
	return !d.Time.Before(w.start.Time) && !d.Time.After(w.end.Time)
}

// windowFor computes the window of the given period kind containing ref.
//
// Weeks run Sunday through Saturday and are not truncated at month or
// year edges. Half-years split at July 1st. The yearly day count follows
// the simple leap rule (year divisible by four).
func windowFor(p Period, ref core.Date) window {
	y, m, _ := ref.Date()
	switch p {
	case PeriodWeekly:
		start := ref.AddDate(0, 0, -int(ref.Weekday()))
		end := start.AddDate(0, 0, 6)
		return window{
			start: core.Date{Time: start},
			end:   core.Date{Time: end},
			label: "Week of " + start.Format("Jan 02, 2006"),
			days:  7,
		}
	case PeriodHalfYearly:
		half := 1
		firstMonth := time.January
		if m >= time.July {
			half = 2
			firstMonth = time.July
		}
		start := time.Date(y, firstMonth, 1, 0, 0, 0, 0, time.UTC)
		end := start.AddDate(0, 6, -1)
		return window{
			start: core.Date{Time: start},
			end:   core.Date{Time: end},
			label: fmt.Sprintf("H%d %d", half, y),
			days:  daysBetween(start, end),
		}
	case PeriodYearly:
		start := time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(y, time.December, 31, 0, 0, 0, 0, time.UTC)
		days := 365
		if y%4 == 0 {
			days = 366
		}
		return window{
			start: core.Date{Time: start},
			end:   core.Date{Time: end},
			label: strconv.Itoa(y),
			days:  days,
		}
	default: // PeriodMonthly
		start := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
		end := start.AddDate(0, 1, -1)
		return window{
			start: core.Date{Time: start},
			end:   core.Date{Time: end},
			label: start.Format("January 2006"),
			days:  end.Day(),
		}
	}
}

// previousWindow computes the window immediately preceding the one
// containing ref. Shifts anchor on the current window's start, so H1 of a
// year maps to H2 of the year before and month lengths never bleed into
// neighboring windows.
func previousWindow(p Period, ref core.Date) window {
	w := windowFor(p, ref)
	switch p {
	case PeriodWeekly:
		return windowFor(p, core.Date{Time: w.start.AddDate(0, 0, -7)})
	case PeriodHalfYearly:
		return windowFor(p, core.Date{Time: w.start.AddDate(0, -6, 0)})
	case PeriodYearly:
		return windowFor(p, core.Date{Time: w.start.AddDate(-1, 0, 0)})
	default: // PeriodMonthly
		return windowFor(p, core.Date{Time: w.start.AddDate(0, -1, 0)})
	}
}

// daysBetween counts inclusive days between two UTC midnights.
func daysBetween(start, end time.Time) int {
	return int(end.Sub(start).Hours()/24) + 1
}
