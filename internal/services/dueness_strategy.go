// This file implements the dueness checks for recurring rules. Each
// frequency has its own checker deciding whether a rule should post
// again given when it last posted.

package services

import (
	"fmt"
	"time"

	"bilancio/internal/core"
)

// DuenessChecker is the strategy interface for recurring rule dueness.
type DuenessChecker interface {
	// IsDue reports whether a rule that last posted on lastPosted is due
	// again at now. The empty lastPosted means the rule never posted.
	IsDue(lastPosted core.Date, now time.Time, startDate core.Date) bool
}

// DailyChecker posts once per calendar day.
type DailyChecker struct{}

func (DailyChecker) IsDue(lastPosted core.Date, now time.Time, _ core.Date) bool {
	if lastPosted.IsEmpty() {
		return true
	}
	return lastPosted.Format(core.DateLayout) != now.Format(core.DateLayout)
}

// WeeklyChecker posts when 7 or more days have passed since the last
// posting.
type WeeklyChecker struct{}

func (WeeklyChecker) IsDue(lastPosted core.Date, now time.Time, _ core.Date) bool {
	if lastPosted.IsEmpty() {
		return true
	}
	daysSince := now.Sub(lastPosted.Time).Hours() / 24
	return daysSince >= 7
}

// MonthlyChecker posts once per month on the start date's day of month.
// When that day does not exist in the current month the last day stands
// in, so a rule anchored on the 31st still posts in February.
type MonthlyChecker struct{}

func (MonthlyChecker) IsDue(lastPosted core.Date, now time.Time, startDate core.Date) bool {
	if lastPosted.IsEmpty() {
		return true
	}

	// Already posted this month?
	if lastPosted.Year() == now.Year() && lastPosted.Month() == int(now.Month()) {
		return false
	}

	targetDay := startDate.Day()
	lastDayOfMonth := time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if targetDay > lastDayOfMonth {
		targetDay = lastDayOfMonth
	}

	return now.Day() >= targetDay
}

// YearlyChecker posts once per year on the start date's month and day,
// with the same day clamping as MonthlyChecker.
type YearlyChecker struct{}

func (YearlyChecker) IsDue(lastPosted core.Date, now time.Time, startDate core.Date) bool {
	if lastPosted.IsEmpty() {
		return true
	}

	// Already posted this year?
	if lastPosted.Year() == now.Year() {
		return false
	}

	targetMonth := startDate.Month()
	targetDay := startDate.Day()

	if int(now.Month()) < targetMonth {
		return false
	}

	if int(now.Month()) == targetMonth {
		lastDayOfMonth := time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
		if targetDay > lastDayOfMonth {
			targetDay = lastDayOfMonth
		}
		return now.Day() >= targetDay
	}

	// Past the target month.
	return true
}

// duenessStrategies maps frequencies to their checkers.
var duenessStrategies = map[core.Frequency]DuenessChecker{
	core.Daily:   DailyChecker{},
	core.Weekly:  WeeklyChecker{},
	core.Monthly: MonthlyChecker{},
	core.Yearly:  YearlyChecker{},
}

// GetDuenessChecker returns the checker for a frequency, or an error for
// an unknown one.
func GetDuenessChecker(frequency core.Frequency) (DuenessChecker, error) {
	checker, ok := duenessStrategies[frequency]
	if !ok {
		return nil, fmt.Errorf("unknown frequency: %s", frequency)
	}
	return checker, nil
}

// RegisterDuenessChecker registers a checker for a new frequency.
func RegisterDuenessChecker(frequency core.Frequency, checker DuenessChecker) {
	duenessStrategies[frequency] = checker
}
