package services

import (
	"testing"
	"time"

	"bilancio/internal/core"
)

func TestDailyChecker_IsDue(t *testing.T) {
	checker := DailyChecker{}
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	startDate := core.NewDate(2025, 6, 1)

	tests := []struct {
		name       string
		lastPosted core.Date
		want       bool
	}{
		{
			name:       "never posted - is due",
			lastPosted: core.Date{},
			want:       true,
		},
		{
			name:       "posted today - not due",
			lastPosted: core.NewDate(2025, 6, 15),
			want:       false,
		},
		{
			name:       "posted yesterday - is due",
			lastPosted: core.NewDate(2025, 6, 14),
			want:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := checker.IsDue(tt.lastPosted, now, startDate)
			if got != tt.want {
				t.Errorf("DailyChecker.IsDue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWeeklyChecker_IsDue(t *testing.T) {
	checker := WeeklyChecker{}
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	startDate := core.NewDate(2025, 6, 1)

	tests := []struct {
		name       string
		lastPosted core.Date
		want       bool
	}{
		{
			name:       "never posted - is due",
			lastPosted: core.Date{},
			want:       true,
		},
		{
			name:       "posted 3 days ago - not due",
			lastPosted: core.NewDate(2025, 6, 12),
			want:       false,
		},
		{
			name:       "posted 7 days ago - is due",
			lastPosted: core.NewDate(2025, 6, 8),
			want:       true,
		},
		{
			name:       "posted 10 days ago - is due",
			lastPosted: core.NewDate(2025, 6, 5),
			want:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := checker.IsDue(tt.lastPosted, now, startDate)
			if got != tt.want {
				t.Errorf("WeeklyChecker.IsDue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMonthlyChecker_IsDue(t *testing.T) {
	checker := MonthlyChecker{}

	tests := []struct {
		name       string
		lastPosted core.Date
		now        time.Time
		startDate  core.Date
		want       bool
	}{
		{
			name:       "never posted - is due",
			lastPosted: core.Date{},
			now:        time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC),
			startDate:  core.NewDate(2025, 1, 10),
			want:       true,
		},
		{
			name:       "posted this month - not due",
			lastPosted: core.NewDate(2025, 1, 10),
			now:        time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC),
			startDate:  core.NewDate(2025, 1, 10),
			want:       false,
		},
		{
			name:       "new month but before target day - not due",
			lastPosted: core.NewDate(2025, 1, 15),
			now:        time.Date(2025, 2, 10, 12, 0, 0, 0, time.UTC),
			startDate:  core.NewDate(2025, 1, 15),
			want:       false,
		},
		{
			name:       "new month and on target day - is due",
			lastPosted: core.NewDate(2025, 1, 15),
			now:        time.Date(2025, 2, 15, 12, 0, 0, 0, time.UTC),
			startDate:  core.NewDate(2025, 1, 15),
			want:       true,
		},
		{
			name:       "new month past target day - is due",
			lastPosted: core.NewDate(2025, 1, 15),
			now:        time.Date(2025, 2, 20, 12, 0, 0, 0, time.UTC),
			startDate:  core.NewDate(2025, 1, 15),
			want:       true,
		},
		{
			name:       "target day 31 in February - clamps to 28",
			lastPosted: core.NewDate(2025, 1, 31),
			now:        time.Date(2025, 2, 28, 12, 0, 0, 0, time.UTC),
			startDate:  core.NewDate(2025, 1, 31),
			want:       true,
		},
		{
			name:       "target day 31 in leap February - clamps to 29",
			lastPosted: core.NewDate(2024, 1, 31),
			now:        time.Date(2024, 2, 29, 12, 0, 0, 0, time.UTC),
			startDate:  core.NewDate(2024, 1, 31),
			want:       true,
		},
		{
			name:       "target day 31 in April - clamps to 30",
			lastPosted: core.NewDate(2025, 3, 31),
			now:        time.Date(2025, 4, 30, 12, 0, 0, 0, time.UTC),
			startDate:  core.NewDate(2025, 1, 31),
			want:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := checker.IsDue(tt.lastPosted, tt.now, tt.startDate)
			if got != tt.want {
				t.Errorf("MonthlyChecker.IsDue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestYearlyChecker_IsDue(t *testing.T) {
	checker := YearlyChecker{}

	tests := []struct {
		name       string
		lastPosted core.Date
		now        time.Time
		startDate  core.Date
		want       bool
	}{
		{
			name:       "never posted - is due",
			lastPosted: core.Date{},
			now:        time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC),
			startDate:  core.NewDate(2025, 3, 15),
			want:       true,
		},
		{
			name:       "posted this year - not due",
			lastPosted: core.NewDate(2025, 3, 15),
			now:        time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC),
			startDate:  core.NewDate(2025, 3, 15),
			want:       false,
		},
		{
			name:       "new year but before target month - not due",
			lastPosted: core.NewDate(2025, 6, 15),
			now:        time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC),
			startDate:  core.NewDate(2025, 6, 15),
			want:       false,
		},
		{
			name:       "new year and past target month - is due",
			lastPosted: core.NewDate(2025, 3, 15),
			now:        time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC),
			startDate:  core.NewDate(2025, 3, 15),
			want:       true,
		},
		{
			name:       "new year same month before target day - not due",
			lastPosted: core.NewDate(2025, 6, 15),
			now:        time.Date(2026, 6, 10, 12, 0, 0, 0, time.UTC),
			startDate:  core.NewDate(2025, 6, 15),
			want:       false,
		},
		{
			name:       "new year same month on target day - is due",
			lastPosted: core.NewDate(2025, 6, 15),
			now:        time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC),
			startDate:  core.NewDate(2025, 6, 15),
			want:       true,
		},
		{
			name:       "feb 29 anchor in non-leap year - clamps to 28",
			lastPosted: core.NewDate(2024, 2, 29),
			now:        time.Date(2025, 2, 28, 12, 0, 0, 0, time.UTC),
			startDate:  core.NewDate(2024, 2, 29),
			want:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := checker.IsDue(tt.lastPosted, tt.now, tt.startDate)
			if got != tt.want {
				t.Errorf("YearlyChecker.IsDue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetDuenessChecker(t *testing.T) {
	tests := []struct {
		name      string
		frequency core.Frequency
		wantErr   bool
	}{
		{"daily", core.Daily, false},
		{"weekly", core.Weekly, false},
		{"monthly", core.Monthly, false},
		{"yearly", core.Yearly, false},
		{"unknown", core.Frequency("biweekly"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker, err := GetDuenessChecker(tt.frequency)
			if (err != nil) != tt.wantErr {
				t.Errorf("GetDuenessChecker() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && checker == nil {
				t.Error("GetDuenessChecker() returned nil checker")
			}
		})
	}
}

func TestRegisterDuenessChecker(t *testing.T) {
	customFreq := core.Frequency("biweekly")

	RegisterDuenessChecker(customFreq, WeeklyChecker{})

	checker, err := GetDuenessChecker(customFreq)
	if err != nil {
		t.Errorf("GetDuenessChecker() after register error = %v", err)
	}
	if checker == nil {
		t.Error("GetDuenessChecker() returned nil after registration")
	}

	// Cleanup so other tests see only the built-in frequencies.
	delete(duenessStrategies, customFreq)
}
