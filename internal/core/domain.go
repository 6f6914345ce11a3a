package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	TypeIncome  TransactionType = "income"
	TypeExpense TransactionType = "expense"
)

const (
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
	Weekly  Frequency = "weekly"
	Daily   Frequency = "daily"
)

// DateLayout is the wire and storage format for calendar dates.
const DateLayout = "2006-01-02"

type (
	TransactionType string

	Frequency string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Transaction struct {
		ID          string          `json:"id"`
		Date        Date            `json:"date"`
		Description string          `json:"description"`
		Amount      Money           `json:"amount"` // signed cents; analytics reads the absolute value
		Category    string          `json:"category"`
		Type        TransactionType `json:"type"`
	}

	RecurringTransaction struct {
		ID          int64           `json:"id"` // Database ID for operations
		StartDate   Date            `json:"start_date"`
		EndDate     Date            `json:"end_date"`
		Every       Frequency       `json:"every"`
		Description string          `json:"description"`
		Amount      Money           `json:"amount"`
		Category    string          `json:"category"`
		Type        TransactionType `json:"type"`
	}

	Settings struct {
		Currency      string `json:"currency"`
		MonthlySalary Money  `json:"monthly_salary"`
		SavingsGoal   Money  `json:"savings_goal"`
	}
)

var (
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidDay         = errors.New("invalid day")
	ErrInvalidMonth       = errors.New("invalid month")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrEmptyDescription   = errors.New("empty description")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
	ErrEmptyCategory      = errors.New("empty category")
	ErrInvalidType        = errors.New("invalid transaction type")
	ErrInvalidCurrency    = errors.New("invalid currency code")
	ErrNotFound           = errors.New("not found")
)

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	// Check basic ranges
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string into a Date. Out-of-range
// components (month 13, February 30th) are rejected, not normalized.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return NewDate(t.Year(), int(t.Month()), t.Day()), nil
}

// IsEmpty returns true if the date is zero (for optional dates such as
// a recurring transaction's end date)
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// MarshalJSON encodes the date as a YYYY-MM-DD string, or "" when zero.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (m Money) Validate() error {
	if m.Cents == 0 {
		return ErrInvalidAmount
	}
	return nil
}

// ParseTransactionType parses the wire form of a transaction type.
func ParseTransactionType(s string) (TransactionType, error) {
	switch TransactionType(s) {
	case TypeIncome:
		return TypeIncome, nil
	case TypeExpense:
		return TypeExpense, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidType, s)
}

func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return ErrDescriptionTooLong
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	switch t.Type {
	case TypeIncome, TypeExpense:
		// Valid transaction types
	default:
		return ErrInvalidType
	}
	return nil
}

func (rt RecurringTransaction) Validate() error {
	// Validate start date
	if err := rt.StartDate.Validate(); err != nil {
		return errors.New("invalid start date: " + err.Error())
	}

	// Validate end date if provided
	if !rt.EndDate.IsZero() {
		if err := rt.EndDate.Validate(); err != nil {
			return errors.New("invalid end date: " + err.Error())
		}

		// Ensure end date is after start date
		if !rt.EndDate.After(rt.StartDate.Time) && !rt.EndDate.Equal(rt.StartDate.Time) {
			return errors.New("end date must be after start date")
		}
	}

	// Validate repetition type
	switch rt.Every {
	case Daily, Weekly, Monthly, Yearly:
		// Valid repetition types
	default:
		return errors.New("invalid repetition type")
	}

	// Validate description
	if len(strings.TrimSpace(rt.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(rt.Description) > 200 {
		return ErrDescriptionTooLong
	}

	// Validate amount
	if err := rt.Amount.Validate(); err != nil {
		return err
	}

	// Validate category and type
	if strings.TrimSpace(rt.Category) == "" {
		return ErrEmptyCategory
	}
	switch rt.Type {
	case TypeIncome, TypeExpense:
	default:
		return ErrInvalidType
	}

	return nil
}

// ValidCurrency reports whether code looks like an ISO-4217 currency
// code: exactly three uppercase letters.
func ValidCurrency(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

func (s Settings) Validate() error {
	if !ValidCurrency(s.Currency) {
		return ErrInvalidCurrency
	}
	if s.MonthlySalary.Cents < 0 {
		return ErrInvalidAmount
	}
	if s.SavingsGoal.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}
