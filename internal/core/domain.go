package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const (
	Income  EntryType = "income"
	Expense EntryType = "expense"
)

const (
	UserMaria    User = "Мария"
	UserVictoria User = "Виктория"
	UserShared   User = "Общее"
)

type (
	// EntryType discriminates income from expense. The sign of an amount is
	// derived from it, amounts themselves are never stored negative.
	EntryType string

	// User is the closed set of household participants plus the shared pool.
	User string

	// Date is a calendar date without time of day, stored as YYYY-MM-DD.
	Date struct {
		time.Time
	}

	// Transaction is a single entry in the ledger.
	Transaction struct {
		ID       string    `json:"id"`
		Amount   Money     `json:"amount"`
		Category Category  `json:"category"`
		Date     Date      `json:"date"`
		User     User      `json:"user"`
		Note     string    `json:"note"`
		Type     EntryType `json:"type"`
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidUser      = errors.New("invalid user")
	ErrInvalidCategory  = errors.New("invalid category")
	ErrInvalidType      = errors.New("invalid entry type")
	ErrCategoryMismatch = errors.New("category does not match entry type")
	ErrEmptyTitle       = errors.New("empty plan title")
)

// dateLayout is the ISO calendar-date form used everywhere a date is
// serialized: local slots, the sync envelope, log fields.
const dateLayout = "2006-01-02"

// NewDate creates a Date from year, month, day in UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current calendar date in UTC.
func Today() Date {
	now := time.Now().UTC()
	return NewDate(now.Year(), now.Month(), now.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Equal reports whether two dates name the same calendar day.
func (d Date) Equal(other Date) bool {
	dy, dm, dd := d.Date()
	oy, om, od := other.Date()
	return dy == oy && dm == om && dd == od
}

// Before reports whether d falls on an earlier calendar day than other.
func (d Date) Before(other Date) bool {
	return d.String() < other.String()
}

// InMonth reports whether the date falls within the given year and month.
func (d Date) InMonth(year int, month time.Month) bool {
	return d.Year() == year && d.Month() == month
}

// OnOrBeforeMonthEnd reports whether the date is no later than the last
// day of the given month.
func (d Date) OnOrBeforeMonthEnd(year int, month time.Month) bool {
	if d.Year() != year {
		return d.Year() < year
	}
	return d.Month() <= month
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (t EntryType) IsValid() bool {
	return t == Income || t == Expense
}

func (u User) IsValid() bool {
	switch u {
	case UserMaria, UserVictoria, UserShared:
		return true
	}
	return false
}

// Validate checks all transaction invariants: a positive amount, known
// category/user/type, a real date, and the type/category pairing (income
// entries carry the Income category, expense entries never do).
func (t Transaction) Validate() error {
	if t.Amount.Cents <= 0 {
		return ErrInvalidAmount
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if !t.User.IsValid() {
		return ErrInvalidUser
	}
	if !t.Category.IsValid() {
		return ErrInvalidCategory
	}
	switch t.Type {
	case Income:
		if t.Category != CategoryIncome {
			return ErrCategoryMismatch
		}
	case Expense:
		if t.Category == CategoryIncome {
			return ErrCategoryMismatch
		}
	default:
		return ErrInvalidType
	}
	return nil
}
