package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the canonical calendar date format used in reports.
const DateLayout = "2006-01-02"

type (
	// Date is a calendar date stored as UTC midnight.
	Date struct {
		time.Time
	}

	// Transaction is one reward entry attributed to an alias.
	Transaction struct {
		Alias  string
		Date   Date
		Amount decimal.Decimal
	}

	// Table holds transactions in source row order.
	Table []Transaction
)

var (
	ErrEmptyAlias = errors.New("empty alias")
	ErrZeroDate   = errors.New("date cannot be zero")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf keeps the calendar date of t as written, discarding time-of-day and offset.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(DateLayout)
}

// AddDays returns the date n days later (or earlier when negative).
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// DaysUntil returns the whole number of days from d to other.
func (d Date) DaysUntil(other Date) int {
	return int(other.Sub(d.Time).Hours() / 24)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrZeroDate
	}
	return nil
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.Alias) == "" {
		return ErrEmptyAlias
	}
	return t.Date.Validate()
}

// Len returns the number of transactions.
func (t Table) Len() int {
	return len(t)
}

// Empty reports whether the table has no rows.
func (t Table) Empty() bool {
	return len(t) == 0
}

// Sum returns the total of all amounts.
func (t Table) Sum() decimal.Decimal {
	total := decimal.Zero
	for _, tx := range t {
		total = total.Add(tx.Amount)
	}
	return total
}

// DateBounds returns the earliest and latest dates. Both are zero for an empty table.
func (t Table) DateBounds() (Date, Date) {
	if len(t) == 0 {
		return Date{}, Date{}
	}
	lo, hi := t[0].Date, t[0].Date
	for _, tx := range t[1:] {
		if tx.Date.Before(lo.Time) {
			lo = tx.Date
		}
		if tx.Date.After(hi.Time) {
			hi = tx.Date
		}
	}
	return lo, hi
}

// MarshalJSON encodes the date as "YYYY-MM-DD".
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}
