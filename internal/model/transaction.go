package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType classifies a ledger entry.
type TransactionType string

const (
	TypeIncome  TransactionType = "income"
	TypeExpense TransactionType = "expense"
)

// Uncategorized is the category given to entries recorded without one.
const Uncategorized = "uncategorized"

// DateFormat is the wire and display form of a transaction date.
const DateFormat = "2006-01-02"

// Transaction is a single income or expense entry. Transactions are never
// edited in place; a changed entry is a new Transaction.
type Transaction struct {
	ID       string
	Type     TransactionType
	Amount   decimal.Decimal
	Category string
	Date     time.Time // UTC midnight
	Note     string
}

// DateString returns the date as YYYY-MM-DD.
func (t Transaction) DateString() string {
	return t.Date.Format(DateFormat)
}

// IsIncome reports whether the entry is income.
func (t Transaction) IsIncome() bool {
	return t.Type == TypeIncome
}

// Day truncates a point in time to its calendar date, expressed as UTC midnight.
// The calendar date is taken in ts's own location.
func Day(ts time.Time) time.Time {
	y, m, d := ts.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateFormat, s)
}
