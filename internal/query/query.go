// Package query filters a ledger and computes the totals shown to the user.
package query

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/jizhang-dev/jizhang/internal/model"
)

// Filter narrows the rows of a view. Zero fields are unset.
type Filter struct {
	Category string    // case-insensitive substring
	From     time.Time // inclusive
	To       time.Time // inclusive
}

// ParseFilter builds a Filter from text input. Empty strings leave the
// corresponding bound unset; dates must be YYYY-MM-DD.
func ParseFilter(category, from, to string) (Filter, error) {
	f := Filter{Category: strings.TrimSpace(category)}

	var err error
	if s := strings.TrimSpace(from); s != "" {
		if f.From, err = model.ParseDate(s); err != nil {
			return Filter{}, fmt.Errorf("parsing from date %q: %w", s, err)
		}
	}
	if s := strings.TrimSpace(to); s != "" {
		if f.To, err = model.ParseDate(s); err != nil {
			return Filter{}, fmt.Errorf("parsing to date %q: %w", s, err)
		}
	}
	return f, nil
}

// IsZero reports whether the filter matches everything.
func (f Filter) IsZero() bool {
	return f.Category == "" && f.From.IsZero() && f.To.IsZero()
}

// Totals are sums over the whole ledger.
type Totals struct {
	Income  decimal.Decimal
	Expense decimal.Decimal
	Balance decimal.Decimal // Income - Expense
}

// CategoryTotal sums one category over the whole ledger.
type CategoryTotal struct {
	Category string
	Income   decimal.Decimal
	Expense  decimal.Decimal
	Count    int
}

// ViewModel is everything the presentation layer needs for one render.
type ViewModel struct {
	// Rows are the matching transactions, newest first. Rows sharing a date
	// keep ledger order.
	Rows       []model.Transaction
	Totals     Totals
	ByCategory []CategoryTotal
	// Count is the size of the whole ledger, not of Rows.
	Count int
}

// Run filters txns and computes totals. Totals and ByCategory always cover
// the full ledger, whatever the filter.
func Run(txns []model.Transaction, f Filter) ViewModel {
	m := newMatcher(f)

	rows := make([]model.Transaction, 0, len(txns))
	for _, t := range txns {
		if m.match(t) {
			rows = append(rows, t)
		}
	}
	slices.SortStableFunc(rows, func(a, b model.Transaction) int {
		return b.Date.Compare(a.Date)
	})

	return ViewModel{
		Rows:       rows,
		Totals:     ComputeTotals(txns),
		ByCategory: ByCategory(txns),
		Count:      len(txns),
	}
}

// ComputeTotals sums income and expense amounts exactly.
func ComputeTotals(txns []model.Transaction) Totals {
	income, expense := decimal.Zero, decimal.Zero
	for _, t := range txns {
		switch t.Type {
		case model.TypeIncome:
			income = income.Add(t.Amount)
		case model.TypeExpense:
			expense = expense.Add(t.Amount)
		}
	}
	return Totals{Income: income, Expense: expense, Balance: income.Sub(expense)}
}

// ByCategory groups the ledger by exact category label, sorted by label.
func ByCategory(txns []model.Transaction) []CategoryTotal {
	idx := make(map[string]int)
	var out []CategoryTotal
	for _, t := range txns {
		i, ok := idx[t.Category]
		if !ok {
			i = len(out)
			idx[t.Category] = i
			out = append(out, CategoryTotal{Category: t.Category, Income: decimal.Zero, Expense: decimal.Zero})
		}
		ct := &out[i]
		ct.Count++
		switch t.Type {
		case model.TypeIncome:
			ct.Income = ct.Income.Add(t.Amount)
		case model.TypeExpense:
			ct.Expense = ct.Expense.Add(t.Amount)
		}
	}
	slices.SortFunc(out, func(a, b CategoryTotal) int {
		return strings.Compare(a.Category, b.Category)
	})
	return out
}

// FormatAmount renders d with exactly two decimals behind symbol.
func FormatAmount(d decimal.Decimal, symbol string) string {
	return symbol + d.StringFixed(2)
}

type matcher struct {
	f      Filter
	fold   cases.Caser
	needle string
}

func newMatcher(f Filter) *matcher {
	m := &matcher{f: f, fold: cases.Fold()}
	if c := strings.TrimSpace(f.Category); c != "" {
		m.needle = m.key(c)
	}
	if !f.From.IsZero() {
		m.f.From = model.Day(f.From)
	}
	if !f.To.IsZero() {
		m.f.To = model.Day(f.To)
	}
	return m
}

func (m *matcher) key(s string) string {
	return m.fold.String(norm.NFC.String(s))
}

func (m *matcher) match(t model.Transaction) bool {
	if m.needle != "" && !strings.Contains(m.key(t.Category), m.needle) {
		return false
	}
	if !m.f.From.IsZero() && t.Date.Before(m.f.From) {
		return false
	}
	if !m.f.To.IsZero() && t.Date.After(m.f.To) {
		return false
	}
	return true
}
