package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jizhang-dev/jizhang/internal/id"
)

// RawRecord is a loosely-typed transaction as it arrives from storage, an
// import file or a form. Only Normalize looks inside it.
type RawRecord map[string]any

// Raw record keys.
const (
	FieldID       = "id"
	FieldType     = "type"
	FieldAmount   = "amount"
	FieldCategory = "category"
	FieldDate     = "date"
	FieldNote     = "note"
)

// AmountPolicy selects how Normalize treats an unusable amount.
type AmountPolicy int

const (
	// Strict rejects any amount that is not a finite number greater than zero.
	Strict AmountPolicy = iota
	// Lenient coerces unusable amounts to zero and keeps the row. Used for
	// imports and stored data so that old or hand-edited files stay loadable.
	Lenient
)

var errNotNumber = errors.New("not a number")

// Normalizer turns raw records into Transactions, filling defaults from a
// host clock and id generator.
type Normalizer struct {
	Now             func() time.Time
	NewID           func() string
	DefaultCategory string
}

// NewNormalizer returns a Normalizer using the wall clock and random ids.
func NewNormalizer() *Normalizer {
	return &Normalizer{
		Now:             time.Now,
		NewID:           id.New,
		DefaultCategory: Uncategorized,
	}
}

// Today returns the current calendar date.
func (n *Normalizer) Today() time.Time {
	return Day(n.now())
}

// Normalize coerces raw into a Transaction. Only the amount can fail, and only
// under the Strict policy; every other field falls back to a default.
func (n *Normalizer) Normalize(raw RawRecord, policy AmountPolicy) (Transaction, error) {
	amount, err := n.amount(raw[FieldAmount], policy)
	if err != nil {
		return Transaction{}, err
	}

	txn := Transaction{
		ID:       n.NewIDFor(raw[FieldID]),
		Type:     TypeExpense,
		Amount:   amount,
		Category: n.defaultCategory(),
	}

	if s, ok := raw[FieldType].(string); ok && TransactionType(s) == TypeIncome {
		txn.Type = TypeIncome
	}
	if v := raw[FieldCategory]; truthy(v) {
		if c := strings.TrimSpace(stringify(v)); c != "" {
			txn.Category = c
		}
	}
	if v := raw[FieldNote]; truthy(v) {
		txn.Note = strings.TrimSpace(stringify(v))
	}

	date, ok := coerceDate(raw[FieldDate])
	if !ok {
		date = n.Today()
	}
	txn.Date = date

	return txn, nil
}

// NewIDFor keeps an existing id when one is given and mints one otherwise.
func (n *Normalizer) NewIDFor(v any) string {
	if truthy(v) {
		if s := strings.TrimSpace(stringify(v)); s != "" {
			return s
		}
	}
	if n.NewID == nil {
		return id.New()
	}
	return n.NewID()
}

// ToRaw returns the canonical raw form of txn.
func ToRaw(txn Transaction) RawRecord {
	return RawRecord{
		FieldID:       txn.ID,
		FieldType:     string(txn.Type),
		FieldAmount:   txn.Amount,
		FieldCategory: txn.Category,
		FieldDate:     txn.DateString(),
		FieldNote:     txn.Note,
	}
}

func (n *Normalizer) now() time.Time {
	if n.Now == nil {
		return time.Now()
	}
	return n.Now()
}

func (n *Normalizer) defaultCategory() string {
	if n.DefaultCategory == "" {
		return Uncategorized
	}
	return n.DefaultCategory
}

func (n *Normalizer) amount(v any, policy AmountPolicy) (decimal.Decimal, error) {
	if policy == Lenient {
		return lenientAmount(v), nil
	}

	if v == nil {
		return decimal.Zero, ValidationError{Field: FieldAmount, Reason: "required"}
	}
	d, err := parseAmount(v)
	if err != nil {
		return decimal.Zero, ValidationError{Field: FieldAmount, Value: v, Reason: err.Error()}
	}
	if !d.IsPositive() {
		return decimal.Zero, ValidationError{Field: FieldAmount, Value: v, Reason: "must be greater than 0"}
	}
	return d, nil
}

// lenientAmount mirrors numeric coercion where anything unusable becomes 0.
func lenientAmount(v any) decimal.Decimal {
	switch x := v.(type) {
	case nil:
		return decimal.Zero
	case bool:
		if x {
			return decimal.NewFromInt(1)
		}
		return decimal.Zero
	}
	d, err := parseAmount(v)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func parseAmount(v any) (decimal.Decimal, error) {
	switch x := v.(type) {
	case decimal.Decimal:
		return x, nil
	case json.Number:
		return parseAmountString(x.String())
	case string:
		return parseAmountString(x)
	case float64:
		return fromFloat(x)
	case float32:
		return fromFloat(float64(x))
	case int:
		return decimal.NewFromInt(int64(x)), nil
	case int32:
		return decimal.NewFromInt32(x), nil
	case int64:
		return decimal.NewFromInt(x), nil
	case uint:
		return decimal.NewFromUint64(uint64(x)), nil
	case uint64:
		return decimal.NewFromUint64(x), nil
	default:
		return decimal.Zero, fmt.Errorf("unsupported type %T", v)
	}
}

func parseAmountString(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, errNotNumber
	}
	return d, nil
}

func fromFloat(f float64) (decimal.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, errors.New("not finite")
	}
	return decimal.NewFromFloat(f), nil
}

func coerceDate(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		if x.IsZero() {
			return time.Time{}, false
		}
		return Day(x), true
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return time.Time{}, false
		}
		if d, err := ParseDate(s); err == nil {
			return d, true
		}
		if ts, err := time.Parse(time.RFC3339, s); err == nil {
			return Day(ts), true
		}
		if len(s) > len(DateFormat) {
			if d, err := ParseDate(s[:len(DateFormat)]); err == nil {
				return d, true
			}
		}
	}
	return time.Time{}, false
}

// truthy reports whether v counts as present. Zero numbers, empty strings,
// false and nil are treated as missing.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return x != ""
	case bool:
		return x
	case float64:
		return x != 0 && !math.IsNaN(x)
	case int:
		return x != 0
	case int64:
		return x != 0
	case json.Number:
		f, err := x.Float64()
		return err != nil || f != 0
	case decimal.Decimal:
		return !x.IsZero()
	default:
		return true
	}
}

func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case json.Number:
		return x.String()
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(v)
	}
}
