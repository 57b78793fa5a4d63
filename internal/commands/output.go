package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"text/tabwriter"

	"github.com/jizhang-dev/jizhang/internal/model"
	"github.com/jizhang-dev/jizhang/internal/query"
)

// ValidFormats lists the output formats for list and summary.
var ValidFormats = []string{FormatText, FormatJSON}

func checkFormat(format string) error {
	if !slices.Contains(ValidFormats, format) {
		return fmt.Errorf("invalid format %q: must be one of %v", format, ValidFormats)
	}
	return nil
}

type jsonTransaction struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Amount   string `json:"amount"`
	Category string `json:"category"`
	Date     string `json:"date"`
	Note     string `json:"note"`
}

type jsonTotals struct {
	Income  string `json:"income"`
	Expense string `json:"expense"`
	Balance string `json:"balance"`
}

type jsonCategory struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
	Income   string `json:"income"`
	Expense  string `json:"expense"`
}

type jsonList struct {
	Rows   []jsonTransaction `json:"rows"`
	Totals jsonTotals        `json:"totals"`
	Count  int               `json:"count"`
}

type jsonSummary struct {
	Totals     jsonTotals     `json:"totals"`
	ByCategory []jsonCategory `json:"by_category"`
	Count      int            `json:"count"`
}

func toJSONTotals(t query.Totals) jsonTotals {
	return jsonTotals{
		Income:  t.Income.StringFixed(2),
		Expense: t.Expense.StringFixed(2),
		Balance: t.Balance.StringFixed(2),
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// signedAmount prefixes income with + and expense with -.
func signedAmount(t model.Transaction, symbol string) string {
	sign := "-"
	if t.IsIncome() {
		sign = "+"
	}
	return sign + query.FormatAmount(t.Amount, symbol)
}

func renderList(w io.Writer, vm query.ViewModel, symbol, format string) error {
	if format == FormatJSON {
		out := jsonList{
			Rows:   make([]jsonTransaction, 0, len(vm.Rows)),
			Totals: toJSONTotals(vm.Totals),
			Count:  vm.Count,
		}
		for _, t := range vm.Rows {
			out.Rows = append(out.Rows, jsonTransaction{
				ID:       t.ID,
				Type:     string(t.Type),
				Amount:   t.Amount.StringFixed(2),
				Category: t.Category,
				Date:     t.DateString(),
				Note:     t.Note,
			})
		}
		return writeJSON(w, out)
	}

	if len(vm.Rows) == 0 {
		fmt.Fprintln(w, "No transactions")
	} else {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "DATE\tTYPE\tAMOUNT\tCATEGORY\tNOTE\tID")
		for _, t := range vm.Rows {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
				t.DateString(), t.Type, signedAmount(t, symbol), t.Category, t.Note, t.ID)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	if len(vm.Rows) != vm.Count {
		fmt.Fprintf(w, "Showing %d of %d transactions\n", len(vm.Rows), vm.Count)
	}
	fmt.Fprintln(w)
	return renderTotals(w, vm.Totals, symbol)
}

func renderTotals(w io.Writer, t query.Totals, symbol string) error {
	tw := tabwriter.NewWriter(w, 0, 4, 1, ' ', 0)
	fmt.Fprintf(tw, "Income:\t%s\n", query.FormatAmount(t.Income, symbol))
	fmt.Fprintf(tw, "Expense:\t%s\n", query.FormatAmount(t.Expense, symbol))
	fmt.Fprintf(tw, "Balance:\t%s\n", query.FormatAmount(t.Balance, symbol))
	return tw.Flush()
}

func renderSummary(w io.Writer, vm query.ViewModel, symbol, format string) error {
	if format == FormatJSON {
		out := jsonSummary{
			Totals:     toJSONTotals(vm.Totals),
			ByCategory: make([]jsonCategory, 0, len(vm.ByCategory)),
			Count:      vm.Count,
		}
		for _, c := range vm.ByCategory {
			out.ByCategory = append(out.ByCategory, jsonCategory{
				Category: c.Category,
				Count:    c.Count,
				Income:   c.Income.StringFixed(2),
				Expense:  c.Expense.StringFixed(2),
			})
		}
		return writeJSON(w, out)
	}

	fmt.Fprintf(w, "%d transactions\n\n", vm.Count)
	if err := renderTotals(w, vm.Totals, symbol); err != nil {
		return err
	}
	if len(vm.ByCategory) == 0 {
		return nil
	}

	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tCOUNT\tINCOME\tEXPENSE")
	for _, c := range vm.ByCategory {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n",
			c.Category, c.Count, query.FormatAmount(c.Income, symbol), query.FormatAmount(c.Expense, symbol))
	}
	return tw.Flush()
}
