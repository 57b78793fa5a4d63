package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jizhang-dev/jizhang/internal/model"
	"github.com/jizhang-dev/jizhang/internal/query"
)

type addOptions struct {
	txnType  string
	amount   string
	category string
	date     string
	note     string
}

func newAddCommand(opts *Options) *cobra.Command {
	var flags addOptions

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record an income or expense",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := flags.record()
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(a *app) error {
				txn, err := a.ledger.Add(cmd.Context(), raw)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s %s %s on %s (%s)\n",
					txn.Type, query.FormatAmount(txn.Amount, a.cfg.Display.Currency), txn.Category, txn.DateString(), txn.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&flags.txnType, "type", string(model.TypeExpense), "income or expense")
	cmd.Flags().StringVar(&flags.amount, "amount", "", "amount, greater than 0 (required)")
	_ = cmd.MarkFlagRequired("amount")
	cmd.Flags().StringVar(&flags.category, "category", "", "category label")
	cmd.Flags().StringVar(&flags.date, "date", "", "date as YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&flags.note, "note", "", "free-text note")

	return cmd
}

// record builds the raw record for the ledger. Unset flags are left out so
// the ledger's defaults apply.
func (o addOptions) record() (model.RawRecord, error) {
	switch model.TransactionType(o.txnType) {
	case model.TypeIncome, model.TypeExpense:
	default:
		return nil, fmt.Errorf("invalid --type %q: must be income or expense", o.txnType)
	}

	raw := model.RawRecord{
		model.FieldType:   o.txnType,
		model.FieldAmount: o.amount,
	}
	if o.category != "" {
		raw[model.FieldCategory] = o.category
	}
	if o.date != "" {
		if _, err := model.ParseDate(o.date); err != nil {
			return nil, fmt.Errorf("invalid --date %q: must be YYYY-MM-DD", o.date)
		}
		raw[model.FieldDate] = o.date
	}
	if o.note != "" {
		raw[model.FieldNote] = o.note
	}
	return raw, nil
}
