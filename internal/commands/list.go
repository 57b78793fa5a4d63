package commands

import (
	"github.com/spf13/cobra"

	"github.com/jizhang-dev/jizhang/internal/query"
)

type listOptions struct {
	category string
	from     string
	to       string
	format   string
}

func newListCommand(opts *Options) *cobra.Command {
	var flags listOptions

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(flags.format); err != nil {
				return err
			}
			f, err := query.ParseFilter(flags.category, flags.from, flags.to)
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(a *app) error {
				return renderList(cmd.OutOrStdout(), a.ledger.Query(f), a.cfg.Display.Currency, flags.format)
			})
		},
	}

	cmd.Flags().StringVar(&flags.category, "category", "", "only categories containing this text")
	cmd.Flags().StringVar(&flags.from, "from", "", "earliest date, YYYY-MM-DD")
	cmd.Flags().StringVar(&flags.to, "to", "", "latest date, YYYY-MM-DD")
	cmd.Flags().StringVar(&flags.format, "format", FormatText, "output format (text|json)")

	return cmd
}

func newSummaryCommand(opts *Options) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show totals for the whole ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			return withApp(cmd, opts, func(a *app) error {
				return renderSummary(cmd.OutOrStdout(), a.ledger.Query(query.Filter{}), a.cfg.Display.Currency, format)
			})
		},
	}

	cmd.Flags().StringVar(&format, "format", FormatText, "output format (text|json)")

	return cmd
}
