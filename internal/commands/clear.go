package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newClearCommand(opts *Options) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every transaction",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(a *app) error {
				n := a.ledger.Len()
				if n == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Ledger is already empty")
					return nil
				}
				if !yes {
					return fmt.Errorf("refusing to delete %d transactions without --yes", n)
				}
				if err := a.ledger.Clear(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d transactions\n", n)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deletion")

	return cmd
}
