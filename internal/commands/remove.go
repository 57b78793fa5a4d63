package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRemoveCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>...",
		Aliases: []string{"remove"},
		Short:   "Remove transactions by id",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(a *app) error {
				out := cmd.OutOrStdout()
				for _, id := range args {
					removed, err := a.ledger.Remove(cmd.Context(), id)
					if err != nil {
						return err
					}
					if removed {
						fmt.Fprintf(out, "Removed %s\n", id)
					} else {
						fmt.Fprintf(out, "No transaction %s\n", id)
					}
				}
				return nil
			})
		},
	}
}
