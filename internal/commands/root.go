package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jizhang-dev/jizhang/internal/buildinfo"
	"github.com/jizhang-dev/jizhang/internal/config"
)

// Options holds global flags for all commands.
type Options struct {
	ConfigPath string
	DataPath   string // overrides storage.path when set
}

// Output formats for list and summary.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &Options{}

	rootCmd := &cobra.Command{
		Use:     "jizhang",
		Short:   "Personal income and expense ledger",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", config.DefaultFile, "config file")
	rootCmd.PersistentFlags().StringVar(&opts.DataPath, "data", "", "storage path, overriding the config file")

	rootCmd.AddCommand(
		newInitCommand(opts),
		newAddCommand(opts),
		newRemoveCommand(opts),
		newListCommand(opts),
		newSummaryCommand(opts),
		newExportCommand(opts),
		newImportCommand(opts),
		newClearCommand(opts),
	)

	return rootCmd
}
