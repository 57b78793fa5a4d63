package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jizhang-dev/jizhang/internal/codec"
)

type exportOptions struct {
	out    string
	format string
}

func newExportCommand(opts *Options) *cobra.Command {
	var flags exportOptions

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the whole ledger to a file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(a *app) error {
				format := flags.format
				if format == "" {
					format = a.cfg.Export.Format
				}
				c, err := a.ledger.Codec(format)
				if err != nil {
					return err
				}

				if flags.out == "-" {
					return a.ledger.Export(cmd.OutOrStdout(), c.Format())
				}

				path := flags.out
				if path == "" {
					path = codec.Filename(a.cfg.Export.Prefix, time.Now(), c.Extension())
				}
				if err := exportFile(a, path, c.Format()); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d transactions to %s\n", a.ledger.Len(), path)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&flags.out, "out", "o", "", `output file, or "-" for stdout (default <prefix>-<date>.<ext>)`)
	cmd.Flags().StringVar(&flags.format, "format", "", "export format (default from config)")

	return cmd
}

func exportFile(a *app, path, format string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating export dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}
	if err := a.ledger.Export(f, format); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing export file: %w", err)
	}
	return nil
}

type importOptions struct {
	format string
	yes    bool
}

func newImportCommand(opts *Options) *cobra.Command {
	var flags importOptions

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the ledger with the contents of a file",
		Long: "Replace the ledger with the contents of a file. The format is taken from\n" +
			`--format, else the file extension, else the config. Use "-" to read stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			return withApp(cmd, opts, func(a *app) error {
				format := importFormat(a, flags.format, path)

				if n := a.ledger.Len(); n > 0 && !flags.yes {
					return fmt.Errorf("import replaces the existing %d transactions; rerun with --yes", n)
				}

				var r io.Reader = cmd.InOrStdin()
				if path != "-" {
					f, err := os.Open(path)
					if err != nil {
						return fmt.Errorf("opening import file: %w", err)
					}
					defer f.Close()
					r = f
				}

				res, err := a.ledger.Import(cmd.Context(), r, format)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Imported %d transactions from %s\n", res.Count, path)
				if res.Reassigned > 0 {
					fmt.Fprintf(out, "%d duplicate ids were replaced with new ones\n", res.Reassigned)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&flags.format, "format", "", "import format (default from file extension)")
	cmd.Flags().BoolVar(&flags.yes, "yes", false, "confirm replacing a non-empty ledger")

	return cmd
}

func importFormat(a *app, explicit, path string) string {
	if explicit != "" {
		return explicit
	}
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if _, err := a.ledger.Codec(ext); ext != "" && err == nil {
		return ext
	}
	return a.cfg.Export.Format
}
