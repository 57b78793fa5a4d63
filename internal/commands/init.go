package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jizhang-dev/jizhang/internal/config"
	"github.com/jizhang-dev/jizhang/internal/store"
)

type initOptions struct {
	backend  string
	currency string
	force    bool
}

func newInitCommand(opts *Options) *cobra.Command {
	var flags initOptions

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file and prepare storage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, opts, flags)
		},
	}

	cmd.Flags().StringVar(&flags.backend, "backend", store.BackendFile, fmt.Sprintf("storage backend %v", store.Backends))
	cmd.Flags().StringVar(&flags.currency, "currency", "", "currency symbol shown before amounts")
	cmd.Flags().BoolVar(&flags.force, "force", false, "overwrite an existing config file")

	return cmd
}

func runInit(cmd *cobra.Command, opts *Options, flags initOptions) error {
	if _, err := os.Stat(opts.ConfigPath); err == nil && !flags.force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", opts.ConfigPath)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("checking config: %w", err)
	}

	cfg := config.Default()
	cfg.Storage.Backend = flags.backend
	if flags.backend == store.BackendSQLite {
		cfg.Storage.Path = filepath.Join(cfg.Storage.Path, "jizhang.db")
	}
	if opts.DataPath != "" {
		cfg.Storage.Path = opts.DataPath
	}
	if flags.currency != "" {
		cfg.Display.Currency = flags.currency
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if dir := filepath.Dir(opts.ConfigPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating config dir: %w", err)
		}
	}
	if err := config.Save(opts.ConfigPath, cfg); err != nil {
		return err
	}

	// Opening the backend creates its directory or database schema.
	kv, err := store.Open(cfg.Storage.Backend, cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("preparing %s storage: %w", cfg.Storage.Backend, err)
	}
	if err := kv.Close(); err != nil {
		return fmt.Errorf("closing storage: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Initialized jizhang ledger (%s storage at %s, config %s)\n",
		cfg.Storage.Backend, cfg.Storage.Path, opts.ConfigPath)
	return nil
}
