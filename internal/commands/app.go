package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jizhang-dev/jizhang/internal/activity"
	"github.com/jizhang-dev/jizhang/internal/config"
	"github.com/jizhang-dev/jizhang/internal/ledger"
	"github.com/jizhang-dev/jizhang/internal/log"
	"github.com/jizhang-dev/jizhang/internal/model"
	"github.com/jizhang-dev/jizhang/internal/store"
)

// app is the wiring shared by commands that touch the ledger.
type app struct {
	cfg     *config.Config
	logger  *log.Logger
	adapter *store.Adapter
	ledger  *ledger.Service
}

// loadConfig reads the config file, then applies environment and flag
// overrides, then validates the result.
func loadConfig(opts *Options) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(nil); err != nil {
		return nil, err
	}
	if opts.DataPath != "" {
		cfg.Storage.Path = opts.DataPath
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openApp(cmd *cobra.Command, opts *Options) (*app, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	logger := log.New(log.Config{
		Level:     level,
		Format:    cfg.Log.Format,
		Component: "jizhang",
		Writer:    cmd.ErrOrStderr(),
	})

	kv, err := store.Open(cfg.Storage.Backend, cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("opening %s storage: %w", cfg.Storage.Backend, err)
	}
	adapter := store.NewAdapter(kv, cfg.Storage.Key, logger)

	norm := model.NewNormalizer()
	norm.DefaultCategory = cfg.Display.DefaultCategory

	ledgerOpts := []ledger.Option{
		ledger.WithNormalizer(norm),
		ledger.WithLogger(logger),
	}
	if cfg.Activity.Enabled {
		ledgerOpts = append(ledgerOpts, ledger.WithRecorder(activity.NewLog(cfg.Activity.Path)))
	}

	svc := ledger.NewService(cmd.Context(), adapter, ledgerOpts...)
	if svc.Malformed() {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning: stored ledger could not be read and was reset to empty")
	}

	return &app{cfg: cfg, logger: logger, adapter: adapter, ledger: svc}, nil
}

func (a *app) Close() error {
	return a.adapter.Close()
}

// withApp opens the app, runs fn and closes the app.
func withApp(cmd *cobra.Command, opts *Options, fn func(a *app) error) error {
	a, err := openApp(cmd, opts)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}
