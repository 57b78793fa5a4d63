package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/jizhang-dev/jizhang/internal/codec"
	"github.com/jizhang-dev/jizhang/internal/log"
	"github.com/jizhang-dev/jizhang/internal/model"
	"github.com/jizhang-dev/jizhang/internal/store"
)

// DefaultFile is the config file name looked up in the working directory.
const DefaultFile = "jizhang.yaml"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "JIZHANG_"

// Config represents the top-level jizhang.yaml configuration.
type Config struct {
	Storage  StorageConfig  `yaml:"storage"`
	Export   ExportConfig   `yaml:"export"`
	Display  DisplayConfig  `yaml:"display"`
	Log      LogConfig      `yaml:"log"`
	Activity ActivityConfig `yaml:"activity"`
}

// StorageConfig selects where the ledger is kept.
type StorageConfig struct {
	Backend string `yaml:"backend"` // file, sqlite or memory
	Path    string `yaml:"path"`    // directory for file, database file for sqlite
	Key     string `yaml:"key"`
}

// ExportConfig controls export file naming.
type ExportConfig struct {
	Prefix string `yaml:"prefix"`
	Format string `yaml:"format"`
}

// DisplayConfig controls how amounts and defaults are shown.
type DisplayConfig struct {
	Currency        string `yaml:"currency"`
	DefaultCategory string `yaml:"default_category"`
}

// LogConfig controls diagnostic logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

// ActivityConfig controls the mutation log.
type ActivityConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Load reads a jizhang.yaml file from disk. Fields absent from the file keep
// their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// LoadOrDefault is Load, except that a missing file yields Default.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new ledger.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend: store.BackendFile,
			Path:    ".jizhang",
			Key:     store.DefaultKey,
		},
		Export: ExportConfig{
			Prefix: "jizhang",
			Format: "json",
		},
		Display: DisplayConfig{
			Currency:        "¥",
			DefaultCategory: model.Uncategorized,
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
		Activity: ActivityConfig{
			Enabled: false,
			Path:    ".jizhang/activity.csv",
		},
	}
}

// LoadEnvFile loads KEY=VALUE pairs from a dotenv file into the process
// environment. Variables already set are left alone and a missing file is
// not an error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides fields from JIZHANG_* variables found by lookup.
// A nil lookup uses os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	strs := []struct {
		name string
		dst  *string
	}{
		{"STORAGE_BACKEND", &c.Storage.Backend},
		{"STORAGE_PATH", &c.Storage.Path},
		{"STORAGE_KEY", &c.Storage.Key},
		{"EXPORT_PREFIX", &c.Export.Prefix},
		{"EXPORT_FORMAT", &c.Export.Format},
		{"CURRENCY", &c.Display.Currency},
		{"DEFAULT_CATEGORY", &c.Display.DefaultCategory},
		{"LOG_LEVEL", &c.Log.Level},
		{"LOG_FORMAT", &c.Log.Format},
		{"ACTIVITY_PATH", &c.Activity.Path},
	}
	for _, s := range strs {
		if v, ok := lookup(EnvPrefix + s.name); ok && v != "" {
			*s.dst = v
		}
	}

	if v, ok := lookup(EnvPrefix + "ACTIVITY_ENABLED"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parsing %sACTIVITY_ENABLED %q: %w", EnvPrefix, v, err)
		}
		c.Activity.Enabled = b
	}
	return nil
}

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var problems []string

	if !slices.Contains(store.Backends, c.Storage.Backend) {
		problems = append(problems, fmt.Sprintf("invalid storage backend '%s': must be one of %v", c.Storage.Backend, store.Backends))
	}
	if c.Storage.Backend != store.BackendMemory && strings.TrimSpace(c.Storage.Path) == "" {
		problems = append(problems, fmt.Sprintf("storage path cannot be empty when using %s backend", c.Storage.Backend))
	}
	if strings.TrimSpace(c.Storage.Key) == "" {
		problems = append(problems, "storage key cannot be empty")
	}

	if c.Export.Prefix == "" {
		problems = append(problems, "export prefix cannot be empty")
	} else if strings.ContainsAny(c.Export.Prefix, `/\`) {
		problems = append(problems, fmt.Sprintf("invalid export prefix '%s': must not contain path separators", c.Export.Prefix))
	}
	if reg := codec.DefaultRegistry(); reg.Get(c.Export.Format) == nil {
		problems = append(problems, fmt.Sprintf("invalid export format '%s': must be one of %v", c.Export.Format, reg.Formats()))
	}

	if strings.TrimSpace(c.Display.DefaultCategory) == "" {
		problems = append(problems, "default category cannot be empty")
	}

	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		problems = append(problems, fmt.Sprintf("invalid log level '%s'", c.Log.Level))
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		problems = append(problems, fmt.Sprintf("invalid log format '%s': must be text or json", c.Log.Format))
	}

	if c.Activity.Enabled && strings.TrimSpace(c.Activity.Path) == "" {
		problems = append(problems, "activity path cannot be empty when activity logging is enabled")
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}
