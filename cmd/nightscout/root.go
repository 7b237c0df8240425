package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jwulff/nightscout-go/internal/config"
	"github.com/jwulff/nightscout-go/internal/logger"
	"github.com/jwulff/nightscout-go/internal/storage"
	"github.com/jwulff/nightscout-go/internal/storage/sqlite"
)

var (
	cfgFile     string
	dbPath      string
	logLevel    string
	colorOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "nightscout",
	Short: "Show recent blood glucose readings from a Nightscout site",
	Long: `nightscout fetches the latest entries from a Nightscout site, normalizes them
into readings with deltas and trend arrows, and shows them in the terminal.
Preferences and the last fetched window are kept in a local SQLite database.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./nightscout.yaml if present)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database file (overrides storage.path)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&colorOutput, "color", false, "color readings by glucose range")
}

// getConfigPath returns the config file path, or "" to run on defaults.
func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if _, err := os.Stat(config.DefaultPath); errors.Is(err, fs.ErrNotExist) {
		return ""
	}
	return config.DefaultPath
}

// loadConfig loads the configuration and applies flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.Storage.Path = dbPath
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*logger.Logger, error) {
	return logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
}

// openStore opens the preference database.
func openStore(cfg *config.Config) (*sqlite.Store, error) {
	path := cfg.Storage.Path

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	return sqlite.NewFileStore(path)
}

// storedOr returns the stored preference for key, or def when unset.
func storedOr(ctx context.Context, s storage.ConfigStore, key, def string) (string, error) {
	v, err := s.GetConfig(ctx, key)
	if storage.IsNotFound(err) {
		return def, nil
	}
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", key, err)
	}
	return v, nil
}
