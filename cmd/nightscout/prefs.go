package main

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jwulff/nightscout-go/internal/bloodsugar"
	"github.com/jwulff/nightscout-go/internal/nightscout"
	"github.com/jwulff/nightscout-go/internal/storage"
	"github.com/jwulff/nightscout-go/internal/storage/sqlite"
)

var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Show or change stored preferences",
	Long: `Preferences are stored in the local database and take precedence over the
config file. Keys: nightscout.url, display.show_delta, display.show_elapsed,
display.unit.`,
	RunE: runPrefsList,
}

var prefsGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print a stored preference",
	Args:  cobra.ExactArgs(1),
	RunE:  runPrefsGet,
}

var prefsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Store a preference",
	Args:  cobra.ExactArgs(2),
	RunE:  runPrefsSet,
}

var prefsUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Remove a stored preference so the config file applies again",
	Args:  cobra.ExactArgs(1),
	RunE:  runPrefsUnset,
}

func init() {
	prefsCmd.AddCommand(prefsGetCmd, prefsSetCmd, prefsUnsetCmd)
	rootCmd.AddCommand(prefsCmd)
}

// openPrefs opens the database without requiring a configured site.
func openPrefs() (*sqlite.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	store, err := openStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return store, nil
}

func checkKey(key string) error {
	if !slices.Contains(storage.PreferenceKeys, key) {
		return fmt.Errorf("unknown preference %q (available: %v)", key, storage.PreferenceKeys)
	}
	return nil
}

// normalizePref validates value for key and returns the form to store.
func normalizePref(key, value string) (string, error) {
	switch key {
	case storage.KeyNightscoutURL:
		u, err := nightscout.ValidateURL(value)
		if err != nil {
			return "", err
		}
		return u.String(), nil
	case storage.KeyShowDelta, storage.KeyShowElapsed:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return "", fmt.Errorf("%s must be true or false", key)
		}
		return strconv.FormatBool(b), nil
	case storage.KeyDisplayUnit:
		u, err := bloodsugar.ParseUnit(value)
		if err != nil {
			return "", err
		}
		return u.Token(), nil
	}
	return "", checkKey(key)
}

func runPrefsList(cmd *cobra.Command, args []string) error {
	store, err := openPrefs()
	if err != nil {
		return err
	}
	defer store.Close()

	out := cmd.OutOrStdout()
	for _, key := range storage.PreferenceKeys {
		value, err := storedOr(cmd.Context(), store, key, "(unset)")
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%-22s %s\n", key, value)
	}
	return nil
}

func runPrefsGet(cmd *cobra.Command, args []string) error {
	key := args[0]
	if err := checkKey(key); err != nil {
		return err
	}

	store, err := openPrefs()
	if err != nil {
		return err
	}
	defer store.Close()

	value, err := store.GetConfig(cmd.Context(), key)
	if storage.IsNotFound(err) {
		return fmt.Errorf("%s is not set", key)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), value)
	return nil
}

func runPrefsSet(cmd *cobra.Command, args []string) error {
	key := args[0]
	if err := checkKey(key); err != nil {
		return err
	}
	value, err := normalizePref(key, args[1])
	if err != nil {
		return err
	}

	store, err := openPrefs()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.SetConfig(cmd.Context(), key, value); err != nil {
		return fmt.Errorf("saving %s: %w", key, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", key, value)
	return nil
}

func runPrefsUnset(cmd *cobra.Command, args []string) error {
	key := args[0]
	if err := checkKey(key); err != nil {
		return err
	}

	store, err := openPrefs()
	if err != nil {
		return err
	}
	defer store.Close()

	return store.DeleteConfig(cmd.Context(), key)
}
