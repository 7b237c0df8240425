package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jwulff/nightscout-go/internal/nightscout"
	"github.com/jwulff/nightscout-go/internal/storage"
)

var setURLCheck bool

var setURLCmd = &cobra.Command{
	Use:   "set-url <url>",
	Short: "Set the Nightscout site address",
	Long: `Validates and stores the base URL of the Nightscout site, e.g.
https://mysite.herokuapp.com. With --check the site's status endpoint is
queried before the address is saved.`,
	Args: cobra.ExactArgs(1),
	RunE: runSetURL,
}

func init() {
	setURLCmd.Flags().BoolVar(&setURLCheck, "check", false, "Contact the site before saving")
	rootCmd.AddCommand(setURLCmd)
}

func runSetURL(cmd *cobra.Command, args []string) error {
	base, err := nightscout.ValidateURL(args[0])
	if err != nil {
		return fmt.Errorf("%w: %q", err, args[0])
	}

	out := cmd.OutOrStdout()
	if setURLCheck {
		ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
		defer cancel()

		unit, err := nightscout.NewClient(base).FetchUnit(ctx)
		if err != nil {
			return fmt.Errorf("checking %s: %w", base, err)
		}
		fmt.Fprintf(out, "Site reachable, units: %s\n", unit)
	}

	store, err := openPrefs()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.SetConfig(cmd.Context(), storage.KeyNightscoutURL, base.String()); err != nil {
		return fmt.Errorf("saving URL: %w", err)
	}
	fmt.Fprintf(out, "Nightscout URL set to %s\n", base)
	return nil
}
