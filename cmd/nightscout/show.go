package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jwulff/nightscout-go/internal/logger"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Refresh once and print the readings",
	Long: `Fetches the feed once and prints the newest reading followed by the recent
history. When the refresh fails, the last cached readings are printed instead.`,
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.pipe.Restore(ctx); err != nil {
		s.log.Warn("could not restore cached readings", logger.Error(err))
	}

	snap, err := s.pipe.Refresh(ctx)
	if err != nil {
		s.reportError(cmd.ErrOrStderr(), err)
		if len(snap.Readings) == 0 {
			return err
		}
	}

	fmt.Fprint(cmd.OutOrStdout(), s.menu(snap).String())
	return nil
}
