package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jwulff/nightscout-go/internal/logger"
	"github.com/jwulff/nightscout-go/internal/pipeline"
	"github.com/jwulff/nightscout-go/internal/scheduler"
	"github.com/jwulff/nightscout-go/internal/statusapi"
)

var watchAPI bool

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Refresh readings on an interval and print them",
	Long: `Refreshes the Nightscout feed every nightscout.refresh_interval and prints the
readings after each refresh. Send SIGUSR1 to refresh immediately, e.g. after
the machine wakes from sleep. With --api (or api.enabled) a read-only status
API is served on api.listen.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchAPI, "api", false, "serve the status API (overrides api.enabled)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.pipe.Restore(ctx); err != nil {
		s.log.Warn("could not restore cached readings", logger.Error(err))
	}

	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()
	var printMu sync.Mutex
	show := func(snap pipeline.Snapshot) {
		printMu.Lock()
		defer printMu.Unlock()
		fmt.Fprintln(out, s.menu(snap).String())
	}

	if snap := s.pipe.Snapshot(); len(snap.Readings) > 0 {
		show(snap)
	}

	sched := scheduler.New(s.cfg.Nightscout.RefreshInterval, func(ctx context.Context) {
		snap, err := s.pipe.Refresh(ctx)
		if err != nil {
			printMu.Lock()
			s.reportError(errOut, err)
			printMu.Unlock()
			return
		}
		show(snap)
	}, s.log)

	if watchAPI || s.cfg.API.Enabled {
		app := statusapi.NewApp(s.pipe, statusapi.Options{
			Formatter: s.formatter,
			Gatherer:  s.registry,
			Logger:    s.log,
		})
		go func() {
			s.log.Info("status API listening", logger.String("addr", s.cfg.API.Listen))
			if err := app.Listen(s.cfg.API.Listen); err != nil {
				s.log.Error("status API stopped", logger.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := app.ShutdownWithContext(shutdownCtx); err != nil {
				s.log.Warn("status API shutdown failed", logger.Error(err))
			}
		}()
	}

	if err := sched.Start(); err != nil {
		return err
	}
	defer sched.Stop()

	wake := make(chan os.Signal, 1)
	if sigs := wakeSignals(); len(sigs) > 0 {
		signal.Notify(wake, sigs...)
		defer signal.Stop(wake)
	}

	for {
		select {
		case <-ctx.Done():
			s.log.Info("shutting down")
			return nil
		case <-wake:
			sched.Trigger("wake")
		}
	}
}
