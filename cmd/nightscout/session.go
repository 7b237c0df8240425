package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/jwulff/nightscout-go/internal/bloodsugar"
	"github.com/jwulff/nightscout-go/internal/config"
	"github.com/jwulff/nightscout-go/internal/logger"
	"github.com/jwulff/nightscout-go/internal/metrics"
	"github.com/jwulff/nightscout-go/internal/nightscout"
	"github.com/jwulff/nightscout-go/internal/pipeline"
	"github.com/jwulff/nightscout-go/internal/render"
	"github.com/jwulff/nightscout-go/internal/storage"
	"github.com/jwulff/nightscout-go/internal/storage/sqlite"
)

var errNoURL = errors.New("no Nightscout URL configured, run 'nightscout set-url <url>'")

// session holds everything a refreshing command needs.
type session struct {
	cfg       *config.Config
	log       *logger.Logger
	store     *sqlite.Store
	client    *nightscout.Client
	pipe      *pipeline.Pipeline
	registry  *prometheus.Registry
	formatter *bloodsugar.Formatter
	display   displayPrefs
}

// displayPrefs are the effective display toggles: stored preferences win
// over the config file.
type displayPrefs struct {
	ShowDelta   bool
	ShowElapsed bool
	Unit        bloodsugar.Unit
}

func openSession(ctx context.Context) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	log, err := newLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	store, err := openStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &session{
		cfg:       cfg,
		log:       log,
		store:     store,
		registry:  prometheus.NewRegistry(),
		formatter: bloodsugar.NewFormatter(cfg.Display.Language),
	}
	if err := s.init(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return s, nil
}

func (s *session) init(ctx context.Context) error {
	display, err := loadDisplayPrefs(ctx, s.store, s.cfg)
	if err != nil {
		return err
	}
	s.display = display

	rawURL, err := storedOr(ctx, s.store, storage.KeyNightscoutURL, s.cfg.Nightscout.URL)
	if err != nil {
		return err
	}
	if rawURL == "" {
		return errNoURL
	}
	base, err := nightscout.ValidateURL(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %q, run 'nightscout set-url <url>'", err, rawURL)
	}

	s.client = nightscout.NewClient(base)
	s.client.HTTPClient.Timeout = s.cfg.Nightscout.RequestTimeout

	s.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.New(s.registry)

	s.pipe = pipeline.New(s.client,
		pipeline.WithStore(s.store),
		pipeline.WithRecorder(recorder),
		pipeline.WithLogger(s.log.With(logger.String("site", base.Host))),
		pipeline.WithCount(s.cfg.Nightscout.Count),
		pipeline.WithSettingsTimeout(s.cfg.Nightscout.SettingsTimeout),
		pipeline.WithUnit(display.Unit),
		pipeline.WithUnitLocked(s.cfg.Nightscout.LockUnit),
		pipeline.WithSite(base.Host),
	)
	return nil
}

func (s *session) Close() error {
	return s.store.Close()
}

func loadDisplayPrefs(ctx context.Context, store storage.ConfigStore, cfg *config.Config) (displayPrefs, error) {
	var d displayPrefs
	var err error
	if d.ShowDelta, err = storage.GetBool(ctx, store, storage.KeyShowDelta, cfg.Display.ShowDelta); err != nil {
		return d, err
	}
	if d.ShowElapsed, err = storage.GetBool(ctx, store, storage.KeyShowElapsed, cfg.Display.ShowElapsed); err != nil {
		return d, err
	}

	token, err := storedOr(ctx, store, storage.KeyDisplayUnit, cfg.Nightscout.Unit)
	if err != nil {
		return d, err
	}
	if d.Unit, err = bloodsugar.ParseUnit(token); err != nil {
		return d, fmt.Errorf("stored %s: %w", storage.KeyDisplayUnit, err)
	}
	return d, nil
}

// menu composes the current snapshot for the terminal.
func (s *session) menu(snap pipeline.Snapshot) render.Menu {
	return render.ComposeMenu(snap.Readings, snap.UpdatedAt, render.MenuOptions{
		ShowDelta:   s.display.ShowDelta,
		ShowElapsed: s.display.ShowElapsed,
		History:     s.cfg.Display.History,
		Formatter:   s.formatter,
		Color:       colorOutput,
	})
}

// reportError prints a refresh error the way the user should see it.
// Transient network errors only go to the debug log.
func (s *session) reportError(w io.Writer, err error) {
	switch {
	case nightscout.IsTransient(err):
		s.log.Debug("transient network error", logger.Error(err))
	case nightscout.NeedsReconfigure(err):
		fmt.Fprintf(w, "Nightscout error: %v\nCheck the site address with 'nightscout set-url <url>'.\n", err)
	default:
		if code, ok := nightscout.IsUnknownResponse(err); ok {
			fmt.Fprintf(w, "Nightscout error: site answered HTTP %d\n", code)
			return
		}
		fmt.Fprintf(w, "Nightscout error: %v\n", err)
	}
}
