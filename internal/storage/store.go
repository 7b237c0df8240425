// Package storage provides persistence abstractions for preferences and the
// last fetched reading window.
package storage

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jwulff/nightscout-go/internal/bloodsugar"
)

// Preference keys.
const (
	KeyNightscoutURL = "nightscout.url"
	KeyShowDelta     = "display.show_delta"
	KeyShowElapsed   = "display.show_elapsed"
	KeyDisplayUnit   = "display.unit"
)

// PreferenceKeys lists every key the CLI may set.
var PreferenceKeys = []string{KeyNightscoutURL, KeyShowDelta, KeyShowElapsed, KeyDisplayUnit}

// ConfigStore is a string key/value preference store.
type ConfigStore interface {
	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error
	DeleteConfig(ctx context.Context, key string) error
}

// WindowStore caches the most recent reading window. Saving replaces the
// whole window; there is no history.
type WindowStore interface {
	SaveWindow(ctx context.Context, window *Window) error
	LoadWindow(ctx context.Context) (*Window, error)
}

// StateStore persists refresh bookkeeping per site.
type StateStore interface {
	GetRefreshState(ctx context.Context, site string) (*RefreshState, error)
	SaveRefreshState(ctx context.Context, state *RefreshState) error
}

// Store is the interface for persistent storage.
type Store interface {
	ConfigStore
	WindowStore
	StateStore

	// Lifecycle
	Close() error
}

// Window is a cached, normalized newest-first reading sequence.
type Window struct {
	Readings  []bloodsugar.Reading
	Unit      bloodsugar.Unit
	FetchedAt time.Time
}

// RefreshState tracks the outcome of refreshes against one site.
type RefreshState struct {
	Site       string
	LastRun    time.Time
	ErrorCount int
	LastError  string
}

// RecordSuccess resets the error count after a successful refresh.
func (s *RefreshState) RecordSuccess(at time.Time) {
	s.LastRun = at
	s.ErrorCount = 0
	s.LastError = ""
}

// RecordError increments the consecutive error count.
func (s *RefreshState) RecordError(err error) {
	s.ErrorCount++
	if err != nil {
		s.LastError = err.Error()
	}
}

// ErrNotFound is returned when a record is not found.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e ErrNotFound) Error() string {
	return e.Resource + " not found: " + e.ID
}

// IsNotFound checks if an error is a not found error.
func IsNotFound(err error) bool {
	var nf ErrNotFound
	return errors.As(err, &nf)
}

// GetBool reads a boolean preference, falling back to def when unset.
func GetBool(ctx context.Context, s ConfigStore, key string, def bool) (bool, error) {
	v, err := s.GetConfig(ctx, key)
	if IsNotFound(err) {
		return def, nil
	}
	if err != nil {
		return def, err
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, err
	}
	return b, nil
}
