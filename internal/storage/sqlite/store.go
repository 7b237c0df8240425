// Package sqlite provides a SQLite implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jwulff/nightscout-go/internal/bloodsugar"
	"github.com/jwulff/nightscout-go/internal/storage"

	_ "modernc.org/sqlite"
)

// Store is a SQLite implementation of storage.Store.
type Store struct {
	db *sql.DB
}

// NewMemoryStore creates an in-memory SQLite store.
func NewMemoryStore() (*Store, error) {
	return newStore(":memory:")
}

// NewFileStore creates a file-based SQLite store.
func NewFileStore(path string) (*Store, error) {
	return newStore(path)
}

func newStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Each :memory: connection is a separate database.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return store, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Window methods

// SaveWindow replaces the cached window in one transaction.
func (s *Store) SaveWindow(ctx context.Context, window *storage.Window) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM readings"); err != nil {
		return fmt.Errorf("failed to clear readings: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO reading_window (id, unit, fetched_at)
		VALUES (1, ?, ?)
	`, window.Unit.Token(), window.FetchedAt); err != nil {
		return fmt.Errorf("failed to save window: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO readings (position, timestamp_ms, raw_value, raw_previous_value, trend_symbol)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, r := range window.Readings {
		var prev sql.NullInt64
		if r.RawPreviousValue != nil {
			prev = sql.NullInt64{Int64: int64(*r.RawPreviousValue), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, i, r.Timestamp.UnixMilli(), r.RawValue, prev, r.TrendSymbol); err != nil {
			return fmt.Errorf("failed to save reading: %w", err)
		}
	}

	return tx.Commit()
}

// LoadWindow returns the cached window in the unit it was saved with.
func (s *Store) LoadWindow(ctx context.Context) (*storage.Window, error) {
	var window storage.Window
	var token string
	err := s.db.QueryRowContext(ctx, `
		SELECT unit, fetched_at FROM reading_window WHERE id = 1
	`).Scan(&token, &window.FetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound{Resource: "window", ID: "1"}
	}
	if err != nil {
		return nil, err
	}

	unit, err := bloodsugar.ParseUnit(token)
	if err != nil {
		return nil, fmt.Errorf("failed to parse cached unit: %w", err)
	}
	window.Unit = unit

	rows, err := s.db.QueryContext(ctx, `
		SELECT timestamp_ms, raw_value, raw_previous_value, trend_symbol
		FROM readings ORDER BY position ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	window.Readings = []bloodsugar.Reading{}
	for rows.Next() {
		var ms int64
		var raw int
		var prev sql.NullInt64
		var trend string
		if err := rows.Scan(&ms, &raw, &prev, &trend); err != nil {
			return nil, err
		}
		var prevPtr *int
		if prev.Valid {
			p := int(prev.Int64)
			prevPtr = &p
		}
		window.Readings = append(window.Readings, bloodsugar.NewReading(time.UnixMilli(ms), raw, prevPtr, trend, unit))
	}
	return &window, rows.Err()
}

// Refresh state methods

func (s *Store) SaveRefreshState(ctx context.Context, state *storage.RefreshState) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO refresh_state (site, last_run, error_count, last_error)
		VALUES (?, ?, ?, ?)
	`, state.Site, state.LastRun, state.ErrorCount, state.LastError)
	return err
}

func (s *Store) GetRefreshState(ctx context.Context, site string) (*storage.RefreshState, error) {
	var state storage.RefreshState
	var lastError sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT site, last_run, error_count, last_error
		FROM refresh_state WHERE site = ?
	`, site).Scan(&state.Site, &state.LastRun, &state.ErrorCount, &lastError)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound{Resource: "refresh_state", ID: site}
	}
	if err != nil {
		return nil, err
	}
	state.LastError = lastError.String
	return &state, nil
}

// Config methods

func (s *Store) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM config WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", storage.ErrNotFound{Resource: "config", ID: key}
	}
	return value, err
}

func (s *Store) SetConfig(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO config (key, value, updated_at)
		VALUES (?, ?, ?)
	`, key, value, time.Now())
	return err
}

func (s *Store) DeleteConfig(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM config WHERE key = ?", key)
	return err
}

// Verify interface compliance
var _ storage.Store = (*Store)(nil)
