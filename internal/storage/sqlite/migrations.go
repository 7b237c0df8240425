package sqlite

// schema contains the database schema DDL.
const schema = `
-- Preferences
CREATE TABLE IF NOT EXISTS config (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Refresh bookkeeping per site
CREATE TABLE IF NOT EXISTS refresh_state (
    site TEXT PRIMARY KEY,
    last_run DATETIME,
    error_count INTEGER DEFAULT 0,
    last_error TEXT
);

-- Last fetched window, a single row
CREATE TABLE IF NOT EXISTS reading_window (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    unit TEXT NOT NULL,
    fetched_at DATETIME NOT NULL
);

-- Readings of the last window, newest first by position
CREATE TABLE IF NOT EXISTS readings (
    position INTEGER PRIMARY KEY,
    timestamp_ms INTEGER NOT NULL UNIQUE,
    raw_value INTEGER NOT NULL,
    raw_previous_value INTEGER,
    trend_symbol TEXT NOT NULL DEFAULT ''
);
`
