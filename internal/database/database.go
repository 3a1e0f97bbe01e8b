// Harborwatch - AIS Vessel Tracking and Receiver Diagnostics
// Copyright 2026 The Harborwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harborwatch/harborwatch

// Package database implements the persistent vessel and diagnostics store
// on SQLite.
//
// The store carries two tables: vessels, one row per MMSI merged under
// sparse-update semantics, and diagnostics, a key/value table of scalar
// operational facts. SQLite in WAL mode gives the one-writer/many-readers
// concurrency the ingestion pipeline needs; every upsert is a single
// statement, so readers never observe a half-written row.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/harborwatch/harborwatch/internal/config"
	"github.com/harborwatch/harborwatch/internal/logging"
)

// timeLayout is a fixed-width RFC3339 UTC format. Fixed width keeps string
// comparison and lexicographic ORDER BY consistent with time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// DB wraps the SQLite connection and provides data access methods.
type DB struct {
	conn *sql.DB
	path string
}

// New opens (creating if necessary) the SQLite store and initializes the
// schema. The parent directory is created when missing.
func New(cfg *config.DatabaseConfig) (*DB, error) {
	if dir := filepath.Dir(cfg.Path); dir != "" && dir != "." && cfg.Path != ":memory:" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}

	conn, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// An in-memory database exists per connection; the pool must not open
	// a second one.
	if cfg.Path == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	db := &DB{conn: conn, path: cfg.Path}

	busyTimeout := cfg.BusyTimeout
	if busyTimeout <= 0 {
		busyTimeout = 5 * time.Second
	}
	if err := db.configure(busyTimeout); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	if err := db.createTables(); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

// configure applies the pragmas for one-writer/many-readers operation.
func (db *DB) configure(busyTimeout time.Duration) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		fmt.Sprintf("PRAGMA busy_timeout=%d", busyTimeout.Milliseconds()),
		"PRAGMA synchronous=NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.conn.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

// createTables creates the vessels and diagnostics tables.
// Timestamps are stored as fixed-width RFC3339 UTC text.
func (db *DB) createTables() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS vessels (
			mmsi                TEXT PRIMARY KEY,
			name                TEXT,
			latitude            REAL,
			longitude           REAL,
			speed               REAL,
			course              REAL,
			heading             INTEGER,
			vessel_type         TEXT,
			callsign            TEXT,
			imo                 TEXT,
			dimension_bow       INTEGER,
			dimension_stern     INTEGER,
			dimension_port      INTEGER,
			dimension_starboard INTEGER,
			draught             REAL,
			destination         TEXT,
			nav_status          TEXT,
			first_seen          TEXT NOT NULL,
			last_updated        TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_vessels_last_updated ON vessels(last_updated);

		CREATE TABLE IF NOT EXISTS diagnostics (
			key     TEXT PRIMARY KEY,
			value   TEXT NOT NULL,
			updated TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}

// Ping checks that the database connection is alive.
func (db *DB) Ping(ctx context.Context) error {
	if db.conn == nil {
		return fmt.Errorf("database connection is nil")
	}
	return db.conn.PingContext(ctx)
}

// Close closes the database connection.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	return db.conn.Close()
}

// FileSizeBytes returns the size of the database file on disk.
// Returns 0 for in-memory databases or when the file cannot be measured.
func (db *DB) FileSizeBytes() int64 {
	if db.path == ":memory:" {
		return 0
	}
	info, err := os.Stat(db.path)
	if err != nil {
		return 0
	}
	return info.Size()
}

// Path returns the database file location.
func (db *DB) Path() string {
	return db.path
}

// closeQuietly closes c, logging rather than returning any error.
func closeQuietly(c interface{ Close() error }) {
	if err := c.Close(); err != nil {
		logging.Error().Err(err).Msg("Error during close")
	}
}

// formatTime renders t in the store's timestamp layout.
func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime parses a stored timestamp. The layout is a strict subset of
// RFC3339Nano, so RFC3339Nano parsing also accepts values written by older
// deployments.
func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
