// Harborwatch - AIS Vessel Tracking and Receiver Diagnostics
// Copyright 2026 The Harborwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harborwatch/harborwatch

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/harborwatch/harborwatch/internal/logging"
	"github.com/harborwatch/harborwatch/internal/metrics"
)

// SetDiagnostic upserts one operational fact, stamping its update time.
// Diagnostics are best-effort telemetry: failures are logged and swallowed so
// a diagnostics fault can never interrupt ingestion.
func (db *DB) SetDiagnostic(ctx context.Context, key, value string) {
	start := time.Now()
	defer metrics.ObserveDBQuery("diagnostic", start)

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO diagnostics (key, value, updated)
		VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET
			value   = excluded.value,
			updated = excluded.updated`,
		key, value, formatTime(start))
	if err != nil {
		logging.Error().Err(err).Str("key", key).Msg("Failed to update diagnostic")
	}
}

// GetDiagnostic returns the value for one key, or "" when absent.
func (db *DB) GetDiagnostic(ctx context.Context, key string) (string, error) {
	var value string
	err := db.conn.QueryRowContext(ctx,
		`SELECT value FROM diagnostics WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get diagnostic %s: %w", key, err)
	}
	return value, nil
}

// GetDiagnostics returns all diagnostic entries as a key/value map.
func (db *DB) GetDiagnostics(ctx context.Context) (map[string]string, error) {
	start := time.Now()
	defer metrics.ObserveDBQuery("diagnostic", start)

	rows, err := db.conn.QueryContext(ctx, `SELECT key, value FROM diagnostics`)
	if err != nil {
		return nil, fmt.Errorf("query diagnostics: %w", err)
	}
	defer closeQuietly(rows)

	entries := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan diagnostic: %w", err)
		}
		entries[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate diagnostics: %w", err)
	}
	return entries, nil
}
