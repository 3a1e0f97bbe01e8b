// Harborwatch - AIS Vessel Tracking and Receiver Diagnostics
// Copyright 2026 The Harborwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harborwatch/harborwatch

package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborwatch/harborwatch/internal/config"
)

// setupTestDB creates a file-backed store in a per-test temp directory.
// File-backed rather than in-memory so FileSizeBytes is exercised too.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(&config.DatabaseConfig{
		Path:        filepath.Join(t.TempDir(), "vessels.db"),
		BusyTimeout: 2 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, db.Close())
	})
	return db
}

func TestNewCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "vessels.db")

	db, err := New(&config.DatabaseConfig{Path: path})
	require.NoError(t, err)
	defer func() { require.NoError(t, db.Close()) }()

	require.NoError(t, db.Ping(context.Background()))
	assert.Equal(t, path, db.Path())
}

func TestNewInMemory(t *testing.T) {
	db, err := New(&config.DatabaseConfig{Path: ":memory:"})
	require.NoError(t, err)
	defer func() { require.NoError(t, db.Close()) }()

	require.NoError(t, db.Ping(context.Background()))
	assert.Zero(t, db.FileSizeBytes())
}

func TestFileSizeBytes(t *testing.T) {
	db := setupTestDB(t)
	assert.Positive(t, db.FileSizeBytes())
}

func TestSchemaIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vessels.db")

	db, err := New(&config.DatabaseConfig{Path: path})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	// Reopening an existing database must not fail or clobber the schema.
	db, err = New(&config.DatabaseConfig{Path: path})
	require.NoError(t, err)
	require.NoError(t, db.Ping(context.Background()))
	require.NoError(t, db.Close())
}

func TestTimeRoundTrip(t *testing.T) {
	now := time.Date(2026, 8, 30, 7, 5, 3, 123456789, time.UTC)

	parsed, err := parseTime(formatTime(now))
	require.NoError(t, err)
	assert.True(t, now.Equal(parsed))
}

func TestTimeFormatLexicographic(t *testing.T) {
	// String ordering of stored stamps must match time ordering,
	// including across second and sub-second boundaries.
	times := []time.Time{
		time.Date(2026, 8, 30, 7, 5, 3, 5, time.UTC),
		time.Date(2026, 8, 30, 7, 5, 3, 500000000, time.UTC),
		time.Date(2026, 8, 30, 7, 5, 4, 0, time.UTC),
		time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC),
	}
	for i := 1; i < len(times); i++ {
		assert.Less(t, formatTime(times[i-1]), formatTime(times[i]))
	}
}
