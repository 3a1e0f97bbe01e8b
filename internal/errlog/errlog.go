// Harborwatch - AIS Vessel Tracking and Receiver Diagnostics
// Copyright 2026 The Harborwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harborwatch/harborwatch

// Package errlog implements the append-only diagnostic error log.
//
// The log exists to capture failures, so its own failures are never raised
// to the caller: a write that cannot complete is reported to the process
// logger and dropped. Rotation keeps exactly one backup: when the current
// file exceeds the size threshold it becomes <path>.old, replacing any
// previous backup.
package errlog

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/harborwatch/harborwatch/internal/logging"
	"github.com/harborwatch/harborwatch/internal/metrics"
)

// BackupSuffix is appended to the log path for the single rotated backup.
const BackupSuffix = ".old"

// Log is a size-rotated, timestamped error log.
type Log struct {
	mu      sync.Mutex
	path    string
	maxSize int64

	// now is swappable in tests for deterministic timestamps.
	now func() time.Time
}

// New creates a Log writing to path, rotating past maxSize bytes.
func New(path string, maxSize int64) *Log {
	return &Log{
		path:    path,
		maxSize: maxSize,
		now:     time.Now,
	}
}

// Append writes one timestamped line: "[RFC3339-UTC] message".
// Failures are swallowed after being reported to the process logger;
// the error log must never interrupt the caller.
func (l *Log) Append(message string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.rotateIfNeeded(); err != nil {
		logging.Error().Err(err).Str("path", l.path).Msg("Error log rotation failed")
		// Fall through: appending to an oversized log beats losing the record.
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		logging.Error().Err(err).Str("path", l.path).Msg("Failed to open error log")
		return
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			logging.Error().Err(cerr).Msg("Failed to close error log")
		}
	}()

	line := fmt.Sprintf("[%s] %s\n", l.now().UTC().Format(time.RFC3339), message)
	if _, err := f.WriteString(line); err != nil {
		logging.Error().Err(err).Str("path", l.path).Msg("Failed to write error log line")
		return
	}
	metrics.ErrorLogLines.Inc()
}

// rotateIfNeeded moves the current log to the backup path when it exceeds
// the size threshold. A pre-existing backup is discarded, never accumulated.
// Must be called with mu held.
func (l *Log) rotateIfNeeded() error {
	info, err := os.Stat(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("stat %s: %w", l.path, err)
	}
	if info.Size() <= l.maxSize {
		return nil
	}

	backup := l.path + BackupSuffix
	if _, err := os.Stat(backup); err == nil {
		if err := os.Remove(backup); err != nil {
			return fmt.Errorf("remove old backup %s: %w", backup, err)
		}
	}
	if err := os.Rename(l.path, backup); err != nil {
		return fmt.Errorf("rotate %s: %w", l.path, err)
	}
	metrics.ErrorLogRotations.Inc()
	return nil
}

// Tail returns the last n lines of the current log, oldest first.
// A missing log file yields an empty slice, not an error.
func (l *Log) Tail(n int) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", l.path, err)
	}

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) == 1 && lines[0] == "" {
		return nil, nil
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines, nil
}

// Path returns the log file location.
func (l *Log) Path() string {
	return l.path
}
