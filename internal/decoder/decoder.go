// Harborwatch - AIS Vessel Tracking and Receiver Diagnostics
// Copyright 2026 The Harborwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harborwatch/harborwatch

// Package decoder owns the external AIS-catcher process for the lifetime of
// one ingestion session and exposes its standard output as a line sequence.
//
// The Source interface abstracts the decoder as a capability with two
// implementations: Catcher launches the real subprocess, Replay feeds a
// scripted line sequence so the ingestion loop and merge logic are testable
// without radio hardware.
//
// A decoder exit is terminal for the session: there is no automatic restart.
// The operator restarts the process, which keeps a crashing decoder visible
// in diagnostics instead of flapping silently.
package decoder

import (
	"context"
	"errors"
)

// Sentinel errors for launch failures. Both are fatal at startup: ingestion
// must not begin without a running decoder.
var (
	ErrBinaryNotFound = errors.New("decoder binary not found")
	ErrLaunchFailed   = errors.New("decoder launch failed")
)

// Source is a live sequence of raw decoder output lines.
type Source interface {
	// Start launches the source. It returns ErrBinaryNotFound or
	// ErrLaunchFailed (wrapped) when the decoder cannot be brought up.
	Start(ctx context.Context) error

	// Lines returns the output channel. It is closed when the source ends,
	// whether by Stop, context cancellation, or the process exiting.
	Lines() <-chan string

	// Stop requests graceful termination and reports the final status.
	Stop() error

	// Err returns the terminal error after Lines is closed, nil for a
	// clean stop.
	Err() error
}
