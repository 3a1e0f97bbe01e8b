// Harborwatch - AIS Vessel Tracking and Receiver Diagnostics
// Copyright 2026 The Harborwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harborwatch/harborwatch

package decoder

import (
	"context"
	"sync"
	"time"
)

// Replay is a scripted Source that feeds a fixed line sequence. It stands in
// for the real decoder in tests and lets the ingestion loop and merge logic
// run without radio hardware.
type Replay struct {
	// Delay, when set, paces the replay one line per interval.
	Delay time.Duration

	// Fail, when set, is reported by Err after the stream ends, simulating
	// a decoder crash.
	Fail error

	script []string
	lines  chan string

	stopOnce sync.Once
	stopped  chan struct{}
}

// NewReplay creates a Replay that will emit the given lines in order.
func NewReplay(script []string) *Replay {
	return &Replay{
		script:  script,
		lines:   make(chan string),
		stopped: make(chan struct{}),
	}
}

// Start begins feeding the script. The lines channel closes when the script
// is exhausted, the context is canceled, or Stop is called.
func (r *Replay) Start(ctx context.Context) error {
	go func() {
		defer close(r.lines)
		for _, line := range r.script {
			if r.Delay > 0 {
				select {
				case <-time.After(r.Delay):
				case <-ctx.Done():
					return
				case <-r.stopped:
					return
				}
			}
			select {
			case r.lines <- line:
			case <-ctx.Done():
				return
			case <-r.stopped:
				return
			}
		}
	}()
	return nil
}

// Lines returns the replay output channel.
func (r *Replay) Lines() <-chan string {
	return r.lines
}

// Stop ends the replay early.
func (r *Replay) Stop() error {
	r.stopOnce.Do(func() { close(r.stopped) })
	return nil
}

// Err reports the scripted terminal status.
func (r *Replay) Err() error {
	return r.Fail
}
