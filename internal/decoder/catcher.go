// Harborwatch - AIS Vessel Tracking and Receiver Diagnostics
// Copyright 2026 The Harborwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harborwatch/harborwatch

package decoder

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/harborwatch/harborwatch/internal/config"
	"github.com/harborwatch/harborwatch/internal/logging"
	"github.com/harborwatch/harborwatch/internal/metrics"
)

// stopGracePeriod is how long Stop waits after SIGTERM before killing.
const stopGracePeriod = 5 * time.Second

// maxLineBytes bounds one decoder output line. AIS-catcher JSON records are
// well under 4 KiB; a larger buffer only protects against stream corruption.
const maxLineBytes = 64 * 1024

// Catcher runs the real AIS-catcher subprocess.
type Catcher struct {
	cfg config.DecoderConfig

	cmd   *exec.Cmd
	lines chan string
	done  chan struct{}

	mu  sync.Mutex
	err error
}

// NewCatcher creates an unstarted decoder for the given configuration.
func NewCatcher(cfg config.DecoderConfig) *Catcher {
	return &Catcher{
		cfg:   cfg,
		lines: make(chan string, 64),
		done:  make(chan struct{}),
	}
}

// args builds the AIS-catcher invocation: device selection, sample rate,
// ppm correction, gain profile, channel pair, and JSON output mode.
func (c *Catcher) args() []string {
	agc := "off"
	if c.cfg.RTLAGC {
		agc = "on"
	}
	return []string{
		fmt.Sprintf("-d:%d", c.cfg.DeviceIndex),
		"-s", strconv.Itoa(c.cfg.SampleRate),
		"-p", strconv.Itoa(c.cfg.PPMCorrection),
		"-gr", "TUNER", c.cfg.TunerGain, "RTLAGC", agc,
		"-c", c.cfg.Channels,
		"-o", "5", // JSON output, one record per line
	}
}

// Start launches the subprocess and begins streaming its stdout.
func (c *Catcher) Start(ctx context.Context) error {
	if _, err := os.Stat(c.cfg.BinaryPath); err != nil {
		return fmt.Errorf("%w: %s", ErrBinaryNotFound, c.cfg.BinaryPath)
	}

	cmd := exec.CommandContext(ctx, c.cfg.BinaryPath, c.args()...)

	// Context cancellation is part of normal shutdown, so it must deliver
	// the graceful signal, not the default SIGKILL. The kill escalation
	// happens via WaitDelay when the process ignores SIGTERM.
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = stopGracePeriod

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("%w: stdout pipe: %v", ErrLaunchFailed, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("%w: stderr pipe: %v", ErrLaunchFailed, err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: %v", ErrLaunchFailed, err)
	}
	c.cmd = cmd

	logging.Info().
		Str("binary", c.cfg.BinaryPath).
		Int("device", c.cfg.DeviceIndex).
		Str("channels", c.cfg.Channels).
		Msg("Decoder started")

	var pipes sync.WaitGroup
	pipes.Add(2)

	go func() {
		defer pipes.Done()
		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 0, 4096), maxLineBytes)
		for scanner.Scan() {
			metrics.DecoderLines.Inc()
			select {
			case c.lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			logging.Error().Err(err).Msg("Decoder stdout read failed")
		}
	}()

	go func() {
		defer pipes.Done()
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			logging.Debug().Str("stderr", scanner.Text()).Msg("Decoder")
		}
	}()

	go func() {
		pipes.Wait()
		waitErr := cmd.Wait()

		c.mu.Lock()
		c.err = waitErr
		c.mu.Unlock()

		close(c.lines)
		close(c.done)

		if waitErr != nil {
			logging.Error().Err(waitErr).Msg("Decoder exited")
		} else {
			logging.Info().Msg("Decoder exited cleanly")
		}
	}()

	return nil
}

// Lines returns the decoder's output channel.
func (c *Catcher) Lines() <-chan string {
	return c.lines
}

// Stop asks the process to terminate, escalating to SIGKILL after the grace
// period, and reports the final status.
func (c *Catcher) Stop() error {
	if c.cmd == nil || c.cmd.Process == nil {
		return nil
	}

	if err := c.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		// Already gone; the wait goroutine records the final status.
		logging.Debug().Err(err).Msg("Decoder SIGTERM delivery failed")
	}

	select {
	case <-c.done:
	case <-time.After(stopGracePeriod):
		logging.Warn().Msg("Decoder did not exit in time, killing")
		if err := c.cmd.Process.Kill(); err != nil {
			logging.Error().Err(err).Msg("Decoder kill failed")
		}
		<-c.done
	}
	return c.Err()
}

// Err returns the terminal process error after Lines is closed.
// A SIGTERM-induced exit from Stop is reported as nil.
func (c *Catcher) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(c.err, &exitErr) {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok {
			if status.Signaled() && status.Signal() == syscall.SIGTERM {
				return nil
			}
		}
	}
	return c.err
}
