// Harborwatch - AIS Vessel Tracking and Receiver Diagnostics
// Copyright 2026 The Harborwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harborwatch/harborwatch

// Package ingest runs the long-lived capture loop: decoder lines in, vessel
// rows and diagnostics out.
//
// The loop is a small state machine (Idle, Initializing, Running,
// then Stopped or Failed) with strict failure isolation: one malformed line,
// one store fault, or one diagnostics write failure never stops the stream.
// Only startup failures and decoder unavailability are fatal.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/harborwatch/harborwatch/internal/config"
	"github.com/harborwatch/harborwatch/internal/database"
	"github.com/harborwatch/harborwatch/internal/decoder"
	"github.com/harborwatch/harborwatch/internal/errlog"
	"github.com/harborwatch/harborwatch/internal/logging"
	"github.com/harborwatch/harborwatch/internal/metrics"
	"github.com/harborwatch/harborwatch/internal/models"
	"github.com/harborwatch/harborwatch/internal/parser"
)

// State names the ingestion loop's lifecycle phase.
type State string

const (
	StateIdle         State = "idle"
	StateInitializing State = "initializing"
	StateRunning      State = "running"
	StateStopped      State = "stopped"
	StateFailed       State = "failed"
)

// Service consumes the decoder's line sequence and maintains the vessel
// store and diagnostics. It implements suture.Service; a decoder exit is
// terminal for the session (reported with suture.ErrDoNotRestart), while a
// startup failure tears the whole tree down so the process exits non-zero.
type Service struct {
	store  *database.DB
	source decoder.Source
	elog   *errlog.Log

	counterInterval int

	state atomic.Value // State
	count atomic.Int64 // successfully stored messages this session
}

// New creates an ingestion service in the Idle state.
func New(store *database.DB, source decoder.Source, elog *errlog.Log, cfg config.IngestConfig) *Service {
	s := &Service{
		store:           store,
		source:          source,
		elog:            elog,
		counterInterval: cfg.CounterInterval,
	}
	if s.counterInterval <= 0 {
		s.counterInterval = 100
	}
	s.state.Store(StateIdle)
	return s
}

// State returns the current lifecycle phase.
func (s *Service) State() State {
	return s.state.Load().(State)
}

// MessageCount returns how many messages this session has stored.
func (s *Service) MessageCount() int64 {
	return s.count.Load()
}

// Serve implements suture.Service. It initializes the session, then consumes
// decoder lines until the context is canceled or the decoder exits.
func (s *Service) Serve(ctx context.Context) error {
	s.state.Store(StateInitializing)

	if err := s.store.Ping(ctx); err != nil {
		return s.fail(fmt.Errorf("store unavailable: %w", err))
	}

	if err := s.source.Start(ctx); err != nil {
		s.store.SetDiagnostic(context.Background(),
			models.DiagDecoderStatus, "ERROR: "+err.Error())
		return s.fail(err)
	}

	s.store.SetDiagnostic(ctx, models.DiagDecoderStatus, "Running")
	s.state.Store(StateRunning)
	logging.Info().Msg("Ingestion running")

	for {
		select {
		case <-ctx.Done():
			return s.shutdown()

		case line, ok := <-s.source.Lines():
			if !ok {
				return s.decoderExited()
			}
			s.processLine(ctx, line)
		}
	}
}

// String implements fmt.Stringer for supervisor logging.
func (s *Service) String() string {
	return "ingest-loop"
}

// processLine handles one decoder output line. All per-line faults,
// including panics out of the store layer, are contained here.
func (s *Service) processLine(ctx context.Context, line string) {
	defer func() {
		if r := recover(); r != nil {
			metrics.MessagesParsed.WithLabelValues("failed").Inc()
			s.elog.Append(fmt.Sprintf("Panic processing message: %v", r))
		}
	}()

	update, ok := parser.Parse(line)
	if !ok {
		metrics.MessagesParsed.WithLabelValues("skipped").Inc()
		return
	}

	if _, err := s.store.UpsertVessel(ctx, update); err != nil {
		metrics.MessagesParsed.WithLabelValues("failed").Inc()
		s.elog.Append(fmt.Sprintf("Failed to update vessel %s: %v", update.MMSI, err))
		return
	}
	metrics.MessagesParsed.WithLabelValues("stored").Inc()

	s.store.SetDiagnostic(ctx, models.DiagLastMessageTime,
		time.Now().UTC().Format(time.RFC3339))

	count := s.count.Add(1)
	if count%int64(s.counterInterval) == 0 {
		s.store.SetDiagnostic(ctx, models.DiagTotalMessages, fmt.Sprintf("%d", count))
		logging.Info().Int64("count", count).Msg("Messages processed")
	}
}

// shutdown handles an external stop: ask the decoder to stop, flush the
// final status, exit without raising.
func (s *Service) shutdown() error {
	s.state.Store(StateStopped)
	logging.Info().Msg("Ingestion stopping")

	if err := s.source.Stop(); err != nil {
		logging.Error().Err(err).Msg("Decoder stop reported error")
	}

	// The serving context is already canceled; the final status flush gets
	// its own context so it still reaches the store.
	s.store.SetDiagnostic(context.Background(), models.DiagDecoderStatus, "Stopped")
	return nil
}

// decoderExited handles the line channel closing without a stop request.
// There is no automatic restart: the failure stays visible in diagnostics
// until the operator restarts the process.
func (s *Service) decoderExited() error {
	err := s.source.Err()
	if err == nil {
		err = errors.New("decoder exited unexpectedly")
	}

	s.state.Store(StateFailed)
	s.elog.Append(fmt.Sprintf("Fatal error in capture loop: %v", err))
	s.store.SetDiagnostic(context.Background(),
		models.DiagDecoderStatus, "ERROR: "+err.Error())

	return errors.Join(err, suture.ErrDoNotRestart)
}

// fail records a fatal initialization failure and tears the supervisor tree
// down so the process exits non-zero with the failure persisted.
func (s *Service) fail(err error) error {
	s.state.Store(StateFailed)
	s.elog.Append(fmt.Sprintf("FATAL: %v", err))
	logging.Error().Err(err).Msg("Ingestion initialization failed")
	return errors.Join(err, suture.ErrTerminateSupervisorTree)
}
