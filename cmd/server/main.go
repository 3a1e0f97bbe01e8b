// Harborwatch - AIS Vessel Tracking and Receiver Diagnostics
// Copyright 2026 The Harborwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harborwatch/harborwatch

// Package main is the entry point for the Harborwatch server.
//
// Harborwatch supervises an external AIS-catcher decoder attached to an
// RTL-SDR dongle, parses its JSON output into sparse vessel updates, merges
// them into a SQLite store, and serves the live vessel table plus receiver
// diagnostics over a REST API.
//
// The server initializes components in the following order:
//
//  1. Configuration: Koanf v2 layered (env > YAML file > defaults)
//  2. Error log: rotating diagnostic log with a single .old backup
//  3. Database: SQLite in WAL mode with the vessels and diagnostics tables
//  4. Decoder: AIS-catcher subprocess wrapper (not yet started)
//  5. Services: ingestion loop, query service, HTTP API
//  6. Supervisor tree: capture layer and API layer under one suture root
//
// The capture and API layers fail independently. If AIS-catcher exits, the
// ingestion loop records the failure in the diagnostics table and stops
// without restart, while the API keeps serving stored vessels and a
// diagnostics report that shows the decoder is down.
//
// Graceful shutdown on SIGINT/SIGTERM: the decoder receives SIGTERM, the
// HTTP server drains in-flight requests, and the process exits zero. A
// startup failure (unreachable database, missing decoder binary) terminates
// the supervisor tree and the process exits non-zero.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/harborwatch/harborwatch/internal/api"
	"github.com/harborwatch/harborwatch/internal/config"
	"github.com/harborwatch/harborwatch/internal/database"
	"github.com/harborwatch/harborwatch/internal/decoder"
	"github.com/harborwatch/harborwatch/internal/errlog"
	"github.com/harborwatch/harborwatch/internal/ingest"
	"github.com/harborwatch/harborwatch/internal/logging"
	"github.com/harborwatch/harborwatch/internal/query"
	"github.com/harborwatch/harborwatch/internal/supervisor"
)

// openStore opens the vessel store. Initialization failures are persisted to
// the error log before the caller exits, so the record survives the process.
func openStore(cfg *config.DatabaseConfig, elog *errlog.Log) (*database.DB, error) {
	db, err := database.New(cfg)
	if err != nil {
		elog.Append(fmt.Sprintf("FATAL: Database initialization failed: %v", err))
		return nil, err
	}
	return db, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("decoder", cfg.Decoder.BinaryPath).
		Dur("window", cfg.Ingest.Window).
		Msg("Starting Harborwatch")

	elog := errlog.New(cfg.ErrorLog.Path, cfg.ErrorLog.MaxSizeBytes)

	db, err := openStore(&cfg.Database, elog)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized")

	catcher := decoder.NewCatcher(cfg.Decoder)
	ingestSvc := ingest.New(db, catcher, elog, cfg.Ingest)
	querySvc := query.New(db, elog, query.USBProbe{}, cfg.Ingest.Window)

	handler := api.NewHandler(querySvc, ingestSvc, cfg.Server)
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      api.NewRouter(handler, cfg.Server),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  2 * cfg.Server.Timeout,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddCaptureService(ingestSvc)
	tree.AddAPIService(supervisor.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	fatal := false
	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
			fatal = true
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
			fatal = true
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	if fatal {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
		os.Exit(1)
	}

	logging.Info().Msg("Harborwatch stopped gracefully")
}
