// Harborwatch - AIS Vessel Tracking and Receiver Diagnostics
// Copyright 2026 The Harborwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harborwatch/harborwatch

// Package api exposes the vessel tracker over HTTP.
//
// Routes:
//
//	GET  /api/v1/health       - liveness and ingestion state
//	GET  /api/v1/vessels      - vessels in the trailing window, newest first
//	GET  /api/v1/diagnostics  - aggregated receiver health report
//	POST /api/v1/cleanup      - evict vessels older than the window
//	GET  /metrics             - Prometheus metrics
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/harborwatch/harborwatch/internal/config"
)

// NewRouter assembles the HTTP routing tree.
func NewRouter(h *Handler, server config.ServerConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(instrument)

	r.Route("/api/v1", func(r chi.Router) {
		if !server.RateLimitDisabled {
			r.Use(httprate.LimitByIP(server.RateLimitReqs, server.RateLimitWindow))
		}

		r.Get("/health", h.Health)
		r.Get("/vessels", h.Vessels)
		r.Get("/diagnostics", h.Diagnostics)
		r.Post("/cleanup", h.Cleanup)
	})

	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	return r
}
