// Harborwatch - AIS Vessel Tracking and Receiver Diagnostics
// Copyright 2026 The Harborwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harborwatch/harborwatch

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/harborwatch/harborwatch/internal/logging"
	"github.com/harborwatch/harborwatch/internal/metrics"
)

const requestIDHeader = "X-Request-ID"

// requestID attaches a UUID to each request, honoring a caller-supplied one.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

// instrument records request count, duration, and an access log line.
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		routePattern := chi.RouteContext(r.Context()).RoutePattern()
		if routePattern == "" {
			routePattern = r.URL.Path
		}
		metrics.ObserveAPIRequest(r.Method, routePattern, ww.Status(), start)

		logging.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Str("request_id", w.Header().Get(requestIDHeader)).
			Msg("Request handled")
	})
}
