// Harborwatch - AIS Vessel Tracking and Receiver Diagnostics
// Copyright 2026 The Harborwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harborwatch/harborwatch

// Package metrics provides Prometheus instrumentation for Harborwatch.
//
// Metrics are exposed at /metrics in Prometheus text format and cover the
// ingestion pipeline (lines, parse results, upserts), the vessel store, the
// error log, and the HTTP API.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ingestion pipeline

	DecoderLines = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "decoder_lines_total",
			Help: "Total lines read from the decoder's standard output",
		},
	)

	MessagesParsed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_messages_total",
			Help: "Total decoder lines by parse outcome",
		},
		[]string{"result"}, // "stored", "skipped", "failed"
	)

	// Vessel store

	VesselUpserts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vessel_upserts_total",
			Help: "Total vessel rows inserted or merged",
		},
	)

	VesselEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vessel_evictions_total",
			Help: "Total vessel rows removed by the age-based cleanup sweep",
		},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sqlite_query_duration_seconds",
			Help:    "Duration of SQLite statements in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"}, // "upsert", "query", "evict", "diagnostic"
	)

	// Error log

	ErrorLogLines = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "error_log_lines_total",
			Help: "Total lines appended to the error log",
		},
	)

	ErrorLogRotations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "error_log_rotations_total",
			Help: "Total error log rotations to the .old backup",
		},
	)

	// HTTP API

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)
)

// ObserveDBQuery records one database statement's duration.
func ObserveDBQuery(operation string, start time.Time) {
	DBQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// ObserveAPIRequest records one completed HTTP request.
func ObserveAPIRequest(method, endpoint string, status int, start time.Time) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(time.Since(start).Seconds())
}
