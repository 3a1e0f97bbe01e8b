// Harborwatch - AIS Vessel Tracking and Receiver Diagnostics
// Copyright 2026 The Harborwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harborwatch/harborwatch

package models

import "time"

// Diagnostic keys written by the ingestion loop.
const (
	DiagDecoderStatus   = "decoder_status"
	DiagTotalMessages   = "total_messages"
	DiagLastMessageTime = "last_message_time"
)

// StaleSentinelSeconds is reported as seconds_since_message when no message
// has ever been recorded or the stored timestamp cannot be parsed.
const StaleSentinelSeconds = 999999

// DiagnosticEntry is one scalar operational fact, overwritten wholesale on
// each write (no sparse merge, unlike Vessel).
type DiagnosticEntry struct {
	Key     string    `json:"key"`
	Value   string    `json:"value"`
	Updated time.Time `json:"updated"`
}

// DiagnosticsReport aggregates operational state for the diagnostics
// endpoint. The report is always produced; internal faults degrade it to
// zeroed defaults with Error describing what went wrong.
type DiagnosticsReport struct {
	VesselCount         int               `json:"vessel_count"`
	DBSizeMB            float64           `json:"db_size_mb"`
	LastMessage         string            `json:"last_message"`
	SecondsSinceMessage int64             `json:"seconds_since_message"`
	ReceiverConnected   bool              `json:"receiver_connected"`
	DecoderStatus       string            `json:"decoder_status"`
	TotalMessages       string            `json:"total_messages"`
	RecentErrors        []string          `json:"recent_errors"`
	Entries             map[string]string `json:"entries,omitempty"`
	Error               string            `json:"error,omitempty"`
}
