// Harborwatch - AIS Vessel Tracking and Receiver Diagnostics
// Copyright 2026 The Harborwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harborwatch/harborwatch

package api

import (
	"net/http"
	"time"

	"github.com/harborwatch/harborwatch/internal/config"
	"github.com/harborwatch/harborwatch/internal/geo"
	"github.com/harborwatch/harborwatch/internal/ingest"
	"github.com/harborwatch/harborwatch/internal/models"
	"github.com/harborwatch/harborwatch/internal/query"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

// Handler bundles the dependencies behind the HTTP endpoints.
type Handler struct {
	query   *query.Service
	ingest  *ingest.Service
	server  config.ServerConfig
	started time.Time
}

// NewHandler creates an API handler.
func NewHandler(q *query.Service, ing *ingest.Service, server config.ServerConfig) *Handler {
	return &Handler{
		query:   q,
		ingest:  ing,
		server:  server,
		started: time.Now(),
	}
}

// Health reports process liveness and the ingestion loop state.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	respondData(w, models.HealthStatus{
		Status:        "ok",
		UptimeSeconds: time.Since(h.started).Seconds(),
		IngestState:   string(h.ingest.State()),
		Version:       Version,
	}, start)
}

// vesselParams carries the optional observer reference point.
type vesselParams struct {
	RefLat *float64 `validate:"omitempty,gte=-90,lte=90"`
	RefLon *float64 `validate:"omitempty,gte=-180,lte=180"`
}

// Vessels returns all vessels with a known position inside the trailing
// window, newest first. When a reference point is available, either from
// ref_lat/ref_lon query parameters or the configured receiver location,
// each vessel is annotated with distance and bearing from it.
func (h *Handler) Vessels(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	params, err := h.parseVesselParams(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAMETER", err.Error(), nil)
		return
	}
	if err := validate.Struct(params); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAMETER",
			"ref_lat must be in [-90, 90] and ref_lon in [-180, 180]", nil)
		return
	}
	if (params.RefLat == nil) != (params.RefLon == nil) {
		respondError(w, http.StatusBadRequest, "INVALID_PARAMETER",
			"ref_lat and ref_lon must be supplied together", nil)
		return
	}

	ref := h.referencePoint(params)
	vessels, err := h.query.ListVessels(r.Context(), ref)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR",
			"Failed to query vessels", err)
		return
	}

	respondData(w, vessels, start)
}

// Diagnostics returns the aggregated receiver health report. The report is
// always 200; store failures surface inside the report body.
func (h *Handler) Diagnostics(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	respondData(w, h.query.Diagnostics(r.Context()), start)
}

// Cleanup removes vessels not updated within the trailing window and
// reports how many rows were deleted.
func (h *Handler) Cleanup(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	deleted, err := h.query.Cleanup(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR",
			"Failed to clean up old vessels", err)
		return
	}

	respondData(w, models.CleanupResult{Deleted: deleted}, start)
}

func (h *Handler) parseVesselParams(r *http.Request) (*vesselParams, error) {
	lat, err := getFloatParam(r, "ref_lat")
	if err != nil {
		return nil, err
	}
	lon, err := getFloatParam(r, "ref_lon")
	if err != nil {
		return nil, err
	}
	return &vesselParams{RefLat: lat, RefLon: lon}, nil
}

// referencePoint picks the query parameters when present, otherwise the
// configured receiver location, otherwise nil.
func (h *Handler) referencePoint(params *vesselParams) *geo.Point {
	if params.RefLat != nil && params.RefLon != nil {
		return &geo.Point{Lat: *params.RefLat, Lon: *params.RefLon}
	}
	if h.server.HasReferencePoint() {
		return &geo.Point{Lat: h.server.Latitude, Lon: h.server.Longitude}
	}
	return nil
}
