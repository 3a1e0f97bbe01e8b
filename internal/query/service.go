// Harborwatch - AIS Vessel Tracking and Receiver Diagnostics
// Copyright 2026 The Harborwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harborwatch/harborwatch

// Package query serves the live vessel table: windowed listings with
// distance/bearing annotation, the aggregate diagnostics report, and the
// age-based cleanup sweep.
package query

import (
	"context"
	"math"
	"time"

	"github.com/harborwatch/harborwatch/internal/database"
	"github.com/harborwatch/harborwatch/internal/errlog"
	"github.com/harborwatch/harborwatch/internal/geo"
	"github.com/harborwatch/harborwatch/internal/models"
)

// errorTailLines is how many recent error log lines the diagnostics report
// carries.
const errorTailLines = 3

// Service answers queries over the vessel store and aggregates diagnostics.
type Service struct {
	store  *database.DB
	elog   *errlog.Log
	probe  HardwareProbe
	window time.Duration
}

// New creates a query service over the given store, error log, and hardware
// probe, bounded by the trailing window.
func New(store *database.DB, elog *errlog.Log, probe HardwareProbe, window time.Duration) *Service {
	return &Service{
		store:  store,
		elog:   elog,
		probe:  probe,
		window: window,
	}
}

// ListVessels returns vessels updated within the trailing window, most
// recent first, restricted to rows with a known position. When ref is
// non-nil each vessel is annotated with great-circle distance (nautical
// miles) and initial bearing from the reference point.
func (s *Service) ListVessels(ctx context.Context, ref *geo.Point) ([]models.VesselView, error) {
	vessels, err := s.store.QueryVessels(ctx, s.window)
	if err != nil {
		return nil, err
	}

	views := make([]models.VesselView, 0, len(vessels))
	for i := range vessels {
		views = append(views, buildView(&vessels[i], ref))
	}
	return views, nil
}

// buildView flattens a stored vessel into its API form. QueryVessels only
// returns rows with a known position, so the coordinate derefs are safe.
func buildView(v *models.Vessel, ref *geo.Point) models.VesselView {
	view := models.VesselView{
		MMSI:               v.MMSI,
		Name:               stringOr(v.Name, "Unknown"),
		Latitude:           *v.Latitude,
		Longitude:          *v.Longitude,
		Speed:              v.Speed,
		Course:             v.Course,
		Heading:            v.Heading,
		VesselType:         stringOr(v.VesselType, ""),
		Callsign:           stringOr(v.Callsign, ""),
		IMO:                stringOr(v.IMO, ""),
		DimensionBow:       v.DimensionBow,
		DimensionStern:     v.DimensionStern,
		DimensionPort:      v.DimensionPort,
		DimensionStarboard: v.DimensionStarboard,
		Draught:            v.Draught,
		Destination:        stringOr(v.Destination, ""),
		NavStatus:          stringOr(v.NavStatus, ""),
		Timestamp:          v.LastUpdated,
	}

	if ref != nil {
		distance := roundTo(geo.DistanceNM(ref.Lat, ref.Lon, *v.Latitude, *v.Longitude), 2)
		bearing := roundTo(geo.BearingDeg(ref.Lat, ref.Lon, *v.Latitude, *v.Longitude), 1)
		view.DistanceNM = &distance
		view.BearingDeg = &bearing
	}
	return view
}

// Diagnostics builds the aggregate operational report. It never fails
// outward: any internal fault degrades the report to safe defaults with the
// fault described in Error.
func (s *Service) Diagnostics(ctx context.Context) models.DiagnosticsReport {
	report := models.DiagnosticsReport{
		LastMessage:         "Never",
		SecondsSinceMessage: models.StaleSentinelSeconds,
		DecoderStatus:       "Unknown",
		TotalMessages:       "0",
		RecentErrors:        []string{},
	}

	entries, err := s.store.GetDiagnostics(ctx)
	if err != nil {
		report.Error = err.Error()
		return report
	}
	report.Entries = entries

	if status, ok := entries[models.DiagDecoderStatus]; ok {
		report.DecoderStatus = status
	}
	if total, ok := entries[models.DiagTotalMessages]; ok {
		report.TotalMessages = total
	}
	if last, ok := entries[models.DiagLastMessageTime]; ok && last != "" {
		report.LastMessage = last
		if t, perr := time.Parse(time.RFC3339, last); perr == nil {
			report.SecondsSinceMessage = int64(time.Since(t).Seconds())
		}
	}

	count, err := s.store.CountVesselsWithPosition(ctx)
	if err != nil {
		report.Error = err.Error()
		return report
	}
	report.VesselCount = count

	report.DBSizeMB = roundTo(float64(s.store.FileSizeBytes())/(1024*1024), 2)
	report.ReceiverConnected = s.probe.Present(ctx)

	if tail, terr := s.elog.Tail(errorTailLines); terr == nil {
		report.RecentErrors = append(report.RecentErrors, tail...)
	}

	return report
}

// Cleanup evicts vessels older than the trailing window and reports how many
// rows were removed.
func (s *Service) Cleanup(ctx context.Context) (int64, error) {
	return s.store.EvictVessels(ctx, s.window)
}

// Window returns the configured trailing window.
func (s *Service) Window() time.Duration {
	return s.window
}

// stringOr dereferences an optional string with a fallback.
func stringOr(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}

// roundTo rounds x to the given number of decimal places.
func roundTo(x float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(x*factor) / factor
}
