// Harborwatch - AIS Vessel Tracking and Receiver Diagnostics
// Copyright 2026 The Harborwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harborwatch/harborwatch

package query

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborwatch/harborwatch/internal/config"
	"github.com/harborwatch/harborwatch/internal/database"
	"github.com/harborwatch/harborwatch/internal/errlog"
	"github.com/harborwatch/harborwatch/internal/geo"
	"github.com/harborwatch/harborwatch/internal/models"
)

func setupService(t *testing.T) (*Service, *database.DB, *errlog.Log) {
	t.Helper()

	db, err := database.New(&config.DatabaseConfig{
		Path:        filepath.Join(t.TempDir(), "vessels.db"),
		BusyTimeout: 2 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, db.Close())
	})

	elog := errlog.New(filepath.Join(t.TempDir(), "errors.log"), 1<<20)
	svc := New(db, elog, StaticProbe(true), 48*time.Hour)
	return svc, db, elog
}

func f64Ptr(f float64) *float64 { return &f }
func strPtr(s string) *string   { return &s }

func TestListVesselsEmpty(t *testing.T) {
	svc, _, _ := setupService(t)

	views, err := svc.ListVessels(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, views)
}

func TestListVesselsNoReference(t *testing.T) {
	svc, db, _ := setupService(t)
	ctx := context.Background()

	_, err := db.UpsertVessel(ctx, &models.VesselUpdate{
		MMSI: "123456789", Name: strPtr("OCEAN QUEEN"),
		Latitude: f64Ptr(51.0), Longitude: f64Ptr(1.5),
	})
	require.NoError(t, err)

	views, err := svc.ListVessels(ctx, nil)
	require.NoError(t, err)
	require.Len(t, views, 1)

	v := views[0]
	assert.Equal(t, "123456789", v.MMSI)
	assert.Equal(t, "OCEAN QUEEN", v.Name)
	assert.InDelta(t, 51.0, v.Latitude, 1e-9)
	assert.Nil(t, v.DistanceNM)
	assert.Nil(t, v.BearingDeg)
}

func TestListVesselsAnnotatesDistanceAndBearing(t *testing.T) {
	svc, db, _ := setupService(t)
	ctx := context.Background()

	// One degree due north of the reference point.
	_, err := db.UpsertVessel(ctx, &models.VesselUpdate{
		MMSI: "123456789", Latitude: f64Ptr(1.0), Longitude: f64Ptr(0.0),
	})
	require.NoError(t, err)

	views, err := svc.ListVessels(ctx, &geo.Point{Lat: 0, Lon: 0})
	require.NoError(t, err)
	require.Len(t, views, 1)

	require.NotNil(t, views[0].DistanceNM)
	assert.InDelta(t, 60.04, *views[0].DistanceNM, 0.01)
	require.NotNil(t, views[0].BearingDeg)
	assert.InDelta(t, 0.0, *views[0].BearingDeg, 1e-9)
}

func TestListVesselsUnknownNameFallback(t *testing.T) {
	svc, db, _ := setupService(t)
	ctx := context.Background()

	// Position-only vessel: no static report seen yet.
	_, err := db.UpsertVessel(ctx, &models.VesselUpdate{
		MMSI: "123456789", Latitude: f64Ptr(1), Longitude: f64Ptr(2),
	})
	require.NoError(t, err)

	views, err := svc.ListVessels(ctx, nil)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "Unknown", views[0].Name)
	assert.Empty(t, views[0].Callsign)
	assert.Empty(t, views[0].Destination)
}

func TestDiagnosticsDefaults(t *testing.T) {
	svc, _, _ := setupService(t)

	report := svc.Diagnostics(context.Background())

	assert.Zero(t, report.VesselCount)
	assert.Equal(t, "Never", report.LastMessage)
	assert.EqualValues(t, models.StaleSentinelSeconds, report.SecondsSinceMessage)
	assert.Equal(t, "Unknown", report.DecoderStatus)
	assert.Equal(t, "0", report.TotalMessages)
	assert.NotNil(t, report.RecentErrors)
	assert.Empty(t, report.RecentErrors)
	assert.True(t, report.ReceiverConnected)
	assert.Empty(t, report.Error)
}

func TestDiagnosticsAggregates(t *testing.T) {
	svc, db, elog := setupService(t)
	ctx := context.Background()

	_, err := db.UpsertVessel(ctx, &models.VesselUpdate{
		MMSI: "123456789", Latitude: f64Ptr(1), Longitude: f64Ptr(2),
	})
	require.NoError(t, err)

	lastMessage := time.Now().UTC().Add(-30 * time.Second).Format(time.RFC3339)
	db.SetDiagnostic(ctx, models.DiagDecoderStatus, "Running")
	db.SetDiagnostic(ctx, models.DiagTotalMessages, "500")
	db.SetDiagnostic(ctx, models.DiagLastMessageTime, lastMessage)

	elog.Append("first error")
	elog.Append("second error")
	elog.Append("third error")
	elog.Append("fourth error")

	report := svc.Diagnostics(ctx)

	assert.Equal(t, 1, report.VesselCount)
	assert.Positive(t, report.DBSizeMB)
	assert.Equal(t, lastMessage, report.LastMessage)
	assert.InDelta(t, 30, report.SecondsSinceMessage, 5)
	assert.Equal(t, "Running", report.DecoderStatus)
	assert.Equal(t, "500", report.TotalMessages)

	// Only the trailing lines of the error log are surfaced.
	require.Len(t, report.RecentErrors, 3)
	assert.Contains(t, report.RecentErrors[0], "second error")
	assert.Contains(t, report.RecentErrors[2], "fourth error")
}

func TestDiagnosticsUnparsableTimestamp(t *testing.T) {
	svc, db, _ := setupService(t)
	ctx := context.Background()

	db.SetDiagnostic(ctx, models.DiagLastMessageTime, "not a timestamp")

	report := svc.Diagnostics(ctx)
	assert.Equal(t, "not a timestamp", report.LastMessage)
	assert.EqualValues(t, models.StaleSentinelSeconds, report.SecondsSinceMessage)
}

func TestDiagnosticsStoreFailure(t *testing.T) {
	svc, db, _ := setupService(t)
	require.NoError(t, db.Close())

	report := svc.Diagnostics(context.Background())

	// Degraded, not absent: safe defaults plus the fault description.
	assert.NotEmpty(t, report.Error)
	assert.Equal(t, "Never", report.LastMessage)
	assert.EqualValues(t, models.StaleSentinelSeconds, report.SecondsSinceMessage)
	assert.Equal(t, "Unknown", report.DecoderStatus)
}

func TestDiagnosticsReceiverAbsent(t *testing.T) {
	_, db, elog := setupService(t)
	svc := New(db, elog, StaticProbe(false), 48*time.Hour)

	report := svc.Diagnostics(context.Background())
	assert.False(t, report.ReceiverConnected)
}

func TestCleanup(t *testing.T) {
	svc, db, _ := setupService(t)
	ctx := context.Background()

	for _, mmsi := range []string{"111111111", "222222222"} {
		_, err := db.UpsertVessel(ctx, &models.VesselUpdate{
			MMSI: mmsi, Latitude: f64Ptr(1), Longitude: f64Ptr(2),
		})
		require.NoError(t, err)
	}

	// Inside the window nothing is evicted.
	deleted, err := svc.Cleanup(ctx)
	require.NoError(t, err)
	assert.Zero(t, deleted)

	// With a zero window everything is stale.
	zeroWindow := New(db, svc.elog, StaticProbe(true), 0)
	deleted, err = zeroWindow.Cleanup(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, deleted)
}
