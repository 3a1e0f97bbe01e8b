// Harborwatch - AIS Vessel Tracking and Receiver Diagnostics
// Copyright 2026 The Harborwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harborwatch/harborwatch

package database

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborwatch/harborwatch/internal/models"
)

func strPtr(s string) *string   { return &s }
func f64Ptr(f float64) *float64 { return &f }
func intPtr(i int) *int         { return &i }

func TestUpsertVesselInsert(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	stamp, err := db.UpsertVessel(ctx, &models.VesselUpdate{
		MMSI:      "123456789",
		Latitude:  f64Ptr(10.0),
		Longitude: f64Ptr(20.0),
		Speed:     f64Ptr(5.0),
	})
	require.NoError(t, err)
	assert.False(t, stamp.IsZero())

	v, err := db.GetVessel(ctx, "123456789")
	require.NoError(t, err)
	assert.Equal(t, "123456789", v.MMSI)
	require.NotNil(t, v.Latitude)
	assert.InDelta(t, 10.0, *v.Latitude, 1e-9)
	require.NotNil(t, v.Speed)
	assert.InDelta(t, 5.0, *v.Speed, 1e-9)
	assert.Nil(t, v.Name)
	assert.Nil(t, v.Heading)
	assert.False(t, v.FirstSeen.IsZero())
	assert.False(t, v.LastUpdated.IsZero())
}

func TestUpsertVesselRequiresMMSI(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.UpsertVessel(context.Background(), &models.VesselUpdate{})
	require.Error(t, err)

	_, err = db.UpsertVessel(context.Background(), nil)
	require.Error(t, err)
}

func TestUpsertVesselSparseMerge(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	// A position report, then a static report for the same vessel.
	_, err := db.UpsertVessel(ctx, &models.VesselUpdate{
		MMSI:      "123456789",
		Latitude:  f64Ptr(10.0),
		Longitude: f64Ptr(20.0),
		Speed:     f64Ptr(5.0),
	})
	require.NoError(t, err)

	_, err = db.UpsertVessel(ctx, &models.VesselUpdate{
		MMSI: "123456789",
		Name: strPtr("TEST VESSEL"),
	})
	require.NoError(t, err)

	v, err := db.GetVessel(ctx, "123456789")
	require.NoError(t, err)

	// The static report carried no position; the stored one survives.
	require.NotNil(t, v.Latitude)
	assert.InDelta(t, 10.0, *v.Latitude, 1e-9)
	require.NotNil(t, v.Longitude)
	assert.InDelta(t, 20.0, *v.Longitude, 1e-9)
	require.NotNil(t, v.Speed)
	assert.InDelta(t, 5.0, *v.Speed, 1e-9)
	require.NotNil(t, v.Name)
	assert.Equal(t, "TEST VESSEL", *v.Name)
}

func TestUpsertVesselPresentFieldOverwrites(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	_, err := db.UpsertVessel(ctx, &models.VesselUpdate{
		MMSI:     "123456789",
		Latitude: f64Ptr(10.0), Longitude: f64Ptr(20.0),
		Speed: f64Ptr(5.0),
	})
	require.NoError(t, err)

	_, err = db.UpsertVessel(ctx, &models.VesselUpdate{
		MMSI:     "123456789",
		Latitude: f64Ptr(10.5), Longitude: f64Ptr(20.5),
		Speed: f64Ptr(7.2),
	})
	require.NoError(t, err)

	v, err := db.GetVessel(ctx, "123456789")
	require.NoError(t, err)
	assert.InDelta(t, 10.5, *v.Latitude, 1e-9)
	assert.InDelta(t, 20.5, *v.Longitude, 1e-9)
	assert.InDelta(t, 7.2, *v.Speed, 1e-9)
}

func TestUpsertVesselNeverErases(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	full := &models.VesselUpdate{
		MMSI:     "123456789",
		Name:     strPtr("FULL HOUSE"),
		Latitude: f64Ptr(1), Longitude: f64Ptr(2),
		Speed: f64Ptr(3), Course: f64Ptr(4), Heading: intPtr(5),
		VesselType: strPtr("70"), Callsign: strPtr("ABCD"), IMO: strPtr("9811000"),
		DimensionBow: intPtr(10), DimensionStern: intPtr(11),
		DimensionPort: intPtr(3), DimensionStarboard: intPtr(4),
		Draught: f64Ptr(6.5), Destination: strPtr("HAMBURG"), NavStatus: strPtr("0"),
	}
	_, err := db.UpsertVessel(ctx, full)
	require.NoError(t, err)

	// An all-nil update must change nothing but the update stamp.
	_, err = db.UpsertVessel(ctx, &models.VesselUpdate{MMSI: "123456789"})
	require.NoError(t, err)

	v, err := db.GetVessel(ctx, "123456789")
	require.NoError(t, err)
	assert.Equal(t, "FULL HOUSE", *v.Name)
	assert.InDelta(t, 1.0, *v.Latitude, 1e-9)
	assert.InDelta(t, 2.0, *v.Longitude, 1e-9)
	assert.InDelta(t, 3.0, *v.Speed, 1e-9)
	assert.InDelta(t, 4.0, *v.Course, 1e-9)
	assert.Equal(t, 5, *v.Heading)
	assert.Equal(t, "70", *v.VesselType)
	assert.Equal(t, "ABCD", *v.Callsign)
	assert.Equal(t, "9811000", *v.IMO)
	assert.Equal(t, 10, *v.DimensionBow)
	assert.Equal(t, 11, *v.DimensionStern)
	assert.Equal(t, 3, *v.DimensionPort)
	assert.Equal(t, 4, *v.DimensionStarboard)
	assert.InDelta(t, 6.5, *v.Draught, 1e-9)
	assert.Equal(t, "HAMBURG", *v.Destination)
	assert.Equal(t, "0", *v.NavStatus)
}

func TestUpsertVesselStampsLastUpdated(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	first, err := db.UpsertVessel(ctx, &models.VesselUpdate{MMSI: "123456789", Speed: f64Ptr(1)})
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	second, err := db.UpsertVessel(ctx, &models.VesselUpdate{MMSI: "123456789"})
	require.NoError(t, err)
	assert.True(t, second.After(first))

	v, err := db.GetVessel(ctx, "123456789")
	require.NoError(t, err)
	assert.True(t, v.LastUpdated.After(v.FirstSeen))
	assert.True(t, second.Equal(v.LastUpdated))
}

func TestQueryVesselsRequiresPosition(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	_, err := db.UpsertVessel(ctx, &models.VesselUpdate{
		MMSI: "111111111", Latitude: f64Ptr(1), Longitude: f64Ptr(2),
	})
	require.NoError(t, err)
	_, err = db.UpsertVessel(ctx, &models.VesselUpdate{
		MMSI: "222222222", Name: strPtr("NO POSITION YET"),
	})
	require.NoError(t, err)

	vessels, err := db.QueryVessels(ctx, 48*time.Hour)
	require.NoError(t, err)
	require.Len(t, vessels, 1)
	assert.Equal(t, "111111111", vessels[0].MMSI)
}

func TestQueryVesselsWindowExcludesStale(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	_, err := db.UpsertVessel(ctx, &models.VesselUpdate{
		MMSI: "111111111", Latitude: f64Ptr(1), Longitude: f64Ptr(2),
	})
	require.NoError(t, err)

	// A zero-length window puts every row outside it.
	vessels, err := db.QueryVessels(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, vessels)

	vessels, err = db.QueryVessels(ctx, time.Hour)
	require.NoError(t, err)
	assert.Len(t, vessels, 1)
}

func TestQueryVesselsWindowBoundary(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	// Backdate rows to either side of the 48h cutoff: a sighting one
	// minute inside the window is served, one minute outside is not.
	stamp := func(mmsi string, age time.Duration) {
		_, err := db.UpsertVessel(ctx, &models.VesselUpdate{
			MMSI: mmsi, Latitude: f64Ptr(1), Longitude: f64Ptr(2),
		})
		require.NoError(t, err)
		_, err = db.conn.ExecContext(ctx,
			`UPDATE vessels SET last_updated = ? WHERE mmsi = ?`,
			formatTime(time.Now().UTC().Add(-age)), mmsi)
		require.NoError(t, err)
	}
	stamp("111111111", 48*time.Hour-time.Minute)
	stamp("222222222", 48*time.Hour+time.Minute)

	vessels, err := db.QueryVessels(ctx, 48*time.Hour)
	require.NoError(t, err)
	require.Len(t, vessels, 1)
	assert.Equal(t, "111111111", vessels[0].MMSI)

	evicted, err := db.EvictVessels(ctx, 48*time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 1, evicted)

	v, err := db.GetVessel(ctx, "111111111")
	require.NoError(t, err)
	assert.Equal(t, "111111111", v.MMSI)
}

func TestQueryVesselsNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := db.UpsertVessel(ctx, &models.VesselUpdate{
			MMSI:     fmt.Sprintf("10000000%d", i),
			Latitude: f64Ptr(1), Longitude: f64Ptr(2),
		})
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)
	}

	vessels, err := db.QueryVessels(ctx, time.Hour)
	require.NoError(t, err)
	require.Len(t, vessels, 3)
	assert.Equal(t, "100000002", vessels[0].MMSI)
	assert.Equal(t, "100000000", vessels[2].MMSI)
	assert.True(t, vessels[0].LastUpdated.After(vessels[2].LastUpdated))
}

func TestEvictVessels(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := db.UpsertVessel(ctx, &models.VesselUpdate{
			MMSI:     fmt.Sprintf("10000000%d", i),
			Latitude: f64Ptr(1), Longitude: f64Ptr(2),
		})
		require.NoError(t, err)
	}

	// Nothing is older than an hour yet.
	deleted, err := db.EvictVessels(ctx, time.Hour)
	require.NoError(t, err)
	assert.Zero(t, deleted)

	// With a zero window, everything is stale.
	deleted, err = db.EvictVessels(ctx, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 3, deleted)

	count, err := db.CountVesselsWithPosition(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestCountVesselsWithPosition(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	count, err := db.CountVesselsWithPosition(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	_, err = db.UpsertVessel(ctx, &models.VesselUpdate{
		MMSI: "111111111", Latitude: f64Ptr(1), Longitude: f64Ptr(2),
	})
	require.NoError(t, err)
	_, err = db.UpsertVessel(ctx, &models.VesselUpdate{
		MMSI: "222222222", Name: strPtr("DARK SHIP"),
	})
	require.NoError(t, err)

	count, err = db.CountVesselsWithPosition(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
