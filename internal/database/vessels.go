// Harborwatch - AIS Vessel Tracking and Receiver Diagnostics
// Copyright 2026 The Harborwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harborwatch/harborwatch

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/harborwatch/harborwatch/internal/metrics"
	"github.com/harborwatch/harborwatch/internal/models"
)

// UpsertVessel merges a sparse update into the vessel row for its MMSI and
// returns the stamped last-updated time.
//
// The merge rule is the store's central correctness property: a field absent
// from the update (nil pointer, bound as NULL) never overwrites a stored
// value, while a present field always does. COALESCE(excluded.col, col)
// expresses exactly that. last_updated is stamped on every call regardless
// of which fields changed; first_seen survives from the original insert.
// The whole merge is one statement, so it is atomic with respect to readers.
func (db *DB) UpsertVessel(ctx context.Context, update *models.VesselUpdate) (time.Time, error) {
	if update == nil || update.MMSI == "" {
		return time.Time{}, fmt.Errorf("vessel update requires an MMSI")
	}

	start := time.Now()
	defer metrics.ObserveDBQuery("upsert", start)

	now := start.UTC()
	stamp := formatTime(now)

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO vessels (
			mmsi, name, latitude, longitude, speed, course, heading,
			vessel_type, callsign, imo,
			dimension_bow, dimension_stern, dimension_port, dimension_starboard,
			draught, destination, nav_status, first_seen, last_updated
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (mmsi) DO UPDATE SET
			name                = COALESCE(excluded.name, name),
			latitude            = COALESCE(excluded.latitude, latitude),
			longitude           = COALESCE(excluded.longitude, longitude),
			speed               = COALESCE(excluded.speed, speed),
			course              = COALESCE(excluded.course, course),
			heading             = COALESCE(excluded.heading, heading),
			vessel_type         = COALESCE(excluded.vessel_type, vessel_type),
			callsign            = COALESCE(excluded.callsign, callsign),
			imo                 = COALESCE(excluded.imo, imo),
			dimension_bow       = COALESCE(excluded.dimension_bow, dimension_bow),
			dimension_stern     = COALESCE(excluded.dimension_stern, dimension_stern),
			dimension_port      = COALESCE(excluded.dimension_port, dimension_port),
			dimension_starboard = COALESCE(excluded.dimension_starboard, dimension_starboard),
			draught             = COALESCE(excluded.draught, draught),
			destination         = COALESCE(excluded.destination, destination),
			nav_status          = COALESCE(excluded.nav_status, nav_status),
			last_updated        = excluded.last_updated`,
		update.MMSI, update.Name, update.Latitude, update.Longitude,
		update.Speed, update.Course, update.Heading,
		update.VesselType, update.Callsign, update.IMO,
		update.DimensionBow, update.DimensionStern,
		update.DimensionPort, update.DimensionStarboard,
		update.Draught, update.Destination, update.NavStatus,
		stamp, stamp,
	)
	if err != nil {
		return time.Time{}, fmt.Errorf("upsert vessel %s: %w", update.MMSI, err)
	}

	metrics.VesselUpserts.Inc()
	return now, nil
}

// vesselColumns is the scan order shared by vessel queries.
const vesselColumns = `mmsi, name, latitude, longitude, speed, course, heading,
	vessel_type, callsign, imo,
	dimension_bow, dimension_stern, dimension_port, dimension_starboard,
	draught, destination, nav_status, first_seen, last_updated`

// QueryVessels returns vessels with a known position updated within the
// trailing maxAge window, most recently updated first. Rows with no position
// are never surfaced even when fresh.
func (db *DB) QueryVessels(ctx context.Context, maxAge time.Duration) ([]models.Vessel, error) {
	start := time.Now()
	defer metrics.ObserveDBQuery("query", start)

	cutoff := formatTime(start.Add(-maxAge))

	rows, err := db.conn.QueryContext(ctx, `
		SELECT `+vesselColumns+`
		FROM vessels
		WHERE latitude IS NOT NULL
		  AND longitude IS NOT NULL
		  AND last_updated > ?
		ORDER BY last_updated DESC`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("query vessels: %w", err)
	}
	defer closeQuietly(rows)

	var vessels []models.Vessel
	for rows.Next() {
		v, err := scanVessel(rows)
		if err != nil {
			return nil, err
		}
		vessels = append(vessels, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate vessels: %w", err)
	}
	return vessels, nil
}

// GetVessel returns the row for one MMSI, or sql.ErrNoRows.
func (db *DB) GetVessel(ctx context.Context, mmsi string) (models.Vessel, error) {
	start := time.Now()
	defer metrics.ObserveDBQuery("query", start)

	row := db.conn.QueryRowContext(ctx, `
		SELECT `+vesselColumns+`
		FROM vessels
		WHERE mmsi = ?`, mmsi)
	return scanVessel(row)
}

// EvictVessels deletes rows whose last update is older than the trailing
// maxAge window and returns the number removed.
func (db *DB) EvictVessels(ctx context.Context, maxAge time.Duration) (int64, error) {
	start := time.Now()
	defer metrics.ObserveDBQuery("evict", start)

	cutoff := formatTime(start.Add(-maxAge))

	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM vessels WHERE last_updated < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("evict vessels: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("evict vessels rowcount: %w", err)
	}
	metrics.VesselEvictions.Add(float64(deleted))
	return deleted, nil
}

// CountVesselsWithPosition returns how many rows have a known position.
func (db *DB) CountVesselsWithPosition(ctx context.Context) (int, error) {
	start := time.Now()
	defer metrics.ObserveDBQuery("query", start)

	var count int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM vessels WHERE latitude IS NOT NULL`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count vessels: %w", err)
	}
	return count, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanVessel reads one vessel row in vesselColumns order.
func scanVessel(s scanner) (models.Vessel, error) {
	var v models.Vessel
	var firstSeen, lastUpdated string

	err := s.Scan(
		&v.MMSI, &v.Name, &v.Latitude, &v.Longitude,
		&v.Speed, &v.Course, &v.Heading,
		&v.VesselType, &v.Callsign, &v.IMO,
		&v.DimensionBow, &v.DimensionStern, &v.DimensionPort, &v.DimensionStarboard,
		&v.Draught, &v.Destination, &v.NavStatus,
		&firstSeen, &lastUpdated,
	)
	if err != nil {
		return models.Vessel{}, err
	}

	if v.FirstSeen, err = parseTime(firstSeen); err != nil {
		return models.Vessel{}, fmt.Errorf("vessel %s first_seen: %w", v.MMSI, err)
	}
	if v.LastUpdated, err = parseTime(lastUpdated); err != nil {
		return models.Vessel{}, fmt.Errorf("vessel %s last_updated: %w", v.MMSI, err)
	}
	return v, nil
}
