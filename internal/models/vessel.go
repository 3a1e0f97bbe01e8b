// Harborwatch - AIS Vessel Tracking and Receiver Diagnostics
// Copyright 2026 The Harborwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harborwatch/harborwatch

// Package models defines the data structures shared across Harborwatch:
// vessel state, sparse vessel updates, diagnostics, and API envelopes.
package models

import "time"

// Vessel is the live state of one tracked vessel, keyed by MMSI.
//
// Every attribute except the MMSI is optional: AIS spreads a vessel's
// description across many message types, so each row is a running merge of
// the most recent non-null observation per field. Pointer fields are nil
// until a message carrying that field has been seen.
type Vessel struct {
	MMSI string `json:"mmsi"`

	Name      *string  `json:"name,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`

	// Motion
	Speed   *float64 `json:"speed,omitempty"`   // knots
	Course  *float64 `json:"course,omitempty"`  // degrees over ground
	Heading *int     `json:"heading,omitempty"` // degrees true

	// Classification
	VesselType *string `json:"vessel_type,omitempty"`
	Callsign   *string `json:"callsign,omitempty"`
	IMO        *string `json:"imo,omitempty"`

	// Physical dimensions, meters from the GPS antenna
	DimensionBow       *int `json:"dimension_bow,omitempty"`
	DimensionStern     *int `json:"dimension_stern,omitempty"`
	DimensionPort      *int `json:"dimension_port,omitempty"`
	DimensionStarboard *int `json:"dimension_starboard,omitempty"`

	Draught     *float64 `json:"draught,omitempty"` // meters
	Destination *string  `json:"destination,omitempty"`
	NavStatus   *string  `json:"nav_status,omitempty"`

	FirstSeen   time.Time `json:"first_seen"`
	LastUpdated time.Time `json:"last_updated"`
}

// HasPosition reports whether both coordinates are known.
func (v *Vessel) HasPosition() bool {
	return v.Latitude != nil && v.Longitude != nil
}

// VesselUpdate is one decoded AIS record: a sparse set of vessel attributes.
//
// A nil field means "this message did not carry that attribute" and must
// leave the stored value unchanged; a non-nil field overwrites it. Encoding
// presence in the type keeps the merge rule out of ad hoc map checks.
type VesselUpdate struct {
	MMSI string

	Name      *string
	Latitude  *float64
	Longitude *float64

	Speed   *float64
	Course  *float64
	Heading *int

	VesselType *string
	Callsign   *string
	IMO        *string

	DimensionBow       *int
	DimensionStern     *int
	DimensionPort      *int
	DimensionStarboard *int

	Draught     *float64
	Destination *string
	NavStatus   *string
}

// VesselView is a Vessel as served by the list endpoint, optionally annotated
// with range and bearing from a reference point.
type VesselView struct {
	MMSI      string  `json:"mmsi"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`

	Speed   *float64 `json:"speed,omitempty"`
	Course  *float64 `json:"course,omitempty"`
	Heading *int     `json:"heading,omitempty"`

	VesselType string `json:"vessel_type"`
	Callsign   string `json:"callsign"`
	IMO        string `json:"imo"`

	DimensionBow       *int `json:"dimension_bow,omitempty"`
	DimensionStern     *int `json:"dimension_stern,omitempty"`
	DimensionPort      *int `json:"dimension_port,omitempty"`
	DimensionStarboard *int `json:"dimension_starboard,omitempty"`

	Draught     *float64 `json:"draught,omitempty"`
	Destination string   `json:"destination"`
	NavStatus   string   `json:"nav_status"`

	Timestamp time.Time `json:"timestamp"` // last update time

	// Range from the reference point, when one was supplied.
	DistanceNM *float64 `json:"distance,omitempty"` // nautical miles
	BearingDeg *float64 `json:"bearing,omitempty"`  // degrees true, [0, 360)
}
