// Harborwatch - AIS Vessel Tracking and Receiver Diagnostics
// Copyright 2026 The Harborwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harborwatch/harborwatch

// Package parser decodes one line of AIS-catcher JSON output into a sparse
// vessel update.
//
// The decoder's output stream is noisy by nature: blank lines, "#" comment
// lines, status chatter, and truncated records are all expected. Those yield
// a Skip result, not an error. The parser is pure and stateless.
package parser

import (
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/harborwatch/harborwatch/internal/models"
)

// rawRecord mirrors the AIS-catcher JSON field names. Numeric identity
// fields arrive as either JSON numbers or strings depending on message type,
// so they are decoded loosely and normalized below.
type rawRecord struct {
	MMSI        interface{} `json:"mmsi"`
	Lat         *float64    `json:"lat"`
	Lon         *float64    `json:"lon"`
	Speed       *float64    `json:"speed"`
	Course      *float64    `json:"course"`
	Heading     *float64    `json:"heading"`
	ShipName    *string     `json:"shipname"`
	ShipType    interface{} `json:"shiptype"`
	Callsign    *string     `json:"callsign"`
	IMO         interface{} `json:"imo"`
	Draught     *float64    `json:"draught"`
	ToBow       *int        `json:"to_bow"`
	ToStern     *int        `json:"to_stern"`
	ToPort      *int        `json:"to_port"`
	ToStarboard *int        `json:"to_starboard"`
	Destination *string     `json:"destination"`
	Status      interface{} `json:"status"`
}

// Parse decodes one raw decoder output line. The second return value is
// false for a Skip: blank lines, comments, malformed records, and records
// without a usable MMSI. Unrecognized fields are ignored.
func Parse(line string) (*models.VesselUpdate, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil, false
	}

	var raw rawRecord
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return nil, false
	}

	mmsi := normalizeID(raw.MMSI)
	if mmsi == "" {
		return nil, false
	}

	update := &models.VesselUpdate{
		MMSI:               mmsi,
		Latitude:           raw.Lat,
		Longitude:          raw.Lon,
		Speed:              raw.Speed,
		Course:             raw.Course,
		Draught:            raw.Draught,
		DimensionBow:       raw.ToBow,
		DimensionStern:     raw.ToStern,
		DimensionPort:      raw.ToPort,
		DimensionStarboard: raw.ToStarboard,
	}

	if raw.Heading != nil {
		h := int(math.Round(*raw.Heading))
		update.Heading = &h
	}
	if raw.ShipName != nil {
		update.Name = trimmed(*raw.ShipName)
	}
	if raw.Callsign != nil {
		update.Callsign = trimmed(*raw.Callsign)
	}
	if raw.Destination != nil {
		update.Destination = trimmed(*raw.Destination)
	}
	// An unrecognized type normalizes to "", which must stay absent: a
	// pointer to the empty string would erase a previously learned value
	// in the store.
	if s := normalizeID(raw.ShipType); s != "" {
		update.VesselType = &s
	}
	if s := normalizeID(raw.IMO); s != "" {
		update.IMO = &s
	}
	if s := normalizeID(raw.Status); s != "" {
		update.NavStatus = &s
	}

	return update, true
}

// trimmed returns a pointer to the whitespace-trimmed string. AIS static
// fields are padded with spaces and "@" fill on the wire; the decoder strips
// the fill but leaves the padding.
func trimmed(s string) *string {
	t := strings.TrimSpace(s)
	return &t
}

// normalizeID renders a loosely-typed identity field (JSON number or string)
// as a plain decimal string. Anything else yields "".
func normalizeID(v interface{}) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		return val.String()
	default:
		return ""
	}
}
