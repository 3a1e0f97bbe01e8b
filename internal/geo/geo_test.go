// Harborwatch - AIS Vessel Tracking and Receiver Diagnostics
// Copyright 2026 The Harborwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harborwatch/harborwatch

package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceNM(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		want                   float64
		delta                  float64
	}{
		{
			name: "one degree of latitude",
			lat1: 0, lon1: 0, lat2: 1, lon2: 0,
			// One great-circle degree at R=3440.065nm.
			want:  60.04,
			delta: 0.01,
		},
		{
			name: "same point",
			lat1: 51.5, lon1: -0.1, lat2: 51.5, lon2: -0.1,
			want:  0,
			delta: 1e-9,
		},
		{
			name: "one degree of longitude at 60 north",
			lat1: 60, lon1: 0, lat2: 60, lon2: 1,
			want:  30.02,
			delta: 0.02,
		},
		{
			name: "dover to calais",
			lat1: 51.1279, lon1: 1.3134, lat2: 50.9513, lon2: 1.8587,
			want:  22.5,
			delta: 0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DistanceNM(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			assert.InDelta(t, tt.want, got, tt.delta)
		})
	}
}

func TestDistanceNMSymmetric(t *testing.T) {
	d1 := DistanceNM(37.8, -122.4, 34.05, -118.25)
	d2 := DistanceNM(34.05, -118.25, 37.8, -122.4)
	assert.InDelta(t, d1, d2, 1e-9)
}

func TestBearingDeg(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		want                   float64
	}{
		{"due north", 0, 0, 1, 0, 0},
		{"due east on the equator", 0, 0, 0, 1, 90},
		{"due south", 1, 0, 0, 0, 180},
		{"due west on the equator", 0, 1, 0, 0, 270},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BearingDeg(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestBearingDegRange(t *testing.T) {
	targets := [][2]float64{
		{10, 10}, {-10, 10}, {10, -10}, {-10, -10},
		{89, 179}, {-89, -179},
	}
	for _, to := range targets {
		b := BearingDeg(0, 0, to[0], to[1])
		assert.GreaterOrEqual(t, b, 0.0)
		assert.Less(t, b, 360.0)
	}
}
