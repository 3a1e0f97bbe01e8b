// Harborwatch - AIS Vessel Tracking and Receiver Diagnostics
// Copyright 2026 The Harborwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harborwatch/harborwatch

// Package config loads and validates Harborwatch configuration.
//
// Configuration is layered via Koanf v2 (highest priority wins):
//  1. Environment variables
//  2. Optional YAML config file
//  3. Built-in defaults
//
// Every file path the application touches (store, error log, decoder binary)
// is explicit configuration, never an ambient global, so tests can point each
// component at isolated temporary files.
package config

import (
	"fmt"
	"time"
)

// Config is the top-level application configuration.
type Config struct {
	Decoder  DecoderConfig  `koanf:"decoder"`
	Database DatabaseConfig `koanf:"database"`
	ErrorLog ErrorLogConfig `koanf:"error_log"`
	Server   ServerConfig   `koanf:"server"`
	Ingest   IngestConfig   `koanf:"ingest"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// DecoderConfig describes how the external AIS-catcher process is launched.
// The defaults mirror a single RTL-SDR dongle tuned for the marine VHF band.
type DecoderConfig struct {
	// BinaryPath is the AIS-catcher executable location.
	BinaryPath string `koanf:"binary_path"`

	// DeviceIndex selects the RTL-SDR device (-d:N).
	DeviceIndex int `koanf:"device_index"`

	// SampleRate in Hz (-s).
	SampleRate int `koanf:"sample_rate"`

	// PPMCorrection is the frequency correction in ppm (-p).
	PPMCorrection int `koanf:"ppm_correction"`

	// TunerGain is the manual tuner gain in dB (-gr TUNER).
	TunerGain string `koanf:"tuner_gain"`

	// RTLAGC enables the RTL2832 internal AGC (-gr RTLAGC).
	RTLAGC bool `koanf:"rtl_agc"`

	// Channels selects the AIS channel pair (-c), normally "AB".
	Channels string `koanf:"channels"`
}

// DatabaseConfig describes the SQLite vessel store.
type DatabaseConfig struct {
	// Path is the SQLite database file. ":memory:" is accepted for tests.
	Path string `koanf:"path"`

	// BusyTimeout bounds how long a statement waits on a locked database.
	BusyTimeout time.Duration `koanf:"busy_timeout"`
}

// ErrorLogConfig describes the rotating diagnostic error log.
type ErrorLogConfig struct {
	Path string `koanf:"path"`

	// MaxSizeBytes triggers rotation to a single .old backup when exceeded.
	MaxSizeBytes int64 `koanf:"max_size_bytes"`
}

// ServerConfig describes the HTTP API server.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`

	// Latitude/Longitude is the receiver's position, used as the default
	// reference point for distance and bearing annotations when a request
	// does not supply one. Zero values disable the default.
	Latitude  float64 `koanf:"latitude"`
	Longitude float64 `koanf:"longitude"`

	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// IngestConfig tunes the ingestion loop and the live-table window.
type IngestConfig struct {
	// Window is the trailing duration that bounds both query visibility
	// and eviction eligibility.
	Window time.Duration `koanf:"window"`

	// CounterInterval is how many successfully stored messages pass between
	// total_messages diagnostic updates.
	CounterInterval int `koanf:"counter_interval"`
}

// LoggingConfig configures the zerolog global logger.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Validate checks the configuration for values that would prevent startup.
func (c *Config) Validate() error {
	if c.Decoder.BinaryPath == "" {
		return fmt.Errorf("decoder.binary_path must be set")
	}
	if c.Decoder.SampleRate <= 0 {
		return fmt.Errorf("decoder.sample_rate must be positive, got %d", c.Decoder.SampleRate)
	}
	if c.Decoder.Channels == "" {
		return fmt.Errorf("decoder.channels must be set")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must be set")
	}
	if c.ErrorLog.Path == "" {
		return fmt.Errorf("error_log.path must be set")
	}
	if c.ErrorLog.MaxSizeBytes <= 0 {
		return fmt.Errorf("error_log.max_size_bytes must be positive, got %d", c.ErrorLog.MaxSizeBytes)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Latitude < -90 || c.Server.Latitude > 90 {
		return fmt.Errorf("server.latitude must be between -90 and 90, got %f", c.Server.Latitude)
	}
	if c.Server.Longitude < -180 || c.Server.Longitude > 180 {
		return fmt.Errorf("server.longitude must be between -180 and 180, got %f", c.Server.Longitude)
	}
	if c.Ingest.Window <= 0 {
		return fmt.Errorf("ingest.window must be positive, got %s", c.Ingest.Window)
	}
	if c.Ingest.CounterInterval <= 0 {
		return fmt.Errorf("ingest.counter_interval must be positive, got %d", c.Ingest.CounterInterval)
	}
	return nil
}

// HasReferencePoint reports whether the receiver position is configured.
func (c *ServerConfig) HasReferencePoint() bool {
	return c.Latitude != 0 || c.Longitude != 0
}
