// Harborwatch - AIS Vessel Tracking and Receiver Diagnostics
// Copyright 2026 The Harborwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harborwatch/harborwatch

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where config files are searched, in priority order.
// The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/harborwatch/config.yaml",
	"/etc/harborwatch/config.yml",
}

// ConfigPathEnvVar overrides the config file path when set.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config with all defaults applied. These match the
// receiver deployment the project grew up on: one RTL-SDR dongle, AIS-catcher
// in JSON output mode, a 48 hour live window.
func defaultConfig() *Config {
	return &Config{
		Decoder: DecoderConfig{
			BinaryPath:    "/usr/local/bin/AIS-catcher",
			DeviceIndex:   0,
			SampleRate:    1024000,
			PPMCorrection: -21,
			TunerGain:     "17.9",
			RTLAGC:        false,
			Channels:      "AB",
		},
		Database: DatabaseConfig{
			Path:        "/data/harborwatch.sqlite",
			BusyTimeout: 5 * time.Second,
		},
		ErrorLog: ErrorLogConfig{
			Path:         "/data/errors.log",
			MaxSizeBytes: 10 << 20, // 10 MiB
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			Timeout:         30 * time.Second,
			Latitude:        0.0,
			Longitude:       0.0,
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Ingest: IngestConfig{
			Window:          48 * time.Hour,
			CounterInterval: 100,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load loads configuration using Koanf v2 with layered sources:
//  1. Defaults: built-in sensible defaults
//  2. Config file: optional YAML file (if found)
//  3. Environment variables: override any setting
func Load() (*Config, error) {
	k := koanf.New(".")

	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Environment variables have the highest priority.
	// DECODER_BINARY_PATH -> decoder.binary_path, HTTP_PORT -> server.port
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envTransformFunc maps environment variable names to koanf config paths.
// Unmapped variables are skipped so random environment noise does not
// pollute the configuration.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Decoder mappings
		"decoder_binary_path":    "decoder.binary_path",
		"decoder_device_index":   "decoder.device_index",
		"decoder_sample_rate":    "decoder.sample_rate",
		"decoder_ppm_correction": "decoder.ppm_correction",
		"decoder_tuner_gain":     "decoder.tuner_gain",
		"decoder_rtl_agc":        "decoder.rtl_agc",
		"decoder_channels":       "decoder.channels",

		// Database mappings
		"db_path":         "database.path",
		"db_busy_timeout": "database.busy_timeout",

		// Error log mappings
		"error_log_path":     "error_log.path",
		"error_log_max_size": "error_log.max_size_bytes",

		// Server mappings
		"http_host":           "server.host",
		"http_port":           "server.port",
		"http_timeout":        "server.timeout",
		"receiver_latitude":   "server.latitude",
		"receiver_longitude":  "server.longitude",
		"rate_limit_requests": "server.rate_limit_reqs",
		"rate_limit_window":   "server.rate_limit_window",
		"disable_rate_limit":  "server.rate_limit_disabled",

		// Ingest mappings
		"vessel_window":           "ingest.window",
		"ingest_counter_interval": "ingest.counter_interval",

		// Logging mappings
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	return ""
}
