// Epimetrics - Public Health Metrics Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/epimetrics

// Package config loads Epimetrics configuration.
//
// Configuration is layered with Koanf v2:
//  1. Defaults: built-in values from defaultConfig()
//  2. Config file: optional YAML (CONFIG_PATH, ./config.yaml, /etc/epimetrics/config.yaml)
//  3. Environment variables: override any mapped setting
//
// Config is immutable after Load and safe for concurrent reads. The two
// process-wide access switches (AUTH_ENABLED and ALLOW_MISSING_IS_PUBLIC_FIELD)
// are read once here and handed to the auth middleware and the store
// explicitly; nothing else in the module reads the environment.
package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Database DatabaseConfig `koanf:"database"`
	Server   ServerConfig   `koanf:"server"`
	Security SecurityConfig `koanf:"security"`
	Cache    CacheConfig    `koanf:"cache"`
	Renderer RendererConfig `koanf:"renderer"`
	Charts   ChartsConfig   `koanf:"charts"`
	Trends   TrendsConfig   `koanf:"trends"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// DatabaseConfig configures the DuckDB observation store.
type DatabaseConfig struct {
	Path         string `koanf:"path"`
	MaxMemory    string `koanf:"max_memory"`
	Threads      int    `koanf:"threads"` // 0 = runtime.NumCPU()
	SeedMockData bool   `koanf:"seed_mock_data"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port int    `koanf:"port"`
	Host string `koanf:"host"`

	// Timeout bounds reads and writes on the listener.
	Timeout time.Duration `koanf:"timeout"`

	// WorkerTimeout bounds the handling of a single request.
	WorkerTimeout time.Duration `koanf:"worker_timeout"`
}

// Addr returns host:port for http.Server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SecurityConfig holds the access switches and the HTTP guard rails.
type SecurityConfig struct {
	// AuthEnabled turns row-level permission checks on. When false every
	// caller sees every non-embargoed row and the group header is ignored.
	AuthEnabled bool `koanf:"auth_enabled"`

	// AllowMissingIsPublicField treats rows with a NULL is_public as public.
	AllowMissingIsPublicField bool `koanf:"allow_missing_is_public_field"`

	// GroupHeader carries the caller's permission group UUID.
	GroupHeader string `koanf:"group_header"`

	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// CacheConfig configures the in-process response cache.
type CacheConfig struct {
	Enabled bool          `koanf:"enabled"`
	TTL     time.Duration `koanf:"ttl"`
}

// RendererConfig points at the external chart image exporter. An empty URL
// means only the interactive (figure JSON) format can be served.
type RendererConfig struct {
	URL     string        `koanf:"url"`
	Timeout time.Duration `koanf:"timeout"`
}

// ChartsConfig holds default chart dimensions.
type ChartsConfig struct {
	DefaultWidth  int `koanf:"default_width"`
	DefaultHeight int `koanf:"default_height"`
}

// TrendsConfig overrides the built-in trend polarity table.
// Keys are metric names, values one of up_is_bad, up_is_good, neutral.
type TrendsConfig struct {
	Polarity map[string]string `koanf:"polarity"`
}

// LoggingConfig configures internal/logging.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Load is an alias for LoadWithKoanf.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
