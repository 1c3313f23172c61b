// Epimetrics - Public Health Metrics Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/epimetrics

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

// DefaultConfigPaths are searched in order; the first existing file wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/epimetrics/config.yaml",
	"/etc/epimetrics/config.yml",
}

// ConfigPathEnvVar overrides the config file search.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:      "/data/epimetrics.duckdb",
			MaxMemory: "2GB",
			Threads:   0,
		},
		Server: ServerConfig{
			Port:          8000,
			Host:          "0.0.0.0",
			Timeout:       30 * time.Second,
			WorkerTimeout: 120 * time.Second,
		},
		Security: SecurityConfig{
			AuthEnabled:               true,
			AllowMissingIsPublicField: true,
			GroupHeader:               "X-GroupId",
			CORSOrigins:               []string{"*"},
			RateLimitReqs:             300,
			RateLimitWindow:           time.Minute,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     5 * time.Minute,
		},
		Renderer: RendererConfig{
			Timeout: 20 * time.Second,
		},
		Charts: ChartsConfig{
			DefaultWidth:  515,
			DefaultHeight: 220,
		},
		Trends: TrendsConfig{
			Polarity: map[string]string{},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadWithKoanf loads configuration with precedence ENV > file > defaults
// and validates the result.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}
	if err := processPolarityField(k); err != nil {
		return nil, fmt.Errorf("failed to process trend polarity: %w", err)
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

var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields splits comma-separated env values for slice fields.
// Values that came from YAML are already slices and are left alone.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := splitList(strVal)
		if len(parts) == 0 {
			continue
		}
		if err := k.Set(path, parts); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// processPolarityField turns TREND_POLARITY="metric:up_is_good,other:neutral"
// into the trends.polarity map. YAML maps pass through untouched.
func processPolarityField(k *koanf.Koanf) error {
	const path = "trends.polarity"
	strVal, ok := k.Get(path).(string)
	if !ok {
		return nil
	}
	table := map[string]interface{}{}
	for _, entry := range splitList(strVal) {
		name, polarity, found := strings.Cut(entry, ":")
		if !found || strings.TrimSpace(name) == "" {
			return fmt.Errorf("TREND_POLARITY entry %q must be metric:polarity", entry)
		}
		table[strings.TrimSpace(name)] = strings.TrimSpace(polarity)
	}
	k.Delete(path)
	return k.Set(path, table)
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// envMappings maps lower-cased environment variable names to koanf paths.
// Unmapped variables are ignored.
var envMappings = map[string]string{
	// Access switches
	"auth_enabled":                  "security.auth_enabled",
	"allow_missing_is_public_field": "security.allow_missing_is_public_field",
	"auth_group_header":             "security.group_header",

	// HTTP guard rails
	"cors_origins":        "security.cors_origins",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",

	// Database
	"duckdb_path":       "database.path",
	"duckdb_max_memory": "database.max_memory",
	"duckdb_threads":    "database.threads",
	"seed_mock_data":    "database.seed_mock_data",

	// Server
	"http_port":      "server.port",
	"http_host":      "server.host",
	"http_timeout":   "server.timeout",
	"worker_timeout": "server.worker_timeout",

	// Response cache
	"cache_enabled": "cache.enabled",
	"cache_ttl":     "cache.ttl",

	// Chart rendering
	"renderer_url":     "renderer.url",
	"renderer_timeout": "renderer.timeout",
	"chart_width":      "charts.default_width",
	"chart_height":     "charts.default_height",

	"trend_polarity": "trends.polarity",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
