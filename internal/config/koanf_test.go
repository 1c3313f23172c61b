// Epimetrics - Public Health Metrics Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/epimetrics

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if !cfg.Security.AuthEnabled {
		t.Error("Security.AuthEnabled should default to true")
	}
	if !cfg.Security.AllowMissingIsPublicField {
		t.Error("Security.AllowMissingIsPublicField should default to true")
	}
	if cfg.Security.GroupHeader != "X-GroupId" {
		t.Errorf("Security.GroupHeader = %q, want X-GroupId", cfg.Security.GroupHeader)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("Server.Port = %d, want 8000", cfg.Server.Port)
	}
	if cfg.Server.WorkerTimeout != 120*time.Second {
		t.Errorf("Server.WorkerTimeout = %v, want 120s", cfg.Server.WorkerTimeout)
	}
	if cfg.Charts.DefaultWidth != 515 || cfg.Charts.DefaultHeight != 220 {
		t.Errorf("Charts defaults = %dx%d, want 515x220", cfg.Charts.DefaultWidth, cfg.Charts.DefaultHeight)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

// clearEnv isolates a test from variables set on the host.
func clearEnv(t *testing.T) {
	t.Helper()
	for key := range envMappings {
		upper := strings.ToUpper(key)
		if _, ok := os.LookupEnv(upper); ok {
			t.Setenv(upper, "")
			os.Unsetenv(upper)
		}
	}
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
}

func TestLoadWithKoanf_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("AUTH_ENABLED", "0")
	t.Setenv("ALLOW_MISSING_IS_PUBLIC_FIELD", "false")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("CACHE_TTL", "90s")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("TREND_POLARITY", "COVID-19_headline_vaccines_7DayChange:up_is_good")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Security.AuthEnabled {
		t.Error("AUTH_ENABLED=0 should disable auth")
	}
	if cfg.Security.AllowMissingIsPublicField {
		t.Error("ALLOW_MISSING_IS_PUBLIC_FIELD=false should be honoured")
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Cache.TTL != 90*time.Second {
		t.Errorf("Cache.TTL = %v, want 90s", cfg.Cache.TTL)
	}
	if len(cfg.Security.CORSOrigins) != 2 || cfg.Security.CORSOrigins[1] != "https://b.example" {
		t.Errorf("CORSOrigins = %v", cfg.Security.CORSOrigins)
	}
	if got := cfg.Trends.Polarity["COVID-19_headline_vaccines_7DayChange"]; got != PolarityUpIsGood {
		t.Errorf("trend polarity = %q, want up_is_good", got)
	}
}

func TestLoadWithKoanf_BooleanForms(t *testing.T) {
	for _, tt := range []struct {
		value string
		want  bool
	}{
		{"true", true},
		{"1", true},
		{"false", false},
		{"0", false},
	} {
		t.Run(tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("AUTH_ENABLED", tt.value)

			cfg, err := LoadWithKoanf()
			if err != nil {
				t.Fatalf("LoadWithKoanf() error = %v", err)
			}
			if cfg.Security.AuthEnabled != tt.want {
				t.Errorf("AUTH_ENABLED=%s -> %v, want %v", tt.value, cfg.Security.AuthEnabled, tt.want)
			}
		})
	}
}

func TestLoadWithKoanf_YAMLFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
database:
  path: /tmp/test.duckdb
trends:
  polarity:
    COVID-19_headline_tests_7DayChange: up_is_good
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.Database.Path != "/tmp/test.duckdb" {
		t.Errorf("Database.Path = %q", cfg.Database.Path)
	}
	if cfg.Trends.Polarity["COVID-19_headline_tests_7DayChange"] != PolarityUpIsGood {
		t.Errorf("polarity from YAML not applied: %v", cfg.Trends.Polarity)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("env should override file: Logging.Level = %q", cfg.Logging.Level)
	}
}

func TestLoadWithKoanf_BadPolarityEntry(t *testing.T) {
	clearEnv(t)
	t.Setenv("TREND_POLARITY", "no-colon-here")

	if _, err := LoadWithKoanf(); err == nil {
		t.Error("expected error for malformed TREND_POLARITY")
	}
}

func TestEnvTransformFunc(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"AUTH_ENABLED":   "security.auth_enabled",
		"WORKER_TIMEOUT": "server.worker_timeout",
		"RENDERER_URL":   "renderer.url",
		"PATH":           "",
		"HOME":           "",
	}
	for in, want := range tests {
		if got := envTransformFunc(in); got != want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", in, got, want)
		}
	}
}
