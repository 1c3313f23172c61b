// Epimetrics - Public Health Metrics Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/epimetrics

package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/tomtom215/epimetrics/internal/logging"
)

// Polarity names accepted in trends.polarity.
const (
	PolarityUpIsBad  = "up_is_bad"
	PolarityUpIsGood = "up_is_good"
	PolarityNeutral  = "neutral"
)

// Validate checks that the loaded configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	if err := c.validateRenderer(); err != nil {
		return err
	}
	if err := c.validateTrends(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateDatabase() error {
	if c.Database.Path == "" {
		return fmt.Errorf("DUCKDB_PATH must not be empty")
	}
	if c.Database.Threads < 0 {
		return fmt.Errorf("DUCKDB_THREADS must be >= 0, got %d", c.Database.Threads)
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive, got %v", c.Server.Timeout)
	}
	if c.Server.WorkerTimeout <= 0 {
		return fmt.Errorf("WORKER_TIMEOUT must be positive, got %v", c.Server.WorkerTimeout)
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if strings.TrimSpace(c.Security.GroupHeader) == "" {
		return fmt.Errorf("AUTH_GROUP_HEADER must not be empty")
	}
	if !c.Security.RateLimitDisabled {
		if c.Security.RateLimitReqs <= 0 {
			return fmt.Errorf("RATE_LIMIT_REQUESTS must be positive, got %d", c.Security.RateLimitReqs)
		}
		if c.Security.RateLimitWindow <= 0 {
			return fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %v", c.Security.RateLimitWindow)
		}
	}
	return nil
}

func (c *Config) validateRenderer() error {
	if c.Renderer.URL == "" {
		return nil
	}
	u, err := url.Parse(c.Renderer.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("RENDERER_URL must be an http(s) URL, got %q", c.Renderer.URL)
	}
	if c.Renderer.Timeout <= 0 {
		return fmt.Errorf("RENDERER_TIMEOUT must be positive, got %v", c.Renderer.Timeout)
	}
	return nil
}

func (c *Config) validateTrends() error {
	for metric, polarity := range c.Trends.Polarity {
		switch polarity {
		case PolarityUpIsBad, PolarityUpIsGood, PolarityNeutral:
		default:
			return fmt.Errorf("trend polarity for %q must be one of %s, %s, %s; got %q",
				metric, PolarityUpIsBad, PolarityUpIsGood, PolarityNeutral, polarity)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("LOG_LEVEL %q is not a recognised level", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}
