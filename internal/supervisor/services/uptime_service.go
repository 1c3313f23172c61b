// Epimetrics - Public Health Metrics Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/epimetrics

package services

import (
	"context"
	"time"

	"github.com/tomtom215/epimetrics/internal/metrics"
)

// UptimeService publishes the process uptime gauge every interval.
type UptimeService struct {
	start    time.Time
	interval time.Duration
}

// NewUptimeService starts counting from start.
func NewUptimeService(start time.Time, interval time.Duration) *UptimeService {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &UptimeService{start: start, interval: interval}
}

// Serve implements suture.Service.
func (u *UptimeService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(u.interval)
	defer ticker.Stop()

	metrics.AppUptime.Set(time.Since(u.start).Seconds())
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			metrics.AppUptime.Set(time.Since(u.start).Seconds())
		}
	}
}

func (u *UptimeService) String() string {
	return "uptime"
}
