// Epimetrics - Public Health Metrics Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/epimetrics

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/epimetrics/internal/logging"
	"github.com/tomtom215/epimetrics/internal/middleware"
	"github.com/tomtom215/epimetrics/internal/models"
)

const pingTimeout = 2 * time.Second

// Health handles GET /api/health/. A store that fails to answer a ping
// makes the service unhealthy (503); an unavailable renderer only
// degrades it, since everything but image charts still works.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := models.HealthResponse{
		Status:        "healthy",
		Database:      "ok",
		Renderer:      "disabled",
		Version:       h.version,
		UptimeSeconds: time.Since(h.startTime).Seconds(),
	}
	status := http.StatusOK

	ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
	defer cancel()
	if h.store == nil || h.store.Ping(ctx) != nil {
		logging.Ctx(r.Context()).Warn().Msg("Health check: store unreachable")
		resp.Status = "unhealthy"
		resp.Database = "unreachable"
		status = http.StatusServiceUnavailable
	}

	if h.renderer != nil {
		resp.Renderer = h.renderer.State()
		if resp.Renderer == "open" && status == http.StatusOK {
			resp.Status = "degraded"
		}
	}

	respondJSON(w, status, resp)
}

// Performance handles GET /api/health/performance: per-route latency
// percentiles over the recent request window.
func (h *Handler) Performance(w http.ResponseWriter, r *http.Request) {
	stats := []middleware.RouteStats{}
	if h.perfMon != nil {
		stats = h.perfMon.Stats()
	}
	respondJSON(w, http.StatusOK, stats)
}
