// Epimetrics - Public Health Metrics Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/epimetrics

package api

import (
	"context"
	"time"

	"github.com/tomtom215/epimetrics/internal/assembler"
	"github.com/tomtom215/epimetrics/internal/middleware"
)

// Pinger reports whether the observation store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RendererStatus reports the state of the chart image exporter.
type RendererStatus interface {
	State() string
}

// Handler contains dependencies for API handlers.
//
// Handler methods are split across files:
//   - handlers_charts.go: charts, tables, downloads, maps
//   - handlers_headlines.go: headlines, trends, geographies
//   - handlers_audit.go: audit version history
//   - handlers_health.go: health and performance
type Handler struct {
	assembler *assembler.Assembler
	store     Pinger
	renderer  RendererStatus
	perfMon   *middleware.PerformanceMonitor
	version   string
	startTime time.Time
	timeout   time.Duration
}

// HandlerOptions are the optional collaborators of a Handler.
type HandlerOptions struct {
	Renderer       RendererStatus
	PerfMon        *middleware.PerformanceMonitor
	Version        string
	RequestTimeout time.Duration
}

// NewHandler creates the API handler.
//
// Example:
//
//	handler := api.NewHandler(asm, db, api.HandlerOptions{Version: version})
//	router := api.NewRouter(handler, groups, api.RouterOptions{})
//	http.ListenAndServe(":8000", router.Setup())
func NewHandler(asm *assembler.Assembler, store Pinger, opts HandlerOptions) *Handler {
	version := opts.Version
	if version == "" {
		version = "dev"
	}
	return &Handler{
		assembler: asm,
		store:     store,
		renderer:  opts.Renderer,
		perfMon:   opts.PerfMon,
		version:   version,
		startTime: time.Now(),
		timeout:   opts.RequestTimeout,
	}
}

// requestContext bounds a request by the worker timeout when one is set.
func (h *Handler) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, h.timeout)
}
