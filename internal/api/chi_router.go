// Epimetrics - Public Health Metrics Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/epimetrics

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/epimetrics/internal/auth"
	"github.com/tomtom215/epimetrics/internal/cache"
	"github.com/tomtom215/epimetrics/internal/middleware"
)

// RouterOptions are the optional parts of the middleware stack.
type RouterOptions struct {
	ChiMiddleware *ChiMiddleware
	Cache         *cache.Cache // nil disables response caching
	PerfMon       *middleware.PerformanceMonitor
}

// Router wires handlers and middleware into a chi router.
type Router struct {
	handler       *Handler
	groups        *auth.Middleware
	chiMiddleware *ChiMiddleware
	cache         *cache.Cache
	perfMon       *middleware.PerformanceMonitor
}

// NewRouter creates a Router.
func NewRouter(handler *Handler, groups *auth.Middleware, opts RouterOptions) *Router {
	cm := opts.ChiMiddleware
	if cm == nil {
		cm = NewChiMiddleware(nil)
	}
	return &Router{
		handler:       handler,
		groups:        groups,
		chiMiddleware: cm,
		cache:         opts.Cache,
		perfMon:       opts.PerfMon,
	}
}

// Setup builds the HTTP handler for every route.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// ========================
	// Global Middleware Stack
	// ========================
	r.Use(middleware.RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())
	r.Use(middleware.PrometheusMetrics)
	if router.perfMon != nil {
		r.Use(router.perfMon.Middleware)
	}
	r.Use(middleware.Compression)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	// ========================
	// Health and Metrics
	// ========================
	r.Get("/api/health/", router.handler.Health)
	r.Get("/api/health/performance", router.handler.Performance)
	r.Handle("/metrics", promhttp.Handler())

	// ========================
	// Data Endpoints
	// ========================
	// Every observation read is evaluated against the caller's group.
	r.Group(func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(router.groups.Resolve)
		r.Use(middleware.ResponseCache(router.cache))

		r.Post("/api/charts/v3/", router.handler.Charts)
		r.Post("/api/tables/v4/", router.handler.Tables)
		r.Post("/api/tables/v2/", router.handler.LegacyTables)
		r.Post("/api/downloads/v2/", router.handler.Downloads)
		r.Post("/api/maps/v1/", router.handler.Maps)

		r.Get("/api/headlines/v3/", router.handler.Headlines)
		r.Get("/api/trends/v3/", router.handler.Trends)
		r.Get("/api/geographies/v2/{topic}", router.handler.Geographies)
	})

	// ========================
	// Audit Endpoints
	// ========================
	// Full version history is never cached; embargoed rows appear as soon
	// as they are stored.
	r.Route("/api/audit/v1", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(router.groups.Resolve)

		r.Get("/core-timeseries/{metric}/{geography_type}/{geography}/{stratum}/{sex}/{age}", router.handler.AuditTimeSeries)
		r.Get("/core-headline/{metric}/{geography_type}/{geography}/{stratum}/{sex}/{age}", router.handler.AuditHeadlines)
	})

	return r
}
