// Epimetrics - Public Health Metrics Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/epimetrics

/*
Package middleware provides the HTTP middleware shared by every API route.

Key Components:

  - RequestIDWithLogging: X-Request-ID propagation and logging context
  - PrometheusMetrics: request counts, latencies and in-flight gauge,
    labelled by chi route pattern
  - Compression: gzip for clients that accept it
  - PerformanceMonitor: rolling latency percentiles per route
  - ResponseCache: memoised responses keyed by route, body and group

Middleware Stack:

The router installs them in this order:

	r.Use(middleware.RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors)
	r.Use(middleware.PrometheusMetrics)
	r.Use(perfMon.Middleware)
	r.Use(middleware.Compression)
	r.Use(rateLimit)
	r.Use(groups.Resolve)
	r.Use(middleware.ResponseCache(c))

ResponseCache runs after group resolution so the key includes the caller's
permission group, and inside Compression so cached bodies are stored
uncompressed.

See Also:

  - internal/auth: group resolution middleware
  - internal/cache: the response cache
  - internal/metrics: Prometheus collectors
*/
package middleware
