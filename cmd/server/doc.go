// Epimetrics - Public Health Metrics Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/epimetrics

// Command server runs the Epimetrics dashboard API.
//
// # Startup
//
//  1. Configuration: defaults, optional config.yaml, environment (koanf v2)
//  2. Logging: zerolog, level and format from LOG_LEVEL / LOG_FORMAT
//  3. Store: DuckDB observation store, optionally seeded (SEED_MOCK_DATA)
//  4. Rendering: figure builder plus the image exporter at RENDERER_URL
//  5. HTTP: chi router with group resolution and the response cache
//  6. Supervision: suture tree running the HTTP server and housekeeping
//
// # Access Control
//
// AUTH_ENABLED and ALLOW_MISSING_IS_PUBLIC_FIELD are read once at start.
// Callers identify their permission group with the X-GroupId header
// (AUTH_GROUP_HEADER); without one only public rows are returned.
//
// # Signal Handling
//
// SIGINT and SIGTERM stop the tree. In-flight requests get 10s to finish.
//
// # Example
//
//	export DUCKDB_PATH=/data/epimetrics.duckdb
//	export SEED_MOCK_DATA=true
//	export AUTH_ENABLED=false
//	./epimetrics
package main
