// Epimetrics - Public Health Metrics Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/epimetrics

/*
Package supervisor runs the long-lived services of the process under a
suture v4 supervisor tree.

Tree Layout:

	epimetrics (root)
	├── maintenance-layer
	│   ├── response-cache (expired entry sweep)
	│   └── uptime (app_uptime_seconds)
	└── api-layer
	    └── http-server

A failing service is restarted with backoff by its own layer. Supervisor
events are logged through sutureslog using the zerolog-backed slog logger
from internal/logging.

Usage:

	tree, _ := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddMaintenanceService(responseCache)
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	err := tree.Serve(ctx)
*/
package supervisor
