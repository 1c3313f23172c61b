// Epimetrics - Public Health Metrics Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/epimetrics

/*
Package api provides the HTTP surface of the dashboard API using the chi
router.

Endpoints:

	POST /api/charts/v3/             chart image or figure, plus alt text
	POST /api/tables/v4/             multi-plot table, nested rows
	POST /api/tables/v2/             legacy flat table with month-end rollup
	POST /api/downloads/v2/          full rows as JSON or CSV
	POST /api/maps/v1/               choropleth cases with accompanying points
	GET  /api/headlines/v3/          single headline value
	GET  /api/trends/v3/             change, percentage, direction and colour
	GET  /api/geographies/v2/{topic} geographies holding data for a topic
	GET  /api/audit/v1/core-timeseries/{metric}/{geography_type}/{geography}/{stratum}/{sex}/{age}
	GET  /api/audit/v1/core-headline/{metric}/{geography_type}/{geography}/{stratum}/{sex}/{age}
	GET  /api/health/                store and renderer status
	GET  /metrics                    Prometheus exposition

Error Handling:

Every failure is answered as {"error_message": "..."}. Rejected requests,
incompatible metrics and queries where every plot came back empty are 400;
a malformed group header is 401; an unconfigured or tripped renderer is
503; anything else is 500 with a generic message and the cause logged.
*/
package api
