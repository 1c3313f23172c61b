// Epimetrics - Public Health Metrics Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/epimetrics

/*
Package cache holds rendered API responses for a short time.

Dashboards poll the same charts and headlines many times a minute. The
response cache stores the bytes of a successful response under a key built
from the route, the request body (or sorted query string) and the caller's
permission group, so that two groups never share a cached payload.

# Eviction

Entries expire after the configured TTL (default 5 minutes). Expiry is
checked lazily on Get and by a periodic sweep. When the cache is full the
least recently used entry is evicted.

# Supervision

Cache implements suture.Service: Serve runs the sweep until its context is
cancelled, and the supervisor tree restarts it if it fails.

# Usage Example

	c := cache.New(5*time.Minute, cache.DefaultCapacity)
	key := cache.GenerateKey("/api/charts/v3/", body, groupID)
	if resp, ok := c.Get(key); ok {
	    w.Write(resp.Body)
	}

# Metrics

Hits, misses, evictions and size are exported with cache_type="response".
*/
package cache
