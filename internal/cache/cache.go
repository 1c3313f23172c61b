// Epimetrics - Public Health Metrics Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/epimetrics

// Package cache memoises serialised API responses.
//
// Entries are keyed by GenerateKey(route, body, group) so two callers in
// different permission groups never share an entry. Every entry lives for
// the configured TTL; when the cache is full the least recently used entry
// is evicted. Expired entries are removed lazily on Get and by the cleanup
// loop run under the supervisor (Serve).
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"sync"
	"time"

	"github.com/tomtom215/epimetrics/internal/logging"
	"github.com/tomtom215/epimetrics/internal/metrics"
)

// DefaultCapacity bounds the number of entries when none is given.
const DefaultCapacity = 10000

// cleanupInterval is how often Serve sweeps expired entries.
const cleanupInterval = time.Minute

const metricLabel = "response"

// Response is one cached HTTP response.
type Response struct {
	Status      int
	ContentType string
	Header      http.Header
	Body        []byte
}

// entry is a node of the recency list.
type entry struct {
	key       string
	value     Response
	expiresAt time.Time
	prev      *entry
	next      *entry
}

// Cache is a thread-safe TTL cache with LRU eviction.
type Cache struct {
	mu       sync.Mutex
	items    map[string]*entry
	head     *entry // head.next is the most recently used
	tail     *entry // tail.prev is the least recently used
	capacity int
	ttl      time.Duration
	now      func() time.Time

	stats Stats
}

// Stats is a snapshot of cache activity.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Entries   int
}

// New creates a cache holding up to capacity entries for ttl each.
func New(ttl time.Duration, capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	c := &Cache{
		items:    make(map[string]*entry, capacity),
		head:     &entry{},
		tail:     &entry{},
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
	}
	c.head.next = c.tail
	c.tail.prev = c.head
	return c
}

// GenerateKey derives the cache key of a request from its route, its body
// (or canonical query string) and the caller's permission group.
func GenerateKey(route string, body []byte, group string) string {
	h := sha256.New()
	h.Write([]byte(route))
	h.Write([]byte{0})
	h.Write(body)
	h.Write([]byte{0})
	h.Write([]byte(group))
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the live entry for key and marks it most recently used.
func (c *Cache) Get(key string) (Response, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[key]
	if !ok {
		c.miss()
		return Response{}, false
	}
	if c.now().After(e.expiresAt) {
		c.remove(e)
		c.stats.Evictions++
		metrics.CacheEvictions.WithLabelValues(metricLabel).Inc()
		c.miss()
		return Response{}, false
	}

	c.moveToFront(e)
	c.stats.Hits++
	metrics.CacheHits.WithLabelValues(metricLabel).Inc()
	return e.value, true
}

// Set stores value under key, evicting the least recently used entry when full.
func (c *Cache) Set(key string, value Response) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expires := c.now().Add(c.ttl)
	if e, ok := c.items[key]; ok {
		e.value = value
		e.expiresAt = expires
		c.moveToFront(e)
		return
	}

	if len(c.items) >= c.capacity {
		if lru := c.tail.prev; lru != c.head {
			c.remove(lru)
			c.stats.Evictions++
			metrics.CacheEvictions.WithLabelValues(metricLabel).Inc()
		}
	}

	e := &entry{key: key, value: value, expiresAt: expires}
	c.items[key] = e
	c.pushFront(e)
	metrics.CacheSize.WithLabelValues(metricLabel).Set(float64(len(c.items)))
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats.Evictions += int64(len(c.items))
	c.items = make(map[string]*entry, c.capacity)
	c.head.next = c.tail
	c.tail.prev = c.head
	metrics.CacheSize.WithLabelValues(metricLabel).Set(0)
}

// Stats returns a snapshot of the counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.stats
	s.Entries = len(c.items)
	return s
}

// HitRate returns hits as a percentage of lookups.
func (c *Cache) HitRate() float64 {
	s := c.Stats()
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

// Serve sweeps expired entries until ctx is cancelled. It implements
// suture.Service.
func (c *Cache) Serve(ctx context.Context) error {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if n := c.cleanup(); n > 0 {
				logging.Debug().Int("evicted", n).Msg("Response cache sweep")
			}
		}
	}
}

// String names the service in supervisor logs.
func (c *Cache) String() string {
	return "response-cache"
}

// cleanup removes every expired entry and returns how many were removed.
func (c *Cache) cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for _, e := range c.items {
		if now.After(e.expiresAt) {
			c.remove(e)
			removed++
		}
	}
	c.stats.Evictions += int64(removed)
	metrics.CacheEvictions.WithLabelValues(metricLabel).Add(float64(removed))
	metrics.CacheSize.WithLabelValues(metricLabel).Set(float64(len(c.items)))
	return removed
}

func (c *Cache) miss() {
	c.stats.Misses++
	metrics.CacheMisses.WithLabelValues(metricLabel).Inc()
}

func (c *Cache) pushFront(e *entry) {
	e.prev = c.head
	e.next = c.head.next
	c.head.next.prev = e
	c.head.next = e
}

func (c *Cache) moveToFront(e *entry) {
	e.prev.next = e.next
	e.next.prev = e.prev
	c.pushFront(e)
}

func (c *Cache) remove(e *entry) {
	e.prev.next = e.next
	e.next.prev = e.prev
	delete(c.items, e.key)
}
