// Epimetrics - Public Health Metrics Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/epimetrics

package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/epimetrics/internal/cache"
	"github.com/tomtom215/epimetrics/internal/logging"
)

func TestPrometheusMetrics(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
	}{
		{"success", http.StatusOK},
		{"client error", http.StatusBadRequest},
		{"server error", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := chi.NewRouter()
			r.Use(PrometheusMetrics)
			r.Get("/api/geographies/v2/{topic}", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/geographies/v2/COVID-19", nil))
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}
}

func TestRoutePattern(t *testing.T) {
	t.Parallel()

	var got string
	r := chi.NewRouter()
	r.Get("/api/audit/v1/core-headline/{metric}", func(w http.ResponseWriter, req *http.Request) {
		got = routePattern(req)
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/audit/v1/core-headline/abc", nil))

	if got != "/api/audit/v1/core-headline/{metric}" {
		t.Errorf("routePattern = %q", got)
	}
	if p := routePattern(httptest.NewRequest(http.MethodGet, "/", nil)); p != unmatchedRoute {
		t.Errorf("routePattern without chi = %q, want %q", p, unmatchedRoute)
	}
}

func TestCompression(t *testing.T) {
	t.Parallel()

	payload := strings.Repeat(`{"reference":"2025-01-01"},`, 100)
	handler := Compression(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(payload))
	}))

	t.Run("gzip when accepted", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Accept-Encoding", "gzip, deflate")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Header().Get("Content-Encoding") != "gzip" {
			t.Fatalf("Content-Encoding = %q", rec.Header().Get("Content-Encoding"))
		}
		zr, err := gzip.NewReader(rec.Body)
		if err != nil {
			t.Fatalf("gzip.NewReader: %v", err)
		}
		body, err := io.ReadAll(zr)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if string(body) != payload {
			t.Error("decompressed body differs")
		}
	})

	t.Run("plain otherwise", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		if rec.Header().Get("Content-Encoding") != "" {
			t.Error("unexpected Content-Encoding")
		}
		if rec.Body.String() != payload {
			t.Error("body changed")
		}
	})
}

func TestRequestIDWithLogging(t *testing.T) {
	t.Parallel()

	var seen string
	handler := RequestIDWithLogging()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logging.RequestIDFromContext(r.Context())
		if logging.CorrelationIDFromContext(r.Context()) == "" {
			t.Error("correlation id missing")
		}
	}))

	t.Run("keeps upstream id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "upstream-1")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if seen != "upstream-1" || rec.Header().Get(RequestIDHeader) != "upstream-1" {
			t.Errorf("request id = %q, header = %q", seen, rec.Header().Get(RequestIDHeader))
		}
	})

	t.Run("generates id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		if seen == "" || rec.Header().Get(RequestIDHeader) != seen {
			t.Errorf("request id = %q, header = %q", seen, rec.Header().Get(RequestIDHeader))
		}
	})
}

func TestPerformanceMonitor(t *testing.T) {
	t.Parallel()

	pm := NewPerformanceMonitor(3, time.Hour)
	for i, d := range []time.Duration{10, 20, 30, 40} {
		status := http.StatusOK
		if i == 3 {
			status = http.StatusInternalServerError
		}
		pm.Record(RequestSample{Route: "/api/tables/v4/", Method: "POST", Status: status, Duration: d * time.Millisecond})
	}

	stats := pm.Stats()
	if len(stats) != 1 {
		t.Fatalf("len(stats) = %d, want 1", len(stats))
	}
	s := stats[0]
	if s.Route != "POST /api/tables/v4/" || s.RequestCount != 3 || s.ErrorCount != 1 {
		t.Errorf("stats = %+v", s)
	}
	if s.P50MS != 30 || s.MaxMS != 40 || s.AvgMS != 30 {
		t.Errorf("latencies = %+v", s)
	}
}

func TestPerformanceMonitor_Middleware(t *testing.T) {
	t.Parallel()

	pm := NewPerformanceMonitor(10, time.Hour)
	r := chi.NewRouter()
	r.Use(pm.Middleware)
	r.Get("/api/health/", func(w http.ResponseWriter, r *http.Request) {})

	for i := 0; i < 2; i++ {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/health/", nil))
	}

	stats := pm.Stats()
	if len(stats) != 1 || stats[0].Route != "GET /api/health/" || stats[0].RequestCount != 2 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestResponseCache(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	handler := ResponseCache(cache.New(time.Minute, 100))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		body, _ := io.ReadAll(r.Body)
		if strings.Contains(string(body), "fail") {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", "attachment; filename=x.csv")
		_, _ = w.Write(append([]byte("echo:"), body...))
	}))

	post := func(body, group string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/downloads/v2/", strings.NewReader(body))
		if group != "" {
			req = req.WithContext(logging.ContextWithGroupID(req.Context(), group))
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	first := post(`{"a":1}`, "g1")
	second := post(`{"a":1}`, "g1")
	if calls.Load() != 1 {
		t.Fatalf("handler calls = %d, want 1", calls.Load())
	}
	if first.Header().Get(CacheStatusHeader) != "MISS" || second.Header().Get(CacheStatusHeader) != "HIT" {
		t.Errorf("cache headers = %q, %q", first.Header().Get(CacheStatusHeader), second.Header().Get(CacheStatusHeader))
	}
	if second.Body.String() != `echo:{"a":1}` {
		t.Errorf("cached body = %q", second.Body.String())
	}
	if second.Header().Get("Content-Type") != "text/csv" || second.Header().Get("Content-Disposition") == "" {
		t.Errorf("cached headers = %v", second.Header())
	}

	post(`{"a":1}`, "g2")
	if calls.Load() != 2 {
		t.Errorf("a different group must miss, calls = %d", calls.Load())
	}

	post(`fail`, "g1")
	post(`fail`, "g1")
	if calls.Load() != 4 {
		t.Errorf("non-200 responses must not be cached, calls = %d", calls.Load())
	}
}

func TestResponseCache_NilCache(t *testing.T) {
	t.Parallel()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	rec := httptest.NewRecorder()
	ResponseCache(nil)(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Header().Get(CacheStatusHeader) != "" {
		t.Error("disabled cache must not set X-Cache")
	}
}
