// Epimetrics - Public Health Metrics Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/epimetrics

package middleware

import (
	"bytes"
	"io"
	"net/http"

	"github.com/tomtom215/epimetrics/internal/cache"
	"github.com/tomtom215/epimetrics/internal/logging"
)

// CacheStatusHeader reports HIT or MISS on cacheable requests.
const CacheStatusHeader = "X-Cache"

// maxCachedBody bounds the request bodies that are hashed into a key.
const maxCachedBody = 1 << 20

// ResponseCache serves repeated GET and POST requests from c. The key is
// the path, the request body (POST) or sorted query string (GET), and the
// caller's permission group. Only 200 responses are stored. A nil cache
// disables the middleware.
func ResponseCache(c *cache.Cache) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if c == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var payload []byte
			switch r.Method {
			case http.MethodGet:
				payload = []byte(r.URL.Query().Encode())
			case http.MethodPost:
				body, err := io.ReadAll(io.LimitReader(r.Body, maxCachedBody+1))
				_ = r.Body.Close()
				if err != nil {
					http.Error(w, "failed to read request body", http.StatusBadRequest)
					return
				}
				r.Body = io.NopCloser(bytes.NewReader(body))
				if len(body) > maxCachedBody {
					next.ServeHTTP(w, r)
					return
				}
				payload = body
			default:
				next.ServeHTTP(w, r)
				return
			}

			key := cache.GenerateKey(r.URL.Path, payload, logging.GroupIDFromContext(r.Context()))
			if cached, ok := c.Get(key); ok {
				h := w.Header()
				h.Set("Content-Type", cached.ContentType)
				for k, v := range cached.Header {
					h[k] = v
				}
				h.Set(CacheStatusHeader, "HIT")
				w.WriteHeader(cached.Status)
				_, _ = w.Write(cached.Body)
				return
			}

			w.Header().Set(CacheStatusHeader, "MISS")
			rec := &bodyRecorder{statusRecorder: newStatusRecorder(w)}
			next.ServeHTTP(rec, r)

			if rec.status == http.StatusOK {
				c.Set(key, cache.Response{
					Status:      rec.status,
					ContentType: w.Header().Get("Content-Type"),
					Header:      cachedHeaders(w.Header()),
					Body:        rec.buf.Bytes(),
				})
			}
		})
	}
}

// cachedHeaders keeps the response headers a replay must carry besides
// Content-Type.
func cachedHeaders(h http.Header) http.Header {
	out := http.Header{}
	if v := h.Values("Content-Disposition"); len(v) > 0 {
		out["Content-Disposition"] = append([]string(nil), v...)
	}
	return out
}

// bodyRecorder tees the response body into buf.
type bodyRecorder struct {
	*statusRecorder
	buf bytes.Buffer
}

func (rw *bodyRecorder) Write(b []byte) (int, error) {
	rw.buf.Write(b)
	return rw.statusRecorder.Write(b)
}
