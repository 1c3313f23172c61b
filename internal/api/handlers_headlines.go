// Epimetrics - Public Health Metrics Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/epimetrics

package api

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/epimetrics/internal/auth"
	"github.com/tomtom215/epimetrics/internal/models"
)

// Headlines handles GET /api/headlines/v3/.
func (h *Handler) Headlines(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := models.HeadlineQuery{
		Topic:         q.Get("topic"),
		Metric:        q.Get("metric"),
		Geography:     q.Get("geography"),
		GeographyType: q.Get("geography_type"),
		Stratum:       q.Get("stratum"),
		Age:           q.Get("age"),
		Sex:           q.Get("sex"),
	}
	ctx, cancel := h.requestContext(r.Context())
	defer cancel()

	resp, err := h.assembler.Headline(ctx, &req, auth.AccessFromContext(ctx))
	if err != nil {
		respondAssemblerError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// Trends handles GET /api/trends/v3/.
func (h *Handler) Trends(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := models.TrendQuery{
		Topic:            q.Get("topic"),
		Metric:           q.Get("metric"),
		PercentageMetric: q.Get("percentage_metric"),
		Geography:        q.Get("geography"),
		GeographyType:    q.Get("geography_type"),
		Stratum:          q.Get("stratum"),
		Age:              q.Get("age"),
		Sex:              q.Get("sex"),
	}
	ctx, cancel := h.requestContext(r.Context())
	defer cancel()

	resp, err := h.assembler.Trend(ctx, &req, auth.AccessFromContext(ctx))
	if err != nil {
		respondAssemblerError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// Geographies handles GET /api/geographies/v2/{topic}.
func (h *Handler) Geographies(w http.ResponseWriter, r *http.Request) {
	topic := pathParam(r, "topic")
	ctx, cancel := h.requestContext(r.Context())
	defer cancel()

	resp, err := h.assembler.Geographies(ctx, topic, auth.AccessFromContext(ctx))
	if err != nil {
		respondAssemblerError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// pathParam returns the unescaped chi URL parameter; names such as
// "Leeds & Bradford" arrive percent-encoded.
func pathParam(r *http.Request, name string) string {
	raw := chi.URLParam(r, name)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}
