// Epimetrics - Public Health Metrics Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/epimetrics

package api

import (
	"net/http"

	"github.com/tomtom215/epimetrics/internal/auth"
	"github.com/tomtom215/epimetrics/internal/models"
)

func auditQuery(r *http.Request) *models.AuditQuery {
	return &models.AuditQuery{
		Metric:        pathParam(r, "metric"),
		GeographyType: pathParam(r, "geography_type"),
		Geography:     pathParam(r, "geography"),
		Stratum:       pathParam(r, "stratum"),
		Sex:           pathParam(r, "sex"),
		Age:           pathParam(r, "age"),
	}
}

// AuditTimeSeries handles
// GET /api/audit/v1/core-timeseries/{metric}/{geography_type}/{geography}/{stratum}/{sex}/{age}.
func (h *Handler) AuditTimeSeries(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r.Context())
	defer cancel()

	rows, err := h.assembler.AuditTimeSeries(ctx, auditQuery(r), auth.AccessFromContext(ctx))
	if err != nil {
		respondAssemblerError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, rows)
}

// AuditHeadlines handles
// GET /api/audit/v1/core-headline/{metric}/{geography_type}/{geography}/{stratum}/{sex}/{age}.
func (h *Handler) AuditHeadlines(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r.Context())
	defer cancel()

	rows, err := h.assembler.AuditHeadlines(ctx, auditQuery(r), auth.AccessFromContext(ctx))
	if err != nil {
		respondAssemblerError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, rows)
}
