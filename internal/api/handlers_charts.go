// Epimetrics - Public Health Metrics Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/epimetrics

package api

import (
	"bytes"
	"net/http"

	"github.com/tomtom215/epimetrics/internal/auth"
	"github.com/tomtom215/epimetrics/internal/logging"
	"github.com/tomtom215/epimetrics/internal/models"
)

// downloadFilename is the base name offered for downloads.
const downloadFilename = "epimetrics_download"

// Charts handles POST /api/charts/v3/.
func (h *Handler) Charts(w http.ResponseWriter, r *http.Request) {
	var req models.ChartRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ctx, cancel := h.requestContext(r.Context())
	defer cancel()

	resp, err := h.assembler.Chart(ctx, &req, auth.AccessFromContext(ctx))
	if err != nil {
		respondAssemblerError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// Tables handles POST /api/tables/v4/.
func (h *Handler) Tables(w http.ResponseWriter, r *http.Request) {
	var req models.TableRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ctx, cancel := h.requestContext(r.Context())
	defer cancel()

	rows, err := h.assembler.Table(ctx, &req, auth.AccessFromContext(ctx))
	if err != nil {
		respondAssemblerError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, rows)
}

// LegacyTables handles POST /api/tables/v2/.
func (h *Handler) LegacyTables(w http.ResponseWriter, r *http.Request) {
	var req models.TableRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ctx, cancel := h.requestContext(r.Context())
	defer cancel()

	rows, err := h.assembler.LegacyTable(ctx, &req, auth.AccessFromContext(ctx))
	if err != nil {
		respondAssemblerError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, rows)
}

// Downloads handles POST /api/downloads/v2/. The body is a JSON array or a
// CSV file, offered as an attachment either way.
func (h *Handler) Downloads(w http.ResponseWriter, r *http.Request) {
	var req models.DownloadRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ctx, cancel := h.requestContext(r.Context())
	defer cancel()

	download, err := h.assembler.Download(ctx, &req, auth.AccessFromContext(ctx))
	if err != nil {
		respondAssemblerError(w, r, err)
		return
	}

	if req.FileFormat != models.FormatCSV {
		w.Header().Set("Content-Disposition", `attachment; filename="`+downloadFilename+`.json"`)
		respondJSON(w, http.StatusOK, download.Rows())
		return
	}

	// Buffer so a write failure can still become a 500.
	var buf bytes.Buffer
	if err := download.WriteCSV(&buf); err != nil {
		respondAssemblerError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+downloadFilename+`.csv"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("Failed to write CSV download")
	}
}

// Maps handles POST /api/maps/v1/.
func (h *Handler) Maps(w http.ResponseWriter, r *http.Request) {
	var req models.MapRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ctx, cancel := h.requestContext(r.Context())
	defer cancel()

	resp, err := h.assembler.Map(ctx, &req, auth.AccessFromContext(ctx))
	if err != nil {
		respondAssemblerError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}
