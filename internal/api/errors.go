// Epimetrics - Public Health Metrics Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/epimetrics

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/sony/gobreaker/v2"

	"github.com/tomtom215/epimetrics/internal/assembler"
	"github.com/tomtom215/epimetrics/internal/auth"
	"github.com/tomtom215/epimetrics/internal/database"
	"github.com/tomtom215/epimetrics/internal/logging"
	"github.com/tomtom215/epimetrics/internal/render"
	"github.com/tomtom215/epimetrics/internal/resolver"
)

// genericError is the body of every 500; internal detail stays in the log.
const genericError = "internal server error"

// clientErrors are answered with 400 and their own message.
var clientErrors = []error{
	assembler.ErrValidation,
	assembler.ErrNoData,
	assembler.ErrMetricIsTimeSeriesType,
	assembler.ErrHeadlineNumberDataNotFound,
	resolver.ErrIncompatibleMetric,
	resolver.ErrInvalidDateRange,
	render.ErrUnsupportedFormat,
}

// classify maps an error to its HTTP status and client message.
func classify(err error) (int, string) {
	for _, target := range clientErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest, err.Error()
		}
	}

	switch {
	case errors.Is(err, auth.ErrMalformedGroupHeader):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, render.ErrRendererNotConfigured):
		return http.StatusServiceUnavailable, err.Error()
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return http.StatusServiceUnavailable, "chart renderer is temporarily unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "request timed out"
	default:
		return http.StatusInternalServerError, genericError
	}
}

// respondAssemblerError logs err at a level fitting its class and writes
// the mapped response.
func respondAssemblerError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := classify(err)
	logger := logging.Ctx(r.Context())

	switch {
	case errors.Is(err, database.ErrAmbiguousObservation):
		logger.Error().Err(err).Str("path", sanitizeLogValue(r.URL.Path)).Msg("Duplicate live observations in store")
	case status >= http.StatusInternalServerError:
		logger.Error().Err(err).Str("path", sanitizeLogValue(r.URL.Path)).Msg("Request failed")
	default:
		logger.Debug().Str("error", sanitizeLogValue(err.Error())).Int("status", status).Msg("Request rejected")
	}

	respondError(w, status, message)
}
