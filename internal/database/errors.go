// Epimetrics - Public Health Metrics Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/epimetrics

package database

import (
	"errors"
	"fmt"
	"io"

	"github.com/tomtom215/epimetrics/internal/logging"
)

var (
	// ErrAmbiguousObservation means two live rows share an equivalence class
	// and a refresh_date. It is a data defect, never a caller error.
	ErrAmbiguousObservation = errors.New("ambiguous observation: duplicate rows for the same refresh")

	// ErrUnavailable wraps failures that mean the store itself is gone.
	ErrUnavailable = errors.New("observation store unavailable")

	// ErrDuplicatePermission is returned when a permission with the same
	// tuple already exists.
	ErrDuplicatePermission = errors.New("permission with the same dimensions already exists")

	// ErrUnknownDimension is returned when a permission names a dimension
	// value the store has never seen.
	ErrUnknownDimension = errors.New("unknown dimension value")
)

// AmbiguityError names the equivalence class that broke uniqueness.
type AmbiguityError struct {
	Table string
	Key   string
	Count int64
}

func (e *AmbiguityError) Error() string {
	return fmt.Sprintf("%s: %d live rows in %s for %s", ErrAmbiguousObservation, e.Count, e.Table, e.Key)
}

// Unwrap lets errors.Is match ErrAmbiguousObservation.
func (e *AmbiguityError) Unwrap() error {
	return ErrAmbiguousObservation
}

// wrapQueryError tags connection failures with ErrUnavailable.
func wrapQueryError(op string, err error) error {
	if isConnectionError(err) {
		return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// closeWithLog closes a resource and logs any error.
func closeWithLog(closer io.Closer, resourceType string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.Warn().Str("type", resourceType).Err(err).Msg("Failed to close resource")
	}
}

// closeQuietly closes a resource on an error path where the close error is
// not actionable.
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close()
	}
}
