// Epimetrics - Public Health Metrics Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/epimetrics

// Package auth resolves the caller's permission group. The group header
// carries an opaque UUID; the permissions linked to it form the access set
// that every observation read in the request is evaluated against.
//
// Credentials are issued elsewhere. This package only maps a group id to
// stored permissions and never authenticates a user.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/epimetrics/internal/authz"
	"github.com/tomtom215/epimetrics/internal/database/query"
	"github.com/tomtom215/epimetrics/internal/logging"
	"github.com/tomtom215/epimetrics/internal/models"
)

type contextKey string

// AccessContextKey is the context key for the resolved query.Access.
const AccessContextKey contextKey = "access"

// DefaultGroupHeader is used when Config.Header is empty.
const DefaultGroupHeader = "X-GroupId"

// ErrMalformedGroupHeader is returned when the group header is not a UUID.
var ErrMalformedGroupHeader = errors.New("malformed permission group header")

// PermissionSource loads the permissions of a group. An unknown group
// yields an empty set, not an error.
type PermissionSource interface {
	PermissionsForGroup(ctx context.Context, groupID uuid.UUID) (models.PermissionSet, error)
}

// Config holds the process-wide access switches, read once at start.
type Config struct {
	Settings authz.Settings
	Header   string
}

// Middleware attaches the caller's access to every request.
type Middleware struct {
	source   PermissionSource
	settings authz.Settings
	header   string
}

// NewMiddleware creates the group resolution middleware.
func NewMiddleware(source PermissionSource, cfg Config) *Middleware {
	header := cfg.Header
	if header == "" {
		header = DefaultGroupHeader
	}
	return &Middleware{source: source, settings: cfg.Settings, header: header}
}

// Settings returns the access switches the middleware applies.
func (m *Middleware) Settings() authz.Settings {
	return m.settings
}

// ResolveGroup parses the header value and loads its permissions. An empty
// value is the anonymous caller: an empty set and a nil group id.
func (m *Middleware) ResolveGroup(ctx context.Context, value string) (uuid.UUID, models.PermissionSet, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return uuid.Nil, models.PermissionSet{}, nil
	}
	groupID, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, nil, ErrMalformedGroupHeader
	}
	set, err := m.source.PermissionsForGroup(ctx, groupID)
	if err != nil {
		return groupID, nil, err
	}
	return groupID, set, nil
}

// Resolve is middleware that resolves the group header into a query.Access.
// With auth disabled the header is ignored entirely.
func (m *Middleware) Resolve(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		access := query.Access{Settings: m.settings}
		ctx := r.Context()

		if m.settings.AuthEnabled {
			groupID, set, err := m.ResolveGroup(ctx, r.Header.Get(m.header))
			switch {
			case errors.Is(err, ErrMalformedGroupHeader):
				logging.Ctx(ctx).Debug().Str("header", m.header).Msg("Rejected malformed group header")
				writeError(w, http.StatusUnauthorized, err.Error())
				return
			case err != nil:
				logging.Ctx(ctx).Error().Err(err).Msg("Failed to load group permissions")
				writeError(w, http.StatusInternalServerError, "internal server error")
				return
			}
			access.Permissions = set
			if groupID != uuid.Nil {
				ctx = logging.ContextWithGroupID(ctx, groupID.String())
			}
		}

		ctx = context.WithValue(ctx, AccessContextKey, access)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AccessFromContext returns the access attached by Resolve. Without one the
// caller is treated as anonymous with auth enabled.
func AccessFromContext(ctx context.Context) query.Access {
	if access, ok := ctx.Value(AccessContextKey).(query.Access); ok {
		return access
	}
	return query.Access{Settings: authz.Settings{AuthEnabled: true}}
}

// WithAccess returns a context carrying access. Used by callers that
// resolve groups outside HTTP.
func WithAccess(ctx context.Context, access query.Access) context.Context {
	return context.WithValue(ctx, AccessContextKey, access)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(models.ErrorResponse{ErrorMessage: message}); err != nil {
		logging.Warn().Err(err).Msg("Failed to write auth error response")
	}
}
