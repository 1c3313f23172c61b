// Epimetrics - Public Health Metrics Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/epimetrics

package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/tomtom215/epimetrics/internal/authz"
	"github.com/tomtom215/epimetrics/internal/database/query"
	"github.com/tomtom215/epimetrics/internal/logging"
	"github.com/tomtom215/epimetrics/internal/models"
)

type fakeSource struct {
	groups map[uuid.UUID]models.PermissionSet
	err    error
	calls  int
}

func (f *fakeSource) PermissionsForGroup(_ context.Context, id uuid.UUID) (models.PermissionSet, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.groups[id], nil
}

var respiratory = models.Permission{Name: "resp", Theme: "infectious_disease", SubTheme: "respiratory"}

func TestMiddleware_Resolve(t *testing.T) {
	t.Parallel()

	group := uuid.New()
	enabled := authz.Settings{AuthEnabled: true, AllowMissingIsPublic: true}

	tests := []struct {
		name       string
		settings   authz.Settings
		header     string
		sourceErr  error
		wantStatus int
		wantPerms  int
		wantCalls  int
		wantGroup  string
	}{
		{name: "known group", settings: enabled, header: group.String(), wantStatus: http.StatusOK, wantPerms: 1, wantCalls: 1, wantGroup: group.String()},
		{name: "unknown group", settings: enabled, header: uuid.NewString(), wantStatus: http.StatusOK, wantCalls: 1},
		{name: "no header", settings: enabled, wantStatus: http.StatusOK},
		{name: "malformed header", settings: enabled, header: "not-a-uuid", wantStatus: http.StatusUnauthorized},
		{name: "store failure", settings: enabled, header: group.String(), sourceErr: errors.New("boom"), wantStatus: http.StatusInternalServerError, wantCalls: 1},
		{name: "auth disabled ignores header", settings: authz.Settings{}, header: "not-a-uuid", wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			source := &fakeSource{
				groups: map[uuid.UUID]models.PermissionSet{group: {respiratory}},
				err:    tt.sourceErr,
			}
			m := NewMiddleware(source, Config{Settings: tt.settings})

			var got query.Access
			var gotGroup string
			called := false
			handler := m.Resolve(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				got = AccessFromContext(r.Context())
				gotGroup = logging.GroupIDFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/headlines/v3/", nil)
			if tt.header != "" {
				req.Header.Set(DefaultGroupHeader, tt.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			if source.calls != tt.wantCalls {
				t.Errorf("source calls = %d, want %d", source.calls, tt.wantCalls)
			}
			if tt.wantStatus != http.StatusOK {
				if called {
					t.Error("handler called on failure")
				}
				if !strings.Contains(rr.Body.String(), `"error_message"`) {
					t.Errorf("body = %s", rr.Body.String())
				}
				return
			}
			if got.Settings != tt.settings {
				t.Errorf("settings = %+v, want %+v", got.Settings, tt.settings)
			}
			if len(got.Permissions) != tt.wantPerms {
				t.Errorf("permissions = %d, want %d", len(got.Permissions), tt.wantPerms)
			}
			if gotGroup != tt.wantGroup {
				t.Errorf("group = %q, want %q", gotGroup, tt.wantGroup)
			}
		})
	}
}

func TestMiddleware_CustomHeader(t *testing.T) {
	t.Parallel()

	group := uuid.New()
	source := &fakeSource{groups: map[uuid.UUID]models.PermissionSet{group: {respiratory}}}
	m := NewMiddleware(source, Config{Settings: authz.Settings{AuthEnabled: true}, Header: "X-Permission-Group"})

	_, set, err := m.ResolveGroup(context.Background(), " "+group.String()+" ")
	if err != nil || len(set) != 1 {
		t.Fatalf("ResolveGroup() = %v, %v", set, err)
	}

	var got query.Access
	handler := m.Resolve(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = AccessFromContext(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Permission-Group", group.String())
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if len(got.Permissions) != 1 {
		t.Errorf("permissions = %d, want 1", len(got.Permissions))
	}
}

func TestAccessFromContext_Default(t *testing.T) {
	t.Parallel()

	got := AccessFromContext(context.Background())
	if !got.Settings.AuthEnabled || len(got.Permissions) != 0 {
		t.Errorf("default access = %+v", got)
	}

	want := query.Access{Settings: authz.Settings{}}
	if got := AccessFromContext(WithAccess(context.Background(), want)); got.Settings.AuthEnabled {
		t.Errorf("WithAccess not honoured: %+v", got)
	}
}
