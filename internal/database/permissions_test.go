// Epimetrics - Public Health Metrics Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/epimetrics

package database

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/tomtom215/epimetrics/internal/models"
)

func TestPermissions_GroupRoundTrip(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ctx := context.Background()
	mustInsertTimeSeries(t, db, tsRow(covidCases("England"), "2025-01-01", "2025-05-01", 1, true))

	broad, err := db.CreatePermission(ctx, models.Permission{
		Name: "respiratory", Theme: "infectious_disease", SubTheme: "respiratory",
	})
	if err != nil {
		t.Fatalf("CreatePermission() error = %v", err)
	}
	narrow, err := db.CreatePermission(ctx, models.Permission{
		Name: "england covid", Theme: "infectious_disease", SubTheme: "respiratory",
		Topic: "COVID-19", GeographyType: "Nation", GeographyCode: "E92000001", Age: "all",
	})
	if err != nil {
		t.Fatalf("CreatePermission() error = %v", err)
	}
	if broad.ID == 0 || narrow.ID == broad.ID {
		t.Fatalf("ids = %d, %d", broad.ID, narrow.ID)
	}

	group := uuid.New()
	for _, id := range []int64{broad.ID, narrow.ID, narrow.ID} {
		if err := db.AddGroupPermission(ctx, group, id); err != nil {
			t.Fatalf("AddGroupPermission() error = %v", err)
		}
	}

	set, err := db.PermissionsForGroup(ctx, group)
	if err != nil {
		t.Fatalf("PermissionsForGroup() error = %v", err)
	}
	if len(set) != 2 {
		t.Fatalf("permissions = %+v, want 2", set)
	}
	if set[0].Topic != "" || set[0].Metric != "" {
		t.Errorf("broad permission has non-wildcard fields: %+v", set[0])
	}
	if set[1].GeographyCode != "E92000001" || set[1].Topic != "COVID-19" || set[1].Stratum != "" {
		t.Errorf("narrow permission = %+v", set[1])
	}

	empty, err := db.PermissionsForGroup(ctx, uuid.New())
	if err != nil {
		t.Fatalf("PermissionsForGroup(unknown) error = %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("unknown group has %d permissions", len(empty))
	}
}

func TestCreatePermission_Rejects(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ctx := context.Background()
	mustInsertTimeSeries(t, db, tsRow(covidCases("England"), "2025-01-01", "2025-05-01", 1, true))

	base := models.Permission{Name: "a", Theme: "infectious_disease", SubTheme: "respiratory"}
	if _, err := db.CreatePermission(ctx, base); err != nil {
		t.Fatalf("CreatePermission() error = %v", err)
	}

	dup := base
	dup.Name = "b"
	if _, err := db.CreatePermission(ctx, dup); !errors.Is(err, ErrDuplicatePermission) {
		t.Errorf("duplicate tuple error = %v, want ErrDuplicatePermission", err)
	}

	unknown := base
	unknown.Name = "c"
	unknown.Topic = "Measles"
	if _, err := db.CreatePermission(ctx, unknown); !errors.Is(err, ErrUnknownDimension) {
		t.Errorf("unknown topic error = %v, want ErrUnknownDimension", err)
	}

	missing := models.Permission{Name: "d", Theme: "infectious_disease"}
	if _, err := db.CreatePermission(ctx, missing); err == nil {
		t.Error("permission without sub_theme accepted")
	}
}
