// Epimetrics - Public Health Metrics Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/epimetrics

package database

import (
	"context"
	"testing"
	"time"

	"github.com/tomtom215/epimetrics/internal/authz"
	"github.com/tomtom215/epimetrics/internal/database/query"
	"github.com/tomtom215/epimetrics/internal/models"
)

func TestDimensionLookups(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ctx := context.Background()

	hackney := covidCases("Hackney")
	hackney.GeographyType = "Upper Tier Local Authority"
	leeds := covidCases("Leeds")
	leeds.GeographyType = "Upper Tier Local Authority"
	london := covidCases("London")
	london.GeographyType = "Region"

	embargoed := tsRow(leeds, "2025-01-01", "2025-05-01", 3, true)
	embargoed.Embargo = models.Time(time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC))
	mustInsertTimeSeries(t, db,
		tsRow(hackney, "2025-01-01", "2025-05-01", 1, true),
		tsRow(london, "2025-01-01", "2025-05-01", 2, true),
		embargoed,
	)
	if err := db.LinkGeographies(ctx, "Upper Tier Local Authority", "Hackney", "Region", "London"); err != nil {
		t.Fatalf("LinkGeographies() error = %v", err)
	}

	t.Run("MetricExists", func(t *testing.T) {
		ok, err := db.MetricExists(ctx, "COVID-19", "COVID-19_cases_countRollingMean")
		if err != nil || !ok {
			t.Errorf("MetricExists() = %v, %v", ok, err)
		}
		ok, err = db.MetricExists(ctx, "Influenza", "COVID-19_cases_countRollingMean")
		if err != nil || ok {
			t.Errorf("MetricExists(wrong topic) = %v, %v", ok, err)
		}
		group, err := db.MetricGroup(ctx, "COVID-19", "COVID-19_cases_countRollingMean")
		if err != nil || group != "cases" {
			t.Errorf("MetricGroup() = %q, %v", group, err)
		}
	})

	t.Run("GeographiesOfType", func(t *testing.T) {
		geos, err := db.GeographiesOfType(ctx, "Upper Tier Local Authority")
		if err != nil {
			t.Fatalf("GeographiesOfType() error = %v", err)
		}
		if len(geos) != 2 || geos[0].Name != "Hackney" || geos[1].Name != "Leeds" || geos[0].GeographyCode != "E09000012" {
			t.Errorf("geographies = %+v", geos)
		}
	})

	t.Run("RelatedGeography", func(t *testing.T) {
		region, ok, err := db.RelatedGeography(ctx, "Upper Tier Local Authority", "Hackney", "Region")
		if err != nil || !ok || region.Name != "London" {
			t.Errorf("RelatedGeography(Hackney) = %+v, %v, %v", region, ok, err)
		}
		child, ok, err := db.RelatedGeography(ctx, "Region", "London", "Upper Tier Local Authority")
		if err != nil || !ok || child.Name != "Hackney" {
			t.Errorf("RelatedGeography(London) = %+v, %v, %v", child, ok, err)
		}
		_, ok, err = db.RelatedGeography(ctx, "Upper Tier Local Authority", "Leeds", "Region")
		if err != nil || ok {
			t.Errorf("RelatedGeography(Leeds) ok = %v, err = %v", ok, err)
		}
	})

	t.Run("GeographiesWithData", func(t *testing.T) {
		grouped, err := db.GeographiesWithData(ctx, "COVID-19", query.Access{})
		if err != nil {
			t.Fatalf("GeographiesWithData() error = %v", err)
		}
		if len(grouped) != 2 {
			t.Fatalf("groups = %+v", grouped)
		}
		if grouped[0].GeographyType != "Region" || grouped[0].Geographies[0].Name != "London" {
			t.Errorf("first group = %+v", grouped[0])
		}
		utla := grouped[1]
		if utla.GeographyType != "Upper Tier Local Authority" || len(utla.Geographies) != 1 || utla.Geographies[0].Name != "Hackney" {
			t.Errorf("embargoed geography listed: %+v", utla)
		}
	})
}

func TestGeographiesWithData_Access(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ctx := context.Background()

	london := covidCases("London")
	london.GeographyType = "Region"
	mustInsertTimeSeries(t, db,
		tsRow(covidCases("England"), "2025-01-01", "2025-05-01", 1, false),
		tsRow(london, "2025-01-01", "2025-05-01", 2, true),
	)

	authOn := authz.Settings{AuthEnabled: true}
	tests := []struct {
		name   string
		access query.Access
		want   []string
	}{
		{"anonymous", query.Access{Settings: authOn}, []string{"London"}},
		{"matching permission", query.Access{
			Settings:    authOn,
			Permissions: models.PermissionSet{{Theme: "infectious_disease", SubTheme: "respiratory"}},
		}, []string{"England", "London"}},
		{"other permission", query.Access{
			Settings:    authOn,
			Permissions: models.PermissionSet{{Theme: "infectious_disease", SubTheme: "gastrointestinal"}},
		}, []string{"London"}},
		{"auth disabled", query.Access{}, []string{"England", "London"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grouped, err := db.GeographiesWithData(ctx, "COVID-19", tt.access)
			if err != nil {
				t.Fatalf("GeographiesWithData() error = %v", err)
			}
			var got []string
			for _, g := range grouped {
				for _, geo := range g.Geographies {
					got = append(got, geo.Name)
				}
			}
			if len(got) != len(tt.want) {
				t.Fatalf("geographies = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("geographies = %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}

func TestSeedMockData(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ctx := context.Background()

	if err := db.SeedMockData(ctx); err != nil {
		t.Fatalf("SeedMockData() error = %v", err)
	}
	if err := db.SeedMockData(ctx); err != nil {
		t.Fatalf("second SeedMockData() error = %v", err)
	}

	var n int64
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM core_timeseries`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if want := int64(90 * (len(mockGeographies) + len(mockAges) - 1)); n != want {
		t.Errorf("time-series rows = %d, want %d", n, want)
	}
	region, ok, err := db.RelatedGeography(ctx, "Upper Tier Local Authority", "Leeds", "Region")
	if err != nil || !ok || region.Name != "Yorkshire and The Humber" {
		t.Errorf("RelatedGeography() = %+v, %v, %v", region, ok, err)
	}
}
