// Epimetrics - Public Health Metrics Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/epimetrics

package authz

import (
	"testing"
	"time"

	"github.com/tomtom215/epimetrics/internal/models"
)

func leedsCases() models.Classification {
	return models.Classification{
		Theme:         "infectious_disease",
		SubTheme:      "respiratory",
		Topic:         "COVID-19",
		Metric:        "COVID-19_cases_countRollingMean",
		GeographyType: "Upper Tier Local Authority",
		Geography:     "Leeds",
		GeographyCode: "E08000035",
		Age:           "all",
		Stratum:       "default",
	}
}

var enabled = Settings{AuthEnabled: true}

func TestMatch(t *testing.T) {
	t.Parallel()

	row := leedsCases()
	tests := []struct {
		name string
		perm models.Permission
		want bool
	}{
		{"theme and sub_theme only", models.Permission{Theme: "infectious_disease", SubTheme: "respiratory"}, true},
		{"wrong theme", models.Permission{Theme: "climate_and_environment", SubTheme: "respiratory"}, false},
		{"wrong sub_theme", models.Permission{Theme: "infectious_disease", SubTheme: "bloodstream_infection"}, false},
		{"missing theme never matches", models.Permission{SubTheme: "respiratory"}, false},
		{"matching topic", models.Permission{Theme: "infectious_disease", SubTheme: "respiratory", Topic: "COVID-19"}, true},
		{"other topic", models.Permission{Theme: "infectious_disease", SubTheme: "respiratory", Topic: "Influenza"}, false},
		{"matching geography code", models.Permission{Theme: "infectious_disease", SubTheme: "respiratory", GeographyCode: "E08000035"}, true},
		{"other geography code", models.Permission{Theme: "infectious_disease", SubTheme: "respiratory", GeographyCode: "E09000012"}, false},
		{"every field set", models.Permission{
			Theme: "infectious_disease", SubTheme: "respiratory", Topic: "COVID-19",
			Metric: "COVID-19_cases_countRollingMean", GeographyType: "Upper Tier Local Authority",
			GeographyCode: "E08000035", Age: "all", Stratum: "default",
		}, true},
		{"one field off", models.Permission{
			Theme: "infectious_disease", SubTheme: "respiratory", Topic: "COVID-19",
			Metric: "COVID-19_cases_countRollingMean", GeographyType: "Upper Tier Local Authority",
			GeographyCode: "E08000035", Age: "00-04", Stratum: "default",
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Match(tt.perm, row); got != tt.want {
				t.Errorf("Match() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGrant_IsOrOverPermissions(t *testing.T) {
	t.Parallel()

	row := leedsCases()
	set := models.PermissionSet{
		{Theme: "infectious_disease", SubTheme: "respiratory", Topic: "Influenza"},
		{Theme: "infectious_disease", SubTheme: "respiratory", Metric: "COVID-19_cases_countRollingMean"},
	}
	if !Grant(row, set, enabled) {
		t.Error("second permission should grant access")
	}
	if Grant(row, set[:1], enabled) {
		t.Error("first permission alone should not grant access")
	}
	if Grant(row, nil, enabled) {
		t.Error("empty set should not grant access")
	}
}

func TestGrant_AuthDisabled(t *testing.T) {
	t.Parallel()

	if !Grant(leedsCases(), nil, Settings{AuthEnabled: false}) {
		t.Error("auth disabled should grant every row")
	}
}

func TestVisible(t *testing.T) {
	t.Parallel()

	private := &models.TimeSeriesObservation{Classification: leedsCases(), IsPublic: models.Bool(false)}
	public := &models.TimeSeriesObservation{Classification: leedsCases(), IsPublic: models.Bool(true)}
	unknown := &models.TimeSeriesObservation{Classification: leedsCases()}

	if !Visible(public, nil, enabled) {
		t.Error("public row should be visible without permissions")
	}
	if Visible(private, nil, enabled) {
		t.Error("private row should be hidden without permissions")
	}
	if Visible(unknown, nil, enabled) {
		t.Error("NULL is_public should be private when not allowed as public")
	}
	if !Visible(unknown, nil, Settings{AuthEnabled: true, AllowMissingIsPublic: true}) {
		t.Error("NULL is_public should be public when allowed")
	}
	grant := models.PermissionSet{{Theme: "infectious_disease", SubTheme: "respiratory"}}
	if !Visible(private, grant, enabled) {
		t.Error("private row should be visible with a matching permission")
	}
}

func TestReleased(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	row := &models.HeadlineObservation{Classification: leedsCases()}

	if !Released(row, now) {
		t.Error("row without embargo should be released")
	}
	row.Embargo = models.Time(now.Add(30 * 24 * time.Hour))
	if Released(row, now) {
		t.Error("row embargoed until July should not be released in June")
	}
	row.Embargo = models.Time(now)
	if !Released(row, now) {
		t.Error("embargo equal to now should be released")
	}
}
