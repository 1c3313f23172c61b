// Epimetrics - Public Health Metrics Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/epimetrics

package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/epimetrics/internal/authz"
	"github.com/tomtom215/epimetrics/internal/database/query"
	"github.com/tomtom215/epimetrics/internal/models"
)

var authOn = authz.Settings{AuthEnabled: true, AllowMissingIsPublic: true}

func seriesQuery(c models.Classification, access query.Access) query.ObservationQuery {
	return query.ObservationQuery{
		Filters: models.Classification{Topic: c.Topic, Metric: c.Metric, Geography: c.Geography},
		Access:  access,
	}
}

func values(rows []models.TimeSeriesObservation) []string {
	out := make([]string, len(rows))
	for i := range rows {
		out[i] = rows[i].Date.Format(models.DateLayout) + "=" + rows[i].MetricValue.Fixed4()
	}
	return out
}

func assertValues(t *testing.T, rows []models.TimeSeriesObservation, want ...string) {
	t.Helper()
	got := values(rows)
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestFilterTimeSeries_LatestRefreshDedup(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	c := covidCases("England")

	mustInsertTimeSeries(t, db,
		tsRow(c, "2025-01-01", "2025-05-01", 10, true),
		tsRow(c, "2025-01-01", "2025-05-02", 11, true),
		tsRow(c, "2025-01-01", "2025-05-03", 12, true),
	)

	rows, err := db.FilterTimeSeries(context.Background(), seriesQuery(c, query.Access{Settings: authOn}))
	if err != nil {
		t.Fatalf("FilterTimeSeries() error = %v", err)
	}
	assertValues(t, rows, "2025-01-01=12.0000")
}

func TestFilterTimeSeries_StaggeredRelease(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	c := covidCases("England")

	// Round 1 covers three dates, round 2 only revises the middle one.
	mustInsertTimeSeries(t, db,
		tsRow(c, "2025-01-01", "2025-05-01", 1, true),
		tsRow(c, "2025-01-02", "2025-05-01", 2, true),
		tsRow(c, "2025-01-03", "2025-05-01", 3, true),
		tsRow(c, "2025-01-02", "2025-05-08", 20, true),
	)

	rows, err := db.FilterTimeSeries(context.Background(), seriesQuery(c, query.Access{Settings: authOn}))
	if err != nil {
		t.Fatalf("FilterTimeSeries() error = %v", err)
	}
	assertValues(t, rows, "2025-01-01=1.0000", "2025-01-02=20.0000", "2025-01-03=3.0000")
}

func TestFilterTimeSeries_EmbargoGate(t *testing.T) {
	t.Parallel()
	clock := &testClock{now: testNow}
	db := setupTestDB(t, WithClock(clock.Now))
	c := covidCases("England")

	row := tsRow(c, "2025-01-01", "2025-05-01", 5, true)
	embargoed := tsRow(c, "2025-01-02", "2025-05-01", 6, true)
	embargoed.Embargo = models.Time(time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC))
	mustInsertTimeSeries(t, db, row, embargoed)

	q := seriesQuery(c, query.Access{Settings: authOn})
	rows, err := db.FilterTimeSeries(context.Background(), q)
	if err != nil {
		t.Fatalf("FilterTimeSeries() error = %v", err)
	}
	assertValues(t, rows, "2025-01-01=5.0000")

	clock.Set(time.Date(2025, 7, 1, 0, 0, 1, 0, time.UTC))
	rows, err = db.FilterTimeSeries(context.Background(), q)
	if err != nil {
		t.Fatalf("FilterTimeSeries() error = %v", err)
	}
	assertValues(t, rows, "2025-01-01=5.0000", "2025-01-02=6.0000")
}

func TestFilterTimeSeries_EmbargoedRefreshKeepsPreviousVersion(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	c := covidCases("England")

	next := tsRow(c, "2025-01-01", "2025-05-30", 99, true)
	next.Embargo = models.Time(time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC))
	mustInsertTimeSeries(t, db, tsRow(c, "2025-01-01", "2025-05-01", 7, true), next)

	rows, err := db.FilterTimeSeries(context.Background(), seriesQuery(c, query.Access{Settings: authOn}))
	if err != nil {
		t.Fatalf("FilterTimeSeries() error = %v", err)
	}
	assertValues(t, rows, "2025-01-01=7.0000")
}

func TestFilterTimeSeries_PermissionGated(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	c := covidCases("England")

	mustInsertTimeSeries(t, db,
		tsRow(c, "2025-01-01", "2025-05-01", 1, true),
		tsRow(c, "2025-01-02", "2025-05-01", 2, false),
	)

	matching := models.PermissionSet{{Name: "resp", Theme: "infectious_disease", SubTheme: "respiratory"}}
	other := models.PermissionSet{{Name: "other", Theme: "infectious_disease", SubTheme: "bloodstream"}}

	tests := []struct {
		name   string
		access query.Access
		order  query.Order
		want   []string
	}{
		{"matching permission", query.Access{Settings: authOn, Permissions: matching}, query.Descending, []string{"2025-01-02=2.0000", "2025-01-01=1.0000"}},
		{"non-matching permission", query.Access{Settings: authOn, Permissions: other}, query.Descending, []string{"2025-01-01=1.0000"}},
		{"no permissions", query.Access{Settings: authOn}, query.Ascending, []string{"2025-01-01=1.0000"}},
		{"auth disabled", query.Access{Settings: authz.Settings{}}, query.Ascending, []string{"2025-01-01=1.0000", "2025-01-02=2.0000"}},
		{"auth disabled ignores permissions", query.Access{Settings: authz.Settings{}, Permissions: other}, query.Ascending, []string{"2025-01-01=1.0000", "2025-01-02=2.0000"}},
	}
	for _, tt := range tests {
		q := seriesQuery(c, tt.access)
		q.Order = tt.order
		rows, err := db.FilterTimeSeries(context.Background(), q)
		if err != nil {
			t.Fatalf("%s: FilterTimeSeries() error = %v", tt.name, err)
		}
		got := values(rows)
		if len(got) != len(tt.want) {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
				break
			}
		}
	}
}

func TestFilterTimeSeries_NonPublicRefreshFallsBackToPublic(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	c := covidCases("England")

	mustInsertTimeSeries(t, db,
		tsRow(c, "2025-01-01", "2025-05-01", 1, true),
		tsRow(c, "2025-01-01", "2025-05-02", 2, false),
	)

	rows, err := db.FilterTimeSeries(context.Background(), seriesQuery(c, query.Access{Settings: authOn}))
	if err != nil {
		t.Fatalf("FilterTimeSeries() error = %v", err)
	}
	assertValues(t, rows, "2025-01-01=1.0000")

	privileged := query.Access{Settings: authOn, Permissions: models.PermissionSet{
		{Name: "england", Theme: "infectious_disease", SubTheme: "respiratory", GeographyCode: "E92000001"},
	}}
	rows, err = db.FilterTimeSeries(context.Background(), seriesQuery(c, privileged))
	if err != nil {
		t.Fatalf("FilterTimeSeries() error = %v", err)
	}
	assertValues(t, rows, "2025-01-01=2.0000")
}

func TestFilterTimeSeries_MissingIsPublic(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	c := covidCases("England")

	row := tsRow(c, "2025-01-01", "2025-05-01", 4, true)
	row.IsPublic = nil
	mustInsertTimeSeries(t, db, row)

	for _, allow := range []bool{true, false} {
		access := query.Access{Settings: authz.Settings{AuthEnabled: true, AllowMissingIsPublic: allow}}
		rows, err := db.FilterTimeSeries(context.Background(), seriesQuery(c, access))
		if err != nil {
			t.Fatalf("FilterTimeSeries() error = %v", err)
		}
		if allow && len(rows) != 1 {
			t.Errorf("allow missing: got %d rows, want 1", len(rows))
		}
		if !allow && len(rows) != 0 {
			t.Errorf("deny missing: got %d rows, want 0", len(rows))
		}
		if allow && len(rows) == 1 && rows[0].IsPublic != nil {
			t.Errorf("IsPublic = %v, want nil", *rows[0].IsPublic)
		}
	}
}

func TestFilterTimeSeries_Ambiguous(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	c := covidCases("England")

	mustInsertTimeSeries(t, db,
		tsRow(c, "2025-01-01", "2025-05-01", 1, true),
		tsRow(c, "2025-01-01", "2025-05-01", 2, true),
	)

	_, err := db.FilterTimeSeries(context.Background(), seriesQuery(c, query.Access{Settings: authOn}))
	if !errors.Is(err, ErrAmbiguousObservation) {
		t.Fatalf("error = %v, want ErrAmbiguousObservation", err)
	}
	var amb *AmbiguityError
	if !errors.As(err, &amb) || amb.Count != 2 {
		t.Errorf("AmbiguityError = %+v", amb)
	}

	// The audit view lists both duplicates instead of failing.
	q := seriesQuery(c, query.Access{Settings: authOn})
	q.AllVersions = true
	rows, err := db.FilterTimeSeries(context.Background(), q)
	if err != nil {
		t.Fatalf("AllVersions error = %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("AllVersions rows = %d, want 2", len(rows))
	}
}

func TestFilterTimeSeries_FiltersAndRange(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	england := covidCases("England")
	london := covidCases("London")
	london.GeographyType = "Region"
	male := tsRow(england, "2025-01-02", "2025-05-01", 8, true)
	male.Sex = "M"

	mustInsertTimeSeries(t, db,
		tsRow(england, "2025-01-01", "2025-05-01", 1, true),
		tsRow(england, "2025-01-02", "2025-05-01", 2, true),
		tsRow(england, "2025-01-03", "2025-05-01", 3, true),
		tsRow(london, "2025-01-02", "2025-05-01", 50, true),
		male,
	)

	from, to := day("2025-01-02"), day("2025-01-03")
	q := seriesQuery(england, query.Access{Settings: authOn})
	q.DateFrom, q.DateTo = &from, &to
	q.Sex = "ALL"
	rows, err := db.FilterTimeSeries(context.Background(), q)
	if err != nil {
		t.Fatalf("FilterTimeSeries() error = %v", err)
	}
	assertValues(t, rows, "2025-01-02=2.0000", "2025-01-03=3.0000")

	q = query.ObservationQuery{
		Filters:     models.Classification{Metric: england.Metric},
		Geographies: []string{"London"},
		Access:      query.Access{Settings: authOn},
	}
	rows, err = db.FilterTimeSeries(context.Background(), q)
	if err != nil {
		t.Fatalf("FilterTimeSeries() error = %v", err)
	}
	assertValues(t, rows, "2025-01-02=50.0000")
	if rows[0].GeographyType != "Region" || rows[0].Theme != "infectious_disease" || rows[0].Epiweek != 1 || rows[0].Year != 2025 {
		t.Errorf("row = %+v", rows[0])
	}

	q = seriesQuery(england, query.Access{Settings: authOn})
	q.Sex = models.SexMale
	rows, err = db.FilterTimeSeries(context.Background(), q)
	if err != nil {
		t.Fatalf("FilterTimeSeries() error = %v", err)
	}
	assertValues(t, rows, "2025-01-02=8.0000")
}

func TestFilterTimeSeries_LimitNewestFirst(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	c := covidCases("England")
	mustInsertTimeSeries(t, db,
		tsRow(c, "2025-01-01", "2025-05-01", 1, true),
		tsRow(c, "2025-01-02", "2025-05-01", 2, true),
	)

	q := seriesQuery(c, query.Access{Settings: authOn})
	q.Order = query.Descending
	q.Limit = 1
	rows, err := db.FilterTimeSeries(context.Background(), q)
	if err != nil {
		t.Fatalf("FilterTimeSeries() error = %v", err)
	}
	assertValues(t, rows, "2025-01-02=2.0000")
}

func TestFilterHeadlines_Dedup(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	c := covidCases("England")
	c.Metric = "COVID-19_headline_cases_7DayChange"

	headline := func(refresh string, value int64) models.HeadlineObservation {
		return models.HeadlineObservation{
			Classification: c,
			Sex:            models.SexAll,
			PeriodStart:    day("2025-05-20"),
			PeriodEnd:      day("2025-05-27"),
			MetricValue:    models.NewDecimalFromInt64(value),
			RefreshDate:    day(refresh),
			IsPublic:       models.Bool(true),
		}
	}
	if err := db.InsertHeadlines(context.Background(), []models.HeadlineObservation{
		headline("2025-05-28", 100),
		headline("2025-05-29", 120),
	}); err != nil {
		t.Fatalf("InsertHeadlines() error = %v", err)
	}

	rows, err := db.FilterHeadlines(context.Background(), query.ObservationQuery{
		Filters: models.Classification{Topic: c.Topic, Metric: c.Metric},
		Access:  query.Access{Settings: authOn},
	})
	if err != nil {
		t.Fatalf("FilterHeadlines() error = %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	if rows[0].MetricValue.Fixed4() != "120.0000" || !rows[0].PeriodEnd.Equal(day("2025-05-27")) {
		t.Errorf("row = %+v", rows[0])
	}
}
