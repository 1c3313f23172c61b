// Epimetrics - Public Health Metrics Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/epimetrics

package database

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/epimetrics/internal/config"
	"github.com/tomtom215/epimetrics/internal/models"
)

// testDBSemaphore limits concurrent database creation to prevent resource exhaustion in CI.
// Setting to 1 fully serializes DuckDB use across tests.
var testDBSemaphore = make(chan struct{}, 1)

// testDBMutex serializes database creation.
var testDBMutex sync.Mutex

// testNow is the wall clock of every store test unless a test moves it.
var testNow = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

// testClock is a settable clock for embargo tests.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// setupTestDB creates a new in-memory test database with timeout protection.
// The semaphore is held until the test completes so only one test has an
// active DuckDB connection at any time.
func setupTestDB(t *testing.T, opts ...Option) *DB {
	t.Helper()

	testDBSemaphore <- struct{}{}
	t.Cleanup(func() {
		<-testDBSemaphore
	})

	cfg := &config.DatabaseConfig{
		Path:      ":memory:",
		MaxMemory: "1GB",
	}
	if len(opts) == 0 {
		opts = []Option{WithClock(func() time.Time { return testNow })}
	}

	type result struct {
		db  *DB
		err error
	}

	resultCh := make(chan result, 1)
	go func() {
		testDBMutex.Lock()
		db, err := New(cfg, opts...)
		testDBMutex.Unlock()
		resultCh <- result{db: db, err: err}
	}()

	select {
	case res := <-resultCh:
		if res.err != nil {
			t.Fatalf("Failed to create test database: %v", res.err)
		}
		t.Cleanup(func() {
			if err := res.db.Close(); err != nil {
				t.Errorf("Close() error = %v", err)
			}
		})
		return res.db
	case <-time.After(120 * time.Second):
		t.Fatalf("Timeout: database creation took longer than 120s (DuckDB may be under resource pressure)")
		return nil
	}
}

func day(s string) time.Time {
	d, err := time.Parse(models.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

var testGeographyCodes = map[string]string{
	"England": "E92000001",
	"London":  "E12000007",
	"Hackney": "E09000012",
	"Leeds":   "E08000035",
}

func covidCases(geography string) models.Classification {
	return models.Classification{
		Theme:         "infectious_disease",
		SubTheme:      "respiratory",
		Topic:         "COVID-19",
		Metric:        "COVID-19_cases_countRollingMean",
		GeographyType: "Nation",
		Geography:     geography,
		GeographyCode: testGeographyCodes[geography],
		Age:           "all",
		Stratum:       "default",
	}
}

func tsRow(c models.Classification, date, refresh string, value int64, public bool) models.TimeSeriesObservation {
	return models.TimeSeriesObservation{
		Classification:  c,
		MetricFrequency: "daily",
		Sex:             models.SexAll,
		Date:            day(date),
		MetricValue:     models.NewDecimalFromInt64(value),
		RefreshDate:     day(refresh),
		IsPublic:        models.Bool(public),
	}
}

func mustInsertTimeSeries(t *testing.T, db *DB, rows ...models.TimeSeriesObservation) {
	t.Helper()
	if err := db.InsertTimeSeries(context.Background(), rows); err != nil {
		t.Fatalf("InsertTimeSeries() error = %v", err)
	}
}

func TestNew_CreatesSchema(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)

	if err := db.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
	for _, table := range []string{"core_timeseries_v", "core_headline_v", "permissions", "permission_groups", "geography_relations"} {
		var n int64
		if err := db.conn.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
			t.Errorf("table %s: %v", table, err)
		}
	}
	if !db.Now().Equal(testNow) {
		t.Errorf("Now() = %v, want %v", db.Now(), testNow)
	}
}

func TestPing_NilConnection(t *testing.T) {
	t.Parallel()

	db := &DB{}
	if err := db.Ping(context.Background()); err == nil {
		t.Error("Ping() on nil connection should fail")
	}
	if err := db.Close(); err != nil {
		t.Errorf("Close() on nil connection = %v", err)
	}
}

func TestIsConnectionError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		msg  string
		want bool
	}{
		{"sql: database is closed", true},
		{"driver: bad connection", true},
		{"Binder Error: column not found", false},
	}
	for _, tt := range tests {
		if got := isConnectionError(errString(tt.msg)); got != tt.want {
			t.Errorf("isConnectionError(%q) = %v, want %v", tt.msg, got, tt.want)
		}
	}
	if isConnectionError(nil) {
		t.Error("isConnectionError(nil) = true")
	}
}

type errString string

func (e errString) Error() string { return string(e) }
