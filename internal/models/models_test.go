// Epimetrics - Public Health Metrics Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/epimetrics

package models

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func TestDecimal_Fixed4(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"40", "40.0000"},
		{"12.5", "12.5000"},
		{"0.33335", "0.3334"},
		{"-1.00004", "-1.0000"},
		{"1234567.1", "1234567.1000"},
	}
	for _, tt := range tests {
		if got := MustDecimal(tt.in).Fixed4(); got != tt.want {
			t.Errorf("Fixed4(%s) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestDecimal_ParseRejectsGarbage(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"", "abc", "NaN", "Infinity"} {
		if _, err := NewDecimal(in); err == nil {
			t.Errorf("NewDecimal(%q) should fail", in)
		}
	}
}

func TestDecimal_ScanAndJSON(t *testing.T) {
	t.Parallel()

	var d Decimal
	if err := d.Scan("12.0000"); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if d.Cmp(NewDecimalFromInt64(12)) != 0 {
		t.Errorf("scanned %s, want 12", d)
	}
	if err := d.Scan(int64(-3)); err != nil || d.Sign() != -1 {
		t.Errorf("Scan(int64) = %s, %v", d, err)
	}
	if err := d.Scan(struct{}{}); err == nil {
		t.Error("Scan(struct) should fail")
	}

	out, err := json.Marshal(map[string]Decimal{"v": MustDecimal("2.5")})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(out) != `{"v":2.5}` {
		t.Errorf("Marshal = %s", out)
	}

	var back struct {
		V Decimal `json:"v"`
	}
	if err := json.Unmarshal([]byte(`{"v":"7.25"}`), &back); err != nil {
		t.Fatalf("Unmarshal quoted: %v", err)
	}
	if back.V.String() != "7.25" {
		t.Errorf("Unmarshal quoted = %s", back.V)
	}
}

func TestMetricClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		headline   bool
		cumulative bool
	}{
		{"COVID-19_cases_countRollingMean", false, false},
		{"COVID-19_headline_cases_7DayChange", true, false},
		{"COVID-19_vaccinations_autumn22_uptakeByDay_cumulative", false, true},
		{"influenza_headline_positivityLatest", true, true},
	}
	for _, tt := range tests {
		if got := IsHeadlineMetric(tt.name); got != tt.headline {
			t.Errorf("IsHeadlineMetric(%s) = %v", tt.name, got)
		}
		if got := IsCumulativeMetric(tt.name); got != tt.cumulative {
			t.Errorf("IsCumulativeMetric(%s) = %v", tt.name, got)
		}
	}
}

func TestMetricGroup(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"COVID-19_cases_countRollingMean":    "cases",
		"COVID-19_headline_cases_7DayChange": "headline",
		"plain":                              "plain",
	}
	for name, want := range tests {
		if got := MetricGroup(name); got != want {
			t.Errorf("MetricGroup(%s) = %s, want %s", name, got, want)
		}
	}
}

func TestAxisValueString(t *testing.T) {
	t.Parallel()

	d := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	if got := DateValue(d).String(); got != "2025-01-02" {
		t.Errorf("date = %s", got)
	}
	if got := NumberValue(MustDecimal("10.50")).String(); got != "10.50" {
		t.Errorf("number = %s", got)
	}
	if got := LabelValue("00 - 04").String(); got != "00 - 04" {
		t.Errorf("label = %s", got)
	}
}

func TestPermissionKey(t *testing.T) {
	t.Parallel()

	a := Permission{Theme: "infectious_disease", SubTheme: "respiratory"}
	b := Permission{Name: "other name", Theme: "infectious_disease", SubTheme: "respiratory"}
	c := Permission{Theme: "infectious_disease", SubTheme: "respiratory", Topic: "COVID-19"}
	if a.Key() != b.Key() {
		t.Error("permissions with the same tuple should share a key")
	}
	if a.Key() == c.Key() {
		t.Error("permissions with different tuples should not share a key")
	}
}
