// Epimetrics - Public Health Metrics Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/epimetrics

package validation

import (
	"strings"
	"testing"

	"github.com/tomtom215/epimetrics/internal/models"
)

func TestGetValidator_Singleton(t *testing.T) {
	v1 := GetValidator()
	v2 := GetValidator()

	if v1 != v2 {
		t.Error("GetValidator() should return the same singleton instance")
	}
	if v1 == nil {
		t.Error("GetValidator() should not return nil")
	}
}

func validPlot() models.PlotParameters {
	return models.PlotParameters{
		Topic:     "COVID-19",
		Metric:    "COVID-19_cases_countRollingMean",
		ChartType: models.ChartTypeSimpleLine,
		DateFrom:  "2025-01-01",
		DateTo:    "2025-03-31",
	}
}

func TestValidateStruct_ChartRequest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(r *models.ChartRequest)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(r *models.ChartRequest) {},
		},
		{
			name:   "sex case-insensitive",
			mutate: func(r *models.ChartRequest) { r.Plots[0].Sex = "F" },
		},
		{
			name:    "unknown file format",
			mutate:  func(r *models.ChartRequest) { r.FileFormat = "gif" },
			wantErr: "file_format must be one of: svg png jpg jpeg json",
		},
		{
			name:    "no plots",
			mutate:  func(r *models.ChartRequest) { r.Plots = nil },
			wantErr: "plots is required",
		},
		{
			name:    "unknown chart type",
			mutate:  func(r *models.ChartRequest) { r.Plots[0].ChartType = "pie" },
			wantErr: "plots[0].chart_type must be one of: simple_line waffle bar",
		},
		{
			name:    "bad axis",
			mutate:  func(r *models.ChartRequest) { r.XAxis = "colour" },
			wantErr: "x_axis must be one of: date metric",
		},
		{
			name:    "bad date",
			mutate:  func(r *models.ChartRequest) { r.Plots[0].DateFrom = "2025-13-01" },
			wantErr: "plots[0].date_from must be a date in YYYY-MM-DD format",
		},
		{
			name:    "bad sex",
			mutate:  func(r *models.ChartRequest) { r.Plots[0].Sex = "x" },
			wantErr: "plots[0].sex must be one of: all m f",
		},
		{
			name:    "missing metric",
			mutate:  func(r *models.ChartRequest) { r.Plots[0].Metric = "" },
			wantErr: "plots[0].metric is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := models.ChartRequest{
				FileFormat: models.FormatSVG,
				Plots:      []models.PlotParameters{validPlot()},
			}
			tt.mutate(&req)

			err := ValidateStruct(&req)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("ValidateStruct() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("ValidateStruct() = nil, want %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("ValidateStruct() = %q, want it to contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestValidateStruct_MapRequest(t *testing.T) {
	t.Parallel()

	req := models.MapRequest{
		DateFrom: "2025-01-01",
		Parameters: models.MapParameters{
			Theme: "infectious_disease", SubTheme: "respiratory",
			Topic: "COVID-19", Metric: "COVID-19_cases_countRollingMean",
			GeographyType: "Upper Tier Local Authority",
		},
	}
	if err := ValidateStruct(&req); err != nil {
		t.Fatalf("ValidateStruct() = %v", err)
	}

	req.Parameters.GeographyType = ""
	req.DateFrom = ""
	err := ValidateStruct(&req)
	if err == nil {
		t.Fatal("ValidateStruct() = nil, want errors")
	}
	if len(err.Errors()) != 2 {
		t.Errorf("errors = %v, want 2", err.Errors())
	}
	fields := map[string]bool{}
	for _, fe := range err.Errors() {
		fields[fe.Field()] = true
		if fe.Tag() != "required" {
			t.Errorf("tag = %s, want required", fe.Tag())
		}
	}
	if !fields["date_from"] || !fields["geography_type"] {
		t.Errorf("fields = %v", fields)
	}
}

func TestIsISODate(t *testing.T) {
	t.Parallel()

	tests := map[string]bool{
		"2025-01-01": true,
		"2024-02-29": true,
		"2025-02-29": false,
		"2025-1-1":   false,
		"":           false,
		"01/01/2025": false,
	}
	for in, want := range tests {
		if got := IsISODate(in); got != want {
			t.Errorf("IsISODate(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestRequestValidationError_Empty(t *testing.T) {
	t.Parallel()

	var ve RequestValidationError
	if ve.Error() != "validation failed" {
		t.Errorf("Error() = %q", ve.Error())
	}
}
