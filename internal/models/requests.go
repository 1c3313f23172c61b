// Epimetrics - Public Health Metrics Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/epimetrics

package models

// File formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatJPG  = "jpg"
	FormatJPEG = "jpeg"
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// ChartRequest is the body of POST /api/charts/v3/.
type ChartRequest struct {
	FileFormat  string           `json:"file_format" validate:"required,oneof=svg png jpg jpeg json"`
	ChartWidth  int              `json:"chart_width,omitempty" validate:"gte=0,lte=4000"`
	ChartHeight int              `json:"chart_height,omitempty" validate:"gte=0,lte=4000"`
	XAxis       string           `json:"x_axis,omitempty" validate:"omitempty,axis"`
	YAxis       string           `json:"y_axis,omitempty" validate:"omitempty,axis"`
	Plots       []PlotParameters `json:"plots" validate:"required,min=1,dive"`
}

// TableRequest is the body of POST /api/tables/v4/ and /api/tables/v2/.
type TableRequest struct {
	XAxis string           `json:"x_axis,omitempty" validate:"omitempty,axis"`
	YAxis string           `json:"y_axis,omitempty" validate:"omitempty,axis"`
	Plots []PlotParameters `json:"plots" validate:"required,min=1,dive"`
}

// DownloadRequest is the body of POST /api/downloads/v2/.
type DownloadRequest struct {
	FileFormat string           `json:"file_format" validate:"required,oneof=json csv"`
	XAxis      string           `json:"x_axis,omitempty" validate:"omitempty,axis"`
	YAxis      string           `json:"y_axis,omitempty" validate:"omitempty,axis"`
	Plots      []PlotParameters `json:"plots" validate:"required,min=1,dive"`
}

// MapParameters is the main classification of a map request. An empty
// Geographies list selects every geography of GeographyType.
type MapParameters struct {
	Theme         string   `json:"theme" validate:"required"`
	SubTheme      string   `json:"sub_theme" validate:"required"`
	Topic         string   `json:"topic" validate:"required"`
	Metric        string   `json:"metric" validate:"required"`
	Stratum       string   `json:"stratum,omitempty"`
	Age           string   `json:"age,omitempty"`
	Sex           string   `json:"sex,omitempty" validate:"omitempty,sex"`
	GeographyType string   `json:"geography_type" validate:"required"`
	Geographies   []string `json:"geographies,omitempty"`
}

// AccompanyingPointParameters are inherited from MapParameters when empty.
// A GeographyType different from the main one means "the related geography
// of that type".
type AccompanyingPointParameters struct {
	Theme         string `json:"theme,omitempty"`
	SubTheme      string `json:"sub_theme,omitempty"`
	Topic         string `json:"topic,omitempty"`
	Metric        string `json:"metric,omitempty"`
	Stratum       string `json:"stratum,omitempty"`
	Age           string `json:"age,omitempty"`
	Sex           string `json:"sex,omitempty" validate:"omitempty,sex"`
	GeographyType string `json:"geography_type,omitempty"`
	Geography     string `json:"geography,omitempty"`
}

// AccompanyingPoint is a secondary annotation on each map case.
type AccompanyingPoint struct {
	LabelPrefix string                      `json:"label_prefix"`
	LabelSuffix string                      `json:"label_suffix"`
	Parameters  AccompanyingPointParameters `json:"parameters"`
}

// MapRequest is the body of POST /api/maps/v1/.
type MapRequest struct {
	DateFrom           string              `json:"date_from" validate:"required,isodate"`
	DateTo             string              `json:"date_to" validate:"omitempty,isodate"`
	Parameters         MapParameters       `json:"parameters" validate:"required"`
	AccompanyingPoints []AccompanyingPoint `json:"accompanying_points,omitempty" validate:"dive"`
}

// HeadlineQuery holds the query parameters of GET /api/headlines/v3/.
type HeadlineQuery struct {
	Topic         string `json:"topic" validate:"required"`
	Metric        string `json:"metric" validate:"required"`
	Geography     string `json:"geography,omitempty"`
	GeographyType string `json:"geography_type,omitempty"`
	Stratum       string `json:"stratum,omitempty"`
	Age           string `json:"age,omitempty"`
	Sex           string `json:"sex,omitempty" validate:"omitempty,sex"`
}

// TrendQuery holds the query parameters of GET /api/trends/v3/.
type TrendQuery struct {
	Topic            string `json:"topic" validate:"required"`
	Metric           string `json:"metric" validate:"required"`
	PercentageMetric string `json:"percentage_metric" validate:"required"`
	Geography        string `json:"geography,omitempty"`
	GeographyType    string `json:"geography_type,omitempty"`
	Stratum          string `json:"stratum,omitempty"`
	Age              string `json:"age,omitempty"`
	Sex              string `json:"sex,omitempty" validate:"omitempty,sex"`
}

// AuditQuery identifies the classification whose full version history is
// returned by the audit endpoints.
type AuditQuery struct {
	Metric        string `validate:"required"`
	GeographyType string `validate:"required"`
	Geography     string `validate:"required"`
	Stratum       string `validate:"required"`
	Sex           string `validate:"required,sex"`
	Age           string `validate:"required"`
}
