// Epimetrics - Public Health Metrics Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/epimetrics

package models

// ErrorResponse is the body of every 4xx/5xx response.
type ErrorResponse struct {
	ErrorMessage string `json:"error_message"`
}

// ChartResponse is returned by the charts endpoint. Chart holds a URL-encoded
// SVG, a base64 raster, or the figure itself for the json format.
type ChartResponse struct {
	LastUpdated string                 `json:"last_updated"`
	Chart       interface{}            `json:"chart"`
	AltText     string                 `json:"alt_text"`
	Figure      map[string]interface{} `json:"figure,omitempty"`
}

// TableValue is one plot's cell within a table row.
type TableValue struct {
	Label                  string `json:"label"`
	Value                  string `json:"value"`
	InReportingDelayPeriod bool   `json:"in_reporting_delay_period"`
}

// TableRow is one reference of the nested (v4) table shape.
type TableRow struct {
	Reference string       `json:"reference"`
	Values    []TableValue `json:"values"`
}

// LegacyTableRow is one row of the flat (v2) table shape: "reference" plus
// one key per plot label. Missing cells are null.
type LegacyTableRow map[string]interface{}

// TimeSeriesDownloadRow is one flattened time-series row of a download.
// Field order is the CSV column order.
type TimeSeriesDownloadRow struct {
	Theme           string `json:"theme"`
	SubTheme        string `json:"sub_theme"`
	Topic           string `json:"topic"`
	GeographyType   string `json:"geography_type"`
	Geography       string `json:"geography"`
	Metric          string `json:"metric"`
	MetricFrequency string `json:"metric_frequency"`
	Sex             string `json:"sex"`
	Age             string `json:"age"`
	Stratum         string `json:"stratum"`
	Year            int    `json:"year"`
	Epiweek         int    `json:"epiweek"`
	Date            string `json:"date"`
	MetricValue     string `json:"metric_value"`
}

// HeadlineDownloadRow is one flattened headline row of a download.
type HeadlineDownloadRow struct {
	Theme         string `json:"theme"`
	SubTheme      string `json:"sub_theme"`
	Topic         string `json:"topic"`
	GeographyType string `json:"geography_type"`
	Geography     string `json:"geography"`
	Metric        string `json:"metric"`
	Sex           string `json:"sex"`
	Age           string `json:"age"`
	Stratum       string `json:"stratum"`
	PeriodStart   string `json:"period_start"`
	PeriodEnd     string `json:"period_end"`
	MetricValue   string `json:"metric_value"`
}

// MapAccompanyingPointResult is an accompanying point resolved for one case.
type MapAccompanyingPointResult struct {
	LabelPrefix string   `json:"label_prefix"`
	LabelSuffix string   `json:"label_suffix"`
	MetricValue *Decimal `json:"metric_value"`
}

// MapCase is one geography on a map. MetricValue and AccompanyingPoints are
// null when the geography has no live row.
type MapCase struct {
	GeographyType      string                       `json:"geography_type"`
	GeographyCode      string                       `json:"geography_code"`
	Geography          string                       `json:"geography"`
	MetricValue        *Decimal                     `json:"metric_value"`
	AccompanyingPoints []MapAccompanyingPointResult `json:"accompanying_points"`
}

// MapResponse is returned by the maps endpoint.
type MapResponse struct {
	Data       []MapCase `json:"data"`
	LatestDate *string   `json:"latest_date"`
}

// HeadlineResponse is returned by the headlines endpoint.
type HeadlineResponse struct {
	Value     Decimal `json:"value"`
	PeriodEnd string  `json:"period_end"`
}

// Trend directions and colours.
const (
	DirectionUp      = "up"
	DirectionDown    = "down"
	DirectionNeutral = "neutral"

	ColourRed     = "red"
	ColourGreen   = "green"
	ColourNeutral = "neutral"
)

// TrendResponse is returned by the trends endpoint.
type TrendResponse struct {
	MetricName                string  `json:"metric_name"`
	MetricValue               Decimal `json:"metric_value"`
	PercentageMetricName      string  `json:"percentage_metric_name"`
	PercentageMetricValue     Decimal `json:"percentage_metric_value"`
	Direction                 string  `json:"direction"`
	Colour                    string  `json:"colour"`
	MetricPeriodEnd           string  `json:"metric_period_end"`
	PercentageMetricPeriodEnd string  `json:"percentage_metric_period_end"`
}

// Geography is one entry of the geographies listing.
type Geography struct {
	Name          string `json:"name"`
	GeographyCode string `json:"geography_code"`
}

// GeographiesByType groups geographies under their type.
type GeographiesByType struct {
	GeographyType string      `json:"geography_type"`
	Geographies   []Geography `json:"geographies"`
}

// HealthResponse is returned by /api/health/.
type HealthResponse struct {
	Status        string  `json:"status"`
	Database      string  `json:"database"`
	Renderer      string  `json:"renderer"`
	Version       string  `json:"version"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}
