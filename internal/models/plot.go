// Epimetrics - Public Health Metrics Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/epimetrics

package models

import "time"

// Chart types accepted in plot parameters.
const (
	ChartTypeSimpleLine            = "simple_line"
	ChartTypeWaffle                = "waffle"
	ChartTypeBar                   = "bar"
	ChartTypeLineMultiColoured     = "line_multi_coloured"
	ChartTypeLineWithShadedSection = "line_with_shaded_section"
	ChartTypeLineSingleSimplified  = "line_single_simplified"
)

// ChartTypes lists every chart type, in the order they are documented.
var ChartTypes = []string{
	ChartTypeSimpleLine,
	ChartTypeWaffle,
	ChartTypeBar,
	ChartTypeLineMultiColoured,
	ChartTypeLineWithShadedSection,
	ChartTypeLineSingleSimplified,
}

// Axis selectors. AxisMetric selects metric_value.
const (
	AxisDate          = "date"
	AxisMetric        = "metric"
	AxisStratum       = "stratum"
	AxisAge           = "age"
	AxisGeography     = "geography"
	AxisGeographyType = "geography_type"
)

// Axes lists the recognised axis selectors.
var Axes = []string{AxisDate, AxisMetric, AxisStratum, AxisAge, AxisGeography, AxisGeographyType}

// Default axes when neither the request nor the plot names one.
const (
	DefaultXAxis = AxisDate
	DefaultYAxis = AxisMetric
)

// DateLayout is the wire format of every date field.
const DateLayout = "2006-01-02"

// PlotParameters describes one plot. Display attributes (label, colour,
// line type) are carried through untouched.
type PlotParameters struct {
	Topic         string `json:"topic" validate:"required"`
	Metric        string `json:"metric" validate:"required"`
	ChartType     string `json:"chart_type" validate:"required,charttype"`
	Stratum       string `json:"stratum,omitempty"`
	Age           string `json:"age,omitempty"`
	Geography     string `json:"geography,omitempty"`
	GeographyType string `json:"geography_type,omitempty"`
	Sex           string `json:"sex,omitempty" validate:"omitempty,sex"`
	DateFrom      string `json:"date_from,omitempty" validate:"omitempty,isodate"`
	DateTo        string `json:"date_to,omitempty" validate:"omitempty,isodate"`
	XAxis         string `json:"x_axis,omitempty" validate:"omitempty,axis"`
	YAxis         string `json:"y_axis,omitempty" validate:"omitempty,axis"`
	Label         string `json:"label,omitempty"`
	LineColour    string `json:"line_colour,omitempty"`
	LineType      string `json:"line_type,omitempty"`
}

// AxisKind says which field of an AxisValue is populated.
type AxisKind int

const (
	AxisKindLabel AxisKind = iota
	AxisKindDate
	AxisKindNumber
)

// AxisValue is one coordinate of a plotted point.
type AxisValue struct {
	Kind   AxisKind
	Label  string
	Date   time.Time
	Number Decimal
}

// LabelValue, DateValue and NumberValue build AxisValues.
func LabelValue(s string) AxisValue { return AxisValue{Kind: AxisKindLabel, Label: s} }

// DateValue wraps a date coordinate.
func DateValue(t time.Time) AxisValue { return AxisValue{Kind: AxisKindDate, Date: t} }

// NumberValue wraps a metric value coordinate.
func NumberValue(d Decimal) AxisValue { return AxisValue{Kind: AxisKindNumber, Number: d} }

// String renders the value the way tables reference it: dates as
// YYYY-MM-DD, numbers in plain decimal form.
func (v AxisValue) String() string {
	switch v.Kind {
	case AxisKindDate:
		return v.Date.Format(DateLayout)
	case AxisKindNumber:
		return v.Number.String()
	default:
		return v.Label
	}
}

// Interface returns the value for figure JSON.
func (v AxisValue) Interface() interface{} {
	switch v.Kind {
	case AxisKindDate:
		return v.Date.Format(DateLayout)
	case AxisKindNumber:
		return v.Number.Float64()
	default:
		return v.Label
	}
}

// PlotPoint is one (x, y) pair with the reporting-delay flag of its row.
type PlotPoint struct {
	X                      AxisValue
	Y                      AxisValue
	InReportingDelayPeriod bool
}

// PlotData is a resolved plot.
type PlotData struct {
	Parameters PlotParameters
	Points     []PlotPoint

	// LatestDate is the newest date (or period_end) among the rows read.
	LatestDate *time.Time
}

// XValues returns the x coordinates in point order.
func (p *PlotData) XValues() []AxisValue {
	out := make([]AxisValue, len(p.Points))
	for i, pt := range p.Points {
		out[i] = pt.X
	}
	return out
}

// YValues returns the y coordinates in point order.
func (p *PlotData) YValues() []AxisValue {
	out := make([]AxisValue, len(p.Points))
	for i, pt := range p.Points {
		out[i] = pt.Y
	}
	return out
}
