// Epimetrics - Public Health Metrics Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/epimetrics

// Package resolver turns one plot parameter block into plot data: it picks
// the fact table from the metric, applies the chart-type policy, reads live
// observations through the store and projects them onto the chosen axes.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/epimetrics/internal/database/query"
	"github.com/tomtom215/epimetrics/internal/metrics"
	"github.com/tomtom215/epimetrics/internal/models"
)

var (
	// ErrDataNotFoundForPlot means a plot matched no live rows.
	ErrDataNotFoundForPlot = errors.New("no data found for plot")

	// ErrIncompatibleMetric means the metric cannot drive the chart type.
	ErrIncompatibleMetric = errors.New("metric is incompatible with chart type")

	// ErrInvalidDateRange means date_from is after date_to or a date does
	// not parse.
	ErrInvalidDateRange = errors.New("invalid date range")
)

// Store is the read side of the observation store.
type Store interface {
	FilterTimeSeries(ctx context.Context, q query.ObservationQuery) ([]models.TimeSeriesObservation, error)
	FilterHeadlines(ctx context.Context, q query.ObservationQuery) ([]models.HeadlineObservation, error)
}

// Resolver resolves plots against a Store.
type Resolver struct {
	store Store
}

// New creates a Resolver.
func New(store Store) *Resolver {
	return &Resolver{store: store}
}

// IsSeriesChart reports whether the chart type plots a series of values.
func IsSeriesChart(chartType string) bool {
	return chartType != models.ChartTypeWaffle
}

// CheckCompatibility applies the chart-type policy gate: waffle needs a
// single scalar (headline or cumulative metric), series charts reject
// cumulative metrics.
func CheckCompatibility(metric, chartType string) error {
	cumulative := models.IsCumulativeMetric(metric)
	if IsSeriesChart(chartType) {
		if cumulative {
			return fmt.Errorf("%w: %s cannot be drawn as %s", ErrIncompatibleMetric, metric, chartType)
		}
		return nil
	}
	if !cumulative && !models.IsHeadlineMetric(metric) {
		return fmt.Errorf("%w: %s is a time series and cannot be drawn as %s", ErrIncompatibleMetric, metric, chartType)
	}
	return nil
}

// Axes picks the plot's axes: the plot's own selectors win over the
// request's, which win over date/metric.
func Axes(p models.PlotParameters, requestX, requestY string) (x, y string) {
	return firstNonEmpty(p.XAxis, requestX, models.DefaultXAxis), firstNonEmpty(p.YAxis, requestY, models.DefaultYAxis)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// DateRange parses the plot's optional date bounds.
func DateRange(dateFrom, dateTo string) (from, to *time.Time, err error) {
	if dateFrom != "" {
		d, perr := time.Parse(models.DateLayout, dateFrom)
		if perr != nil {
			return nil, nil, fmt.Errorf("%w: date_from %q", ErrInvalidDateRange, dateFrom)
		}
		from = &d
	}
	if dateTo != "" {
		d, perr := time.Parse(models.DateLayout, dateTo)
		if perr != nil {
			return nil, nil, fmt.Errorf("%w: date_to %q", ErrInvalidDateRange, dateTo)
		}
		to = &d
	}
	if from != nil && to != nil && from.After(*to) {
		return nil, nil, fmt.Errorf("%w: date_from %s is after date_to %s", ErrInvalidDateRange, dateFrom, dateTo)
	}
	return from, to, nil
}

// PlotQuery builds the observation query for a plot. Display attributes do
// not take part.
func PlotQuery(p models.PlotParameters, access query.Access) (query.ObservationQuery, error) {
	from, to, err := DateRange(p.DateFrom, p.DateTo)
	if err != nil {
		return query.ObservationQuery{}, err
	}
	q := query.ObservationQuery{
		Table: query.TimeSeries,
		Filters: models.Classification{
			Topic:         p.Topic,
			Metric:        p.Metric,
			GeographyType: p.GeographyType,
			Geography:     p.Geography,
			Age:           p.Age,
			Stratum:       p.Stratum,
		},
		Sex:      strings.ToLower(p.Sex),
		DateFrom: from,
		DateTo:   to,
		Access:   access,
	}
	if models.IsHeadlineMetric(p.Metric) {
		q.Table = query.Headline
	}
	// A waffle shows the single latest value, not a range.
	if !IsSeriesChart(p.ChartType) {
		q.DateFrom, q.DateTo = nil, nil
		q.Order = query.Descending
		q.Limit = 1
	}
	return q, nil
}

// Rows is the full row set of a plot. Exactly one of the slices is used,
// depending on the metric's table.
type Rows struct {
	Table      query.Table
	TimeSeries []models.TimeSeriesObservation
	Headlines  []models.HeadlineObservation
}

// Len returns the number of rows.
func (r Rows) Len() int {
	if r.Table == query.Headline {
		return len(r.Headlines)
	}
	return len(r.TimeSeries)
}

// ResolveRows reads the live rows of a plot in the given order, without
// projecting them.
func (r *Resolver) ResolveRows(ctx context.Context, p models.PlotParameters, access query.Access, order query.Order) (Rows, error) {
	q, err := PlotQuery(p, access)
	if err != nil {
		return Rows{}, err
	}
	q.Order = order
	return r.read(ctx, q)
}

func (r *Resolver) read(ctx context.Context, q query.ObservationQuery) (Rows, error) {
	rows := Rows{Table: q.Table}
	var err error
	if q.Table == query.Headline {
		rows.Headlines, err = r.store.FilterHeadlines(ctx, q)
	} else {
		rows.TimeSeries, err = r.store.FilterTimeSeries(ctx, q)
	}
	return rows, err
}

// Resolve produces the plot data for p. requestX and requestY are the
// request-level axis selectors, used when the plot names none.
func (r *Resolver) Resolve(ctx context.Context, p models.PlotParameters, requestX, requestY string, access query.Access) (*models.PlotData, error) {
	if err := CheckCompatibility(p.Metric, p.ChartType); err != nil {
		metrics.RecordPlot(p.ChartType, "incompatible")
		return nil, err
	}
	q, err := PlotQuery(p, access)
	if err != nil {
		metrics.RecordPlot(p.ChartType, "invalid")
		return nil, err
	}
	rows, err := r.read(ctx, q)
	if err != nil {
		metrics.RecordPlot(p.ChartType, "error")
		return nil, err
	}
	if rows.Len() == 0 {
		metrics.RecordPlot(p.ChartType, "empty")
		return nil, fmt.Errorf("%w: %s", ErrDataNotFoundForPlot, p.Metric)
	}

	x, y := Axes(p, requestX, requestY)
	data := Project(rows, x, y)
	data.Parameters = p
	metrics.RecordPlot(p.ChartType, "ok")
	return data, nil
}

// Project maps rows onto (x, y) pairs and records the latest date seen.
// An age x-axis is re-sorted by the canonical age order and its labels are
// normalised.
func Project(rows Rows, xAxis, yAxis string) *models.PlotData {
	data := &models.PlotData{Points: make([]models.PlotPoint, 0, rows.Len())}
	var latest time.Time

	if rows.Table == query.Headline {
		for i := range rows.Headlines {
			o := &rows.Headlines[i]
			data.Points = append(data.Points, models.PlotPoint{
				X: headlineAxis(o, xAxis),
				Y: headlineAxis(o, yAxis),
			})
			if o.PeriodEnd.After(latest) {
				latest = o.PeriodEnd
			}
		}
	} else {
		for i := range rows.TimeSeries {
			o := &rows.TimeSeries[i]
			data.Points = append(data.Points, models.PlotPoint{
				X:                      timeSeriesAxis(o, xAxis),
				Y:                      timeSeriesAxis(o, yAxis),
				InReportingDelayPeriod: o.InReportingDelayPeriod,
			})
			if o.Date.After(latest) {
				latest = o.Date
			}
		}
	}

	if !latest.IsZero() {
		data.LatestDate = &latest
	}
	if xAxis == models.AxisAge {
		SortByAge(data.Points)
	}
	return data
}

func timeSeriesAxis(o *models.TimeSeriesObservation, axis string) models.AxisValue {
	switch axis {
	case models.AxisDate:
		return models.DateValue(o.Date)
	case models.AxisMetric:
		return models.NumberValue(o.MetricValue)
	default:
		return classificationAxis(o.Classification, axis)
	}
}

func headlineAxis(o *models.HeadlineObservation, axis string) models.AxisValue {
	switch axis {
	case models.AxisDate:
		return models.DateValue(o.PeriodEnd)
	case models.AxisMetric:
		return models.NumberValue(o.MetricValue)
	default:
		return classificationAxis(o.Classification, axis)
	}
}

func classificationAxis(c models.Classification, axis string) models.AxisValue {
	switch axis {
	case models.AxisStratum:
		return models.LabelValue(c.Stratum)
	case models.AxisAge:
		return models.LabelValue(c.Age)
	case models.AxisGeography:
		return models.LabelValue(c.Geography)
	case models.AxisGeographyType:
		return models.LabelValue(c.GeographyType)
	}
	return models.LabelValue("")
}
