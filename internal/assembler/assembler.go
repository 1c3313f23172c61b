// Epimetrics - Public Health Metrics Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/epimetrics

/*
Package assembler orchestrates requests into response shapes.

Every operation follows the same flow:

 1. Validate the request struct (go-playground/validator tags) and then each
    plot block against the store (metric exists for topic, date order,
    chart-type policy). Any invalid plot fails the whole request.
 2. Resolve each plot, in declared order, through the resolver. A plot with
    no live rows is dropped; when every plot is dropped the request fails
    with ErrNoData.
 3. Merge the resolved plots into the requested shape (chart, table,
    download, map, headline, trend).

The caller's access (auth switches plus permission set) arrives as a
query.Access value already resolved by the auth middleware.
*/
package assembler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/epimetrics/internal/config"
	"github.com/tomtom215/epimetrics/internal/database/query"
	"github.com/tomtom215/epimetrics/internal/logging"
	"github.com/tomtom215/epimetrics/internal/models"
	"github.com/tomtom215/epimetrics/internal/render"
	"github.com/tomtom215/epimetrics/internal/resolver"
	"github.com/tomtom215/epimetrics/internal/validation"
)

var (
	// ErrValidation marks request errors reported as 400.
	ErrValidation = errors.New("invalid request")

	// ErrNoData means every plot of a multi-plot request was empty.
	ErrNoData = errors.New("no data found for any of the requested plots")

	// ErrMetricIsTimeSeriesType means a headline query matched more than
	// one live row.
	ErrMetricIsTimeSeriesType = errors.New("metric is a time series type and has no single headline value")

	// ErrHeadlineNumberDataNotFound means a headline query matched nothing.
	ErrHeadlineNumberDataNotFound = errors.New("no headline data found")
)

// ValidationError is a rejected request. It matches ErrValidation and
// whatever cause it wraps.
type ValidationError struct {
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Unwrap exposes both the sentinel and the cause to errors.Is.
func (e *ValidationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrValidation}
	}
	return []error{ErrValidation, e.Err}
}

func invalid(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// validateStruct runs the tag validator and converts its error.
func validateStruct(req interface{}) error {
	if verr := validation.ValidateStruct(req); verr != nil {
		return &ValidationError{Message: verr.Error(), Err: verr}
	}
	return nil
}

// Store is everything the assembler reads.
type Store interface {
	resolver.Store
	MetricExists(ctx context.Context, topic, metric string) (bool, error)
	GeographiesOfType(ctx context.Context, geographyType string) ([]models.Geography, error)
	RelatedGeography(ctx context.Context, geographyType, geography, relatedType string) (models.Geography, bool, error)
	GeographiesWithData(ctx context.Context, topic string, access query.Access) ([]models.GeographiesByType, error)
}

// Assembler builds every response shape from a Store.
type Assembler struct {
	store    Store
	resolver *resolver.Resolver
	renderer *render.Renderer
	polarity map[string]Polarity
}

// New creates an Assembler. trends overrides entries of the built-in trend
// polarity table.
func New(store Store, renderer *render.Renderer, trends config.TrendsConfig) *Assembler {
	return &Assembler{
		store:    store,
		resolver: resolver.New(store),
		renderer: renderer,
		polarity: polarityTable(trends.Polarity),
	}
}

// validatePlots checks each plot against the store before any observation
// is read.
func (a *Assembler) validatePlots(ctx context.Context, plots []models.PlotParameters) error {
	for i, p := range plots {
		if err := a.checkMetric(ctx, p.Topic, p.Metric); err != nil {
			return err
		}
		if _, _, err := resolver.DateRange(p.DateFrom, p.DateTo); err != nil {
			return &ValidationError{Message: fmt.Sprintf("plots[%d]: %v", i, err), Err: err}
		}
		if err := resolver.CheckCompatibility(p.Metric, p.ChartType); err != nil {
			return &ValidationError{Message: fmt.Sprintf("plots[%d]: %v", i, err), Err: err}
		}
	}
	return nil
}

// checkMetric fails with a validation error when metric is not filed under topic.
func (a *Assembler) checkMetric(ctx context.Context, topic, metric string) error {
	ok, err := a.store.MetricExists(ctx, topic, metric)
	if err != nil {
		return err
	}
	if !ok {
		return invalid("metric %q does not exist for topic %q", metric, topic)
	}
	return nil
}

// resolvePlots resolves each plot in order, dropping plots with no data.
func (a *Assembler) resolvePlots(ctx context.Context, plots []models.PlotParameters, xAxis, yAxis string, access query.Access) ([]models.PlotData, error) {
	out := make([]models.PlotData, 0, len(plots))
	for _, p := range plots {
		data, err := a.resolver.Resolve(ctx, p, xAxis, yAxis, access)
		if errors.Is(err, resolver.ErrDataNotFoundForPlot) {
			logging.Ctx(ctx).Debug().Str("metric", p.Metric).Str("geography", p.Geography).Msg("Plot has no data, dropping")
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, *data)
	}
	if len(out) == 0 {
		return nil, ErrNoData
	}
	return out, nil
}

// latestDate returns the newest LatestDate across plots.
func latestDate(plots []models.PlotData) *time.Time {
	var latest *time.Time
	for i := range plots {
		d := plots[i].LatestDate
		if d != nil && (latest == nil || d.After(*latest)) {
			latest = d
		}
	}
	return latest
}
