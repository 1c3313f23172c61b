// Epimetrics - Public Health Metrics Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/epimetrics

package assembler

import (
	"context"
	"fmt"
	"strings"

	"github.com/tomtom215/epimetrics/internal/config"
	"github.com/tomtom215/epimetrics/internal/database/query"
	"github.com/tomtom215/epimetrics/internal/models"
)

// Polarity says whether a rising metric is good or bad news.
type Polarity string

const (
	UpIsBad  Polarity = config.PolarityUpIsBad
	UpIsGood Polarity = config.PolarityUpIsGood
	Neutral  Polarity = config.PolarityNeutral
)

// defaultPolarity lists change metrics whose polarity differs from, or is
// worth stating alongside, the up_is_bad fallback.
var defaultPolarity = map[string]Polarity{
	"COVID-19_headline_cases_7DayChange":                  UpIsBad,
	"COVID-19_headline_cases_7DayPercentChange":           UpIsBad,
	"COVID-19_headline_ONSdeaths_7DayChange":              UpIsBad,
	"COVID-19_headline_ONSdeaths_7DayPercentChange":       UpIsBad,
	"COVID-19_headline_healthcare_admissions7DayChange":   UpIsBad,
	"COVID-19_headline_healthcare_occupiedBeds7DayChange": UpIsBad,
	"COVID-19_headline_positivity_7DayChange":             UpIsBad,
	"COVID-19_headline_tests_7DayChange":                  UpIsGood,
	"COVID-19_headline_tests_7DayPercentChange":           UpIsGood,
	"COVID-19_headline_vaccines_7DayChange":               UpIsGood,
	"COVID-19_headline_vaccines_7DayPercentChange":        UpIsGood,
	"influenza_headline_positivityLatest7DayChange":       UpIsBad,
	"influenza_headline_admissionRate7DayChange":          UpIsBad,
	"RSV_headline_positivityLatest7DayChange":             UpIsBad,
	"RSV_headline_admissionRate7DayChange":                UpIsBad,
}

// polarityTable merges configured overrides over the built-in table.
func polarityTable(overrides map[string]string) map[string]Polarity {
	table := make(map[string]Polarity, len(defaultPolarity)+len(overrides))
	for k, v := range defaultPolarity {
		table[k] = v
	}
	for k, v := range overrides {
		table[k] = Polarity(v)
	}
	return table
}

// PolarityOf returns the polarity of metric; unlisted metrics are up_is_bad.
func (a *Assembler) PolarityOf(metric string) Polarity {
	if p, ok := a.polarity[metric]; ok {
		return p
	}
	return UpIsBad
}

// Direction maps the sign of a change to up, down or neutral.
func Direction(change models.Decimal) string {
	switch change.Sign() {
	case 1:
		return models.DirectionUp
	case -1:
		return models.DirectionDown
	default:
		return models.DirectionNeutral
	}
}

// Colour maps a direction to red, green or neutral under polarity p.
func Colour(direction string, p Polarity) string {
	if direction == models.DirectionNeutral || p == Neutral {
		return models.ColourNeutral
	}
	up := direction == models.DirectionUp
	if up == (p == UpIsGood) {
		return models.ColourGreen
	}
	return models.ColourRed
}

// Headline returns the single live value of a headline classification.
func (a *Assembler) Headline(ctx context.Context, q *models.HeadlineQuery, access query.Access) (*models.HeadlineResponse, error) {
	if err := validateStruct(q); err != nil {
		return nil, err
	}
	if err := a.checkMetric(ctx, q.Topic, q.Metric); err != nil {
		return nil, err
	}
	return a.headline(ctx, models.Classification{
		Topic:         q.Topic,
		Metric:        q.Metric,
		GeographyType: q.GeographyType,
		Geography:     q.Geography,
		Age:           q.Age,
		Stratum:       q.Stratum,
	}, q.Sex, access)
}

// headline reads the live rows of c. Headline metrics report their newest
// reporting period, and more than one row for that period means the query
// is not specific enough. Any other metric is a series, so more than one
// live row is an error.
func (a *Assembler) headline(ctx context.Context, c models.Classification, sex string, access query.Access) (*models.HeadlineResponse, error) {
	oq := query.ObservationQuery{
		Table:   query.TimeSeries,
		Filters: c,
		Sex:     strings.ToLower(sex),
		Order:   query.Descending,
		Access:  access,
	}

	if !models.IsHeadlineMetric(c.Metric) {
		oq.Limit = 2
		rows, err := a.store.FilterTimeSeries(ctx, oq)
		if err != nil {
			return nil, err
		}
		switch {
		case len(rows) == 0:
			return nil, fmt.Errorf("%w: %s", ErrHeadlineNumberDataNotFound, c.Metric)
		case len(rows) > 1:
			return nil, fmt.Errorf("%w: %s", ErrMetricIsTimeSeriesType, c.Metric)
		}
		return &models.HeadlineResponse{Value: rows[0].MetricValue, PeriodEnd: rows[0].Date.Format(models.DateLayout)}, nil
	}

	oq.Table = query.Headline
	rows, err := a.store.FilterHeadlines(ctx, oq)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrHeadlineNumberDataNotFound, c.Metric)
	}
	if len(rows) > 1 && rows[1].PeriodEnd.Equal(rows[0].PeriodEnd) {
		return nil, fmt.Errorf("%w: %s", ErrMetricIsTimeSeriesType, c.Metric)
	}
	return &models.HeadlineResponse{Value: rows[0].MetricValue, PeriodEnd: rows[0].PeriodEnd.Format(models.DateLayout)}, nil
}

// Trend reads a change metric and its percentage counterpart under one
// classification and derives direction and colour from the change.
func (a *Assembler) Trend(ctx context.Context, q *models.TrendQuery, access query.Access) (*models.TrendResponse, error) {
	if err := validateStruct(q); err != nil {
		return nil, err
	}
	if err := a.checkMetric(ctx, q.Topic, q.Metric); err != nil {
		return nil, err
	}
	if err := a.checkMetric(ctx, q.Topic, q.PercentageMetric); err != nil {
		return nil, err
	}

	c := models.Classification{
		Topic:         q.Topic,
		GeographyType: q.GeographyType,
		Geography:     q.Geography,
		Age:           q.Age,
		Stratum:       q.Stratum,
	}
	c.Metric = q.Metric
	change, err := a.headline(ctx, c, q.Sex, access)
	if err != nil {
		return nil, err
	}
	c.Metric = q.PercentageMetric
	percentage, err := a.headline(ctx, c, q.Sex, access)
	if err != nil {
		return nil, err
	}

	direction := Direction(change.Value)
	return &models.TrendResponse{
		MetricName:                q.Metric,
		MetricValue:               change.Value,
		PercentageMetricName:      q.PercentageMetric,
		PercentageMetricValue:     percentage.Value,
		Direction:                 direction,
		Colour:                    Colour(direction, a.PolarityOf(q.Metric)),
		MetricPeriodEnd:           change.PeriodEnd,
		PercentageMetricPeriodEnd: percentage.PeriodEnd,
	}, nil
}
