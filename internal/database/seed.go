// Epimetrics - Public Health Metrics Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/epimetrics

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/epimetrics/internal/logging"
	"github.com/tomtom215/epimetrics/internal/models"
)

type mockGeography struct {
	geographyType string
	name          string
	code          string
	parentType    string
	parent        string
}

var mockGeographies = []mockGeography{
	{geographyType: "Nation", name: "England", code: "E92000001"},
	{geographyType: "Region", name: "London", code: "E12000007"},
	{geographyType: "Region", name: "Yorkshire and The Humber", code: "E12000003"},
	{geographyType: "Upper Tier Local Authority", name: "Hackney", code: "E09000012", parentType: "Region", parent: "London"},
	{geographyType: "Upper Tier Local Authority", name: "Leeds", code: "E08000035", parentType: "Region", parent: "Yorkshire and The Humber"},
}

var mockAges = []string{"all", "00-04", "05-14", "15-44", "45-64", "65-84", "85+"}

// SeedMockData fills an empty store with a small deterministic COVID-19
// dataset for local development. A store that already holds time-series
// rows is left alone.
func (db *DB) SeedMockData(ctx context.Context) error {
	var n int64
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM core_timeseries`).Scan(&n); err != nil {
		return wrapQueryError("failed to count observations", err)
	}
	if n > 0 {
		logging.Info().Int64("rows", n).Msg("Store already populated, skipping mock data")
		return nil
	}

	today := db.Now().Truncate(24 * time.Hour)
	refresh := today.Add(-time.Hour)
	const days = 90

	var series []models.TimeSeriesObservation
	var headlines []models.HeadlineObservation
	for gi, g := range mockGeographies {
		for ai, age := range mockAges {
			if age != "all" && g.geographyType != "Nation" {
				continue
			}
			c := models.Classification{
				Theme: "infectious_disease", SubTheme: "respiratory", Topic: "COVID-19",
				Metric:        "COVID-19_cases_countRollingMean",
				GeographyType: g.geographyType, Geography: g.name, GeographyCode: g.code,
				Age: age, Stratum: "default",
			}
			for d := days; d >= 1; d-- {
				date := today.AddDate(0, 0, -d)
				value := int64(100*(gi+1) + 3*(days-d) + 7*ai + (d%7)*5)
				series = append(series, models.TimeSeriesObservation{
					Classification:         c,
					MetricFrequency:        "daily",
					Sex:                    models.SexAll,
					Date:                   date,
					MetricValue:            models.NewDecimalFromInt64(value),
					RefreshDate:            refresh,
					IsPublic:               models.Bool(true),
					InReportingDelayPeriod: d <= 5,
				})
			}
		}

		for _, h := range []struct {
			metric string
			value  int64
		}{
			{"COVID-19_headline_cases_7DayChange", int64(12 * (gi + 1))},
			{"COVID-19_headline_cases_7DayPercentChange", int64(gi + 2)},
			{"COVID-19_headline_ONSdeaths_7DayChange", -int64(gi + 1)},
			{"COVID-19_headline_ONSdeaths_7DayPercentChange", -int64(gi + 1)},
			{"COVID-19_headline_vaccines_spring24Uptake_latest", int64(60 + gi)},
		} {
			headlines = append(headlines, models.HeadlineObservation{
				Classification: models.Classification{
					Theme: "infectious_disease", SubTheme: "respiratory", Topic: "COVID-19",
					Metric:        h.metric,
					GeographyType: g.geographyType, Geography: g.name, GeographyCode: g.code,
					Age: "all", Stratum: "default",
				},
				Sex:         models.SexAll,
				PeriodStart: today.AddDate(0, 0, -8),
				PeriodEnd:   today.AddDate(0, 0, -1),
				MetricValue: models.NewDecimalFromInt64(h.value),
				RefreshDate: refresh,
				IsPublic:    models.Bool(true),
			})
		}
	}

	if err := db.InsertTimeSeries(ctx, series); err != nil {
		return fmt.Errorf("failed to seed time series: %w", err)
	}
	if err := db.InsertHeadlines(ctx, headlines); err != nil {
		return fmt.Errorf("failed to seed headlines: %w", err)
	}
	for _, g := range mockGeographies {
		if g.parent == "" {
			continue
		}
		if err := db.LinkGeographies(ctx, g.geographyType, g.name, g.parentType, g.parent); err != nil {
			return fmt.Errorf("failed to seed geography relations: %w", err)
		}
	}

	logging.Info().Int("timeseries", len(series)).Int("headlines", len(headlines)).Msg("Seeded mock data")
	return nil
}
