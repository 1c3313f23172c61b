// Epimetrics - Public Health Metrics Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/epimetrics

package shaping

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/tomtom215/epimetrics/internal/models"
)

// TimeSeriesColumns is the fixed CSV header of time-series downloads.
var TimeSeriesColumns = []string{
	"theme", "sub_theme", "topic", "geography_type", "geography", "metric",
	"metric_frequency", "sex", "age", "stratum", "year", "epiweek", "date", "metric_value",
}

// HeadlineColumns is the fixed CSV header of headline downloads.
var HeadlineColumns = []string{
	"theme", "sub_theme", "topic", "geography_type", "geography", "metric",
	"sex", "age", "stratum", "period_start", "period_end", "metric_value",
}

// TimeSeriesDownload flattens rows for a download.
func TimeSeriesDownload(rows []models.TimeSeriesObservation) []models.TimeSeriesDownloadRow {
	out := make([]models.TimeSeriesDownloadRow, len(rows))
	for i := range rows {
		o := &rows[i]
		out[i] = models.TimeSeriesDownloadRow{
			Theme:           o.Theme,
			SubTheme:        o.SubTheme,
			Topic:           o.Topic,
			GeographyType:   o.GeographyType,
			Geography:       o.Geography,
			Metric:          o.Metric,
			MetricFrequency: o.MetricFrequency,
			Sex:             o.Sex,
			Age:             o.Age,
			Stratum:         o.Stratum,
			Year:            o.Year,
			Epiweek:         o.Epiweek,
			Date:            o.Date.Format(models.DateLayout),
			MetricValue:     o.MetricValue.Fixed4(),
		}
	}
	return out
}

// HeadlineDownload flattens headline rows for a download.
func HeadlineDownload(rows []models.HeadlineObservation) []models.HeadlineDownloadRow {
	out := make([]models.HeadlineDownloadRow, len(rows))
	for i := range rows {
		o := &rows[i]
		out[i] = models.HeadlineDownloadRow{
			Theme:         o.Theme,
			SubTheme:      o.SubTheme,
			Topic:         o.Topic,
			GeographyType: o.GeographyType,
			Geography:     o.Geography,
			Metric:        o.Metric,
			Sex:           o.Sex,
			Age:           o.Age,
			Stratum:       o.Stratum,
			PeriodStart:   o.PeriodStart.Format(time.RFC3339),
			PeriodEnd:     o.PeriodEnd.Format(time.RFC3339),
			MetricValue:   o.MetricValue.Fixed4(),
		}
	}
	return out
}

// WriteTimeSeriesCSV writes the header and rows in the fixed column order.
func WriteTimeSeriesCSV(w io.Writer, rows []models.TimeSeriesDownloadRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(TimeSeriesColumns); err != nil {
		return err
	}
	for i := range rows {
		r := &rows[i]
		record := []string{
			r.Theme, r.SubTheme, r.Topic, r.GeographyType, r.Geography, r.Metric,
			r.MetricFrequency, r.Sex, r.Age, r.Stratum,
			strconv.Itoa(r.Year), strconv.Itoa(r.Epiweek), r.Date, r.MetricValue,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteHeadlineCSV writes headline rows in the fixed column order.
func WriteHeadlineCSV(w io.Writer, rows []models.HeadlineDownloadRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(HeadlineColumns); err != nil {
		return err
	}
	for i := range rows {
		r := &rows[i]
		record := []string{
			r.Theme, r.SubTheme, r.Topic, r.GeographyType, r.Geography, r.Metric,
			r.Sex, r.Age, r.Stratum, r.PeriodStart, r.PeriodEnd, r.MetricValue,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
