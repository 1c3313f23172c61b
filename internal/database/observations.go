// Epimetrics - Public Health Metrics Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/epimetrics

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tomtom215/epimetrics/internal/authz"
	"github.com/tomtom215/epimetrics/internal/database/query"
	"github.com/tomtom215/epimetrics/internal/logging"
	"github.com/tomtom215/epimetrics/internal/metrics"
	"github.com/tomtom215/epimetrics/internal/models"
)

const (
	tableTimeSeries = "timeseries"
	tableHeadline   = "headline"
)

// FilterTimeSeries returns the live time-series rows matching q.
//
// An empty result is not an error. Two live rows for the same equivalence
// class fail the whole call with an *AmbiguityError.
func (db *DB) FilterTimeSeries(ctx context.Context, q query.ObservationQuery) ([]models.TimeSeriesObservation, error) {
	q = db.prepare(q, query.TimeSeries)
	var out []models.TimeSeriesObservation
	err := db.filter(ctx, q, tableTimeSeries, func(rows *sql.Rows) (models.Observation, int64, error) {
		o, ties, err := scanTimeSeries(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, o)
		return &out[len(out)-1], ties, nil
	})
	if err != nil {
		return nil, err
	}
	out = keepVisible(out, q, tableTimeSeries)
	metrics.RecordObservations(tableTimeSeries, len(out))
	return out, nil
}

// FilterHeadlines returns the live headline rows matching q.
func (db *DB) FilterHeadlines(ctx context.Context, q query.ObservationQuery) ([]models.HeadlineObservation, error) {
	q = db.prepare(q, query.Headline)
	var out []models.HeadlineObservation
	err := db.filter(ctx, q, tableHeadline, func(rows *sql.Rows) (models.Observation, int64, error) {
		o, ties, err := scanHeadline(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, o)
		return &out[len(out)-1], ties, nil
	})
	if err != nil {
		return nil, err
	}
	out = keepVisible(out, q, tableHeadline)
	metrics.RecordObservations(tableHeadline, len(out))
	return out, nil
}

// prepare pins the table and the wall clock for one read.
func (db *DB) prepare(q query.ObservationQuery, t query.Table) query.ObservationQuery {
	q.Table = t
	if q.Now.IsZero() {
		q.Now = db.Now()
	}
	return q
}

// rowScanner scans the current row, keeps it, and returns it with its tie count.
type rowScanner func(rows *sql.Rows) (models.Observation, int64, error)

func (db *DB) filter(ctx context.Context, q query.ObservationQuery, table string, scan rowScanner) (err error) {
	start := time.Now()
	defer func() {
		metrics.RecordDBQuery("filter", table, time.Since(start), err)
	}()

	sqlQuery, args, err := query.Compile(q)
	if err != nil {
		return err
	}

	rows, err := db.conn.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return wrapQueryError("failed to filter "+table+" observations", err)
	}
	defer closeWithLog(rows, "rows")

	for rows.Next() {
		o, ties, scanErr := scan(rows)
		if scanErr != nil {
			return fmt.Errorf("failed to scan %s observation: %w", table, scanErr)
		}
		// Audit reads list every version, duplicates included.
		if ties > 1 && !q.AllVersions {
			ambiguity := &AmbiguityError{Table: table, Key: describe(o), Count: ties}
			logging.Ctx(ctx).Error().Err(ambiguity).Msg("Data integrity defect in observation store")
			return ambiguity
		}
	}
	if err := rows.Err(); err != nil {
		return wrapQueryError("error iterating "+table+" observations", err)
	}
	return nil
}

// keepVisible is the access filter applied after the query. The planner
// already restricts the read, so anything dropped here is counted.
func keepVisible[T any, P interface {
	*T
	models.Observation
}](rows []T, q query.ObservationQuery, table string) []T {
	kept := rows[:0]
	var denied, embargoed int
	for i := range rows {
		o := P(&rows[i])
		switch {
		case !authz.Visible(o, q.Access.Permissions, q.Access.Settings):
			denied++
		case !q.AllVersions && !authz.Released(o, q.Now):
			embargoed++
		default:
			kept = append(kept, rows[i])
		}
	}
	metrics.RecordDropped(table, "access", denied)
	metrics.RecordDropped(table, "embargo", embargoed)
	return kept
}

func describe(o models.Observation) string {
	c := o.Classifier()
	key := fmt.Sprintf("%s/%s/%s/%s/%s/%s", c.Topic, c.Metric, c.GeographyType, c.Geography, c.Age, c.Stratum)
	switch v := o.(type) {
	case *models.TimeSeriesObservation:
		return fmt.Sprintf("%s sex=%s date=%s", key, v.Sex, v.Date.Format(models.DateLayout))
	case *models.HeadlineObservation:
		return fmt.Sprintf("%s sex=%s period=%s..%s", key, v.Sex,
			v.PeriodStart.Format(time.RFC3339), v.PeriodEnd.Format(time.RFC3339))
	}
	return key
}

func scanTimeSeries(rows *sql.Rows) (models.TimeSeriesObservation, int64, error) {
	var (
		o        models.TimeSeriesObservation
		embargo  sql.NullTime
		isPublic sql.NullBool
		ties     int64
	)
	err := rows.Scan(
		&o.Theme, &o.SubTheme, &o.Topic, &o.Metric, &o.MetricFrequency,
		&o.GeographyType, &o.Geography, &o.GeographyCode, &o.Age, &o.Stratum, &o.Sex,
		&o.Year, &o.Month, &o.Epiweek, &o.Date,
		&o.MetricValue,
		&o.RefreshDate, &embargo, &isPublic, &o.InReportingDelayPeriod, &o.ForceWrite,
		&ties,
	)
	if err != nil {
		return o, 0, err
	}
	o.Date = o.Date.UTC()
	o.RefreshDate = o.RefreshDate.UTC()
	o.Embargo = nullTime(embargo)
	o.IsPublic = nullBool(isPublic)
	return o, ties, nil
}

func scanHeadline(rows *sql.Rows) (models.HeadlineObservation, int64, error) {
	var (
		o        models.HeadlineObservation
		embargo  sql.NullTime
		isPublic sql.NullBool
		ties     int64
	)
	err := rows.Scan(
		&o.Theme, &o.SubTheme, &o.Topic, &o.Metric,
		&o.GeographyType, &o.Geography, &o.GeographyCode, &o.Age, &o.Stratum, &o.Sex,
		&o.PeriodStart, &o.PeriodEnd,
		&o.MetricValue,
		&o.RefreshDate, &embargo, &isPublic,
		&ties,
	)
	if err != nil {
		return o, 0, err
	}
	o.PeriodStart = o.PeriodStart.UTC()
	o.PeriodEnd = o.PeriodEnd.UTC()
	o.RefreshDate = o.RefreshDate.UTC()
	o.Embargo = nullTime(embargo)
	o.IsPublic = nullBool(isPublic)
	return o, ties, nil
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	return models.Time(t.Time.UTC())
}

func nullBool(b sql.NullBool) *bool {
	if !b.Valid {
		return nil
	}
	return models.Bool(b.Bool)
}
