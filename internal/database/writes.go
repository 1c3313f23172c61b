// Epimetrics - Public Health Metrics Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/epimetrics

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/epimetrics/internal/metrics"
	"github.com/tomtom215/epimetrics/internal/models"
)

// classificationIDs are the fact-table references of one classification.
type classificationIDs struct {
	metric    int64
	geography int64
	age       int64
	stratum   int64
}

// InsertTimeSeries writes time-series rows in one transaction, creating any
// dimension entity that does not exist yet. It is the write path used by
// mock seeding and test fixtures; production rows arrive through ingestion.
func (db *DB) InsertTimeSeries(ctx context.Context, rows []models.TimeSeriesObservation) error {
	return db.withTx(ctx, "insert_timeseries", "core_timeseries", func(tx *sql.Tx) error {
		known := classificationCache{}
		for i := range rows {
			o := &rows[i]
			ids, err := known.ensure(ctx, tx, o.Classification)
			if err != nil {
				return err
			}
			year, month, epiweek := o.Year, o.Month, o.Epiweek
			if year == 0 {
				year = o.Date.Year()
			}
			if month == 0 {
				month = int(o.Date.Month())
			}
			if epiweek == 0 {
				_, epiweek = o.Date.ISOWeek()
			}
			sex := strings.ToLower(o.Sex)
			if sex == "" {
				sex = models.SexAll
			}
			_, err = tx.ExecContext(ctx, `
				INSERT INTO core_timeseries (
					metric_id, geography_id, age_id, stratum_id,
					metric_frequency, sex, year, month, epiweek, date,
					metric_value, refresh_date, embargo, is_public,
					in_reporting_delay_period, force_write
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CAST(? AS DECIMAL(18,4)), ?, ?, ?, ?, ?)`,
				ids.metric, ids.geography, ids.age, ids.stratum,
				o.MetricFrequency, sex, year, month, epiweek, o.Date.UTC(),
				o.MetricValue.String(), o.RefreshDate.UTC(), nullableTime(o.Embargo), nullableBool(o.IsPublic),
				o.InReportingDelayPeriod, o.ForceWrite,
			)
			if err != nil {
				return fmt.Errorf("failed to insert time-series row %d: %w", i, err)
			}
		}
		return nil
	})
}

// InsertHeadlines writes headline rows in one transaction.
func (db *DB) InsertHeadlines(ctx context.Context, rows []models.HeadlineObservation) error {
	return db.withTx(ctx, "insert_headline", "core_headline", func(tx *sql.Tx) error {
		known := classificationCache{}
		for i := range rows {
			o := &rows[i]
			ids, err := known.ensure(ctx, tx, o.Classification)
			if err != nil {
				return err
			}
			sex := strings.ToLower(o.Sex)
			if sex == "" {
				sex = models.SexAll
			}
			_, err = tx.ExecContext(ctx, `
				INSERT INTO core_headline (
					metric_id, geography_id, age_id, stratum_id, sex,
					period_start, period_end, metric_value, refresh_date, embargo, is_public
				) VALUES (?, ?, ?, ?, ?, ?, ?, CAST(? AS DECIMAL(18,4)), ?, ?, ?)`,
				ids.metric, ids.geography, ids.age, ids.stratum, sex,
				o.PeriodStart.UTC(), o.PeriodEnd.UTC(), o.MetricValue.String(), o.RefreshDate.UTC(),
				nullableTime(o.Embargo), nullableBool(o.IsPublic),
			)
			if err != nil {
				return fmt.Errorf("failed to insert headline row %d: %w", i, err)
			}
		}
		return nil
	})
}

// LinkGeographies records that child (of childType) lies within parent (of
// parentType). Both geographies are created when missing; a geography code
// is only set when the geography is first written with one.
func (db *DB) LinkGeographies(ctx context.Context, childType, child, parentType, parent string) error {
	return db.withTx(ctx, "link_geographies", "geography_relations", func(tx *sql.Tx) error {
		childID, err := ensureGeography(ctx, tx, childType, child, "")
		if err != nil {
			return err
		}
		parentID, err := ensureGeography(ctx, tx, parentType, parent, "")
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO geography_relations (geography_id, related_geography_id)
			VALUES (?, ?) ON CONFLICT DO NOTHING`, childID, parentID)
		if err != nil {
			return fmt.Errorf("failed to link geographies: %w", err)
		}
		return nil
	})
}

func (db *DB) withTx(ctx context.Context, operation, table string, fn func(tx *sql.Tx) error) (err error) {
	start := time.Now()
	defer func() {
		metrics.RecordDBQuery(operation, table, time.Since(start), err)
	}()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return wrapQueryError("failed to begin transaction", err)
	}
	if err = fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// classificationCache memoises classification ids within one transaction.
type classificationCache map[models.Classification]classificationIDs

func (c classificationCache) ensure(ctx context.Context, tx *sql.Tx, class models.Classification) (classificationIDs, error) {
	if ids, ok := c[class]; ok {
		return ids, nil
	}
	ids, err := ensureClassification(ctx, tx, class)
	if err != nil {
		return ids, err
	}
	c[class] = ids
	return ids, nil
}

func ensureClassification(ctx context.Context, tx *sql.Tx, c models.Classification) (classificationIDs, error) {
	var ids classificationIDs
	themeID, err := ensureID(ctx, tx, "themes", []string{"name"}, c.Theme)
	if err != nil {
		return ids, err
	}
	subThemeID, err := ensureID(ctx, tx, "sub_themes", []string{"theme_id", "name"}, themeID, c.SubTheme)
	if err != nil {
		return ids, err
	}
	topicID, err := ensureID(ctx, tx, "topics", []string{"sub_theme_id", "name"}, subThemeID, c.Topic)
	if err != nil {
		return ids, err
	}
	groupID, err := ensureID(ctx, tx, "metric_groups", []string{"topic_id", "name"}, topicID, models.MetricGroup(c.Metric))
	if err != nil {
		return ids, err
	}
	ids.metric, err = ensureIDWith(ctx, tx, "metrics",
		[]string{"topic_id", "name"}, []interface{}{topicID, c.Metric},
		[]string{"metric_group_id"}, []interface{}{groupID})
	if err != nil {
		return ids, err
	}
	if ids.geography, err = ensureGeography(ctx, tx, c.GeographyType, c.Geography, c.GeographyCode); err != nil {
		return ids, err
	}
	if ids.age, err = ensureID(ctx, tx, "ages", []string{"name"}, c.Age); err != nil {
		return ids, err
	}
	if ids.stratum, err = ensureID(ctx, tx, "strata", []string{"name"}, c.Stratum); err != nil {
		return ids, err
	}
	return ids, nil
}

func ensureGeography(ctx context.Context, tx *sql.Tx, geographyType, geography, code string) (int64, error) {
	typeID, err := ensureID(ctx, tx, "geography_types", []string{"name"}, geographyType)
	if err != nil {
		return 0, err
	}
	return ensureIDWith(ctx, tx, "geographies",
		[]string{"geography_type_id", "name"}, []interface{}{typeID, geography},
		[]string{"geography_code"}, []interface{}{code})
}

// ensureID returns the id of the row whose key columns equal values,
// inserting it first when absent. Table and column names are constants of
// this package.
func ensureID(ctx context.Context, tx *sql.Tx, table string, columns []string, values ...interface{}) (int64, error) {
	return ensureIDWith(ctx, tx, table, columns, values, nil, nil)
}

// ensureIDWith is ensureID with extra columns that are written only when
// the row is created. Existing rows are never updated.
func ensureIDWith(ctx context.Context, tx *sql.Tx, table string, keys []string, keyValues []interface{}, extra []string, extraValues []interface{}) (int64, error) {
	where := make([]string, len(keys))
	for i, c := range keys {
		where[i] = c + " = ?"
	}

	var id int64
	err := tx.QueryRowContext(ctx,
		fmt.Sprintf("SELECT id FROM %s WHERE %s", table, strings.Join(where, " AND ")),
		keyValues...).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to look up %s: %w", table, err)
	}

	columns := append(append([]string{}, keys...), extra...)
	values := append(append([]interface{}{}, keyValues...), extraValues...)
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")

	err = tx.QueryRowContext(ctx,
		fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING id", table, strings.Join(columns, ", "), placeholders),
		values...).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	return id, nil
}

func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func nullableBool(b *bool) interface{} {
	if b == nil {
		return nil
	}
	return *b
}
