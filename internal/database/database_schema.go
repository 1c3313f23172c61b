// Epimetrics - Public Health Metrics Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/epimetrics

/*
database_schema.go - Observation store schema

Dimension tables carry one row per named entity. Fact tables reference them
by id and hold one row per version (refresh) of an observation:

  - core_timeseries: one value per (classification, sex, date, refresh_date)
  - core_headline: one value per (classification, sex, period, refresh_date)

The uniqueness of fact rows is owned by ingestion and is deliberately not a
table constraint: the read path detects breaches and reports them as
ErrAmbiguousObservation.

The _v views resolve dimension names so the planner can filter and order on
names while still partitioning on ids.
*/

//nolint:staticcheck // File documentation, not package doc
package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with timeout for schema operations
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createSchema creates sequences, tables, indexes and views.
func (db *DB) createSchema() error {
	ctx, cancel := schemaContext()
	defer cancel()

	groups := [][]string{
		sequenceQueries(),
		dimensionTableQueries(),
		factTableQueries(),
		permissionTableQueries(),
		indexQueries(),
		viewQueries(),
	}
	for _, queries := range groups {
		for _, q := range queries {
			if _, err := db.conn.ExecContext(ctx, q); err != nil {
				return fmt.Errorf("failed to execute query: %s: %w", q, err)
			}
		}
	}
	return nil
}

func sequenceQueries() []string {
	names := []string{
		"themes", "sub_themes", "topics", "metric_groups", "metrics",
		"geography_types", "geographies", "ages", "strata",
		"core_timeseries", "core_headline", "permissions",
	}
	queries := make([]string, 0, len(names))
	for _, n := range names {
		queries = append(queries, fmt.Sprintf("CREATE SEQUENCE IF NOT EXISTS %s_id_seq START 1", n))
	}
	return queries
}

func dimensionTableQueries() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS themes (
			id BIGINT PRIMARY KEY DEFAULT nextval('themes_id_seq'),
			name TEXT NOT NULL UNIQUE
		)`,
		`CREATE TABLE IF NOT EXISTS sub_themes (
			id BIGINT PRIMARY KEY DEFAULT nextval('sub_themes_id_seq'),
			theme_id BIGINT NOT NULL REFERENCES themes(id),
			name TEXT NOT NULL,
			UNIQUE (theme_id, name)
		)`,
		`CREATE TABLE IF NOT EXISTS topics (
			id BIGINT PRIMARY KEY DEFAULT nextval('topics_id_seq'),
			sub_theme_id BIGINT NOT NULL REFERENCES sub_themes(id),
			name TEXT NOT NULL,
			UNIQUE (sub_theme_id, name)
		)`,
		`CREATE TABLE IF NOT EXISTS metric_groups (
			id BIGINT PRIMARY KEY DEFAULT nextval('metric_groups_id_seq'),
			topic_id BIGINT NOT NULL REFERENCES topics(id),
			name TEXT NOT NULL,
			UNIQUE (topic_id, name)
		)`,
		`CREATE TABLE IF NOT EXISTS metrics (
			id BIGINT PRIMARY KEY DEFAULT nextval('metrics_id_seq'),
			topic_id BIGINT NOT NULL REFERENCES topics(id),
			metric_group_id BIGINT REFERENCES metric_groups(id),
			name TEXT NOT NULL,
			UNIQUE (topic_id, name)
		)`,
		`CREATE TABLE IF NOT EXISTS geography_types (
			id BIGINT PRIMARY KEY DEFAULT nextval('geography_types_id_seq'),
			name TEXT NOT NULL UNIQUE
		)`,
		`CREATE TABLE IF NOT EXISTS geographies (
			id BIGINT PRIMARY KEY DEFAULT nextval('geographies_id_seq'),
			geography_type_id BIGINT NOT NULL REFERENCES geography_types(id),
			name TEXT NOT NULL,
			geography_code TEXT NOT NULL DEFAULT '',
			UNIQUE (geography_type_id, name)
		)`,
		// Parent/child links between geographies of different types, such
		// as an upper tier local authority and its region.
		`CREATE TABLE IF NOT EXISTS geography_relations (
			geography_id BIGINT NOT NULL REFERENCES geographies(id),
			related_geography_id BIGINT NOT NULL REFERENCES geographies(id),
			PRIMARY KEY (geography_id, related_geography_id)
		)`,
		`CREATE TABLE IF NOT EXISTS ages (
			id BIGINT PRIMARY KEY DEFAULT nextval('ages_id_seq'),
			name TEXT NOT NULL UNIQUE
		)`,
		`CREATE TABLE IF NOT EXISTS strata (
			id BIGINT PRIMARY KEY DEFAULT nextval('strata_id_seq'),
			name TEXT NOT NULL UNIQUE
		)`,
	}
}

func factTableQueries() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS core_timeseries (
			id BIGINT PRIMARY KEY DEFAULT nextval('core_timeseries_id_seq'),
			metric_id BIGINT NOT NULL REFERENCES metrics(id),
			geography_id BIGINT NOT NULL REFERENCES geographies(id),
			age_id BIGINT NOT NULL REFERENCES ages(id),
			stratum_id BIGINT NOT NULL REFERENCES strata(id),
			metric_frequency TEXT NOT NULL DEFAULT '',
			sex TEXT NOT NULL DEFAULT 'all',
			year INTEGER NOT NULL,
			month INTEGER NOT NULL,
			epiweek INTEGER NOT NULL,
			date DATE NOT NULL,
			metric_value DECIMAL(18,4) NOT NULL,
			refresh_date TIMESTAMP NOT NULL,
			embargo TIMESTAMP,
			is_public BOOLEAN,
			in_reporting_delay_period BOOLEAN NOT NULL DEFAULT FALSE,
			force_write BOOLEAN NOT NULL DEFAULT FALSE
		)`,
		`CREATE TABLE IF NOT EXISTS core_headline (
			id BIGINT PRIMARY KEY DEFAULT nextval('core_headline_id_seq'),
			metric_id BIGINT NOT NULL REFERENCES metrics(id),
			geography_id BIGINT NOT NULL REFERENCES geographies(id),
			age_id BIGINT NOT NULL REFERENCES ages(id),
			stratum_id BIGINT NOT NULL REFERENCES strata(id),
			sex TEXT NOT NULL DEFAULT 'all',
			period_start TIMESTAMP NOT NULL,
			period_end TIMESTAMP NOT NULL,
			metric_value DECIMAL(18,4) NOT NULL,
			refresh_date TIMESTAMP NOT NULL,
			embargo TIMESTAMP,
			is_public BOOLEAN
		)`,
	}
}

// permissionTableQueries creates permissions and their group links. The
// eight-field tuple is kept unique by CreatePermission: NULL wildcards are
// distinct under a SQL UNIQUE constraint.
func permissionTableQueries() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS permissions (
			id BIGINT PRIMARY KEY DEFAULT nextval('permissions_id_seq'),
			name TEXT NOT NULL UNIQUE,
			theme_id BIGINT NOT NULL REFERENCES themes(id),
			sub_theme_id BIGINT NOT NULL REFERENCES sub_themes(id),
			topic_id BIGINT REFERENCES topics(id),
			metric_id BIGINT REFERENCES metrics(id),
			geography_type_id BIGINT REFERENCES geography_types(id),
			geography_id BIGINT REFERENCES geographies(id),
			age_id BIGINT REFERENCES ages(id),
			stratum_id BIGINT REFERENCES strata(id)
		)`,
		`CREATE TABLE IF NOT EXISTS permission_groups (
			group_id UUID NOT NULL,
			permission_id BIGINT NOT NULL REFERENCES permissions(id),
			PRIMARY KEY (group_id, permission_id)
		)`,
	}
}

func indexQueries() []string {
	return []string{
		`CREATE INDEX IF NOT EXISTS idx_timeseries_class ON core_timeseries(metric_id, geography_id, age_id, stratum_id, sex, date)`,
		`CREATE INDEX IF NOT EXISTS idx_timeseries_refresh ON core_timeseries(refresh_date)`,
		`CREATE INDEX IF NOT EXISTS idx_headline_class ON core_headline(metric_id, geography_id, age_id, stratum_id, sex, period_end)`,
		`CREATE INDEX IF NOT EXISTS idx_geographies_code ON geographies(geography_code)`,
	}
}

const dimensionJoins = `
	JOIN metrics m ON m.id = f.metric_id
	JOIN topics tp ON tp.id = m.topic_id
	JOIN sub_themes st ON st.id = tp.sub_theme_id
	JOIN themes th ON th.id = st.theme_id
	JOIN geographies g ON g.id = f.geography_id
	JOIN geography_types gt ON gt.id = g.geography_type_id
	JOIN ages a ON a.id = f.age_id
	JOIN strata s ON s.id = f.stratum_id`

const dimensionNames = `
	th.name AS theme, st.name AS sub_theme, tp.name AS topic, m.name AS metric,
	gt.name AS geography_type, g.name AS geography, g.geography_code,
	a.name AS age, s.name AS stratum,
	f.metric_id, f.geography_id, f.age_id, f.stratum_id`

func viewQueries() []string {
	return []string{
		`CREATE OR REPLACE VIEW core_timeseries_v AS SELECT ` + dimensionNames + `,
			f.metric_frequency, f.sex, f.year, f.month, f.epiweek, f.date,
			f.metric_value, f.refresh_date, f.embargo, f.is_public,
			f.in_reporting_delay_period, f.force_write
		FROM core_timeseries f` + dimensionJoins,
		`CREATE OR REPLACE VIEW core_headline_v AS SELECT ` + dimensionNames + `,
			f.sex, f.period_start, f.period_end,
			f.metric_value, f.refresh_date, f.embargo, f.is_public
		FROM core_headline f` + dimensionJoins,
	}
}
