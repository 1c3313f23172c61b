// Epimetrics - Public Health Metrics Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/epimetrics

package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/tomtom215/epimetrics/internal/database/query"
	"github.com/tomtom215/epimetrics/internal/metrics"
	"github.com/tomtom215/epimetrics/internal/models"
)

// MetricExists reports whether metric is registered under topic.
func (db *DB) MetricExists(ctx context.Context, topic, metric string) (bool, error) {
	start := time.Now()
	var n int64
	err := db.conn.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM metrics m
		JOIN topics tp ON tp.id = m.topic_id
		WHERE tp.name = ? AND m.name = ?`, topic, metric).Scan(&n)
	metrics.RecordDBQuery("metric_exists", "metrics", time.Since(start), err)
	if err != nil {
		return false, wrapQueryError("failed to look up metric", err)
	}
	return n > 0, nil
}

// MetricGroup returns the metric group name of metric under topic, or ""
// when the metric has no group.
func (db *DB) MetricGroup(ctx context.Context, topic, metric string) (string, error) {
	var group sql.NullString
	err := db.conn.QueryRowContext(ctx, `
		SELECT mg.name FROM metrics m
		JOIN topics tp ON tp.id = m.topic_id
		LEFT JOIN metric_groups mg ON mg.id = m.metric_group_id
		WHERE tp.name = ? AND m.name = ?`, topic, metric).Scan(&group)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", wrapQueryError("failed to look up metric group", err)
	}
	return group.String, nil
}

// GeographiesOfType lists every geography of the named type, by name.
func (db *DB) GeographiesOfType(ctx context.Context, geographyType string) ([]models.Geography, error) {
	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, `
		SELECT g.name, g.geography_code FROM geographies g
		JOIN geography_types gt ON gt.id = g.geography_type_id
		WHERE gt.name = ?
		ORDER BY g.name`, geographyType)
	metrics.RecordDBQuery("geographies_of_type", "geographies", time.Since(start), err)
	if err != nil {
		return nil, wrapQueryError("failed to list geographies", err)
	}
	defer closeWithLog(rows, "rows")

	var out []models.Geography
	for rows.Next() {
		var g models.Geography
		if err := rows.Scan(&g.Name, &g.GeographyCode); err != nil {
			return nil, wrapQueryError("failed to scan geography", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// RelatedGeography finds the geography of relatedType linked to the given
// geography, in either direction of the relation. ok is false when there is
// no such link.
func (db *DB) RelatedGeography(ctx context.Context, geographyType, geography, relatedType string) (related models.Geography, ok bool, err error) {
	err = db.conn.QueryRowContext(ctx, `
		SELECT r.name, r.geography_code
		FROM geographies g
		JOIN geography_types gt ON gt.id = g.geography_type_id
		JOIN geography_relations gr ON gr.geography_id = g.id OR gr.related_geography_id = g.id
		JOIN geographies r ON r.id = CASE WHEN gr.geography_id = g.id THEN gr.related_geography_id ELSE gr.geography_id END
		JOIN geography_types rt ON rt.id = r.geography_type_id
		WHERE gt.name = ? AND g.name = ? AND rt.name = ?
		ORDER BY r.name
		LIMIT 1`, geographyType, geography, relatedType).Scan(&related.Name, &related.GeographyCode)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Geography{}, false, nil
	}
	if err != nil {
		return models.Geography{}, false, wrapQueryError("failed to resolve related geography", err)
	}
	return related, true, nil
}

// GeographiesWithData lists, per geography type, the geographies that have
// at least one released value for topic in either fact table that access
// allows the caller to read.
func (db *DB) GeographiesWithData(ctx context.Context, topic string, access query.Access) ([]models.GeographiesByType, error) {
	start := time.Now()
	sqlQuery, args := query.CompileGeographiesWithData(topic, db.Now(), access)
	rows, err := db.conn.QueryContext(ctx, sqlQuery, args...)
	metrics.RecordDBQuery("geographies_with_data", "geographies", time.Since(start), err)
	if err != nil {
		return nil, wrapQueryError("failed to list geographies with data", err)
	}
	defer closeWithLog(rows, "rows")

	var out []models.GeographiesByType
	for rows.Next() {
		var geographyType string
		var g models.Geography
		if err := rows.Scan(&geographyType, &g.Name, &g.GeographyCode); err != nil {
			return nil, wrapQueryError("failed to scan geography", err)
		}
		if n := len(out); n == 0 || out[n-1].GeographyType != geographyType {
			out = append(out, models.GeographiesByType{GeographyType: geographyType})
		}
		last := &out[len(out)-1]
		last.Geographies = append(last.Geographies, g)
	}
	return out, rows.Err()
}
