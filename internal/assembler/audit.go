// Epimetrics - Public Health Metrics Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/epimetrics

package assembler

import (
	"context"
	"strings"

	"github.com/tomtom215/epimetrics/internal/database/query"
	"github.com/tomtom215/epimetrics/internal/models"
)

// Geographies lists, per geography type, the geographies holding live
// data for topic that the caller can read.
func (a *Assembler) Geographies(ctx context.Context, topic string, access query.Access) ([]models.GeographiesByType, error) {
	if strings.TrimSpace(topic) == "" {
		return nil, invalid("topic is required")
	}
	out, err := a.store.GeographiesWithData(ctx, topic, access)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.GeographiesByType{}
	}
	return out, nil
}

func auditQuery(table query.Table, q *models.AuditQuery, access query.Access) query.ObservationQuery {
	return query.ObservationQuery{
		Table: table,
		Filters: models.Classification{
			Metric:        q.Metric,
			GeographyType: q.GeographyType,
			Geography:     q.Geography,
			Age:           q.Age,
			Stratum:       q.Stratum,
		},
		Sex:         strings.ToLower(q.Sex),
		Access:      access,
		AllVersions: true,
	}
}

// AuditTimeSeries returns every stored version of a time-series
// classification, embargoed ones included. Access rules still apply.
func (a *Assembler) AuditTimeSeries(ctx context.Context, q *models.AuditQuery, access query.Access) ([]models.TimeSeriesObservation, error) {
	if err := validateStruct(q); err != nil {
		return nil, err
	}
	rows, err := a.store.FilterTimeSeries(ctx, auditQuery(query.TimeSeries, q, access))
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []models.TimeSeriesObservation{}
	}
	return rows, nil
}

// AuditHeadlines returns every stored version of a headline classification.
func (a *Assembler) AuditHeadlines(ctx context.Context, q *models.AuditQuery, access query.Access) ([]models.HeadlineObservation, error) {
	if err := validateStruct(q); err != nil {
		return nil, err
	}
	rows, err := a.store.FilterHeadlines(ctx, auditQuery(query.Headline, q, access))
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []models.HeadlineObservation{}
	}
	return rows, nil
}
