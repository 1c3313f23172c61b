// Epimetrics - Public Health Metrics Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/epimetrics

package assembler

import (
	"context"
	"strings"
	"time"

	"github.com/tomtom215/epimetrics/internal/database/query"
	"github.com/tomtom215/epimetrics/internal/logging"
	"github.com/tomtom215/epimetrics/internal/models"
	"github.com/tomtom215/epimetrics/internal/resolver"
)

// scalar is the newest live value of one classification.
type scalar struct {
	value models.Decimal
	date  time.Time
}

// Map builds the choropleth payload: one case per geography with the main
// metric's newest value in the date range, and each accompanying point
// resolved against a classification inherited from the main one.
func (a *Assembler) Map(ctx context.Context, req *models.MapRequest, access query.Access) (*models.MapResponse, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	from, to, err := resolver.DateRange(req.DateFrom, req.DateTo)
	if err != nil {
		return nil, &ValidationError{Message: err.Error(), Err: err}
	}
	main := req.Parameters
	if err := a.checkMetric(ctx, main.Topic, main.Metric); err != nil {
		return nil, err
	}
	for _, ap := range req.AccompanyingPoints {
		if ap.Parameters.Metric == "" {
			continue
		}
		if err := a.checkMetric(ctx, firstNonEmpty(ap.Parameters.Topic, main.Topic), ap.Parameters.Metric); err != nil {
			return nil, err
		}
	}

	geographies, err := a.mapGeographies(ctx, main)
	if err != nil {
		return nil, err
	}

	resp := &models.MapResponse{Data: make([]models.MapCase, 0, len(geographies))}
	var latest time.Time
	for _, g := range geographies {
		c := models.MapCase{
			GeographyType: main.GeographyType,
			GeographyCode: g.GeographyCode,
			Geography:     g.Name,
		}

		q := a.scalarQuery(models.Classification{
			Theme:         main.Theme,
			SubTheme:      main.SubTheme,
			Topic:         main.Topic,
			Metric:        main.Metric,
			GeographyType: main.GeographyType,
			Geography:     g.Name,
			Age:           main.Age,
			Stratum:       main.Stratum,
		}, main.Sex, from, to, access)
		value, ok, err := a.newest(ctx, q)
		if err != nil {
			return nil, err
		}
		if !ok {
			resp.Data = append(resp.Data, c)
			continue
		}

		c.MetricValue = &value.value
		if value.date.After(latest) {
			latest = value.date
		}
		c.AccompanyingPoints = make([]models.MapAccompanyingPointResult, 0, len(req.AccompanyingPoints))
		for _, ap := range req.AccompanyingPoints {
			point, err := a.accompanyingPoint(ctx, main, g.Name, ap, from, to, access)
			if err != nil {
				return nil, err
			}
			c.AccompanyingPoints = append(c.AccompanyingPoints, point)
		}
		resp.Data = append(resp.Data, c)
	}

	if !latest.IsZero() {
		s := latest.Format(models.DateLayout)
		resp.LatestDate = &s
	}
	return resp, nil
}

// mapGeographies lists the geographies a map covers: every geography of
// the main type, or the requested subset in request order. Requested names
// unknown to the store keep an empty code and produce a null case.
func (a *Assembler) mapGeographies(ctx context.Context, main models.MapParameters) ([]models.Geography, error) {
	all, err := a.store.GeographiesOfType(ctx, main.GeographyType)
	if err != nil {
		return nil, err
	}
	if len(main.Geographies) == 0 {
		return all, nil
	}

	codes := make(map[string]string, len(all))
	for _, g := range all {
		codes[g.Name] = g.GeographyCode
	}
	out := make([]models.Geography, 0, len(main.Geographies))
	for _, name := range main.Geographies {
		out = append(out, models.Geography{Name: name, GeographyCode: codes[name]})
	}
	return out, nil
}

// accompanyingPoint fills the point's unset fields from the main
// classification. A point naming a different geography type, and no
// geography, reads the geography of that type related to the case's.
func (a *Assembler) accompanyingPoint(ctx context.Context, main models.MapParameters, geography string, ap models.AccompanyingPoint, from, to *time.Time, access query.Access) (models.MapAccompanyingPointResult, error) {
	result := models.MapAccompanyingPointResult{LabelPrefix: ap.LabelPrefix, LabelSuffix: ap.LabelSuffix}
	p := ap.Parameters

	geographyType := firstNonEmpty(p.GeographyType, main.GeographyType)
	target := p.Geography
	if target == "" {
		target = geography
		if geographyType != main.GeographyType {
			related, ok, err := a.store.RelatedGeography(ctx, main.GeographyType, geography, geographyType)
			if err != nil {
				return result, err
			}
			if !ok {
				logging.Ctx(ctx).Debug().Str("geography", geography).Str("related_type", geographyType).Msg("No related geography for accompanying point")
				return result, nil
			}
			target = related.Name
		}
	}

	q := a.scalarQuery(models.Classification{
		Theme:         firstNonEmpty(p.Theme, main.Theme),
		SubTheme:      firstNonEmpty(p.SubTheme, main.SubTheme),
		Topic:         firstNonEmpty(p.Topic, main.Topic),
		Metric:        firstNonEmpty(p.Metric, main.Metric),
		GeographyType: geographyType,
		Geography:     target,
		Age:           firstNonEmpty(p.Age, main.Age),
		Stratum:       firstNonEmpty(p.Stratum, main.Stratum),
	}, firstNonEmpty(p.Sex, main.Sex), from, to, access)

	value, ok, err := a.newest(ctx, q)
	if err != nil {
		return result, err
	}
	if ok {
		result.MetricValue = &value.value
	}
	return result, nil
}

// scalarQuery reads the single newest live row of a classification.
func (a *Assembler) scalarQuery(c models.Classification, sex string, from, to *time.Time, access query.Access) query.ObservationQuery {
	q := query.ObservationQuery{
		Table:    query.TimeSeries,
		Filters:  c,
		Sex:      strings.ToLower(sex),
		DateFrom: from,
		DateTo:   to,
		Order:    query.Descending,
		Limit:    1,
		Access:   access,
	}
	if models.IsHeadlineMetric(c.Metric) {
		q.Table = query.Headline
	}
	return q
}

// newest runs a single-row query against the table it names.
func (a *Assembler) newest(ctx context.Context, q query.ObservationQuery) (scalar, bool, error) {
	if q.Table == query.Headline {
		rows, err := a.store.FilterHeadlines(ctx, q)
		if err != nil || len(rows) == 0 {
			return scalar{}, false, err
		}
		return scalar{value: rows[0].MetricValue, date: rows[0].PeriodEnd}, true, nil
	}
	rows, err := a.store.FilterTimeSeries(ctx, q)
	if err != nil || len(rows) == 0 {
		return scalar{}, false, err
	}
	return scalar{value: rows[0].MetricValue, date: rows[0].Date}, true, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
