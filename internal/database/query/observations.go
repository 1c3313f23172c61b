// Epimetrics - Public Health Metrics Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/epimetrics

package query

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/epimetrics/internal/authz"
	"github.com/tomtom215/epimetrics/internal/models"
)

// Table selects the fact table an ObservationQuery reads.
type Table int

const (
	// TimeSeries reads core_timeseries, one row per date.
	TimeSeries Table = iota
	// Headline reads core_headline, one row per reporting period.
	Headline
)

// String returns the view name for the table.
func (t Table) String() string {
	if t == Headline {
		return "core_headline_v"
	}
	return "core_timeseries_v"
}

// Order is the direction of the date (or period_end) ordering.
type Order int

const (
	Ascending Order = iota
	Descending
)

// Access is the caller's effective access: the process switches and the
// permission set resolved from the group header.
type Access struct {
	Settings    authz.Settings
	Permissions models.PermissionSet
}

// ObservationQuery describes one read of live observations. The zero value
// of every filter field is a wildcard.
type ObservationQuery struct {
	Table   Table
	Filters models.Classification
	Sex     string

	// Geographies restricts to any of the named geographies.
	Geographies []string

	// DateFrom and DateTo bound date for time series, period_end for
	// headlines. Both are inclusive.
	DateFrom *time.Time
	DateTo   *time.Time

	Order Order
	Limit int

	// Now is the wall clock used by the embargo gate.
	Now time.Time

	Access Access

	// AllVersions returns every refresh of every row, embargoed or not.
	// Only the audit endpoints set it.
	AllVersions bool
}

// TieColumn is the extra column carrying the number of rows that share the
// selected row's equivalence class and refresh_date. Anything above 1 is a
// data defect.
const TieColumn = "tie_count"

// ErrNowRequired is returned when a live query has no wall clock.
var ErrNowRequired = errors.New("query: Now is required for the embargo gate")

var timeSeriesColumns = []string{
	"theme", "sub_theme", "topic", "metric", "metric_frequency",
	"geography_type", "geography", "geography_code", "age", "stratum", "sex",
	"year", "month", "epiweek", "date",
	"CAST(metric_value AS VARCHAR) AS metric_value",
	"refresh_date", "embargo", "is_public", "in_reporting_delay_period", "force_write",
}

var headlineColumns = []string{
	"theme", "sub_theme", "topic", "metric",
	"geography_type", "geography", "geography_code", "age", "stratum", "sex",
	"period_start", "period_end",
	"CAST(metric_value AS VARCHAR) AS metric_value",
	"refresh_date", "embargo", "is_public",
}

// Columns returns the select list for t, in scan order. The tie column is
// always last.
func Columns(t Table) []string {
	if t == Headline {
		return headlineColumns
	}
	return timeSeriesColumns
}

// equivalenceClass is the dedup partition: classification ids, sex and the
// date (or period) key.
func equivalenceClass(t Table) string {
	if t == Headline {
		return "metric_id, geography_id, age_id, stratum_id, sex, period_start, period_end"
	}
	return "metric_id, geography_id, age_id, stratum_id, sex, date"
}

func dateColumn(t Table) string {
	if t == Headline {
		return "period_end"
	}
	return "date"
}

// Compile renders q as a DuckDB statement.
//
// Field match, the embargo gate and the access predicate are applied in
// WHERE, so dedup only ranks rows the caller could see: a caller without a
// matching permission falls back to the newest public version of a row.
// Dedup keeps rank 1 within each equivalence class ordered by refresh_date
// descending. RANK rather than ROW_NUMBER keeps duplicate refreshes so the
// caller can report them through TieColumn.
func Compile(q ObservationQuery) (string, []interface{}, error) {
	if !q.AllVersions && q.Now.IsZero() {
		return "", nil, ErrNowRequired
	}

	wb := NewWhereBuilder()
	addFieldMatch(wb, q)
	wb.AddRange(dateColumn(q.Table), q.DateFrom, q.DateTo)
	if !q.AllVersions {
		wb.AddClause("(embargo IS NULL OR embargo <= ?)", q.Now.UTC())
	}
	addAccess(wb, q.Access)

	where, args := wb.BuildWithPrefix()
	partition := equivalenceClass(q.Table)

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(Columns(q.Table), ", "))
	fmt.Fprintf(&sb, ", COUNT(*) OVER (PARTITION BY %s, refresh_date) AS %s", partition, TieColumn)
	fmt.Fprintf(&sb, " FROM %s %s", q.Table, where)
	if !q.AllVersions {
		fmt.Fprintf(&sb, " QUALIFY RANK() OVER (PARTITION BY %s ORDER BY refresh_date DESC) = 1", partition)
	}
	sb.WriteString(" ORDER BY ")
	sb.WriteString(orderBy(q))
	if q.Limit > 0 {
		fmt.Fprintf(&sb, " LIMIT %d", q.Limit)
	}
	return sb.String(), args, nil
}

// CompileGeographiesWithData lists the distinct geographies of topic that
// hold at least one released row the caller may read, across both fact
// tables. It applies the same embargo gate and access predicate as Compile.
func CompileGeographiesWithData(topic string, now time.Time, access Access) (string, []interface{}) {
	parts := make([]string, 0, 2)
	var args []interface{}
	for _, t := range []Table{TimeSeries, Headline} {
		wb := NewWhereBuilder()
		wb.AddEquals("topic", topic)
		wb.AddClause("(embargo IS NULL OR embargo <= ?)", now.UTC())
		addAccess(wb, access)
		where, tableArgs := wb.BuildWithPrefix()
		parts = append(parts, fmt.Sprintf("SELECT geography_type, geography, geography_code FROM %s %s", t, where))
		args = append(args, tableArgs...)
	}
	sql := "SELECT DISTINCT geography_type, geography, geography_code FROM (" +
		strings.Join(parts, " UNION ALL ") +
		") AS with_data ORDER BY geography_type, geography"
	return sql, args
}

func addFieldMatch(wb *WhereBuilder, q ObservationQuery) {
	f := q.Filters
	wb.AddEquals("theme", f.Theme).
		AddEquals("sub_theme", f.SubTheme).
		AddEquals("topic", f.Topic).
		AddEquals("metric", f.Metric).
		AddEquals("geography_type", f.GeographyType).
		AddEquals("geography", f.Geography).
		AddEquals("geography_code", f.GeographyCode).
		AddEquals("age", f.Age).
		AddEquals("stratum", f.Stratum).
		AddEquals("sex", strings.ToLower(q.Sex)).
		AddIn("geography", q.Geographies)
}

// addAccess renders "public OR any matching permission". The permission
// clauses walk the same dimension list as authz.Match.
func addAccess(wb *WhereBuilder, a Access) {
	if !a.Settings.AuthEnabled {
		return
	}

	public := NewWhereBuilder()
	if a.Settings.AllowMissingIsPublic {
		public.AddClause("COALESCE(is_public, TRUE)")
	} else {
		public.AddClause("COALESCE(is_public, FALSE)")
	}

	alternatives := []*WhereBuilder{public}
	for _, p := range a.Permissions {
		pb := NewWhereBuilder()
		complete := true
		for _, d := range authz.Required {
			v := d.PermissionValue(p)
			if v == "" {
				complete = false
				break
			}
			pb.AddEquals(d.Column, v)
		}
		if !complete {
			continue
		}
		for _, d := range authz.Wildcards {
			pb.AddEquals(d.Column, d.PermissionValue(p))
		}
		alternatives = append(alternatives, pb)
	}
	wb.AddAny(alternatives...)
}

func orderBy(q ObservationQuery) string {
	dir := "ASC"
	if q.Order == Descending {
		dir = "DESC"
	}
	keys := []string{dateColumn(q.Table) + " " + dir}
	if q.Table == Headline {
		keys = append(keys, "period_start "+dir)
	}
	keys = append(keys, "geography_code", "age", "stratum", "sex")
	if q.AllVersions {
		keys = append(keys, "refresh_date")
	}
	return strings.Join(keys, ", ")
}
