// Epimetrics - Public Health Metrics Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/epimetrics

package shaping

import (
	"time"

	"github.com/tomtom215/epimetrics/internal/models"
)

// MonthEnd returns the last calendar day of t's month.
func MonthEnd(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC)
}

// RollupMonthEnd groups a date-keyed plot by month and keeps one point per
// month: the value of the latest date seen in that month, placed on the
// month-end date. Plots whose x-axis is not a date are returned unchanged.
func RollupMonthEnd(plot models.PlotData) models.PlotData {
	for _, pt := range plot.Points {
		if pt.X.Kind != models.AxisKindDate {
			return plot
		}
	}

	type bucket struct {
		latest time.Time
		point  models.PlotPoint
	}
	var order []time.Time
	buckets := map[time.Time]*bucket{}
	for _, pt := range plot.Points {
		end := MonthEnd(pt.X.Date)
		b, ok := buckets[end]
		if !ok {
			b = &bucket{}
			buckets[end] = b
			order = append(order, end)
		}
		if !ok || pt.X.Date.After(b.latest) {
			b.latest = pt.X.Date
			b.point = pt
			b.point.X = models.DateValue(end)
		}
	}

	out := plot
	out.Points = make([]models.PlotPoint, 0, len(order))
	for _, end := range order {
		out.Points = append(out.Points, buckets[end].point)
	}
	return out
}

// LegacyTable builds the flat (v2) table: month-end rollup per plot, then
// one row per reference with a key per plot label. Missing cells are null.
func LegacyTable(plots []models.PlotData, xAxis string) []models.LegacyTableRow {
	rolled := make([]models.PlotData, len(plots))
	for i := range plots {
		rolled[i] = RollupMonthEnd(plots[i])
	}

	refs, cells := collect(rolled, xAxis)
	rows := make([]models.LegacyTableRow, 0, len(refs))
	for _, ref := range refs {
		row := models.LegacyTableRow{"reference": ref}
		for i := range rolled {
			label := PlotLabel(rolled[i].Parameters, i)
			if c, ok := cells[i][ref]; ok {
				row[label] = c.value
			} else {
				row[label] = nil
			}
		}
		rows = append(rows, row)
	}
	return rows
}
