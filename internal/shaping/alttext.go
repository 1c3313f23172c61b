// Epimetrics - Public Health Metrics Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/epimetrics

package shaping

import (
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/epimetrics/internal/models"
)

var axisTitles = map[string]string{
	models.AxisDate:          "date",
	models.AxisMetric:        "metric value",
	models.AxisStratum:       "stratum",
	models.AxisAge:           "age",
	models.AxisGeography:     "geography",
	models.AxisGeographyType: "geography type",
}

var chartNouns = map[string]string{
	models.ChartTypeSimpleLine:            "line chart",
	models.ChartTypeLineSingleSimplified:  "line chart",
	models.ChartTypeLineMultiColoured:     "line chart",
	models.ChartTypeLineWithShadedSection: "line chart with a shaded section",
	models.ChartTypeBar:                   "bar chart",
	models.ChartTypeWaffle:                "waffle chart",
}

// AxisTitle returns the display title of an axis selector.
func AxisTitle(axis string) string {
	if t, ok := axisTitles[axis]; ok {
		return t
	}
	return axis
}

// AltText describes a chart for screen readers: chart kind, axes, plot
// count, period covered and, per plot, the lowest and highest values with
// where they occurred.
func AltText(plots []models.PlotData, xAxis, yAxis string) string {
	if len(plots) == 0 {
		return "There is no data to display."
	}

	noun := chartNouns[plots[0].Parameters.ChartType]
	if noun == "" {
		noun = "chart"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "A %s showing %s on the Y axis against %s on the X axis", noun, AxisTitle(yAxis), AxisTitle(xAxis))
	if len(plots) == 1 {
		sb.WriteString(" for 1 plot")
	} else {
		fmt.Fprintf(&sb, " for %d plots", len(plots))
	}
	if first, last, ok := period(plots); ok {
		fmt.Fprintf(&sb, ", covering %s to %s", first.Format(models.DateLayout), last.Format(models.DateLayout))
	}
	sb.WriteString(".")

	for i := range plots {
		p := &plots[i]
		lo, hi, ok := extremes(p.Points)
		if !ok {
			continue
		}
		fmt.Fprintf(&sb, " %s (%s): lowest %s at %s, highest %s at %s.",
			PlotLabel(p.Parameters, i), p.Parameters.Metric,
			FormatValue(lo.Y), lo.X.String(), FormatValue(hi.Y), hi.X.String())
	}
	return sb.String()
}

func period(plots []models.PlotData) (first, last time.Time, ok bool) {
	for i := range plots {
		for _, pt := range plots[i].Points {
			if pt.X.Kind != models.AxisKindDate {
				continue
			}
			if !ok || pt.X.Date.Before(first) {
				first = pt.X.Date
			}
			if !ok || pt.X.Date.After(last) {
				last = pt.X.Date
			}
			ok = true
		}
	}
	return first, last, ok
}

// extremes returns the points holding the minimum and maximum numeric Y.
// Ties keep the earliest point.
func extremes(points []models.PlotPoint) (lo, hi models.PlotPoint, ok bool) {
	for _, pt := range points {
		if pt.Y.Kind != models.AxisKindNumber {
			continue
		}
		if !ok {
			lo, hi, ok = pt, pt, true
			continue
		}
		if pt.Y.Number.Cmp(lo.Y.Number) < 0 {
			lo = pt
		}
		if pt.Y.Number.Cmp(hi.Y.Number) > 0 {
			hi = pt
		}
	}
	return lo, hi, ok
}
