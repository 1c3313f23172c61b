// Epimetrics - Public Health Metrics Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/epimetrics

// Package shaping turns resolved plots and rows into response shapes:
// merged tables, legacy month-end tables, alt text and download rows.
// Every function here is pure.
package shaping

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/tomtom215/epimetrics/internal/models"
	"github.com/tomtom215/epimetrics/internal/resolver"
)

// MissingValue fills a table cell a plot has no value for.
const MissingValue = "-"

// PlotLabel returns the display label of the i-th plot (zero-based).
func PlotLabel(p models.PlotParameters, i int) string {
	if strings.TrimSpace(p.Label) != "" {
		return p.Label
	}
	return fmt.Sprintf("Plot%d", i+1)
}

// FormatValue renders an axis value for a table cell: numbers with four
// fraction digits, anything else as its reference string.
func FormatValue(v models.AxisValue) string {
	if v.Kind == models.AxisKindNumber {
		return v.Number.Fixed4()
	}
	return v.String()
}

type cell struct {
	value string
	delay bool
}

// MergeTable merges plots into the nested table shape keyed by the x-axis
// reference. Every row carries one value per plot in plot order. Date
// references are returned newest first, age bands youngest first and
// anything else in lexicographic order.
func MergeTable(plots []models.PlotData, xAxis string) []models.TableRow {
	refs, cells := collect(plots, xAxis)

	rows := make([]models.TableRow, 0, len(refs))
	for _, ref := range refs {
		row := models.TableRow{Reference: ref, Values: make([]models.TableValue, len(plots))}
		for i := range plots {
			c, ok := cells[i][ref]
			if !ok {
				c = cell{value: MissingValue}
			}
			row.Values[i] = models.TableValue{
				Label:                  PlotLabel(plots[i].Parameters, i),
				Value:                  c.value,
				InReportingDelayPeriod: c.delay,
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// collect indexes every plot's points by reference and returns the ordered
// union of references. The first point for a reference wins.
func collect(plots []models.PlotData, xAxis string) ([]string, []map[string]cell) {
	cells := make([]map[string]cell, len(plots))
	seen := map[string]bool{}
	var refs []string
	dateLike := true

	for i := range plots {
		cells[i] = make(map[string]cell, len(plots[i].Points))
		for _, pt := range plots[i].Points {
			ref := pt.X.String()
			if pt.X.Kind != models.AxisKindDate {
				dateLike = false
			}
			if _, ok := cells[i][ref]; !ok {
				cells[i][ref] = cell{value: FormatValue(pt.Y), delay: pt.InReportingDelayPeriod}
			}
			if !seen[ref] {
				seen[ref] = true
				refs = append(refs, ref)
			}
		}
	}

	slices.Sort(refs)
	switch {
	case dateLike:
		slices.Reverse(refs)
	case xAxis == models.AxisAge:
		slices.SortStableFunc(refs, func(a, b string) int {
			return cmp.Compare(resolver.AgeOrder(a), resolver.AgeOrder(b))
		})
	}
	return refs, cells
}
