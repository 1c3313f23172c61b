// Epimetrics - Public Health Metrics Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/epimetrics

package resolver

import (
	"cmp"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/tomtom215/epimetrics/internal/models"
)

// AgeOrder is the sort key of an age band: the lower bound of "NN-MM" or
// "NN+". "all" sorts after every band, unparseable names just before it.
func AgeOrder(age string) int {
	if strings.EqualFold(age, "all") {
		return math.MaxInt
	}
	end := 0
	for end < len(age) && age[end] >= '0' && age[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(age[:end])
	if err != nil {
		return math.MaxInt - 1
	}
	return n
}

// NormaliseAge formats an age band for display: "00-04" becomes
// "00 - 04". Other names are unchanged.
func NormaliseAge(age string) string {
	lower, upper, ok := strings.Cut(age, "-")
	if !ok || strings.TrimSpace(lower) == "" || strings.TrimSpace(upper) == "" {
		return age
	}
	return strings.TrimSpace(lower) + " - " + strings.TrimSpace(upper)
}

// SortByAge stably sorts points by the age band on X and normalises the
// labels.
func SortByAge(points []models.PlotPoint) {
	slices.SortStableFunc(points, func(a, b models.PlotPoint) int {
		return cmp.Compare(AgeOrder(a.X.Label), AgeOrder(b.X.Label))
	})
	for i := range points {
		points[i].X.Label = NormaliseAge(points[i].X.Label)
	}
}
