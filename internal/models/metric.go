// Epimetrics - Public Health Metrics Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/epimetrics

package models

import "strings"

// MetricGroupHeadline is the metric group name for headline metrics.
const MetricGroupHeadline = "headline"

// IsHeadlineMetric reports whether the metric is stored as headline rows
// (one value per reporting period) rather than as a time series.
func IsHeadlineMetric(name string) bool {
	return strings.Contains(name, "_headline_")
}

// IsCumulativeMetric reports whether the metric carries a running or latest
// value. Those metrics cannot drive series charts.
func IsCumulativeMetric(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "cumulative") || strings.Contains(lower, "latest")
}

// MetricGroup derives the group a metric is filed under: "headline" for
// headline metrics, otherwise the segment after the topic prefix
// ("COVID-19_cases_countRollingMean" is in "cases").
func MetricGroup(name string) string {
	if IsHeadlineMetric(name) {
		return MetricGroupHeadline
	}
	parts := strings.Split(name, "_")
	if len(parts) < 2 {
		return name
	}
	return parts[1]
}
