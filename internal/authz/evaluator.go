// Epimetrics - Public Health Metrics Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/epimetrics

// Package authz decides whether a caller may see a non-public observation.
//
// The decision is a pure function of the row's classification and the
// caller's permission set:
//
//	grant(row, P) = exists p in P such that
//	    p.theme == row.theme && p.sub_theme == row.sub_theme &&
//	    for each wildcard dimension d: p.d unset || p.d == row.d
//
// Public rows never reach the evaluator. When authentication is disabled
// every row is granted.
package authz

import (
	"time"

	"github.com/tomtom215/epimetrics/internal/models"
)

// Settings are the process-wide access switches, read once at start.
type Settings struct {
	// AuthEnabled turns permission checks on.
	AuthEnabled bool

	// AllowMissingIsPublic treats a NULL is_public as public.
	AllowMissingIsPublic bool
}

// Dimension is one wildcard-able permission field together with the view
// column it is compared against.
type Dimension struct {
	Name   string
	Column string

	permission func(models.Permission) string
	row        func(models.Classification) string
}

// PermissionValue returns p's value for the dimension; "" means wildcard.
func (d Dimension) PermissionValue(p models.Permission) string {
	return d.permission(p)
}

// RowValue returns the row's value for the dimension.
func (d Dimension) RowValue(c models.Classification) string {
	return d.row(c)
}

// Required dimensions must match exactly; theme and sub_theme are never
// wildcards.
var Required = []Dimension{
	{
		Name: "theme", Column: "theme",
		permission: func(p models.Permission) string { return p.Theme },
		row:        func(c models.Classification) string { return c.Theme },
	},
	{
		Name: "sub_theme", Column: "sub_theme",
		permission: func(p models.Permission) string { return p.SubTheme },
		row:        func(c models.Classification) string { return c.SubTheme },
	},
}

// Wildcards are checked in this order.
var Wildcards = []Dimension{
	{
		Name: "topic", Column: "topic",
		permission: func(p models.Permission) string { return p.Topic },
		row:        func(c models.Classification) string { return c.Topic },
	},
	{
		Name: "metric", Column: "metric",
		permission: func(p models.Permission) string { return p.Metric },
		row:        func(c models.Classification) string { return c.Metric },
	},
	{
		Name: "geography_type", Column: "geography_type",
		permission: func(p models.Permission) string { return p.GeographyType },
		row:        func(c models.Classification) string { return c.GeographyType },
	},
	{
		Name: "geography", Column: "geography_code",
		permission: func(p models.Permission) string { return p.GeographyCode },
		row:        func(c models.Classification) string { return c.GeographyCode },
	},
	{
		Name: "age", Column: "age",
		permission: func(p models.Permission) string { return p.Age },
		row:        func(c models.Classification) string { return c.Age },
	},
	{
		Name: "stratum", Column: "stratum",
		permission: func(p models.Permission) string { return p.Stratum },
		row:        func(c models.Classification) string { return c.Stratum },
	},
}

// Match reports whether a single permission covers the classification.
func Match(p models.Permission, c models.Classification) bool {
	for _, d := range Required {
		if d.permission(p) == "" || d.permission(p) != d.row(c) {
			return false
		}
	}
	for _, d := range Wildcards {
		if v := d.permission(p); v != "" && v != d.row(c) {
			return false
		}
	}
	return true
}

// Grant reports whether any permission in set covers the classification.
// With auth disabled it always returns true.
func Grant(c models.Classification, set models.PermissionSet, s Settings) bool {
	if !s.AuthEnabled {
		return true
	}
	for i := range set {
		if Match(set[i], c) {
			return true
		}
	}
	return false
}

// IsPublic interprets a nullable is_public flag.
func IsPublic(isPublic *bool, s Settings) bool {
	if isPublic == nil {
		return s.AllowMissingIsPublic
	}
	return *isPublic
}

// Visible is the access filter applied to every returned row: public rows
// pass, anything else must be granted.
func Visible(o models.Observation, set models.PermissionSet, s Settings) bool {
	return IsPublic(o.Public(), s) || Grant(o.Classifier(), set, s)
}

// Released reports whether the row's embargo has lifted at now.
func Released(o models.Observation, now time.Time) bool {
	e := o.EmbargoTime()
	return e == nil || !e.After(now)
}
