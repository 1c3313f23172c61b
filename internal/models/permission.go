// Epimetrics - Public Health Metrics Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/epimetrics

package models

import "strings"

// Permission authorises a caller to see non-public rows. Theme and SubTheme
// are always set. Every other field is a wildcard when empty. Geography is
// matched on the geography code, every other field on the dimension name.
type Permission struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Theme         string `json:"theme" validate:"required"`
	SubTheme      string `json:"sub_theme" validate:"required"`
	Topic         string `json:"topic,omitempty"`
	Metric        string `json:"metric,omitempty"`
	GeographyType string `json:"geography_type,omitempty"`
	GeographyCode string `json:"geography_code,omitempty"`
	Age           string `json:"age,omitempty"`
	Stratum       string `json:"stratum,omitempty"`
}

// Key identifies the permission by its full tuple. Two permissions with the
// same key are the same permission.
func (p Permission) Key() string {
	return strings.Join([]string{
		p.Theme, p.SubTheme, p.Topic, p.Metric,
		p.GeographyType, p.GeographyCode, p.Age, p.Stratum,
	}, "\x1f")
}

// PermissionSet is the effective set of permissions for one request.
type PermissionSet []Permission
