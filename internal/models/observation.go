// Epimetrics - Public Health Metrics Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/epimetrics

// Package models defines the observation, permission and request/response
// types shared by the store, the resolver and the HTTP layer.
package models

import "time"

// Sex values stored on observations.
const (
	SexAll    = "all"
	SexMale   = "m"
	SexFemale = "f"
)

// Classification is the eight-dimension key of an observation, plus the
// geography code that travels with the geography name.
type Classification struct {
	Theme         string `json:"theme"`
	SubTheme      string `json:"sub_theme"`
	Topic         string `json:"topic"`
	Metric        string `json:"metric"`
	GeographyType string `json:"geography_type"`
	Geography     string `json:"geography"`
	GeographyCode string `json:"geography_code"`
	Age           string `json:"age"`
	Stratum       string `json:"stratum"`
}

// Observation is implemented by both fact row types so the access checks
// can treat them uniformly.
type Observation interface {
	Classifier() Classification
	Public() *bool
	EmbargoTime() *time.Time
}

// TimeSeriesObservation is one value of a metric on a single date.
type TimeSeriesObservation struct {
	Classification
	MetricFrequency        string     `json:"metric_frequency"`
	Sex                    string     `json:"sex"`
	Year                   int        `json:"year"`
	Month                  int        `json:"month"`
	Epiweek                int        `json:"epiweek"`
	Date                   time.Time  `json:"date"`
	MetricValue            Decimal    `json:"metric_value"`
	RefreshDate            time.Time  `json:"refresh_date"`
	Embargo                *time.Time `json:"embargo"`
	IsPublic               *bool      `json:"is_public"`
	InReportingDelayPeriod bool       `json:"in_reporting_delay_period"`
	ForceWrite             bool       `json:"force_write"`
}

// Classifier implements Observation.
func (o *TimeSeriesObservation) Classifier() Classification { return o.Classification }

// Public implements Observation.
func (o *TimeSeriesObservation) Public() *bool { return o.IsPublic }

// EmbargoTime implements Observation.
func (o *TimeSeriesObservation) EmbargoTime() *time.Time { return o.Embargo }

// HeadlineObservation is one value of a metric over a reporting period.
type HeadlineObservation struct {
	Classification
	Sex         string     `json:"sex"`
	PeriodStart time.Time  `json:"period_start"`
	PeriodEnd   time.Time  `json:"period_end"`
	MetricValue Decimal    `json:"metric_value"`
	RefreshDate time.Time  `json:"refresh_date"`
	Embargo     *time.Time `json:"embargo"`
	IsPublic    *bool      `json:"is_public"`
}

// Classifier implements Observation.
func (o *HeadlineObservation) Classifier() Classification { return o.Classification }

// Public implements Observation.
func (o *HeadlineObservation) Public() *bool { return o.IsPublic }

// EmbargoTime implements Observation.
func (o *HeadlineObservation) EmbargoTime() *time.Time { return o.Embargo }

// Bool returns a pointer to b, for nullable is_public fields.
func Bool(b bool) *bool { return &b }

// Time returns a pointer to t, for nullable embargo fields.
func Time(t time.Time) *time.Time { return &t }
