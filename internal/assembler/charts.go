// Epimetrics - Public Health Metrics Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/epimetrics

package assembler

import (
	"context"
	"io"
	"slices"

	"github.com/tomtom215/epimetrics/internal/database/query"
	"github.com/tomtom215/epimetrics/internal/logging"
	"github.com/tomtom215/epimetrics/internal/models"
	"github.com/tomtom215/epimetrics/internal/render"
	"github.com/tomtom215/epimetrics/internal/resolver"
	"github.com/tomtom215/epimetrics/internal/shaping"
)

// Chart resolves the plots of req and renders them.
func (a *Assembler) Chart(ctx context.Context, req *models.ChartRequest, access query.Access) (*models.ChartResponse, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if err := a.validatePlots(ctx, req.Plots); err != nil {
		return nil, err
	}

	plots, err := a.resolvePlots(ctx, req.Plots, req.XAxis, req.YAxis, access)
	if err != nil {
		return nil, err
	}

	x, y := resolver.Axes(plots[0].Parameters, req.XAxis, req.YAxis)
	chart, err := a.renderer.Render(ctx, plots, req.FileFormat, render.FigureOptions{
		Width:  req.ChartWidth,
		Height: req.ChartHeight,
		XAxis:  x,
		YAxis:  y,
	})
	if err != nil {
		return nil, err
	}

	resp := &models.ChartResponse{
		Chart:   chart.Chart,
		AltText: shaping.AltText(plots, x, y),
		Figure:  chart.Figure,
	}
	if latest := latestDate(plots); latest != nil {
		resp.LastUpdated = latest.Format(models.DateLayout)
	}
	return resp, nil
}

// Table merges the plots of req into the nested table shape.
func (a *Assembler) Table(ctx context.Context, req *models.TableRequest, access query.Access) ([]models.TableRow, error) {
	plots, err := a.tablePlots(ctx, req, access)
	if err != nil {
		return nil, err
	}
	x, _ := resolver.Axes(plots[0].Parameters, req.XAxis, req.YAxis)
	return shaping.MergeTable(plots, x), nil
}

// LegacyTable merges the plots of req into the flat, month-end rolled-up
// table shape of the older table endpoint.
func (a *Assembler) LegacyTable(ctx context.Context, req *models.TableRequest, access query.Access) ([]models.LegacyTableRow, error) {
	plots, err := a.tablePlots(ctx, req, access)
	if err != nil {
		return nil, err
	}
	x, _ := resolver.Axes(plots[0].Parameters, req.XAxis, req.YAxis)
	return shaping.LegacyTable(plots, x), nil
}

func (a *Assembler) tablePlots(ctx context.Context, req *models.TableRequest, access query.Access) ([]models.PlotData, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if err := a.validatePlots(ctx, req.Plots); err != nil {
		return nil, err
	}
	return a.resolvePlots(ctx, req.Plots, req.XAxis, req.YAxis, access)
}

// Download is the flattened row set of a download request. Headline is set
// when the plots read headline metrics.
type Download struct {
	Headline   bool
	TimeSeries []models.TimeSeriesDownloadRow
	Headlines  []models.HeadlineDownloadRow
}

// Rows returns the rows for JSON encoding. It is never nil.
func (d *Download) Rows() interface{} {
	if d.Headline {
		if d.Headlines == nil {
			return []models.HeadlineDownloadRow{}
		}
		return d.Headlines
	}
	if d.TimeSeries == nil {
		return []models.TimeSeriesDownloadRow{}
	}
	return d.TimeSeries
}

// WriteCSV writes the header and rows.
func (d *Download) WriteCSV(w io.Writer) error {
	if d.Headline {
		return shaping.WriteHeadlineCSV(w, d.Headlines)
	}
	return shaping.WriteTimeSeriesCSV(w, d.TimeSeries)
}

// Download reads the full live rows of every plot and flattens them into
// one row set, newest first across all plots. Plots without rows are
// dropped; when none has rows the result is ErrNoData. All plots must read
// the same fact table.
func (a *Assembler) Download(ctx context.Context, req *models.DownloadRequest, access query.Access) (*Download, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if err := a.validatePlots(ctx, req.Plots); err != nil {
		return nil, err
	}

	headline := models.IsHeadlineMetric(req.Plots[0].Metric)
	var (
		timeSeries []models.TimeSeriesObservation
		headlines  []models.HeadlineObservation
		withRows   int
	)
	for i, p := range req.Plots {
		if models.IsHeadlineMetric(p.Metric) != headline {
			return nil, invalid("plots[%d]: headline and time series metrics cannot be downloaded together", i)
		}
		rows, err := a.resolver.ResolveRows(ctx, p, access, query.Descending)
		if err != nil {
			return nil, err
		}
		if rows.Len() == 0 {
			logging.Ctx(ctx).Debug().Str("metric", p.Metric).Str("geography", p.Geography).Msg("Download plot has no data, dropping")
			continue
		}
		withRows++
		timeSeries = append(timeSeries, rows.TimeSeries...)
		headlines = append(headlines, rows.Headlines...)
	}
	if withRows == 0 {
		return nil, ErrNoData
	}

	// Stable, so rows sharing a date keep plot order.
	slices.SortStableFunc(timeSeries, func(x, y models.TimeSeriesObservation) int {
		return y.Date.Compare(x.Date)
	})
	slices.SortStableFunc(headlines, func(x, y models.HeadlineObservation) int {
		return y.PeriodEnd.Compare(x.PeriodEnd)
	})

	out := &Download{Headline: headline}
	if headline {
		out.Headlines = shaping.HeadlineDownload(headlines)
	} else {
		out.TimeSeries = shaping.TimeSeriesDownload(timeSeries)
	}
	return out, nil
}
