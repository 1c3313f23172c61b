// Epimetrics - Public Health Metrics Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/epimetrics

// Package render builds chart figures and serialises them in the file
// format a chart request asks for. Image formats are produced by an external
// exporter reached over HTTP; the figure itself is served for json.
package render

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/epimetrics/internal/config"
	"github.com/tomtom215/epimetrics/internal/logging"
	"github.com/tomtom215/epimetrics/internal/metrics"
	"github.com/tomtom215/epimetrics/internal/models"
)

var (
	// ErrRendererNotConfigured is returned for image formats when no
	// exporter URL is set.
	ErrRendererNotConfigured = errors.New("chart renderer is not configured")

	// ErrUnsupportedFormat is returned for a file format the renderer
	// cannot produce.
	ErrUnsupportedFormat = errors.New("unsupported chart file format")
)

// maxImageSize bounds the exporter response.
const maxImageSize = 16 << 20

// maxErrorBodySize bounds the part of an error response kept for the error message.
const maxErrorBodySize = 4 << 10

const breakerName = "chart-renderer"

// exportRequest is the body posted to the exporter.
type exportRequest struct {
	Figure map[string]interface{} `json:"figure"`
	Format string                 `json:"format"`
	Width  int                    `json:"width"`
	Height int                    `json:"height"`
}

// ImageClient posts figures to the external exporter. Calls go through a
// circuit breaker so a failing exporter is not hammered by every chart
// request.
type ImageClient struct {
	url    string
	client *http.Client
	cb     *gobreaker.CircuitBreaker[[]byte]
	name   string
}

// NewImageClient returns a client for cfg. A client with an empty URL is
// valid; Configured reports false and Export fails fast.
//
// Breaker settings: 1 probe in half-open, 1 minute count window, 30 second
// open period, trips at a 50% failure rate over at least 5 requests.
func NewImageClient(cfg *config.RendererConfig) *ImageClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}

	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			if ratio >= 0.5 {
				logging.Warn().Uint32("failures", counts.TotalFailures).Float64("failure_rate", ratio*100).Msg("[CIRCUIT BREAKER] Opening renderer circuit")
				return true
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("breaker", name).Str("from", stateToString(from)).Str("to", stateToString(to)).Msg("[CIRCUIT BREAKER] State transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, stateToString(from), stateToString(to)).Inc()
		},
	})

	return &ImageClient{
		url:    cfg.URL,
		client: &http.Client{Timeout: timeout},
		cb:     cb,
		name:   breakerName,
	}
}

// Configured reports whether an exporter URL is set.
func (c *ImageClient) Configured() bool {
	return c != nil && c.url != ""
}

// State returns the breaker state, for health reporting.
func (c *ImageClient) State() string {
	if !c.Configured() {
		return "disabled"
	}
	return stateToString(c.cb.State())
}

// Export renders figure in format (svg, png, jpg, jpeg) and returns the
// raw image bytes.
func (c *ImageClient) Export(ctx context.Context, figure map[string]interface{}, format string, width, height int) ([]byte, error) {
	if !c.Configured() {
		return nil, ErrRendererNotConfigured
	}

	body, err := json.Marshal(exportRequest{Figure: figure, Format: format, Width: width, Height: height})
	if err != nil {
		return nil, fmt.Errorf("encode figure: %w", err)
	}

	start := time.Now()
	image, err := c.cb.Execute(func() ([]byte, error) {
		return c.post(ctx, body)
	})
	metrics.RecordRender(format, time.Since(start), err)

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(c.name, "rejected").Inc()
			logging.Ctx(ctx).Warn().Err(err).Msg("[CIRCUIT BREAKER] Render request rejected")
		} else {
			metrics.CircuitBreakerRequests.WithLabelValues(c.name, "failure").Inc()
		}
		return nil, fmt.Errorf("render %s: %w", format, err)
	}

	metrics.CircuitBreakerRequests.WithLabelValues(c.name, "success").Inc()
	return image, nil
}

func (c *ImageClient) post(ctx context.Context, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return nil, fmt.Errorf("exporter returned status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	image, err := io.ReadAll(io.LimitReader(resp.Body, maxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if len(image) > maxImageSize {
		return nil, fmt.Errorf("image exceeds %d bytes", maxImageSize)
	}
	return image, nil
}

// Chart is a rendered chart. Figure is set only for the json format.
type Chart struct {
	Chart  interface{}
	Figure map[string]interface{}
}

// Renderer turns resolved plots into the chart payload of a response.
type Renderer struct {
	images        *ImageClient
	defaultWidth  int
	defaultHeight int
}

// New returns a Renderer using images for raster and vector formats.
func New(images *ImageClient, charts config.ChartsConfig) *Renderer {
	return &Renderer{
		images:        images,
		defaultWidth:  charts.DefaultWidth,
		defaultHeight: charts.DefaultHeight,
	}
}

// Render builds the figure for plots and serialises it for format:
// svg is URL-encoded, png/jpg/jpeg are base64, json returns the figure.
func (r *Renderer) Render(ctx context.Context, plots []models.PlotData, format string, opts FigureOptions) (Chart, error) {
	if opts.Width <= 0 {
		opts.Width = r.defaultWidth
	}
	if opts.Height <= 0 {
		opts.Height = r.defaultHeight
	}
	figure := BuildFigure(plots, opts)
	opts = opts.withDefaults()

	switch format {
	case models.FormatJSON:
		return Chart{Chart: figure, Figure: figure}, nil
	case models.FormatSVG, models.FormatPNG, models.FormatJPG, models.FormatJPEG:
	default:
		return Chart{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	image, err := r.images.Export(ctx, figure, exportFormat(format), opts.Width, opts.Height)
	if err != nil {
		return Chart{}, err
	}
	return Chart{Chart: Encode(format, image)}, nil
}

// Encode serialises image bytes for a chart response.
func Encode(format string, image []byte) string {
	if format == models.FormatSVG {
		return url.QueryEscape(string(image))
	}
	return base64.StdEncoding.EncodeToString(image)
}

// exportFormat normalises jpg to the name the exporter expects.
func exportFormat(format string) string {
	if format == models.FormatJPG {
		return models.FormatJPEG
	}
	return format
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
