// Epimetrics - Public Health Metrics Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/epimetrics

/*
figure.go - Chart figure builder

Builds the figure dictionary handed to the image exporter and returned
verbatim for the interactive (json) file format. The layout follows the
trace/layout shape understood by the exporter:

	{
	  "data":   [ {type, name, x, y, line: {color, dash}}, ... ],
	  "layout": {width, height, xaxis: {title}, yaxis: {title}, shapes: [...]}
	}

Colours and dash styles are accepted by name (case-insensitive) from the
plot parameters; unknown names fall back to the palette by plot position.
*/

package render

import (
	"strings"

	"github.com/tomtom215/epimetrics/internal/models"
	"github.com/tomtom215/epimetrics/internal/shaping"
)

// Default chart dimensions used when neither request nor config sets one.
const (
	DefaultWidth  = 515
	DefaultHeight = 220
)

// shadedFill colours the reporting-delay section of shaded line charts.
const shadedFill = "rgba(199, 205, 209, 0.5)"

// palette is assigned by plot position when no colour is requested.
var palette = []string{
	"#12436D", // dark blue
	"#28A197", // turquoise
	"#801650", // dark pink
	"#F46A25", // orange
	"#3D3D3D", // dark grey
	"#A285D1", // light purple
}

// namedColours maps colour names accepted in plot parameters.
var namedColours = map[string]string{
	"colour_1_dark_blue":    "#12436D",
	"colour_2_turquoise":    "#28A197",
	"colour_3_dark_pink":    "#801650",
	"colour_4_orange":       "#F46A25",
	"colour_5_dark_grey":    "#3D3D3D",
	"colour_6_light_purple": "#A285D1",
	"blue":                  "#12436D",
	"turquoise":             "#28A197",
	"pink":                  "#801650",
	"orange":                "#F46A25",
	"grey":                  "#3D3D3D",
	"purple":                "#A285D1",
	"black":                 "#0B0C0C",
}

var lineDashes = map[string]string{
	"solid":  "solid",
	"dash":   "dash",
	"dashed": "dash",
	"dot":    "dot",
	"dotted": "dot",
}

// FigureOptions carries the chart-level settings of a figure.
type FigureOptions struct {
	Width  int
	Height int
	XAxis  string
	YAxis  string
}

// withDefaults fills zero dimensions.
func (o FigureOptions) withDefaults() FigureOptions {
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.XAxis == "" {
		o.XAxis = models.DefaultXAxis
	}
	if o.YAxis == "" {
		o.YAxis = models.DefaultYAxis
	}
	return o
}

// LineColour resolves a plot's requested colour, falling back to the palette.
func LineColour(name string, index int) string {
	if c, ok := namedColours[strings.ToLower(strings.TrimSpace(name))]; ok {
		return c
	}
	if strings.HasPrefix(name, "#") && (len(name) == 7 || len(name) == 4) {
		return name
	}
	return palette[index%len(palette)]
}

// LineDash resolves a plot's requested line type. Empty and unknown
// names draw a solid line.
func LineDash(name string) string {
	if d, ok := lineDashes[strings.ToLower(strings.TrimSpace(name))]; ok {
		return d
	}
	return "solid"
}

// BuildFigure turns resolved plots into a figure dictionary.
func BuildFigure(plots []models.PlotData, opts FigureOptions) map[string]interface{} {
	opts = opts.withDefaults()

	traces := make([]interface{}, 0, len(plots))
	var shapes []interface{}
	for i := range plots {
		p := &plots[i]
		traces = append(traces, trace(p, i))
		if p.Parameters.ChartType == models.ChartTypeLineWithShadedSection {
			if s, ok := delayShape(p); ok {
				shapes = append(shapes, s)
			}
		}
	}

	layout := map[string]interface{}{
		"width":      opts.Width,
		"height":     opts.Height,
		"showlegend": len(plots) > 1,
		"xaxis":      map[string]interface{}{"title": map[string]interface{}{"text": shaping.AxisTitle(opts.XAxis)}},
		"yaxis":      map[string]interface{}{"title": map[string]interface{}{"text": shaping.AxisTitle(opts.YAxis)}},
	}
	if len(shapes) > 0 {
		layout["shapes"] = shapes
	}

	return map[string]interface{}{
		"data":   traces,
		"layout": layout,
	}
}

func trace(p *models.PlotData, index int) map[string]interface{} {
	xs := make([]interface{}, len(p.Points))
	ys := make([]interface{}, len(p.Points))
	for i, pt := range p.Points {
		xs[i] = pt.X.Interface()
		ys[i] = pt.Y.Interface()
	}

	colour := LineColour(p.Parameters.LineColour, index)
	t := map[string]interface{}{
		"name": shaping.PlotLabel(p.Parameters, index),
		"x":    xs,
		"y":    ys,
	}

	switch p.Parameters.ChartType {
	case models.ChartTypeBar:
		t["type"] = "bar"
		t["marker"] = map[string]interface{}{"color": colour}
	case models.ChartTypeWaffle:
		t["type"] = "heatmap"
		t["showscale"] = false
		t["colorscale"] = []interface{}{[]interface{}{0, "#FFFFFF"}, []interface{}{1, colour}}
	default:
		t["type"] = "scatter"
		t["mode"] = "lines"
		t["line"] = map[string]interface{}{
			"color": colour,
			"dash":  LineDash(p.Parameters.LineType),
			"width": 2,
		}
		if p.Parameters.ChartType == models.ChartTypeLineSingleSimplified {
			t["hoverinfo"] = "skip"
		}
	}
	return t
}

// delayShape shades the x range of points flagged as in the reporting
// delay period. Points arrive in x order, so the first and last flagged
// points bound the section.
func delayShape(p *models.PlotData) (map[string]interface{}, bool) {
	first, last := -1, -1
	for i, pt := range p.Points {
		if pt.InReportingDelayPeriod {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if first < 0 {
		return nil, false
	}
	return map[string]interface{}{
		"type":      "rect",
		"xref":      "x",
		"yref":      "paper",
		"x0":        p.Points[first].X.Interface(),
		"x1":        p.Points[last].X.Interface(),
		"y0":        0,
		"y1":        1,
		"fillcolor": shadedFill,
		"line":      map[string]interface{}{"width": 0},
		"layer":     "below",
	}, true
}
