// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package render draws a plot description as a PNG or SVG scatter chart.
package render

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/aclements/go-moremath/scale"
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/pdiddy/scatterscope/internal/axis"
	"github.com/pdiddy/scatterscope/pkg/types"
)

// Format selects the output encoding.
type Format string

const (
	PNG Format = "png"
	SVG Format = "svg"
)

// ParseFormat accepts "png" or "svg", case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case PNG, SVG:
		return f, nil
	case "":
		return PNG, nil
	default:
		return "", fmt.Errorf("unknown image format %q (want png or svg)", s)
	}
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	if f == SVG {
		return "image/svg+xml"
	}
	return "image/png"
}

// Default canvas size.
const (
	DefaultWidth  = 1024
	DefaultHeight = 768
)

// maxTicks bounds the number of labelled ticks per axis.
const maxTicks = 8

// Options sets the canvas.
type Options struct {
	Width  int
	Height int
	Format Format
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.Format == "" {
		o.Format = PNG
	}
	return o
}

// markerStyle draws dots only.
func markerStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeWidth: chart.Disabled,
		DotWidth:    3,
		DotColor:    col,
	}
}

func lineStyle(col drawing.Color, ls types.LineStyle) chart.Style {
	st := chart.Style{
		StrokeWidth: 2,
		StrokeColor: col,
	}
	if ls == types.LineDashed {
		st.StrokeDashArray = []float64{6, 4}
	}
	return st
}

// Color parses a "#rrggbb" colour.
func Color(hex string) drawing.Color {
	return drawing.ColorFromHex(strings.TrimPrefix(hex, "#"))
}

// Chart builds the go-chart description of p. Values that a log axis
// cannot show are dropped; everything else is mapped into plot space.
func Chart(p types.Plot, opts Options) chart.Chart {
	opts = opts.withDefaults()
	xLog := p.Layout.XScale == types.ScaleLog
	yLog := p.Layout.YScale == types.ScaleLog

	var (
		series     []chart.Series
		allX, allY []float64
	)
	for _, s := range p.Series {
		xs, ys := plotValues(s.Points, xLog, yLog)
		if len(xs) == 0 {
			continue
		}
		allX = append(allX, xs...)
		allY = append(allY, ys...)

		col := Color(s.Color)
		st := markerStyle(col)
		if s.Kind == types.SeriesLine {
			st = lineStyle(col, s.Style)
		}
		if len(xs) == 1 {
			// go-chart needs two values to draw a series.
			xs = append(xs, xs[0])
			ys = append(ys, ys[0])
		}
		series = append(series, chart.ContinuousSeries{
			Name:    s.Name,
			XValues: xs,
			YValues: ys,
			Style:   st,
		})
	}

	xMin, xMax := plotRange(allX, xLog)
	yMin, yMax := plotRange(allY, yLog)

	ch := chart.Chart{
		Title:      p.Layout.Title,
		Width:      opts.Width,
		Height:     opts.Height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis: chart.XAxis{
			Name:  axisName(p.Layout.XTitle, xLog),
			Range: &chart.ContinuousRange{Min: xMin, Max: xMax},
			Ticks: Ticks(xMin, xMax, xLog),
		},
		YAxis: chart.YAxis{
			Name:  axisName(p.Layout.YTitle, yLog),
			Range: &chart.ContinuousRange{Min: yMin, Max: yMax},
			Ticks: Ticks(yMin, yMax, yLog),
		},
		Series: series,
	}
	if len(series) == 0 {
		// An empty frame still needs something to lay out.
		ch.Series = []chart.Series{chart.ContinuousSeries{
			XValues: []float64{xMin, xMax},
			YValues: []float64{yMin, yMax},
			Style:   chart.Style{StrokeWidth: chart.Disabled, DotWidth: chart.Disabled},
		}}
		return ch
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	return ch
}

// Render writes p to w in the chosen format.
func Render(w io.Writer, p types.Plot, opts Options) error {
	opts = opts.withDefaults()
	ch := Chart(p, opts)

	provider := chart.PNG
	if opts.Format == SVG {
		provider = chart.SVG
	}
	if err := ch.Render(provider, w); err != nil {
		return fmt.Errorf("rendering chart: %w", err)
	}
	return nil
}

func axisName(title string, log bool) string {
	if log {
		return title + " (log)"
	}
	return title
}

func plotValues(points []types.Point, xLog, yLog bool) (xs, ys []float64) {
	for _, pt := range points {
		if !axis.AcceptPoint(pt.X, pt.Y, xLog, yLog) {
			continue
		}
		xs = append(xs, axis.ToPlot(pt.X, xLog))
		ys = append(ys, axis.ToPlot(pt.Y, yLog))
	}
	return xs, ys
}

// plotRange returns the plot-space extent of vs, widened so it is never
// empty. A log axis widens by one decade, a linear one by 5% or 1.
func plotRange(vs []float64, log bool) (lo, hi float64) {
	if len(vs) == 0 {
		return 0, 1
	}
	lo, hi = vs[0], vs[0]
	for _, v := range vs[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if log {
		lo, hi = math.Floor(lo), math.Ceil(hi)
		if lo == hi {
			lo, hi = lo-1, hi+1
		}
		return lo, hi
	}
	pad := (hi - lo) * 0.05
	if pad == 0 {
		pad = math.Max(math.Abs(lo)*0.05, 1)
	}
	return lo - pad, hi + pad
}

// Ticks returns labelled ticks for the plot-space range [lo, hi]. Labels
// show data values, so a log axis is labelled in decades of the original
// units.
func Ticks(lo, hi float64, log bool) []chart.Tick {
	var values []float64
	if log {
		if l, err := scale.NewLog(axis.FromPlot(lo, true), axis.FromPlot(hi, true), 10); err == nil {
			major, _ := l.Ticks(scale.TickOptions{Max: maxTicks})
			for _, v := range major {
				values = append(values, axis.ToPlot(v, true))
			}
		}
	}
	if len(values) < 2 {
		lin := scale.Linear{Min: lo, Max: hi}
		values, _ = lin.Ticks(scale.TickOptions{Max: maxTicks})
	}

	ticks := make([]chart.Tick, 0, len(values))
	for _, v := range values {
		if v < lo-1e-9 || v > hi+1e-9 {
			continue
		}
		ticks = append(ticks, chart.Tick{Value: v, Label: TickLabel(axis.FromPlot(v, log))})
	}
	if len(ticks) < 2 {
		ticks = []chart.Tick{
			{Value: lo, Label: TickLabel(axis.FromPlot(lo, log))},
			{Value: hi, Label: TickLabel(axis.FromPlot(hi, log))},
		}
	}
	return ticks
}

var suffixes = []struct {
	div    float64
	suffix string
}{
	{1e12, "T"},
	{1e9, "B"},
	{1e6, "M"},
	{1e3, "K"},
}

// TickLabel formats v compactly: 1500 -> "1.5K", 2e12 -> "2T".
func TickLabel(v float64) string {
	a := math.Abs(v)
	for _, s := range suffixes {
		if a >= s.div {
			return trimFloat(v/s.div) + s.suffix
		}
	}
	if a != 0 && a < 1e-3 {
		return strconv.FormatFloat(v, 'e', 1, 64)
	}
	return trimFloat(v)
}

func trimFloat(v float64) string {
	return strconv.FormatFloat(math.Round(v*1000)/1000, 'f', -1, 64)
}
