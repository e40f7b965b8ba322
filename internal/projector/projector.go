// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package projector turns the record table and a view configuration into
// plot series: filtered point clouds grouped by category, the tracked
// overlay, and optional reference and best-fit lines.
package projector

import (
	"fmt"

	"github.com/aclements/go-moremath/stats"
	"github.com/aclements/go-moremath/vec"

	"github.com/pdiddy/scatterscope/internal/axis"
	"github.com/pdiddy/scatterscope/internal/filter"
	"github.com/pdiddy/scatterscope/internal/numeric"
	"github.com/pdiddy/scatterscope/internal/palette"
	"github.com/pdiddy/scatterscope/internal/regression"
	"github.com/pdiddy/scatterscope/pkg/types"
)

// Series keys for the synthetic groups.
const (
	AllKey      = "All Stocks"
	TrackedKey  = "Tracked Stocks"
	DiagonalKey = "Diagonal"
	BestFitKey  = "Best Fit"
)

// Input is everything a projection reads.
type Input struct {
	Table      *types.Table
	Categories types.CategoryTable

	// Tracked identifiers are plotted even when filters reject them. They
	// appear only in the tracked overlay, never in a category series, and do
	// not count toward the diagonal bounds or the best fit.
	Tracked []string

	// Industries keeps only records whose sub-category is listed. Empty
	// keeps everything.
	Industries []string

	X, Y types.AxisConfig

	// Filters must already be complete; blank operands reject every record.
	Filters []types.Filter

	GroupByCategory    bool
	ShowDiagonal       bool
	ShowBestFit        bool
	BestFitPerCategory bool
}

// InputFromView builds an Input from a view state. Incomplete filters are
// skipped.
func InputFromView(table *types.Table, cats types.CategoryTable, s types.ViewState) Input {
	return Input{
		Table:           table,
		Categories:      cats,
		Tracked:         s.Tracked,
		X:               s.X,
		Y:               s.Y,
		Industries:      s.Industries,
		Filters:         s.CompleteFilters(),
		GroupByCategory: s.ColorByCategory,
		ShowDiagonal:    s.ShowDiagonal,
		ShowBestFit:     s.ShowBestFit,
	}
}

// Projection is the result of Project.
type Projection struct {
	types.Plot

	// AllX and AllY hold every filtered, accepted, untracked point in table
	// order.
	AllX []float64
	AllY []float64
}

type group struct {
	key    string
	points []types.Point
	xs, ys []float64
}

// Project builds the series for in. Category labels are registered with
// colors in first-seen table order; colors must be reused across calls to
// keep category colours stable. A nil colors uses a throwaway assigner.
//
// Series order is category series in first-seen order, then the tracked
// overlay, then the diagonal, then best-fit lines.
func Project(in Input, colors *palette.Assigner) Projection {
	if colors == nil {
		colors = palette.NewAssigner()
	}

	var (
		groups   []*group
		byKey    = make(map[string]*group)
		observed []string
		seen     = make(map[string]bool)
		plotted  = make(map[string]bool)
		tracked  = setOf(in.Tracked)
		keep     = setOf(in.Industries)
		proj     Projection
	)

	for _, id := range in.Table.IDs {
		if plotted[id] {
			continue
		}
		if len(keep) > 0 && !keep[in.Categories[id].Industry] {
			continue
		}
		rec := in.Table.Rows[id]
		x, y, ok := axisValues(rec, in.X, in.Y)
		if !ok {
			continue
		}
		if !filter.EvaluateAll(rec, in.Filters) {
			continue
		}
		if !axis.AcceptPoint(x, y, in.X.Log, in.Y.Log) {
			continue
		}

		label := in.Categories.Category(id)
		if !seen[label] {
			seen[label] = true
			observed = append(observed, label)
		}
		plotted[id] = true
		if tracked[id] {
			continue
		}

		key := AllKey
		if in.GroupByCategory {
			key = label
		}
		g, ok := byKey[key]
		if !ok {
			g = &group{key: key}
			byKey[key] = g
			groups = append(groups, g)
		}
		g.points = append(g.points, types.Point{X: x, Y: y, Label: id})
		g.xs = append(g.xs, x)
		g.ys = append(g.ys, y)

		proj.AllX = append(proj.AllX, x)
		proj.AllY = append(proj.AllY, y)
	}

	colors.Assign(observed...)

	for _, g := range groups {
		color := palette.AllColor
		if in.GroupByCategory {
			color = colors.Color(g.key)
		}
		proj.Series = append(proj.Series, types.Series{
			Key:    g.key,
			Name:   g.key,
			Kind:   types.SeriesMarkers,
			Color:  color,
			Points: g.points,
		})
	}
	proj.Plotted = len(plotted)

	if overlay := trackedSeries(in); overlay != nil {
		proj.Tracked = len(overlay.Points)
		proj.Series = append(proj.Series, *overlay)
	}

	if in.ShowDiagonal && len(proj.AllX) > 0 {
		lo, hi := stats.Bounds(vec.Concat(proj.AllX, proj.AllY))
		proj.Series = append(proj.Series, types.Series{
			Key:    DiagonalKey,
			Name:   "y = x",
			Kind:   types.SeriesLine,
			Color:  palette.DiagonalColor,
			Style:  types.LineDashed,
			Points: []types.Point{{X: lo, Y: lo}, {X: hi, Y: hi}},
		})
	}

	if in.ShowBestFit && len(proj.AllX) >= 2 {
		if in.BestFitPerCategory && in.GroupByCategory {
			for _, g := range groups {
				if s, ok := fitSeries(g.xs, g.ys, in, BestFitKey+" ("+g.key+")", colors.Color(g.key)); ok {
					proj.Series = append(proj.Series, s)
				}
			}
		} else if s, ok := fitSeries(proj.AllX, proj.AllY, in, BestFitKey, palette.BestFitColor); ok {
			proj.Series = append(proj.Series, s)
		}
	}

	proj.Layout = types.Layout{
		Title:  fmt.Sprintf("%s vs %s", in.Y.Property, in.X.Property),
		XTitle: in.X.Property,
		YTitle: in.Y.Property,
		XScale: axis.Scale(in.X.Log),
		YScale: axis.Scale(in.Y.Log),
	}
	return proj
}

// trackedSeries places each tracked identifier once, ignoring filters.
// It returns nil when no tracked identifier can be placed.
func trackedSeries(in Input) *types.Series {
	if len(in.Tracked) == 0 {
		return nil
	}
	s := &types.Series{
		Key:   TrackedKey,
		Name:  TrackedKey,
		Kind:  types.SeriesMarkers,
		Color: palette.TrackedColor,
	}
	done := make(map[string]bool, len(in.Tracked))
	for _, id := range in.Tracked {
		if done[id] {
			continue
		}
		done[id] = true
		rec, ok := in.Table.Get(id)
		if !ok {
			continue
		}
		x, y, ok := axisValues(rec, in.X, in.Y)
		if !ok || !axis.AcceptPoint(x, y, in.X.Log, in.Y.Log) {
			continue
		}
		s.Points = append(s.Points, types.Point{X: x, Y: y, Label: id})
	}
	if len(s.Points) == 0 {
		return nil
	}
	return s
}

func setOf(items []string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, it := range items {
		m[it] = true
	}
	return m
}

func fitSeries(xs, ys []float64, in Input, key, color string) (types.Series, bool) {
	line, ok := regression.BestFit(xs, ys, in.X.Log, in.Y.Log)
	if !ok {
		return types.Series{}, false
	}
	return types.Series{
		Key:    key,
		Name:   key,
		Kind:   types.SeriesLine,
		Color:  color,
		Style:  types.LineSolid,
		Points: line.Points[:],
	}, true
}

func axisValues(rec types.Record, x, y types.AxisConfig) (float64, float64, bool) {
	xv, ok := numeric.ValidValue(rec.Get(x.Property))
	if !ok {
		return 0, 0, false
	}
	yv, ok := numeric.ValidValue(rec.Get(y.Property))
	if !ok {
		return 0, 0, false
	}
	return xv, yv, true
}
