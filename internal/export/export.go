// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export writes a plot to an Excel workbook: one data sheet per
// series plus a native scatter chart over them.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/pdiddy/scatterscope/internal/axis"
	"github.com/pdiddy/scatterscope/pkg/types"
)

// ChartSheet holds the chart.
const ChartSheet = "Chart"

const maxSheetName = 31

var header = []any{"Label", "X", "Y"}

// Workbook builds the workbook for p. The caller must Close it.
func Workbook(p types.Plot) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", ChartSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("naming chart sheet: %w", err)
	}

	xLog := p.Layout.XScale == types.ScaleLog
	yLog := p.Layout.YScale == types.ScaleLog

	used := map[string]bool{ChartSheet: true}
	var series []excelize.ChartSeries
	for i, s := range p.Series {
		name := sheetName(i, s.Name, used)
		if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, fmt.Errorf("adding sheet %s: %w", name, err)
		}
		if err := f.SetSheetRow(name, "A1", &header); err != nil {
			f.Close()
			return nil, fmt.Errorf("writing header of %s: %w", name, err)
		}

		row := 2
		for _, pt := range s.Points {
			if !axis.AcceptPoint(pt.X, pt.Y, xLog, yLog) {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(1, row)
			values := []any{pt.Label, pt.X, pt.Y}
			if err := f.SetSheetRow(name, cell, &values); err != nil {
				f.Close()
				return nil, fmt.Errorf("writing %s row %d: %w", name, row, err)
			}
			row++
		}
		if row == 2 {
			continue
		}
		series = append(series, chartSeries(name, s, row-1))
	}

	summary := []any{p.Layout.Title, fmt.Sprintf("%d plotted", p.Plotted), fmt.Sprintf("%d tracked", p.Tracked)}
	if err := f.SetSheetRow(ChartSheet, "A1", &summary); err != nil {
		f.Close()
		return nil, fmt.Errorf("writing summary: %w", err)
	}

	if len(series) > 0 {
		ch := &excelize.Chart{
			Type:      excelize.Scatter,
			Series:    series,
			Title:     []excelize.RichTextRun{{Text: p.Layout.Title}},
			Legend:    excelize.ChartLegend{Position: "bottom"},
			Dimension: excelize.ChartDimension{Width: 960, Height: 640},
			XAxis:     chartAxis(p.Layout.XTitle, xLog),
			YAxis:     chartAxis(p.Layout.YTitle, yLog),
		}
		if err := f.AddChart(ChartSheet, "A3", ch); err != nil {
			f.Close()
			return nil, fmt.Errorf("adding chart: %w", err)
		}
	}
	return f, nil
}

func chartAxis(title string, log bool) excelize.ChartAxis {
	a := excelize.ChartAxis{
		MajorGridLines: true,
		Title:          []excelize.RichTextRun{{Text: title}},
	}
	if log {
		a.LogBase = 10
	}
	return a
}

func chartSeries(sheet string, s types.Series, lastRow int) excelize.ChartSeries {
	ref := func(col string) string {
		return fmt.Sprintf("'%s'!$%s$2:$%s$%d", sheet, col, col, lastRow)
	}
	color := strings.TrimPrefix(s.Color, "#")
	cs := excelize.ChartSeries{
		Name:       s.Name,
		Categories: ref("B"),
		Values:     ref("C"),
	}
	if s.Kind == types.SeriesLine {
		cs.Line = excelize.ChartLine{Type: excelize.ChartLineSolid, Width: 1.5}
		cs.Fill = excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{color}}
		cs.Marker = excelize.ChartMarker{Symbol: "none"}
		return cs
	}
	cs.Line = excelize.ChartLine{Type: excelize.ChartLineNone}
	cs.Marker = excelize.ChartMarker{
		Symbol: "circle",
		Size:   5,
		Fill:   excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{color}},
	}
	return cs
}

// sheetName derives a unique, valid sheet name for the i-th series.
func sheetName(i int, name string, used map[string]bool) string {
	clean := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\'`, r) {
			return '_'
		}
		return r
	}, name)
	base := fmt.Sprintf("%d %s", i+1, strings.TrimSpace(clean))
	if r := []rune(base); len(r) > maxSheetName {
		base = string(r[:maxSheetName])
	}
	out := strings.TrimSpace(base)
	for n := 2; used[out]; n++ {
		out = fmt.Sprintf("%d-%d", i+1, n)
	}
	used[out] = true
	return out
}

// Write encodes the workbook for p to w.
func Write(w io.Writer, p types.Plot) error {
	f, err := Workbook(p)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

// Save writes the workbook for p to path.
func Save(path string, p types.Plot) error {
	f, err := Workbook(p)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}
