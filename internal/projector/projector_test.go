// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package projector

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/scatterscope/internal/palette"
	"github.com/pdiddy/scatterscope/pkg/types"
)

func rec(x, y float64) types.Record {
	return types.Record{"x": types.Number(x), "y": types.Number(y)}
}

func fixture() (*types.Table, types.CategoryTable) {
	tbl := types.NewTable()
	tbl.Add("AAA", rec(1, 2))
	tbl.Add("BBB", rec(2, 4))
	tbl.Add("CCC", rec(3, 6))
	tbl.Add("DDD", rec(-5, 10))
	tbl.Add("EEE", types.Record{"x": types.Number(4)})
	tbl.Add("FFF", rec(math.Inf(1), 1))
	cats := types.CategoryTable{
		"AAA": {Sector: "Tech", Industry: "Software"},
		"BBB": {Sector: "Energy"},
		"CCC": {Sector: "Tech"},
	}
	return tbl, cats
}

func baseInput() Input {
	tbl, cats := fixture()
	return Input{
		Table:      tbl,
		Categories: cats,
		X:          types.AxisConfig{Property: "x"},
		Y:          types.AxisConfig{Property: "y"},
	}
}

func labels(s types.Series) []string {
	var out []string
	for _, p := range s.Points {
		out = append(out, p.Label)
	}
	return out
}

func seriesByKey(t *testing.T, p Projection, key string) types.Series {
	t.Helper()
	for _, s := range p.Series {
		if s.Key == key {
			return s
		}
	}
	require.Failf(t, "series not found", "key %q", key)
	return types.Series{}
}

func TestProject_SingleGroup(t *testing.T) {
	p := Project(baseInput(), nil)

	require.Len(t, p.Series, 1)
	all := p.Series[0]
	assert.Equal(t, AllKey, all.Key)
	assert.Equal(t, palette.AllColor, all.Color)
	assert.Equal(t, types.SeriesMarkers, all.Kind)
	assert.Equal(t, []string{"AAA", "BBB", "CCC", "DDD"}, labels(all), "missing and non-finite values are dropped")
	assert.Equal(t, 4, p.Plotted)
	assert.Equal(t, []float64{1, 2, 3, -5}, p.AllX)
}

func TestProject_LogScaleExclusion(t *testing.T) {
	in := baseInput()
	in.X.Log = true
	p := Project(in, nil)

	assert.Equal(t, []string{"AAA", "BBB", "CCC"}, labels(p.Series[0]))
	assert.Equal(t, types.ScaleLog, p.Layout.XScale)
	assert.Equal(t, types.ScaleLinear, p.Layout.YScale)
}

func TestProject_Filters(t *testing.T) {
	in := baseInput()
	in.Filters = []types.Filter{{Left: "x", Right: "2", Dir: types.AtLeast}}
	p := Project(in, nil)
	assert.Equal(t, []string{"BBB", "CCC"}, labels(p.Series[0]))

	in.Filters = []types.Filter{{Left: "missing", Right: "2", Dir: types.AtLeast}}
	p = Project(in, nil)
	assert.Empty(t, p.Series, "unresolvable filter rejects every record")
}

func TestProject_GroupByCategory(t *testing.T) {
	in := baseInput()
	in.GroupByCategory = true
	colors := palette.NewAssigner()
	p := Project(in, colors)

	require.Len(t, p.Series, 3)
	assert.Equal(t, "Tech", p.Series[0].Key)
	assert.Equal(t, []string{"AAA", "CCC"}, labels(p.Series[0]))
	assert.Equal(t, "Energy", p.Series[1].Key)
	assert.Equal(t, types.UnknownCategory, p.Series[2].Key)
	assert.Equal(t, palette.Colors[0], p.Series[0].Color)
	assert.Equal(t, palette.Colors[1], p.Series[1].Color)
	assert.Equal(t, palette.Colors[2], p.Series[2].Color)
}

func TestProject_ColorsStableAcrossReorderedInput(t *testing.T) {
	colors := palette.NewAssigner()
	cats := types.CategoryTable{"a": {Sector: "A"}, "b": {Sector: "B"}}

	first := types.NewTable()
	first.Add("a", rec(1, 1))
	first.Add("b", rec(2, 2))
	p1 := Project(Input{Table: first, Categories: cats, X: types.AxisConfig{Property: "x"}, Y: types.AxisConfig{Property: "y"}, GroupByCategory: true}, colors)

	second := types.NewTable()
	second.Add("b", rec(2, 2))
	second.Add("a", rec(1, 1))
	p2 := Project(Input{Table: second, Categories: cats, X: types.AxisConfig{Property: "x"}, Y: types.AxisConfig{Property: "y"}, GroupByCategory: true}, colors)

	assert.Equal(t, seriesByKey(t, p1, "A").Color, seriesByKey(t, p2, "A").Color)
	assert.Equal(t, seriesByKey(t, p1, "B").Color, seriesByKey(t, p2, "B").Color)
}

func TestProject_ObservesCategoriesWithoutGrouping(t *testing.T) {
	colors := palette.NewAssigner()
	Project(baseInput(), colors)
	assert.Equal(t, []string{"Tech", "Energy", types.UnknownCategory}, colors.Labels())
}

func TestProject_TrackedBypassesFilters(t *testing.T) {
	in := baseInput()
	in.Filters = []types.Filter{{Left: "x", Right: "3", Dir: types.AtLeast}}
	in.Tracked = []string{"AAA", "CCC", "AAA", "ZZZ", "EEE"}
	p := Project(in, nil)

	require.Len(t, p.Series, 1, "CCC is the only record passing the filter and it is tracked")
	tracked := p.Series[0]
	assert.Equal(t, TrackedKey, tracked.Key)
	assert.Equal(t, palette.TrackedColor, tracked.Color)
	assert.Equal(t, []string{"AAA", "CCC"}, labels(tracked), "deduplicated, unknown and incomplete ids skipped")
	assert.Equal(t, 2, p.Tracked)
	assert.Equal(t, 1, p.Plotted)
	assert.Empty(t, p.AllX)
}

func TestProject_TrackedLeaveCategorySeriesAndFit(t *testing.T) {
	in := baseInput()
	in.Tracked = []string{"CCC"}
	in.ShowBestFit = true
	colors := palette.NewAssigner()
	p := Project(in, colors)

	all := seriesByKey(t, p, AllKey)
	assert.Equal(t, []string{"AAA", "BBB", "DDD"}, labels(all))
	assert.Equal(t, []string{"CCC"}, labels(seriesByKey(t, p, TrackedKey)))
	assert.Equal(t, []float64{1, 2, -5}, p.AllX)
	assert.Equal(t, []float64{2, 4, 10}, p.AllY)
	assert.Equal(t, 4, p.Plotted)
	assert.Equal(t, []string{"Tech", "Energy", types.UnknownCategory}, colors.Labels(), "tracked categories are still observed")

	in.GroupByCategory = true
	p = Project(in, palette.NewAssigner())
	assert.Equal(t, []string{"AAA"}, labels(seriesByKey(t, p, "Tech")))
}

func TestProject_Industries(t *testing.T) {
	in := baseInput()
	in.Industries = []string{"Software"}
	p := Project(in, nil)
	require.Len(t, p.Series, 1)
	assert.Equal(t, []string{"AAA"}, labels(p.Series[0]))

	in.Tracked = []string{"BBB"}
	p = Project(in, nil)
	assert.Equal(t, []string{"BBB"}, labels(seriesByKey(t, p, TrackedKey)), "tracked ids ignore the industry filter")

	in.Industries = []string{"Mining"}
	in.Tracked = nil
	assert.Empty(t, Project(in, nil).Series)
}

func TestProject_TrackedRespectsLogAxis(t *testing.T) {
	in := baseInput()
	in.X.Log = true
	in.Tracked = []string{"DDD"}
	p := Project(in, nil)
	for _, s := range p.Series {
		assert.NotEqual(t, TrackedKey, s.Key)
	}
}

func TestProject_Diagonal(t *testing.T) {
	in := baseInput()
	in.ShowDiagonal = true
	in.Tracked = []string{"AAA"}
	p := Project(in, nil)

	require.Len(t, p.Series, 3)
	assert.Equal(t, TrackedKey, p.Series[1].Key, "tracked overlay precedes lines")
	diag := p.Series[2]
	assert.Equal(t, DiagonalKey, diag.Key)
	assert.Equal(t, types.SeriesLine, diag.Kind)
	assert.Equal(t, []types.Point{{X: -5, Y: -5}, {X: 10, Y: 10}}, diag.Points)
}

func TestProject_DiagonalSkippedWithoutPoints(t *testing.T) {
	in := baseInput()
	in.ShowDiagonal = true
	in.Filters = []types.Filter{{Left: "x", Right: "100", Dir: types.AtLeast}}
	p := Project(in, nil)
	assert.Empty(t, p.Series)
}

func TestProject_BestFit(t *testing.T) {
	in := baseInput()
	in.ShowBestFit = true
	in.Filters = []types.Filter{{Left: "x", Right: "0", Dir: types.AtLeast}}
	p := Project(in, nil)

	fit := seriesByKey(t, p, BestFitKey)
	assert.Equal(t, palette.BestFitColor, fit.Color)
	require.Len(t, fit.Points, 2)
	assert.Equal(t, 1.0, fit.Points[0].X)
	assert.InDelta(t, 2.0, fit.Points[0].Y, 1e-9)
	assert.Equal(t, 3.0, fit.Points[1].X)
	assert.InDelta(t, 6.0, fit.Points[1].Y, 1e-9)
}

func TestProject_BestFitNeedsTwoPoints(t *testing.T) {
	in := baseInput()
	in.ShowBestFit = true
	in.Filters = []types.Filter{{Left: "x", Right: "3", Dir: types.AtLeast}}
	p := Project(in, nil)
	require.Len(t, p.Series, 1)
}

func TestProject_BestFitDegenerateOmitted(t *testing.T) {
	tbl := types.NewTable()
	tbl.Add("a", rec(1, 1))
	tbl.Add("b", rec(1, 2))
	p := Project(Input{Table: tbl, X: types.AxisConfig{Property: "x"}, Y: types.AxisConfig{Property: "y"}, ShowBestFit: true}, nil)
	require.Len(t, p.Series, 1)
}

func TestProject_BestFitPerCategory(t *testing.T) {
	tbl := types.NewTable()
	tbl.Add("a1", rec(1, 1))
	tbl.Add("a2", rec(2, 2))
	tbl.Add("b1", rec(1, 5))
	tbl.Add("b2", rec(2, 3))
	tbl.Add("c1", rec(9, 9))
	cats := types.CategoryTable{"a1": {Sector: "A"}, "a2": {Sector: "A"}, "b1": {Sector: "B"}, "b2": {Sector: "B"}, "c1": {Sector: "C"}}

	colors := palette.NewAssigner()
	p := Project(Input{
		Table: tbl, Categories: cats,
		X: types.AxisConfig{Property: "x"}, Y: types.AxisConfig{Property: "y"},
		GroupByCategory: true, ShowBestFit: true, BestFitPerCategory: true,
	}, colors)

	require.Len(t, p.Series, 5, "three categories, two fits; C has a single point")
	a := seriesByKey(t, p, BestFitKey+" (A)")
	assert.Equal(t, colors.Color("A"), a.Color)
	assert.InDelta(t, 2.0, a.Points[1].Y, 1e-9)
	b := seriesByKey(t, p, BestFitKey+" (B)")
	assert.InDelta(t, 3.0, b.Points[1].Y, 1e-9)
}

func TestProject_Layout(t *testing.T) {
	p := Project(baseInput(), nil)
	assert.Equal(t, "y vs x", p.Layout.Title)
	assert.Equal(t, "x", p.Layout.XTitle)
	assert.Equal(t, "y", p.Layout.YTitle)
}

func TestProject_Idempotent(t *testing.T) {
	in := baseInput()
	in.GroupByCategory = true
	in.ShowBestFit = true
	colors := palette.NewAssigner()
	assert.Equal(t, Project(in, colors), Project(in, colors))
}

func TestInputFromView_SkipsIncompleteFilters(t *testing.T) {
	tbl, cats := fixture()
	s := types.ViewState{
		X: types.AxisConfig{Property: "x"},
		Y: types.AxisConfig{Property: "y"},
		Filters: []types.Filter{
			{Left: "x", Right: "", Dir: types.AtLeast},
			{Left: "x", Right: "2", Dir: types.AtLeast},
		},
		ColorByCategory: true,
		Tracked:         []string{"AAA"},
		Industries:      []string{"Software"},
	}
	in := InputFromView(tbl, cats, s)
	assert.Len(t, in.Filters, 1)
	assert.Equal(t, []string{"Software"}, in.Industries)
	assert.True(t, in.GroupByCategory)
	assert.Equal(t, []string{"AAA"}, in.Tracked)
}
