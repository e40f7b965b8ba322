// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/scatterscope/internal/dataset"
	"github.com/pdiddy/scatterscope/internal/format"
	"github.com/pdiddy/scatterscope/internal/lookup"
	"github.com/pdiddy/scatterscope/internal/projector"
	"github.com/pdiddy/scatterscope/internal/render"
	"github.com/pdiddy/scatterscope/internal/viewstate"
	"github.com/pdiddy/scatterscope/internal/views"
	"github.com/pdiddy/scatterscope/pkg/types"
)

func testDataset() *dataset.Dataset {
	table := types.NewTable()
	table.Add("AAPL", types.Record{"marketCap": types.Number(3e12), "totalCash": types.Number(6e10), "longName": types.Text("Apple Inc.")})
	table.Add("MSFT", types.Record{"marketCap": types.Number(2.8e12), "totalCash": types.Number(8e10), "longName": types.Text("Microsoft Corporation")})
	table.Add("XOM", types.Record{"marketCap": types.Number(4e11), "totalCash": types.Number(3e10)})
	return &dataset.Dataset{
		Table: table,
		Categories: types.CategoryTable{
			"AAPL": {Sector: "Technology", Industry: "Consumer Electronics"},
			"MSFT": {Sector: "Technology", Industry: "Software"},
			"XOM":  {Sector: "Energy", Industry: "Oil & Gas"},
		},
		Properties: []string{"marketCap", "totalCash"},
		UpdatedAt:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func newTestServer(t *testing.T) (*httptest.Server, *views.Book) {
	t.Helper()
	ds := testDataset()
	idx, err := lookup.NewIndex(lookup.EntriesFromTable(ds.Table, ds.Categories))
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })

	book, err := views.Open(filepath.Join(t.TempDir(), "views.yaml"))
	require.NoError(t, err)

	h := NewHandler(ds, idx, book, render.Options{Width: 320, Height: 240})
	h.Now = func() time.Time { return time.Date(2026, 1, 1, 2, 0, 0, 0, time.UTC) }
	srv := httptest.NewServer(h.Routes())
	t.Cleanup(srv.Close)
	return srv, book
}

func get(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestPlot_Default(t *testing.T) {
	srv, _ := newTestServer(t)

	var body PlotResponse
	decode(t, get(t, srv.URL+"/api/plot"), &body)

	assert.Equal(t, types.DefaultViewState(), body.View)
	assert.Equal(t, 3, body.Plot.Plotted)
	require.Len(t, body.Plot.Series, 1)
	assert.Equal(t, projector.AllKey, body.Plot.Series[0].Key)
	assert.Equal(t, "totalCash vs marketCap", body.Plot.Layout.Title)
	assert.Empty(t, body.Warning)
}

func TestPlot_EncodedViewAndTracking(t *testing.T) {
	srv, _ := newTestServer(t)

	s := types.DefaultViewState()
	s.ColorByCategory = true
	s.Filters = []types.Filter{{Left: "marketCap", Right: "1e12"}}
	enc := viewstate.Encode(s)

	var body PlotResponse
	decode(t, get(t, srv.URL+"/api/plot?v="+enc+"&track=xom"), &body)

	assert.Equal(t, 2, body.Plot.Plotted)
	assert.Equal(t, 1, body.Plot.Tracked)
	assert.Equal(t, []string{"XOM"}, body.View.Tracked)

	var keys []string
	for _, sr := range body.Plot.Series {
		keys = append(keys, sr.Key)
	}
	assert.Equal(t, []string{"Technology", projector.TrackedKey}, keys)
}

func TestPlot_MalformedViewFallsBack(t *testing.T) {
	srv, _ := newTestServer(t)

	var body PlotResponse
	decode(t, get(t, srv.URL+"/api/plot?v=!!"), &body)
	assert.Equal(t, types.DefaultViewState(), body.View)
	assert.NotEmpty(t, body.Warning)
	assert.Equal(t, 3, body.Plot.Plotted)
}

func TestPlot_IndustryParameter(t *testing.T) {
	srv, _ := newTestServer(t)

	var body PlotResponse
	decode(t, get(t, srv.URL+"/api/plot?industry=Software&industry=Oil+%26+Gas&industry=Mining"), &body)
	assert.Equal(t, 2, body.Plot.Plotted)
	assert.Equal(t, []string{"Software", "Oil & Gas"}, body.View.Industries, "unknown industries are ignored")

	enc := viewstate.Encode(body.View)
	decode(t, get(t, srv.URL+"/api/plot?v="+enc), &body)
	assert.Equal(t, 2, body.Plot.Plotted)
}

func TestIndustries(t *testing.T) {
	srv, _ := newTestServer(t)

	var body map[string][]string
	decode(t, get(t, srv.URL+"/api/industries"), &body)
	assert.Equal(t, []string{"Consumer Electronics", "Oil & Gas", "Software"}, body["industries"])

	decode(t, get(t, srv.URL+"/api/industries?q=soft"), &body)
	assert.Equal(t, []string{"Software"}, body["industries"])
}

func TestImages(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := get(t, srv.URL+"/api/plot.png")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))

	resp = get(t, srv.URL+"/api/plot.svg?width=200")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))

	resp = get(t, srv.URL+"/api/plot.xlsx")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "scatterscope.xlsx")
}

func TestProperties(t *testing.T) {
	srv, _ := newTestServer(t)

	var body map[string][]string
	decode(t, get(t, srv.URL+"/api/properties?q=CASH"), &body)
	assert.Equal(t, []string{"totalCash"}, body["properties"])

	decode(t, get(t, srv.URL+"/api/properties"), &body)
	assert.Equal(t, []string{"marketCap", "totalCash"}, body["properties"])
}

func TestLookup(t *testing.T) {
	srv, _ := newTestServer(t)

	var body map[string][]lookup.Entry
	decode(t, get(t, srv.URL+"/api/lookup?q=microsoft"), &body)
	require.NotEmpty(t, body["results"])
	assert.Equal(t, "MSFT", body["results"][0].Symbol)

	resp := get(t, srv.URL+"/api/lookup")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTicker(t *testing.T) {
	srv, _ := newTestServer(t)

	var info format.Info
	decode(t, get(t, srv.URL+"/api/tickers/aapl"), &info)
	assert.Equal(t, "AAPL", info.ID)
	assert.Equal(t, "Technology", info.Sector)

	resp := get(t, srv.URL+"/api/tickers/TSLA")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStatus(t *testing.T) {
	srv, _ := newTestServer(t)

	var body StatusResponse
	decode(t, get(t, srv.URL+"/api/status"), &body)
	assert.Equal(t, 3, body.Tickers)
	assert.Equal(t, 2, body.Properties)
	assert.Equal(t, "Last updated: 2 hours ago.", body.LastUpdated)
}

func TestViews(t *testing.T) {
	srv, book := newTestServer(t)

	_, err := book.Put("big", "", types.DefaultViewState(), time.Now())
	require.NoError(t, err)

	var list map[string][]views.View
	decode(t, get(t, srv.URL+"/api/views"), &list)
	require.Len(t, list["views"], 1)
	assert.Equal(t, "big", list["views"][0].Name)

	var v views.View
	decode(t, get(t, srv.URL+"/api/views/big"), &v)
	assert.Equal(t, viewstate.Encode(types.DefaultViewState()), v.Encoded)

	resp := get(t, srv.URL+"/api/views/missing")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
