// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/scatterscope/internal/dataset"
	"github.com/pdiddy/scatterscope/pkg/types"
)

type fakeSource struct {
	quotes map[string]Quote
	errs   map[string]error
	calls  []string
}

func (f *fakeSource) Quote(_ context.Context, symbol string) (Quote, error) {
	f.calls = append(f.calls, symbol)
	if err, ok := f.errs[symbol]; ok {
		return Quote{}, err
	}
	return f.quotes[symbol], nil
}

func usdQuote(symbol string, props types.Record) Quote {
	return Quote{Symbol: symbol, Currency: "USD", Properties: props}
}

func testOptions(dir string) Options {
	return Options{
		OutDir: dir,
		Now:    func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) },
	}
}

func newFake() *fakeSource {
	return &fakeSource{
		quotes: map[string]Quote{
			"AAPL": {
				Symbol:   "AAPL",
				Currency: "USD",
				Sector:   "Technology",
				Properties: types.Record{
					"totalCash":          types.Number(6e10),
					"marketCap":          types.Number(2.9e12),
					"regularMarketPrice": types.Number(190),
					"longName":           types.Text("Apple Inc."),
					"exchange":           types.Text("NMS"),
				},
			},
			"MSFT": usdQuote("MSFT", types.Record{"marketCap": types.Number(3e12)}),
			"SHOP": {Symbol: "SHOP", Currency: "CAD", Properties: types.Record{"marketCap": types.Number(1e11)}},
			"NOMC": usdQuote("NOMC", types.Record{"totalCash": types.Number(1)}),
		},
		errs: map[string]error{
			"BAD": errors.New("Not Found"),
		},
	}
}

func readJSON(t *testing.T, path string, v any) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, v))
}

func TestReadTickers(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []Ticker
	}{
		{
			name: "header only symbol",
			in:   "ticker\naapl\nMSFT\n\nAAPL\n",
			want: []Ticker{{Symbol: "AAPL"}, {Symbol: "MSFT"}},
		},
		{
			name: "no header",
			in:   "AAPL,Technology,Consumer Electronics\nXOM\n",
			want: []Ticker{
				{Symbol: "AAPL", Sector: "Technology", Industry: "Consumer Electronics"},
				{Symbol: "XOM"},
			},
		},
		{
			name: "header reorders columns",
			in:   "industry,symbol,sector\nSoftware,msft,Technology\n",
			want: []Ticker{{Symbol: "MSFT", Sector: "Technology", Industry: "Software"}},
		},
		{
			name: "comments skipped",
			in:   "# list\nGOOG\n",
			want: []Ticker{{Symbol: "GOOG"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadTickers(strings.NewReader(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadTickersFile_Missing(t *testing.T) {
	_, err := ReadTickersFile(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestRun_WritesDataset(t *testing.T) {
	dir := t.TempDir()
	src := newFake()
	tickers := []Ticker{
		{Symbol: "MSFT", Sector: "Technology", Industry: "Software"},
		{Symbol: "AAPL"},
		{Symbol: "SHOP"},
		{Symbol: "BAD"},
		{Symbol: "NOMC"},
	}

	var out bytes.Buffer
	res, err := Run(context.Background(), tickers, src, testOptions(dir), &out)
	require.NoError(t, err)

	assert.Equal(t, Summary{Fetched: 2, Rejected: 2, Failed: 1}, res.Summary)
	assert.Equal(t, 5, res.Summary.Total())
	assert.Equal(t, []string{"MSFT", "AAPL"}, res.Valid)
	assert.Equal(t, map[string]string{
		"SHOP": ErrNotUSD,
		"NOMC": ErrNotUSD,
		"BAD":  "Not Found",
	}, res.Errors)
	assert.Equal(t, []string{"MSFT", "AAPL", "SHOP", "BAD", "NOMC"}, src.calls)

	assert.Contains(t, out.String(), "progress: 1/5")
	assert.Contains(t, out.String(), "progress: 5/5")
	assert.Contains(t, out.String(), "failed  BAD")

	ds, err := dataset.Load(context.Background(), dataset.DirSource{Dir: dir}, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, []string{"MSFT", "AAPL"}, ds.Table.IDs)
	assert.Equal(t, []string{"marketCap", "totalCash", "regularMarketPrice"}, ds.Properties)

	aapl, _ := ds.Table.Get("AAPL")
	assert.Equal(t, types.Text("Apple Inc."), aapl["longName"])
	_, kept := aapl["exchange"]
	assert.False(t, kept, "only numbers and names are written")

	assert.Equal(t, types.CategoryInfo{Sector: "Technology", Industry: "Software"}, ds.Categories["MSFT"])
	assert.Equal(t, types.CategoryInfo{Sector: "Technology", Industry: NotAvailable}, ds.Categories["AAPL"])
	assert.Equal(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), ds.UpdatedAt.UTC())

	var valid []string
	readJSON(t, filepath.Join(dir, ValidTickersFile), &valid)
	assert.Equal(t, []string{"MSFT", "AAPL"}, valid)

	var errs map[string]string
	readJSON(t, filepath.Join(dir, ErrorsFile), &errs)
	assert.Len(t, errs, 3)
}

func TestRun_SkipsFreshData(t *testing.T) {
	dir := t.TempDir()
	opts := testOptions(dir)
	opts.MaxAge = 4 * time.Hour
	require.NoError(t, dataset.WriteLastUpdated(dir, opts.Now().Add(-time.Hour)))

	src := newFake()
	var out bytes.Buffer
	res, err := Run(context.Background(), []Ticker{{Symbol: "AAPL"}}, src, opts, &out)
	assert.ErrorIs(t, err, ErrFresh)
	assert.True(t, res.Summary.Skipped)
	assert.Empty(t, src.calls)

	opts.Force = true
	res, err = Run(context.Background(), []Ticker{{Symbol: "AAPL"}}, src, opts, &out)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Summary.Fetched)
}

func TestShouldUpdate(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	dir := t.TempDir()
	assert.True(t, ShouldUpdate(dir, 4*time.Hour, now), "missing file")

	require.NoError(t, os.WriteFile(filepath.Join(dir, dataset.LastUpdatedFile), []byte("garbage"), 0o644))
	assert.True(t, ShouldUpdate(dir, 4*time.Hour, now), "unreadable file")

	require.NoError(t, dataset.WriteLastUpdated(dir, now.Add(-3*time.Hour)))
	assert.False(t, ShouldUpdate(dir, 4*time.Hour, now))

	require.NoError(t, dataset.WriteLastUpdated(dir, now.Add(-5*time.Hour)))
	assert.True(t, ShouldUpdate(dir, 4*time.Hour, now))
}

func TestRun_RateLimitWaits(t *testing.T) {
	src := newFake()
	src.errs["MSFT"] = errors.New("429 Too Many Requests")

	opts := testOptions(t.TempDir())
	opts.RateLimitWait = time.Millisecond
	var out bytes.Buffer
	res, err := Run(context.Background(), []Ticker{{Symbol: "MSFT"}, {Symbol: "AAPL"}}, src, opts, &out)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Summary.Failed)
	assert.Contains(t, out.String(), "rate limited")
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	opts := testOptions(t.TempDir())
	opts.Delay = time.Second
	_, err := Run(ctx, []Ticker{{Symbol: "AAPL"}}, newFake(), opts, &bytes.Buffer{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsRateLimited(t *testing.T) {
	assert.True(t, IsRateLimited(errors.New("Too Many Requests")))
	assert.True(t, IsRateLimited(errors.New("status 429")))
	assert.False(t, IsRateLimited(errors.New("not found")))
	assert.False(t, IsRateLimited(nil))
}

func TestQuoteRecord_Order(t *testing.T) {
	q := usdQuote("X", types.Record{
		"zzz":       types.Number(1),
		"aaa":       types.Number(2),
		"totalCash": types.Number(3),
		"marketCap": types.Number(4),
		"shortName": types.Text("X Corp"),
	})
	_, keys := quoteRecord(q)
	assert.Equal(t, []string{"marketCap", "totalCash", "aaa", "zzz", "shortName"}, keys)
}

func TestQuoteFromJSON(t *testing.T) {
	q, err := quoteFromJSON("AAPL", []byte(`{"currency":"USD","marketCap":100,"trailingPE":0,"longName":"Apple","quoteType":"EQUITY","tradeable":true}`))
	require.NoError(t, err)
	assert.Equal(t, "USD", q.Currency)
	assert.Equal(t, types.Number(100), q.Properties["marketCap"])
	_, zero := q.Properties["trailingPE"]
	assert.False(t, zero, "zero numbers are treated as missing")
	_, boolean := q.Properties["tradeable"]
	assert.False(t, boolean)
	assert.True(t, acceptable(q))
}
