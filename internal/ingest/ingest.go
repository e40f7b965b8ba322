// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ingest fetches quote data for a ticker list and writes it as a
// dataset directory.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/pdiddy/scatterscope/internal/dataset"
	"github.com/pdiddy/scatterscope/internal/httputil"
	"github.com/pdiddy/scatterscope/pkg/types"
)

// Output file names written alongside the dataset tables.
const (
	ValidTickersFile = "valid_tickers.json"
	ErrorsFile       = "errors.json"
)

// Rejection messages recorded in errors.json.
const (
	ErrNotUSD = "Currency is not USD or information not available"
	ErrNoData = "No financial data available"
)

// Defaults for Options.
const (
	DefaultDelay         = 500 * time.Millisecond
	DefaultRateLimitWait = 60 * time.Second
	DefaultMaxAge        = 4 * time.Hour
	DefaultProgressEvery = 200
)

// NotAvailable fills sector and industry when neither the ticker list nor
// the provider knows them.
const NotAvailable = "N/A"

// ErrFresh is returned when the existing dataset is newer than MaxAge.
var ErrFresh = errors.New("data is fresh")

// KnownProperties lists the quote properties written first, in this order.
// Other numeric properties follow sorted by name.
var KnownProperties = []string{
	"52WeekChange", "SandP52WeekChange", "ask", "askSize", "auditRisk",
	"averageDailyVolume10Day", "averageVolume", "averageVolume10days",
	"beta", "bid", "bidSize", "boardRisk", "bookValue", "cash",
	"compensationAsOfEpochDate", "compensationRisk", "currentPrice",
	"currentRatio", "dateShortInterest", "dayHigh", "dayLow", "debtToEquity",
	"dividendRate", "dividendYield", "earningsGrowth",
	"earningsQuarterlyGrowth", "ebitda", "ebitdaMargins",
	"enterpriseToEbitda", "enterpriseToRevenue", "enterpriseValue",
	"exDividendDate", "fiftyDayAverage", "fiftyTwoWeekHigh",
	"fiftyTwoWeekLow", "firstTradeDateEpochUtc", "fiveYearAvgDividendYield",
	"floatShares", "forwardEps", "forwardPE", "freeCashflow",
	"fullTimeEmployees", "grossMargins", "grossProfits",
	"heldPercentInsiders", "heldPercentInstitutions",
	"impliedSharesOutstanding", "lastDividendDate", "lastDividendValue",
	"lastFiscalYearEnd", "lastSplitDate", "marketCap", "maxAge",
	"mostRecentQuarter", "netIncome", "netIncomeToCommon",
	"netTangibleAssets", "nextFiscalYearEnd", "numberOfAnalystOpinions",
	"open", "operatingCashflow", "operatingMargins", "overallRisk",
	"payoutRatio", "pegRatio", "previousClose", "priceToBook",
	"priceToSalesTrailing12Months", "profitMargins", "quickRatio",
	"recommendationMean", "regularMarketDayHigh", "regularMarketDayLow",
	"regularMarketOpen", "regularMarketPreviousClose", "regularMarketVolume",
	"returnOnAssets", "returnOnEquity", "revenueGrowth", "revenuePerShare",
	"shareHolderRightsRisk", "sharesOutstanding", "sharesPercentSharesOut",
	"sharesShort", "sharesShortPreviousMonthDate", "sharesShortPriorMonth",
	"shortPercentOfFloat", "shortRatio", "targetHighPrice", "targetLowPrice",
	"targetMeanPrice", "targetMedianPrice", "totalAssets", "totalCash",
	"totalCashPerShare", "totalCurrentAssets", "totalDebt", "totalRevenue",
	"trailingAnnualDividendRate", "trailingAnnualDividendYield",
	"trailingEps", "trailingPE", "trailingPegRatio", "twoHundredDayAverage",
	"volume",
}

// nameProperties are the string properties kept for ticker lookup.
var nameProperties = []string{"longName", "shortName", "displayName"}

// Options configures a Run.
type Options struct {
	// OutDir receives the dataset files.
	OutDir string

	// Delay is the pause before each request.
	Delay time.Duration

	// RateLimitWait is the extra pause after a rate-limit error.
	RateLimitWait time.Duration

	// MaxAge skips the run when the dataset in OutDir is younger.
	MaxAge time.Duration

	// Force ignores MaxAge.
	Force bool

	// ProgressEvery prints a progress line every N tickers.
	ProgressEvery int

	// Now defaults to time.Now.
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Delay < 0 {
		o.Delay = 0
	}
	if o.RateLimitWait < 0 {
		o.RateLimitWait = 0
	}
	if o.ProgressEvery <= 0 {
		o.ProgressEvery = DefaultProgressEvery
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// DefaultOptions returns the fetch pacing used by the CLI.
func DefaultOptions(outDir string) Options {
	return Options{
		OutDir:        outDir,
		Delay:         DefaultDelay,
		RateLimitWait: DefaultRateLimitWait,
		MaxAge:        DefaultMaxAge,
		ProgressEvery: DefaultProgressEvery,
	}
}

// Summary holds the counts from a Run.
type Summary struct {
	Fetched  int
	Rejected int
	Failed   int

	// Skipped is set when the run stopped at the freshness check.
	Skipped bool
}

// Total returns the number of tickers processed.
func (s Summary) Total() int {
	return s.Fetched + s.Rejected + s.Failed
}

// Result is the outcome of a Run.
type Result struct {
	Summary Summary

	// Dataset holds the accepted tickers; nil when skipped.
	Dataset *dataset.Dataset

	// Errors maps each rejected or failed ticker to its reason.
	Errors map[string]string

	// Valid lists the accepted tickers in fetch order.
	Valid []string
}

// ShouldUpdate reports whether the dataset in dir is missing, unreadable,
// or older than maxAge.
func ShouldUpdate(dir string, maxAge time.Duration, now time.Time) bool {
	t, err := dataset.ReadLastUpdated(dir)
	if err != nil {
		return true
	}
	return now.Sub(t) > maxAge
}

// Run fetches every ticker from src, writes the dataset to opts.OutDir,
// and prints progress to w. It returns ErrFresh, with a zero Result apart
// from Summary.Skipped, when the existing data is newer than opts.MaxAge.
func Run(ctx context.Context, tickers []Ticker, src QuoteSource, opts Options, w io.Writer) (Result, error) {
	opts = opts.withDefaults()

	if !opts.Force && opts.MaxAge > 0 && !ShouldUpdate(opts.OutDir, opts.MaxAge, opts.Now()) {
		fmt.Fprintf(w, "data in %s is less than %s old\n", opts.OutDir, opts.MaxAge)
		return Result{Summary: Summary{Skipped: true}}, ErrFresh
	}

	fmt.Fprintf(w, "fetching data for %d tickers\n", len(tickers))

	res := Result{Errors: map[string]string{}, Valid: []string{}}
	table := types.NewTable()
	cats := types.CategoryTable{}
	order := make(map[string][]string)

	for i, tk := range tickers {
		if err := httputil.Sleep(ctx, opts.Delay); err != nil {
			return res, err
		}

		q, err := src.Quote(ctx, tk.Symbol)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			res.Errors[tk.Symbol] = err.Error()
			res.Summary.Failed++
			fmt.Fprintf(w, "  failed  %s: %v\n", tk.Symbol, err)
			if IsRateLimited(err) {
				fmt.Fprintf(w, "  rate limited, waiting %s\n", opts.RateLimitWait)
				if err := httputil.Sleep(ctx, opts.RateLimitWait); err != nil {
					return res, err
				}
			}
		case !acceptable(q):
			res.Errors[tk.Symbol] = ErrNotUSD
			res.Summary.Rejected++
		default:
			rec, keys := quoteRecord(q)
			if len(keys) == 0 {
				res.Errors[tk.Symbol] = ErrNoData
				res.Summary.Rejected++
				break
			}
			table.Add(tk.Symbol, rec)
			order[tk.Symbol] = keys
			cats[tk.Symbol] = types.CategoryInfo{
				Sector:   firstNonEmpty(tk.Sector, q.Sector, NotAvailable),
				Industry: firstNonEmpty(tk.Industry, q.Industry, NotAvailable),
			}
			res.Valid = append(res.Valid, tk.Symbol)
			res.Summary.Fetched++
		}

		if i%opts.ProgressEvery == 0 || i == len(tickers)-1 {
			fmt.Fprintf(w, "progress: %d/%d\n", i+1, len(tickers))
		}
	}

	res.Dataset = &dataset.Dataset{
		Table:      table,
		Categories: cats,
		Properties: datasetProperties(table, order),
		UpdatedAt:  opts.Now(),
	}

	keys := func(id string, _ types.Record) []string { return order[id] }
	if err := dataset.WriteDir(opts.OutDir, res.Dataset, keys); err != nil {
		return res, fmt.Errorf("writing dataset: %w", err)
	}
	if err := dataset.WriteJSON(opts.OutDir, ValidTickersFile, res.Valid); err != nil {
		return res, err
	}
	if err := dataset.WriteJSON(opts.OutDir, ErrorsFile, res.Errors); err != nil {
		return res, err
	}

	fmt.Fprintf(w, "\nfetched %d tickers, %d rejected, %d failed (%d total)\n",
		res.Summary.Fetched, res.Summary.Rejected, res.Summary.Failed, res.Summary.Total())
	if n := len(res.Errors); n > 0 {
		fmt.Fprintf(os.Stderr, "warning: %d tickers had errors, see %s\n", n, ErrorsFile)
	}
	return res, nil
}

// IsRateLimited reports whether err looks like an HTTP 429 from the
// provider.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "Too Many Requests") || strings.Contains(msg, "429")
}

// acceptable reports whether q is priced in USD and has a market cap.
func acceptable(q Quote) bool {
	if q.Currency != "USD" {
		return false
	}
	_, ok := q.Properties.Get("marketCap").Float()
	return ok
}

// quoteRecord keeps the numeric properties and the name strings of q. keys
// lists KnownProperties first, then other numbers sorted, then names.
func quoteRecord(q Quote) (types.Record, []string) {
	rec := types.Record{}
	var keys []string
	known := make(map[string]bool, len(KnownProperties))
	for _, p := range KnownProperties {
		known[p] = true
		if v := q.Properties.Get(p); v.Kind == types.ValueNumber {
			rec[p] = v
			keys = append(keys, p)
		}
	}

	var extra []string
	for name, v := range q.Properties {
		if v.Kind == types.ValueNumber && !known[name] {
			extra = append(extra, name)
		}
	}
	slices.Sort(extra)
	for _, p := range extra {
		rec[p] = q.Properties[p]
	}
	keys = append(keys, extra...)

	if len(keys) == 0 {
		return rec, nil
	}
	for _, p := range nameProperties {
		if v := q.Properties.Get(p); v.Kind == types.ValueString {
			rec[p] = v
			keys = append(keys, p)
		}
	}
	return rec, keys
}

// datasetProperties returns the numeric properties of the first record
// carrying marketCap, which is what the loader derives from the sample
// ticker.
func datasetProperties(table *types.Table, order map[string][]string) []string {
	for _, id := range table.IDs {
		rec := table.Rows[id]
		if _, ok := rec.Get("marketCap").Float(); ok {
			return dataset.NumericProperties(rec, order[id])
		}
	}
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
