// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dataset loads the keyed record tables the explorer plots.
//
// A dataset is a directory (or URL prefix) holding:
//
//	ticker_info.json   id -> {property: number | string | null}
//	sec_info.json      id -> {sector, industry}
//	last_updated.json  {timestamp}                         (optional)
//	year_fin_data.json id -> [{date, revenue, earnings}]   (optional)
//
// Identifier order follows the order of keys in ticker_info.json.
package dataset

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/pdiddy/scatterscope/pkg/types"
)

// File names within a dataset.
const (
	TickerInfoFile  = "ticker_info.json"
	SectorInfoFile  = "sec_info.json"
	LastUpdatedFile = "last_updated.json"
	FinancialsFile  = "year_fin_data.json"
)

// DefaultSampleTicker is the entity whose numeric properties define the
// selectable axis properties.
const DefaultSampleTicker = "AAPL"

var (
	// ErrUnavailable wraps every failure to load the required tables.
	ErrUnavailable = errors.New("data unavailable")

	// ErrSampleMissing means the schema sample entity is not in the table.
	ErrSampleMissing = errors.New("sample ticker not found in data")
)

// Dataset is a loaded, read-only snapshot.
type Dataset struct {
	Table      *types.Table
	Categories types.CategoryTable
	Financials map[string][]types.YearlyFinancials

	// Properties are the numeric property names of the sample entity, in
	// the order they appear in its record.
	Properties []string

	// UpdatedAt is when the snapshot was fetched; zero when unknown.
	UpdatedAt time.Time
}

// Load reads a dataset from src. Failure to read the record or category
// tables, or a missing sample entity, is fatal and wraps ErrUnavailable.
// The optional files are skipped when absent; any other failure reading
// them is printed as a warning and leaves the matching field zero.
func Load(ctx context.Context, src Source, sampleTicker string) (*Dataset, error) {
	if sampleTicker == "" {
		sampleTicker = DefaultSampleTicker
	}

	var (
		table      *types.Table
		sampleKeys []string
	)
	err := withFile(ctx, src, TickerInfoFile, func(r io.Reader) error {
		var err error
		table, sampleKeys, err = DecodeTable(r, sampleTicker)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	cats := types.CategoryTable{}
	err = withFile(ctx, src, SectorInfoFile, func(r io.Reader) error {
		return json.NewDecoder(r).Decode(&cats)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	sample, ok := table.Get(sampleTicker)
	if !ok {
		return nil, fmt.Errorf("%w: %w: %s", ErrUnavailable, ErrSampleMissing, sampleTicker)
	}

	ds := &Dataset{
		Table:      table,
		Categories: cats,
		Properties: NumericProperties(sample, sampleKeys),
	}

	err = withFile(ctx, src, LastUpdatedFile, func(r io.Reader) error {
		t, err := decodeTimestamp(r)
		ds.UpdatedAt = t
		return err
	})
	if err != nil {
		ds.UpdatedAt = time.Time{}
		warnOptional(LastUpdatedFile, err)
	}

	err = withFile(ctx, src, FinancialsFile, func(r io.Reader) error {
		return json.NewDecoder(r).Decode(&ds.Financials)
	})
	if err != nil {
		ds.Financials = nil
		warnOptional(FinancialsFile, err)
	}

	return ds, nil
}

// Warnings receives the warnings printed by Load.
var Warnings io.Writer = os.Stderr

func warnOptional(name string, err error) {
	if errors.Is(err, fs.ErrNotExist) {
		return
	}
	fmt.Fprintf(Warnings, "warning: skipping %s: %v\n", name, err)
}

func withFile(ctx context.Context, src Source, name string, fn func(io.Reader) error) error {
	rc, err := src.Open(ctx, name)
	if err != nil {
		return err
	}
	defer rc.Close()
	if err := fn(rc); err != nil {
		return fmt.Errorf("parsing %s: %w", name, err)
	}
	return nil
}

// DecodeTable decodes an id -> record object, keeping identifier order. It
// also returns the property names of the sample record in document order.
func DecodeTable(r io.Reader, sample string) (*types.Table, []string, error) {
	dec := json.NewDecoder(r)
	if err := expectDelim(dec, '{'); err != nil {
		return nil, nil, err
	}

	table := types.NewTable()
	var sampleKeys []string
	for dec.More() {
		id, err := stringToken(dec)
		if err != nil {
			return nil, nil, err
		}
		rec, keys, err := decodeRecord(dec)
		if err != nil {
			return nil, nil, fmt.Errorf("record %s: %w", id, err)
		}
		if rec == nil {
			continue
		}
		table.Add(id, rec)
		if id == sample {
			sampleKeys = keys
		}
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, nil, err
	}
	return table, sampleKeys, nil
}

// decodeRecord reads one record object. A null record yields nil.
func decodeRecord(dec *json.Decoder) (types.Record, []string, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if tok == nil {
		return nil, nil, nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, fmt.Errorf("expected object, got %v", tok)
	}

	rec := types.Record{}
	var keys []string
	for dec.More() {
		name, err := stringToken(dec)
		if err != nil {
			return nil, nil, err
		}
		var v types.Value
		if err := dec.Decode(&v); err != nil {
			return nil, nil, fmt.Errorf("property %s: %w", name, err)
		}
		if _, dup := rec[name]; !dup {
			keys = append(keys, name)
		}
		rec[name] = v
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, nil, err
	}
	return rec, keys, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

func stringToken(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	s, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("expected key, got %v", tok)
	}
	return s, nil
}

// NumericProperties returns the keys of rec holding numbers, in keys
// order. Keys missing from rec are skipped.
func NumericProperties(rec types.Record, keys []string) []string {
	var out []string
	for _, k := range keys {
		if _, ok := rec.Get(k).Float(); ok {
			out = append(out, k)
		}
	}
	return out
}

// HasProperty reports whether name is a selectable numeric property.
func (d *Dataset) HasProperty(name string) bool {
	for _, p := range d.Properties {
		if p == name {
			return true
		}
	}
	return false
}

type lastUpdated struct {
	Timestamp json.RawMessage `json:"timestamp"`
}

// decodeTimestamp accepts an RFC 3339 string or Unix milliseconds.
func decodeTimestamp(r io.Reader) (time.Time, error) {
	var lu lastUpdated
	if err := json.NewDecoder(r).Decode(&lu); err != nil {
		return time.Time{}, err
	}
	var s string
	if err := json.Unmarshal(lu.Timestamp, &s); err == nil {
		return time.Parse(time.RFC3339Nano, s)
	}
	ms, err := strconv.ParseInt(string(lu.Timestamp), 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized timestamp %s", lu.Timestamp)
	}
	return time.UnixMilli(ms), nil
}

// HoursAgo returns the age of t at now, rounded to the nearest hour.
func HoursAgo(now, t time.Time) int {
	return int(math.Round(now.Sub(t).Hours()))
}

// FormatLastUpdated renders "Last updated: N hour(s) ago.".
func FormatLastUpdated(now, t time.Time) string {
	h := HoursAgo(now, t)
	unit := "hours"
	if h == 1 {
		unit = "hour"
	}
	return fmt.Sprintf("Last updated: %d %s ago.", h, unit)
}
