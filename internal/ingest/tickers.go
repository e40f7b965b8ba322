// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Ticker is one row of the ticker list.
type Ticker struct {
	Symbol   string
	Sector   string
	Industry string
}

// ReadTickersFile reads a ticker list from path.
func ReadTickersFile(path string) ([]Ticker, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening ticker list: %w", err)
	}
	defer f.Close()
	return ReadTickers(f)
}

// ReadTickers parses a CSV ticker list. The first column is the symbol;
// optional second and third columns are sector and industry. A first row
// naming a "ticker" or "symbol" column is a header; its column names are
// used to locate the fields. Blank and duplicate symbols are dropped.
func ReadTickers(r io.Reader) ([]Ticker, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	cols := map[string]int{"symbol": 0, "sector": 1, "industry": 2}
	seen := make(map[string]bool)
	var out []Ticker
	for line := 0; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading ticker list: %w", err)
		}
		if line == 0 && isHeader(row) {
			cols = headerColumns(row)
			continue
		}

		t := Ticker{
			Symbol:   strings.ToUpper(cell(row, cols["symbol"])),
			Sector:   cell(row, cols["sector"]),
			Industry: cell(row, cols["industry"]),
		}
		if t.Symbol == "" || seen[t.Symbol] {
			continue
		}
		seen[t.Symbol] = true
		out = append(out, t)
	}
	return out, nil
}

func isHeader(row []string) bool {
	for _, c := range row {
		h := strings.ToLower(strings.TrimSpace(c))
		if h == "ticker" || h == "symbol" {
			return true
		}
	}
	return false
}

func headerColumns(row []string) map[string]int {
	cols := map[string]int{"symbol": 0, "sector": -1, "industry": -1}
	for i, name := range row {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "ticker", "symbol":
			cols["symbol"] = i
		case "sector":
			cols["sector"] = i
		case "industry":
			cols["industry"] = i
		}
	}
	return cols
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
