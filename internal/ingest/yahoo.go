// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ingest

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/piquette/finance-go/equity"

	"github.com/pdiddy/scatterscope/pkg/types"
)

// Quote is the raw property set returned for one symbol.
type Quote struct {
	Symbol     string
	Currency   string
	Properties types.Record

	// Sector and Industry are filled when the provider knows them.
	Sector   string
	Industry string
}

// QuoteSource fetches quotes.
type QuoteSource interface {
	Quote(ctx context.Context, symbol string) (Quote, error)
}

// YahooSource fetches equity quotes from Yahoo Finance.
type YahooSource struct{}

// Quote fetches symbol. The quote's JSON field names become the property
// names, so they match the names Yahoo uses elsewhere (marketCap,
// trailingPE, ...).
func (YahooSource) Quote(ctx context.Context, symbol string) (Quote, error) {
	if err := ctx.Err(); err != nil {
		return Quote{}, err
	}
	eq, err := equity.Get(symbol)
	if err != nil {
		return Quote{}, err
	}
	if eq == nil {
		return Quote{}, fmt.Errorf("no quote for %s", symbol)
	}

	data, err := json.Marshal(eq)
	if err != nil {
		return Quote{}, fmt.Errorf("encoding quote: %w", err)
	}
	return quoteFromJSON(symbol, data)
}

// quoteFromJSON keeps the numeric and string fields of a quote object.
// Zero numbers are treated as missing, since the provider fills fields it
// has no data for with zero.
func quoteFromJSON(symbol string, data []byte) (Quote, error) {
	var raw map[string]types.Value
	if err := json.Unmarshal(data, &raw); err != nil {
		return Quote{}, fmt.Errorf("decoding quote: %w", err)
	}

	q := Quote{Symbol: symbol, Properties: types.Record{}}
	for name, v := range raw {
		switch v.Kind {
		case types.ValueNumber:
			if v.Num != 0 {
				q.Properties[name] = v
			}
		case types.ValueString:
			if name == "currency" {
				q.Currency = v.Str
			}
			if v.Str != "" {
				q.Properties[name] = v
			}
		}
	}
	return q, nil
}
