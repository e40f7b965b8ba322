// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package format renders metric values and the per-entity detail view.
package format

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/pdiddy/scatterscope/internal/numeric"
	"github.com/pdiddy/scatterscope/pkg/types"
)

// NotAvailable is shown for missing values.
const NotAvailable = "N/A"

// InfoMetrics are the properties listed in the detail view, in order.
var InfoMetrics = []string{
	"marketCap",
	"enterpriseValue",
	"freeCashflow",
	"operatingCashflow",
	"trailingPE",
	"forwardPE",
	"dividendYield",
	"priceToBook",
}

var (
	billion = decimal.New(1, 9)
	hundred = decimal.NewFromInt(100)
)

// Value formats v for metric:
//
//	money metrics   $X.XXB
//	ratios          X.XX
//	dividendYield   X.XX%
//	anything else   the plain value
//
// Missing values render as N/A.
func Value(metric string, v types.Value) string {
	if v.IsAbsent() {
		return NotAvailable
	}
	f, ok := v.Float()
	if !ok {
		return v.String()
	}
	if !numeric.IsValid(f) {
		return NotAvailable
	}
	d := decimal.NewFromFloat(f)
	switch metric {
	case "marketCap", "enterpriseValue", "freeCashflow", "operatingCashflow", "revenue", "earnings":
		return "$" + d.Div(billion).StringFixed(2) + "B"
	case "trailingPE", "forwardPE", "priceToBook":
		return d.StringFixed(2)
	case "dividendYield":
		return d.Mul(hundred).StringFixed(2) + "%"
	default:
		return v.String()
	}
}

// Row is one label/value line of the detail view.
type Row struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Info is the detail view of one entity.
type Info struct {
	ID       string `json:"id"`
	Sector   string `json:"sector"`
	Industry string `json:"industry,omitempty"`
	Rows     []Row  `json:"rows"`
}

// Title renders "ID - Sector".
func (i Info) Title() string {
	return fmt.Sprintf("%s - %s", i.ID, i.Sector)
}

// BuildInfo assembles the detail view of id: the fixed metric list, then a
// revenue and an earnings row per financial period.
func BuildInfo(id string, rec types.Record, cat types.CategoryInfo, fin []types.YearlyFinancials) Info {
	info := Info{ID: id, Sector: cat.Sector, Industry: cat.Industry}
	if info.Sector == "" {
		info.Sector = types.UnknownCategory
	}
	for _, m := range InfoMetrics {
		info.Rows = append(info.Rows, Row{Label: m, Value: Value(m, rec.Get(m))})
	}
	for _, y := range fin {
		info.Rows = append(info.Rows,
			Row{Label: fmt.Sprintf("Revenue (%s)", y.Date), Value: Value("revenue", y.Revenue)},
			Row{Label: fmt.Sprintf("Earnings (%s)", y.Date), Value: Value("earnings", y.Earnings)},
		)
	}
	return info
}
