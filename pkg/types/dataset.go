// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the data structures shared by the scatterscope
// packages: records and values, category tables, views, filters, and the
// plot description handed to renderers.
package types

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// ValueKind identifies what a Value holds.
type ValueKind int

const (
	// ValueAbsent marks a missing key, a JSON null, or a value of a kind the
	// explorer does not plot (booleans, arrays, objects).
	ValueAbsent ValueKind = iota
	ValueNumber
	ValueString
)

// Value is one property of a record: a number, a string, or absent.
type Value struct {
	Kind ValueKind
	Num  float64
	Str  string
}

// Number returns a numeric Value.
func Number(f float64) Value { return Value{Kind: ValueNumber, Num: f} }

// Text returns a string Value.
func Text(s string) Value { return Value{Kind: ValueString, Str: s} }

// Float returns the numeric payload and whether the value is a number.
// Strings are never coerced, even when they look numeric.
func (v Value) Float() (float64, bool) {
	if v.Kind != ValueNumber {
		return 0, false
	}
	return v.Num, true
}

// IsAbsent reports whether the value is missing.
func (v Value) IsAbsent() bool { return v.Kind == ValueAbsent }

// String renders the value for display.
func (v Value) String() string {
	switch v.Kind {
	case ValueNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case ValueString:
		return v.Str
	default:
		return ""
	}
}

// UnmarshalJSON decodes numbers and strings; everything else is absent.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		*v = Value{}
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = Text(s)
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		f, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			// Out-of-range literals still parse to ±Inf; anything else is malformed.
			if ne, ok := err.(*strconv.NumError); !ok || ne.Err != strconv.ErrRange {
				return err
			}
		}
		*v = Number(f)
	default:
		*v = Value{}
	}
	return nil
}

// MarshalJSON encodes absent values as null.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case ValueNumber:
		return json.Marshal(v.Num)
	case ValueString:
		return json.Marshal(v.Str)
	default:
		return []byte("null"), nil
	}
}

// Record maps property names to values for one entity. Records are not
// modified after load.
type Record map[string]Value

// Get returns the named property, absent when missing.
func (r Record) Get(property string) Value {
	return r[property]
}

// Table is the keyed record table. IDs preserves the order in which
// identifiers were loaded; iteration follows it.
type Table struct {
	IDs  []string
	Rows map[string]Record
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{Rows: make(map[string]Record)}
}

// Add appends or replaces the record for id. Replacing keeps the original
// position.
func (t *Table) Add(id string, rec Record) {
	if t.Rows == nil {
		t.Rows = make(map[string]Record)
	}
	if _, ok := t.Rows[id]; !ok {
		t.IDs = append(t.IDs, id)
	}
	t.Rows[id] = rec
}

// Get returns the record for id.
func (t *Table) Get(id string) (Record, bool) {
	if t == nil {
		return nil, false
	}
	rec, ok := t.Rows[id]
	return rec, ok
}

// Len returns the number of records.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.IDs)
}

// UnknownCategory is the grouping label for identifiers with no sector.
const UnknownCategory = "Unknown"

// CategoryInfo holds the category (sector) and sub-category (industry) of
// one identifier.
type CategoryInfo struct {
	// Sector is the primary grouping category.
	Sector string `json:"sector" yaml:"sector"`

	// Industry is the sub-category, shown in detail views only.
	Industry string `json:"industry" yaml:"industry"`
}

// CategoryTable maps identifiers to their categories.
type CategoryTable map[string]CategoryInfo

// Category returns the sector of id, or UnknownCategory when it is missing
// or empty.
func (c CategoryTable) Category(id string) string {
	info, ok := c[id]
	if !ok || info.Sector == "" {
		return UnknownCategory
	}
	return info.Sector
}

// YearlyFinancials is one row of per-year revenue and earnings for the
// detail view.
type YearlyFinancials struct {
	// Date is the fiscal period label, usually a year.
	Date Value `json:"date" yaml:"date"`

	// Revenue is the total revenue for the period.
	Revenue Value `json:"revenue" yaml:"revenue"`

	// Earnings is the net earnings for the period.
	Earnings Value `json:"earnings" yaml:"earnings"`
}
