// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"slices"
	"strings"
)

// Direction is the comparison a filter applies.
type Direction string

const (
	// AtLeast keeps records whose left operand is >= the right operand.
	AtLeast Direction = ">="
	// AtMost keeps records whose left operand is <= the right operand.
	AtMost Direction = "<="
)

// Symbol returns the display form of the comparison.
func (d Direction) Symbol() string {
	if d == AtMost {
		return "≤"
	}
	return "≥"
}

// Flip returns the opposite direction.
func (d Direction) Flip() Direction {
	if d == AtMost {
		return AtLeast
	}
	return AtMost
}

// Filter compares two operands. Each operand is either a numeric literal or
// a property name; literals take precedence.
type Filter struct {
	Left  string    `json:"left" yaml:"left"`
	Right string    `json:"right" yaml:"right"`
	Dir   Direction `json:"dir" yaml:"dir"`
}

// IsComplete reports whether both operands are non-blank.
func (f Filter) IsComplete() bool {
	return strings.TrimSpace(f.Left) != "" && strings.TrimSpace(f.Right) != ""
}

// String renders the filter as "left ≥ right".
func (f Filter) String() string {
	return strings.TrimSpace(f.Left) + " " + f.Dir.Symbol() + " " + strings.TrimSpace(f.Right)
}

// AxisConfig selects the property plotted on one axis and its scale.
type AxisConfig struct {
	Property string `json:"property" yaml:"property"`
	Log      bool   `json:"log" yaml:"log"`
}

// Default axis properties.
const (
	DefaultXProperty = "marketCap"
	DefaultYProperty = "totalCash"
)

// ViewState is everything needed to reproduce a plot.
type ViewState struct {
	// X is the horizontal axis configuration.
	X AxisConfig `json:"x" yaml:"x"`

	// Y is the vertical axis configuration.
	Y AxisConfig `json:"y" yaml:"y"`

	// Filters are applied conjunctively.
	Filters []Filter `json:"filters,omitempty" yaml:"filters,omitempty"`

	// Industries keeps only records in the listed sub-categories; empty
	// keeps all.
	Industries []string `json:"industries,omitempty" yaml:"industries,omitempty"`

	// ColorByCategory splits points into one series per category.
	ColorByCategory bool `json:"color_by_category,omitempty" yaml:"color_by_category,omitempty"`

	// ShowDiagonal overlays the x = y reference line.
	ShowDiagonal bool `json:"show_diagonal,omitempty" yaml:"show_diagonal,omitempty"`

	// ShowBestFit overlays the least-squares line.
	ShowBestFit bool `json:"show_best_fit,omitempty" yaml:"show_best_fit,omitempty"`

	// Tracked lists the identifiers highlighted regardless of filters.
	Tracked []string `json:"tracked,omitempty" yaml:"tracked,omitempty"`
}

// DefaultViewState returns the state shown when no encoded view is given.
func DefaultViewState() ViewState {
	return ViewState{
		X: AxisConfig{Property: DefaultXProperty},
		Y: AxisConfig{Property: DefaultYProperty},
	}
}

// Clone returns a deep copy of s.
func (s ViewState) Clone() ViewState {
	c := s
	c.Filters = slices.Clone(s.Filters)
	c.Tracked = slices.Clone(s.Tracked)
	c.Industries = slices.Clone(s.Industries)
	return c
}

// CompleteFilters returns the filters whose operands are both filled in.
func (s ViewState) CompleteFilters() []Filter {
	var out []Filter
	for _, f := range s.Filters {
		if f.IsComplete() {
			out = append(out, f)
		}
	}
	return out
}
