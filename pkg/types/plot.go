// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// SeriesKind distinguishes point clouds from overlay lines.
type SeriesKind string

const (
	SeriesMarkers SeriesKind = "markers"
	SeriesLine    SeriesKind = "line"
)

// LineStyle is the stroke pattern of a line series.
type LineStyle string

const (
	LineSolid  LineStyle = "solid"
	LineDashed LineStyle = "dash"
)

// Point is one plotted value pair. Label carries the identifier for marker
// points and is empty for line endpoints.
type Point struct {
	X     float64 `json:"x" yaml:"x"`
	Y     float64 `json:"y" yaml:"y"`
	Label string  `json:"label,omitempty" yaml:"label,omitempty"`
}

// Series is a named, coloured group of points or a line.
type Series struct {
	// Key identifies the series (category label, "Tracked Stocks", ...).
	Key string `json:"key" yaml:"key"`

	// Name is the legend text.
	Name string `json:"name" yaml:"name"`

	// Kind is markers or line.
	Kind SeriesKind `json:"kind" yaml:"kind"`

	// Color is a "#rrggbb" hex colour.
	Color string `json:"color" yaml:"color"`

	// Style is the stroke pattern for line series.
	Style LineStyle `json:"style,omitempty" yaml:"style,omitempty"`

	// Points holds the data, or the two endpoints of a line.
	Points []Point `json:"points" yaml:"points"`
}

// Scale names an axis scale.
type Scale string

const (
	ScaleLinear Scale = "linear"
	ScaleLog    Scale = "log"
)

// Layout describes the plot frame.
type Layout struct {
	Title  string `json:"title" yaml:"title"`
	XTitle string `json:"x_title" yaml:"x_title"`
	YTitle string `json:"y_title" yaml:"y_title"`
	XScale Scale  `json:"x_scale" yaml:"x_scale"`
	YScale Scale  `json:"y_scale" yaml:"y_scale"`
}

// Plot is a complete projection handed to a rendering surface.
type Plot struct {
	Series []Series `json:"series" yaml:"series"`
	Layout Layout   `json:"layout" yaml:"layout"`

	// Plotted is the number of records that passed filters and axis checks.
	Plotted int `json:"plotted" yaml:"plotted"`

	// Tracked is the number of tracked identifiers that could be placed.
	Tracked int `json:"tracked" yaml:"tracked"`
}
