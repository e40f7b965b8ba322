// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package axis applies per-axis scale rules: which values a scale can
// show and where they land in plot space.
package axis

import (
	"math"

	"github.com/pdiddy/scatterscope/internal/numeric"
	"github.com/pdiddy/scatterscope/pkg/types"
)

// Accept reports whether v can be shown on an axis. A log axis accepts
// strictly positive values only; a linear axis accepts anything.
func Accept(v float64, log bool) bool {
	return !log || v > 0
}

// AcceptPoint reports whether (x, y) is finite and accepted by both axes.
func AcceptPoint(x, y float64, xLog, yLog bool) bool {
	return numeric.IsValid(x) && numeric.IsValid(y) && Accept(x, xLog) && Accept(y, yLog)
}

// ToPlot maps a data value into plot space: log10 on a log axis, identity
// otherwise.
func ToPlot(v float64, log bool) float64 {
	if log {
		return math.Log10(v)
	}
	return v
}

// FromPlot inverts ToPlot.
func FromPlot(p float64, log bool) float64 {
	if log {
		return math.Pow(10, p)
	}
	return p
}

// Scale names the scale for a log flag.
func Scale(log bool) types.Scale {
	if log {
		return types.ScaleLog
	}
	return types.ScaleLinear
}
