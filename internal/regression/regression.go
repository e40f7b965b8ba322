// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package regression fits ordinary least-squares lines and projects them
// back into data space for any combination of logarithmic axes.
package regression

import (
	"math"

	"github.com/aclements/go-moremath/stats"
	"github.com/aclements/go-moremath/vec"

	"github.com/pdiddy/scatterscope/internal/numeric"
	"github.com/pdiddy/scatterscope/pkg/types"
)

// Coefficients are the slope and intercept of y = slope*x + intercept.
type Coefficients struct {
	Slope     float64
	Intercept float64
}

// Valid reports whether both coefficients are finite. A fit over points
// that all share one x is degenerate and never valid.
func (c Coefficients) Valid() bool {
	return numeric.IsValid(c.Slope) && numeric.IsValid(c.Intercept)
}

// Fit computes the closed-form least-squares coefficients for paired xs
// and ys. Pairs beyond the shorter slice are ignored. Fewer than two
// pairs, or all-equal x, yield non-finite coefficients.
func Fit(xs, ys []float64) Coefficients {
	n := min(len(xs), len(ys))
	xs, ys = xs[:n], ys[:n]

	var sumXY, sumXX float64
	for i := range n {
		sumXY += xs[i] * ys[i]
		sumXX += xs[i] * xs[i]
	}
	sumX, sumY := vec.Sum(xs), vec.Sum(ys)
	fn := float64(n)

	slope := (fn*sumXY - sumX*sumY) / (fn*sumXX - sumX*sumX)
	intercept := (sumY - slope*sumX) / fn
	return Coefficients{Slope: slope, Intercept: intercept}
}

// Eval returns the fitted y for x in data space, inverting the log
// transforms that were applied before fitting.
func (c Coefficients) Eval(x float64, logX, logY bool) float64 {
	switch {
	case logX && logY:
		return math.Exp(c.Slope*math.Log(x) + c.Intercept)
	case logX:
		return c.Slope*math.Log(x) + c.Intercept
	case logY:
		return math.Exp(c.Slope*x + c.Intercept)
	default:
		return c.Slope*x + c.Intercept
	}
}

// ProjectLine returns the two endpoints of the fitted line at minX and
// maxX in data space.
func ProjectLine(minX, maxX float64, c Coefficients, logX, logY bool) [2]types.Point {
	return [2]types.Point{
		{X: minX, Y: c.Eval(minX, logX, logY)},
		{X: maxX, Y: c.Eval(maxX, logX, logY)},
	}
}

// Line is a fitted line ready to draw.
type Line struct {
	Coefficients
	Points [2]types.Point
}

// BestFit fits a line to the pairs usable under the given axis scales.
// Pairs with a non-positive value on a log axis, or a non-finite value on
// either axis, are dropped; the rest are fitted in ln space on log axes.
// The line spans the minimum to maximum of the remaining raw x values.
// It reports false when fewer than two pairs remain, the fit is
// degenerate, or an endpoint is not finite.
func BestFit(xs, ys []float64, logX, logY bool) (Line, bool) {
	n := min(len(xs), len(ys))
	var keptX, fitX, fitY []float64
	for i := range n {
		x, y := xs[i], ys[i]
		if !numeric.IsValid(x) || !numeric.IsValid(y) {
			continue
		}
		if (logX && x <= 0) || (logY && y <= 0) {
			continue
		}
		keptX = append(keptX, x)
		fitX = append(fitX, transform(x, logX))
		fitY = append(fitY, transform(y, logY))
	}
	if len(keptX) < 2 {
		return Line{}, false
	}

	c := Fit(fitX, fitY)
	if !c.Valid() {
		return Line{}, false
	}

	minX, maxX := stats.Bounds(keptX)
	pts := ProjectLine(minX, maxX, c, logX, logY)
	for _, p := range pts {
		if !numeric.IsValid(p.Y) {
			return Line{}, false
		}
	}
	return Line{Coefficients: c, Points: pts}, true
}

func transform(v float64, log bool) float64 {
	if log {
		return math.Log(v)
	}
	return v
}
