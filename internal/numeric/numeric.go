// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package numeric decides which values may take part in plotting and
// arithmetic.
package numeric

import (
	"math"
	"strconv"
	"strings"

	"github.com/pdiddy/scatterscope/pkg/types"
)

// IsValid reports whether v is a finite number.
func IsValid(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// ValidValue returns the numeric payload of v when it is a valid number.
func ValidValue(v types.Value) (float64, bool) {
	f, ok := v.Float()
	if !ok || !IsValid(f) {
		return 0, false
	}
	return f, true
}

// ParseLiteral parses s (after trimming) as a decimal or scientific
// literal. It reports ok for any syntactically numeric text, including
// "NaN" and "Inf", so callers treat those as literals and let IsValid
// reject them.
func ParseLiteral(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return f, true
		}
		return 0, false
	}
	return f, true
}
