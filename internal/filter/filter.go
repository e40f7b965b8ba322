// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package filter evaluates conjunctive comparison filters against records.
// Evaluation is fail-closed: a filter that cannot be resolved to two valid
// numbers rejects the record.
package filter

import (
	"fmt"
	"strings"

	"github.com/pdiddy/scatterscope/internal/numeric"
	"github.com/pdiddy/scatterscope/pkg/types"
)

// Resolve turns an operand into a number for rec. Numeric literals win over
// property names; a property whose value is missing, non-numeric, or
// non-finite does not resolve.
func Resolve(operand string, rec types.Record) (float64, bool) {
	operand = strings.TrimSpace(operand)
	if operand == "" {
		return 0, false
	}
	if f, ok := numeric.ParseLiteral(operand); ok {
		return f, numeric.IsValid(f)
	}
	return numeric.ValidValue(rec.Get(operand))
}

// Evaluate reports whether rec passes f.
func Evaluate(rec types.Record, f types.Filter) bool {
	left, ok := Resolve(f.Left, rec)
	if !ok {
		return false
	}
	right, ok := Resolve(f.Right, rec)
	if !ok {
		return false
	}
	if f.Dir == types.AtMost {
		return left <= right
	}
	return left >= right
}

// EvaluateAll reports whether rec passes every filter. It stops at the
// first rejection. An empty list accepts everything.
func EvaluateAll(rec types.Record, filters []types.Filter) bool {
	for _, f := range filters {
		if !Evaluate(rec, f) {
			return false
		}
	}
	return true
}

// Normalize rewrites f into the >= form with the same meaning.
func Normalize(f types.Filter) types.Filter {
	if f.Dir == types.AtMost {
		return types.Filter{Left: f.Right, Right: f.Left, Dir: types.AtLeast}
	}
	return types.Filter{Left: f.Left, Right: f.Right, Dir: types.AtLeast}
}

// Toggle flips the comparison direction of f.
func Toggle(f types.Filter) types.Filter {
	f.Dir = f.Dir.Flip()
	return f
}

var operators = []struct {
	text string
	dir  types.Direction
}{
	{">=", types.AtLeast},
	{"<=", types.AtMost},
	{"≥", types.AtLeast},
	{"≤", types.AtMost},
}

// Parse reads a filter written as "left>=right" or "left<=right" (the
// symbols ≥ and ≤ work too). Operands are trimmed and may not be blank.
func Parse(s string) (types.Filter, error) {
	for _, op := range operators {
		left, right, ok := strings.Cut(s, op.text)
		if !ok {
			continue
		}
		f := types.Filter{Left: strings.TrimSpace(left), Right: strings.TrimSpace(right), Dir: op.dir}
		if !f.IsComplete() {
			return types.Filter{}, fmt.Errorf("filter %q: both operands are required", s)
		}
		return f, nil
	}
	return types.Filter{}, fmt.Errorf("filter %q: expected left>=right or left<=right", s)
}
