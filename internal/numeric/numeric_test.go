// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package numeric

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pdiddy/scatterscope/pkg/types"
)

func TestIsValid(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want bool
	}{
		{"zero", 0, true},
		{"negative", -12.5, true},
		{"large", 3e12, true},
		{"nan", math.NaN(), false},
		{"positive infinity", math.Inf(1), false},
		{"negative infinity", math.Inf(-1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValid(tt.in))
		})
	}
}

func TestValidValue(t *testing.T) {
	f, ok := ValidValue(types.Number(4))
	assert.True(t, ok)
	assert.Equal(t, 4.0, f)

	_, ok = ValidValue(types.Text("4"))
	assert.False(t, ok, "strings are not coerced")

	_, ok = ValidValue(types.Value{})
	assert.False(t, ok)

	_, ok = ValidValue(types.Number(math.NaN()))
	assert.False(t, ok)
}

func TestParseLiteral(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{"1000000000", 1e9, true},
		{"  1e9 ", 1e9, true},
		{"-0.5", -0.5, true},
		{"marketCap", 0, false},
		{"", 0, false},
		{"   ", 0, false},
		{"12abc", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseLiteral(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestParseLiteral_NonFiniteIsLiteralButInvalid(t *testing.T) {
	for _, in := range []string{"NaN", "Inf", "-Inf", "1e999"} {
		f, ok := ParseLiteral(in)
		assert.True(t, ok, in)
		assert.False(t, IsValid(f), in)
	}
}
