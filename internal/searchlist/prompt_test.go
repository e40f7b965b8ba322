// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package searchlist

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrompt_KeyboardCommit(t *testing.T) {
	var picked string
	l := New([]string{"marketCap", "totalCash", "cashRatio"}, func(s string) { picked = s })

	var out bytes.Buffer
	text, ok, err := l.Prompt(strings.NewReader("cash\ndown\ndown\nenter\nignored\n"), &out)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "cashRatio", text)
	assert.Equal(t, "cashRatio", picked, "the list's own callback still runs")
	assert.Equal(t, "cashRatio", l.Query())
	assert.Equal(t, Idle, l.State())

	assert.Contains(t, out.String(), "  1 totalCash\n  2 cashRatio\n")
	assert.Contains(t, out.String(), "> 2 cashRatio\n")
	assert.True(t, strings.HasSuffix(out.String(), "selected cashRatio\n"))
}

func TestPrompt_ClickAndPlaceholder(t *testing.T) {
	l := New([]string{"marketCap", "totalCash"}, nil)

	var out bytes.Buffer
	text, ok, err := l.Prompt(strings.NewReader("zzz\n#x\nesc\nt\n#2\n"), &out)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "totalCash", text, "#2 picks the second rendered match")
	assert.Contains(t, out.String(), "    "+NoResults+"\n")
	assert.Contains(t, out.String(), "not a match number: #x\n")
}

func TestPrompt_InputEnds(t *testing.T) {
	l := New([]string{"marketCap"}, nil)
	text, ok, err := l.Prompt(strings.NewReader("market\ndown\n"), &bytes.Buffer{})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, text)
	assert.Equal(t, 0, l.Highlighted())
}
