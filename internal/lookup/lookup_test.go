// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package lookup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/scatterscope/pkg/types"
)

func testIndex(t *testing.T) *Index {
	t.Helper()
	table := types.NewTable()
	table.Add("AAPL", types.Record{"longName": types.Text("Apple Inc.")})
	table.Add("AMZN", types.Record{"shortName": types.Text("Amazon.com, Inc.")})
	table.Add("MSFT", types.Record{"longName": types.Text("Microsoft Corporation")})
	table.Add("XOM", types.Record{"longName": types.Text("Exxon Mobil Corporation")})
	cats := types.CategoryTable{
		"AAPL": {Sector: "Technology", Industry: "Consumer Electronics"},
		"AMZN": {Sector: "Consumer Cyclical", Industry: "Internet Retail"},
		"MSFT": {Sector: "Technology", Industry: "Software"},
		"XOM":  {Sector: "Energy", Industry: "Oil & Gas Integrated"},
	}

	idx, err := NewIndex(EntriesFromTable(table, cats))
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	return idx
}

func symbols(entries []Entry) []string {
	var out []string
	for _, e := range entries {
		out = append(out, e.Symbol)
	}
	return out
}

func TestEntriesFromTable(t *testing.T) {
	table := types.NewTable()
	table.Add("B", types.Record{"shortName": types.Text("Bee"), "longName": types.Number(1)})
	table.Add("A", types.Record{})
	entries := EntriesFromTable(table, types.CategoryTable{"A": {Sector: "S"}})

	require.Len(t, entries, 2)
	assert.Equal(t, Entry{Symbol: "B", Name: "Bee"}, entries[0])
	assert.Equal(t, Entry{Symbol: "A", Sector: "S"}, entries[1])
}

func TestSearch_ExactSymbolFirst(t *testing.T) {
	idx := testIndex(t)

	got, err := idx.Search("aapl", 5)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, "AAPL", got[0].Symbol)
	assert.Equal(t, "Apple Inc.", got[0].Name)
	assert.Equal(t, "Technology", got[0].Sector)
}

func TestSearch_ByName(t *testing.T) {
	idx := testIndex(t)

	got, err := idx.Search("microsoft", 5)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, "MSFT", got[0].Symbol)
}

func TestSearch_BySector(t *testing.T) {
	idx := testIndex(t)

	got, err := idx.Search("technology", 5)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"AAPL", "MSFT"}, symbols(got))
}

func TestSearch_Limit(t *testing.T) {
	idx := testIndex(t)

	got, err := idx.Search("a", 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestSearch_Empty(t *testing.T) {
	idx := testIndex(t)

	got, err := idx.Search("  ", 5)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = idx.Search("zzzz", 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCount(t *testing.T) {
	n, err := testIndex(t).Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(4), n)
}
