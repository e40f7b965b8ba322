// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/scatterscope/internal/dataset"
	"github.com/pdiddy/scatterscope/pkg/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "index", "snapshots.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleDataset() *dataset.Dataset {
	table := types.NewTable()
	table.Add("MSFT", types.Record{
		"marketCap": types.Number(3e12),
		"totalCash": types.Number(8e10),
	})
	table.Add("AAPL", types.Record{
		"totalCash": types.Number(6e10),
		"marketCap": types.Number(2.9e12),
		"longName":  types.Text("Apple Inc."),
		"beta":      types.Number(math.Inf(1)),
		"debt":      types.Value{},
	})
	return &dataset.Dataset{
		Table: table,
		Categories: types.CategoryTable{
			"AAPL": {Sector: "Technology", Industry: "Consumer Electronics"},
		},
		Financials: map[string][]types.YearlyFinancials{
			"AAPL": {{Date: types.Number(2024), Revenue: types.Number(3.9e11)}},
		},
		Properties: []string{"totalCash", "marketCap", "beta"},
		UpdatedAt:  time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC),
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.Save(ctx, sampleDataset(), "testdata")
	require.NoError(t, err)
	assert.Positive(t, id)

	ds, err := s.Load(ctx, id, "AAPL")
	require.NoError(t, err)

	assert.Equal(t, []string{"MSFT", "AAPL"}, ds.Table.IDs)
	aapl, _ := ds.Table.Get("AAPL")
	assert.Equal(t, types.Number(2.9e12), aapl["marketCap"])
	assert.Equal(t, types.Text("Apple Inc."), aapl["longName"])
	assert.True(t, aapl["beta"].IsAbsent(), "non-finite numbers read back absent")
	_, stored := aapl["debt"]
	assert.False(t, stored, "absent values are not stored")

	assert.Equal(t, []string{"totalCash", "marketCap"}, ds.Properties)
	assert.Equal(t, "Technology", ds.Categories.Category("AAPL"))
	assert.Equal(t, types.UnknownCategory, ds.Categories.Category("MSFT"))
	require.Len(t, ds.Financials["AAPL"], 1)
	assert.Equal(t, types.Number(3.9e11), ds.Financials["AAPL"][0].Revenue)
	assert.True(t, ds.Financials["AAPL"][0].Earnings.IsAbsent())
	assert.Equal(t, time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC), ds.UpdatedAt)
}

func TestLoad_LatestByDefault(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first, err := s.Save(ctx, sampleDataset(), "a")
	require.NoError(t, err)

	second := sampleDataset()
	second.Table.Add("GOOG", types.Record{"marketCap": types.Number(2e12)})
	secondID, err := s.Save(ctx, second, "b")
	require.NoError(t, err)
	assert.Greater(t, secondID, first)

	ds, err := s.Load(ctx, 0, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 3, ds.Table.Len())

	snaps, err := s.Snapshots(ctx)
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, secondID, snaps[0].ID)
	assert.Equal(t, "b", snaps[0].Source)
	assert.Equal(t, 3, snaps[0].Entities)
}

func TestLoad_Errors(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.Load(ctx, 0, "AAPL")
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = s.Latest(ctx)
	assert.ErrorIs(t, err, ErrEmpty)

	id, err := s.Save(ctx, sampleDataset(), "")
	require.NoError(t, err)

	_, err = s.Load(ctx, id+100, "AAPL")
	assert.Error(t, err)

	_, err = s.Load(ctx, id, "TSLA")
	assert.ErrorIs(t, err, dataset.ErrSampleMissing)
}

func TestPrune(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for range 3 {
		_, err := s.Save(ctx, sampleDataset(), "")
		require.NoError(t, err)
	}

	n, err := s.Prune(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	snaps, err := s.Snapshots(ctx)
	require.NoError(t, err)
	assert.Len(t, snaps, 1)

	ds, err := s.Load(ctx, snaps[0].ID, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 2, ds.Table.Len())
}

func TestRecordKeys(t *testing.T) {
	rec := types.Record{"c": types.Number(1), "a": types.Number(2), "b": types.Text("x"), "z": types.Number(3)}
	assert.Equal(t, []string{"z", "c", "a", "b"}, recordKeys(rec, []string{"z", "c", "missing"}))
}
