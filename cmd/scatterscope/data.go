// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/scatterscope/internal/dataset"
	"github.com/pdiddy/scatterscope/internal/explorer"
	"github.com/pdiddy/scatterscope/internal/filter"
	"github.com/pdiddy/scatterscope/internal/store"
	"github.com/pdiddy/scatterscope/pkg/types"
)

// loadDataset reads the dataset from the snapshot store when --snapshot is
// given, otherwise from the configured URL or directory. Any failure is
// fatal to the command.
func loadDataset(ctx context.Context, cmd *cobra.Command, cfg types.Config) (*dataset.Dataset, error) {
	snapshot, _ := cmd.Flags().GetInt64("snapshot")

	var (
		ds  *dataset.Dataset
		err error
	)
	if snapshot >= 0 {
		ds, err = loadSnapshot(ctx, cfg, snapshot)
	} else {
		location := cfg.Data.Dir
		if cfg.Data.URL != "" {
			location = cfg.Data.URL
		}
		ds, err = dataset.Load(ctx, dataset.NewSource(location, cfg.Data.Timeout), cfg.Data.SampleTicker)
	}
	if err != nil {
		return nil, fmt.Errorf("error initializing application: %w", err)
	}
	return ds, nil
}

func loadSnapshot(ctx context.Context, cfg types.Config, id int64) (*dataset.Dataset, error) {
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	defer st.Close()
	return st.Load(ctx, id, cfg.Data.SampleTicker)
}

// addViewFlags registers the flags that describe a view.
func addViewFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("view", "", "encoded view to start from")
	f.String("x", "", "property on the X axis")
	f.String("y", "", "property on the Y axis")
	f.Bool("log-x", false, "log scale on the X axis")
	f.Bool("log-y", false, "log scale on the Y axis")
	f.Bool("swap", false, "swap the X and Y properties")
	f.StringArray("filter", nil, `filter such as "marketCap>=1e9" or "trailingPE<=30" (repeatable)`)
	f.StringArray("industry", nil, "keep only tickers in this industry (repeatable)")
	f.Bool("color", false, "colour points by sector")
	f.Bool("diagonal", false, "draw the y = x line")
	f.Bool("best-fit", false, "draw the least-squares line")
	f.Bool("fit-per-category", false, "fit one line per sector when colouring by sector")
	f.StringSlice("track", nil, "tickers to highlight (comma-separated or repeated)")
}

// sessionFromFlags starts a session on ds and applies the view flags. Flags
// set explicitly override the encoded view.
func sessionFromFlags(cmd *cobra.Command, ds *dataset.Dataset) (*explorer.Session, error) {
	s := explorer.New(ds)
	flags := cmd.Flags()

	if enc, _ := flags.GetString("view"); enc != "" {
		// A malformed view falls back to the default with a warning.
		_ = s.ApplyEncoded(enc)
	}

	for _, a := range []explorer.Axis{explorer.X, explorer.Y} {
		if p, _ := flags.GetString(a.String()); p != "" {
			if err := s.SetProperty(a, p); err != nil {
				return nil, err
			}
		}
		if flags.Changed("log-" + a.String()) {
			on, _ := flags.GetBool("log-" + a.String())
			s.SetLog(a, on)
		}
	}
	if swap, _ := flags.GetBool("swap"); swap {
		s.Swap()
	}

	exprs, _ := flags.GetStringArray("filter")
	for _, expr := range exprs {
		f, err := filter.Parse(expr)
		if err != nil {
			return nil, err
		}
		s.AddFilter(f)
	}

	industries, _ := flags.GetStringArray("industry")
	for _, ind := range industries {
		if err := s.SelectIndustry(ind); err != nil {
			return nil, err
		}
	}

	if flags.Changed("color") {
		on, _ := flags.GetBool("color")
		s.SetColorByCategory(on)
	}
	if flags.Changed("diagonal") {
		on, _ := flags.GetBool("diagonal")
		s.SetDiagonal(on)
	}
	if flags.Changed("best-fit") {
		on, _ := flags.GetBool("best-fit")
		s.SetBestFit(on)
	}
	s.BestFitPerCategory, _ = flags.GetBool("fit-per-category")

	tickers, _ := flags.GetStringSlice("track")
	for _, t := range tickers {
		if err := s.Track(strings.TrimSpace(t)); err != nil && !errors.Is(err, explorer.ErrAlreadyTracked) {
			return nil, err
		}
	}
	return s, nil
}
