// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/scatterscope/internal/ingest"
	"github.com/pdiddy/scatterscope/internal/store"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Fetch quote data for a ticker list and write the dataset",
	Long: `Ingest reads a CSV of tickers (symbol, sector, industry), fetches each
quote from Yahoo Finance, and writes ticker_info.json, sec_info.json,
valid_tickers.json, errors.json and last_updated.json to the data directory.

Tickers quoted in a currency other than USD, or without a market cap, are
recorded in errors.json and left out. The run is skipped when the existing
data is younger than --max-age unless --force is given. Each successful run
is also saved as a snapshot in the store unless --no-store is given.`,
	RunE: runIngest,
}

func init() {
	f := ingestCmd.Flags()
	f.String("tickers", "", "CSV file listing tickers (default tickers.csv)")
	f.Duration("delay", 0, "pause before each request (default 500ms)")
	f.Duration("rate-limit-wait", 0, "extra pause after a rate-limit error (default 1m)")
	f.Duration("max-age", 0, "skip the run when the data is younger than this (default 4h)")
	f.Bool("force", false, "fetch even when the data is fresh")
	f.Bool("no-store", false, "do not save a snapshot")

	viper.BindPFlag("ingest.tickers_file", f.Lookup("tickers"))
	viper.BindPFlag("ingest.delay", f.Lookup("delay"))
	viper.BindPFlag("ingest.rate_limit_wait", f.Lookup("rate-limit-wait"))
	viper.BindPFlag("ingest.max_age", f.Lookup("max-age"))

	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	tickers, err := ingest.ReadTickersFile(cfg.Ingest.TickersFile)
	if err != nil {
		return err
	}
	if len(tickers) == 0 {
		return fmt.Errorf("no tickers in %s", cfg.Ingest.TickersFile)
	}

	opts := ingest.DefaultOptions(cfg.Data.Dir)
	opts.Delay = cfg.Ingest.Delay
	opts.RateLimitWait = cfg.Ingest.RateLimitWait
	opts.MaxAge = cfg.Ingest.MaxAge
	opts.Force, _ = cmd.Flags().GetBool("force")

	res, err := ingest.Run(ctx, tickers, ingest.YahooSource{}, opts, os.Stdout)
	if errors.Is(err, ingest.ErrFresh) {
		fmt.Println("use --force to fetch anyway")
		return nil
	}
	if err != nil {
		return err
	}

	if noStore, _ := cmd.Flags().GetBool("no-store"); noStore || res.Dataset == nil {
		return nil
	}
	return saveSnapshot(ctx, cfg.Store.Path, cfg.Store.Keep, res)
}

func saveSnapshot(ctx context.Context, path string, keep int, res ingest.Result) error {
	st, err := store.Open(path)
	if err != nil {
		return err
	}
	defer st.Close()

	id, err := st.Save(ctx, res.Dataset, "yahoo")
	if err != nil {
		return err
	}
	fmt.Printf("saved snapshot %d to %s\n", id, path)

	if keep > 0 {
		n, err := st.Prune(ctx, keep)
		if err != nil {
			return err
		}
		if n > 0 {
			fmt.Printf("pruned %d old snapshots\n", n)
		}
	}
	return nil
}
