// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the scatterscope CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/scatterscope/internal/dataset"
	"github.com/pdiddy/scatterscope/internal/ingest"
	"github.com/pdiddy/scatterscope/internal/render"
	"github.com/pdiddy/scatterscope/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the scatterscope CLI.
var rootCmd = &cobra.Command{
	Use:   "scatterscope",
	Short: "Explore per-ticker financial data as scatter plots",
	Long: `scatterscope plots one numeric property of every ticker against another.
Views combine two axes (linear or log), comparison filters, category
colouring, reference and best-fit lines, and a list of tracked tickers.
Every view has a compact encoding that reproduces it exactly.

Use ingest to build a dataset, plot or export to render a view, and serve
to expose the explorer as a JSON API.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./scatterscope.yaml or ~/.config/scatterscope/scatterscope.yaml)")
	pf.String("data-dir", "", "dataset directory (default data)")
	pf.String("data-url", "", "base URL serving the dataset files; overrides --data-dir")
	pf.String("sample-ticker", "", "ticker whose numeric properties become the axes (default AAPL)")
	pf.String("store", "", "snapshot database (default data/snapshots.db)")
	pf.Int64("snapshot", -1, "read the dataset from this stored snapshot instead of files (0 = latest)")

	viper.BindPFlag("data.dir", pf.Lookup("data-dir"))
	viper.BindPFlag("data.url", pf.Lookup("data-url"))
	viper.BindPFlag("data.sample_ticker", pf.Lookup("sample-ticker"))
	viper.BindPFlag("store.path", pf.Lookup("store"))

	viper.SetDefault("data.dir", "data")
	viper.SetDefault("data.sample_ticker", dataset.DefaultSampleTicker)
	viper.SetDefault("data.timeout", 30*time.Second)
	viper.SetDefault("store.path", filepath.Join("data", "snapshots.db"))
	viper.SetDefault("store.keep", 10)
	viper.SetDefault("ingest.tickers_file", "tickers.csv")
	viper.SetDefault("ingest.delay", ingest.DefaultDelay)
	viper.SetDefault("ingest.rate_limit_wait", ingest.DefaultRateLimitWait)
	viper.SetDefault("ingest.max_age", ingest.DefaultMaxAge)
	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("render.width", render.DefaultWidth)
	viper.SetDefault("render.height", render.DefaultHeight)
	viper.SetDefault("views.file", "views.yaml")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("scatterscope")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "scatterscope"))
		}
	}

	viper.SetEnvPrefix("SCATTERSCOPE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig reads the effective configuration from viper.
func loadConfig() types.Config {
	return types.Config{
		Data: types.DataConfig{
			HTTPConfig:   types.HTTPConfig{Timeout: viper.GetDuration("data.timeout")},
			Dir:          viper.GetString("data.dir"),
			URL:          viper.GetString("data.url"),
			SampleTicker: viper.GetString("data.sample_ticker"),
		},
		Store: types.StoreConfig{
			Path: viper.GetString("store.path"),
			Keep: viper.GetInt("store.keep"),
		},
		Ingest: types.IngestConfig{
			TickersFile:   viper.GetString("ingest.tickers_file"),
			Delay:         viper.GetDuration("ingest.delay"),
			RateLimitWait: viper.GetDuration("ingest.rate_limit_wait"),
			MaxAge:        viper.GetDuration("ingest.max_age"),
		},
		Server: types.ServerConfig{Addr: viper.GetString("server.addr")},
		Render: types.RenderConfig{
			Width:  viper.GetInt("render.width"),
			Height: viper.GetInt("render.height"),
		},
		Views: types.ViewsConfig{File: viper.GetString("views.file")},
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
