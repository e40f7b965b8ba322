// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/scatterscope/internal/lookup"
	"github.com/pdiddy/scatterscope/internal/render"
	"github.com/pdiddy/scatterscope/internal/server"
	"github.com/pdiddy/scatterscope/internal/views"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the explorer as a JSON and image API",
	Long: `Serve loads the dataset once and answers plot, image, workbook, lookup,
ticker detail and saved-view requests over HTTP. Every plot endpoint takes
the encoded view in the "v" query parameter.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default :8080)")
	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ds, err := loadDataset(ctx, cmd, cfg)
	if err != nil {
		return err
	}
	idx, err := lookup.NewIndex(lookup.EntriesFromTable(ds.Table, ds.Categories))
	if err != nil {
		return err
	}
	defer idx.Close()

	book, err := views.Open(cfg.Views.File)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "loaded %d tickers, %d properties\n", ds.Table.Len(), len(ds.Properties))
	h := server.NewHandler(ds, idx, book, render.Options{Width: cfg.Render.Width, Height: cfg.Render.Height})
	return server.Serve(ctx, cfg.Server.Addr, h)
}
