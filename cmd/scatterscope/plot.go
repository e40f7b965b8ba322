// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/scatterscope/internal/export"
	"github.com/pdiddy/scatterscope/internal/render"
)

var plotCmd = &cobra.Command{
	Use:   "plot",
	Short: "Render a view as a PNG or SVG chart",
	Long: `Plot projects the dataset through a view and renders the chart. The
view comes from --view (an encoded view) and the axis, filter, overlay and
tracking flags, which override it. The image format follows the --out
extension unless --format is given. With --json the projection is printed
instead of rendered.`,
	RunE: runPlot,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a view to an Excel workbook",
	Long: `Export writes one sheet per plotted series and a native scatter chart
over them, using the same view flags as plot.`,
	RunE: runExport,
}

func init() {
	addViewFlags(plotCmd)
	plotCmd.Flags().StringP("out", "o", "plot.png", "output file")
	plotCmd.Flags().String("format", "", "image format: png or svg (default from --out)")
	plotCmd.Flags().Int("width", 0, "image width in pixels")
	plotCmd.Flags().Int("height", 0, "image height in pixels")
	plotCmd.Flags().Bool("json", false, "print the projection as JSON instead of rendering")
	plotCmd.Flags().String("base-url", "", "print a shareable URL on this base")

	addViewFlags(exportCmd)
	exportCmd.Flags().StringP("out", "o", "plot.xlsx", "output file")

	rootCmd.AddCommand(plotCmd)
	rootCmd.AddCommand(exportCmd)
}

func runPlot(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	ds, err := loadDataset(context.Background(), cmd, cfg)
	if err != nil {
		return err
	}
	s, err := sessionFromFlags(cmd, ds)
	if err != nil {
		return err
	}
	p := s.Project()

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(p.Plot)
	}

	out, _ := cmd.Flags().GetString("out")
	formatName, _ := cmd.Flags().GetString("format")
	if formatName == "" {
		formatName = strings.TrimPrefix(filepath.Ext(out), ".")
	}
	f, err := render.ParseFormat(formatName)
	if err != nil {
		return err
	}

	opts := render.Options{Width: cfg.Render.Width, Height: cfg.Render.Height, Format: f}
	if w, _ := cmd.Flags().GetInt("width"); w > 0 {
		opts.Width = w
	}
	if h, _ := cmd.Flags().GetInt("height"); h > 0 {
		opts.Height = h
	}

	file, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("creating %s: %w", out, err)
	}
	if err := render.Render(file, p.Plot, opts); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}

	fmt.Printf("%s: %d plotted, %d tracked\n", p.Layout.Title, p.Plotted, p.Tracked)
	fmt.Printf("wrote %s\n", out)
	fmt.Printf("view: %s\n", s.Encoded())
	if base, _ := cmd.Flags().GetString("base-url"); base != "" {
		u, err := s.URL(base)
		if err != nil {
			return err
		}
		fmt.Printf("url: %s\n", u)
	}
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	ds, err := loadDataset(context.Background(), cmd, cfg)
	if err != nil {
		return err
	}
	s, err := sessionFromFlags(cmd, ds)
	if err != nil {
		return err
	}
	p := s.Project()

	out, _ := cmd.Flags().GetString("out")
	if err := export.Save(out, p.Plot); err != nil {
		return err
	}
	fmt.Printf("%s: %d plotted, %d tracked\n", p.Layout.Title, p.Plotted, p.Tracked)
	fmt.Printf("wrote %s\n", out)
	return nil
}
