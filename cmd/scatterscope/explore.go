// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/scatterscope/internal/dataset"
	"github.com/pdiddy/scatterscope/internal/explorer"
	"github.com/pdiddy/scatterscope/internal/lookup"
	"github.com/pdiddy/scatterscope/internal/searchlist"
	"github.com/pdiddy/scatterscope/internal/store"
)

// --- properties ---

var propertiesCmd = &cobra.Command{
	Use:   "properties [query]",
	Short: "List the numeric properties that can be plotted",
	Long: `Properties lists the numeric properties of the sample ticker, in the
order they appear in the data. A query keeps the properties containing it,
ignoring case.

With --pick the command becomes a line prompt that assigns a property to
an axis of the --view view. Type text to search, "up"/"down" to move,
"enter" to choose the highlighted match, "#N" to choose match N, and "esc"
to close the results. The new encoded view is printed on selection.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runProperties,
}

func runProperties(cmd *cobra.Command, args []string) error {
	ds, err := loadDataset(context.Background(), cmd, loadConfig())
	if err != nil {
		return err
	}
	query := ""
	if len(args) > 0 {
		query = args[0]
	}

	if pick, _ := cmd.Flags().GetString("pick"); pick != "" {
		return pickProperty(cmd, ds, pick, query)
	}

	matches := searchlist.Match(ds.Properties, query)
	if len(matches) == 0 {
		fmt.Println(searchlist.NoResults)
		return nil
	}
	for _, m := range matches {
		fmt.Println(m)
	}
	return nil
}

func pickProperty(cmd *cobra.Command, ds *dataset.Dataset, axisName, query string) error {
	a, err := explorer.ParseAxis(axisName)
	if err != nil {
		return err
	}
	s := explorer.New(ds)
	if enc, _ := cmd.Flags().GetString("view"); enc != "" {
		_ = s.ApplyEncoded(enc)
	}

	list := s.PropertySearch(a)
	fmt.Fprintln(os.Stderr, helpLine(list))
	if query != "" {
		list.SetQuery(query)
		for _, it := range list.Items() {
			fmt.Println("  " + it.Text)
		}
	}
	if _, ok, err := list.Prompt(os.Stdin, os.Stdout); err != nil || !ok {
		return err
	}
	st := s.State()
	fmt.Printf("x: %s\ny: %s\nview: %s\n", st.X.Property, st.Y.Property, s.Encoded())
	return nil
}

func helpLine(l *searchlist.List) string {
	var parts []string
	for _, b := range l.Keys.ShortHelp() {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return strings.Join(parts, " • ") + " • #N pick • esc close"
}

// --- industries ---

var industriesCmd = &cobra.Command{
	Use:   "industries [query]",
	Short: "List the industries usable with --industry",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := loadDataset(context.Background(), cmd, loadConfig())
		if err != nil {
			return err
		}
		query := ""
		if len(args) > 0 {
			query = args[0]
		}
		for _, ind := range searchlist.Match(explorer.New(ds).KnownIndustries(), query) {
			fmt.Println(ind)
		}
		return nil
	},
}

// --- lookup ---

var lookupCmd = &cobra.Command{
	Use:   "lookup <query>",
	Short: "Find tickers by symbol, name, sector or industry",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runLookup,
}

func runLookup(cmd *cobra.Command, args []string) error {
	ds, err := loadDataset(context.Background(), cmd, loadConfig())
	if err != nil {
		return err
	}
	idx, err := lookup.NewIndex(lookup.EntriesFromTable(ds.Table, ds.Categories))
	if err != nil {
		return err
	}
	defer idx.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	results, err := idx.Search(strings.Join(args, " "), limit)
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-8s  %-40s  %-24s  %s\n", "Symbol", "Name", "Sector", "Industry")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 100))
	for _, r := range results {
		fmt.Fprintf(os.Stdout, "%-8s  %-40s  %-24s  %s\n", r.Symbol, truncate(r.Name, 40), truncate(r.Sector, 24), r.Industry)
	}
	return nil
}

// --- info ---

var infoCmd = &cobra.Command{
	Use:   "info <ticker>",
	Short: "Show the detail view of a ticker",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

func runInfo(cmd *cobra.Command, args []string) error {
	ds, err := loadDataset(context.Background(), cmd, loadConfig())
	if err != nil {
		return err
	}
	info, err := explorer.New(ds).Info(args[0])
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}
	fmt.Println(info.Title())
	if info.Industry != "" {
		fmt.Println(info.Industry)
	}
	fmt.Println()
	for _, r := range info.Rows {
		fmt.Printf("%-24s  %s\n", r.Label, r.Value)
	}
	return nil
}

// --- status ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the size and age of the dataset and the stored snapshots",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	ctx := context.Background()
	ds, err := loadDataset(ctx, cmd, cfg)
	if err != nil {
		return err
	}

	fmt.Printf("Tickers:     %d\n", ds.Table.Len())
	fmt.Printf("Properties:  %d\n", len(ds.Properties))
	fmt.Printf("Categories:  %d\n", len(ds.Categories))
	if msg := explorer.New(ds).LastUpdated(time.Now()); msg != "" {
		fmt.Println(msg)
	}

	if _, err := os.Stat(cfg.Store.Path); err != nil {
		return nil
	}
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer st.Close()
	snaps, err := st.Snapshots(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("\nSnapshots in %s:\n", cfg.Store.Path)
	for _, sn := range snaps {
		fmt.Printf("  %4d  %s  %5d tickers  %s\n", sn.ID, sn.FetchedAt.Format(time.RFC3339), sn.Entities, sn.Source)
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func init() {
	propertiesCmd.Flags().String("pick", "", "choose a property for this axis (x or y) interactively")
	propertiesCmd.Flags().String("view", "", "encoded view to start from with --pick")

	lookupCmd.Flags().Int("limit", 10, "maximum number of results")
	lookupCmd.Flags().Bool("json", false, "output results as JSON")
	infoCmd.Flags().Bool("json", false, "output as JSON")

	rootCmd.AddCommand(propertiesCmd)
	rootCmd.AddCommand(industriesCmd)
	rootCmd.AddCommand(lookupCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(statusCmd)
}
