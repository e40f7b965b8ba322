// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/scatterscope/internal/viewstate"
	"github.com/pdiddy/scatterscope/internal/views"
)

var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "Encode, decode and save views",
	Long: `View works with encoded views: the compact string that reproduces a
plot exactly and travels in the "v" URL parameter. Saved views are kept by
name in a YAML file.`,
}

var viewEncodeCmd = &cobra.Command{
	Use:   "encode",
	Short: "Print the encoding of the view described by the flags",
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := loadDataset(context.Background(), cmd, loadConfig())
		if err != nil {
			return err
		}
		s, err := sessionFromFlags(cmd, ds)
		if err != nil {
			return err
		}
		fmt.Println(s.Encoded())
		if base, _ := cmd.Flags().GetString("base-url"); base != "" {
			u, err := s.URL(base)
			if err != nil {
				return err
			}
			fmt.Println(u)
		}
		return nil
	},
}

var viewDecodeCmd = &cobra.Command{
	Use:   "decode <encoded>",
	Short: "Print the view behind an encoding as YAML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := viewstate.Decode(args[0])
		if err != nil {
			return err
		}
		return yaml.NewEncoder(os.Stdout).Encode(s)
	},
}

var viewSaveCmd = &cobra.Command{
	Use:   "save <name>",
	Short: "Save the view described by the flags under a name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		ds, err := loadDataset(context.Background(), cmd, cfg)
		if err != nil {
			return err
		}
		s, err := sessionFromFlags(cmd, ds)
		if err != nil {
			return err
		}
		book, err := views.Open(cfg.Views.File)
		if err != nil {
			return err
		}
		desc, _ := cmd.Flags().GetString("description")
		v, err := book.Put(args[0], desc, s.State(), time.Now())
		if err != nil {
			return err
		}
		fmt.Printf("saved %s to %s\n%s\n", v.Name, book.Path(), v.Encoded)
		return nil
	},
}

var viewListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved views",
	RunE: func(cmd *cobra.Command, args []string) error {
		book, err := views.Open(loadConfig().Views.File)
		if err != nil {
			return err
		}
		list := book.List()
		if len(list) == 0 {
			fmt.Println("No saved views.")
			return nil
		}
		for _, v := range list {
			fmt.Printf("%-20s  %s vs %s  %s\n", v.Name, v.State.Y.Property, v.State.X.Property, v.Description)
		}
		return nil
	},
}

var viewShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Print a saved view",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		book, err := views.Open(loadConfig().Views.File)
		if err != nil {
			return err
		}
		v, err := book.Get(args[0])
		if err != nil {
			return err
		}
		if base, _ := cmd.Flags().GetString("base-url"); base != "" {
			u, err := viewstate.URL(base, v.State)
			if err != nil {
				return err
			}
			fmt.Println(u)
			return nil
		}
		return yaml.NewEncoder(os.Stdout).Encode(v)
	},
}

var viewDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a saved view",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		book, err := views.Open(loadConfig().Views.File)
		if err != nil {
			return err
		}
		if err := book.Delete(args[0]); err != nil {
			return err
		}
		fmt.Printf("deleted %s\n", args[0])
		return nil
	},
}

func init() {
	viewCmd.PersistentFlags().String("views-file", "", "saved views file (default views.yaml)")
	viper.BindPFlag("views.file", viewCmd.PersistentFlags().Lookup("views-file"))

	addViewFlags(viewEncodeCmd)
	viewEncodeCmd.Flags().String("base-url", "", "also print a shareable URL on this base")

	addViewFlags(viewSaveCmd)
	viewSaveCmd.Flags().String("description", "", "note stored with the view")

	viewShowCmd.Flags().String("base-url", "", "print a shareable URL on this base instead of YAML")

	viewCmd.AddCommand(viewEncodeCmd)
	viewCmd.AddCommand(viewDecodeCmd)
	viewCmd.AddCommand(viewSaveCmd)
	viewCmd.AddCommand(viewListCmd)
	viewCmd.AddCommand(viewShowCmd)
	viewCmd.AddCommand(viewDeleteCmd)

	rootCmd.AddCommand(viewCmd)
}
