// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/preprint-herald/internal/config"
	"github.com/pdiddy/preprint-herald/internal/listing"
	"github.com/pdiddy/preprint-herald/internal/report"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the parsed listing for a category and month",
	Long: `List fetches one monthly listing page and prints the entries the parser
extracted. Nothing is stored or posted. Use it to check a parser against the
live page.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().String("category", "", "arXiv category (default from config)")
	listCmd.Flags().String("period", "", "listing month as yymm (default current month)")
	listCmd.Flags().String("parser", "", "listing parser: regex or dom")
	listCmd.Flags().Bool("json", false, "print records as JSON")

	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(config.Scope{})
	if err != nil {
		return err
	}
	if category, _ := cmd.Flags().GetString("category"); category != "" {
		cfg.Listing.Category = category
	}
	if name, _ := cmd.Flags().GetString("parser"); name != "" {
		cfg.Listing.Parser = name
	}
	period, _ := cmd.Flags().GetString("period")
	if period == "" {
		period = listing.Period(time.Now())
	}
	asJSON, _ := cmd.Flags().GetBool("json")

	parser, err := listing.New(cfg.Listing.Parser)
	if err != nil {
		return err
	}
	f := &listing.Fetcher{Client: newHTTPClient(cfg.Listing.HTTPConfig), Config: cfg.Listing}

	doc, err := f.Fetch(cmd.Context(), period)
	if err != nil {
		return err
	}
	l, err := parser.Parse(doc)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", f.URL(period), err)
	}

	if asJSON {
		return report.FormatJSON(l.Records(), os.Stdout)
	}
	report.FormatListing(l.Records(), l.Total, os.Stdout)
	return nil
}
