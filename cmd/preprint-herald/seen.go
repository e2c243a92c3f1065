// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/preprint-herald/internal/config"
	"github.com/pdiddy/preprint-herald/internal/report"
	"github.com/pdiddy/preprint-herald/internal/store"
)

var seenCmd = &cobra.Command{
	Use:   "seen",
	Short: "Show records already processed",
	Long: `Seen prints the most recently stored records, newest first. With --export
the records are written as a YAML document instead, which can be kept as a
backup of the seen set.`,
	Args: cobra.NoArgs,
	RunE: runSeen,
}

func init() {
	seenCmd.Flags().Int("limit", 20, "maximum records to show (0 for all)")
	seenCmd.Flags().String("export", "", "write records as YAML to this file (- for stdout)")

	rootCmd.AddCommand(seenCmd)
}

func runSeen(cmd *cobra.Command, args []string) (err error) {
	cfg, err := loadConfig(config.Scope{Storage: true})
	if err != nil {
		return err
	}
	limit, _ := cmd.Flags().GetInt("limit")
	export, _ := cmd.Flags().GetString("export")

	ctx := cmd.Context()
	s, err := store.Open(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing store: %w", cerr)
		}
	}()

	switch export {
	case "":
		recs, err := s.Recent(ctx, limit)
		if err != nil {
			return err
		}
		report.FormatRecords(recs, os.Stdout)
		return nil
	case "-":
		return store.ExportYAML(ctx, s, os.Stdout, limit)
	default:
		f, err := os.Create(export)
		if err != nil {
			return fmt.Errorf("creating %s: %w", export, err)
		}
		defer f.Close()
		if err := store.ExportYAML(ctx, s, f, limit); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Exported to %s\n", export)
		return nil
	}
}
