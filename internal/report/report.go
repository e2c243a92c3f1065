// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report renders listings, stored records and run summaries for the
// terminal.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/preprint-herald/internal/pipeline"
	"github.com/pdiddy/preprint-herald/pkg/types"
)

// FormatListing writes partial records as a table to w. total is the page's
// own entry count, or -1 when unknown.
func FormatListing(recs []types.PartialRecord, total int, w io.Writer) {
	if len(recs) == 0 {
		fmt.Fprintln(w, "No entries found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-12s  %-60s  %s\n", "#", "ID", "Title", "Authors")
	fmt.Fprintln(w, strings.Repeat("-", 100))
	for i, r := range recs {
		fmt.Fprintf(w, "%-4d  %-12s  %-60s  %s\n",
			i+1, r.ID, truncate(r.Title, 60), formatAuthors(r.Authors))
	}

	fmt.Fprintf(w, "\n%d entries", len(recs))
	if total >= 0 && total != len(recs) {
		fmt.Fprintf(w, " (page reports %d)", total)
	}
	fmt.Fprintln(w)
}

// FormatRecords writes stored records as a table to w.
func FormatRecords(recs []types.CanonicalRecord, w io.Writer) {
	if len(recs) == 0 {
		fmt.Fprintln(w, "No stored records.")
		return
	}

	fmt.Fprintf(w, "%-12s  %-10s  %-60s  %s\n", "ID", "Category", "Title", "Published")
	fmt.Fprintln(w, strings.Repeat("-", 100))
	for _, r := range recs {
		published := ""
		if !r.Published.IsZero() {
			published = r.Published.Format("2006-01-02")
		}
		fmt.Fprintf(w, "%-12s  %-10s  %-60s  %s\n",
			r.ID, truncate(r.PrimaryCategory, 10), truncate(r.Title, 60), published)
	}
	fmt.Fprintf(w, "\n%d records\n", len(recs))
}

// FormatSummary writes the counts of one run to w.
func FormatSummary(s pipeline.RunSummary, w io.Writer) {
	fmt.Fprintf(w, "run %s\n", s.RunID)
	for _, f := range s.Failures {
		fmt.Fprintf(w, "failed  %s (%s): %s\n", f.ID, f.Outcome, f.Error)
	}
	fmt.Fprintf(w, "\nlisted: %d, novel: %d, persisted: %d, notified: %d, skipped: %d, failed: %d\n",
		s.Listed, s.Novel, s.Persisted, s.Notified, s.Skipped, s.Failed)
}

// FormatJSON writes v as indented JSON to w.
func FormatJSON(v any, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatAuthors(authors []string) string {
	switch len(authors) {
	case 0:
		return ""
	case 1:
		return truncate(authors[0], 24)
	default:
		return truncate(authors[0], 18) + " et al."
	}
}

// truncate shortens s to at most max runes.
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max-3]) + "..."
}
