// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package record merges listing-page fields with metadata-API fields into
// canonical records.
package record

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/pdiddy/preprint-herald/pkg/types"
)

// ErrIntegrity reports a positional mismatch between the identifier order and
// the detail records, or an identifier with no partial record. Either means a
// logic error upstream; no record is produced.
var ErrIntegrity = errors.New("record integrity fault")

var (
	keywordsMarker = regexp.MustCompile(`\s*Keywords:`)
	whitespaceRun  = regexp.MustCompile(`\s{2,}|\n`)
)

// CleanSummary removes a trailing "Keywords:" section and folds newlines and
// runs of spaces into single spaces.
func CleanSummary(s string) string {
	if loc := keywordsMarker.FindStringIndex(s); loc != nil {
		s = s[:loc[0]]
	}
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

// Merge zips details with idOrder by position: details[i] belongs to
// idOrder[i], exactly as the metadata client was invoked. Correspondence is
// never re-derived from content; the detail's own identifier is only checked
// against the expected one.
func Merge(partials map[string]types.PartialRecord, details []types.DetailRecord, idOrder []string) ([]types.CanonicalRecord, error) {
	if len(details) != len(idOrder) {
		return nil, fmt.Errorf("%w: %d detail records for %d identifiers", ErrIntegrity, len(details), len(idOrder))
	}

	out := make([]types.CanonicalRecord, 0, len(idOrder))
	for i, id := range idOrder {
		p, ok := partials[id]
		if !ok {
			return nil, fmt.Errorf("%w: position %d: no listing entry for %s", ErrIntegrity, i, id)
		}
		d := details[i]
		if d.ID != id {
			return nil, fmt.Errorf("%w: position %d: expected %s, metadata describes %q", ErrIntegrity, i, id, d.ID)
		}

		out = append(out, types.CanonicalRecord{
			ID:              id,
			Title:           p.Title,
			Authors:         p.Authors,
			PDFLink:         p.PDFLink,
			AbsLink:         d.AbsLink,
			Updated:         d.Updated,
			Published:       d.Published,
			Summary:         CleanSummary(d.Summary),
			PrimaryCategory: d.PrimaryCategory,
		})
	}
	return out, nil
}
