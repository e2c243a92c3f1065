// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package listing fetches a category's monthly listing page and parses it
// into partial records keyed by arXiv identifier.
//
// Parsing is positional: the k-th title, the k-th author block and the k-th
// entry block describe the same preprint. Implementations collect those
// sequences, check that they line up, and only then drop entries whose
// identifier could not be extracted.
package listing

import (
	"errors"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/pdiddy/preprint-herald/pkg/types"
)

const (
	pdfBase = "https://export.arxiv.org/pdf/"
	absBase = "https://arxiv.org/abs/"
)

// ErrMisaligned reports that the title, author and entry sequences have
// different lengths, so positions cannot be trusted.
var ErrMisaligned = errors.New("listing sequences misaligned")

// ErrNoEntries is reported by callers when a parsed listing is empty. Parse
// itself never returns it.
var ErrNoEntries = errors.New("listing has no entries")

// Parser turns a listing document into a Listing. Implementations must be
// pure and deterministic; a document with no entries yields an empty Listing.
type Parser interface {
	Parse(doc string) (*Listing, error)
}

// Listing is the ordered result of one parse.
type Listing struct {
	// Total is the "total of N entries" hint, or -1 when the page has none.
	Total int

	// Comments holds the per-entry comment lines in page order. Not every
	// entry has one, so positions do not line up with Records.
	Comments []string

	records []types.PartialRecord
	index   map[string]int
}

// Len returns the number of records with an identifier.
func (l *Listing) Len() int { return len(l.records) }

// Records returns the records in page order.
func (l *Listing) Records() []types.PartialRecord { return l.records }

// IDs returns the identifiers in page order.
func (l *Listing) IDs() []string {
	ids := make([]string, len(l.records))
	for i, r := range l.records {
		ids[i] = r.ID
	}
	return ids
}

// Get returns the record for id.
func (l *Listing) Get(id string) (types.PartialRecord, bool) {
	i, ok := l.index[id]
	if !ok {
		return types.PartialRecord{}, false
	}
	return l.records[i], true
}

// ByID returns the records keyed by identifier.
func (l *Listing) ByID() map[string]types.PartialRecord {
	m := make(map[string]types.PartialRecord, len(l.records))
	for _, r := range l.records {
		m[r.ID] = r
	}
	return m
}

// slot is one aligned position before filtering. An empty id marks an entry
// block with no recognisable identifier.
type slot struct {
	id      string
	title   string
	authors []string
}

// assemble aligns the parallel sequences by index, then filters. Absent
// identifiers are dropped only after alignment; a repeated identifier keeps
// its first position.
func assemble(total int, comments, titles []string, authors [][]string, ids []string) (*Listing, error) {
	if len(titles) != len(ids) || len(authors) != len(ids) {
		return nil, fmt.Errorf("%w: %d titles, %d author blocks, %d entries",
			ErrMisaligned, len(titles), len(authors), len(ids))
	}

	slots := make([]slot, len(ids))
	for i := range ids {
		slots[i] = slot{id: ids[i], title: titles[i], authors: authors[i]}
	}

	l := &Listing{Total: total, Comments: comments, index: make(map[string]int)}
	for _, s := range slots {
		if s.id == "" {
			continue
		}
		if _, dup := l.index[s.id]; dup {
			continue
		}
		l.index[s.id] = len(l.records)
		l.records = append(l.records, types.PartialRecord{
			ID:      s.id,
			Title:   s.title,
			Authors: s.authors,
			PDFLink: PDFLink(s.id),
		})
	}
	return l, nil
}

// PDFLink returns the export PDF URL for an identifier.
func PDFLink(id string) string { return pdfBase + id }

// AbsLink returns the abstract page URL for an identifier.
func AbsLink(id string) string { return absBase + id }

var multiSpace = regexp.MustCompile(`\s{2,}`)

// cleanText decodes HTML entities, then collapses and trims whitespace.
func cleanText(s string) string {
	return collapse(html.UnescapeString(s))
}

// collapse folds whitespace runs to one space and trims.
func collapse(s string) string {
	return strings.TrimSpace(multiSpace.ReplaceAllString(s, " "))
}

// New returns the parser registered under name ("regex" or "dom").
// An empty name selects the regex parser.
func New(name string) (Parser, error) {
	switch name {
	case "", "regex":
		return RegexParser{}, nil
	case "dom":
		return DOMParser{}, nil
	default:
		return nil, fmt.Errorf("unknown listing parser %q", name)
	}
}
