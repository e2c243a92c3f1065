// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// PartialRecord is what the listing page tells us about one preprint.
// It is built once per parse and never mutated afterwards.
type PartialRecord struct {
	// ID is the arXiv identifier (e.g. "2301.07041"), without version suffix.
	ID string `json:"id" yaml:"id"`

	// Title is plain text: entity-decoded and single-spaced.
	Title string `json:"title" yaml:"title"`

	// Authors lists display names in listing order.
	Authors []string `json:"authors" yaml:"authors"`

	// PDFLink is derived from ID, never scraped.
	PDFLink string `json:"pdf_link" yaml:"pdf_link"`
}

// DetailRecord holds the fields returned by the metadata API for one preprint.
type DetailRecord struct {
	// ID is the version-stripped identifier parsed from AbsLink.
	ID string `json:"id" yaml:"id"`

	// AbsLink is the abstract page URL as reported upstream
	// (e.g. "http://arxiv.org/abs/2301.07041v1").
	AbsLink string `json:"abs_link" yaml:"abs_link"`

	Updated   time.Time `json:"updated" yaml:"updated"`
	Published time.Time `json:"published" yaml:"published"`

	// Summary is the abstract, truncated before any "Keywords:" section.
	Summary string `json:"summary" yaml:"summary"`

	// PrimaryCategory is the arXiv primary category term (e.g. "q-fin.PM").
	PrimaryCategory string `json:"primary_category" yaml:"primary_category"`
}

// CanonicalRecord is the merged view of a PartialRecord and the DetailRecord
// fetched for the same identifier. AISummary is filled in by the summarizer
// during per-item processing.
type CanonicalRecord struct {
	ID              string    `json:"id" yaml:"id"`
	Title           string    `json:"title" yaml:"title"`
	Authors         []string  `json:"authors" yaml:"authors"`
	PDFLink         string    `json:"pdf_link" yaml:"pdf_link"`
	AbsLink         string    `json:"abs_link" yaml:"abs_link"`
	Updated         time.Time `json:"updated" yaml:"updated"`
	Published       time.Time `json:"published" yaml:"published"`
	Summary         string    `json:"summary" yaml:"summary"`
	PrimaryCategory string    `json:"primary_category" yaml:"primary_category"`
	AISummary       string    `json:"ai_summary,omitempty" yaml:"ai_summary,omitempty"`
}
