// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "strings"

// PaperRecord is a candidate paper returned by the search gateway. Every
// provider (arXiv, OpenAlex, Semantic Scholar) maps its own response into
// this shape so the research core never sees provider-specific fields.
type PaperRecord struct {
	// Title is the paper title as returned by the provider.
	Title string `json:"title" yaml:"title"`

	// Authors lists up to the first few authors in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// Year is the publication year; zero when unknown.
	Year int `json:"year,omitempty" yaml:"year,omitempty"`

	// Abstract is the paper abstract or summary.
	Abstract string `json:"abstract,omitempty" yaml:"abstract,omitempty"`

	// URL links to the landing page or DOI resolver.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// Source names the provider that returned the paper (e.g. "arxiv", "openalex").
	Source string `json:"source" yaml:"source"`

	// CitationCount is the provider's citation count; zero when unknown.
	CitationCount int `json:"citation_count" yaml:"citation_count"`

	// ArxivID is the bare arXiv identifier (e.g. "1706.03762") when known.
	ArxivID string `json:"arxiv_id,omitempty" yaml:"arxiv_id,omitempty"`
}

// SourceRecord is a paper selected as supporting evidence for a note.
// Identity is the normalized title (see NormalizeTitle).
type SourceRecord struct {
	PaperRecord `yaml:",inline"`

	// Contribution is a short statement of what the paper adds to the topic.
	// Empty for papers chosen by the deterministic fallback.
	Contribution string `json:"key_contribution" yaml:"key_contribution"`
}

// NewSourceRecord builds a SourceRecord from a paper and its contribution.
func NewSourceRecord(p PaperRecord, contribution string) SourceRecord {
	return SourceRecord{PaperRecord: p, Contribution: contribution}
}

// NormalizeTitle returns the identity key used to de-duplicate papers and
// sources: the lower-cased, whitespace-trimmed title.
func NormalizeTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}
