// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the research-discovery
// service: search hits, discovery sessions, library papers, and literature
// reviews.
package types

import "time"

// SearchResult represents a candidate paper returned by an academic API query.
// Each result carries an identifier, metadata, source, relevance score, and a
// preferred acquisition identifier.
type SearchResult struct {
	// Identifier is the canonical ID from the source (arXiv ID, DOI, or URL).
	Identifier string `json:"identifier" yaml:"identifier"`

	// Title is the paper title as returned by the source.
	Title string `json:"title" yaml:"title"`

	// Authors lists the paper authors in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// Abstract is the paper abstract or summary.
	Abstract string `json:"abstract" yaml:"abstract"`

	// Date is the publication or preprint date.
	Date time.Time `json:"date" yaml:"date"`

	// Year is the publication year, zero when unknown.
	Year int `json:"year,omitempty" yaml:"year,omitempty"`

	// Topics lists subject categories (arXiv categories, OpenAlex concepts).
	Topics []string `json:"topics,omitempty" yaml:"topics,omitempty"`

	// URL is the landing page of the paper.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// Source identifies which backend found this result (e.g. "arxiv", "semantic_scholar").
	Source string `json:"source" yaml:"source"`

	// RelevanceScore is a value between 0.0 and 1.0 indicating relevance to the query.
	RelevanceScore float64 `json:"relevance_score" yaml:"relevance_score"`

	// PreferredAcquisitionID is the identifier a client should use to fetch
	// the paper: arXiv ID if available, then DOI, then URL.
	PreferredAcquisitionID string `json:"preferred_acquisition_id" yaml:"preferred_acquisition_id"`
}
