// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package synthesis builds long-context prompts from paper collections and
// turns single LLM calls into a ranked, annotated result: relevance ranking
// with research insights, and structured literature reviews. Every LLM
// failure degrades to a deterministic result instead of an error.
package synthesis

import (
	"fmt"
	"strings"

	"github.com/pdiddy/research-discovery/pkg/types"
)

// Assembly defaults.
const (
	DefaultAbstractLimit = 500
	DefaultMaxDocuments  = 50
	DefaultMaxAuthors    = 3
)

// Document is one paper as the assembler sees it.
type Document struct {
	Title    string
	Authors  []string
	Year     int
	Topics   []string
	Abstract string
	FullText string
	Strategy types.StrategyType
}

// AssembleOptions controls Assemble. Zero values select the defaults.
type AssembleOptions struct {
	Focus         string
	AbstractLimit int

	// FullTextLimit caps the full-text excerpt in runes. Zero leaves full
	// text out entirely.
	FullTextLimit int
	MaxDocuments  int
	MaxAuthors    int

	// FirstIndex is the label of the first document: 0 when the model
	// answers with slice indices, 1 for human-style citations.
	FirstIndex int
}

// DocumentsFromCandidates converts search candidates for assembly.
func DocumentsFromCandidates(candidates []types.CandidatePaper) []Document {
	docs := make([]Document, len(candidates))
	for i, c := range candidates {
		docs[i] = Document{
			Title:    c.Title,
			Authors:  c.Authors,
			Year:     c.Year,
			Topics:   c.Topics,
			Abstract: c.Abstract,
			Strategy: c.DiscoveryStrategy,
		}
	}
	return docs
}

// DocumentsFromLibrary converts library papers for assembly.
func DocumentsFromLibrary(papers []types.LibraryPaper) []Document {
	docs := make([]Document, len(papers))
	for i, p := range papers {
		docs[i] = Document{
			Title:    p.Title,
			Authors:  p.Authors,
			Year:     p.Year,
			Topics:   p.Topics,
			Abstract: p.Abstract,
			FullText: p.FullText,
		}
	}
	return docs
}

// Assemble renders documents into one prompt context. The output depends
// only on its arguments: same input, same bytes.
func Assemble(docs []Document, opts AssembleOptions) string {
	opts = opts.withDefaults()
	if len(docs) > opts.MaxDocuments {
		docs = docs[:opts.MaxDocuments]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Total Documents: %d\n", len(docs))
	fmt.Fprintf(&b, "Research Focus: %s\n", strings.TrimSpace(opts.Focus))

	for i, d := range docs {
		b.WriteString("\n")
		fmt.Fprintf(&b, "[%d] %s", i+opts.FirstIndex, collapse(d.Title))
		if d.Year > 0 {
			fmt.Fprintf(&b, " (%d)", d.Year)
		}
		b.WriteString("\n")

		if len(d.Authors) > 0 {
			authors := d.Authors
			suffix := ""
			if len(authors) > opts.MaxAuthors {
				authors = authors[:opts.MaxAuthors]
				suffix = " et al."
			}
			fmt.Fprintf(&b, "Authors: %s%s\n", strings.Join(authors, ", "), suffix)
		}
		if len(d.Topics) > 0 {
			fmt.Fprintf(&b, "Topics: %s\n", strings.Join(d.Topics, ", "))
		}
		if d.Strategy != "" {
			fmt.Fprintf(&b, "Discovery Strategy: %s\n", d.Strategy)
		}
		if abs := truncateRunes(collapse(d.Abstract), opts.AbstractLimit); abs != "" {
			fmt.Fprintf(&b, "Abstract: %s\n", abs)
		}
		if opts.FullTextLimit > 0 && strings.TrimSpace(d.FullText) != "" {
			fmt.Fprintf(&b, "Full Text Excerpt: %s\n", truncateRunes(strings.TrimSpace(d.FullText), opts.FullTextLimit))
		}
		b.WriteString("---\n")
	}
	return b.String()
}

func (o AssembleOptions) withDefaults() AssembleOptions {
	if o.AbstractLimit <= 0 {
		o.AbstractLimit = DefaultAbstractLimit
	}
	if o.MaxDocuments <= 0 {
		o.MaxDocuments = DefaultMaxDocuments
	}
	if o.MaxAuthors <= 0 {
		o.MaxAuthors = DefaultMaxAuthors
	}
	return o
}

// truncateRunes keeps at most n runes of s.
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
