// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/research-discovery/internal/httputil"
	"github.com/pdiddy/research-discovery/pkg/types"
)

// arxivAPIBase is the arXiv search endpoint. Declared as a var so tests
// can substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

const defaultRateLimitDelay = time.Second

// arXiv sort keys accepted by the API.
const (
	SortRelevance       = "relevance"
	SortLastUpdatedDate = "lastUpdatedDate"
	SortSubmittedDate   = "submittedDate"

	OrderDescending = "descending"
	OrderAscending  = "ascending"
)

// ArxivBackend queries the arXiv Atom API.
type ArxivBackend struct {
	Client *http.Client
}

// Name returns the backend identifier.
func (b *ArxivBackend) Name() string { return "arxiv" }

// Search queries the arXiv API and returns results. An HTTP 429 is retried
// once after cfg.RateLimitDelay.
func (b *ArxivBackend) Search(ctx context.Context, query Query, cfg types.SearchConfig) ([]types.SearchResult, error) {
	q := buildArxivQuery(query)
	if q == "" {
		return nil, fmt.Errorf("empty arXiv query")
	}

	maxResults := query.MaxResults
	if maxResults <= 0 {
		maxResults = cfg.MaxResults
	}
	if maxResults <= 0 {
		maxResults = 20
	}

	params := url.Values{
		"search_query": {q},
		"start":        {strconv.Itoa(max(query.Start, 0))},
		"max_results":  {strconv.Itoa(maxResults)},
		"sortBy":       {orDefault(query.SortBy, SortRelevance)},
		"sortOrder":    {orDefault(query.SortOrder, OrderDescending)},
	}
	return b.fetch(ctx, params, cfg)
}

// Lookup fetches a single paper by arXiv ID.
func (b *ArxivBackend) Lookup(ctx context.Context, id string, cfg types.SearchConfig) (types.SearchResult, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return types.SearchResult{}, fmt.Errorf("empty arXiv id")
	}
	results, err := b.fetch(ctx, url.Values{"id_list": {id}, "max_results": {"1"}}, cfg)
	if err != nil {
		return types.SearchResult{}, err
	}
	if len(results) == 0 {
		return types.SearchResult{}, ErrNotFound
	}
	return results[0], nil
}

func (b *ArxivBackend) fetch(ctx context.Context, params url.Values, cfg types.SearchConfig) ([]types.SearchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, arxivAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, b.Client, req, httputil.Once(rateLimitDelay(cfg)))
	if err != nil {
		return nil, fmt.Errorf("arXiv API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arXiv API returned HTTP %d", resp.StatusCode)
	}

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("parsing arXiv response: %w", err)
	}

	total := len(feed.Entries)
	var results []types.SearchResult
	for i, entry := range feed.Entries {
		arxivID := extractArxivID(entry.ID)
		if arxivID == "" {
			continue
		}

		r := types.SearchResult{
			Identifier:             arxivID,
			Title:                  collapseSpace(entry.Title),
			Abstract:               collapseSpace(entry.Summary),
			URL:                    entry.alternateLink(),
			Source:                 "arxiv",
			PreferredAcquisitionID: arxivID,
		}
		if r.URL == "" {
			r.URL = "https://arxiv.org/abs/" + arxivID
		}

		for _, a := range entry.Authors {
			r.Authors = append(r.Authors, strings.TrimSpace(a.Name))
		}
		for _, c := range entry.Categories {
			if c.Term != "" {
				r.Topics = append(r.Topics, c.Term)
			}
		}

		if t, parseErr := time.Parse(time.RFC3339, entry.Published); parseErr == nil {
			r.Date = t
			r.Year = t.Year()
		}

		// Position-based relevance score.
		if total > 1 {
			r.RelevanceScore = 1.0 - float64(i)/float64(total-1)*0.9
		} else {
			r.RelevanceScore = 1.0
		}

		results = append(results, r)
	}
	return results, nil
}

// buildArxivQuery constructs the search_query parameter. Free text that
// already uses field prefixes (cat:, submittedDate:) is passed through
// untouched; anything else is searched across all fields.
func buildArxivQuery(q Query) string {
	var parts []string

	if text := strings.TrimSpace(q.FreeText); text != "" {
		if isRawArxivQuery(text) {
			parts = append(parts, text)
		} else {
			parts = append(parts, "all:"+text)
		}
	}
	if q.Author != "" {
		parts = append(parts, "au:"+strings.Join(strings.Fields(q.Author), " "))
	}
	for _, kw := range q.Keywords {
		parts = append(parts, "all:"+strings.Join(strings.Fields(kw), " "))
	}
	if len(parts) == 0 {
		return ""
	}

	if !q.DateFrom.IsZero() {
		to := "99991231235959"
		if !q.DateTo.IsZero() {
			to = q.DateTo.UTC().Format("20060102") + "2359"
		}
		parts = append(parts, fmt.Sprintf("submittedDate:[%s0000 TO %s]", q.DateFrom.UTC().Format("20060102"), to))
	}

	return strings.Join(parts, " AND ")
}

func isRawArxivQuery(text string) bool {
	return strings.Contains(text, "cat:") || strings.Contains(text, "submittedDate:")
}

// arXiv Atom feed XML structures.
type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID         string          `xml:"id"`
	Title      string          `xml:"title"`
	Summary    string          `xml:"summary"`
	Published  string          `xml:"published"`
	Authors    []arxivAuthor   `xml:"author"`
	Categories []arxivCategory `xml:"category"`
	Links      []arxivLink     `xml:"link"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}

type arxivCategory struct {
	Term string `xml:"term,attr"`
}

type arxivLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

func (e arxivEntry) alternateLink() string {
	for _, l := range e.Links {
		if l.Rel == "alternate" {
			return l.Href
		}
	}
	return ""
}

// extractArxivID pulls the arXiv ID from the entry's <id> URL
// (e.g. "http://arxiv.org/abs/2301.07041v1" -> "2301.07041").
func extractArxivID(idURL string) string {
	const prefix = "/abs/"
	idx := strings.Index(idURL, prefix)
	if idx < 0 {
		return ""
	}
	id := strings.TrimSpace(idURL[idx+len(prefix):])

	// Strip version suffix (e.g. "v1", "v2").
	if vIdx := strings.LastIndex(id, "v"); vIdx > 0 {
		if _, err := strconv.Atoi(id[vIdx+1:]); err == nil {
			id = id[:vIdx]
		}
	}
	return id
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func rateLimitDelay(cfg types.SearchConfig) time.Duration {
	if cfg.RateLimitDelay > 0 {
		return cfg.RateLimitDelay
	}
	return defaultRateLimitDelay
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
