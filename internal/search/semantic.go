// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/research-discovery/internal/httputil"
	"github.com/pdiddy/research-discovery/pkg/types"
)

// semanticAPIBase is the Semantic Scholar paper search endpoint. Tests
// point it at an httptest server.
var semanticAPIBase = "https://api.semanticscholar.org/graph/v1/paper/search"

// semanticPageCeiling is the largest limit the search endpoint accepts.
const semanticPageCeiling = 100

var semanticFields = strings.Join([]string{
	"title", "abstract", "authors", "externalIds", "year", "publicationDate", "url", "fieldsOfStudy",
}, ",")

// SemanticScholarBackend searches the Semantic Scholar Graph API. It
// contributes papers from venues arXiv does not carry and resolves them
// to arXiv ids when Semantic Scholar knows one.
type SemanticScholarBackend struct {
	Client *http.Client
	APIKey string
}

func (b *SemanticScholarBackend) Name() string { return "semantic_scholar" }

// Search runs one relevance search. HTTP 429 is retried with the default
// backoff policy.
func (b *SemanticScholarBackend) Search(ctx context.Context, query Query, cfg types.SearchConfig) ([]types.SearchResult, error) {
	kq := toKeywordQuery(query, cfg, semanticPageCeiling)
	if kq.Text == "" {
		return nil, fmt.Errorf("empty Semantic Scholar query")
	}

	header := http.Header{"User-Agent": {cfg.UserAgent}}
	if b.APIKey != "" {
		header.Set("x-api-key", b.APIKey)
	}

	var page semanticPage
	if err := getJSON(ctx, b.Client, "Semantic Scholar", semanticAPIBase, semanticParams(kq, query), header, httputil.Policy{}, &page); err != nil {
		return nil, err
	}

	results := make([]types.SearchResult, 0, len(page.Data))
	for i, p := range page.Data {
		r := p.result()
		r.RelevanceScore = positionScore(i, len(page.Data))
		results = append(results, r)
	}
	return results, nil
}

func semanticParams(kq keywordQuery, q Query) url.Values {
	params := url.Values{
		"query":  {kq.Text},
		"limit":  {strconv.Itoa(kq.Limit)},
		"offset": {strconv.Itoa(kq.Offset)},
		"fields": {semanticFields},
	}
	if span := yearSpan(q.DateFrom, q.DateTo); span != "" {
		params.Set("year", span)
	}
	if len(kq.Disciplines) > 0 {
		names := make([]string, len(kq.Disciplines))
		for i, d := range kq.Disciplines {
			names[i] = d.name
		}
		params.Set("fieldsOfStudy", strings.Join(names, ","))
	}
	return params
}

// yearSpan renders the year filter: "2020-2023", "2020-", or "-2023".
func yearSpan(from, to time.Time) string {
	var lo, hi string
	if !from.IsZero() {
		lo = strconv.Itoa(from.Year())
	}
	if !to.IsZero() {
		hi = strconv.Itoa(to.Year())
	}
	if lo == "" && hi == "" {
		return ""
	}
	return lo + "-" + hi
}

type semanticPage struct {
	Total int             `json:"total"`
	Data  []semanticPaper `json:"data"`
}

type semanticPaper struct {
	PaperID         string   `json:"paperId"`
	Title           string   `json:"title"`
	Abstract        string   `json:"abstract"`
	Year            int      `json:"year"`
	PublicationDate string   `json:"publicationDate"`
	URL             string   `json:"url"`
	FieldsOfStudy   []string `json:"fieldsOfStudy"`
	Authors         []struct {
		Name string `json:"name"`
	} `json:"authors"`
	ExternalIDs struct {
		ArXiv string `json:"ArXiv"`
		DOI   string `json:"DOI"`
	} `json:"externalIds"`
}

// result converts a paper. The identifier is the arXiv id when known, so
// the paper merges with its arXiv copy, then the DOI, then the Semantic
// Scholar id.
func (p semanticPaper) result() types.SearchResult {
	r := types.SearchResult{
		Title:    p.Title,
		Abstract: p.Abstract,
		Topics:   p.FieldsOfStudy,
		URL:      p.URL,
		Source:   "semantic_scholar",
	}
	r.Date, r.Year = publishedOn(p.PublicationDate, p.Year)
	for _, a := range p.Authors {
		if a.Name != "" {
			r.Authors = append(r.Authors, a.Name)
		}
	}

	switch {
	case p.ExternalIDs.ArXiv != "":
		r.Identifier = p.ExternalIDs.ArXiv
	case p.ExternalIDs.DOI != "":
		r.Identifier = p.ExternalIDs.DOI
	default:
		r.Identifier = p.PaperID
	}
	r.PreferredAcquisitionID = r.Identifier
	return r
}
