// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"cmp"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/pdiddy/research-discovery/internal/httputil"
	"github.com/pdiddy/research-discovery/pkg/types"
)

// openAlexSearchBase is the OpenAlex works endpoint. Tests point it at an
// httptest server.
var openAlexSearchBase = "https://api.openalex.org/works"

const openAlexPageCeiling = 200

// openAlexSelect limits the response to the fields a result needs.
var openAlexSelect = strings.Join([]string{
	"id", "doi", "title", "publication_date", "publication_year",
	"authorships", "abstract_inverted_index", "concepts", "primary_topic",
}, ",")

// OpenAlexBackend searches the OpenAlex works index. Email, when set,
// joins the polite pool.
type OpenAlexBackend struct {
	Client *http.Client
	Email  string
}

func (b *OpenAlexBackend) Name() string { return "openalex" }

// Search runs one works search. Results arrive relevance-ordered unless
// the query asks for a date sort.
func (b *OpenAlexBackend) Search(ctx context.Context, query Query, cfg types.SearchConfig) ([]types.SearchResult, error) {
	kq := toKeywordQuery(query, cfg, openAlexPageCeiling)
	if kq.Text == "" {
		return nil, fmt.Errorf("empty OpenAlex query")
	}

	params := openAlexParams(kq, query)
	if b.Email != "" {
		params.Set("mailto", b.Email)
	}

	var page openAlexPage
	header := http.Header{"User-Agent": {cfg.UserAgent}}
	if err := getJSON(ctx, b.Client, "OpenAlex", openAlexSearchBase, params, header, httputil.Policy{MaxRetries: 2}, &page); err != nil {
		return nil, err
	}

	results := make([]types.SearchResult, 0, len(page.Results))
	for i, w := range page.Results {
		r := w.result()
		r.RelevanceScore = positionScore(i, len(page.Results))
		results = append(results, r)
	}
	return results, nil
}

func openAlexParams(kq keywordQuery, q Query) url.Values {
	params := url.Values{
		"search":   {kq.Text},
		"per_page": {strconv.Itoa(kq.Limit)},
		"page":     {strconv.Itoa(kq.Offset/kq.Limit + 1)},
		"select":   {openAlexSelect},
	}

	var filters []string
	if !q.DateFrom.IsZero() {
		filters = append(filters, "from_publication_date:"+q.DateFrom.Format("2006-01-02"))
	}
	if !q.DateTo.IsZero() {
		filters = append(filters, "to_publication_date:"+q.DateTo.Format("2006-01-02"))
	}
	if len(kq.Disciplines) > 0 {
		ids := make([]string, len(kq.Disciplines))
		for i, d := range kq.Disciplines {
			ids[i] = d.openAlexField
		}
		filters = append(filters, "primary_topic.field.id:"+strings.Join(ids, "|"))
	}
	if len(filters) > 0 {
		params.Set("filter", strings.Join(filters, ","))
	}

	if q.SortBy == "submittedDate" || q.SortBy == "lastUpdatedDate" {
		dir := "desc"
		if q.SortOrder == "ascending" {
			dir = "asc"
		}
		params.Set("sort", "publication_date:"+dir)
	}
	return params
}

type openAlexPage struct {
	Results []openAlexWork `json:"results"`
}

type openAlexWork struct {
	ID              string `json:"id"`
	DOI             string `json:"doi"`
	Title           string `json:"title"`
	PublicationDate string `json:"publication_date"`
	PublicationYear int    `json:"publication_year"`
	Authorships     []struct {
		Author struct {
			DisplayName string `json:"display_name"`
		} `json:"author"`
	} `json:"authorships"`
	AbstractInvertedIndex map[string][]int `json:"abstract_inverted_index"`
	Concepts              []struct {
		DisplayName string `json:"display_name"`
		Level       int    `json:"level"`
	} `json:"concepts"`
	PrimaryTopic *struct {
		Field struct {
			DisplayName string `json:"display_name"`
		} `json:"field"`
	} `json:"primary_topic"`
}

// result converts a work. OpenAlex is DOI-centric, so the bare DOI is the
// identifier when present and the OpenAlex URL otherwise.
func (w openAlexWork) result() types.SearchResult {
	r := types.SearchResult{
		Title:    w.Title,
		Abstract: uninvert(w.AbstractInvertedIndex),
		Source:   "openalex",
	}
	r.Date, r.Year = publishedOn(w.PublicationDate, w.PublicationYear)
	for _, a := range w.Authorships {
		if a.Author.DisplayName != "" {
			r.Authors = append(r.Authors, a.Author.DisplayName)
		}
	}

	if w.PrimaryTopic != nil && w.PrimaryTopic.Field.DisplayName != "" {
		r.Topics = append(r.Topics, w.PrimaryTopic.Field.DisplayName)
	}
	for _, c := range w.Concepts {
		if c.DisplayName != "" && c.Level <= 1 && !slices.Contains(r.Topics, c.DisplayName) {
			r.Topics = append(r.Topics, c.DisplayName)
		}
	}

	if w.DOI != "" {
		r.Identifier = strings.TrimPrefix(w.DOI, "https://doi.org/")
		r.URL = w.DOI
	} else {
		r.Identifier = w.ID
		r.URL = w.ID
	}
	r.PreferredAcquisitionID = r.Identifier
	return r
}

// uninvert rebuilds an abstract from OpenAlex's word -> positions index.
func uninvert(index map[string][]int) string {
	type slot struct {
		at   int
		word string
	}
	var slots []slot
	for word, positions := range index {
		for _, at := range positions {
			slots = append(slots, slot{at, word})
		}
	}
	slices.SortFunc(slots, func(a, b slot) int { return cmp.Compare(a.at, b.at) })

	words := make([]string, len(slots))
	for i, s := range slots {
		words[i] = s.word
	}
	return strings.Join(words, " ")
}
