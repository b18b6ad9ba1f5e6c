// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pdiddy/research-discovery/internal/httputil"
	"github.com/pdiddy/research-discovery/pkg/types"
)

// discipline is a broad field shared by the keyword APIs. arXiv category
// archives map onto it so category-scoped strategies still narrow results
// outside arXiv.
type discipline struct {
	// Semantic Scholar fieldsOfStudy value.
	name string
	// OpenAlex field id in the primary_topic.field hierarchy.
	openAlexField string
}

var (
	computerScience = discipline{"Computer Science", "17"}
	mathematics     = discipline{"Mathematics", "26"}
	physics         = discipline{"Physics", "31"}
	biology         = discipline{"Biology", "13"}
	economics       = discipline{"Economics", "20"}
	engineering     = discipline{"Engineering", "22"}
)

var archiveDisciplines = map[string]discipline{
	"cs":       computerScience,
	"math":     mathematics,
	"stat":     mathematics,
	"physics":  physics,
	"astro-ph": physics,
	"cond-mat": physics,
	"gr-qc":    physics,
	"hep-ex":   physics,
	"hep-lat":  physics,
	"hep-ph":   physics,
	"hep-th":   physics,
	"math-ph":  physics,
	"nlin":     physics,
	"nucl-ex":  physics,
	"nucl-th":  physics,
	"quant-ph": physics,
	"q-bio":    biology,
	"q-fin":    economics,
	"econ":     economics,
	"eess":     engineering,
}

// keywordQuery is a Query as the keyword APIs understand it: plain search
// text, optional disciplines, and a page window.
type keywordQuery struct {
	Text        string
	Disciplines []discipline
	Limit       int
	Offset      int
}

// toKeywordQuery folds arXiv search syntax out of q. cat: terms become
// disciplines, field prefixes (all:, ti:, abs:, au:) are dropped from
// their terms, and boolean operators and submittedDate ranges are removed.
// Limit is capped at ceiling.
func toKeywordQuery(q Query, cfg types.SearchConfig, ceiling int) keywordQuery {
	kq := keywordQuery{Offset: max(q.Start, 0)}

	var words []string
	seen := map[discipline]bool{}
	inDateRange := false
	for _, tok := range strings.Fields(q.FreeText) {
		if inDateRange {
			inDateRange = !strings.Contains(tok, "]")
			continue
		}
		tok = strings.Trim(tok, "()")
		switch {
		case tok == "" || tok == "AND" || tok == "OR" || tok == "ANDNOT":
			continue
		case strings.HasPrefix(tok, "submittedDate:"):
			inDateRange = !strings.Contains(tok, "]")
			continue
		case strings.HasPrefix(tok, "cat:"):
			archive, _, _ := strings.Cut(strings.TrimPrefix(tok, "cat:"), ".")
			if d, ok := archiveDisciplines[archive]; ok && !seen[d] {
				seen[d] = true
				kq.Disciplines = append(kq.Disciplines, d)
			}
			continue
		}
		if field, term, ok := strings.Cut(tok, ":"); ok && isArxivField(field) {
			tok = term
		}
		if tok = strings.Trim(tok, `"`); tok != "" {
			words = append(words, tok)
		}
	}
	if q.Author != "" {
		words = append(words, strings.Fields(q.Author)...)
	}
	for _, kw := range q.Keywords {
		words = append(words, strings.Fields(kw)...)
	}
	kq.Text = strings.Join(words, " ")

	kq.Limit = q.MaxResults
	if kq.Limit <= 0 {
		kq.Limit = cfg.MaxResults
	}
	if kq.Limit <= 0 {
		kq.Limit = 20
	}
	kq.Limit = min(kq.Limit, ceiling)
	return kq
}

func isArxivField(f string) bool {
	switch f {
	case "all", "ti", "abs", "au", "co", "jr", "rn":
		return true
	}
	return false
}

// getJSON issues a GET to endpoint with params and decodes a 200 response
// into into. api names the service in errors.
func getJSON(ctx context.Context, client *http.Client, api, endpoint string, params url.Values, header http.Header, p httputil.Policy, into any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, p)
	if err != nil {
		return fmt.Errorf("%s request: %w", api, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned HTTP %d", api, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
		return fmt.Errorf("parsing %s response: %w", api, err)
	}
	return nil
}

// positionScore turns a rank in a relevance-ordered page into a score
// from 1.0 (first) down to 0.1 (last).
func positionScore(i, n int) float64 {
	if n <= 1 {
		return 1.0
	}
	return 1.0 - float64(i)/float64(n-1)*0.9
}

// publishedOn resolves a YYYY-MM-DD day and a bare year into a date and a
// year, each filled from the other when missing.
func publishedOn(day string, year int) (time.Time, int) {
	if t, err := time.Parse(time.DateOnly, day); err == nil {
		return t, t.Year()
	}
	if year > 0 {
		return time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC), year
	}
	return time.Time{}, 0
}
