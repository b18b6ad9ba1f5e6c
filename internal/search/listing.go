// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/research-discovery/internal/httputil"
	"github.com/pdiddy/research-discovery/pkg/types"
)

// arxivListBase is the root of the arXiv listing pages. Declared as a var so
// tests can substitute an httptest server.
var arxivListBase = "https://arxiv.org/list"

var (
	categoryExpr    = regexp.MustCompile(`^[a-z-]+(\.[A-Za-z-]+)?$`)
	subjectCodeExpr = regexp.MustCompile(`\(([a-z-]+(?:\.[A-Za-z-]+)?)\)`)
)

// ListingSource scrapes the arXiv "new submissions" page of a category. It
// sees announcements before the search API indexes them.
type ListingSource struct {
	Client *http.Client
}

// ValidCategory reports whether s looks like an arXiv category (cs.AI, math.ST, hep-th).
func ValidCategory(s string) bool {
	return categoryExpr.MatchString(s)
}

// Latest returns up to limit entries from arxiv.org/list/<category>/new in
// page order.
func (l *ListingSource) Latest(ctx context.Context, category string, limit int, cfg types.SearchConfig) ([]types.SearchResult, error) {
	if !ValidCategory(category) {
		return nil, fmt.Errorf("invalid arXiv category %q", category)
	}
	if limit <= 0 {
		limit = 20
	}

	pageURL := fmt.Sprintf("%s/%s/new?%s", arxivListBase, url.PathEscape(category),
		url.Values{"skip": {"0"}, "show": {strconv.Itoa(max(limit, 25))}}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, l.Client, req, httputil.Once(rateLimitDelay(cfg)))
	if err != nil {
		return nil, fmt.Errorf("arXiv listing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arXiv listing returned HTTP %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing arXiv listing: %w", err)
	}

	var results []types.SearchResult
	doc.Find("dl > dt").EachWithBreak(func(_ int, dt *goquery.Selection) bool {
		r, ok := parseListingEntry(dt, dt.Next())
		if !ok {
			return true
		}
		results = append(results, r)
		return len(results) < limit
	})

	total := len(results)
	for i := range results {
		if total > 1 {
			results[i].RelevanceScore = 1.0 - float64(i)/float64(total-1)*0.9
		} else {
			results[i].RelevanceScore = 1.0
		}
	}
	return results, nil
}

func parseListingEntry(dt, dd *goquery.Selection) (types.SearchResult, bool) {
	link := dt.Find(`a[href*="/abs/"]`).First()
	href, _ := link.Attr("href")
	id := strings.TrimPrefix(strings.TrimSpace(link.Text()), "arXiv:")
	if id == "" {
		id = href[strings.LastIndex(href, "/")+1:]
	}
	if id == "" {
		return types.SearchResult{}, false
	}
	if !strings.HasPrefix(href, "http") {
		href = "https://arxiv.org/abs/" + id
	}

	title := strings.TrimSpace(dd.Find(".list-title").First().Text())
	title = collapseSpace(strings.TrimPrefix(title, "Title:"))

	r := types.SearchResult{
		Identifier:             id,
		Title:                  title,
		Abstract:               collapseSpace(strings.TrimPrefix(dd.Find("p.mathjax").First().Text(), "Abstract:")),
		URL:                    href,
		Source:                 "arxiv",
		PreferredAcquisitionID: id,
	}

	dd.Find(".list-authors a").Each(func(_ int, a *goquery.Selection) {
		if name := strings.TrimSpace(a.Text()); name != "" {
			r.Authors = append(r.Authors, name)
		}
	})

	for _, m := range subjectCodeExpr.FindAllStringSubmatch(dd.Find(".list-subjects").First().Text(), -1) {
		r.Topics = append(r.Topics, m[1])
	}

	if y := yearFromArxivID(id); y > 0 {
		r.Year = y
	}
	return r, true
}

// yearFromArxivID derives the submission year from a new-style id (YYMM.NNNNN).
func yearFromArxivID(id string) int {
	if len(id) < 4 || !isArxivID(id) {
		return 0
	}
	yy, err := strconv.Atoi(id[:2])
	if err != nil {
		return 0
	}
	return 2000 + yy
}
