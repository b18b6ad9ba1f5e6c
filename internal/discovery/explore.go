// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discovery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/research-discovery/internal/search"
	"github.com/pdiddy/research-discovery/pkg/types"
)

// Browse limits. Requested limits are clamped to [1, MaxBrowseLimit].
const (
	MaxBrowseLimit        = 50
	DefaultDiscoverLimit  = 10
	DefaultTrendingLimit  = 20
	DefaultRecommendLimit = 15
	DefaultCategoryLimit  = 20
)

// Explorer answers the plain arXiv browse requests that bypass the LLM.
type Explorer struct {
	arxiv   *search.ArxivBackend
	listing *search.ListingSource
	cfg     types.SearchConfig
	log     *zap.Logger
	now     func() time.Time
}

// NewExplorer returns an Explorer over the arXiv API and listing pages.
func NewExplorer(arxiv *search.ArxivBackend, listing *search.ListingSource, cfg types.SearchConfig, log *zap.Logger) *Explorer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Explorer{arxiv: arxiv, listing: listing, cfg: cfg, log: log.Named("explorer"), now: time.Now}
}

// ClampLimit returns limit bounded to [1, MaxBrowseLimit], or def when
// limit is not positive.
func ClampLimit(limit, def int) int {
	if limit <= 0 {
		return def
	}
	return min(limit, MaxBrowseLimit)
}

// Discover runs a free-text arXiv search. sortName is relevance, date, or
// submitted; order is desc or asc.
func (e *Explorer) Discover(ctx context.Context, q string, start, limit int, sortName, order string) ([]types.SearchResult, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, fmt.Errorf("%w: query is empty", ErrInvalidRequest)
	}
	sortBy, sortOrder := search.ParseSort(sortName, order)
	return e.run(ctx, search.Query{
		FreeText:   q,
		Start:      max(start, 0),
		MaxResults: ClampLimit(limit, DefaultDiscoverLimit),
		SortBy:     sortBy,
		SortOrder:  sortOrder,
	})
}

// Trending returns the last 30 days of submissions in the featured categories.
func (e *Explorer) Trending(ctx context.Context, limit int) ([]types.SearchResult, error) {
	return e.run(ctx, search.TrendingQuery(e.now(), ClampLimit(limit, DefaultTrendingLimit)))
}

// Recommended returns recent papers in the featured categories.
func (e *Explorer) Recommended(ctx context.Context, limit int) ([]types.SearchResult, error) {
	return e.run(ctx, search.RecommendedQuery(ClampLimit(limit, DefaultRecommendLimit)))
}

// Category returns the newest papers in one arXiv category.
func (e *Explorer) Category(ctx context.Context, category string, limit int) ([]types.SearchResult, error) {
	if !search.ValidCategory(category) {
		return nil, fmt.Errorf("%w: invalid category %q", ErrInvalidRequest, category)
	}
	return e.run(ctx, search.CategoryQuery(category, ClampLimit(limit, DefaultCategoryLimit)))
}

// Latest returns today's announcements for a category from the listing page.
func (e *Explorer) Latest(ctx context.Context, category string, limit int) ([]types.SearchResult, error) {
	if !search.ValidCategory(category) {
		return nil, fmt.Errorf("%w: invalid category %q", ErrInvalidRequest, category)
	}
	return e.listing.Latest(ctx, category, ClampLimit(limit, DefaultCategoryLimit), e.cfg)
}

// Lookup fetches one paper by arXiv id. It returns search.ErrNotFound for
// unknown ids.
func (e *Explorer) Lookup(ctx context.Context, id string) (types.SearchResult, error) {
	return e.arxiv.Lookup(ctx, id, e.cfg)
}

func (e *Explorer) run(ctx context.Context, q search.Query) ([]types.SearchResult, error) {
	out, err := search.Search(ctx, q, []search.Backend{e.arxiv}, e.cfg, false, e.log)
	if err != nil {
		return nil, err
	}
	if len(out.BackendErrors) > 0 {
		return nil, fmt.Errorf("arXiv search failed: %s", strings.Join(out.BackendErrors, "; "))
	}
	return out.Results, nil
}
