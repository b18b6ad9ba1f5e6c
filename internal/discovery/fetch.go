// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package discovery runs the research discovery pipeline: strategies from a
// question, a concurrent fetch across every strategy and backend, one
// ranking call, and best-effort session persistence.
package discovery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/research-discovery/internal/search"
	"github.com/pdiddy/research-discovery/pkg/types"
)

// Fetch defaults.
const (
	DefaultPerStrategyCap  = 100
	DefaultStrategyTimeout = 30 * time.Second
)

// FetchStats describes one Fetch call.
type FetchStats struct {
	// Calls is the number of (strategy, backend) searches issued.
	Calls int

	// Failures lists the calls that returned an error, as "backend[query]: err".
	Failures []string

	// Raw is the number of results before deduplication.
	Raw int

	// Duplicates is the number of results dropped because an earlier
	// strategy already surfaced the same id.
	Duplicates int
}

// Fetcher runs every strategy against every backend.
type Fetcher struct {
	backends []search.Backend
	cfg      types.SearchConfig
	cap      int
	timeout  time.Duration
	log      *zap.Logger
}

// NewFetcher returns a Fetcher over backends. Backend order is the
// tie-break order within a strategy.
func NewFetcher(backends []search.Backend, cfg types.SearchConfig, dcfg types.DiscoveryConfig, log *zap.Logger) *Fetcher {
	if log == nil {
		log = zap.NewNop()
	}
	f := &Fetcher{
		backends: backends,
		cfg:      cfg,
		cap:      dcfg.PerStrategyCap,
		timeout:  dcfg.StrategyTimeout,
		log:      log.Named("fetcher"),
	}
	if f.cap <= 0 {
		f.cap = DefaultPerStrategyCap
	}
	if f.timeout <= 0 {
		f.timeout = DefaultStrategyTimeout
	}
	return f
}

type slot struct {
	results []types.SearchResult
	err     error
}

// Fetch searches all (strategy, backend) pairs concurrently and merges the
// results once every call has returned. Candidates are deduplicated by id;
// the first strategy in generation order keeps attribution. A failed call
// contributes nothing. The only error returned is the context's.
func (f *Fetcher) Fetch(ctx context.Context, strategies []types.QueryStrategy, dateFrom time.Time) ([]types.CandidatePaper, FetchStats, error) {
	slots := make([][]slot, len(strategies))
	for i := range slots {
		slots[i] = make([]slot, len(f.backends))
	}

	var g errgroup.Group
	for i, st := range strategies {
		q := search.Query{
			FreeText:   st.Query,
			DateFrom:   dateFrom,
			MaxResults: f.cap,
		}
		for j, b := range f.backends {
			g.Go(func() error {
				cctx, cancel := context.WithTimeout(ctx, f.timeout)
				defer cancel()
				res, err := b.Search(cctx, q, f.cfg)
				slots[i][j] = slot{results: res, err: err}
				return nil
			})
		}
	}
	_ = g.Wait()

	stats := FetchStats{Calls: len(strategies) * len(f.backends)}
	if err := ctx.Err(); err != nil {
		return nil, stats, err
	}

	seen := make(map[string]bool)
	var out []types.CandidatePaper
	for i, st := range strategies {
		var contributed []types.SearchResult
		for j, b := range f.backends {
			s := slots[i][j]
			if s.err != nil {
				stats.Failures = append(stats.Failures, fmt.Sprintf("%s[%s]: %v", b.Name(), st.Query, s.err))
				f.log.Warn("strategy fetch failed",
					zap.String("backend", b.Name()),
					zap.String("strategy", string(st.StrategyType)),
					zap.Error(s.err))
				continue
			}
			contributed = append(contributed, s.results...)
		}
		if len(contributed) > f.cap {
			contributed = contributed[:f.cap]
		}
		stats.Raw += len(contributed)

		for _, r := range contributed {
			id := strings.TrimSpace(r.Identifier)
			if id == "" {
				continue
			}
			if seen[id] {
				stats.Duplicates++
				continue
			}
			seen[id] = true
			out = append(out, toCandidate(r, st))
		}
	}

	f.log.Debug("fetch complete",
		zap.Int("strategies", len(strategies)),
		zap.Int("calls", stats.Calls),
		zap.Int("failures", len(stats.Failures)),
		zap.Int("candidates", len(out)),
		zap.Int("duplicates", stats.Duplicates))
	return out, stats, nil
}

func toCandidate(r types.SearchResult, st types.QueryStrategy) types.CandidatePaper {
	return types.CandidatePaper{
		ID:                strings.TrimSpace(r.Identifier),
		Title:             r.Title,
		Abstract:          r.Abstract,
		Authors:           r.Authors,
		Year:              r.Year,
		Topics:            r.Topics,
		URL:               r.URL,
		Source:            r.Source,
		DiscoveryStrategy: st.StrategyType,
		StrategyReasoning: st.Reasoning,
	}
}
