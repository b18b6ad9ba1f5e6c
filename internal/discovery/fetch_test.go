// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discovery

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/pdiddy/research-discovery/internal/search"
	"github.com/pdiddy/research-discovery/pkg/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeBackend answers every query through fn and records the queries it saw.
type fakeBackend struct {
	name string
	fn   func(ctx context.Context, q search.Query) ([]types.SearchResult, error)

	mu      sync.Mutex
	queries []search.Query
}

func (f *fakeBackend) Name() string { return f.name }

func (f *fakeBackend) Search(ctx context.Context, q search.Query, _ types.SearchConfig) ([]types.SearchResult, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.mu.Unlock()
	return f.fn(ctx, q)
}

// papersPerQuery returns n results with ids "<query>#<i>".
func papersPerQuery(n int) func(context.Context, search.Query) ([]types.SearchResult, error) {
	return func(_ context.Context, q search.Query) ([]types.SearchResult, error) {
		out := make([]types.SearchResult, n)
		for i := range out {
			out[i] = types.SearchResult{
				Identifier: fmt.Sprintf("%s#%d", q.FreeText, i),
				Title:      fmt.Sprintf("%s paper %d", q.FreeText, i),
				Source:     "fake",
			}
		}
		return out, nil
	}
}

func strategies(queries ...string) []types.QueryStrategy {
	out := make([]types.QueryStrategy, len(queries))
	for i, q := range queries {
		st := types.StrategyBroad
		if i == 0 {
			st = types.StrategyDirect
		}
		out[i] = types.QueryStrategy{Query: q, StrategyType: st, Reasoning: "reason " + q}
	}
	return out
}

func newTestFetcher(cfg types.DiscoveryConfig, backends ...search.Backend) *Fetcher {
	return NewFetcher(backends, types.SearchConfig{}, cfg, zap.NewNop())
}

func TestFetchDistinctResults(t *testing.T) {
	b := &fakeBackend{name: "fake", fn: papersPerQuery(3)}
	f := newTestFetcher(types.DiscoveryConfig{}, b)

	got, stats, err := f.Fetch(context.Background(), strategies("a", "b", "c", "d"), time.Time{})
	require.NoError(t, err)
	assert.Len(t, got, 12)
	assert.Equal(t, 4, stats.Calls)
	assert.Equal(t, 12, stats.Raw)
	assert.Zero(t, stats.Duplicates)
	assert.Empty(t, stats.Failures)

	assert.Equal(t, "a#0", got[0].ID)
	assert.Equal(t, types.StrategyDirect, got[0].DiscoveryStrategy)
	assert.Equal(t, "reason a", got[0].StrategyReasoning)
	assert.Equal(t, "d#2", got[11].ID)
}

func TestFetchFirstStrategyWinsRegardlessOfTiming(t *testing.T) {
	// The first strategy answers last; attribution must still go to it.
	b := &fakeBackend{name: "fake", fn: func(_ context.Context, q search.Query) ([]types.SearchResult, error) {
		if q.FreeText == "first" {
			time.Sleep(30 * time.Millisecond)
		}
		return []types.SearchResult{
			{Identifier: "shared", Title: "Shared"},
			{Identifier: q.FreeText + "-only"},
		}, nil
	}}
	f := newTestFetcher(types.DiscoveryConfig{}, b)

	sts := strategies("first", "second")
	sts[1].StrategyType = types.StrategyRecent
	got, stats, err := f.Fetch(context.Background(), sts, time.Time{})
	require.NoError(t, err)

	require.Len(t, got, 3)
	assert.Equal(t, "shared", got[0].ID)
	assert.Equal(t, types.StrategyDirect, got[0].DiscoveryStrategy)
	assert.Equal(t, "first-only", got[1].ID)
	assert.Equal(t, "second-only", got[2].ID)
	assert.Equal(t, types.StrategyRecent, got[2].DiscoveryStrategy)
	assert.Equal(t, 1, stats.Duplicates)
}

func TestFetchBackendOrderWithinStrategy(t *testing.T) {
	slow := &fakeBackend{name: "slow", fn: func(context.Context, search.Query) ([]types.SearchResult, error) {
		time.Sleep(20 * time.Millisecond)
		return []types.SearchResult{{Identifier: "x", Source: "slow"}}, nil
	}}
	fast := &fakeBackend{name: "fast", fn: func(context.Context, search.Query) ([]types.SearchResult, error) {
		return []types.SearchResult{{Identifier: "x", Source: "fast"}, {Identifier: "y", Source: "fast"}}, nil
	}}
	f := newTestFetcher(types.DiscoveryConfig{}, slow, fast)

	got, _, err := f.Fetch(context.Background(), strategies("q"), time.Time{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "slow", got[0].Source)
	assert.Equal(t, "y", got[1].ID)
}

func TestFetchPerStrategyCap(t *testing.T) {
	b := &fakeBackend{name: "fake", fn: papersPerQuery(150)}
	f := newTestFetcher(types.DiscoveryConfig{}, b)

	got, stats, err := f.Fetch(context.Background(), strategies("a", "b"), time.Time{})
	require.NoError(t, err)
	assert.Len(t, got, 2*DefaultPerStrategyCap)
	assert.Equal(t, 2*DefaultPerStrategyCap, stats.Raw)
	assert.Equal(t, "a#99", got[99].ID)
	assert.Equal(t, "b#0", got[100].ID)

	for _, q := range b.queries {
		assert.Equal(t, DefaultPerStrategyCap, q.MaxResults)
	}
}

func TestFetchFailureContributesNothing(t *testing.T) {
	b := &fakeBackend{name: "fake", fn: func(ctx context.Context, q search.Query) ([]types.SearchResult, error) {
		if q.FreeText == "bad" {
			return nil, errors.New("HTTP 500")
		}
		return papersPerQuery(2)(ctx, q)
	}}
	f := newTestFetcher(types.DiscoveryConfig{}, b)

	got, stats, err := f.Fetch(context.Background(), strategies("good", "bad", "fine"), time.Time{})
	require.NoError(t, err)
	assert.Len(t, got, 4)
	require.Len(t, stats.Failures, 1)
	assert.Contains(t, stats.Failures[0], "fake[bad]")
	assert.Contains(t, stats.Failures[0], "HTTP 500")
}

func TestFetchSkipsEmptyIDs(t *testing.T) {
	b := &fakeBackend{name: "fake", fn: func(context.Context, search.Query) ([]types.SearchResult, error) {
		return []types.SearchResult{{Identifier: " "}, {Identifier: "ok"}, {Title: "no id"}}, nil
	}}
	got, _, err := newTestFetcher(types.DiscoveryConfig{}, b).Fetch(context.Background(), strategies("q"), time.Time{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ok", got[0].ID)
}

func TestFetchPassesDateFrom(t *testing.T) {
	b := &fakeBackend{name: "fake", fn: papersPerQuery(1)}
	from := time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)
	_, _, err := newTestFetcher(types.DiscoveryConfig{}, b).Fetch(context.Background(), strategies("q"), from)
	require.NoError(t, err)
	require.Len(t, b.queries, 1)
	assert.Equal(t, from, b.queries[0].DateFrom)
	assert.Equal(t, "q", b.queries[0].FreeText)
}

func TestFetchPerStrategyTimeout(t *testing.T) {
	b := &fakeBackend{name: "fake", fn: func(ctx context.Context, q search.Query) ([]types.SearchResult, error) {
		if q.FreeText == "hang" {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return papersPerQuery(1)(ctx, q)
	}}
	f := newTestFetcher(types.DiscoveryConfig{StrategyTimeout: 20 * time.Millisecond}, b)

	start := time.Now()
	got, stats, err := f.Fetch(context.Background(), strategies("ok", "hang"), time.Time{})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Len(t, got, 1)
	require.Len(t, stats.Failures, 1)
	assert.Contains(t, stats.Failures[0], "deadline exceeded")
}

func TestFetchCancelled(t *testing.T) {
	started := make(chan struct{}, 3)
	b := &fakeBackend{name: "fake", fn: func(ctx context.Context, q search.Query) ([]types.SearchResult, error) {
		started <- struct{}{}
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	f := newTestFetcher(types.DiscoveryConfig{}, b)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		for range 3 {
			<-started
		}
		cancel()
	}()

	got, _, err := f.Fetch(ctx, strategies("a", "b", "c"), time.Time{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, got)
}

func TestFetchNoStrategies(t *testing.T) {
	got, stats, err := newTestFetcher(types.DiscoveryConfig{}, &fakeBackend{name: "fake", fn: papersPerQuery(1)}).
		Fetch(context.Background(), nil, time.Time{})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Zero(t, stats.Calls)
}
