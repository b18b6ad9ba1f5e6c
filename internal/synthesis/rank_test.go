// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synthesis

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pdiddy/research-discovery/internal/llm"
	"github.com/pdiddy/research-discovery/pkg/types"
)

func candidates(n int) []types.CandidatePaper {
	out := make([]types.CandidatePaper, n)
	for i := range out {
		out[i] = types.CandidatePaper{
			ID:                fmt.Sprintf("2401.%05d", i),
			Title:             fmt.Sprintf("Candidate %d", i),
			Abstract:          "An abstract.",
			DiscoveryStrategy: types.StrategyDirect,
		}
	}
	return out
}

func reply(text string) llm.Client {
	return llm.ClientFunc(func(context.Context, llm.Request) (string, error) { return text, nil })
}

func assertFallback(t *testing.T, in []types.CandidatePaper, got Ranking) {
	t.Helper()
	assert.True(t, got.Degraded)
	require.Error(t, got.Reason)
	require.Len(t, got.Papers, len(in))
	for i, p := range got.Papers {
		assert.Equal(t, in[i].ID, p.ID, "discovery order")
		assert.Equal(t, i+1, p.RankPosition)
		assert.Equal(t, DefaultScore, p.RelevanceScore)
	}
	assert.Equal(t, FallbackConfidence, got.Insights.ConfidenceScore)
	assert.Equal(t, []string{"Unable to analyze"}, got.Insights.KeyThemes)
	assert.Equal(t, []string{"Try a more specific search"}, got.Insights.SuggestedRefinements)
	assert.True(t, got.Insights.Degraded)
}

func TestRankFromModel(t *testing.T) {
	in := candidates(4)
	var gotReq llm.Request
	client := llm.ClientFunc(func(_ context.Context, req llm.Request) (string, error) {
		gotReq = req
		return `{
			"ranked_indices": [2, 0, 3],
			"relevance_scores": {"2": 95, "0": 80.5, "3": 40},
			"insights": {
				"key_themes": ["sparsity"],
				"methodology_patterns": ["pruning"],
				"research_gaps": ["theory"],
				"suggested_refinements": ["add cat:cs.LG"],
				"related_areas": ["compression"],
				"confidence_score": 0.9
			}
		}`, nil
	})

	got := NewRanker(client, zap.NewNop()).Rank(context.Background(), in, RankOptions{
		Question:            "sparse networks",
		IncludeFoundational: true,
		MethodologyFocus:    "pruning",
		ExcludeTopics:       []string{"quantum"},
	})

	assert.False(t, got.Degraded)
	assert.NoError(t, got.Reason)
	require.Len(t, got.Papers, 3)
	assert.Equal(t, in[2].ID, got.Papers[0].ID)
	assert.Equal(t, 95.0, got.Papers[0].RelevanceScore)
	assert.Equal(t, 1, got.Papers[0].RankPosition)
	assert.Equal(t, "Ranked #1 for relevance to research question", got.Papers[0].RankingReasoning)
	assert.Equal(t, in[0].ID, got.Papers[1].ID)
	assert.Equal(t, 80.5, got.Papers[1].RelevanceScore)
	assert.Equal(t, 3, got.Papers[2].RankPosition)
	assert.Equal(t, 0.9, got.Insights.ConfidenceScore)
	assert.Equal(t, []string{"sparsity"}, got.Insights.KeyThemes)
	assert.False(t, got.Insights.Degraded)

	assert.Contains(t, gotReq.Prompt, `"sparse networks"`)
	assert.Contains(t, gotReq.Prompt, "Total Documents: 4")
	assert.Contains(t, gotReq.Prompt, "Methodology focus: pruning")
	assert.Contains(t, gotReq.Prompt, "Exclude topics: quantum")
	assert.Contains(t, gotReq.Prompt, "Foundational papers: true")
	assert.NotNil(t, gotReq.Schema)
}

func TestRankDropsBadIndicesAndClamps(t *testing.T) {
	in := candidates(3)
	got := NewRanker(reply(`{
		"ranked_indices": [7, 1, -1, 1, 0],
		"relevance_scores": {"1": 150, "0": -20},
		"insights": {"confidence_score": 3.5}
	}`), nil).Rank(context.Background(), in, RankOptions{Question: "q"})

	assert.False(t, got.Degraded)
	require.Len(t, got.Papers, 2)
	assert.Equal(t, in[1].ID, got.Papers[0].ID)
	assert.Equal(t, 100.0, got.Papers[0].RelevanceScore)
	assert.Equal(t, in[0].ID, got.Papers[1].ID)
	assert.Equal(t, 0.0, got.Papers[1].RelevanceScore)
	assert.Equal(t, 2, got.Papers[1].RankPosition)
	assert.Equal(t, 1.0, got.Insights.ConfidenceScore)
	assert.Equal(t, []string{}, got.Insights.KeyThemes)
}

func TestRankDefaultsMissingScoresAndConfidence(t *testing.T) {
	got := NewRanker(reply(`{"ranked_indices": [0], "relevance_scores": {}, "insights": {}}`), nil).
		Rank(context.Background(), candidates(2), RankOptions{})
	require.Len(t, got.Papers, 1)
	assert.Equal(t, DefaultScore, got.Papers[0].RelevanceScore)
	assert.Equal(t, 0.8, got.Insights.ConfidenceScore)
}

func TestRankOnlyAnalyzesFirstCandidates(t *testing.T) {
	in := candidates(60)
	got := NewRanker(reply(`{"ranked_indices": [55, 49], "relevance_scores": {}, "insights": {}}`), nil).
		Rank(context.Background(), in, RankOptions{})
	require.Len(t, got.Papers, 1, "index 55 is outside the analyzed window")
	assert.Equal(t, in[49].ID, got.Papers[0].ID)
}

func TestRankFallback(t *testing.T) {
	tests := []struct {
		name    string
		client  llm.Client
		wantErr error
	}{
		{"llm error", llm.ClientFunc(func(context.Context, llm.Request) (string, error) {
			return "", errors.New("synthesis exploded")
		}), nil},
		{"not configured", llm.Disabled{}, llm.ErrNotConfigured},
		{"not json", reply("Sorry, I can't do that."), llm.ErrNoJSON},
		{"missing insights", reply(`{"ranked_indices": [0], "relevance_scores": {}}`), ErrMalformedRanking},
		{"missing indices", reply(`{"relevance_scores": {}, "insights": {}}`), ErrMalformedRanking},
		{"null scores", reply(`{"ranked_indices": [0], "relevance_scores": null, "insights": {}}`), ErrMalformedRanking},
		{"no valid index", reply(`{"ranked_indices": [9, 10], "relevance_scores": {}, "insights": {}}`), ErrMalformedRanking},
		{"wrong index type", reply(`{"ranked_indices": ["a"], "relevance_scores": {}, "insights": {}}`), ErrMalformedRanking},
		{"array instead of object", reply(`[0, 1, 2]`), ErrMalformedRanking},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := candidates(3)
			got := NewRanker(tt.client, nil).Rank(context.Background(), in, RankOptions{Question: "q"})
			assertFallback(t, in, got)
			if tt.wantErr != nil {
				assert.ErrorIs(t, got.Reason, tt.wantErr)
			}
		})
	}
}

func TestRankFallbackKeepsAllCandidates(t *testing.T) {
	in := candidates(70)
	got := NewRanker(llm.Disabled{}, nil).Rank(context.Background(), in, RankOptions{})
	assertFallback(t, in, got)
}

func TestRankNoCandidates(t *testing.T) {
	called := false
	client := llm.ClientFunc(func(context.Context, llm.Request) (string, error) {
		called = true
		return "", nil
	})
	got := NewRanker(client, nil).Rank(context.Background(), nil, RankOptions{})
	assert.False(t, called)
	assert.ErrorIs(t, got.Reason, ErrNoCandidates)
	assert.Empty(t, got.Papers)
	assert.True(t, got.Insights.Degraded)
}
