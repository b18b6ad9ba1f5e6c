// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synthesis

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-discovery/internal/llm"
	"github.com/pdiddy/research-discovery/pkg/types"
)

func allSections() types.ConnectionAnalysisRequest {
	return types.ConnectionAnalysisRequest{IncludeContradictions: true, IncludeKnowledgeGaps: true}
}

func TestAnalyzeResolvesPaperNumbers(t *testing.T) {
	var got llm.Request
	client := llm.ClientFunc(func(_ context.Context, req llm.Request) (string, error) {
		got = req
		return `{
			"connections": [
				{"paper1": 1, "paper2": 3, "connection_type": "methodology", "strength": 1.7, "description": "same encoder"},
				{"paper1": 2, "paper2": 9, "connection_type": "findings", "strength": 0.5, "description": "out of range"},
				{"paper1": 2, "paper2": 2, "connection_type": "findings", "strength": 0.5, "description": "self"}
			],
			"themes": [{"theme": "sparsity", "papers": [1, 2, 2, 7], "description": "d"}, {"theme": " ", "papers": [1]}],
			"contradictions": [{"paper1": 2, "paper2": 3, "contradiction_type": "findings", "description": "disagree"}],
			"knowledge_gaps": [{"gap": "scaling laws", "papers_involved": [3]}],
			"synthesis_opportunities": [{"opportunity": "combine", "papers_to_combine": [1, 3]}],
			"collaboration_potential": [{"type": "joint benchmark", "papers": [2, 3]}],
			"confidence_scores": {"overall": 0.85, "gaps": -1}
		}`, nil
	})

	papers := libraryPapers(3)
	analysis, err := NewAnalyzer(client, nil).Analyze(context.Background(), papers, allSections())
	require.NoError(t, err)

	assert.False(t, analysis.Degraded)
	require.Len(t, analysis.Connections, 1)
	assert.Equal(t, "p0", analysis.Connections[0].Paper1ID)
	assert.Equal(t, "p2", analysis.Connections[0].Paper2ID)
	assert.Equal(t, 1.0, analysis.Connections[0].Strength)

	require.Len(t, analysis.Themes, 1)
	assert.Equal(t, []string{"p0", "p1"}, analysis.Themes[0].Papers)

	require.Len(t, analysis.Contradictions, 1)
	assert.Equal(t, "p1", analysis.Contradictions[0].Paper1ID)
	assert.Equal(t, []string{"p2"}, analysis.KnowledgeGaps[0].PapersInvolved)
	assert.Equal(t, []string{"p0", "p2"}, analysis.SynthesisOpportunities[0].PapersToCombine)
	assert.Equal(t, []string{"p1", "p2"}, analysis.CollaborationPotential[0].Papers)
	assert.Equal(t, map[string]float64{"overall": 0.85, "gaps": 0}, analysis.ConfidenceScores)

	assert.Equal(t, "connection_analysis", got.SchemaName)
	require.NotNil(t, got.Temperature)
	assert.Equal(t, 0.3, *got.Temperature)
	assert.Contains(t, got.Prompt, "[1] Library Paper 0 (2022)")
	assert.Contains(t, got.Prompt, "Connection depth: deep")
	assert.Contains(t, got.Prompt, "Include contradictions: true")
}

func TestAnalyzeHonorsSectionFlags(t *testing.T) {
	client := llm.ClientFunc(func(context.Context, llm.Request) (string, error) {
		return `{
			"contradictions": [{"paper1": 1, "paper2": 2, "description": "disagree"}],
			"knowledge_gaps": [{"gap": "g", "papers_involved": [1]}]
		}`, nil
	})

	req := types.ConnectionAnalysisRequest{AnalysisTypes: []string{"methodology"}, ConnectionDepth: "surface"}
	analysis, err := NewAnalyzer(client, nil).Analyze(context.Background(), libraryPapers(2), req)
	require.NoError(t, err)
	assert.Empty(t, analysis.Contradictions)
	assert.Empty(t, analysis.KnowledgeGaps)
	assert.NotNil(t, analysis.Contradictions)
	assert.False(t, analysis.Degraded)
}

func TestAnalyzeFullTextCap(t *testing.T) {
	var prompt string
	client := llm.ClientFunc(func(_ context.Context, req llm.Request) (string, error) {
		prompt = req.Prompt
		return "", errors.New("down")
	})
	papers := libraryPapers(2)
	papers[0].FullText = strings.Repeat("z", ConnectionFullTextLimit+100)

	_, err := NewAnalyzer(client, nil).Analyze(context.Background(), papers, allSections())
	require.NoError(t, err)
	assert.Contains(t, prompt, strings.Repeat("z", ConnectionFullTextLimit))
	assert.NotContains(t, prompt, strings.Repeat("z", ConnectionFullTextLimit+1))
}

func TestAnalyzeRequiresTwoPapers(t *testing.T) {
	called := false
	client := llm.ClientFunc(func(context.Context, llm.Request) (string, error) {
		called = true
		return "{}", nil
	})
	a := NewAnalyzer(client, nil)

	for _, n := range []int{0, 1} {
		_, err := a.Analyze(context.Background(), libraryPapers(n), allSections())
		assert.ErrorIs(t, err, ErrTooFewPapers)
	}
	assert.False(t, called)
}

func TestAnalyzeFallsBackToEmpty(t *testing.T) {
	tests := map[string]llm.Client{
		"llm error": llm.ClientFunc(func(context.Context, llm.Request) (string, error) {
			return "", errors.New("boom")
		}),
		"disabled": llm.Disabled{},
		"not json": llm.ClientFunc(func(context.Context, llm.Request) (string, error) {
			return "I could not find connections.", nil
		}),
		"wrong types": llm.ClientFunc(func(context.Context, llm.Request) (string, error) {
			return `{"connections": "many"}`, nil
		}),
	}

	for name, client := range tests {
		t.Run(name, func(t *testing.T) {
			analysis, err := NewAnalyzer(client, nil).Analyze(context.Background(), libraryPapers(2), allSections())
			require.NoError(t, err)
			assert.Equal(t, EmptyConnections(), analysis)
			assert.True(t, analysis.Degraded)
		})
	}
}
