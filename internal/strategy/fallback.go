// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package strategy

import (
	"fmt"
	"strings"

	"github.com/pdiddy/research-discovery/pkg/types"
)

// synonyms drive the alternative-terminology strategy. Order matters: the
// first phrase found in the question wins.
var synonyms = []struct{ from, to string }{
	{"deep learning", "neural networks"},
	{"computer vision", "image processing"},
	{"machine learning", "artificial intelligence"},
	{"neural networks", "deep learning"},
	{"transformers", "attention mechanisms"},
}

// Fallback derives strategies from the question alone. It is deterministic
// and always returns the verbatim question first.
func Fallback(question string) []types.QueryStrategy {
	strategies := []types.QueryStrategy{{
		Query:        question,
		StrategyType: types.StrategyDirect,
		Reasoning:    "Direct search with the exact research question",
	}}

	keywords := strings.Fields(question)
	if len(keywords) >= 2 {
		first, last := keywords[0], keywords[len(keywords)-1]
		return append(strategies,
			types.QueryStrategy{
				Query:        fmt.Sprintf("(%s) AND (%s)", first, last),
				StrategyType: types.StrategyMethodological,
				Reasoning:    "Focus on core methodology and application",
			},
			types.QueryStrategy{
				Query:        "cat:cs.CV OR cat:cs.LG OR cat:cs.AI " + first,
				StrategyType: types.StrategyBroad,
				Reasoning:    "Search in relevant arXiv categories",
			},
			types.QueryStrategy{
				Query:        alternativeTerms(question),
				StrategyType: types.StrategyAlternative,
				Reasoning:    "Search with alternative terminology",
			},
		)
	}

	return append(strategies,
		types.QueryStrategy{
			Query:        "cat:cs.AI " + question,
			StrategyType: types.StrategyBroad,
			Reasoning:    "Search in the AI category",
		},
		types.QueryStrategy{
			Query:        question + " applications",
			StrategyType: types.StrategyApplied,
			Reasoning:    "Find practical applications",
		},
	)
}

// alternativeTerms lower-cases the question and swaps the first known phrase
// for its synonym. Without a match the question is returned unchanged.
func alternativeTerms(question string) string {
	lower := strings.ToLower(question)
	for _, s := range synonyms {
		if strings.Contains(lower, s.from) {
			return strings.ReplaceAll(lower, s.from, s.to)
		}
	}
	return question
}
