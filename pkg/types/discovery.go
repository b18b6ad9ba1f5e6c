// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// StrategyType labels the search angle a QueryStrategy takes.
type StrategyType string

const (
	StrategyDirect         StrategyType = "direct"
	StrategyBroad          StrategyType = "broad"
	StrategySpecific       StrategyType = "specific"
	StrategyMethodological StrategyType = "methodological"
	StrategyFoundational   StrategyType = "foundational"
	StrategyRecent         StrategyType = "recent"
	StrategyAlternative    StrategyType = "alternative"
	StrategyApplied        StrategyType = "applied"
)

// Valid reports whether t is one of the known strategy types.
func (t StrategyType) Valid() bool {
	switch t {
	case StrategyDirect, StrategyBroad, StrategySpecific, StrategyMethodological,
		StrategyFoundational, StrategyRecent, StrategyAlternative, StrategyApplied:
		return true
	}
	return false
}

// QueryStrategy is one search formulation derived from a research question.
type QueryStrategy struct {
	Query        string       `json:"query" yaml:"query"`
	StrategyType StrategyType `json:"strategy_type" yaml:"strategy_type"`
	Reasoning    string       `json:"reasoning" yaml:"reasoning"`
}

// CandidatePaper is a deduplicated search hit attributed to the first
// strategy that surfaced it.
type CandidatePaper struct {
	// ID is the external identifier (arXiv ID, DOI, or URL). Unique within a candidate set.
	ID       string   `json:"id" yaml:"id"`
	Title    string   `json:"title" yaml:"title"`
	Abstract string   `json:"abstract" yaml:"abstract"`
	Authors  []string `json:"authors" yaml:"authors"`
	Year     int      `json:"year,omitempty" yaml:"year,omitempty"`
	Topics   []string `json:"topics,omitempty" yaml:"topics,omitempty"`
	URL      string   `json:"url,omitempty" yaml:"url,omitempty"`
	Source   string   `json:"source" yaml:"source"`

	// DiscoveryStrategy is the strategy type that first found the paper.
	DiscoveryStrategy StrategyType `json:"discovery_strategy" yaml:"discovery_strategy"`

	// StrategyReasoning is the reasoning of that strategy.
	StrategyReasoning string `json:"strategy_reasoning" yaml:"strategy_reasoning"`
}

// RankedPaper is a candidate with its position in the synthesized ranking.
type RankedPaper struct {
	CandidatePaper `yaml:",inline"`

	// RelevanceScore is in [0, 100].
	RelevanceScore float64 `json:"relevance_score" yaml:"relevance_score"`

	// RankPosition is 1-based and contiguous.
	RankPosition     int    `json:"rank_position" yaml:"rank_position"`
	RankingReasoning string `json:"ranking_reasoning" yaml:"ranking_reasoning"`
}

// SynthesisInsights summarizes a ranked candidate set.
type SynthesisInsights struct {
	KeyThemes            []string `json:"key_themes" yaml:"key_themes"`
	MethodologyPatterns  []string `json:"methodology_patterns" yaml:"methodology_patterns"`
	ResearchGaps         []string `json:"research_gaps" yaml:"research_gaps"`
	SuggestedRefinements []string `json:"suggested_refinements" yaml:"suggested_refinements"`
	RelatedAreas         []string `json:"related_areas" yaml:"related_areas"`

	// ConfidenceScore is in [0, 1].
	ConfidenceScore float64 `json:"confidence_score" yaml:"confidence_score"`

	// Degraded is set when the insights come from the deterministic fallback.
	Degraded bool `json:"degraded" yaml:"degraded"`
}

// SearchRequest is the input to a discovery run.
type SearchRequest struct {
	ResearchQuestion    string   `json:"research_question" yaml:"research_question"`
	KnowledgeBaseID     string   `json:"knowledge_base_id,omitempty" yaml:"knowledge_base_id,omitempty"`
	MethodologyFocus    string   `json:"methodology_focus,omitempty" yaml:"methodology_focus,omitempty"`
	ExcludeTopics       []string `json:"exclude_topics,omitempty" yaml:"exclude_topics,omitempty"`
	IncludeFoundational bool     `json:"include_foundational" yaml:"include_foundational"`
	IncludeRecent       bool     `json:"include_recent" yaml:"include_recent"`
	MaxPapers           int      `json:"max_papers" yaml:"max_papers"`

	// TimeRangeYears restricts results to papers submitted in the last N years. Zero means unbounded.
	TimeRangeYears int `json:"time_range_years,omitempty" yaml:"time_range_years,omitempty"`
}

// NewSearchRequest returns a request for question with default preferences.
func NewSearchRequest(question string) SearchRequest {
	return SearchRequest{
		ResearchQuestion:    question,
		IncludeFoundational: true,
		IncludeRecent:       true,
		MaxPapers:           20,
	}
}

// SearchResponse is the shaped result of a discovery run.
type SearchResponse struct {
	Papers               []RankedPaper     `json:"papers"`
	TotalCandidates      int               `json:"total_candidates"`
	QueryStrategies      []QueryStrategy   `json:"query_strategies"`
	ResearchInsights     SynthesisInsights `json:"research_insights"`
	ProcessingTime       float64           `json:"processing_time"`
	ConfidenceScore      float64           `json:"confidence_score"`
	SuggestedRefinements []string          `json:"suggested_refinements"`
	RelatedResearchAreas []string          `json:"related_research_areas"`
}

// SearchSession is the persisted record of one discovery run. Sessions are
// insert-only.
type SearchSession struct {
	ID               string            `json:"id" yaml:"id"`
	UserID           string            `json:"user_id" yaml:"user_id"`
	ResearchQuestion string            `json:"research_question" yaml:"research_question"`
	KnowledgeBaseID  string            `json:"knowledge_base_id,omitempty" yaml:"knowledge_base_id,omitempty"`
	QueryStrategies  []QueryStrategy   `json:"query_strategies" yaml:"query_strategies"`
	Candidates       []CandidatePaper  `json:"candidates" yaml:"candidates"`
	Ranked           []RankedPaper     `json:"ranked" yaml:"ranked"`
	Insights         SynthesisInsights `json:"insights" yaml:"insights"`
	TotalCandidates  int               `json:"total_candidates" yaml:"total_candidates"`
	MaxPapers        int               `json:"max_papers" yaml:"max_papers"`
	ConfidenceScore  float64           `json:"confidence_score" yaml:"confidence_score"`
	CreatedAt        time.Time         `json:"created_at" yaml:"created_at"`
}

// UserContext summarizes a user's library for strategy generation.
type UserContext struct {
	LibraryPapers int      `json:"library_papers"`
	ResearchAreas []string `json:"research_areas"`
	Methodologies []string `json:"methodologies"`
}
