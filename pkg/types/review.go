// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// LiteratureReviewRequest selects papers for a literature review.
type LiteratureReviewRequest struct {
	ResearchFocus   string   `json:"research_focus"`
	KnowledgeBaseID string   `json:"knowledge_base_id,omitempty"`
	PaperIDs        []string `json:"paper_ids,omitempty"`
	MaxPapers       int      `json:"max_papers"`
}

// ReviewSection is one titled section of a literature review.
type ReviewSection struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// LiteratureReview is a structured review over a set of papers.
type LiteratureReview struct {
	Title                string            `json:"title"`
	Abstract             string            `json:"abstract"`
	Sections             []ReviewSection   `json:"sections"`
	Conclusions          []string          `json:"conclusions"`
	ResearchGaps         []string          `json:"research_gaps"`
	MethodologySynthesis string            `json:"methodology_synthesis"`
	FutureDirections     []string          `json:"future_directions"`
	PaperRelationships   map[string]string `json:"paper_relationships"`
	Citations            []string          `json:"citations"`
	Degraded             bool              `json:"degraded"`
}
