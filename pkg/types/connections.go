// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ConnectionAnalysisRequest selects library papers for a cross-paper
// connection analysis.
type ConnectionAnalysisRequest struct {
	PaperIDs []string `json:"paper_ids"`

	// AnalysisTypes narrows the connection kinds the model looks for
	// (methodology, theoretical, findings, citations). Empty means all.
	AnalysisTypes []string `json:"analysis_types,omitempty"`

	// ConnectionDepth is a hint for the model: surface or deep (default deep).
	ConnectionDepth string `json:"connection_depth,omitempty"`

	IncludeContradictions bool `json:"include_contradictions"`
	IncludeKnowledgeGaps  bool `json:"include_knowledge_gaps"`
}

// PaperConnection relates two papers.
type PaperConnection struct {
	Paper1ID       string  `json:"paper1_id"`
	Paper2ID       string  `json:"paper2_id"`
	ConnectionType string  `json:"connection_type"`
	Strength       float64 `json:"strength"`
	Description    string  `json:"description"`
	Evidence       string  `json:"evidence,omitempty"`
	Implications   string  `json:"implications,omitempty"`
}

// ResearchTheme is a theme shared by several papers.
type ResearchTheme struct {
	Theme       string   `json:"theme"`
	Papers      []string `json:"papers"`
	Description string   `json:"description"`
	Evolution   string   `json:"evolution,omitempty"`
}

// Contradiction records conflicting findings or methods between two papers.
type Contradiction struct {
	Paper1ID            string `json:"paper1_id"`
	Paper2ID            string `json:"paper2_id"`
	ContradictionType   string `json:"contradiction_type"`
	Description         string `json:"description"`
	PotentialResolution string `json:"potential_resolution,omitempty"`
	Significance        string `json:"significance,omitempty"`
}

// KnowledgeGap is an open question the papers expose.
type KnowledgeGap struct {
	Gap                 string   `json:"gap"`
	Evidence            string   `json:"evidence,omitempty"`
	PapersInvolved      []string `json:"papers_involved"`
	ResearchOpportunity string   `json:"research_opportunity,omitempty"`
}

// SynthesisOpportunity suggests combining papers.
type SynthesisOpportunity struct {
	Opportunity      string   `json:"opportunity"`
	PapersToCombine  []string `json:"papers_to_combine"`
	PotentialOutcome string   `json:"potential_outcome,omitempty"`
	Methodology      string   `json:"methodology,omitempty"`
}

// CollaborationPotential suggests joint work between the groups behind papers.
type CollaborationPotential struct {
	Type            string   `json:"type"`
	Papers          []string `json:"papers"`
	Rationale       string   `json:"rationale,omitempty"`
	ExpectedOutcome string   `json:"expected_outcome,omitempty"`
}

// ConnectionAnalysis is the result of a connection analysis. Paper
// references are library paper ids. A degraded analysis has every list
// empty and no confidence scores.
type ConnectionAnalysis struct {
	Connections            []PaperConnection        `json:"connections"`
	Themes                 []ResearchTheme          `json:"themes"`
	Contradictions         []Contradiction          `json:"contradictions"`
	KnowledgeGaps          []KnowledgeGap           `json:"knowledge_gaps"`
	SynthesisOpportunities []SynthesisOpportunity   `json:"synthesis_opportunities"`
	CollaborationPotential []CollaborationPotential `json:"collaboration_potential"`

	// ConfidenceScores holds overall, connections, contradictions, and gaps
	// confidences in [0, 1].
	ConfidenceScores map[string]float64 `json:"confidence_scores"`
	Degraded         bool               `json:"degraded"`
}
