// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synthesis

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"go.uber.org/zap"

	"github.com/pdiddy/research-discovery/internal/llm"
	"github.com/pdiddy/research-discovery/pkg/types"
)

// Connection analysis limits.
const (
	ConnectionFullTextLimit = 30000
	MinConnectionPapers     = 2
)

// ErrTooFewPapers is returned when fewer than MinConnectionPapers papers
// are given to Analyze.
var ErrTooFewPapers = errors.New("need at least 2 papers for connection analysis")

var connectionsPromptTmpl = template.Must(template.New("connections").Funcs(template.FuncMap{"join": strings.Join}).Parse(`Analyze deep connections between these {{.Count}} research papers.

Analysis types requested: {{if .AnalysisTypes}}{{join .AnalysisTypes ", "}}{{else}}methodology, theoretical, findings, citations{{end}}
Connection depth: {{.Depth}}
Include contradictions: {{.IncludeContradictions}}
Include knowledge gaps: {{.IncludeKnowledgeGaps}}

Papers for analysis:
{{.Context}}
Refer to papers only by their number in brackets. Respond with a JSON object:
- "connections": [{"paper1", "paper2", "connection_type" (methodology, theoretical, findings, citations), "strength" 0-1, "description", "evidence", "implications"}]
- "themes": [{"theme", "papers": [numbers], "description", "evolution"}]
- "contradictions": [{"paper1", "paper2", "contradiction_type" (findings, methodology, interpretation), "description", "potential_resolution", "significance"}]
- "knowledge_gaps": [{"gap", "evidence", "papers_involved": [numbers], "research_opportunity"}]
- "synthesis_opportunities": [{"opportunity", "papers_to_combine": [numbers], "potential_outcome", "methodology"}]
- "collaboration_potential": [{"type", "papers": [numbers], "rationale", "expected_outcome"}]
- "confidence_scores": {"overall", "connections", "contradictions", "gaps"}, each 0-1

Do not include any text outside the JSON object.
`))

type connectionsPromptData struct {
	types.ConnectionAnalysisRequest
	Count   int
	Depth   string
	Context string
}

// connectionsResponse is the shape requested from the model. Papers are
// referenced by their 1-based number in the prompt.
type connectionsResponse struct {
	Connections []struct {
		Paper1         int     `json:"paper1"`
		Paper2         int     `json:"paper2"`
		ConnectionType string  `json:"connection_type"`
		Strength       float64 `json:"strength"`
		Description    string  `json:"description"`
		Evidence       string  `json:"evidence"`
		Implications   string  `json:"implications"`
	} `json:"connections"`
	Themes []struct {
		Theme       string `json:"theme"`
		Papers      []int  `json:"papers"`
		Description string `json:"description"`
		Evolution   string `json:"evolution"`
	} `json:"themes"`
	Contradictions []struct {
		Paper1              int    `json:"paper1"`
		Paper2              int    `json:"paper2"`
		ContradictionType   string `json:"contradiction_type"`
		Description         string `json:"description"`
		PotentialResolution string `json:"potential_resolution"`
		Significance        string `json:"significance"`
	} `json:"contradictions"`
	KnowledgeGaps []struct {
		Gap                 string `json:"gap"`
		Evidence            string `json:"evidence"`
		PapersInvolved      []int  `json:"papers_involved"`
		ResearchOpportunity string `json:"research_opportunity"`
	} `json:"knowledge_gaps"`
	SynthesisOpportunities []struct {
		Opportunity      string `json:"opportunity"`
		PapersToCombine  []int  `json:"papers_to_combine"`
		PotentialOutcome string `json:"potential_outcome"`
		Methodology      string `json:"methodology"`
	} `json:"synthesis_opportunities"`
	CollaborationPotential []struct {
		Type            string `json:"type"`
		Papers          []int  `json:"papers"`
		Rationale       string `json:"rationale"`
		ExpectedOutcome string `json:"expected_outcome"`
	} `json:"collaboration_potential"`
	ConfidenceScores map[string]float64 `json:"confidence_scores"`
}

var connectionsSchema = llm.SchemaFor[connectionsResponse]()

// Analyzer finds cross-paper connections with one long-context LLM call.
type Analyzer struct {
	llm llm.Client
	log *zap.Logger
}

// NewAnalyzer returns an Analyzer backed by client.
func NewAnalyzer(client llm.Client, log *zap.Logger) *Analyzer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Analyzer{llm: client, log: log.Named("connections")}
}

// Analyze relates up to 50 papers to each other. Model failures produce
// EmptyConnections; only too few papers is an error.
func (a *Analyzer) Analyze(ctx context.Context, papers []types.LibraryPaper, req types.ConnectionAnalysisRequest) (types.ConnectionAnalysis, error) {
	if len(papers) < MinConnectionPapers {
		return types.ConnectionAnalysis{}, fmt.Errorf("%w: got %d", ErrTooFewPapers, len(papers))
	}
	if len(papers) > DefaultMaxDocuments {
		papers = papers[:DefaultMaxDocuments]
	}

	analysis, err := a.fromModel(ctx, papers, req)
	if err != nil {
		a.log.Warn("connection analysis fell back to empty result",
			zap.Int("papers", len(papers)), zap.Error(err))
		return EmptyConnections(), nil
	}
	return analysis, nil
}

func (a *Analyzer) fromModel(ctx context.Context, papers []types.LibraryPaper, req types.ConnectionAnalysisRequest) (types.ConnectionAnalysis, error) {
	depth := strings.TrimSpace(req.ConnectionDepth)
	if depth == "" {
		depth = "deep"
	}

	var buf bytes.Buffer
	err := connectionsPromptTmpl.Execute(&buf, connectionsPromptData{
		ConnectionAnalysisRequest: req,
		Count:                     len(papers),
		Depth:                     depth,
		Context: Assemble(DocumentsFromLibrary(papers), AssembleOptions{
			AbstractLimit: ReviewFullTextLimit,
			FullTextLimit: ConnectionFullTextLimit,
			MaxDocuments:  len(papers),
			MaxAuthors:    10,
			FirstIndex:    1,
		}),
	})
	if err != nil {
		return types.ConnectionAnalysis{}, fmt.Errorf("rendering prompt: %w", err)
	}

	text, err := a.llm.Complete(ctx, llm.Request{
		Prompt:      buf.String(),
		MaxTokens:   4000,
		Temperature: llm.Float(0.3),
		Schema:      connectionsSchema,
		SchemaName:  "connection_analysis",
	})
	if err != nil {
		return types.ConnectionAnalysis{}, err
	}

	resp, err := llm.Decode[connectionsResponse](text)
	if err != nil {
		return types.ConnectionAnalysis{}, err
	}
	return resolveConnections(resp, papers, req), nil
}

// resolveConnections maps paper numbers back to library ids. References to
// unknown numbers are dropped, as are pairs that relate a paper to itself.
func resolveConnections(resp connectionsResponse, papers []types.LibraryPaper, req types.ConnectionAnalysisRequest) types.ConnectionAnalysis {
	id := func(n int) (string, bool) {
		if n < 1 || n > len(papers) {
			return "", false
		}
		return papers[n-1].ID, true
	}
	pair := func(a, b int) (string, string, bool) {
		x, ok1 := id(a)
		y, ok2 := id(b)
		return x, y, ok1 && ok2 && a != b
	}
	ids := func(ns []int) []string {
		seen := make(map[int]bool, len(ns))
		out := []string{}
		for _, n := range ns {
			if v, ok := id(n); ok && !seen[n] {
				seen[n] = true
				out = append(out, v)
			}
		}
		return out
	}

	out := EmptyConnections()
	out.Degraded = false

	for _, c := range resp.Connections {
		p1, p2, ok := pair(c.Paper1, c.Paper2)
		if !ok {
			continue
		}
		out.Connections = append(out.Connections, types.PaperConnection{
			Paper1ID:       p1,
			Paper2ID:       p2,
			ConnectionType: c.ConnectionType,
			Strength:       clamp(c.Strength, 0, 1),
			Description:    c.Description,
			Evidence:       c.Evidence,
			Implications:   c.Implications,
		})
	}
	for _, t := range resp.Themes {
		if strings.TrimSpace(t.Theme) == "" {
			continue
		}
		out.Themes = append(out.Themes, types.ResearchTheme{
			Theme:       t.Theme,
			Papers:      ids(t.Papers),
			Description: t.Description,
			Evolution:   t.Evolution,
		})
	}
	if req.IncludeContradictions {
		for _, c := range resp.Contradictions {
			p1, p2, ok := pair(c.Paper1, c.Paper2)
			if !ok {
				continue
			}
			out.Contradictions = append(out.Contradictions, types.Contradiction{
				Paper1ID:            p1,
				Paper2ID:            p2,
				ContradictionType:   c.ContradictionType,
				Description:         c.Description,
				PotentialResolution: c.PotentialResolution,
				Significance:        c.Significance,
			})
		}
	}
	if req.IncludeKnowledgeGaps {
		for _, g := range resp.KnowledgeGaps {
			if strings.TrimSpace(g.Gap) == "" {
				continue
			}
			out.KnowledgeGaps = append(out.KnowledgeGaps, types.KnowledgeGap{
				Gap:                 g.Gap,
				Evidence:            g.Evidence,
				PapersInvolved:      ids(g.PapersInvolved),
				ResearchOpportunity: g.ResearchOpportunity,
			})
		}
	}
	for _, s := range resp.SynthesisOpportunities {
		if strings.TrimSpace(s.Opportunity) == "" {
			continue
		}
		out.SynthesisOpportunities = append(out.SynthesisOpportunities, types.SynthesisOpportunity{
			Opportunity:      s.Opportunity,
			PapersToCombine:  ids(s.PapersToCombine),
			PotentialOutcome: s.PotentialOutcome,
			Methodology:      s.Methodology,
		})
	}
	for _, c := range resp.CollaborationPotential {
		if strings.TrimSpace(c.Type) == "" {
			continue
		}
		out.CollaborationPotential = append(out.CollaborationPotential, types.CollaborationPotential{
			Type:            c.Type,
			Papers:          ids(c.Papers),
			Rationale:       c.Rationale,
			ExpectedOutcome: c.ExpectedOutcome,
		})
	}
	for k, v := range resp.ConfidenceScores {
		out.ConfidenceScores[k] = clamp(v, 0, 1)
	}
	return out
}

// EmptyConnections is the deterministic result returned when the model
// cannot analyze the papers: every list empty, no confidence scores.
func EmptyConnections() types.ConnectionAnalysis {
	return types.ConnectionAnalysis{
		Connections:            []types.PaperConnection{},
		Themes:                 []types.ResearchTheme{},
		Contradictions:         []types.Contradiction{},
		KnowledgeGaps:          []types.KnowledgeGap{},
		SynthesisOpportunities: []types.SynthesisOpportunity{},
		CollaborationPotential: []types.CollaborationPotential{},
		ConfidenceScores:       map[string]float64{},
		Degraded:               true,
	}
}
