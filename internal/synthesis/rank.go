// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synthesis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"go.uber.org/zap"

	"github.com/pdiddy/research-discovery/internal/llm"
	"github.com/pdiddy/research-discovery/pkg/types"
)

// Fallback values used when ranking cannot be trusted.
const (
	DefaultScore       = 50.0
	FallbackConfidence = 0.5

	// defaultConfidence applies when the model omits confidence_score.
	defaultConfidence = 0.8
)

var (
	// ErrNoCandidates is the Ranking.Reason for an empty candidate set.
	ErrNoCandidates = errors.New("no candidates to rank")

	// ErrMalformedRanking marks model output missing required keys or
	// without a single usable index.
	ErrMalformedRanking = errors.New("malformed ranking")
)

// RankOptions carries the question and user preferences into the prompt.
type RankOptions struct {
	Question            string
	IncludeFoundational bool
	IncludeRecent       bool
	MethodologyFocus    string
	ExcludeTopics       []string

	// MaxAnalyzed caps how many candidates the model sees (default 50).
	MaxAnalyzed int
}

// Ranking is the result of Rank. When Degraded is set, Papers are in
// discovery order and Reason holds the cause.
type Ranking struct {
	Papers   []types.RankedPaper
	Insights types.SynthesisInsights
	Degraded bool
	Reason   error
}

var rankPromptTmpl = template.Must(template.New("rank").Funcs(template.FuncMap{"join": strings.Join}).Parse(`Analyze these {{.Count}} papers for the research question:
"{{.Question}}"

User is looking for:
- Foundational papers: {{.IncludeFoundational}}
- Recent advances: {{.IncludeRecent}}
- Methodology focus: {{if .MethodologyFocus}}{{.MethodologyFocus}}{{else}}any{{end}}
- Exclude topics: {{if .ExcludeTopics}}{{join .ExcludeTopics ", "}}{{else}}none{{end}}

Papers to analyze:
{{.Context}}
Respond with a JSON object containing:
1. "ranked_indices": array of paper indices (the numbers in brackets) in order of relevance, most relevant first
2. "relevance_scores": object mapping each index (as a string) to a score from 0 to 100
3. "insights": object with
   - "key_themes": main themes found
   - "methodology_patterns": common methodologies
   - "research_gaps": identified gaps
   - "suggested_refinements": search refinement suggestions
   - "related_areas": related research areas to explore
   - "confidence_score": overall confidence in the results, from 0 to 1

Consider relevance, quality, foundational importance, and methodology
alignment. Leave out papers on excluded topics. Do not include any text
outside the JSON object.
`))

type rankPromptData struct {
	RankOptions
	Count   int
	Context string
}

// rankResponse is the shape requested from the model.
type rankResponse struct {
	RankedIndices   []int              `json:"ranked_indices"`
	RelevanceScores map[string]float64 `json:"relevance_scores"`
	Insights        insightsResponse   `json:"insights"`
}

type insightsResponse struct {
	KeyThemes            []string `json:"key_themes"`
	MethodologyPatterns  []string `json:"methodology_patterns"`
	ResearchGaps         []string `json:"research_gaps"`
	SuggestedRefinements []string `json:"suggested_refinements"`
	RelatedAreas         []string `json:"related_areas"`
	ConfidenceScore      *float64 `json:"confidence_score"`
}

var rankSchema = llm.SchemaFor[rankResponse]()

// Ranker orders candidates by relevance with one LLM call.
type Ranker struct {
	llm llm.Client
	log *zap.Logger
}

// NewRanker returns a Ranker backed by client.
func NewRanker(client llm.Client, log *zap.Logger) *Ranker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Ranker{llm: client, log: log.Named("ranker")}
}

// Rank asks the model to order candidates and summarize them. It never
// returns an error: on any failure it falls back to discovery order with
// degraded insights.
func (r *Ranker) Rank(ctx context.Context, candidates []types.CandidatePaper, opts RankOptions) Ranking {
	if len(candidates) == 0 {
		return Fallback(nil, ErrNoCandidates)
	}

	limit := opts.MaxAnalyzed
	if limit <= 0 {
		limit = DefaultMaxDocuments
	}
	analyzed := candidates
	if len(analyzed) > limit {
		analyzed = analyzed[:limit]
	}

	ranking, err := r.fromModel(ctx, analyzed, opts)
	if err != nil {
		r.log.Warn("ranking fell back to discovery order",
			zap.Int("candidates", len(candidates)), zap.Error(err))
		return Fallback(candidates, err)
	}
	return ranking
}

func (r *Ranker) fromModel(ctx context.Context, analyzed []types.CandidatePaper, opts RankOptions) (Ranking, error) {
	var buf bytes.Buffer
	err := rankPromptTmpl.Execute(&buf, rankPromptData{
		RankOptions: opts,
		Count:       len(analyzed),
		Context: Assemble(DocumentsFromCandidates(analyzed), AssembleOptions{
			Focus:        opts.Question,
			MaxDocuments: len(analyzed),
		}),
	})
	if err != nil {
		return Ranking{}, fmt.Errorf("rendering prompt: %w", err)
	}

	text, err := r.llm.Complete(ctx, llm.Request{
		Prompt:      buf.String(),
		MaxTokens:   2000,
		Temperature: llm.Float(0.3),
		Schema:      rankSchema,
		SchemaName:  "paper_ranking",
	})
	if err != nil {
		return Ranking{}, err
	}
	return parseRanking(text, analyzed)
}

// parseRanking validates model output against the analyzed candidates.
// Unknown, out-of-range, and repeated indices are dropped; candidates the
// model does not mention are left out of the ranking.
func parseRanking(text string, analyzed []types.CandidatePaper) (Ranking, error) {
	keys, err := llm.Decode[map[string]json.RawMessage](text)
	if errors.Is(err, llm.ErrNoJSON) {
		return Ranking{}, err
	}
	if err != nil {
		return Ranking{}, fmt.Errorf("%w: %v", ErrMalformedRanking, err)
	}
	for _, k := range []string{"ranked_indices", "relevance_scores", "insights"} {
		if v, ok := keys[k]; !ok || string(v) == "null" {
			return Ranking{}, fmt.Errorf("%w: missing %q", ErrMalformedRanking, k)
		}
	}

	resp, err := llm.Decode[rankResponse](text)
	if err != nil {
		return Ranking{}, fmt.Errorf("%w: %v", ErrMalformedRanking, err)
	}

	seen := make(map[int]bool, len(resp.RankedIndices))
	var papers []types.RankedPaper
	for _, idx := range resp.RankedIndices {
		if idx < 0 || idx >= len(analyzed) || seen[idx] {
			continue
		}
		seen[idx] = true

		score, ok := resp.RelevanceScores[strconv.Itoa(idx)]
		if !ok {
			score = DefaultScore
		}
		pos := len(papers) + 1
		papers = append(papers, types.RankedPaper{
			CandidatePaper:   analyzed[idx],
			RelevanceScore:   clamp(score, 0, 100),
			RankPosition:     pos,
			RankingReasoning: fmt.Sprintf("Ranked #%d for relevance to research question", pos),
		})
	}
	if len(papers) == 0 {
		return Ranking{}, fmt.Errorf("%w: no valid ranked index", ErrMalformedRanking)
	}

	in := resp.Insights
	confidence := defaultConfidence
	if in.ConfidenceScore != nil {
		confidence = clamp(*in.ConfidenceScore, 0, 1)
	}
	return Ranking{
		Papers: papers,
		Insights: types.SynthesisInsights{
			KeyThemes:            nonNil(in.KeyThemes),
			MethodologyPatterns:  nonNil(in.MethodologyPatterns),
			ResearchGaps:         nonNil(in.ResearchGaps),
			SuggestedRefinements: nonNil(in.SuggestedRefinements),
			RelatedAreas:         nonNil(in.RelatedAreas),
			ConfidenceScore:      confidence,
		},
	}, nil
}

// Fallback ranks candidates in discovery order with neutral scores and
// degraded insights.
func Fallback(candidates []types.CandidatePaper, reason error) Ranking {
	papers := make([]types.RankedPaper, len(candidates))
	for i, c := range candidates {
		papers[i] = types.RankedPaper{
			CandidatePaper:   c,
			RelevanceScore:   DefaultScore,
			RankPosition:     i + 1,
			RankingReasoning: "Discovery order (ranking unavailable)",
		}
	}
	return Ranking{
		Papers:   papers,
		Insights: DegradedInsights(),
		Degraded: true,
		Reason:   reason,
	}
}

// DegradedInsights is the insight object reported when analysis failed.
func DegradedInsights() types.SynthesisInsights {
	return types.SynthesisInsights{
		KeyThemes:            []string{"Unable to analyze"},
		MethodologyPatterns:  []string{},
		ResearchGaps:         []string{},
		SuggestedRefinements: []string{"Try a more specific search"},
		RelatedAreas:         []string{},
		ConfidenceScore:      FallbackConfidence,
		Degraded:             true,
	}
}

func clamp(v, lo, hi float64) float64 {
	switch {
	case v < lo:
		return lo
	case v > hi:
		return hi
	}
	return v
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
