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

// ReviewFullTextLimit caps each paper's full-text excerpt in a review prompt.
const ReviewFullTextLimit = 5000

// ErrNoPapers is returned when a review request resolves to no papers.
var ErrNoPapers = errors.New("no papers found for review")

var reviewPromptTmpl = template.Must(template.New("review").Parse(`You are writing a comprehensive literature review on: "{{.Focus}}"

Based on the {{.Count}} papers provided, create a structured literature review with:

1. title: a compelling title for the review
2. abstract: a 200-300 word summary
3. sections: at least 5 sections, each {"title", "content"}:
   Introduction & Background, Methodology Overview, Key Findings & Contributions,
   Research Gaps & Limitations, Future Directions
4. conclusions: 3-5 key takeaways
5. research_gaps: open problems across the papers
6. methodology_synthesis: how methods evolved across papers
7. future_directions: promising next steps
8. paper_relationships: object mapping a paper number to how it connects to the others
9. citations: one entry per paper, formatted "[n] title"

Cite papers by number, [1], [2], etc.

Papers:
{{.Context}}
Respond with a single JSON object with exactly these keys. Do not include
any text outside the JSON object.
`))

type reviewPromptData struct {
	Focus   string
	Count   int
	Context string
}

// reviewResponse is the shape requested from the model.
type reviewResponse struct {
	Title                string                `json:"title"`
	Abstract             string                `json:"abstract"`
	Sections             []types.ReviewSection `json:"sections"`
	Conclusions          []string              `json:"conclusions"`
	ResearchGaps         []string              `json:"research_gaps"`
	MethodologySynthesis string                `json:"methodology_synthesis"`
	FutureDirections     []string              `json:"future_directions"`
	PaperRelationships   map[string]string     `json:"paper_relationships"`
	Citations            []string              `json:"citations"`
}

var reviewSchema = llm.SchemaFor[reviewResponse]()

// Reviewer writes literature reviews over library papers.
type Reviewer struct {
	llm llm.Client
	log *zap.Logger
}

// NewReviewer returns a Reviewer backed by client.
func NewReviewer(client llm.Client, log *zap.Logger) *Reviewer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reviewer{llm: client, log: log.Named("reviewer")}
}

// Review writes a review of papers (at most maxPapers, default 20, never
// more than 50). Model failures produce a degraded skeleton review.
func (r *Reviewer) Review(ctx context.Context, papers []types.LibraryPaper, focus string, maxPapers int) (types.LiteratureReview, error) {
	if len(papers) == 0 {
		return types.LiteratureReview{}, ErrNoPapers
	}
	if maxPapers <= 0 {
		maxPapers = 20
	}
	maxPapers = min(maxPapers, DefaultMaxDocuments)
	if len(papers) > maxPapers {
		papers = papers[:maxPapers]
	}

	review, err := r.fromModel(ctx, papers, focus)
	if err != nil {
		r.log.Warn("literature review fell back to skeleton",
			zap.Int("papers", len(papers)), zap.Error(err))
		return SkeletonReview(papers, focus), nil
	}
	return review, nil
}

func (r *Reviewer) fromModel(ctx context.Context, papers []types.LibraryPaper, focus string) (types.LiteratureReview, error) {
	var buf bytes.Buffer
	err := reviewPromptTmpl.Execute(&buf, reviewPromptData{
		Focus: focus,
		Count: len(papers),
		Context: Assemble(DocumentsFromLibrary(papers), AssembleOptions{
			Focus:         focus,
			AbstractLimit: ReviewFullTextLimit,
			FullTextLimit: ReviewFullTextLimit,
			MaxDocuments:  len(papers),
			MaxAuthors:    10,
			FirstIndex:    1,
		}),
	})
	if err != nil {
		return types.LiteratureReview{}, fmt.Errorf("rendering prompt: %w", err)
	}

	text, err := r.llm.Complete(ctx, llm.Request{
		Prompt:     buf.String(),
		MaxTokens:  4000,
		Schema:     reviewSchema,
		SchemaName: "literature_review",
	})
	if err != nil {
		return types.LiteratureReview{}, err
	}

	resp, err := llm.Decode[reviewResponse](text)
	if err != nil {
		return types.LiteratureReview{}, err
	}
	if strings.TrimSpace(resp.Title) == "" || len(resp.Sections) == 0 {
		return types.LiteratureReview{}, fmt.Errorf("review without title or sections")
	}

	review := types.LiteratureReview{
		Title:                resp.Title,
		Abstract:             resp.Abstract,
		Sections:             resp.Sections,
		Conclusions:          nonNil(resp.Conclusions),
		ResearchGaps:         nonNil(resp.ResearchGaps),
		MethodologySynthesis: resp.MethodologySynthesis,
		FutureDirections:     nonNil(resp.FutureDirections),
		PaperRelationships:   resp.PaperRelationships,
		Citations:            resp.Citations,
	}
	if review.PaperRelationships == nil {
		review.PaperRelationships = map[string]string{}
	}
	if len(review.Citations) == 0 {
		review.Citations = citations(papers)
	}
	return review, nil
}

// SkeletonReview is the deterministic review returned when the model
// cannot produce one. It carries real citations and placeholder prose.
func SkeletonReview(papers []types.LibraryPaper, focus string) types.LiteratureReview {
	return types.LiteratureReview{
		Title:    "Literature Review: " + focus,
		Abstract: fmt.Sprintf("This review covers %d papers on %s. Automated synthesis was unavailable.", len(papers), focus),
		Sections: []types.ReviewSection{{
			Title:   "Introduction",
			Content: "Overview of the research area.",
		}},
		Conclusions:          []string{},
		ResearchGaps:         []string{},
		MethodologySynthesis: "",
		FutureDirections:     []string{},
		PaperRelationships:   map[string]string{},
		Citations:            citations(papers),
		Degraded:             true,
	}
}

func citations(papers []types.LibraryPaper) []string {
	out := make([]string, len(papers))
	for i, p := range papers {
		out[i] = fmt.Sprintf("[%d] %s", i+1, p.Title)
	}
	return out
}
