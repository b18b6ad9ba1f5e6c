// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package strategy turns a research question into three to five search
// formulations. The LLM proposes them; anything it returns that does not
// validate is discarded in favor of a deterministic fallback.
package strategy

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

// Bounds on the number of strategies per question.
const (
	MinStrategies = 3
	MaxStrategies = 5
)

// ErrInvalidStrategies marks LLM output that failed validation.
var ErrInvalidStrategies = errors.New("invalid strategies")

// Outcome is the result of Generate. When Fallback is set, Reason holds the
// error that caused it.
type Outcome struct {
	Strategies []types.QueryStrategy
	Fallback   bool
	Reason     error
}

var promptTmpl = template.Must(template.New("strategies").Funcs(template.FuncMap{"join": strings.Join}).Parse(`Generate multiple arXiv search strategies for this research question:
"{{.Question}}"

User context:
- Has {{.Context.LibraryPapers}} papers in library
- Research areas: {{join .Areas ", "}}
- Methodologies of interest: {{join .Context.Methodologies ", "}}

Generate 3-5 different search query strategies. Respond with a JSON object
{"strategies": [...]} where each element has:
- query: the search query string (arXiv syntax such as cat:cs.LG is allowed)
- strategy_type: one of "direct", "broad", "specific", "methodological", "foundational", "recent", "alternative", "applied"
- reasoning: why this query strategy helps

Include the question itself as a "direct" strategy. Be creative and
comprehensive to maximize paper discovery. Do not include any text outside
the JSON object.
`))

type promptData struct {
	Question string
	Context  types.UserContext
	Areas    []string
}

// strategiesResponse is the shape requested from the model.
type strategiesResponse struct {
	Strategies []rawStrategy `json:"strategies"`
}

type rawStrategy struct {
	Query        string `json:"query"`
	StrategyType string `json:"strategy_type"`
	Reasoning    string `json:"reasoning"`
}

var responseSchema = llm.SchemaFor[strategiesResponse]()

// Generator produces query strategies for a research question.
type Generator struct {
	llm llm.Client
	log *zap.Logger
}

// NewGenerator returns a Generator backed by client.
func NewGenerator(client llm.Client, log *zap.Logger) *Generator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Generator{llm: client, log: log.Named("strategy")}
}

// Generate asks the model for strategies and validates them. It never fails:
// any error yields the fallback strategies with Fallback set.
func (g *Generator) Generate(ctx context.Context, question string, uc types.UserContext) Outcome {
	strategies, err := g.fromModel(ctx, question, uc)
	if err != nil {
		g.log.Warn("using fallback strategies", zap.Error(err))
		return Outcome{Strategies: Fallback(question), Fallback: true, Reason: err}
	}
	return Outcome{Strategies: strategies}
}

func (g *Generator) fromModel(ctx context.Context, question string, uc types.UserContext) ([]types.QueryStrategy, error) {
	prompt, err := renderPrompt(question, uc)
	if err != nil {
		return nil, fmt.Errorf("rendering prompt: %w", err)
	}

	text, err := g.llm.Complete(ctx, llm.Request{
		Prompt:     prompt,
		Schema:     responseSchema,
		SchemaName: "query_strategies",
	})
	if err != nil {
		return nil, err
	}
	return parseStrategies(text, question)
}

func renderPrompt(question string, uc types.UserContext) (string, error) {
	areas := uc.ResearchAreas
	if len(areas) > 5 {
		areas = areas[:5]
	}
	var buf bytes.Buffer
	err := promptTmpl.Execute(&buf, promptData{Question: question, Context: uc, Areas: areas})
	return buf.String(), err
}

// parseStrategies decodes and validates model output. The model may answer
// with the requested object or with a bare array.
func parseStrategies(text, question string) ([]types.QueryStrategy, error) {
	items, err := llm.Decode[[]rawStrategy](text)
	if err != nil && !errors.Is(err, llm.ErrNoJSON) {
		var resp strategiesResponse
		resp, err = llm.Decode[strategiesResponse](text)
		items = resp.Strategies
	}
	if err != nil {
		return nil, err
	}

	strategies := make([]types.QueryStrategy, 0, len(items))
	for i, it := range items {
		s := types.QueryStrategy{
			Query:        strings.TrimSpace(it.Query),
			StrategyType: types.StrategyType(strings.ToLower(strings.TrimSpace(it.StrategyType))),
			Reasoning:    strings.TrimSpace(it.Reasoning),
		}
		if s.Query == "" || s.Reasoning == "" {
			return nil, fmt.Errorf("%w: strategy %d has an empty field", ErrInvalidStrategies, i)
		}
		if !s.StrategyType.Valid() {
			return nil, fmt.Errorf("%w: strategy %d has unknown type %q", ErrInvalidStrategies, i, it.StrategyType)
		}
		strategies = append(strategies, s)
	}
	if len(strategies) < MinStrategies {
		return nil, fmt.Errorf("%w: got %d, need at least %d", ErrInvalidStrategies, len(strategies), MinStrategies)
	}

	if !containsQuestion(strategies, question) {
		strategies = append([]types.QueryStrategy{Fallback(question)[0]}, strategies...)
	}
	if len(strategies) > MaxStrategies {
		strategies = strategies[:MaxStrategies]
	}
	return strategies, nil
}

func containsQuestion(strategies []types.QueryStrategy, question string) bool {
	q := strings.TrimSpace(question)
	for _, s := range strategies {
		if strings.EqualFold(s.Query, q) {
			return true
		}
	}
	return false
}
