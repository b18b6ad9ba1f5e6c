// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discovery

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdiddy/research-discovery/internal/strategy"
	"github.com/pdiddy/research-discovery/internal/synthesis"
	"github.com/pdiddy/research-discovery/pkg/types"
)

// Service defaults.
const (
	DefaultSessionCandidateCap = 100
	DefaultPersistTimeout      = 5 * time.Second
)

// ErrInvalidRequest is returned for an empty question or a non-positive
// max_papers.
var ErrInvalidRequest = errors.New("invalid search request")

// ContextSource summarizes a user's library for strategy generation.
type ContextSource interface {
	ResearchContext(ctx context.Context, userID, knowledgeBaseID string) (types.UserContext, error)
}

// SessionRecorder persists completed search sessions.
type SessionRecorder interface {
	RecordSession(ctx context.Context, session types.SearchSession) error
}

// Deps are the collaborators of a Service. Contexts and Sessions are
// optional.
type Deps struct {
	Strategies *strategy.Generator
	Fetcher    *Fetcher
	Ranker     *synthesis.Ranker
	Contexts   ContextSource
	Sessions   SessionRecorder
}

// Service runs discovery searches.
type Service struct {
	deps Deps
	cfg  types.DiscoveryConfig
	log  *zap.Logger

	now   func() time.Time
	newID func() string
}

// NewService returns a Service. Zero config fields take their defaults.
func NewService(deps Deps, cfg types.DiscoveryConfig, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.SessionCandidateCap <= 0 {
		cfg.SessionCandidateCap = DefaultSessionCandidateCap
	}
	if cfg.PersistTimeout <= 0 {
		cfg.PersistTimeout = DefaultPersistTimeout
	}
	if cfg.MaxAnalyzed <= 0 {
		cfg.MaxAnalyzed = synthesis.DefaultMaxDocuments
	}
	return &Service{
		deps:  deps,
		cfg:   cfg,
		log:   log.Named("discovery"),
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Search runs the pipeline for one request. Upstream and model failures
// degrade the response instead of failing it; the returned error is either
// ErrInvalidRequest or the context's.
func (s *Service) Search(ctx context.Context, userID string, req types.SearchRequest) (types.SearchResponse, error) {
	question := strings.TrimSpace(req.ResearchQuestion)
	if question == "" {
		return types.SearchResponse{}, fmt.Errorf("%w: research question is empty", ErrInvalidRequest)
	}
	if req.MaxPapers <= 0 {
		return types.SearchResponse{}, fmt.Errorf("%w: max_papers must be positive, got %d", ErrInvalidRequest, req.MaxPapers)
	}
	start := s.now()

	uc := s.userContext(ctx, userID, req)
	outcome := s.deps.Strategies.Generate(ctx, question, uc)

	var dateFrom time.Time
	if req.TimeRangeYears > 0 {
		dateFrom = start.AddDate(-req.TimeRangeYears, 0, 0)
	}
	candidates, stats, err := s.deps.Fetcher.Fetch(ctx, outcome.Strategies, dateFrom)
	if err != nil {
		return types.SearchResponse{}, fmt.Errorf("fetching candidates: %w", err)
	}

	ranking := s.deps.Ranker.Rank(ctx, candidates, synthesis.RankOptions{
		Question:            question,
		IncludeFoundational: req.IncludeFoundational,
		IncludeRecent:       req.IncludeRecent,
		MethodologyFocus:    req.MethodologyFocus,
		ExcludeTopics:       req.ExcludeTopics,
		MaxAnalyzed:         s.cfg.MaxAnalyzed,
	})
	if err := ctx.Err(); err != nil {
		return types.SearchResponse{}, err
	}

	papers := ranking.Papers
	if len(papers) > req.MaxPapers {
		papers = papers[:req.MaxPapers]
	}
	insights := ranking.Insights

	resp := types.SearchResponse{
		Papers:               papers,
		TotalCandidates:      len(candidates),
		QueryStrategies:      outcome.Strategies,
		ResearchInsights:     insights,
		ProcessingTime:       s.now().Sub(start).Seconds(),
		ConfidenceScore:      insights.ConfidenceScore,
		SuggestedRefinements: insights.SuggestedRefinements,
		RelatedResearchAreas: insights.RelatedAreas,
	}

	s.log.Info("search complete",
		zap.String("user", userID),
		zap.Int("strategies", len(outcome.Strategies)),
		zap.Bool("fallback_strategies", outcome.Fallback),
		zap.Int("fetch_failures", len(stats.Failures)),
		zap.Int("candidates", len(candidates)),
		zap.Bool("degraded_ranking", ranking.Degraded),
		zap.Float64("seconds", resp.ProcessingTime))

	stored := candidates
	if len(stored) > s.cfg.SessionCandidateCap {
		stored = stored[:s.cfg.SessionCandidateCap]
	}
	s.persist(ctx, types.SearchSession{
		ID:               s.newID(),
		UserID:           userID,
		ResearchQuestion: question,
		KnowledgeBaseID:  req.KnowledgeBaseID,
		QueryStrategies:  outcome.Strategies,
		Candidates:       stored,
		Ranked:           papers,
		Insights:         insights,
		TotalCandidates:  len(candidates),
		MaxPapers:        req.MaxPapers,
		ConfidenceScore:  insights.ConfidenceScore,
		CreatedAt:        start.UTC(),
	})
	return resp, nil
}

// userContext never fails; a lookup error yields the empty context.
func (s *Service) userContext(ctx context.Context, userID string, req types.SearchRequest) types.UserContext {
	var uc types.UserContext
	if s.deps.Contexts != nil {
		got, err := s.deps.Contexts.ResearchContext(ctx, userID, req.KnowledgeBaseID)
		if err != nil {
			s.log.Warn("user context unavailable", zap.String("user", userID), zap.Error(err))
		} else {
			uc = got
		}
	}
	uc.Methodologies = splitFocus(req.MethodologyFocus)
	return uc
}

func splitFocus(focus string) []string {
	var out []string
	for _, part := range strings.Split(focus, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// persist writes the session without failing the request. A request that
// is already cancelled records nothing.
func (s *Service) persist(ctx context.Context, session types.SearchSession) {
	if s.deps.Sessions == nil || ctx.Err() != nil {
		return
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.PersistTimeout)
	defer cancel()
	if err := s.deps.Sessions.RecordSession(pctx, session); err != nil {
		s.log.Error("recording search session", zap.String("session", session.ID), zap.Error(err))
	}
}
