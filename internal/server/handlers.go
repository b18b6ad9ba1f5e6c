// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pdiddy/research-discovery/internal/discovery"
	"github.com/pdiddy/research-discovery/internal/search"
	"github.com/pdiddy/research-discovery/internal/store"
	"github.com/pdiddy/research-discovery/internal/synthesis"
	"github.com/pdiddy/research-discovery/pkg/types"
)

// searchBody mirrors types.SearchRequest with pointers so omitted fields
// keep their defaults.
type searchBody struct {
	ResearchQuestion    string   `json:"research_question"`
	KnowledgeBaseID     string   `json:"knowledge_base_id"`
	MethodologyFocus    string   `json:"methodology_focus"`
	ExcludeTopics       []string `json:"exclude_topics"`
	IncludeFoundational *bool    `json:"include_foundational"`
	IncludeRecent       *bool    `json:"include_recent"`
	MaxPapers           *int     `json:"max_papers"`
	TimeRangeYears      int      `json:"time_range_years"`
}

func (b searchBody) request() types.SearchRequest {
	req := types.NewSearchRequest(b.ResearchQuestion)
	req.KnowledgeBaseID = b.KnowledgeBaseID
	req.MethodologyFocus = b.MethodologyFocus
	req.ExcludeTopics = b.ExcludeTopics
	req.TimeRangeYears = b.TimeRangeYears
	if b.IncludeFoundational != nil {
		req.IncludeFoundational = *b.IncludeFoundational
	}
	if b.IncludeRecent != nil {
		req.IncludeRecent = *b.IncludeRecent
	}
	if b.MaxPapers != nil {
		req.MaxPapers = *b.MaxPapers
	}
	return req
}

// historyEntry is one row of the search history listing.
type historyEntry struct {
	ID               string    `json:"id"`
	ResearchQuestion string    `json:"research_question"`
	KnowledgeBaseID  string    `json:"knowledge_base_id,omitempty"`
	TotalCandidates  int       `json:"total_candidates"`
	Returned         int       `json:"returned_papers"`
	ConfidenceScore  float64   `json:"confidence_score"`
	KeyThemes        []string  `json:"key_themes"`
	CreatedAt        time.Time `json:"created_at"`
}

type knowledgeBaseBody struct {
	PaperID string `json:"paper_id"`
}

type createKnowledgeBaseBody struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	PaperIDs    []string `json:"paper_ids"`
}

// connectionsBody mirrors types.ConnectionAnalysisRequest; both include
// flags default to true.
type connectionsBody struct {
	PaperIDs              []string `json:"paper_ids"`
	AnalysisTypes         []string `json:"analysis_types"`
	ConnectionDepth       string   `json:"connection_depth"`
	IncludeContradictions *bool    `json:"include_contradictions"`
	IncludeKnowledgeGaps  *bool    `json:"include_knowledge_gaps"`
}

func (b connectionsBody) request() types.ConnectionAnalysisRequest {
	req := types.ConnectionAnalysisRequest{
		PaperIDs:              b.PaperIDs,
		AnalysisTypes:         b.AnalysisTypes,
		ConnectionDepth:       b.ConnectionDepth,
		IncludeContradictions: true,
		IncludeKnowledgeGaps:  true,
	}
	if b.IncludeContradictions != nil {
		req.IncludeContradictions = *b.IncludeContradictions
	}
	if b.IncludeKnowledgeGaps != nil {
		req.IncludeKnowledgeGaps = *b.IncludeKnowledgeGaps
	}
	return req
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "research-discovery"})
}

func (s *Server) intelligentSearch(c *gin.Context) {
	var body searchBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	resp, err := s.deps.Searcher.Search(c.Request.Context(), c.GetString(userKey), body.request())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) literatureReview(c *gin.Context) {
	var body types.LiteratureReviewRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(body.ResearchFocus) == "" {
		badRequest(c, "research_focus is required")
		return
	}

	ctx := c.Request.Context()
	papers, err := s.reviewPapers(ctx, c.GetString(userKey), body)
	if err != nil {
		s.fail(c, err)
		return
	}

	review, err := s.deps.Reviewer.Review(ctx, papers, body.ResearchFocus, body.MaxPapers)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, review)
}

// reviewPapers resolves the papers of a review request: the listed ids,
// then the knowledge base, or the whole library when neither is given.
func (s *Server) reviewPapers(ctx context.Context, userID string, body types.LiteratureReviewRequest) ([]types.LibraryPaper, error) {
	if len(body.PaperIDs) == 0 && body.KnowledgeBaseID == "" {
		return s.deps.Library.Papers(ctx, userID, nil)
	}

	var papers []types.LibraryPaper
	if len(body.PaperIDs) > 0 {
		got, err := s.deps.Library.Papers(ctx, userID, body.PaperIDs)
		if err != nil {
			return nil, err
		}
		papers = append(papers, got...)
	}
	if body.KnowledgeBaseID != "" {
		got, err := s.deps.Library.KnowledgeBasePapers(ctx, userID, body.KnowledgeBaseID)
		if err != nil {
			return nil, err
		}
		papers = append(papers, got...)
	}

	seen := make(map[string]bool, len(papers))
	out := papers[:0]
	for _, p := range papers {
		if seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		out = append(out, p)
	}
	return out, nil
}

func (s *Server) searchHistory(c *gin.Context) {
	sessions, err := s.deps.Library.ListSessions(c.Request.Context(), c.GetString(userKey), queryInt(c, "limit", store.DefaultHistoryLimit))
	if err != nil {
		s.fail(c, err)
		return
	}

	history := make([]historyEntry, len(sessions))
	for i, ss := range sessions {
		history[i] = historyEntry{
			ID:               ss.ID,
			ResearchQuestion: ss.ResearchQuestion,
			KnowledgeBaseID:  ss.KnowledgeBaseID,
			TotalCandidates:  ss.TotalCandidates,
			Returned:         len(ss.Ranked),
			ConfidenceScore:  ss.ConfidenceScore,
			KeyThemes:        ss.Insights.KeyThemes,
			CreatedAt:        ss.CreatedAt,
		}
	}
	c.JSON(http.StatusOK, gin.H{"searches": history, "total": len(history)})
}

func (s *Server) discover(c *gin.Context) {
	q := c.Query("q")
	results, err := s.deps.Browser.Discover(c.Request.Context(), q,
		queryInt(c, "start", 0), queryInt(c, "limit", discovery.DefaultDiscoverLimit),
		c.DefaultQuery("sort", "relevance"), c.DefaultQuery("order", "desc"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"papers": results, "total": len(results), "query": q})
}

func (s *Server) trending(c *gin.Context) {
	results, err := s.deps.Browser.Trending(c.Request.Context(), queryInt(c, "limit", discovery.DefaultTrendingLimit))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"papers": results, "total": len(results)})
}

func (s *Server) recommended(c *gin.Context) {
	results, err := s.deps.Browser.Recommended(c.Request.Context(), queryInt(c, "limit", discovery.DefaultRecommendLimit))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"papers": results, "total": len(results)})
}

func (s *Server) category(c *gin.Context) {
	cat := c.Param("category")
	results, err := s.deps.Browser.Category(c.Request.Context(), cat, queryInt(c, "limit", discovery.DefaultCategoryLimit))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"papers": results, "total": len(results), "category": cat})
}

func (s *Server) latest(c *gin.Context) {
	cat := c.Param("category")
	results, err := s.deps.Browser.Latest(c.Request.Context(), cat, queryInt(c, "limit", discovery.DefaultCategoryLimit))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"papers": results, "total": len(results), "category": cat})
}

func (s *Server) savePaperByID(c *gin.Context) {
	ctx := c.Request.Context()
	r, err := s.deps.Browser.Lookup(ctx, c.Param("paper_id"))
	if err != nil {
		s.fail(c, err)
		return
	}

	paper, err := s.deps.Library.SavePaper(ctx, types.LibraryPaper{
		ID:       r.Identifier,
		UserID:   c.GetString(userKey),
		Title:    r.Title,
		Authors:  r.Authors,
		Abstract: r.Abstract,
		Year:     r.Year,
		Topics:   r.Topics,
		URL:      r.URL,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, paper)
}

func (s *Server) library(c *gin.Context) {
	papers, err := s.deps.Library.Papers(c.Request.Context(), c.GetString(userKey), nil)
	if err != nil {
		s.fail(c, err)
		return
	}
	if papers == nil {
		papers = []types.LibraryPaper{}
	}
	c.JSON(http.StatusOK, gin.H{"papers": papers, "total": len(papers)})
}

func (s *Server) addPaper(c *gin.Context) {
	var p types.LibraryPaper
	if err := c.ShouldBindJSON(&p); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(p.Title) == "" {
		badRequest(c, "title is required")
		return
	}
	p.UserID = c.GetString(userKey)
	p.CreatedAt = time.Time{}

	saved, err := s.deps.Library.SavePaper(c.Request.Context(), p)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, saved)
}

func (s *Server) addToKnowledgeBase(c *gin.Context) {
	var body knowledgeBaseBody
	if err := c.ShouldBindJSON(&body); err != nil || strings.TrimSpace(body.PaperID) == "" {
		badRequest(c, "paper_id is required")
		return
	}

	kbID := c.Param("kb_id")
	if err := s.deps.Library.AddToKnowledgeBase(c.Request.Context(), c.GetString(userKey), kbID, body.PaperID); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"knowledge_base_id": kbID, "paper_id": body.PaperID})
}

func (s *Server) deletePaper(c *gin.Context) {
	id := c.Param("paper_id")
	if err := s.deps.Library.DeletePaper(c.Request.Context(), c.GetString(userKey), id); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

func (s *Server) knowledgeBases(c *gin.Context) {
	kbs, err := s.deps.Library.KnowledgeBases(c.Request.Context(), c.GetString(userKey))
	if err != nil {
		s.fail(c, err)
		return
	}
	if kbs == nil {
		kbs = []types.KnowledgeBase{}
	}
	c.JSON(http.StatusOK, gin.H{"knowledge_bases": kbs, "total": len(kbs)})
}

func (s *Server) createKnowledgeBase(c *gin.Context) {
	var body createKnowledgeBaseBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(body.Name) == "" {
		badRequest(c, "name is required")
		return
	}

	kb, err := s.deps.Library.CreateKnowledgeBase(c.Request.Context(), types.KnowledgeBase{
		UserID:      c.GetString(userKey),
		Name:        body.Name,
		Description: body.Description,
		Tags:        body.Tags,
	}, body.PaperIDs)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, kb)
}

func (s *Server) knowledgeBase(c *gin.Context) {
	kb, err := s.deps.Library.KnowledgeBase(c.Request.Context(), c.GetString(userKey), c.Param("kb_id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, kb)
}

func (s *Server) deleteKnowledgeBase(c *gin.Context) {
	id := c.Param("kb_id")
	if err := s.deps.Library.DeleteKnowledgeBase(c.Request.Context(), c.GetString(userKey), id); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

func (s *Server) knowledgeBasePapers(c *gin.Context) {
	ctx := c.Request.Context()
	userID, kbID := c.GetString(userKey), c.Param("kb_id")
	if _, err := s.deps.Library.KnowledgeBase(ctx, userID, kbID); err != nil {
		s.fail(c, err)
		return
	}
	papers, err := s.deps.Library.KnowledgeBasePapers(ctx, userID, kbID)
	if err != nil {
		s.fail(c, err)
		return
	}
	if papers == nil {
		papers = []types.LibraryPaper{}
	}
	c.JSON(http.StatusOK, gin.H{"papers": papers, "total": len(papers)})
}

func (s *Server) analyzeConnections(c *gin.Context) {
	var body connectionsBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	if len(body.PaperIDs) == 0 {
		badRequest(c, "paper_ids is required")
		return
	}

	ctx := c.Request.Context()
	papers, err := s.deps.Library.Papers(ctx, c.GetString(userKey), body.PaperIDs)
	if err != nil {
		s.fail(c, err)
		return
	}
	if len(papers) == 0 {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"detail": "Papers not found"})
		return
	}

	analysis, err := s.deps.Analyzer.Analyze(ctx, papers, body.request())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, analysis)
}

// fail maps an error to a status. Input errors are 400, unknown ids 404,
// and timeouts 504; anything else is logged and reported as 500.
func (s *Server) fail(c *gin.Context, err error) {
	_ = c.Error(err)
	switch {
	case errors.Is(err, discovery.ErrInvalidRequest):
		badRequest(c, err.Error())
	case errors.Is(err, synthesis.ErrNoPapers):
		badRequest(c, "No papers found for review")
	case errors.Is(err, synthesis.ErrTooFewPapers):
		badRequest(c, "Need at least 2 papers for connection analysis")
	case errors.Is(err, store.ErrNotFound), errors.Is(err, search.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"detail": err.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		c.AbortWithStatusJSON(http.StatusGatewayTimeout, gin.H{"detail": "request timed out"})
	default:
		s.log.Error("handler failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": "internal error"})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": msg})
}

// queryInt reads an integer query parameter, returning def when it is
// absent or malformed.
func queryInt(c *gin.Context, name string, def int) int {
	v, ok := c.GetQuery(name)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return n
}
