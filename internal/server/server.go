// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes discovery, browsing, reviews, and the user
// library over HTTP with gin.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pdiddy/research-discovery/pkg/types"
)

// Server defaults.
const (
	DefaultAddr            = ":8080"
	DefaultRequestTimeout  = 120 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
)

// Searcher runs the discovery pipeline.
type Searcher interface {
	Search(ctx context.Context, userID string, req types.SearchRequest) (types.SearchResponse, error)
}

// Browser answers plain arXiv browse requests.
type Browser interface {
	Discover(ctx context.Context, q string, start, limit int, sortName, order string) ([]types.SearchResult, error)
	Trending(ctx context.Context, limit int) ([]types.SearchResult, error)
	Recommended(ctx context.Context, limit int) ([]types.SearchResult, error)
	Category(ctx context.Context, category string, limit int) ([]types.SearchResult, error)
	Latest(ctx context.Context, category string, limit int) ([]types.SearchResult, error)
	Lookup(ctx context.Context, id string) (types.SearchResult, error)
}

// Reviewer writes literature reviews.
type Reviewer interface {
	Review(ctx context.Context, papers []types.LibraryPaper, focus string, maxPapers int) (types.LiteratureReview, error)
}

// Analyzer relates library papers to each other.
type Analyzer interface {
	Analyze(ctx context.Context, papers []types.LibraryPaper, req types.ConnectionAnalysisRequest) (types.ConnectionAnalysis, error)
}

// Library is the user-scoped persistence the handlers need.
type Library interface {
	ListSessions(ctx context.Context, userID string, limit int) ([]types.SearchSession, error)
	SavePaper(ctx context.Context, p types.LibraryPaper) (types.LibraryPaper, error)
	Papers(ctx context.Context, userID string, ids []string) ([]types.LibraryPaper, error)
	DeletePaper(ctx context.Context, userID, paperID string) error
	CreateKnowledgeBase(ctx context.Context, kb types.KnowledgeBase, paperIDs []string) (types.KnowledgeBase, error)
	KnowledgeBases(ctx context.Context, userID string) ([]types.KnowledgeBase, error)
	KnowledgeBase(ctx context.Context, userID, kbID string) (types.KnowledgeBase, error)
	DeleteKnowledgeBase(ctx context.Context, userID, kbID string) error
	AddToKnowledgeBase(ctx context.Context, userID, kbID, paperID string) error
	KnowledgeBasePapers(ctx context.Context, userID, kbID string) ([]types.LibraryPaper, error)
}

// Deps are the collaborators behind the routes.
type Deps struct {
	Searcher Searcher
	Browser  Browser
	Reviewer Reviewer
	Analyzer Analyzer
	Library  Library
}

// Server is the HTTP API.
type Server struct {
	deps   Deps
	cfg    types.ServerConfig
	log    *zap.Logger
	engine *gin.Engine
	http   *http.Server
}

// New builds the router. Zero config fields take their defaults.
func New(cfg types.ServerConfig, deps Deps, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Mode == "" {
		cfg.Mode = gin.ReleaseMode
	}
	gin.SetMode(cfg.Mode)

	s := &Server{deps: deps, cfg: cfg, log: log.Named("http")}
	s.engine = gin.New()
	s.engine.Use(gin.Recovery(), requestLogger(s.log), requestTimeout(cfg.RequestTimeout))
	s.routes()

	s.http = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	r := s.engine
	r.GET("/health", s.health)

	discover := r.Group("/api/discover")
	discover.GET("", s.discover)
	discover.GET("/trending", s.trending)
	discover.GET("/recommended", s.recommended)
	discover.GET("/category/:category", s.category)
	discover.GET("/new/:category", s.latest)
	discover.POST("/save/:paper_id", requireUser(), s.savePaperByID)

	api := r.Group("/api", requireUser())
	api.POST("/intelligent/search", s.intelligentSearch)
	api.POST("/intelligent/literature-review", s.literatureReview)
	api.GET("/intelligent/search-history", s.searchHistory)
	api.GET("/library", s.library)
	api.POST("/library/papers", s.addPaper)
	api.DELETE("/library/:paper_id", s.deletePaper)
	api.GET("/knowledge-bases", s.knowledgeBases)
	api.POST("/knowledge-bases", s.createKnowledgeBase)
	api.GET("/knowledge-bases/:kb_id", s.knowledgeBase)
	api.DELETE("/knowledge-bases/:kb_id", s.deleteKnowledgeBase)
	api.GET("/knowledge-bases/:kb_id/papers", s.knowledgeBasePapers)
	api.POST("/knowledge-bases/:kb_id/papers", s.addToKnowledgeBase)
	api.POST("/knowledge-canvas/analyze-connections", s.analyzeConnections)
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start serves until Shutdown is called. It returns nil after a clean
// shutdown.
func (s *Server) Start() error {
	s.log.Info("listening", zap.String("addr", s.cfg.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests,
// bounded by the configured shutdown timeout and ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
	defer cancel()
	return s.http.Shutdown(ctx)
}
