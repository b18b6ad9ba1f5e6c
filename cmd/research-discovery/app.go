// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"net/http"

	"github.com/pdiddy/research-discovery/internal/discovery"
	"github.com/pdiddy/research-discovery/internal/llm"
	"github.com/pdiddy/research-discovery/internal/search"
	"github.com/pdiddy/research-discovery/internal/store"
	"github.com/pdiddy/research-discovery/internal/strategy"
	"github.com/pdiddy/research-discovery/internal/synthesis"
	"github.com/pdiddy/research-discovery/pkg/types"
)

// app holds the wired components shared by the subcommands.
type app struct {
	cfg      types.Config
	store    *store.Store
	service  *discovery.Service
	explorer *discovery.Explorer
	reviewer *synthesis.Reviewer
	analyzer *synthesis.Analyzer
}

func newApp() (*app, error) {
	cfg := loadConfig()

	st, err := store.Open(cfg.Store.DataDir)
	if err != nil {
		return nil, err
	}

	client := llm.New(cfg.AI, logger)
	if _, ok := client.(llm.Disabled); ok {
		logger.Warn("no LLM API key configured; strategies, ranking, and reviews use fallbacks")
	}

	httpClient := &http.Client{Timeout: cfg.Search.Timeout}
	arxiv := &search.ArxivBackend{Client: httpClient}

	svc := discovery.NewService(discovery.Deps{
		Strategies: strategy.NewGenerator(client, logger),
		Fetcher:    discovery.NewFetcher(backends(cfg.Search, httpClient, arxiv), cfg.Search, cfg.Discovery, logger),
		Ranker:     synthesis.NewRanker(client, logger),
		Contexts:   st,
		Sessions:   st,
	}, cfg.Discovery, logger)

	return &app{
		cfg:      cfg,
		store:    st,
		service:  svc,
		explorer: discovery.NewExplorer(arxiv, &search.ListingSource{Client: httpClient}, cfg.Search, logger),
		reviewer: synthesis.NewReviewer(client, logger),
		analyzer: synthesis.NewAnalyzer(client, logger),
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

// backends returns the enabled search backends in a fixed order. arXiv is
// always present because the browse endpoints depend on it.
func backends(cfg types.SearchConfig, client *http.Client, arxiv *search.ArxivBackend) []search.Backend {
	var out []search.Backend
	if cfg.EnableArxiv {
		out = append(out, arxiv)
	}
	if cfg.EnableSemanticScholar {
		out = append(out, &search.SemanticScholarBackend{Client: client, APIKey: cfg.SemanticScholarAPIKey})
	}
	if cfg.EnableOpenAlex {
		out = append(out, &search.OpenAlexBackend{Client: client, Email: cfg.OpenAlexEmail})
	}
	if len(out) == 0 {
		logger.Warn("all search backends disabled; falling back to arXiv")
		out = append(out, arxiv)
	}
	return out
}
