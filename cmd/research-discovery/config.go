// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/research-discovery/internal/llm"
	"github.com/pdiddy/research-discovery/internal/secrets"
	"github.com/pdiddy/research-discovery/pkg/types"
)

func setDefaults() {
	viper.SetDefault("search.timeout", 30*time.Second)
	viper.SetDefault("search.user_agent", "research-discovery/"+version)
	viper.SetDefault("search.max_results", 20)
	viper.SetDefault("search.enable_arxiv", true)
	viper.SetDefault("search.enable_semantic_scholar", false)
	viper.SetDefault("search.enable_openalex", false)
	viper.SetDefault("search.rate_limit_delay", time.Second)
	viper.SetDefault("search.recency_bias_window", 2*365*24*time.Hour)

	viper.SetDefault("ai.model", llm.DefaultModel)
	viper.SetDefault("ai.base_url", llm.DefaultBaseURL)
	viper.SetDefault("ai.max_tokens", 1000)
	viper.SetDefault("ai.temperature", 0.7)
	viper.SetDefault("ai.timeout", 60*time.Second)
	viper.SetDefault("ai.requests_per_minute", 0)

	viper.SetDefault("discovery.per_strategy_cap", 100)
	viper.SetDefault("discovery.strategy_timeout", 30*time.Second)
	viper.SetDefault("discovery.max_analyzed", 50)
	viper.SetDefault("discovery.session_candidate_cap", 100)
	viper.SetDefault("discovery.default_max_papers", 20)
	viper.SetDefault("discovery.persist_timeout", 5*time.Second)

	viper.SetDefault("store.data_dir", "data")

	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("server.mode", "release")
	viper.SetDefault("server.request_timeout", 120*time.Second)
	viper.SetDefault("server.shutdown_timeout", 10*time.Second)

	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.development", false)
}

func logConfig() types.LogConfig {
	return types.LogConfig{
		Level:       viper.GetString("log.level"),
		Development: viper.GetBool("log.development"),
	}
}

// loadConfig assembles the configuration from defaults, the config file,
// RESEARCH_DISCOVERY_* environment variables, bound flags, and finally the
// secrets directory for credentials left empty.
func loadConfig() types.Config {
	cfg := types.Config{
		Search: types.SearchConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("search.timeout"),
				UserAgent: viper.GetString("search.user_agent"),
			},
			MaxResults:            viper.GetInt("search.max_results"),
			EnableArxiv:           viper.GetBool("search.enable_arxiv"),
			EnableSemanticScholar: viper.GetBool("search.enable_semantic_scholar"),
			EnableOpenAlex:        viper.GetBool("search.enable_openalex"),
			SemanticScholarAPIKey: viper.GetString("search.semantic_scholar_api_key"),
			OpenAlexEmail:         viper.GetString("search.openalex_email"),
			RateLimitDelay:        viper.GetDuration("search.rate_limit_delay"),
			InterBackendDelay:     viper.GetDuration("search.inter_backend_delay"),
			RecencyBiasWindow:     viper.GetDuration("search.recency_bias_window"),
		},
		AI: types.AIConfig{
			Model:             viper.GetString("ai.model"),
			APIKey:            viper.GetString("ai.api_key"),
			BaseURL:           viper.GetString("ai.base_url"),
			MaxTokens:         viper.GetInt("ai.max_tokens"),
			Temperature:       llm.Float(viper.GetFloat64("ai.temperature")),
			Timeout:           viper.GetDuration("ai.timeout"),
			RequestsPerMinute: viper.GetInt("ai.requests_per_minute"),
		},
		Discovery: types.DiscoveryConfig{
			PerStrategyCap:      viper.GetInt("discovery.per_strategy_cap"),
			StrategyTimeout:     viper.GetDuration("discovery.strategy_timeout"),
			MaxAnalyzed:         viper.GetInt("discovery.max_analyzed"),
			SessionCandidateCap: viper.GetInt("discovery.session_candidate_cap"),
			DefaultMaxPapers:    viper.GetInt("discovery.default_max_papers"),
			PersistTimeout:      viper.GetDuration("discovery.persist_timeout"),
		},
		Store: types.StoreConfig{
			DataDir: viper.GetString("store.data_dir"),
		},
		Server: types.ServerConfig{
			Addr:            viper.GetString("server.addr"),
			Mode:            viper.GetString("server.mode"),
			RequestTimeout:  viper.GetDuration("server.request_timeout"),
			ShutdownTimeout: viper.GetDuration("server.shutdown_timeout"),
		},
		Log: logConfig(),
	}
	secrets.Apply(&cfg, loadedSecrets)
	return cfg
}
