// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "research-discovery/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SearchConfig holds settings for the bibliographic search backends.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxResults is the maximum number of results a backend returns per query (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// EnableArxiv controls whether the arXiv backend is used.
	EnableArxiv bool `json:"enable_arxiv" yaml:"enable_arxiv"`

	// EnableSemanticScholar controls whether the Semantic Scholar backend is used.
	EnableSemanticScholar bool `json:"enable_semantic_scholar" yaml:"enable_semantic_scholar"`

	// EnableOpenAlex controls whether the OpenAlex backend is used.
	EnableOpenAlex bool `json:"enable_openalex" yaml:"enable_openalex"`

	// SemanticScholarAPIKey is an optional API key for higher rate limits.
	SemanticScholarAPIKey string `json:"semantic_scholar_api_key,omitempty" yaml:"semantic_scholar_api_key,omitempty"`

	// OpenAlexEmail is sent as the mailto parameter for polite pool access.
	OpenAlexEmail string `json:"openalex_email,omitempty" yaml:"openalex_email,omitempty"`

	// RateLimitDelay is how long the arXiv backend waits before its single
	// retry after an HTTP 429 (default 1s).
	RateLimitDelay time.Duration `json:"rate_limit_delay" yaml:"rate_limit_delay"`

	// InterBackendDelay is the delay between API calls to different backends
	// in plain multi-backend searches (default 0).
	InterBackendDelay time.Duration `json:"inter_backend_delay" yaml:"inter_backend_delay"`

	// RecencyBiasWindow is the time window for boosting recent papers (default 2 years).
	RecencyBiasWindow time.Duration `json:"recency_bias_window" yaml:"recency_bias_window"`
}

// AIConfig holds settings for the hosted LLM completion API. Any
// OpenAI-compatible endpoint works; the default targets the Llama API.
type AIConfig struct {
	// Model is the model identifier (e.g. "Llama-4-Maverick-17B-128E-Instruct-FP8").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key. An empty key disables LLM calls and
	// every component runs on its deterministic fallback.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// BaseURL is the API base URL (default "https://api.llama.com/compat/v1/").
	BaseURL string `json:"base_url" yaml:"base_url"`

	// MaxTokens is the default completion budget (default 1000).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`

	// Temperature is the default sampling temperature. Nil selects 0.7;
	// zero is a valid, deterministic setting.
	Temperature *float64 `json:"temperature,omitempty" yaml:"temperature,omitempty"`

	// Timeout bounds a single completion call (default 60s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// RequestsPerMinute throttles calls client-side. Zero disables throttling.
	RequestsPerMinute int `json:"requests_per_minute" yaml:"requests_per_minute"`
}

// DiscoveryConfig holds tuning for the discovery pipeline.
type DiscoveryConfig struct {
	// PerStrategyCap limits candidates contributed by one strategy (default 100).
	PerStrategyCap int `json:"per_strategy_cap" yaml:"per_strategy_cap"`

	// StrategyTimeout bounds each per-strategy fetch (default 30s).
	StrategyTimeout time.Duration `json:"strategy_timeout" yaml:"strategy_timeout"`

	// MaxAnalyzed is the number of candidates sent to the synthesizer (default 50).
	MaxAnalyzed int `json:"max_analyzed" yaml:"max_analyzed"`

	// SessionCandidateCap limits candidates stored per session (default 100).
	SessionCandidateCap int `json:"session_candidate_cap" yaml:"session_candidate_cap"`

	// DefaultMaxPapers applies when a request omits max_papers (default 20).
	DefaultMaxPapers int `json:"default_max_papers" yaml:"default_max_papers"`

	// PersistTimeout bounds the best-effort session write (default 5s).
	PersistTimeout time.Duration `json:"persist_timeout" yaml:"persist_timeout"`
}

// StoreConfig holds settings for the SQLite store.
type StoreConfig struct {
	// DataDir contains discovery.db.
	DataDir string `json:"data_dir" yaml:"data_dir"`
}

// ServerConfig holds settings for the HTTP API.
type ServerConfig struct {
	// Addr is the listen address (default ":8080").
	Addr string `json:"addr" yaml:"addr"`

	// Mode is the gin mode: debug, release, or test (default release).
	Mode string `json:"mode" yaml:"mode"`

	// RequestTimeout bounds every request, including the discovery pipeline (default 120s).
	RequestTimeout time.Duration `json:"request_timeout" yaml:"request_timeout"`

	// ShutdownTimeout bounds graceful shutdown (default 10s).
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error (default info).
	Level string `json:"level" yaml:"level"`

	// Development switches to the human-readable console encoder.
	Development bool `json:"development" yaml:"development"`
}

// Config groups all component configurations.
type Config struct {
	Search    SearchConfig    `json:"search" yaml:"search"`
	AI        AIConfig        `json:"ai" yaml:"ai"`
	Discovery DiscoveryConfig `json:"discovery" yaml:"discovery"`
	Store     StoreConfig     `json:"store" yaml:"store"`
	Server    ServerConfig    `json:"server" yaml:"server"`
	Log       LogConfig       `json:"log" yaml:"log"`
}
