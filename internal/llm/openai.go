// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pdiddy/research-discovery/pkg/types"
)

// Defaults applied when AIConfig leaves a field zero.
const (
	DefaultBaseURL     = "https://api.llama.com/compat/v1/"
	DefaultModel       = "Llama-4-Maverick-17B-128E-Instruct-FP8"
	DefaultMaxTokens   = 1000
	DefaultTemperature = 0.7
	DefaultTimeout     = 60 * time.Second
)

// OpenAIClient calls a chat completions endpoint through openai-go. Calls
// share one client-side rate limiter.
type OpenAIClient struct {
	client      openai.Client
	model       string
	maxTokens   int
	temperature float64
	timeout     time.Duration
	limiter     *rate.Limiter
	log         *zap.Logger
}

// New returns an OpenAIClient for cfg, or Disabled when cfg has no API key.
func New(cfg types.AIConfig, log *zap.Logger, opts ...option.RequestOption) Client {
	if cfg.APIKey == "" {
		return Disabled{}
	}
	return NewOpenAI(cfg, log, opts...)
}

// NewOpenAI builds the client. Extra options are appended after the ones
// derived from cfg, so tests can swap the HTTP client or disable retries.
func NewOpenAI(cfg types.AIConfig, log *zap.Logger, opts ...option.RequestOption) *OpenAIClient {
	if log == nil {
		log = zap.NewNop()
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	c := &OpenAIClient{
		model:       orString(cfg.Model, DefaultModel),
		maxTokens:   cfg.MaxTokens,
		temperature: DefaultTemperature,
		timeout:     cfg.Timeout,
		limiter:     rate.NewLimiter(rate.Inf, 0),
		log:         log.Named("llm"),
	}
	if c.maxTokens <= 0 {
		c.maxTokens = DefaultMaxTokens
	}
	if cfg.Temperature != nil {
		c.temperature = *cfg.Temperature
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if cfg.RequestsPerMinute > 0 {
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1)
	}

	all := append([]option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(baseURL),
	}, opts...)
	c.client = openai.NewClient(all...)
	return c
}

// Complete sends one chat completion and returns the assistant text.
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("llm: rate limiter: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.maxTokens
	}
	temperature := c.temperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}

	var messages []openai.ChatCompletionMessageParamUnion
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	params := openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(c.model),
		Messages:    messages,
		MaxTokens:   openai.Int(int64(maxTokens)),
		Temperature: openai.Float(temperature),
	}
	if req.Schema != nil {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
				JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   orString(req.SchemaName, "response"),
					Schema: req.Schema,
				},
			},
		}
	}

	start := time.Now()
	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("llm: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", ErrEmptyResponse
	}

	c.log.Debug("completion",
		zap.String("model", c.model),
		zap.String("schema", req.SchemaName),
		zap.Int64("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int64("completion_tokens", resp.Usage.CompletionTokens),
		zap.Duration("elapsed", time.Since(start)))
	return resp.Choices[0].Message.Content, nil
}

func orString(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
