// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm wraps the hosted completion API used by the strategy
// generator, the relevance ranker, and the literature reviewer. Any
// OpenAI-compatible chat completions endpoint works; the default is the Llama
// API compatibility endpoint.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
)

var (
	// ErrNotConfigured is returned by the disabled client when no API key is set.
	ErrNotConfigured = errors.New("llm: no API key configured")

	// ErrEmptyResponse is returned when the API answers without content.
	ErrEmptyResponse = errors.New("llm: empty response")

	// ErrNoJSON is returned by ExtractJSON when the text holds no JSON value.
	ErrNoJSON = errors.New("llm: no JSON in response")
)

// Request is a single chat completion.
type Request struct {
	System string
	Prompt string

	// MaxTokens overrides the client default when positive. Temperature
	// overrides it when non-nil, so zero can be requested.
	MaxTokens   int
	Temperature *float64

	// Schema, when set, asks the API for JSON conforming to it. Callers still
	// validate the result.
	Schema     *jsonschema.Schema
	SchemaName string
}

// Client produces completions.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, req Request) (string, error)

// Complete calls f.
func (f ClientFunc) Complete(ctx context.Context, req Request) (string, error) { return f(ctx, req) }

// Disabled is the client used when no API key is configured. Every call
// fails with ErrNotConfigured so callers take their fallback path.
type Disabled struct{}

// Complete always returns ErrNotConfigured.
func (Disabled) Complete(context.Context, Request) (string, error) { return "", ErrNotConfigured }

// Float returns a pointer to v, for Request.Temperature.
func Float(v float64) *float64 { return &v }

// SchemaFor infers a JSON schema from T. It panics if T cannot be
// described, so call it from package-level vars.
func SchemaFor[T any]() *jsonschema.Schema {
	s, err := jsonschema.For[T](nil)
	if err != nil {
		panic(fmt.Sprintf("llm: schema for %T: %v", *new(T), err))
	}
	return s
}

// ExtractJSON returns the outermost JSON object or array in text. Models
// often wrap JSON in markdown fences or add a sentence before it.
func ExtractJSON(text string) (string, error) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if i := strings.LastIndex(text, "```"); i >= 0 {
			text = text[:i]
		}
		text = strings.TrimSpace(text)
	}

	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return "", ErrNoJSON
	}
	closing := byte('}')
	if text[start] == '[' {
		closing = ']'
	}
	end := strings.LastIndexByte(text, closing)
	if end < start {
		return "", ErrNoJSON
	}
	return text[start : end+1], nil
}

// Decode extracts the JSON value from text and unmarshals it into T.
func Decode[T any](text string) (T, error) {
	var v T
	raw, err := ExtractJSON(text)
	if err != nil {
		return v, err
	}
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return v, fmt.Errorf("llm: decoding response: %w", err)
	}
	return v, nil
}
