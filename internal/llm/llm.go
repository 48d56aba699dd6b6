// Package llm wraps the generative text providers behind a single
// prompt-in, text-out interface.
package llm

import (
	"context"
	"errors"
)

var (
	// ErrMissingAPIKey is returned when a provider is used without credentials.
	ErrMissingAPIKey = errors.New("API key required")
	// ErrEmptyResponse is returned when the provider produced no text.
	ErrEmptyResponse = errors.New("empty response from model")
)

// Provider names a generative API backend.
type Provider string

const (
	// ProviderGemini uses the Google Gemini API.
	ProviderGemini Provider = "gemini"
	// ProviderAnthropic uses the Anthropic Messages API.
	ProviderAnthropic Provider = "anthropic"
	// ProviderOpenAI uses the OpenAI Responses API.
	ProviderOpenAI Provider = "openai"
)

// DefaultModel returns the model used when none is configured.
func DefaultModel(p Provider) string {
	switch p {
	case ProviderAnthropic:
		return "claude-sonnet-4-5-20250929"
	case ProviderOpenAI:
		return "gpt-4.1-mini"
	default:
		return "gemini-2.5-flash"
	}
}

// Request is a single generation call.
type Request struct {
	// System carries the role instruction ("You are the Captain...").
	System string
	// Prompt is the user turn.
	Prompt string
	// Temperature is passed through as-is; zero means provider default.
	Temperature float64
	// MaxTokens caps the output; zero means DefaultMaxTokens.
	MaxTokens int64

	// Schema, when set, asks the provider for JSON matching it.
	Schema map[string]any
	// SchemaName labels the schema for providers that need a name.
	SchemaName string
}

// DefaultMaxTokens is the output cap used when a request sets none.
const DefaultMaxTokens int64 = 4096

func (r Request) maxTokens() int64 {
	if r.MaxTokens > 0 {
		return r.MaxTokens
	}

	return DefaultMaxTokens
}

func (r Request) schemaName() string {
	if r.SchemaName != "" {
		return r.SchemaName
	}

	return "response"
}

// Generator sends a prompt to a model and returns its text.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, req Request) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}
