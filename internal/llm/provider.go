// Package llm contains implementations of different LLM service providers
// used for generating grounded answers from retrieved context.
package llm

import (
	"context"
	"time"
)

const (
	// Provider constants
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGoogle    = "google"
	ProviderXAI       = "xai"

	// Default settings
	DefaultTimeout   = 60 * time.Second
	DefaultMaxTokens = 1024
)

// AnswerProvider defines the interface for LLM service providers.
type AnswerProvider interface {
	// Answer generates a completion for the given system prompt and user prompt.
	Answer(ctx context.Context, system, prompt string) (string, error)

	// Name returns the provider name.
	Name() string
}

// Config holds common configuration for LLM providers.
type Config struct {
	APIKey  string
	ModelID string

	// BaseURL overrides the provider's default API endpoint. Used for
	// OpenAI-compatible gateways and for tests.
	BaseURL string
}
