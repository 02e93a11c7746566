package llm

import (
	"context"

	"github.com/klartext/klartext/internal/model"
)

// Provider defines the interface for LLM completion backends
type Provider interface {
	// Name returns the provider name
	Name() string

	// Model returns the model identifier used for completions
	Model() string

	// Complete generates a completion for the given system and user prompt
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// CompletionRequest contains the input for one LLM call
type CompletionRequest struct {
	// System carries identity, rules and few-shot examples
	System string

	// User carries the task instruction plus the chunk text
	User string

	// Model overrides the configured model (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// CompletionResponse contains the LLM's output
type CompletionResponse struct {
	// Text is the completion with surrounding whitespace trimmed
	Text string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// Config holds LLM provider configuration. It aliases the central config
// section so components can be constructed from either.
type Config = model.LLMConfig
