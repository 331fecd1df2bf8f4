package llm

import (
	"context"

	"github.com/tokenlens/tokenlens/internal/model"
)

// Provider is the language-model completion collaborator. The core only
// ever sends a prompt and defensively parses JSON out of the reply.
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete sends a prompt and returns the raw completion text
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// IsAvailable checks if the provider is configured and reachable
	IsAvailable(ctx context.Context) bool
}

// CompletionRequest is the input for one completion call
type CompletionRequest struct {
	System      string
	Prompt      string
	Model       string // overrides the configured default when set
	MaxTokens   int
	Temperature float64
}

// CompletionResponse is the raw completion output
type CompletionResponse struct {
	Text       string
	Model      string
	TokensUsed int
}

// Config holds provider configuration
type Config struct {
	Provider  string // "openai", "anthropic", "ollama", ""
	Model     string
	APIKey    string
	BaseURL   string
	Timeout   int // seconds
	MaxTokens int
}

// DefaultConfig returns sensible defaults (provider disabled)
func DefaultConfig() Config {
	return Config{
		Timeout:   30,
		MaxTokens: 1000,
	}
}

// ConfigFromModel converts the application config section
func ConfigFromModel(mc model.LLMConfig) Config {
	return Config{
		Provider:  mc.Provider,
		Model:     mc.Model,
		APIKey:    mc.APIKey,
		BaseURL:   mc.BaseURL,
		Timeout:   mc.Timeout,
		MaxTokens: mc.MaxTokens,
	}
}
