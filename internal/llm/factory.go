package llm

import (
	"fmt"
	"strings"

	"github.com/tokenlens/tokenlens/internal/resilience"
)

// NewProvider creates a provider based on configuration. An empty provider
// name disables the language model entirely (nil, nil) — every consumer
// must tolerate a nil provider and use its deterministic fallback.
func NewProvider(config Config) (Provider, error) {
	switch strings.ToLower(config.Provider) {
	case "openai":
		return NewOpenAIProvider(config)
	case "anthropic", "claude":
		return NewAnthropicProvider(config)
	case "ollama":
		return NewOllamaProvider(config)
	case "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, anthropic, ollama)", config.Provider)
	}
}

// wrapOverload tags a provider error as an explicit overload signal so the
// retry policy applies the conservative backoff schedule.
func wrapOverload(err error) error {
	return &resilience.OverloadError{Err: err}
}
