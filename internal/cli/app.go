package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/tokenlens/tokenlens/internal/cache"
	"github.com/tokenlens/tokenlens/internal/llm"
	"github.com/tokenlens/tokenlens/internal/model"
	"github.com/tokenlens/tokenlens/internal/research"
	"github.com/tokenlens/tokenlens/internal/resilience"
	"github.com/tokenlens/tokenlens/internal/source"
)

// loadConfig layers the config file (when present) over the defaults.
// Flags are applied by each command afterwards.
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()

	path := viper.ConfigFileUsed()
	if path == "" {
		if home, err := os.UserHomeDir(); err == nil {
			candidate := filepath.Join(home, ".tokenlens", "config.yaml")
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
			}
		}
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.Output.Verbose = verbose
	return cfg, nil
}

// buildProvider resolves the language-model provider, pulling API keys from
// the environment. An empty provider name disables the model path.
func buildProvider(cfg *model.Config) (llm.Provider, error) {
	switch cfg.LLM.Provider {
	case "":
		return nil, nil
	case "openai":
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		if cfg.LLM.APIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	case "anthropic", "claude":
		cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		if cfg.LLM.APIKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
		}
	case "ollama":
		if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
			cfg.LLM.BaseURL = baseURL
		}
	}
	return llm.NewProvider(llm.ConfigFromModel(cfg.LLM))
}

// buildResearcher wires the shared collaborators into a researcher
func buildResearcher(cfg *model.Config) (*research.Researcher, error) {
	provider, err := buildProvider(cfg)
	if err != nil {
		return nil, err
	}

	exec := resilience.NewExecutor(cfg.Resilience)

	registry := source.NewRegistry()
	registry.Register(source.NewWebsiteCollector(cfg.HTTP))

	var cc *cache.ConfidenceCache
	if cfg.Cache.Enabled {
		var store cache.Store
		if cfg.Cache.Dir != "" {
			store = cache.NewLayeredStore(cfg.Cache.MemoryTTL, cfg.Cache.CleanupInterval, cfg.Cache.Dir, cfg.Cache.MemoryTTL)
		} else {
			store = cache.NewMemoryStore(cfg.Cache.MemoryTTL, cfg.Cache.CleanupInterval)
		}
		cc = cache.NewConfidenceCache(store)
	}

	return research.New(cfg, provider, exec, registry, cc), nil
}
