package model

import "time"

// Config is the complete TokenLens configuration.
// Loaded from ~/.tokenlens/config.yaml, TOKENLENS_* env vars, and CLI flags.
type Config struct {
	LLM        LLMConfig        `yaml:"llm"`
	Resilience ResilienceConfig `yaml:"resilience"`
	Cache      CacheConfig      `yaml:"cache"`
	Collection CollectionConfig `yaml:"collection"`
	Gates      GatesConfig      `yaml:"gates"`
	Batch      BatchConfig      `yaml:"batch"`
	HTTP       HTTPConfig       `yaml:"http"`
	Output     OutputConfig     `yaml:"output"`
}

// LLMConfig configures the language-model collaborator
type LLMConfig struct {
	Provider  string `yaml:"provider"` // openai, anthropic, ollama, "" (disabled)
	Model     string `yaml:"model"`
	APIKey    string `yaml:"-"` // env only, never persisted
	BaseURL   string `yaml:"base_url"`
	Timeout   int    `yaml:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens"`
}

// ResilienceConfig configures the circuit breaker, throttle, and retry
// policy applied to every outbound call.
type ResilienceConfig struct {
	FailureThreshold int           `yaml:"failure_threshold"`
	MonitoringWindow time.Duration `yaml:"monitoring_window"`
	RecoveryTimeout  time.Duration `yaml:"recovery_timeout"`

	MaxRequestsPerMinute  int           `yaml:"max_requests_per_minute"`
	MaxConcurrentRequests int           `yaml:"max_concurrent_requests"`
	MinRequestInterval    time.Duration `yaml:"min_request_interval"`
	AcquireTimeout        time.Duration `yaml:"acquire_timeout"`

	MaxRetries         int           `yaml:"max_retries"`
	BaseDelay          time.Duration `yaml:"base_delay"`
	MaxDelay           time.Duration `yaml:"max_delay"`
	BackoffMultiplier  float64       `yaml:"backoff_multiplier"`
	OverloadMultiplier float64       `yaml:"overload_multiplier"`
	OverloadMaxDelay   time.Duration `yaml:"overload_max_delay"`
}

// CacheConfig configures the confidence-weighted collection cache
type CacheConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Dir             string        `yaml:"dir"`
	MemoryTTL       time.Duration `yaml:"memory_ttl"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

// CollectionConfig configures the source collection scheduler
type CollectionConfig struct {
	SourceTimeout time.Duration `yaml:"source_timeout"`

	EarlyTerminationDataPoints int     `yaml:"early_termination_data_points"`
	EarlyTerminationConfidence float64 `yaml:"early_termination_confidence"`

	// MaxAdaptiveRounds bounds the collect -> adapt loop
	MaxAdaptiveRounds int `yaml:"max_adaptive_rounds"`
}

// GatesConfig carries the quality-gate thresholds. The defaults documented
// here are canonical; override only as a deliberate configuration choice.
type GatesConfig struct {
	MinScore            float64 `yaml:"min_score"`
	EstablishedMinScore float64 `yaml:"established_min_score"`
	MinDataPoints       int     `yaml:"min_data_points"`
	EstablishedMinData  int     `yaml:"established_min_data_points"`
	MinCommunitySize    int     `yaml:"min_community_size"`
}

// BatchConfig configures the batch coordinator
type BatchConfig struct {
	Concurrency int           `yaml:"concurrency"`
	WaveDelay   time.Duration `yaml:"wave_delay"`
	MaxRetries  int           `yaml:"max_retries"`
	MaxCost     float64       `yaml:"max_cost"` // 0 = unlimited
}

// HTTPConfig configures the built-in website collector
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout"`
	UserAgent    string        `yaml:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes"`
}

// OutputConfig configures rendering
type OutputConfig struct {
	Verbose bool   `yaml:"verbose"`
	JSON    string `yaml:"json"`
}

// DefaultConfig returns the canonical defaults
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:  "",
			Timeout:   30,
			MaxTokens: 1000,
		},
		Resilience: ResilienceConfig{
			FailureThreshold:      5,
			MonitoringWindow:      60 * time.Second,
			RecoveryTimeout:       30 * time.Second,
			MaxRequestsPerMinute:  30,
			MaxConcurrentRequests: 5,
			MinRequestInterval:    200 * time.Millisecond,
			AcquireTimeout:        90 * time.Second,
			MaxRetries:            3,
			BaseDelay:             500 * time.Millisecond,
			MaxDelay:              10 * time.Second,
			BackoffMultiplier:     2.0,
			OverloadMultiplier:    3.0,
			OverloadMaxDelay:      60 * time.Second,
		},
		Cache: CacheConfig{
			Enabled:         true,
			MemoryTTL:       30 * time.Minute,
			CleanupInterval: 10 * time.Minute,
		},
		Collection: CollectionConfig{
			SourceTimeout:              30 * time.Second,
			EarlyTerminationDataPoints: 20,
			EarlyTerminationConfidence: 0.7,
			MaxAdaptiveRounds:          2,
		},
		Gates: GatesConfig{
			MinScore:            60,
			EstablishedMinScore: 70,
			MinDataPoints:       15,
			EstablishedMinData:  25,
			MinCommunitySize:    100,
		},
		Batch: BatchConfig{
			Concurrency: 3,
			WaveDelay:   2 * time.Second,
			MaxRetries:  1,
		},
		HTTP: HTTPConfig{
			Timeout:      20 * time.Second,
			UserAgent:    "TokenLens/0.1 (+https://github.com/tokenlens/tokenlens)",
			MaxBodyBytes: 2_000_000,
		},
	}
}
