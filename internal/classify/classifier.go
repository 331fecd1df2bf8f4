package classify

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/tokenlens/tokenlens/internal/llm"
	"github.com/tokenlens/tokenlens/internal/model"
	"github.com/tokenlens/tokenlens/internal/resilience"
)

// llmTarget is the resilience target shared by all classifier model calls
const llmTarget = "llm"

// knownSimple lists entities every market participant recognizes; they take
// the fast path with high confidence and never touch the language model.
var knownSimple = map[string]bool{
	"bitcoin":       true,
	"btc":           true,
	"ethereum":      true,
	"eth":           true,
	"solana":        true,
	"cardano":       true,
	"dogecoin":      true,
	"litecoin":      true,
	"polygon":       true,
	"polkadot":      true,
	"binance coin":  true,
	"chainlink":     true,
	"axie infinity": true,
	"decentraland":  true,
	"the sandbox":   true,
}

// knownComplex lists entities that look simple but need full orchestration:
// ambiguous names, rebrands, and frequently-impersonated projects.
var knownComplex = map[string]bool{
	"sandbox":  true,
	"gala":     true,
	"magic":    true,
	"ape":      true,
	"pixels":   true,
	"portal":   true,
	"big time": true,
	"illuvium": true,
}

// Classifier maps an entity name to a routing decision. Classification is
// assumed query-invariant, so results are cached for the process lifetime —
// including fallback results, so a broken model isn't re-consulted per call.
type Classifier struct {
	provider llm.Provider // nil disables the model path
	exec     *resilience.Executor

	mu    sync.Mutex
	cache map[string]model.QueryClassification
}

// NewClassifier creates a classifier. provider may be nil.
func NewClassifier(provider llm.Provider, exec *resilience.Executor) *Classifier {
	return &Classifier{
		provider: provider,
		exec:     exec,
		cache:    make(map[string]model.QueryClassification),
	}
}

// Classify routes a (name, symbol) pair. It never fails: any model problem
// degrades to the deterministic fallback classification.
func (c *Classifier) Classify(ctx context.Context, name, symbol, address string) model.QueryClassification {
	key := cacheKey(name, symbol)

	c.mu.Lock()
	if cached, ok := c.cache[key]; ok {
		c.mu.Unlock()
		return cached
	}
	c.mu.Unlock()

	result := c.classify(ctx, name, symbol, address)

	c.mu.Lock()
	c.cache[key] = result
	c.mu.Unlock()

	return result
}

func (c *Classifier) classify(ctx context.Context, name, symbol, address string) model.QueryClassification {
	normalized := normalize(name)

	if knownSimple[normalized] || (symbol != "" && knownSimple[normalize(symbol)]) {
		return model.QueryClassification{
			Complexity:          model.ComplexitySimple,
			ProjectType:         model.ProjectTypeEstablished,
			Confidence:          0.95,
			RecommendedApproach: model.ApproachDirect,
			EstimatedCost:       0.01,
			EstimatedTime:       5 * time.Second,
		}
	}

	if knownComplex[normalized] {
		return model.QueryClassification{
			Complexity:          model.ComplexityComplex,
			NeedsSymbolRewrite:  symbol == "",
			ProjectType:         model.ProjectTypeGame,
			Confidence:          0.9,
			RecommendedApproach: model.ApproachOrchestrated,
			EstimatedCost:       0.15,
			EstimatedTime:       90 * time.Second,
		}
	}

	if c.provider == nil {
		return fallbackClassification()
	}

	classification, err := c.consultModel(ctx, name, symbol, address)
	if err != nil {
		return fallbackClassification()
	}
	return classification
}

// classificationReply is the strict schema requested from the model. Every
// field is optional on decode; absences get defaults rather than failing.
type classificationReply struct {
	Complexity   string   `json:"complexity"`
	NeedsRewrite *bool    `json:"needs_symbol_rewrite"`
	ProjectType  string   `json:"project_type"`
	Confidence   *float64 `json:"confidence"`
	Approach     string   `json:"approach"`
	CostUSD      *float64 `json:"estimated_cost_usd"`
	TimeSeconds  *int     `json:"estimated_time_seconds"`
}

func (c *Classifier) consultModel(ctx context.Context, name, symbol, address string) (model.QueryClassification, error) {
	prompt := buildPrompt(name, symbol, address)

	out, err := c.exec.Call(ctx, llmTarget, func(ctx context.Context) (any, error) {
		return c.provider.Complete(ctx, llm.CompletionRequest{
			System:      "You classify crypto/gaming research queries. Reply with a single JSON object and nothing else.",
			Prompt:      prompt,
			Temperature: 0.1,
		})
	})
	if err != nil {
		return model.QueryClassification{}, err
	}

	resp := out.(*llm.CompletionResponse)
	var reply classificationReply
	if err := llm.DecodeJSON(resp.Text, &reply); err != nil {
		return model.QueryClassification{}, err
	}

	return fromReply(reply), nil
}

// fromReply applies field-level defaults: complexity=unknown,
// approach=orchestrated, confidence=0.5 for anything missing or malformed.
func fromReply(reply classificationReply) model.QueryClassification {
	result := fallbackClassification()
	result.FromFallback = false

	switch model.Complexity(reply.Complexity) {
	case model.ComplexitySimple, model.ComplexityComplex, model.ComplexityUnknown:
		result.Complexity = model.Complexity(reply.Complexity)
	}
	switch model.Approach(reply.Approach) {
	case model.ApproachDirect, model.ApproachOrchestrated, model.ApproachHybrid:
		result.RecommendedApproach = model.Approach(reply.Approach)
	}
	switch model.ProjectType(reply.ProjectType) {
	case model.ProjectTypeToken, model.ProjectTypeGame, model.ProjectTypeEstablished:
		result.ProjectType = model.ProjectType(reply.ProjectType)
	}
	if reply.NeedsRewrite != nil {
		result.NeedsSymbolRewrite = *reply.NeedsRewrite
	}
	if reply.Confidence != nil && *reply.Confidence >= 0 && *reply.Confidence <= 1 {
		result.Confidence = *reply.Confidence
	}
	if reply.CostUSD != nil && *reply.CostUSD > 0 {
		result.EstimatedCost = *reply.CostUSD
	}
	if reply.TimeSeconds != nil && *reply.TimeSeconds > 0 {
		result.EstimatedTime = time.Duration(*reply.TimeSeconds) * time.Second
	}
	return result
}

// fallbackClassification is returned whenever the model path is unavailable;
// classification must never abort the pipeline.
func fallbackClassification() model.QueryClassification {
	return model.QueryClassification{
		Complexity:          model.ComplexityUnknown,
		ProjectType:         model.ProjectTypeUnknown,
		Confidence:          0.5,
		RecommendedApproach: model.ApproachOrchestrated,
		EstimatedCost:       0.10,
		EstimatedTime:       60 * time.Second,
		FromFallback:        true,
	}
}

func buildPrompt(name, symbol, address string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Classify this research query about a game/token/project.\n\n")
	fmt.Fprintf(&b, "Name: %s\n", name)
	if symbol != "" {
		fmt.Fprintf(&b, "Symbol: %s\n", symbol)
	}
	if address != "" {
		fmt.Fprintf(&b, "Contract address: %s\n", address)
	}
	b.WriteString(`
Respond with exactly this JSON shape:
{
  "complexity": "simple" | "complex" | "unknown",
  "needs_symbol_rewrite": boolean,
  "project_type": "crypto_token" | "blockchain_game" | "established",
  "confidence": number between 0 and 1,
  "approach": "direct_ai" | "orchestrated" | "hybrid",
  "estimated_cost_usd": number,
  "estimated_time_seconds": number
}`)
	return b.String()
}

func cacheKey(name, symbol string) string {
	return normalize(name) + "|" + normalize(symbol)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
