package model

import "time"

// Complexity describes how hard an entity is to research
type Complexity string

const (
	ComplexitySimple  Complexity = "simple"
	ComplexityComplex Complexity = "complex"
	ComplexityUnknown Complexity = "unknown"
)

// Approach is the recommended research strategy for an entity
type Approach string

const (
	// ApproachDirect answers from a single model pass; reserved for
	// well-known entities where orchestration adds nothing.
	ApproachDirect Approach = "direct_ai"

	// ApproachOrchestrated runs the full plan/collect/score/gate pipeline.
	ApproachOrchestrated Approach = "orchestrated"

	// ApproachHybrid starts direct and escalates to orchestration when the
	// direct answer is thin.
	ApproachHybrid Approach = "hybrid"
)

// ProjectType tags the kind of entity being researched
type ProjectType string

const (
	ProjectTypeToken       ProjectType = "crypto_token"
	ProjectTypeGame        ProjectType = "blockchain_game"
	ProjectTypeEstablished ProjectType = "established"
	ProjectTypeUnknown     ProjectType = "unknown"
)

// QueryClassification is the routing decision for a (name, symbol) pair.
// Created once per distinct pair and cached for the process lifetime.
type QueryClassification struct {
	Complexity          Complexity    `json:"complexity"`
	NeedsSymbolRewrite  bool          `json:"needs_symbol_rewrite"`
	ProjectType         ProjectType   `json:"project_type"`
	Confidence          float64       `json:"confidence"`
	RecommendedApproach Approach      `json:"recommended_approach"`
	EstimatedCost       float64       `json:"estimated_cost"`
	EstimatedTime       time.Duration `json:"estimated_time"`

	// FromFallback marks degraded classifications: the language model was
	// needed but unavailable or unusable. Static-list hits are first-class
	// decisions and leave this false.
	FromFallback bool `json:"from_fallback,omitempty"`
}
