package model

import "time"

// Gate ids, in evaluation order
const (
	GateMinimumScore          = "minimum_score"
	GateCriticalSources       = "critical_sources"
	GateIdentityVerification  = "identity_verification"
	GateTechnicalFoundation   = "technical_foundation"
	GateCommunityProof        = "community_proof"
	GateFinancialTransparency = "financial_transparency"
	GateRedFlags              = "red_flags"
)

// QualityGateResult is the stateless verdict of the gate pipeline over one
// findings set and its score.
type QualityGateResult struct {
	Passed          bool     `json:"passed"`
	FailedGates     []string `json:"failed_gates,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`
	Message         string   `json:"message"`

	// Retryable is false when a blocking red flag means more collection
	// cannot help; RetryAfter is meaningless in that case.
	Retryable  bool          `json:"retryable"`
	RetryAfter time.Duration `json:"retry_after,omitempty"`

	ManualResearch []string `json:"manual_research,omitempty"`
}

// Failed reports whether the named gate is among the failures
func (r *QualityGateResult) Failed(gate string) bool {
	for _, g := range r.FailedGates {
		if g == gate {
			return true
		}
	}
	return false
}
