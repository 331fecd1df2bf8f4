package gates

import (
	"fmt"
	"strings"
	"time"

	"github.com/tokenlens/tokenlens/internal/model"
	"github.com/tokenlens/tokenlens/internal/score"
	"github.com/tokenlens/tokenlens/internal/source"
)

// Retry delays by failure class
const (
	retryStructural = 24 * time.Hour
	retryCommunity  = 7 * 24 * time.Hour
	retryDefault    = time.Hour
)

// lenientEntities are established projects exempt from the 3-of-3 tier-1
// requirement: their critical data is public knowledge even when a source
// collector comes up empty.
var lenientEntities = map[string]bool{
	"bitcoin":  true,
	"ethereum": true,
	"solana":   true,
}

// CheckRequest is the input for one gate-pipeline evaluation
type CheckRequest struct {
	Entity                   string
	Findings                 model.Findings
	Score                    model.ResearchScore
	ProjectType              model.ProjectType
	ClassificationConfidence float64
}

// gateResult is one gate's verdict
type gateResult struct {
	id             string
	passed         bool
	recommendation string
	manual         string
}

// Pipeline evaluates the seven quality gates. Gates are independent and
// non-short-circuiting: all run, failures accumulate.
type Pipeline struct {
	cfg model.GatesConfig
}

// NewPipeline creates a gate pipeline with the given thresholds
func NewPipeline(cfg model.GatesConfig) *Pipeline {
	return &Pipeline{cfg: cfg}
}

// Check runs every gate over the findings and score
func (p *Pipeline) Check(req CheckRequest) model.QualityGateResult {
	gates := []gateResult{
		p.minimumScore(req),
		p.criticalSources(req),
		p.identityVerification(req),
		p.technicalFoundation(req),
		p.communityProof(req),
		p.financialTransparency(req),
		p.redFlags(req),
	}

	result := model.QualityGateResult{Passed: true, Retryable: true}
	for _, g := range gates {
		if g.passed {
			continue
		}
		result.Passed = false
		result.FailedGates = append(result.FailedGates, g.id)
		if g.recommendation != "" {
			result.Recommendations = append(result.Recommendations, g.recommendation)
		}
		if g.manual != "" {
			result.ManualResearch = append(result.ManualResearch, g.manual)
		}
	}

	// Advisory output from the financial gate even when it passes
	if rec := financialAdvisory(req.Findings); rec != "" {
		result.Recommendations = append(result.Recommendations, rec)
	}

	result.Retryable, result.RetryAfter = retryPolicy(result.FailedGates)
	result.Message = message(&result)
	return result
}

// minimumScore adjusts the threshold by project type and classification
// confidence: established projects are held to a higher bar, but a very
// confident classification relaxes it again.
func (p *Pipeline) minimumScore(req CheckRequest) gateResult {
	threshold := p.cfg.MinScore
	if req.ProjectType == model.ProjectTypeEstablished {
		threshold = p.cfg.EstablishedMinScore
		switch {
		case req.ClassificationConfidence >= 0.8:
			threshold = 50
		case req.ClassificationConfidence >= 0.7:
			threshold = p.cfg.MinScore
		}
	}

	passed := req.Score.Total >= threshold
	return gateResult{
		id:             model.GateMinimumScore,
		passed:         passed,
		recommendation: fmt.Sprintf("research score %.0f below threshold %.0f; collect more critical sources", req.Score.Total, threshold),
	}
}

func (p *Pipeline) criticalSources(req CheckRequest) gateResult {
	required := 2
	if req.ProjectType == model.ProjectTypeEstablished && !lenientEntities[strings.ToLower(req.Entity)] {
		required = 3
	}
	minData := p.cfg.MinDataPoints
	if req.ProjectType == model.ProjectTypeEstablished {
		minData = p.cfg.EstablishedMinData
	}

	tier1Found := 0
	for _, id := range score.Tier1Sources() {
		if fd, ok := req.Findings[id]; ok && fd.Found {
			tier1Found++
		}
	}

	passed := tier1Found >= required && req.Findings.TotalDataPoints() >= minData
	return gateResult{
		id:             model.GateCriticalSources,
		passed:         passed,
		recommendation: fmt.Sprintf("found %d/%d required critical sources with %d data points (need %d)", tier1Found, required, req.Findings.TotalDataPoints(), minData),
		manual:         "verify the project website and whitepaper by hand",
	}
}

func (p *Pipeline) identityVerification(req CheckRequest) gateResult {
	team, ok := req.Findings[source.TeamInfo]
	hasTeam := ok && team.Found && fieldPresent(team, "team")
	anonymous := ok && boolField(team, "anonymous")

	return gateResult{
		id:             model.GateIdentityVerification,
		passed:         hasTeam && !anonymous,
		recommendation: "no verifiable team or founder identities",
		manual:         "search founders on LinkedIn and conference talks",
	}
}

func (p *Pipeline) technicalFoundation(req CheckRequest) gateResult {
	hasDocs := foundWithField(req.Findings, source.Whitepaper, "documentation") ||
		req.Findings[source.Whitepaper].Found
	hasProduct := foundWithField(req.Findings, source.OfficialWebsite, "live_product")
	hasContract := foundWithField(req.Findings, source.OnChainData, "verified_contract")

	return gateResult{
		id:             model.GateTechnicalFoundation,
		passed:         hasDocs || hasProduct || hasContract,
		recommendation: "no documentation, live product, or verified contracts found",
		manual:         "check the contract address on a block explorer",
	}
}

func (p *Pipeline) communityProof(req CheckRequest) gateResult {
	total := 0
	for _, id := range []string{source.SocialMedia, source.CommunityChannels} {
		fd, ok := req.Findings[id]
		if !ok || !fd.Found {
			continue
		}
		total += intField(fd, "followers") + intField(fd, "members")
	}

	passed := total >= p.cfg.MinCommunitySize
	rec := fmt.Sprintf("combined community size %d below %d", total, p.cfg.MinCommunitySize)
	if passed {
		// Engagement advisory only; it never affects the verdict
		if fd, ok := req.Findings[source.CommunityChannels]; ok && fd.Found {
			if rate, ok := floatField(fd, "engagement_rate"); ok && rate < 0.01 {
				rec = "community engagement rate under 1%; members may be inactive or purchased"
			}
		}
	}

	return gateResult{
		id:             model.GateCommunityProof,
		passed:         passed,
		recommendation: rec,
	}
}

// financialTransparency is advisory only: it reports gaps but never blocks
func (p *Pipeline) financialTransparency(req CheckRequest) gateResult {
	return gateResult{id: model.GateFinancialTransparency, passed: true}
}

func financialAdvisory(findings model.Findings) string {
	hasTokenomics := findings.HasField("tokenomics")
	hasFunding := findings.HasField("funding")

	switch {
	case !hasTokenomics && !hasFunding:
		return "no tokenomics or funding disclosure found (advisory)"
	case !hasTokenomics:
		return "no tokenomics disclosure found (advisory)"
	case !hasFunding:
		return "no funding disclosure found (advisory)"
	}
	return ""
}

// redFlags is the blocking gate: a discovered property of the data itself,
// not a collection failure. No retry is suggested.
func (p *Pipeline) redFlags(req CheckRequest) gateResult {
	var flags []string
	for _, fd := range req.Findings {
		if !fd.Found {
			continue
		}
		for _, f := range stringSliceField(fd, "red_flags") {
			flags = append(flags, f)
		}
		if boolField(fd, "scam_history") {
			flags = append(flags, "scam_history")
		}
		if boolField(fd, "rug_pull") {
			flags = append(flags, "rug_pull")
		}
		if boolField(fd, "honeypot") {
			flags = append(flags, "honeypot")
		}
		if ratio, ok := floatField(fd, "bot_ratio"); ok && ratio > 0.5 {
			flags = append(flags, "bot_community")
		}
	}

	return gateResult{
		id:             model.GateRedFlags,
		passed:         len(flags) == 0,
		recommendation: fmt.Sprintf("blocking red flags: %s", strings.Join(flags, ", ")),
	}
}

// retryPolicy derives the retry suggestion from which gates failed
func retryPolicy(failed []string) (retryable bool, after time.Duration) {
	if len(failed) == 0 {
		return true, 0
	}
	hasStructural := false
	hasCommunity := false
	for _, id := range failed {
		switch id {
		case model.GateRedFlags:
			return false, 0
		case model.GateCriticalSources, model.GateTechnicalFoundation:
			hasStructural = true
		case model.GateCommunityProof:
			hasCommunity = true
		}
	}
	if hasStructural {
		return true, retryStructural
	}
	if hasCommunity {
		return true, retryCommunity
	}
	return true, retryDefault
}

func message(r *model.QualityGateResult) string {
	if r.Passed {
		return "all quality gates passed; results released for analysis"
	}
	if !r.Retryable {
		return fmt.Sprintf("blocked by red flags (%s); do not retry", strings.Join(r.FailedGates, ", "))
	}
	return fmt.Sprintf("%d gate(s) failed (%s); retry after %s", len(r.FailedGates), strings.Join(r.FailedGates, ", "), r.RetryAfter)
}

// Finding data accessors: payloads are opaque maps from collectors, so every
// read defends against missing keys and wrong types.

func fieldPresent(fd model.Finding, key string) bool {
	_, ok := fd.Data[key]
	return ok
}

func foundWithField(findings model.Findings, id, key string) bool {
	fd, ok := findings[id]
	return ok && fd.Found && boolField(fd, key)
}

func boolField(fd model.Finding, key string) bool {
	v, ok := fd.Data[key]
	if !ok {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}

func intField(fd model.Finding, key string) int {
	switch v := fd.Data[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}

func floatField(fd model.Finding, key string) (float64, bool) {
	switch v := fd.Data[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}

func stringSliceField(fd model.Finding, key string) []string {
	var out []string
	switch v := fd.Data[key].(type) {
	case []string:
		out = v
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
	}
	return out
}
