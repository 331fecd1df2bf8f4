package gates

import (
	"testing"
	"time"

	"github.com/tokenlens/tokenlens/internal/model"
	"github.com/tokenlens/tokenlens/internal/score"
	"github.com/tokenlens/tokenlens/internal/source"
)

func newTestPipeline() *Pipeline {
	return NewPipeline(model.DefaultConfig().Gates)
}

func healthyFindings() model.Findings {
	now := time.Now()
	return model.Findings{
		source.OfficialWebsite: {
			SourceID: source.OfficialWebsite, Found: true, Quality: model.QualityHigh,
			DataPoints: 20, CollectedAt: now,
			Data: map[string]any{"live_product": true},
		},
		source.Whitepaper: {
			SourceID: source.Whitepaper, Found: true, Quality: model.QualityHigh,
			DataPoints: 22, CollectedAt: now,
			Data: map[string]any{"documentation": true, "tokenomics": "fixed supply"},
		},
		source.TeamInfo: {
			SourceID: source.TeamInfo, Found: true, Quality: model.QualityHigh,
			DataPoints: 21, CollectedAt: now,
			Data: map[string]any{"team": []any{"Jane Doe", "John Roe"}, "anonymous": false, "funding": "seed round"},
		},
		source.CommunityChannels: {
			SourceID: source.CommunityChannels, Found: true, Quality: model.QualityHigh,
			DataPoints: 10, CollectedAt: now,
			Data: map[string]any{"members": 5000, "engagement_rate": 0.04},
		},
		source.SocialMedia: {
			SourceID: source.SocialMedia, Found: true, Quality: model.QualityHigh,
			DataPoints: 8, CollectedAt: now,
			Data: map[string]any{"followers": 12000},
		},
	}
}

func checkRequest(findings model.Findings) CheckRequest {
	return CheckRequest{
		Entity:                   "Example Quest",
		Findings:                 findings,
		Score:                    score.NewScorer().Score(findings),
		ProjectType:              model.ProjectTypeGame,
		ClassificationConfidence: 0.6,
	}
}

func TestCheck_HealthyFindingsPass(t *testing.T) {
	p := newTestPipeline()
	result := p.Check(checkRequest(healthyFindings()))

	if !result.Passed {
		t.Fatalf("expected all gates to pass, failed: %v", result.FailedGates)
	}
	if result.Failed(model.GateFinancialTransparency) {
		t.Error("financial gate must never block")
	}
}

func TestCheck_EmptyFindings(t *testing.T) {
	p := newTestPipeline()
	result := p.Check(checkRequest(model.Findings{}))

	if result.Passed {
		t.Fatal("expected gate failures for empty findings")
	}
	if !result.Failed(model.GateMinimumScore) {
		t.Error("expected minimum_score failure")
	}
	if !result.Failed(model.GateCriticalSources) {
		t.Error("expected critical_sources failure")
	}
	if result.Failed(model.GateRedFlags) {
		t.Error("red_flags must pass when no flags are present")
	}
}

func TestCheck_RedFlagsAlwaysBlock(t *testing.T) {
	p := newTestPipeline()

	// Even a perfect findings set fails on a red flag, with no retry
	findings := healthyFindings()
	findings[source.OnChainData] = model.Finding{
		SourceID: source.OnChainData, Found: true, Quality: model.QualityHigh,
		DataPoints: 9, CollectedAt: time.Now(),
		Data: map[string]any{"verified_contract": true, "honeypot": true},
	}

	result := p.Check(checkRequest(findings))
	if result.Passed {
		t.Fatal("expected red flag to fail the pipeline regardless of score")
	}
	if !result.Failed(model.GateRedFlags) {
		t.Errorf("expected red_flags failure, got %v", result.FailedGates)
	}
	if result.Retryable {
		t.Error("red flag failures must not suggest a retry")
	}
}

func TestCheck_BotCommunityIsRedFlag(t *testing.T) {
	p := newTestPipeline()
	findings := healthyFindings()
	findings[source.CommunityChannels] = model.Finding{
		SourceID: source.CommunityChannels, Found: true, Quality: model.QualityHigh,
		DataPoints: 10, CollectedAt: time.Now(),
		Data: map[string]any{"members": 50000, "bot_ratio": 0.7},
	}

	result := p.Check(checkRequest(findings))
	if !result.Failed(model.GateRedFlags) {
		t.Errorf("expected bot community >50%% to fail red_flags, got %v", result.FailedGates)
	}
}

func TestCheck_AnonymousTeamFailsIdentity(t *testing.T) {
	p := newTestPipeline()
	findings := healthyFindings()
	findings[source.TeamInfo] = model.Finding{
		SourceID: source.TeamInfo, Found: true, Quality: model.QualityMedium,
		DataPoints: 21, CollectedAt: time.Now(),
		Data: map[string]any{"team": []any{"0xdev"}, "anonymous": true},
	}

	result := p.Check(checkRequest(findings))
	if !result.Failed(model.GateIdentityVerification) {
		t.Errorf("expected identity_verification failure, got %v", result.FailedGates)
	}
}

func TestCheck_CommunityProofThreshold(t *testing.T) {
	p := newTestPipeline()
	findings := healthyFindings()
	findings[source.SocialMedia] = model.Finding{
		SourceID: source.SocialMedia, Found: true, Quality: model.QualityLow,
		DataPoints: 8, CollectedAt: time.Now(),
		Data: map[string]any{"followers": 30},
	}
	findings[source.CommunityChannels] = model.Finding{
		SourceID: source.CommunityChannels, Found: true, Quality: model.QualityLow,
		DataPoints: 10, CollectedAt: time.Now(),
		Data: map[string]any{"members": 40},
	}

	result := p.Check(checkRequest(findings))
	if !result.Failed(model.GateCommunityProof) {
		t.Errorf("expected community_proof failure at 70 combined, got %v", result.FailedGates)
	}
	if result.RetryAfter != 7*24*time.Hour {
		t.Errorf("expected 7d retry for community failure, got %v", result.RetryAfter)
	}
}

func TestCheck_RetryDelays(t *testing.T) {
	cases := []struct {
		failed    []string
		retryable bool
		after     time.Duration
	}{
		{[]string{model.GateRedFlags}, false, 0},
		{[]string{model.GateCriticalSources}, true, 24 * time.Hour},
		{[]string{model.GateTechnicalFoundation, model.GateCommunityProof}, true, 24 * time.Hour},
		{[]string{model.GateCommunityProof}, true, 7 * 24 * time.Hour},
		{[]string{model.GateMinimumScore}, true, time.Hour},
		{[]string{model.GateRedFlags, model.GateCriticalSources}, false, 0},
	}
	for _, c := range cases {
		retryable, after := retryPolicy(c.failed)
		if retryable != c.retryable || after != c.after {
			t.Errorf("retryPolicy(%v) = (%v, %v), want (%v, %v)", c.failed, retryable, after, c.retryable, c.after)
		}
	}
}

func TestCheck_EstablishedNeedsAllTier1(t *testing.T) {
	p := newTestPipeline()
	findings := healthyFindings()
	delete(findings, source.TeamInfo)

	req := checkRequest(findings)
	req.ProjectType = model.ProjectTypeEstablished
	req.Entity = "Some Established Thing"

	result := p.Check(req)
	if !result.Failed(model.GateCriticalSources) {
		t.Error("expected established project to need 3/3 tier-1 sources")
	}

	// Lenient allow-list exemption
	req.Entity = "bitcoin"
	req.Findings = healthyFindings()
	delete(req.Findings, source.TeamInfo)
	req.Findings[source.OnChainData] = model.Finding{
		SourceID: source.OnChainData, Found: true, Quality: model.QualityHigh,
		DataPoints: 15, CollectedAt: time.Now(),
		Data: map[string]any{"verified_contract": true},
	}
	req.Score = score.NewScorer().Score(req.Findings)
	result = p.Check(req)
	if result.Failed(model.GateCriticalSources) {
		t.Errorf("expected lenient entity to pass with 2/3 tier-1: %v", result.Recommendations)
	}
}

func TestCheck_FinancialAdvisoryNeverBlocks(t *testing.T) {
	p := newTestPipeline()
	findings := healthyFindings()
	// Strip all financial fields
	wp := findings[source.Whitepaper]
	wp.Data = map[string]any{"documentation": true}
	findings[source.Whitepaper] = wp
	ti := findings[source.TeamInfo]
	ti.Data = map[string]any{"team": []any{"Jane Doe"}, "anonymous": false}
	findings[source.TeamInfo] = ti

	result := p.Check(checkRequest(findings))
	if result.Failed(model.GateFinancialTransparency) {
		t.Error("financial gate must report passed even with missing data")
	}
	hasAdvisory := false
	for _, rec := range result.Recommendations {
		if rec == "no tokenomics or funding disclosure found (advisory)" {
			hasAdvisory = true
		}
	}
	if !hasAdvisory {
		t.Errorf("expected financial advisory recommendation, got %v", result.Recommendations)
	}
}
