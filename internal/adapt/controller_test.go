package adapt

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tokenlens/tokenlens/internal/llm"
	"github.com/tokenlens/tokenlens/internal/model"
	"github.com/tokenlens/tokenlens/internal/resilience"
	"github.com/tokenlens/tokenlens/internal/source"
)

// mockProvider implements llm.Provider
type mockProvider struct {
	response string
	err      error
	calls    int
}

func (m *mockProvider) Name() string                         { return "mock" }
func (m *mockProvider) IsAvailable(ctx context.Context) bool { return true }

func (m *mockProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return &llm.CompletionResponse{Text: m.response}, nil
}

func newTestExecutor() *resilience.Executor {
	cfg := model.DefaultConfig().Resilience
	cfg.MaxRetries = 0
	cfg.MinRequestInterval = 0
	cfg.BaseDelay = 0
	return resilience.NewExecutor(cfg)
}

func testPlan() *model.ResearchPlan {
	return &model.ResearchPlan{
		Entity:      "testproject",
		ProjectType: model.ProjectTypeToken,
		Sources: []model.PrioritySource{
			{SourceID: source.OfficialWebsite, Tier: model.TierCritical},
			{SourceID: source.Whitepaper, Tier: model.TierCritical},
			{SourceID: source.TeamInfo, Tier: model.TierCritical},
			{SourceID: source.SocialMedia, Tier: model.TierImportant},
			{SourceID: source.MarketData, Tier: model.TierSupporting},
		},
		TimeBudget: 2 * time.Minute,
		Criteria: model.SuccessCriteria{
			MinimumSources: 3,
			CriticalFields: []string{"team", "live_product"},
			RedFlagChecks:  []string{"scam_history"},
		},
	}
}

func finding(id string, quality model.Quality, dataPoints int) model.Finding {
	return model.Finding{
		SourceID:    id,
		Found:       true,
		Data:        map[string]any{"team": "listed", "live_product": true},
		Quality:     quality,
		DataPoints:  dataPoints,
		CollectedAt: time.Now(),
	}
}

// strongFindings scores well above the continue threshold
func strongFindings() model.Findings {
	return model.Findings{
		source.OfficialWebsite:   finding(source.OfficialWebsite, model.QualityHigh, 20),
		source.Whitepaper:        finding(source.Whitepaper, model.QualityHigh, 20),
		source.TeamInfo:          finding(source.TeamInfo, model.QualityHigh, 20),
		source.SocialMedia:       finding(source.SocialMedia, model.QualityHigh, 12),
		source.CommunityChannels: finding(source.CommunityChannels, model.QualityHigh, 12),
		source.OnChainData:       finding(source.OnChainData, model.QualityHigh, 12),
		source.CodeRepository:    finding(source.CodeRepository, model.QualityHigh, 12),
	}
}

// weakFindings scores far below the continue threshold
func weakFindings() model.Findings {
	return model.Findings{
		source.OfficialWebsite: finding(source.OfficialWebsite, model.QualityLow, 3),
	}
}

func TestAdapt_StopsWhenScoreSatisfied(t *testing.T) {
	provider := &mockProvider{response: `{"should_continue": true}`}
	c := NewController(provider, newTestExecutor())

	adj := c.Adapt(context.Background(), testPlan(), strongFindings(), time.Second)

	if adj.Continue {
		t.Errorf("score %.0f should end collection", adj.CurrentScore.Total)
	}
	if provider.calls != 0 {
		t.Error("model must not be consulted once the score is satisfied")
	}
}

func TestAdapt_StopsWhenNothingRemains(t *testing.T) {
	plan := testPlan()
	plan.Sources = plan.Sources[:1]
	c := NewController(nil, newTestExecutor())

	adj := c.Adapt(context.Background(), plan, weakFindings(), time.Second)

	if adj.Continue {
		t.Error("no uncollected sources should end collection regardless of score")
	}
}

func TestAdapt_FallbackContinuesBelowThreshold(t *testing.T) {
	c := NewController(nil, newTestExecutor())

	adj := c.Adapt(context.Background(), testPlan(), weakFindings(), time.Second)

	if !adj.Continue {
		t.Fatal("low score with uncollected sources should continue")
	}
	if !adj.FromFallback {
		t.Error("nil provider decision should be marked as fallback")
	}
	want := []string{source.Whitepaper, source.TeamInfo, source.SocialMedia, source.MarketData}
	if len(adj.NextSources) != len(want) {
		t.Fatalf("NextSources = %d entries, want %d", len(adj.NextSources), len(want))
	}
	for i, id := range want {
		if adj.NextSources[i].SourceID != id {
			t.Errorf("NextSources[%d] = %s, want %s (plan order preserved)", i, adj.NextSources[i].SourceID, id)
		}
	}
}

func TestAdapt_ModelReordersRemaining(t *testing.T) {
	provider := &mockProvider{response: `{
		"should_continue": true,
		"next_sources": ["team_info", "whitepaper"],
		"reason": "prioritize identity"
	}`}
	c := NewController(provider, newTestExecutor())

	adj := c.Adapt(context.Background(), testPlan(), weakFindings(), time.Second)

	if !adj.Continue {
		t.Fatal("model said continue")
	}
	if adj.FromFallback {
		t.Error("model decision should not be marked as fallback")
	}
	if len(adj.NextSources) != 2 {
		t.Fatalf("NextSources = %d entries, want 2 (model shrank the list)", len(adj.NextSources))
	}
	if adj.NextSources[0].SourceID != source.TeamInfo || adj.NextSources[1].SourceID != source.Whitepaper {
		t.Errorf("model ordering not honored: %+v", adj.NextSources)
	}
}

func TestAdapt_ModelCannotIntroduceNewSources(t *testing.T) {
	provider := &mockProvider{response: `{
		"should_continue": true,
		"next_sources": ["crystal_ball", "official_website"]
	}`}
	c := NewController(provider, newTestExecutor())

	// official_website is already found, crystal_ball is not in the plan;
	// the filtered list is empty, so the full remaining list is used.
	adj := c.Adapt(context.Background(), testPlan(), weakFindings(), time.Second)

	if !adj.Continue {
		t.Fatal("expected continue")
	}
	for _, ps := range adj.NextSources {
		if ps.SourceID == "crystal_ball" {
			t.Error("model must not introduce sources outside the plan")
		}
		if ps.SourceID == source.OfficialWebsite {
			t.Error("already-collected sources must not be re-queued")
		}
	}
	if len(adj.NextSources) != 4 {
		t.Errorf("empty filtered list should fall back to all remaining, got %d", len(adj.NextSources))
	}
}

func TestAdapt_ModelFailureFallsBack(t *testing.T) {
	provider := &mockProvider{err: errors.New("model down")}
	c := NewController(provider, newTestExecutor())

	adj := c.Adapt(context.Background(), testPlan(), weakFindings(), time.Second)

	if !adj.Continue {
		t.Error("fallback should continue below the threshold")
	}
	if !adj.FromFallback {
		t.Error("expected the deterministic fallback path")
	}
}

func TestAdapt_MalformedReplyFallsBack(t *testing.T) {
	provider := &mockProvider{response: "I think you should keep digging."}
	c := NewController(provider, newTestExecutor())

	adj := c.Adapt(context.Background(), testPlan(), weakFindings(), time.Second)

	if !adj.Continue || !adj.FromFallback {
		t.Error("unparseable reply should use the deterministic fallback")
	}
}

func TestAdapt_CriteriaAlwaysPreserved(t *testing.T) {
	plan := testPlan()
	provider := &mockProvider{response: `{"should_continue": true, "next_sources": ["whitepaper"]}`}
	c := NewController(provider, newTestExecutor())

	adj := c.Adapt(context.Background(), plan, weakFindings(), time.Second)

	if adj.Plan == nil {
		t.Fatal("adjustment must carry a plan")
	}
	if adj.Plan.Criteria.MinimumSources != plan.Criteria.MinimumSources {
		t.Error("MinimumSources dropped from adjusted plan")
	}
	if len(adj.Plan.Criteria.CriticalFields) != len(plan.Criteria.CriticalFields) {
		t.Error("CriticalFields dropped from adjusted plan")
	}
	if len(adj.Plan.Criteria.RedFlagChecks) != len(plan.Criteria.RedFlagChecks) {
		t.Error("RedFlagChecks dropped from adjusted plan")
	}
}

func TestAdapt_GapListNamesMissingPieces(t *testing.T) {
	findings := model.Findings{
		source.OfficialWebsite: {
			SourceID:    source.OfficialWebsite,
			Found:       true,
			Data:        map[string]any{"title": "Test"},
			Quality:     model.QualityLow,
			DataPoints:  2,
			CollectedAt: time.Now(),
		},
	}
	c := NewController(nil, newTestExecutor())

	adj := c.Adapt(context.Background(), testPlan(), findings, time.Second)

	if len(adj.Gaps) == 0 {
		t.Fatal("expected gaps for a near-empty findings set")
	}
	var sawTier1, sawField, sawCount bool
	for _, g := range adj.Gaps {
		switch {
		case g == "missing tier-1 source: "+source.Whitepaper:
			sawTier1 = true
		case g == "missing critical field: team":
			sawField = true
		case g == "only 1 of 3 minimum sources found":
			sawCount = true
		}
	}
	if !sawTier1 || !sawField || !sawCount {
		t.Errorf("gap list incomplete: %v", adj.Gaps)
	}
}
