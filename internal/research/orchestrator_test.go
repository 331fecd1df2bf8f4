package research

import (
	"context"
	"errors"
	"testing"

	"github.com/tokenlens/tokenlens/internal/model"
	"github.com/tokenlens/tokenlens/internal/resilience"
	"github.com/tokenlens/tokenlens/internal/source"
)

func testConfig() *model.Config {
	cfg := model.DefaultConfig()
	cfg.Resilience.MaxRetries = 0
	cfg.Resilience.MinRequestInterval = 0
	cfg.Resilience.BaseDelay = 0
	return cfg
}

func newResearcher(registry *source.Registry) *Researcher {
	cfg := testConfig()
	return New(cfg, nil, resilience.NewExecutor(cfg.Resilience), registry, nil)
}

func collector(id string, dataPoints int, data map[string]any) source.CollectorFunc {
	return source.CollectorFunc{
		SourceID: id,
		Fn: func(ctx context.Context, req source.Request) (*source.Result, error) {
			return &source.Result{Data: data, DataPoints: dataPoints, Quality: model.QualityHigh}, nil
		},
	}
}

// healthyRegistry serves seven sources totalling 34 data points: enough to
// pass every gate but below the early-termination proxy.
func healthyRegistry() *source.Registry {
	r := source.NewRegistry()
	r.Register(collector(source.OfficialWebsite, 8, map[string]any{"title": "Test", "live_product": true}))
	r.Register(collector(source.Whitepaper, 8, map[string]any{"documentation": true, "tokenomics": "fixed supply"}))
	r.Register(collector(source.TeamInfo, 8, map[string]any{"team": "public founders", "anonymous": false}))
	r.Register(collector(source.SocialMedia, 4, map[string]any{"followers": 5000}))
	r.Register(collector(source.CommunityChannels, 2, map[string]any{"members": 1200, "engagement_rate": 0.05}))
	r.Register(collector(source.OnChainData, 2, map[string]any{"verified_contract": true}))
	r.Register(collector(source.CodeRepository, 2, map[string]any{"commits": 320}))
	return r
}

func TestResearch_HealthyEntityPasses(t *testing.T) {
	r := newResearcher(healthyRegistry())

	result := r.Research(context.Background(), Request{Entity: "testproject", Symbol: "TPT"})

	if !result.Success {
		t.Fatalf("expected success, got reason %q (gates %+v)", result.Reason, result.Gates)
	}
	if result.EarlyTerminated {
		t.Error("34 data points must not terminate early")
	}
	if result.Gates == nil || !result.Gates.Passed {
		t.Error("gate pipeline should have run and passed")
	}
	if result.Score.Total < 60 {
		t.Errorf("score = %.1f, want >= 60", result.Score.Total)
	}
	if !result.Score.PassesThreshold {
		t.Error("full tier-1 collection with 34 points should pass the threshold")
	}
	if result.TotalDataPoints != 34 {
		t.Errorf("TotalDataPoints = %d, want 34", result.TotalDataPoints)
	}
}

func TestResearch_EarlyTerminationSkipsGates(t *testing.T) {
	r := source.NewRegistry()
	r.Register(collector(source.OfficialWebsite, 20, map[string]any{"title": "Test"}))
	r.Register(collector(source.Whitepaper, 20, map[string]any{"documentation": true}))
	r.Register(collector(source.TeamInfo, 20, map[string]any{"team": "public"}))

	result := newResearcher(r).Research(context.Background(), Request{Entity: "testproject"})

	if !result.EarlyTerminated {
		t.Fatalf("60 data points should terminate early, got %d", result.TotalDataPoints)
	}
	if !result.Success {
		t.Error("early termination is a success outcome")
	}
	if result.Gates != nil {
		t.Error("gate pipeline must be skipped on early termination")
	}
	if result.AdaptRounds != 0 {
		t.Error("adaptation must be skipped on early termination")
	}
	if result.Confidence != 1.0 {
		t.Errorf("proxy confidence = %.2f, want 1.0", result.Confidence)
	}
}

func TestResearch_TotalCollectionFailure(t *testing.T) {
	r := source.NewRegistry() // no collectors: every source settles not-found

	result := newResearcher(r).Research(context.Background(), Request{Entity: "testproject"})

	if result.Success {
		t.Fatal("expected failure")
	}
	if result.Reason != "no source could be collected" {
		t.Errorf("reason = %q", result.Reason)
	}
	if result.Gates != nil {
		t.Error("gates should not run over an all-empty findings set")
	}
}

func TestResearch_RedFlagBlocks(t *testing.T) {
	registry := healthyRegistry()
	registry.Register(collector(source.TeamInfo, 8, map[string]any{
		"team":         "public founders",
		"scam_history": true,
	}))

	result := newResearcher(registry).Research(context.Background(), Request{Entity: "testproject"})

	if result.Success {
		t.Fatal("red-flagged findings must never pass")
	}
	if result.Gates == nil || !result.Gates.Failed(model.GateRedFlags) {
		t.Error("red_flags gate should be the failure")
	}
	if result.Gates.Retryable {
		t.Error("red flags are a property of the data; no retry makes sense")
	}
	if result.Reason == "" {
		t.Error("failure must carry a reason")
	}
}

func TestResearch_CollectorErrorsDegradeToFailure(t *testing.T) {
	r := source.NewRegistry()
	for _, id := range []string{source.OfficialWebsite, source.Whitepaper, source.TeamInfo} {
		id := id
		r.Register(source.CollectorFunc{
			SourceID: id,
			Fn: func(ctx context.Context, req source.Request) (*source.Result, error) {
				return nil, errors.New("connection refused")
			},
		})
	}

	result := newResearcher(r).Research(context.Background(), Request{Entity: "testproject"})

	if result.Success {
		t.Fatal("all-failing collectors cannot succeed")
	}
	// Never an orchestration error: failures land in the result value.
	if result.Reason == "" {
		t.Error("structured failure must carry a reason")
	}
}

func TestResearch_AdaptLoopIsBounded(t *testing.T) {
	r := source.NewRegistry()
	r.Register(collector(source.OfficialWebsite, 3, map[string]any{"title": "Test"}))

	cfg := testConfig()
	cfg.Collection.MaxAdaptiveRounds = 2
	res := New(cfg, nil, resilience.NewExecutor(cfg.Resilience), r, nil)

	result := res.Research(context.Background(), Request{Entity: "testproject"})

	// A thin collection keeps the controller asking for more; the round
	// budget is what stops it.
	if result.AdaptRounds != 2 {
		t.Errorf("AdaptRounds = %d, want 2", result.AdaptRounds)
	}
	if result.Success {
		t.Error("one weak source cannot pass the gates")
	}
}

func TestResearch_KnownSimpleEntityClassification(t *testing.T) {
	result := newResearcher(healthyRegistry()).Research(context.Background(), Request{Entity: "bitcoin"})

	if result.Classification.Complexity != model.ComplexitySimple {
		t.Errorf("bitcoin complexity = %s, want simple", result.Classification.Complexity)
	}
	if result.Classification.RecommendedApproach != model.ApproachDirect {
		t.Errorf("bitcoin approach = %s, want %s", result.Classification.RecommendedApproach, model.ApproachDirect)
	}
}
