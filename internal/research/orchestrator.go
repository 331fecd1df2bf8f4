package research

import (
	"context"
	"time"

	"github.com/tokenlens/tokenlens/internal/adapt"
	"github.com/tokenlens/tokenlens/internal/cache"
	"github.com/tokenlens/tokenlens/internal/classify"
	"github.com/tokenlens/tokenlens/internal/gates"
	"github.com/tokenlens/tokenlens/internal/llm"
	"github.com/tokenlens/tokenlens/internal/model"
	"github.com/tokenlens/tokenlens/internal/plan"
	"github.com/tokenlens/tokenlens/internal/resilience"
	"github.com/tokenlens/tokenlens/internal/schedule"
	"github.com/tokenlens/tokenlens/internal/score"
	"github.com/tokenlens/tokenlens/internal/source"
)

// Request identifies one entity to research
type Request struct {
	Entity  string
	Symbol  string
	Address string
	SiteURL string
}

// Result is the terminal outcome for one entity. Failures are values here,
// never errors: gate rejection, red flags, and total collection failure all
// land in Success=false with a Reason.
type Result struct {
	Entity          string                    `json:"entity"`
	Success         bool                      `json:"success"`
	Reason          string                    `json:"reason,omitempty"`
	Confidence      float64                   `json:"confidence"`
	TotalDataPoints int                       `json:"total_data_points"`
	EarlyTerminated bool                      `json:"early_terminated,omitempty"`
	AdaptRounds     int                       `json:"adapt_rounds"`
	Elapsed         time.Duration             `json:"elapsed"`
	EstimatedCost   float64                   `json:"estimated_cost"`
	Classification  model.QueryClassification `json:"classification"`
	Plan            *model.ResearchPlan       `json:"plan,omitempty"`
	Findings        model.Findings            `json:"findings,omitempty"`
	Score           model.ResearchScore       `json:"score"`
	Gates           *model.QualityGateResult  `json:"gates,omitempty"`
}

// Researcher runs the full pipeline for one entity:
// classify -> plan -> collect -> adapt loop -> score -> gates.
type Researcher struct {
	classifier *classify.Classifier
	planner    *plan.Planner
	scheduler  *schedule.Scheduler
	controller *adapt.Controller
	scorer     *score.Scorer
	pipeline   *gates.Pipeline
	cfg        *model.Config

	now func() time.Time
}

// New wires a researcher from shared collaborators. provider may be nil;
// cc may be nil when caching is disabled.
func New(cfg *model.Config, provider llm.Provider, exec *resilience.Executor, registry *source.Registry, cc *cache.ConfidenceCache) *Researcher {
	return &Researcher{
		classifier: classify.NewClassifier(provider, exec),
		planner:    plan.NewPlanner(),
		scheduler:  schedule.NewScheduler(registry, cc, exec, cfg.Collection),
		controller: adapt.NewController(provider, exec),
		scorer:     score.NewScorer(),
		pipeline:   gates.NewPipeline(cfg.Gates),
		cfg:        cfg,
		now:        time.Now,
	}
}

// Research runs the pipeline for one entity. It never returns an error:
// every failure mode is folded into the Result.
func (r *Researcher) Research(ctx context.Context, req Request) *Result {
	start := r.now()

	classification := r.classifier.Classify(ctx, req.Entity, req.Symbol, req.Address)
	researchPlan := r.planner.Build(req.Entity, req.Symbol, req.Address, classification)

	result := &Result{
		Entity:         req.Entity,
		Classification: classification,
		Plan:           researchPlan,
		EstimatedCost:  classification.EstimatedCost,
	}

	collectReq := source.Request{
		Entity:      req.Entity,
		Symbol:      req.Symbol,
		Address:     req.Address,
		SiteURL:     req.SiteURL,
		Aliases:     researchPlan.Aliases,
		SearchTerms: []string{req.Entity},
	}

	outcome := r.scheduler.Collect(ctx, researchPlan, collectReq)
	findings := outcome.Findings

	if outcome.EarlyTerminated {
		// Saturated collection: skip the adapt loop and the gate
		// pipeline, release on the proxy confidence.
		result.Findings = findings
		result.Score = r.scorer.Score(findings)
		result.Success = true
		result.Confidence = outcome.ProxyConfidence
		result.TotalDataPoints = outcome.TotalDataPoints
		result.EarlyTerminated = true
		result.Elapsed = r.now().Sub(start)
		return result
	}

	// Adaptation loop: re-plan and re-collect until the controller is
	// satisfied or the round budget runs out.
	currentPlan := researchPlan
	for round := 0; round < r.cfg.Collection.MaxAdaptiveRounds; round++ {
		adj := r.controller.Adapt(ctx, currentPlan, findings, r.now().Sub(start))
		result.AdaptRounds++
		if !adj.Continue {
			break
		}
		sub := r.scheduler.CollectSources(ctx, adj.NextSources, collectReq)
		findings.Merge(sub.Findings)
		currentPlan = adj.Plan
	}

	result.Findings = findings
	result.Score = r.scorer.Score(findings)
	result.TotalDataPoints = result.Score.TotalDataPoints
	result.Confidence = result.Score.Confidence

	if findings.FoundCount() == 0 {
		result.Reason = "no source could be collected"
		result.Elapsed = r.now().Sub(start)
		return result
	}

	gr := r.pipeline.Check(gates.CheckRequest{
		Entity:                   req.Entity,
		Findings:                 findings,
		Score:                    result.Score,
		ProjectType:              classification.ProjectType,
		ClassificationConfidence: classification.Confidence,
	})
	result.Gates = &gr
	result.Success = gr.Passed
	if !gr.Passed {
		result.Reason = gr.Message
	}
	result.Elapsed = r.now().Sub(start)
	return result
}
