package adapt

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tokenlens/tokenlens/internal/llm"
	"github.com/tokenlens/tokenlens/internal/model"
	"github.com/tokenlens/tokenlens/internal/resilience"
	"github.com/tokenlens/tokenlens/internal/score"
	"github.com/tokenlens/tokenlens/internal/source"
)

const llmTarget = "llm"

// continueThreshold is the score above which further collection stops
// paying for itself.
const continueThreshold = 70.0

// Adjustment is the controller's decision for one adaptation round
type Adjustment struct {
	Continue bool
	// NextSources is the remaining collection order when Continue is true
	NextSources []model.PrioritySource
	// Plan carries the adjusted source list with the original
	// SuccessCriteria intact.
	Plan         *model.ResearchPlan
	Gaps         []string
	CurrentScore model.ResearchScore
	Reason       string
	FromFallback bool
}

// Controller inspects partial findings mid-run and decides whether more
// collection is warranted. Like the classifier, it degrades to a
// deterministic rule whenever the model path is unavailable.
type Controller struct {
	provider llm.Provider // nil disables the model path
	exec     *resilience.Executor
	scorer   *score.Scorer
}

// NewController creates a controller. provider may be nil.
func NewController(provider llm.Provider, exec *resilience.Executor) *Controller {
	return &Controller{
		provider: provider,
		exec:     exec,
		scorer:   score.NewScorer(),
	}
}

// Adapt scores the current findings, diffs them against the plan, and
// decides whether to keep collecting. It never fails.
func (c *Controller) Adapt(ctx context.Context, plan *model.ResearchPlan, findings model.Findings, elapsed time.Duration) *Adjustment {
	current := c.scorer.Score(findings)
	gaps := gapList(plan, findings, current)
	remaining := remainingSources(plan, findings)

	adj := &Adjustment{
		Gaps:         gaps,
		CurrentScore: current,
		FromFallback: true,
	}

	if current.Total >= continueThreshold {
		adj.Reason = fmt.Sprintf("score %.0f already above %.0f", current.Total, continueThreshold)
		adj.Plan = adjustedPlan(plan, nil)
		return adj
	}
	if len(remaining) == 0 {
		adj.Reason = "every planned source already collected"
		adj.Plan = adjustedPlan(plan, nil)
		return adj
	}

	if c.provider != nil {
		if modelAdj, err := c.consultModel(ctx, plan, current, gaps, remaining, elapsed); err == nil {
			return modelAdj
		}
	}

	// Deterministic fallback: below the threshold with sources left means
	// keep going, in the plan's original priority order.
	adj.Continue = true
	adj.NextSources = remaining
	adj.Plan = adjustedPlan(plan, remaining)
	adj.Reason = fmt.Sprintf("score %.0f below %.0f with %d sources uncollected", current.Total, continueThreshold, len(remaining))
	return adj
}

// adjustmentReply is the strict schema requested from the model
type adjustmentReply struct {
	ShouldContinue *bool    `json:"should_continue"`
	NextSources    []string `json:"next_sources"`
	Reason         string   `json:"reason"`
}

func (c *Controller) consultModel(ctx context.Context, plan *model.ResearchPlan, current model.ResearchScore, gaps []string, remaining []model.PrioritySource, elapsed time.Duration) (*Adjustment, error) {
	prompt := buildPrompt(plan, current, gaps, remaining, elapsed)

	out, err := c.exec.Call(ctx, llmTarget, func(ctx context.Context) (any, error) {
		return c.provider.Complete(ctx, llm.CompletionRequest{
			System:      "You re-prioritize research collection mid-run. Reply with a single JSON object and nothing else.",
			Prompt:      prompt,
			Temperature: 0.1,
		})
	})
	if err != nil {
		return nil, err
	}

	resp := out.(*llm.CompletionResponse)
	var reply adjustmentReply
	if err := llm.DecodeJSON(resp.Text, &reply); err != nil {
		return nil, err
	}

	adj := &Adjustment{
		Gaps:         gaps,
		CurrentScore: current,
	}

	// Default to continuing: the model is only consulted below the score
	// threshold with sources remaining.
	adj.Continue = true
	if reply.ShouldContinue != nil {
		adj.Continue = *reply.ShouldContinue
	}
	adj.Reason = strings.TrimSpace(reply.Reason)
	if adj.Reason == "" {
		adj.Reason = "model adjustment"
	}

	if adj.Continue {
		// The model may shrink or reorder the remaining list but never
		// introduce sources outside the plan.
		adj.NextSources = filterToRemaining(reply.NextSources, remaining)
		if len(adj.NextSources) == 0 {
			adj.NextSources = remaining
		}
	}
	adj.Plan = adjustedPlan(plan, adj.NextSources)
	return adj, nil
}

// gapList names what the plan requires but the findings don't yet show
func gapList(plan *model.ResearchPlan, findings model.Findings, current model.ResearchScore) []string {
	var gaps []string
	for _, id := range current.MissingCritical {
		gaps = append(gaps, "missing tier-1 source: "+id)
	}
	for _, field := range plan.Criteria.CriticalFields {
		if !findings.HasField(field) {
			gaps = append(gaps, "missing critical field: "+field)
		}
	}
	if found := findings.FoundCount(); found < plan.Criteria.MinimumSources {
		gaps = append(gaps, fmt.Sprintf("only %d of %d minimum sources found", found, plan.Criteria.MinimumSources))
	}
	return gaps
}

// remainingSources returns the plan sources with no found finding yet, in
// plan priority order
func remainingSources(plan *model.ResearchPlan, findings model.Findings) []model.PrioritySource {
	var remaining []model.PrioritySource
	for _, ps := range plan.Sources {
		id := ps.SourceID
		if normalized, ok := source.NormalizeID(ps.SourceID); ok {
			id = normalized
		}
		if fd, ok := findings[id]; ok && fd.Found {
			continue
		}
		remaining = append(remaining, ps)
	}
	return remaining
}

// filterToRemaining keeps the model's ordering but restricts it to sources
// actually left in the plan
func filterToRemaining(ids []string, remaining []model.PrioritySource) []model.PrioritySource {
	byID := make(map[string]model.PrioritySource, len(remaining))
	for _, ps := range remaining {
		id := ps.SourceID
		if normalized, ok := source.NormalizeID(ps.SourceID); ok {
			id = normalized
		}
		byID[id] = ps
	}

	var out []model.PrioritySource
	seen := map[string]bool{}
	for _, raw := range ids {
		id, ok := source.NormalizeID(raw)
		if !ok || seen[id] {
			continue
		}
		ps, left := byID[id]
		if !left {
			continue
		}
		seen[id] = true
		out = append(out, ps)
	}
	return out
}

// adjustedPlan copies the plan with a new source list. SuccessCriteria are
// carried over untouched, always.
func adjustedPlan(plan *model.ResearchPlan, sources []model.PrioritySource) *model.ResearchPlan {
	adjusted := *plan
	adjusted.Sources = sources
	return &adjusted
}

func buildPrompt(plan *model.ResearchPlan, current model.ResearchScore, gaps []string, remaining []model.PrioritySource, elapsed time.Duration) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Mid-run research review for %q (type %s).\n\n", plan.Entity, plan.ProjectType)
	fmt.Fprintf(&b, "Current score: %.0f/100 (grade %s, confidence %.2f)\n", current.Total, current.Grade, current.Confidence)
	fmt.Fprintf(&b, "Elapsed: %s of a %s budget\n", elapsed.Round(time.Second), plan.TimeBudget)

	if len(gaps) > 0 {
		b.WriteString("\nGaps:\n")
		for _, g := range gaps {
			fmt.Fprintf(&b, "- %s\n", g)
		}
	}

	b.WriteString("\nUncollected sources, in current priority order:\n")
	for _, ps := range remaining {
		fmt.Fprintf(&b, "- %s (tier %d)\n", ps.SourceID, ps.Tier)
	}

	b.WriteString(`
Respond with exactly this JSON shape:
{
  "should_continue": boolean,
  "next_sources": ["source_id", ...],
  "reason": "one sentence"
}`)
	return b.String()
}
