package plan

import (
	"strings"
	"time"

	"github.com/tokenlens/tokenlens/internal/model"
	"github.com/tokenlens/tokenlens/internal/source"
)

// Planner turns a classification into a prioritized research plan. The plan
// is immutable once built; only the adaptive controller may supersede it
// with an adjusted copy.
type Planner struct{}

// NewPlanner creates a planner
func NewPlanner() *Planner {
	return &Planner{}
}

// Build constructs the research plan for one run
func (p *Planner) Build(entity, symbol, address string, c model.QueryClassification) *model.ResearchPlan {
	sources := prioritySources(c.ProjectType)

	plan := &model.ResearchPlan{
		Entity:      entity,
		ProjectType: c.ProjectType,
		Sources:     sources,
		Aliases:     aliases(entity, symbol, c),
		RiskAreas:   riskAreas(c),
		TimeBudget:  timeBudget(c),
		Criteria: model.SuccessCriteria{
			MinimumSources: 3,
			CriticalFields: []string{"team", "live_product", "community_size"},
			RedFlagChecks:  []string{"scam_history", "rug_pull", "bot_community", "honeypot"},
		},
	}

	terms := searchTerms(entity, symbol, address)
	for i := range plan.Sources {
		plan.Sources[i].SearchTerms = terms
	}
	return plan
}

// prioritySources returns the ordered source list for a project type.
// Tier-1 sources are the same for every type; tier-2/3 emphasis shifts.
func prioritySources(pt model.ProjectType) []model.PrioritySource {
	sources := []model.PrioritySource{
		{SourceID: source.OfficialWebsite, Tier: model.TierCritical, ExpectedFields: []string{"live_product", "title"}},
		{SourceID: source.Whitepaper, Tier: model.TierCritical, ExpectedFields: []string{"tokenomics", "documentation"}},
		{SourceID: source.TeamInfo, Tier: model.TierCritical, ExpectedFields: []string{"team", "anonymous"}},
	}

	switch pt {
	case model.ProjectTypeGame:
		sources = append(sources,
			model.PrioritySource{SourceID: source.CommunityChannels, Tier: model.TierImportant, ExpectedFields: []string{"members", "engagement_rate"}},
			model.PrioritySource{SourceID: source.SocialMedia, Tier: model.TierImportant, ExpectedFields: []string{"followers"}},
			model.PrioritySource{SourceID: source.Reviews, Tier: model.TierImportant, ExpectedFields: []string{"rating"}},
			model.PrioritySource{SourceID: source.OnChainData, Tier: model.TierSupporting, ExpectedFields: []string{"verified_contract"}},
			model.PrioritySource{SourceID: source.NewsArticles, Tier: model.TierSupporting},
		)
	case model.ProjectTypeToken:
		sources = append(sources,
			model.PrioritySource{SourceID: source.OnChainData, Tier: model.TierImportant, ExpectedFields: []string{"verified_contract", "holders"}},
			model.PrioritySource{SourceID: source.MarketData, Tier: model.TierImportant, ExpectedFields: []string{"market_cap", "volume"}},
			model.PrioritySource{SourceID: source.SocialMedia, Tier: model.TierImportant, ExpectedFields: []string{"followers"}},
			model.PrioritySource{SourceID: source.CommunityChannels, Tier: model.TierSupporting, ExpectedFields: []string{"members"}},
			model.PrioritySource{SourceID: source.NewsArticles, Tier: model.TierSupporting},
		)
	default:
		// Unknown or established: collect broadly
		sources = append(sources,
			model.PrioritySource{SourceID: source.SocialMedia, Tier: model.TierImportant, ExpectedFields: []string{"followers"}},
			model.PrioritySource{SourceID: source.CommunityChannels, Tier: model.TierImportant, ExpectedFields: []string{"members"}},
			model.PrioritySource{SourceID: source.OnChainData, Tier: model.TierImportant, ExpectedFields: []string{"verified_contract"}},
			model.PrioritySource{SourceID: source.CodeRepository, Tier: model.TierSupporting, ExpectedFields: []string{"commits"}},
			model.PrioritySource{SourceID: source.MarketData, Tier: model.TierSupporting},
			model.PrioritySource{SourceID: source.NewsArticles, Tier: model.TierSupporting},
		)
	}
	return sources
}

// aliases builds search aliases, including symbol rewrites when flagged
func aliases(entity, symbol string, c model.QueryClassification) []string {
	seen := map[string]bool{}
	var out []string
	add := func(s string) {
		s = strings.TrimSpace(s)
		key := strings.ToLower(s)
		if s != "" && !seen[key] {
			seen[key] = true
			out = append(out, s)
		}
	}

	add(entity)
	add(symbol)
	if c.NeedsSymbolRewrite && symbol != "" {
		add("$" + strings.ToUpper(symbol))
		add(entity + " " + strings.ToUpper(symbol))
	}
	add(entity + " token")
	add(entity + " crypto")
	return out
}

func riskAreas(c model.QueryClassification) []model.RiskArea {
	areas := []model.RiskArea{
		{Area: "team_identity", Description: "anonymous or unverifiable founders"},
		{Area: "contract_safety", Description: "unverified or honeypot contracts"},
	}
	if c.Complexity != model.ComplexitySimple {
		areas = append(areas, model.RiskArea{Area: "impersonation", Description: "name collisions with established projects"})
	}
	return areas
}

func timeBudget(c model.QueryClassification) time.Duration {
	if c.EstimatedTime > 0 {
		return c.EstimatedTime
	}
	return 60 * time.Second
}

func searchTerms(entity, symbol, address string) []string {
	terms := []string{entity}
	if symbol != "" {
		terms = append(terms, symbol)
	}
	if address != "" {
		terms = append(terms, address)
	}
	return terms
}
