package model

import "time"

// Tier is the priority classification of a data source
type Tier int

const (
	TierCritical   Tier = 1 // tier-1: required for a trustworthy result
	TierImportant  Tier = 2 // tier-2: materially improves the score
	TierSupporting Tier = 3 // tier-3: nice to have
)

// PrioritySource is one source the scheduler should collect, in plan order
type PrioritySource struct {
	SourceID       string   `json:"source_id"`
	Tier           Tier     `json:"tier"`
	SearchTerms    []string `json:"search_terms,omitempty"`
	ExpectedFields []string `json:"expected_fields,omitempty"`
}

// RiskArea flags a concern the research should pay attention to
type RiskArea struct {
	Area        string `json:"area"`
	Description string `json:"description,omitempty"`
}

// SuccessCriteria define when a research run counts as complete.
// An adjusted plan may reorder or shrink sources but never these.
type SuccessCriteria struct {
	MinimumSources int      `json:"minimum_sources"`
	CriticalFields []string `json:"critical_fields"`
	RedFlagChecks  []string `json:"red_flag_checks"`
}

// ResearchPlan is the immutable output of the planner for one run. The
// adaptive controller may supersede it with an adjusted copy.
type ResearchPlan struct {
	Entity      string           `json:"entity"`
	ProjectType ProjectType      `json:"project_type"`
	Sources     []PrioritySource `json:"sources"`
	RiskAreas   []RiskArea       `json:"risk_areas,omitempty"`
	Aliases     []string         `json:"aliases,omitempty"`
	TimeBudget  time.Duration    `json:"time_budget"`
	Criteria    SuccessCriteria  `json:"criteria"`
}

// SourceIDs returns the plan's source ids in priority order
func (p *ResearchPlan) SourceIDs() []string {
	ids := make([]string, len(p.Sources))
	for i, s := range p.Sources {
		ids[i] = s.SourceID
	}
	return ids
}
