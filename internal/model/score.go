package model

// ScoreBreakdown shows the capped sub-scores that sum to the total
type ScoreBreakdown struct {
	Coverage    float64 `json:"coverage"`    // 0-40
	Reliability float64 `json:"reliability"` // 0-40
	Recency     float64 `json:"recency"`     // 0-20
}

// ResearchScore is derived from the current findings set on demand and is
// never mutated in place.
type ResearchScore struct {
	Total           float64        `json:"total"` // 0-100
	Grade           string         `json:"grade"` // A-F
	Confidence      float64        `json:"confidence"`
	Breakdown       ScoreBreakdown `json:"breakdown"`
	MissingCritical []string       `json:"missing_critical,omitempty"`
	Recommendations []string       `json:"recommendations,omitempty"`
	TotalDataPoints int            `json:"total_data_points"`
	PassesThreshold bool           `json:"passes_threshold"`
}
