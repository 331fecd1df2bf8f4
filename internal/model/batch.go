package model

import "time"

// BatchRequest is one entity to research within a batch run
type BatchRequest struct {
	Entity   string     `json:"entity"`
	Symbol   string     `json:"symbol,omitempty"`
	Address  string     `json:"address,omitempty"`
	Priority int        `json:"priority,omitempty"`
	Hint     Complexity `json:"hint,omitempty"`
}

// BatchOutcome is the per-entity result inside a batch report
type BatchOutcome struct {
	Entity     string        `json:"entity"`
	Success    bool          `json:"success"`
	Confidence float64       `json:"confidence"`
	DataPoints int           `json:"data_points"`
	Grade      string        `json:"grade,omitempty"`
	Reason     string        `json:"reason,omitempty"`
	Latency    time.Duration `json:"latency"`
	Cost       float64       `json:"cost"`
	Attempts   int           `json:"attempts"`
	Skipped    bool          `json:"skipped,omitempty"`
}

// BatchSummary aggregates a finished batch
type BatchSummary struct {
	Total          int           `json:"total"`
	Succeeded      int           `json:"succeeded"`
	Failed         int           `json:"failed"`
	Skipped        int           `json:"skipped"`
	Retried        int           `json:"retried"`
	AverageLatency time.Duration `json:"average_latency"`
	AvgConfidence  float64       `json:"avg_confidence"`
	TotalCost      float64       `json:"total_cost"`
}

// BatchReport is the terminal output of the batch coordinator
type BatchReport struct {
	BatchID    string         `json:"batch_id"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Outcomes   []BatchOutcome `json:"outcomes"`
	Summary    BatchSummary   `json:"summary"`
}
