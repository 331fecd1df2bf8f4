package model

import "time"

// Quality is the collector's own assessment of a payload
type Quality string

const (
	QualityHigh   Quality = "high"
	QualityMedium Quality = "medium"
	QualityLow    Quality = "low"
)

// Finding is the outcome of collecting one source for one entity. Written
// once per source per run; a re-collection overwrites the slot.
type Finding struct {
	SourceID    string         `json:"source_id"`
	Found       bool           `json:"found"`
	Data        map[string]any `json:"data,omitempty"`
	Quality     Quality        `json:"quality,omitempty"`
	DataPoints  int            `json:"data_points"`
	CollectedAt time.Time      `json:"collected_at"`
	FromCache   bool           `json:"from_cache,omitempty"`
	Error       string         `json:"error,omitempty"`
}

// Findings maps source id to its finding for one research run
type Findings map[string]Finding

// TotalDataPoints sums extracted data points across found sources
func (f Findings) TotalDataPoints() int {
	total := 0
	for _, fd := range f {
		if fd.Found {
			total += fd.DataPoints
		}
	}
	return total
}

// FoundCount returns the number of sources that produced data
func (f Findings) FoundCount() int {
	count := 0
	for _, fd := range f {
		if fd.Found {
			count++
		}
	}
	return count
}

// FoundIDs returns the ids of sources that produced data
func (f Findings) FoundIDs() []string {
	var ids []string
	for id, fd := range f {
		if fd.Found {
			ids = append(ids, id)
		}
	}
	return ids
}

// Merge copies findings from other into f, overwriting existing slots.
// Used when an adaptive round re-collects additional sources.
func (f Findings) Merge(other Findings) {
	for id, fd := range other {
		f[id] = fd
	}
}

// HasField reports whether any found source carries the given data field
func (f Findings) HasField(field string) bool {
	for _, fd := range f {
		if !fd.Found {
			continue
		}
		if _, ok := fd.Data[field]; ok {
			return true
		}
	}
	return false
}
