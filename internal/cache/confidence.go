package cache

import (
	"encoding/json"
	"time"
)

// Record is what the confidence cache stores per (entity, source)
type Record struct {
	Data            map[string]any `json:"data"`
	DataPoints      int            `json:"data_points"`
	Quality         string         `json:"quality,omitempty"`
	Confidence      float64        `json:"confidence"`
	StoredAt        time.Time      `json:"stored_at"`
	RefreshInterval time.Duration  `json:"refresh_interval"`
}

// ConfidenceCache stores collection results keyed by (entity, source) with a
// TTL derived from the result's confidence: trustworthy data stays cached
// longer, shaky data is re-collected sooner.
type ConfidenceCache struct {
	store Store
	now   func() time.Time
}

// NewConfidenceCache wraps a byte store
func NewConfidenceCache(store Store) *ConfidenceCache {
	return &ConfidenceCache{store: store, now: time.Now}
}

// RefreshInterval is a step function of confidence
func RefreshInterval(confidence float64) time.Duration {
	switch {
	case confidence >= 0.8:
		return 60 * time.Minute
	case confidence >= 0.6:
		return 30 * time.Minute
	case confidence >= 0.4:
		return 15 * time.Minute
	default:
		return 5 * time.Minute
	}
}

// Get returns the cached record for (entity, source). An entry older than
// its refresh interval is treated as absent even if the underlying store
// still holds it.
func (c *ConfidenceCache) Get(entity, source string) (*Record, bool) {
	data, found := c.store.Get(Key(entity, source))
	if !found {
		return nil, false
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		_ = c.store.Delete(Key(entity, source))
		return nil, false
	}
	if c.now().Sub(rec.StoredAt) > rec.RefreshInterval {
		_ = c.store.Delete(Key(entity, source))
		return nil, false
	}
	return &rec, true
}

// Set stores a record with a confidence-derived TTL
func (c *ConfidenceCache) Set(entity, source string, rec Record) error {
	rec.StoredAt = c.now()
	rec.RefreshInterval = RefreshInterval(rec.Confidence)

	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return c.store.Set(Key(entity, source), data, rec.RefreshInterval)
}

// Invalidate drops the entry for (entity, source)
func (c *ConfidenceCache) Invalidate(entity, source string) error {
	return c.store.Delete(Key(entity, source))
}
