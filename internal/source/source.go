package source

import (
	"context"
	"sync"

	"github.com/tokenlens/tokenlens/internal/model"
)

// Request identifies the entity a collector should look up
type Request struct {
	Entity      string
	Symbol      string
	Address     string
	SiteURL     string // known website, when the caller has one
	SearchTerms []string
	Aliases     []string
}

// Result is a collector's raw output. A nil Result with a nil error means
// the source had nothing for this entity.
type Result struct {
	Data       map[string]any
	DataPoints int
	Quality    model.Quality
}

// Collector fetches one source for one entity. Implementations live outside
// the orchestration core and are injected through the registry.
type Collector interface {
	ID() string
	Collect(ctx context.Context, req Request) (*Result, error)
}

// CollectorFunc adapts a function to the Collector interface
type CollectorFunc struct {
	SourceID string
	Fn       func(ctx context.Context, req Request) (*Result, error)
}

// ID returns the source id
func (c CollectorFunc) ID() string { return c.SourceID }

// Collect invokes the wrapped function
func (c CollectorFunc) Collect(ctx context.Context, req Request) (*Result, error) {
	return c.Fn(ctx, req)
}

// Registry maps source ids to collectors
type Registry struct {
	mu         sync.RWMutex
	collectors map[string]Collector
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{collectors: make(map[string]Collector)}
}

// Register adds or replaces the collector for its id
func (r *Registry) Register(c Collector) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.collectors[c.ID()] = c
}

// Lookup returns the collector for a (normalized) source id
func (r *Registry) Lookup(id string) (Collector, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.collectors[id]
	return c, ok
}

// IDs returns the registered source ids
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.collectors))
	for id := range r.collectors {
		ids = append(ids, id)
	}
	return ids
}
