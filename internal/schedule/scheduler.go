package schedule

import (
	"context"
	"sync"
	"time"

	"github.com/tokenlens/tokenlens/internal/cache"
	"github.com/tokenlens/tokenlens/internal/model"
	"github.com/tokenlens/tokenlens/internal/resilience"
	"github.com/tokenlens/tokenlens/internal/source"
)

// Outcome is the settled result of one collection pass
type Outcome struct {
	Findings        model.Findings
	TotalDataPoints int
	ProxyConfidence float64

	// EarlyTerminated means collection already looks saturated and the
	// caller should skip the gate pipeline and adaptive controller.
	EarlyTerminated bool
}

// Scheduler fans out source collection concurrently through the cache and
// the resilience executor. Tasks settle independently: one source failing
// never cancels the others, and every outcome maps to a Finding.
type Scheduler struct {
	registry *source.Registry
	cache    *cache.ConfidenceCache // nil disables caching
	exec     *resilience.Executor
	cfg      model.CollectionConfig

	now func() time.Time
}

// NewScheduler creates a scheduler
func NewScheduler(registry *source.Registry, cc *cache.ConfidenceCache, exec *resilience.Executor, cfg model.CollectionConfig) *Scheduler {
	return &Scheduler{
		registry: registry,
		cache:    cc,
		exec:     exec,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Collect runs every source in the plan concurrently and settles them into
// findings, applying the early-termination rule afterwards.
func (s *Scheduler) Collect(ctx context.Context, plan *model.ResearchPlan, req source.Request) *Outcome {
	return s.collect(ctx, plan.Sources, req)
}

// CollectSources runs one adaptive round over a subset of sources
func (s *Scheduler) CollectSources(ctx context.Context, sources []model.PrioritySource, req source.Request) *Outcome {
	return s.collect(ctx, sources, req)
}

func (s *Scheduler) collect(ctx context.Context, sources []model.PrioritySource, req source.Request) *Outcome {
	// Normalize ids up front and drop duplicates so each Finding slot is
	// written exactly once.
	type task struct {
		id    string
		known bool
	}
	var tasks []task
	seen := map[string]bool{}
	for _, ps := range sources {
		id, ok := ps.SourceID, true
		if normalized, found := source.NormalizeID(ps.SourceID); found {
			id = normalized
		} else {
			ok = false
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		tasks = append(tasks, task{id: id, known: ok})
	}

	results := make([]model.Finding, len(tasks))
	var wg sync.WaitGroup
	for i, tk := range tasks {
		wg.Add(1)
		go func(idx int, tk task) {
			defer wg.Done()
			results[idx] = s.collectOne(ctx, tk.id, tk.known, req)
		}(i, tk)
	}
	wg.Wait()

	findings := make(model.Findings, len(results))
	for _, fd := range results {
		findings[fd.SourceID] = fd
	}

	total := findings.TotalDataPoints()
	proxy := float64(total) / 50
	if proxy > 1 {
		proxy = 1
	}

	return &Outcome{
		Findings:        findings,
		TotalDataPoints: total,
		ProxyConfidence: proxy,
		EarlyTerminated: total >= s.cfg.EarlyTerminationDataPoints && proxy >= s.cfg.EarlyTerminationConfidence,
	}
}

// collectOne resolves one source: cache, then the wrapped collector. Every
// failure path degrades to found=false; errors never escape to the caller.
func (s *Scheduler) collectOne(ctx context.Context, id string, known bool, req source.Request) model.Finding {
	notFound := model.Finding{SourceID: id, Found: false, CollectedAt: s.now()}

	if !known {
		return notFound
	}

	if s.cache != nil {
		if rec, hit := s.cache.Get(req.Entity, id); hit {
			return model.Finding{
				SourceID:    id,
				Found:       true,
				Data:        rec.Data,
				Quality:     model.Quality(rec.Quality),
				DataPoints:  rec.DataPoints,
				CollectedAt: rec.StoredAt,
				FromCache:   true,
			}
		}
	}

	collector, ok := s.registry.Lookup(id)
	if !ok {
		return notFound
	}

	callCtx := ctx
	if s.cfg.SourceTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.cfg.SourceTimeout)
		defer cancel()
	}

	out, err := s.exec.Call(callCtx, id, func(ctx context.Context) (any, error) {
		return collector.Collect(ctx, req)
	})
	if err != nil {
		notFound.Error = err.Error()
		return notFound
	}

	result, _ := out.(*source.Result)
	if result == nil {
		// Collectors signal "nothing there" with a nil result
		return notFound
	}

	finding := model.Finding{
		SourceID:    id,
		Found:       true,
		Data:        result.Data,
		Quality:     result.Quality,
		DataPoints:  result.DataPoints,
		CollectedAt: s.now(),
	}

	if s.cache != nil {
		_ = s.cache.Set(req.Entity, id, cache.Record{
			Data:       result.Data,
			DataPoints: result.DataPoints,
			Quality:    string(result.Quality),
			Confidence: resultConfidence(result),
		})
	}
	return finding
}

// resultConfidence derives the cache confidence for a collected result; it
// drives the confidence-weighted TTL.
func resultConfidence(r *source.Result) float64 {
	base := 0.35
	switch r.Quality {
	case model.QualityHigh:
		base = 0.85
	case model.QualityMedium:
		base = 0.6
	}
	if r.DataPoints >= 10 {
		base += 0.05
	}
	if base > 0.95 {
		base = 0.95
	}
	return base
}
