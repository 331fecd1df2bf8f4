package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tokenlens/tokenlens/internal/model"
	"github.com/tokenlens/tokenlens/internal/research"
)

// Runner executes the research pipeline for one entity
type Runner interface {
	Research(ctx context.Context, req research.Request) *research.Result
}

// researchJob is one entity inside a wave
type researchJob struct {
	index  int
	req    model.BatchRequest
	runner Runner
}

// researchOutcome is the settled result of one job
type researchOutcome struct {
	index   int
	result  *research.Result
	latency time.Duration
}

// GetError reports the entity's failure reason, nil on success
func (o *researchOutcome) GetError() error {
	if o.result.Success {
		return nil
	}
	return fmt.Errorf("%s: %s", o.result.Entity, o.result.Reason)
}

// Execute runs the pipeline for the job's entity
func (j *researchJob) Execute(ctx context.Context) Result {
	start := time.Now()
	result := j.runner.Research(ctx, research.Request{
		Entity:  j.req.Entity,
		Symbol:  j.req.Symbol,
		Address: j.req.Address,
	})
	return &researchOutcome{
		index:   j.index,
		result:  result,
		latency: time.Since(start),
	}
}

// Coordinator runs many entity pipelines in fixed-size waves under a
// bounded concurrency ceiling. One entity's failure never affects
// another's in-flight work.
type Coordinator struct {
	runner Runner
	cfg    model.BatchConfig

	sleep func(time.Duration)
}

// NewCoordinator creates a batch coordinator
func NewCoordinator(runner Runner, cfg model.BatchConfig) *Coordinator {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 3
	}
	return &Coordinator{
		runner: runner,
		cfg:    cfg,
		sleep:  time.Sleep,
	}
}

// Run processes the batch: waves first, then optional wave-by-wave retries
// of the failures, then the aggregate summary.
func (c *Coordinator) Run(ctx context.Context, requests []model.BatchRequest) *model.BatchReport {
	report := &model.BatchReport{
		BatchID:   uuid.NewString(),
		StartedAt: time.Now(),
	}

	if c.cfg.MaxCost > 0 {
		requests = byComplexity(requests)
	}

	outcomes := make([]model.BatchOutcome, len(requests))
	var runningCost float64

	run := make([]int, len(requests))
	for i := range requests {
		run[i] = i
	}

	retriedEntities := map[int]bool{}
	c.runWaves(ctx, requests, run, outcomes, &runningCost, 1)

	// Failed entities are retried wave-by-wave, replacing their outcome
	// in place. Skipped entities are never retried.
	for attempt := 0; attempt < c.cfg.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			break
		}
		var failed []int
		for _, i := range run {
			if !outcomes[i].Success && !outcomes[i].Skipped {
				failed = append(failed, i)
			}
		}
		if len(failed) == 0 {
			break
		}
		for _, i := range failed {
			retriedEntities[i] = true
		}
		c.sleep(c.cfg.WaveDelay)
		c.runWaves(ctx, requests, failed, outcomes, &runningCost, attempt+2)
	}

	// Entities whose wave never ran (cancellation mid-batch) settle as
	// failures rather than empty outcomes.
	for i := range outcomes {
		if outcomes[i].Entity == "" {
			reason := "batch cancelled"
			if err := ctx.Err(); err != nil {
				reason = err.Error()
			}
			outcomes[i] = model.BatchOutcome{Entity: requests[i].Entity, Reason: reason}
		}
	}

	report.Outcomes = outcomes
	report.Summary = summarize(outcomes, len(retriedEntities))
	report.FinishedAt = time.Now()
	return report
}

// runWaves executes the given request indices in waves of Concurrency,
// stopping admission once the running cost crosses the ceiling or the
// caller's context is cancelled.
func (c *Coordinator) runWaves(ctx context.Context, requests []model.BatchRequest, indices []int, outcomes []model.BatchOutcome, runningCost *float64, attempt int) {
	for start := 0; start < len(indices); start += c.cfg.Concurrency {
		if ctx.Err() != nil {
			return
		}
		if c.cfg.MaxCost > 0 && *runningCost >= c.cfg.MaxCost {
			for _, i := range indices[start:] {
				if outcomes[i].Entity == "" {
					outcomes[i] = model.BatchOutcome{Entity: requests[i].Entity, Skipped: true, Reason: "cost ceiling reached"}
				}
			}
			return
		}
		end := start + c.cfg.Concurrency
		if end > len(indices) {
			end = len(indices)
		}
		wave := indices[start:end]

		pool := NewPoolContext(ctx, len(wave))
		pool.Start()
		for _, i := range wave {
			pool.Submit(&researchJob{index: i, req: requests[i], runner: c.runner})
		}
		for _, res := range pool.Wait() {
			o := res.(*researchOutcome)
			outcomes[o.index] = outcome(requests[o.index].Entity, o, attempt)
			*runningCost += o.result.EstimatedCost
		}

		if end < len(indices) && c.cfg.WaveDelay > 0 {
			c.sleep(c.cfg.WaveDelay)
		}
	}
}

func outcome(entity string, o *researchOutcome, attempt int) model.BatchOutcome {
	return model.BatchOutcome{
		Entity:     entity,
		Success:    o.result.Success,
		Confidence: o.result.Confidence,
		DataPoints: o.result.TotalDataPoints,
		Grade:      o.result.Score.Grade,
		Reason:     o.result.Reason,
		Latency:    o.latency,
		Cost:       o.result.EstimatedCost,
		Attempts:   attempt,
	}
}

// byComplexity orders requests cheapest-first for the cost-ceiling variant
func byComplexity(requests []model.BatchRequest) []model.BatchRequest {
	ordered := make([]model.BatchRequest, len(requests))
	copy(ordered, requests)
	sort.SliceStable(ordered, func(a, b int) bool {
		ra, rb := complexityRank(ordered[a].Hint), complexityRank(ordered[b].Hint)
		if ra != rb {
			return ra < rb
		}
		return ordered[a].Priority > ordered[b].Priority
	})
	return ordered
}

func complexityRank(c model.Complexity) int {
	switch c {
	case model.ComplexitySimple:
		return 0
	case model.ComplexityComplex:
		return 2
	default:
		return 1
	}
}

func summarize(outcomes []model.BatchOutcome, retried int) model.BatchSummary {
	summary := model.BatchSummary{Total: len(outcomes), Retried: retried}

	var latencySum time.Duration
	var confidenceSum float64
	ran := 0
	for _, o := range outcomes {
		switch {
		case o.Skipped:
			summary.Skipped++
			continue
		case o.Success:
			summary.Succeeded++
			confidenceSum += o.Confidence
		default:
			summary.Failed++
		}
		ran++
		latencySum += o.Latency
		summary.TotalCost += o.Cost
	}

	if ran > 0 {
		summary.AverageLatency = latencySum / time.Duration(ran)
	}
	if summary.Succeeded > 0 {
		summary.AvgConfidence = confidenceSum / float64(summary.Succeeded)
	}
	return summary
}

// ReadRequests loads batch requests from a file, one entity per line with an
// optional comma-separated symbol. Blank lines, comments, and duplicates are
// dropped.
func ReadRequests(path string) ([]model.BatchRequest, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open batch file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var requests []model.BatchRequest
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		entity, symbol := line, ""
		if idx := strings.Index(line, ","); idx >= 0 {
			entity = strings.TrimSpace(line[:idx])
			symbol = strings.TrimSpace(line[idx+1:])
		}
		key := strings.ToLower(entity)
		if entity == "" || seen[key] {
			continue
		}
		seen[key] = true
		requests = append(requests, model.BatchRequest{Entity: entity, Symbol: symbol})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read batch file: %w", err)
	}
	return requests, nil
}
