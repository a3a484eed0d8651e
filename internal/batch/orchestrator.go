// Package batch implements C8, the BatchOrchestrator: a bounded worker
// pool of PipelineExecutors over a list of locations. Grounded on the
// teacher's internal/pipeline.Pipeline (semaphore.Weighted worker cap,
// rate-limited fan-out, per-task recovery), repurposed from
// "poll N RSS sources forever" to "run N per-location pipelines once".
package batch

import (
	"context"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	apperrors "github.com/sakamo-wni/weathercomment/internal/apperrors"
	"github.com/sakamo-wni/weathercomment/internal/domain"
	"github.com/sakamo-wni/weathercomment/internal/location"
	"github.com/sakamo-wni/weathercomment/internal/logger"
	"github.com/sakamo-wni/weathercomment/internal/metrics"
	"github.com/sakamo-wni/weathercomment/internal/pipeline"
)

// maxWorkers bounds W regardless of location count or CPU count
// (spec.md §4.7: "min(..., 16, len(locations))").
const maxWorkers = 16

// ProgressFunc is invoked once per completed location, per spec.md §4.7:
// "Invoked when each per-location task completes (not when it starts)".
// A panicking or erroring callback must never abort the batch; callers
// are expected to recover internally, but Orchestrator also isolates it.
type ProgressFunc func(completedIndex, total int, locationName string)

// ForecastFetcher is the narrow collaborator the pre-fetch optimization
// mode needs; satisfied by *forecast.Client.
type ForecastFetcher interface {
	GetForecastByLocation(ctx context.Context, loc domain.Location) (domain.ForecastCollection, error)
}

// Orchestrator is C8.
type Orchestrator struct {
	Index    *location.Index
	Forecast ForecastFetcher

	// NewExecutor builds a fresh *pipeline.Executor per location; batch
	// tests substitute this to avoid wiring real collaborators.
	NewExecutor func() *pipeline.Executor

	// Deterministic, when true, preserves input order in BatchResult.Results
	// rather than completion order (spec.md §4.7).
	Deterministic bool

	// PreFetch, when true, fetches every location's forecast concurrently
	// before any pipeline starts, and passes it in as pre_fetched_weather
	// so each executor skips its fetch_forecast stage (spec.md §4.7).
	PreFetch bool

	// PerLocationTimeout bounds one location's total pipeline budget
	// (spec.md §5, default 30s); zero disables the bound.
	PerLocationTimeout time.Duration

	nowFn func() time.Time
}

// workerCount computes W = min(max(2*cpu,1), 16, len(locations)), the
// io_bound_heuristic from spec.md §4.7.
func workerCount(numLocations int) int {
	w := runtime.NumCPU() * 2
	if w < 1 {
		w = 1
	}
	if w > maxWorkers {
		w = maxWorkers
	}
	if w > numLocations {
		w = numLocations
	}
	if w < 1 {
		w = 1
	}
	return w
}

type indexedResult struct {
	index  int
	result domain.LocationResult
}

// Generate is the Batch API (spec.md §6): runs one PipelineExecutor per
// resolved location, bounded to W concurrent workers, and never returns a
// raw error — every fault is isolated into that location's LocationResult.
func (o *Orchestrator) Generate(ctx context.Context, locations []string, llmProvider string, target time.Time, progressCb ProgressFunc) domain.BatchResult {
	start := time.Now()
	if len(locations) == 0 {
		return domain.BatchResult{}
	}

	resolved := make([]domain.Location, len(locations))
	unresolved := make([]bool, len(locations))
	for i, token := range locations {
		loc, ok := ParseLocation(o.Index, token)
		resolved[i] = loc
		unresolved[i] = !ok
		if !ok {
			// Preserve the raw token as the displayed location name for an
			// unresolved entry, matching spec.md §6's location_not_found case.
			resolved[i] = domain.Location{Name: token}
		}
	}

	preFetched := make([]*domain.ForecastCollection, len(locations))
	if o.PreFetch && o.Forecast != nil {
		o.prefetchAll(ctx, resolved, unresolved, preFetched)
	}

	sem := semaphore.NewWeighted(int64(workerCount(len(locations))))

	var mu sync.Mutex
	var completed int
	var active int64
	results := make([]indexedResult, 0, len(locations))

	var wg sync.WaitGroup
	for i := range locations {
		i := i
		if err := sem.Acquire(ctx, 1); err != nil {
			// Context already cancelled: remaining queued tasks are dropped
			// per spec.md §5's "batch-level cancellation is advisory".
			break
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)

			n := atomic.AddInt64(&active, 1)
			metrics.SetActiveWorkers(float64(n))
			defer func() { metrics.SetActiveWorkers(float64(atomic.AddInt64(&active, -1))) }()

			res := o.runOne(ctx, resolved[i], unresolved[i], llmProvider, target, preFetched[i])

			mu.Lock()
			completed++
			results = append(results, indexedResult{index: i, result: res})
			done := completed
			mu.Unlock()

			o.reportProgress(progressCb, done-1, len(locations), res.Location)
		}()
	}
	wg.Wait()

	if o.Deterministic {
		sort.Slice(results, func(a, b int) bool { return results[a].index < results[b].index })
	}

	out := domain.BatchResult{
		TotalCount:       len(locations),
		Results:          make([]domain.LocationResult, len(results)),
		ProcessingTimeMS: time.Since(start).Milliseconds(),
	}
	for i, r := range results {
		out.Results[i] = r.result
		if r.result.Success {
			out.SuccessCount++
		} else {
			out.FailedCount++
		}
	}
	return out
}

// reportProgress invokes the callback and isolates a panicking callback
// from aborting the batch (spec.md §4.7: "Callback errors must not abort
// the batch").
func (o *Orchestrator) reportProgress(cb ProgressFunc, completedIndex, total int, name string) {
	if cb == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("progress callback panicked, ignoring", "recovered", r)
		}
	}()
	cb(completedIndex, total, name)
}

// prefetchAll fans out GetForecastByLocation for every resolvable location
// concurrently, before any pipeline starts (spec.md §4.7's pre-fetch mode).
// A location whose forecast fails to pre-fetch simply runs its own
// fetch_forecast stage instead, matching the no-op fallback a failed
// prefetch implies.
func (o *Orchestrator) prefetchAll(ctx context.Context, locs []domain.Location, unresolved []bool, out []*domain.ForecastCollection) {
	g, gctx := errgroup.WithContext(ctx)
	for i := range locs {
		i := i
		if unresolved[i] || !locs[i].HasCoordinates {
			continue
		}
		g.Go(func() error {
			collection, err := o.Forecast.GetForecastByLocation(gctx, locs[i])
			if err != nil {
				logger.Warn("pre-fetch failed, falling back to per-pipeline fetch", "location", locs[i].Name, "error", err)
				return nil
			}
			out[i] = &collection
			return nil
		})
	}
	_ = g.Wait()
}

func (o *Orchestrator) runOne(ctx context.Context, loc domain.Location, unresolved bool, provider string, target time.Time, preFetched *domain.ForecastCollection) domain.LocationResult {
	if unresolved {
		return domain.LocationResult{
			Location:  loc.Name,
			Success:   false,
			Error:     "location_not_found",
			ErrorType: string(apperrors.LocationNotFound),
		}
	}

	runCtx := ctx
	var cancel context.CancelFunc
	if o.PerLocationTimeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, o.PerLocationTimeout)
		defer cancel()
	}

	exec := o.NewExecutor()
	done := make(chan domain.LocationResult, 1)
	go func() {
		done <- exec.Run(runCtx, loc, target, provider, false, preFetched)
	}()

	select {
	case res := <-done:
		return res
	case <-runCtx.Done():
		return domain.LocationResult{
			Location:  loc.Name,
			Success:   false,
			Error:     "per-location budget exceeded: " + runCtx.Err().Error(),
			ErrorType: string(apperrors.TimeoutError),
		}
	}
}
