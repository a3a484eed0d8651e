// Package pipeline implements C6 (PipelineStage) and C7 (PipelineExecutor):
// the small fixed per-location DAG from spec.md §4.6 — input, a parallel
// fetch_forecast/retrieve_comments fan-out, select_pair under a bounded
// retry guard, generate, and output. Grounded on the teacher's
// internal/pipeline.go for the semaphore/rate-limiter/retry-loop idiom
// and internal/classifier.go's keyword-substring technique, repurposed
// here as the fault classifier instead of alert severity.
package pipeline

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sakamo-wni/weathercomment/internal/domain"
	"github.com/sakamo-wni/weathercomment/internal/evaluator"
	"github.com/sakamo-wni/weathercomment/internal/llm"
	"github.com/sakamo-wni/weathercomment/internal/logger"
	"github.com/sakamo-wni/weathercomment/internal/metrics"
)

// MaxRetryCount bounds the select_pair retry guard (spec.md §4.6).
const MaxRetryCount = 5

// FanoutDeadline bounds the parallel fetch_forecast/retrieve_comments pair.
const FanoutDeadline = 30 * time.Second

// CommentLimit is the default candidate pool size handed to select_pair.
const CommentLimit = 50

// ForecastFetcher is the collaborator interface for C4, narrowed to what
// the pipeline needs.
type ForecastFetcher interface {
	GetForecastByLocation(ctx context.Context, loc domain.Location) (domain.ForecastCollection, error)
}

// CommentSource is the collaborator interface for C5.
type CommentSource interface {
	GetRecent(ctx context.Context, limit int) []domain.ReferenceComment
}

// Executor is C7: runs one location through the DAG in spec.md §4.6.
type Executor struct {
	Forecast ForecastFetcher
	Comments CommentSource
	Gen      llm.Generator

	Mode        evaluator.Mode
	Weights     map[string]float64
	UnifiedMode bool

	nowFn func() time.Time
}

// NewExecutor constructs an Executor with its three collaborators.
func NewExecutor(forecast ForecastFetcher, comments CommentSource, gen llm.Generator, mode evaluator.Mode) *Executor {
	return &Executor{Forecast: forecast, Comments: comments, Gen: gen, Mode: mode, nowFn: time.Now}
}

// Run executes the full DAG for one location and never returns a raw
// error: every fault is classified into a LocationResult, matching
// spec.md §4.6 ("It does not raise").
func (e *Executor) Run(ctx context.Context, loc domain.Location, target time.Time, provider string, excludePrevious bool, preFetched *domain.ForecastCollection) domain.LocationResult {
	state := domain.NewPipelineState(loc.Name, target, provider, excludePrevious)
	e.runInput(state)

	if preFetched != nil {
		state.WeatherData = preFetched
		e.runRetrieveComments(ctx, state)
	} else {
		e.runFanout(ctx, loc, state)
	}

	if state.WeatherData == nil && len(state.Errors) > 0 {
		return e.finish(state, false)
	}

	e.runSelectPairWithRetry(ctx, state)
	e.runGenerate(state)
	return e.finish(state, true)
}

func (e *Executor) runInput(state *domain.PipelineState) {
	start := time.Now()
	state.WorkflowStartTime = start
	state.GenerationMetadata["node_execution_times"] = map[string]int64{}
	state.RecordStageTime("input", time.Since(start))
	metrics.RecordPipelineStage("input", time.Since(start))
}

// runFanout runs fetch_forecast and retrieve_comments concurrently under
// a shared 30s deadline, per spec.md §4.6's "Parallel fan-out".
func (e *Executor) runFanout(ctx context.Context, loc domain.Location, state *domain.PipelineState) {
	fanoutCtx, cancel := context.WithTimeout(ctx, FanoutDeadline)
	defer cancel()

	g, gctx := errgroup.WithContext(fanoutCtx)
	g.Go(func() error {
		start := time.Now()
		collection, err := e.Forecast.GetForecastByLocation(gctx, loc)
		state.RecordStageTime("fetch_forecast", time.Since(start))
		metrics.RecordPipelineStage("fetch_forecast", time.Since(start))
		if err != nil {
			state.AddError("fetch_forecast: " + err.Error())
			return err
		}
		state.WeatherData = &collection
		return nil
	})
	g.Go(func() error {
		e.runRetrieveComments(gctx, state)
		return nil
	})

	if err := g.Wait(); err != nil {
		if fanoutCtx.Err() != nil {
			state.AddError("fan-out deadline exceeded: " + fanoutCtx.Err().Error())
		}
	}
}

func (e *Executor) runRetrieveComments(ctx context.Context, state *domain.PipelineState) {
	start := time.Now()
	comments := e.Comments.GetRecent(ctx, CommentLimit)
	state.PastComments = comments
	state.RecordStageTime("retrieve_comments", time.Since(start))
	metrics.RecordPipelineStage("retrieve_comments", time.Since(start))
}

// runSelectPairWithRetry implements the bounded retry-guard loop:
// "while !is_valid && retry_count < MAX_RETRY_COUNT: retry; else continue"
// (spec.md §9's decision to spec this as a loop, not a graph edge).
func (e *Executor) runSelectPairWithRetry(ctx context.Context, state *domain.PipelineState) {
	stageName := "select_pair"
	if e.UnifiedMode {
		stageName = "unified"
	}

	for {
		start := time.Now()
		result, err := e.selectPairOnce(ctx, state)
		state.RecordStageTime(stageName, time.Since(start))
		metrics.RecordPipelineStage(stageName, time.Since(start))

		if err != nil {
			state.AddError("select_pair: " + err.Error())
			return
		}

		state.SelectedPair = &result.Pair
		state.FinalComment = result.FinalText
		if result.ValidationResult != nil {
			state.ValidationResult = result.ValidationResult
		} else {
			v := evaluator.Evaluate(evaluator.EvalContext{
				Pair:      result.Pair,
				Forecast:  e.nearestForecast(state),
				FinalText: result.FinalText,
			}, e.Mode, e.Weights)
			state.ValidationResult = &v
		}

		if state.ValidationResult.IsValid {
			return
		}
		if state.RetryCount >= MaxRetryCount {
			return
		}
		state.RetryCount++
		logger.Debug("select_pair validation failed, retrying", "location", state.LocationName, "retry_count", state.RetryCount, "reasons", state.ValidationResult.Reasons)
	}
}

func (e *Executor) selectPairOnce(ctx context.Context, state *domain.PipelineState) (llm.Result, error) {
	wx := llm.WeatherContext{
		Forecast: e.nearestForecast(state),
	}
	return e.Gen.SelectAndGenerate(ctx, wx, state.PastComments)
}

func (e *Executor) nearestForecast(state *domain.PipelineState) domain.Forecast {
	if state.WeatherData == nil {
		return domain.Forecast{}
	}
	f, _, ok := state.WeatherData.NearestTo(state.TargetDatetime)
	if !ok {
		return domain.Forecast{}
	}
	return f
}

// runGenerate finalizes final_comment. In unified mode, select_pair
// already produced it, so this is a no-op collapse point (spec.md §4.6).
func (e *Executor) runGenerate(state *domain.PipelineState) {
	if e.UnifiedMode {
		return
	}
	start := time.Now()
	state.RecordStageTime("generate", time.Since(start))
	metrics.RecordPipelineStage("generate", time.Since(start))
}

func (e *Executor) finish(state *domain.PipelineState, attempted bool) domain.LocationResult {
	start := time.Now()
	meta := domain.ExtractMetadata(state)
	state.RecordStageTime("output", time.Since(start))
	metrics.RecordPipelineStage("output", time.Since(start))
	meta["node_execution_times"] = state.NodeExecutionTimes()

	success := attempted && state.FinalComment != "" && len(state.Errors) == 0
	result := domain.LocationResult{
		Location:           state.LocationName,
		Success:            success,
		GenerationMetadata: meta,
	}
	if success {
		result.Comment = state.FinalComment
		if state.SelectedPair != nil {
			result.AdviceComment = state.SelectedPair.AdviceComment.Text
		}
	} else if len(state.Errors) > 0 {
		result.Error = state.Errors[len(state.Errors)-1]
		result.ErrorType = string(classifyError(result.Error))
	}
	metrics.RecordLocationResult(result.Success, result.ErrorType)
	return result
}
