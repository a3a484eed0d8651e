// Package metrics defines the in-process counters the batch pipeline
// reports against, matching the teacher's internal/metrics dependency-
// injected interface + no-op default shape, resectioned from HTTP/DB/
// alert counters to forecast-fetch, cache, and per-location pipeline
// counters.
package metrics

import (
	"net/http"
	"time"
)

// Metrics is the dependency-injection surface every component records
// against. NoOpMetrics satisfies it with zero overhead when METRICS_ENABLED
// is false (config.MetricsConfig); a Prometheus-backed implementation can
// be swapped in later without touching call sites.
type Metrics interface {
	RecordForecastFetch(outcome string, duration time.Duration)
	RecordForecastRetry(location string)
	RecordCacheOp(cacheName, op string)
	RecordPipelineStage(stage string, duration time.Duration)
	RecordLocationResult(success bool, errorType string)
	SetActiveWorkers(count float64)
	Handler() http.Handler
}

// NoOpMetrics discards everything. The zero value is ready to use.
type NoOpMetrics struct{}

func (m *NoOpMetrics) RecordForecastFetch(outcome string, duration time.Duration) {}
func (m *NoOpMetrics) RecordForecastRetry(location string)                       {}
func (m *NoOpMetrics) RecordCacheOp(cacheName, op string)                        {}
func (m *NoOpMetrics) RecordPipelineStage(stage string, duration time.Duration)  {}
func (m *NoOpMetrics) RecordLocationResult(success bool, errorType string)       {}
func (m *NoOpMetrics) SetActiveWorkers(count float64)                            {}
func (m *NoOpMetrics) Handler() http.Handler                                     { return http.NotFoundHandler() }

// global is the process-wide instance every package-level helper
// delegates to, matching the teacher's singleton pattern.
var global Metrics = &NoOpMetrics{}

// Init installs the active Metrics implementation. Called once from
// cmd/weathercommentd/main.go; a nil impl resets to NoOpMetrics.
func Init(impl Metrics) {
	if impl == nil {
		impl = &NoOpMetrics{}
	}
	global = impl
}

// Handler returns the metrics scrape handler.
func Handler() http.Handler {
	return global.Handler()
}

// RecordForecastFetch records one ForecastClient.fetch outcome
// (forecast.Client reports "cache_hit", "ok" or "error") and its
// wall-clock duration.
func RecordForecastFetch(outcome string, duration time.Duration) {
	global.RecordForecastFetch(outcome, duration)
}

// RecordForecastRetry records one retry attempt against a location's
// forecast fetch (spec.md §8 scenario 2's retry_count_forecast).
func RecordForecastRetry(location string) {
	global.RecordForecastRetry(location)
}

// RecordCacheOp records one cache operation ("hit", "miss", "set",
// "evict_lru", "evict_ttl", "evict_memory_pressure") against a named
// cache.
func RecordCacheOp(cacheName, op string) {
	global.RecordCacheOp(cacheName, op)
}

// RecordPipelineStage records one DAG stage's wall-clock duration,
// mirroring what PipelineState.node_execution_times already tracks
// per-location, aggregated here across locations.
func RecordPipelineStage(stage string, duration time.Duration) {
	global.RecordPipelineStage(stage, duration)
}

// RecordLocationResult records one finished LocationResult's outcome.
func RecordLocationResult(success bool, errorType string) {
	global.RecordLocationResult(success, errorType)
}

// SetActiveWorkers reports the current BatchOrchestrator worker-pool
// occupancy.
func SetActiveWorkers(count float64) {
	global.SetActiveWorkers(count)
}
