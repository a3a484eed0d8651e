package metrics

import (
	"net/http"
	"testing"
	"time"
)

// Ensure NoOpMetrics methods do not panic and global functions delegate without error
func TestNoOpMetricsAndDelegates(t *testing.T) {
	m := &NoOpMetrics{}
	m.RecordForecastFetch("ok", time.Millisecond)
	m.RecordForecastRetry("東京")
	m.RecordCacheOp("weather_forecasts", "hit")
	m.RecordPipelineStage("select_pair", time.Millisecond)
	m.RecordLocationResult(true, "")
	m.SetActiveWorkers(1)
	h := m.Handler()
	if h == nil {
		t.Fatalf("NoOp handler is nil")
	}

	Init(nil) // resets to NoOpMetrics explicitly

	// Delegates
	RecordForecastFetch("hit", time.Millisecond)
	RecordForecastRetry("大阪")
	RecordCacheOp("comments", "miss")
	RecordPipelineStage("fetch_forecast", time.Millisecond)
	RecordLocationResult(false, "weather_fetch")
	SetActiveWorkers(2)

	// Handler should be NotFound
	req, _ := http.NewRequest("GET", "/metrics", nil)
	rw := httptestResponseRecorder{}
	Handler().ServeHTTP(&rw, req)
	if rw.status == 0 {
		t.Errorf("expected status set, got 0")
	}
}

// fakeMetrics lets TestInitInstallsCustomImplementation verify Init wires
// a caller-supplied Metrics through to the package-level helpers.
type fakeMetrics struct {
	forecastFetches int
	lastOutcome     string
}

func (f *fakeMetrics) RecordForecastFetch(outcome string, duration time.Duration) {
	f.forecastFetches++
	f.lastOutcome = outcome
}
func (f *fakeMetrics) RecordForecastRetry(location string)                      {}
func (f *fakeMetrics) RecordCacheOp(cacheName, op string)                       {}
func (f *fakeMetrics) RecordPipelineStage(stage string, duration time.Duration) {}
func (f *fakeMetrics) RecordLocationResult(success bool, errorType string)     {}
func (f *fakeMetrics) SetActiveWorkers(count float64)                          {}
func (f *fakeMetrics) Handler() http.Handler                                   { return http.NotFoundHandler() }

func TestInitInstallsCustomImplementation(t *testing.T) {
	defer Init(nil)

	fake := &fakeMetrics{}
	Init(fake)
	RecordForecastFetch("retried", time.Millisecond)

	if fake.forecastFetches != 1 || fake.lastOutcome != "retried" {
		t.Fatalf("expected custom Metrics to receive the call, got %+v", fake)
	}
}

type httptestResponseRecorder struct {
	header http.Header
	status int
}

func (w *httptestResponseRecorder) Header() http.Header {
	if w.header == nil {
		w.header = make(http.Header)
	}
	return w.header
}
func (w *httptestResponseRecorder) Write(b []byte) (int, error) { return len(b), nil }
func (w *httptestResponseRecorder) WriteHeader(code int)        { w.status = code }
