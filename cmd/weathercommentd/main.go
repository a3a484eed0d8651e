// Command weathercommentd wires every component in spec.md §2's data flow
// into one runnable batch: BatchOrchestrator(locations) -> PipelineExecutor
// per location -> LocationResult -> BatchResult. Grounded on the teacher's
// cmd/supplychain/main.go wiring order (config -> logger -> metrics ->
// storage -> pipeline -> HTTP), resectioned from an always-on alert-polling
// HTTP service to a one-shot batch CLI with a thin ops HTTP surface
// (health + cache stats), since spec.md §1 puts the presentation layer out
// of scope.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/sakamo-wni/weathercomment/config"
	"github.com/sakamo-wni/weathercomment/internal/batch"
	"github.com/sakamo-wni/weathercomment/internal/cache"
	"github.com/sakamo-wni/weathercomment/internal/comments"
	"github.com/sakamo-wni/weathercomment/internal/domain"
	"github.com/sakamo-wni/weathercomment/internal/evaluator"
	"github.com/sakamo-wni/weathercomment/internal/forecast"
	"github.com/sakamo-wni/weathercomment/internal/history"
	"github.com/sakamo-wni/weathercomment/internal/llm"
	"github.com/sakamo-wni/weathercomment/internal/location"
	"github.com/sakamo-wni/weathercomment/internal/logger"
	"github.com/sakamo-wni/weathercomment/internal/metrics"
	"github.com/sakamo-wni/weathercomment/internal/pipeline"
)

// Version information (set by build).
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	locationsFlag := flag.String("locations", "", "semicolon-separated location names or name,lat,lon triples")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("starting weathercommentd", "version", Version, "build_time", BuildTime, "git_commit", GitCommit)

	if cfg.Metrics.Enabled {
		metrics.Init(&metrics.NoOpMetrics{})
	}

	cacheManager := cache.NewManager(cache.MemoryPressureConfig{
		Enabled:           true,
		Interval:          cfg.Cache.MemoryCheckInterval,
		ThresholdFraction: cfg.Cache.MemoryPressureThresholdPct / 100,
	})
	defer cacheManager.Shutdown(context.Background())

	locations, err := location.LoadCatalogue(cfg.Locations.CatalogueFile)
	if err != nil {
		logger.Warn("failed to load location catalogue, continuing with an empty one", "path", cfg.Locations.CatalogueFile, "error", err)
	}
	index := location.Build(locations)

	forecastClient := forecast.New(cfg.Forecast.APIKey,
		forecast.WithCache(cacheManager.GetCache("weather_forecasts"), cache.DefaultCaches["weather_forecasts"].TTL))
	commentRepo := comments.New(cfg.Comments.Directory)
	historyLog := history.New(cfg.HistoryLog.Path)
	statsSnapshot := cache.NewSnapshotWriter(snapshotPath(cfg.HistoryLog.Path), cfg.HistoryLog.MaxRecords)

	orchestrator := &batch.Orchestrator{
		Index:    index,
		Forecast: forecastClient,
		NewExecutor: func() *pipeline.Executor {
			exec := pipeline.NewExecutor(forecastClient, commentRepo, &llm.NullGenerator{}, evaluator.Mode(cfg.Evaluation.Mode))
			exec.UnifiedMode = cfg.Batch.UnifiedMode
			return exec
		},
		Deterministic:      cfg.Batch.Deterministic,
		PreFetch:           cfg.Batch.PreFetch,
		PerLocationTimeout: cfg.Batch.PerLocationTimeout,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Server.Port > 0 {
		go runOpsServer(ctx, cfg, cacheManager)
	}

	if *locationsFlag != "" {
		runBatch(ctx, orchestrator, historyLog, cacheManager, statsSnapshot, *locationsFlag, cfg.Evaluation.Mode)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down weathercommentd")
}

// snapshotPath derives the cache-stats snapshot file path from the
// history log path (spec.md §6: a sibling append-only artifact).
func snapshotPath(historyPath string) string {
	if historyPath == "" {
		return "./data/cache_stats.json"
	}
	return strings.TrimSuffix(historyPath, ".jsonl") + "_cache_stats.json"
}

// runBatch parses the --locations flag, runs one BatchOrchestrator.Generate
// call tagged with a fresh correlation ID, appends every LocationResult to
// the history log, and persists a cache-stats snapshot afterward.
func runBatch(ctx context.Context, orch *batch.Orchestrator, historyLog *history.Log, cacheManager *cache.Manager, snapshot *cache.SnapshotWriter, locationsFlag, evalMode string) {
	batchID := uuid.New().String()
	ctx = logger.WithBatchID(ctx, batchID)

	tokens := splitLocations(locationsFlag)
	target := time.Now().In(domain.ReferenceTimeZone).AddDate(0, 0, 1)

	logger.Info("starting batch generation", "batch_id", batchID, "location_count", len(tokens), "evaluation_mode", evalMode)

	result := orch.Generate(ctx, tokens, "default", target, func(completed, total int, name string) {
		logger.Info("location completed", "batch_id", batchID, "completed", completed+1, "total", total, "location", name)
	})

	now := time.Now()
	for _, r := range result.Results {
		if err := historyLog.Append(history.FromLocationResult(r, now)); err != nil {
			logger.Warn("history append failed", "error", err)
		}
	}
	snapshot.Append(cacheManager.StatsSummary())

	logger.Info("batch generation finished", "batch_id", batchID,
		"total", result.TotalCount, "success", result.SuccessCount, "failed", result.FailedCount,
		"processing_time_ms", result.ProcessingTimeMS)
}

// splitLocations applies spec.md §6's Batch API parsing: comma-separated
// tokens, each either a canonical name or a "name,lat,lon" triple. A
// bare comma-separated list of canonical names is ambiguous against a
// single triple; this CLI entry point accepts "a;b;c" semicolon-joined
// locations, each itself comma-split by batch.ParseLocation, so a caller
// naming multiple locations with coordinates doesn't collide with the
// outer separator.
func splitLocations(flagValue string) []string {
	parts := strings.Split(flagValue, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// runOpsServer serves a thin, non-presentational ops surface: liveness and
// the cache-stats summary, matching the teacher's startMetricsServer
// pattern but folded into the main router instead of a second listener.
func runOpsServer(ctx context.Context, cfg *config.Config, cacheManager *cache.Manager) {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.Server.ReadTimeout))

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	r.Get("/cache-stats", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(cacheManager.StatsSummary())
	})
	if cfg.Metrics.Enabled {
		r.Get("/metrics", metrics.Handler().ServeHTTP)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("starting ops HTTP surface", "address", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("ops HTTP surface failed", "error", err)
	}
}
