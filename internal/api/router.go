package api

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/lexgraph/lexgraph/internal/api/handlers"
	mw "github.com/lexgraph/lexgraph/internal/api/middleware"
	"github.com/lexgraph/lexgraph/internal/config"
	"github.com/lexgraph/lexgraph/internal/domain"
	"github.com/lexgraph/lexgraph/internal/graph"
	"github.com/lexgraph/lexgraph/internal/llm"
	"github.com/lexgraph/lexgraph/internal/service"
	"go.uber.org/zap"
)

// App holds the router and shared request counters for lifecycle management.
type App struct {
	Router        *chi.Mux
	Scorer        *service.ConfidenceScorer
	startTime     time.Time
	requestCount  atomic.Int64
	errorCount    atomic.Int64
	pipelineStats service.PipelineStats
}

func NewApp(idx *graph.Index, logger *zap.Logger) *App {
	// External generation client via provider factory
	provider := config.LLMProvider()
	client, err := llm.NewClient(provider, config.LLMAPIKey())
	if err != nil {
		logger.Warn("LLM client initialization failed, using mock", zap.String("provider", provider), zap.Error(err))
		client = llm.NewMockClient()
	} else {
		logger.Info("LLM client initialized", zap.String("provider", provider))
	}

	r := chi.NewRouter()
	app := &App{
		Router:    r,
		startTime: time.Now(),
	}

	// Services
	intents := service.NewIntentService(logger)
	retrieval := service.NewRetrievalService(idx, service.DefaultScenarioRouting(), logger)
	assembler := service.NewAssemblerService(idx, config.MaxContextLength(), logger)
	scorer := service.NewConfidenceScorer(logger)
	validator := service.NewValidatorService(idx, service.DefaultValidationPolicy(), logger)
	pipeline := service.NewPipeline(intents, retrieval, assembler, scorer, validator, client,
		config.GenerationTimeout(), &app.pipelineStats, logger)
	app.Scorer = scorer

	// Handlers
	queryHandler := handlers.NewQueryHandler(pipeline)
	calibrationHandler := handlers.NewCalibrationHandler(scorer)
	statsHandler := handlers.NewStatsHandler(idx, &app.pipelineStats)

	// Metrics collector for middleware
	metricsCollector := mw.NewMetricsCollector(&app.requestCount, &app.errorCount)

	// Global middleware (order matters)
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(metricsCollector.Middleware)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	r.Use(mw.RateLimit(config.RateLimitRPS(), config.RateLimitBurst()))

	// Health and metrics (no versioning)
	r.Get("/health", healthHandler(idx))
	r.Get("/metrics", app.metricsHandler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/query", queryHandler.Query)
		r.Get("/stats", statsHandler.Get)
		r.Get("/calibration", calibrationHandler.Get)
		r.Put("/calibration", calibrationHandler.Update)
	})

	return app
}

func healthHandler(idx *graph.Index) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats := idx.Stats()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "ok",
			"graph":  stats,
		})
	}
}

func (app *App) metricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		uptime := time.Since(app.startTime)

		response := map[string]any{
			"uptime_seconds": uptime.Seconds(),
			"uptime_human":   uptime.Round(time.Second).String(),
			"request_count":  app.requestCount.Load(),
			"error_count":    app.errorCount.Load(),
			"goroutines":     runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb":       float64(memStats.Alloc) / 1024 / 1024,
				"total_alloc_mb": float64(memStats.TotalAlloc) / 1024 / 1024,
				"sys_mb":         float64(memStats.Sys) / 1024 / 1024,
				"num_gc":         memStats.NumGC,
			},
			"go_version": runtime.Version(),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}

// Ensure clients satisfy the generation interface at compile time.
var (
	_ domain.GenerationClient = (*llm.OpenAIClient)(nil)
	_ domain.GenerationClient = (*llm.GeminiClient)(nil)
	_ domain.GenerationClient = (*llm.MockClient)(nil)
)
