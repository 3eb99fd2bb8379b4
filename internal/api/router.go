package api

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/dondada876/ASEAGI-sub007/internal/api/handlers"
	mw "github.com/dondada876/ASEAGI-sub007/internal/api/middleware"
	"github.com/dondada876/ASEAGI-sub007/internal/buildconfig"
	"github.com/dondada876/ASEAGI-sub007/internal/config"
	"github.com/dondada876/ASEAGI-sub007/internal/domain"
	"github.com/dondada876/ASEAGI-sub007/internal/evidence"
	"github.com/dondada876/ASEAGI-sub007/internal/service"
	"github.com/dondada876/ASEAGI-sub007/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Pinger reports whether the backing database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options tune the services behind the router. Zero values fall back to the
// service defaults.
type Options struct {
	APIKeys        []string
	RateLimitRPS   float64
	RateLimitBurst int
	ScoringWorkers int
	ChunkSize      int
	QueueSize      int
	AuditInterval  time.Duration
	CacheTTL       time.Duration
}

// OptionsFromConfig reads Options from the environment.
func OptionsFromConfig() Options {
	return Options{
		APIKeys:        config.APIKeys(),
		RateLimitRPS:   config.RateLimitRPS(),
		RateLimitBurst: config.RateLimitBurst(),
		ScoringWorkers: config.ScoringWorkers(),
		ChunkSize:      config.CorrelationChunkSize(),
		QueueSize:      config.BatchQueueSize(),
		AuditInterval:  config.AuditInterval(),
		CacheTTL:       config.EvidenceCacheTTL(),
	}
}

// App holds the router and background services for lifecycle management.
type App struct {
	Router    *chi.Mux
	Pipeline  *service.Pipeline
	Processor *service.Processor
	Auditor   *service.Auditor

	auditInterval time.Duration
	logger        *zap.Logger
	metrics       *mw.MetricsCollector
	startTime     time.Time
	requestCount  atomic.Int64
	errorCount    atomic.Int64
}

func NewApp(db *pgxpool.Pool, logger *zap.Logger) *App {
	stores := service.PostgresStores(store.NewPostgres(db))
	return NewAppWithStores(stores, db, OptionsFromConfig(), logger)
}

func NewAppWithStores(stores service.Stores, db Pinger, opts Options, logger *zap.Logger) *App {
	// Services
	pipeline := service.NewPipeline(stores, logger)
	if opts.ScoringWorkers > 0 {
		pipeline.Workers = opts.ScoringWorkers
	}
	if opts.ChunkSize > 0 {
		pipeline.ChunkSize = opts.ChunkSize
	}
	var source evidence.Source = pipeline.Index()
	if opts.CacheTTL > 0 {
		cache := evidence.NewCachedIndex(pipeline.Index(), opts.CacheTTL, logger)
		pipeline.Cache = cache
		source = cache
	}
	processor := service.NewProcessor(pipeline, opts.QueueSize, logger)
	auditor := service.NewAuditor(stores, source, pipeline, processor, logger)
	if opts.AuditInterval > 0 {
		auditor.SetInterval(opts.AuditInterval)
	}
	reviewSvc := service.NewReviewService(stores.Relationships, pipeline, logger)

	// Handlers
	batchHandler := handlers.NewBatchHandler(processor)
	statementHandler := handlers.NewStatementHandler(stores)
	aggregateHandler := handlers.NewAggregateHandler(stores.Aggregates, stores.Profiles)
	violationHandler := handlers.NewViolationHandler(stores.Classifications, domain.RuleTableV1)
	overrideHandler := handlers.NewOverrideHandler(reviewSvc)

	r := chi.NewRouter()

	app := &App{
		Router:        r,
		Pipeline:      pipeline,
		Processor:     processor,
		Auditor:       auditor,
		auditInterval: opts.AuditInterval,
		logger:        logger,
		startTime:     time.Now(),
	}
	app.metrics = mw.NewMetricsCollector(&app.requestCount, &app.errorCount)

	rps, burst := opts.RateLimitRPS, opts.RateLimitBurst
	if rps <= 0 {
		rps = config.RateLimitRPS()
	}
	if burst <= 0 {
		burst = config.RateLimitBurst()
	}

	// Global middleware (order matters)
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(app.metrics.Middleware)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	r.Use(mw.RateLimit(rps, burst))

	// Health and metrics (no auth)
	r.Get("/health", healthHandler(db))
	r.Get("/metrics", app.metricsHandler())

	r.Route("/v1", func(r chi.Router) {
		if len(opts.APIKeys) > 0 {
			r.Use(mw.APIKeyAuth(opts.APIKeys))
		} else {
			logger.Warn("API_KEYS is empty; /v1 is served without authentication")
		}

		r.Get("/rules", violationHandler.Rules)
		r.Get("/violations", violationHandler.Feed)

		r.Route("/batches", func(r chi.Router) {
			r.Post("/", batchHandler.Submit)
			r.Get("/{id}", batchHandler.Get)
		})

		r.Route("/statements/{id}", func(r chi.Router) {
			r.Get("/scores", statementHandler.Scores)
			r.Get("/relationships", statementHandler.Relationships)
			r.Get("/classifications", statementHandler.Classifications)
			r.Get("/stage", statementHandler.Stage)
		})

		r.Get("/aggregates/{scope}/{id}", aggregateHandler.Get)
		r.Get("/parties/{id}/profile", aggregateHandler.Profile)

		r.Route("/relationships/{id}/overrides", func(r chi.Router) {
			r.Post("/", overrideHandler.Create)
			r.Get("/", overrideHandler.List)
		})
	})

	return app
}

// Start launches the batch processor and, when an interval is configured,
// the drift auditor.
func (app *App) Start() {
	app.Processor.Start()
	if app.auditInterval > 0 {
		app.Auditor.Start()
	}
}

// Stop halts background work. In-flight batches are cancelled and can be
// resubmitted; their checkpoints survive.
func (app *App) Stop() {
	if app.auditInterval > 0 {
		app.Auditor.Stop()
	}
	app.Processor.Stop()
}

func healthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := db.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": err.Error()})
			return
		}

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

func (app *App) metricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		uptime := time.Since(app.startTime)
		halted := ""
		if err := app.Processor.Halted(); err != nil {
			halted = err.Error()
		}

		response := map[string]any{
			"uptime_seconds": uptime.Seconds(),
			"uptime_human":   uptime.Round(time.Second).String(),
			"request_count":  app.requestCount.Load(),
			"error_count":    app.errorCount.Load(),
			"responses":      app.metrics.Snapshot(),
			"goroutines":     runtime.NumGoroutine(),
			"processor": map[string]any{
				"halted":      halted != "",
				"halt_reason": halted,
			},
			"memory": map[string]any{
				"alloc_mb":       float64(memStats.Alloc) / 1024 / 1024,
				"total_alloc_mb": float64(memStats.TotalAlloc) / 1024 / 1024,
				"sys_mb":         float64(memStats.Sys) / 1024 / 1024,
				"num_gc":         memStats.NumGC,
			},
			"build": buildconfig.VersionInfo(),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}

// Ensure the pool satisfies Pinger at compile time.
var _ Pinger = (*pgxpool.Pool)(nil)
