package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/fitkit/planforge/internal/analysis"
	"github.com/fitkit/planforge/internal/api/handlers"
	"github.com/fitkit/planforge/internal/api/middleware"
	"github.com/fitkit/planforge/internal/audit"
	"github.com/fitkit/planforge/internal/auth"
	"github.com/fitkit/planforge/internal/cache"
	"github.com/fitkit/planforge/internal/config"
	"github.com/fitkit/planforge/internal/evolution"
	"github.com/fitkit/planforge/internal/generation"
	"github.com/fitkit/planforge/internal/plan"
	"github.com/fitkit/planforge/internal/prompt"
	"github.com/fitkit/planforge/internal/queue"
)

type Router struct {
	mux   *chi.Mux
	db    *pgxpool.Pool
	redis *redis.Client
	cfg   *config.Config
	jwt   *auth.JWTMiddleware
}

func NewRouter(db *pgxpool.Pool, rdb *redis.Client, cfg *config.Config) *Router {
	return &Router{
		mux:   chi.NewRouter(),
		db:    db,
		redis: rdb,
		cfg:   cfg,
		jwt:   auth.NewJWTMiddleware(cfg.Auth.JWTSecret),
	}
}

// NewProvider picks the configured generation provider.
func NewProvider(cfg config.AIConfig) generation.Provider {
	if cfg.Provider == "anthropic" {
		return generation.NewAnthropicProvider(cfg.AnthropicKey)
	}
	return generation.NewOpenRouterProvider(cfg.APIKey, cfg.BaseURL)
}

func (rt *Router) Setup() http.Handler {
	r := rt.mux

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS([]string{"*"}))

	rl := middleware.NewRateLimiter(100, 200)
	r.Use(rl.Limit)

	// Health endpoints (no auth)
	health := handlers.NewHealthHandler(rt.db, rt.redis)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)

	// Initialize services
	var c *cache.Cache
	if rt.redis != nil {
		c = cache.NewCache(rt.redis)
	}
	promptStore := prompt.NewStore(rt.db, c)
	lineage := plan.NewLineage(rt.db)
	analyses := analysis.NewStore(rt.db)
	auditSvc := audit.NewService(rt.db)

	gateway := generation.NewGateway(promptStore, NewProvider(rt.cfg.AI), rt.cfg.AI.Model, auditSvc)
	orch := evolution.NewOrchestrator(gateway, lineage, analyses)
	queueClient := queue.NewClient(rt.cfg.Redis)

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rt.jwt.Authenticate)

		promptH := handlers.NewPromptHandler(promptStore)
		r.Route("/prompts", func(r chi.Router) {
			r.Post("/", promptH.Create)
			r.Get("/active/{category}", promptH.GetActive)
			r.Get("/history/{category}", promptH.History)
			r.Post("/{id}/activate", promptH.Activate)
		})

		planH := handlers.NewPlanHandler(lineage)
		r.Route("/plans", func(r chi.Router) {
			r.Post("/", planH.Create)
			r.Get("/", planH.List)
			r.Get("/current", planH.Current)
			r.Get("/{id}", planH.Get)
			r.Get("/{id}/evolution", planH.Evolution)
		})

		analysisH := handlers.NewAnalysisHandler(analyses, orch, queueClient)
		r.Route("/analyses", func(r chi.Router) {
			r.Post("/", analysisH.Create)
			r.Get("/{id}", analysisH.Get)
			r.Post("/{id}/approve", analysisH.Approve)
		})

		adminH := handlers.NewAdminHandler(auditSvc)
		r.Route("/admin", func(r chi.Router) {
			r.Get("/generations", adminH.Generations)
		})
	})

	return r
}
