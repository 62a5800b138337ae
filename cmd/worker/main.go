package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"

	"github.com/fitkit/planforge/internal/analysis"
	"github.com/fitkit/planforge/internal/api"
	"github.com/fitkit/planforge/internal/audit"
	"github.com/fitkit/planforge/internal/config"
	"github.com/fitkit/planforge/internal/database"
	"github.com/fitkit/planforge/internal/evolution"
	"github.com/fitkit/planforge/internal/generation"
	"github.com/fitkit/planforge/internal/plan"
	"github.com/fitkit/planforge/internal/prompt"
	"github.com/fitkit/planforge/internal/queue"
	"github.com/fitkit/planforge/internal/queue/workers"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	db, err := database.NewPool(context.Background(), cfg.Database)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	promptStore := prompt.NewStore(db, nil)
	lineage := plan.NewLineage(db)
	analyses := analysis.NewStore(db)
	auditSvc := audit.NewService(db)

	gateway := generation.NewGateway(promptStore, api.NewProvider(cfg.AI), cfg.AI.Model, auditSvc)
	orch := evolution.NewOrchestrator(gateway, lineage, analyses)

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			Concurrency: 5,
		},
	)

	registry := queue.NewHandlersRegistry()
	evolutionWorker := workers.NewEvolutionWorker(analyses, lineage, orch)
	registry.Register(queue.TypePlanEvolve, asynq.HandlerFunc(evolutionWorker.ProcessTask))

	slog.Info("starting worker", "concurrency", 5)
	if err := srv.Run(registry.Mux()); err != nil {
		slog.Error("worker error", "error", err)
		os.Exit(1)
	}
}
