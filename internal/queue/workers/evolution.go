package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/fitkit/planforge/internal/analysis"
	"github.com/fitkit/planforge/internal/evolution"
	"github.com/fitkit/planforge/internal/plan"
	"github.com/fitkit/planforge/internal/queue"
)

// EvolutionWorker consumes plan:evolve tasks: it loads the approved
// analysis and its plan, then runs the orchestrator. A duplicate task for
// the same analysis just forks another sibling version.
type EvolutionWorker struct {
	analyses *analysis.Store
	plans    *plan.Lineage
	orch     *evolution.Orchestrator
}

func NewEvolutionWorker(analyses *analysis.Store, plans *plan.Lineage, orch *evolution.Orchestrator) *EvolutionWorker {
	return &EvolutionWorker{analyses: analyses, plans: plans, orch: orch}
}

func (w *EvolutionWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.PlanEvolvePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	analysisID, err := uuid.Parse(payload.AnalysisID)
	if err != nil {
		return fmt.Errorf("parse analysis id: %v: %w", err, asynq.SkipRetry)
	}

	a, err := w.analyses.Get(ctx, analysisID)
	if errors.Is(err, analysis.ErrNotFound) {
		slog.Warn("analysis vanished before evolution ran", "analysis_id", analysisID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load analysis: %w", err)
	}

	if a.PlanID == nil {
		slog.Info("analysis has no plan to evolve", "analysis_id", analysisID)
		return nil
	}

	current, err := w.plans.Get(ctx, *a.PlanID)
	if errors.Is(err, plan.ErrNotFound) {
		slog.Warn("plan vanished before evolution ran", "plan_id", *a.PlanID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load plan: %w", err)
	}

	newPlan, err := w.orch.Evolve(ctx, a, current)
	if err != nil {
		// Reported, not re-queued: the task was enqueued with MaxRetry 0.
		return fmt.Errorf("evolution failed, will not retry automatically: %w", err)
	}
	if newPlan == nil {
		slog.Info("evolution skipped", "analysis_id", analysisID)
		return nil
	}

	slog.Info("evolution complete",
		"analysis_id", analysisID,
		"new_plan_id", newPlan.ID,
		"version", newPlan.Version,
	)
	return nil
}
