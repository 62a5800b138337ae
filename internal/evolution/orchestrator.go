package evolution

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/fitkit/planforge/internal/generation"
	"github.com/fitkit/planforge/internal/models"
)

// CategoryPlanEvolution is the prompt category used when forking a plan
// from approved feedback.
const CategoryPlanEvolution = "plan_evolution"

// Generator produces a generation result for a category and context.
// *generation.Gateway satisfies it.
type Generator interface {
	Generate(ctx context.Context, category string, vars map[string]string) (generation.Result, error)
}

// PlanForker forks a new plan version from a parent. *plan.Lineage
// satisfies it.
type PlanForker interface {
	Fork(ctx context.Context, parent *models.Plan, content json.RawMessage) (*models.Plan, error)
}

// FeedbackStore flips the approval flag on a feedback record.
// *analysis.Store satisfies it.
type FeedbackStore interface {
	SetApproved(ctx context.Context, id uuid.UUID) error
}

// Orchestrator runs the approval-gated evolution workflow: approved
// feedback plus its plan go through the gateway, and the result is
// materialized as the next plan version.
type Orchestrator struct {
	gen      Generator
	plans    PlanForker
	feedback FeedbackStore
}

func NewOrchestrator(gen Generator, plans PlanForker, feedback FeedbackStore) *Orchestrator {
	return &Orchestrator{gen: gen, plans: plans, feedback: feedback}
}

// Approve marks the feedback record approved. It is not idempotent by
// design: a second approval of the same record triggers another
// evolution, which forking absorbs as a sibling version.
func (o *Orchestrator) Approve(ctx context.Context, analysisID uuid.UUID) error {
	return o.feedback.SetApproved(ctx, analysisID)
}

// Evolve forks a new plan version from approved feedback. It returns
// (nil, nil) without writing anything when the feedback is not approved
// or carries no suggestions. A GenerationError propagates and no partial
// plan is created; an unparseable reply is forked anyway, wrapped as a
// raw payload.
func (o *Orchestrator) Evolve(ctx context.Context, a *models.Analysis, current *models.Plan) (*models.Plan, error) {
	if !a.Approved {
		return nil, nil
	}
	if !hasSuggestions(a.Suggestions) {
		return nil, nil
	}

	vars := map[string]string{
		"current_plan":     string(current.Content),
		"workout_analysis": string(a.Feedback),
		"suggestions":      string(a.Suggestions),
		"evolution_type":   "workout_feedback",
	}

	res, err := o.gen.Generate(ctx, CategoryPlanEvolution, vars)
	if err != nil {
		return nil, fmt.Errorf("evolve plan %s: %w", current.ID, err)
	}

	var content json.RawMessage
	switch r := res.(type) {
	case generation.Parsed:
		content, err = json.Marshal(r.Value)
		if err != nil {
			return nil, fmt.Errorf("marshal evolved plan: %w", err)
		}
	case generation.Raw:
		slog.Warn("evolved plan is unstructured, forking raw payload",
			"analysis_id", a.ID,
			"plan_id", current.ID,
		)
		content, err = json.Marshal(map[string]any{"raw_plan": r.Text, "structured": false})
		if err != nil {
			return nil, fmt.Errorf("marshal raw plan: %w", err)
		}
	default:
		return nil, fmt.Errorf("unexpected generation result %T", res)
	}

	newPlan, err := o.plans.Fork(ctx, current, content)
	if err != nil {
		return nil, fmt.Errorf("fork plan: %w", err)
	}

	slog.Info("created new plan version",
		"plan_id", newPlan.ID,
		"version", newPlan.Version,
		"analysis_id", a.ID,
	)
	return newPlan, nil
}

// OnFeedbackApproved is the entry point for the workout/analysis
// subsystem: persist the approval, then attempt an evolution.
func (o *Orchestrator) OnFeedbackApproved(ctx context.Context, a *models.Analysis, current *models.Plan) (*models.Plan, error) {
	if err := o.Approve(ctx, a.ID); err != nil {
		return nil, fmt.Errorf("approve analysis: %w", err)
	}
	a.Approved = true
	return o.Evolve(ctx, a, current)
}

// hasSuggestions treats absent, null and empty JSON values as "nothing
// to evolve from".
func hasSuggestions(raw json.RawMessage) bool {
	switch strings.TrimSpace(string(raw)) {
	case "", "null", "{}", "[]", `""`:
		return false
	}
	return true
}
