package plan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fitkit/planforge/internal/models"
)

// ErrNotFound is returned when a referenced plan does not exist.
var ErrNotFound = errors.New("plan not found")

// Lineage is the versioned plan graph. Plans are immutable rows keyed by
// surrogate id with the parent referenced by id; walks are explicit
// queries, never materialized object graphs.
type Lineage struct {
	db *pgxpool.Pool
}

func NewLineage(db *pgxpool.Pool) *Lineage {
	return &Lineage{db: db}
}

// CreateRoot inserts a version-1 plan with no parent.
func (l *Lineage) CreateRoot(ctx context.Context, content json.RawMessage) (*models.Plan, error) {
	p := models.Plan{Content: content, Version: 1}
	err := l.db.QueryRow(ctx,
		`INSERT INTO plans (content, version) VALUES ($1, 1)
		 RETURNING id, created_at`,
		content,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert root plan: %w", err)
	}
	return &p, nil
}

// Fork inserts a child of parent with version parent+1. Multiple forks
// from the same parent are permitted; lineage may branch.
func (l *Lineage) Fork(ctx context.Context, parent *models.Plan, content json.RawMessage) (*models.Plan, error) {
	p := models.Plan{
		Content:      content,
		Version:      parent.Version + 1,
		ParentPlanID: &parent.ID,
	}
	err := l.db.QueryRow(ctx,
		`INSERT INTO plans (content, version, parent_plan_id) VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		content, p.Version, parent.ID,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert plan fork: %w", err)
	}
	slog.Info("forked plan", "parent_id", parent.ID, "version", p.Version)
	return &p, nil
}

// Get returns a plan by id, or ErrNotFound.
func (l *Lineage) Get(ctx context.Context, id uuid.UUID) (*models.Plan, error) {
	var p models.Plan
	err := l.db.QueryRow(ctx,
		`SELECT id, content, version, parent_plan_id, created_at
		 FROM plans WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.Content, &p.Version, &p.ParentPlanID, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get plan: %w", err)
	}
	return &p, nil
}

// History returns the plan plus its direct children, ascending by
// version. It does not walk further descendants or ancestors.
func (l *Lineage) History(ctx context.Context, id uuid.UUID) ([]models.Plan, error) {
	rows, err := l.db.Query(ctx,
		`SELECT id, content, version, parent_plan_id, created_at
		 FROM plans WHERE id = $1 OR parent_plan_id = $1
		 ORDER BY version ASC`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("query plan history: %w", err)
	}
	defer rows.Close()

	return scanPlans(rows)
}

// CurrentActive returns the highest-version plan, or nil when no plan
// exists yet.
func (l *Lineage) CurrentActive(ctx context.Context) (*models.Plan, error) {
	var p models.Plan
	err := l.db.QueryRow(ctx,
		`SELECT id, content, version, parent_plan_id, created_at
		 FROM plans ORDER BY version DESC LIMIT 1`,
	).Scan(&p.ID, &p.Content, &p.Version, &p.ParentPlanID, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get current plan: %w", err)
	}
	return &p, nil
}

// List returns every plan, newest first.
func (l *Lineage) List(ctx context.Context) ([]models.Plan, error) {
	rows, err := l.db.Query(ctx,
		`SELECT id, content, version, parent_plan_id, created_at
		 FROM plans ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()

	return scanPlans(rows)
}

func scanPlans(rows pgx.Rows) ([]models.Plan, error) {
	var plans []models.Plan
	for rows.Next() {
		var p models.Plan
		if err := rows.Scan(&p.ID, &p.Content, &p.Version, &p.ParentPlanID, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}
