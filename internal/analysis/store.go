package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fitkit/planforge/internal/models"
)

// ErrNotFound is returned when a referenced analysis does not exist.
var ErrNotFound = errors.New("analysis not found")

// Store persists workout feedback records. The evolution core only flips
// approved and reads suggestions; everything else is owned by the
// analysis subsystem.
type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

type CreateRequest struct {
	WorkoutRef  string          `json:"workout_ref"`
	Feedback    json.RawMessage `json:"feedback"`
	Suggestions json.RawMessage `json:"suggestions,omitempty"`
	PlanID      *uuid.UUID      `json:"plan_id,omitempty"`
}

func (s *Store) Create(ctx context.Context, req CreateRequest) (*models.Analysis, error) {
	a := models.Analysis{
		WorkoutRef:  req.WorkoutRef,
		Feedback:    req.Feedback,
		Suggestions: req.Suggestions,
		PlanID:      req.PlanID,
	}
	err := s.db.QueryRow(ctx,
		`INSERT INTO analyses (workout_ref, feedback, suggestions, plan_id)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, approved, created_at`,
		req.WorkoutRef, req.Feedback, req.Suggestions, req.PlanID,
	).Scan(&a.ID, &a.Approved, &a.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert analysis: %w", err)
	}
	return &a, nil
}

func (s *Store) Get(ctx context.Context, id uuid.UUID) (*models.Analysis, error) {
	var a models.Analysis
	err := s.db.QueryRow(ctx,
		`SELECT id, workout_ref, feedback, suggestions, approved, plan_id, created_at
		 FROM analyses WHERE id = $1`,
		id,
	).Scan(&a.ID, &a.WorkoutRef, &a.Feedback, &a.Suggestions, &a.Approved, &a.PlanID, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get analysis: %w", err)
	}
	return &a, nil
}

// SetApproved flips the approved flag. Deliberately unconditional:
// re-approving an already-approved record succeeds and may trigger
// another evolution.
func (s *Store) SetApproved(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx,
		"UPDATE analyses SET approved = true WHERE id = $1",
		id,
	)
	if err != nil {
		return fmt.Errorf("approve analysis: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListForWorkout returns every analysis recorded for a workout, newest first.
func (s *Store) ListForWorkout(ctx context.Context, workoutRef string) ([]models.Analysis, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, workout_ref, feedback, suggestions, approved, plan_id, created_at
		 FROM analyses WHERE workout_ref = $1 ORDER BY created_at DESC`,
		workoutRef,
	)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	defer rows.Close()

	var out []models.Analysis
	for rows.Next() {
		var a models.Analysis
		if err := rows.Scan(&a.ID, &a.WorkoutRef, &a.Feedback, &a.Suggestions, &a.Approved, &a.PlanID, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
