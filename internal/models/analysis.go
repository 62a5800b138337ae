package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Analysis is AI-generated feedback on a workout, pending human review.
// PlanID points at the plan the workout was executed against; the
// evolution workflow forks that plan once the analysis is approved.
type Analysis struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	WorkoutRef  string          `json:"workout_ref" db:"workout_ref"`
	Feedback    json.RawMessage `json:"feedback" db:"feedback"`
	Suggestions json.RawMessage `json:"suggestions,omitempty" db:"suggestions"`
	Approved    bool            `json:"approved" db:"approved"`
	PlanID      *uuid.UUID      `json:"plan_id,omitempty" db:"plan_id"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}
