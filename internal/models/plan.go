package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Plan is one version of a training plan. Evolution never edits a plan
// in place; it inserts a child row with version = parent version + 1.
// A parent may have multiple children.
type Plan struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	Content      json.RawMessage `json:"content" db:"content"`
	Version      int             `json:"version" db:"version"`
	ParentPlanID *uuid.UUID      `json:"parent_plan_id,omitempty" db:"parent_plan_id"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}
