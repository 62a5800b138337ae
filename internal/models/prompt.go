package models

import (
	"time"

	"github.com/google/uuid"
)

// PromptVersion is one version of a prompt template for a category
// (action type). At most one row per category is active.
type PromptVersion struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Category     string    `json:"category" db:"category"`
	ModelID      *string   `json:"model_id,omitempty" db:"model_id"`
	TemplateText string    `json:"template_text" db:"template_text"`
	Version      int       `json:"version" db:"version"`
	Active       bool      `json:"active" db:"active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
