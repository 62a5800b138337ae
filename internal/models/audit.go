package models

import (
	"time"

	"github.com/google/uuid"
)

// GenerationLog records one generation round trip for operator visibility.
type GenerationLog struct {
	ID         uuid.UUID `json:"id" db:"id"`
	Category   string    `json:"category" db:"category"`
	Model      string    `json:"model" db:"model"`
	Outcome    string    `json:"outcome" db:"outcome"` // parsed, raw, failed
	Structured bool      `json:"structured" db:"structured"`
	LatencyMs  int64     `json:"latency_ms" db:"latency_ms"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
