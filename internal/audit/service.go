package audit

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fitkit/planforge/internal/generation"
	"github.com/fitkit/planforge/internal/models"
)

// Service keeps an operator-facing log of generation round trips.
type Service struct {
	db *pgxpool.Pool
}

func NewService(db *pgxpool.Pool) *Service {
	return &Service{db: db}
}

// RecordGeneration satisfies generation.UsageRecorder.
func (s *Service) RecordGeneration(ctx context.Context, u generation.Usage) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO generation_logs (category, model, outcome, structured, latency_ms)
		 VALUES ($1, $2, $3, $4, $5)`,
		u.Category, u.Model, u.Outcome, u.Structured, u.LatencyMs,
	)
	if err != nil {
		return fmt.Errorf("insert generation log: %w", err)
	}
	return nil
}

// Recent returns the latest generation log rows.
func (s *Service) Recent(ctx context.Context, limit, offset int) ([]models.GenerationLog, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.Query(ctx,
		`SELECT id, category, model, outcome, structured, latency_ms, created_at
		 FROM generation_logs ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("query generation logs: %w", err)
	}
	defer rows.Close()

	var logs []models.GenerationLog
	for rows.Next() {
		var l models.GenerationLog
		if err := rows.Scan(&l.ID, &l.Category, &l.Model, &l.Outcome, &l.Structured, &l.LatencyMs, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan generation log: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
