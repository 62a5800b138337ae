package prompt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fitkit/planforge/internal/cache"
	"github.com/fitkit/planforge/internal/models"
)

// ErrNotFound is returned when a referenced prompt version does not exist.
var ErrNotFound = errors.New("prompt version not found")

const activeCacheTTL = 5 * time.Minute

// Store owns versioned prompt templates keyed by category. The cache is
// optional; pass nil to read straight from the database.
type Store struct {
	db    *pgxpool.Pool
	cache *cache.Cache
}

func NewStore(db *pgxpool.Pool, c *cache.Cache) *Store {
	return &Store{db: db, cache: c}
}

// GetActive returns the active template for a category, or nil when no
// template has ever been activated for it.
func (s *Store) GetActive(ctx context.Context, category string) (*models.PromptVersion, error) {
	key := activeCacheKey(category)
	if s.cache != nil {
		var cached models.PromptVersion
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		}
	}

	var v models.PromptVersion
	err := s.db.QueryRow(ctx,
		`SELECT id, category, model_id, template_text, version, active, created_at
		 FROM prompt_versions WHERE category = $1 AND active
		 ORDER BY version DESC LIMIT 1`,
		category,
	).Scan(&v.ID, &v.Category, &v.ModelID, &v.TemplateText, &v.Version, &v.Active, &v.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get active prompt: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, &v, activeCacheTTL); err != nil {
			slog.Debug("prompt cache set failed", "category", category, "error", err)
		}
	}
	return &v, nil
}

// CreateVersion deactivates every existing version for the category and
// inserts the next version as active, in one transaction.
func (s *Store) CreateVersion(ctx context.Context, category, templateText string, modelID *string) (*models.PromptVersion, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		"UPDATE prompt_versions SET active = false WHERE category = $1 AND active",
		category,
	); err != nil {
		return nil, fmt.Errorf("deactivate versions: %w", err)
	}

	var maxVersion int
	if err := tx.QueryRow(ctx,
		"SELECT COALESCE(MAX(version), 0) FROM prompt_versions WHERE category = $1",
		category,
	).Scan(&maxVersion); err != nil {
		return nil, fmt.Errorf("get max version: %w", err)
	}

	v := models.PromptVersion{
		Category:     category,
		ModelID:      modelID,
		TemplateText: templateText,
		Version:      maxVersion + 1,
		Active:       true,
	}
	err = tx.QueryRow(ctx,
		`INSERT INTO prompt_versions (category, model_id, template_text, version, active)
		 VALUES ($1, $2, $3, $4, true)
		 RETURNING id, created_at`,
		category, modelID, templateText, v.Version,
	).Scan(&v.ID, &v.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert prompt version: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	s.invalidate(ctx, category)
	slog.Info("created prompt version", "category", category, "version", v.Version)
	return &v, nil
}

// ActivateVersion makes the given version the single active one for its
// category. Returns ErrNotFound when the id does not exist.
func (s *Store) ActivateVersion(ctx context.Context, id uuid.UUID) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var category string
	var version int
	err = tx.QueryRow(ctx,
		"SELECT category, version FROM prompt_versions WHERE id = $1",
		id,
	).Scan(&category, &version)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get prompt version: %w", err)
	}

	if _, err := tx.Exec(ctx,
		"UPDATE prompt_versions SET active = false WHERE category = $1 AND active",
		category,
	); err != nil {
		return fmt.Errorf("deactivate versions: %w", err)
	}

	if _, err := tx.Exec(ctx,
		"UPDATE prompt_versions SET active = true WHERE id = $1",
		id,
	); err != nil {
		return fmt.Errorf("activate version: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	s.invalidate(ctx, category)
	slog.Info("activated prompt version", "category", category, "version", version)
	return nil
}

// History returns every version for a category, newest first.
func (s *Store) History(ctx context.Context, category string) ([]models.PromptVersion, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, category, model_id, template_text, version, active, created_at
		 FROM prompt_versions WHERE category = $1 ORDER BY version DESC`,
		category,
	)
	if err != nil {
		return nil, fmt.Errorf("get prompt history: %w", err)
	}
	defer rows.Close()

	var versions []models.PromptVersion
	for rows.Next() {
		var v models.PromptVersion
		if err := rows.Scan(&v.ID, &v.Category, &v.ModelID, &v.TemplateText, &v.Version, &v.Active, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan prompt version: %w", err)
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

func (s *Store) invalidate(ctx context.Context, category string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, activeCacheKey(category)); err != nil {
		slog.Debug("prompt cache invalidation failed", "category", category, "error", err)
	}
}

func activeCacheKey(category string) string {
	return "prompt:active:" + category
}
