package generation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fitkit/planforge/internal/models"
	"github.com/fitkit/planforge/internal/prompt"
)

const (
	defaultAttempts = 3
	attemptTimeout  = 30 * time.Second
	backoffBase     = time.Second
)

// TemplateSource resolves the active template for a category.
// *prompt.Store satisfies it.
type TemplateSource interface {
	GetActive(ctx context.Context, category string) (*models.PromptVersion, error)
}

// Usage describes one completed (or failed) generation round trip.
type Usage struct {
	Category   string
	Model      string
	Outcome    string // parsed, raw, failed
	Structured bool
	LatencyMs  int64
}

// UsageRecorder persists Usage rows. *audit.Service satisfies it.
type UsageRecorder interface {
	RecordGeneration(ctx context.Context, u Usage) error
}

// Gateway renders the active template for a category and calls the
// configured provider with bounded retry. It performs no persistence of
// its own; the optional recorder only observes outcomes.
type Gateway struct {
	templates TemplateSource
	provider  Provider
	model     string
	recorder  UsageRecorder

	attempts int
	timeout  time.Duration
	backoff  time.Duration
}

func NewGateway(templates TemplateSource, provider Provider, model string, recorder UsageRecorder) *Gateway {
	return &Gateway{
		templates: templates,
		provider:  provider,
		model:     model,
		recorder:  recorder,
		attempts:  defaultAttempts,
		timeout:   attemptTimeout,
		backoff:   backoffBase,
	}
}

// Generate renders the active template for category against vars and
// calls the provider. A reply that fails to parse as JSON comes back as
// Raw, not as an error: losing a salvageable text response is worse than
// flagging it unstructured.
func (g *Gateway) Generate(ctx context.Context, category string, vars map[string]string) (Result, error) {
	tmpl, err := g.templates.GetActive(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("load template: %w", err)
	}
	if tmpl == nil {
		return nil, &ConfigError{Category: category}
	}

	rendered, err := prompt.Render(tmpl.TemplateText, vars)
	if err != nil {
		return nil, err
	}

	model := g.model
	if tmpl.ModelID != nil && *tmpl.ModelID != "" {
		model = *tmpl.ModelID
	}

	start := time.Now()
	content, err := g.completeWithRetry(ctx, model, rendered)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		g.record(ctx, Usage{Category: category, Model: model, Outcome: "failed", LatencyMs: latency})
		return nil, err
	}

	res := parseContent(content)
	switch res.(type) {
	case Parsed:
		g.record(ctx, Usage{Category: category, Model: model, Outcome: "parsed", Structured: true, LatencyMs: latency})
	case Raw:
		slog.Warn("generation reply is not valid JSON, returning raw text",
			"category", category,
			"model", model,
		)
		g.record(ctx, Usage{Category: category, Model: model, Outcome: "raw", LatencyMs: latency})
	}
	return res, nil
}

// completeWithRetry runs up to g.attempts calls, sleeping 2^n seconds
// between failures. The delay is a timer raced against ctx so caller
// cancellation takes effect before the next attempt is scheduled.
func (g *Gateway) completeWithRetry(ctx context.Context, model, rendered string) (string, error) {
	var lastErr error
	for attempt := 0; attempt < g.attempts; attempt++ {
		if attempt > 0 {
			delay := g.backoff << (attempt - 1)
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return "", ctx.Err()
			case <-timer.C:
			}
			slog.Debug("retrying generation call", "provider", g.provider.Name(), "attempt", attempt)
		}

		attemptCtx, cancel := context.WithTimeout(ctx, g.timeout)
		content, err := g.provider.Complete(attemptCtx, model, rendered)
		cancel()
		if err == nil {
			return content, nil
		}
		lastErr = err
	}
	return "", &GenerationError{Attempts: g.attempts, Err: lastErr}
}

func (g *Gateway) record(ctx context.Context, u Usage) {
	if g.recorder == nil {
		return
	}
	if err := g.recorder.RecordGeneration(ctx, u); err != nil {
		slog.Warn("failed to record generation usage", "category", u.Category, "error", err)
	}
}
