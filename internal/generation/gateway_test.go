package generation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitkit/planforge/internal/models"
	"github.com/fitkit/planforge/internal/prompt"
)

type fakeTemplates struct {
	byCategory map[string]string
}

func (f *fakeTemplates) GetActive(_ context.Context, category string) (*models.PromptVersion, error) {
	text, ok := f.byCategory[category]
	if !ok {
		return nil, nil
	}
	return &models.PromptVersion{Category: category, TemplateText: text, Version: 1, Active: true}, nil
}

type fakeProvider struct {
	calls   int
	replies []func() (string, error)
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Complete(_ context.Context, _, _ string) (string, error) {
	reply := f.replies[f.calls]
	f.calls++
	return reply()
}

func succeed(content string) func() (string, error) {
	return func() (string, error) { return content, nil }
}

func fail(msg string) func() (string, error) {
	return func() (string, error) { return "", errors.New(msg) }
}

func newTestGateway(templates TemplateSource, p Provider) *Gateway {
	g := NewGateway(templates, p, "test-model", nil)
	g.backoff = time.Millisecond
	return g
}

func TestGenerateParsesReply(t *testing.T) {
	templates := &fakeTemplates{byCategory: map[string]string{
		"plan_evolution": "Evolve: {suggestions}",
	}}
	provider := &fakeProvider{replies: []func() (string, error){
		succeed("```json\n{\"weeks\": 4}\n```"),
	}}
	g := newTestGateway(templates, provider)

	res, err := g.Generate(context.Background(), "plan_evolution", map[string]string{"suggestions": "more rest"})
	require.NoError(t, err)

	parsed, ok := res.(Parsed)
	require.True(t, ok, "expected Parsed, got %T", res)
	assert.Equal(t, map[string]any{"weeks": float64(4)}, parsed.Value)
	assert.Equal(t, 1, provider.calls)
}

func TestGenerateReturnsRawOnMalformedReply(t *testing.T) {
	templates := &fakeTemplates{byCategory: map[string]string{"plan_evolution": "x"}}
	provider := &fakeProvider{replies: []func() (string, error){succeed("not json")}}
	g := newTestGateway(templates, provider)

	res, err := g.Generate(context.Background(), "plan_evolution", nil)
	require.NoError(t, err)

	raw, ok := res.(Raw)
	require.True(t, ok, "expected Raw, got %T", res)
	assert.Equal(t, "not json", raw.Text)
}

func TestGenerateNoActiveTemplate(t *testing.T) {
	templates := &fakeTemplates{byCategory: map[string]string{}}
	provider := &fakeProvider{}
	g := newTestGateway(templates, provider)

	_, err := g.Generate(context.Background(), "plan_evolution", nil)

	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "plan_evolution", cfgErr.Category)
	assert.Zero(t, provider.calls, "no network call on config error")
}

func TestGenerateMissingTemplateVariable(t *testing.T) {
	templates := &fakeTemplates{byCategory: map[string]string{"plan_evolution": "Hello {name}"}}
	provider := &fakeProvider{}
	g := newTestGateway(templates, provider)

	_, err := g.Generate(context.Background(), "plan_evolution", map[string]string{})

	var tErr *prompt.TemplateError
	require.True(t, errors.As(err, &tErr))
	assert.Zero(t, provider.calls, "no network call on template error")
}

func TestGenerateExhaustsRetries(t *testing.T) {
	templates := &fakeTemplates{byCategory: map[string]string{"plan_evolution": "x"}}
	provider := &fakeProvider{replies: []func() (string, error){
		fail("boom 1"), fail("boom 2"), fail("boom 3"),
	}}
	g := newTestGateway(templates, provider)

	_, err := g.Generate(context.Background(), "plan_evolution", nil)

	var genErr *GenerationError
	require.True(t, errors.As(err, &genErr))
	assert.Equal(t, 3, genErr.Attempts)
	assert.Equal(t, 3, provider.calls, "exactly 3 attempts")
	assert.ErrorContains(t, genErr.Err, "boom 3", "wraps the last failure")
}

func TestGenerateRecoversWithinRetryBudget(t *testing.T) {
	templates := &fakeTemplates{byCategory: map[string]string{"plan_evolution": "x"}}
	provider := &fakeProvider{replies: []func() (string, error){
		fail("boom 1"), fail("boom 2"), succeed(`{"a": 1}`),
	}}
	g := newTestGateway(templates, provider)

	res, err := g.Generate(context.Background(), "plan_evolution", nil)
	require.NoError(t, err)
	assert.Equal(t, 3, provider.calls, "exactly 3 attempts")

	_, ok := res.(Parsed)
	assert.True(t, ok, "expected Parsed, got %T", res)
}

func TestGenerateCancelledDuringBackoff(t *testing.T) {
	templates := &fakeTemplates{byCategory: map[string]string{"plan_evolution": "x"}}
	provider := &fakeProvider{replies: []func() (string, error){
		fail("boom"), succeed(`{"a": 1}`),
	}}
	g := newTestGateway(templates, provider)
	g.backoff = time.Minute // only the ctx race should end the wait

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := g.Generate(ctx, "plan_evolution", nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, provider.calls, "no attempt after cancellation")
}
