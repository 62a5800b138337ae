package evolution

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitkit/planforge/internal/generation"
	"github.com/fitkit/planforge/internal/models"
)

type fakeGenerator struct {
	calls    int
	lastVars map[string]string
	result   generation.Result
	err      error
}

func (f *fakeGenerator) Generate(_ context.Context, _ string, vars map[string]string) (generation.Result, error) {
	f.calls++
	f.lastVars = vars
	return f.result, f.err
}

type fakeForker struct {
	calls       int
	lastContent json.RawMessage
	err         error
}

func (f *fakeForker) Fork(_ context.Context, parent *models.Plan, content json.RawMessage) (*models.Plan, error) {
	f.calls++
	f.lastContent = content
	if f.err != nil {
		return nil, f.err
	}
	return &models.Plan{
		ID:           uuid.New(),
		Content:      content,
		Version:      parent.Version + 1,
		ParentPlanID: &parent.ID,
	}, nil
}

type fakeFeedback struct {
	approved []uuid.UUID
	err      error
}

func (f *fakeFeedback) SetApproved(_ context.Context, id uuid.UUID) error {
	if f.err != nil {
		return f.err
	}
	f.approved = append(f.approved, id)
	return nil
}

func testPlan(version int) *models.Plan {
	return &models.Plan{
		ID:      uuid.New(),
		Content: json.RawMessage(`{"weeks": [{"focus": "base"}]}`),
		Version: version,
	}
}

func testAnalysis(approved bool, suggestions string) *models.Analysis {
	a := &models.Analysis{
		ID:         uuid.New(),
		WorkoutRef: "workout-123",
		Feedback:   json.RawMessage(`{"effort": "high"}`),
		Approved:   approved,
	}
	if suggestions != "" {
		a.Suggestions = json.RawMessage(suggestions)
	}
	return a
}

func TestEvolveNotApproved(t *testing.T) {
	gen := &fakeGenerator{}
	forker := &fakeForker{}
	o := NewOrchestrator(gen, forker, &fakeFeedback{})

	p, err := o.Evolve(context.Background(), testAnalysis(false, `{"add": "rest day"}`), testPlan(1))
	require.NoError(t, err)
	assert.Nil(t, p)
	assert.Zero(t, gen.calls)
	assert.Zero(t, forker.calls, "no writes for unapproved feedback")
}

func TestEvolveNoSuggestions(t *testing.T) {
	tests := []struct {
		name        string
		suggestions string
	}{
		{name: "absent", suggestions: ""},
		{name: "null", suggestions: "null"},
		{name: "empty object", suggestions: "{}"},
		{name: "empty array", suggestions: "[]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{}
			forker := &fakeForker{}
			o := NewOrchestrator(gen, forker, &fakeFeedback{})

			p, err := o.Evolve(context.Background(), testAnalysis(true, tt.suggestions), testPlan(1))
			require.NoError(t, err)
			assert.Nil(t, p)
			assert.Zero(t, gen.calls)
			assert.Zero(t, forker.calls)
		})
	}
}

func TestEvolveParsedResultForksPlan(t *testing.T) {
	gen := &fakeGenerator{result: generation.Parsed{Value: map[string]any{"weeks": float64(6)}}}
	forker := &fakeForker{}
	o := NewOrchestrator(gen, forker, &fakeFeedback{})

	parent := testPlan(3)
	p, err := o.Evolve(context.Background(), testAnalysis(true, `{"add": "intervals"}`), parent)
	require.NoError(t, err)
	require.NotNil(t, p)

	assert.Equal(t, 4, p.Version)
	require.NotNil(t, p.ParentPlanID)
	assert.Equal(t, parent.ID, *p.ParentPlanID)
	assert.JSONEq(t, `{"weeks": 6}`, string(forker.lastContent))

	// The generation context carries the plan, the feedback and the suggestions.
	assert.JSONEq(t, string(parent.Content), gen.lastVars["current_plan"])
	assert.JSONEq(t, `{"effort": "high"}`, gen.lastVars["workout_analysis"])
	assert.JSONEq(t, `{"add": "intervals"}`, gen.lastVars["suggestions"])
}

func TestEvolveRawResultStillForks(t *testing.T) {
	gen := &fakeGenerator{result: generation.Raw{Text: "try adding a rest week"}}
	forker := &fakeForker{}
	o := NewOrchestrator(gen, forker, &fakeFeedback{})

	p, err := o.Evolve(context.Background(), testAnalysis(true, `{"add": "rest"}`), testPlan(1))
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.JSONEq(t, `{"raw_plan": "try adding a rest week", "structured": false}`, string(forker.lastContent))
}

func TestEvolveGenerationErrorPropagates(t *testing.T) {
	genErr := &generation.GenerationError{Attempts: 3, Err: errors.New("endpoint down")}
	gen := &fakeGenerator{err: genErr}
	forker := &fakeForker{}
	o := NewOrchestrator(gen, forker, &fakeFeedback{})

	_, err := o.Evolve(context.Background(), testAnalysis(true, `{"add": "rest"}`), testPlan(1))

	var ge *generation.GenerationError
	require.True(t, errors.As(err, &ge))
	assert.Zero(t, forker.calls, "no partial plan on generation failure")
}

func TestApprove(t *testing.T) {
	fb := &fakeFeedback{}
	o := NewOrchestrator(&fakeGenerator{}, &fakeForker{}, fb)

	a := testAnalysis(false, "")
	require.NoError(t, o.Approve(context.Background(), a.ID))
	assert.Equal(t, []uuid.UUID{a.ID}, fb.approved)

	// Not idempotent: a second call records a second approval.
	require.NoError(t, o.Approve(context.Background(), a.ID))
	assert.Len(t, fb.approved, 2)
}

func TestOnFeedbackApproved(t *testing.T) {
	gen := &fakeGenerator{result: generation.Parsed{Value: map[string]any{"weeks": float64(2)}}}
	forker := &fakeForker{}
	fb := &fakeFeedback{}
	o := NewOrchestrator(gen, forker, fb)

	a := testAnalysis(false, `{"add": "tempo run"}`)
	p, err := o.OnFeedbackApproved(context.Background(), a, testPlan(1))
	require.NoError(t, err)
	require.NotNil(t, p)

	assert.Equal(t, []uuid.UUID{a.ID}, fb.approved)
	assert.True(t, a.Approved)
	assert.Equal(t, 2, p.Version)
}

func TestOnFeedbackApprovedApproveFails(t *testing.T) {
	fb := &fakeFeedback{err: errors.New("db down")}
	gen := &fakeGenerator{}
	o := NewOrchestrator(gen, &fakeForker{}, fb)

	_, err := o.OnFeedbackApproved(context.Background(), testAnalysis(false, `{"x":1}`), testPlan(1))
	require.Error(t, err)
	assert.Zero(t, gen.calls, "no generation when approval fails")
}
