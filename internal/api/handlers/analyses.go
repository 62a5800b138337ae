package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fitkit/planforge/internal/analysis"
	"github.com/fitkit/planforge/internal/evolution"
	"github.com/fitkit/planforge/internal/queue"
)

type AnalysisHandler struct {
	store *analysis.Store
	orch  *evolution.Orchestrator
	queue *queue.Client
}

func NewAnalysisHandler(store *analysis.Store, orch *evolution.Orchestrator, q *queue.Client) *AnalysisHandler {
	return &AnalysisHandler{store: store, orch: orch, queue: q}
}

func (h *AnalysisHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req analysis.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.WorkoutRef == "" || len(req.Feedback) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "workout_ref and feedback required"})
		return
	}

	a, err := h.store.Create(r.Context(), req)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusCreated, a)
}

func (h *AnalysisHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid analysis ID"})
		return
	}

	a, err := h.store.Get(r.Context(), id)
	if errors.Is(err, analysis.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "analysis not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, a)
}

// Approve flips the approval flag and, when the analysis carries
// suggestions against a known plan, hands the evolution to the worker.
func (h *AnalysisHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid analysis ID"})
		return
	}

	a, err := h.store.Get(r.Context(), id)
	if errors.Is(err, analysis.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "analysis not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	if err := h.orch.Approve(r.Context(), id); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	if len(a.Suggestions) > 0 && a.PlanID != nil {
		if err := h.queue.EnqueuePlanEvolve(queue.PlanEvolvePayload{AnalysisID: id.String()}); err != nil {
			// The approval is committed; the evolution just won't run.
			slog.Error("failed to enqueue plan evolution", "analysis_id", id, "error", err)
			writeJSON(w, http.StatusAccepted, map[string]string{
				"message": "analysis approved, evolution could not be scheduled",
			})
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{
			"message": "analysis approved, evolution scheduled",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "analysis approved"})
}
