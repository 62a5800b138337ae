package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fitkit/planforge/internal/prompt"
)

type PromptHandler struct {
	store *prompt.Store
}

func NewPromptHandler(store *prompt.Store) *PromptHandler {
	return &PromptHandler{store: store}
}

type createPromptRequest struct {
	Category     string  `json:"category"`
	TemplateText string  `json:"template_text"`
	ModelID      *string `json:"model_id,omitempty"`
}

func (h *PromptHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createPromptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Category == "" || req.TemplateText == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "category and template_text required"})
		return
	}

	v, err := h.store.CreateVersion(r.Context(), req.Category, req.TemplateText, req.ModelID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusCreated, v)
}

func (h *PromptHandler) GetActive(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")

	v, err := h.store.GetActive(r.Context(), category)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if v == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no active prompt for " + category})
		return
	}

	writeJSON(w, http.StatusOK, v)
}

func (h *PromptHandler) History(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")

	versions, err := h.store.History(r.Context(), category)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"versions": versions, "count": len(versions)})
}

func (h *PromptHandler) Activate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid prompt version ID"})
		return
	}

	err = h.store.ActivateVersion(r.Context(), id)
	if errors.Is(err, prompt.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "prompt version not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "prompt version activated"})
}
