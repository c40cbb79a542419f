// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	json "github.com/goccy/go-json"
)

// EvaluateDependencies defines the interface for fixed-group evaluation.
type EvaluateDependencies interface {
	EvaluateGroup(ctx context.Context, actorIDs []string) (Evaluation, error)
}

// EvaluateHandler handles fixed-group evaluation requests.
type EvaluateHandler struct {
	deps EvaluateDependencies
}

// NewEvaluateHandler creates a new evaluation handler.
func NewEvaluateHandler(deps EvaluateDependencies) *EvaluateHandler {
	return &EvaluateHandler{deps: deps}
}

// evaluateGroupRequest mirrors the OpenAPI schema for POST /evaluate-group.
type evaluateGroupRequest struct {
	ActorIDs []string `json:"actor_ids" validate:"required,min=1,dive,required"`
}

// HandleEvaluateGroup handles POST /evaluate-group requests.
func (h *EvaluateHandler) HandleEvaluateGroup(w http.ResponseWriter, r *http.Request) {
	const op = "api.evaluate_group"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req evaluateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	ev, err := h.deps.EvaluateGroup(r.Context(), req.ActorIDs)
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}
