// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	json "github.com/goccy/go-json"
	"github.com/okian/huddle/internal/domain/formation"
	"github.com/okian/huddle/internal/domain/model"
)

// FormGroupsDependencies defines the interface for formation operations.
type FormGroupsDependencies interface {
	FormGroups(ctx context.Context, actorIDs []string, groupSize int, records []model.FeedbackRecord, incorporateFeedback bool) (*formation.Result, error)
}

// FormGroupsHandler handles formation requests.
type FormGroupsHandler struct {
	deps FormGroupsDependencies
}

// NewFormGroupsHandler creates a new formation handler.
func NewFormGroupsHandler(deps FormGroupsDependencies) *FormGroupsHandler {
	return &FormGroupsHandler{deps: deps}
}

// formGroupsRequest mirrors the OpenAPI schema for POST /form-groups.
type formGroupsRequest struct {
	ActorIDs            []string               `json:"actor_ids"                     validate:"required,min=2,dive,required"`
	GroupSize           int                    `json:"group_size"                    validate:"required,min=2,max=10"`
	IncorporateFeedback bool                   `json:"incorporate_prior_experiences"`
	FeedbackRows        []model.FeedbackRecord `json:"feedback_rows"`
}

// HandleFormGroups handles POST /form-groups requests.
func (h *FormGroupsHandler) HandleFormGroups(w http.ResponseWriter, r *http.Request) {
	const op = "api.form_groups"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req formGroupsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	result, err := h.deps.FormGroups(r.Context(), req.ActorIDs, req.GroupSize, req.FeedbackRows, req.IncorporateFeedback)
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
