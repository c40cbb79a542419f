// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/okian/huddle/internal/domain/model"
)

// ActorsDependencies defines the interface for roster actor operations.
type ActorsDependencies interface {
	UpsertActor(ctx context.Context, a model.Actor) error
	GetActor(ctx context.Context, id string) (model.Actor, error)
	ListActors(ctx context.Context) ([]model.Actor, error)
	SelectPersona(ctx context.Context, actorID, personaID string, weight float64) (model.PersonaAssignment, error)
	RemoveSelection(ctx context.Context, actorID, personaID string) (string, error)
	SelectionsByCategory(ctx context.Context, actorID string) (map[string]model.PersonaAssignment, error)
}

// ActorsHandler handles roster actor requests.
type ActorsHandler struct {
	deps ActorsDependencies
}

// NewActorsHandler creates a new actors handler.
func NewActorsHandler(deps ActorsDependencies) *ActorsHandler {
	return &ActorsHandler{deps: deps}
}

// actorRequest mirrors the OpenAPI schema for POST /actors.
type actorRequest struct {
	ID   string `json:"id"   validate:"required"`
	Name string `json:"name" validate:"required"`
}

// selectPersonaRequest mirrors the OpenAPI schema for POST /actors/{id}/personas.
type selectPersonaRequest struct {
	PersonaID string  `json:"persona_id" validate:"required"`
	Weight    float64 `json:"weight"     validate:"gte=0"`
}

// HandleActors handles GET and POST /actors requests.
func (h *ActorsHandler) HandleActors(w http.ResponseWriter, r *http.Request) {
	const op = "api.actors"
	switch r.Method {
	case http.MethodGet:
		actors, err := h.deps.ListActors(r.Context())
		if err != nil {
			writeDomainError(w, op, err)
			return
		}
		writeJSON(w, http.StatusOK, actors)
	case http.MethodPost:
		var req actorRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		if err := h.deps.UpsertActor(r.Context(), model.Actor{ID: req.ID, Name: req.Name}); err != nil {
			writeDomainError(w, op, err)
			return
		}
		writeJSON(w, http.StatusCreated, model.Actor{ID: req.ID, Name: req.Name})
	default:
		http.NotFound(w, r)
	}
}

// HandleActor handles requests under /actors/{id}:
//
//	GET    /actors/{id}                      actor details
//	GET    /actors/{id}/personas             selections grouped by category
//	POST   /actors/{id}/personas             assign a persona
//	DELETE /actors/{id}/personas/{personaID} drop an assignment
func (h *ActorsHandler) HandleActor(w http.ResponseWriter, r *http.Request) {
	const op = "api.actor"
	path := strings.TrimPrefix(r.URL.Path, "/actors/")
	if path == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	parts := strings.Split(path, "/")

	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		actor, err := h.deps.GetActor(r.Context(), parts[0])
		if err != nil {
			writeDomainError(w, op, err)
			return
		}
		writeJSON(w, http.StatusOK, actor)

	case len(parts) == 2 && parts[1] == "personas" && r.Method == http.MethodGet:
		byCategory, err := h.deps.SelectionsByCategory(r.Context(), parts[0])
		if err != nil {
			writeDomainError(w, op, err)
			return
		}
		writeJSON(w, http.StatusOK, byCategory)

	case len(parts) == 2 && parts[1] == "personas" && r.Method == http.MethodPost:
		var req selectPersonaRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		assignment, err := h.deps.SelectPersona(r.Context(), parts[0], req.PersonaID, req.Weight)
		if err != nil {
			writeDomainError(w, op, err)
			return
		}
		writeJSON(w, http.StatusOK, assignment)

	case len(parts) == 3 && parts[1] == "personas" && r.Method == http.MethodDelete:
		category, err := h.deps.RemoveSelection(r.Context(), parts[0], parts[2])
		if err != nil {
			writeDomainError(w, op, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"removed_category": category})

	default:
		http.NotFound(w, r)
	}
}
