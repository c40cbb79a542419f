// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/okian/huddle/internal/domain/model"
)

// PersonasDependencies defines the interface for persona catalog operations.
type PersonasDependencies interface {
	CreatePersona(ctx context.Context, p model.Persona) (model.Persona, error)
	GetPersona(ctx context.Context, id string) (model.Persona, error)
	ListPersonas(ctx context.Context) ([]model.Persona, error)
	UpdatePersona(ctx context.Context, p model.Persona) (model.Persona, error)
	DeletePersona(ctx context.Context, id string) (model.Persona, error)
}

// PersonasHandler handles persona catalog requests.
type PersonasHandler struct {
	deps PersonasDependencies
}

// NewPersonasHandler creates a new personas handler.
func NewPersonasHandler(deps PersonasDependencies) *PersonasHandler {
	return &PersonasHandler{deps: deps}
}

// personaRequest mirrors the OpenAPI schema for POST and PUT /personas.
type personaRequest struct {
	Alias       string            `json:"alias"       validate:"required,min=2"`
	Category    string            `json:"category"    validate:"required"`
	Title       string            `json:"title"       validate:"required"`
	Description string            `json:"description" validate:"required"`
	EmpathyMap  map[string]string `json:"empathy_map"`
}

// HandlePersonas handles GET and POST /personas requests.
func (h *PersonasHandler) HandlePersonas(w http.ResponseWriter, r *http.Request) {
	const op = "api.personas"
	switch r.Method {
	case http.MethodGet:
		personas, err := h.deps.ListPersonas(r.Context())
		if err != nil {
			writeDomainError(w, op, err)
			return
		}
		writeJSON(w, http.StatusOK, personas)
	case http.MethodPost:
		var req personaRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		created, err := h.deps.CreatePersona(r.Context(), model.Persona{
			Alias:       req.Alias,
			Category:    req.Category,
			Title:       req.Title,
			Description: req.Description,
			EmpathyMap:  req.EmpathyMap,
		})
		if err != nil {
			writeDomainError(w, op, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	default:
		http.NotFound(w, r)
	}
}

// HandlePersona handles GET, PUT, and DELETE /personas/{id} requests.
func (h *PersonasHandler) HandlePersona(w http.ResponseWriter, r *http.Request) {
	const op = "api.persona"
	id := strings.TrimPrefix(r.URL.Path, "/personas/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	switch r.Method {
	case http.MethodGet:
		persona, err := h.deps.GetPersona(r.Context(), id)
		if err != nil {
			writeDomainError(w, op, err)
			return
		}
		writeJSON(w, http.StatusOK, persona)

	case http.MethodPut:
		var req personaRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		updated, err := h.deps.UpdatePersona(r.Context(), model.Persona{
			ID:          id,
			Alias:       req.Alias,
			Category:    req.Category,
			Title:       req.Title,
			Description: req.Description,
			EmpathyMap:  req.EmpathyMap,
		})
		if err != nil {
			writeDomainError(w, op, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)

	case http.MethodDelete:
		deleted, err := h.deps.DeletePersona(r.Context(), id)
		if err != nil {
			writeDomainError(w, op, err)
			return
		}
		writeJSON(w, http.StatusOK, deleted)

	default:
		http.NotFound(w, r)
	}
}
