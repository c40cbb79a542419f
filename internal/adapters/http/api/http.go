// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"net/http"

	json "github.com/goccy/go-json"
	service "github.com/okian/huddle/internal/app"
	"github.com/okian/huddle/internal/adapters/repository"
	"github.com/okian/huddle/internal/domain/formation"
	"github.com/okian/huddle/internal/domain/model"
)

// Evaluation mirrors the read shape returned by fixed-group evaluation.
type Evaluation = service.Evaluation

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Formation operations.
	FormGroups(ctx context.Context, actorIDs []string, groupSize int, records []model.FeedbackRecord, incorporateFeedback bool) (*formation.Result, error)
	EvaluateGroup(ctx context.Context, actorIDs []string) (Evaluation, error)

	// Roster operations.
	UpsertActor(ctx context.Context, a model.Actor) error
	GetActor(ctx context.Context, id string) (model.Actor, error)
	ListActors(ctx context.Context) ([]model.Actor, error)
	CreatePersona(ctx context.Context, p model.Persona) (model.Persona, error)
	GetPersona(ctx context.Context, id string) (model.Persona, error)
	ListPersonas(ctx context.Context) ([]model.Persona, error)
	UpdatePersona(ctx context.Context, p model.Persona) (model.Persona, error)
	DeletePersona(ctx context.Context, id string) (model.Persona, error)
	SelectPersona(ctx context.Context, actorID, personaID string, weight float64) (model.PersonaAssignment, error)
	RemoveSelection(ctx context.Context, actorID, personaID string) (string, error)
	SelectionsByCategory(ctx context.Context, actorID string) (map[string]model.PersonaAssignment, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	formGroupsHandler *FormGroupsHandler
	evaluateHandler   *EvaluateHandler
	actorsHandler     *ActorsHandler
	personasHandler   *PersonasHandler
	dashboardHandler  *dashboardHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:     NewHealthHandler(),
		statsHandler:      NewStatsHandler(statsProvider),
		formGroupsHandler: NewFormGroupsHandler(deps),
		evaluateHandler:   NewEvaluateHandler(deps),
		actorsHandler:     NewActorsHandler(deps),
		personasHandler:   NewPersonasHandler(deps),
		dashboardHandler:  newdashboardHandler(),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/dashboard", s.dashboardHandler.HandleDashboard)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/form-groups", MetricsMiddleware(s.formGroupsHandler.HandleFormGroups, "form_groups"))
	mux.HandleFunc("/evaluate-group", MetricsMiddleware(s.evaluateHandler.HandleEvaluateGroup, "evaluate_group"))
	mux.HandleFunc("/actors", MetricsMiddleware(s.actorsHandler.HandleActors, "actors"))
	mux.HandleFunc("/actors/", MetricsMiddleware(s.actorsHandler.HandleActor, "actor"))
	mux.HandleFunc("/personas", MetricsMiddleware(s.personasHandler.HandlePersonas, "personas"))
	mux.HandleFunc("/personas/", MetricsMiddleware(s.personasHandler.HandlePersona, "persona"))
}

type errorResponse struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Missing []string `json:"missing_ids,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeDomainError translates domain errors into HTTP responses so every
// handler maps errors the same way.
func writeDomainError(w http.ResponseWriter, op string, err error) {
	var missing *formation.MissingActorsError
	switch {
	case errors.As(err, &missing):
		msg := Wrap(op, err)
		writeJSON(w, http.StatusNotFound, errorResponse{
			Code:    "actors_not_found",
			Message: msg.Error(),
			Missing: missing.IDs,
		})
	case errors.Is(err, formation.ErrNoActors),
		errors.Is(err, formation.ErrTooFewActors),
		errors.Is(err, formation.ErrGroupSize),
		errors.Is(err, repository.ErrInvalidActor),
		errors.Is(err, repository.ErrInvalidPersona):
		writeError(w, http.StatusBadRequest, "bad_request", Wrap(op, err))
	case errors.Is(err, repository.ErrActorNotFound),
		errors.Is(err, repository.ErrPersonaNotFound),
		errors.Is(err, repository.ErrNotAssigned):
		writeError(w, http.StatusNotFound, "not_found", Wrap(op, err))
	case errors.Is(err, repository.ErrDuplicateAlias):
		writeError(w, http.StatusConflict, "duplicate_alias", Wrap(op, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}
