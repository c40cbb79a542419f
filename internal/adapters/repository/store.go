// Package repository defines the roster/persona store interface and errors.
package repository

import (
	"context"

	"github.com/okian/huddle/internal/domain/model"
)

// Store provides read/write access to the roster state: actors, the
// persona catalog, and per-actor persona selections.
type Store interface {
	// UpsertActor creates or replaces an actor by external id.
	UpsertActor(ctx context.Context, a model.Actor) error

	// GetActor returns the actor with the given external id.
	// Returns ErrActorNotFound if the actor is unknown.
	GetActor(ctx context.Context, id string) (model.Actor, error)

	// ListActors returns all actors ordered by id.
	ListActors(ctx context.Context) ([]model.Actor, error)

	// Resolve maps external ids to actors and reports the ids it could
	// not find. Resolution itself never fails on unknown ids.
	Resolve(ctx context.Context, ids []string) ([]model.Actor, []string, error)

	// CreatePersona adds a catalog persona and assigns its id.
	// Returns ErrDuplicateAlias when the alias is already taken.
	CreatePersona(ctx context.Context, p model.Persona) (model.Persona, error)

	// GetPersona returns a catalog persona by id.
	GetPersona(ctx context.Context, id string) (model.Persona, error)

	// ListPersonas returns the whole catalog ordered by alias.
	ListPersonas(ctx context.Context) ([]model.Persona, error)

	// UpdatePersona patches a catalog persona in place.
	UpdatePersona(ctx context.Context, p model.Persona) (model.Persona, error)

	// DeletePersona removes a persona and every selection referencing it.
	DeletePersona(ctx context.Context, id string) (model.Persona, error)

	// SelectPersona assigns a persona to an actor, replacing any existing
	// assignment in the same category. Re-selecting the exact persona is
	// idempotent and returns the existing assignment.
	SelectPersona(ctx context.Context, actorID, personaID string, weight float64) (model.PersonaAssignment, error)

	// RemoveSelection drops an actor's assignment of the given persona and
	// returns its category. Returns ErrNotAssigned when absent.
	RemoveSelection(ctx context.Context, actorID, personaID string) (string, error)

	// BundleFor returns all assignments of an actor, possibly empty.
	// Satisfies scoring.BundleSource.
	BundleFor(ctx context.Context, actorID string) (model.PersonaBundle, error)

	// SelectionsByCategory groups an actor's assignments by category.
	SelectionsByCategory(ctx context.Context, actorID string) (map[string]model.PersonaAssignment, error)

	// Counts returns the number of actors, catalog personas, and
	// selections currently tracked.
	Counts(ctx context.Context) (actors, personas, selections int)
}
