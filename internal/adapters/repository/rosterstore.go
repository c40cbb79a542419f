// Package repository defines the roster/persona store interface and errors.
package repository

import (
	"context"
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/huddle/internal/domain/model"
	"github.com/okian/huddle/pkg/metrics"
)

// Default store configuration constants.
const (
	defaultShardCount      = 8
	defaultSelectionWeight = 1.0
	minAliasLength         = 2
)

// actorShard holds one slice of the roster: actors and their selections.
type actorShard struct {
	mu         sync.RWMutex
	actors     map[string]model.Actor
	selections map[string][]model.PersonaAssignment
}

// RosterStore implements Store with sharded in-memory maps. Actor data is
// sharded by FNV-1a of the actor id; the persona catalog is small and
// lives behind a single lock.
type RosterStore struct {
	shardCount    int
	defaultWeight float64
	shards        []*actorShard

	pmu      sync.RWMutex
	personas map[string]model.Persona
	aliases  map[string]string // alias -> persona id

	now func() time.Time
}

// NewRosterStore creates a roster store with configuration options.
func NewRosterStore(_ context.Context, opts ...Option) *RosterStore {
	s := &RosterStore{
		shardCount:    defaultShardCount,
		defaultWeight: defaultSelectionWeight,
		now:           time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.shards = make([]*actorShard, s.shardCount)
	for i := range s.shards {
		s.shards[i] = &actorShard{
			actors:     make(map[string]model.Actor),
			selections: make(map[string][]model.PersonaAssignment),
		}
	}
	s.personas = make(map[string]model.Persona)
	s.aliases = make(map[string]string)

	metrics.UpdateRepositoryShardCount(s.shardCount)

	return s
}

// shardFor picks the shard owning an actor id.
func (s *RosterStore) shardFor(actorID string) *actorShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(actorID))
	return s.shards[int(h.Sum32())%s.shardCount]
}

// UpsertActor creates or replaces an actor.
func (s *RosterStore) UpsertActor(_ context.Context, a model.Actor) error {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryUpdateLatency(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	if strings.TrimSpace(a.ID) == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidActor)
	}

	shard := s.shardFor(a.ID)
	shard.mu.Lock()
	shard.actors[a.ID] = a
	shard.mu.Unlock()

	s.updateGauges()
	return nil
}

// GetActor returns an actor by id.
func (s *RosterStore) GetActor(_ context.Context, id string) (model.Actor, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	shard := s.shardFor(id)
	shard.mu.RLock()
	defer shard.mu.RUnlock()

	a, ok := shard.actors[id]
	if !ok {
		return model.Actor{}, ErrActorNotFound
	}
	return a, nil
}

// ListActors returns all actors ordered by id.
func (s *RosterStore) ListActors(_ context.Context) ([]model.Actor, error) {
	var out []model.Actor
	for _, shard := range s.shards {
		shard.mu.RLock()
		for _, a := range shard.actors {
			out = append(out, a)
		}
		shard.mu.RUnlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Resolve maps ids to actors, reporting the unknown ones.
func (s *RosterStore) Resolve(ctx context.Context, ids []string) ([]model.Actor, []string, error) {
	actors := make([]model.Actor, 0, len(ids))
	var missing []string
	for _, id := range ids {
		a, err := s.GetActor(ctx, id)
		if err != nil {
			missing = append(missing, id)
			continue
		}
		actors = append(actors, a)
	}
	return actors, missing, nil
}

// validatePersona enforces catalog invariants shared by create and update.
func validatePersona(p model.Persona) error {
	switch {
	case len(strings.TrimSpace(p.Alias)) < minAliasLength:
		return fmt.Errorf("%w: alias is missing or shorter than %d characters", ErrInvalidPersona, minAliasLength)
	case strings.TrimSpace(p.Category) == "":
		return fmt.Errorf("%w: category is required", ErrInvalidPersona)
	case strings.TrimSpace(p.Title) == "":
		return fmt.Errorf("%w: title is required", ErrInvalidPersona)
	case strings.TrimSpace(p.Description) == "":
		return fmt.Errorf("%w: description is required", ErrInvalidPersona)
	}
	return nil
}

// CreatePersona adds a persona to the catalog.
func (s *RosterStore) CreatePersona(_ context.Context, p model.Persona) (model.Persona, error) {
	if err := validatePersona(p); err != nil {
		return model.Persona{}, err
	}

	s.pmu.Lock()
	defer s.pmu.Unlock()

	alias := strings.TrimSpace(p.Alias)
	if _, taken := s.aliases[alias]; taken {
		return model.Persona{}, ErrDuplicateAlias
	}

	p.ID = uuid.New().String()
	p.Alias = alias
	s.personas[p.ID] = p
	s.aliases[alias] = p.ID

	s.updateGauges()
	return p, nil
}

// GetPersona returns a catalog persona by id.
func (s *RosterStore) GetPersona(_ context.Context, id string) (model.Persona, error) {
	s.pmu.RLock()
	defer s.pmu.RUnlock()

	p, ok := s.personas[id]
	if !ok {
		return model.Persona{}, ErrPersonaNotFound
	}
	return p, nil
}

// ListPersonas returns the catalog ordered by alias.
func (s *RosterStore) ListPersonas(_ context.Context) ([]model.Persona, error) {
	s.pmu.RLock()
	out := make([]model.Persona, 0, len(s.personas))
	for _, p := range s.personas {
		out = append(out, p)
	}
	s.pmu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Alias < out[j].Alias })
	return out, nil
}

// UpdatePersona patches a persona. Zero-valued fields are left untouched;
// a changed alias must stay unique.
func (s *RosterStore) UpdatePersona(_ context.Context, p model.Persona) (model.Persona, error) {
	s.pmu.Lock()
	defer s.pmu.Unlock()

	existing, ok := s.personas[p.ID]
	if !ok {
		return model.Persona{}, ErrPersonaNotFound
	}

	if alias := strings.TrimSpace(p.Alias); alias != "" && alias != existing.Alias {
		if len(alias) < minAliasLength {
			return model.Persona{}, fmt.Errorf("%w: alias is missing or shorter than %d characters", ErrInvalidPersona, minAliasLength)
		}
		if _, taken := s.aliases[alias]; taken {
			return model.Persona{}, ErrDuplicateAlias
		}
		delete(s.aliases, existing.Alias)
		s.aliases[alias] = existing.ID
		existing.Alias = alias
	}
	if v := strings.TrimSpace(p.Category); v != "" {
		existing.Category = v
	}
	if v := strings.TrimSpace(p.Title); v != "" {
		existing.Title = v
	}
	if v := strings.TrimSpace(p.Description); v != "" {
		existing.Description = v
	}
	if p.EmpathyMap != nil {
		existing.EmpathyMap = p.EmpathyMap
	}

	s.personas[existing.ID] = existing
	return existing, nil
}

// DeletePersona removes a persona and all selections referencing it.
func (s *RosterStore) DeletePersona(_ context.Context, id string) (model.Persona, error) {
	s.pmu.Lock()
	p, ok := s.personas[id]
	if !ok {
		s.pmu.Unlock()
		return model.Persona{}, ErrPersonaNotFound
	}
	delete(s.personas, id)
	delete(s.aliases, p.Alias)
	s.pmu.Unlock()

	for _, shard := range s.shards {
		shard.mu.Lock()
		for actorID, selections := range shard.selections {
			kept := selections[:0]
			for _, sel := range selections {
				if sel.PersonaID != id {
					kept = append(kept, sel)
				}
			}
			if len(kept) == 0 {
				delete(shard.selections, actorID)
			} else {
				shard.selections[actorID] = kept
			}
		}
		shard.mu.Unlock()
	}

	s.updateGauges()
	return p, nil
}

// SelectPersona assigns a persona to an actor, replacing any existing
// assignment in the same category.
func (s *RosterStore) SelectPersona(ctx context.Context, actorID, personaID string, weight float64) (model.PersonaAssignment, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryUpdateLatency(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	if _, err := s.GetActor(ctx, actorID); err != nil {
		return model.PersonaAssignment{}, err
	}
	p, err := s.GetPersona(ctx, personaID)
	if err != nil {
		return model.PersonaAssignment{}, err
	}
	if weight <= 0 {
		weight = s.defaultWeight
	}

	shard := s.shardFor(actorID)
	shard.mu.Lock()

	selections := shard.selections[actorID]
	for _, sel := range selections {
		if sel.PersonaID == personaID {
			// Exact re-select is a no-op.
			shard.mu.Unlock()
			return sel, nil
		}
	}

	// Replace any existing assignment in the same category.
	kept := make([]model.PersonaAssignment, 0, len(selections)+1)
	for _, sel := range selections {
		if sel.Category != p.Category {
			kept = append(kept, sel)
		}
	}

	assignment := model.PersonaAssignment{
		ActorID:    actorID,
		PersonaID:  p.ID,
		Alias:      p.Alias,
		Category:   p.Category,
		Weight:     weight,
		SelectedAt: s.now(),
	}
	shard.selections[actorID] = append(kept, assignment)
	shard.mu.Unlock()

	s.updateGauges()
	return assignment, nil
}

// RemoveSelection drops one assignment and returns its category.
func (s *RosterStore) RemoveSelection(_ context.Context, actorID, personaID string) (string, error) {
	shard := s.shardFor(actorID)
	shard.mu.Lock()

	selections := shard.selections[actorID]
	for i, sel := range selections {
		if sel.PersonaID == personaID {
			shard.selections[actorID] = append(selections[:i], selections[i+1:]...)
			if len(shard.selections[actorID]) == 0 {
				delete(shard.selections, actorID)
			}
			shard.mu.Unlock()
			s.updateGauges()
			return sel.Category, nil
		}
	}
	shard.mu.Unlock()
	return "", ErrNotAssigned
}

// BundleFor returns all assignments of an actor, possibly empty. Unknown
// actors yield an empty bundle rather than an error so scoring can treat
// them uniformly.
func (s *RosterStore) BundleFor(_ context.Context, actorID string) (model.PersonaBundle, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	shard := s.shardFor(actorID)
	shard.mu.RLock()
	defer shard.mu.RUnlock()

	selections := shard.selections[actorID]
	bundle := make(model.PersonaBundle, len(selections))
	copy(bundle, selections)
	return bundle, nil
}

// SelectionsByCategory groups an actor's assignments by category.
func (s *RosterStore) SelectionsByCategory(ctx context.Context, actorID string) (map[string]model.PersonaAssignment, error) {
	bundle, err := s.BundleFor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]model.PersonaAssignment, len(bundle))
	for _, sel := range bundle {
		out[sel.Category] = sel
	}
	return out, nil
}

// Counts returns the number of actors, personas, and selections tracked.
func (s *RosterStore) Counts(_ context.Context) (actors, personas, selections int) {
	for _, shard := range s.shards {
		shard.mu.RLock()
		actors += len(shard.actors)
		for _, sel := range shard.selections {
			selections += len(sel)
		}
		shard.mu.RUnlock()
	}

	s.pmu.RLock()
	personas = len(s.personas)
	s.pmu.RUnlock()
	return actors, personas, selections
}

// updateGauges refreshes the roster gauges after a mutation.
func (s *RosterStore) updateGauges() {
	actors, personas, selections := s.Counts(context.Background())
	metrics.UpdateRosterActors(actors)
	metrics.UpdateRosterPersonas(personas)
	metrics.UpdateRosterSelections(selections)
}
