// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"runtime"
	"sync"

	repository "github.com/okian/huddle/internal/adapters/repository"
	"github.com/okian/huddle/internal/domain/bundlecache"
	"github.com/okian/huddle/internal/domain/feedback"
	"github.com/okian/huddle/internal/domain/formation"
	"github.com/okian/huddle/internal/domain/model"
	"github.com/okian/huddle/internal/domain/scoring"
	"github.com/okian/huddle/pkg/logger"
	"github.com/okian/huddle/pkg/metrics"
)

// Balance verdict thresholds and labels for fixed-group evaluation.
const (
	excellentThreshold = 80.0
	goodThreshold      = 70.0
	fairThreshold      = 60.0

	verdictExcellent  = "Excellent - Highly balanced"
	verdictGood       = "Good - Well-balanced"
	verdictFair       = "Fair - Moderately balanced"
	verdictPoor       = "Needs improvement"
	verdictNoPersonas = "No personas found"
)

// Evaluation is the outcome of scoring one fixed group.
type Evaluation struct {
	Score   float64  `json:"team_score"`
	Members []Member `json:"members"`
	Verdict string   `json:"evaluation"`
}

// Member describes one evaluated actor and their persona selections.
type Member struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Personas []MemberPersona `json:"personas"`
}

// MemberPersona is the persona detail surfaced per member.
type MemberPersona struct {
	Title    string  `json:"title"`
	Category string  `json:"category"`
	Weight   float64 `json:"weight"`
}

// Service implements the API dependencies for the group formation system.
type Service struct {
	mu sync.RWMutex

	// Core components
	roster  repository.Store
	engine  *formation.Engine
	learner feedback.Learner

	// Configuration
	shardCount         int
	trialWorkerCount   int
	trialQueueSize     int
	trials             int
	trialsWithFeedback int
	feedbackAlpha      float64
	maxPairAdjustment  float64
	bundleCacheSize    int
	defaultWeight      float64
	expectedCategories int

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithShardCount sets the number of roster store shards.
func WithShardCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.shardCount = count
		}
	}
}

// WithTrialWorkerCount sets the number of trial evaluation workers.
func WithTrialWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.trialWorkerCount = count
		}
	}
}

// WithTrialQueueSize caps the per-request trial queue.
func WithTrialQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.trialQueueSize = size
		}
	}
}

// WithTrialBudgets sets the iteration budgets for searches without and
// with feedback adjustments.
func WithTrialBudgets(trials, trialsWithFeedback int) Option {
	return func(s *Service) {
		if trials > 0 {
			s.trials = trials
		}
		if trialsWithFeedback > 0 {
			s.trialsWithFeedback = trialsWithFeedback
		}
	}
}

// WithFeedbackAlpha sets the learning rate for feedback adjustments.
func WithFeedbackAlpha(alpha float64) Option {
	return func(s *Service) {
		if alpha > 0 {
			s.feedbackAlpha = alpha
		}
	}
}

// WithMaxPairAdjustment caps the total feedback adjustment per group.
func WithMaxPairAdjustment(max float64) Option {
	return func(s *Service) {
		if max >= 0 {
			s.maxPairAdjustment = max
		}
	}
}

// WithBundleCacheSize bounds the per-request persona bundle cache.
func WithBundleCacheSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.bundleCacheSize = size
		}
	}
}

// WithDefaultWeight sets the weight assigned to selections without one.
func WithDefaultWeight(weight float64) Option {
	return func(s *Service) {
		if weight > 0 {
			s.defaultWeight = weight
		}
	}
}

// WithExpectedCategories sets the category count used for coverage scoring.
func WithExpectedCategories(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.expectedCategories = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		shardCount:         8,
		trialWorkerCount:   runtime.NumCPU(),
		trialQueueSize:     1024,
		trials:             50,
		trialsWithFeedback: 80,
		feedbackAlpha:      2.0,
		maxPairAdjustment:  15.0,
		bundleCacheSize:    10_000,
		defaultWeight:      1.0,
		expectedCategories: 4,
		logger:             nil, // Will be replaced when service starts
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting formation service...")

	s.roster = repository.NewRosterStore(ctx,
		repository.WithShardCount(s.shardCount),
		repository.WithDefaultWeight(s.defaultWeight),
	)
	s.learner = feedback.NewAveragingLearner(
		feedback.WithAlpha(s.feedbackAlpha),
	)

	oracle := scoring.NewBalanceOracle(
		scoring.WithExpectedCategories(s.expectedCategories),
	)

	engine, err := formation.NewEngine(s.roster, s.roster,
		formation.WithLearner(s.learner),
		formation.WithScorerOptions(
			scoring.WithOracle(oracle),
			scoring.WithMaxAdjustment(s.maxPairAdjustment),
		),
		formation.WithTrials(s.trials),
		formation.WithFeedbackTrials(s.trialsWithFeedback),
		formation.WithWorkerCount(s.trialWorkerCount),
		formation.WithQueueCapacity(s.trialQueueSize),
		formation.WithBundleCacheSize(s.bundleCacheSize),
		formation.WithLogger(s.logger.Named("formation")),
	)
	if err != nil {
		return err
	}
	s.engine = engine

	s.started = true
	s.logger.Info(ctx, "formation service started",
		logger.Int("shards", s.shardCount),
		logger.Int("trialWorkers", s.trialWorkerCount),
		logger.Int("trials", s.trials),
		logger.Int("trialsWithFeedback", s.trialsWithFeedback),
	)

	return nil
}

// Stop gracefully shuts down the service. Roster state is in-memory only,
// so stopping discards it.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping formation service...")
	s.started = false
	s.logger.Info(context.Background(), "formation service stopped")
}

// FormGroups runs a formation search over the given actors.
func (s *Service) FormGroups(ctx context.Context, actorIDs []string, groupSize int, records []model.FeedbackRecord, incorporateFeedback bool) (*formation.Result, error) {
	return s.engine.FormGroups(ctx, actorIDs, groupSize, records, incorporateFeedback)
}

// EvaluateGroup scores one fixed group without searching, returning the
// team score, per-member persona detail, and a coarse balance verdict.
// No feedback adjustment applies to a fixed evaluation.
func (s *Service) EvaluateGroup(ctx context.Context, actorIDs []string) (Evaluation, error) {
	if len(actorIDs) == 0 {
		return Evaluation{}, formation.ErrNoActors
	}

	actors, missing, err := s.roster.Resolve(ctx, actorIDs)
	if err != nil {
		return Evaluation{}, err
	}
	if len(missing) > 0 {
		return Evaluation{}, &formation.MissingActorsError{IDs: missing}
	}

	members := make([]Member, 0, len(actors))
	anyAssigned := false
	for _, a := range actors {
		bundle, err := s.roster.BundleFor(ctx, a.ID)
		if err != nil {
			return Evaluation{}, err
		}
		if len(bundle) > 0 {
			anyAssigned = true
		}

		personas := make([]MemberPersona, 0, len(bundle))
		for _, sel := range bundle {
			p, err := s.roster.GetPersona(ctx, sel.PersonaID)
			if err != nil {
				return Evaluation{}, err
			}
			personas = append(personas, MemberPersona{
				Title:    p.Title,
				Category: sel.Category,
				Weight:   sel.Weight,
			})
		}
		members = append(members, Member{ID: a.ID, Name: a.Name, Personas: personas})
	}

	metrics.RecordEvaluationRequest()

	// A group whose members carry no personas at all scores zero with a
	// dedicated verdict rather than a misleading "needs improvement".
	if !anyAssigned {
		return Evaluation{Score: 0, Members: members, Verdict: verdictNoPersonas}, nil
	}

	cache := bundlecache.New(s.roster, bundlecache.WithMaxSize(s.bundleCacheSize))
	scorer, err := scoring.NewTeamScorer(cache,
		scoring.WithOracle(scoring.NewBalanceOracle(
			scoring.WithExpectedCategories(s.expectedCategories),
		)),
		scoring.WithMaxAdjustment(s.maxPairAdjustment),
	)
	if err != nil {
		return Evaluation{}, err
	}

	score, err := scorer.Score(ctx, actorIDs, nil)
	if err != nil {
		return Evaluation{}, err
	}

	return Evaluation{
		Score:   score,
		Members: members,
		Verdict: verdictFor(score),
	}, nil
}

// verdictFor maps a score onto a coarse balance band.
func verdictFor(score float64) string {
	switch {
	case score >= excellentThreshold:
		return verdictExcellent
	case score >= goodThreshold:
		return verdictGood
	case score >= fairThreshold:
		return verdictFair
	default:
		return verdictPoor
	}
}

// Roster passthroughs used by the HTTP handlers.

// UpsertActor creates or replaces an actor.
func (s *Service) UpsertActor(ctx context.Context, a model.Actor) error {
	return s.roster.UpsertActor(ctx, a)
}

// GetActor returns one actor by id.
func (s *Service) GetActor(ctx context.Context, id string) (model.Actor, error) {
	return s.roster.GetActor(ctx, id)
}

// ListActors returns all actors.
func (s *Service) ListActors(ctx context.Context) ([]model.Actor, error) {
	return s.roster.ListActors(ctx)
}

// CreatePersona adds a catalog persona.
func (s *Service) CreatePersona(ctx context.Context, p model.Persona) (model.Persona, error) {
	return s.roster.CreatePersona(ctx, p)
}

// GetPersona returns one catalog persona by id.
func (s *Service) GetPersona(ctx context.Context, id string) (model.Persona, error) {
	return s.roster.GetPersona(ctx, id)
}

// ListPersonas returns the whole persona catalog.
func (s *Service) ListPersonas(ctx context.Context) ([]model.Persona, error) {
	return s.roster.ListPersonas(ctx)
}

// UpdatePersona patches a catalog persona.
func (s *Service) UpdatePersona(ctx context.Context, p model.Persona) (model.Persona, error) {
	return s.roster.UpdatePersona(ctx, p)
}

// DeletePersona removes a persona and its selections.
func (s *Service) DeletePersona(ctx context.Context, id string) (model.Persona, error) {
	return s.roster.DeletePersona(ctx, id)
}

// SelectPersona assigns a persona to an actor.
func (s *Service) SelectPersona(ctx context.Context, actorID, personaID string, weight float64) (model.PersonaAssignment, error) {
	if weight <= 0 {
		weight = s.defaultWeight
	}
	return s.roster.SelectPersona(ctx, actorID, personaID, weight)
}

// RemoveSelection drops an actor's persona assignment.
func (s *Service) RemoveSelection(ctx context.Context, actorID, personaID string) (string, error) {
	return s.roster.RemoveSelection(ctx, actorID, personaID)
}

// BundleFor returns all of an actor's persona assignments.
func (s *Service) BundleFor(ctx context.Context, actorID string) (model.PersonaBundle, error) {
	return s.roster.BundleFor(ctx, actorID)
}

// SelectionsByCategory groups an actor's assignments by category.
func (s *Service) SelectionsByCategory(ctx context.Context, actorID string) (map[string]model.PersonaAssignment, error) {
	return s.roster.SelectionsByCategory(ctx, actorID)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":            s.started,
		"shardCount":         s.shardCount,
		"trialWorkerCount":   s.trialWorkerCount,
		"trialQueueSize":     s.trialQueueSize,
		"trials":             s.trials,
		"trialsWithFeedback": s.trialsWithFeedback,
	}

	if s.started {
		actors, personas, selections := s.roster.Counts(context.Background())
		stats["actors"] = actors
		stats["personas"] = personas
		stats["selections"] = selections

		metrics.UpdateRosterActors(actors)
		metrics.UpdateRosterPersonas(personas)
		metrics.UpdateRosterSelections(selections)
	}

	return stats
}
