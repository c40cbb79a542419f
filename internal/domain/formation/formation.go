// Package formation implements the randomized multi-start team formation
// search.
//
// Exhaustive partitioning is combinatorially infeasible beyond trivial
// roster sizes, so the engine samples random permutations, slices each into
// consecutive groups, scores them, and keeps the best partition seen. There
// is no exact-optimum guarantee; the fixed iteration budget bounds latency
// by construction.
package formation

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/okian/huddle/internal/adapters/mq/queue"
	"github.com/okian/huddle/internal/adapters/mq/worker"
	"github.com/okian/huddle/internal/domain/bundlecache"
	"github.com/okian/huddle/internal/domain/feedback"
	"github.com/okian/huddle/internal/domain/model"
	"github.com/okian/huddle/internal/domain/scoring"
	"github.com/okian/huddle/pkg/logger"
	"github.com/okian/huddle/pkg/metrics"
)

// Group size bounds and iteration budgets.
const (
	GroupSizeMin = 2
	GroupSizeMax = 10

	defaultTrials             = 50
	defaultTrialsWithFeedback = 80
	defaultWorkerCount        = 4
	defaultBundleCacheSize    = 10_000
	defaultAlpha              = 2.0
)

// Scoring method labels reported in results.
const (
	MethodAI         = "ai"
	MethodAIFeedback = "ai_feedback"
)

// Roster resolves external actor identifiers to known actors.
type Roster interface {
	// Resolve returns the actors for ids plus the ids it could not find.
	Resolve(ctx context.Context, ids []string) ([]model.Actor, []string, error)
}

// Result is the outcome of one formation search.
type Result struct {
	Groups       []model.ScoredGroup `json:"groups"`
	AverageScore float64             `json:"average_score"`
	Method       string              `json:"method"`
	FeedbackUsed bool                `json:"feedback_used"`
	LearnedPairs int                 `json:"learned_pairs"`
}

// Engine runs formation searches. Requests are independent; the engine
// keeps no mutable search state between calls.
type Engine struct {
	roster  Roster
	source  scoring.BundleSource
	learner feedback.Learner

	scorerOpts         []scoring.Option
	trials             int
	trialsWithFeedback int
	workerCount        int
	queueCapacity      int
	bundleCacheSize    int
	newRand            func() *rand.Rand
	logger             logger.Logger
}

// NewEngine creates a formation engine with configuration options.
func NewEngine(roster Roster, source scoring.BundleSource, opts ...Option) (*Engine, error) {
	if roster == nil {
		return nil, ErrNoRoster
	}
	if source == nil {
		return nil, ErrNoBundles
	}

	e := &Engine{
		roster:             roster,
		source:             source,
		learner:            feedback.NewAveragingLearner(feedback.WithAlpha(defaultAlpha)),
		trials:             defaultTrials,
		trialsWithFeedback: defaultTrialsWithFeedback,
		workerCount:        defaultWorkerCount,
		bundleCacheSize:    defaultBundleCacheSize,
		newRand: func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec // statistical sampling, not crypto
		},
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.logger == nil {
		e.logger = logger.Get().Named("formation")
	}

	return e, nil
}

// FormGroups partitions actorIDs into groups of groupSize, running the
// randomized search and returning the best partition found.
func (e *Engine) FormGroups(ctx context.Context, actorIDs []string, groupSize int, records []model.FeedbackRecord, incorporateFeedback bool) (*Result, error) {
	start := time.Now()

	switch {
	case len(actorIDs) == 0:
		return nil, ErrNoActors
	case len(actorIDs) < GroupSizeMin:
		return nil, ErrTooFewActors
	case groupSize < GroupSizeMin || groupSize > GroupSizeMax:
		return nil, ErrGroupSize
	}

	_, missing, err := e.roster.Resolve(ctx, actorIDs)
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		return nil, &MissingActorsError{IDs: missing}
	}

	var delta feedback.PairDelta
	if incorporateFeedback {
		delta = e.safeLearn(ctx, records)
	}

	trials := e.trials
	if incorporateFeedback && len(delta) > 0 {
		trials = e.trialsWithFeedback
	}

	best, err := e.search(ctx, actorIDs, groupSize, delta, trials)
	if err != nil {
		return nil, err
	}

	method := MethodAI
	if incorporateFeedback && len(delta) > 0 {
		method = MethodAIFeedback
	}
	metrics.RecordFormationRequest(method)
	metrics.RecordFormationLatency(float64(time.Since(start).Milliseconds()))
	metrics.RecordBestFitness(best.Fitness)

	e.logger.Info(ctx, "formation search finished",
		logger.Int("actors", len(actorIDs)),
		logger.Int("groupSize", groupSize),
		logger.Int("trials", trials),
		logger.String("method", method),
		logger.Float64("bestFitness", best.Fitness),
	)

	return &Result{
		Groups:       best.Groups,
		AverageScore: round2(best.Fitness),
		Method:       method,
		FeedbackUsed: len(delta) > 0,
		LearnedPairs: len(delta),
	}, nil
}

// search fans trials out to the worker pool and reduces to the best result.
func (e *Engine) search(ctx context.Context, actorIDs []string, groupSize int, delta feedback.PairDelta, trials int) (model.TrialResult, error) {
	cache := bundlecache.New(e.source, bundlecache.WithMaxSize(e.bundleCacheSize))
	scorer, err := scoring.NewTeamScorer(cache, e.scorerOpts...)
	if err != nil {
		return model.TrialResult{}, err
	}

	capacity := trials
	if e.queueCapacity > 0 && e.queueCapacity < trials {
		capacity = e.queueCapacity
	}
	q := queue.NewInMemoryQueue(
		queue.WithCapacity(capacity),
		queue.WithBufferSize(capacity),
	)
	collector := newBestCollector()
	pool := worker.NewPool(e.workerCount, q, &trialEvaluator{
		scorer:    scorer,
		delta:     delta,
		groupSize: groupSize,
	}, collector)
	pool.Start(ctx)

	rng := e.newRand()
	for i := 0; i < trials; i++ {
		order := make([]string, len(actorIDs))
		for j, k := range rng.Perm(len(actorIDs)) {
			order[j] = actorIDs[k]
		}
		if !q.EnqueueWait(ctx, model.Trial{Seq: i, Order: order}) {
			break
		}
	}
	_ = q.Close()

	if err := pool.Wait(ctx); err != nil {
		return model.TrialResult{}, err
	}

	best, ok := collector.Best()
	if !ok {
		return model.TrialResult{}, ErrNoResult
	}
	return best, nil
}

// safeLearn runs the learner, degrading to an empty delta on any internal
// failure so malformed feedback can never abort the whole search.
func (e *Engine) safeLearn(ctx context.Context, records []model.FeedbackRecord) (delta feedback.PairDelta) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn(ctx, "feedback learning failed; ignoring feedback",
				logger.Any("panic", r),
			)
			metrics.RecordErrorByComponent("formation", "learn_failed")
			delta = feedback.PairDelta{}
		}
	}()
	return e.learner.Learn(ctx, records)
}

// SlicePartition cuts a permutation into consecutive chunks of size; any
// remainder forms one final, smaller group.
func SlicePartition(order []string, size int) [][]string {
	groups := make([][]string, 0, (len(order)+size-1)/size)
	for len(order) >= size {
		groups = append(groups, order[:size:size])
		order = order[size:]
	}
	if len(order) > 0 {
		groups = append(groups, order)
	}
	return groups
}

// trialEvaluator scores whole trials for the worker pool.
type trialEvaluator struct {
	scorer    scoring.Scorer
	delta     feedback.PairDelta
	groupSize int
}

// Evaluate slices the trial's permutation into groups and scores each one.
// Trial fitness is the arithmetic mean of the group scores.
func (t *trialEvaluator) Evaluate(ctx context.Context, trial model.Trial) (model.TrialResult, error) {
	groups := SlicePartition(trial.Order, t.groupSize)
	scored := make([]model.ScoredGroup, 0, len(groups))
	var sum float64
	for _, g := range groups {
		s, err := t.scorer.Score(ctx, g, t.delta)
		if err != nil {
			return model.TrialResult{}, err
		}
		scored = append(scored, model.ScoredGroup{ActorIDs: g, Score: s})
		sum += s
	}
	return model.TrialResult{
		Seq:     trial.Seq,
		Groups:  scored,
		Fitness: sum / float64(len(scored)),
	}, nil
}

// bestCollector keeps the single best trial. Strict greater-than, so the
// first result at a given fitness wins ties.
type bestCollector struct {
	mu   sync.Mutex
	best model.TrialResult
	has  bool
}

func newBestCollector() *bestCollector {
	return &bestCollector{}
}

// Offer implements worker.Collector.
func (c *bestCollector) Offer(_ context.Context, r model.TrialResult) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.has || r.Fitness > c.best.Fitness {
		c.best = r
		c.has = true
		return true
	}
	return false
}

// Best returns the best result offered so far.
func (c *bestCollector) Best() (model.TrialResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.best, c.has
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
