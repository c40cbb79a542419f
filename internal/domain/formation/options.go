// Package formation implements the randomized multi-start team formation
// search.
package formation

import (
	"math/rand"

	"github.com/okian/huddle/internal/domain/feedback"
	"github.com/okian/huddle/internal/domain/scoring"
	"github.com/okian/huddle/pkg/logger"
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithLearner swaps the feedback learner.
func WithLearner(l feedback.Learner) Option {
	return func(e *Engine) {
		if l != nil {
			e.learner = l
		}
	}
}

// WithScorerOptions forwards options to the per-request team scorer.
func WithScorerOptions(opts ...scoring.Option) Option {
	return func(e *Engine) {
		e.scorerOpts = append(e.scorerOpts, opts...)
	}
}

// WithTrials sets the iteration budget without feedback.
func WithTrials(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.trials = n
		}
	}
}

// WithFeedbackTrials sets the iteration budget when feedback is active.
// The larger default compensates for the variance feedback adds to the
// score landscape.
func WithFeedbackTrials(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.trialsWithFeedback = n
		}
	}
}

// WithWorkerCount sets how many workers evaluate trials in parallel.
func WithWorkerCount(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workerCount = n
		}
	}
}

// WithQueueCapacity caps the per-request trial queue. A capacity below
// the trial budget bounds memory; the producer then blocks until workers
// drain, so no trial is shed.
func WithQueueCapacity(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.queueCapacity = n
		}
	}
}

// WithBundleCacheSize bounds the per-request persona-bundle cache.
func WithBundleCacheSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.bundleCacheSize = n
		}
	}
}

// WithRandFactory injects the random-source constructor, one source per
// request. Tests pass a seeded source to make permutations reproducible.
func WithRandFactory(f func() *rand.Rand) Option {
	return func(e *Engine) {
		if f != nil {
			e.newRand = f
		}
	}
}

// WithLogger sets a custom logger for the engine.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}
