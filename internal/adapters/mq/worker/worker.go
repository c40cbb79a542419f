// Package worker defines worker contracts for evaluating partition trials
// and folding them into the best result seen so far.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/okian/huddle/internal/adapters/mq/queue"
	"github.com/okian/huddle/internal/domain/model"
	"github.com/okian/huddle/pkg/logger"
	"github.com/okian/huddle/pkg/metrics"
)

// Default worker configuration constants.
const (
	workerShutdownTimeout = 5 * time.Second
	poolShutdownTimeout   = 30 * time.Second
)

// Trial abstracts what workers read off the queue.
// Using the model.Trial type for consistency.
type Trial = model.Trial

// Evaluator scores one whole trial: it slices the permutation into groups
// and produces per-group scores plus mean fitness.
type Evaluator interface {
	Evaluate(ctx context.Context, t Trial) (model.TrialResult, error)
}

// Collector receives scored trials. The reduction is a compare-and-replace
// on fitness, so offers may arrive in any order from any worker.
type Collector interface {
	// Offer submits a result; returns true when it became the new best.
	Offer(ctx context.Context, r model.TrialResult) bool
}

// Queue defines how workers receive trials.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Trial
}

// Worker evaluates trials and reports results using the provided interfaces.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	// It will process any remaining trials before stopping.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for evaluating trials.
type InMemoryWorker struct {
	queue     Queue
	evaluator Evaluator
	collector Collector
	name      string

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	// Logging
	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, evaluator Evaluator, collector Collector, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     q,
		evaluator: evaluator,
		collector: collector,
		name:      "worker", // default name
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger.Get().Named("worker"),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer func() {
		close(w.done)
	}()

	trialChan := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case t, ok := <-trialChan:
			if !ok {
				// Channel closed, worker should stop
				return
			}

			if err := w.processTrial(ctx, t); err != nil {
				w.logger.Error(ctx, "error evaluating trial", logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processTrial evaluates a single trial and offers it to the collector.
func (w *InMemoryWorker) processTrial(ctx context.Context, t queue.Trial) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	result, err := w.evaluator.Evaluate(ctx, t)
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "evaluation_error")
		metrics.RecordErrorByType("evaluation_error", "high")
		w.logger.Error(ctx, "evaluation failed for trial",
			logger.Int("seq", t.Seq),
			logger.Error(err),
		)
		return fmt.Errorf("failed to evaluate trial %d: %w", t.Seq, err)
	}

	metrics.RecordTrialEvaluated()
	metrics.RecordTrialFitness(result.Fitness)

	if w.collector.Offer(ctx, result) {
		w.logger.Debug(ctx, "new best trial",
			logger.Int("seq", result.Seq),
			logger.Float64("fitness", result.Fitness),
		)
	}

	return nil
}

// Pool manages multiple workers draining one trial queue.
type Pool struct {
	workers   []*InMemoryWorker
	queue     Queue
	evaluator Evaluator
	collector Collector

	// Shutdown control
	shutdown  chan struct{}
	closeOnce sync.Once

	// Logging
	logger logger.Logger
}

// NewPool creates a new worker pool.
func NewPool(workerCount int, q Queue, evaluator Evaluator, collector Collector) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	pool := &Pool{
		workers:   make([]*InMemoryWorker, workerCount),
		queue:     q,
		evaluator: evaluator,
		collector: collector,
		shutdown:  make(chan struct{}),
		logger:    logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(
			q,
			evaluator,
			collector,
			WithName("worker-"+strconv.Itoa(i)),
		)
	}

	metrics.UpdateWorkerActiveCount(workerCount)

	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Wait blocks until every worker has drained the queue and exited, or the
// context is cancelled.
func (p *Pool) Wait(ctx context.Context) error {
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-ctx.Done():
			p.logger.Warn(ctx, "wait cancelled", logger.Int("worker_id", i))
			return fmt.Errorf("pool wait cancelled: %w", ctx.Err())
		}
	}
	return nil
}

// Stop gracefully stops all workers.
func (p *Pool) Stop() {
	p.closeOnce.Do(func() {
		close(p.shutdown)
		for _, w := range p.workers {
			select {
			case <-w.done:
				// Worker finished on its own.
			default:
				close(w.shutdown)
			}
		}
	})

	for _, w := range p.workers {
		select {
		case <-w.done:
			// Worker finished
		case <-time.After(workerShutdownTimeout):
			// Worker timeout
		}
	}
}

// Shutdown gracefully shuts down the entire worker pool.
func (p *Pool) Shutdown(ctx context.Context) error {
	// First close the queue to stop new trials
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}

	return nil
}
