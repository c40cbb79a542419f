// Package queue defines the contract for feeding partition trials to the
// evaluation workers.
//
// A queue lives for one formation request: the engine enqueues every trial
// permutation, closes the queue, and the workers drain it.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/okian/huddle/internal/domain/model"
	"github.com/okian/huddle/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultQueueCapacity = 1024
	defaultBufferSize    = 1024
)

// Trial represents the payload type flowing through the queue.
// Using the model.Trial type for type safety.
type Trial = model.Trial

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a trial to the queue.
	// Returns false if the queue is full and the trial was not enqueued.
	Enqueue(ctx context.Context, t Trial) bool

	// EnqueueWait adds a trial, blocking until buffer space frees up or
	// the context is cancelled. Producers that must not shed work use
	// this instead of Enqueue.
	EnqueueWait(ctx context.Context, t Trial) bool

	// Dequeue returns a channel that will receive trials as they become available.
	// The channel will be closed when the queue is closed.
	Dequeue(ctx context.Context) <-chan Trial

	// Len returns the current number of queued trials.
	Len(ctx context.Context) int

	// Close gracefully shuts down the queue.
	// After closing, no new trials can be enqueued and the dequeue channel will be closed.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	trials     chan Trial
	capacity   int
	bufferSize int
	mu         sync.RWMutex
	closed     bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity:   defaultQueueCapacity,
		bufferSize: defaultBufferSize,
	}

	for _, opt := range opts {
		opt(q)
	}

	// Initialize the trials channel with the configured buffer size
	q.trials = make(chan Trial, q.bufferSize)

	metrics.UpdateTrialQueueCapacity(q.capacity)
	metrics.UpdateTrialQueueSize(0)

	return q
}

// Enqueue adds a trial to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, t Trial) bool {
	start := time.Now()
	defer func() {
		metrics.RecordTrialQueueLatency(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordTrialQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return false
	}

	if len(q.trials) >= q.capacity {
		metrics.RecordTrialQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "capacity_exceeded")
		return false
	}

	select {
	case q.trials <- t:
		metrics.RecordTrialQueueEnqueue()
		metrics.UpdateTrialQueueSize(len(q.trials))
		return true
	case <-ctx.Done():
		metrics.RecordTrialQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return false
	default:
		metrics.RecordTrialQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return false
	}
}

// EnqueueWait adds a trial, blocking until buffer space frees up or the
// context is cancelled. The read lock is held across the send so Close
// cannot tear the channel down under a blocked producer.
func (q *InMemoryQueue) EnqueueWait(ctx context.Context, t Trial) bool {
	start := time.Now()
	defer func() {
		metrics.RecordTrialQueueLatency(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordTrialQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return false
	}

	select {
	case q.trials <- t:
		metrics.RecordTrialQueueEnqueue()
		metrics.UpdateTrialQueueSize(len(q.trials))
		return true
	case <-ctx.Done():
		metrics.RecordTrialQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return false
	}
}

// Dequeue returns a channel that will receive trials as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Trial {
	out := make(chan Trial)
	go func() {
		defer close(out)
		for t := range q.trials {
			select {
			case out <- t:
				metrics.RecordTrialQueueDequeue()
				metrics.UpdateTrialQueueSize(len(q.trials))
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current number of queued trials.
func (q *InMemoryQueue) Len(_ context.Context) int {
	size := len(q.trials)
	metrics.UpdateTrialQueueSize(size)
	return size
}

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil // already closed
	}

	close(q.trials)
	q.closed = true

	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
