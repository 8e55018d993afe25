// Package queue runs background tasks on a bounded worker pool.
//
// Submit never blocks: a full buffer or a stopped pool is reported to the
// caller so the request can be rejected before it is acknowledged. Stop
// closes intake and drains everything already accepted, cancelling the
// remaining work only when the drain deadline passes.
package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mattjoyce/incomerelay/internal/log"
)

// Queue is a bounded task buffer served by a fixed number of workers.
type Queue struct {
	tasks   chan Task
	workers int
	logger  *slog.Logger

	mu      sync.RWMutex
	started bool
	closed  bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	inFlight  atomic.Int64
	processed atomic.Uint64
	failed    atomic.Uint64
}

// New creates a Queue holding up to capacity pending tasks. Values below one
// are raised to one.
func New(capacity, workers int) *Queue {
	if capacity < 1 {
		capacity = 1
	}
	if workers < 1 {
		workers = 1
	}
	return &Queue{
		tasks:   make(chan Task, capacity),
		workers: workers,
		logger:  log.WithComponent("queue"),
	}
}

// Start launches the workers. Tasks run under a context derived from ctx.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started || q.closed {
		return
	}
	q.started = true

	ctx, q.cancel = context.WithCancel(ctx)
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx)
	}
	q.logger.Info("worker pool started", "workers", q.workers, "capacity", cap(q.tasks))
}

// Submit queues t without blocking.
func (q *Queue) Submit(t Task) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if !q.started || q.closed {
		return ErrQueueClosed
	}
	select {
	case q.tasks <- t:
		return nil
	default:
		q.logger.Warn("queue full, rejecting task", "task_id", t.ID, "source", t.Source)
		return ErrQueueFull
	}
}

// Stop closes intake and waits for queued and running tasks to finish. If
// ctx ends first, running tasks are cancelled and an error is returned.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if !q.started || q.closed {
		q.closed = true
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.tasks)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		q.cancel()
		q.logger.Info("worker pool drained", "processed", q.processed.Load())
		return nil
	case <-ctx.Done():
		pending := len(q.tasks)
		q.cancel()
		<-done
		return fmt.Errorf("drain worker pool: %w (%d tasks not started)", ctx.Err(), pending)
	}
}

// Stats returns current pool metrics.
func (q *Queue) Stats() Stats {
	return Stats{
		Length:    len(q.tasks),
		Capacity:  cap(q.tasks),
		Workers:   q.workers,
		InFlight:  q.inFlight.Load(),
		Processed: q.processed.Load(),
		Failed:    q.failed.Load(),
	}
}

// Healthy reports whether the pool is accepting tasks.
func (q *Queue) Healthy() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.started && !q.closed
}

func (q *Queue) worker(ctx context.Context) {
	defer q.wg.Done()
	for t := range q.tasks {
		if ctx.Err() != nil {
			q.finish(t, ctx.Err())
			continue
		}
		q.run(ctx, t)
	}
}

func (q *Queue) run(ctx context.Context, t Task) {
	start := time.Now()
	q.inFlight.Add(1)
	defer q.inFlight.Add(-1)

	err := q.safeRun(ctx, t)
	q.finish(t, err)

	if err != nil {
		q.logger.Warn("task failed",
			"task_id", t.ID,
			"source", t.Source,
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err,
		)
		return
	}
	q.logger.Debug("task finished",
		"task_id", t.ID,
		"source", t.Source,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

func (q *Queue) safeRun(ctx context.Context, t Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("task panic recovered", "task_id", t.ID, "panic", r)
			err = fmt.Errorf("task %s panicked: %v", t.ID, r)
		}
	}()
	return t.Run(ctx)
}

func (q *Queue) finish(t Task, err error) {
	q.processed.Add(1)
	if err != nil {
		q.failed.Add(1)
	}
	if t.OnFinish == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("task completion callback panicked", "task_id", t.ID, "panic", r)
		}
	}()
	t.OnFinish(err)
}
