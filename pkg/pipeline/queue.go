/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package pipeline

import (
	"context"
	"sync"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"

	"github.com/NissesSenap/pagesmith/pkg/metrics"
)

// Processor runs a single job.
type Processor interface {
	Process(ctx context.Context, job *Job) Outcome
}

// QueueOption configures a Queue.
type QueueOption func(*Queue)

// WithWorkers sets the number of concurrent workers.
func WithWorkers(n int) QueueOption {
	return func(q *Queue) {
		if n > 0 {
			q.workers = n
		}
	}
}

// WithCapacity sets how many jobs may wait for a worker.
func WithCapacity(n int) QueueOption {
	return func(q *Queue) {
		if n > 0 {
			q.capacity = n
		}
	}
}

func WithQueueLogger(l logr.Logger) QueueOption {
	return func(q *Queue) { q.logger = l }
}

func WithQueueMetrics(m *metrics.Metrics) QueueOption {
	return func(q *Queue) { q.metrics = m }
}

// Queue is a bounded job queue served by a fixed pool of workers.
type Queue struct {
	processor Processor
	workers   int
	capacity  int
	logger    logr.Logger
	metrics   *metrics.Metrics

	jobs chan *Job

	mu      sync.RWMutex
	running bool
	closed  bool
}

// NewQueue creates a Queue. Jobs may be enqueued before Run is called.
func NewQueue(p Processor, opts ...QueueOption) *Queue {
	q := &Queue{
		processor: p,
		workers:   2,
		capacity:  32,
		logger:    logr.Discard(),
	}
	for _, o := range opts {
		o(q)
	}
	q.jobs = make(chan *Job, q.capacity)
	return q
}

// Enqueue adds a job without blocking. It returns ErrQueueFull when every
// slot is taken and ErrQueueClosed once Run has returned.
func (q *Queue) Enqueue(job *Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.jobs <- job:
		q.metrics.SetQueueDepth(len(q.jobs))
		return nil
	default:
		return ErrQueueFull
	}
}

// Ready reports whether workers are serving the queue.
func (q *Queue) Ready() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.running && !q.closed
}

// Name implements the module interface.
func (q *Queue) Name() string { return "worker-pool" }

// Run serves the queue until ctx is cancelled. In-flight jobs see the
// cancellation through their context; jobs still waiting are completed
// with ErrQueueClosed.
func (q *Queue) Run(ctx context.Context) error {
	q.mu.Lock()
	q.running = true
	q.mu.Unlock()
	q.logger.Info("worker pool started", "workers", q.workers, "capacity", q.capacity)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < q.workers; i++ {
		g.Go(func() error {
			q.work(gctx, i)
			return nil
		})
	}
	err := g.Wait()

	q.mu.Lock()
	q.closed = true
	q.running = false
	q.mu.Unlock()

	q.drain()
	q.logger.Info("worker pool stopped")
	return err
}

func (q *Queue) work(ctx context.Context, id int) {
	log := q.logger.WithValues("worker", id)
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-q.jobs:
			q.metrics.SetQueueDepth(len(q.jobs))
			if ctx.Err() != nil {
				job.finish(Outcome{JobID: job.ID, State: job.State, Err: ErrQueueClosed})
				return
			}
			log.V(1).Info("job picked up", "job", job.ID)
			q.processor.Process(ctx, job)
		}
	}
}

func (q *Queue) drain() {
	for {
		select {
		case job := <-q.jobs:
			q.logger.Info("dropping queued job on shutdown", "job", job.ID)
			job.finish(Outcome{JobID: job.ID, State: job.State, Err: ErrQueueClosed})
		default:
			q.metrics.SetQueueDepth(0)
			return
		}
	}
}
