// Package queue provides the single-worker FIFO queue that serializes all
// archival work. The Samba staging path and the Zoom API rate limits are not
// safe for concurrent jobs, so exactly one job runs at a time.
package queue

import (
	"context"
	"log/slog"
	"sync"
)

// Job is one unit of archival work. A returned error is logged and does not
// affect later jobs.
type Job func(ctx context.Context) error

// Queue executes jobs strictly in arrival order on a single worker goroutine.
type Queue struct {
	log *slog.Logger

	mu     sync.Mutex
	cond   *sync.Cond
	jobs   []Job
	closed bool

	done chan struct{}
}

// New starts the worker goroutine and returns the queue.
func New(log *slog.Logger) *Queue {
	q := &Queue{
		log:  log,
		done: make(chan struct{}),
	}
	q.cond = sync.NewCond(&q.mu)
	go q.work()
	return q
}

// Enqueue appends a job and returns immediately; it never blocks on the
// worker. Jobs enqueued after Close are dropped with a warning.
func (q *Queue) Enqueue(job Job) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.log.Warn("queue closed, dropping job")
		return
	}
	q.jobs = append(q.jobs, job)
	q.cond.Signal()
}

// Close stops accepting new jobs, lets the worker drain what is already
// queued, and returns once the worker has exited.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		<-q.done
		return
	}
	q.closed = true
	q.cond.Broadcast()
	q.mu.Unlock()
	<-q.done
}

func (q *Queue) work() {
	defer close(q.done)
	for {
		q.mu.Lock()
		for len(q.jobs) == 0 && !q.closed {
			q.cond.Wait()
		}
		if len(q.jobs) == 0 {
			q.mu.Unlock()
			return
		}
		job := q.jobs[0]
		q.jobs = q.jobs[1:]
		q.mu.Unlock()

		q.run(job)
	}
}

// run isolates one job: errors and panics are logged, never propagated, so a
// failing job cannot stall or crash the worker loop.
func (q *Queue) run(job Job) {
	defer func() {
		if r := recover(); r != nil {
			q.log.Error("archival job panicked", "panic", r)
		}
	}()
	if err := job(context.Background()); err != nil {
		q.log.Error("archival job failed", "error", err)
	}
}
