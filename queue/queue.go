// Package queue is the bounded/unbounded job queue and worker pool
// (SPEC_FULL.md §4.7), adapted from the teacher's retrySend backoff
// helper shape (messaging.go) and transport.conn's channel-based
// send/receive, but without retries: a sink call either succeeds,
// fails, or times out, and the job is dropped either way.
package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rskv-p/mqttwarn/logger"
	"github.com/rskv-p/mqttwarn/model"
	"github.com/rskv-p/mqttwarn/registry"
	"github.com/rskv-p/mqttwarn/sinks"
)

// DefaultDeadline is the default per-job sink invocation deadline.
const DefaultDeadline = 10 * time.Second

// Queue is a FIFO job queue drained by a fixed worker pool.
type Queue struct {
	jobs       chan *model.Job
	events     chan *model.Event
	reg        *registry.Registry
	log        logger.ILogger
	deadline   time.Duration
	numWorkers int
	publish    model.Publisher
	scriptName string

	wg sync.WaitGroup
}

// New builds a Queue. bound <= 0 gives an unbuffered channel: Enqueue
// then blocks until a worker takes the job, and no jobs wait in the
// queue itself. numWorkers <= 0
// defaults to 1 (§4.7's default). deadline <= 0 uses DefaultDeadline.
func New(bound, numWorkers int, deadline time.Duration, reg *registry.Registry, publish model.Publisher, scriptName string, log logger.ILogger) *Queue {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	if deadline <= 0 {
		deadline = DefaultDeadline
	}
	size := 0
	if bound > 0 {
		size = bound
	}
	return &Queue{
		jobs:       make(chan *model.Job, size),
		events:     make(chan *model.Event, 64),
		reg:        reg,
		log:        log,
		deadline:   deadline,
		numWorkers: numWorkers,
		publish:    publish,
		scriptName: scriptName,
	}
}

// Events exposes completed-job outcomes for the admin/introspection feed.
func (q *Queue) Events() <-chan *model.Event {
	return q.events
}

// Enqueue adds a job. When bound and full this blocks, applying
// backpressure onto the caller (§4.7: typically the broker callback).
func (q *Queue) Enqueue(job *model.Job) {
	job.EnqueuedAt = time.Now()
	q.jobs <- job
}

// Start launches the worker pool. Workers run until ctx is cancelled
// and the queue channel is closed and drained.
func (q *Queue) Start(ctx context.Context) {
	for i := 0; i < q.numWorkers; i++ {
		q.wg.Add(1)
		go q.worker(ctx, i)
	}
}

// Close stops accepting new jobs. Call after Start; Stop then waits for
// in-flight and already-queued jobs to drain.
func (q *Queue) Close() {
	close(q.jobs)
}

// Stop waits for all workers to finish draining the queue, bounded by
// deadline. Jobs still queued when the deadline elapses are logged and
// dropped.
func (q *Queue) Stop(deadline time.Duration) {
	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(deadline):
		remaining := len(q.jobs)
		q.log.Warn("shutdown deadline elapsed with %d job(s) still queued, dropping", remaining)
	}
}

func (q *Queue) worker(ctx context.Context, id int) {
	defer q.wg.Done()
	wlog := q.log.With("worker", id)

	for job := range q.jobs {
		select {
		case <-ctx.Done():
			wlog.Warn("shutdown in progress, dropping queued job for %s", job.ServiceName)
			continue
		default:
		}
		q.process(job, wlog)
	}
}

func (q *Queue) process(job *model.Job, wlog logger.ILogger) {
	entry, ok := q.reg.Get(job.ServiceName)
	if !ok {
		wlog.Error("job for unknown service %q dropped", job.ServiceName)
		return
	}

	item := &model.Item{
		Service:    job.ServiceName,
		Section:    job.Section,
		Target:     job.TargetKey,
		Config:     job.Config,
		Addrs:      sinks.Addrs(job.Config, job.TargetKey),
		Topic:      job.Topic,
		Payload:    string(job.RawPayload),
		RawPayload: job.RawPayload,
		Data:       job.Data,
		Title:      job.Title,
		Image:      job.Image,
		Message:    job.Message,
		Priority:   job.Priority,
	}

	outcome, err, elapsed := q.invoke(entry, item)

	ev := &model.Event{
		Service:   job.ServiceName,
		Target:    job.TargetKey,
		Section:   job.Section,
		Topic:     job.Topic,
		Outcome:   outcome,
		Elapsed:   elapsed,
		Timestamp: time.Now(),
	}
	if err != nil {
		ev.Err = err.Error()
		wlog.Error("%s:%s delivery %s: %v", job.ServiceName, job.TargetKey, outcome, err)
	} else {
		wlog.Debug("%s:%s delivery %s in %s", job.ServiceName, job.TargetKey, outcome, elapsed)
	}

	select {
	case q.events <- ev:
	default:
		wlog.Warn("event feed full, dropping outcome event for %s", job.ServiceName)
	}
}

type deliverResult struct {
	ok    bool
	panic any
}

// invoke calls the sink's Deliver inside the configured deadline. A
// timeout abandons the call from the worker's perspective only: the
// goroutine itself is not killed (§4.7), so a misbehaving sink may
// still leak a goroutine until its Deliver call eventually returns.
func (q *Queue) invoke(entry *registry.Entry, item *model.Item) (model.Outcome, error, time.Duration) {
	done := make(chan deliverResult, 1)
	start := time.Now()

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- deliverResult{panic: r}
			}
		}()
		ctx := &model.ServiceCtx{Log: entry.Log, Publish: q.publish, ScriptName: q.scriptName}
		done <- deliverResult{ok: entry.Deliver(ctx, item)}
	}()

	select {
	case res := <-done:
		elapsed := time.Since(start)
		if res.panic != nil {
			return model.OutcomeFailure, fmt.Errorf("panic recovered: %v", res.panic), elapsed
		}
		if res.ok {
			return model.OutcomeSuccess, nil, elapsed
		}
		return model.OutcomeFailure, nil, elapsed

	case <-time.After(q.deadline):
		return model.OutcomeTimeout, fmt.Errorf("exceeded deadline of %s", q.deadline), time.Since(start)
	}
}
