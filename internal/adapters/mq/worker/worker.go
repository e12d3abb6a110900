// Package worker runs per-player evaluation jobs off the queue.
package worker

import (
	"context"
	"runtime"
	"strconv"

	"github.com/okian/xfpl/internal/domain/model"
	"github.com/okian/xfpl/pkg/logger"
	"github.com/okian/xfpl/pkg/metrics"
)

// Job abstracts what workers read off the queue.
type Job = model.Job

// Evaluator computes the expected points of one record.
type Evaluator interface {
	Evaluate(ctx context.Context, rec model.PlayerStatRecord) (model.ExpectedPointsRecord, error)
}

// Sink receives the outcome of each job by input index. Indexes are unique
// per run, so implementations may write to distinct slots without locking.
type Sink interface {
	Store(index int, rec model.ExpectedPointsRecord)
	Fail(index int, err error)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// Worker processes jobs until the queue drains or ctx is canceled.
type Worker interface {
	Run(ctx context.Context)
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue     Queue
	evaluator Evaluator
	sink      Sink
	name      string

	done chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, evaluator Evaluator, sink Sink, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     queue,
		evaluator: evaluator,
		sink:      sink,
		name:      "worker",
		done:      make(chan struct{}),
		logger:    logger.Default().Named("worker"),
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
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case j, ok := <-jobs:
			if !ok {
				return
			}
			w.processJob(ctx, j)
		}
	}
}

func (w *InMemoryWorker) processJob(ctx context.Context, j Job) { //nolint:gocritic // hugeParam: Job is passed by value for channel semantics
	metrics.RecordWorkerJob()

	out, err := w.evaluator.Evaluate(ctx, j.Record)
	if err != nil {
		metrics.RecordWorkerError()
		w.logger.Debug(ctx, "evaluation failed",
			logger.Int("player_id", j.Record.PlayerID),
			logger.Error(err),
		)
		w.sink.Fail(j.Index, err)
		return
	}
	w.sink.Store(j.Index, out)
}

// Pool manages multiple workers sharing one queue. A pool serves one run:
// it stops when the queue drains or the run's context is done.
type Pool struct {
	workers []*InMemoryWorker
}

// NewPool creates a worker pool. A non-positive count uses runtime.NumCPU().
func NewPool(workerCount int, queue Queue, evaluator Evaluator, sink Sink) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	pool := &Pool{workers: make([]*InMemoryWorker, workerCount)}
	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(queue, evaluator, sink, WithName("worker-"+strconv.Itoa(i)))
	}
	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Wait blocks until every worker has returned.
func (p *Pool) Wait() {
	for _, w := range p.workers {
		<-w.done
	}
}
