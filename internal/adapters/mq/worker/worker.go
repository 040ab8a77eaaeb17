// Package worker runs event builds pulled off a queue.
package worker

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/okian/gridcast/internal/adapters/mq/queue"
	"github.com/okian/gridcast/pkg/logger"
	"github.com/okian/gridcast/pkg/metrics"
)

// Handler builds one queued event.
type Handler interface {
	Handle(ctx context.Context, j queue.Job) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, j queue.Job) error

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, j queue.Job) error { return f(ctx, j) }

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// InMemoryWorker drains a queue, one job at a time.
type InMemoryWorker struct {
	queue   Queue
	handler Handler
	name    string

	done chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, h Handler, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:   q,
		handler: h,
		name:    "worker",
		done:    make(chan struct{}),
		logger:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Run processes jobs until the queue is drained or ctx is cancelled.
// A failing job is logged and the worker moves on.
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
			start := time.Now()
			err := w.handler.Handle(ctx, j)
			metrics.RecordBuildJobLatency(float64(time.Since(start).Milliseconds()))
			if err != nil {
				w.logger.Error(ctx, "build job failed",
					logger.String("event", j.Event.String()),
					logger.Error(err),
				)
			}
		}
	}
}

// Done is closed when Run returns.
func (w *InMemoryWorker) Done() <-chan struct{} { return w.done }

// Pool runs several workers over one queue.
type Pool struct {
	workers []*InMemoryWorker
	wg      sync.WaitGroup
}

// NewPool creates a pool of workerCount workers. Counts below one mean one.
func NewPool(workerCount int, q Queue, h Handler, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = 1
	}
	p := &Pool{workers: make([]*InMemoryWorker, workerCount)}
	for i := range p.workers {
		p.workers[i] = NewInMemoryWorker(q, h, append(opts, WithName("build-worker-"+strconv.Itoa(i)))...)
	}
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	metrics.UpdateBuildWorkers(len(p.workers))
	for _, w := range p.workers {
		p.wg.Add(1)
		go func(w *InMemoryWorker) {
			defer p.wg.Done()
			w.Run(ctx)
		}(w)
	}
}

// Wait blocks until every worker has stopped.
func (p *Pool) Wait() {
	p.wg.Wait()
	metrics.UpdateBuildWorkers(0)
}
