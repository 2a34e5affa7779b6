// Package workerpool runs a Processor over batches of file records on a fixed
// set of persistent workers and hands back outcomes in submission order.
package workerpool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lexandro/coderegistry-mcp/apperr"
	"github.com/lexandro/coderegistry-mcp/metrics"
	"github.com/lexandro/coderegistry-mcp/registry"
)

var (
	// ErrPoolClosed is returned by Submit after Close.
	ErrPoolClosed = errors.New("worker pool is closed")
	// ErrWorkerPanic marks the outcome of an item whose processing crashed its worker.
	ErrWorkerPanic = errors.New("worker panicked")
)

// Processor is the per-file work run by the pool. Process is called from many
// workers at once and must not rely on shared mutable state it does not guard itself.
type Processor interface {
	Name() string
	Process(ctx context.Context, record registry.FileRecord) error
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc struct {
	ProcessorName string
	Fn            func(ctx context.Context, record registry.FileRecord) error
}

// Name implements Processor.
func (f ProcessorFunc) Name() string { return f.ProcessorName }

// Process implements Processor.
func (f ProcessorFunc) Process(ctx context.Context, record registry.FileRecord) error {
	return f.Fn(ctx, record)
}

// Options configures a Pool.
type Options struct {
	Workers   int // fixed worker count, at least 1
	QueueSize int // capacity of the shared job channel; defaults to 4 per worker
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
}

type job struct {
	batch    *Batch
	position int
	record   registry.FileRecord
}

// Pool is a fixed set of workers draining one shared bounded job channel.
// It is created once, reused for any number of batches and torn down with Close.
type Pool struct {
	processor Processor
	workers   int
	jobs      chan job
	logger    *slog.Logger
	metrics   *metrics.Metrics

	mu     sync.RWMutex // guards closed and sends on jobs
	closed bool

	wg       sync.WaitGroup
	restarts atomic.Int64
}

// New starts a pool of options.Workers workers running processor.
func New(processor Processor, options Options) (*Pool, error) {
	if processor == nil {
		return nil, apperr.Validation("new pool", "", fmt.Errorf("processor is required"))
	}
	if options.Workers < 1 {
		return nil, apperr.Validation("new pool", "", fmt.Errorf("worker count must be at least 1, got %d", options.Workers))
	}
	if options.QueueSize <= 0 {
		options.QueueSize = options.Workers * 4
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}

	p := &Pool{
		processor: processor,
		workers:   options.Workers,
		jobs:      make(chan job, options.QueueSize),
		logger:    options.Logger.With("processor", processor.Name()),
		metrics:   options.Metrics,
	}

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	p.logger.Debug("worker pool started", "workers", p.workers, "queueSize", options.QueueSize)
	return p, nil
}

// Workers returns the fixed worker count.
func (p *Pool) Workers() int { return p.workers }

// Processor returns the processor run by the pool.
func (p *Pool) Processor() Processor { return p.processor }

// Restarts returns how many crashed workers have been replaced.
func (p *Pool) Restarts() int64 { return p.restarts.Load() }

// Submit enqueues every record, tagged with its index in records, and returns
// the Batch tracking them. Enqueueing blocks while the queue is full; nothing
// is dropped. An empty batch completes immediately without reaching a worker.
// Processors see ctx's values but never its cancellation: once submitted,
// every item runs to completion or to its own failure.
func (p *Pool) Submit(ctx context.Context, records []registry.FileRecord) (*Batch, error) {
	b := newBatch(context.WithoutCancel(ctx), len(records))
	if len(records) == 0 {
		close(b.done)
		return b, nil
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return nil, ErrPoolClosed
	}

	p.metrics.BatchSubmitted(p.processor.Name())
	b.pending.Add(len(records))
	go func() {
		b.pending.Wait()
		close(b.done)
	}()

	for i, record := range records {
		p.jobs <- job{batch: b, position: i, record: record}
	}
	return b, nil
}

// Run submits records and waits for the ordered outcomes.
func (p *Pool) Run(ctx context.Context, records []registry.FileRecord) ([]Outcome, error) {
	b, err := p.Submit(ctx, records)
	if err != nil {
		return nil, err
	}
	return b.Wait(), nil
}

// Close stops accepting batches, lets the workers drain the queue and joins them.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()

	p.wg.Wait()
	p.logger.Debug("worker pool stopped", "restarts", p.restarts.Load())
}

// worker drains the job channel until it is closed. A worker whose processor
// panics hands its slot to a fresh worker and exits.
func (p *Pool) worker(id int) {
	defer p.wg.Done()
	for j := range p.jobs {
		if crashed := p.run(id, j); crashed {
			p.respawn(id)
			return
		}
	}
}

// respawn replaces a crashed worker. The crashed worker has not yet released
// its WaitGroup slot, so Close cannot miss the replacement.
func (p *Pool) respawn(id int) {
	p.restarts.Add(1)
	p.metrics.WorkerRestarted(p.processor.Name())
	p.logger.Warn("replacing crashed worker", "worker", id)

	p.wg.Add(1)
	go p.worker(id)
}

// run processes one job and always records its outcome, including when the
// processor panics.
func (p *Pool) run(id int, j job) (crashed bool) {
	start := time.Now()
	var err error

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrWorkerPanic, r)
			crashed = true
			p.logger.Error("processor panicked",
				"worker", id,
				"path", j.record.Path,
				"panic", r,
				"stack", string(debug.Stack()),
			)
		}
		elapsed := time.Since(start)
		p.metrics.ObserveItem(p.processor.Name(), err, elapsed)
		j.batch.collect(Outcome{
			Position: j.position,
			Record:   j.record,
			Err:      err,
			Duration: elapsed,
		})
	}()

	p.logger.Debug("worker processing file", "worker", id, "position", j.position, "file", j.record.Name)
	err = p.processor.Process(j.batch.ctx, j.record)
	return false
}
