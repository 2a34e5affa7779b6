// Package coordinator submits batches of registered files to a worker pool
// and reports their outcomes.
package coordinator

import (
	"context"
	"log/slog"
	"time"

	"github.com/lexandro/coderegistry-mcp/project"
	"github.com/lexandro/coderegistry-mcp/registry"
	"github.com/lexandro/coderegistry-mcp/workerpool"
)

// Report is the result of one processed batch.
type Report struct {
	Processor string
	Outcomes  []workerpool.Outcome // in submission order
	Summary   workerpool.Summary
	Duration  time.Duration
	Err       error // set when the batch could not be submitted
}

// Coordinator runs batches on a shared pool.
type Coordinator struct {
	pool   *workerpool.Pool
	logger *slog.Logger
}

// New creates a coordinator on pool. The pool stays owned by the caller.
func New(pool *workerpool.Pool, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{pool: pool, logger: logger}
}

// Process submits records and blocks until every one has an outcome.
func (c *Coordinator) Process(ctx context.Context, records []registry.FileRecord) Report {
	start := time.Now()
	report := Report{Processor: c.pool.Processor().Name()}

	batch, err := c.pool.Submit(ctx, records)
	if err != nil {
		report.Err = err
		report.Duration = time.Since(start)
		c.logger.Error("batch rejected", "processor", report.Processor, "files", len(records), "error", err)
		return report
	}

	report.Outcomes = batch.Wait()
	report.Summary = workerpool.Summarize(report.Outcomes)
	report.Duration = time.Since(start)

	c.logger.Info("batch processed",
		"processor", report.Processor,
		"attempted", report.Summary.Attempted,
		"succeeded", report.Summary.Succeeded,
		"failed", report.Summary.Failed,
		"duration", report.Duration,
	)
	return report
}

// ProcessProject processes a snapshot of every file registered in p.
func (c *Coordinator) ProcessProject(ctx context.Context, p *project.Project) Report {
	return c.Process(ctx, p.Registry().List())
}

// Go runs Process in the background. The returned channel receives exactly one
// Report and is then closed.
func (c *Coordinator) Go(ctx context.Context, records []registry.FileRecord) <-chan Report {
	ch := make(chan Report, 1)
	go func() {
		defer close(ch)
		ch <- c.Process(ctx, records)
	}()
	return ch
}

// Await starts the batch in the background and waits for it or for ctx,
// whichever comes first. When ctx ends first the batch keeps running to
// completion and its report is discarded.
func (c *Coordinator) Await(ctx context.Context, records []registry.FileRecord) (Report, error) {
	ch := c.Go(context.WithoutCancel(ctx), records)
	select {
	case report := <-ch:
		return report, report.Err
	case <-ctx.Done():
		c.logger.Warn("stopped waiting for batch", "files", len(records), "error", ctx.Err())
		return Report{}, ctx.Err()
	}
}
