package workerpool

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/lexandro/coderegistry-mcp/registry"
)

// Outcome is the result of processing one submitted record.
type Outcome struct {
	Position int // index of the record in the submitted batch
	Record   registry.FileRecord
	Err      error // nil on success
	Duration time.Duration
}

// OK reports whether the record was processed successfully.
func (o Outcome) OK() bool { return o.Err == nil }

// Summary counts the outcomes of a batch.
type Summary struct {
	Attempted int
	Succeeded int
	Failed    int
}

// Summarize reduces outcomes to counts.
func Summarize(outcomes []Outcome) Summary {
	s := Summary{Attempted: len(outcomes)}
	for _, o := range outcomes {
		if o.OK() {
			s.Succeeded++
		} else {
			s.Failed++
		}
	}
	return s
}

// Batch tracks the records of one Submit call until every one has an outcome.
type Batch struct {
	ctx     context.Context
	size    int
	pending sync.WaitGroup
	done    chan struct{}

	mu       sync.Mutex
	outcomes []Outcome

	sortOnce sync.Once
	sorted   []Outcome
}

func newBatch(ctx context.Context, size int) *Batch {
	return &Batch{
		ctx:      ctx,
		size:     size,
		done:     make(chan struct{}),
		outcomes: make([]Outcome, 0, size),
	}
}

// collect appends one outcome. Called concurrently by workers.
func (b *Batch) collect(o Outcome) {
	b.mu.Lock()
	b.outcomes = append(b.outcomes, o)
	b.mu.Unlock()
	b.pending.Done()
}

// Len returns the number of records in the batch.
func (b *Batch) Len() int { return b.size }

// Done is closed once every record has an outcome.
func (b *Batch) Done() <-chan struct{} { return b.done }

// Wait blocks until all records are processed and returns their outcomes
// ordered by submission position, whatever order they completed in.
func (b *Batch) Wait() []Outcome {
	<-b.done
	b.sortOnce.Do(func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.sorted = make([]Outcome, len(b.outcomes))
		copy(b.sorted, b.outcomes)
		sort.SliceStable(b.sorted, func(i, j int) bool {
			return b.sorted[i].Position < b.sorted[j].Position
		})
	})
	result := make([]Outcome, len(b.sorted))
	copy(result, b.sorted)
	return result
}

// Summary waits for the batch and counts its outcomes.
func (b *Batch) Summary() Summary {
	return Summarize(b.Wait())
}
