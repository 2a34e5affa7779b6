package coordinator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/lexandro/coderegistry-mcp/language"
	"github.com/lexandro/coderegistry-mcp/processor"
	"github.com/lexandro/coderegistry-mcp/project"
	"github.com/lexandro/coderegistry-mcp/registry"
	"github.com/lexandro/coderegistry-mcp/workerpool"
)

func TestMain(m *testing.M) {
	// bleve starts its analysis workers at package init and never stops them
	goleak.VerifyTestMain(m, goleak.IgnoreAnyFunction("github.com/blevesearch/bleve_index_api.AnalysisWorker"))
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRecords(n int) []registry.FileRecord {
	records := make([]registry.FileRecord, n)
	for i := range records {
		records[i] = registry.NewFileRecord(fmt.Sprintf("/project/file_%d.rs", i))
	}
	return records
}

func newTestCoordinator(t *testing.T, fn func(context.Context, registry.FileRecord) error, workers int) (*Coordinator, *workerpool.Pool) {
	t.Helper()
	pool, err := workerpool.New(workerpool.ProcessorFunc{ProcessorName: "test", Fn: fn},
		workerpool.Options{Workers: workers, Logger: testLogger()})
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return New(pool, testLogger()), pool
}

func Test_Coordinator_Process(t *testing.T) {
	records := testRecords(8)
	failing := records[5].ID
	c, _ := newTestCoordinator(t, func(_ context.Context, r registry.FileRecord) error {
		if r.ID == failing {
			return errors.New("boom")
		}
		return nil
	}, 3)

	report := c.Process(context.Background(), records)
	require.NoError(t, report.Err)
	assert.Equal(t, "test", report.Processor)
	assert.Equal(t, workerpool.Summary{Attempted: 8, Succeeded: 7, Failed: 1}, report.Summary)
	for i, o := range report.Outcomes {
		assert.Equal(t, records[i].ID, o.Record.ID)
	}
	assert.Error(t, report.Outcomes[5].Err)
}

func Test_Coordinator_ProcessEmpty(t *testing.T) {
	c, _ := newTestCoordinator(t, func(context.Context, registry.FileRecord) error {
		t.Error("processor must not run for an empty batch")
		return nil
	}, 2)

	report := c.Process(context.Background(), nil)
	require.NoError(t, report.Err)
	assert.Empty(t, report.Outcomes)
	assert.Equal(t, workerpool.Summary{}, report.Summary)
}

func Test_Coordinator_ProcessClosedPool(t *testing.T) {
	c, pool := newTestCoordinator(t, func(context.Context, registry.FileRecord) error { return nil }, 1)
	pool.Close()

	report := c.Process(context.Background(), testRecords(2))
	assert.ErrorIs(t, report.Err, workerpool.ErrPoolClosed)
}

func Test_Coordinator_ProcessProject(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"a.go", "b.rs", "c.py"} {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte("x\n"), 0644))
	}
	p, err := project.Open(uuid.New(), "demo", "", root, project.Options{
		Defaults: project.DefaultConfig(),
		Logger:   testLogger(),
	})
	require.NoError(t, err)
	defer p.Close()
	_, err = p.Scan(context.Background())
	require.NoError(t, err)

	var seen atomic.Int32
	c, _ := newTestCoordinator(t, func(context.Context, registry.FileRecord) error {
		seen.Add(1)
		return nil
	}, 2)

	report := c.ProcessProject(context.Background(), p)
	assert.Equal(t, workerpool.Summary{Attempted: 3, Succeeded: 3}, report.Summary)
	assert.Equal(t, int32(3), seen.Load())
	assert.Equal(t, "a.go", report.Outcomes[0].Record.Name)
}

func Test_Coordinator_GoDeliversOneReport(t *testing.T) {
	c, _ := newTestCoordinator(t, func(context.Context, registry.FileRecord) error { return nil }, 2)

	ch := c.Go(context.Background(), testRecords(4))
	report, ok := <-ch
	require.True(t, ok)
	assert.Equal(t, 4, report.Summary.Succeeded)

	_, ok = <-ch
	assert.False(t, ok)
}

func Test_Coordinator_Await(t *testing.T) {
	c, _ := newTestCoordinator(t, func(context.Context, registry.FileRecord) error { return nil }, 2)

	report, err := c.Await(context.Background(), testRecords(5))
	require.NoError(t, err)
	assert.Len(t, report.Outcomes, 5)
}

func Test_Coordinator_AwaitContextEndsFirstBatchCompletes(t *testing.T) {
	release := make(chan struct{})
	var processed atomic.Int32
	c, pool := newTestCoordinator(t, func(ctx context.Context, _ registry.FileRecord) error {
		<-release
		processed.Add(1)
		return ctx.Err()
	}, 2)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.Await(ctx, testRecords(3))
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	pool.Close()
	assert.Equal(t, int32(3), processed.Load())
}

func Test_Coordinator_AwaitDoesNotCancelProcessors(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	errs := make(chan error, 1)
	c, pool := newTestCoordinator(t, func(ctx context.Context, _ registry.FileRecord) error {
		close(started)
		<-release
		errs <- ctx.Err()
		return nil
	}, 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := c.Await(ctx, testRecords(1))
		done <- err
	}()

	<-started
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	close(release)
	assert.NoError(t, <-errs)
	pool.Close()
}

func Test_Coordinator_ProcessRunsBatchPastCallerDeadline(t *testing.T) {
	formatter := processor.NewFormatter(testLogger())
	formatter.Costs = map[language.Language]time.Duration{language.Go: 20 * time.Millisecond}
	pool, err := workerpool.New(formatter, workerpool.Options{Workers: 1, Logger: testLogger()})
	require.NoError(t, err)
	defer pool.Close()
	c := New(pool, testLogger())

	records := make([]registry.FileRecord, 5)
	for i := range records {
		records[i] = registry.NewFileRecord(fmt.Sprintf("/project/file_%d.go", i))
		records[i].Language = language.Go
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	report := c.Process(ctx, records)

	require.NoError(t, report.Err)
	assert.Equal(t, workerpool.Summary{Attempted: 5, Succeeded: 5}, report.Summary)
	for i, o := range report.Outcomes {
		assert.Equal(t, i, o.Position)
		assert.NoError(t, o.Err)
	}
}
