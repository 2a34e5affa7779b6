package tools

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/lexandro/coderegistry-mcp/registry"
	"github.com/lexandro/coderegistry-mcp/workerpool"
)

func Test_FormatDuration(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		expected string
	}{
		{"Seconds_zero", 0, "0s"},
		{"Seconds_30", 30 * time.Second, "30s"},
		{"Seconds_59", 59 * time.Second, "59s"},
		{"Minutes_1m0s", 60 * time.Second, "1m0s"},
		{"Minutes_5m30s", 5*time.Minute + 30*time.Second, "5m30s"},
		{"Hours_1h30m", 90 * time.Minute, "1h30m"},
		{"Hours_2h0m", 2 * time.Hour, "2h0m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatDuration(tt.duration)
			if got != tt.expected {
				t.Errorf("formatDuration(%v) = %q, want %q", tt.duration, got, tt.expected)
			}
		})
	}
}

func newTestStatusHandler(t *testing.T) *StatusHandler {
	t.Helper()
	projects, _ := newTestProjects(t, map[string]string{
		"lib.rs": strings.Repeat("x\n", 10),
		"app.py": strings.Repeat("x\n", 20),
	})
	pool, err := workerpool.New(workerpool.ProcessorFunc{
		ProcessorName: "noop",
		Fn:            func(context.Context, registry.FileRecord) error { return nil },
	}, workerpool.Options{Workers: 2, Logger: testLogger()})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(pool.Close)

	return &StatusHandler{
		Projects:  projects,
		Pools:     map[string]*workerpool.Pool{"noop": pool},
		StartTime: time.Now().Add(-5 * time.Minute),
		Logger:    testLogger(),
	}
}

func Test_StatusHandler_Output(t *testing.T) {
	h := newTestStatusHandler(t)

	result, _, err := h.Handle(context.Background(), nil, StatusArgs{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	text := resultText(t, result)
	for _, want := range []string{"coderegistry-mcp Status", "Projects: 1", "2 files, consistent", "noop", "2 workers, 0 restarts", "Uptime: 5m"} {
		if !strings.Contains(text, want) {
			t.Errorf("expected %q in status output, got:\n%s", want, text)
		}
	}
}

func Test_StatusHandler_Statistics(t *testing.T) {
	h := newTestStatusHandler(t)

	result, _, err := h.HandleStatistics(context.Background(), nil, StatisticsArgs{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("expected success, got: %s", resultText(t, result))
	}

	text := resultText(t, result)
	for _, want := range []string{"Files: 2", "Lines: 30", "Python", "20 lines", "Rust", "10 lines"} {
		if !strings.Contains(text, want) {
			t.Errorf("expected %q in statistics output, got:\n%s", want, text)
		}
	}
}
