package tools

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lexandro/coderegistry-mcp/workerpool"
)

// StatusArgs defines the input parameters for the registry_status tool (none required).
type StatusArgs struct{}

// StatisticsArgs defines the input parameters for the registry_statistics tool.
type StatisticsArgs struct {
	ProjectID string `json:"projectId,omitempty" jsonschema:"Project id (default: most recently created project)"`
}

// StatusHandler holds the dependencies for the status and statistics tools.
type StatusHandler struct {
	Projects  *Projects
	Pools     map[string]*workerpool.Pool // by processor name
	StartTime time.Time
	Logger    *slog.Logger
}

// Handle processes a registry_status request.
func (h *StatusHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args StatusArgs) (*mcp.CallToolResult, any, error) {
	var builder strings.Builder

	projects := h.Projects.Manager.List()
	uptime := time.Since(h.StartTime)

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	h.Logger.Info("registry_status",
		"projects", len(projects),
		"memory", memStats.Alloc,
		"uptime", uptime,
	)

	builder.WriteString("=== coderegistry-mcp Status ===\n\n")
	builder.WriteString(fmt.Sprintf("Uptime: %s\n", formatDuration(uptime)))
	builder.WriteString(fmt.Sprintf("Memory usage: %s (heap: %s)\n",
		formatFileSize(int64(memStats.Alloc)),
		formatFileSize(int64(memStats.HeapAlloc)),
	))

	builder.WriteString(fmt.Sprintf("\nProjects: %d\n", len(projects)))
	for _, p := range projects {
		consistency := "consistent"
		if err := p.Registry().CheckConsistency(); err != nil {
			consistency = "INCONSISTENT: " + err.Error()
		}
		builder.WriteString(fmt.Sprintf("  %s  %s  %s  %d files, %s\n",
			p.ID, p.Name, p.Root, p.Registry().Len(), consistency))
	}

	if len(h.Pools) > 0 {
		names := make([]string, 0, len(h.Pools))
		for name := range h.Pools {
			names = append(names, name)
		}
		sort.Strings(names)

		builder.WriteString("\nWorker pools:\n")
		for _, name := range names {
			pool := h.Pools[name]
			builder.WriteString(fmt.Sprintf("  %-12s %d workers, %d restarts\n", name, pool.Workers(), pool.Restarts()))
		}
	}

	return textResult(builder.String()), nil, nil
}

// HandleStatistics processes a registry_statistics request.
func (h *StatusHandler) HandleStatistics(ctx context.Context, req *mcp.CallToolRequest, args StatisticsArgs) (*mcp.CallToolResult, any, error) {
	p, err := h.Projects.Resolve(args.ProjectID)
	if err != nil {
		return errorResult("Error: %v", err), nil, nil
	}
	stats := p.Statistics()
	h.Logger.Info("registry_statistics", "project", p.Name, "files", stats.TotalFiles, "lines", stats.TotalLines)
	return textResult(FormatStatistics(p.Name, stats)), nil, nil
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	totalSeconds := int(d.Seconds())
	if totalSeconds < 60 {
		return fmt.Sprintf("%ds", totalSeconds)
	}
	totalMinutes := totalSeconds / 60
	remainderSeconds := totalSeconds % 60
	if totalMinutes < 60 {
		return fmt.Sprintf("%dm%ds", totalMinutes, remainderSeconds)
	}
	hours := totalMinutes / 60
	remainderMinutes := totalMinutes % 60
	return fmt.Sprintf("%dh%dm", hours, remainderMinutes)
}
