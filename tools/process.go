package tools

import (
	"context"
	"log/slog"
	"sort"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lexandro/coderegistry-mcp/coordinator"
	"github.com/lexandro/coderegistry-mcp/registry"
)

// ProcessArgs defines the input parameters for the registry_process_batch tool.
type ProcessArgs struct {
	ProjectID string `json:"projectId,omitempty" jsonschema:"Project id (default: most recently created project)"`
	Processor string `json:"processor" jsonschema:"Processor to run: checksum, formatter or highlighter"`
	Pattern   string `json:"pattern,omitempty" jsonschema:"Optional glob pattern selecting the files to process. Processes every registered file when empty"`
}

// ProcessHandler holds the dependencies for the process-batch tool.
type ProcessHandler struct {
	Projects     *Projects
	Coordinators map[string]*coordinator.Coordinator // by processor name
	Logger       *slog.Logger
}

// Handle processes a registry_process_batch request. The batch runs on the
// worker pool; the call returns early with an error if the client gives up,
// while the batch itself still completes.
func (h *ProcessHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args ProcessArgs) (*mcp.CallToolResult, any, error) {
	c, ok := h.Coordinators[args.Processor]
	if !ok {
		return errorResult("Error: unknown processor %q (available: %v)", args.Processor, h.processorNames()), nil, nil
	}
	p, err := h.Projects.Resolve(args.ProjectID)
	if err != nil {
		return errorResult("Error: %v", err), nil, nil
	}

	var records []registry.FileRecord
	if args.Pattern == "" {
		records = p.Registry().List()
	} else {
		records, err = p.Registry().SearchByGlob(args.Pattern, 0)
		if err != nil {
			return errorResult("Search error: %v", err), nil, nil
		}
	}

	report, err := c.Await(ctx, records)
	if err != nil {
		h.Logger.Error("registry_process_batch failed", "processor", args.Processor, "error", err)
		return errorResult("Process error: %v", err), nil, nil
	}

	h.Logger.Info("registry_process_batch",
		"project", p.Name,
		"processor", args.Processor,
		"attempted", report.Summary.Attempted,
		"failed", report.Summary.Failed,
		"elapsed", report.Duration,
	)
	return textResult(FormatReport(report, p.Root)), nil, nil
}

func (h *ProcessHandler) processorNames() []string {
	names := make([]string, 0, len(h.Coordinators))
	for name := range h.Coordinators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
