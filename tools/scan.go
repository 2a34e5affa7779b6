package tools

import (
	"context"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ScanArgs defines the input parameters for the registry_scan tool.
type ScanArgs struct {
	ProjectID string `json:"projectId,omitempty" jsonschema:"Project id (default: most recently created project)"`
	Reconcile bool   `json:"reconcile,omitempty" jsonschema:"If true also refresh modified files and drop files that disappeared"`
}

// ScanHandler holds the dependencies for the scan tool.
type ScanHandler struct {
	Projects *Projects
	Logger   *slog.Logger
}

// Handle processes a registry_scan request.
func (h *ScanHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args ScanArgs) (*mcp.CallToolResult, any, error) {
	p, err := h.Projects.Resolve(args.ProjectID)
	if err != nil {
		return errorResult("Error: %v", err), nil, nil
	}

	h.Logger.Info("registry_scan started", "project", p.Name, "reconcile", args.Reconcile)
	if args.Reconcile {
		result, err := p.Reconcile(ctx)
		if err != nil {
			h.Logger.Error("registry_scan reconcile failed", "project", p.Name, "error", err)
			return errorResult("Reconcile error: %v", err), nil, nil
		}
		return textResult(FormatSyncResult(result)), nil, nil
	}

	report, err := p.Scan(ctx)
	if err != nil {
		h.Logger.Error("registry_scan failed", "project", p.Name, "error", err)
		return errorResult("Scan error: %v", err), nil, nil
	}
	h.Logger.Info("registry_scan complete",
		"project", p.Name,
		"indexed", report.Indexed,
		"skipped", len(report.Skipped),
		"elapsed", report.Duration,
	)
	return textResult(FormatScanReport(report)), nil, nil
}
