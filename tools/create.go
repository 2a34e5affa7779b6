package tools

import (
	"context"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lexandro/coderegistry-mcp/project"
)

// CreateProjectArgs defines the input parameters for the registry_create_project tool.
type CreateProjectArgs struct {
	Name        string `json:"name" jsonschema:"Project name"`
	Description string `json:"description,omitempty" jsonschema:"Free-form project description"`
	Root        string `json:"root" jsonschema:"Absolute path of the project directory"`
	Scan        bool   `json:"scan,omitempty" jsonschema:"If true scan the directory into the registry right away"`
}

// CreateProjectHandler holds the dependencies for the create-project tool.
type CreateProjectHandler struct {
	Manager *project.Manager
	Logger  *slog.Logger
}

// Handle processes a registry_create_project request.
func (h *CreateProjectHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args CreateProjectArgs) (*mcp.CallToolResult, any, error) {
	if args.Name == "" || args.Root == "" {
		h.Logger.Warn("registry_create_project called without name or root")
		return errorResult("Error: name and root parameters are required"), nil, nil
	}

	p, err := h.Manager.Create(args.Name, args.Description, args.Root)
	if err != nil {
		h.Logger.Error("registry_create_project failed", "root", args.Root, "error", err)
		return errorResult("Create error: %v", err), nil, nil
	}
	h.Logger.Info("registry_create_project", "name", p.Name, "id", p.ID, "root", p.Root)

	output := FormatProject(p)
	if args.Scan {
		report, err := p.Scan(ctx)
		if err != nil {
			h.Logger.Error("registry_create_project scan failed", "id", p.ID, "error", err)
			return errorResult("Project %s created, scan error: %v", p.ID, err), nil, nil
		}
		output += "\n" + FormatScanReport(report)
	}
	return textResult(output), nil, nil
}
