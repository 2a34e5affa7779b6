package tools

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// GetFileArgs defines the input parameters for the registry_get_file tool.
type GetFileArgs struct {
	ProjectID      string `json:"projectId,omitempty" jsonschema:"Project id (default: most recently created project)"`
	FileID         string `json:"fileId" jsonschema:"File identifier as returned by the other registry tools"`
	IncludeContent bool   `json:"includeContent,omitempty" jsonschema:"If true append the file's content with line numbers, served from memory"`
}

// GetFileHandler holds the dependencies for the get-file tool.
type GetFileHandler struct {
	Projects *Projects
	Logger   *slog.Logger
}

// Handle processes a registry_get_file request.
func (h *GetFileHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args GetFileArgs) (*mcp.CallToolResult, any, error) {
	if args.FileID == "" {
		h.Logger.Warn("registry_get_file called with empty fileId")
		return errorResult("Error: fileId parameter is required"), nil, nil
	}
	id, err := uuid.Parse(args.FileID)
	if err != nil {
		return errorResult("Error: invalid fileId %q: %v", args.FileID, err), nil, nil
	}
	p, err := h.Projects.Resolve(args.ProjectID)
	if err != nil {
		return errorResult("Error: %v", err), nil, nil
	}

	record, err := p.Registry().Get(id)
	if err != nil {
		h.Logger.Info("registry_get_file not found", "id", args.FileID)
		return errorResult("File not found in registry: %s", args.FileID), nil, nil
	}

	output := FormatRecord(record, p.Root)
	if args.IncludeContent {
		relPath, _ := record.RelativeTo(p.Root)
		content, ok := p.FileContent(relPath)
		if !ok {
			return errorResult("%s\nContent is not indexed for %s", output, relPath), nil, nil
		}
		output += "\n" + FormatFileContent(relPath, content)
	}

	h.Logger.Info("registry_get_file", "id", args.FileID, "content", args.IncludeContent)
	return textResult(output), nil, nil
}
