package tools

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lexandro/coderegistry-mcp/registry"
)

// ListFilesArgs defines the input parameters for the registry_list_files tool.
type ListFilesArgs struct {
	ProjectID  string `json:"projectId,omitempty" jsonschema:"Project id (default: most recently created project)"`
	Pattern    string `json:"pattern,omitempty" jsonschema:"Optional glob pattern relative to the project root (e.g. **/*.rs). Lists every file when empty"`
	NameOnly   bool   `json:"nameOnly,omitempty" jsonschema:"If true return only file paths without metadata"`
	MaxResults int    `json:"maxResults,omitempty" jsonschema:"Maximum number of results to return (default 50)"`
}

// FindFileArgs defines the input parameters for the registry_find_file tool.
type FindFileArgs struct {
	ProjectID string `json:"projectId,omitempty" jsonschema:"Project id (default: most recently created project)"`
	Path      string `json:"path" jsonschema:"File path, absolute or relative to the project root"`
}

// FilesHandler holds the dependencies for the file listing tools.
type FilesHandler struct {
	Projects   *Projects
	MaxResults int // default result cap
	Logger     *slog.Logger
}

// HandleList processes a registry_list_files request.
func (h *FilesHandler) HandleList(ctx context.Context, req *mcp.CallToolRequest, args ListFilesArgs) (*mcp.CallToolResult, any, error) {
	start := time.Now()
	p, err := h.Projects.Resolve(args.ProjectID)
	if err != nil {
		return errorResult("Error: %v", err), nil, nil
	}

	maxResults := args.MaxResults
	if maxResults <= 0 {
		maxResults = h.MaxResults
	}

	var results []registry.FileRecord
	if args.Pattern == "" {
		results = p.Registry().List()
		if maxResults > 0 && len(results) > maxResults {
			results = results[:maxResults]
		}
	} else {
		results, err = p.Registry().SearchByGlob(args.Pattern, maxResults)
		if err != nil {
			h.Logger.Error("registry_list_files failed", "pattern", args.Pattern, "error", err)
			return errorResult("Search error: %v", err), nil, nil
		}
	}

	h.Logger.Info("registry_list_files",
		"project", p.Name,
		"pattern", args.Pattern,
		"results", len(results),
		"elapsed", time.Since(start),
	)
	return textResult(FormatFileResults(results, p.Root, args.NameOnly)), nil, nil
}

// HandleFind processes a registry_find_file request.
func (h *FilesHandler) HandleFind(ctx context.Context, req *mcp.CallToolRequest, args FindFileArgs) (*mcp.CallToolResult, any, error) {
	if args.Path == "" {
		h.Logger.Warn("registry_find_file called with empty path")
		return errorResult("Error: path parameter is required"), nil, nil
	}
	p, err := h.Projects.Resolve(args.ProjectID)
	if err != nil {
		return errorResult("Error: %v", err), nil, nil
	}

	path := args.Path
	if !filepath.IsAbs(path) {
		path = filepath.Join(p.Root, filepath.FromSlash(path))
	}
	record, err := p.Registry().GetByPath(path)
	if err != nil {
		h.Logger.Info("registry_find_file not found", "path", args.Path)
		return errorResult("File not found in registry: %s", args.Path), nil, nil
	}

	h.Logger.Info("registry_find_file", "path", args.Path, "id", record.ID)
	return textResult(FormatRecord(record, p.Root)), nil, nil
}
