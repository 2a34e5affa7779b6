package tools

import (
	"context"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lexandro/coderegistry-mcp/index"
	"github.com/lexandro/coderegistry-mcp/language"
)

// SearchArgs defines the input parameters for the registry_search tool.
type SearchArgs struct {
	ProjectID string `json:"projectId,omitempty" jsonschema:"Project id (default: most recently created project)"`
	Query     string `json:"query" jsonschema:"Case-insensitive substring matched against file names and paths"`
	NameOnly  bool   `json:"nameOnly,omitempty" jsonschema:"If true return only file paths without metadata"`
}

// SearchContentArgs defines the input parameters for the registry_search_content tool.
type SearchContentArgs struct {
	ProjectID    string `json:"projectId,omitempty" jsonschema:"Project id (default: most recently created project)"`
	Query        string `json:"query" jsonschema:"Search query. Plain text for word match, quoted for exact phrase, /regex/ for regular expression"`
	FilePath     string `json:"filePath,omitempty" jsonschema:"Exact relative file path to search in (overrides fileGlob)"`
	FileGlob     string `json:"fileGlob,omitempty" jsonschema:"Optional glob pattern to filter files (e.g. **/*.go)"`
	Language     string `json:"language,omitempty" jsonschema:"Optional language name to restrict the search to (e.g. Rust)"`
	MaxResults   int    `json:"maxResults,omitempty" jsonschema:"Maximum number of file results to return (default 50)"`
	ContextLines int    `json:"contextLines,omitempty" jsonschema:"Number of context lines before and after each match (default 2)"`
}

// SearchHandler holds the dependencies for the search tools.
type SearchHandler struct {
	Projects   *Projects
	MaxResults int
	Logger     *slog.Logger
}

// Handle processes a registry_search request.
func (h *SearchHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args SearchArgs) (*mcp.CallToolResult, any, error) {
	start := time.Now()
	if args.Query == "" {
		h.Logger.Warn("registry_search called with empty query")
		return errorResult("Error: query parameter is required"), nil, nil
	}
	p, err := h.Projects.Resolve(args.ProjectID)
	if err != nil {
		return errorResult("Error: %v", err), nil, nil
	}

	results := p.Search(args.Query)
	h.Logger.Info("registry_search",
		"project", p.Name,
		"query", args.Query,
		"results", len(results),
		"elapsed", time.Since(start),
	)
	return textResult(FormatFileResults(results, p.Root, args.NameOnly)), nil, nil
}

// HandleContent processes a registry_search_content request.
func (h *SearchHandler) HandleContent(ctx context.Context, req *mcp.CallToolRequest, args SearchContentArgs) (*mcp.CallToolResult, any, error) {
	start := time.Now()
	if args.Query == "" {
		h.Logger.Warn("registry_search_content called with empty query")
		return errorResult("Error: query parameter is required"), nil, nil
	}
	p, err := h.Projects.Resolve(args.ProjectID)
	if err != nil {
		return errorResult("Error: %v", err), nil, nil
	}

	contextLines := args.ContextLines
	if contextLines == 0 {
		contextLines = 2
	}
	maxResults := args.MaxResults
	if maxResults <= 0 {
		maxResults = h.MaxResults
	}
	options := index.SearchOptions{
		Query:        args.Query,
		FilePath:     args.FilePath,
		FileGlob:     args.FileGlob,
		MaxResults:   maxResults,
		ContextLines: contextLines,
	}
	if args.Language != "" {
		options.Language = language.Parse(args.Language)
		if options.Language == language.Unknown {
			return errorResult("Error: unknown language %q", args.Language), nil, nil
		}
	}

	results, totalMatches, err := p.SearchContent(options)
	if err != nil {
		h.Logger.Error("registry_search_content failed", "query", args.Query, "error", err)
		return errorResult("Search error: %v", err), nil, nil
	}

	h.Logger.Info("registry_search_content",
		"project", p.Name,
		"query", args.Query,
		"filePath", args.FilePath,
		"fileGlob", args.FileGlob,
		"files", len(results),
		"matches", totalMatches,
		"elapsed", time.Since(start),
	)
	return textResult(FormatSearchResults(results, totalMatches)), nil, nil
}
