// Package server registers the registry tools on an MCP server.
package server

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lexandro/coderegistry-mcp/tools"
)

// Version is reported to MCP clients.
const Version = "0.1.0"

// Handlers groups the tool handlers exposed over MCP.
type Handlers struct {
	Create  *tools.CreateProjectHandler
	Scan    *tools.ScanHandler
	Files   *tools.FilesHandler
	GetFile *tools.GetFileHandler
	Search  *tools.SearchHandler
	Status  *tools.StatusHandler
	Process *tools.ProcessHandler
}

// Setup creates and configures the MCP server with all tool registrations.
func Setup(h Handlers) *mcp.Server {
	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "coderegistry-mcp",
			Version: Version,
		},
		&mcp.ServerOptions{
			Instructions: `This server keeps an in-memory registry of project files: identity, language, size, line count and checksum per file, plus a full-text index of their contents.

Typical flow:
- registry_create_project with scan=true registers a directory
- registry_list_files, registry_search and registry_find_file locate files
- registry_search_content searches inside files
- registry_process_batch runs a processor (checksum, formatter, highlighter) over files on the worker pool
- registry_scan with reconcile=true refreshes the registry after files changed on disk

Tools that take projectId default to the most recently created project.`,
		},
	)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "registry_create_project",
		Description: "Register a directory as a project. Optionally scan it right away.",
	}, h.Create.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name: "registry_scan",
		Description: `Scan the project directory and register files not yet in the registry.
Files that cannot be registered (too large, unreadable) are listed and skipped.
With reconcile=true, modified files are re-registered and files gone from disk are removed.`,
	}, h.Scan.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "registry_get_file",
		Description: "Get a registered file by its identifier, optionally with its content.",
	}, h.GetFile.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "registry_find_file",
		Description: "Look up a registered file by its path (absolute or relative to the project root).",
	}, h.Files.HandleFind)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name: "registry_list_files",
		Description: `List registered files, optionally filtered by glob pattern.

Pattern examples:
  - "**/*.go" - all Go files
  - "src/**/*.ts" - TypeScript files under src/
  - "*.json" - JSON files in root only`,
	}, h.Files.HandleList)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "registry_search",
		Description: "Find registered files whose name or path contains the query (case-insensitive).",
	}, h.Search.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name: "registry_search_content",
		Description: `Search file contents using full-text indexed search.

Query formats:
  - Plain text: word-level matching (e.g., "handleRequest")
  - "quoted text": exact phrase matching (e.g., "\"func main\"")
  - /regex/: regular expression matching (e.g., "/func\s+\w+Handler/")

Filtering:
  - filePath: exact relative path to search in a single file. Overrides fileGlob.
  - fileGlob: glob pattern to filter by file type (e.g., "**/*.go").
  - language: language name (e.g., "Rust").`,
	}, h.Search.HandleContent)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "registry_statistics",
		Description: "Show file, line and byte totals for a project, broken down by language.",
	}, h.Status.HandleStatistics)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "registry_process_batch",
		Description: "Run a processor over registered files on the worker pool. Reports per-file failures in submission order with a summary.",
	}, h.Process.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "registry_status",
		Description: "Show projects, registry consistency, worker pools, memory usage and uptime.",
	}, h.Status.Handle)

	return mcpServer
}
