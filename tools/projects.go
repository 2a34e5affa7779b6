package tools

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lexandro/coderegistry-mcp/apperr"
	"github.com/lexandro/coderegistry-mcp/project"
)

// Projects resolves the project a tool call refers to.
type Projects struct {
	Manager *project.Manager
}

// Resolve returns the project with the given identifier, or the most recently
// created project when id is empty.
func (p *Projects) Resolve(id string) (*project.Project, error) {
	if id == "" {
		recent := p.Manager.Recent(1)
		if len(recent) == 0 {
			return nil, apperr.NotFound("resolve project", "no project has been created")
		}
		return recent[0], nil
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.Validation("resolve project", id, fmt.Errorf("invalid project id: %w", err))
	}
	return p.Manager.Get(parsed)
}

// errorResult builds a tool result reporting a failure to the caller.
func errorResult(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}

// textResult builds a successful tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}
