package tools

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lexandro/coderegistry-mcp/project"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestProjects creates a manager holding one scanned project with the given files.
func newTestProjects(t *testing.T, files map[string]string) (*Projects, *project.Project) {
	t.Helper()
	root := t.TempDir()
	for relPath, content := range files {
		path := filepath.Join(root, filepath.FromSlash(relPath))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	manager := project.NewManager(project.Options{Defaults: project.DefaultConfig(), Logger: testLogger()})
	t.Cleanup(func() { manager.Close() })

	p, err := manager.Create("demo", "test project", root)
	if err != nil {
		t.Fatalf("failed to create project: %v", err)
	}
	if _, err := p.Scan(context.Background()); err != nil {
		t.Fatalf("failed to scan project: %v", err)
	}
	return &Projects{Manager: manager}, p
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("expected content in result")
	}
	return result.Content[0].(*mcp.TextContent).Text
}
