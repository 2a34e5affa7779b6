package project

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexandro/coderegistry-mcp/apperr"
	"github.com/lexandro/coderegistry-mcp/index"
	"github.com/lexandro/coderegistry-mcp/language"
	"github.com/lexandro/coderegistry-mcp/registry"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testOptions() Options {
	return Options{Defaults: DefaultConfig(), Logger: testLogger()}
}

func writeFile(t *testing.T, root, relPath, content string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(relPath))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func lines(n int) string {
	return strings.Repeat("x\n", n)
}

func openTestProject(t *testing.T, root string, options Options) *Project {
	t.Helper()
	p, err := Open(uuid.New(), "test", "", root, options)
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })
	return p
}

func recordNames(records []registry.FileRecord) []string {
	names := make([]string, len(records))
	for i, r := range records {
		names[i] = r.Name
	}
	return names
}

func Test_Open_MissingRoot(t *testing.T) {
	_, err := Open(uuid.New(), "gone", "", filepath.Join(t.TempDir(), "nope"), testOptions())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func Test_Open_RootIsFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "file.txt", "hi")
	_, err := Open(uuid.New(), "file", "", path, testOptions())
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func Test_Project_Ingest(t *testing.T) {
	root := t.TempDir()
	path := writeFile(t, root, "src/main.rs", "fn main() {\n    println!(\"hi\");\n}\n")
	p := openTestProject(t, root, testOptions())

	record, err := p.Ingest("src/main.rs")
	require.NoError(t, err)

	assert.Equal(t, path, record.Path)
	assert.Equal(t, "main.rs", record.Name)
	assert.Equal(t, language.Rust, record.Language)
	assert.Equal(t, 3, record.Lines)
	assert.Equal(t, language.EncodingUTF8, record.Encoding)
	assert.Len(t, record.Checksum, 64)
	assert.NotZero(t, record.FastHash)

	stored, err := p.Registry().GetByPath(path)
	require.NoError(t, err)
	assert.Equal(t, record, stored)

	content, ok := p.FileContent("src/main.rs")
	assert.True(t, ok)
	assert.Contains(t, content, "println!")
}

func Test_Project_IngestTwiceConflicts(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.py", "print(1)\n")
	p := openTestProject(t, root, testOptions())

	first, err := p.Ingest("a.py")
	require.NoError(t, err)
	_, err = p.Ingest("a.py")
	assert.ErrorIs(t, err, apperr.ErrConflict)

	stored, err := p.Registry().GetByPath(first.Path)
	require.NoError(t, err)
	assert.Equal(t, first.ID, stored.ID)
}

func Test_Project_IngestMissingFile(t *testing.T) {
	p := openTestProject(t, t.TempDir(), testOptions())
	_, err := p.Ingest("missing.go")
	assert.ErrorIs(t, err, apperr.ErrIO)
	assert.Zero(t, p.Registry().Len())
}

func Test_Project_IngestOutsideRoot(t *testing.T) {
	outside := writeFile(t, t.TempDir(), "elsewhere.go", "package elsewhere\n")

	for _, indexContent := range []bool{true, false} {
		options := testOptions()
		options.Defaults.IndexContent = indexContent
		p := openTestProject(t, t.TempDir(), options)

		_, err := p.Ingest(outside)
		assert.ErrorIs(t, err, apperr.ErrValidation, "indexContent=%v", indexContent)
		_, err = p.Ingest("../escape.go")
		assert.ErrorIs(t, err, apperr.ErrValidation, "indexContent=%v", indexContent)
		assert.Zero(t, p.Registry().Len())
	}
}

func Test_Project_IngestTooLarge(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "big.txt", strings.Repeat("a", 200))
	options := testOptions()
	options.Defaults.MaxFileSize = 100
	p := openTestProject(t, root, options)

	_, err := p.Ingest("big.txt")
	assert.ErrorIs(t, err, apperr.ErrFileTooLarge)
	assert.Zero(t, p.Registry().Len())
}

func Test_Project_IngestBinaryNotContentIndexed(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "data.go", "package x\x00\x01")
	p := openTestProject(t, root, testOptions())

	record, err := p.Ingest("data.go")
	require.NoError(t, err)
	assert.Equal(t, language.EncodingBinary, record.Encoding)
	assert.Equal(t, language.Unknown, record.Language)

	_, ok := p.FileContent("data.go")
	assert.False(t, ok)
}

func Test_Project_RemoveDropsContent(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.go", "package a\n")
	p := openTestProject(t, root, testOptions())

	record, err := p.Ingest("a.go")
	require.NoError(t, err)
	require.NoError(t, p.Remove(record.ID))

	_, err = p.Registry().Get(record.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, ok := p.FileContent("a.go")
	assert.False(t, ok)

	assert.ErrorIs(t, p.Remove(record.ID), apperr.ErrNotFound)
}

func Test_Project_Search(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "test_file_0.rs", "fn a() {}\n")
	writeFile(t, root, "readme.md", "# hi\n")
	writeFile(t, root, "test_file_1.py", "def a(): pass\n")
	p := openTestProject(t, root, testOptions())

	for _, name := range []string{"test_file_0.rs", "readme.md", "test_file_1.py"} {
		_, err := p.Ingest(name)
		require.NoError(t, err)
	}

	// The temp root itself may contain "test" (it is derived from the test
	// name), so search for a fragment only the file names carry.
	matches := p.Search("TEST_FILE")
	assert.ElementsMatch(t, []string{"test_file_0.rs", "test_file_1.py"}, recordNames(matches))

	assert.Empty(t, p.Search("no-such-thing"))
}

func Test_Project_SearchContent(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "server.go", "package main\n\nfunc handleRequest() {}\n")
	writeFile(t, root, "client.py", "def fetch():\n    pass\n")
	p := openTestProject(t, root, testOptions())
	_, err := p.Scan(context.Background())
	require.NoError(t, err)

	results, total, err := p.SearchContent(index.SearchOptions{Query: "handleRequest", MaxResults: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, results, 1)
	assert.Equal(t, "server.go", results[0].RelativePath)
}

func Test_Project_SearchContentDisabled(t *testing.T) {
	options := testOptions()
	options.Defaults.IndexContent = false
	p := openTestProject(t, t.TempDir(), options)

	_, _, err := p.SearchContent(index.SearchOptions{Query: "x"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.False(t, p.ContentIndexed())
}

func Test_Project_Statistics(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "lib.rs", lines(10))
	writeFile(t, root, "app.py", lines(20))
	p := openTestProject(t, root, testOptions())

	_, err := p.Ingest("lib.rs")
	require.NoError(t, err)
	_, err = p.Ingest("app.py")
	require.NoError(t, err)

	stats := p.Statistics()
	assert.Equal(t, 2, stats.TotalFiles)
	assert.Equal(t, 30, stats.TotalLines)
	assert.Equal(t, int64(60), stats.TotalBytes)
	assert.Equal(t, map[language.Language]LanguageStats{
		language.Rust:   {Files: 1, Lines: 10, Bytes: 20},
		language.Python: {Files: 1, Lines: 20, Bytes: 40},
	}, stats.Languages)
	assert.False(t, stats.UpdatedAt.Before(stats.CreatedAt))
}

func Test_Project_StatisticsAreFresh(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "lib.rs", lines(10))
	p := openTestProject(t, root, testOptions())

	assert.Zero(t, p.Statistics().TotalFiles)
	record, err := p.Ingest("lib.rs")
	require.NoError(t, err)
	assert.Equal(t, 1, p.Statistics().TotalFiles)
	require.NoError(t, p.Remove(record.ID))
	assert.Zero(t, p.Statistics().TotalFiles)
	assert.Empty(t, p.Statistics().Languages)
}
