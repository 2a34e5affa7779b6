// Package index provides full-text search over the contents of registered files.
package index

import (
	"fmt"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/bmatcuk/doublestar/v4"

	"github.com/lexandro/coderegistry-mcp/language"
)

// Document is one file's content as handed to the index.
type Document struct {
	FileID       string // registry identifier
	RelativePath string // path relative to the project root (forward slashes)
	Language     language.Language
	Content      string
}

type storedDocument struct {
	fileID  string
	content string
}

// ContentIndex provides full-text search over file contents using Bleve in-memory index.
type ContentIndex struct {
	mu    sync.RWMutex
	index bleve.Index
	// documents keeps raw content for line-level result extraction
	documents map[string]storedDocument // key: relative path
}

// NewContentIndex creates a new in-memory Bleve content index.
func NewContentIndex() (*ContentIndex, error) {
	bleveIndex, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("creating bleve index: %w", err)
	}

	return &ContentIndex{
		index:     bleveIndex,
		documents: make(map[string]storedDocument),
	}, nil
}

// bleveDocument is the document structure stored in Bleve.
type bleveDocument struct {
	Content  string `json:"content"`
	Path     string `json:"path"`
	Language string `json:"language"`
	FileID   string `json:"file_id"`
}

// buildIndexMapping creates the Bleve index mapping for code content.
func buildIndexMapping() *mapping.IndexMappingImpl {
	indexMapping := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()

	contentFieldMapping := bleve.NewTextFieldMapping()
	contentFieldMapping.Store = false // content lives in documents, not in Bleve
	contentFieldMapping.IncludeInAll = true
	docMapping.AddFieldMappingsAt("content", contentFieldMapping)

	pathFieldMapping := bleve.NewTextFieldMapping()
	pathFieldMapping.Store = true
	pathFieldMapping.IncludeInAll = false
	docMapping.AddFieldMappingsAt("path", pathFieldMapping)

	langFieldMapping := bleve.NewKeywordFieldMapping()
	langFieldMapping.Store = true
	langFieldMapping.IncludeInAll = false
	docMapping.AddFieldMappingsAt("language", langFieldMapping)

	idFieldMapping := bleve.NewKeywordFieldMapping()
	idFieldMapping.Store = true
	idFieldMapping.Index = false
	idFieldMapping.IncludeInAll = false
	docMapping.AddFieldMappingsAt("file_id", idFieldMapping)

	indexMapping.DefaultMapping = docMapping
	return indexMapping
}

// IndexFile adds or updates a file's content in the search index.
func (ci *ContentIndex) IndexFile(doc Document) error {
	ci.mu.Lock()
	defer ci.mu.Unlock()

	if err := ci.index.Index(doc.RelativePath, bleveDocument{
		Content:  doc.Content,
		Path:     doc.RelativePath,
		Language: doc.Language.String(),
		FileID:   doc.FileID,
	}); err != nil {
		return fmt.Errorf("indexing file %s: %w", doc.RelativePath, err)
	}

	ci.documents[doc.RelativePath] = storedDocument{fileID: doc.FileID, content: doc.Content}
	return nil
}

// RemoveFile removes a file from the search index.
func (ci *ContentIndex) RemoveFile(relativePath string) error {
	ci.mu.Lock()
	defer ci.mu.Unlock()

	delete(ci.documents, relativePath)
	if err := ci.index.Delete(relativePath); err != nil {
		return fmt.Errorf("removing file %s from index: %w", relativePath, err)
	}
	return nil
}

// ContentSearchResult holds the matches within one file.
type ContentSearchResult struct {
	FileID       string
	RelativePath string
	Matches      []LineMatch
}

// LineMatch represents a single line match within a file.
type LineMatch struct {
	LineNumber int
	LineText   string
	// Context lines before and after the match
	ContextBefore []string
	ContextAfter  []string
}

// SearchOptions configures a content search.
type SearchOptions struct {
	Query        string
	FilePath     string // Exact relative path to restrict search to a single file (overrides FileGlob)
	FileGlob     string
	Language     language.Language // Optional language restriction
	MaxResults   int
	ContextLines int
}

// Search performs a full-text search across all indexed files.
// Query format:
//   - Plain text: match query (word-level matching)
//   - "quoted text": phrase query (exact phrase match)
//   - /regex/: regexp query
func (ci *ContentIndex) Search(options SearchOptions) ([]ContentSearchResult, int, error) {
	ci.mu.RLock()
	defer ci.mu.RUnlock()

	if options.MaxResults <= 0 {
		options.MaxResults = 50
	}
	if options.ContextLines < 0 {
		options.ContextLines = 0
	}

	bleveQuery := buildQuery(options.Query)
	if options.Language != "" {
		langQuery := bleve.NewTermQuery(options.Language.String())
		langQuery.SetField("language")
		bleveQuery = bleve.NewConjunctionQuery(bleveQuery, langQuery)
	}

	searchRequest := bleve.NewSearchRequest(bleveQuery)
	searchRequest.Size = options.MaxResults * 5 // over-fetch, results are filtered and grouped by file
	searchRequest.Fields = []string{"path", "language"}

	searchResults, err := ci.index.Search(searchRequest)
	if err != nil {
		return nil, 0, fmt.Errorf("searching index: %w", err)
	}

	normalizedFilePath := strings.ReplaceAll(options.FilePath, "\\", "/")
	normalizedGlob := strings.ReplaceAll(options.FileGlob, "\\", "/")

	var results []ContentSearchResult
	totalMatches := 0

	for _, hit := range searchResults.Hits {
		relativePath := hit.ID
		doc, ok := ci.documents[relativePath]
		if !ok {
			continue
		}

		// FilePath is an exact match and overrides FileGlob
		if normalizedFilePath != "" {
			if relativePath != normalizedFilePath {
				continue
			}
		} else if normalizedGlob != "" {
			matched, matchErr := doublestar.Match(normalizedGlob, relativePath)
			if matchErr != nil || !matched {
				continue
			}
		}

		lineMatches := findMatchingLines(doc.content, options.Query, options.ContextLines)
		if len(lineMatches) == 0 {
			continue
		}

		totalMatches += len(lineMatches)
		results = append(results, ContentSearchResult{
			FileID:       doc.fileID,
			RelativePath: relativePath,
			Matches:      lineMatches,
		})

		if len(results) >= options.MaxResults {
			break
		}
	}

	return results, totalMatches, nil
}

// buildQuery parses the query string into a Bleve query.
func buildQuery(queryString string) query.Query {
	queryString = strings.TrimSpace(queryString)

	if strings.HasPrefix(queryString, "/") && strings.HasSuffix(queryString, "/") && len(queryString) > 2 {
		return bleve.NewRegexpQuery(queryString[1 : len(queryString)-1])
	}

	if strings.HasPrefix(queryString, "\"") && strings.HasSuffix(queryString, "\"") && len(queryString) > 2 {
		return bleve.NewMatchPhraseQuery(queryString[1 : len(queryString)-1])
	}

	return bleve.NewMatchQuery(queryString)
}

// findMatchingLines searches content line by line for the query terms.
func findMatchingLines(content string, queryString string, contextLines int) []LineMatch {
	lines := strings.Split(content, "\n")
	searchTermLower := strings.ToLower(extractSearchTerm(queryString))

	var matches []LineMatch
	for lineIdx, line := range lines {
		if !strings.Contains(strings.ToLower(line), searchTermLower) {
			continue
		}

		match := LineMatch{
			LineNumber: lineIdx + 1, // 1-based
			LineText:   line,
		}
		if contextLines > 0 {
			start := max(lineIdx-contextLines, 0)
			end := min(lineIdx+contextLines+1, len(lines))
			match.ContextBefore = append(match.ContextBefore, lines[start:lineIdx]...)
			match.ContextAfter = append(match.ContextAfter, lines[lineIdx+1:end]...)
		}
		matches = append(matches, match)
	}

	return matches
}

// extractSearchTerm strips query syntax to get the raw search term for line matching.
func extractSearchTerm(queryString string) string {
	queryString = strings.TrimSpace(queryString)

	if strings.HasPrefix(queryString, "/") && strings.HasSuffix(queryString, "/") && len(queryString) > 2 {
		return queryString[1 : len(queryString)-1]
	}
	if strings.HasPrefix(queryString, "\"") && strings.HasSuffix(queryString, "\"") && len(queryString) > 2 {
		return queryString[1 : len(queryString)-1]
	}
	return queryString
}

// DocumentCount returns the number of documents in the Bleve index.
func (ci *ContentIndex) DocumentCount() uint64 {
	ci.mu.RLock()
	defer ci.mu.RUnlock()
	count, _ := ci.index.DocCount()
	return count
}

// GetFileContent returns the raw content of an indexed file.
func (ci *ContentIndex) GetFileContent(relativePath string) (string, bool) {
	ci.mu.RLock()
	defer ci.mu.RUnlock()

	doc, ok := ci.documents[strings.ReplaceAll(relativePath, "\\", "/")]
	return doc.content, ok
}

// Close closes the Bleve index.
func (ci *ContentIndex) Close() error {
	ci.mu.Lock()
	defer ci.mu.Unlock()
	return ci.index.Close()
}

// Clear removes all documents and recreates the index.
func (ci *ContentIndex) Clear() error {
	ci.mu.Lock()
	defer ci.mu.Unlock()

	if err := ci.index.Close(); err != nil {
		return fmt.Errorf("closing old index: %w", err)
	}

	newIndex, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return fmt.Errorf("creating new index: %w", err)
	}

	ci.index = newIndex
	ci.documents = make(map[string]storedDocument)
	return nil
}
