// Package project ingests project directories into a file registry and answers
// queries over it.
package project

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lexandro/coderegistry-mcp/apperr"
	"github.com/lexandro/coderegistry-mcp/fileinfo"
	"github.com/lexandro/coderegistry-mcp/ignore"
	"github.com/lexandro/coderegistry-mcp/index"
	"github.com/lexandro/coderegistry-mcp/language"
	"github.com/lexandro/coderegistry-mcp/metrics"
	"github.com/lexandro/coderegistry-mcp/registry"
)

// DefaultScanConcurrency bounds parallel file reads during Scan and Reconcile.
const DefaultScanConcurrency = 8

// Options are the process-wide settings shared by every project of a Manager.
type Options struct {
	Classifier      language.Classifier // defaults to language.ExtensionClassifier
	Defaults        Config              // base settings; a project's ConfigFile overrides them
	ScanConcurrency int
	Logger          *slog.Logger
	Metrics         *metrics.Metrics
}

func (o Options) withDefaults() Options {
	if o.Classifier == nil {
		o.Classifier = language.ExtensionClassifier{}
	}
	if o.Defaults.MaxFileSize <= 0 {
		o.Defaults.MaxFileSize = ignore.DefaultMaxFileSizeBytes
	}
	if o.ScanConcurrency < 1 {
		o.ScanConcurrency = DefaultScanConcurrency
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Project is a directory whose files are held in a registry.
type Project struct {
	ID          uuid.UUID
	Name        string
	Description string
	Root        string // absolute
	Config      Config
	CreatedAt   time.Time

	registry    *registry.Registry
	content     *index.ContentIndex // nil when content indexing is off
	matcher     *ignore.Matcher
	classifier  language.Classifier
	concurrency int
	logger      *slog.Logger
	metrics     *metrics.Metrics

	// writeMu makes each registry change and its content index change one step.
	writeMu sync.Mutex
}

// Open validates root and builds an empty project for it.
// A missing root is NotFound, a root that is not a directory a validation error.
func Open(id uuid.UUID, name, description, root string, options Options) (*Project, error) {
	options = options.withDefaults()

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, apperr.Validation("open project", root, err)
	}
	info, err := os.Stat(absRoot)
	if os.IsNotExist(err) {
		return nil, apperr.NotFound("open project", absRoot)
	}
	if err != nil {
		return nil, apperr.IO("open project", absRoot, err)
	}
	if !info.IsDir() {
		return nil, apperr.Validation("open project", absRoot, fmt.Errorf("project path must be a directory"))
	}

	cfg, err := LoadConfig(absRoot, options.Defaults)
	if err != nil {
		return nil, err
	}

	p := &Project{
		ID:          id,
		Name:        name,
		Description: description,
		Root:        absRoot,
		Config:      cfg,
		CreatedAt:   time.Now(),
		registry:    registry.New(absRoot),
		matcher:     cfg.matcher(absRoot),
		classifier:  options.Classifier,
		concurrency: options.ScanConcurrency,
		logger:      options.Logger.With("project", name),
		metrics:     options.Metrics,
	}

	if cfg.IndexContent {
		p.content, err = index.NewContentIndex()
		if err != nil {
			return nil, fmt.Errorf("creating content index: %w", err)
		}
	}
	return p, nil
}

// Registry returns the project's file registry.
func (p *Project) Registry() *registry.Registry { return p.registry }

// ContentIndexed reports whether file contents are searchable.
func (p *Project) ContentIndexed() bool { return p.content != nil }

// UpdatedAt returns the time of the last registry change, or CreatedAt when
// nothing was registered yet.
func (p *Project) UpdatedAt() time.Time {
	if t := p.registry.UpdatedAt(); t.After(p.CreatedAt) {
		return t
	}
	return p.CreatedAt
}

// Close releases the content index.
func (p *Project) Close() error {
	if p.content == nil {
		return nil
	}
	return p.content.Close()
}

// Ingest measures and classifies one file and inserts it into the registry.
// Relative paths are resolved against the project root; paths outside the root
// are a validation error.
func (p *Project) Ingest(path string) (registry.FileRecord, error) {
	path, err := p.resolve(path)
	if err != nil {
		p.metrics.FileIngested(outcomeLabel(err))
		return registry.FileRecord{}, err
	}
	m, err := p.measure(path)
	if err != nil {
		p.metrics.FileIngested(outcomeLabel(err))
		return registry.FileRecord{}, err
	}
	record := p.buildRecord(path, m)
	if err := p.add(record, m.Content); err != nil {
		p.metrics.FileIngested(outcomeLabel(err))
		return registry.FileRecord{}, err
	}
	p.metrics.FileIngested("indexed")
	return record, nil
}

// Remove drops a record from the registry and the content index.
func (p *Project) Remove(id uuid.UUID) error {
	record, err := p.registry.Get(id)
	if err != nil {
		return err
	}
	return p.drop(record)
}

func (p *Project) resolve(path string) (string, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(p.Root, path)
	}
	path = filepath.Clean(path)
	rel, err := filepath.Rel(p.Root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", apperr.Validation("ingest", path, fmt.Errorf("outside project root %s", p.Root))
	}
	return path, nil
}

// measure enforces the size ceiling before reading the file.
func (p *Project) measure(path string) (fileinfo.Measurement, error) {
	info, err := os.Stat(path)
	if err != nil {
		return fileinfo.Measurement{}, apperr.IO("ingest", path, err)
	}
	if info.IsDir() {
		return fileinfo.Measurement{}, apperr.Validation("ingest", path, fmt.Errorf("not a regular file"))
	}
	limit := p.matcher.MaxFileSizeBytes()
	if p.matcher.IsFileTooLarge(info.Size()) {
		return fileinfo.Measurement{}, apperr.FileTooLarge("ingest", path, info.Size(), limit)
	}

	m, err := fileinfo.Measure(path)
	if err != nil {
		return fileinfo.Measurement{}, apperr.IO("ingest", path, err)
	}
	// The file may have grown between stat and read
	if p.matcher.IsFileTooLarge(m.Size) {
		return fileinfo.Measurement{}, apperr.FileTooLarge("ingest", path, m.Size, limit)
	}
	return m, nil
}

func (p *Project) buildRecord(path string, m fileinfo.Measurement) registry.FileRecord {
	record := registry.NewFileRecord(path)
	record.Size = m.Size
	record.Lines = m.Lines
	record.Language = p.classifier.Classify(path, m.Content)
	record.Encoding = language.DetectEncoding(m.Content)
	record.Checksum = m.Checksum
	record.FastHash = m.FastHash
	record.CreatedAt = time.Now()
	record.ModifiedAt = m.ModifiedAt
	return record
}

// add inserts into the registry and then the content index. A record whose
// content cannot be indexed is taken out of the registry again.
func (p *Project) add(record registry.FileRecord, content []byte) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	if err := p.registry.Insert(record); err != nil {
		return err
	}
	defer p.metrics.SetRegistrySize(p.Name, p.registry.Len())

	if p.content == nil || record.Encoding == language.EncodingBinary {
		return nil
	}
	relPath, _ := record.RelativeTo(p.Root)
	if err := p.content.IndexFile(index.Document{
		FileID:       record.ID.String(),
		RelativePath: relPath,
		Language:     record.Language,
		Content:      string(content),
	}); err != nil {
		if rmErr := p.registry.Remove(record.ID); rmErr != nil {
			p.logger.Error("rolling back registry insert", "path", record.Path, "error", rmErr)
		}
		return apperr.Parse("ingest", record.Path, err)
	}
	return nil
}

func (p *Project) drop(record registry.FileRecord) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	if err := p.registry.Remove(record.ID); err != nil {
		return err
	}
	defer p.metrics.SetRegistrySize(p.Name, p.registry.Len())

	if p.content == nil {
		return nil
	}
	relPath, _ := record.RelativeTo(p.Root)
	if err := p.content.RemoveFile(relPath); err != nil {
		return apperr.Parse("remove", record.Path, err)
	}
	return nil
}

// Search returns every record whose name or path contains query, ignoring case,
// in path order.
func (p *Project) Search(query string) []registry.FileRecord {
	needle := strings.ToLower(query)
	var matches []registry.FileRecord
	for _, record := range p.registry.List() {
		if strings.Contains(strings.ToLower(record.Name), needle) ||
			strings.Contains(strings.ToLower(record.Path), needle) {
			matches = append(matches, record)
		}
	}
	return matches
}

// SearchContent runs a full-text query over file contents.
func (p *Project) SearchContent(options index.SearchOptions) ([]index.ContentSearchResult, int, error) {
	if p.content == nil {
		return nil, 0, apperr.Validation("search content", p.Root, fmt.Errorf("content indexing is disabled for this project"))
	}
	return p.content.Search(options)
}

// FileContent returns the indexed content of a file by its path relative to the root.
func (p *Project) FileContent(relativePath string) (string, bool) {
	if p.content == nil {
		return "", false
	}
	return p.content.GetFileContent(relativePath)
}
