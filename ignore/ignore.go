package ignore

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	gitignore "github.com/denormal/go-gitignore"
)

// DefaultMaxFileSizeBytes is the size ceiling used when none is configured.
const DefaultMaxFileSizeBytes int64 = 100 * 1024 * 1024

// ProjectIgnoreFile is the project-specific ignore file, read alongside .gitignore.
const ProjectIgnoreFile = ".coderegistryignore"

// Matcher decides which files a directory scan ingests.
// It combines default patterns, .gitignore rules, .coderegistryignore rules,
// project glob excludes and an optional extension allow list.
// Thread-safe: Reload() acquires a write lock, ShouldIgnore()/ShouldIgnoreDir() acquire a read lock.
type Matcher struct {
	mu               sync.RWMutex
	rootDir          string
	gitIgnore        gitignore.GitIgnore
	projectIgnore    gitignore.GitIgnore
	customPatterns   []string
	extensions       map[string]struct{}
	maxFileSizeBytes int64
}

// MatcherOptions configures the ignore matcher.
type MatcherOptions struct {
	RootDir          string
	CustomPatterns   []string // doublestar globs relative to RootDir
	Extensions       []string // allowed extensions ("rs" or ".rs"); empty allows all
	MaxFileSizeBytes int64
}

// NewMatcher creates a matcher for the given project root.
func NewMatcher(options MatcherOptions) *Matcher {
	matcher := &Matcher{
		rootDir:          options.RootDir,
		maxFileSizeBytes: options.MaxFileSizeBytes,
	}

	if matcher.maxFileSizeBytes <= 0 {
		matcher.maxFileSizeBytes = DefaultMaxFileSizeBytes
	}

	for _, pattern := range options.CustomPatterns {
		pattern = strings.ReplaceAll(pattern, "\\", "/")
		if doublestar.ValidatePattern(pattern) {
			matcher.customPatterns = append(matcher.customPatterns, pattern)
		}
	}

	if len(options.Extensions) > 0 {
		matcher.extensions = make(map[string]struct{}, len(options.Extensions))
		for _, ext := range options.Extensions {
			matcher.extensions[strings.ToLower(strings.TrimPrefix(ext, "."))] = struct{}{}
		}
	}

	matcher.gitIgnore = loadIgnoreFile(filepath.Join(options.RootDir, ".gitignore"), options.RootDir)
	matcher.projectIgnore = loadIgnoreFile(filepath.Join(options.RootDir, ProjectIgnoreFile), options.RootDir)

	return matcher
}

// ShouldIgnore returns true if the given path should be excluded from the registry.
// The path should be an absolute path or relative to the root directory.
func (m *Matcher) ShouldIgnore(absolutePath string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	relativePath, err := filepath.Rel(m.rootDir, absolutePath)
	if err != nil {
		relativePath = absolutePath
	}
	relativePath = filepath.ToSlash(relativePath)

	if m.matchesDefaultPatterns(relativePath, absolutePath) {
		return true
	}

	isDir := false
	if info, err := os.Stat(absolutePath); err == nil {
		isDir = info.IsDir()
	}

	// Relative() doesn't require the file to exist on disk
	for _, rules := range []gitignore.GitIgnore{m.gitIgnore, m.projectIgnore} {
		if rules == nil {
			continue
		}
		if match := rules.Relative(relativePath, isDir); match != nil && match.Ignore() {
			return true
		}
	}

	return m.matchesCustomPatterns(relativePath)
}

// ShouldIgnoreDir returns true if a directory should be skipped entirely during traversal.
func (m *Matcher) ShouldIgnoreDir(absolutePath string) bool {
	if _, ok := DefaultIgnoredDirs[filepath.Base(absolutePath)]; ok {
		return true
	}
	return m.ShouldIgnore(absolutePath)
}

// AllowsExtension reports whether the file's extension passes the allow list.
func (m *Matcher) AllowsExtension(path string) bool {
	if m.extensions == nil {
		return true
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	_, ok := m.extensions[ext]
	return ok
}

// IsFileTooLarge returns true if the file exceeds the max file size limit.
func (m *Matcher) IsFileTooLarge(fileSize int64) bool {
	return fileSize > m.maxFileSizeBytes
}

// MaxFileSizeBytes returns the configured maximum file size.
func (m *Matcher) MaxFileSizeBytes() int64 {
	return m.maxFileSizeBytes
}

// matchesDefaultPatterns reports whether any path component is a default
// ignored directory or the base name matches a default file glob.
func (m *Matcher) matchesDefaultPatterns(relativePath string, absolutePath string) bool {
	for _, part := range strings.Split(relativePath, "/") {
		if _, ok := DefaultIgnoredDirs[part]; ok {
			return true
		}
	}

	baseName := filepath.Base(absolutePath)
	for _, pattern := range DefaultIgnoredFiles {
		if matched, err := filepath.Match(pattern, baseName); err == nil && matched {
			return true
		}
	}
	return false
}

// matchesCustomPatterns checks the project's glob excludes against the relative path and basename.
func (m *Matcher) matchesCustomPatterns(relativePath string) bool {
	baseName := filepath.Base(relativePath)
	for _, pattern := range m.customPatterns {
		if doublestar.MatchUnvalidated(pattern, relativePath) || doublestar.MatchUnvalidated(pattern, baseName) {
			return true
		}
	}
	return false
}

// Reload re-reads .gitignore and .coderegistryignore from disk.
func (m *Matcher) Reload() {
	newGitIgnore := loadIgnoreFile(filepath.Join(m.rootDir, ".gitignore"), m.rootDir)
	newProjectIgnore := loadIgnoreFile(filepath.Join(m.rootDir, ProjectIgnoreFile), m.rootDir)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.gitIgnore = newGitIgnore
	m.projectIgnore = newProjectIgnore
}

// loadIgnoreFile reads an ignore file and creates a GitIgnore matcher from it.
func loadIgnoreFile(filePath string, baseDir string) gitignore.GitIgnore {
	f, err := os.Open(filePath)
	if err != nil {
		return nil
	}
	defer f.Close()

	return gitignore.New(f, baseDir, nil)
}
