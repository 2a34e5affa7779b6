// Package registry holds the in-memory file registry of a project: every
// record is indexed both by identifier and by path.
package registry

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"

	"github.com/lexandro/coderegistry-mcp/apperr"
	"github.com/lexandro/coderegistry-mcp/language"
)

// Registry is a concurrent store of FileRecords with two indexes that are always
// updated together: identifier -> record and path -> identifier.
// Reads share a read lock; Insert, Remove, Replace and Clear hold the write lock
// for the whole update, so no reader observes one index without the other.
type Registry struct {
	mu          sync.RWMutex
	root        string
	byID        map[uuid.UUID]FileRecord
	byPath      map[string]uuid.UUID
	sortedPaths []string // sorted for consistent iteration
	updatedAt   time.Time
}

// New creates an empty registry. root is used to relativize paths for glob
// searches and may be empty.
func New(root string) *Registry {
	if root != "" {
		root = filepath.Clean(root)
	}
	return &Registry{
		root:        root,
		byID:        make(map[uuid.UUID]FileRecord),
		byPath:      make(map[string]uuid.UUID),
		sortedPaths: make([]string, 0),
		updatedAt:   time.Now(),
	}
}

// Root returns the directory paths are relativized against.
func (r *Registry) Root() string {
	return r.root
}

// Insert adds a record to both indexes. It fails with a conflict when the path
// is already indexed under a different identifier, or the identifier under a
// different path. Inserting the same identifier/path pair again overwrites it.
func (r *Registry) Insert(record FileRecord) error {
	record, err := normalize("insert", record)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if owner, exists := r.byPath[record.Path]; exists && owner != record.ID {
		return apperr.Conflict("insert", record.Path,
			fmt.Errorf("path already indexed under %s", owner))
	}
	if existing, exists := r.byID[record.ID]; exists && existing.Path != record.Path {
		return apperr.Conflict("insert", record.Path,
			fmt.Errorf("identifier %s already indexed at %s", record.ID, existing.Path))
	}

	r.put(record)
	r.updatedAt = time.Now()
	return nil
}

// Replace swaps the stored record that has the same identifier. The path may
// change as long as the new path is not owned by another record.
func (r *Registry) Replace(record FileRecord) error {
	record, err := normalize("replace", record)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.byID[record.ID]
	if !exists {
		return apperr.NotFound("replace", record.ID.String())
	}
	if owner, taken := r.byPath[record.Path]; taken && owner != record.ID {
		return apperr.Conflict("replace", record.Path,
			fmt.Errorf("path already indexed under %s", owner))
	}

	r.drop(existing)
	r.put(record)
	r.updatedAt = time.Now()
	return nil
}

// Remove deletes the record with the given identifier from both indexes.
func (r *Registry) Remove(id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.byID[id]
	if !exists {
		return apperr.NotFound("remove", id.String())
	}

	r.drop(existing)
	r.updatedAt = time.Now()
	return nil
}

// Get returns the record with the given identifier.
func (r *Registry) Get(id uuid.UUID) (FileRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.byID[id]
	if !ok {
		return FileRecord{}, apperr.NotFound("get", id.String())
	}
	return record, nil
}

// GetByPath returns the record stored under the given path.
func (r *Registry) GetByPath(path string) (FileRecord, error) {
	path = filepath.Clean(path)

	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byPath[path]
	if !ok {
		return FileRecord{}, apperr.NotFound("get by path", path)
	}
	return r.byID[id], nil
}

// Len returns the number of records.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// UpdatedAt returns the time of the last successful write.
func (r *Registry) UpdatedAt() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.updatedAt
}

// List returns a snapshot of all records in path order. Later writes do not
// change an already returned slice.
func (r *Registry) List() []FileRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]FileRecord, 0, len(r.sortedPaths))
	for _, path := range r.sortedPaths {
		result = append(result, r.byID[r.byPath[path]])
	}
	return result
}

// GroupByLanguage partitions one snapshot by language. Records within a group
// keep the snapshot's path order.
func (r *Registry) GroupByLanguage() map[language.Language][]FileRecord {
	groups := make(map[language.Language][]FileRecord)
	for _, record := range r.List() {
		groups[record.Language] = append(groups[record.Language], record)
	}
	return groups
}

// SearchByGlob returns records whose path, relative to the registry root and
// with forward slashes, matches a doublestar glob pattern. maxResults <= 0
// returns every match.
func (r *Registry) SearchByGlob(pattern string, maxResults int) ([]FileRecord, error) {
	// Normalize pattern to forward slashes
	pattern = strings.ReplaceAll(pattern, "\\", "/")
	if !doublestar.ValidatePattern(pattern) {
		return nil, apperr.Validation("glob", pattern, fmt.Errorf("invalid glob pattern: %s", pattern))
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var results []FileRecord
	for _, path := range r.sortedPaths {
		if maxResults > 0 && len(results) >= maxResults {
			break
		}
		if doublestar.MatchUnvalidated(pattern, r.matchPath(path)) {
			results = append(results, r.byID[r.byPath[path]])
		}
	}
	return results, nil
}

// Clear removes all records. Used on registry teardown.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byID = make(map[uuid.UUID]FileRecord)
	r.byPath = make(map[string]uuid.UUID)
	r.sortedPaths = make([]string, 0)
	r.updatedAt = time.Now()
}

// CheckConsistency verifies that both indexes describe the same set of records.
func (r *Registry) CheckConsistency() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.byID) != len(r.byPath) || len(r.byPath) != len(r.sortedPaths) {
		return fmt.Errorf("index sizes differ: ids=%d paths=%d sorted=%d",
			len(r.byID), len(r.byPath), len(r.sortedPaths))
	}
	for path, id := range r.byPath {
		record, ok := r.byID[id]
		if !ok {
			return fmt.Errorf("path %s points at missing identifier %s", path, id)
		}
		if record.Path != path {
			return fmt.Errorf("path %s points at %s whose path is %s", path, id, record.Path)
		}
	}
	for id, record := range r.byID {
		if r.byPath[record.Path] != id {
			return fmt.Errorf("identifier %s is not reachable from path %s", id, record.Path)
		}
	}
	return nil
}

// put writes the record into both indexes. Caller holds the write lock.
func (r *Registry) put(record FileRecord) {
	_, exists := r.byPath[record.Path]
	r.byID[record.ID] = record
	r.byPath[record.Path] = record.ID

	if !exists {
		idx := sort.SearchStrings(r.sortedPaths, record.Path)
		r.sortedPaths = append(r.sortedPaths, "")
		copy(r.sortedPaths[idx+1:], r.sortedPaths[idx:])
		r.sortedPaths[idx] = record.Path
	}
}

// drop removes the record from both indexes. Caller holds the write lock.
func (r *Registry) drop(record FileRecord) {
	delete(r.byID, record.ID)
	delete(r.byPath, record.Path)

	idx := sort.SearchStrings(r.sortedPaths, record.Path)
	if idx < len(r.sortedPaths) && r.sortedPaths[idx] == record.Path {
		r.sortedPaths = append(r.sortedPaths[:idx], r.sortedPaths[idx+1:]...)
	}
}

// matchPath returns the form of path that glob patterns are matched against.
func (r *Registry) matchPath(path string) string {
	if r.root != "" {
		if rel, err := filepath.Rel(r.root, path); err == nil {
			return filepath.ToSlash(rel)
		}
	}
	return filepath.ToSlash(path)
}

func normalize(op string, record FileRecord) (FileRecord, error) {
	if record.ID == uuid.Nil {
		return record, apperr.Validation(op, record.Path, fmt.Errorf("record has no identifier"))
	}
	if record.Path == "" {
		return record, apperr.Validation(op, "", fmt.Errorf("record has no path"))
	}
	record.Path = filepath.Clean(record.Path)
	if record.Name == "" {
		record.Name = filepath.Base(record.Path)
	}
	return record, nil
}
