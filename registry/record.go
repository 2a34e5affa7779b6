package registry

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lexandro/coderegistry-mcp/language"
)

// FileRecord is an immutable snapshot of one file's metadata.
// Records are passed and stored by value; an update is a Replace with the same ID.
type FileRecord struct {
	ID         uuid.UUID
	Path       string // Absolute, cleaned file path
	Name       string // Base name
	Size       int64  // Bytes
	Lines      int
	Language   language.Language
	Encoding   string
	Checksum   string // sha256, hex encoded
	FastHash   uint64 // xxhash of the content
	CreatedAt  time.Time
	ModifiedAt time.Time
}

// NewFileRecord assigns a fresh identifier and derives the name from the path.
func NewFileRecord(path string) FileRecord {
	path = filepath.Clean(path)
	return FileRecord{
		ID:       uuid.New(),
		Path:     path,
		Name:     filepath.Base(path),
		Language: language.Unknown,
	}
}

// SupportsHighlighting reports whether the record's language is recognized.
func (r FileRecord) SupportsHighlighting() bool {
	return r.Language.Known()
}

// RelativeTo returns the record's path relative to base using forward slashes,
// and false when the path is not below base.
func (r FileRecord) RelativeTo(base string) (string, bool) {
	rel, err := filepath.Rel(base, r.Path)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", false
	}
	return rel, true
}
