package registry

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/lexandro/coderegistry-mcp/apperr"
	"github.com/lexandro/coderegistry-mcp/language"
)

func newTestRecord(relPath string, lang language.Language, size int64) FileRecord {
	record := NewFileRecord("/project/" + relPath)
	record.Language = lang
	record.Size = size
	record.Lines = 100
	record.Encoding = language.EncodingUTF8
	record.ModifiedAt = time.Now()
	return record
}

func mustInsert(t *testing.T, r *Registry, record FileRecord) {
	t.Helper()
	if err := r.Insert(record); err != nil {
		t.Fatalf("insert %s: %v", record.Path, err)
	}
}

func Test_Registry_InsertAndGet(t *testing.T) {
	r := New("/project")
	record := newTestRecord("src/main.go", language.Go, 1024)
	mustInsert(t, r, record)

	got, err := r.Get(record.ID)
	if err != nil {
		t.Fatalf("expected to find record, got %v", err)
	}
	if got.Language != language.Go {
		t.Errorf("expected Go, got %s", got.Language)
	}
	if got.Name != "main.go" {
		t.Errorf("expected name main.go, got %s", got.Name)
	}

	byPath, err := r.GetByPath("/project/src/main.go")
	if err != nil {
		t.Fatalf("expected to find record by path, got %v", err)
	}
	if byPath.ID != record.ID {
		t.Errorf("expected id %s, got %s", record.ID, byPath.ID)
	}
}

func Test_Registry_GetByPath_CleansPath(t *testing.T) {
	r := New("/project")
	record := newTestRecord("src/main.go", language.Go, 1)
	mustInsert(t, r, record)

	if _, err := r.GetByPath("/project/src/../src/main.go"); err != nil {
		t.Errorf("expected uncleaned path to resolve, got %v", err)
	}
}

func Test_Registry_GetMissing(t *testing.T) {
	r := New("/project")

	if _, err := r.Get(uuid.New()); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
	if _, err := r.GetByPath("/project/none.go"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func Test_Registry_InsertDuplicatePathConflicts(t *testing.T) {
	r := New("/project")
	first := newTestRecord("a.go", language.Go, 100)
	mustInsert(t, r, first)
	before := r.UpdatedAt()

	second := newTestRecord("a.go", language.Go, 200)
	err := r.Insert(second)
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	// Both indexes are unchanged
	if r.Len() != 1 {
		t.Errorf("expected 1 record, got %d", r.Len())
	}
	if _, err := r.Get(second.ID); err == nil {
		t.Error("expected conflicting record to be absent")
	}
	got, _ := r.GetByPath("/project/a.go")
	if got.ID != first.ID || got.Size != 100 {
		t.Errorf("expected original record to remain, got %+v", got)
	}
	if !r.UpdatedAt().Equal(before) {
		t.Error("expected last modified time to be unchanged after a conflict")
	}
	if err := r.CheckConsistency(); err != nil {
		t.Error(err)
	}
}

func Test_Registry_InsertSameIdentifierNewPathConflicts(t *testing.T) {
	r := New("/project")
	record := newTestRecord("a.go", language.Go, 100)
	mustInsert(t, r, record)

	moved := record
	moved.Path = "/project/b.go"
	if err := r.Insert(moved); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("expected conflict, got %v", err)
	}
}

func Test_Registry_InsertSamePairOverwrites(t *testing.T) {
	r := New("/project")
	record := newTestRecord("a.go", language.Go, 100)
	mustInsert(t, r, record)

	record.Size = 150
	mustInsert(t, r, record)

	got, _ := r.Get(record.ID)
	if got.Size != 150 {
		t.Errorf("expected size 150, got %d", got.Size)
	}
	if r.Len() != 1 {
		t.Errorf("expected 1 record, got %d", r.Len())
	}
}

func Test_Registry_InsertRejectsEmptyRecord(t *testing.T) {
	r := New("")
	if err := r.Insert(FileRecord{Path: "/a.go"}); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error for nil id, got %v", err)
	}
	if err := r.Insert(FileRecord{ID: uuid.New()}); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error for empty path, got %v", err)
	}
}

func Test_Registry_UpdatedAtAdvancesOnInsert(t *testing.T) {
	r := New("/project")
	before := r.UpdatedAt()
	time.Sleep(time.Millisecond)

	mustInsert(t, r, newTestRecord("a.go", language.Go, 1))
	if !r.UpdatedAt().After(before) {
		t.Error("expected last modified time to advance")
	}
}

func Test_Registry_Remove(t *testing.T) {
	r := New("/project")
	record := newTestRecord("src/main.go", language.Go, 1024)
	mustInsert(t, r, record)

	if err := r.Remove(record.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Len() != 0 {
		t.Errorf("expected 0 records, got %d", r.Len())
	}
	if _, err := r.GetByPath(record.Path); !errors.Is(err, apperr.ErrNotFound) {
		t.Error("expected path index entry to be removed")
	}
	if err := r.Remove(record.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found on second remove, got %v", err)
	}
}

func Test_Registry_Replace(t *testing.T) {
	r := New("/project")
	record := newTestRecord("a.go", language.Go, 100)
	mustInsert(t, r, record)

	updated := record
	updated.Path = "/project/renamed.go"
	updated.Name = ""
	updated.Size = 300
	if err := r.Replace(updated); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := r.GetByPath("/project/a.go"); err == nil {
		t.Error("expected old path to be gone")
	}
	got, err := r.GetByPath("/project/renamed.go")
	if err != nil {
		t.Fatalf("expected new path to resolve: %v", err)
	}
	if got.ID != record.ID || got.Size != 300 || got.Name != "renamed.go" {
		t.Errorf("unexpected replaced record: %+v", got)
	}
	if err := r.CheckConsistency(); err != nil {
		t.Error(err)
	}
}

func Test_Registry_ReplaceErrors(t *testing.T) {
	r := New("/project")
	a := newTestRecord("a.go", language.Go, 1)
	b := newTestRecord("b.go", language.Go, 1)
	mustInsert(t, r, a)
	mustInsert(t, r, b)

	if err := r.Replace(newTestRecord("c.go", language.Go, 1)); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}

	stolen := a
	stolen.Path = b.Path
	if err := r.Replace(stolen); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("expected conflict, got %v", err)
	}
}

func Test_Registry_ListIsSnapshot(t *testing.T) {
	r := New("/project")
	mustInsert(t, r, newTestRecord("b.go", language.Go, 1))
	mustInsert(t, r, newTestRecord("a.go", language.Go, 1))

	snapshot := r.List()
	mustInsert(t, r, newTestRecord("c.go", language.Go, 1))

	if len(snapshot) != 2 {
		t.Fatalf("expected snapshot to keep 2 records, got %d", len(snapshot))
	}
	if snapshot[0].Name != "a.go" || snapshot[1].Name != "b.go" {
		t.Errorf("expected path order, got %s, %s", snapshot[0].Name, snapshot[1].Name)
	}

	// Mutating the copy does not reach the registry
	snapshot[0].Size = 999
	got, _ := r.GetByPath("/project/a.go")
	if got.Size == 999 {
		t.Error("expected stored record to be immutable through snapshot")
	}
}

func Test_Registry_GroupByLanguage(t *testing.T) {
	r := New("/project")
	mustInsert(t, r, newTestRecord("a.go", language.Go, 100))
	mustInsert(t, r, newTestRecord("b.go", language.Go, 200))
	mustInsert(t, r, newTestRecord("c.ts", language.TypeScript, 300))
	mustInsert(t, r, newTestRecord("d.xyz", language.Unknown, 300))

	groups := r.GroupByLanguage()
	if len(groups[language.Go]) != 2 {
		t.Errorf("expected 2 Go files, got %d", len(groups[language.Go]))
	}
	if len(groups[language.TypeScript]) != 1 {
		t.Errorf("expected 1 TypeScript file, got %d", len(groups[language.TypeScript]))
	}
	if len(groups[language.Unknown]) != 1 {
		t.Errorf("expected 1 Unknown file, got %d", len(groups[language.Unknown]))
	}
	if groups[language.Go][0].Name != "a.go" {
		t.Errorf("expected group order to follow path order, got %s", groups[language.Go][0].Name)
	}
}

func Test_Registry_SearchByGlob_DoubleStarExtension(t *testing.T) {
	r := New("/project")
	mustInsert(t, r, newTestRecord("src/main.go", language.Go, 1024))
	mustInsert(t, r, newTestRecord("src/utils/helper.go", language.Go, 512))
	mustInsert(t, r, newTestRecord("src/app.ts", language.TypeScript, 2048))
	mustInsert(t, r, newTestRecord("README.md", language.Markdown, 256))

	results, err := r.SearchByGlob("**/*.go", 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("expected 2 Go files, got %d", len(results))
	}
}

func Test_Registry_SearchByGlob_SpecificDirectory(t *testing.T) {
	r := New("/project")
	mustInsert(t, r, newTestRecord("src/main.go", language.Go, 1024))
	mustInsert(t, r, newTestRecord("test/main_test.go", language.Go, 512))

	results, err := r.SearchByGlob("src/**/*.go", 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("expected 1 file in src/, got %d", len(results))
	}
}

func Test_Registry_SearchByGlob_InvalidPattern(t *testing.T) {
	r := New("/project")
	_, err := r.SearchByGlob("[invalid", 50)
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error for invalid pattern, got %v", err)
	}
}

func Test_Registry_SearchByGlob_MaxResults(t *testing.T) {
	r := New("/project")
	for i := 0; i < 20; i++ {
		mustInsert(t, r, newTestRecord(fmt.Sprintf("file%02d.go", i), language.Go, 100))
	}

	results, err := r.SearchByGlob("**/*.go", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 5 {
		t.Errorf("expected 5 results, got %d", len(results))
	}

	all, err := r.SearchByGlob("**/*.go", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 20 {
		t.Errorf("expected every match with no limit, got %d", len(all))
	}
	if all[0].Name != "file00.go" || all[19].Name != "file19.go" {
		t.Errorf("expected results in path order, got %s..%s", all[0].Name, all[19].Name)
	}
}

func Test_Registry_Clear(t *testing.T) {
	r := New("/project")
	mustInsert(t, r, newTestRecord("a.go", language.Go, 100))
	r.Clear()

	if r.Len() != 0 {
		t.Errorf("expected 0 after clear, got %d", r.Len())
	}
	if err := r.CheckConsistency(); err != nil {
		t.Error(err)
	}
}

func Test_FileRecord_RelativeTo(t *testing.T) {
	record := NewFileRecord("/project/src/main.go")

	rel, ok := record.RelativeTo("/project")
	if !ok || rel != "src/main.go" {
		t.Errorf("expected src/main.go, got %q (%v)", rel, ok)
	}
	if _, ok := record.RelativeTo("/elsewhere"); ok {
		t.Error("expected path outside base to not be relative")
	}
}

func Test_FileRecord_SupportsHighlighting(t *testing.T) {
	record := NewFileRecord("/project/notes.xyz")
	if record.SupportsHighlighting() {
		t.Error("expected Unknown language to not support highlighting")
	}
	record.Language = language.Rust
	if !record.SupportsHighlighting() {
		t.Error("expected Rust to support highlighting")
	}
}
