package project

import (
	"context"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lexandro/coderegistry-mcp/apperr"
	"github.com/lexandro/coderegistry-mcp/registry"
)

// SyncResult holds the outcome of one Reconcile run.
type SyncResult struct {
	MissingFiles  int // on disk but not registered; now ingested
	StaleFiles    int // registered but gone from disk or now excluded; now removed
	ModifiedFiles int // content changed; re-registered under a new identifier
	TouchedFiles  int // timestamp changed, content identical; record refreshed in place
	Skipped       []FileError
	Duration      time.Duration
}

// Changes is the number of registry changes the run made.
func (r SyncResult) Changes() int {
	return r.MissingFiles + r.StaleFiles + r.ModifiedFiles + r.TouchedFiles
}

// Reconcile compares the registry with the files on disk and brings it back in
// line. Content changes are detected by size, modification time and a fast hash
// and handled as remove-then-insert. It runs only when called.
func (p *Project) Reconcile(ctx context.Context) (SyncResult, error) {
	start := time.Now()
	var (
		mu     sync.Mutex
		result SyncResult
	)
	skip := func(path string, err error) {
		fe := p.fileError(path, err)
		p.logger.Debug("sync: skipped file", "path", fe.Path, "kind", fe.Kind, "error", err)
		mu.Lock()
		result.Skipped = append(result.Skipped, fe)
		mu.Unlock()
	}
	count := func(field *int) {
		mu.Lock()
		*field++
		mu.Unlock()
	}

	registered := make(map[string]registry.FileRecord, p.registry.Len())
	for _, record := range p.registry.List() {
		registered[record.Path] = record
	}
	onDisk := make(map[string]struct{}, len(registered))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	walkErr := p.walk(gctx, func(path string) {
		onDisk[path] = struct{}{}
		existing, known := registered[path]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if !known {
				if _, err := p.Ingest(path); err != nil {
					skip(path, err)
					return nil
				}
				p.logger.Info("sync: registered missing file", "path", path)
				count(&result.MissingFiles)
				return nil
			}
			change, err := p.refresh(existing)
			if err != nil {
				skip(path, err)
				return nil
			}
			switch change {
			case changeTouched:
				count(&result.TouchedFiles)
			case changeModified:
				count(&result.ModifiedFiles)
			}
			return nil
		})
	}, skip)

	groupErr := g.Wait()
	if walkErr != nil {
		return result, walkErr
	}
	if groupErr != nil {
		return result, groupErr
	}

	for path, record := range registered {
		if _, exists := onDisk[path]; exists {
			continue
		}
		if err := p.drop(record); err != nil {
			skip(path, err)
			continue
		}
		p.logger.Info("sync: removed stale file", "path", path)
		result.StaleFiles++
	}

	sortFileErrors(result.Skipped)
	result.Duration = time.Since(start)
	if result.Changes() > 0 {
		p.logger.Info("sync verification complete",
			"missing", result.MissingFiles,
			"stale", result.StaleFiles,
			"modified", result.ModifiedFiles,
			"touched", result.TouchedFiles,
			"duration", result.Duration,
		)
	} else {
		p.logger.Debug("sync verification complete, registry is in sync", "duration", result.Duration)
	}
	return result, nil
}

type change int

const (
	changeNone change = iota
	changeTouched
	changeModified
)

// refresh re-checks a registered file against the disk.
func (p *Project) refresh(existing registry.FileRecord) (change, error) {
	info, err := os.Stat(existing.Path)
	if err != nil {
		return changeNone, p.dropUnreadable(existing, apperr.IO("sync", existing.Path, err))
	}
	if info.Size() == existing.Size && info.ModTime().Equal(existing.ModifiedAt) {
		return changeNone, nil
	}

	m, err := p.measure(existing.Path)
	if err != nil {
		return changeNone, p.dropUnreadable(existing, err)
	}

	if m.FastHash == existing.FastHash && m.Size == existing.Size {
		touched := existing
		touched.ModifiedAt = m.ModifiedAt
		if err := p.registry.Replace(touched); err != nil {
			return changeNone, err
		}
		return changeTouched, nil
	}

	if err := p.drop(existing); err != nil {
		return changeNone, err
	}
	if err := p.add(p.buildRecord(existing.Path, m), m.Content); err != nil {
		return changeNone, err
	}
	p.logger.Info("sync: re-registered modified file", "path", existing.Path)
	return changeModified, nil
}

// dropUnreadable removes the record of a file that can no longer be measured
// and returns cause.
func (p *Project) dropUnreadable(existing registry.FileRecord, cause error) error {
	if err := p.drop(existing); err != nil {
		p.logger.Error("sync: removing unreadable file", "path", existing.Path, "error", err)
	}
	return cause
}
