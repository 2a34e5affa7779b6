package project

import (
	"context"
	"io/fs"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lexandro/coderegistry-mcp/apperr"
	"github.com/lexandro/coderegistry-mcp/registry"
)

// FileError is one file that could not be ingested.
type FileError struct {
	Path string // relative to the project root
	Kind apperr.Kind
	Err  error
}

// ScanReport summarizes a directory scan.
type ScanReport struct {
	Indexed    int   // files newly registered
	Registered int   // files skipped because they were already registered
	Bytes      int64 // size of the newly registered files
	Skipped    []FileError
	Duration   time.Duration
}

// Attempted is the number of eligible files the scan looked at.
func (r ScanReport) Attempted() int { return r.Indexed + r.Registered + len(r.Skipped) }

// Scan walks the project root and ingests every eligible file that is not yet
// registered. Files that fail are reported in Skipped and do not stop the scan.
// Only an unreadable root or ctx ending aborts it.
func (p *Project) Scan(ctx context.Context) (ScanReport, error) {
	start := time.Now()
	var (
		mu     sync.Mutex
		report ScanReport
	)
	skip := func(path string, err error) {
		fe := p.fileError(path, err)
		p.logger.Info("skipped file", "path", fe.Path, "kind", fe.Kind, "error", err)
		mu.Lock()
		report.Skipped = append(report.Skipped, fe)
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	walkErr := p.walk(gctx, func(path string) {
		if _, err := p.registry.GetByPath(path); err == nil {
			mu.Lock()
			report.Registered++
			mu.Unlock()
			return
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			record, err := p.Ingest(path)
			if err != nil {
				skip(path, err)
				return nil
			}
			mu.Lock()
			report.Indexed++
			report.Bytes += record.Size
			mu.Unlock()
			return nil
		})
	}, skip)

	groupErr := g.Wait()
	sortFileErrors(report.Skipped)
	report.Duration = time.Since(start)

	if walkErr != nil {
		return report, walkErr
	}
	if groupErr != nil {
		return report, groupErr
	}
	p.logger.Info("scan complete",
		"indexed", report.Indexed,
		"registered", report.Registered,
		"skipped", len(report.Skipped),
		"bytes", report.Bytes,
		"duration", report.Duration,
	)
	return report, nil
}

// walk calls visit for every file under the root that passes the ignore
// matcher and extension filter. Unreadable entries below the root go to onErr.
func (p *Project) walk(ctx context.Context, visit func(path string), onErr func(path string, err error)) error {
	p.matcher.Reload()
	return filepath.WalkDir(p.Root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if path == p.Root {
				return apperr.IO("scan", p.Root, err)
			}
			onErr(path, apperr.IO("scan", path, err))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != p.Root && p.matcher.ShouldIgnoreDir(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if p.matcher.ShouldIgnore(path) || !p.matcher.AllowsExtension(path) {
			return nil
		}
		visit(path)
		return nil
	})
}

func (p *Project) fileError(path string, err error) FileError {
	rel, ok := registry.FileRecord{Path: path}.RelativeTo(p.Root)
	if !ok {
		rel = path
	}
	return FileError{Path: rel, Kind: apperr.KindOf(err), Err: err}
}

func sortFileErrors(errs []FileError) {
	sort.Slice(errs, func(i, j int) bool { return errs[i].Path < errs[j].Path })
}

func outcomeLabel(err error) string {
	if kind := apperr.KindOf(err); kind != "" {
		return string(kind)
	}
	return "other"
}
