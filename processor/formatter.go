// Package processor holds the per-file processors run by the worker pool.
package processor

import (
	"context"
	"log/slog"
	"time"

	"github.com/lexandro/coderegistry-mcp/language"
	"github.com/lexandro/coderegistry-mcp/registry"
)

// DefaultFormatCosts is the simulated formatting time per supported language.
var DefaultFormatCosts = map[language.Language]time.Duration{
	language.Rust:       100 * time.Millisecond,
	language.Python:     80 * time.Millisecond,
	language.JavaScript: 60 * time.Millisecond,
}

// Formatter simulates an external formatter (rustfmt, black, prettier) by
// spending a fixed amount of time per supported language.
// Files in other languages are skipped and count as processed.
type Formatter struct {
	Costs  map[language.Language]time.Duration
	Logger *slog.Logger
}

// NewFormatter returns a Formatter using DefaultFormatCosts.
func NewFormatter(logger *slog.Logger) *Formatter {
	costs := make(map[language.Language]time.Duration, len(DefaultFormatCosts))
	for lang, cost := range DefaultFormatCosts {
		costs[lang] = cost
	}
	return &Formatter{Costs: costs, Logger: logger}
}

// Name implements workerpool.Processor.
func (f *Formatter) Name() string { return "formatter" }

// Process implements workerpool.Processor.
func (f *Formatter) Process(ctx context.Context, record registry.FileRecord) error {
	cost, supported := f.Costs[record.Language]
	if !supported {
		f.Logger.Debug("skipping unsupported language", "file", record.Name, "language", record.Language)
		return nil
	}

	f.Logger.Debug("formatting file", "file", record.Name, "language", record.Language)
	timer := time.NewTimer(cost)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
