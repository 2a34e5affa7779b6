package tools

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/lexandro/coderegistry-mcp/coordinator"
	"github.com/lexandro/coderegistry-mcp/index"
	"github.com/lexandro/coderegistry-mcp/language"
	"github.com/lexandro/coderegistry-mcp/project"
	"github.com/lexandro/coderegistry-mcp/registry"
)

// FormatSearchResults formats content search results as human-readable text.
// Groups matches by file with line numbers and optional context.
func FormatSearchResults(results []index.ContentSearchResult, totalMatches int) string {
	if len(results) == 0 {
		return "No matches found."
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Found %d matches in %d files:\n\n", totalMatches, len(results)))

	for i, result := range results {
		if i > 0 {
			builder.WriteString("\n")
		}
		builder.WriteString(fmt.Sprintf("── %s ──\n", result.RelativePath))

		for _, match := range result.Matches {
			for _, ctxLine := range match.ContextBefore {
				builder.WriteString(fmt.Sprintf("  %s\n", ctxLine))
			}
			builder.WriteString(fmt.Sprintf("  %d: %s\n", match.LineNumber, match.LineText))
			for _, ctxLine := range match.ContextAfter {
				builder.WriteString(fmt.Sprintf("  %s\n", ctxLine))
			}
		}
	}

	return builder.String()
}

// FormatFileResults formats registry records as human-readable text, with
// paths relative to root.
func FormatFileResults(results []registry.FileRecord, root string, nameOnly bool) string {
	if len(results) == 0 {
		return "No files matched."
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Found %d files:\n\n", len(results)))

	for _, record := range results {
		relPath := displayPath(record, root)
		if nameOnly {
			builder.WriteString(relPath)
			builder.WriteString("\n")
			continue
		}
		builder.WriteString(fmt.Sprintf("  %s  (%s, %s, %d lines)  %s\n",
			relPath,
			record.Language,
			formatFileSize(record.Size),
			record.Lines,
			record.ID,
		))
	}

	return builder.String()
}

// FormatRecord formats every field of one record.
func FormatRecord(record registry.FileRecord, root string) string {
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("── %s ──\n", displayPath(record, root)))
	builder.WriteString(fmt.Sprintf("  id:        %s\n", record.ID))
	builder.WriteString(fmt.Sprintf("  path:      %s\n", record.Path))
	builder.WriteString(fmt.Sprintf("  language:  %s\n", record.Language))
	builder.WriteString(fmt.Sprintf("  encoding:  %s\n", record.Encoding))
	builder.WriteString(fmt.Sprintf("  size:      %s\n", formatFileSize(record.Size)))
	builder.WriteString(fmt.Sprintf("  lines:     %d\n", record.Lines))
	builder.WriteString(fmt.Sprintf("  checksum:  %s\n", record.Checksum))
	builder.WriteString(fmt.Sprintf("  modified:  %s\n", record.ModifiedAt.Format("2006-01-02 15:04:05")))
	return builder.String()
}

// FormatFileContent formats a file's content with line numbers, similar to the built-in Read tool.
func FormatFileContent(filePath string, content string) string {
	lines := strings.Split(content, "\n")
	lineCount := len(lines)

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("── %s (%d lines) ──\n", filePath, lineCount))

	width := len(fmt.Sprintf("%d", lineCount))
	for i, line := range lines {
		builder.WriteString(fmt.Sprintf("%*d│ %s\n", width, i+1, line))
	}

	return builder.String()
}

// FormatProject formats a project's identity.
func FormatProject(p *project.Project) string {
	text := fmt.Sprintf("project %s (%s)\nroot: %s\n", p.Name, p.ID, p.Root)
	if p.Description != "" {
		text += "description: " + p.Description + "\n"
	}
	return text
}

// FormatScanReport formats a scan's counts and the files it skipped.
func FormatScanReport(report project.ScanReport) string {
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("scanned: %d new files (%s), %d already registered, %d skipped in %s\n",
		report.Indexed, formatFileSize(report.Bytes), report.Registered, len(report.Skipped),
		report.Duration.Round(time.Millisecond)))
	writeSkipped(&builder, report.Skipped)
	return builder.String()
}

// FormatSyncResult formats a reconcile run.
func FormatSyncResult(result project.SyncResult) string {
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("reconciled: %d missing, %d stale, %d modified, %d touched, %d skipped in %s\n",
		result.MissingFiles, result.StaleFiles, result.ModifiedFiles, result.TouchedFiles,
		len(result.Skipped), result.Duration.Round(time.Millisecond)))
	writeSkipped(&builder, result.Skipped)
	return builder.String()
}

func writeSkipped(builder *strings.Builder, skipped []project.FileError) {
	for _, fe := range skipped {
		builder.WriteString(fmt.Sprintf("  skipped %s [%s]: %v\n", fe.Path, fe.Kind, fe.Err))
	}
}

// FormatStatistics formats aggregate statistics, languages by file count.
func FormatStatistics(name string, stats project.Statistics) string {
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("=== %s ===\n", name))
	builder.WriteString(fmt.Sprintf("Files: %d\n", stats.TotalFiles))
	builder.WriteString(fmt.Sprintf("Lines: %d\n", stats.TotalLines))
	builder.WriteString(fmt.Sprintf("Size: %s\n", formatFileSize(stats.TotalBytes)))
	builder.WriteString(fmt.Sprintf("Updated: %s\n", stats.UpdatedAt.Format("2006-01-02 15:04:05")))

	if len(stats.Languages) == 0 {
		return builder.String()
	}
	langs := make([]language.Language, 0, len(stats.Languages))
	for lang := range stats.Languages {
		langs = append(langs, lang)
	}
	sort.Slice(langs, func(i, j int) bool {
		a, b := stats.Languages[langs[i]], stats.Languages[langs[j]]
		if a.Files != b.Files {
			return a.Files > b.Files
		}
		return langs[i] < langs[j]
	})

	builder.WriteString("\nLanguages:\n")
	for _, lang := range langs {
		ls := stats.Languages[lang]
		builder.WriteString(fmt.Sprintf("  %-12s %d files, %d lines, %s\n", lang, ls.Files, ls.Lines, formatFileSize(ls.Bytes)))
	}
	return builder.String()
}

// FormatReport formats a processed batch: the summary, then every failed item.
func FormatReport(report coordinator.Report, root string) string {
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("%s: %d attempted, %d succeeded, %d failed in %s\n",
		report.Processor, report.Summary.Attempted, report.Summary.Succeeded, report.Summary.Failed,
		report.Duration.Round(time.Millisecond)))
	for _, o := range report.Outcomes {
		if o.OK() {
			continue
		}
		builder.WriteString(fmt.Sprintf("  #%d %s: %v\n", o.Position, displayPath(o.Record, root), o.Err))
	}
	return builder.String()
}

func displayPath(record registry.FileRecord, root string) string {
	if rel, ok := record.RelativeTo(root); ok {
		return rel
	}
	return record.Path
}

// formatFileSize converts bytes to a human-readable string.
func formatFileSize(bytes int64) string {
	switch {
	case bytes >= 1024*1024:
		return fmt.Sprintf("%.1f MB", float64(bytes)/(1024*1024))
	case bytes >= 1024:
		return fmt.Sprintf("%.1f KB", float64(bytes)/1024)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
