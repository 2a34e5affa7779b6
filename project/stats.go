package project

import (
	"time"

	"github.com/lexandro/coderegistry-mcp/language"
)

// LanguageStats aggregates the files of one language.
type LanguageStats struct {
	Files int   `json:"files"`
	Lines int   `json:"lines"`
	Bytes int64 `json:"bytes"`
}

// Statistics aggregates a project's registry.
type Statistics struct {
	TotalFiles int                                 `json:"totalFiles"`
	TotalLines int                                 `json:"totalLines"`
	TotalBytes int64                               `json:"totalBytes"`
	Languages  map[language.Language]LanguageStats `json:"languages"`
	CreatedAt  time.Time                           `json:"createdAt"`
	UpdatedAt  time.Time                           `json:"updatedAt"`
}

// Statistics reduces a fresh snapshot of the registry. Nothing is cached.
func (p *Project) Statistics() Statistics {
	stats := Statistics{
		Languages: make(map[language.Language]LanguageStats),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt(),
	}
	for _, record := range p.registry.List() {
		stats.TotalFiles++
		stats.TotalLines += record.Lines
		stats.TotalBytes += record.Size

		ls := stats.Languages[record.Language]
		ls.Files++
		ls.Lines += record.Lines
		ls.Bytes += record.Size
		stats.Languages[record.Language] = ls
	}
	return stats
}
