package processor

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"github.com/lexandro/coderegistry-mcp/apperr"
	"github.com/lexandro/coderegistry-mcp/language"
	"github.com/lexandro/coderegistry-mcp/registry"
)

// Keywords lists the words the Highlighter marks, per language.
var Keywords = map[language.Language][]string{
	language.Rust: {
		"fn", "let", "mut", "const", "static", "struct", "enum", "impl", "trait",
		"mod", "pub", "use", "crate", "super", "self", "if", "else", "match",
		"for", "while", "loop", "break", "continue", "return", "async", "await",
		"unsafe", "extern", "type", "where", "dyn", "move", "ref", "in",
	},
	language.Python: {
		"def", "class", "if", "else", "elif", "for", "while", "try", "except",
		"finally", "import", "from", "as", "with", "lambda", "yield", "return",
		"pass", "break", "continue", "async", "await", "global", "nonlocal",
	},
	language.JavaScript: {
		"var", "let", "const", "function", "class", "if", "else", "for", "while",
		"do", "switch", "case", "default", "try", "catch", "finally", "return",
		"break", "continue", "throw", "new", "this", "super", "extends", "import",
		"export", "async", "await", "typeof", "instanceof",
	},
	language.Go: {
		"break", "case", "chan", "const", "continue", "default", "defer", "else",
		"fallthrough", "for", "func", "go", "goto", "if", "import", "interface",
		"map", "package", "range", "return", "select", "struct", "switch", "type", "var",
	},
}

// Highlighter wraps language keywords in <keyword> tags.
type Highlighter struct {
	patterns map[language.Language]*regexp.Regexp
	logger   *slog.Logger
}

// NewHighlighter compiles one keyword pattern per language in keywords.
func NewHighlighter(keywords map[language.Language][]string, logger *slog.Logger) (*Highlighter, error) {
	patterns := make(map[language.Language]*regexp.Regexp, len(keywords))
	for lang, words := range keywords {
		if len(words) == 0 {
			continue
		}
		escaped := make([]string, len(words))
		for i, w := range words {
			escaped[i] = regexp.QuoteMeta(w)
		}
		pattern, err := regexp.Compile(`\b(` + strings.Join(escaped, "|") + `)\b`)
		if err != nil {
			return nil, apperr.Parse("compile keyword pattern", lang.String(), err)
		}
		patterns[lang] = pattern
	}
	return &Highlighter{patterns: patterns, logger: logger}, nil
}

// Highlight returns code with every keyword of lang wrapped in tags, and the
// number of keywords found. Code in a language without keywords is returned as is.
func (h *Highlighter) Highlight(code string, lang language.Language) (string, int) {
	pattern, ok := h.patterns[lang]
	if !ok {
		return code, 0
	}
	hits := len(pattern.FindAllStringIndex(code, -1))
	return pattern.ReplaceAllString(code, "<keyword>$1</keyword>"), hits
}

// Supports reports whether lang has a keyword pattern.
func (h *Highlighter) Supports(lang language.Language) bool {
	_, ok := h.patterns[lang]
	return ok
}

// Name implements workerpool.Processor.
func (h *Highlighter) Name() string { return "highlighter" }

// Process implements workerpool.Processor. It reads the file and highlights it.
func (h *Highlighter) Process(ctx context.Context, record registry.FileRecord) error {
	if !h.Supports(record.Language) {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	content, err := os.ReadFile(record.Path)
	if err != nil {
		return apperr.IO("highlight", record.Path, err)
	}
	if language.IsBinaryContent(content) {
		return apperr.Parse("highlight", record.Path, fmt.Errorf("binary content"))
	}
	_, hits := h.Highlight(string(content), record.Language)
	h.logger.Debug("highlighted file", "file", record.Name, "language", record.Language, "keywords", hits)
	return nil
}
