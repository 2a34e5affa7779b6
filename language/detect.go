package language

import (
	"path/filepath"
	"strings"
)

// Language is a detected programming language. The set of values is closed:
// anything the classifier does not recognize is Unknown.
type Language string

const (
	Go         Language = "Go"
	Rust       Language = "Rust"
	Python     Language = "Python"
	JavaScript Language = "JavaScript"
	TypeScript Language = "TypeScript"
	Java       Language = "Java"
	Kotlin     Language = "Kotlin"
	C          Language = "C"
	Cpp        Language = "C++"
	CSharp     Language = "C#"
	Swift      Language = "Swift"
	Ruby       Language = "Ruby"
	PHP        Language = "PHP"
	Shell      Language = "Shell"
	HTML       Language = "HTML"
	CSS        Language = "CSS"
	JSON       Language = "JSON"
	YAML       Language = "YAML"
	TOML       Language = "TOML"
	XML        Language = "XML"
	Markdown   Language = "Markdown"
	SQL        Language = "SQL"
	Lua        Language = "Lua"
	Scala      Language = "Scala"
	Haskell    Language = "Haskell"
	Zig        Language = "Zig"
	Makefile   Language = "Makefile"
	Dockerfile Language = "Dockerfile"
	Text       Language = "Text"
	Unknown    Language = "Unknown"
)

// String returns the display name of the language.
func (l Language) String() string { return string(l) }

// Known reports whether l is anything other than Unknown.
func (l Language) Known() bool { return l != Unknown && l != "" }

// ExtensionToLanguage maps file extensions (without dot) to languages.
var ExtensionToLanguage = map[string]Language{
	"go": Go,
	"rs": Rust,
	"py": Python, "pyi": Python, "pyw": Python, "pyx": Python,
	"js": JavaScript, "jsx": JavaScript, "mjs": JavaScript, "cjs": JavaScript,
	"ts": TypeScript, "tsx": TypeScript, "mts": TypeScript, "cts": TypeScript,
	"java": Java,
	"kt": Kotlin, "kts": Kotlin,
	"c": C, "h": C,
	"cpp": Cpp, "cc": Cpp, "cxx": Cpp, "c++": Cpp, "hpp": Cpp, "hxx": Cpp,
	"cs": CSharp, "csx": CSharp,
	"swift": Swift,
	"rb": Ruby, "erb": Ruby,
	"php": PHP,
	"sh": Shell, "bash": Shell, "zsh": Shell, "fish": Shell,
	"html": HTML, "htm": HTML,
	"css": CSS, "scss": CSS, "sass": CSS, "less": CSS,
	"json": JSON, "jsonc": JSON,
	"yaml": YAML, "yml": YAML,
	"toml": TOML,
	"xml": XML, "xsl": XML, "xslt": XML,
	"md": Markdown, "mdx": Markdown,
	"sql": SQL,
	"lua": Lua,
	"scala": Scala,
	"hs": Haskell,
	"zig": Zig,
	"txt": Text,
}

// fileNameToLanguage covers well-known files that carry no extension.
var fileNameToLanguage = map[string]Language{
	"makefile":    Makefile,
	"gnumakefile": Makefile,
	"dockerfile":  Dockerfile,
	"gemfile":     Ruby,
	"rakefile":    Ruby,
}

// Classifier maps a file to a language tag. Implementations must be pure:
// the same inputs always yield the same language and nothing is mutated.
type Classifier interface {
	Classify(path string, head []byte) Language
}

// ExtensionClassifier detects languages from the file extension, falling back
// to well-known file names. Binary content is always Unknown.
type ExtensionClassifier struct{}

// Classify implements Classifier.
func (ExtensionClassifier) Classify(path string, head []byte) Language {
	if len(head) > 0 && IsBinaryContent(head) {
		return Unknown
	}
	return DetectLanguage(path)
}

// DetectLanguage returns the programming language for a file path based on its extension.
// Returns Unknown if the extension is not recognized.
func DetectLanguage(filePath string) Language {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filePath), "."))
	if ext == "" {
		base := strings.ToLower(filepath.Base(filePath))
		if lang, ok := fileNameToLanguage[base]; ok {
			return lang
		}
		return Unknown
	}

	if lang, ok := ExtensionToLanguage[ext]; ok {
		return lang
	}
	return Unknown
}

// Parse resolves a display name (case-insensitive) back to a Language.
func Parse(name string) Language {
	for _, lang := range ExtensionToLanguage {
		if strings.EqualFold(string(lang), name) {
			return lang
		}
	}
	for _, lang := range fileNameToLanguage {
		if strings.EqualFold(string(lang), name) {
			return lang
		}
	}
	return Unknown
}
