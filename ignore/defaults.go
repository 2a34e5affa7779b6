package ignore

// DefaultIgnoredDirs are directory names never descended into. A path with any
// of these as a component is not registered.
var DefaultIgnoredDirs = map[string]struct{}{
	// Version control
	".git": {}, ".svn": {}, ".hg": {},

	// Dependencies
	"node_modules": {}, "vendor": {}, "bower_components": {}, ".venv": {}, "venv": {},

	// Build output
	"target": {}, "dist": {}, "build": {},

	// Editor state
	".idea": {}, ".vscode": {}, ".vs": {},

	// Caches
	"__pycache__": {}, ".cache": {}, ".next": {}, ".nuxt": {}, "coverage": {}, ".nyc_output": {},
}

// DefaultIgnoredFiles are base-name globs for files that carry no source: compiled
// artifacts, archives, media, lock files and editor droppings.
var DefaultIgnoredFiles = []string{
	"*.exe", "*.dll", "*.so", "*.dylib", "*.o", "*.a", "*.class", "*.jar", "*.pyc",
	"*.zip", "*.tar", "*.tar.gz", "*.tgz", "*.7z",
	"*.png", "*.jpg", "*.jpeg", "*.gif", "*.ico", "*.webp",
	"*.woff", "*.woff2", "*.ttf", "*.mp3", "*.mp4", "*.pdf",
	"*.min.js", "*.min.css", "*.map",
	"package-lock.json", "yarn.lock", "pnpm-lock.yaml", "Cargo.lock", "go.sum", "poetry.lock",
	"*.swp", "*~", ".DS_Store", "Thumbs.db",
	"*.log", "*.sqlite", "*.db",
}
