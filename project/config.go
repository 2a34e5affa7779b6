package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/lexandro/coderegistry-mcp/apperr"
	"github.com/lexandro/coderegistry-mcp/ignore"
)

// ConfigFile is the optional per-project settings file in the project root.
const ConfigFile = ".coderegistry.toml"

// Config holds per-project ingestion settings.
type Config struct {
	Exclude      []string `toml:"exclude"`       // doublestar globs relative to the root
	Extensions   []string `toml:"extensions"`    // allow list; empty allows every extension
	MaxFileSize  int64    `toml:"max_file_size"` // bytes
	IndexContent bool     `toml:"index_content"`
}

// DefaultConfig returns the settings used when a project has no config file.
func DefaultConfig() Config {
	return Config{
		Exclude:      []string{"*.tmp", "*.bak"},
		MaxFileSize:  ignore.DefaultMaxFileSizeBytes,
		IndexContent: true,
	}
}

// LoadConfig reads ConfigFile from root on top of base. A missing file yields base.
func LoadConfig(root string, base Config) (Config, error) {
	path := filepath.Join(root, ConfigFile)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return base, nil
	}
	if err != nil {
		return base, apperr.IO("load project config", path, err)
	}

	cfg := base
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return base, apperr.Parse("load project config", path, err)
	}
	if cfg.MaxFileSize <= 0 {
		return base, apperr.Validation("load project config", path,
			fmt.Errorf("max_file_size must be positive, got %d", cfg.MaxFileSize))
	}
	return cfg, nil
}

// matcher builds the ignore matcher for a project rooted at root.
func (c Config) matcher(root string) *ignore.Matcher {
	return ignore.NewMatcher(ignore.MatcherOptions{
		RootDir:          root,
		CustomPatterns:   c.Exclude,
		Extensions:       c.Extensions,
		MaxFileSizeBytes: c.MaxFileSize,
	})
}
