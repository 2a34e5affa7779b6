// Package config loads process settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	env "github.com/netflix/go-env"
)

// Config holds the process-wide settings. Command-line flags override them.
type Config struct {
	Root            string `env:"CODEREGISTRY_ROOT"`
	Workers         int    `env:"CODEREGISTRY_WORKERS,default=4"`
	QueueSize       int    `env:"CODEREGISTRY_QUEUE_SIZE,default=64"`
	MaxFileSize     int64  `env:"CODEREGISTRY_MAX_FILE_SIZE,default=104857600"`
	ScanConcurrency int    `env:"CODEREGISTRY_SCAN_CONCURRENCY,default=8"`
	IndexContent    bool   `env:"CODEREGISTRY_INDEX_CONTENT,default=true"`
	MaxResults      int    `env:"CODEREGISTRY_MAX_RESULTS,default=50"`
	LogLevel        string `env:"CODEREGISTRY_LOG_LEVEL,default=info"`
	LogFile         string `env:"CODEREGISTRY_LOG_FILE"`
	MetricsAddr     string `env:"CODEREGISTRY_METRICS_ADDR"`
}

// Limits applied by Load.
const (
	MaxWorkers         = 256
	MaxScanConcurrency = 64
	MaxQueueSize       = 65536
	MinFileSize        = 1024
)

// Load reads dotenvFile when it exists, then the environment. Variables already
// set in the environment win over the file.
func Load(dotenvFile string) (*Config, error) {
	if dotenvFile != "" {
		if err := godotenv.Load(dotenvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", dotenvFile, err)
		}
	}

	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}
	cfg.Clamp()
	return &cfg, nil
}

// Clamp adjusts values to safe ranges.
func (c *Config) Clamp() {
	c.Workers = clamp(c.Workers, 1, MaxWorkers)
	c.ScanConcurrency = clamp(c.ScanConcurrency, 1, MaxScanConcurrency)
	if c.QueueSize < c.Workers {
		c.QueueSize = c.Workers
	}
	if c.QueueSize > MaxQueueSize {
		c.QueueSize = MaxQueueSize
	}
	if c.MaxFileSize < MinFileSize {
		c.MaxFileSize = MinFileSize
	}
	if c.MaxResults < 1 {
		c.MaxResults = 50
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
