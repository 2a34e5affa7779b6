package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// flags holds command-line overrides. Only flags the user set replace the
// values loaded from the environment.
type flags struct {
	envFile         string
	root            string
	excludes        []string
	workers         int
	queueSize       int
	maxFileSize     int64
	scanConcurrency int
	noContentIndex  bool
	maxResults      int
	logLevel        string
	logFile         string
	metricsAddr     string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	f := &flags{}
	rootCmd := &cobra.Command{
		Use:   "coderegistry-mcp",
		Short: "In-memory project file registry with a batch processing worker pool",
		Long: `coderegistry-mcp registers the files of a project directory in memory
(identity, language, size, line count, checksum), answers queries over them and
runs per-file processors across a fixed pool of workers.

Settings come from CODEREGISTRY_* environment variables, an optional .env file
and the flags below, in increasing order of precedence.`,
		SilenceUsage: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&f.envFile, "env-file", ".env", "Optional dotenv file to load")
	pf.StringVar(&f.root, "root", "", "Project root directory (default: current working directory)")
	pf.StringArrayVar(&f.excludes, "exclude", nil, "Extra exclude glob (repeatable)")
	pf.IntVar(&f.workers, "workers", 4, "Worker pool size")
	pf.IntVar(&f.queueSize, "queue-size", 64, "Worker pool queue capacity")
	pf.Int64Var(&f.maxFileSize, "max-file-size", 100*1024*1024, "Maximum file size in bytes")
	pf.IntVar(&f.scanConcurrency, "scan-concurrency", 8, "Files read in parallel while scanning")
	pf.BoolVar(&f.noContentIndex, "no-content-index", false, "Do not build the full-text content index")
	pf.IntVar(&f.maxResults, "max-results", 50, "Default max search results")
	pf.StringVar(&f.logLevel, "log-level", "info", "Log level: debug|info|warn|error")
	pf.StringVar(&f.logFile, "log-file", "", "Log file path (default: stderr)")
	pf.StringVar(&f.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9102)")

	rootCmd.AddCommand(newServeCmd(f))
	rootCmd.AddCommand(newScanCmd(f))
	rootCmd.AddCommand(newProcessCmd(f))
	return rootCmd
}

// setupLogger creates an slog.Logger writing to stderr or a file.
func setupLogger(level string, logFile string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	var writer *os.File
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: cannot open log file %s: %v, falling back to stderr\n", logFile, err)
			writer = os.Stderr
		} else {
			writer = f
		}
	} else {
		writer = os.Stderr
	}

	handler := slog.NewTextHandler(writer, &slog.HandlerOptions{Level: logLevel})
	return slog.New(handler)
}
