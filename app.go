package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/lexandro/coderegistry-mcp/config"
	"github.com/lexandro/coderegistry-mcp/coordinator"
	"github.com/lexandro/coderegistry-mcp/metrics"
	"github.com/lexandro/coderegistry-mcp/processor"
	"github.com/lexandro/coderegistry-mcp/project"
	"github.com/lexandro/coderegistry-mcp/workerpool"
)

// loadConfig reads the environment and applies the flags the user set.
func loadConfig(cmd *cobra.Command, f *flags) (*config.Config, error) {
	cfg, err := config.Load(f.envFile)
	if err != nil {
		return nil, err
	}

	changed := cmd.Flags().Changed
	if changed("root") {
		cfg.Root = f.root
	}
	if changed("workers") {
		cfg.Workers = f.workers
	}
	if changed("queue-size") {
		cfg.QueueSize = f.queueSize
	}
	if changed("max-file-size") {
		cfg.MaxFileSize = f.maxFileSize
	}
	if changed("scan-concurrency") {
		cfg.ScanConcurrency = f.scanConcurrency
	}
	if changed("no-content-index") {
		cfg.IndexContent = !f.noContentIndex
	}
	if changed("max-results") {
		cfg.MaxResults = f.maxResults
	}
	if changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if changed("log-file") {
		cfg.LogFile = f.logFile
	}
	if changed("metrics-addr") {
		cfg.MetricsAddr = f.metricsAddr
	}
	cfg.Clamp()

	if cfg.Root == "" {
		cfg.Root, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
	}
	cfg.Root, err = filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("resolving root: %w", err)
	}
	return cfg, nil
}

// app wires the long-lived components shared by every command.
type app struct {
	cfg          *config.Config
	logger       *slog.Logger
	gatherer     prometheus.Gatherer
	manager      *project.Manager
	pools        map[string]*workerpool.Pool
	coordinators map[string]*coordinator.Coordinator
}

func newApp(cfg *config.Config, excludes []string, logger *slog.Logger) (*app, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	defaults := project.DefaultConfig()
	defaults.Exclude = append(defaults.Exclude, excludes...)
	defaults.MaxFileSize = cfg.MaxFileSize
	defaults.IndexContent = cfg.IndexContent

	a := &app{
		cfg:      cfg,
		logger:   logger,
		gatherer: reg,
		manager: project.NewManager(project.Options{
			Defaults:        defaults,
			ScanConcurrency: cfg.ScanConcurrency,
			Logger:          logger,
			Metrics:         m,
		}),
		pools:        make(map[string]*workerpool.Pool),
		coordinators: make(map[string]*coordinator.Coordinator),
	}

	for _, name := range processor.Names() {
		proc, err := processor.ByName(name, logger)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("building processor %s: %w", name, err)
		}
		pool, err := workerpool.New(proc, workerpool.Options{
			Workers:   cfg.Workers,
			QueueSize: cfg.QueueSize,
			Logger:    logger,
			Metrics:   m,
		})
		if err != nil {
			a.close()
			return nil, fmt.Errorf("starting worker pool for %s: %w", name, err)
		}
		a.pools[name] = pool
		a.coordinators[name] = coordinator.New(pool, logger)
	}
	return a, nil
}

// openRootProject registers the configured root and scans it.
func (a *app) openRootProject(ctx context.Context) (*project.Project, project.ScanReport, error) {
	p, err := a.manager.Create(filepath.Base(a.cfg.Root), "", a.cfg.Root)
	if err != nil {
		return nil, project.ScanReport{}, err
	}
	report, err := p.Scan(ctx)
	if err != nil {
		return nil, report, fmt.Errorf("scanning %s: %w", a.cfg.Root, err)
	}
	return p, report, nil
}

// serveMetrics exposes the Prometheus registry until ctx ends. It does nothing
// when no address is configured.
func (a *app) serveMetrics(ctx context.Context) {
	if a.cfg.MetricsAddr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(a.gatherer))
	srv := &http.Server{Addr: a.cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		a.logger.Info("metrics server listening", "addr", a.cfg.MetricsAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server error", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()
}

func (a *app) close() {
	for name, pool := range a.pools {
		pool.Close()
		a.logger.Debug("worker pool closed", "processor", name, "restarts", pool.Restarts())
	}
	if err := a.manager.Close(); err != nil {
		a.logger.Warn("closing projects", "error", err)
	}
}
