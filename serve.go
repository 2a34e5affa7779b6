package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/lexandro/coderegistry-mcp/server"
	"github.com/lexandro/coderegistry-mcp/tools"
)

func newServeCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Register the root directory and serve the registry tools over MCP stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}

			// Default log file: coderegistry-mcp.log in the root directory.
			// Never log to stdout, it carries the MCP stdio transport.
			if cfg.LogFile == "" {
				cfg.LogFile = filepath.Join(cfg.Root, "coderegistry-mcp.log")
			}
			logger := setupLogger(cfg.LogLevel, cfg.LogFile)
			logger.Info("starting coderegistry-mcp",
				"root", cfg.Root,
				"workers", cfg.Workers,
				"maxFileSize", cfg.MaxFileSize,
				"indexContent", cfg.IndexContent,
			)
			startTime := time.Now()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(cfg, f.excludes, logger)
			if err != nil {
				return err
			}
			defer a.close()
			a.serveMetrics(ctx)

			p, report, err := a.openRootProject(ctx)
			if err != nil {
				return err
			}
			logger.Info("initial scan complete",
				"project", p.ID,
				"files", report.Indexed,
				"skipped", len(report.Skipped),
				"totalSize", report.Bytes,
				"duration", report.Duration,
			)

			projects := &tools.Projects{Manager: a.manager}
			mcpServer := server.Setup(server.Handlers{
				Create:  &tools.CreateProjectHandler{Manager: a.manager, Logger: logger},
				Scan:    &tools.ScanHandler{Projects: projects, Logger: logger},
				Files:   &tools.FilesHandler{Projects: projects, MaxResults: cfg.MaxResults, Logger: logger},
				GetFile: &tools.GetFileHandler{Projects: projects, Logger: logger},
				Search:  &tools.SearchHandler{Projects: projects, MaxResults: cfg.MaxResults, Logger: logger},
				Status:  &tools.StatusHandler{Projects: projects, Pools: a.pools, StartTime: startTime, Logger: logger},
				Process: &tools.ProcessHandler{Projects: projects, Coordinators: a.coordinators, Logger: logger},
			})

			logger.Info("MCP server starting on stdio")
			if err := mcpServer.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
				logger.Error("MCP server error", "error", err)
				return err
			}
			return nil
		},
	}
}
