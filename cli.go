package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lexandro/coderegistry-mcp/processor"
	"github.com/lexandro/coderegistry-mcp/tools"
)

func newScanCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Scan the root directory and print registry statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			logger := setupLogger(cfg.LogLevel, cfg.LogFile)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(cfg, f.excludes, logger)
			if err != nil {
				return err
			}
			defer a.close()

			p, report, err := a.openRootProject(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprint(out, tools.FormatScanReport(report))
			fmt.Fprintln(out)
			fmt.Fprint(out, tools.FormatStatistics(p.Name, p.Statistics()))
			return nil
		},
	}
}

func newProcessCmd(f *flags) *cobra.Command {
	var processorName, pattern string
	cmd := &cobra.Command{
		Use:   "process",
		Short: "Scan the root directory and run a processor over the registered files",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			logger := setupLogger(cfg.LogLevel, cfg.LogFile)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(cfg, f.excludes, logger)
			if err != nil {
				return err
			}
			defer a.close()

			c, ok := a.coordinators[processorName]
			if !ok {
				return fmt.Errorf("unknown processor %q (available: %v)", processorName, processor.Names())
			}

			p, report, err := a.openRootProject(ctx)
			if err != nil {
				return err
			}
			if len(report.Skipped) > 0 {
				fmt.Fprint(cmd.ErrOrStderr(), tools.FormatScanReport(report))
			}

			records := p.Registry().List()
			if pattern != "" {
				var globErr error
				records, globErr = p.Registry().SearchByGlob(pattern, 0)
				if globErr != nil {
					return globErr
				}
			}

			result, err := c.Await(ctx, records)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), tools.FormatReport(result, p.Root))
			if result.Summary.Failed > 0 {
				return fmt.Errorf("%d of %d files failed", result.Summary.Failed, result.Summary.Attempted)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&processorName, "processor", "checksum", fmt.Sprintf("Processor to run %v", processor.Names()))
	cmd.Flags().StringVar(&pattern, "pattern", "", "Glob selecting the files to process (default: all)")
	return cmd
}
