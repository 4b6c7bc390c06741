package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/permaudit/permaudit/internal/config"
	"github.com/permaudit/permaudit/internal/history"
	"github.com/permaudit/permaudit/internal/log"
	"github.com/permaudit/permaudit/internal/model"
	"github.com/permaudit/permaudit/internal/pipeline"
	"github.com/permaudit/permaudit/internal/reconcile"
	"github.com/permaudit/permaudit/internal/report"
	"github.com/permaudit/permaudit/internal/source"
)

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [root]",
		Short: "Scan a source tree and audit endpoint authorization",
		Long: `Scan walks a C# source tree, discovers minimal-API endpoint
declarations, and classifies the authorization state of each endpoint.

Endpoints that are authenticated but carry no permission receive a
convention-based permission name derived from their route and HTTP
method. Endpoints whose declared permission differs from the convention
are reported as mismatches and reconciled under the configured policy.

Results are saved to the history database by default, which backs the
'permaudit compare' command.

Examples:
  # Scan the current directory
  permaudit scan

  # Scan a specific tree with JSON output
  permaudit scan --json /work/shop-api

  # Write a Markdown report to a file
  permaudit scan --markdown -o report.md /work/shop-api

  # Accept every convention suggestion without prompting
  permaudit scan --policy auto /work/shop-api

  # Rescan automatically whenever source files change
  permaudit scan --watch /work/shop-api`,
		Args: cobra.MaximumNArgs(1),
		RunE: runScanCmd,
	}

	// Reconciliation flags
	cmd.Flags().StringP("policy", "p", config.DefaultPolicy,
		"Reconciliation policy for mismatched permissions (auto, interactive, skip)")

	// Scan behavior flags
	cmd.Flags().Int("concurrency", 0,
		"Maximum number of projects analyzed in parallel (0 = number of CPUs)")
	cmd.Flags().StringP("config", "c", "",
		"Path to configuration file (default: .permaudit in current or home directory)")
	cmd.Flags().BoolP("watch", "w", false,
		"Watch the tree and rescan on source changes")
	cmd.Flags().Duration("debounce", config.DefaultWatchDebounce,
		"Quiet period before a rescan in watch mode")
	cmd.Flags().Bool("save", true,
		"Save the scan result to the history database")

	// Output format flags
	cmd.Flags().BoolP("json", "j", false,
		"Output report in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output report in Markdown format")
	cmd.Flags().StringP("output", "o", "",
		"Write the report to a file instead of stdout")

	return cmd
}

// runScanCmd executes the scan command.
func runScanCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := setupLogger(cfg)
	slog.SetDefault(logger)

	// Cancel the scan on Ctrl+C or SIGTERM so watch mode and long
	// extractions stop cleanly.
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("interrupt received, stopping")
			cancel()
		case <-ctx.Done():
		}
	}()

	if cfg.Watch {
		return runWatch(ctx, cfg, logger)
	}

	_, err = runScan(ctx, cfg, logger)
	return err
}

// buildConfig creates a Config from command flags and arguments.
// Precedence is flags over configuration file over defaults.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	cfg.Root = "."
	if len(args) > 0 {
		cfg.Root = args[0]
	}

	cfg.Verbose = getVerboseFlag(cmd)

	policy, err := cmd.Flags().GetString("policy")
	if err != nil {
		return nil, err
	}
	cfg.Policy = policy

	concurrency, err := cmd.Flags().GetInt("concurrency")
	if err != nil {
		return nil, err
	}
	if concurrency > 0 {
		cfg.Concurrency = concurrency
	}

	jsonReport, err := cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}
	cfg.JSONReport = jsonReport

	markdownReport, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}
	cfg.MarkdownReport = markdownReport

	reportFile, err := cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}
	cfg.ReportFile = reportFile

	watch, err := cmd.Flags().GetBool("watch")
	if err != nil {
		return nil, err
	}
	cfg.Watch = watch

	debounce, err := cmd.Flags().GetDuration("debounce")
	if err != nil {
		return nil, err
	}
	cfg.WatchDebounce = debounce

	save, err := cmd.Flags().GetBool("save")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = save
	cfg.DBDir = config.XDGDataDir()

	// Load the configuration file. An explicitly specified file that
	// does not exist is an error; a missing default file is not.
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	found := config.FindConfigFile(configPath)
	if found == "" && configPath != "" {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}
	if found != "" {
		cfg.ConfigFilePath = found
		treeConfigs, err := config.LoadConfigFile(found)
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration file %s: %w", found, err)
		}
		cfg.TreeConfigs = treeConfigs
		applyTreeConfig(cmd, cfg)
	}

	// Interactive prompting cannot run unattended. When watch mode is
	// requested and the policy was left at its default, fall back to
	// keeping declared permissions; an explicit --policy interactive
	// with --watch is rejected by Validate.
	if cfg.Watch && cfg.Policy == "interactive" && !cmd.Flags().Changed("policy") {
		cfg.Policy = "skip"
	}

	return cfg, nil
}

// applyTreeConfig merges the tree-specific configuration for the scan
// root into cfg. Explicitly set flags win over the configuration file.
func applyTreeConfig(cmd *cobra.Command, cfg *config.Config) {
	tree := cfg.TreeConfigs.GetTreeConfig(cfg.Root)

	if tree.Policy != "" && !cmd.Flags().Changed("policy") {
		cfg.Policy = tree.Policy
	}
	if tree.Concurrency > 0 && !cmd.Flags().Changed("concurrency") {
		cfg.Concurrency = tree.Concurrency
	}
	if tree.Save != nil && !cmd.Flags().Changed("save") {
		cfg.SaveToDB = *tree.Save
	}
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	flags := cmd.Flags()
	if cmd.Parent() != nil {
		flags = cmd.Parent().PersistentFlags()
	}
	verbose, err := flags.GetBool("verbose")
	if err != nil {
		return false
	}
	return verbose
}

// setupLogger creates a sanitizing logger rooted at the scan directory.
// Logs go to stderr so stdout stays clean for report output.
func setupLogger(cfg *config.Config) *slog.Logger {
	return log.NewLogger(os.Stderr, cfg.Verbose, log.WithScanRoot(cfg.Root))
}

// runScan performs one full scan and reports the result.
func runScan(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*model.ScanResult, error) {
	start := time.Now()

	locatorOpts := []source.LocatorOption{}
	if cfg.TreeConfigs != nil {
		tree := cfg.TreeConfigs.GetTreeConfig(cfg.Root)
		if tree.ProjectFileExt != "" {
			locatorOpts = append(locatorOpts, source.WithProjectFileExt(tree.ProjectFileExt))
		}
		if tree.SourceFileExt != "" {
			locatorOpts = append(locatorOpts, source.WithSourceFileExt(tree.SourceFileExt))
		}
	}

	policy, err := reconcile.ParsePolicy(cfg.Policy)
	if err != nil {
		return nil, err
	}

	configOpts := []pipeline.DefaultPipelineOption{
		pipeline.WithPipelineLocator(source.NewLocator(locatorOpts...)),
		pipeline.WithPipelinePolicy(policy),
		pipeline.WithPipelineConcurrency(cfg.Concurrency),
	}
	if policy == reconcile.PolicyInteractive {
		configOpts = append(configOpts,
			pipeline.WithPipelineProvider(newPromptProvider(os.Stdin, os.Stderr)))
	}

	// Verbose runs log progress; otherwise a rewritten terminal line on
	// stderr shows it without polluting the report.
	var progress pipeline.ProgressFunc
	if cfg.Verbose {
		progress = func(step string, completed, total int) {
			logger.Debug("pipeline progress",
				"step", step,
				"completed", completed,
				"total", total,
			)
		}
	} else {
		printer := newProgressPrinter(os.Stderr)
		defer printer.Done()
		progress = printer.Update
	}

	p := pipeline.DefaultPipeline(
		[]pipeline.Option{
			pipeline.WithLogger(logger),
			pipeline.WithProgress(progress),
		},
		configOpts...,
	)

	scan := pipeline.NewScan(cfg.Root, "permaudit "+getVersion())
	if err := p.Execute(ctx, scan); err != nil {
		return nil, err
	}

	if err := outputReport(cfg, scan.Result); err != nil {
		return nil, fmt.Errorf("failed to output report: %w", err)
	}

	if cfg.SaveToDB {
		store, err := history.Open(cfg.DBDir, history.DefaultOptions())
		if err != nil {
			// A broken history database should not invalidate the scan.
			logger.Warn("failed to open history database", "error", err)
		} else {
			defer store.Close()
			if err := saveScanResult(ctx, store, cfg.Root, scan.Result, logger); err != nil {
				logger.Warn("failed to save scan result", "error", err)
			}
		}
	}

	logger.Info("scan complete",
		"root", cfg.Root,
		"endpoints", scan.Result.Summary.TotalEndpoints,
		"permissions", scan.Result.TotalPermissions(),
		"duration", time.Since(start).Round(time.Millisecond),
	)

	return scan.Result, nil
}

// outputReport writes the scan result in the configured format, to a
// file when one is specified and to stdout otherwise.
func outputReport(cfg *config.Config, result *model.ScanResult) error {
	var out io.Writer = os.Stdout

	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create report directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600) //nolint:gosec // User-provided report path is intentional
		if err != nil {
			return fmt.Errorf("failed to create report file: %w", err)
		}
		defer f.Close()
		out = f
	}

	var w report.Writer
	switch {
	case cfg.JSONReport:
		w = report.NewJSONWriter(out, report.WithPrettyPrint())
	case cfg.MarkdownReport:
		w = report.NewMarkdownWriter(out)
	default:
		w = report.NewSimpleWriter(out, report.WithVerbose(cfg.Verbose))
	}

	_, err := w.Write(result)
	return err
}

// saveScanResult persists the result to the history database.
// A nil store is a no-op so callers can pass through unconditionally.
func saveScanResult(ctx context.Context, store *history.Store, root string, result *model.ScanResult, logger *slog.Logger) error {
	if store == nil {
		return nil
	}

	if err := store.Save(ctx, root, result); err != nil {
		return err
	}

	logger.Debug("scan result saved", "root", root)
	return nil
}

// errWatcherClosed reports an unexpectedly closed watcher channel.
var errWatcherClosed = errors.New("file watcher closed unexpectedly")
