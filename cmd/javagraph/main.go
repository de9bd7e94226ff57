// Package main implements the javagraph CLI - a Java/Spring/MyBatis code
// intelligence engine.
//
// This file is the entry point and command registration hub; each
// subcommand's implementation lives in its own cmd_*.go file.
//
// # File Index
//
//   - main.go              - entry point, rootCmd, global flags, init()
//   - cmd_analyze.go       - analyzeCmd: C1-C6 ingestion pipeline
//   - cmd_clean.go         - cleanCmd: global graph cleanup
//   - cmd_ai_enrich.go     - aiEnrichCmd: bounded-concurrency AI enrichment
//   - cmd_impact.go        - impactAnalysisCmd: reverse impact analysis + reports
//   - cmd_query.go         - queryCmd: named ad hoc graph queries
//   - cmd_verify_call_order.go - verifyCallOrderCmd: re-parse one file,
//     print its call_order sequence
//   - cmd_clean_cache.go   - cleanCacheCmd: remove the schema cache dir
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/javagraph/javagraph/internal/config"
	"github.com/javagraph/javagraph/internal/logging"
)

var (
	verbose   bool
	workspace string
	appCfg    *config.Config
	logger    *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "javagraph",
	Short: "javagraph - code intelligence engine for Java/Spring/MyBatis codebases",
	Long: `javagraph ingests Java sources, MyBatis XML mappers, and DDL scripts,
extracts structural facts into a labeled property graph, and serves
sequence-diagram synthesis, reverse impact analysis, and CRUD/DB-call
analytics on top of that graph.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		ws := workspace
		if ws == "" {
			ws, _ = os.Getwd()
		}
		cfg, err := config.Load(ws)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to load config, using defaults: %v\n", err)
			cfg = config.DefaultConfig()
		}
		appCfg = cfg

		if err := logging.Initialize(ws, cfg.Logging.DebugMode || verbose, cfg.Logging.Level, cfg.Logging.JSONFormat, cfg.Logging.Categories); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to initialize file logging: %v\n", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.CloseAll()
	},
}

func workspaceDir() string {
	if workspace != "" {
		if abs, err := filepath.Abs(workspace); err == nil {
			return abs
		}
		return workspace
	}
	ws, _ := os.Getwd()
	return ws
}

func graphPath() string {
	if appCfg == nil {
		return config.DefaultConfig().GraphPath
	}
	if filepath.IsAbs(appCfg.GraphPath) {
		return appCfg.GraphPath
	}
	return filepath.Join(workspaceDir(), appCfg.GraphPath)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Workspace directory (default: current)")

	rootCmd.AddCommand(
		analyzeCmd,
		cleanCmd,
		aiEnrichCmd,
		impactAnalysisCmd,
		queryCmd,
		verifyCallOrderCmd,
		cleanCacheCmd,
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
