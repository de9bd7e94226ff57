package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/javagraph/javagraph/internal/errs"
	"github.com/javagraph/javagraph/internal/graph"
	"github.com/javagraph/javagraph/internal/impact"
	"github.com/javagraph/javagraph/internal/logging"
	"github.com/javagraph/javagraph/internal/report"
)

var (
	impactTableName       string
	impactClassName       string
	impactMethodName      string
	impactProjectName     string
	impactMaxDepth        int
	impactIncludeJSON     bool
	impactGenerateDiagram bool
	impactOutputDir       string
)

var impactAnalysisCmd = &cobra.Command{
	Use:   "impact-analysis",
	Short: "Reverse impact analysis from a table or a method, rendered to Markdown/XLSX/JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		if (impactTableName == "") == (impactClassName == "") {
			return &errs.ConfigError{Message: "impact-analysis requires exactly one of --table-name or --class-name"}
		}

		outputDir := impactOutputDir
		if outputDir == "" {
			outputDir = appCfg.ImpactAnalysisOutputDir
		}
		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return &errs.IOError{Op: "mkdir", Path: outputDir, Wrapped: err}
		}

		store, err := graph.Open(graphPath())
		if err != nil {
			return &errs.IOError{Op: "open graph", Path: graphPath(), Wrapped: err}
		}
		defer store.Close()

		var result impact.Result
		if impactTableName != "" {
			result, err = impact.AnalyzeTableImpact(store, impactTableName, impactProjectName, impactMaxDepth)
		} else {
			result, err = impact.AnalyzeMethodImpact(store, impactClassName, impactMethodName, impactProjectName, impactMaxDepth)
		}
		if err != nil {
			return err
		}

		runID := uuid.NewString()
		ts := time.Now()
		result.Timestamp = report.Timestamp(ts)
		base := report.ImpactReportBaseName(result, ts)

		mdPath := filepath.Join(outputDir, base+".md")
		if err := report.WriteImpactMarkdown(result, mdPath); err != nil {
			return err
		}
		fmt.Println("wrote", mdPath)

		xlsxPath := filepath.Join(outputDir, base+".xlsx")
		if err := report.WriteImpactXLSX(result, xlsxPath); err != nil {
			return err
		}
		fmt.Println("wrote", xlsxPath)

		if impactIncludeJSON {
			jsonPath := filepath.Join(outputDir, base+".json")
			if err := report.WriteImpactJSON(result, jsonPath); err != nil {
				return err
			}
			fmt.Println("wrote", jsonPath)
		}

		if impactGenerateDiagram {
			diagramPath := filepath.Join(outputDir, base+".diagram.md")
			if err := report.WriteImpactDiagram(result, diagramPath); err != nil {
				return err
			}
			fmt.Println("wrote", diagramPath)
		}

		logging.Get(logging.CategoryImpact).Info("impact analysis run %s for %s complete: %d classes, %d methods impacted",
			runID, result.TargetName, result.Summary.TotalImpactedClasses, result.Summary.TotalImpactedMethods)
		return nil
	},
}

func init() {
	impactAnalysisCmd.Flags().StringVar(&impactTableName, "table-name", "", "Analyze reverse impact of a table")
	impactAnalysisCmd.Flags().StringVar(&impactClassName, "class-name", "", "Analyze reverse impact of a class/method")
	impactAnalysisCmd.Flags().StringVar(&impactMethodName, "method-name", "", "Method to analyze within --class-name (default: every public method)")
	impactAnalysisCmd.Flags().StringVar(&impactProjectName, "project-name", "", "Limit analysis to one project (default: all)")
	impactAnalysisCmd.Flags().IntVar(&impactMaxDepth, "max-depth", 10, "Maximum caller traversal depth")
	impactAnalysisCmd.Flags().BoolVar(&impactIncludeJSON, "include-json", false, "Also write a JSON report")
	impactAnalysisCmd.Flags().BoolVar(&impactGenerateDiagram, "generate-diagram", false, "Also write a .diagram.md Mermaid bundle")
	impactAnalysisCmd.Flags().StringVar(&impactOutputDir, "output-dir", "", "Report output directory (default: config impact_analysis_output_dir)")
}
