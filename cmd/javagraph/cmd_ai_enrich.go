package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	aipkg "github.com/javagraph/javagraph/internal/ai"
	"github.com/javagraph/javagraph/internal/errs"
	"github.com/javagraph/javagraph/internal/graph"
)

var (
	aiEnrichProjectName string
	aiEnrichNodeType    string
	aiEnrichConcurrent  int
	aiEnrichLimit       int
)

var aiEnrichCmd = &cobra.Command{
	Use:   "ai-enrich",
	Short: "Enrich Class/Method/SqlStatement nodes with AI-generated descriptions",
	RunE: func(cmd *cobra.Command, args []string) error {
		if aiEnrichProjectName == "" {
			return &errs.ConfigError{Message: "--project-name is required"}
		}

		var nodeType aipkg.NodeType
		switch aiEnrichNodeType {
		case "", "all":
			nodeType = aipkg.NodeAll
		case "class":
			nodeType = aipkg.NodeClass
		case "method":
			nodeType = aipkg.NodeMethod
		case "sql":
			nodeType = aipkg.NodeSQL
		default:
			return &errs.ConfigError{Message: fmt.Sprintf("--node-type must be one of all, class, method, sql (got %q)", aiEnrichNodeType)}
		}

		concurrency := aiEnrichConcurrent
		if concurrency <= 0 {
			concurrency = appCfg.AI.ConcurrentRequests
		}

		client, err := aipkg.NewAnthropicClient(appCfg.AI.AnthropicAPIKey, "")
		if err != nil {
			return err
		}

		store, err := graph.Open(graphPath())
		if err != nil {
			return &errs.IOError{Op: "open graph", Path: graphPath(), Wrapped: err}
		}
		defer store.Close()

		result, err := aipkg.EnrichProject(context.Background(), store, client, aiEnrichProjectName, nodeType, concurrency, aiEnrichLimit)
		if err != nil {
			fmt.Printf("enrichment aborted: %v\n", err)
			fmt.Printf("partial results: classes %d/%d, methods %d/%d, sql %d/%d\n",
				result.Classes.Success, result.Classes.Processed,
				result.Methods.Success, result.Methods.Processed,
				result.SQLStatements.Success, result.SQLStatements.Processed)
			return err
		}

		fmt.Printf("ai-enrich complete for project %q (concurrency %d)\n", result.Project, result.ConcurrentRequests)
		fmt.Printf("  classes:       %d/%d succeeded\n", result.Classes.Success, result.Classes.Processed)
		fmt.Printf("  methods:       %d/%d succeeded\n", result.Methods.Success, result.Methods.Processed)
		fmt.Printf("  sql statements: %d/%d succeeded\n", result.SQLStatements.Success, result.SQLStatements.Processed)
		return nil
	},
}

func init() {
	aiEnrichCmd.Flags().StringVar(&aiEnrichProjectName, "project-name", "", "Project to enrich (required)")
	aiEnrichCmd.Flags().StringVar(&aiEnrichNodeType, "node-type", "all", "Node type to enrich: all, class, method, sql")
	aiEnrichCmd.Flags().IntVar(&aiEnrichConcurrent, "concurrent", 0, "Concurrent AI requests (default: config concurrent_requests)")
	aiEnrichCmd.Flags().IntVar(&aiEnrichLimit, "limit", 0, "Limit the number of candidate nodes per type (0 = no limit)")
}
