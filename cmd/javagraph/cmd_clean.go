package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/javagraph/javagraph/internal/errs"
	"github.com/javagraph/javagraph/internal/graph"
)

var (
	cleanJavaObject bool
	cleanDBObject   bool
	cleanAllObjects bool
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Wipe graph nodes: all, Java-layer only, or DB-layer only",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cleanAllObjects && !cleanJavaObject && !cleanDBObject {
			return &errs.ConfigError{Message: "clean requires one of --all-objects, --java-object, --db-object"}
		}

		store, err := graph.Open(graphPath())
		if err != nil {
			return &errs.IOError{Op: "open graph", Path: graphPath(), Wrapped: err}
		}
		defer store.Close()

		javaObjects := cleanAllObjects || cleanJavaObject
		dbObjects := cleanAllObjects || cleanDBObject
		if err := store.Clean(javaObjects, dbObjects); err != nil {
			return err
		}

		counts, err := store.Counts()
		if err != nil {
			return err
		}
		labels := make([]string, 0, len(counts))
		for label := range counts {
			labels = append(labels, label)
		}
		sort.Strings(labels)

		table := newSummaryTable("clean complete. remaining node counts", "Label", "Count")
		for _, label := range labels {
			table.addRow(label, strconv.FormatInt(counts[label], 10))
		}
		fmt.Print(table.render())
		return nil
	},
}

func init() {
	cleanCmd.Flags().BoolVar(&cleanJavaObject, "java-object", false, "Wipe Java-layer labels (classes, methods, beans, endpoints, mappers, sql)")
	cleanCmd.Flags().BoolVar(&cleanDBObject, "db-object", false, "Wipe DB-layer labels (databases, tables, columns, indexes, constraints)")
	cleanCmd.Flags().BoolVar(&cleanAllObjects, "all-objects", false, "Wipe every node")
}
