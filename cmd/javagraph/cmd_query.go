package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/javagraph/javagraph/internal/errs"
	"github.com/javagraph/javagraph/internal/graph"
)

var queryProjectName string

// queryCmd is a thin ad hoc query runner in the style of the original
// analyzer's query_runner: a small set of named, parameterized graph
// queries, printed as JSON, standing in for a live Cypher shell since
// there is no separate graph server process to talk to.
var queryCmd = &cobra.Command{
	Use:   "query <name> [args...]",
	Short: "Run a named ad hoc graph query and print the result as JSON",
	Long: `Available queries:
  classes-by-name <name>              classes matching a simple name
  sql-by-table <table>                SQL statements referencing a table
  callers-of <class> <method>         direct callers of a method
  methods-of <class>                  every method of a class
  public-methods-of <class>           public methods of a class`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := graph.Open(graphPath())
		if err != nil {
			return &errs.IOError{Op: "open graph", Path: graphPath(), Wrapped: err}
		}
		defer store.Close()

		name := args[0]
		rest := args[1:]

		var result interface{}
		switch name {
		case "classes-by-name":
			if len(rest) != 1 {
				return &errs.ConfigError{Message: "classes-by-name requires exactly one argument: <name>"}
			}
			result, err = store.ClassesByName(rest[0])
		case "sql-by-table":
			if len(rest) != 1 {
				return &errs.ConfigError{Message: "sql-by-table requires exactly one argument: <table>"}
			}
			result, err = store.SQLStatementsReferencingTable(rest[0], queryProjectName)
		case "callers-of":
			if len(rest) != 2 {
				return &errs.ConfigError{Message: "callers-of requires two arguments: <class> <method>"}
			}
			result, err = store.CallersOf(rest[0], rest[1], queryProjectName)
		case "methods-of":
			if len(rest) != 1 {
				return &errs.ConfigError{Message: "methods-of requires exactly one argument: <class>"}
			}
			result, err = store.MethodsOf(rest[0], queryProjectName)
		case "public-methods-of":
			if len(rest) != 1 {
				return &errs.ConfigError{Message: "public-methods-of requires exactly one argument: <class>"}
			}
			result, err = store.PublicMethodsOf(rest[0], queryProjectName)
		default:
			return &errs.ConfigError{Message: fmt.Sprintf("unknown query %q", name)}
		}
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	queryCmd.Flags().StringVar(&queryProjectName, "project-name", "", "Scope the query to one project (default: all)")
}
