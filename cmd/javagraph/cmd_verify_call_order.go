package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/javagraph/javagraph/internal/errs"
	extractjava "github.com/javagraph/javagraph/internal/extract/java"
)

// verifyCallOrderCmd re-parses a single Java file and prints its
// extracted MethodCall sequence for eyeballing, grounded on the original
// analyzer's call-order diagnostic: a standalone sanity check run during
// extractor development rather than as part of the main pipeline.
var verifyCallOrderCmd = &cobra.Command{
	Use:   "verify-call-order <file>",
	Short: "Re-parse one Java file and print its call_order sequence",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		content, err := os.ReadFile(path)
		if err != nil {
			return &errs.IOError{Op: "read", Path: path, Wrapped: err}
		}

		parser := extractjava.New()
		defer parser.Close()

		fr, err := parser.ParseFile(path, "verify", content)
		if err != nil {
			return &errs.ParseError{File: path, Message: err.Error()}
		}

		calls := extractjava.SortCalls(fr.Calls)
		if len(calls) == 0 {
			fmt.Println("no calls found")
			return nil
		}
		for _, c := range calls {
			fmt.Println(extractjava.DebugDescribe(c))
		}
		return nil
	},
}
