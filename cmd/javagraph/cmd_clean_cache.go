package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/javagraph/javagraph/internal/errs"
)

var cleanCacheDir string

const schemaCacheDirName = ".javagraph/cache"

// cleanCacheCmd recursively removes the extractor's per-run schema cache
// directory, grounded on the original analyzer's cache-cleanup utility
// (which walked a source tree deleting __pycache__ directories and
// counting each deletion). There is no per-file bytecode cache here, so
// this instead clears javagraph's own schema/run cache directory.
var cleanCacheCmd = &cobra.Command{
	Use:   "clean-cache",
	Short: "Remove the extractor's per-run schema cache directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		root := cleanCacheDir
		if root == "" {
			root = filepath.Join(workspaceDir(), schemaCacheDirName)
		}

		removed := 0
		err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				if os.IsNotExist(err) {
					return filepath.SkipDir
				}
				return err
			}
			if info.IsDir() && path != root {
				if rmErr := os.RemoveAll(path); rmErr != nil {
					return rmErr
				}
				fmt.Println("removed", path)
				removed++
				return filepath.SkipDir
			}
			return nil
		})
		if err != nil && !os.IsNotExist(err) {
			return &errs.IOError{Op: "walk", Path: root, Wrapped: err}
		}

		if _, statErr := os.Stat(root); statErr == nil {
			if rmErr := os.RemoveAll(root); rmErr != nil {
				return &errs.IOError{Op: "remove", Path: root, Wrapped: rmErr}
			}
		}

		fmt.Printf("clean-cache complete: removed %d cache entries under %s\n", removed, root)
		return nil
	},
}

func init() {
	cleanCacheCmd.Flags().StringVar(&cleanCacheDir, "cache-dir", "", "Cache directory to clean (default: <workspace>/.javagraph/cache)")
}
