// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/artifact-engine/internal/store"
)

var importCmd = &cobra.Command{
	Use:   "import <dir>",
	Short: "Copy a directory of documents into a store root",
	Long: `Import saves every regular file under dir into the artifact database,
keyed by its path relative to dir. Hidden files and directories are skipped.
Files go into the upstream root unless --root names another one. Imported
files whose content changed show up in the next run's change set.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().String("root", "", "store root to import into (default: the upstream root)")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	root, _ := cmd.Flags().GetString("root")
	if root == "" {
		root = cfg.Pipeline.UpstreamRoot
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	n, err := store.ImportDir(cmd.Context(), db.Repo(root), args[0])
	if err != nil {
		return fmt.Errorf("importing %s: %w", args[0], err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "imported %d file(s) from %s into %s\n", n, args[0], root)
	return nil
}
