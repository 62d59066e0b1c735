// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"path"

	"github.com/spf13/cobra"
)

var depsCmd = &cobra.Command{
	Use:   "deps <filename>",
	Short: "Show the upstream documents a derived document came from",
	Long: `Deps prints the root-relative paths a derived document was generated or
merged from, one per line. With --dependents the argument is read as an
upstream filename and the derived documents that depend on it are printed
instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runDeps,
}

func init() {
	depsCmd.Flags().String("root", "", "store root of the document (default: derived root, or upstream root with --dependents)")
	depsCmd.Flags().Bool("dependents", false, "list documents that depend on the given upstream file")
	rootCmd.AddCommand(depsCmd)
}

func runDeps(cmd *cobra.Command, args []string) error {
	root, _ := cmd.Flags().GetString("root")
	reverse, _ := cmd.Flags().GetBool("dependents")
	if root == "" {
		root = cfg.Pipeline.DerivedRoot
		if reverse {
			root = cfg.Pipeline.UpstreamRoot
		}
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	var paths []string
	if reverse {
		paths, err = db.Dependents(cmd.Context(), path.Join(root, args[0]))
	} else {
		paths, err = db.Repo(root).Dependencies(cmd.Context(), args[0])
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, p := range paths {
		fmt.Fprintln(out, p)
	}
	return nil
}
