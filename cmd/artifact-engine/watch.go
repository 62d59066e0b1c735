// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/artifact-engine/internal/store"
	"github.com/pdiddy/artifact-engine/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Import and run whenever upstream files change on disk",
	Long: `Watch monitors dir (default: the upstream root) for file changes. After
each burst of changes settles it imports dir into the upstream root and runs
the pipeline, committing the baseline when no file failed. Runs never
overlap; changes made during a run trigger one more run after it ends.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().Duration("debounce", watch.DefaultDebounce, "quiet period before a run starts")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	dir := cfg.Pipeline.UpstreamRoot
	if len(args) == 1 {
		dir = args[0]
	}
	debounce, _ := cmd.Flags().GetDuration("debounce")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	w := watch.Watcher{Dir: dir, Debounce: debounce, Logger: logger}
	return w.Run(ctx, func(ctx context.Context) error {
		n, err := store.ImportDir(ctx, db.Repo(cfg.Pipeline.UpstreamRoot), dir)
		if err != nil {
			return fmt.Errorf("importing %s: %w", dir, err)
		}
		logger.Debug("imported", zap.Int("files", n))

		fmt.Fprintf(os.Stdout, "\n[%s] change detected\n", time.Now().Format(time.TimeOnly))
		_, err = runOnce(ctx, db, nil, false, true, os.Stdout)
		return err
	})
}
