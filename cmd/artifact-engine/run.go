// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/artifact-engine/internal/aggregate"
	"github.com/pdiddy/artifact-engine/internal/export"
	"github.com/pdiddy/artifact-engine/internal/generate"
	"github.com/pdiddy/artifact-engine/internal/pipeline"
	"github.com/pdiddy/artifact-engine/internal/store"
	"github.com/pdiddy/artifact-engine/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Generate or merge derived documents for every changed file",
	Long: `Run collects the files that changed since the last commit in the upstream
and derived roots, generates a derived document for each new file and merges
upstream changes into existing ones. Entries under the aggregation key are
added to the aggregation file, and saved documents are exported.

When the run completes without failures the current state becomes the new
baseline, so the next run only sees later changes. Use --upstream-diff to
take the upstream change set from a unified diff (for example the output of
"git diff") instead of the stored baseline.`,
	RunE: runRun,
}

func init() {
	f := runCmd.Flags()
	f.String("upstream-root", "", "store root of upstream documents (default docs/system_design)")
	f.String("derived-root", "", "store root of derived documents (default docs/tasks)")
	f.Int("concurrency", 0, "number of files processed in parallel (default 1)")
	f.Bool("continue-on-error", false, "keep processing after a file fails")
	f.String("upstream-diff", "", `unified diff file giving the upstream change set ("-" for stdin)`)
	f.Bool("no-commit", false, "do not advance the baseline after the run")
	f.String("report", "", `write the run report as YAML to this file ("-" for stdout)`)

	_ = viper.BindPFlag("pipeline.upstream_root", f.Lookup("upstream-root"))
	_ = viper.BindPFlag("pipeline.derived_root", f.Lookup("derived-root"))
	_ = viper.BindPFlag("pipeline.concurrency", f.Lookup("concurrency"))
	_ = viper.BindPFlag("pipeline.continue_on_error", f.Lookup("continue-on-error"))

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	diffPath, _ := cmd.Flags().GetString("upstream-diff")
	noCommit, _ := cmd.Flags().GetBool("no-commit")
	reportPath, _ := cmd.Flags().GetString("report")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	var changes []string
	if diffPath != "" {
		changes, err = readDiff(diffPath, cfg.Pipeline.UpstreamRoot)
		if err != nil {
			return err
		}
	}

	report, runErr := runOnce(ctx, db, changes, diffPath != "", !noCommit, os.Stdout)
	if report != nil && reportPath != "" {
		if err := writeReport(reportPath, report); err != nil {
			logger.Warn("writing report failed", zap.String("path", reportPath), zap.Error(err))
		}
	}
	if runErr != nil {
		return runErr
	}
	if report.HasFailures() {
		return fmt.Errorf("%d file(s) failed", report.Count(types.ActionFailed))
	}
	return nil
}

// runOnce builds the pipeline from cfg and runs it against db. When
// override is set, changes replaces the upstream change set. The baseline
// is committed only when commit is set and no file failed.
func runOnce(ctx context.Context, db *store.DB, changes []string, override, commit bool, w io.Writer) (*types.RunReport, error) {
	pcfg, err := pipelineConfig(ctx, db)
	if err != nil {
		return nil, err
	}
	if override {
		pcfg.Upstream = store.WithChanges(db.Repo(cfg.Pipeline.UpstreamRoot), changes)
	}

	report, err := pipeline.Run(ctx, pcfg, w)
	if err != nil {
		return report, err
	}
	if !commit || report.HasFailures() {
		return report, nil
	}
	if err := db.Commit(ctx); err != nil {
		return report, fmt.Errorf("committing baseline: %w", err)
	}
	return report, nil
}

// newBackend builds the model backend; tests replace it.
var newBackend = generate.NewBackend

// pipelineConfig wires the stores, callbacks, and side effects named in cfg.
func pipelineConfig(ctx context.Context, db *store.DB) (pipeline.Config, error) {
	backend, err := newBackend(ctx, cfg.AI, logger)
	if err != nil {
		return pipeline.Config{}, err
	}

	retries := cfg.AI.MaxRetries
	if retries == 0 {
		retries = -1
	}
	filler := &generate.Filler{
		Backend:    backend,
		Node:       generate.TasksNode,
		MaxRetries: retries,
		Schema:     cfg.AI.PromptSchema,
		Logger:     logger,
	}

	exporter, err := export.New(cfg.Export)
	if err != nil {
		return pipeline.Config{}, err
	}

	var sink *aggregate.Sink
	if cfg.Pipeline.AggregateFile != "" {
		sink = &aggregate.Sink{
			Store:    db.Repo(cfg.Pipeline.AggregateRoot),
			Filename: cfg.Pipeline.AggregateFile,
			Key:      cfg.Pipeline.AggregateKey,
		}
	}

	return pipeline.Config{
		Upstream:        db.Repo(cfg.Pipeline.UpstreamRoot),
		Derived:         db.Repo(cfg.Pipeline.DerivedRoot),
		Generate:        filler.Generate,
		Merge:           filler.Merge,
		Aggregate:       sink,
		Exporter:        exporter,
		ContinueOnError: cfg.Pipeline.ContinueOnError,
		Concurrency:     cfg.Pipeline.Concurrency,
		Logger:          logger,
		Recorder:        db,
	}, nil
}

func readDiff(path, root string) ([]string, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening diff: %w", err)
		}
		defer f.Close()
		r = f
	}
	files, err := store.ChangesFromDiff(r, root)
	if err != nil {
		return nil, fmt.Errorf("reading diff %s: %w", path, err)
	}
	return files, nil
}

func writeReport(path string, report *types.RunReport) error {
	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	if path == "-" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
