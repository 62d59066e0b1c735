// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/artifact-engine/internal/aggregate"
	"github.com/pdiddy/artifact-engine/pkg/types"
)

type runner struct {
	cfg Config
	log *zap.Logger
	w   io.Writer

	mu sync.Mutex // guards w and the report in parallel runs
}

// fileResult is one file that reached the derived store.
type fileResult struct {
	doc    *types.Document
	action types.FileAction
	items  []string
}

// process loads, generates or merges, and saves one file.
func (r *runner) process(ctx context.Context, name string) (fileResult, error) {
	log := r.log.With(zap.String("filename", name))

	up, err := r.cfg.Upstream.Get(ctx, name)
	if errors.Is(err, types.ErrNotFound) {
		return fileResult{}, &FileError{Filename: name, Stage: StageLoad, Err: ErrMissingUpstream}
	}
	if err != nil {
		return fileResult{}, &FileError{Filename: name, Stage: StageLoad, Err: err}
	}

	var (
		res    types.GenResult
		action types.FileAction
		stage  string
	)
	derived, err := r.cfg.Derived.Get(ctx, name)
	switch {
	case errors.Is(err, types.ErrNotFound):
		action, stage = types.ActionGenerated, StageGenerate
		log.Debug("generating")
		res, err = r.cfg.Generate(ctx, up.Content)
	case err != nil:
		return fileResult{}, &FileError{Filename: name, Stage: StageLoad, Err: err}
	default:
		action, stage = types.ActionMerged, StageMerge
		log.Debug("merging")
		res, err = r.cfg.Merge(ctx, MergeContext(derived.Content, up.Content))
	}
	if err != nil {
		return fileResult{}, &FileError{Filename: name, Stage: stage, Err: err}
	}

	doc, err := r.cfg.Derived.Save(ctx, name, res.Content, []string{up.RootRelativePath()})
	if err != nil {
		return fileResult{}, &FileError{Filename: name, Stage: StageSave, Err: err}
	}
	log.Debug("saved", zap.String("path", doc.RootRelativePath()))

	out := fileResult{doc: doc, action: action}
	if r.cfg.Aggregate != nil {
		out.items = aggregate.ItemsFrom(res, r.cfg.Aggregate.Key)
	}
	return out, nil
}

// export writes the secondary copy and returns the failure text, if any.
func (r *runner) export(ctx context.Context, doc *types.Document) string {
	if r.cfg.Exporter == nil {
		return ""
	}
	if err := r.cfg.Exporter.Export(ctx, doc); err != nil {
		r.log.Warn("export failed", zap.String("filename", doc.Filename), zap.Error(err))
		r.printf("warning: export of %s failed: %v\n", doc.Filename, err)
		return err.Error()
	}
	return ""
}

func (r *runner) aggregate(ctx context.Context, items []string) error {
	if r.cfg.Aggregate == nil || len(items) == 0 {
		return nil
	}
	added, err := r.cfg.Aggregate.Update(ctx, items)
	if err != nil {
		return err
	}
	r.log.Debug("aggregated", zap.String("file", r.cfg.Aggregate.Filename), zap.Int("added", added))
	return nil
}

func (r *runner) printf(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.w, format, args...)
}

func (r *runner) line(o types.FileOutcome) {
	switch o.Action {
	case types.ActionFailed:
		r.printf("failed  %s: %s\n", o.Filename, o.Error)
	default:
		r.printf("%s %s\n", o.Action, o.Filename)
	}
}

// fatal reports whether err stops the batch.
func (r *runner) fatal(err error) bool {
	return !r.cfg.ContinueOnError && !errors.Is(err, ErrMissingUpstream)
}

func (r *runner) skipAll(report *types.RunReport, names []string) {
	for _, name := range names {
		o := types.FileOutcome{Filename: name, Action: types.ActionSkipped}
		report.Outcomes = append(report.Outcomes, o)
		r.line(o)
	}
}

func (r *runner) sequential(ctx context.Context, queue []string, report *types.RunReport) error {
	for i, name := range queue {
		if err := ctx.Err(); err != nil {
			r.log.Info("run cancelled", zap.Int("remaining", len(queue)-i))
			r.skipAll(report, queue[i:])
			return err
		}

		res, err := r.process(ctx, name)
		if err == nil {
			if aerr := r.aggregate(ctx, res.items); aerr != nil {
				err = &FileError{Filename: name, Stage: StageAggregate, Err: aerr}
			}
		}
		if err != nil {
			o := types.FileOutcome{Filename: name, Action: types.ActionFailed, Error: err.Error()}
			report.Outcomes = append(report.Outcomes, o)
			r.line(o)
			r.log.Error("file failed", zap.String("filename", name), zap.Error(err))
			if r.fatal(err) {
				r.skipAll(report, queue[i+1:])
				return err
			}
			continue
		}

		o := types.FileOutcome{Filename: name, Action: res.action}
		o.ExportError = r.export(ctx, res.doc)
		report.Outcomes = append(report.Outcomes, o)
		report.Documents[name] = res.doc
		r.line(o)
	}
	return nil
}

// parallel runs up to Concurrency files at once. Aggregation is applied
// once, after every file has finished, so the shared file is written by a
// single read-modify-write.
func (r *runner) parallel(ctx context.Context, queue []string, report *types.RunReport) error {
	outcomes := make([]types.FileOutcome, len(queue))
	items := make([][]string, len(queue))
	done := make([]bool, len(queue))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Concurrency)
	for i, name := range queue {
		outcomes[i] = types.FileOutcome{Filename: name, Action: types.ActionSkipped}
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			res, err := r.process(gctx, name)
			if err != nil {
				o := types.FileOutcome{Filename: name, Action: types.ActionFailed, Error: err.Error()}
				r.mu.Lock()
				outcomes[i], done[i] = o, true
				r.mu.Unlock()
				r.line(o)
				r.log.Error("file failed", zap.String("filename", name), zap.Error(err))
				if r.fatal(err) {
					return err
				}
				return nil
			}

			o := types.FileOutcome{Filename: name, Action: res.action}
			o.ExportError = r.export(gctx, res.doc)
			r.mu.Lock()
			outcomes[i], done[i], items[i] = o, true, res.items
			report.Documents[name] = res.doc
			r.mu.Unlock()
			r.line(o)
			return nil
		})
	}
	err := g.Wait()

	for i, o := range outcomes {
		if !done[i] {
			r.line(o)
		}
	}
	report.Outcomes = outcomes

	var all []string
	for _, it := range items {
		all = append(all, it...)
	}
	// Items come only from files that finished, so they are written even
	// when ctx was cancelled after the last file.
	if aerr := r.aggregate(context.WithoutCancel(ctx), all); aerr != nil {
		aerr = fmt.Errorf("aggregating into %s: %w", r.cfg.Aggregate.Filename, aerr)
		r.log.Error("aggregation failed", zap.Error(aerr))
		r.printf("failed  %s: %v\n", r.cfg.Aggregate.Filename, aerr)
		if err == nil && !r.cfg.ContinueOnError {
			err = aerr
		}
	}

	if err == nil && slices.Contains(done, false) {
		err = ctx.Err()
	}
	return err
}
