// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline regenerates derived documents from the upstream documents
// that changed since the last baseline. Each changed filename is generated
// from scratch when no derived document exists yet, and merged with the
// existing derived document otherwise.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdiddy/artifact-engine/internal/aggregate"
	"github.com/pdiddy/artifact-engine/internal/export"
	"github.com/pdiddy/artifact-engine/pkg/types"
)

// Store is a versioned document collection under one root.
type Store interface {
	ChangedFiles(ctx context.Context) ([]string, error)
	Get(ctx context.Context, filename string) (*types.Document, error)
	Save(ctx context.Context, filename, content string, deps []string) (*types.Document, error)
}

// Callback produces derived content from a prompt context.
type Callback func(ctx context.Context, input string) (types.GenResult, error)

// Recorder persists a finished run report.
type Recorder interface {
	RecordRun(ctx context.Context, report *types.RunReport) error
}

// Config is everything one run needs. Generate and Merge are required.
type Config struct {
	Upstream Store
	Derived  Store

	Generate Callback
	Merge    Callback

	// Aggregate, when set, collects list entries from every result.
	Aggregate *aggregate.Sink

	// Exporter, when set, receives a copy of every saved document.
	// Failures are logged and recorded but never fail the file.
	Exporter export.Exporter

	// ContinueOnError keeps the batch going after a callback, save, or
	// aggregation failure. A missing upstream document never stops it.
	ContinueOnError bool

	// Concurrency above 1 runs that many files at once.
	Concurrency int

	Logger   *zap.Logger
	Recorder Recorder
}

// ErrMissingUpstream reports a queued filename with no upstream document.
var ErrMissingUpstream = errors.New("upstream document missing")

// Stages named in FileError.
const (
	StageLoad      = "load"
	StageGenerate  = "generate"
	StageMerge     = "merge"
	StageSave      = "save"
	StageAggregate = "aggregate"
)

// FileError is a failure processing one filename.
type FileError struct {
	Filename string
	Stage    string
	Err      error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Filename, e.Stage, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

const (
	legacyHeading = "\n### Legacy Content\n"
	newHeading    = "\n\n### New Requirements\n"
)

// MergeContext frames the existing derived content and the new upstream
// content for a merge callback.
func MergeContext(legacy, next string) string {
	return legacyHeading + legacy + newHeading + next + "\n"
}

// SplitMergeContext recovers the two sections of a MergeContext string.
func SplitMergeContext(s string) (legacy, next string, ok bool) {
	if !strings.HasPrefix(s, legacyHeading) {
		return "", "", false
	}
	rest := s[len(legacyHeading):]
	i := strings.Index(rest, newHeading)
	if i < 0 {
		return "", "", false
	}
	return rest[:i], strings.TrimSuffix(rest[i+len(newHeading):], "\n"), true
}

// Queue returns the upstream change set followed by the derived change set,
// keeping the first occurrence of each filename.
func Queue(ctx context.Context, upstream, derived Store) ([]string, error) {
	up, err := upstream.ChangedFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing upstream changes: %w", err)
	}
	down, err := derived.ChangedFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing derived changes: %w", err)
	}

	seen := make(map[string]bool, len(up)+len(down))
	var queue []string
	for _, list := range [][]string{up, down} {
		for _, f := range list {
			if seen[f] {
				continue
			}
			seen[f] = true
			queue = append(queue, f)
		}
	}
	return queue, nil
}

// Run processes every queued filename and reports what happened to each.
// Progress lines are written to w. On an aborting failure the partial report
// is returned together with the error. Cancelling ctx stops the run between
// files; unprocessed files are reported as skipped.
func Run(ctx context.Context, cfg Config, w io.Writer) (*types.RunReport, error) {
	if cfg.Generate == nil || cfg.Merge == nil {
		return nil, errors.New("pipeline: generate and merge callbacks are required")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	report := &types.RunReport{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Documents: make(map[string]*types.Document),
	}
	log := cfg.Logger.With(zap.String("run_id", report.RunID))

	queue, err := Queue(ctx, cfg.Upstream, cfg.Derived)
	if err != nil {
		return nil, err
	}
	if cfg.Aggregate != nil && (sameRoot(cfg.Aggregate.Store, cfg.Derived) || sameRoot(cfg.Aggregate.Store, cfg.Upstream)) {
		// The aggregation file is an output of the run, not a document to derive.
		queue = slices.DeleteFunc(queue, func(f string) bool { return f == cfg.Aggregate.Filename })
	}

	if len(queue) == 0 {
		log.Info("nothing has changed")
		fmt.Fprintln(w, "nothing has changed")
		report.NoChanges = true
		finish(ctx, cfg, log, report, w)
		return report, nil
	}
	log.Debug("collected changes", zap.Int("files", len(queue)))

	r := &runner{cfg: cfg, log: log, w: w}
	if cfg.Concurrency > 1 {
		err = r.parallel(ctx, queue, report)
	} else {
		err = r.sequential(ctx, queue, report)
	}

	finish(ctx, cfg, log, report, w)
	return report, err
}

// sameRoot reports whether a and b both name the same store root.
func sameRoot(a, b any) bool {
	ra, okA := a.(interface{ Root() string })
	rb, okB := b.(interface{ Root() string })
	return okA && okB && ra.Root() != "" && ra.Root() == rb.Root()
}

func finish(ctx context.Context, cfg Config, log *zap.Logger, report *types.RunReport, w io.Writer) {
	report.FinishedAt = time.Now().UTC()
	if !report.NoChanges {
		fmt.Fprintf(w, "\ngenerated: %d, merged: %d, failed: %d, skipped: %d\n",
			report.Count(types.ActionGenerated), report.Count(types.ActionMerged),
			report.Count(types.ActionFailed), report.Count(types.ActionSkipped))
	}
	if cfg.Recorder == nil {
		return
	}
	// The run already happened; record it even if ctx was cancelled.
	if err := cfg.Recorder.RecordRun(context.WithoutCancel(ctx), report); err != nil {
		log.Warn("recording run failed", zap.Error(err))
	}
}
