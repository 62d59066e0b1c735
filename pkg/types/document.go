// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"path"
	"time"
)

// ErrNotFound is returned by document stores when a filename has no
// document under the store's root.
var ErrNotFound = errors.New("document not found")

// Document is a stored artifact. Its identity is (Root, Filename); content is
// only ever replaced as a whole.
type Document struct {
	// Root is the repository-relative directory that owns the document
	// (e.g. "docs/system_design").
	Root string `json:"root" yaml:"root"`

	// Filename is the document name within Root.
	Filename string `json:"filename" yaml:"filename"`

	// Content is the full text blob.
	Content string `json:"content" yaml:"content"`

	// Dependencies lists the root-relative paths of the documents this one
	// was derived from.
	Dependencies []string `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
}

// RootRelativePath returns Root/Filename, the identifier recorded in
// dependency edges.
func (d *Document) RootRelativePath() string {
	return path.Join(d.Root, d.Filename)
}

// GenResult is what a generation or merge callback returns.
type GenResult struct {
	// Content is the text persisted as the derived document.
	Content string `json:"content" yaml:"content"`

	// Structured is the typed field map parsed from the model output, if any.
	Structured map[string]any `json:"structured,omitempty" yaml:"structured,omitempty"`
}

// FileAction records what a pipeline run did with one filename.
type FileAction string

const (
	ActionGenerated FileAction = "generated"
	ActionMerged    FileAction = "merged"
	ActionFailed    FileAction = "failed"
	ActionSkipped   FileAction = "skipped"
)

// FileOutcome is the per-file line of a RunReport.
type FileOutcome struct {
	Filename string     `json:"filename" yaml:"filename"`
	Action   FileAction `json:"action" yaml:"action"`

	// Error carries the failure that stopped this file, with the stage
	// and filename in the message.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`

	// ExportError records a secondary export failure. It never changes Action.
	ExportError string `json:"export_error,omitempty" yaml:"export_error,omitempty"`
}

// RunReport summarizes one incremental pipeline run.
type RunReport struct {
	RunID      string    `json:"run_id" yaml:"run_id"`
	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at" yaml:"finished_at"`

	// NoChanges is set when neither store reported a changed file.
	NoChanges bool `json:"no_changes" yaml:"no_changes"`

	// Outcomes is in processing-queue order.
	Outcomes []FileOutcome `json:"outcomes" yaml:"outcomes"`

	// Documents maps filename to the final derived document for every file
	// that completed.
	Documents map[string]*Document `json:"-" yaml:"-"`
}

// Count returns how many outcomes have the given action.
func (r *RunReport) Count(action FileAction) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Action == action {
			n++
		}
	}
	return n
}

// HasFailures reports whether any file failed.
func (r *RunReport) HasFailures() bool {
	return r.Count(ActionFailed) > 0
}
