// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store keeps versioned documents in a SQLite database. Documents
// live under named roots; a baseline snapshot of content hashes defines the
// change set each root reports to the pipeline.
package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/artifact-engine/pkg/types"
)

// ErrNotFound is returned by Repo.Get for filenames without a document.
var ErrNotFound = types.ErrNotFound

const defaultCacheSize = 256

// DB manages the artifact SQLite database.
type DB struct {
	db    *sql.DB
	cache *lru.Cache[string, types.Document]
}

// Open opens or creates the database at path and its schema. cacheSize
// bounds the number of documents kept in the read cache; zero or less
// selects a default.
func Open(path string, cacheSize int) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}
	cache, err := lru.New[string, types.Document](cacheSize)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating document cache: %w", err)
	}

	d := &DB{db: db, cache: cache}
	if err := d.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return d, nil
}

// Close releases the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			root TEXT NOT NULL,
			filename TEXT NOT NULL,
			content TEXT NOT NULL,
			hash TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (root, filename)
		)`,
		`CREATE TABLE IF NOT EXISTS dependencies (
			root TEXT NOT NULL,
			filename TEXT NOT NULL,
			depends_on TEXT NOT NULL,
			PRIMARY KEY (root, filename, depends_on),
			FOREIGN KEY (root, filename) REFERENCES documents(root, filename) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_dependencies_depends_on ON dependencies(depends_on)`,
		`CREATE TABLE IF NOT EXISTS baselines (
			root TEXT NOT NULL,
			filename TEXT NOT NULL,
			hash TEXT NOT NULL,
			PRIMARY KEY (root, filename)
		)`,
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL,
			no_changes INTEGER NOT NULL,
			generated INTEGER NOT NULL,
			merged INTEGER NOT NULL,
			failed INTEGER NOT NULL,
			skipped INTEGER NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := d.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Commit records the current content of every document as the baseline.
// Afterwards no root reports changes until a document is saved again.
func (d *DB) Commit(ctx context.Context) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM baselines`); err != nil {
		return fmt.Errorf("clearing baselines: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO baselines (root, filename, hash) SELECT root, filename, hash FROM documents`,
	); err != nil {
		return fmt.Errorf("recording baselines: %w", err)
	}
	return tx.Commit()
}

// RecordRun stores the summary counts of a pipeline run.
func (d *DB) RecordRun(ctx context.Context, report *types.RunReport) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, finished_at, no_changes, generated, merged, failed, skipped)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		report.RunID,
		report.StartedAt.UTC().Format(time.RFC3339Nano),
		report.FinishedAt.UTC().Format(time.RFC3339Nano),
		report.NoChanges,
		report.Count(types.ActionGenerated),
		report.Count(types.ActionMerged),
		report.Count(types.ActionFailed),
		report.Count(types.ActionSkipped),
	)
	if err != nil {
		return fmt.Errorf("recording run %s: %w", report.RunID, err)
	}
	return nil
}

// RunSummary is one row of the run history.
type RunSummary struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	NoChanges  bool
	Generated  int
	Merged     int
	Failed     int
	Skipped    int
}

// Runs returns the most recent runs, newest first.
func (d *DB) Runs(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, no_changes, generated, merged, failed, skipped
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var r RunSummary
		var started, finished string
		if err := rows.Scan(&r.ID, &started, &finished, &r.NoChanges,
			&r.Generated, &r.Merged, &r.Failed, &r.Skipped); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		r.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)
		out = append(out, r)
	}
	return out, rows.Err()
}

func contentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

func cacheKey(root, filename string) string {
	return root + "\x00" + filename
}
