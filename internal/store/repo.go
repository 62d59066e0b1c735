// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/pdiddy/artifact-engine/pkg/types"
)

// Repo is the view of a DB restricted to one root. It satisfies the
// pipeline's document store contract.
type Repo struct {
	db   *DB
	root string
}

// Repo returns the documents stored under root.
func (d *DB) Repo(root string) *Repo {
	return &Repo{db: d, root: root}
}

// Root returns the root this repo reads and writes.
func (r *Repo) Root() string { return r.root }

// ChangedFiles lists, in filename order, the documents whose content differs
// from the last committed baseline, including documents with no baseline.
func (r *Repo) ChangedFiles(ctx context.Context) ([]string, error) {
	rows, err := r.db.db.QueryContext(ctx,
		`SELECT d.filename FROM documents d
		 LEFT JOIN baselines b ON b.root = d.root AND b.filename = d.filename
		 WHERE d.root = ? AND (b.hash IS NULL OR b.hash != d.hash)
		 ORDER BY d.filename`, r.root)
	if err != nil {
		return nil, fmt.Errorf("querying changes under %s: %w", r.root, err)
	}
	defer rows.Close()

	var files []string
	for rows.Next() {
		var f string
		if err := rows.Scan(&f); err != nil {
			return nil, fmt.Errorf("scanning filename: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// Get returns the document for filename, or ErrNotFound.
func (r *Repo) Get(ctx context.Context, filename string) (*types.Document, error) {
	key := cacheKey(r.root, filename)
	if doc, ok := r.db.cache.Get(key); ok {
		doc.Dependencies = slices.Clone(doc.Dependencies)
		return &doc, nil
	}

	var content string
	err := r.db.db.QueryRowContext(ctx,
		`SELECT content FROM documents WHERE root = ? AND filename = ?`,
		r.root, filename,
	).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s/%s: %w", r.root, filename, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s/%s: %w", r.root, filename, err)
	}

	deps, err := r.Dependencies(ctx, filename)
	if err != nil {
		return nil, err
	}

	doc := types.Document{Root: r.root, Filename: filename, Content: content, Dependencies: deps}
	r.db.cache.Add(key, doc)
	doc.Dependencies = slices.Clone(deps)
	return &doc, nil
}

// Save replaces the content of filename and its dependency edges.
func (r *Repo) Save(ctx context.Context, filename, content string, deps []string) (*types.Document, error) {
	deps = normalizeDeps(deps)

	tx, err := r.db.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO documents (root, filename, content, hash, updated_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(root, filename) DO UPDATE SET
			content=excluded.content, hash=excluded.hash, updated_at=excluded.updated_at`,
		r.root, filename, content, contentHash(content), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("saving %s/%s: %w", r.root, filename, err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM dependencies WHERE root = ? AND filename = ?`, r.root, filename,
	); err != nil {
		return nil, fmt.Errorf("clearing dependencies of %s/%s: %w", r.root, filename, err)
	}
	for _, dep := range deps {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO dependencies (root, filename, depends_on) VALUES (?, ?, ?)`,
			r.root, filename, dep,
		); err != nil {
			return nil, fmt.Errorf("recording dependency %s: %w", dep, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing %s/%s: %w", r.root, filename, err)
	}

	doc := types.Document{Root: r.root, Filename: filename, Content: content, Dependencies: deps}
	r.db.cache.Add(cacheKey(r.root, filename), doc)
	doc.Dependencies = slices.Clone(deps)
	return &doc, nil
}

// Dependencies returns the root-relative paths filename was derived from.
func (r *Repo) Dependencies(ctx context.Context, filename string) ([]string, error) {
	rows, err := r.db.db.QueryContext(ctx,
		`SELECT depends_on FROM dependencies WHERE root = ? AND filename = ? ORDER BY depends_on`,
		r.root, filename)
	if err != nil {
		return nil, fmt.Errorf("querying dependencies of %s/%s: %w", r.root, filename, err)
	}
	defer rows.Close()

	var deps []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scanning dependency: %w", err)
		}
		deps = append(deps, d)
	}
	return deps, rows.Err()
}

// Dependents returns the documents, in any root, that record path as a
// dependency, formatted as root-relative paths.
func (d *DB) Dependents(ctx context.Context, path string) ([]string, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT root, filename FROM dependencies WHERE depends_on = ? ORDER BY root, filename`, path)
	if err != nil {
		return nil, fmt.Errorf("querying dependents of %s: %w", path, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var doc types.Document
		if err := rows.Scan(&doc.Root, &doc.Filename); err != nil {
			return nil, fmt.Errorf("scanning dependent: %w", err)
		}
		out = append(out, doc.RootRelativePath())
	}
	return out, rows.Err()
}

func normalizeDeps(deps []string) []string {
	if len(deps) == 0 {
		return nil
	}
	out := slices.Clone(deps)
	sort.Strings(out)
	return slices.Compact(out)
}
