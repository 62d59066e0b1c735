// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/artifact-engine/pkg/types"
)

// Saver is the write half of a document store.
type Saver interface {
	Save(ctx context.Context, filename, content string, deps []string) (*types.Document, error)
}

// ImportDir saves every regular file under dir into s, keyed by its
// slash-separated path relative to dir. Hidden files and directories are
// skipped. It returns the number of files imported.
func ImportDir(ctx context.Context, s Saver, dir string) (int, error) {
	n := 0
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p != dir && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("reading %s: %w", p, err)
		}
		if _, err := s.Save(ctx, filepath.ToSlash(rel), string(data), nil); err != nil {
			return err
		}
		n++
		return nil
	})
	if err != nil {
		return n, fmt.Errorf("importing %s: %w", dir, err)
	}
	return n, nil
}
