// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export writes a non-authoritative copy of each derived document to
// a secondary sink. The pipeline treats export failures as warnings.
package export

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/pdiddy/artifact-engine/pkg/types"
)

// Exporter writes a copy of a document somewhere outside the store.
type Exporter interface {
	Export(ctx context.Context, doc *types.Document) error
}

// DefaultSuffix is the extension exported copies carry.
const DefaultSuffix = ".md"

// Name returns filename with its extension replaced by suffix.
func Name(filename, suffix string) string {
	if suffix == "" {
		suffix = DefaultSuffix
	}
	return strings.TrimSuffix(filename, path.Ext(filename)) + suffix
}

// FS writes exported copies under Root on the local filesystem.
type FS struct {
	Root   string
	Suffix string
}

// Export writes doc.Content to Root/Name(doc.Filename, Suffix).
func (e FS) Export(_ context.Context, doc *types.Document) error {
	p := filepath.Join(e.Root, filepath.FromSlash(Name(doc.Filename, e.Suffix)))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("creating export directory: %w", err)
	}
	if err := os.WriteFile(p, []byte(doc.Content), 0o644); err != nil {
		return fmt.Errorf("writing export %s: %w", p, err)
	}
	return nil
}

// New builds the exporter cfg selects. It returns nil for ExportNone.
func New(cfg types.ExportConfig) (Exporter, error) {
	switch cfg.Kind {
	case types.ExportNone:
		return nil, nil
	case types.ExportFS, "":
		return FS{Root: cfg.Root, Suffix: cfg.Suffix}, nil
	case types.ExportS3:
		s3, err := NewS3(cfg.S3, cfg.Root, cfg.Suffix)
		if err != nil {
			return nil, err
		}
		return s3, nil
	}
	return nil, fmt.Errorf("unknown export kind %q", cfg.Kind)
}
