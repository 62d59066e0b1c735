// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/sourcegraph/go-diff/diff"

	"github.com/pdiddy/artifact-engine/pkg/types"
)

// Documents is the contract a change source overrides.
type Documents interface {
	ChangedFiles(ctx context.Context) ([]string, error)
	Get(ctx context.Context, filename string) (*types.Document, error)
	Save(ctx context.Context, filename, content string, deps []string) (*types.Document, error)
}

// Override reports a fixed change set and delegates reads and writes.
type Override struct {
	Documents
	Files []string
}

// ChangedFiles returns the fixed change set.
func (o Override) ChangedFiles(context.Context) ([]string, error) {
	return o.Files, nil
}

// Root returns the root of the wrapped store, or "" when it has none.
func (o Override) Root() string {
	if r, ok := o.Documents.(interface{ Root() string }); ok {
		return r.Root()
	}
	return ""
}

// WithChanges wraps s so that it reports files as its change set.
func WithChanges(s Documents, files []string) Override {
	return Override{Documents: s, Files: files}
}

// ChangesFromDiff returns the files touched by a unified diff that lie under
// root, relative to root and sorted. Deleted files are reported under their
// original name.
func ChangesFromDiff(r io.Reader, root string) ([]string, error) {
	fds, err := diff.NewMultiFileDiffReader(r).ReadAllFiles()
	if err != nil {
		return nil, fmt.Errorf("parsing diff: %w", err)
	}

	prefix := strings.Trim(path.Clean(root), "/") + "/"
	if prefix == "./" {
		prefix = ""
	}

	seen := make(map[string]bool)
	var files []string
	for _, fd := range fds {
		name := diffPath(fd.NewName)
		if name == "" {
			name = diffPath(fd.OrigName)
		}
		if name == "" || !strings.HasPrefix(name, prefix) {
			continue
		}
		rel := strings.TrimPrefix(name, prefix)
		if rel == "" || seen[rel] {
			continue
		}
		seen[rel] = true
		files = append(files, rel)
	}
	sort.Strings(files)
	return files, nil
}

// diffPath strips the a/ and b/ prefixes git adds and maps /dev/null to "".
func diffPath(name string) string {
	name = strings.TrimSpace(name)
	if name == "" || name == "/dev/null" {
		return ""
	}
	if i := strings.IndexByte(name, '\t'); i >= 0 {
		name = name[:i]
	}
	for _, p := range []string{"a/", "b/"} {
		if strings.HasPrefix(name, p) {
			return name[len(p):]
		}
	}
	return name
}
