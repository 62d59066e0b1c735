// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package aggregate maintains a plain-text side file that accumulates one
// entry per line across every derived document of a run, such as the union
// of all modules the generated task lists require.
package aggregate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/pdiddy/artifact-engine/pkg/types"
)

// Store is the subset of a document store the sink reads and writes.
type Store interface {
	Get(ctx context.Context, filename string) (*types.Document, error)
	Save(ctx context.Context, filename, content string, deps []string) (*types.Document, error)
}

// AddAll returns the union of existing and items with empty entries and
// duplicates removed. Existing lines keep their order; items not already
// present follow in sorted order, so repeated runs produce the same file.
func AddAll(existing, items []string) []string {
	seen := make(map[string]bool, len(existing)+len(items))
	out := make([]string, 0, len(existing)+len(items))
	for _, line := range existing {
		line = strings.TrimSpace(line)
		if line == "" || seen[line] {
			continue
		}
		seen[line] = true
		out = append(out, line)
	}

	var added []string
	for _, it := range items {
		it = strings.TrimSpace(it)
		if it == "" || seen[it] {
			continue
		}
		seen[it] = true
		added = append(added, it)
	}
	sort.Strings(added)
	return append(out, added...)
}

// Lines splits an aggregation file into entries.
func Lines(content string) []string {
	if content == "" {
		return nil
	}
	return strings.Split(content, "\n")
}

// Sink accumulates items into Filename in Store. Key names the structured
// field items are read from.
type Sink struct {
	Store    Store
	Filename string
	Key      string
}

// Update merges items into the sink's file and returns how many entries were
// new. An absent file is treated as empty. Nothing is written when no entry
// is new.
func (s *Sink) Update(ctx context.Context, items []string) (int, error) {
	var existing []string
	doc, err := s.Store.Get(ctx, s.Filename)
	switch {
	case err == nil:
		existing = Lines(doc.Content)
	case errors.Is(err, types.ErrNotFound):
	default:
		return 0, fmt.Errorf("reading %s: %w", s.Filename, err)
	}

	merged := AddAll(existing, items)
	added := len(merged) - len(AddAll(existing, nil))
	if added == 0 && doc != nil {
		return 0, nil
	}
	if _, err := s.Store.Save(ctx, s.Filename, strings.Join(merged, "\n"), nil); err != nil {
		return 0, fmt.Errorf("writing %s: %w", s.Filename, err)
	}
	return added, nil
}

// ItemsFrom returns the entries stored under key in a generation result. The
// structured map is consulted first; otherwise Content is decoded as a JSON
// object. A missing key yields no items.
func ItemsFrom(res types.GenResult, key string) []string {
	if v, ok := res.Structured[key]; ok {
		return toStrings(v)
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(res.Content), &obj); err != nil {
		return nil
	}
	return toStrings(obj[key])
}

func toStrings(v any) []string {
	switch x := v.(type) {
	case []string:
		return x
	case []any:
		out := make([]string, 0, len(x))
		for _, e := range x {
			if s, ok := e.(string); ok {
				out = append(out, s)
			} else if e != nil {
				out = append(out, fmt.Sprint(e))
			}
		}
		return out
	case string:
		// A lenient parse keeps unparsable list fields as text.
		return Lines(x)
	}
	return nil
}
