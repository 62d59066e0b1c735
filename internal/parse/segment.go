// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package parse turns free-form model output into typed fields. The output
// is heading-delimited prose with embedded code fences, bracketed literals,
// and tag-delimited spans. Every extractor tolerates partial output: callers
// choose between a Strict mode that reports failures and a Lenient mode that
// falls back to the raw text.
package parse

import "strings"

// HeadingMarker separates blocks in model output.
const HeadingMarker = "##"

// Block is one titled section of model output.
type Block struct {
	Title string
	Body  string
}

// Blocks is an ordered list of sections with unique titles.
type Blocks []Block

// Segment splits text on HeadingMarker. Whitespace-only segments are
// dropped; the first line of each segment is the title and the rest is the
// body. A title that repeats replaces the earlier body but keeps the earlier
// position. Text without any marker yields no blocks.
func Segment(text string) Blocks {
	var blocks Blocks
	index := make(map[string]int)

	for _, seg := range splitMarker(text) {
		if strings.TrimSpace(seg) == "" {
			continue
		}
		title, body := seg, ""
		if i := strings.IndexByte(seg, '\n'); i >= 0 {
			title, body = seg[:i], seg[i+1:]
		}
		title = strings.TrimSpace(title)
		title = strings.TrimSuffix(title, ":")
		title = strings.TrimSpace(title)
		body = strings.TrimSpace(body)

		if i, ok := index[title]; ok {
			blocks[i].Body = body
			continue
		}
		index[title] = len(blocks)
		blocks = append(blocks, Block{Title: title, Body: body})
	}
	return blocks
}

// splitMarker returns the segments that follow each marker. Text before the
// first marker is not a block and is discarded.
func splitMarker(text string) []string {
	first := strings.Index(text, HeadingMarker)
	if first < 0 {
		return nil
	}
	var segs []string
	rest := text[first+len(HeadingMarker):]
	for {
		i := strings.Index(rest, HeadingMarker)
		if i < 0 {
			segs = append(segs, rest)
			return segs
		}
		segs = append(segs, rest[:i])
		rest = rest[i+len(HeadingMarker):]
	}
}

// Find returns the first block whose title contains substr.
func (bs Blocks) Find(substr string) (Block, bool) {
	for _, b := range bs {
		if strings.Contains(b.Title, substr) {
			return b, true
		}
	}
	return Block{}, false
}

// Get returns the body of the block titled exactly title.
func (bs Blocks) Get(title string) (string, bool) {
	for _, b := range bs {
		if b.Title == title {
			return b.Body, true
		}
	}
	return "", false
}

// Titles returns block titles in order.
func (bs Blocks) Titles() []string {
	out := make([]string, len(bs))
	for i, b := range bs {
		out[i] = b.Title
	}
	return out
}

// Join renders the blocks back into marker-delimited text. Segment(bs.Join())
// returns the same blocks.
func (bs Blocks) Join() string {
	var b strings.Builder
	for i, blk := range bs {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(HeadingMarker)
		b.WriteString(" ")
		b.WriteString(blk.Title)
		b.WriteString("\n")
		b.WriteString(blk.Body)
		b.WriteString("\n")
	}
	return b.String()
}
