// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package parse

import (
	"strings"
	"unicode"

	"go.uber.org/zap"
)

// Mode selects how an extractor reacts to missing structure.
type Mode int

const (
	// Lenient falls back to the raw text when structure is missing.
	Lenient Mode = iota
	// Strict reports missing structure as an *ExtractionError.
	Strict
)

func (m Mode) String() string {
	if m == Strict {
		return "strict"
	}
	return "lenient"
}

const fenceMarker = "```"

// ExtractFence is Extractor{}.Fence.
func ExtractFence(text, block, lang string, mode Mode) (string, error) {
	return Extractor{}.Fence(text, block, lang, mode)
}

// Fence returns the trimmed interior of the first code fence opened with
// "```"+lang. When block is non-empty the search is restricted to the body
// of the first block whose title contains block; if no block matches the
// whole text is searched. On a miss Strict returns NoFenceFound and Lenient
// logs at Debug and returns the searched text unchanged.
func (x Extractor) Fence(text, block, lang string, mode Mode) (string, error) {
	if block != "" {
		if b, ok := Segment(text).Find(block); ok {
			text = b.Body
		}
	}
	if code, ok := findFence(text, lang); ok {
		return code, nil
	}
	if mode == Strict {
		return "", newError(NoFenceFound, "no %q fence in %d bytes of text", fenceMarker+lang, len(text))
	}
	x.log().Debug("no code fence, using raw text",
		zap.String("lang", lang), zap.String("block", block), zap.Int("bytes", len(text)))
	return text, nil
}

// findFence scans for the opening marker, skips the rest of its info token
// and the whitespace after it, and reads up to the next marker.
func findFence(text, lang string) (string, bool) {
	i := strings.Index(text, fenceMarker+lang)
	if i < 0 {
		return "", false
	}
	j := i + len(fenceMarker) + len(lang)
	for j < len(text) && !isSpace(text[j]) {
		j++
	}
	if j == len(text) {
		return "", false
	}
	for j < len(text) && isSpace(text[j]) {
		j++
	}
	end := strings.Index(text[j:], fenceMarker)
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(text[j : j+end]), true
}

func isSpace(c byte) bool {
	return c < 0x80 && unicode.IsSpace(rune(c))
}
