// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package parse

import "strings"

// DefaultTag frames the structured part of a model response.
const DefaultTag = "CONTENT"

// NoTagContent is returned by ExtractTag when the tags are absent.
const NoTagContent = "No content found between [CONTENT] and [/CONTENT] tags."

// ExtractTag returns the trimmed text between the first "[tag]" and the next
// "[/tag]". An empty tag means DefaultTag. When either marker is missing it
// returns NoTagContent; callers that must tell the two apart use FindTag.
func ExtractTag(text, tag string) string {
	if s, ok := FindTag(text, tag); ok {
		return s
	}
	return NoTagContent
}

// FindTag is ExtractTag with an explicit found flag.
func FindTag(text, tag string) (string, bool) {
	if tag == "" {
		tag = DefaultTag
	}
	open, close := "["+tag+"]", "[/"+tag+"]"
	i := strings.Index(text, open)
	if i < 0 {
		return "", false
	}
	rest := text[i+len(open):]
	j := strings.Index(rest, close)
	if j < 0 {
		return "", false
	}
	return strings.TrimSpace(rest[:j]), true
}
