// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package parse

import (
	"strings"

	"go.uber.org/zap"
)

// Extractor pulls bracketed literals out of free text. The zero value is
// usable; Logger receives a warning when no literal is present.
type Extractor struct {
	Logger *zap.Logger
}

func (x Extractor) log() *zap.Logger {
	if x.Logger == nil {
		return zap.NewNop()
	}
	return x.Logger
}

// ExtractList is Extractor{}.List.
func ExtractList(text string) ([]any, error) { return Extractor{}.List(text) }

// ExtractMap is Extractor{}.Map.
func ExtractMap(text string) (map[string]any, error) { return Extractor{}.Map(text) }

// List parses the span from the first '[' to the last ']' in text. Text
// without such a span yields an empty list and no error.
func (x Extractor) List(text string) ([]any, error) {
	v, ok, err := x.span(text, '[', ']', "list")
	if err != nil || !ok {
		return []any{}, err
	}
	list, isList := v.([]any)
	if !isList {
		return []any{}, newError(ShapeMismatch, "expected a list, parsed %s", describe(v))
	}
	return list, nil
}

// Map parses the span from the first '{' to the last '}' in text. Text
// without such a span yields an empty map and no error.
func (x Extractor) Map(text string) (map[string]any, error) {
	v, ok, err := x.span(text, '{', '}', "map")
	if err != nil || !ok {
		return map[string]any{}, err
	}
	m, isMap := v.(map[string]any)
	if !isMap {
		return map[string]any{}, newError(ShapeMismatch, "expected a map, parsed %s", describe(v))
	}
	return m, nil
}

func (x Extractor) span(text string, open, close byte, what string) (any, bool, error) {
	start := strings.IndexByte(text, open)
	end := strings.LastIndexByte(text, close)
	if start < 0 || end < start {
		x.log().Warn("no literal found in text",
			zap.String("shape", what),
			zap.Int("bytes", len(text)))
		return nil, false, nil
	}
	v, err := ParseLiteral(text[start : end+1])
	if err != nil {
		return nil, false, &ExtractionError{Kind: MalformedLiteral, Err: err}
	}
	return v, true, nil
}

// InlineList parses a single list that may be written as an assignment
// ("files = [...]"); anything before the first '[' is ignored. Without
// any bracket, Lenient splits text into one item per non-empty line and
// Strict reports NoLiteralFound.
func InlineList(text string, mode Mode) ([]any, error) {
	start := strings.IndexByte(text, '[')
	end := strings.LastIndexByte(text, ']')
	if start < 0 || end < start {
		if mode == Strict {
			return nil, newError(NoLiteralFound, "no bracketed list in %d bytes of text", len(text))
		}
		return splitLines(text), nil
	}
	v, err := ParseLiteral(text[start : end+1])
	if err != nil {
		return nil, &ExtractionError{Kind: MalformedLiteral, Err: err}
	}
	list, ok := v.([]any)
	if !ok {
		return nil, newError(ShapeMismatch, "expected a list, parsed %s", describe(v))
	}
	return list, nil
}

func splitLines(text string) []any {
	items := []any{}
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			items = append(items, line)
		}
	}
	return items
}

// ParseStr drops everything up to the last '=' and strips surrounding
// quotes, turning `name = "value"` into `value`. It misreads legitimate
// content that contains '=' or quotes, so the mapper only applies it when
// Mapper.StripStrings is set.
func ParseStr(text string) string {
	if i := strings.LastIndexByte(text, '='); i >= 0 {
		text = text[i+1:]
	}
	text = strings.TrimSpace(text)
	text = strings.Trim(text, `'`)
	text = strings.Trim(text, `"`)
	return text
}

func describe(v any) string {
	switch v.(type) {
	case []any:
		return "a list"
	case map[string]any:
		return "a map"
	case Tuple:
		return "a tuple"
	case Set:
		return "a set"
	case string:
		return "a string"
	case nil:
		return "null"
	}
	return "a scalar"
}
