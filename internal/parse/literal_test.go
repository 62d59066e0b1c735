// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package parse

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLiteral_Values(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want any
	}{
		{"empty list", "[]", []any{}},
		{"nested", `[1, "a", [2.5, None], {"k": True}]`, []any{int64(1), "a", []any{2.5, nil}, map[string]any{"k": true}}},
		{"trailing comma", "[1, 2,]", []any{int64(1), int64(2)}},
		{"json keywords", "[true, false, null]", []any{true, false, nil}},
		{"empty map", "{}", map[string]any{}},
		{"scalar keys", `{1: "a", 'b': [1,]}`, map[string]any{"1": "a", "b": []any{int64(1)}}},
		{"set", `{"a", "b"}`, Set{"a", "b"}},
		{"empty tuple", "()", Tuple{}},
		{"one tuple", "(1,)", Tuple{int64(1)}},
		{"parenthesized", "(1)", int64(1)},
		{"pair", `("main.go", "entry")`, Tuple{"main.go", "entry"}},
		{"underscores", "1_000", int64(1000)},
		{"negative float", "-2.5e3", -2500.0},
		{"exponent", "1e5", 100000.0},
		{"leading dot", ".5", 0.5},
		{"adjacent strings", `"a" 'b'`, "ab"},
		{"triple quoted", "'''line one\nline \"two\"'''", "line one\nline \"two\""},
		{"escapes", `"é\x41\t\q"`, "éA\t\\q"},
		{"raw string", `r"a\nb"`, `a\nb`},
		{"unicode passthrough", `"héllo"`, "héllo"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLiteral(tt.src)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseLiteral(%q) mismatch (-want +got):\n%s", tt.src, diff)
			}
		})
	}
}

func TestParseLiteral_RejectsNonLiterals(t *testing.T) {
	for _, src := range []string{
		"__import__('os').system('true')",
		"[1, open('x')]",
		"[1] + [2]",
		"[1, 2",
		`"unterminated`,
		"{1: }",
		"{'a' 1}",
		"[1 2]",
		"",
		"-",
	} {
		t.Run(src, func(t *testing.T) {
			_, err := ParseLiteral(src)
			var se *SyntaxError
			assert.ErrorAs(t, err, &se)
		})
	}
}

func TestParseLiteral_DepthLimit(t *testing.T) {
	src := strings.Repeat("[", maxDepth+10) + strings.Repeat("]", maxDepth+10)
	_, err := ParseLiteral(src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nesting deeper")
}

func TestParseLiteral_ErrorOffset(t *testing.T) {
	_, err := ParseLiteral("[1, 2] x")
	var se *SyntaxError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 7, se.Offset)
}
