// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/artifact-engine/pkg/types"
)

const reply = `[CONTENT]
## Required Go modules
` + "```python" + `
["github.com/spf13/cobra", "go.uber.org/zap"]
` + "```" + `

## Logic Analysis
[("main.go", "entry point"), ("run.go", "pipeline wiring")]

## Task list
["main.go", "run.go"]

## Shared Knowledge
Both files share the root command.
[/CONTENT]`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
		for _, name := range []string{"strict", "strip-strings", "block", "schema"} {
			_ = parseCmd.Flags().Set(name, parseCmd.Flags().Lookup(name).DefValue)
		}
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func writeReply(t *testing.T, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "reply.md")
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	return path
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "artifact-engine dev\n", out)
}

func TestParse_SchemaOrder(t *testing.T) {
	out, err := execute(t, "parse", writeReply(t, reply))
	require.NoError(t, err)

	var node yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(out), &node))
	m := node.Content[0]
	var keys []string
	for i := 0; i < len(m.Content); i += 2 {
		keys = append(keys, m.Content[i].Value)
	}
	assert.Equal(t, []string{"Required Go modules", "Logic Analysis", "Task list", "Shared Knowledge"}, keys)

	var fields map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &fields))
	assert.Equal(t, []any{"github.com/spf13/cobra", "go.uber.org/zap"}, fields["Required Go modules"])
	assert.Equal(t, []any{[]any{"main.go", "entry point"}, []any{"run.go", "pipeline wiring"}}, fields["Logic Analysis"])
	assert.Equal(t, "Both files share the root command.", fields["Shared Knowledge"])
}

func TestParse_StrictFailure(t *testing.T) {
	bad := "[CONTENT]\n## Task list\n[\"main.go\", {]\n[/CONTENT]"
	path := writeReply(t, bad)

	_, err := execute(t, "parse", path)
	require.NoError(t, err)

	_, err = execute(t, "parse", "--strict", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Task list")
}

func TestParse_JSONSchema(t *testing.T) {
	text := "[CONTENT]\n{\"Task list\": [\"main.go\"], \"Shared Knowledge\": \"none\"}\n[/CONTENT]"
	out, err := execute(t, "parse", "--schema", "json", writeReply(t, text))
	require.NoError(t, err)
	assert.Equal(t, "Task list:\n  - main.go\nShared Knowledge: none\n", out)

	_, err = execute(t, "parse", "--schema", "xml", writeReply(t, text))
	require.Error(t, err)
}

func TestParse_Block(t *testing.T) {
	out, err := execute(t, "parse", "--block", "Task list", writeReply(t, reply))
	require.NoError(t, err)

	var files []string
	require.NoError(t, yaml.Unmarshal([]byte(out), &files))
	assert.Equal(t, []string{"main.go", "run.go"}, files)
}

func TestWriteReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.yaml")
	report := &types.RunReport{
		RunID:     "r1",
		StartedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Outcomes: []types.FileOutcome{
			{Filename: "a.md", Action: types.ActionGenerated},
			{Filename: "b.md", Action: types.ActionFailed, Error: "b.md: generate: boom"},
		},
	}
	require.NoError(t, writeReport(path, report))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got types.RunReport
	require.NoError(t, yaml.Unmarshal(data, &got))
	assert.Equal(t, "r1", got.RunID)
	assert.Equal(t, report.Outcomes, got.Outcomes)
}

func TestReadDiff(t *testing.T) {
	diff := `diff --git a/docs/system_design/a.md b/docs/system_design/a.md
--- a/docs/system_design/a.md
+++ b/docs/system_design/a.md
@@ -1 +1 @@
-old
+new
diff --git a/README.md b/README.md
--- a/README.md
+++ b/README.md
@@ -1 +1 @@
-x
+y
`
	path := filepath.Join(t.TempDir(), "changes.diff")
	require.NoError(t, os.WriteFile(path, []byte(diff), 0o644))

	files, err := readDiff(path, "docs/system_design")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.md"}, files)

	_, err = readDiff(filepath.Join(t.TempDir(), "absent.diff"), "docs")
	require.Error(t, err)
}
