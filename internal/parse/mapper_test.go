// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package parse

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/artifact-engine/pkg/types"
)

var taskSchema = types.Schema{
	{Name: "Required Go modules", Shape: types.ShapeStringList},
	{Name: "Logic Analysis", Shape: types.ShapePairList},
	{Name: "Task list", Shape: types.ShapeStringList},
	{Name: "Shared Knowledge", Shape: types.ShapeString},
	{Name: "Anything UNCLEAR", Shape: types.ShapeString},
}

const taskOutput = "Sure, here is the plan.\n[CONTENT]\n" +
	"## Required Go modules:\n```go\n[\"github.com/spf13/cobra\", \"go.uber.org/zap\"]\n```\n" +
	"## Logic Analysis\n[[\"main.go\", \"entry point\"], (\"store.go\", \"persistence\")]\n" +
	"## Task list\n- store.go\n- main.go\n" +
	"## Shared Knowledge\n`store.go` holds the schema.\n" +
	"[/CONTENT]\n"

func TestParseWithSchema_Lenient(t *testing.T) {
	got, err := Mapper{}.ParseWithSchema(taskOutput, taskSchema)
	require.NoError(t, err)

	want := map[string]any{
		"Required Go modules": []string{"github.com/spf13/cobra", "go.uber.org/zap"},
		"Logic Analysis":      [][]string{{"main.go", "entry point"}, {"store.go", "persistence"}},
		"Task list":           []string{"- store.go", "- main.go"},
		"Shared Knowledge":    "`store.go` holds the schema.",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseWithSchema mismatch (-want +got):\n%s", diff)
	}
	assert.NotContains(t, got, "Anything UNCLEAR", "fields without a block are omitted")
}

func TestParseWithSchema_StrictNamesField(t *testing.T) {
	_, err := Mapper{Mode: Strict}.ParseWithSchema(taskOutput, taskSchema)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoLiteralFound)

	var ee *ExtractionError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, "Task list", ee.Field)
	assert.Equal(t, "Task list", ee.Block)
}

func TestParseWithSchema_NoTagUsesWholeText(t *testing.T) {
	got, err := Mapper{}.ParseWithSchema("## Shared Knowledge\nall of it", taskSchema)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"Shared Knowledge": "all of it"}, got)
}

func TestMapFields_PairShapeMismatch(t *testing.T) {
	blocks := Segment("## Logic Analysis\n[[\"a\", \"b\", \"c\"]]")
	schema := types.Schema{{Name: "Logic Analysis", Shape: types.ShapePairList}}

	got := MapFields(blocks, schema)
	assert.Equal(t, `[["a", "b", "c"]]`, got["Logic Analysis"], "lenient keeps the text")

	_, err := MapFieldsStrict(blocks, schema)
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestMapFields_ListOfLists(t *testing.T) {
	blocks := Segment("## Matrix\n[[\"a\"], [\"b\", \"c\"], []]")
	schema := types.Schema{{Name: "Matrix", Shape: types.ShapeListList}}

	got, err := MapFieldsStrict(blocks, schema)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a"}, {"b", "c"}, {}}, got["Matrix"])
}

func TestMapFields_ScalarsBecomeStrings(t *testing.T) {
	blocks := Segment("## Ports\n[8080, 9090]")
	schema := types.Schema{{Name: "Ports", Shape: types.ShapeStringList}}

	got, err := MapFieldsStrict(blocks, schema)
	require.NoError(t, err)
	assert.Equal(t, []string{"8080", "9090"}, got["Ports"])
}

func TestMapper_StripStrings(t *testing.T) {
	blocks := Segment("## Project name\n```go\nproject_name = \"engine\"\n```")
	schema := types.Schema{{Name: "Project name", Shape: types.ShapeString}}

	plain := MapFields(blocks, schema)
	assert.Equal(t, `project_name = "engine"`, plain["Project name"])

	got, err := Mapper{StripStrings: true}.Map(blocks, schema)
	require.NoError(t, err)
	assert.Equal(t, "engine", got["Project name"])
}

func TestParseFileList(t *testing.T) {
	got, err := ParseFileList("## File list\n```python\n[\"a.py\", \"b.py\"]\n```\n## Other\nx", "File list")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.py", "b.py"}, got)

	got, err = ParseFileList("## File list\n[\"c.py\"]", "File list")
	require.NoError(t, err, "a missing fence is tolerated")
	assert.Equal(t, []string{"c.py"}, got)

	_, err = ParseFileList("## File list\nnone yet", "File list")
	assert.ErrorIs(t, err, ErrNoLiteralFound)
}

const taskJSON = `Plan follows.
[CONTENT]
{
  "Required Go modules": ["github.com/spf13/cobra", "go.uber.org/zap"],
  "Logic Analysis": [["main.go", "entry point"], ["store.go", "persistence"]],
  "Task list": "store.go, main.go",
  "Shared Knowledge": "store.go holds the schema."
}
[/CONTENT]`

func TestParseJSONWithSchema_Lenient(t *testing.T) {
	got, err := Mapper{}.ParseJSONWithSchema(taskJSON, taskSchema)
	require.NoError(t, err)

	want := map[string]any{
		"Required Go modules": []string{"github.com/spf13/cobra", "go.uber.org/zap"},
		"Logic Analysis":      [][]string{{"main.go", "entry point"}, {"store.go", "persistence"}},
		"Task list":           "store.go, main.go",
		"Shared Knowledge":    "store.go holds the schema.",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseJSONWithSchema mismatch (-want +got):\n%s", diff)
	}
	assert.NotContains(t, got, "Anything UNCLEAR")
}

func TestParseJSONWithSchema_StrictNamesField(t *testing.T) {
	_, err := Mapper{Mode: Strict}.ParseJSONWithSchema(taskJSON, taskSchema)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrShapeMismatch)

	var ee *ExtractionError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, "Task list", ee.Field)
}

func TestParseJSONWithSchema_Malformed(t *testing.T) {
	text := "[CONTENT]\n{\"Task list\": [\"main.go\",}\n[/CONTENT]"

	got, err := Mapper{}.ParseJSONWithSchema(text, taskSchema)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = Mapper{Mode: Strict}.ParseJSONWithSchema(text, taskSchema)
	assert.ErrorIs(t, err, ErrMalformedLiteral)
}

func TestMapValues_StripStrings(t *testing.T) {
	schema := types.Schema{{Name: "Project name", Shape: types.ShapeString}}
	got, err := Mapper{StripStrings: true}.MapValues(map[string]any{"Project name": `name = "game"`}, schema)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"Project name": "game"}, got)
}
