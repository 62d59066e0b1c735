// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package parse

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestExtractFence_InBlock(t *testing.T) {
	got, err := ExtractFence("## Title\n```python\nprint(1)\n```", "Title", "python", Strict)
	require.NoError(t, err)
	assert.Equal(t, "print(1)", got)
}

func TestExtractFence_RestrictedToBlock(t *testing.T) {
	text := "## First\n```go\nfirst()\n```\n## Second\n```go\nsecond()\n```\n"
	got, err := ExtractFence(text, "Second", "go", Strict)
	require.NoError(t, err)
	assert.Equal(t, "second()", got)
}

func TestExtractFence_MissingBlockSearchesWholeText(t *testing.T) {
	got, err := ExtractFence("no headings here\n```json\n[1, 2]\n```", "Missing", "json", Strict)
	require.NoError(t, err)
	assert.Equal(t, "[1, 2]", got)
}

func TestExtractFence_AnyLanguage(t *testing.T) {
	got, err := ExtractFence("```go\nx := 1\n```", "", "", Strict)
	require.NoError(t, err)
	assert.Equal(t, "x := 1", got)
}

func TestExtractFence_StrictMiss(t *testing.T) {
	_, err := ExtractFence("plain text", "", "json", Strict)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoFenceFound))

	var ee *ExtractionError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, NoFenceFound, ee.Kind)
}

func TestExtractFence_LenientMissReturnsText(t *testing.T) {
	got, err := ExtractFence("plain text", "", "json", Lenient)
	require.NoError(t, err)
	assert.Equal(t, "plain text", got)

	got, err = ExtractFence("## Notes\nbody only", "Notes", "json", Lenient)
	require.NoError(t, err)
	assert.Equal(t, "body only", got)
}

func TestExtractFence_Unterminated(t *testing.T) {
	_, err := ExtractFence("```json\n[1, 2]", "", "json", Strict)
	assert.ErrorIs(t, err, ErrNoFenceFound)
}

func TestExtractFence_WrongLanguage(t *testing.T) {
	_, err := ExtractFence("```python\nx = 1\n```", "", "go", Strict)
	assert.ErrorIs(t, err, ErrNoFenceFound)
}

func TestFence_LenientMissLogsDebug(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	x := Extractor{Logger: zap.New(core)}

	got, err := x.Fence("plain text", "", "json", Lenient)
	require.NoError(t, err)
	assert.Equal(t, "plain text", got)
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.DebugLevel, entry.Level)
	assert.Equal(t, "json", entry.ContextMap()["lang"])

	_, err = x.Fence("```json\n[1]\n```", "", "json", Lenient)
	require.NoError(t, err)
	_, err = x.Fence("plain text", "", "json", Strict)
	require.Error(t, err)
	assert.Equal(t, 1, logs.Len(), "hits and strict misses do not log")
}
