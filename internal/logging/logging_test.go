// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/pdiddy/artifact-engine/pkg/types"
)

func TestNew_Levels(t *testing.T) {
	tests := []struct {
		level string
		want  zapcore.Level
	}{
		{"", zapcore.InfoLevel},
		{"debug", zapcore.DebugLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			l, err := New(types.LogConfig{Level: tt.level})
			require.NoError(t, err)
			assert.True(t, l.Core().Enabled(tt.want))
			if tt.want > zapcore.DebugLevel {
				assert.False(t, l.Core().Enabled(tt.want-1))
			}
		})
	}
}

func TestNew_Development(t *testing.T) {
	l, err := New(types.LogConfig{Level: "info", Development: true})
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, l.Core().Enabled(zapcore.InfoLevel))
}

func TestNew_BadLevel(t *testing.T) {
	_, err := New(types.LogConfig{Level: "loud"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loud")
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))
	l, err := New(types.LogConfig{})
	require.NoError(t, err)
	assert.Same(t, l, OrNop(l))
}
